package registry

import (
	"os/exec"
	"strings"
)

// Identity sources.
const (
	SourceGitConfig = "git-config"
	SourceGitHubCLI = "github-cli"
	SourceSuggested = "suggested"
)

// Identity is a best guess at who is onboarding, used to prefill prompts.
type Identity struct {
	Name   string
	Email  string
	GitHub string

	// Source records where GitHub came from.
	Source string
}

// runCommand executes a command and returns its trimmed stdout.
var runCommand = func(dir, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Detect fills in what it can from available sources.
// Priority order for each field:
//  1. Git config (user.name, user.email, github.user)
//  2. GitHub CLI (gh api user)
//  3. A handle suggested from the email or name
func Detect(workDir string) Identity {
	id := detectFromGitConfig(workDir)

	if id.GitHub == "" || id.Name == "" || id.Email == "" {
		gh := detectFromGitHub()
		if id.GitHub == "" && gh.GitHub != "" {
			id.GitHub = gh.GitHub
			id.Source = SourceGitHubCLI
		}
		if id.Name == "" {
			id.Name = gh.Name
		}
		if id.Email == "" {
			id.Email = gh.Email
		}
	}

	if id.GitHub == "" && (id.Name != "" || id.Email != "") {
		id.GitHub = suggestHandle(id.Name, id.Email)
		id.Source = SourceSuggested
	}

	return id
}

// detectFromGitConfig reads identity from git config.
func detectFromGitConfig(dir string) Identity {
	var id Identity
	if name, err := runCommand(dir, "git", "config", "user.name"); err == nil {
		id.Name = name
	}
	if email, err := runCommand(dir, "git", "config", "user.email"); err == nil {
		id.Email = email
	}
	if handle, err := runCommand(dir, "git", "config", "github.user"); err == nil && handle != "" {
		id.GitHub = handle
		id.Source = SourceGitConfig
	}
	return id
}

// detectFromGitHub asks the GitHub CLI for the logged-in account.
func detectFromGitHub() Identity {
	out, err := runCommand("", "gh", "api", "user", "--jq", ".login + \"|\" + (.name // \"\") + \"|\" + (.email // \"\")")
	if err != nil {
		return Identity{}
	}

	parts := strings.Split(out, "|")
	if len(parts) < 1 || parts[0] == "" {
		return Identity{}
	}

	id := Identity{GitHub: parts[0], Source: SourceGitHubCLI}
	if len(parts) >= 2 {
		id.Name = parts[1]
	}
	if len(parts) >= 3 {
		id.Email = parts[2]
	}
	return id
}

// suggestHandle derives a plausible handle from an email or name.
// If email is provided, uses the local part. Otherwise lowercases and
// hyphenates the name.
func suggestHandle(name, email string) string {
	if email != "" {
		if idx := strings.Index(email, "@"); idx > 0 {
			return strings.ToLower(email[:idx])
		}
	}

	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.ReplaceAll(lower, " ", "-")
	var cleaned strings.Builder
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			cleaned.WriteRune(r)
		}
	}
	return cleaned.String()
}
