package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Sirily23/udicti-cli/internal/config"
	"github.com/Sirily23/udicti-cli/internal/model"
	"github.com/Sirily23/udicti-cli/internal/registry"
)

// ConfigCheck verifies that the config file parses.
type ConfigCheck struct {
	BaseCheck
}

// NewConfigCheck creates a new config check.
func NewConfigCheck() *ConfigCheck {
	return &ConfigCheck{
		BaseCheck: BaseCheck{
			CheckName:        "config",
			CheckDescription: "Verify config.toml is readable",
		},
	}
}

// Run checks the config file.
func (c *ConfigCheck) Run(ctx *CheckContext) *CheckResult {
	if _, err := os.Stat(ctx.ConfigPath); os.IsNotExist(err) {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusOK,
			Message: "No config file (using defaults)",
		}
	}

	if _, err := config.LoadFrom(ctx.ConfigPath); err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "config.toml could not be parsed",
			Details: []string{err.Error()},
			FixHint: "Edit " + ctx.ConfigPath + " or delete it to restore defaults",
		}
	}

	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: "config.toml is valid",
	}
}

// RegistryCheck verifies that the local developer registry is a readable JSON
// array. It can create a missing file and replace an unreadable one, keeping
// the old contents in a backup.
type RegistryCheck struct {
	FixableCheck
}

// NewRegistryCheck creates a new registry check.
func NewRegistryCheck() *RegistryCheck {
	return &RegistryCheck{
		FixableCheck: FixableCheck{
			BaseCheck: BaseCheck{
				CheckName:        "registry",
				CheckDescription: "Verify the local developer registry is readable",
			},
		},
	}
}

// Run checks the registry file.
func (c *RegistryCheck) Run(ctx *CheckContext) *CheckResult {
	data, err := os.ReadFile(ctx.RegistryPath)
	if os.IsNotExist(err) {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: "No local registry (will be created on first use)",
			FixHint: "Run 'udicti doctor --fix' to create it now",
		}
	}
	if err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "Local registry could not be read",
			Details: []string{err.Error()},
		}
	}

	var devs []model.Developer
	if err := json.Unmarshal(data, &devs); err != nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusError,
			Message: "Local registry is not valid JSON",
			Details: []string{
				ctx.RegistryPath,
				"Listing works but shows no cached developers",
				"The next registration will replace the file",
			},
			FixHint: "Run 'udicti doctor --fix' to back it up and start fresh",
		}
	}

	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: fmt.Sprintf("Local registry holds %d developer(s)", len(devs)),
	}
}

// Fix creates the registry, moving an unreadable file aside first.
func (c *RegistryCheck) Fix(ctx *CheckContext) error {
	_, err := registry.New(ctx.RegistryPath).Repair()
	return err
}

// DirectoryCheck verifies the remote directory answers.
type DirectoryCheck struct {
	BaseCheck
}

// NewDirectoryCheck creates a new directory connectivity check.
func NewDirectoryCheck() *DirectoryCheck {
	return &DirectoryCheck{
		BaseCheck: BaseCheck{
			CheckName:        "directory",
			CheckDescription: "Verify the UDICTI directory is reachable",
		},
	}
}

// Run fetches the developer list once.
func (c *DirectoryCheck) Run(ctx *CheckContext) *CheckResult {
	if ctx.Directory == nil {
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: "No directory configured",
			FixHint: "Set one with 'udicti config set api_base <url>'",
		}
	}

	timeout := ctx.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	devs, err := ctx.Directory.FetchDevelopers(reqCtx)
	if err != nil {
		details := []string{ctx.Directory.BaseURL(), err.Error()}
		if errors.Is(err, context.DeadlineExceeded) {
			details = append(details, "The request timed out")
		}
		return &CheckResult{
			Name:    c.Name(),
			Status:  StatusWarning,
			Message: "Directory is unreachable; commands will use the local registry",
			Details: details,
			FixHint: "Check your connection or 'udicti config get api_base'",
		}
	}

	return &CheckResult{
		Name:    c.Name(),
		Status:  StatusOK,
		Message: fmt.Sprintf("Directory reachable (%d developers)", len(devs)),
	}
}
