package cmd

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/Sirily23/udicti-cli/internal/config"
	"github.com/Sirily23/udicti-cli/internal/model"
	"github.com/Sirily23/udicti-cli/internal/registry"
	"github.com/Sirily23/udicti-cli/internal/server"
	"github.com/Sirily23/udicti-cli/internal/store"
)

// runCLI runs the root command in an isolated config dir and returns stdout.
func runCLI(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	out := prepareCLI(t, configDir, false, args)
	err := rootCmd.Execute()
	return out.String(), err
}

// prepareCLI isolates the environment, resets flags and points the root
// command at args. The returned buffer collects stdout and stderr.
func prepareCLI(t *testing.T, configDir string, telemetry bool, args []string) *bytes.Buffer {
	t.Helper()
	t.Setenv(config.EnvConfigDir, configDir)
	t.Setenv(config.EnvTelemetry, strconv.FormatBool(telemetry))
	t.Setenv(config.EnvAPIBase, "")
	t.Setenv(registry.EnvVarUser, "")

	verbose, noTelemetry, apiBaseFlag = false, false, ""
	showLocal, showJSON = false, false
	onboardName, onboardEmail, onboardGitHub = "", "", ""
	onboardSkills, onboardInterests, onboardNoInput = "", "", false
	doctorFix = false

	if args == nil {
		args = []string{}
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	return &out
}

func startBackend(t *testing.T) string {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "backend.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	ts := httptest.NewServer(server.New(st, server.Config{}).Handler())
	t.Cleanup(ts.Close)
	return ts.URL + "/api"
}

func TestWelcome(t *testing.T) {
	out, err := runCLI(t, t.TempDir())
	if err != nil {
		t.Fatalf("udicti: %v", err)
	}
	if !strings.Contains(out, "UDICTI Developer Community") {
		t.Errorf("banner missing from output:\n%s", out)
	}
	if !strings.Contains(out, "udicti onboarding") {
		t.Errorf("getting-started hints missing:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "udicti "+Version+"\n" {
		t.Errorf("output = %q", out)
	}
}

func TestConfigSetGet(t *testing.T) {
	dir := t.TempDir()

	if _, err := runCLI(t, dir, "config", "set", "api_base", "http://localhost:9000/api/"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	out, err := runCLI(t, dir, "config", "get", "api_base")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	if strings.TrimSpace(out) != "http://localhost:9000/api" {
		t.Errorf("api_base = %q", out)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("config.toml not written: %v", err)
	}

	if _, err := runCLI(t, dir, "config", "set", "telemetry", "maybe"); err == nil {
		t.Error("expected an error for a non-boolean telemetry value")
	}
	if _, err := runCLI(t, dir, "config", "get", "nope"); err == nil {
		t.Error("expected an error for an unknown key")
	}
}

func TestOnboardingAndShow(t *testing.T) {
	dir := t.TempDir()
	api := startBackend(t)

	out, err := runCLI(t, dir, "--api-base", api, "onboarding", "--no-input",
		"--name", "Asha", "--email", "asha@udicti.dev", "--github", "asha", "--skills", "go,sql")
	if err != nil {
		t.Fatalf("onboarding: %v", err)
	}
	if !strings.Contains(out, "Welcome to UDICTI") {
		t.Errorf("unexpected onboarding output:\n%s", out)
	}

	current, err := registry.Current(dir)
	if err != nil || current != "asha@udicti.dev" {
		t.Errorf("current developer = %q, %v", current, err)
	}

	out, err = runCLI(t, dir, "--api-base", api, "join", "--no-input",
		"--name", "Asha", "--email", "asha@udicti.dev", "--github", "asha")
	if err != nil {
		t.Fatalf("second onboarding: %v", err)
	}
	if !strings.Contains(out, "already registered locally") {
		t.Errorf("second registration should warn:\n%s", out)
	}

	out, err = runCLI(t, dir, "--api-base", api, "show", "devs", "--json")
	if err != nil {
		t.Fatalf("show devs: %v", err)
	}
	var listing struct {
		Count  int    `json:"count"`
		Source string `json:"source"`
		Stale  bool   `json:"stale"`
	}
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatalf("decoding listing %q: %v", out, err)
	}
	if listing.Count != 1 || listing.Source != "remote" || listing.Stale {
		t.Errorf("listing = %+v", listing)
	}
}

func TestOnboardingValidationFails(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "--api-base", "http://127.0.0.1:1/api", "onboarding", "--no-input", "--name", "Asha")
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "missing required fields: email, github") {
		t.Errorf("err = %v", err)
	}
}

func TestShowDevsOffline(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New(registry.Path(dir))
	for _, name := range []string{"asha", "baraka"} {
		d := model.Developer{Name: name, Email: name + "@udicti.dev", GitHub: name}
		if _, err := reg.Add(d); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	out, err := runCLI(t, dir, "--api-base", "http://127.0.0.1:1/api", "show", "devs")
	if err != nil {
		t.Fatalf("show devs: %v", err)
	}
	if !strings.Contains(out, "Offline") {
		t.Errorf("stale listing should be marked offline:\n%s", out)
	}
	if !strings.Contains(out, "asha") || !strings.Contains(out, "baraka") {
		t.Errorf("local developers missing:\n%s", out)
	}
}

func TestDoctor(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, registry.FileName), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, dir, "--api-base", startBackend(t), "doctor", "--fix")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !strings.Contains(out, "fixed registry") {
		t.Errorf("doctor output:\n%s", out)
	}
	if !strings.Contains(out, "3 passed") {
		t.Errorf("expected all checks to pass after fix:\n%s", out)
	}
}

func TestExecuteNestedCommandReportsSubcommand(t *testing.T) {
	var (
		mu     sync.Mutex
		events []model.Event
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/log" {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		var ev model.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err == nil {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}
		w.Write([]byte(`{"status":"logged"}`))
	}))
	defer ts.Close()

	out := prepareCLI(t, t.TempDir(), true, []string{"--api-base", ts.URL + "/api", "show", "devs"})
	if code := Execute(); code != 0 {
		t.Fatalf("Execute() = %d, output:\n%s", code, out)
	}

	mu.Lock()
	defer mu.Unlock()
	var startup *model.Event
	for i := range events {
		if events[i].Event == "cli_startup" {
			startup = &events[i]
		}
	}
	if startup == nil {
		t.Fatalf("no cli_startup event among %d events", len(events))
	}
	if got := startup.Data["subcommand"]; got != "show devs" {
		t.Errorf("subcommand = %v, want %q", got, "show devs")
	}
}

func TestSubcommandName(t *testing.T) {
	if got := subcommandName(rootCmd); got != "welcome" {
		t.Errorf("root = %q", got)
	}
	if got := subcommandName(showDevsCmd); got != "show devs" {
		t.Errorf("show devs = %q", got)
	}
	if got := subcommandName(configSetCmd); got != "config set" {
		t.Errorf("config set = %q", got)
	}
}

func TestSkillsSummary(t *testing.T) {
	tests := []struct {
		skills []string
		want   string
	}{
		{nil, "No skills listed"},
		{[]string{"go"}, "go"},
		{[]string{"go", "sql", "rust"}, "go, sql, rust"},
		{[]string{"go", "sql", "rust", "c"}, "go, sql, rust..."},
	}
	for _, tt := range tests {
		if got := skillsSummary(tt.skills); got != tt.want {
			t.Errorf("skillsSummary(%v) = %q, want %q", tt.skills, got, tt.want)
		}
	}
}
