package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sirily23/udicti-cli/internal/model"
)

type stubDirectory struct {
	devs []model.Developer
	err  error
}

func (s stubDirectory) FetchDevelopers(context.Context) ([]model.Developer, error) {
	return s.devs, s.err
}

func (s stubDirectory) BaseURL() string { return "http://directory.test/api" }

func newCheckContext(t *testing.T) *CheckContext {
	t.Helper()
	dir := t.TempDir()
	return &CheckContext{
		ConfigPath:   filepath.Join(dir, "config.toml"),
		RegistryPath: filepath.Join(dir, "users.json"),
		Directory:    stubDirectory{devs: []model.Developer{{Name: "Asha"}}},
	}
}

func TestConfigCheck(t *testing.T) {
	ctx := newCheckContext(t)
	check := NewConfigCheck()

	if res := check.Run(ctx); res.Status != StatusOK {
		t.Errorf("missing config: status = %v, want OK", res.Status)
	}

	if err := os.WriteFile(ctx.ConfigPath, []byte("api_base = \"https://x/api\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := check.Run(ctx); res.Status != StatusOK {
		t.Errorf("valid config: status = %v, want OK (%s)", res.Status, res.Details)
	}

	if err := os.WriteFile(ctx.ConfigPath, []byte("api_base = [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := check.Run(ctx)
	if res.Status != StatusError {
		t.Errorf("invalid config: status = %v, want Error", res.Status)
	}
	if res.FixHint == "" {
		t.Error("expected a fix hint")
	}
	if check.CanFix() {
		t.Error("config check should not be fixable")
	}
	if err := check.Fix(ctx); !errors.Is(err, ErrCannotFix) {
		t.Errorf("Fix = %v, want ErrCannotFix", err)
	}
}

func TestRegistryCheck_Missing(t *testing.T) {
	ctx := newCheckContext(t)
	check := NewRegistryCheck()

	if res := check.Run(ctx); res.Status != StatusWarning {
		t.Fatalf("status = %v, want Warning", res.Status)
	}
	if err := check.Fix(ctx); err != nil {
		t.Fatalf("Fix: %v", err)
	}

	data, err := os.ReadFile(ctx.RegistryPath)
	if err != nil {
		t.Fatalf("registry not created: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("registry = %q, want []", data)
	}
	if res := check.Run(ctx); res.Status != StatusOK {
		t.Errorf("after fix: status = %v, want OK", res.Status)
	}
}

func TestRegistryCheck_Corrupt(t *testing.T) {
	ctx := newCheckContext(t)
	check := NewRegistryCheck()

	if err := os.WriteFile(ctx.RegistryPath, []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := check.Run(ctx); res.Status != StatusError {
		t.Fatalf("status = %v, want Error", res.Status)
	}

	if err := check.Fix(ctx); err != nil {
		t.Fatalf("Fix: %v", err)
	}
	backup, err := os.ReadFile(ctx.RegistryPath + ".corrupt")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if string(backup) != "{oops" {
		t.Errorf("backup = %q", backup)
	}
	if res := check.Run(ctx); res.Status != StatusOK {
		t.Errorf("after fix: status = %v, want OK", res.Status)
	}
}

func TestRegistryCheck_Valid(t *testing.T) {
	ctx := newCheckContext(t)
	if err := os.WriteFile(ctx.RegistryPath, []byte(`[{"name":"Asha","email":"asha@udicti.dev","github":"asha","skills":[],"interests":[]}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	res := NewRegistryCheck().Run(ctx)
	if res.Status != StatusOK {
		t.Errorf("status = %v, want OK", res.Status)
	}
	if res.Message != "Local registry holds 1 developer(s)" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestRegistryCheck_FixLeavesHealthyRegistry(t *testing.T) {
	ctx := newCheckContext(t)
	content := `[{"name":"Asha","email":"asha@udicti.dev","github":"asha","skills":[],"interests":[]}]`
	if err := os.WriteFile(ctx.RegistryPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := NewRegistryCheck().Fix(ctx); err != nil {
		t.Fatalf("Fix: %v", err)
	}
	data, err := os.ReadFile(ctx.RegistryPath)
	if err != nil || string(data) != content {
		t.Errorf("registry changed: %q, %v", data, err)
	}
	if _, err := os.Stat(ctx.RegistryPath + ".corrupt"); !os.IsNotExist(err) {
		t.Errorf("no backup expected for a healthy registry: %v", err)
	}
}

func TestDirectoryCheck(t *testing.T) {
	ctx := newCheckContext(t)
	check := NewDirectoryCheck()

	if res := check.Run(ctx); res.Status != StatusOK {
		t.Errorf("reachable: status = %v, want OK", res.Status)
	}

	ctx.Directory = stubDirectory{err: errors.New("connection refused")}
	res := check.Run(ctx)
	if res.Status != StatusWarning {
		t.Errorf("unreachable: status = %v, want Warning", res.Status)
	}
	if len(res.Details) == 0 || res.Details[0] != "http://directory.test/api" {
		t.Errorf("details = %v", res.Details)
	}

	ctx.Directory = nil
	if res := check.Run(ctx); res.Status != StatusWarning {
		t.Errorf("unconfigured: status = %v, want Warning", res.Status)
	}
}

func TestDoctorFix(t *testing.T) {
	ctx := newCheckContext(t)
	if err := os.WriteFile(ctx.RegistryPath, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := Default()
	before := d.Run(ctx)
	if !before.HasErrors() {
		t.Fatal("expected errors before fix")
	}

	after := d.Fix(ctx)
	if after.HasErrors() {
		t.Errorf("errors after fix: %+v", after.Results)
	}
	if len(after.Fixed) != 1 || after.Fixed[0] != "registry" {
		t.Errorf("fixed = %v, want [registry]", after.Fixed)
	}
	if len(after.FixErrors) != 0 {
		t.Errorf("fix errors = %v", after.FixErrors)
	}
	if got := after.Count(StatusOK); got != 3 {
		t.Errorf("ok count = %d, want 3", got)
	}
}
