package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom should not error on missing file: %v", err)
	}
	if cfg.APIBase != DefaultAPIBase {
		t.Errorf("APIBase = %q, want %q", cfg.APIBase, DefaultAPIBase)
	}
	if !cfg.Telemetry {
		t.Error("telemetry should default to enabled")
	}
	if cfg.APITimeoutDuration() != 10*time.Second {
		t.Errorf("api timeout = %v, want 10s", cfg.APITimeoutDuration())
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "telemetry = false\nfold_email = true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Telemetry {
		t.Error("telemetry should be disabled")
	}
	if !cfg.FoldEmail {
		t.Error("fold_email should be enabled")
	}
	if cfg.APIBase != DefaultAPIBase {
		t.Errorf("APIBase = %q, want default", cfg.APIBase)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_base = ["), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	if err := cfg.Set("api_base", "http://localhost:10000/api/"); err != nil {
		t.Fatalf("Set api_base: %v", err)
	}
	if err := cfg.Set("api_timeout", "4s"); err != nil {
		t.Fatalf("Set api_timeout: %v", err)
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.APIBase != "http://localhost:10000/api" {
		t.Errorf("APIBase = %q, want trailing slash trimmed", loaded.APIBase)
	}
	if loaded.APITimeoutDuration() != 4*time.Second {
		t.Errorf("api timeout = %v, want 4s", loaded.APITimeoutDuration())
	}
}

func TestSetRejectsBadValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"api_base", "ftp://example.com"},
		{"telemetry", "sometimes"},
		{"api_timeout", "soon"},
		{"telemetry_timeout", "-1s"},
		{"no_such_key", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := Default().Set(tt.key, tt.value); err == nil {
				t.Errorf("Set(%q, %q) should fail", tt.key, tt.value)
			}
		})
	}
}

func TestGetRoundTrip(t *testing.T) {
	cfg := Default()
	for _, key := range ValidKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q): %v", key, err)
		}
	}
	if got, _ := cfg.Get("telemetry"); got != "true" {
		t.Errorf("telemetry = %q, want true", got)
	}
}

func TestTelemetryTimeoutIsCapped(t *testing.T) {
	cfg := Default()
	cfg.TelemetryTimeout = "30s"
	if got := cfg.TelemetryTimeoutDuration(); got != 3*time.Second {
		t.Errorf("telemetry timeout = %v, want capped at 3s", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	t.Setenv(EnvAPIBase, "http://127.0.0.1:9999/api")
	t.Setenv(EnvDoNotTrack, "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "http://127.0.0.1:9999/api" {
		t.Errorf("APIBase = %q, want env override", cfg.APIBase)
	}
	if cfg.Telemetry {
		t.Error("DO_NOT_TRACK should disable telemetry")
	}
	if cfg.RegistryFile() != filepath.Join(Dir(), "users.json") {
		t.Errorf("RegistryFile = %q", cfg.RegistryFile())
	}
}
