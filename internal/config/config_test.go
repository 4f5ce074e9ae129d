package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Output != "table" {
		t.Errorf("Output = %q, want table", cfg.Output)
	}
	if cfg.BaseDir != ".agents/depgate" {
		t.Errorf("BaseDir = %q, want .agents/depgate", cfg.BaseDir)
	}
	if cfg.RegistryFile != "registry.json" {
		t.Errorf("RegistryFile = %q, want registry.json", cfg.RegistryFile)
	}
}

func TestRegistryPath(t *testing.T) {
	cfg := &Config{BaseDir: "data", RegistryFile: "reg.json"}
	if got := cfg.RegistryPath(); got != filepath.Join("data", "reg.json") {
		t.Errorf("RegistryPath = %q", got)
	}
}

func TestProjectConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "output: json\nbase_dir: custom/dir\nrequired_novel_runs: 5\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DEPGATE_CONFIG", path)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if cfg.BaseDir != "custom/dir" {
		t.Errorf("BaseDir = %q, want custom/dir", cfg.BaseDir)
	}
	if cfg.RequiredNovelRuns != 5 {
		t.Errorf("RequiredNovelRuns = %d, want 5", cfg.RequiredNovelRuns)
	}
	// Unset fields keep defaults.
	if cfg.RegistryFile != "registry.json" {
		t.Errorf("RegistryFile = %q, want default", cfg.RegistryFile)
	}
}

func TestEnvOverridesProject(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("output: json\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DEPGATE_CONFIG", path)
	t.Setenv("DEPGATE_OUTPUT", "yaml")
	t.Setenv("DEPGATE_REQUIRED_NOVEL_RUNS", "7")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output != "yaml" {
		t.Errorf("Output = %q, want yaml (env beats project)", cfg.Output)
	}
	if cfg.RequiredNovelRuns != 7 {
		t.Errorf("RequiredNovelRuns = %d, want 7", cfg.RequiredNovelRuns)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("DEPGATE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DEPGATE_OUTPUT", "yaml")

	cfg, err := Load(&Config{Output: "json"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json (flags beat env)", cfg.Output)
	}
}

func TestInvalidEnvThresholdIgnored(t *testing.T) {
	t.Setenv("DEPGATE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DEPGATE_REQUIRED_NOVEL_RUNS", "not-a-number")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RequiredNovelRuns != 0 {
		t.Errorf("RequiredNovelRuns = %d, want 0 (invalid env ignored)", cfg.RequiredNovelRuns)
	}
}
