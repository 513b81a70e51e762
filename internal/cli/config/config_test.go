package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Test loading with no config file (should use defaults)
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config to be non-nil")
	}

	// Check defaults
	if cfg.Output != "out.asmi" {
		t.Errorf("expected default output 'out.asmi', got %s", cfg.Output)
	}

	if cfg.Rewrite.GapMode != "placeholder" {
		t.Errorf("expected default gap mode 'placeholder', got %s", cfg.Rewrite.GapMode)
	}

	if !cfg.Rewrite.Verify {
		t.Error("expected verification to default to on")
	}

	if len(cfg.Rewrite.Preserve) != 0 {
		t.Errorf("expected no default preservation, got %v", cfg.Rewrite.Preserve)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	// Create temporary directory with config file
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	// Write config file
	configContent := `
output: dist/rebuilt.asmi
rewrite:
  preserve:
    - preserve_type_tokens
    - preserve_method_tokens
  gap_mode: reject
  verify: false
`
	os.WriteFile("asmtool.yml", []byte(configContent), 0644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}

	if cfg.Output != "dist/rebuilt.asmi" {
		t.Errorf("expected output 'dist/rebuilt.asmi', got %s", cfg.Output)
	}

	if len(cfg.Rewrite.Preserve) != 2 {
		t.Errorf("expected 2 preservation categories, got %v", cfg.Rewrite.Preserve)
	}

	if cfg.Rewrite.GapMode != "reject" {
		t.Errorf("expected gap mode 'reject', got %s", cfg.Rewrite.GapMode)
	}

	if cfg.Rewrite.Verify {
		t.Error("expected verification to be disabled")
	}
}

func TestOutputFromEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	os.Setenv("ASMTOOL_OUTPUT", "env.asmi")
	defer os.Unsetenv("ASMTOOL_OUTPUT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Output != "env.asmi" {
		t.Errorf("expected output from environment, got %s", cfg.Output)
	}
}
