package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") failed: %v", err)
	}
	if config.WorkDir != "." {
		t.Errorf("work dir wrong. expected=%q, got=%q", ".", config.WorkDir)
	}
	if config.Verbose || config.Debug {
		t.Errorf("defaults should not enable verbose or debug output")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadConfig for missing file failed: %v", err)
	}
	if config.WorkDir != "." {
		t.Errorf("work dir wrong. expected=%q, got=%q", ".", config.WorkDir)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blitz.json")
	data := `{"verbose": true, "assembler": "/opt/nasm/bin/nasm", "linker": "/usr/bin/ld"}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !config.Verbose {
		t.Errorf("verbose flag not loaded")
	}
	if config.Assembler != "/opt/nasm/bin/nasm" {
		t.Errorf("assembler wrong. expected=%q, got=%q", "/opt/nasm/bin/nasm", config.Assembler)
	}
	if config.Linker != "/usr/bin/ld" {
		t.Errorf("linker wrong. expected=%q, got=%q", "/usr/bin/ld", config.Linker)
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("LoadConfig succeeded for invalid JSON, want error")
	}
}
