package build

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestRunReportsExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture needs a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "fake")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 3\n"), 0o755); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	code, err := Run(context.Background(), script)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if code != 3 {
		t.Errorf("exit code wrong. expected=3, got=%d", code)
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "no-such-binary"))
	if err == nil {
		t.Fatalf("Run() succeeded for a missing binary, want error")
	}
	if _, ok := err.(*ToolError); !ok {
		t.Errorf("error type wrong. expected=*ToolError, got=%T", err)
	}
}
