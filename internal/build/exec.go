package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/blitz-lang/blitz/internal/codegen"
)

// ToolError reports an external tool failure: a missing tool, a version
// mismatch, or a non-zero exit. It is deliberately distinct from the
// compiler's own error kinds.
type ToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("build tool %s failed", e.Tool)
	if len(e.Args) > 0 {
		msg = fmt.Sprintf("build tool %s %s failed", e.Tool, strings.Join(e.Args, " "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += "\n" + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// runTool executes one external tool and converts a non-zero exit into a
// ToolError carrying its stderr.
func runTool(ctx context.Context, tool string, args ...string) error {
	cmd := exec.CommandContext(ctx, tool, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &ToolError{
			Tool:   filepath.Base(tool),
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return nil
}

// Assemble runs the assembler over an assembly listing, producing an object
// file in the target's format.
func (tc *Toolchain) Assemble(ctx context.Context, target codegen.Target, asmPath, objPath string) error {
	return runTool(ctx, tc.Assembler, "-f"+target.ObjectFormat(), asmPath, "-o", objPath)
}

// Link links one object file into an executable.
func (tc *Toolchain) Link(ctx context.Context, target codegen.Target, objPath, exePath string) error {
	if target == codegen.TargetWindows {
		return runTool(ctx, tc.Linker, objPath,
			"/OUT:"+exePath, "/NOLOGO", "/SUBSYSTEM:CONSOLE", "/ENTRY:main", "kernel32.lib")
	}
	return runTool(ctx, tc.Linker, "-o", exePath, objPath)
}

// Run executes a produced binary and returns its exit code. A non-zero
// exit is expected output, not an error; only failure to start the process
// is reported as one.
func Run(ctx context.Context, exePath string) (int, error) {
	abs, err := filepath.Abs(exePath)
	if err != nil {
		return 0, err
	}
	cmd := exec.CommandContext(ctx, abs)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err = cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, &ToolError{Tool: filepath.Base(exePath), Err: err}
}

// OutputPaths derives the object and executable paths for a base output
// name on the given target.
func OutputPaths(base string, target codegen.Target) (objPath, exePath string) {
	if target == codegen.TargetWindows {
		return base + ".obj", base + ".exe"
	}
	return base + ".o", base
}
