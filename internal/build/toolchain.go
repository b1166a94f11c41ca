// Package build drives the external half of a Blitz compilation: locating
// the assembler and linker, gating on their versions, running them as
// subprocesses, and re-running compilations in watch mode. Failures here
// are build-tooling errors, kept distinct from compiler pipeline errors.
package build

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sys/execabs"

	"github.com/blitz-lang/blitz/internal/codegen"
)

// MinNASMVersion is the oldest assembler release known to handle the
// emitted listings (default rel with win64/elf64 output).
const MinNASMVersion = "2.13.0"

// Toolchain holds resolved paths to the external tools for one target.
type Toolchain struct {
	Assembler        string // path to nasm
	Linker           string // path to ld (linux) or link (windows)
	AssemblerVersion *semver.Version
}

// Find locates the assembler and the target-appropriate linker on PATH and
// verifies the assembler version. Lookups go through execabs so a relative
// path in the working directory can never shadow the real tools.
func Find(ctx context.Context, target codegen.Target) (*Toolchain, error) {
	nasm, err := execabs.LookPath("nasm")
	if err != nil {
		return nil, &ToolError{Tool: "nasm", Err: fmt.Errorf("assembler not found on PATH: %w", err)}
	}

	linkerName := "ld"
	if target == codegen.TargetWindows {
		linkerName = "link"
	}
	linker, err := execabs.LookPath(linkerName)
	if err != nil {
		return nil, &ToolError{Tool: linkerName, Err: fmt.Errorf("linker not found on PATH: %w", err)}
	}

	version, err := assemblerVersion(ctx, nasm)
	if err != nil {
		return nil, err
	}
	minimum := semver.MustParse(MinNASMVersion)
	if version.LessThan(minimum) {
		return nil, &ToolError{
			Tool: "nasm",
			Err:  fmt.Errorf("nasm %s is too old, need at least %s", version, minimum),
		}
	}

	return &Toolchain{Assembler: nasm, Linker: linker, AssemblerVersion: version}, nil
}

// assemblerVersion runs `nasm -v` and parses the reported version.
func assemblerVersion(ctx context.Context, nasm string) (*semver.Version, error) {
	out, err := exec.CommandContext(ctx, nasm, "-v").Output()
	if err != nil {
		return nil, &ToolError{Tool: "nasm", Args: []string{"-v"}, Err: err}
	}
	version, err := ParseNASMVersion(string(out))
	if err != nil {
		return nil, &ToolError{Tool: "nasm", Err: err}
	}
	return version, nil
}

// ParseNASMVersion extracts the version from `nasm -v` output, which looks
// like "NASM version 2.16.01 compiled on Jan 1 2024".
func ParseNASMVersion(output string) (*semver.Version, error) {
	fields := strings.Fields(output)
	for i, field := range fields {
		if field != "version" || i+1 >= len(fields) {
			continue
		}
		version, err := semver.NewVersion(fields[i+1])
		if err != nil {
			return nil, fmt.Errorf("unparsable nasm version %q: %w", fields[i+1], err)
		}
		return version, nil
	}
	return nil, fmt.Errorf("no version in nasm output %q", strings.TrimSpace(output))
}
