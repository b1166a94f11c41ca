package codegen

import (
	"fmt"
	"runtime"
)

// Target selects the platform the emitted assembly is written for. It is an
// explicit configuration value so the build host and the emission target
// stay decoupled.
type Target int

const (
	// TargetLinux emits elf64-style assembly using Linux syscalls for the
	// runtime I/O path.
	TargetLinux Target = iota
	// TargetWindows emits win64-style assembly using the Win64 console API
	// (GetStdHandle / WriteConsoleA) for the runtime I/O path.
	TargetWindows
)

// String returns the target's name.
func (t Target) String() string {
	switch t {
	case TargetLinux:
		return "linux"
	case TargetWindows:
		return "windows"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ObjectFormat returns the NASM output format for the target.
func (t Target) ObjectFormat() string {
	if t == TargetWindows {
		return "win64"
	}
	return "elf64"
}

// HostTarget returns the target matching the machine running the compiler.
func HostTarget() Target {
	if runtime.GOOS == "windows" {
		return TargetWindows
	}
	return TargetLinux
}

// ParseTarget parses a target name as given on the command line.
func ParseTarget(name string) (Target, error) {
	switch name {
	case "linux":
		return TargetLinux, nil
	case "windows":
		return TargetWindows, nil
	default:
		return 0, fmt.Errorf("unsupported target platform: %s", name)
	}
}
