package sandbox

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/google/shlex"
)

// Mode selects how the compiler is launched.
type Mode string

const (
	// ModeDocker runs the compiler in a locked-down container. This is the
	// only mode meant for production.
	ModeDocker Mode = "docker"
	// ModeDirect runs the compiler binary on the host. Development only.
	ModeDirect Mode = "direct"
)

// Policy defines how and with which limits the compiler is run.
type Policy struct {
	Mode            Mode
	Image           string        // Docker image holding the compiler (e.g. "llhd-sandbox")
	Compiler        string        // Compiler executable (e.g. "moore")
	WorkDir         string        // Working directory inside the container
	MemoryLimit     string        // Docker --memory (e.g. "256m")
	MemorySwapLimit string        // Docker --memory-swap (e.g. "320m"), must exceed MemoryLimit
	PidsLimit       int           // Docker --pids-limit
	Timeout         time.Duration // Passed to the container entry point as PLAYGROUND_TIMEOUT
	HostTimeout     time.Duration // Upper bound on the host-side wait; 0 waits forever
	CompilerFlags   string        // Extra compiler flags, shell-quoted
	TempDir         string        // Parent of the per-request workspaces; "" means os.TempDir
}

// DefaultPolicy returns the limits used by the public playground.
func DefaultPolicy() Policy {
	return Policy{
		Mode:            ModeDocker,
		Image:           "llhd-sandbox",
		Compiler:        "moore",
		WorkDir:         "/playground",
		MemoryLimit:     "256m",
		MemorySwapLimit: "320m",
		PidsLimit:       512,
		Timeout:         10 * time.Second,
		HostTimeout:     30 * time.Second,
	}
}

// Validate checks that the policy describes a usable sandbox.
func (p Policy) Validate() error {
	switch p.Mode {
	case ModeDocker:
		if p.Image == "" {
			return fmt.Errorf("sandbox image is required in docker mode")
		}
		if p.WorkDir == "" {
			return fmt.Errorf("sandbox workdir is required in docker mode")
		}
		soft, err := units.RAMInBytes(p.MemoryLimit)
		if err != nil {
			return fmt.Errorf("parsing memory limit %q: %w", p.MemoryLimit, err)
		}
		hard, err := units.RAMInBytes(p.MemorySwapLimit)
		if err != nil {
			return fmt.Errorf("parsing memory-swap limit %q: %w", p.MemorySwapLimit, err)
		}
		if soft <= 0 || soft >= hard {
			return fmt.Errorf("memory limit %s must be positive and below memory-swap limit %s", p.MemoryLimit, p.MemorySwapLimit)
		}
		if p.PidsLimit <= 0 {
			return fmt.Errorf("pids limit must be positive, got %d", p.PidsLimit)
		}
		if p.Timeout < time.Second {
			return fmt.Errorf("container timeout must be at least 1s, got %s", p.Timeout)
		}
		if p.Timeout%time.Second != 0 {
			return fmt.Errorf("container timeout must be a whole number of seconds, got %s", p.Timeout)
		}
	case ModeDirect:
	default:
		return fmt.Errorf("unknown sandbox mode %q", p.Mode)
	}
	if p.Compiler == "" {
		return fmt.Errorf("compiler is required")
	}
	if p.HostTimeout < 0 {
		return fmt.Errorf("host timeout must not be negative")
	}
	if _, err := p.Flags(); err != nil {
		return err
	}
	return nil
}

// Flags splits CompilerFlags into arguments.
func (p Policy) Flags() ([]string, error) {
	if p.CompilerFlags == "" {
		return nil, nil
	}
	flags, err := shlex.Split(p.CompilerFlags)
	if err != nil {
		return nil, fmt.Errorf("parsing compiler flags %q: %w", p.CompilerFlags, err)
	}
	return flags, nil
}
