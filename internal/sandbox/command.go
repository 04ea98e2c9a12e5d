package sandbox

import (
	"context"
	"os/exec"
	"slices"
	"strings"
)

// Command is a fully specified process invocation. It is built once per
// request and not modified afterwards.
type Command struct {
	name  string
	args  []string
	dir   string
	abort []string
}

// NewCommand returns a command running name with args in dir. The slices
// are copied.
func NewCommand(name string, args []string, dir string) Command {
	return Command{name: name, args: slices.Clone(args), dir: dir}
}

// WithAbort returns a copy of c that runs argv (argv[0] is the executable)
// when the command has to be stopped before it finishes on its own.
func (c Command) WithAbort(argv ...string) Command {
	c.args = slices.Clone(c.args)
	c.abort = slices.Clone(argv)
	return c
}

// Name returns the executable.
func (c Command) Name() string { return c.name }

// Args returns a copy of the argument list, excluding the executable.
func (c Command) Args() []string { return slices.Clone(c.args) }

// Dir returns the host working directory, or "" for the current one.
func (c Command) Dir() string { return c.dir }

// Abort returns a copy of the abort command line, if any.
func (c Command) Abort() []string { return slices.Clone(c.abort) }

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

func (c Command) command(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Dir = c.dir
	return cmd
}

// CommandBuilder turns a prepared workspace and module name into the
// command that compiles it. Implementations do no I/O and return the same
// command for the same inputs.
type CommandBuilder interface {
	Build(ws *Workspace, module string) Command
}

// NewBuilder returns the builder for the policy's mode.
func NewBuilder(policy Policy) (CommandBuilder, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	flags, _ := policy.Flags()
	switch policy.Mode {
	case ModeDirect:
		return &DirectBuilder{Compiler: policy.Compiler, Flags: flags}, nil
	default:
		return &DockerBuilder{Policy: policy, Flags: flags}, nil
	}
}
