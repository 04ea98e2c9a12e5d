// Package sandbox compiles untrusted hardware-description source in an
// isolated, resource-limited process and captures what the compiler prints.
//
// A compile goes through a fixed sequence: a private Workspace is created,
// the module to elaborate is resolved from the source text, the source is
// written, a CommandBuilder assembles the invocation and the Runner executes
// it. The workspace is removed when Compile returns, whatever the outcome.
package sandbox

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sandbox is the compile pipeline. It holds no per-request state and is
// safe for concurrent use.
type Sandbox struct {
	builder CommandBuilder
	runner  *Runner
	tempDir string
	logger  *zap.Logger
}

// New creates a Sandbox from a policy. The launch strategy is fixed here.
func New(policy Policy, logger *zap.Logger) (*Sandbox, error) {
	builder, err := NewBuilder(policy)
	if err != nil {
		return nil, err
	}
	return NewWithBuilder(builder, policy.HostTimeout, policy.TempDir, logger), nil
}

// NewWithBuilder creates a Sandbox around an explicit builder.
func NewWithBuilder(builder CommandBuilder, hostTimeout time.Duration, tempDir string, logger *zap.Logger) *Sandbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sandbox{
		builder: builder,
		runner:  &Runner{Timeout: hostTimeout, Logger: logger},
		tempDir: tempDir,
		logger:  logger,
	}
}

// Compile runs the compiler on code and returns its combined output.
func (s *Sandbox) Compile(ctx context.Context, code string) (Output, error) {
	ws, err := NewWorkspace(s.tempDir, s.logger)
	if err != nil {
		return Output{}, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			s.logger.Warn("workspace cleanup failed", zap.Error(err))
		}
	}()

	module, err := ResolveModule(code)
	if err != nil {
		return Output{}, err
	}
	if err := ws.WriteSource(code); err != nil {
		return Output{}, err
	}

	cmd := s.builder.Build(ws, module)
	s.logger.Debug("compiling",
		zap.String("run_id", ws.ID),
		zap.String("module", module),
	)
	return s.runner.Run(ctx, cmd)
}
