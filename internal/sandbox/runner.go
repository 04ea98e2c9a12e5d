package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"
)

const (
	// abortTimeout bounds the abort command (docker kill).
	abortTimeout = 10 * time.Second
	// waitDelay bounds how long output is drained after the process is killed.
	waitDelay = 2 * time.Second
)

// Output is the captured text of a finished compiler run.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Text joins stdout and stderr the way the playground shows them.
func (o Output) Text() string {
	return o.Stdout + "\n" + o.Stderr
}

// Runner executes commands and captures their output.
type Runner struct {
	// Timeout bounds a single run on the host. Zero leaves enforcement to the
	// container entry point.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Run starts cmd, waits for it and returns both output streams as text.
// A nonzero exit status is not an error.
func (r *Runner) Run(ctx context.Context, c Command) (Output, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := c.command(ctx)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	if abort := c.Abort(); len(abort) > 0 {
		cmd.Cancel = func() error {
			r.abort(abort, logger)
			return cmd.Process.Kill()
		}
	}

	logger.Debug("running compiler", zap.Stringer("command", c))
	start := time.Now()
	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Output{}, NewError(KindExecutionAborted, ctxErr)
		}
		return Output{}, NewError(KindUnableToExecuteCompiler, err)
	}

	err := cmd.Wait()
	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	logger.Debug("compiler finished",
		zap.Int("exit_code", exitCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("stdout_bytes", stdout.Len()),
		zap.Int("stderr_bytes", stderr.Len()),
	)

	if err := waitError(ctx, err); err != nil {
		return Output{}, err
	}

	out, err := decodeOutput(stdout.Bytes(), stderr.Bytes())
	if err != nil {
		return Output{}, err
	}
	out.ExitCode = exitCode
	return out, nil
}

func (r *Runner) abort(argv []string, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), abortTimeout)
	defer cancel()
	if out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput(); err != nil {
		logger.Warn("abort command failed",
			zap.Strings("argv", argv),
			zap.ByteString("output", out),
			zap.Error(err),
		)
	}
}

// waitError classifies the result of cmd.Wait. A nonzero exit is output,
// and a run that completed before the deadline keeps its output even if
// ctx expired right after.
func waitError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewError(KindExecutionAborted, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return NewError(KindUnableToReadOutput, err)
}

// decodeOutput validates both raw streams, then strips terminal escapes
// from stderr.
func decodeOutput(stdout, stderr []byte) (Output, error) {
	if err := validUTF8("stdout", stdout); err != nil {
		return Output{}, err
	}
	if err := validUTF8("stderr", stderr); err != nil {
		return Output{}, err
	}
	return Output{Stdout: string(stdout), Stderr: ansi.Strip(string(stderr))}, nil
}

func validUTF8(stream string, b []byte) error {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return NewError(KindOutputNotUTF8, fmt.Errorf("invalid byte 0x%02x in %s at offset %d", b[i], stream, i))
		}
		i += size
	}
	return nil
}
