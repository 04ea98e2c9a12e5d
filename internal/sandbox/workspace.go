package sandbox

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InputFileName is the name of the source file inside every workspace. The
// same name is used for the file once mounted into the container.
const InputFileName = "input.sv"

const workspacePattern = "llhd-io-*"

// Workspace is a scratch directory owned by exactly one compile request.
type Workspace struct {
	// ID identifies the run; it names the container in docker mode.
	ID        string
	Dir       string
	InputFile string

	logger    *zap.Logger
	closeOnce sync.Once
	closeErr  error
}

// NewWorkspace creates a fresh, uniquely named directory under root. An
// empty root uses the system temp directory.
func NewWorkspace(root string, logger *zap.Logger) (*Workspace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir, err := os.MkdirTemp(root, workspacePattern)
	if err != nil {
		return nil, NewError(KindUnableToCreateTempDir, err)
	}
	ws := &Workspace{
		ID:        uuid.NewString(),
		Dir:       dir,
		InputFile: filepath.Join(dir, InputFileName),
		logger:    logger,
	}
	logger.Debug("created workspace", zap.String("dir", dir), zap.String("run_id", ws.ID))
	return ws, nil
}

// WriteSource writes code to the workspace input file, replacing any
// previous contents.
func (w *Workspace) WriteSource(code string) error {
	data := []byte(code)

	f, err := os.Create(w.InputFile)
	if err != nil {
		return NewError(KindUnableToCreateSourceFile, err)
	}
	bw := bufio.NewWriter(f)
	if _, err := bw.Write(data); err != nil {
		f.Close()
		return NewError(KindUnableToCreateSourceFile, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return NewError(KindUnableToCreateSourceFile, err)
	}
	if err := f.Close(); err != nil {
		return NewError(KindUnableToCreateSourceFile, err)
	}

	w.logger.Debug("wrote source",
		zap.Int("bytes", len(data)),
		zap.String("path", w.InputFile),
	)
	return nil
}

// Close removes the workspace and everything in it. Only the first call
// does any work; later calls return the first result.
func (w *Workspace) Close() error {
	w.closeOnce.Do(func() {
		if err := os.RemoveAll(w.Dir); err != nil {
			w.closeErr = fmt.Errorf("removing workspace %s: %w", w.Dir, err)
			return
		}
		w.logger.Debug("removed workspace", zap.String("dir", w.Dir))
	})
	return w.closeErr
}
