package server

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

var accessLogHeader = []string{
	"time", "remote", "method", "path", "status", "bytes", "duration_ms", "user_agent", "request_id",
}

// AccessLog appends one CSV row per request.
type AccessLog struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	now    func() time.Time
}

// OpenAccessLog opens (or creates) the CSV file at path for appending. A
// header row is written to new, empty files.
func OpenAccessLog(path string) (*AccessLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening access log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening access log: %w", err)
	}

	l := NewAccessLog(f)
	l.closer = f
	if info.Size() == 0 {
		if err := l.write(accessLogHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing access log header: %w", err)
		}
	}
	return l, nil
}

// NewAccessLog writes rows to w without a header.
func NewAccessLog(w io.Writer) *AccessLog {
	return &AccessLog{w: csv.NewWriter(w), now: time.Now}
}

func (l *AccessLog) write(record []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Write(record); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

// Middleware records every request passing through next.
func (l *AccessLog) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := l.now()

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			// Logging must never fail the request.
			_ = l.write([]string{
				start.UTC().Format(time.RFC3339),
				r.RemoteAddr,
				r.Method,
				r.URL.Path,
				strconv.Itoa(status),
				strconv.Itoa(ww.BytesWritten()),
				strconv.FormatInt(l.now().Sub(start).Milliseconds(), 10),
				r.UserAgent(),
				middleware.GetReqID(r.Context()),
			})
		}()

		next.ServeHTTP(ww, r)
	})
}

// Close closes the underlying file, if any.
func (l *AccessLog) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
