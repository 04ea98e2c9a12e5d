package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/michaelbrown/llhd-playground/internal/sandbox"
)

type fakeCompiler struct {
	out  sandbox.Output
	err  error
	code string
}

func (f *fakeCompiler) Compile(ctx context.Context, code string) (sandbox.Output, error) {
	f.code = code
	return f.out, f.err
}

func postCompile(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return body
}

// stubSandbox is the real pipeline with a shell script as the compiler.
func stubSandbox(t *testing.T, script string) (*sandbox.Sandbox, string) {
	t.Helper()
	dir := t.TempDir()
	stub := filepath.Join(dir, "moore")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(dir, "work")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	return sandbox.NewWithBuilder(&sandbox.DirectBuilder{Compiler: stub}, 0, root, zaptest.NewLogger(t)), root
}

func TestHandleCompile_EchoesEntryPoint(t *testing.T) {
	sb, root := stubSandbox(t, `while [ $# -gt 0 ]; do
  if [ "$1" = "-e" ]; then printf '%s' "$2"; fi
  shift
done`)
	srv := New(sb, Options{Logger: zaptest.NewLogger(t)})

	rec := postCompile(t, srv.Handler(), `{"code": "module foo; endmodule"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := rec.Body.String(); got != `{"output":"foo\n"}` {
		t.Errorf("body = %s", got)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("workspace left behind: %d entries", len(entries))
	}
}

func TestHandleCompile_NoModule(t *testing.T) {
	sb, _ := stubSandbox(t, `echo should not run`)
	srv := New(sb, Options{})

	rec := postCompile(t, srv.Handler(), `{"code": "endmodule"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Unable to find a module in the input" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestHandleCompile_ANSIStripped(t *testing.T) {
	sb, _ := stubSandbox(t, `printf '\033[31merror\033[0m: bad\n' >&2; exit 1`)
	srv := New(sb, Options{})

	rec := postCompile(t, srv.Handler(), `{"code": "module m;"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	body := decodeBody(t, rec)
	if body["output"] != "\nerror: bad\n" {
		t.Errorf("output = %q", body["output"])
	}
}

func TestHandleCompile_BadRequests(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantPrefix string
	}{
		{"wrong field", `{"cod": 1}`, "Unable to deserialize request: "},
		{"not json", `module foo;`, "Unable to deserialize request: "},
		{"wrong type", `{"code": 42}`, "Unable to deserialize request: "},
		{"empty", ``, "No request was provided"},
		{"whitespace", "  \n", "No request was provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCompiler{}
			srv := New(fake, Options{})

			rec := postCompile(t, srv.Handler(), tt.body)
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d", rec.Code)
			}
			body := decodeBody(t, rec)
			if !strings.HasPrefix(body["error"], tt.wantPrefix) {
				t.Errorf("error = %q, want prefix %q", body["error"], tt.wantPrefix)
			}
			if fake.code != "" {
				t.Error("compiler should not be called")
			}
		})
	}
}

func TestHandleCompile_BodyTooLarge(t *testing.T) {
	fake := &fakeCompiler{}
	srv := New(fake, Options{MaxBodyBytes: 16})

	rec := postCompile(t, srv.Handler(), `{"code": "module a_rather_long_name;"}`)
	body := decodeBody(t, rec)
	if !strings.HasPrefix(body["error"], "Unable to deserialize request: ") {
		t.Errorf("error = %q", body["error"])
	}
}

func TestHandleCompile_PipelineError(t *testing.T) {
	fake := &fakeCompiler{err: sandbox.NewError(sandbox.KindUnableToExecuteCompiler, errors.New("exec: \"docker\": executable file not found in $PATH"))}
	srv := New(fake, Options{})

	rec := postCompile(t, srv.Handler(), `{"code": "module foo;"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	want := `Unable to execute the compiler: exec: "docker": executable file not found in $PATH`
	if body["error"] != want {
		t.Errorf("error = %q, want %q", body["error"], want)
	}
	if fake.code != "module foo;" {
		t.Errorf("compiler got %q", fake.code)
	}
}

func TestWriteResult_Fallbacks(t *testing.T) {
	orig := marshal
	t.Cleanup(func() { marshal = orig })

	// Response encoding fails, error encoding works.
	calls := 0
	marshal = func(v any) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("unsupported value")
		}
		return orig(v)
	}
	rec := httptest.NewRecorder()
	writeResult(rec, CompileResponse{Output: "x"}, nil)
	body := decodeBody(t, rec)
	if rec.Code != http.StatusInternalServerError || body["error"] != "Unable to serialize response: unsupported value" {
		t.Errorf("status = %d, body = %v", rec.Code, body)
	}

	// Nothing can be encoded.
	marshal = func(v any) ([]byte, error) { return nil, errors.New("broken") }
	rec = httptest.NewRecorder()
	writeResult(rec, CompileResponse{Output: "x"}, nil)
	if rec.Code != http.StatusInternalServerError || rec.Body.String() != fatalErrorJSON {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body)
	}
	decodeBody(t, rec)
}

func TestRoutes_CompileIsPostOnly(t *testing.T) {
	srv := New(&fakeCompiler{}, Options{})
	req := httptest.NewRequest(http.MethodGet, "/compile", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
