package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/michaelbrown/llhd-playground/internal/sandbox"
)

// fatalErrorJSON is sent when even the error envelope cannot be encoded.
const fatalErrorJSON = `{"error": "Multiple cascading errors occurred, abandon all hope"}`

// CompileRequest is the body of POST /compile.
type CompileRequest struct {
	Code string `json:"code"`
}

// CompileResponse is the success body of POST /compile.
type CompileResponse struct {
	Output string `json:"output"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// marshal is swapped out in tests to exercise the encoding fallbacks.
var marshal = json.Marshal

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// writeResult encodes resp, or err if there is one. It always produces a
// well-formed JSON body.
func writeResult(w http.ResponseWriter, resp any, err error) {
	if err == nil {
		body, mErr := marshal(resp)
		if mErr == nil {
			writeJSON(w, http.StatusOK, body)
			return
		}
		err = sandbox.NewError(sandbox.KindSerialization, mErr)
	}

	body, mErr := marshal(ErrorResponse{Error: err.Error()})
	if mErr != nil {
		writeJSON(w, http.StatusInternalServerError, []byte(fatalErrorJSON))
		return
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

// decodeRequest reads a CompileRequest from the body. The frontend posts
// JSON without a JSON content type, so the header is not checked.
func decodeRequest(w http.ResponseWriter, r *http.Request, maxBytes int64) (CompileRequest, error) {
	defer r.Body.Close()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		return CompileRequest{}, sandbox.NewError(sandbox.KindDeserialization, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return CompileRequest{}, sandbox.NewError(sandbox.KindRequestMissing, nil)
	}

	var body struct {
		Code *string `json:"code"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return CompileRequest{}, sandbox.NewError(sandbox.KindDeserialization, err)
	}
	if body.Code == nil {
		return CompileRequest{}, sandbox.NewError(sandbox.KindDeserialization, errors.New("missing field `code`"))
	}
	return CompileRequest{Code: *body.Code}, nil
}

// --- Compile handler ---

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.compile(w, r)
	if err != nil {
		s.logger.Info("compile failed",
			zap.String("kind", sandbox.KindOf(err).String()),
			zap.Error(err),
		)
		writeResult(w, nil, err)
		return
	}
	writeResult(w, resp, nil)
}

func (s *Server) compile(w http.ResponseWriter, r *http.Request) (*CompileResponse, error) {
	req, err := decodeRequest(w, r, s.opts.MaxBodyBytes)
	if err != nil {
		return nil, err
	}
	out, err := s.compiler.Compile(r.Context(), req.Code)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("compiled",
		zap.Int("code_bytes", len(req.Code)),
		zap.Int("exit_code", out.ExitCode),
	)
	return &CompileResponse{Output: out.Text()}, nil
}
