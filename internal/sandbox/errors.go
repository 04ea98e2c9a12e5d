package sandbox

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the compile pipeline. Every kind renders
// to a stable message that is safe to show to the caller.
type Kind int

const (
	KindUnknown Kind = iota
	KindSerialization
	KindDeserialization
	KindRequestMissing
	KindUnableToCreateTempDir
	KindUnableToCreateSourceFile
	KindUnableToFindModule
	KindUnableToExecuteCompiler
	KindUnableToReadOutput
	KindOutputNotUTF8
	KindExecutionAborted
)

var kindNames = map[Kind]string{
	KindUnknown:                  "Unknown",
	KindSerialization:            "Serialization",
	KindDeserialization:          "Deserialization",
	KindRequestMissing:           "RequestMissing",
	KindUnableToCreateTempDir:    "UnableToCreateTempDir",
	KindUnableToCreateSourceFile: "UnableToCreateSourceFile",
	KindUnableToFindModule:       "UnableToFindModule",
	KindUnableToExecuteCompiler:  "UnableToExecuteCompiler",
	KindUnableToReadOutput:       "UnableToReadOutput",
	KindOutputNotUTF8:            "OutputNotUtf8",
	KindExecutionAborted:         "ExecutionAborted",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a pipeline failure of a particular Kind, optionally caused by
// an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

// NewError wraps err with the given kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindSerialization:
		return "Unable to serialize response: " + e.cause()
	case KindDeserialization:
		return "Unable to deserialize request: " + e.cause()
	case KindRequestMissing:
		return "No request was provided"
	case KindUnableToCreateTempDir:
		return "Unable to create temporary directory: " + e.cause()
	case KindUnableToCreateSourceFile:
		return "Unable to create source file: " + e.cause()
	case KindUnableToFindModule:
		return "Unable to find a module in the input"
	case KindUnableToExecuteCompiler:
		return "Unable to execute the compiler: " + e.cause()
	case KindUnableToReadOutput:
		return "Unable to read output file: " + e.cause()
	case KindOutputNotUTF8:
		return "Output was not valid UTF-8: " + e.cause()
	case KindExecutionAborted:
		return "Compiler execution was aborted: " + e.cause()
	default:
		return "Internal error: " + e.cause()
	}
}

func (e *Error) cause() string {
	if e.Err == nil {
		return "unknown cause"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so callers can
// match with errors.Is(err, &Error{Kind: KindUnableToFindModule}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// ErrModuleNotFound is returned when the source contains no module declaration.
var ErrModuleNotFound = &Error{Kind: KindUnableToFindModule}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
