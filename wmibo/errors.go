package wmibo

import (
	"errors"
	"fmt"
)

// Kinds of format errors. A *FormatError always wraps exactly one of them,
// so callers can test with errors.Is.
var (
	ErrSyntax                = errors.New("syntax error")
	ErrVersion               = errors.New("unsupported version")
	ErrDuplicateHeader       = errors.New("duplicate header")
	ErrNestedBlock           = errors.New("nested block")
	ErrUnmatchedEnd          = errors.New("unmatched end")
	ErrMisplacedDirective    = errors.New("misplaced directive")
	ErrUnterminatedBlock     = errors.New("unterminated block")
	ErrDuplicateVariable     = errors.New("duplicate variable")
	ErrDomain                = errors.New("invalid domain")
	ErrIndexOutOfRange       = errors.New("index out of range")
	ErrKindMismatch          = errors.New("wrong variable kind")
	ErrDuplicateConstraintID = errors.New("duplicate constraint id")
	ErrUnknownConstraintID   = errors.New("unknown constraint id")
	ErrIndicatorConflict     = errors.New("conflicting indicators")
	ErrDuplicateObjective    = errors.New("duplicate objective")
	ErrUndeclaredVariable    = errors.New("undeclared variable")
)

// A FormatError is the single error returned by Load when the input is not a
// valid WMIBO v1.0 instance. Line is 1-based; 0 means the error is not tied to
// a particular line (e.g. an empty input).
type FormatError struct {
	Line   int
	Kind   error
	Reason string
}

func (e *FormatError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Kind }

func formatErrorf(line int, kind error, format string, args ...any) error {
	return &FormatError{Line: line, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// A Warning is a non-fatal diagnostic, such as a header counter that does not
// match the actual content of the file.
type Warning struct {
	Line int
	Msg  string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Msg)
	}
	return w.Msg
}
