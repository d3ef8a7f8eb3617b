package args

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a per-call parse failure.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota + 1
	KindUnknownArgument
	KindDuplicateArgument
	KindOrdering
	KindMissingArgument
	KindCoercion
	KindRecursionLimit
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindUnknownArgument:
		return "unknown argument"
	case KindDuplicateArgument:
		return "duplicate argument"
	case KindOrdering:
		return "ordering"
	case KindMissingArgument:
		return "missing argument"
	case KindCoercion:
		return "coercion"
	case KindRecursionLimit:
		return "recursion limit"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against a *ParseError of the same kind.
var (
	ErrSyntax            = errors.New("args: syntax error")
	ErrUnknownArgument   = errors.New("args: unknown argument")
	ErrDuplicateArgument = errors.New("args: argument provided more than once")
	ErrOrdering          = errors.New("args: argument out of order")
	ErrMissingArgument   = errors.New("args: missing required argument")
	ErrCoercion          = errors.New("args: invalid argument value")
	ErrRecursionLimit    = errors.New("args: nesting too deep")

	// ErrInvalidSchema is wrapped by every *SchemaError.
	ErrInvalidSchema = errors.New("args: invalid schema")
)

var kindSentinels = map[ErrorKind]error{
	KindSyntax:            ErrSyntax,
	KindUnknownArgument:   ErrUnknownArgument,
	KindDuplicateArgument: ErrDuplicateArgument,
	KindOrdering:          ErrOrdering,
	KindMissingArgument:   ErrMissingArgument,
	KindCoercion:          ErrCoercion,
	KindRecursionLimit:    ErrRecursionLimit,
}

// ParseError is the failure side of a bind. Msg is meant for the user who typed
// the command; Arg and Token identify what was being processed, when known.
type ParseError struct {
	Kind  ErrorKind
	Arg   string
	Token string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	return e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *ParseError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newParseError(kind ErrorKind, token, format string, a ...any) *ParseError {
	return &ParseError{Kind: kind, Token: token, Msg: fmt.Sprintf(format, a...)}
}

// CoercionError reports a token that could not be converted to a target type.
type CoercionError struct {
	Type  string
	Value string
	Msg   string
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Type, e.Value, e.Msg)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}

// SchemaError is a programmer error found while authoring a schema. It is
// never produced by Bind.
type SchemaError struct {
	Arg    string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Arg == "" {
		return fmt.Sprintf("args: invalid schema: %s", e.Reason)
	}
	return fmt.Sprintf("args: invalid schema: argument %q: %s", e.Arg, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrInvalidSchema
}

// KindOf returns the ErrorKind carried by err, or 0 when err is not a parse failure.
func KindOf(err error) ErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
