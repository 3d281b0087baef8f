package protocol

import (
	"fmt"
	"strings"
)

// ErrorKind classifies shell failures.
type ErrorKind int

const (
	GenericErrorKind ErrorKind = iota
	TypeMismatchKind
	ArgumentBindingKind
	CommandNotFoundKind
	ParseErrorKind
	IOErrorKind
	ExternalCommandFailedKind
	InterruptedKind
	ControlSignalEscapedKind
)

var errorKindNames = map[ErrorKind]string{
	GenericErrorKind:          "error",
	TypeMismatchKind:          "type mismatch",
	ArgumentBindingKind:       "argument error",
	CommandNotFoundKind:       "command not found",
	ParseErrorKind:            "parse error",
	IOErrorKind:               "i/o error",
	ExternalCommandFailedKind: "external command failed",
	InterruptedKind:           "interrupted",
	ControlSignalEscapedKind:  "control signal escaped",
}

func (k ErrorKind) String() string {
	return errorKindNames[k]
}

// Labeled is a secondary span with its own label.
type Labeled struct {
	Label string
	Span  Span
}

// ShellError is the one error type commands and the engine produce.
type ShellError struct {
	Kind ErrorKind
	// Msg is the headline of the error.
	Msg string
	// Label annotates Span when the error is rendered against source text.
	Label string
	Span  Span
	Help  string
	// Related holds extra spans, e.g. the first definition of a duplicated
	// column.
	Related []Labeled
	// ExitCode is set for ExternalCommandFailed.
	ExitCode int

	cause error
}

var _ error = (*ShellError)(nil)

// Sentinels for errors.Is, compared by kind.
var (
	ErrGeneric               = &ShellError{Kind: GenericErrorKind}
	ErrTypeMismatch          = &ShellError{Kind: TypeMismatchKind}
	ErrArgumentBinding       = &ShellError{Kind: ArgumentBindingKind}
	ErrCommandNotFound       = &ShellError{Kind: CommandNotFoundKind}
	ErrParse                 = &ShellError{Kind: ParseErrorKind}
	ErrIO                    = &ShellError{Kind: IOErrorKind}
	ErrExternalCommandFailed = &ShellError{Kind: ExternalCommandFailedKind}
	ErrInterrupted           = &ShellError{Kind: InterruptedKind}
	ErrControlSignalEscaped  = &ShellError{Kind: ControlSignalEscapedKind}
)

func (e *ShellError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

func (e *ShellError) Unwrap() error {
	return e.cause
}

// Is matches sentinel errors of the same kind.
func (e *ShellError) Is(target error) bool {
	t, ok := target.(*ShellError)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	return t.Msg == "" && t.cause == nil && t.Kind == e.Kind
}

// WithHelp returns a copy of the error with a help message.
func (e *ShellError) WithHelp(help string) *ShellError {
	out := *e
	out.Help = help
	return &out
}

// WithSpan returns a copy of the error pointing at a new location if it
// doesn't already have one.
func (e *ShellError) WithSpan(span Span) *ShellError {
	if !e.Span.IsUnknown() {
		return e
	}
	out := *e
	out.Span = span
	return &out
}

// AsShellError converts any error into a ShellError, wrapping foreign
// errors as generic failures.
func AsShellError(err error, span Span) *ShellError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*ShellError); ok {
		return se
	}
	return &ShellError{Kind: GenericErrorKind, Msg: err.Error(), Span: span}
}

func newError(kind ErrorKind, msg string, span Span) *ShellError {
	return &ShellError{Kind: kind, Msg: msg, Span: span}
}

func GenericError(msg string, span Span) *ShellError {
	return newError(GenericErrorKind, msg, span)
}

func TypeMismatchError(msg string, span Span) *ShellError {
	return newError(TypeMismatchKind, msg, span)
}

// UnsupportedInputError reports a value kind a command can't process.
func UnsupportedInputError(cmd string, got Type, span Span) *ShellError {
	return &ShellError{
		Kind:  TypeMismatchKind,
		Msg:   fmt.Sprintf("%s does not support %s input", cmd, got),
		Label: fmt.Sprintf("%s input", got),
		Span:  span,
	}
}

func ArgumentError(msg string, span Span) *ShellError {
	return newError(ArgumentBindingKind, msg, span)
}

// CommandNotFoundError reports an unknown command, optionally suggesting
// a close match.
func CommandNotFoundError(name string, suggestion string, span Span) *ShellError {
	err := &ShellError{
		Kind:  CommandNotFoundKind,
		Msg:   name,
		Label: "not a builtin or external command",
		Span:  span,
	}
	if suggestion != "" {
		err.Help = fmt.Sprintf("did you mean '%s'?", suggestion)
	}
	return err
}

// ParseError reports malformed structured input.
func ParseError(format string, cause error, span Span) *ShellError {
	return &ShellError{
		Kind:  ParseErrorKind,
		Msg:   fmt.Sprintf("could not parse input as %s", format),
		Label: "value originates here",
		Span:  span,
		cause: cause,
	}
}

// IOError wraps a filesystem or process failure.
func IOError(cause error, span Span) *ShellError {
	return &ShellError{Kind: IOErrorKind, Span: span, cause: cause}
}

// ExternalCommandFailedError reports a non-zero exit that a caller chose to
// treat as a failure.
func ExternalCommandFailedError(name string, status ExitStatus, span Span) *ShellError {
	return &ShellError{
		Kind:     ExternalCommandFailedKind,
		Msg:      fmt.Sprintf("%s exited with %s", name, status),
		Label:    "command failed",
		Span:     span,
		ExitCode: status.Code,
	}
}

func InterruptedError(span Span) *ShellError {
	return newError(InterruptedKind, "operation interrupted", span)
}

// SignalEscapedError reports a control signal with no enclosing handler.
func SignalEscapedError(sig *Signal) *ShellError {
	return &ShellError{
		Kind:  ControlSignalEscapedKind,
		Msg:   fmt.Sprintf("%s used outside of a loop or closure", sig.Kind),
		Label: fmt.Sprintf("%s has no enclosing handler", sig.Kind),
		Span:  sig.Span,
	}
}

// ColumnDefinedTwiceError reports a duplicated record key.
func ColumnDefinedTwiceError(col string, second, first Span) *ShellError {
	return &ShellError{
		Kind:    GenericErrorKind,
		Msg:     fmt.Sprintf("record field %q defined twice", col),
		Label:   "field redefined here",
		Span:    second,
		Related: []Labeled{{Label: "field first defined here", Span: first}},
	}
}

// CantConvertError reports a failed conversion between kinds.
func CantConvertError(from, to string, span Span) *ShellError {
	return &ShellError{
		Kind:  TypeMismatchKind,
		Msg:   fmt.Sprintf("can't convert %s to %s", from, to),
		Label: fmt.Sprintf("can't convert to %s", to),
		Span:  span,
	}
}

// WrapError attaches a cause to an error of the given kind.
func WrapError(kind ErrorKind, msg string, cause error, span Span) *ShellError {
	return &ShellError{Kind: kind, Msg: msg, Span: span, cause: cause}
}

// Record exposes the error as a record with msg, kind, label, help and
// exit_code columns, so carried errors can be inspected with cell paths.
func (e *ShellError) Record(span Span) Record {
	var b RecordBuilder
	b.Set("msg", String{Val: e.Msg, Loc: span})
	b.Set("kind", String{Val: e.Kind.String(), Loc: span})
	b.Set("label", String{Val: e.Label, Loc: span})
	b.Set("help", String{Val: e.Help, Loc: span})
	b.Set("exit_code", Int{Val: int64(e.ExitCode), Loc: span})
	return b.Build(span)
}
