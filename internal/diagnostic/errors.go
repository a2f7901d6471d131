package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// MetaError is a configuration or metadata error raised while resolving a
// mapping. Code is a stable message key; Context describes the entity whose
// mapping failed.
type MetaError struct {
	Code        string
	Context     string
	Message     string
	Suggestions []string
	Err         error
}

// Errorf builds a MetaError with a formatted message.
func Errorf(code, context, format string, args ...any) *MetaError {
	return &MetaError{
		Code:    code,
		Context: context,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap builds a MetaError that wraps a lower-level cause.
func Wrap(err error, code, context, format string, args ...any) *MetaError {
	me := Errorf(code, context, format, args...)
	me.Err = err

	return me
}

// WithSuggestions attaches alternatives to the error and returns it.
func (e *MetaError) WithSuggestions(s ...string) *MetaError {
	e.Suggestions = append(e.Suggestions, s...)
	return e
}

func (e *MetaError) Error() string {
	var b strings.Builder
	if e.Context != "" {
		b.WriteString(e.Context)
		b.WriteString(": ")
	}

	b.WriteString("[")
	b.WriteString(e.Code)
	b.WriteString("] ")
	b.WriteString(e.Message)

	if len(e.Suggestions) > 0 {
		b.WriteString(" (did you mean ")
		b.WriteString(strings.Join(e.Suggestions, ", "))
		b.WriteString("?)")
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *MetaError) Unwrap() error {
	return e.Err
}

// Is matches another MetaError by code, so errors.Is(err, &MetaError{Code: "no-table"})
// works regardless of context and message.
func (e *MetaError) Is(target error) bool {
	t, ok := target.(*MetaError)
	if !ok {
		return false
	}

	return t.Code != "" && t.Code == e.Code
}

// Diagnostic converts the error into an error diagnostic.
func (e *MetaError) Diagnostic() Diagnostic {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return Diagnostic{
		Severity:    SeverityError,
		Code:        e.Code,
		Message:     msg,
		Context:     e.Context,
		Suggestions: e.Suggestions,
	}
}

// CodeOf returns the message key of the first MetaError in err's chain, or "".
func CodeOf(err error) string {
	var me *MetaError
	if errors.As(err, &me) {
		return me.Code
	}

	return ""
}
