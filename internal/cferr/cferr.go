// Package cferr defines the error kinds surfaced by the directive engine and
// the bootstrap builder. Every failure aborts the current build pass; callers
// tell the kinds apart with errors.Is against the Err* sentinels.
package cferr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindInputType     Kind = "INPUT_TYPE"
	KindConfiguration Kind = "CONFIGURATION"
	KindEvaluation    Kind = "EVALUATION"
)

// Sentinels usable with errors.Is.
var (
	ErrInputType     = &Error{Kind: KindInputType}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrEvaluation    = &Error{Kind: KindEvaluation}
)

// Error is a classified failure. Key names the offending option or input
// when there is one, so authoring mistakes can be diagnosed from the message.
type Error struct {
	Kind Kind
	Key  string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Key != "" {
		msg = fmt.Sprintf("%s: %s", e.Key, msg)
	}
	if e.Err != nil {
		if msg == "" {
			return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// InputType reports a value of the wrong type handed to the engine.
func InputType(key string, format string, args ...any) error {
	return &Error{Kind: KindInputType, Key: key, Msg: fmt.Sprintf(format, args...)}
}

// Configuration reports an invalid or missing option.
func Configuration(key string, format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Key: key, Msg: fmt.Sprintf(format, args...)}
}

// Evaluation wraps a failure raised while evaluating a directive.
func Evaluation(err error, format string, args ...any) error {
	return &Error{Kind: KindEvaluation, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
