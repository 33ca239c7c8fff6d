package factlog

import (
	"fmt"
)

// Translator converts one representation to another: wire format to domain,
// row to domain, domain to domain. It is the universal fallible-conversion
// shape: exactly one of the returned pair is meaningful, a zero Out with a
// non-nil error, or a converted Out with a nil error.
//
// Translators are pure by contract: no I/O, no mutation of captured state,
// no calls back into the fact store. Validation performed in a translator is
// purely structural (shape, type, format); policy decisions such as
// uniqueness or quotas belong to boundary actions.
//
// Unit translators must be total: every malformed input yields a
// TranslatorError value, never a panic.
type Translator[In, Out any] func(In) (Out, error)

// TranslatorError is a structural conversion failure, returned as a value.
// Code identifies the failure class for callers producing user-facing
// responses; Message is a human-readable description.
type TranslatorError struct {
	Code    string
	Message string
}

// Error returns the error message.
func (e *TranslatorError) Error() string {
	return fmt.Sprintf("factlog: translate [%s]: %s", e.Code, e.Message)
}

// NewTranslatorError creates a new TranslatorError.
func NewTranslatorError(code, message string) *TranslatorError {
	return &TranslatorError{Code: code, Message: message}
}

// Errorf creates a TranslatorError with a formatted message.
func Errorf[Out any](code, format string, args ...interface{}) (Out, error) {
	var zero Out
	return zero, NewTranslatorError(code, fmt.Sprintf(format, args...))
}

// Chain composes two translators into one. The result runs first, and only
// if it succeeds feeds the value into second; the first error encountered is
// returned immediately and second is never invoked. Because translators have
// no side effects, short-circuiting leaves no partial state behind.
func Chain[A, B, C any](first Translator[A, B], second Translator[B, C]) Translator[A, C] {
	return func(in A) (C, error) {
		mid, err := first(in)
		if err != nil {
			var zero C
			return zero, err
		}
		return second(mid)
	}
}

// Chain3 composes three translators left to right.
func Chain3[A, B, C, D any](first Translator[A, B], second Translator[B, C], third Translator[C, D]) Translator[A, D] {
	return Chain(Chain(first, second), third)
}

// Pure lifts an infallible conversion into a Translator.
func Pure[In, Out any](fn func(In) Out) Translator[In, Out] {
	return func(in In) (Out, error) {
		return fn(in), nil
	}
}

// Each lifts a translator over a slice: every element is translated in
// order, and the first error short-circuits the rest.
func Each[In, Out any](t Translator[In, Out]) Translator[[]In, []Out] {
	return func(ins []In) ([]Out, error) {
		outs := make([]Out, len(ins))
		for i, in := range ins {
			out, err := t(in)
			if err != nil {
				return nil, err
			}
			outs[i] = out
		}
		return outs, nil
	}
}

// Checked wraps a translator with a structural predicate on its output.
// When the predicate fails, the given error code and message are returned
// and the output is discarded.
func Checked[In, Out any](t Translator[In, Out], pred func(Out) bool, code, message string) Translator[In, Out] {
	return func(in In) (Out, error) {
		out, err := t(in)
		if err != nil {
			return out, err
		}
		if !pred(out) {
			var zero Out
			return zero, NewTranslatorError(code, message)
		}
		return out, nil
	}
}
