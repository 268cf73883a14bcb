package app

import (
	"errors"
	"fmt"
)

// Kind classifies startup failures.
type Kind int

const (
	// KindConfiguration covers illegal or inconsistent options: a stopping
	// condition in interactive mode, unknown names, missing files or
	// explicitly configured directories.
	KindConfiguration Kind = iota + 1

	// KindEnvironment covers failures of the surrounding system, such as
	// a missing home directory when a default path must be derived.
	KindEnvironment
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindEnvironment:
		return "environment error"
	default:
		return "unknown error"
	}
}

// Error is returned by every startup step. Only the command's entry point
// prints it and exits.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func configErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Msg: fmt.Sprintf(format, args...)}
}

func configError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Msg: fmt.Sprintf(format, args...), Err: err}
}

func environmentError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindEnvironment, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return KindOf(err) == KindConfiguration
}

// IsEnvironment reports whether err is an environment error.
func IsEnvironment(err error) bool {
	return KindOf(err) == KindEnvironment
}
