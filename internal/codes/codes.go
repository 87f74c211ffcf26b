// Package codes defines the error taxonomy for skin builds.
//
// Structural errors (configuration, dependency cycles) abort a whole build
// invocation. Compile and link errors are scoped to one configuration and end
// up in that configuration's result. Cache errors are never surfaced as
// failures; callers log them and rebuild.
package codes

import (
	"errors"
	"fmt"
)

// Code identifies a class of build error.
type Code string

const (
	// Config means the configuration is missing or malformed.
	Config Code = "CONFIG_ERROR"

	// Cycle means the configurations depend on each other in a loop.
	Cycle Code = "CYCLE_ERROR"

	// Compile means the resource compiler reported failures.
	Compile Code = "COMPILE_ERROR"

	// Link means the resource linker reported failures.
	Link Code = "LINK_ERROR"

	// Cache means the incremental cache could not be read, hashed or written.
	Cache Code = "CACHE_ERROR"

	// IO means a filesystem operation failed.
	IO Code = "IO_ERROR"
)

// Descriptions maps each code to a short human readable description
var Descriptions = map[Code]string{
	Config:  "Invalid configuration",
	Cycle:   "Circular dependency between configurations",
	Compile: "Resource compilation failed",
	Link:    "Resource linking failed",
	Cache:   "Build cache unavailable",
	IO:      "Filesystem error",
}

// Process exit codes
const (
	ExitSuccess     = 0
	ExitBuildFailed = 1
	ExitConfigError = 2
)

// Error is a build error carrying a Code and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given code and formatted message
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to err. Wrap returns nil if err is nil.
func Wrap(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether any error in err's chain carries code
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}

		if e.Code == code {
			return true
		}

		err = e.Err
	}

	return false
}

// Of returns the code of the outermost coded error in err's chain
func Of(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}

	return "", false
}

// Describe returns the description for a code, or a generic message if unknown
func Describe(code Code) string {
	if msg, ok := Descriptions[code]; ok {
		return msg
	}

	return "Unknown error"
}

// ExitCode maps an invocation-level error to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if Is(err, Config) || Is(err, Cycle) {
		return ExitConfigError
	}

	return ExitBuildFailed
}
