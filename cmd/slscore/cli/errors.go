// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors for the exit status.
type ErrorCategory string

const (
	// CategoryValidation means the arguments were wrong.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound means a referenced app or ticket does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryInternal means an I/O or other unexpected failure.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized command error wrapping the underlying
// error.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// ExitCode maps the category to a process exit status: 2 for usage
// errors, 3 for missing resources, 1 otherwise.
func (e *ToolError) ExitCode() int {
	switch e.Category {
	case CategoryValidation:
		return 2
	case CategoryNotFound:
		return 3
	default:
		return 1
	}
}

// Validation creates a usage error.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// ExitError requests a non-zero exit status without an error message;
// the command has already written its output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the requested status.
func (e *ExitError) ExitCode() int {
	return e.Code
}
