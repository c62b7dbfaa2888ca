package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/graphreplay/internal/bundle"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Everything passed
	ExitCommandError = 1 // Argument, config or fixture error (missing seed, unreadable manifest, ...)
	ExitFailure      = 2 // Determinism or replay failure
)

// Error codes carried in ErrorResponse.
const (
	ErrCodeConfig       = "config_error"
	ErrCodeVerification = "verification_failed"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (ExitCommandError or ExitFailure)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported marks errors whose report was already printed on stdout.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// failedReport is returned after a failing report has been printed.
func failedReport(message string) *ExitError {
	return &ExitError{Code: ExitFailure, Message: message, Reported: true}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitCommandError if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// ErrorResponse is printed on stdout when a command fails before it could
// produce its own report.
type ErrorResponse struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}

// writeReport prints v as indented JSON.
func writeReport(w io.Writer, v any) error {
	data, err := bundle.MarshalIndent(v)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Execute runs cmd and returns the process exit code. Errors that did not
// already print a report are rendered as an ErrorResponse on stdout.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	code := GetExitCode(err)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported {
		errCode := ErrCodeConfig
		if code == ExitFailure {
			errCode = ErrCodeVerification
		}
		_ = writeReport(cmd.OutOrStdout(), ErrorResponse{Status: "error", Code: errCode, Error: err.Error()})
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	return code
}
