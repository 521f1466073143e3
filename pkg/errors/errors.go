// Package errors provides structured error handling for swapdesk.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitAuth       = 3 // Signing or authentication failed
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied or rejected by the user
)

// DeskError is the structured error type for swapdesk.
type DeskError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *DeskError) Error() string {
	msg := e.Message

	// Sorted for deterministic output
	for _, k := range slices.Sorted(maps.Keys(e.Details)) {
		msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *DeskError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for DeskError.
func (e *DeskError) Is(target error) bool {
	var t *DeskError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &DeskError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &DeskError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrConfigInvalid = &DeskError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	// Wallet errors.
	ErrWalletNotFound = &DeskError{
		Code:     "WALLET_NOT_FOUND",
		Message:  "no wallet provider available",
		ExitCode: ExitNotFound,
	}

	ErrNoAccounts = &DeskError{
		Code:     "NO_ACCOUNTS",
		Message:  "wallet returned no accounts",
		ExitCode: ExitAuth,
	}

	ErrNotLoggedIn = &DeskError{
		Code:     "NOT_LOGGED_IN",
		Message:  "no active wallet session",
		ExitCode: ExitAuth,
	}

	// Network errors.
	ErrUnknownNetwork = &DeskError{
		Code:     "UNKNOWN_NETWORK",
		Message:  "unknown network",
		ExitCode: ExitInput,
	}

	ErrChainSwitchRejected = &DeskError{
		Code:     "CHAIN_SWITCH_REJECTED",
		Message:  "wallet refused to switch or add the chain",
		ExitCode: ExitPermission,
	}

	// Transaction errors.
	ErrInvalidIntent = &DeskError{
		Code:     "INVALID_INTENT",
		Message:  "invalid transaction intent",
		ExitCode: ExitInput,
	}

	ErrMissingTokenContract = &DeskError{
		Code:     "MISSING_TOKEN_CONTRACT",
		Message:  "token transaction is missing the token contract address",
		ExitCode: ExitInput,
	}

	ErrInvalidTransferParameters = &DeskError{
		Code:     "INVALID_TRANSFER_PARAMETERS",
		Message:  "invalid token transfer parameters",
		ExitCode: ExitInput,
	}

	ErrSignatureFailed = &DeskError{
		Code:     "SIGNATURE_FAILED",
		Message:  "failed to sign typed data",
		ExitCode: ExitAuth,
	}

	ErrSubmissionRejected = &DeskError{
		Code:     "SUBMISSION_REJECTED",
		Message:  "transaction submission rejected",
		ExitCode: ExitGeneral,
	}

	ErrTransactionNotFound = &DeskError{
		Code:     "TRANSACTION_NOT_FOUND",
		Message:  "transaction not found",
		ExitCode: ExitNotFound,
	}

	// Backend errors.
	ErrBackendRequest = &DeskError{
		Code:     "BACKEND_REQUEST_FAILED",
		Message:  "backend request failed",
		ExitCode: ExitGeneral,
	}
)

// New creates a new DeskError with the given code and message.
func New(code, message string) *DeskError {
	return &DeskError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var de *DeskError
	if errors.As(err, &de) {
		return &DeskError{
			Code:       de.Code,
			Message:    fmt.Sprintf("%s: %s", msg, de.Message),
			Details:    de.Details,
			Suggestion: de.Suggestion,
			Cause:      de.Cause,
			ExitCode:   de.ExitCode,
		}
	}

	return &DeskError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause attaches an underlying error to a sentinel, keeping its code.
func WithCause(sentinel, cause error) error {
	if sentinel == nil {
		return cause
	}

	var de *DeskError
	if errors.As(sentinel, &de) {
		return &DeskError{
			Code:       de.Code,
			Message:    de.Message,
			Details:    de.Details,
			Suggestion: de.Suggestion,
			Cause:      cause,
			ExitCode:   de.ExitCode,
		}
	}

	return fmt.Errorf("%w: %w", sentinel, cause)
}

// WithDetails adds details to an error. Existing details are kept unless
// overridden by a key in details.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var de *DeskError
	if errors.As(err, &de) {
		merged := make(map[string]string, len(de.Details)+len(details))
		maps.Copy(merged, de.Details)
		maps.Copy(merged, details)
		return &DeskError{
			Code:       de.Code,
			Message:    de.Message,
			Details:    merged,
			Suggestion: de.Suggestion,
			Cause:      de.Cause,
			ExitCode:   de.ExitCode,
		}
	}

	return &DeskError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var de *DeskError
	if errors.As(err, &de) {
		return &DeskError{
			Code:       de.Code,
			Message:    de.Message,
			Details:    de.Details,
			Suggestion: suggestion,
			Cause:      de.Cause,
			ExitCode:   de.ExitCode,
		}
	}

	return &DeskError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var de *DeskError
	if errors.As(err, &de) {
		return de.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var de *DeskError
	if errors.As(err, &de) {
		return de.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
