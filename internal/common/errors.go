package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")

	// ErrNoAmount signals that a message body contained no recognizable
	// amount. It is the single condition that aborts extraction; callers skip
	// the message and continue the batch.
	ErrNoAmount = errors.New("no amount found")

	// ErrSecretNotFound signals a missing mail credential. Distinguishable
	// from network failures so callers can surface configuration guidance.
	ErrSecretNotFound = errors.New("mail credential not found")
)

// NewAppError builds an AppError with an explicit code.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// AuthPolicyError reports that the mail provider rejected the credential type
// (typically: the account password was used where an app-specific password is
// required). It is user-actionable and must never be retried automatically.
type AuthPolicyError struct {
	Provider    string
	Remediation string
	Cause       error
}

func (e *AuthPolicyError) Error() string {
	return fmt.Sprintf("auth policy rejected by %s: %v", e.Provider, e.Cause)
}

func (e *AuthPolicyError) Unwrap() error { return e.Cause }

// IsAuthPolicy reports whether err is (or wraps) an AuthPolicyError.
func IsAuthPolicy(err error) bool {
	var ae *AuthPolicyError
	return errors.As(err, &ae)
}

// ConnectionError reports a transient network or session failure. The whole
// sync run is safe to retry; the sync cursor is left untouched.
type ConnectionError struct {
	Op    string
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed during %s: %v", e.Op, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// IsConnection reports whether err is (or wraps) a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// DecodeError reports that a single message body could not be turned into
// text. The message is skipped; the batch continues.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode message body: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// PersistenceError reports a failed write to the transaction store. The
// candidate stays pending so the save can be retried.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }
