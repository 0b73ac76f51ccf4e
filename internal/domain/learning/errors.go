package learning

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the machine-readable failure kind surfaced to callers.
type ErrorCode string

const (
	CodeInvalidParams           ErrorCode = "invalid_params"
	CodeSessionNotFound         ErrorCode = "session_not_found"
	CodeSessionClosed           ErrorCode = "session_closed"
	CodeSessionAlreadyOpen      ErrorCode = "session_already_open"
	CodeAnswerMismatch          ErrorCode = "answer_mismatch"
	CodeConcurrentSessionAccess ErrorCode = "concurrent_session_access"
	CodeStoreTransient          ErrorCode = "store_transient"
	CodeStoreFatal              ErrorCode = "store_fatal"
	CodeClockSkew               ErrorCode = "clock_skew"
)

// Error is the canonical scheduler error.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	// Key names the offending record for store_fatal errors.
	Key   string
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	if e.Key != "" {
		msg = strings.TrimSpace(msg + " [key=" + e.Key + "]")
	}
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Invalid is shorthand for an invalid_params error.
func Invalid(op, format string, args ...any) error {
	return NewError(CodeInvalidParams, op, fmt.Sprintf(format, args...), nil)
}

// Fatal reports a corrupt record identified by key.
func Fatal(op, key, message string) error {
	return &Error{Code: CodeStoreFatal, Op: op, Message: message, Key: key}
}

// Wrap annotates err with code unless it already carries one.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return NewError(code, op, err.Error(), err)
}

func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

func CodeOf(err error) ErrorCode {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

// Retryable reports whether the caller may retry the same operation unchanged.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeStoreTransient, CodeConcurrentSessionAccess:
		return true
	default:
		return false
	}
}
