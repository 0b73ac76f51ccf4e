package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError converts any error into an API error. Scheduler error codes map
// to fixed statuses; errors without a code are internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	code := learning.CodeOf(err)
	if code == "" {
		return New(http.StatusInternalServerError, "internal", err)
	}
	return New(StatusFor(code), string(code), err)
}

func StatusFor(code learning.ErrorCode) int {
	switch code {
	case learning.CodeInvalidParams, learning.CodeAnswerMismatch:
		return http.StatusBadRequest
	case learning.CodeSessionNotFound:
		return http.StatusNotFound
	case learning.CodeSessionClosed, learning.CodeSessionAlreadyOpen, learning.CodeClockSkew:
		return http.StatusConflict
	case learning.CodeConcurrentSessionAccess:
		return http.StatusLocked
	case learning.CodeStoreTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
