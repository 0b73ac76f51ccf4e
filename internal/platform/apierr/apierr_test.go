package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid", learning.Invalid("op", "bad"), http.StatusBadRequest, "invalid_params"},
		{"mismatch", learning.NewError(learning.CodeAnswerMismatch, "op", "x", nil), http.StatusBadRequest, "answer_mismatch"},
		{"not found", learning.NewError(learning.CodeSessionNotFound, "op", "x", nil), http.StatusNotFound, "session_not_found"},
		{"closed", learning.NewError(learning.CodeSessionClosed, "op", "x", nil), http.StatusConflict, "session_closed"},
		{"already open", learning.NewError(learning.CodeSessionAlreadyOpen, "op", "x", nil), http.StatusConflict, "session_already_open"},
		{"skew", learning.NewError(learning.CodeClockSkew, "op", "x", nil), http.StatusConflict, "clock_skew"},
		{"busy", learning.NewError(learning.CodeConcurrentSessionAccess, "op", "x", nil), http.StatusLocked, "concurrent_session_access"},
		{"transient wrapped", fmt.Errorf("outer: %w", learning.Wrap(learning.CodeStoreTransient, "op", errors.New("timeout"))), http.StatusServiceUnavailable, "store_transient"},
		{"fatal", learning.Fatal("op", "profile/x", "corrupt"), http.StatusInternalServerError, "store_fatal"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal"},
		{"passthrough", New(http.StatusUnauthorized, "missing_learner_id", nil), http.StatusUnauthorized, "missing_learner_id"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := FromError(tc.err)
			if got.Status != tc.status || got.Code != tc.code {
				t.Fatalf("FromError = %d %s want %d %s", got.Status, got.Code, tc.status, tc.code)
			}
		})
	}
	if FromError(nil) != nil {
		t.Fatalf("FromError(nil) != nil")
	}
}
