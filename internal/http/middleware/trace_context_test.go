package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lexdrill-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name        string
		requestID   string
		traceID     string
		wantRequest string
		wantTrace   string
	}{
		{name: "inbound ids kept", requestID: "req-1", traceID: "trace.1", wantRequest: "req-1", wantTrace: "trace.1"},
		{name: "trace falls back to request id", requestID: "req-2", wantRequest: "req-2", wantTrace: "req-2"},
		{name: "odd bytes replaced", requestID: "a b<script>", traceID: strings.Repeat("x", 65)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *ctxutil.TraceData
			r := gin.New()
			r.Use(AttachTraceContext())
			r.GET("/", func(c *gin.Context) {
				seen = ctxutil.GetTraceData(c.Request.Context())
				c.Status(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.requestID != "" {
				req.Header.Set(HeaderRequestID, tt.requestID)
			}
			if tt.traceID != "" {
				req.Header.Set(HeaderTraceID, tt.traceID)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if seen == nil || seen.RequestID == "" || seen.TraceID == "" {
				t.Fatalf("trace data = %+v", seen)
			}
			if tt.wantRequest != "" && seen.RequestID != tt.wantRequest {
				t.Fatalf("request id = %q, want %q", seen.RequestID, tt.wantRequest)
			}
			if tt.wantTrace != "" && seen.TraceID != tt.wantTrace {
				t.Fatalf("trace id = %q, want %q", seen.TraceID, tt.wantTrace)
			}
			if tt.wantRequest == "" && seen.RequestID == tt.requestID {
				t.Fatalf("unsafe request id kept: %q", seen.RequestID)
			}
			if rec.Header().Get(HeaderRequestID) != seen.RequestID || rec.Header().Get(HeaderTraceID) != seen.TraceID {
				t.Fatalf("headers not echoed: %v", rec.Header())
			}
		})
	}
}
