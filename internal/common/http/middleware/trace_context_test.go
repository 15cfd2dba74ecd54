package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"judgegate/internal/common/http/middleware"
	"judgegate/pkg/utils/contextkey"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(req *http.Request) (*httptest.ResponseRecorder, string, string, string) {
	var ctxTraceID, ctxRequestID, helperRequestID string
	router := gin.New()
	router.Use(middleware.TraceContextMiddleware())
	router.GET("/", func(c *gin.Context) {
		if v, ok := c.Request.Context().Value(contextkey.TraceID).(string); ok {
			ctxTraceID = v
		}
		if v, ok := c.Request.Context().Value(contextkey.RequestID).(string); ok {
			ctxRequestID = v
		}
		helperRequestID = middleware.RequestID(c)
		c.Status(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder, ctxTraceID, ctxRequestID, helperRequestID
}

func TestTraceContextPropagatesCallerIDs(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-Id", "trace-abc")
	req.Header.Set("X-Request-Id", "req-xyz")

	recorder, ctxTraceID, ctxRequestID, helperRequestID := serve(req)
	if ctxTraceID != "trace-abc" || ctxRequestID != "req-xyz" {
		t.Fatalf("context ids not propagated: trace=%q request=%q", ctxTraceID, ctxRequestID)
	}
	if helperRequestID != "req-xyz" {
		t.Fatalf("RequestID helper returned %q", helperRequestID)
	}
	if recorder.Header().Get("X-Trace-Id") != "trace-abc" || recorder.Header().Get("X-Request-Id") != "req-xyz" {
		t.Fatalf("ids not echoed in response headers: %v", recorder.Header())
	}
}

func TestTraceContextGeneratesMissingIDs(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	recorder, ctxTraceID, ctxRequestID, helperRequestID := serve(req)
	if ctxTraceID == "" || ctxRequestID == "" {
		t.Fatalf("expected generated ids, got trace=%q request=%q", ctxTraceID, ctxRequestID)
	}
	if helperRequestID != ctxRequestID {
		t.Fatalf("helper id %q differs from context id %q", helperRequestID, ctxRequestID)
	}
	if recorder.Header().Get("X-Trace-Id") != ctxTraceID {
		t.Fatalf("generated trace id not echoed: %v", recorder.Header())
	}
}
