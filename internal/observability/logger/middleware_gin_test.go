package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	obscontext "github.com/SystonTigers/receptionist-sub000/internal/observability/context"
)

func TestGinMiddlewareSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))

	var seenInContext string
	r.GET("/ping", func(c *gin.Context) {
		seenInContext = obscontext.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	got := w.Header().Get("X-Request-Id")
	if got == "" {
		t.Fatalf("expected X-Request-Id header to be set")
	}
	if seenInContext != got {
		t.Fatalf("context request id %q != header %q", seenInContext, got)
	}
}

func TestGinMiddlewareEchoesIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "caller-supplied")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "caller-supplied" {
		t.Fatalf("expected caller request id to be kept, got %q", got)
	}
}
