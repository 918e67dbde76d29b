package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EmpoweredVote/telraam-coverage/internal/middleware"
)

// call wraps a simple 200-OK inner handler in the provided middleware and returns
// the recorded response.
func call(t *testing.T, mw func(http.Handler) http.Handler, method, origin string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(method, "/runs", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	mw(inner).ServeHTTP(rec, req)
	return rec
}

// TestCORS_AllowedOrigin verifies that an allow-listed origin is echoed back.
func TestCORS_AllowedOrigin(t *testing.T) {
	rec := call(t, middleware.CORS([]string{"https://dash.example"}), http.MethodGet, "https://dash.example")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
		t.Errorf("expected origin to be echoed, got %q", got)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("expected inner handler to run, got body %q", rec.Body.String())
	}
}

// TestCORS_UnknownOrigin verifies that other origins get no allow header.
func TestCORS_UnknownOrigin(t *testing.T) {
	rec := call(t, middleware.CORS([]string{"https://dash.example"}), http.MethodGet, "https://evil.example")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow-origin header, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// TestCORS_Preflight verifies that OPTIONS is answered without calling the handler.
func TestCORS_Preflight(t *testing.T) {
	rec := call(t, middleware.CORS([]string{"https://dash.example"}), http.MethodOptions, "https://dash.example")

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestServerTiming(t *testing.T) {
	rec := call(t, middleware.ServerTiming, http.MethodGet, "")

	if got := rec.Header().Get("Server-Timing"); !strings.HasPrefix(got, "app;dur=") {
		t.Errorf("expected Server-Timing header, got %q", got)
	}
}
