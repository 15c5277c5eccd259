package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoggingResponseWriterStatus(t *testing.T) {
	t.Run("explicit status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &loggingResponseWriter{ResponseWriter: rec}
		rw.WriteHeader(http.StatusBadRequest)
		if rw.Status() != http.StatusBadRequest {
			t.Fatalf("unexpected status: %d", rw.Status())
		}
	})

	t.Run("implicit 200 on write", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &loggingResponseWriter{ResponseWriter: rec}
		if _, err := rw.Write([]byte("ok")); err != nil {
			t.Fatalf("write: %v", err)
		}
		if rw.Status() != http.StatusOK {
			t.Fatalf("unexpected status: %d", rw.Status())
		}
	})

	t.Run("no write defaults to 200", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &loggingResponseWriter{ResponseWriter: rec}
		if rw.Status() != http.StatusOK {
			t.Fatalf("unexpected status: %d", rw.Status())
		}
	})
}

func TestLoggingMiddlewarePreservesResponse(t *testing.T) {
	app := newTestApp(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})

	req := httptest.NewRequest(http.MethodGet, "/sse", nil)
	rec := httptest.NewRecorder()
	app.withRequestLogging(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}
