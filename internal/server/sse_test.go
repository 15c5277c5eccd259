package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"snowmcp/internal/session"
	"snowmcp/internal/tools"
)

func newTestApp(t *testing.T) *SSEApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mcp := New("test", tools.All())
	return NewSSEApp("127.0.0.1:0", mcp, time.Second, logger)
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestSSERejectsMissingHeaders(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name    string
		headers map[string]string
		missing []string
	}{
		{
			name:    "no headers",
			headers: nil,
			missing: []string{HeaderInstanceURL, HeaderUsername, HeaderPassword},
		},
		{
			name: "missing password",
			headers: map[string]string{
				HeaderInstanceURL: "https://dev.service-now.com",
				HeaderUsername:    "admin",
			},
			missing: []string{HeaderPassword},
		},
		{
			name: "blank counts as missing",
			headers: map[string]string{
				HeaderInstanceURL: "https://dev.service-now.com",
				HeaderUsername:    "   ",
				HeaderPassword:    "secret",
			},
			missing: []string{HeaderUsername},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sse", nil)
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}
			rec := httptest.NewRecorder()
			app.routes().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected json error body, got %q", ct)
			}

			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if !strings.HasPrefix(body.Error, "missing required headers: ") {
				t.Errorf("unexpected error: %q", body.Error)
			}
			for _, header := range tt.missing {
				if !strings.Contains(body.Error, header) {
					t.Errorf("error should name %q: %q", header, body.Error)
				}
			}
		})
	}
}

func TestRequireSessionHeadersPassesThrough(t *testing.T) {
	app := newTestApp(t)

	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/sse", nil)
	req.Header.Set(HeaderInstanceURL, "https://dev.service-now.com")
	req.Header.Set(HeaderUsername, "admin")
	req.Header.Set(HeaderPassword, "secret")
	rec := httptest.NewRecorder()
	app.requireSessionHeaders(next).ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected next handler to run")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestSessionContextScopesClient(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/sse", nil)
	req.Header.Set(HeaderInstanceURL, "https://dev.service-now.com")
	req.Header.Set(HeaderUsername, "admin")
	req.Header.Set(HeaderPassword, "secret")

	ctx := app.sessionContext(req.Context(), req)
	if _, ok := session.ClientFrom(ctx); !ok {
		t.Fatal("expected a session client in context")
	}
}

func TestSessionContextWithoutHeaders(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/sse", nil)
	ctx := app.sessionContext(req.Context(), req)
	if _, ok := session.ClientFrom(ctx); ok {
		t.Fatal("expected no session client without credentials")
	}
}

func TestCredentialsFromHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/sse", nil)
	req.Header.Set(HeaderInstanceURL, " https://dev.service-now.com ")
	req.Header.Set(HeaderUsername, "admin")
	req.Header.Set(HeaderPassword, "secret")

	creds, err := credentialsFromHeaders(req)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if creds.instanceURL != "https://dev.service-now.com" {
		t.Errorf("instance url should be trimmed, got %q", creds.instanceURL)
	}
	if creds.username != "admin" || creds.password != "secret" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestListenAddr(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "host port", raw: "127.0.0.1:8080", want: "127.0.0.1:8080"},
		{name: "localhost", raw: "localhost:8080", want: "localhost:8080"},
		{name: "http url", raw: "http://127.0.0.1:9090", want: "127.0.0.1:9090"},
		{name: "empty", raw: "", wantErr: true},
		{name: "remote rejected", raw: "0.0.0.0:8080", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(allowRemoteEnvKey, "")
			got, err := ListenAddr(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("listen addr: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}

	t.Run("remote allowed via env", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		got, err := ListenAddr("0.0.0.0:8080")
		if err != nil {
			t.Fatalf("listen addr: %v", err)
		}
		if got != "0.0.0.0:8080" {
			t.Fatalf("unexpected addr: %q", got)
		}
	})
}
