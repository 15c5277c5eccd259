package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"snowmcp/internal/auth"
	"snowmcp/internal/session"
	"snowmcp/internal/snow"
)

// Per-session headers carrying the ServiceNow connection. This transport
// supports basic auth only.
const (
	HeaderInstanceURL = "X-ServiceNow-Instance-URL"
	HeaderUsername    = "X-ServiceNow-Username"
	HeaderPassword    = "X-ServiceNow-Password"
)

const (
	sseEndpoint     = "/sse"
	messageEndpoint = "/message"

	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 120 * time.Second
)

// SSEApp serves the MCP SSE transport. Each protocol request carries its
// own ServiceNow credentials in headers, and a credential-scoped Table API
// client is built per request; no state is shared across sessions.
type SSEApp struct {
	addr    string
	sse     *mcpserver.SSEServer
	logger  *slog.Logger
	timeout time.Duration
}

// NewSSEApp wires an MCP server to the SSE transport.
func NewSSEApp(addr string, mcp *mcpserver.MCPServer, timeout time.Duration, logger *slog.Logger) *SSEApp {
	if logger == nil {
		logger = slog.Default()
	}
	app := &SSEApp{
		addr:    addr,
		logger:  logger,
		timeout: timeout,
	}
	app.sse = mcpserver.NewSSEServer(mcp,
		mcpserver.WithSSEEndpoint(sseEndpoint),
		mcpserver.WithMessageEndpoint(messageEndpoint),
		mcpserver.WithSSEContextFunc(app.sessionContext),
	)
	return app
}

// ListenAndServe starts the HTTP server. The write timeout stays zero
// because the event stream is long-lived.
func (a *SSEApp) ListenAndServe() error {
	a.log().Info("starting sse server", "addr", a.addr, "sse_endpoint", sseEndpoint, "message_endpoint", messageEndpoint)
	server := &http.Server{
		Addr:              a.addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	return server.ListenAndServe()
}

func (a *SSEApp) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", a.handleHealth)
	mux.Handle("GET "+sseEndpoint, a.requireSessionHeaders(a.sse.SSEHandler()))
	mux.Handle("POST "+messageEndpoint, a.sse.MessageHandler())

	return a.withRequestLogging(mux)
}

func (a *SSEApp) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireSessionHeaders rejects session negotiation without a complete set
// of connection headers.
func (a *SSEApp) requireSessionHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := credentialsFromHeaders(r); err != nil {
			a.log().Warn("session rejected", "path", r.URL.Path, "remote_addr", r.RemoteAddr, "error", err)
			a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionContext scopes a protocol request to the credentials in its
// headers. Requests without credentials pass through unchanged and fail
// later at the tool boundary.
func (a *SSEApp) sessionContext(ctx context.Context, r *http.Request) context.Context {
	creds, err := credentialsFromHeaders(r)
	if err != nil {
		return ctx
	}

	manager := auth.NewManager(auth.Config{
		Type: auth.TypeBasic,
		Basic: auth.BasicConfig{
			Username: creds.username,
			Password: creds.password,
		},
	})
	client := snow.NewClient(creds.instanceURL, manager, a.timeout)
	return session.WithClient(ctx, client)
}

type sessionCredentials struct {
	instanceURL string
	username    string
	password    string
}

func credentialsFromHeaders(r *http.Request) (sessionCredentials, error) {
	creds := sessionCredentials{
		instanceURL: strings.TrimSpace(r.Header.Get(HeaderInstanceURL)),
		username:    strings.TrimSpace(r.Header.Get(HeaderUsername)),
		password:    strings.TrimSpace(r.Header.Get(HeaderPassword)),
	}

	var missing []string
	if creds.instanceURL == "" {
		missing = append(missing, HeaderInstanceURL)
	}
	if creds.username == "" {
		missing = append(missing, HeaderUsername)
	}
	if creds.password == "" {
		missing = append(missing, HeaderPassword)
	}
	if len(missing) > 0 {
		return sessionCredentials{}, fmt.Errorf("missing required headers: %s", strings.Join(missing, ", "))
	}

	return creds, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *SSEApp) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log().Error("write json response", "status", status, "error", err)
	}
}

func (a *SSEApp) log() *slog.Logger {
	if a != nil && a.logger != nil {
		return a.logger
	}
	return slog.Default()
}
