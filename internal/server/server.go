// Package server assembles the MCP runtime and its transports.
package server

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"snowmcp/internal/tools"
)

const (
	serverName = "ServiceNow"

	allowRemoteEnvKey = "SNOWMCP_ALLOW_REMOTE"
)

// New builds the MCP runtime with the given tools registered.
func New(version string, defs []tools.Definition) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(serverName, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	for _, def := range defs {
		s.AddTool(def.Tool, def.Handler)
	}
	return s
}

// ListenAddr converts a base URL or host:port into a listen address,
// rejecting non-loopback hosts unless explicitly allowed.
func ListenAddr(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("listen address is required")
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(raw)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return raw, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
