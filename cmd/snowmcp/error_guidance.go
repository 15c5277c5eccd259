package main

import (
	"errors"
	"net"
	"strings"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var netErr net.Error
	if errors.As(err, &netErr) || strings.Contains(err.Error(), "address already in use") {
		lines = append(lines,
			"hint: check the listen address; another snowmcp instance may already be running.",
			"hint: override the address with --listen or SNOWMCP_LISTEN_ADDR.",
		)
		return uniqueLines(lines)
	}

	if strings.Contains(err.Error(), "unknown tool package") {
		lines = append(lines, "hint: list available packages with: snowmcp tools")
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
