// Package session carries the per-session ServiceNow client through
// request contexts. One client is built per inbound session from its
// credentials; nothing is shared across sessions.
package session

import (
	"context"

	"snowmcp/internal/snow"
)

type clientKey struct{}

// WithClient returns a context carrying the session's Table API client.
func WithClient(ctx context.Context, client *snow.Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFrom extracts the session's client, if one was established.
func ClientFrom(ctx context.Context) (*snow.Client, bool) {
	client, ok := ctx.Value(clientKey{}).(*snow.Client)
	return client, ok
}
