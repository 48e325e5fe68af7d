// Package context carries per-request values between the HTTP middleware
// chain and the MCP handler: the verified caller identity, the request ID,
// and the pre-parsed MCP method information.
package context

import (
	"context"

	"github.com/mcpcp/mcpcp/pkg/auth"
)

type identityCtxKey struct{}

// WithIdentity stores the verified caller identity in the context.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// Identity retrieves the verified caller identity. The second return is
// false when no verification happened; callers must fail closed on it.
func Identity(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(auth.Identity)
	return id, ok
}

type requestIDCtxKey struct{}

// WithRequestID stores the request correlation ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, id)
}

// RequestID retrieves the request correlation ID, or "" if none was set.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// MCPMethodInfo is the part of an inbound MCP JSON-RPC request the proxy
// needs before dispatch: which method, and for tools/call, which tool.
type MCPMethodInfo struct {
	Method   string
	ToolName string
}

type mcpMethodCtxKey struct{}

// WithMCPMethodInfo stores the parsed MCP request info in the context.
func WithMCPMethodInfo(ctx context.Context, info *MCPMethodInfo) context.Context {
	return context.WithValue(ctx, mcpMethodCtxKey{}, info)
}

// MCPMethod retrieves the parsed MCP request info, if the body was a
// well-formed JSON-RPC request.
func MCPMethod(ctx context.Context) (*MCPMethodInfo, bool) {
	info, ok := ctx.Value(mcpMethodCtxKey{}).(*MCPMethodInfo)
	return info, ok && info != nil
}
