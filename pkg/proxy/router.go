package proxy

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mcpcp/mcpcp/pkg/auth"
	"github.com/mcpcp/mcpcp/pkg/naming"
	"github.com/mcpcp/mcpcp/pkg/policy"
	"github.com/mcpcp/mcpcp/pkg/upstream"
)

// Router dispatches tool invocations to the first granted provider that
// implements the tool.
type Router struct {
	policies *policy.Table
	registry *upstream.Registry
	dialer   upstream.Dialer
	logger   *slog.Logger
}

func NewRouter(policies *policy.Table, registry *upstream.Registry, dialer upstream.Dialer, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{policies: policies, registry: registry, dialer: dialer, logger: logger}
}

// Invoke calls bareName on behalf of the caller. Candidate providers are the
// caller's grants that admit the name, tried in policy order. Only a
// "tool not found at this provider" answer moves on to the next candidate;
// any other failure stops the attempt chain, because the tool may already
// have run and produced side effects. A provider-side execution error
// arrives as a result with IsError set and is returned verbatim.
func (r *Router) Invoke(ctx context.Context, id auth.Identity, bareName string, args map[string]any) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "router.invoke")
	defer span.End()
	span.SetAttributes(
		attribute.String("mcpcp.caller", id.Subject),
		attribute.String("mcpcp.tool", bareName),
	)

	grants := r.policies.ForCaller(id.Subject)
	if len(grants) == 0 {
		r.logger.Warn("no policy configured for caller", "caller", id.Subject, "tool", bareName)
		return nil, &AccessDeniedError{Caller: id.Subject}
	}

	var candidates []policy.Grant
	for _, grant := range grants {
		if grant.Tools.Allows(bareName) {
			candidates = append(candidates, grant)
		}
	}
	if len(candidates) == 0 {
		r.logger.Warn("tool not granted to caller", "caller", id.Subject, "tool", bareName)
		return nil, &AccessDeniedError{Caller: id.Subject, Tool: bareName}
	}

	for _, candidate := range candidates {
		result, err := r.tryProvider(ctx, candidate.Provider, id.Subject, bareName, args)
		switch {
		case err == nil && result != nil:
			span.SetAttributes(attribute.String("mcpcp.provider", candidate.Provider))
			return result, nil
		case err == nil:
			// Provider skipped (unknown in the registry); fall through.
			continue
		case upstream.IsToolNotFound(err):
			r.logger.Debug("tool not found on provider, trying next candidate",
				"caller", id.Subject, "tool", bareName, "provider", candidate.Provider)
			continue
		default:
			r.logger.Error("tool invocation failed",
				"caller", id.Subject, "tool", bareName, "provider", candidate.Provider, "error", err)
			return nil, err
		}
	}

	r.logger.Warn("tool not found on any eligible provider", "caller", id.Subject, "tool", bareName)
	return nil, &ToolNotFoundError{Caller: id.Subject, Tool: bareName}
}

// tryProvider dispatches one attempt. A (nil, nil) return means the provider
// was configured in policy but is missing from the registry: a configuration
// fault that is logged and treated as the provider being absent.
func (r *Router) tryProvider(ctx context.Context, providerName, caller, bareName string, args map[string]any) (*mcp.CallToolResult, error) {
	p, err := r.registry.Resolve(providerName)
	if err != nil {
		r.logger.Error("policy names unregistered provider", "caller", caller, "provider", providerName, "error", err)
		return nil, nil
	}

	conn, err := r.dialer.Dial(ctx, p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	return conn.CallTool(ctx, naming.Qualify(providerName, bareName), args)
}
