// Package proxy contains the two request-path engines of the control plane:
// the catalog aggregator, which assembles a caller's filtered tool listing
// from all granted providers, and the invocation router, which dispatches a
// call across the granted providers in priority order.
package proxy

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/mcpcp/mcpcp/pkg/auth"
	"github.com/mcpcp/mcpcp/pkg/naming"
	"github.com/mcpcp/mcpcp/pkg/policy"
	"github.com/mcpcp/mcpcp/pkg/sanitize"
	"github.com/mcpcp/mcpcp/pkg/upstream"
)

var tracer = otel.Tracer("github.com/mcpcp/mcpcp/pkg/proxy")

// Entry is one admitted catalog entry: the tool as shown to the caller
// (bare name, sanitized description) plus where it came from.
type Entry struct {
	Tool          mcp.Tool
	Provider      string
	QualifiedName string
}

// Aggregator builds per-caller tool listings.
type Aggregator struct {
	policies *policy.Table
	registry *upstream.Registry
	dialer   upstream.Dialer
	logger   *slog.Logger
}

func NewAggregator(policies *policy.Table, registry *upstream.Registry, dialer upstream.Dialer, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{policies: policies, registry: registry, dialer: dialer, logger: logger}
}

// ListToolsFor returns the catalog the caller is entitled to see. Providers
// are queried concurrently; a provider that cannot be resolved or reached
// contributes nothing and does not fail the listing. Collisions on a bare
// name resolve to the earliest grant in the caller's policy order.
func (a *Aggregator) ListToolsFor(ctx context.Context, id auth.Identity) []Entry {
	ctx, span := tracer.Start(ctx, "aggregator.list_tools")
	defer span.End()
	span.SetAttributes(attribute.String("mcpcp.caller", id.Subject))

	grants := a.policies.ForCaller(id.Subject)
	if len(grants) == 0 {
		a.logger.Warn("no policy configured for caller", "caller", id.Subject)
		return nil
	}

	// Fetch all granted catalogs concurrently. Each slot is written by
	// exactly one goroutine; a failed provider leaves its slot nil.
	catalogs := make([][]mcp.Tool, len(grants))
	g, fetchCtx := errgroup.WithContext(ctx)
	for i, grant := range grants {
		g.Go(func() error {
			catalogs[i] = a.fetchCatalog(fetchCtx, grant.Provider, id.Subject)
			return nil
		})
	}
	_ = g.Wait()

	// Merge in policy order, first writer wins per bare name.
	seen := make(map[string]struct{})
	var entries []Entry
	for i, grant := range grants {
		for _, tool := range catalogs[i] {
			qualified := tool.Name
			bare, ok := naming.Unqualify(grant.Provider, qualified)
			if !ok {
				continue
			}
			if !grant.Tools.Allows(bare) {
				continue
			}
			if _, taken := seen[bare]; taken {
				a.logger.Debug("tool name collision, keeping earlier grant",
					"caller", id.Subject, "tool", bare, "losing_provider", grant.Provider)
				continue
			}
			seen[bare] = struct{}{}

			tool.Name = bare
			tool.Description = sanitize.ToolDescription(tool.Description)
			entries = append(entries, Entry{
				Tool:          tool,
				Provider:      grant.Provider,
				QualifiedName: qualified,
			})
		}
	}

	span.SetAttributes(attribute.Int("mcpcp.tools", len(entries)))
	return entries
}

// fetchCatalog returns one provider's namespaced catalog, or nil when the
// provider is unknown or unreachable. Both faults are isolated to the
// provider and only logged, so the rest of the listing survives.
func (a *Aggregator) fetchCatalog(ctx context.Context, providerName, caller string) []mcp.Tool {
	p, err := a.registry.Resolve(providerName)
	if err != nil {
		a.logger.Error("policy names unregistered provider", "caller", caller, "provider", providerName, "error", err)
		return nil
	}

	conn, err := a.dialer.Dial(ctx, p)
	if err != nil {
		a.logger.Error("provider unreachable during listing", "caller", caller, "provider", providerName, "error", err)
		return nil
	}
	defer func() { _ = conn.Close() }()

	tools, err := conn.ListTools(ctx)
	if err != nil {
		a.logger.Error("listing provider tools failed", "caller", caller, "provider", providerName, "error", err)
		return nil
	}
	return tools
}
