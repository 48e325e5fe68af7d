package proxy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcpcp/mcpcp/pkg/naming"
	"github.com/mcpcp/mcpcp/pkg/upstream"
)

// fakeTool is one tool hosted by a fakeProvider. Call is invoked with the
// caller's arguments; leave it nil for a tool that just succeeds.
type fakeTool struct {
	description string
	call        func(args map[string]any) (*mcp.CallToolResult, error)
}

// fakeProvider is an in-memory stand-in for a backend MCP server.
type fakeProvider struct {
	tools map[string]fakeTool

	mu    sync.Mutex
	calls []string // bare names invoked, in order
}

func (p *fakeProvider) recordCall(bare string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, bare)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// fakeDialer hands out connections to fake providers. Providers listed in
// unreachable fail at dial time, mimicking a transport failure.
type fakeDialer struct {
	providers   map[string]*fakeProvider
	unreachable map[string]bool
	dials       atomic.Int64
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		providers:   make(map[string]*fakeProvider),
		unreachable: make(map[string]bool),
	}
}

func (d *fakeDialer) addProvider(name string, tools map[string]fakeTool) *fakeProvider {
	p := &fakeProvider{tools: tools}
	d.providers[name] = p
	return p
}

func (d *fakeDialer) Dial(_ context.Context, p upstream.Provider) (upstream.Conn, error) {
	d.dials.Add(1)
	if d.unreachable[p.Name] {
		return nil, &upstream.UnreachableError{Provider: p.Name, Err: fmt.Errorf("connection refused")}
	}
	provider, ok := d.providers[p.Name]
	if !ok {
		return nil, &upstream.UnreachableError{Provider: p.Name, Err: fmt.Errorf("no such host")}
	}
	return &fakeConn{name: p.Name, provider: provider}, nil
}

// fakeConn mirrors the namespacing contract of the production connection:
// listings carry qualified names, calls accept qualified names.
type fakeConn struct {
	name     string
	provider *fakeProvider
}

func (c *fakeConn) ListTools(context.Context) ([]mcp.Tool, error) {
	var tools []mcp.Tool
	for bare, t := range c.provider.tools {
		tools = append(tools, mcp.Tool{
			Name:        naming.Qualify(c.name, bare),
			Description: t.description,
		})
	}
	return tools, nil
}

func (c *fakeConn) CallTool(_ context.Context, qualifiedName string, args map[string]any) (*mcp.CallToolResult, error) {
	bare, ok := naming.Unqualify(c.name, qualifiedName)
	if !ok {
		return nil, upstream.ErrToolNotFound
	}
	tool, ok := c.provider.tools[bare]
	if !ok {
		return nil, fmt.Errorf("tool %q: %w", bare, upstream.ErrToolNotFound)
	}
	c.provider.recordCall(bare)
	if tool.call == nil {
		return mcp.NewToolResultText("ok from " + c.name), nil
	}
	return tool.call(args)
}

func (c *fakeConn) Close() error { return nil }
