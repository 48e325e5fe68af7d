package upstream

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcpcp/mcpcp/pkg/naming"
)

// Conn is a live session with one provider. Catalog entries are presented in
// namespaced form: every tool name is qualified with the provider's prefix,
// and CallTool takes the qualified name and puts the provider-local name on
// the wire. The qualify/unqualify pair in pkg/naming is the only place the
// encoding lives.
type Conn interface {
	// ListTools returns the provider's catalog with qualified names.
	ListTools(ctx context.Context) ([]mcp.Tool, error)

	// CallTool invokes a tool by its qualified name. A provider that does
	// not implement the tool yields an error for which IsToolNotFound
	// reports true.
	CallTool(ctx context.Context, qualifiedName string, args map[string]any) (*mcp.CallToolResult, error)

	Close() error
}

// Dialer opens connections to providers. The production implementation
// speaks MCP streamable HTTP; tests substitute fakes.
type Dialer interface {
	Dial(ctx context.Context, p Provider) (Conn, error)
}

// StreamableDialer dials providers over MCP streamable HTTP.
type StreamableDialer struct {
	// ClientName and ClientVersion identify the proxy during the MCP
	// initialize handshake.
	ClientName    string
	ClientVersion string
}

func (d *StreamableDialer) Dial(ctx context.Context, p Provider) (Conn, error) {
	c, err := client.NewStreamableHttpClient(p.URL)
	if err != nil {
		return nil, &UnreachableError{Provider: p.Name, Err: err}
	}
	if err := c.Start(ctx); err != nil {
		return nil, &UnreachableError{Provider: p.Name, Err: err}
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    d.ClientName,
		Version: d.ClientVersion,
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, &UnreachableError{Provider: p.Name, Err: err}
	}

	return &streamableConn{provider: p, client: c}, nil
}

type streamableConn struct {
	provider Provider
	client   *client.Client
}

func (c *streamableConn) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, &UnreachableError{Provider: c.provider.Name, Err: err}
	}
	tools := make([]mcp.Tool, 0, len(result.Tools))
	for _, tool := range result.Tools {
		tool.Name = naming.Qualify(c.provider.Name, tool.Name)
		tools = append(tools, tool)
	}
	return tools, nil
}

func (c *streamableConn) CallTool(ctx context.Context, qualifiedName string, args map[string]any) (*mcp.CallToolResult, error) {
	bare, ok := naming.Unqualify(c.provider.Name, qualifiedName)
	if !ok {
		return nil, fmt.Errorf("tool %q does not belong to provider %q: %w", qualifiedName, c.provider.Name, ErrToolNotFound)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = bare
	req.Params.Arguments = args
	return c.client.CallTool(ctx, req)
}

func (c *streamableConn) Close() error {
	return c.client.Close()
}
