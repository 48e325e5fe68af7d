package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	mcpcpcontext "github.com/mcpcp/mcpcp/pkg/context"
)

// mcpJSONRPCRequest is the slice of an MCP JSON-RPC request the proxy needs
// for routing decisions.
type mcpJSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  struct {
		Name string `json:"name,omitempty"`
	} `json:"params"`
}

// WithMCPParse parses the MCP JSON-RPC body early and stores the method and
// tool name in the request context, so the handler can build a server scoped
// to exactly this request: no upstream catalog fan-out for a tools/call, and
// no tool registration at all for an initialize. The body is restored for
// downstream handlers. Parse failures are not fatal here; the MCP server
// produces the protocol error.
func WithMCPParse() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if len(body) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			var mcpReq mcpJSONRPCRequest
			if err := json.Unmarshal(body, &mcpReq); err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if mcpReq.JSONRPC != "2.0" || mcpReq.Method == "" {
				next.ServeHTTP(w, r)
				return
			}

			info := &mcpcpcontext.MCPMethodInfo{Method: mcpReq.Method}
			if mcpReq.Method == "tools/call" {
				info.ToolName = mcpReq.Params.Name
			}

			ctx := mcpcpcontext.WithMCPMethodInfo(r.Context(), info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
