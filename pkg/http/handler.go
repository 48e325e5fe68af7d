// Package http serves the proxy's inbound surface: the MCP streamable HTTP
// endpoint, the administrative provider registration call, and a health
// probe. The MCP server is built fresh per request and scoped to what the
// request needs: the caller's aggregated catalog for a listing, a single
// routed tool for a call, nothing for an initialize.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mcpcp/mcpcp/pkg/auth"
	mcpcpcontext "github.com/mcpcp/mcpcp/pkg/context"
	"github.com/mcpcp/mcpcp/pkg/http/middleware"
	"github.com/mcpcp/mcpcp/pkg/proxy"
	"github.com/mcpcp/mcpcp/pkg/upstream"
)

// ServerConfig carries the identity the proxy presents to MCP clients.
type ServerConfig struct {
	Name    string
	Version string
}

// AdminScope must be present in a caller's token for administrative
// operations.
const AdminScope = "admin"

type Handler struct {
	cfg        ServerConfig
	verifier   middleware.TokenVerifier
	aggregator *proxy.Aggregator
	router     *proxy.Router
	registry   *upstream.Registry
	logger     *slog.Logger
}

func NewHandler(
	cfg ServerConfig,
	verifier middleware.TokenVerifier,
	aggregator *proxy.Aggregator,
	router *proxy.Router,
	registry *upstream.Registry,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:        cfg,
		verifier:   verifier,
		aggregator: aggregator,
		router:     router,
		registry:   registry,
		logger:     logger,
	}
}

// Routes assembles the HTTP surface. The health probe is the only route
// reachable without a verified identity.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.WithRequestID(h.logger))
	r.HandleFunc("/_ping", h.handlePing).Methods(http.MethodGet)

	mcpRoutes := r.PathPrefix("/mcp").Subrouter()
	mcpRoutes.Use(
		middleware.RequireIdentity(h.verifier, h.logger),
		middleware.WithMCPParse(),
	)
	mcpRoutes.PathPrefix("").HandlerFunc(h.serveMCP)

	adminRoutes := r.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.RequireIdentity(h.verifier, h.logger))
	adminRoutes.HandleFunc("/providers", h.handleRegisterProvider).Methods(http.MethodPost)

	return r
}

func (h *Handler) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// serveMCP answers one MCP request with a server built for exactly that
// request and caller.
func (h *Handler) serveMCP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := mcpcpcontext.Identity(ctx)
	if !ok {
		// Middleware guarantees an identity; still fail closed.
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s := server.NewMCPServer(h.cfg.Name, h.cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	if info, parsed := mcpcpcontext.MCPMethod(ctx); parsed {
		switch info.Method {
		case "tools/list":
			for _, entry := range h.aggregator.ListToolsFor(ctx, id) {
				s.AddTool(entry.Tool, h.routedHandler(id))
			}
		case "tools/call":
			// The routed tool is registered unconditionally so the router,
			// not the in-memory server, decides between access denial, not
			// found, and dispatch.
			if info.ToolName != "" {
				s.AddTool(mcp.NewTool(info.ToolName), h.routedHandler(id))
			}
		}
	}

	server.NewStreamableHTTPServer(s, server.WithStateLess(true)).ServeHTTP(w, r)
}

// routedHandler forwards a tool call into the invocation router under the
// caller's identity.
func (h *Handler) routedHandler(id auth.Identity) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return h.router.Invoke(ctx, id, req.Params.Name, req.GetArguments())
	}
}

type registerProviderRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// handleRegisterProvider adds or replaces an upstream provider. Operator
// only: the caller's token must carry the admin scope.
func (h *Handler) handleRegisterProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := mcpcpcontext.Identity(r.Context())
	if !ok || !id.HasScope(AdminScope) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var req registerProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.URL == "" {
		http.Error(w, "name and url are required", http.StatusBadRequest)
		return
	}

	if err := h.registry.Register(req.Name, req.URL); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("provider registered",
		"request_id", mcpcpcontext.RequestID(r.Context()),
		"operator", id.Subject,
		"provider", req.Name,
		"url", req.URL,
	)
	w.WriteHeader(http.StatusNoContent)
}
