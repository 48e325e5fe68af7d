package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpcp/mcpcp/pkg/auth"
	mcpcpcontext "github.com/mcpcp/mcpcp/pkg/context"
)

type fakeVerifier struct {
	identities map[string]auth.Identity
}

func (f *fakeVerifier) Verify(token string) (auth.Identity, error) {
	if id, ok := f.identities[token]; ok {
		return id, nil
	}
	return auth.Identity{}, auth.ErrUnauthenticated
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseAuthorizationHeader(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantErr   error
	}{
		{name: "bearer token", header: "Bearer abc.def.ghi", wantToken: "abc.def.ghi"},
		{name: "lowercase bearer", header: "bearer abc.def.ghi", wantToken: "abc.def.ghi"},
		{name: "missing header", header: "", wantErr: ErrMissingAuthorizationHeader},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: ErrBadAuthorizationHeader},
		{name: "bearer with empty token", header: "Bearer   ", wantErr: ErrBadAuthorizationHeader},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			token, err := ParseAuthorizationHeader(r)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantToken, token)
		})
	}
}

func TestRequireIdentity(t *testing.T) {
	verifier := &fakeVerifier{identities: map[string]auth.Identity{
		"good-token": {Subject: "agentA", Scopes: []string{"call_tools"}},
	}}

	var gotIdentity *auth.Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := mcpcpcontext.Identity(r.Context()); ok {
			gotIdentity = &id
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireIdentity(verifier, discardLogger())(inner)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantSubj   string
	}{
		{name: "valid token passes", header: "Bearer good-token", wantStatus: http.StatusOK, wantSubj: "agentA"},
		{name: "invalid token rejected", header: "Bearer forged", wantStatus: http.StatusUnauthorized},
		{name: "missing header rejected", header: "", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotIdentity = nil
			r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantSubj != "" {
				require.NotNil(t, gotIdentity)
				assert.Equal(t, tc.wantSubj, gotIdentity.Subject)
			} else {
				assert.Nil(t, gotIdentity, "identity must not leak past a rejection")
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
			}
		})
	}
}

func TestWithMCPParse(t *testing.T) {
	var gotInfo *mcpcpcontext.MCPMethodInfo
	var gotBody string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotInfo = nil
		if info, ok := mcpcpcontext.MCPMethod(r.Context()); ok {
			gotInfo = info
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	})
	handler := WithMCPParse()(inner)

	t.Run("tools/call extracts tool name", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"greet","arguments":{"who":"world"}}}`
		r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
		handler.ServeHTTP(httptest.NewRecorder(), r)

		require.NotNil(t, gotInfo)
		assert.Equal(t, "tools/call", gotInfo.Method)
		assert.Equal(t, "greet", gotInfo.ToolName)
		assert.Equal(t, body, gotBody, "body must be restored for the MCP server")
	})

	t.Run("tools/list has no tool name", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`
		r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
		handler.ServeHTTP(httptest.NewRecorder(), r)

		require.NotNil(t, gotInfo)
		assert.Equal(t, "tools/list", gotInfo.Method)
		assert.Empty(t, gotInfo.ToolName)
	})

	t.Run("malformed body is passed through", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{not json"))
		handler.ServeHTTP(httptest.NewRecorder(), r)
		assert.Nil(t, gotInfo)
		assert.Equal(t, "{not json", gotBody)
	})

	t.Run("GET is ignored", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/mcp", nil)
		handler.ServeHTTP(httptest.NewRecorder(), r)
		assert.Nil(t, gotInfo)
	})
}

func TestWithRequestID(t *testing.T) {
	var ctxID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = mcpcpcontext.RequestID(r.Context())
	})
	handler := WithRequestID(discardLogger())(inner)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/_ping", nil))

	require.NotEmpty(t, ctxID)
	assert.Equal(t, ctxID, w.Header().Get(RequestIDHeader))
}

func TestRequireIdentityVerifierError(t *testing.T) {
	failing := &fakeVerifier{}
	handler := RequireIdentity(failing, discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	r.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
