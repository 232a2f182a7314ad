package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantsql/internal/middleware"
	"tenantsql/internal/sqlrewrite"
	"tenantsql/internal/tenant"
)

const testSecret = "router-test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	v, err := middleware.NewHS256Validator(testSecret, "", nil)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(t.Context(), RouterConfig{
		Handler:        NewHandler(sqlrewrite.New(nil), true, nil),
		Validator:      v,
		Policy:         tenant.DefaultPolicy(),
		RateLimit:      middleware.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		AllowedOrigins: []string{"https://app.example.com"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func doRequest(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRouter_Healthz(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRouter_RewriteRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/v1/rewrite", "", `{"sql":"SELECT * FROM orders"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_RewritePerTenant(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name    string
		claims  jwt.MapClaims
		wantSQL string
	}{
		{
			name:    "tenant T1",
			claims:  jwt.MapClaims{"sub": "alice", "tenant_id": "T1", "role_name": "user"},
			wantSQL: "SELECT * FROM orders WHERE tenant_id = 'T1'",
		},
		{
			name:    "numeric tenant",
			claims:  jwt.MapClaims{"sub": "bob", "tenant_id": 42},
			wantSQL: "SELECT * FROM orders WHERE tenant_id = '42'",
		},
		{
			name:    "administrator",
			claims:  jwt.MapClaims{"sub": "root", "role_name": "administrator"},
			wantSQL: "SELECT * FROM orders WHERE '1' = '1'",
		},
		{
			name:    "no tenant falls back to admin tenant",
			claims:  jwt.MapClaims{"sub": "svc"},
			wantSQL: "SELECT * FROM orders WHERE tenant_id = '000000'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, srv.URL+"/v1/rewrite", signToken(t, tt.claims),
				`{"sql":"SELECT * FROM orders"}`)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body RewriteResponse
			require.NoError(t, jsonDecode(resp, &body))
			assert.Equal(t, tt.wantSQL, body.SQL)
			assert.True(t, body.Changed)
		})
	}
}

func TestRouter_Tables(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/v1/tables",
		signToken(t, jwt.MapClaims{"tenant_id": "T1"}), `{"sql":"SELECT * FROM a JOIN b ON a.id = b.id"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body TablesResponse
	require.NoError(t, jsonDecode(resp, &body))
	assert.Equal(t, []string{"a", "b"}, body.Tables)
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodOptions, srv.URL+"/v1/rewrite", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
