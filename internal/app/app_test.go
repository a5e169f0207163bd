package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/backoffice/internal/config"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		AppName:         "backoffice",
		Env:             "test",
		DefaultBaseURL:  baseURL,
		TokenStoreType:  "memory",
		TokenTTL:        time.Hour,
		GatewayAddr:     "127.0.0.1:0",
		GatewayUpstream: baseURL,
	}
}

func TestRuntimeLoginStoresTokenForLaterCalls(t *testing.T) {
	var (
		lastAuth  string
		loginAuth []string
		logins    int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/login":
			logins++
			loginAuth = append(loginAuth, r.Header.Get("Authorization"))
			fmt.Fprintf(w, `{"token":"jwt-%d"}`, logins)
		case "/cliente":
			lastAuth = r.Header.Get("Authorization")
			io.WriteString(w, `[{"id":1,"razaoSocial":"Padaria","cidade":"Recife"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	rt, err := NewRuntime(context.Background(), testConfig(srv.URL), nil, true)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	defer rt.Close()

	if err := rt.Login(context.Background(), "a@x", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	clients, err := rt.Service.ListClients(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(clients) != 1 || lastAuth != "Bearer jwt-1" {
		t.Fatalf("expected stored token to be sent, auth=%q clients=%v", lastAuth, clients)
	}

	// Logging in again over a live session must not send the old token.
	if err := rt.Login(context.Background(), "a@x", "pw"); err != nil {
		t.Fatalf("second Login: %v", err)
	}
	for i, auth := range loginAuth {
		if auth != "" {
			t.Fatalf("login %d carried Authorization %q", i+1, auth)
		}
	}
	if _, err := rt.Service.ListClients(context.Background(), nil); err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if lastAuth != "Bearer jwt-2" {
		t.Fatalf("expected the new token after re-login, got %q", lastAuth)
	}

	if err := rt.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := rt.Service.ListClients(context.Background(), nil); err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if lastAuth != "" {
		t.Fatalf("expected no token after logout, got %q", lastAuth)
	}
}

func TestServerRuntimeRejectsLogin(t *testing.T) {
	rt, err := NewRuntime(context.Background(), testConfig("http://127.0.0.1:1"), nil, false)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	defer rt.Close()
	if err := rt.Login(context.Background(), "a@x", "pw"); err == nil {
		t.Fatalf("expected login to require a client-side runtime")
	}
}

func TestNewRuntimeRejectsBadPublishersFile(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.PublishersFile = t.TempDir() + "/missing.yaml"
	if _, err := NewRuntime(context.Background(), cfg, nil, false); err == nil {
		t.Fatalf("expected error for missing publishers file")
	}
}

func TestGatewayStripsPrefix(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"path":  r.URL.Path,
			"query": r.URL.RawQuery,
			"auth":  r.Header.Get("Authorization"),
		})
	}))
	defer upstream.Close()

	gw, err := NewGateway(testConfig(upstream.URL+"/v1"), nil)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	srv := httptest.NewServer(gw.Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/cliente/3?full=1", nil)
	req.Header.Set("Authorization", "Bearer passthrough")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("gateway request: %v", err)
	}
	defer resp.Body.Close()

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["path"] != "/v1/cliente/3" || got["query"] != "full=1" || got["auth"] != "Bearer passthrough" {
		t.Fatalf("unexpected upstream view %v", got)
	}
}

func TestGatewayHealthAndUpstreamFailure(t *testing.T) {
	gw, err := NewGateway(testConfig("http://127.0.0.1:1"), nil)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	srv := httptest.NewServer(gw.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %v, %v", resp, err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/cliente")
	if err != nil {
		t.Fatalf("proxy request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway || !strings.Contains(string(body), "upstream unavailable") {
		t.Fatalf("expected 502, got %d %s", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz = %d, want 503", resp.StatusCode)
	}
}

func TestNewGatewayRequiresUpstream(t *testing.T) {
	cfg := testConfig("")
	if _, err := NewGateway(cfg, nil); err == nil {
		t.Fatalf("expected error without upstream")
	}
}
