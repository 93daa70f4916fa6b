package http

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	ntlmssp "github.com/Azure/go-ntlmssp"

	"github.com/eisenvault/evshare/internal/config"
	"github.com/eisenvault/evshare/internal/logging"
)

// TestProxyFuncWithBypass_EmptyNoProxy verifies that an empty noProxy always routes through proxy.
func TestProxyFuncWithBypass_EmptyNoProxy(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "", logging.NewNopLogger())

	req, _ := http.NewRequest("GET", "https://dms.example.com/api/departments", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_Patterns verifies wildcard, exact-domain and CIDR bypass entries.
func TestProxyFuncWithBypass_Patterns(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com, 192.168.0.0/16, internal.corp", logging.NewNopLogger())

	tests := []struct {
		name       string
		url        string
		wantBypass bool
	}{
		{"wildcard match", "https://dms.example.com/api", true},
		{"cidr match", "http://192.168.1.100/api", true},
		{"exact domain match", "https://internal.corp/status", true},
		{"exact domain subdomain", "https://dms.internal.corp/status", true},
		{"non-match", "https://eisenvault.net/api", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", tt.url, nil)
			result, err := proxyFunc(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantBypass && result != nil {
				t.Errorf("expected bypass (nil) for %s, got %v", tt.url, result)
			}
			if !tt.wantBypass && result == nil {
				t.Errorf("expected proxy for %s, got nil (bypass)", tt.url)
			}
		})
	}
}

func TestBuildProxyURL(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ProxyHost = "proxy.corp"
	cfg.ProxyPort = 0
	cfg.ProxyUser = "alice"

	// Default port, no credentials without a password
	u := buildProxyURL(cfg)
	if u.Host != "proxy.corp:8080" {
		t.Errorf("expected default port, got %s", u.Host)
	}
	if u.User != nil {
		t.Errorf("expected no userinfo without password, got %v", u.User)
	}

	cfg.ProxyPassword = "secret"
	cfg.ProxyPort = 3128
	u = buildProxyURL(cfg)
	if u.Host != "proxy.corp:3128" {
		t.Errorf("expected port 3128, got %s", u.Host)
	}
	if pw, ok := u.User.Password(); !ok || pw != "secret" {
		t.Error("expected credentials embedded in proxy URL")
	}
}

func TestConfigureHTTPClient_Modes(t *testing.T) {
	logger := logging.NewNopLogger()

	cfg := config.NewConfig()
	client, err := ConfigureHTTPClient(cfg, logger, "")
	if err != nil {
		t.Fatalf("no-proxy: unexpected error: %v", err)
	}
	if tr, ok := client.Transport.(*http.Transport); !ok || tr.Proxy != nil {
		t.Error("no-proxy: expected plain transport without proxy")
	}

	cfg.ProxyMode = "ntlm"
	cfg.ProxyHost = "proxy.corp"
	client, err = ConfigureHTTPClient(cfg, logger, "")
	if err != nil {
		t.Fatalf("ntlm: unexpected error: %v", err)
	}
	if _, ok := client.Transport.(ntlmssp.Negotiator); !ok {
		t.Errorf("ntlm: expected negotiator transport, got %T", client.Transport)
	}

	cfg.ProxyMode = "basic"
	cfg.ProxyHost = ""
	if _, err := ConfigureHTTPClient(cfg, logger, ""); !errors.Is(err, config.ErrMissingProxyHost) {
		t.Errorf("basic without host: expected ErrMissingProxyHost, got %v", err)
	}

	cfg.ProxyMode = "socks"
	if _, err := ConfigureHTTPClient(cfg, logger, ""); err == nil {
		t.Error("expected error for unsupported proxy mode")
	}
}

// TestNewClient_DirectConnection verifies the default client reaches a server
// and carries no overall timeout.
func TestNewClient_DirectConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewClient(nil, nil, server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Timeout != 0 {
		t.Errorf("expected no overall timeout, got %v", client.Timeout)
	}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}

// TestNewClient_WarmupThroughProxy verifies a failing warmup aborts client construction.
func TestNewClient_WarmupThroughProxy(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusProxyAuthRequired)
	}))
	defer proxy.Close()

	proxyURL, _ := url.Parse(proxy.URL)
	cfg := config.NewConfig()
	cfg.ProxyMode = "basic"
	cfg.ProxyHost = proxyURL.Hostname()
	port, _ := net.LookupPort("tcp", proxyURL.Port())
	cfg.ProxyPort = port
	cfg.ProxyUser = "alice"
	cfg.ProxyPassword = "wrong"
	cfg.ProxyWarmup = true

	if _, err := NewClient(cfg, nil, "http://dms.example.com"); err == nil {
		t.Error("expected warmup failure for 407 response")
	}
}
