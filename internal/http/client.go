// Package http builds the *http.Client used for all DMS traffic: proxy modes,
// connection pooling and HTTP/2 negotiation.
package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/eisenvault/evshare/internal/config"
	"github.com/eisenvault/evshare/internal/constants"
	"github.com/eisenvault/evshare/internal/logging"
)

// NewClient returns the HTTP client for a share session.
//
// Key features:
//   - Proxy support (ConfigureHTTPClient)
//   - A pool sized for one connection per file of a concurrent batch
//   - HTTP/2 when talking to the DMS directly; HTTP/1.1 through proxies
//   - No overall timeout: callers bound each request with their context
//
// warmupURL is the DMS base URL, used for the optional proxy warmup request.
func NewClient(cfg *config.Config, logger *logging.Logger, warmupURL string) (*nethttp.Client, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	client, err := ConfigureHTTPClient(cfg, logger, warmupURL)
	if err != nil {
		return nil, err
	}
	client.Timeout = 0

	// NTLM wraps the transport in a negotiator; leave it untouched
	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		return client, nil
	}

	tr.ForceAttemptHTTP2 = true
	if err := http2.ConfigureTransport(tr); err != nil {
		logger.Debug().Err(err).Msg("HTTP/2 not configured")
	}

	// Set EVSHARE_DISABLE_HTTP2=true to force HTTP/1.1
	if os.Getenv("EVSHARE_DISABLE_HTTP2") == "true" || proxyActive(cfg) {
		disableHTTP2(tr)
	}

	return client, nil
}

// proxyActive reports whether requests will go through a proxy.
func proxyActive(cfg *config.Config) bool {
	switch cfg.ProxyMode {
	case "no-proxy", "":
		return false
	case "system":
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}

func disableHTTP2(tr *nethttp.Transport) {
	tr.ForceAttemptHTTP2 = false
	tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
}

func baseTransport() *nethttp.Transport {
	return &nethttp.Transport{
		DialContext: dialer().DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          constants.HTTPMaxIdleConnsPerHost * 2,
		MaxIdleConnsPerHost:   constants.HTTPMaxIdleConnsPerHost,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}
}
