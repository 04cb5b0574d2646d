package upstream

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-relay/protocol"
)

const anthropicVersion = "2023-06-01"

// Caller issues upstream HTTP requests with credential injection. One caller
// is shared across providers; the optional proxy applies to every upstream.
type Caller struct {
	client *http.Client
}

func NewCaller(proxy string) (*Caller, error) {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("upstream: default transport is not *http.Transport")
	}
	transport = transport.Clone()
	if strings.TrimSpace(proxy) != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("upstream: invalid proxy url %q: %w", proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	// No client timeout: streamed completions stay open well past any
	// sensible fixed deadline. Cancellation rides on the request context.
	return &Caller{client: &http.Client{Transport: transport}}, nil
}

// NewCallerWithClient is for tests and callers that manage their own client.
func NewCallerWithClient(client *http.Client) *Caller {
	return &Caller{client: client}
}

func (c *Caller) Do(ctx context.Context, def Definition, req protocol.Request, secret string) (*http.Response, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("upstream: caller is not configured")
	}
	target := strings.TrimSuffix(def.BaseURL, "/") + "/" + req.Path
	if req.Query != "" {
		target += "?" + req.Query
	}

	var body *bytes.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	} else {
		body = bytes.NewReader(nil)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}

	switch def.Auth {
	case AuthAPIKeyHeader:
		httpReq.Header.Set("x-api-key", secret)
		httpReq.Header.Set("anthropic-version", anthropicVersion)
	case AuthBearer:
		httpReq.Header.Set("Authorization", "Bearer "+secret)
	case AuthGoogleHeader:
		httpReq.Header.Set("x-goog-api-key", secret)
	default:
		return nil, fmt.Errorf("upstream: definition %q has no auth style", def.Name)
	}

	return c.client.Do(httpReq)
}
