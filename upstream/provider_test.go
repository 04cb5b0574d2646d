package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-relay/core"
	"github.com/goliatone/go-relay/pool"
	"github.com/goliatone/go-relay/protocol"
)

type captureRecorder struct {
	mu     sync.Mutex
	events []core.TrafficEvent
}

func (r *captureRecorder) Record(event core.TrafficEvent) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *captureRecorder) all() []core.TrafficEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.TrafficEvent(nil), r.events...)
}

func testPool(t *testing.T, entries ...pool.Entry) *pool.CredentialPool {
	t.Helper()
	p := pool.New("claude", nil)
	p.ReplaceSnapshot(pool.Snapshot{
		Provider:        "claude",
		ProviderEnabled: true,
		Entries:         entries,
	})
	return p
}

func testProvider(t *testing.T, baseURL string, traffic core.TrafficRecorder, entries ...pool.Entry) *Provider {
	t.Helper()
	def := Definition{Name: "claude", Family: core.FamilyClaude, BaseURL: baseURL, Auth: AuthAPIKeyHeader}
	return NewProvider(def, testPool(t, entries...), NewCallerWithClient(http.DefaultClient), traffic, 3, nil)
}

func messagesRequest() protocol.Request {
	return protocol.Request{
		Operation: protocol.OpClaudeMessages,
		Family:    core.FamilyClaude,
		Model:     "claude-sonnet-4",
		Usage:     protocol.UsageClaudeMessage,
		Method:    http.MethodPost,
		Path:      "v1/messages",
		Body:      []byte(`{"model":"claude-sonnet-4","messages":[]}`),
	}
}

func TestProviderCallSuccessRecordsUsage(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer server.Close()

	recorder := &captureRecorder{}
	provider := testProvider(t, server.URL, recorder,
		pool.Entry{ID: "cred-1", Secret: "sk-1", Weight: 1, Enabled: true})

	resp, err := provider.Call(context.Background(), messagesRequest(), CallContext{RequestID: "req-1", UserID: "u-1", KeyID: "k-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != http.StatusOK || resp.IsStream() {
		t.Fatalf("expected buffered 200 response, got %+v", resp)
	}
	if gotKey != "sk-1" {
		t.Fatalf("expected credential secret on x-api-key, got %q", gotKey)
	}

	events := recorder.all()
	if len(events) != 1 {
		t.Fatalf("expected one upstream event, got %d", len(events))
	}
	event := events[0]
	if event.Direction != core.TrafficUpstream || event.CredentialID != "cred-1" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Usage.ClaudeTotalTokens == nil || *event.Usage.ClaudeTotalTokens != 15 {
		t.Fatalf("expected usage total 15, got %+v", event.Usage.ClaudeTotalTokens)
	}
	if event.UserID != "u-1" || event.KeyID != "k-1" || event.RequestID != "req-1" {
		t.Fatalf("expected call context on event, got %+v", event)
	}
}

func TestProviderCallRotatesOnRateLimit(t *testing.T) {
	var mu sync.Mutex
	seen := []string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("x-api-key")
		mu.Lock()
		seen = append(seen, key)
		mu.Unlock()
		if key == "sk-limited" {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
			return
		}
		w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer server.Close()

	provider := testProvider(t, server.URL, nil,
		pool.Entry{ID: "cred-a", Secret: "sk-limited", Weight: 1, Enabled: true},
		pool.Entry{ID: "cred-b", Secret: "sk-good", Weight: 1, Enabled: true})
	// Force the limited credential first so the rotation is observable.
	provider.Pool().IntN = func(int) int { return 0 }

	resp, err := provider.Call(context.Background(), messagesRequest(), CallContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("expected success after rotation, got %d", resp.Status)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "sk-limited" || seen[1] != "sk-good" {
		t.Fatalf("expected rotation to the second credential, saw %v", seen)
	}

	// The rate-limited credential stays out of rotation afterwards.
	entry, err := provider.Pool().Acquire("claude-sonnet-4", nil)
	if err != nil {
		t.Fatalf("expected remaining credential: %v", err)
	}
	if entry.ID != "cred-b" {
		t.Fatalf("expected cred-b only, got %s", entry.ID)
	}
}

func TestProviderCallPassesThroughRequestErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	provider := testProvider(t, server.URL, nil,
		pool.Entry{ID: "cred-a", Secret: "sk-a", Weight: 1, Enabled: true},
		pool.Entry{ID: "cred-b", Secret: "sk-b", Weight: 1, Enabled: true})

	_, err := provider.Call(context.Background(), messagesRequest(), CallContext{})
	var passthrough *PassthroughError
	if !errors.As(err, &passthrough) {
		t.Fatalf("expected passthrough error, got %v", err)
	}
	if passthrough.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 passthrough, got %d", passthrough.Status)
	}
	if calls != 1 {
		t.Fatalf("request-shaped errors must not rotate, saw %d calls", calls)
	}
}

func TestProviderCallExhaustsPoolOnAuthFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"type":"authentication_error"}}`))
	}))
	defer server.Close()

	provider := testProvider(t, server.URL, nil,
		pool.Entry{ID: "cred-a", Secret: "sk-a", Weight: 1, Enabled: true},
		pool.Entry{ID: "cred-b", Secret: "sk-b", Weight: 1, Enabled: true})

	_, err := provider.Call(context.Background(), messagesRequest(), CallContext{})
	var passthrough *PassthroughError
	if !errors.As(err, &passthrough) {
		t.Fatalf("expected passthrough error, got %v", err)
	}
	if passthrough.Status != http.StatusUnauthorized {
		t.Fatalf("expected the last upstream envelope, got %d", passthrough.Status)
	}

	// Both credentials are dead now.
	if _, err := provider.Pool().Acquire("claude-sonnet-4", nil); !errors.Is(err, core.ErrNoCredentialAvailable) {
		t.Fatalf("expected exhausted pool, got %v", err)
	}
}

func TestProviderCallNoCredential(t *testing.T) {
	provider := testProvider(t, "http://127.0.0.1:0", nil)
	_, err := provider.Call(context.Background(), messagesRequest(), CallContext{})
	if !errors.Is(err, core.ErrNoCredentialAvailable) {
		t.Fatalf("expected no-credential error, got %v", err)
	}
}

func TestProviderCallStreamRecordsAccumulatedUsage(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"type":"message_start","message":{"usage":{"input_tokens":100}}}`,
		``,
		`data: {"type":"content_block_delta","delta":{"text":"hi"}}`,
		``,
		`data: {"type":"message_delta","usage":{"output_tokens":7}}`,
		``,
	}, "\n") + "\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(stream))
	}))
	defer server.Close()

	recorder := &captureRecorder{}
	provider := testProvider(t, server.URL, recorder,
		pool.Entry{ID: "cred-1", Secret: "sk-1", Weight: 1, Enabled: true})

	req := messagesRequest()
	req.Stream = true
	resp, err := provider.Call(context.Background(), req, CallContext{RequestID: "req-s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsStream() {
		t.Fatalf("expected streamed response")
	}
	relayed, err := io.ReadAll(resp.Stream)
	if err != nil {
		t.Fatalf("stream read failed: %v", err)
	}
	resp.Stream.Close()
	if string(relayed) != stream {
		t.Fatalf("stream must pass through unmodified")
	}

	events := recorder.all()
	if len(events) != 1 {
		t.Fatalf("expected one upstream event after stream end, got %d", len(events))
	}
	usage := events[0].Usage
	if usage.ClaudeTotalTokens == nil || *usage.ClaudeTotalTokens != 107 {
		t.Fatalf("expected accumulated total 107, got %+v", usage.ClaudeTotalTokens)
	}
}

func TestRegistryRegisterAndStats(t *testing.T) {
	registry := NewRegistry()
	provider := testProvider(t, "http://127.0.0.1:0", nil,
		pool.Entry{ID: "cred-1", Secret: "sk", Weight: 1, Enabled: true})
	if err := registry.Register(provider); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := registry.Register(provider); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if _, ok := registry.Get("claude"); !ok {
		t.Fatalf("expected lookup to succeed")
	}
	stats := registry.Stats()
	if len(stats) != 1 || stats[0].Name != "claude" || stats[0].CredentialsEnabled != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	registry.ApplySnapshots(map[string]pool.Snapshot{})
	if stats := registry.Stats(); stats[0].CredentialsTotal != 0 {
		t.Fatalf("expected emptied pool after missing snapshot, got %+v", stats[0])
	}
}
