package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-relay/core"
	"github.com/goliatone/go-relay/protocol"
	"github.com/goliatone/go-relay/upstream"
	"github.com/google/uuid"
)

const maxRequestBodyBytes int64 = 32 << 20 // 32 MiB

// ProxyHandler serves the relay path: /{provider}/{upstream path...}.
type ProxyHandler struct {
	auth     *MemoryAuth
	registry *upstream.Registry
	traffic  core.TrafficRecorder
	keys     core.APIKeyStore
	logger   core.Logger
}

func NewProxyHandler(auth *MemoryAuth, registry *upstream.Registry, traffic core.TrafficRecorder, keys core.APIKeyStore, logger core.Logger) *ProxyHandler {
	if traffic == nil {
		traffic = core.NopTrafficRecorder{}
	}
	return &ProxyHandler{
		auth:     auth,
		registry: registry,
		traffic:  traffic,
		keys:     keys,
		logger:   glog.Ensure(logger),
	}
}

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.auth.Lookup(clientKey(r))
	if !ok {
		writeRelayError(w, goerrors.New("gateway: invalid or missing api key", goerrors.CategoryAuth).
			WithTextCode(core.RelayErrorUnauthorized))
		return
	}
	if h.keys != nil {
		// Best effort; auth already passed. Detached from the request
		// context so client disconnects do not lose the touch.
		go h.keys.TouchLastUsed(context.Background(), identity.KeyID, time.Now().UTC()) //nolint:errcheck
	}

	providerName, upstreamPath, ok := splitProxyPath(r.URL.Path)
	if !ok {
		writeRelayError(w, goerrors.New("gateway: request path must be /{provider}/{path}", goerrors.CategoryBadInput).
			WithTextCode(core.RelayErrorBadInput))
		return
	}
	provider, ok := h.registry.Get(providerName)
	if !ok {
		writeRelayError(w, goerrors.New(fmt.Sprintf("gateway: provider not found: %s", providerName), goerrors.CategoryNotFound).
			WithTextCode(core.RelayErrorProviderNotFound))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		writeRelayError(w, goerrors.Wrap(err, goerrors.CategoryBadInput, "gateway: reading request body").
			WithTextCode(core.RelayErrorBadInput))
		return
	}

	req, err := protocol.Classify(provider.Family(), r.Method, upstreamPath, r.URL.RawQuery, body)
	if err != nil {
		var unsupported protocol.ErrUnsupportedPath
		if errors.As(err, &unsupported) {
			writeRelayError(w, goerrors.New(err.Error(), goerrors.CategoryNotFound).
				WithTextCode(core.RelayErrorBadInput))
			return
		}
		writeRelayError(w, core.RelayErrorMapper(err))
		return
	}

	call := upstream.CallContext{
		RequestID: uuid.NewString(),
		UserID:    identity.UserID,
		KeyID:     identity.KeyID,
	}
	resp, err := provider.Call(r.Context(), req, call)
	if err != nil {
		h.respondError(w, r, provider.Name(), req, call, err)
		return
	}
	if resp.IsStream() {
		h.relayStream(w, r, provider.Name(), req, call, resp)
		return
	}

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.Status)
	w.Write(resp.Body) //nolint:errcheck

	h.recordDownstream(r, provider.Name(), req, call, resp.Status, string(resp.Body))
}

func (h *ProxyHandler) respondError(w http.ResponseWriter, r *http.Request, providerName string, req protocol.Request, call upstream.CallContext, err error) {
	var passthrough *upstream.PassthroughError
	if errors.As(err, &passthrough) {
		copyHeader(w.Header(), passthrough.Header)
		w.WriteHeader(passthrough.Status)
		w.Write(passthrough.Body) //nolint:errcheck
		h.recordDownstream(r, providerName, req, call, passthrough.Status, string(passthrough.Body))
		return
	}

	rich := core.RelayErrorMapper(err)
	writeRelayError(w, rich)
	h.recordDownstream(r, providerName, req, call, rich.Code, rich.Message)
}

func (h *ProxyHandler) relayStream(w http.ResponseWriter, r *http.Request, providerName string, req protocol.Request, call upstream.CallContext, resp *upstream.Response) {
	defer resp.Stream.Close()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.Status)

	controller := http.NewResponseController(w)
	buf := make([]byte, 32<<10)
	for {
		n, err := resp.Stream.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				break
			}
			controller.Flush() //nolint:errcheck
		}
		if err != nil {
			if err != io.EOF {
				h.logger.Warn("stream relay interrupted",
					"provider", providerName, "request_id", call.RequestID, "error", err)
			}
			break
		}
	}

	h.recordDownstream(r, providerName, req, call, resp.Status, "")
}

func (h *ProxyHandler) recordDownstream(r *http.Request, providerName string, req protocol.Request, call upstream.CallContext, status int, body string) {
	h.traffic.Record(core.TrafficEvent{
		Direction:      core.TrafficDownstream,
		Provider:       providerName,
		Operation:      req.Operation,
		Model:          req.Model,
		RequestID:      call.RequestID,
		UserID:         call.UserID,
		KeyID:          call.KeyID,
		RequestMethod:  r.Method,
		RequestPath:    req.Path,
		RequestQuery:   req.Query,
		RequestBody:    string(req.Body),
		ResponseStatus: status,
		ResponseBody:   body,
		CreatedAt:      time.Now().UTC(),
	})
}

func splitProxyPath(path string) (provider string, rest string, ok bool) {
	path = strings.TrimPrefix(path, "/")
	provider, rest, found := strings.Cut(path, "/")
	if !found || strings.TrimSpace(provider) == "" || strings.TrimSpace(rest) == "" {
		return "", "", false
	}
	return provider, rest, true
}

func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

func writeRelayError(w http.ResponseWriter, err *goerrors.Error) {
	rich := core.RelayErrorMapper(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rich.Code)
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"error": map[string]any{
			"code":    rich.TextCode,
			"message": rich.Message,
		},
	})
}
