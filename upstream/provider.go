package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-relay/core"
	"github.com/goliatone/go-relay/pool"
	"github.com/goliatone/go-relay/protocol"
)

// CallContext carries the downstream identity a dispatch runs on behalf of.
type CallContext struct {
	RequestID string
	UserID    string
	KeyID     string
}

// Provider dispatches classified requests against one upstream, rotating
// through its credential pool on credential-shaped failures.
type Provider struct {
	def         Definition
	pool        *pool.CredentialPool
	caller      *Caller
	maxAttempts int
	traffic     core.TrafficRecorder
	logger      core.Logger
}

func NewProvider(def Definition, credentials *pool.CredentialPool, caller *Caller, traffic core.TrafficRecorder, maxAttempts int, logger core.Logger) *Provider {
	if traffic == nil {
		traffic = core.NopTrafficRecorder{}
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	logger = glog.Ensure(logger)
	return &Provider{
		def:         def,
		pool:        credentials,
		caller:      caller,
		maxAttempts: maxAttempts,
		traffic:     traffic,
		logger:      logger,
	}
}

func (p *Provider) Name() string {
	if p == nil {
		return ""
	}
	return p.def.Name
}

func (p *Provider) Family() core.ProtocolFamily {
	if p == nil {
		return ""
	}
	return p.def.Family
}

func (p *Provider) Pool() *pool.CredentialPool {
	if p == nil {
		return nil
	}
	return p.pool
}

func (p *Provider) Stats() core.ProviderStats {
	if p == nil {
		return core.ProviderStats{}
	}
	stats := p.pool.Stats()
	stats.Name = p.def.Name
	return stats
}

// Call runs the request against the upstream, rotating credentials on
// failures that implicate the credential. It returns the upstream response
// or a PassthroughError carrying the terminal upstream envelope.
func (p *Provider) Call(ctx context.Context, req protocol.Request, call CallContext) (*Response, error) {
	if p == nil || p.pool == nil || p.caller == nil {
		return nil, ServiceUnavailable("provider is not configured")
	}

	exclude := map[string]struct{}{}
	var lastErr *PassthroughError

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		entry, err := p.pool.Acquire(req.Model, exclude)
		if err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}
		scope := core.DisallowScope{ProviderID: p.def.Name, CredentialID: entry.ID}

		httpResp, err := p.caller.Do(ctx, p.def, req, entry.Secret)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("upstream request failed",
				"provider", p.def.Name, "credential", entry.ID, "error", err)
			p.pool.MarkFailure(NetworkFailure(scope))
			p.recordUpstream(req, call, entry.ID, 0, nil, err.Error(), core.Usage{})
			exclude[entry.ID] = struct{}{}
			lastErr = ServiceUnavailable("upstream request failed")
			continue
		}

		if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
			p.pool.MarkSuccess(entry.ID, req.Model)
			return p.succeed(req, call, entry.ID, httpResp)
		}

		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
		httpResp.Body.Close()
		p.recordUpstream(req, call, entry.ID, httpResp.StatusCode, httpResp.Header, string(body), core.Usage{})

		lastErr = &PassthroughError{
			Status: httpResp.StatusCode,
			Header: httpResp.Header,
			Body:   body,
		}
		mark := ClassifyStatus(httpResp.StatusCode, httpResp.Header, scope)
		if mark == nil {
			// Request-shaped failure; another credential would fail the
			// same way, so hand the envelope straight back.
			return nil, lastErr
		}
		p.logger.Info("credential disallowed",
			"provider", p.def.Name, "credential", entry.ID,
			"status", httpResp.StatusCode, "level", string(mark.Level))
		p.pool.MarkFailure(*mark)
		exclude[entry.ID] = struct{}{}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ServiceUnavailable("no upstream attempt succeeded")
}

func (p *Provider) succeed(req protocol.Request, call CallContext, credentialID string, httpResp *http.Response) (*Response, error) {
	if req.Stream {
		stream := newRecordingStream(httpResp.Body, req.Usage, func(body string, usage core.Usage) {
			p.recordUpstream(req, call, credentialID, httpResp.StatusCode, httpResp.Header, body, usage)
		})
		return &Response{
			Status: httpResp.StatusCode,
			Header: httpResp.Header,
			Stream: stream,
		}, nil
	}

	body, err := io.ReadAll(httpResp.Body)
	httpResp.Body.Close()
	if err != nil {
		return nil, ServiceUnavailable("upstream body read failed")
	}
	usage := protocol.ExtractUsage(req.Usage, body)
	p.recordUpstream(req, call, credentialID, httpResp.StatusCode, httpResp.Header, string(body), usage)
	return &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   body,
	}, nil
}

func (p *Provider) recordUpstream(req protocol.Request, call CallContext, credentialID string, status int, header http.Header, body string, usage core.Usage) {
	p.traffic.Record(core.TrafficEvent{
		Direction:       core.TrafficUpstream,
		Provider:        p.def.Name,
		Operation:       req.Operation,
		Model:           req.Model,
		RequestID:       call.RequestID,
		UserID:          call.UserID,
		KeyID:           call.KeyID,
		CredentialID:    credentialID,
		RequestMethod:   req.Method,
		RequestPath:     req.Path,
		RequestQuery:    req.Query,
		RequestBody:     string(req.Body),
		ResponseStatus:  status,
		ResponseHeaders: headerJSON(header),
		ResponseBody:    body,
		Usage:           usage,
		CreatedAt:       time.Now().UTC(),
	})
}

func headerJSON(header http.Header) string {
	if len(header) == 0 {
		return ""
	}
	encoded, err := json.Marshal(header)
	if err != nil {
		return ""
	}
	return string(encoded)
}
