package upstream

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-relay/core"
)

const (
	transientHold    = 30 * time.Second
	defaultCooldown  = 60 * time.Second
	reasonAuthError  = "auth_error"
	reasonRateLimit  = "rate_limit"
	reasonUpstream   = "upstream_unavailable"
	reasonNetwork    = "network_error"
)

// ClassifyStatus maps an upstream response status onto a disallow mark for
// the scope, or nil when the failure says nothing about the credential.
func ClassifyStatus(status int, header http.Header, scope core.DisallowScope) *core.DisallowMark {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &core.DisallowMark{
			Scope:  scope,
			Level:  core.DisallowDead,
			Reason: reasonAuthError,
		}
	case http.StatusTooManyRequests:
		return &core.DisallowMark{
			Scope:    scope,
			Level:    core.DisallowCooldown,
			Duration: retryAfter(header),
			Reason:   reasonRateLimit,
		}
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &core.DisallowMark{
			Scope:    scope,
			Level:    core.DisallowTransient,
			Duration: transientHold,
			Reason:   reasonUpstream,
		}
	}
	return nil
}

// NetworkFailure marks a credential transiently after a transport error.
func NetworkFailure(scope core.DisallowScope) core.DisallowMark {
	return core.DisallowMark{
		Scope:    scope,
		Level:    core.DisallowTransient,
		Duration: transientHold,
		Reason:   reasonNetwork,
	}
}

// retryAfter honors both delta-seconds and HTTP-date forms of Retry-After.
func retryAfter(header http.Header) time.Duration {
	value := strings.TrimSpace(header.Get("Retry-After"))
	if value == "" {
		return defaultCooldown
	}
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if wait := time.Until(when); wait > 0 {
			return wait
		}
		return defaultCooldown
	}
	return defaultCooldown
}
