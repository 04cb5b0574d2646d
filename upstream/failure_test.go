package upstream

import (
	"net/http"
	"testing"
	"time"

	"github.com/goliatone/go-relay/core"
)

func TestClassifyStatusAuthFailuresAreDead(t *testing.T) {
	scope := core.DisallowScope{ProviderID: "claude", CredentialID: "cred-1"}
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		mark := ClassifyStatus(status, http.Header{}, scope)
		if mark == nil {
			t.Fatalf("expected mark for status %d", status)
		}
		if mark.Level != core.DisallowDead {
			t.Fatalf("expected dead level for status %d, got %s", status, mark.Level)
		}
		if mark.Duration != 0 {
			t.Fatalf("dead marks must not expire")
		}
	}
}

func TestClassifyStatusRateLimitHonorsRetryAfter(t *testing.T) {
	scope := core.DisallowScope{CredentialID: "cred-1"}

	header := http.Header{}
	header.Set("Retry-After", "120")
	mark := ClassifyStatus(http.StatusTooManyRequests, header, scope)
	if mark == nil || mark.Level != core.DisallowCooldown {
		t.Fatalf("expected cooldown mark, got %+v", mark)
	}
	if mark.Duration != 120*time.Second {
		t.Fatalf("expected 120s cooldown, got %s", mark.Duration)
	}

	mark = ClassifyStatus(http.StatusTooManyRequests, http.Header{}, scope)
	if mark.Duration != defaultCooldown {
		t.Fatalf("expected default cooldown without header, got %s", mark.Duration)
	}
}

func TestClassifyStatusRetryAfterHTTPDate(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", time.Now().UTC().Add(90*time.Second).Format(http.TimeFormat))
	mark := ClassifyStatus(http.StatusTooManyRequests, header, core.DisallowScope{CredentialID: "c"})
	if mark.Duration < 80*time.Second || mark.Duration > 90*time.Second {
		t.Fatalf("expected roughly 90s cooldown, got %s", mark.Duration)
	}

	header.Set("Retry-After", time.Now().UTC().Add(-time.Minute).Format(http.TimeFormat))
	mark = ClassifyStatus(http.StatusTooManyRequests, header, core.DisallowScope{CredentialID: "c"})
	if mark.Duration != defaultCooldown {
		t.Fatalf("expected default cooldown for past date, got %s", mark.Duration)
	}
}

func TestClassifyStatusUpstreamOutagesAreTransient(t *testing.T) {
	for _, status := range []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout} {
		mark := ClassifyStatus(status, http.Header{}, core.DisallowScope{CredentialID: "c"})
		if mark == nil || mark.Level != core.DisallowTransient {
			t.Fatalf("expected transient mark for status %d", status)
		}
		if mark.Duration != transientHold {
			t.Fatalf("expected %s hold, got %s", transientHold, mark.Duration)
		}
	}
}

func TestClassifyStatusRequestErrorsAreNotMarked(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusInternalServerError} {
		if mark := ClassifyStatus(status, http.Header{}, core.DisallowScope{CredentialID: "c"}); mark != nil {
			t.Fatalf("expected no mark for status %d, got %+v", status, mark)
		}
	}
}

func TestNetworkFailure(t *testing.T) {
	mark := NetworkFailure(core.DisallowScope{ProviderID: "openai", CredentialID: "c"})
	if mark.Level != core.DisallowTransient {
		t.Fatalf("expected transient level")
	}
	if mark.Reason != reasonNetwork {
		t.Fatalf("expected network reason, got %q", mark.Reason)
	}
}
