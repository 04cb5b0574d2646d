package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDisallowLevel  = errors.New("core: invalid disallow level")
	ErrInvalidDisallowScope  = errors.New("core: invalid disallow scope")
	ErrProviderNotFound      = errors.New("core: provider not found")
	ErrCredentialNotFound    = errors.New("core: credential not found")
	ErrUserNotFound          = errors.New("core: user not found")
	ErrAPIKeyNotFound        = errors.New("core: api key not found")
	ErrNoCredentialAvailable = errors.New("core: no credential available")
)

// ProtocolFamily identifies the native wire protocol an upstream speaks.
type ProtocolFamily string

const (
	FamilyClaude ProtocolFamily = "claude"
	FamilyGemini ProtocolFamily = "gemini"
	FamilyOpenAI ProtocolFamily = "openai"
)

func (f ProtocolFamily) Validate() error {
	switch f {
	case FamilyClaude, FamilyGemini, FamilyOpenAI:
		return nil
	}
	return fmt.Errorf("core: invalid protocol family %q", string(f))
}

// Provider is a configured upstream target. Name binds the row to a
// registered upstream definition; credentials attach by ProviderID.
type Provider struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Provider) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("core: provider name is required")
	}
	return nil
}

// Credential is a single upstream secret with a selection weight. An empty
// Models list means the credential serves any model.
type Credential struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id"`
	Label      string    `json:"label"`
	Secret     string    `json:"secret"`
	Weight     int       `json:"weight"`
	Models     []string  `json:"models,omitempty"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c Credential) Validate() error {
	if strings.TrimSpace(c.ProviderID) == "" {
		return fmt.Errorf("core: credential provider id is required")
	}
	if strings.TrimSpace(c.Secret) == "" {
		return fmt.Errorf("core: credential secret is required")
	}
	return nil
}

// EffectiveWeight normalizes non-positive weights so every enabled credential
// keeps a non-zero chance of selection.
func (c Credential) EffectiveWeight() int {
	if c.Weight <= 0 {
		return 1
	}
	return c.Weight
}

// ServesModel reports whether the credential may serve the given model.
func (c Credential) ServesModel(model string) bool {
	if len(c.Models) == 0 {
		return true
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return true
	}
	for _, allowed := range c.Models {
		if strings.EqualFold(strings.TrimSpace(allowed), model) {
			return true
		}
	}
	return false
}

// DisallowLevel orders the severity of a disallow mark.
type DisallowLevel string

const (
	// DisallowTransient covers short upstream hiccups (5xx, network errors).
	DisallowTransient DisallowLevel = "transient"
	// DisallowCooldown covers rate limiting with a retry window.
	DisallowCooldown DisallowLevel = "cooldown"
	// DisallowDead covers auth failures; entries never expire on their own.
	DisallowDead DisallowLevel = "dead"
)

func (l DisallowLevel) Validate() error {
	switch l {
	case DisallowTransient, DisallowCooldown, DisallowDead:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidDisallowLevel, string(l))
}

// DisallowScope narrows what a disallow record covers. CredentialID empty
// means the whole provider; Model empty means every model for the target.
type DisallowScope struct {
	ProviderID   string `json:"provider_id,omitempty"`
	CredentialID string `json:"credential_id,omitempty"`
	Model        string `json:"model,omitempty"`
}

func (s DisallowScope) Validate() error {
	if strings.TrimSpace(s.ProviderID) == "" && strings.TrimSpace(s.CredentialID) == "" {
		return fmt.Errorf("%w: provider or credential target is required", ErrInvalidDisallowScope)
	}
	return nil
}

// Covers reports whether this scope applies to a (credential, model) pair.
func (s DisallowScope) Covers(credentialID, model string) bool {
	if s.CredentialID != "" && s.CredentialID != credentialID {
		return false
	}
	if s.Model != "" && !strings.EqualFold(s.Model, strings.TrimSpace(model)) {
		return false
	}
	return true
}

// DisallowRecord is a persisted disallow mark.
type DisallowRecord struct {
	ID        string        `json:"id"`
	Scope     DisallowScope `json:"scope"`
	Level     DisallowLevel `json:"level"`
	Reason    string        `json:"reason,omitempty"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func (r DisallowRecord) Validate() error {
	if err := r.Scope.Validate(); err != nil {
		return err
	}
	return r.Level.Validate()
}

// Expired reports whether the record no longer applies at the given instant.
// Dead records only leave through explicit deletion.
func (r DisallowRecord) Expired(now time.Time) bool {
	if r.Level == DisallowDead {
		return false
	}
	if r.ExpiresAt == nil {
		return false
	}
	return !now.Before(*r.ExpiresAt)
}

// DisallowMark is the in-flight form of a disallow decision, produced by
// upstream failure classification before it becomes a record.
type DisallowMark struct {
	Scope    DisallowScope
	Level    DisallowLevel
	Duration time.Duration
	Reason   string
}

// Record materializes the mark at the given instant.
func (m DisallowMark) Record(id string, now time.Time) DisallowRecord {
	record := DisallowRecord{
		ID:        id,
		Scope:     m.Scope,
		Level:     m.Level,
		Reason:    m.Reason,
		CreatedAt: now,
	}
	if m.Duration > 0 && m.Level != DisallowDead {
		expires := now.Add(m.Duration)
		record.ExpiresAt = &expires
	}
	return record
}

// User owns api keys. The admin user is seeded at boot.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// APIKey authenticates a downstream caller as a user.
type APIKey struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Key        string     `json:"key"`
	Label      string     `json:"label"`
	Enabled    bool       `json:"enabled"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

func (k APIKey) Validate() error {
	if strings.TrimSpace(k.UserID) == "" {
		return fmt.Errorf("core: api key user id is required")
	}
	if strings.TrimSpace(k.Key) == "" {
		return fmt.Errorf("core: api key value is required")
	}
	return nil
}

// GlobalConfig is the persisted runtime configuration, stored as a single
// JSON row and reapplied over file/flag configuration at boot.
type GlobalConfig struct {
	Host     string `json:"host" koanf:"host"`
	Port     int    `json:"port" koanf:"port"`
	AdminKey string `json:"admin_key" koanf:"admin_key"`
	DSN      string `json:"dsn" koanf:"dsn"`
	Proxy    string `json:"proxy,omitempty" koanf:"proxy"`
}

func (c GlobalConfig) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("core: host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("core: port %d out of range", c.Port)
	}
	if strings.TrimSpace(c.AdminKey) == "" {
		return fmt.Errorf("core: admin_key is required")
	}
	return nil
}

// StatsReport is the admin stats payload: live pool counters plus the
// usage totals aggregated from recorded traffic.
type StatsReport struct {
	Providers      []ProviderStats `json:"providers"`
	Usage          []UsageTotals   `json:"usage"`
	AuthKeys       int             `json:"auth_keys"`
	TrafficDropped int64           `json:"traffic_dropped"`
}

// ProviderStats summarizes one provider pool for the stats endpoint.
type ProviderStats struct {
	Name               string `json:"name"`
	CredentialsTotal   int    `json:"credentials_total"`
	CredentialsEnabled int    `json:"credentials_enabled"`
	Disallowed         int    `json:"disallowed"`
}

// Usage carries the token counters a single upstream exchange produced.
// Only the family that served the request populates its block.
type Usage struct {
	ClaudeInputTokens              *int64 `json:"claude_input_tokens,omitempty"`
	ClaudeOutputTokens             *int64 `json:"claude_output_tokens,omitempty"`
	ClaudeTotalTokens              *int64 `json:"claude_total_tokens,omitempty"`
	ClaudeCacheCreationInputTokens *int64 `json:"claude_cache_creation_input_tokens,omitempty"`
	ClaudeCacheReadInputTokens     *int64 `json:"claude_cache_read_input_tokens,omitempty"`

	GeminiPromptTokens     *int64 `json:"gemini_prompt_tokens,omitempty"`
	GeminiCandidatesTokens *int64 `json:"gemini_candidates_tokens,omitempty"`
	GeminiTotalTokens      *int64 `json:"gemini_total_tokens,omitempty"`
	GeminiCachedTokens     *int64 `json:"gemini_cached_tokens,omitempty"`

	OpenAIChatPromptTokens     *int64 `json:"openai_chat_prompt_tokens,omitempty"`
	OpenAIChatCompletionTokens *int64 `json:"openai_chat_completion_tokens,omitempty"`
	OpenAIChatTotalTokens      *int64 `json:"openai_chat_total_tokens,omitempty"`

	OpenAIResponsesInputTokens           *int64 `json:"openai_responses_input_tokens,omitempty"`
	OpenAIResponsesOutputTokens          *int64 `json:"openai_responses_output_tokens,omitempty"`
	OpenAIResponsesTotalTokens           *int64 `json:"openai_responses_total_tokens,omitempty"`
	OpenAIResponsesInputCachedTokens     *int64 `json:"openai_responses_input_cached_tokens,omitempty"`
	OpenAIResponsesOutputReasoningTokens *int64 `json:"openai_responses_output_reasoning_tokens,omitempty"`
}

// Empty reports whether no counter is populated.
func (u Usage) Empty() bool {
	return u == Usage{}
}

// TrafficDirection distinguishes the two recorded legs of an exchange.
type TrafficDirection string

const (
	TrafficDownstream TrafficDirection = "downstream"
	TrafficUpstream   TrafficDirection = "upstream"
)

// TrafficEvent is one recorded request/response envelope. Downstream events
// carry UserID/KeyID; upstream events carry CredentialID.
type TrafficEvent struct {
	Direction TrafficDirection
	Provider  string
	Operation string
	Model     string
	RequestID string

	UserID       string
	KeyID        string
	CredentialID string

	RequestMethod   string
	RequestPath     string
	RequestQuery    string
	RequestHeaders  string
	RequestBody     string
	ResponseStatus  int
	ResponseHeaders string
	ResponseBody    string

	Usage     Usage
	CreatedAt time.Time
}

// UsageTotals aggregates recorded upstream usage for the stats endpoint.
type UsageTotals struct {
	Provider  string `json:"provider"`
	Requests  int64  `json:"requests"`
	Claude    int64  `json:"claude_total_tokens"`
	Gemini    int64  `json:"gemini_total_tokens"`
	OpenAI    int64  `json:"openai_total_tokens"`
	Responses int64  `json:"openai_responses_total_tokens"`
}
