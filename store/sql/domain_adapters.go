package sqlstore

import (
	"encoding/json"
	"time"

	"github.com/goliatone/go-relay/core"
)

func newProviderRecord(in core.Provider, now time.Time) *providerRecord {
	return &providerRecord{
		ID:        in.ID,
		Name:      in.Name,
		Enabled:   in.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *providerRecord) toDomain() core.Provider {
	if r == nil {
		return core.Provider{}
	}
	return core.Provider{
		ID:        r.ID,
		Name:      r.Name,
		Enabled:   r.Enabled,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func newCredentialRecord(in core.Credential, now time.Time) *credentialRecord {
	return &credentialRecord{
		ID:         in.ID,
		ProviderID: in.ProviderID,
		Label:      in.Label,
		Secret:     in.Secret,
		Weight:     in.Weight,
		Models:     append([]string(nil), in.Models...),
		Enabled:    in.Enabled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (r *credentialRecord) toDomain() core.Credential {
	if r == nil {
		return core.Credential{}
	}
	return core.Credential{
		ID:         r.ID,
		ProviderID: r.ProviderID,
		Label:      r.Label,
		Secret:     r.Secret,
		Weight:     r.Weight,
		Models:     append([]string(nil), r.Models...),
		Enabled:    r.Enabled,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func newDisallowRecord(in core.DisallowRecord) *disallowRecord {
	record := &disallowRecord{
		ID:           in.ID,
		ProviderID:   in.Scope.ProviderID,
		CredentialID: in.Scope.CredentialID,
		Model:        in.Scope.Model,
		Level:        string(in.Level),
		Reason:       in.Reason,
		CreatedAt:    in.CreatedAt,
	}
	if in.ExpiresAt != nil {
		expires := *in.ExpiresAt
		record.ExpiresAt = &expires
	}
	return record
}

func (r *disallowRecord) toDomain() core.DisallowRecord {
	if r == nil {
		return core.DisallowRecord{}
	}
	record := core.DisallowRecord{
		ID: r.ID,
		Scope: core.DisallowScope{
			ProviderID:   r.ProviderID,
			CredentialID: r.CredentialID,
			Model:        r.Model,
		},
		Level:     core.DisallowLevel(r.Level),
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt,
	}
	if r.ExpiresAt != nil {
		expires := *r.ExpiresAt
		record.ExpiresAt = &expires
	}
	return record
}

func newUserRecord(in core.User, now time.Time) *userRecord {
	return &userRecord{
		ID:        in.ID,
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *userRecord) toDomain() core.User {
	if r == nil {
		return core.User{}
	}
	return core.User{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func newAPIKeyRecord(in core.APIKey, now time.Time) *apiKeyRecord {
	record := &apiKeyRecord{
		ID:        in.ID,
		UserID:    in.UserID,
		Key:       in.Key,
		Label:     in.Label,
		Enabled:   in.Enabled,
		CreatedAt: now,
	}
	if in.LastUsedAt != nil {
		lastUsed := *in.LastUsedAt
		record.LastUsedAt = &lastUsed
	}
	return record
}

func (r *apiKeyRecord) toDomain() core.APIKey {
	if r == nil {
		return core.APIKey{}
	}
	key := core.APIKey{
		ID:        r.ID,
		UserID:    r.UserID,
		Key:       r.Key,
		Label:     r.Label,
		Enabled:   r.Enabled,
		CreatedAt: r.CreatedAt,
	}
	if r.LastUsedAt != nil {
		lastUsed := *r.LastUsedAt
		key.LastUsedAt = &lastUsed
	}
	return key
}

func newTrafficRecord(id string, event core.TrafficEvent) (*trafficRecord, error) {
	usageJSON, err := json.Marshal(event.Usage)
	if err != nil {
		return nil, err
	}
	record := &trafficRecord{
		ID:              id,
		Direction:       string(event.Direction),
		Provider:        event.Provider,
		Operation:       event.Operation,
		Model:           event.Model,
		RequestID:       event.RequestID,
		UserID:          event.UserID,
		KeyID:           event.KeyID,
		CredentialID:    event.CredentialID,
		RequestMethod:   event.RequestMethod,
		RequestPath:     event.RequestPath,
		RequestQuery:    event.RequestQuery,
		RequestHeaders:  event.RequestHeaders,
		RequestBody:     event.RequestBody,
		ResponseStatus:  event.ResponseStatus,
		ResponseHeaders: event.ResponseHeaders,
		ResponseBody:    event.ResponseBody,
		Usage:           string(usageJSON),
		CreatedAt:       event.CreatedAt,
	}
	if event.Usage.ClaudeTotalTokens != nil {
		record.ClaudeTotalTokens = *event.Usage.ClaudeTotalTokens
	}
	if event.Usage.GeminiTotalTokens != nil {
		record.GeminiTotalTokens = *event.Usage.GeminiTotalTokens
	}
	if event.Usage.OpenAIChatTotalTokens != nil {
		record.OpenAITotalTokens = *event.Usage.OpenAIChatTotalTokens
	}
	if event.Usage.OpenAIResponsesTotalTokens != nil {
		record.ResponsesTotalTokens = *event.Usage.OpenAIResponsesTotalTokens
	}
	return record, nil
}
