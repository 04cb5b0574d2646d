package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type providerRecord struct {
	bun.BaseModel `bun:"table:relay_providers,alias:rp"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull,unique"`
	Enabled   bool      `bun:"enabled,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type credentialRecord struct {
	bun.BaseModel `bun:"table:relay_credentials,alias:rc"`

	ID         string    `bun:"id,pk"`
	ProviderID string    `bun:"provider_id,notnull"`
	Label      string    `bun:"label"`
	Secret     string    `bun:"secret,notnull"`
	Weight     int       `bun:"weight,notnull"`
	Models     []string  `bun:"models,type:jsonb"`
	Enabled    bool      `bun:"enabled,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type disallowRecord struct {
	bun.BaseModel `bun:"table:relay_disallow_records,alias:rd"`

	ID           string     `bun:"id,pk"`
	ProviderID   string     `bun:"provider_id"`
	CredentialID string     `bun:"credential_id"`
	Model        string     `bun:"model"`
	Level        string     `bun:"level,notnull"`
	Reason       string     `bun:"reason"`
	ExpiresAt    *time.Time `bun:"expires_at,nullzero"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type userRecord struct {
	bun.BaseModel `bun:"table:relay_users,alias:ru"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type apiKeyRecord struct {
	bun.BaseModel `bun:"table:relay_api_keys,alias:rk"`

	ID         string     `bun:"id,pk"`
	UserID     string     `bun:"user_id,notnull"`
	Key        string     `bun:"key,notnull,unique"`
	Label      string     `bun:"label"`
	Enabled    bool       `bun:"enabled,notnull"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	LastUsedAt *time.Time `bun:"last_used_at,nullzero"`
}

// globalConfigRecord is a single-row table; Load and Save always target id 1.
type globalConfigRecord struct {
	bun.BaseModel `bun:"table:relay_global_config,alias:rg"`

	ID        int       `bun:"id,pk"`
	Config    string    `bun:"config,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// trafficRecord flattens the per-family token totals into columns so usage
// aggregation stays a plain GROUP BY; the full usage block rides along as JSON.
type trafficRecord struct {
	bun.BaseModel `bun:"table:relay_traffic,alias:rt"`

	ID        string `bun:"id,pk"`
	Direction string `bun:"direction,notnull"`
	Provider  string `bun:"provider"`
	Operation string `bun:"operation"`
	Model     string `bun:"model"`
	RequestID string `bun:"request_id"`

	UserID       string `bun:"user_id"`
	KeyID        string `bun:"key_id"`
	CredentialID string `bun:"credential_id"`

	RequestMethod   string `bun:"request_method"`
	RequestPath     string `bun:"request_path"`
	RequestQuery    string `bun:"request_query"`
	RequestHeaders  string `bun:"request_headers"`
	RequestBody     string `bun:"request_body"`
	ResponseStatus  int    `bun:"response_status"`
	ResponseHeaders string `bun:"response_headers"`
	ResponseBody    string `bun:"response_body"`

	Usage                string `bun:"usage,type:jsonb"`
	ClaudeTotalTokens    int64  `bun:"claude_total_tokens,notnull,default:0"`
	GeminiTotalTokens    int64  `bun:"gemini_total_tokens,notnull,default:0"`
	OpenAITotalTokens    int64  `bun:"openai_total_tokens,notnull,default:0"`
	ResponsesTotalTokens int64  `bun:"responses_total_tokens,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
