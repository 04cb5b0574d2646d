package upstream

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-relay/core"
)

// AuthStyle selects how a credential secret rides on the upstream request.
type AuthStyle string

const (
	AuthAPIKeyHeader AuthStyle = "x-api-key"
	AuthBearer       AuthStyle = "bearer"
	AuthGoogleHeader AuthStyle = "x-goog-api-key"
)

// Definition binds a provider name to its upstream endpoint and protocol.
type Definition struct {
	Name    string
	Family  core.ProtocolFamily
	BaseURL string
	Auth    AuthStyle
}

func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("upstream: definition name is required")
	}
	if err := d.Family.Validate(); err != nil {
		return err
	}
	if !strings.HasPrefix(d.BaseURL, "http://") && !strings.HasPrefix(d.BaseURL, "https://") {
		return fmt.Errorf("upstream: definition %q base url %q is not absolute", d.Name, d.BaseURL)
	}
	return nil
}

// BuiltinDefinitions lists the upstreams the relay knows out of the box.
// Provider rows in storage attach credentials to these by name.
func BuiltinDefinitions() []Definition {
	return []Definition{
		{Name: "claude", Family: core.FamilyClaude, BaseURL: "https://api.anthropic.com", Auth: AuthAPIKeyHeader},
		{Name: "openai", Family: core.FamilyOpenAI, BaseURL: "https://api.openai.com", Auth: AuthBearer},
		{Name: "aistudio", Family: core.FamilyGemini, BaseURL: "https://generativelanguage.googleapis.com", Auth: AuthGoogleHeader},
		{Name: "deepseek", Family: core.FamilyOpenAI, BaseURL: "https://api.deepseek.com", Auth: AuthBearer},
		{Name: "nvidia", Family: core.FamilyOpenAI, BaseURL: "https://integrate.api.nvidia.com", Auth: AuthBearer},
	}
}
