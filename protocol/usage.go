package protocol

import (
	"encoding/json"

	"github.com/goliatone/go-relay/core"
)

type claudeUsage struct {
	InputTokens              *int64 `json:"input_tokens"`
	OutputTokens             *int64 `json:"output_tokens"`
	CacheCreationInputTokens *int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     *int64 `json:"cache_read_input_tokens"`
}

type claudeResponseProbe struct {
	Usage *claudeUsage `json:"usage"`
}

type geminiUsageMetadata struct {
	PromptTokenCount        *int64 `json:"promptTokenCount"`
	CandidatesTokenCount    *int64 `json:"candidatesTokenCount"`
	TotalTokenCount         *int64 `json:"totalTokenCount"`
	CachedContentTokenCount *int64 `json:"cachedContentTokenCount"`
}

type geminiResponseProbe struct {
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata"`
}

type openAIChatUsage struct {
	PromptTokens     *int64 `json:"prompt_tokens"`
	CompletionTokens *int64 `json:"completion_tokens"`
	TotalTokens      *int64 `json:"total_tokens"`
}

type openAIChatProbe struct {
	Usage *openAIChatUsage `json:"usage"`
}

type openAIResponsesUsage struct {
	InputTokens        *int64 `json:"input_tokens"`
	OutputTokens       *int64 `json:"output_tokens"`
	TotalTokens        *int64 `json:"total_tokens"`
	InputTokenDetails  *struct {
		CachedTokens *int64 `json:"cached_tokens"`
	} `json:"input_tokens_details"`
	OutputTokenDetails *struct {
		ReasoningTokens *int64 `json:"reasoning_tokens"`
	} `json:"output_tokens_details"`
}

type openAIResponsesProbe struct {
	Usage *openAIResponsesUsage `json:"usage"`
}

// ExtractUsage pulls the token counters for the given kind out of a complete
// JSON response body. Bodies without a usage block yield an empty Usage.
func ExtractUsage(kind UsageKind, body []byte) core.Usage {
	if len(body) == 0 {
		return core.Usage{}
	}
	switch kind {
	case UsageClaudeMessage:
		var probe claudeResponseProbe
		if err := json.Unmarshal(body, &probe); err != nil || probe.Usage == nil {
			return core.Usage{}
		}
		return claudeToUsage(*probe.Usage)
	case UsageGeminiGenerate:
		var probe geminiResponseProbe
		if err := json.Unmarshal(body, &probe); err != nil || probe.UsageMetadata == nil {
			return core.Usage{}
		}
		return geminiToUsage(*probe.UsageMetadata)
	case UsageOpenAIChat:
		var probe openAIChatProbe
		if err := json.Unmarshal(body, &probe); err != nil || probe.Usage == nil {
			return core.Usage{}
		}
		return openAIChatToUsage(*probe.Usage)
	case UsageOpenAIResponses:
		var probe openAIResponsesProbe
		if err := json.Unmarshal(body, &probe); err != nil || probe.Usage == nil {
			return core.Usage{}
		}
		return openAIResponsesToUsage(*probe.Usage)
	}
	return core.Usage{}
}

func claudeToUsage(u claudeUsage) core.Usage {
	out := core.Usage{
		ClaudeInputTokens:              u.InputTokens,
		ClaudeOutputTokens:             u.OutputTokens,
		ClaudeCacheCreationInputTokens: u.CacheCreationInputTokens,
		ClaudeCacheReadInputTokens:     u.CacheReadInputTokens,
	}
	if u.InputTokens != nil && u.OutputTokens != nil {
		total := *u.InputTokens + *u.OutputTokens
		out.ClaudeTotalTokens = &total
	}
	return out
}

func geminiToUsage(u geminiUsageMetadata) core.Usage {
	return core.Usage{
		GeminiPromptTokens:     u.PromptTokenCount,
		GeminiCandidatesTokens: u.CandidatesTokenCount,
		GeminiTotalTokens:      u.TotalTokenCount,
		GeminiCachedTokens:     u.CachedContentTokenCount,
	}
}

func openAIChatToUsage(u openAIChatUsage) core.Usage {
	return core.Usage{
		OpenAIChatPromptTokens:     u.PromptTokens,
		OpenAIChatCompletionTokens: u.CompletionTokens,
		OpenAIChatTotalTokens:      u.TotalTokens,
	}
}

func openAIResponsesToUsage(u openAIResponsesUsage) core.Usage {
	out := core.Usage{
		OpenAIResponsesInputTokens:  u.InputTokens,
		OpenAIResponsesOutputTokens: u.OutputTokens,
		OpenAIResponsesTotalTokens:  u.TotalTokens,
	}
	if u.InputTokenDetails != nil {
		out.OpenAIResponsesInputCachedTokens = u.InputTokenDetails.CachedTokens
	}
	if u.OutputTokenDetails != nil {
		out.OpenAIResponsesOutputReasoningTokens = u.OutputTokenDetails.ReasoningTokens
	}
	return out
}

// UsageAccumulator folds streamed events into a single Usage. Claude spreads
// counters across message_start and message_delta; the other families repeat
// the full usage block and the last one wins.
type UsageAccumulator struct {
	kind UsageKind

	claudeInput         *int64
	claudeOutput        *int64
	claudeCacheCreation *int64
	claudeCacheRead     *int64

	last core.Usage
	seen bool
}

func NewUsageAccumulator(kind UsageKind) *UsageAccumulator {
	return &UsageAccumulator{kind: kind}
}

func (a *UsageAccumulator) PushEvent(data string) {
	if a == nil || a.kind == UsageNone || data == "" || data == "[DONE]" {
		return
	}
	switch a.kind {
	case UsageClaudeMessage:
		a.pushClaude(data)
	case UsageGeminiGenerate:
		var probe geminiResponseProbe
		if err := json.Unmarshal([]byte(data), &probe); err != nil || probe.UsageMetadata == nil {
			return
		}
		a.last = geminiToUsage(*probe.UsageMetadata)
		a.seen = true
	case UsageOpenAIChat:
		var probe openAIChatProbe
		if err := json.Unmarshal([]byte(data), &probe); err != nil || probe.Usage == nil {
			return
		}
		a.last = openAIChatToUsage(*probe.Usage)
		a.seen = true
	case UsageOpenAIResponses:
		var probe struct {
			Response *openAIResponsesProbe `json:"response"`
		}
		if err := json.Unmarshal([]byte(data), &probe); err != nil || probe.Response == nil || probe.Response.Usage == nil {
			return
		}
		a.last = openAIResponsesToUsage(*probe.Response.Usage)
		a.seen = true
	}
}

type claudeStreamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Usage *claudeUsage `json:"usage"`
	} `json:"message"`
	Usage *claudeUsage `json:"usage"`
}

func (a *UsageAccumulator) pushClaude(data string) {
	var event claudeStreamEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return
	}
	usage := event.Usage
	if event.Message != nil && event.Message.Usage != nil {
		usage = event.Message.Usage
	}
	if usage == nil {
		return
	}
	if usage.InputTokens != nil {
		a.claudeInput = usage.InputTokens
	}
	if usage.OutputTokens != nil {
		a.claudeOutput = usage.OutputTokens
	}
	if usage.CacheCreationInputTokens != nil {
		a.claudeCacheCreation = usage.CacheCreationInputTokens
	}
	if usage.CacheReadInputTokens != nil {
		a.claudeCacheRead = usage.CacheReadInputTokens
	}
	a.seen = true
}

func (a *UsageAccumulator) Finish() core.Usage {
	if a == nil || !a.seen {
		return core.Usage{}
	}
	if a.kind == UsageClaudeMessage {
		return claudeToUsage(claudeUsage{
			InputTokens:              a.claudeInput,
			OutputTokens:             a.claudeOutput,
			CacheCreationInputTokens: a.claudeCacheCreation,
			CacheReadInputTokens:     a.claudeCacheRead,
		})
	}
	return a.last
}
