package protocol

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-relay/core"
)

// UsageKind selects which token accounting applies to a response body.
type UsageKind string

const (
	UsageNone            UsageKind = ""
	UsageClaudeMessage   UsageKind = "claude_message"
	UsageGeminiGenerate  UsageKind = "gemini_generate"
	UsageOpenAIChat      UsageKind = "openai_chat"
	UsageOpenAIResponses UsageKind = "openai_responses"
)

// Operation names follow the family.operation convention used in traffic rows.
const (
	OpClaudeMessages    = "claude.messages"
	OpClaudeCountTokens = "claude.count_tokens"
	OpClaudeModelsList  = "claude.models.list"
	OpClaudeModelsGet   = "claude.models.get"

	OpGeminiGenerate    = "gemini.generate_content"
	OpGeminiStream      = "gemini.stream_generate_content"
	OpGeminiCountTokens = "gemini.count_tokens"
	OpGeminiModelsList  = "gemini.models.list"
	OpGeminiModelsGet   = "gemini.models.get"

	OpOpenAIChat       = "openai.chat.completions"
	OpOpenAIResponses  = "openai.responses"
	OpOpenAIModelsList = "openai.models.list"
	OpOpenAIModelsGet  = "openai.models.get"
)

// Request is a classified downstream request ready for dispatch.
type Request struct {
	Operation string
	Family    core.ProtocolFamily
	Model     string
	Stream    bool
	Usage     UsageKind

	Method string
	Path   string
	Query  string
	Body   []byte
}

// ErrUnsupportedPath marks paths the provider's protocol does not claim.
type ErrUnsupportedPath struct {
	Method string
	Path   string
}

func (e ErrUnsupportedPath) Error() string {
	return fmt.Sprintf("protocol: unsupported operation %s %s", e.Method, e.Path)
}

// Classify maps method + path + query + body onto an operation of the
// provider's native protocol family. The path is relative to the provider
// prefix, without a leading slash. Requests are forwarded natively; a path
// from a different family is rejected rather than translated.
func Classify(family core.ProtocolFamily, method, path, query string, body []byte) (Request, error) {
	req := Request{
		Family: family,
		Method: strings.ToUpper(strings.TrimSpace(method)),
		Path:   strings.Trim(path, "/"),
		Query:  query,
		Body:   body,
	}

	segments := strings.Split(req.Path, "/")
	if len(segments) == 0 || segments[0] == "" {
		return Request{}, ErrUnsupportedPath{Method: req.Method, Path: path}
	}

	var (
		classified Request
		ok         bool
	)
	switch family {
	case core.FamilyClaude:
		classified, ok = classifyClaude(req, segments)
	case core.FamilyGemini:
		classified, ok = classifyGemini(req, segments)
	case core.FamilyOpenAI:
		classified, ok = classifyOpenAI(req, segments)
	}
	if !ok {
		return Request{}, ErrUnsupportedPath{Method: req.Method, Path: path}
	}
	if !classified.Stream && streamQuery(classified.Query) {
		classified.Stream = true
	}
	return classified, nil
}

func classifyClaude(req Request, segments []string) (Request, bool) {
	if segments[0] != "v1" {
		return Request{}, false
	}
	switch {
	case req.Method == "POST" && len(segments) == 2 && segments[1] == "messages":
		req.Operation = OpClaudeMessages
		req.Model = bodyModel(req.Body)
		req.Stream = bodyStreamFlag(req.Body)
		req.Usage = UsageClaudeMessage
		return req, true
	case req.Method == "POST" && len(segments) == 3 && segments[1] == "messages" && segments[2] == "count_tokens":
		req.Operation = OpClaudeCountTokens
		req.Model = bodyModel(req.Body)
		return req, true
	case req.Method == "GET" && len(segments) == 2 && segments[1] == "models":
		req.Operation = OpClaudeModelsList
		return req, true
	case req.Method == "GET" && len(segments) == 3 && segments[1] == "models":
		req.Operation = OpClaudeModelsGet
		req.Model = segments[2]
		return req, true
	}
	return Request{}, false
}

func classifyGemini(req Request, segments []string) (Request, bool) {
	if segments[0] != "v1" && segments[0] != "v1beta" {
		return Request{}, false
	}
	if len(segments) < 2 || segments[1] != "models" {
		return Request{}, false
	}

	if len(segments) == 2 {
		if req.Method != "GET" {
			return Request{}, false
		}
		req.Operation = OpGeminiModelsList
		return req, true
	}

	target := strings.Join(segments[2:], "/")
	model, action, hasAction := strings.Cut(target, ":")
	req.Model = model

	if !hasAction {
		if req.Method != "GET" {
			return Request{}, false
		}
		req.Operation = OpGeminiModelsGet
		return req, true
	}
	if req.Method != "POST" {
		return Request{}, false
	}
	switch action {
	case "generateContent":
		req.Operation = OpGeminiGenerate
		req.Usage = UsageGeminiGenerate
		return req, true
	case "streamGenerateContent":
		req.Operation = OpGeminiStream
		req.Stream = true
		req.Usage = UsageGeminiGenerate
		return req, true
	case "countTokens":
		req.Operation = OpGeminiCountTokens
		return req, true
	}
	return Request{}, false
}

func classifyOpenAI(req Request, segments []string) (Request, bool) {
	if segments[0] != "v1" {
		return Request{}, false
	}
	switch {
	case req.Method == "POST" && len(segments) == 3 && segments[1] == "chat" && segments[2] == "completions":
		req.Operation = OpOpenAIChat
		req.Model = bodyModel(req.Body)
		req.Stream = bodyStreamFlag(req.Body)
		req.Usage = UsageOpenAIChat
		return req, true
	case req.Method == "POST" && len(segments) == 2 && segments[1] == "responses":
		req.Operation = OpOpenAIResponses
		req.Model = bodyModel(req.Body)
		req.Stream = bodyStreamFlag(req.Body)
		req.Usage = UsageOpenAIResponses
		return req, true
	case req.Method == "GET" && len(segments) == 2 && segments[1] == "models":
		req.Operation = OpOpenAIModelsList
		return req, true
	case req.Method == "GET" && len(segments) == 3 && segments[1] == "models":
		req.Operation = OpOpenAIModelsGet
		req.Model = segments[2]
		return req, true
	}
	return Request{}, false
}

func streamQuery(query string) bool {
	if query == "" {
		return false
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return false
	}
	return strings.EqualFold(values.Get("alt"), "sse")
}

type modelProbe struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

func bodyModel(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var probe modelProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return probe.Model
}

func bodyStreamFlag(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	var probe modelProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return probe.Stream
}
