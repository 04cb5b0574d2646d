package protocol

import (
	"errors"
	"testing"

	"github.com/goliatone/go-relay/core"
)

func TestClassifyClaudeMessages(t *testing.T) {
	body := []byte(`{"model":"claude-sonnet-4","max_tokens":64,"messages":[]}`)
	req, err := Classify(core.FamilyClaude, "POST", "v1/messages", "", body)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if req.Operation != OpClaudeMessages {
		t.Fatalf("expected %s, got %s", OpClaudeMessages, req.Operation)
	}
	if req.Model != "claude-sonnet-4" {
		t.Fatalf("expected model from body, got %q", req.Model)
	}
	if req.Stream {
		t.Fatalf("expected non-streaming request")
	}
	if req.Usage != UsageClaudeMessage {
		t.Fatalf("expected claude usage kind, got %q", req.Usage)
	}
}

func TestClassifyClaudeMessagesStream(t *testing.T) {
	body := []byte(`{"model":"claude-sonnet-4","stream":true,"messages":[]}`)
	req, err := Classify(core.FamilyClaude, "POST", "/v1/messages", "", body)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !req.Stream {
		t.Fatalf("expected stream flag from body")
	}
}

func TestClassifyClaudeCountTokensAndModels(t *testing.T) {
	req, err := Classify(core.FamilyClaude, "POST", "v1/messages/count_tokens", "", []byte(`{"model":"claude-opus-4"}`))
	if err != nil {
		t.Fatalf("classify count_tokens: %v", err)
	}
	if req.Operation != OpClaudeCountTokens || req.Usage != UsageNone {
		t.Fatalf("unexpected classification: %+v", req)
	}

	req, err = Classify(core.FamilyClaude, "GET", "v1/models", "", nil)
	if err != nil || req.Operation != OpClaudeModelsList {
		t.Fatalf("models list: %v %+v", err, req)
	}

	req, err = Classify(core.FamilyClaude, "GET", "v1/models/claude-opus-4", "", nil)
	if err != nil || req.Operation != OpClaudeModelsGet || req.Model != "claude-opus-4" {
		t.Fatalf("models get: %v %+v", err, req)
	}
}

func TestClassifyGeminiGenerate(t *testing.T) {
	req, err := Classify(core.FamilyGemini, "POST", "v1beta/models/gemini-2.0-flash:generateContent", "", nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if req.Operation != OpGeminiGenerate {
		t.Fatalf("expected generate, got %s", req.Operation)
	}
	if req.Model != "gemini-2.0-flash" {
		t.Fatalf("expected model from path, got %q", req.Model)
	}
}

func TestClassifyGeminiStreamVariants(t *testing.T) {
	req, err := Classify(core.FamilyGemini, "POST", "v1beta/models/gemini-2.0-flash:streamGenerateContent", "alt=sse", nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if req.Operation != OpGeminiStream || !req.Stream {
		t.Fatalf("expected streaming operation, got %+v", req)
	}

	// alt=sse on generateContent also forces streaming delivery
	req, err = Classify(core.FamilyGemini, "POST", "v1/models/gemini-2.0-flash:generateContent", "alt=sse", nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !req.Stream {
		t.Fatalf("expected alt=sse to set stream")
	}
}

func TestClassifyGeminiCountAndModels(t *testing.T) {
	req, err := Classify(core.FamilyGemini, "POST", "v1beta/models/gemini-2.0-flash:countTokens", "", nil)
	if err != nil || req.Operation != OpGeminiCountTokens {
		t.Fatalf("count tokens: %v %+v", err, req)
	}
	req, err = Classify(core.FamilyGemini, "GET", "v1beta/models", "", nil)
	if err != nil || req.Operation != OpGeminiModelsList {
		t.Fatalf("models list: %v %+v", err, req)
	}
	req, err = Classify(core.FamilyGemini, "GET", "v1beta/models/gemini-2.0-flash", "", nil)
	if err != nil || req.Operation != OpGeminiModelsGet || req.Model != "gemini-2.0-flash" {
		t.Fatalf("models get: %v %+v", err, req)
	}
}

func TestClassifyOpenAI(t *testing.T) {
	body := []byte(`{"model":"gpt-4o","stream":true}`)
	req, err := Classify(core.FamilyOpenAI, "POST", "v1/chat/completions", "", body)
	if err != nil {
		t.Fatalf("classify chat: %v", err)
	}
	if req.Operation != OpOpenAIChat || !req.Stream || req.Model != "gpt-4o" {
		t.Fatalf("unexpected chat classification: %+v", req)
	}

	req, err = Classify(core.FamilyOpenAI, "POST", "v1/responses", "", []byte(`{"model":"gpt-4o"}`))
	if err != nil || req.Operation != OpOpenAIResponses || req.Usage != UsageOpenAIResponses {
		t.Fatalf("responses: %v %+v", err, req)
	}

	req, err = Classify(core.FamilyOpenAI, "GET", "v1/models/gpt-4o", "", nil)
	if err != nil || req.Operation != OpOpenAIModelsGet || req.Model != "gpt-4o" {
		t.Fatalf("models get: %v %+v", err, req)
	}
}

func TestClassifyRejectsForeignFamilyPaths(t *testing.T) {
	_, err := Classify(core.FamilyClaude, "POST", "v1/chat/completions", "", nil)
	var unsupported ErrUnsupportedPath
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrUnsupportedPath, got %v", err)
	}

	if _, err = Classify(core.FamilyOpenAI, "POST", "v1/messages", "", nil); err == nil {
		t.Fatalf("expected claude path to be rejected for openai provider")
	}
	if _, err = Classify(core.FamilyGemini, "POST", "v1/chat/completions", "", nil); err == nil {
		t.Fatalf("expected openai path to be rejected for gemini provider")
	}
}

func TestClassifyRejectsUnknownPaths(t *testing.T) {
	for _, path := range []string{"", "/", "v2/messages", "v1/unknown", "admin/users"} {
		if _, err := Classify(core.FamilyClaude, "POST", path, "", nil); err == nil {
			t.Fatalf("expected %q to be rejected", path)
		}
	}
}
