package protocol

import (
	"reflect"
	"testing"
)

func TestSSEDecoderFramesCompleteEvents(t *testing.T) {
	decoder := NewSSEDecoder()
	payloads := decoder.Push([]byte("event: message_start\ndata: {\"a\":1}\n\ndata: {\"b\":2}\n\n"))
	want := []string{`{"a":1}`, `{"b":2}`}
	if !reflect.DeepEqual(payloads, want) {
		t.Fatalf("expected %v, got %v", want, payloads)
	}
}

func TestSSEDecoderHandlesSplitChunks(t *testing.T) {
	decoder := NewSSEDecoder()
	if got := decoder.Push([]byte("data: {\"part\"")); got != nil {
		t.Fatalf("expected no payload for partial line, got %v", got)
	}
	payloads := decoder.Push([]byte(":1}\n"))
	if len(payloads) != 1 || payloads[0] != `{"part":1}` {
		t.Fatalf("expected joined payload, got %v", payloads)
	}
}

func TestSSEDecoderFinishFlushesTail(t *testing.T) {
	decoder := NewSSEDecoder()
	decoder.Push([]byte("data: {\"tail\":true}"))
	payloads := decoder.Finish()
	if len(payloads) != 1 || payloads[0] != `{"tail":true}` {
		t.Fatalf("expected tail payload, got %v", payloads)
	}
	if decoder.Finish() != nil {
		t.Fatalf("expected second finish to be empty")
	}
}

func TestSSEDecoderIgnoresNonDataLines(t *testing.T) {
	decoder := NewSSEDecoder()
	payloads := decoder.Push([]byte(": comment\nevent: ping\nretry: 100\r\ndata: x\r\n\n"))
	if len(payloads) != 1 || payloads[0] != "x" {
		t.Fatalf("expected only data line, got %v", payloads)
	}
}

func TestSSEDecoderKeepsDoneMarker(t *testing.T) {
	decoder := NewSSEDecoder()
	payloads := decoder.Push([]byte("data: [DONE]\n\n"))
	if len(payloads) != 1 || payloads[0] != "[DONE]" {
		t.Fatalf("expected [DONE] passthrough, got %v", payloads)
	}
}
