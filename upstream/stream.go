package upstream

import (
	"io"
	"strings"
	"sync"

	"github.com/goliatone/go-relay/core"
	"github.com/goliatone/go-relay/protocol"
)

// recordingStream relays an upstream event stream to the client while
// accumulating usage from the events passing through. The finish hook runs
// once, on EOF or Close, with the collected body and usage.
type recordingStream struct {
	inner   io.ReadCloser
	decoder *protocol.SSEDecoder
	acc     *protocol.UsageAccumulator
	body    strings.Builder
	once    sync.Once
	finish  func(body string, usage core.Usage)
}

func newRecordingStream(inner io.ReadCloser, kind protocol.UsageKind, finish func(string, core.Usage)) *recordingStream {
	return &recordingStream{
		inner:   inner,
		decoder: protocol.NewSSEDecoder(),
		acc:     protocol.NewUsageAccumulator(kind),
		finish:  finish,
	}
}

func (s *recordingStream) Read(p []byte) (int, error) {
	n, err := s.inner.Read(p)
	if n > 0 {
		for _, payload := range s.decoder.Push(p[:n]) {
			s.observe(payload)
		}
	}
	if err == io.EOF {
		s.done()
	}
	return n, err
}

func (s *recordingStream) Close() error {
	err := s.inner.Close()
	// Record whatever arrived even when the client hung up mid-stream.
	s.done()
	return err
}

func (s *recordingStream) observe(payload string) {
	if payload == "" || payload == "[DONE]" {
		return
	}
	s.body.WriteString(payload)
	s.body.WriteByte('\n')
	s.acc.PushEvent(payload)
}

func (s *recordingStream) done() {
	s.once.Do(func() {
		for _, payload := range s.decoder.Finish() {
			s.observe(payload)
		}
		if s.finish != nil {
			s.finish(s.body.String(), s.acc.Finish())
		}
	})
}
