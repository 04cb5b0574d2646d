package protocol

import "strings"

// SSEDecoder frames server-sent-event data payloads out of a byte stream.
// Chunks may split lines anywhere; Push returns the data payloads completed
// by the chunk and Finish flushes whatever a truncated stream left behind.
type SSEDecoder struct {
	buf strings.Builder
}

func NewSSEDecoder() *SSEDecoder {
	return &SSEDecoder{}
}

func (d *SSEDecoder) Push(chunk []byte) []string {
	if d == nil || len(chunk) == 0 {
		return nil
	}
	d.buf.Write(chunk)

	text := d.buf.String()
	lastNewline := strings.LastIndexByte(text, '\n')
	if lastNewline < 0 {
		return nil
	}
	complete := text[:lastNewline+1]
	rest := text[lastNewline+1:]
	d.buf.Reset()
	d.buf.WriteString(rest)

	return decodeLines(complete)
}

func (d *SSEDecoder) Finish() []string {
	if d == nil || d.buf.Len() == 0 {
		return nil
	}
	rest := d.buf.String()
	d.buf.Reset()
	return decodeLines(rest + "\n")
}

func decodeLines(text string) []string {
	var payloads []string
	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			// event:, id:, retry:, comments and blank separators
			continue
		}
		payloads = append(payloads, strings.TrimPrefix(data, " "))
	}
	return payloads
}
