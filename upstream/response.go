package upstream

import (
	"fmt"
	"io"
	"net/http"
)

// Response is a successful upstream exchange. Exactly one of Body or Stream
// is set; streaming responses hand the caller an open body to relay.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	Stream io.ReadCloser
}

func (r *Response) IsStream() bool {
	return r != nil && r.Stream != nil
}

// PassthroughError carries an upstream error envelope back to the client
// unchanged. The gateway writes status, headers and body verbatim.
type PassthroughError struct {
	Status int
	Header http.Header
	Body   []byte
}

func (e *PassthroughError) Error() string {
	if e == nil {
		return "upstream: passthrough error"
	}
	return fmt.Sprintf("upstream: status %d", e.Status)
}

// ServiceUnavailable wraps a local failure (network error, exhausted pool)
// in a passthrough envelope so every dispatch error renders the same way.
func ServiceUnavailable(message string) *PassthroughError {
	return &PassthroughError{
		Status: http.StatusServiceUnavailable,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   []byte(fmt.Sprintf(`{"error":{"type":"upstream_unavailable","message":%q}}`, message)),
	}
}
