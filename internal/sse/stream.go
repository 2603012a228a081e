package sse

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Stream is one open server-to-client push transport. The registry owns the
// stream for the lifetime of its Connection record; no other component
// writes to it.
type Stream interface {
	// WriteEvent pushes one framed message carrying serialized event data.
	WriteEvent(data []byte) error

	// WriteKeepAlive pushes an inert frame that clients never mistake for
	// application payload.
	WriteKeepAlive() error

	// CloseNotify is closed when the underlying transport goes away.
	CloseNotify() <-chan struct{}
}

// HTTPStream implements Stream over a long-lived event-stream response.
type HTTPStream struct {
	mu      sync.Mutex
	writer  http.ResponseWriter
	flusher http.Flusher
	done    <-chan struct{}
}

// NewHTTPStream prepares the response for event-stream framing: small text
// messages must reach the client without buffering or caching on the way.
func NewHTTPStream(w http.ResponseWriter, r *http.Request) (*HTTPStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &HTTPStream{
		writer:  w,
		flusher: flusher,
		done:    r.Context().Done(),
	}, nil
}

func (s *HTTPStream) WriteEvent(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintf(s.writer, "data: %s\n\n", data)
	if err != nil {
		return err
	}

	s.flusher.Flush()

	return nil
}

// WriteKeepAlive emits a comment-only frame, which event-stream clients
// discard without surfacing to the application.
func (s *HTTPStream) WriteKeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprint(s.writer, ": keep-alive\n\n")
	if err != nil {
		return err
	}

	s.flusher.Flush()

	return nil
}

func (s *HTTPStream) CloseNotify() <-chan struct{} {
	return s.done
}
