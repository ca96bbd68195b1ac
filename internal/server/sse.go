package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-matcher/internal/session"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event, id string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if id != "" {
		if _, err := fmt.Fprintf(s.w, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteState sends a session transition
func (s *SSEWriter) WriteState(snap session.Snapshot) error {
	return s.WriteEvent("state", fmt.Sprintf("%s-%d", snap.ID, snap.State), snap)
}

// WriteComplete sends the terminal event for a session
func (s *SSEWriter) WriteComplete(snap session.Snapshot) {
	s.WriteEvent("complete", "", map[string]string{ //nolint:errcheck
		"session_id": snap.ID.String(),
		"state":      snap.State.String(),
	})
}
