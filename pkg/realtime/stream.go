package realtime

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// Event is one named server-sent event.
type Event struct {
	Name string
	Data string
}

// WriteEvent writes a single named SSE event. Multi-line data is split
// across data: lines per the SSE framing rules.
func WriteEvent(w io.Writer, name string, data string) error {
	if _, err := io.WriteString(w, "event: "+name+"\n"); err != nil {
		return err
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := io.WriteString(w, "data: "+line+"\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Serve streams events to the client until it disconnects. A ping event is
// emitted immediately and then on every keepalive tick so intermediaries keep
// the connection open; events arriving on the feed are written in order.
// Write errors are ignored: a dead connection surfaces as context
// cancellation, which ends the loop.
func Serve(w http.ResponseWriter, r *http.Request, events <-chan Event, keepalive time.Duration) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	_ = WriteEvent(w, "ping", "ping")
	flusher.Flush()

	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			_ = WriteEvent(w, ev.Name, ev.Data)
			flusher.Flush()
		case <-ticker.C:
			_ = WriteEvent(w, "ping", "ping")
			flusher.Flush()
		}
	}
}
