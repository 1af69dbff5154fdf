package http

import (
	"fmt"
	"net/http"
	"time"

	"miragepos/infrastructure/notify"
)

// eventsHeartbeat keeps idle proxies from closing the stream.
var eventsHeartbeat = 25 * time.Second

// EventsHandler relays refresh hints to a browser tab as server-sent events.
func EventsHandler(n notify.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "retry: 3000\n\n")
		flusher.Flush()

		hints := n.Subscribe(r.Context())
		ticker := time.NewTicker(eventsHeartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case msg, ok := <-hints:
				if !ok {
					return
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", notify.DefaultChannel, msg); err != nil {
					return
				}
				flusher.Flush()
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
