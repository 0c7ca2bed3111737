package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// writeDeadline bounds each write so a hung peer cannot pin a goroutine forever.
const writeDeadline = 60 * time.Second

// DefaultHeartbeatInterval is how often idle streams get a keepalive event.
const DefaultHeartbeatInterval = 30 * time.Second

// openStream sets the SSE headers and flushes them. It returns nil when the
// writer cannot stream, after writing a 500.
func openStream(w http.ResponseWriter, logger *slog.Logger) *http.ResponseController {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		logger.Error("failed to flush headers", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return nil
	}
	return rc
}

// writeEvent writes one SSE frame and flushes it.
func writeEvent(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any, logger *slog.Logger) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		return err
	}

	if err := rc.Flush(); err != nil {
		return err
	}

	// Not every ResponseWriter supports deadlines.
	if err := rc.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}

	return nil
}
