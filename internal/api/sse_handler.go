package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quizforge/qbank-api/internal/api/shared"
	"github.com/quizforge/qbank-api/internal/progress"
)

// DefaultHeartbeatInterval is used when no heartbeat interval is
// configured. Heartbeat comments keep idle connections alive through
// proxies that time out quiet streams.
const DefaultHeartbeatInterval = 15 * time.Second

// ProgressSubscriber is the slice of the progress broker the SSE
// handler needs.
type ProgressSubscriber interface {
	// Subscribe returns the event channel for a task. Returns
	// progress.ErrTaskNotFound for unknown tasks.
	Subscribe(taskID uuid.UUID) (<-chan progress.Event, error)
}

// SSEHandler streams task progress events to clients over Server-Sent
// Events.
type SSEHandler struct {
	broker    ProgressSubscriber
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(
	broker ProgressSubscriber,
	heartbeat time.Duration,
	logger *slog.Logger,
) *SSEHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SSEHandler{
		broker:    broker,
		heartbeat: heartbeat,
		logger:    logger.With("component", "sse_handler"),
	}
}

// StreamProgress handles GET /api/progress/{id} requests. It streams
// progress events as data frames until the task reaches a terminal
// state, then emits a close event and ends the stream. The server
// closing the connection is the subscription's end-of-stream signal.
func (h *SSEHandler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondWithError(
			w, r, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	events, err := h.broker.Subscribe(taskID)
	if err != nil {
		if errors.Is(err, progress.ErrTaskNotFound) {
			// Unknown or already swept task: a single error frame, then
			// close, so EventSource clients get a parseable stream.
			h.writeErrorStream(w, flusher, taskID)
			return
		}
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to subscribe to task", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Disable proxy buffering so events reach the client promptly.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log := h.logger.With("task_id", taskID)
	log.Debug("progress stream opened", "remote_addr", r.RemoteAddr)

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	lastStatus := progress.StatusPending
	for {
		select {
		case <-r.Context().Done():
			log.Debug("progress stream client disconnected")
			return

		case event, open := <-events:
			if !open {
				// Channel closed after the terminal event. The close frame
				// repeats the final status for clients that only listen for
				// the close event.
				if err := writeCloseFrame(w, lastStatus); err != nil {
					log.Debug("failed to write close frame", "error", err)
					return
				}
				flusher.Flush()
				log.Debug("progress stream completed", "status", lastStatus)
				return
			}
			lastStatus = event.Status

			data, err := json.Marshal(event)
			if err != nil {
				log.Error("failed to marshal progress event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				log.Debug("failed to write event frame", "error", err)
				return
			}
			flusher.Flush()

		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				log.Debug("failed to write heartbeat", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeErrorStream emits a one-frame SSE stream for an unknown task.
func (h *SSEHandler) writeErrorStream(
	w http.ResponseWriter,
	flusher http.Flusher,
	taskID uuid.UUID,
) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	frame := map[string]any{
		"task_id": taskID,
		"status":  "error",
		"message": "task not found",
	}
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("failed to marshal error frame", "error", err)
		return
	}

	fmt.Fprintf(w, "data: %s\n\n", data)
	if err := writeCloseFrame(w, "error"); err != nil {
		h.logger.Debug("failed to write close frame", "error", err)
		return
	}
	flusher.Flush()

	h.logger.Debug("progress stream requested for unknown task", "task_id", taskID)
}

// writeCloseFrame emits the terminal close event carrying the final
// stream status.
func writeCloseFrame(w http.ResponseWriter, status progress.Status) error {
	_, err := fmt.Fprintf(w, "event: close\ndata: {\"status\":%q}\n\n", string(status))
	return err
}
