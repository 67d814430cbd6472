package progress

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle status carried by a progress event.
type Status string

// Task lifecycle statuses. A task moves Pending -> Processing -> one of
// the three terminal statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether s ends the event stream.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Event is one progress update for a task. Events are append-only and
// delivered to a subscriber in emission order.
type Event struct {
	TaskID    uuid.UUID      `json:"task_id"`
	Status    Status         `json:"status"`
	Progress  int            `json:"progress"`
	Step      string         `json:"step,omitempty"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
