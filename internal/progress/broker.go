package progress

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults for broker construction and sweeping.
const (
	// DefaultQueueSize bounds each task's event queue.
	DefaultQueueSize = 100

	// DefaultIdleThreshold is how long a task may go without an update
	// before the sweeper reclaims it.
	DefaultIdleThreshold = 5 * time.Minute
)

// Common errors returned by the broker.
var (
	// ErrTaskNotFound is returned when the task id is unknown, either
	// because it never existed or because the sweeper reclaimed it.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskFinished is returned when publishing to a task whose
	// stream already carried a terminal event.
	ErrTaskFinished = errors.New("task already finished")
)

// taskState is the per-task record held by the broker.
type taskState struct {
	queue      chan Event
	status     Status
	progress   int
	cancelled  bool
	finished   bool
	lastUpdate time.Time
}

// Broker is a concurrency-safe registry of task event queues. The zero
// value is not usable; construct with NewBroker.
type Broker struct {
	logger    *slog.Logger
	queueSize int

	mu    sync.Mutex
	tasks map[uuid.UUID]*taskState
	now   func() time.Time
}

// NewBroker creates a broker whose per-task queues hold up to queueSize
// events. A non-positive queueSize falls back to DefaultQueueSize.
func NewBroker(logger *slog.Logger, queueSize int) *Broker {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Broker{
		logger:    logger,
		queueSize: queueSize,
		tasks:     make(map[uuid.UUID]*taskState),
		now:       time.Now,
	}
}

// CreateTask registers a new task and returns its opaque id. The task
// starts in StatusPending with an empty queue.
func (b *Broker) CreateTask() uuid.UUID {
	id := uuid.New()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks[id] = &taskState{
		queue:      make(chan Event, b.queueSize),
		status:     StatusPending,
		lastUpdate: b.now(),
	}

	return id
}

// Publish appends an event to the task's queue. It never blocks: when
// the queue is full the oldest event is dropped to make room. Progress
// is clamped so it never moves backwards. An event carrying a terminal
// status ends the stream; publishing after that returns ErrTaskFinished.
func (b *Broker) Publish(taskID uuid.UUID, status Status, percent int, step, message string, details map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if st.finished {
		return ErrTaskFinished
	}

	if percent < st.progress {
		percent = st.progress
	}
	if percent > 100 {
		percent = 100
	}

	ev := Event{
		TaskID:    taskID,
		Status:    status,
		Progress:  percent,
		Step:      step,
		Message:   message,
		Details:   details,
		Timestamp: b.now().UTC(),
	}

	select {
	case st.queue <- ev:
	default:
		// Full queue: drop the oldest event, then retry once. The
		// second attempt can only fail if a subscriber raced in and
		// freed space, in which case the send succeeds anyway.
		select {
		case dropped := <-st.queue:
			b.logger.Warn("Progress queue full, dropping oldest event",
				"task_id", taskID.String(),
				"dropped_status", dropped.Status)
		default:
		}
		select {
		case st.queue <- ev:
		default:
		}
	}

	st.status = status
	st.progress = percent
	st.lastUpdate = b.now()

	if status.IsTerminal() {
		st.finished = true
		close(st.queue)
	}

	return nil
}

// Complete publishes the terminal completed event at 100 percent.
func (b *Broker) Complete(taskID uuid.UUID, message string, details map[string]any) error {
	return b.Publish(taskID, StatusCompleted, 100, "done", message, details)
}

// Fail publishes the terminal failed event carrying the error text.
func (b *Broker) Fail(taskID uuid.UUID, errText string) error {
	return b.Publish(taskID, StatusFailed, 0, "error", errText, nil)
}

// Subscribe returns the task's event channel. Events arrive in emission
// order; the channel is closed after the terminal event. A subscriber
// that arrives late misses events already dropped by overflow.
func (b *Broker) Subscribe(taskID uuid.UUID) (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return st.queue, nil
}

// Cancel sets the task's cancellation flag. The running job observes
// the flag between chunks and publishes the terminal cancelled event
// itself, so already-persisted results are kept.
func (b *Broker) Cancel(taskID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if st.finished {
		return ErrTaskFinished
	}

	st.cancelled = true
	st.lastUpdate = b.now()
	return nil
}

// IsCancelled reports whether Cancel has been called for the task. An
// unknown task reads as cancelled so a swept job stops promptly.
func (b *Broker) IsCancelled(taskID uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.tasks[taskID]
	if !ok {
		return true
	}
	return st.cancelled
}

// Sweep removes every task whose last update is older than
// idleThreshold and returns how many were removed. Swept tasks become
// undiscoverable; a subscriber still holding the channel of a swept
// unfinished task keeps it open until garbage collection, it just
// receives nothing further.
func (b *Broker) Sweep(idleThreshold time.Duration) int {
	if idleThreshold <= 0 {
		idleThreshold = DefaultIdleThreshold
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-idleThreshold)
	removed := 0
	for id, st := range b.tasks {
		if st.lastUpdate.Before(cutoff) {
			delete(b.tasks, id)
			removed++
		}
	}

	if removed > 0 {
		b.logger.Info("Swept idle tasks",
			"removed", removed,
			"remaining", len(b.tasks))
	}

	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (b *Broker) StartSweeper(ctx context.Context, interval, idleThreshold time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.Sweep(idleThreshold)
			case <-ctx.Done():
				return
			}
		}
	}()
}
