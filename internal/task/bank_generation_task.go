package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/quizforge/qbank-api/internal/domain"
	"github.com/quizforge/qbank-api/internal/progress"
	"github.com/quizforge/qbank-api/internal/segment"
	"github.com/quizforge/qbank-api/internal/store"
)

// Progress milestones reported while a bank generation job runs. The
// chunk loop spreads the remaining percentage up to completion.
const (
	progressExtracted    = 5
	progressCleaned      = 15
	progressFingerprint  = 20
	progressSegmented    = 25
	progressChunksStart  = 30
	progressChunksBudget = 65
)

// Common errors
var (
	ErrNilReader    = errors.New("document reader cannot be nil")
	ErrNilSegmenter = errors.New("segmenter cannot be nil")
	ErrNilGenerator = errors.New("generator cannot be nil")
	ErrNilStore     = errors.New("bank store cannot be nil")
	ErrNilBroker    = errors.New("progress broker cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
	ErrEmptyTaskID  = errors.New("task ID cannot be empty")
	ErrBadParams    = errors.New("invalid bank generation parameters")
)

// DocumentReader acquires the document's plain text. Terminal to the
// job on failure.
type DocumentReader interface {
	ExtractText(path string) (string, error)
}

// ChunkSegmenter splits cleaned text into ordered chunks.
type ChunkSegmenter interface {
	Segment(text string) []segment.Chunk
}

// Generator produces questions for one chunk of text.
type Generator interface {
	GenerateQuestions(ctx context.Context, bankID uuid.UUID, chunkText string, chunkIndex int, desiredCount int) ([]*domain.Question, error)
}

// Pacer spaces out generation calls to respect external rate limits.
// *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// BankGenerationParams carries the submission data a bank generation
// task executes on. Exactly one of Text and FilePath must be set.
type BankGenerationParams struct {
	TaskID            uuid.UUID `json:"task_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	FilePath          string    `json:"file_path,omitempty"`
	Text              string    `json:"text,omitempty"`
	QuestionsPerChunk int       `json:"questions_per_chunk"`

	// ChunkSize and ChunkOverlap override the configured segmentation
	// defaults when positive.
	ChunkSize    int `json:"chunk_size,omitempty"`
	ChunkOverlap int `json:"chunk_overlap,omitempty"`
}

// Validate checks the parameters before a task is constructed.
func (p BankGenerationParams) Validate() error {
	if p.TaskID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrBadParams)
	}
	hasText := strings.TrimSpace(p.Text) != ""
	hasPath := strings.TrimSpace(p.FilePath) != ""
	if hasText == hasPath {
		return fmt.Errorf("%w: exactly one of text and file_path is required", ErrBadParams)
	}
	if p.ChunkSize < 0 || p.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk size and overlap cannot be negative", ErrBadParams)
	}
	if p.ChunkSize > 0 && p.ChunkOverlap >= p.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be smaller than chunk size", ErrBadParams)
	}
	return nil
}

// BankGenerationTask implements the Task interface for generating a
// question bank from a document. Its ID doubles as the progress task
// handle handed back to the submitter.
type BankGenerationTask struct {
	params    BankGenerationParams
	reader    DocumentReader
	segmenter ChunkSegmenter
	generator Generator
	bankStore store.BankStore
	broker    *progress.Broker
	pacer     Pacer
	logger    *slog.Logger
	status    TaskStatus
}

// NewBankGenerationTask creates a new bank generation task.
func NewBankGenerationTask(
	params BankGenerationParams,
	reader DocumentReader,
	segmenter ChunkSegmenter,
	generator Generator,
	bankStore store.BankStore,
	broker *progress.Broker,
	pacer Pacer,
	logger *slog.Logger,
) (*BankGenerationTask, error) {
	if reader == nil {
		return nil, ErrNilReader
	}
	if segmenter == nil {
		return nil, ErrNilSegmenter
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if bankStore == nil {
		return nil, ErrNilStore
	}
	if broker == nil {
		return nil, ErrNilBroker
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.QuestionsPerChunk <= 0 {
		params.QuestionsPerChunk = 3
	}

	return &BankGenerationTask{
		params:    params,
		reader:    reader,
		segmenter: segmenter,
		generator: generator,
		bankStore: bankStore,
		broker:    broker,
		pacer:     pacer,
		logger:    logger.With("task_type", TaskTypeBankGeneration, "task_id", params.TaskID),
		status:    TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *BankGenerationTask) ID() uuid.UUID {
	return t.params.TaskID
}

// Type returns the task type identifier
func (t *BankGenerationTask) Type() string {
	return TaskTypeBankGeneration
}

// Payload returns the task data as a byte slice
func (t *BankGenerationTask) Payload() []byte {
	data, err := json.Marshal(t.params)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *BankGenerationTask) Status() TaskStatus {
	return t.status
}

// Execute runs the bank generation pipeline: acquire text, clean it,
// check the fingerprint for a prior identical submission, segment,
// then generate and persist questions chunk by chunk. Chunk-level
// generation failures are logged and skipped; failures in acquisition,
// segmentation, or persistence fail the whole job. The cancellation
// flag is polled between chunks, so already-persisted questions
// survive a cancel.
func (t *BankGenerationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting bank generation task")

	// Acquire text
	text := t.params.Text
	if text == "" {
		extracted, err := t.reader.ExtractText(t.params.FilePath)
		if err != nil {
			return t.fail(fmt.Errorf("failed to extract document text: %w", err), nil)
		}
		text = extracted
	}
	t.publish(progress.StatusProcessing, progressExtracted, "extract", "document text acquired", nil)

	// Normalize
	cleaned := segment.Clean(text)
	if cleaned == "" {
		return t.fail(fmt.Errorf("%w: document contains no usable text", domain.ErrEmptyContent), nil)
	}
	t.publish(progress.StatusProcessing, progressCleaned, "clean", "text normalized", nil)

	// Duplicate check. The lookup is advisory; the unique index behind
	// Create closes the race between identical concurrent submissions.
	fingerprint := domain.Fingerprint(cleaned)
	if existing, err := t.bankStore.FindByFingerprint(ctx, fingerprint); err == nil {
		t.logger.Info("identical document already processed",
			"bank_id", existing.ID.String())
		return t.skipAsDuplicate(existing.ID)
	} else if !errors.Is(err, store.ErrBankNotFound) {
		return t.fail(fmt.Errorf("fingerprint lookup failed: %w", err), nil)
	}
	t.publish(progress.StatusProcessing, progressFingerprint, "fingerprint", "no prior identical submission", nil)

	bank, err := domain.NewQuestionBank(t.params.Name, t.params.FilePath, t.params.Description, fingerprint)
	if err != nil {
		return t.fail(fmt.Errorf("failed to build bank: %w", err), nil)
	}

	if err := t.bankStore.Create(ctx, bank); err != nil {
		if errors.Is(err, store.ErrDuplicateBank) {
			// Lost the race against an identical submission.
			if existing, findErr := t.bankStore.FindByFingerprint(ctx, fingerprint); findErr == nil {
				return t.skipAsDuplicate(existing.ID)
			}
			return t.skipAsDuplicate(uuid.Nil)
		}
		return t.fail(fmt.Errorf("failed to create bank: %w", err), nil)
	}

	// Segment
	chunks := t.segmenter.Segment(cleaned)
	if len(chunks) == 0 {
		err := fmt.Errorf("%w: segmentation produced no chunks", domain.ErrEmptyContent)
		_ = t.bankStore.UpdateStatus(ctx, bank.ID, domain.BankStatusFailed, 0, err.Error())
		return t.fail(err, detailsFor(bank.ID, len(chunks), 0, 0, 0))
	}
	t.publish(progress.StatusProcessing, progressSegmented, "segment",
		fmt.Sprintf("text split into %d chunks", len(chunks)),
		map[string]any{"bank_id": bank.ID.String(), "chunk_count": len(chunks)})

	if err := t.bankStore.UpdateStatus(ctx, bank.ID, domain.BankStatusProcessing, 0, ""); err != nil {
		return t.fail(fmt.Errorf("failed to mark bank processing: %w", err), nil)
	}

	// Generate per chunk
	questionCount := 0
	chunksFailed := 0
	for i, chunk := range chunks {
		if t.cancelled(ctx) {
			return t.cancel(ctx, bank.ID, len(chunks), i, chunksFailed, questionCount)
		}

		if t.pacer != nil {
			if err := t.pacer.Wait(ctx); err != nil {
				return t.cancel(ctx, bank.ID, len(chunks), i, chunksFailed, questionCount)
			}
		}

		questions, err := t.generator.GenerateQuestions(ctx, bank.ID, chunk.Content, chunk.Index, t.params.QuestionsPerChunk)
		if err != nil {
			// Chunk failures degrade output, they never abort the job.
			chunksFailed++
			t.logger.Warn("chunk generation failed, skipping",
				"chunk_index", chunk.Index,
				"error", err)
		} else {
			excerpt := domain.ExcerptSource(chunk.Content)
			for _, question := range questions {
				question.SourceExcerpt = excerpt
				if err := t.bankStore.AddQuestion(ctx, question); err != nil {
					persistErr := fmt.Errorf("failed to persist question: %w", err)
					_ = t.bankStore.UpdateStatus(ctx, bank.ID, domain.BankStatusFailed, questionCount, persistErr.Error())
					return t.fail(persistErr, detailsFor(bank.ID, len(chunks), i, chunksFailed, questionCount))
				}
				questionCount++
			}
		}

		percent := progressChunksStart + progressChunksBudget*(i+1)/len(chunks)
		t.publish(progress.StatusProcessing, percent, "chunks",
			fmt.Sprintf("processed chunk %d of %d", i+1, len(chunks)),
			detailsFor(bank.ID, len(chunks), i+1, chunksFailed, questionCount))
	}

	// Finalize
	if err := t.bankStore.UpdateStatus(ctx, bank.ID, domain.BankStatusCompleted, questionCount, ""); err != nil {
		return t.fail(fmt.Errorf("failed to mark bank completed: %w", err),
			detailsFor(bank.ID, len(chunks), len(chunks), chunksFailed, questionCount))
	}

	t.status = TaskStatusCompleted
	details := detailsFor(bank.ID, len(chunks), len(chunks), chunksFailed, questionCount)
	if err := t.broker.Complete(t.params.TaskID,
		fmt.Sprintf("generated %d questions", questionCount), details); err != nil {
		t.logger.Warn("failed to publish completion event", "error", err)
	}

	t.logger.Info("bank generation task completed",
		"bank_id", bank.ID.String(),
		"question_count", questionCount,
		"chunks_failed", chunksFailed)
	return nil
}

// cancelled reports whether the job should stop before the next chunk.
func (t *BankGenerationTask) cancelled(ctx context.Context) bool {
	return ctx.Err() != nil || t.broker.IsCancelled(t.params.TaskID)
}

// cancel records the cancelled terminal state, keeping everything
// persisted so far.
func (t *BankGenerationTask) cancel(ctx context.Context, bankID uuid.UUID, chunkCount, processed, chunksFailed, questionCount int) error {
	t.status = TaskStatusCancelled

	// Best effort under a possibly-dead context.
	_ = t.bankStore.UpdateStatus(context.WithoutCancel(ctx), bankID, domain.BankStatusCancelled, questionCount, "")

	details := detailsFor(bankID, chunkCount, processed, chunksFailed, questionCount)
	if err := t.broker.Publish(t.params.TaskID, progress.StatusCancelled, 0, "cancelled",
		fmt.Sprintf("cancelled after %d of %d chunks", processed, chunkCount), details); err != nil {
		t.logger.Warn("failed to publish cancellation event", "error", err)
	}

	t.logger.Info("bank generation task cancelled",
		"chunks_processed", processed,
		"question_count", questionCount)
	return nil
}

// fail records the failed terminal state and surfaces the error text
// verbatim through the final progress event.
func (t *BankGenerationTask) fail(err error, details map[string]any) error {
	t.status = TaskStatusFailed
	if publishErr := t.broker.Publish(t.params.TaskID, progress.StatusFailed, 0, "error", err.Error(), details); publishErr != nil {
		t.logger.Warn("failed to publish failure event", "error", publishErr)
	}
	t.logger.Error("bank generation task failed", "error", err)
	return err
}

// skipAsDuplicate completes the task without generating anything.
func (t *BankGenerationTask) skipAsDuplicate(existingID uuid.UUID) error {
	t.status = TaskStatusCompleted

	details := map[string]any{"skipped": true}
	if existingID != uuid.Nil {
		details["bank_id"] = existingID.String()
	}
	if err := t.broker.Complete(t.params.TaskID, "question bank already exists for this document", details); err != nil {
		t.logger.Warn("failed to publish completion event", "error", err)
	}
	return nil
}

// publish forwards a non-terminal event, logging delivery problems
// instead of surfacing them.
func (t *BankGenerationTask) publish(status progress.Status, percent int, step, message string, details map[string]any) {
	if err := t.broker.Publish(t.params.TaskID, status, percent, step, message, details); err != nil {
		t.logger.Warn("failed to publish progress event",
			"step", step,
			"error", err)
	}
}

func detailsFor(bankID uuid.UUID, chunkCount, processed, chunksFailed, questionCount int) map[string]any {
	return map[string]any{
		"bank_id":          bankID.String(),
		"chunk_count":      chunkCount,
		"chunks_processed": processed,
		"chunks_failed":    chunksFailed,
		"question_count":   questionCount,
	}
}
