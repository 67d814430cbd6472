package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/quizforge/qbank-api/internal/domain"
	"github.com/quizforge/qbank-api/internal/events"
	"github.com/quizforge/qbank-api/internal/progress"
	"github.com/quizforge/qbank-api/internal/store"
	"github.com/quizforge/qbank-api/internal/task"
)

// TaskDirectory is the slice of the progress broker the bank service
// needs: minting task handles at submission time and flagging tasks for
// cooperative cancellation.
type TaskDirectory interface {
	// CreateTask registers a new task and returns its handle.
	CreateTask() uuid.UUID

	// Cancel flags a task for cancellation. Returns
	// progress.ErrTaskNotFound for unknown tasks.
	Cancel(taskID uuid.UUID) error
}

// SubmitRequest carries a question bank generation request. Exactly one
// of Text and FilePath must be set.
type SubmitRequest struct {
	Name              string
	Description       string
	FilePath          string
	Text              string
	QuestionsPerChunk int

	// ChunkSize and ChunkOverlap override the configured segmentation
	// defaults when positive.
	ChunkSize    int
	ChunkOverlap int
}

// Submission is the result of accepting a generation request. The task
// ID is the handle clients use to subscribe to progress events.
type Submission struct {
	TaskID uuid.UUID
}

// BankWithQuestions bundles a question bank with its persisted
// questions, read in a single transaction.
type BankWithQuestions struct {
	Bank      *domain.QuestionBank
	Questions []*domain.Question
}

// BankService defines the question bank use cases exposed to the API
// layer: submitting generation jobs, cancelling them, and reading the
// resulting banks.
type BankService interface {
	// SubmitGeneration validates the request, registers a progress task,
	// and enqueues a generation task request event. It returns the task
	// handle; the bank record itself is created by the background task
	// once the document content has been acquired and fingerprinted.
	SubmitGeneration(ctx context.Context, req SubmitRequest) (*Submission, error)

	// CancelGeneration flags a running generation task for cooperative
	// cancellation. Questions persisted before the cancellation point
	// are retained.
	CancelGeneration(ctx context.Context, taskID uuid.UUID) error

	// GetBank retrieves a question bank and its questions.
	GetBank(ctx context.Context, bankID uuid.UUID) (*BankWithQuestions, error)
}

// bankServiceImpl is the standard implementation of BankService.
type bankServiceImpl struct {
	db                *sql.DB
	bankStore         store.BankStore
	tasks             TaskDirectory
	eventEmitter      events.EventEmitter
	logger            *slog.Logger
	questionsPerChunk int
}

// Ensure bankServiceImpl implements BankService.
var _ BankService = (*bankServiceImpl)(nil)

// NewBankService creates a new BankService. questionsPerChunk is the
// default question count applied to submissions that do not request one.
func NewBankService(
	db *sql.DB,
	bankStore store.BankStore,
	tasks TaskDirectory,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
	questionsPerChunk int,
) (BankService, error) {
	if db == nil {
		return nil, &BankServiceError{Operation: "initialization", Message: "db cannot be nil"}
	}
	if bankStore == nil {
		return nil, &BankServiceError{Operation: "initialization", Message: "bankStore cannot be nil"}
	}
	if tasks == nil {
		return nil, &BankServiceError{Operation: "initialization", Message: "tasks cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &BankServiceError{Operation: "initialization", Message: "eventEmitter cannot be nil"}
	}
	if logger == nil {
		return nil, &BankServiceError{Operation: "initialization", Message: "logger cannot be nil"}
	}
	if questionsPerChunk <= 0 {
		questionsPerChunk = 3
	}

	return &bankServiceImpl{
		db:                db,
		bankStore:         bankStore,
		tasks:             tasks,
		eventEmitter:      eventEmitter,
		logger:            logger.With("component", "bank_service"),
		questionsPerChunk: questionsPerChunk,
	}, nil
}

// SubmitGeneration implements BankService.SubmitGeneration.
func (s *bankServiceImpl) SubmitGeneration(
	ctx context.Context,
	req SubmitRequest,
) (*Submission, error) {
	if err := validateSubmitRequest(req); err != nil {
		return nil, err
	}

	questionsPerChunk := req.QuestionsPerChunk
	if questionsPerChunk <= 0 {
		questionsPerChunk = s.questionsPerChunk
	}

	taskID := s.tasks.CreateTask()

	params := task.BankGenerationParams{
		TaskID:            taskID,
		Name:              strings.TrimSpace(req.Name),
		Description:       strings.TrimSpace(req.Description),
		FilePath:          strings.TrimSpace(req.FilePath),
		Text:              req.Text,
		QuestionsPerChunk: questionsPerChunk,
		ChunkSize:         req.ChunkSize,
		ChunkOverlap:      req.ChunkOverlap,
	}

	event, err := events.NewTaskRequestEvent(task.TaskTypeBankGeneration, params)
	if err != nil {
		return nil, NewBankServiceError(
			"submit generation", "failed to create task request event", err)
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		return nil, NewBankServiceError(
			"submit generation", "failed to emit task request event", err)
	}

	s.logger.InfoContext(ctx, "generation submission accepted",
		"task_id", taskID,
		"name", params.Name,
		"questions_per_chunk", questionsPerChunk)

	return &Submission{TaskID: taskID}, nil
}

// CancelGeneration implements BankService.CancelGeneration.
func (s *bankServiceImpl) CancelGeneration(ctx context.Context, taskID uuid.UUID) error {
	if err := s.tasks.Cancel(taskID); err != nil {
		if errors.Is(err, progress.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return NewBankServiceError("cancel generation", "failed to cancel task", err)
	}

	s.logger.InfoContext(ctx, "generation task cancellation requested", "task_id", taskID)
	return nil
}

// GetBank implements BankService.GetBank. The bank and its questions
// are read inside a single transaction so the question list matches the
// bank's recorded question count.
func (s *bankServiceImpl) GetBank(
	ctx context.Context,
	bankID uuid.UUID,
) (*BankWithQuestions, error) {
	var result *BankWithQuestions

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.bankStore.WithTx(tx)

		bank, err := txStore.GetByID(ctx, bankID)
		if err != nil {
			return err
		}

		questions, err := txStore.GetQuestions(ctx, bankID)
		if err != nil {
			return err
		}

		result = &BankWithQuestions{Bank: bank, Questions: questions}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrBankNotFound) {
			return nil, ErrBankNotFound
		}
		return nil, NewBankServiceError("get bank", "failed to retrieve bank", err)
	}

	return result, nil
}

func validateSubmitRequest(req SubmitRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSubmission)
	}
	hasText := strings.TrimSpace(req.Text) != ""
	hasPath := strings.TrimSpace(req.FilePath) != ""
	if hasText == hasPath {
		return fmt.Errorf("%w: exactly one of text and file_path is required", ErrInvalidSubmission)
	}
	if req.ChunkSize < 0 || req.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk size and overlap cannot be negative", ErrInvalidSubmission)
	}
	if req.ChunkSize > 0 && req.ChunkOverlap >= req.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be smaller than chunk size", ErrInvalidSubmission)
	}
	return nil
}
