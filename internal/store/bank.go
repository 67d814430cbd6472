package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/quizforge/qbank-api/internal/domain"
)

// BankStore defines the interface for question bank persistence.
type BankStore interface {
	// Create saves a new question bank to the store.
	// It handles domain validation internally.
	// Returns ErrDuplicateBank if a bank with the same fingerprint exists.
	Create(ctx context.Context, bank *domain.QuestionBank) error

	// GetByID retrieves a bank by its unique ID.
	// Returns ErrBankNotFound if the bank does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.QuestionBank, error)

	// AddQuestion appends one accepted question to its bank.
	// Returns ErrInvalidEntity if the bank ID does not exist.
	AddQuestion(ctx context.Context, question *domain.Question) error

	// GetQuestions retrieves all questions of a bank ordered by source
	// chunk index, then creation time.
	GetQuestions(ctx context.Context, bankID uuid.UUID) ([]*domain.Question, error)

	// UpdateStatus records a bank's status transition along with the
	// accepted question count and optional error text.
	// Returns ErrBankNotFound if the bank does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BankStatus, questionCount int, errorMessage string) error

	// FindByFingerprint looks up a bank by its content fingerprint.
	// Returns ErrBankNotFound when no bank matches. The lookup is
	// advisory; uniqueness is ultimately enforced by Create.
	FindByFingerprint(ctx context.Context, fingerprint string) (*domain.QuestionBank, error)

	// FailStale marks banks stuck in pending or processing longer than
	// olderThan as failed and returns how many were updated. Used by the
	// startup recovery pass after an unclean shutdown.
	FailStale(ctx context.Context, olderThan time.Duration) (int64, error)

	// WithTx returns a new BankStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) BankStore
}
