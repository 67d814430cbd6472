package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/quizforge/qbank-api/internal/domain"
	"github.com/quizforge/qbank-api/internal/platform/logger"
	"github.com/quizforge/qbank-api/internal/store"
)

// PostgresBankStore implements the store.BankStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBankStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBankStore creates a new PostgreSQL implementation of the BankStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresBankStore(db store.DBTX, logger *slog.Logger) *PostgresBankStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBankStore{
		db:     db,
		logger: logger.With(slog.String("component", "bank_store")),
	}
}

// Ensure PostgresBankStore implements store.BankStore interface
var _ store.BankStore = (*PostgresBankStore)(nil)

// Create implements store.BankStore.Create
// It saves a new question bank to the database, handling domain validation.
// Returns store.ErrDuplicateBank when the fingerprint unique index rejects
// the insert, making concurrent identical submissions safe.
func (s *PostgresBankStore) Create(ctx context.Context, bank *domain.QuestionBank) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := bank.Validate(); err != nil {
		log.Warn("bank validation failed during create",
			slog.String("error", err.Error()),
			slog.String("bank_id", bank.ID.String()))
		return err
	}

	query := `
		INSERT INTO question_banks
			(id, name, source_file, description, fingerprint, status, question_count, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		bank.ID,
		bank.Name,
		bank.SourceFile,
		bank.Description,
		bank.Fingerprint,
		bank.Status,
		bank.QuestionCount,
		bank.ErrorMessage,
		bank.CreatedAt,
		bank.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Info("duplicate fingerprint rejected",
				slog.String("bank_id", bank.ID.String()),
				slog.String("fingerprint", bank.Fingerprint))
			return fmt.Errorf("%w: %v", store.ErrDuplicateBank, err)
		}

		log.Error("failed to create bank",
			slog.String("error", err.Error()),
			slog.String("bank_id", bank.ID.String()))
		return MapError(err)
	}

	log.Info("bank created successfully",
		slog.String("bank_id", bank.ID.String()),
		slog.String("status", string(bank.Status)))
	return nil
}

// GetByID implements store.BankStore.GetByID
// Returns store.ErrBankNotFound if the bank does not exist.
func (s *PostgresBankStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuestionBank, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, source_file, description, fingerprint, status, question_count, error_message, created_at, updated_at
		FROM question_banks
		WHERE id = $1
	`

	bank, err := scanBank(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("bank not found", slog.String("bank_id", id.String()))
			return nil, store.ErrBankNotFound
		}
		log.Error("failed to get bank by ID",
			slog.String("error", err.Error()),
			slog.String("bank_id", id.String()))
		return nil, MapError(err)
	}

	return bank, nil
}

// AddQuestion implements store.BankStore.AddQuestion
// Returns store.ErrInvalidEntity if the bank ID does not exist.
func (s *PostgresBankStore) AddQuestion(ctx context.Context, question *domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := question.Validate(); err != nil {
		log.Warn("question validation failed during add",
			slog.String("error", err.Error()),
			slog.String("question_id", question.ID.String()))
		return err
	}

	query := `
		INSERT INTO questions
			(id, bank_id, question, answer, difficulty, question_type, source_chunk_index, source_excerpt, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		question.ID,
		question.BankID,
		question.Question,
		question.Answer,
		int(question.Difficulty),
		string(question.Type),
		question.SourceChunkIndex,
		question.SourceExcerpt,
		question.Confidence,
		question.CreatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: bank with ID %s not found",
				store.ErrInvalidEntity, question.BankID)
		}

		log.Error("failed to add question",
			slog.String("error", err.Error()),
			slog.String("question_id", question.ID.String()),
			slog.String("bank_id", question.BankID.String()))
		return MapError(err)
	}

	return nil
}

// GetQuestions implements store.BankStore.GetQuestions
func (s *PostgresBankStore) GetQuestions(ctx context.Context, bankID uuid.UUID) ([]*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, bank_id, question, answer, difficulty, question_type, source_chunk_index, source_excerpt, confidence, created_at
		FROM questions
		WHERE bank_id = $1
		ORDER BY source_chunk_index, created_at
	`

	rows, err := s.db.QueryContext(ctx, query, bankID)
	if err != nil {
		log.Error("failed to query questions",
			slog.String("error", err.Error()),
			slog.String("bank_id", bankID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var questions []*domain.Question
	for rows.Next() {
		var q domain.Question
		var difficulty int
		var qType string

		err := rows.Scan(
			&q.ID,
			&q.BankID,
			&q.Question,
			&q.Answer,
			&difficulty,
			&qType,
			&q.SourceChunkIndex,
			&q.SourceExcerpt,
			&q.Confidence,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}

		q.Difficulty = domain.Difficulty(difficulty)
		q.Type = domain.QuestionType(qType)
		questions = append(questions, &q)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return questions, nil
}

// UpdateStatus implements store.BankStore.UpdateStatus
// Returns store.ErrBankNotFound if the bank does not exist.
func (s *PostgresBankStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.BankStatus,
	questionCount int,
	errorMessage string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.IsValid() {
		return domain.ErrInvalidBankStatus
	}

	query := `
		UPDATE question_banks
		SET status = $2, question_count = $3, error_message = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		id,
		status,
		questionCount,
		errorMessage,
		time.Now().UTC(),
	)
	if err != nil {
		log.Error("failed to update bank status",
			slog.String("error", err.Error()),
			slog.String("bank_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "question bank"); err != nil {
		return store.ErrBankNotFound
	}

	log.Debug("bank status updated",
		slog.String("bank_id", id.String()),
		slog.String("status", string(status)),
		slog.Int("question_count", questionCount))
	return nil
}

// FindByFingerprint implements store.BankStore.FindByFingerprint
// Returns store.ErrBankNotFound when no bank matches.
func (s *PostgresBankStore) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.QuestionBank, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, source_file, description, fingerprint, status, question_count, error_message, created_at, updated_at
		FROM question_banks
		WHERE fingerprint = $1
	`

	bank, err := scanBank(s.db.QueryRowContext(ctx, query, fingerprint))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBankNotFound
		}
		log.Error("failed to find bank by fingerprint",
			slog.String("error", err.Error()),
			slog.String("fingerprint", fingerprint))
		return nil, MapError(err)
	}

	return bank, nil
}

// FailStale implements store.BankStore.FailStale
func (s *PostgresBankStore) FailStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE question_banks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE status IN ($4, $5) AND updated_at < $6
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(
		ctx,
		query,
		domain.BankStatusFailed,
		"abandoned after unclean shutdown",
		now,
		domain.BankStatusPending,
		domain.BankStatusProcessing,
		now.Add(-olderThan),
	)
	if err != nil {
		log.Error("failed to fail stale banks", slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected > 0 {
		log.Warn("marked stale banks as failed", slog.Int64("count", affected))
	}
	return affected, nil
}

// WithTx implements store.BankStore.WithTx
func (s *PostgresBankStore) WithTx(tx *sql.Tx) store.BankStore {
	return &PostgresBankStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts *sql.Row for scanBank.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBank(row rowScanner) (*domain.QuestionBank, error) {
	var bank domain.QuestionBank
	var status string

	err := row.Scan(
		&bank.ID,
		&bank.Name,
		&bank.SourceFile,
		&bank.Description,
		&bank.Fingerprint,
		&status,
		&bank.QuestionCount,
		&bank.ErrorMessage,
		&bank.CreatedAt,
		&bank.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	bank.Status = domain.BankStatus(status)
	return &bank, nil
}
