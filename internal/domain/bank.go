package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BankStatus represents the processing state of a question bank.
type BankStatus string

// Possible bank status values
const (
	BankStatusPending    BankStatus = "pending"
	BankStatusProcessing BankStatus = "processing"
	BankStatusCompleted  BankStatus = "completed"
	BankStatusFailed     BankStatus = "failed"
	BankStatusCancelled  BankStatus = "cancelled"
)

// Common validation errors for QuestionBank
var (
	ErrEmptyBankID          = errors.New("bank ID cannot be empty")
	ErrEmptyBankName        = errors.New("bank name cannot be empty")
	ErrEmptyBankFingerprint = errors.New("bank fingerprint cannot be empty")
	ErrInvalidBankStatus    = errors.New("invalid bank status")
)

// QuestionBank represents one generated question bank: the persistent
// record created for a document submission. It tracks the submission
// metadata, the content fingerprint used for duplicate detection, and
// the processing state.
type QuestionBank struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	SourceFile    string     `json:"source_file,omitempty"`
	Description   string     `json:"description,omitempty"`
	Fingerprint   string     `json:"fingerprint"`
	Status        BankStatus `json:"status"`
	QuestionCount int        `json:"question_count"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewQuestionBank creates a new QuestionBank with the given name and
// content fingerprint. It generates a new UUID, sets the status to
// pending, and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewQuestionBank(name, sourceFile, description, fingerprint string) (*QuestionBank, error) {
	bank := &QuestionBank{
		ID:          uuid.New(),
		Name:        name,
		SourceFile:  sourceFile,
		Description: description,
		Fingerprint: fingerprint,
		Status:      BankStatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := bank.Validate(); err != nil {
		return nil, err
	}

	return bank, nil
}

// Validate checks if the QuestionBank has valid data.
// Returns an error if any field fails validation.
func (b *QuestionBank) Validate() error {
	if b.ID == uuid.Nil {
		return ErrEmptyBankID
	}

	if b.Name == "" {
		return ErrEmptyBankName
	}

	if b.Fingerprint == "" {
		return ErrEmptyBankFingerprint
	}

	if !b.Status.IsValid() {
		return ErrInvalidBankStatus
	}

	return nil
}

// UpdateStatus updates the bank's status and the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (b *QuestionBank) UpdateStatus(status BankStatus) error {
	if !status.IsValid() {
		return ErrInvalidBankStatus
	}

	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// IsValid reports whether s is a recognized BankStatus.
func (s BankStatus) IsValid() bool {
	switch s {
	case BankStatusPending, BankStatusProcessing, BankStatusCompleted,
		BankStatusFailed, BankStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s ends a bank's lifecycle.
func (s BankStatus) IsTerminal() bool {
	return s == BankStatusCompleted || s == BankStatusFailed || s == BankStatusCancelled
}
