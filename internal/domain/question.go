package domain

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Difficulty is the difficulty grade assigned to a generated question.
type Difficulty int

// Recognized difficulty grades. The numeric values match what the
// generation service is instructed to emit (1=easy, 2=medium, 3=hard).
const (
	DifficultyEasy   Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyHard   Difficulty = 3
)

// IsValid reports whether d is a recognized difficulty grade.
func (d Difficulty) IsValid() bool {
	return d >= DifficultyEasy && d <= DifficultyHard
}

// String returns a human-readable name for the difficulty grade.
func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return "unknown"
	}
}

// QuestionType categorizes a generated question.
type QuestionType string

// Recognized question types.
const (
	QuestionTypeDefinition  QuestionType = "definition"
	QuestionTypeDetail      QuestionType = "detail"
	QuestionTypeComparison  QuestionType = "comparison"
	QuestionTypeExplanation QuestionType = "explanation"
	QuestionTypeApplication QuestionType = "application"
	QuestionTypeAnalysis    QuestionType = "analysis"
)

// IsValid reports whether t is a recognized question type.
func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionTypeDefinition, QuestionTypeDetail, QuestionTypeComparison,
		QuestionTypeExplanation, QuestionTypeApplication, QuestionTypeAnalysis:
		return true
	default:
		return false
	}
}

// Question length bounds enforced during validation, counted in runes
// so CJK text is measured the same as Latin text.
const (
	MinQuestionLength = 10
	MaxQuestionLength = 500
)

// Common validation errors for Question
var (
	ErrEmptyQuestionID     = errors.New("question ID cannot be empty")
	ErrEmptyQuestionBankID = errors.New("question bank ID cannot be empty")
	ErrEmptyQuestionText   = errors.New("question text cannot be empty")
	ErrQuestionTextLength  = errors.New("question text length out of bounds")
	ErrInvalidConfidence   = errors.New("confidence must be between 0 and 1")
)

// Question is one generated question/answer pair, attributed to the
// chunk of source text it was generated from. Questions are validated
// before acceptance and never mutated after persistence.
type Question struct {
	ID               uuid.UUID    `json:"id"`
	BankID           uuid.UUID    `json:"bank_id"`
	Question         string       `json:"question"`
	Answer           string       `json:"answer"`
	Difficulty       Difficulty   `json:"difficulty"`
	Type             QuestionType `json:"type"`
	SourceChunkIndex int          `json:"source_chunk_index"`
	SourceExcerpt    string       `json:"source_excerpt,omitempty"`
	Confidence       float64      `json:"confidence"`
	CreatedAt        time.Time    `json:"created_at"`
}

// MaxSourceExcerptLength bounds the reference excerpt of the source
// chunk kept alongside each answer, counted in runes.
const MaxSourceExcerptLength = 500

// ExcerptSource returns a bounded reference excerpt of a source chunk.
// Content longer than MaxSourceExcerptLength runes is truncated with a
// trailing ellipsis.
func ExcerptSource(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxSourceExcerptLength {
		return content
	}
	return string(runes[:MaxSourceExcerptLength]) + "..."
}

// NewQuestion creates a validated Question owned by the given bank.
// Out-of-range difficulty and unrecognized types are normalized rather
// than rejected; an empty or out-of-bounds question text is an error.
func NewQuestion(
	bankID uuid.UUID,
	text, answer string,
	difficulty Difficulty,
	qType QuestionType,
	sourceChunkIndex int,
	confidence float64,
) (*Question, error) {
	if !difficulty.IsValid() {
		difficulty = DifficultyMedium
	}
	if !qType.IsValid() {
		qType = QuestionTypeExplanation
	}

	q := &Question{
		ID:               uuid.New(),
		BankID:           bankID,
		Question:         text,
		Answer:           answer,
		Difficulty:       difficulty,
		Type:             qType,
		SourceChunkIndex: sourceChunkIndex,
		Confidence:       confidence,
		CreatedAt:        time.Now().UTC(),
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}

	return q, nil
}

// Validate checks if the Question has valid data.
// Returns an error if any field fails validation.
func (q *Question) Validate() error {
	if q.ID == uuid.Nil {
		return ErrEmptyQuestionID
	}

	if q.BankID == uuid.Nil {
		return ErrEmptyQuestionBankID
	}

	if q.Question == "" {
		return ErrEmptyQuestionText
	}

	if n := utf8.RuneCountInString(q.Question); n < MinQuestionLength || n > MaxQuestionLength {
		return ErrQuestionTextLength
	}

	if q.Confidence < 0 || q.Confidence > 1 {
		return ErrInvalidConfidence
	}

	return nil
}
