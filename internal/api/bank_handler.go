package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/quizforge/qbank-api/internal/api/shared"
	"github.com/quizforge/qbank-api/internal/domain"
	"github.com/quizforge/qbank-api/internal/service"
)

// CreateBankRequest represents the request body for submitting a question
// bank generation job. Exactly one of text and file_path must be set;
// cross-field validation happens in the service layer.
type CreateBankRequest struct {
	Name              string `json:"name"               validate:"required,min=1,max=200"`
	Description       string `json:"description"        validate:"max=2000"`
	Text              string `json:"text"`
	FilePath          string `json:"file_path"`
	QuestionsPerChunk int    `json:"questions_per_chunk" validate:"omitempty,min=1,max=10"`
	ChunkSize         int    `json:"chunk_size"          validate:"omitempty,min=100,max=10000"`
	ChunkOverlap      int    `json:"chunk_overlap"       validate:"omitempty,min=0,max=2000"`
}

// GenerationAcceptedResponse is returned when a generation job has been
// accepted for background processing.
type GenerationAcceptedResponse struct {
	TaskID      string `json:"task_id"`
	ProgressURL string `json:"progress_url"`
}

// BankResponse represents the response data for a question bank.
type BankResponse struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	SourceFile    string             `json:"source_file,omitempty"`
	Description   string             `json:"description,omitempty"`
	Status        string             `json:"status"`
	QuestionCount int                `json:"question_count"`
	ErrorMessage  string             `json:"error_message,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Questions     []QuestionResponse `json:"questions"`
}

// QuestionResponse represents a single generated question.
type QuestionResponse struct {
	ID               string  `json:"id"`
	Question         string  `json:"question"`
	Answer           string  `json:"answer"`
	Difficulty       int     `json:"difficulty"`
	QuestionType     string  `json:"question_type"`
	SourceChunkIndex int     `json:"source_chunk_index"`
	SourceExcerpt    string  `json:"source_excerpt,omitempty"`
	Confidence       float64 `json:"confidence"`
}

// BankHandler handles question bank HTTP requests.
type BankHandler struct {
	bankService service.BankService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(bankService service.BankService, logger *slog.Logger) *BankHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BankHandler{
		bankService: bankService,
		validator:   validator.New(),
		logger:      logger.With("component", "bank_handler"),
	}
}

// CreateBank handles POST /api/banks requests. Generation runs in the
// background; the response carries the task handle and the progress
// stream URL.
func (h *BankHandler) CreateBank(w http.ResponseWriter, r *http.Request) {
	var req CreateBankRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	sub, err := h.bankService.SubmitGeneration(r.Context(), service.SubmitRequest{
		Name:              req.Name,
		Description:       req.Description,
		Text:              req.Text,
		FilePath:          req.FilePath,
		QuestionsPerChunk: req.QuestionsPerChunk,
		ChunkSize:         req.ChunkSize,
		ChunkOverlap:      req.ChunkOverlap,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	response := GenerationAcceptedResponse{
		TaskID:      sub.TaskID.String(),
		ProgressURL: fmt.Sprintf("/api/progress/%s", sub.TaskID),
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, response)
}

// GetBank handles GET /api/banks/{id} requests.
func (h *BankHandler) GetBank(w http.ResponseWriter, r *http.Request) {
	bankID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid bank ID")
		return
	}

	result, err := h.bankService.GetBank(r.Context(), bankID)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, bankToResponse(result))
}

// CancelGeneration handles POST /api/tasks/{id}/cancel requests. The
// cancellation is cooperative; questions persisted before the task
// observes the flag are retained.
func (h *BankHandler) CancelGeneration(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := h.bankService.CancelGeneration(r.Context(), taskID); err != nil {
		shared.RespondWithErrorAndLog(
			w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// bankToResponse converts a bank with its questions to the response DTO.
func bankToResponse(result *service.BankWithQuestions) BankResponse {
	questions := make([]QuestionResponse, 0, len(result.Questions))
	for _, q := range result.Questions {
		questions = append(questions, questionToResponse(q))
	}

	bank := result.Bank
	return BankResponse{
		ID:            bank.ID.String(),
		Name:          bank.Name,
		SourceFile:    bank.SourceFile,
		Description:   bank.Description,
		Status:        string(bank.Status),
		QuestionCount: bank.QuestionCount,
		ErrorMessage:  bank.ErrorMessage,
		CreatedAt:     bank.CreatedAt,
		UpdatedAt:     bank.UpdatedAt,
		Questions:     questions,
	}
}

func questionToResponse(q *domain.Question) QuestionResponse {
	return QuestionResponse{
		ID:               q.ID.String(),
		Question:         q.Question,
		Answer:           q.Answer,
		Difficulty:       int(q.Difficulty),
		QuestionType:     string(q.Type),
		SourceChunkIndex: q.SourceChunkIndex,
		SourceExcerpt:    q.SourceExcerpt,
		Confidence:       q.Confidence,
	}
}
