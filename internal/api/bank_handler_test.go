package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/qbank-api/internal/api"
	"github.com/quizforge/qbank-api/internal/domain"
	"github.com/quizforge/qbank-api/internal/service"
)

// mockBankService implements service.BankService with configurable
// function fields.
type mockBankService struct {
	submitFn func(ctx context.Context, req service.SubmitRequest) (*service.Submission, error)
	cancelFn func(ctx context.Context, taskID uuid.UUID) error
	getFn    func(ctx context.Context, bankID uuid.UUID) (*service.BankWithQuestions, error)
}

func (m *mockBankService) SubmitGeneration(
	ctx context.Context,
	req service.SubmitRequest,
) (*service.Submission, error) {
	return m.submitFn(ctx, req)
}

func (m *mockBankService) CancelGeneration(ctx context.Context, taskID uuid.UUID) error {
	return m.cancelFn(ctx, taskID)
}

func (m *mockBankService) GetBank(
	ctx context.Context,
	bankID uuid.UUID,
) (*service.BankWithQuestions, error) {
	return m.getFn(ctx, bankID)
}

func newBankRouter(svc service.BankService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := api.NewBankHandler(svc, logger)

	r := chi.NewRouter()
	r.Post("/api/banks", handler.CreateBank)
	r.Get("/api/banks/{id}", handler.GetBank)
	r.Post("/api/tasks/{id}/cancel", handler.CancelGeneration)
	return r
}

func TestCreateBank_Accepted(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	var captured service.SubmitRequest
	svc := &mockBankService{
		submitFn: func(_ context.Context, req service.SubmitRequest) (*service.Submission, error) {
			captured = req
			return &service.Submission{TaskID: taskID}, nil
		},
	}

	body := `{"name":"Biology","text":"Cells are the basic unit of life.","questions_per_chunk":4}`
	req := httptest.NewRequest(
		http.MethodPost, "/api/banks", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	newBankRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp api.GenerationAcceptedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, taskID.String(), resp.TaskID)
	assert.Equal(t, "/api/progress/"+taskID.String(), resp.ProgressURL)

	assert.Equal(t, "Biology", captured.Name)
	assert.Equal(t, 4, captured.QuestionsPerChunk)
}

func TestCreateBank_InvalidJSON(t *testing.T) {
	t.Parallel()

	svc := &mockBankService{}
	req := httptest.NewRequest(
		http.MethodPost, "/api/banks", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()

	newBankRouter(svc).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBank_ValidationFailure(t *testing.T) {
	t.Parallel()

	svc := &mockBankService{}
	req := httptest.NewRequest(
		http.MethodPost, "/api/banks", bytes.NewBufferString(`{"text":"some text"}`))
	rec := httptest.NewRecorder()

	newBankRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Name")
}

func TestCreateBank_ServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid submission", service.ErrInvalidSubmission, http.StatusBadRequest},
		{"internal failure", errors.New("emitter exploded"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockBankService{
				submitFn: func(context.Context, service.SubmitRequest) (*service.Submission, error) {
					return nil, tc.err
				},
			}

			body := `{"name":"Banks","text":"some document text"}`
			req := httptest.NewRequest(
				http.MethodPost, "/api/banks", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()

			newBankRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			// Internal details never reach the client.
			assert.NotContains(t, rec.Body.String(), "exploded")
		})
	}
}

func TestGetBank_OK(t *testing.T) {
	t.Parallel()

	bank, err := domain.NewQuestionBank(
		"Biology", "notes.txt", "", domain.Fingerprint("some text"))
	require.NoError(t, err)
	bank.Status = domain.BankStatusCompleted
	bank.QuestionCount = 1
	bank.UpdatedAt = time.Now().UTC()

	question, err := domain.NewQuestion(
		bank.ID,
		"What is the basic structural unit of all living organisms?",
		"The cell",
		domain.DifficultyMedium,
		domain.QuestionTypeExplanation,
		0,
		0.9,
	)
	require.NoError(t, err)

	svc := &mockBankService{
		getFn: func(_ context.Context, bankID uuid.UUID) (*service.BankWithQuestions, error) {
			require.Equal(t, bank.ID, bankID)
			return &service.BankWithQuestions{
				Bank:      bank,
				Questions: []*domain.Question{question},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/banks/"+bank.ID.String(), nil)
	rec := httptest.NewRecorder()

	newBankRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.BankResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, bank.ID.String(), resp.ID)
	assert.Equal(t, string(domain.BankStatusCompleted), resp.Status)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, "The cell", resp.Questions[0].Answer)
	assert.Equal(t, 2, resp.Questions[0].Difficulty)
	assert.Equal(t, string(domain.QuestionTypeExplanation), resp.Questions[0].QuestionType)
}

func TestGetBank_NotFound(t *testing.T) {
	t.Parallel()

	svc := &mockBankService{
		getFn: func(context.Context, uuid.UUID) (*service.BankWithQuestions, error) {
			return nil, service.ErrBankNotFound
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/banks/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	newBankRouter(svc).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBank_InvalidID(t *testing.T) {
	t.Parallel()

	svc := &mockBankService{}
	req := httptest.NewRequest(http.MethodGet, "/api/banks/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	newBankRouter(svc).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelGeneration(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()
	svc := &mockBankService{
		cancelFn: func(_ context.Context, id uuid.UUID) error {
			require.Equal(t, taskID, id)
			return nil
		},
	}

	req := httptest.NewRequest(
		http.MethodPost, "/api/tasks/"+taskID.String()+"/cancel", nil)
	rec := httptest.NewRecorder()

	newBankRouter(svc).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCancelGeneration_UnknownTask(t *testing.T) {
	t.Parallel()

	svc := &mockBankService{
		cancelFn: func(context.Context, uuid.UUID) error {
			return service.ErrTaskNotFound
		},
	}

	req := httptest.NewRequest(
		http.MethodPost, "/api/tasks/"+uuid.NewString()+"/cancel", nil)
	rec := httptest.NewRecorder()

	newBankRouter(svc).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
