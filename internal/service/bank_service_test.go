package service_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/qbank-api/internal/domain"
	"github.com/quizforge/qbank-api/internal/events"
	"github.com/quizforge/qbank-api/internal/progress"
	"github.com/quizforge/qbank-api/internal/service"
	"github.com/quizforge/qbank-api/internal/store"
	"github.com/quizforge/qbank-api/internal/task"
)

// mockEmitter captures emitted events and can be configured to fail.
type mockEmitter struct {
	events  []*events.TaskRequestEvent
	emitErr error
}

func (m *mockEmitter) EmitEvent(_ context.Context, event *events.TaskRequestEvent) error {
	if m.emitErr != nil {
		return m.emitErr
	}
	m.events = append(m.events, event)
	return nil
}

// stubBankStore satisfies store.BankStore for tests that never touch
// persistence.
type stubBankStore struct{}

func (stubBankStore) Create(context.Context, *domain.QuestionBank) error { return nil }
func (stubBankStore) GetByID(context.Context, uuid.UUID) (*domain.QuestionBank, error) {
	return nil, store.ErrBankNotFound
}
func (stubBankStore) AddQuestion(context.Context, *domain.Question) error { return nil }
func (stubBankStore) GetQuestions(context.Context, uuid.UUID) ([]*domain.Question, error) {
	return nil, nil
}
func (stubBankStore) UpdateStatus(context.Context, uuid.UUID, domain.BankStatus, int, string) error {
	return nil
}
func (stubBankStore) FindByFingerprint(context.Context, string) (*domain.QuestionBank, error) {
	return nil, store.ErrBankNotFound
}
func (stubBankStore) FailStale(context.Context, time.Duration) (int64, error) { return 0, nil }
func (s stubBankStore) WithTx(*sql.Tx) store.BankStore                        { return s }

type serviceFixture struct {
	broker  *progress.Broker
	emitter *mockEmitter
	service service.BankService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := progress.NewBroker(logger, 10)
	emitter := &mockEmitter{}

	svc, err := service.NewBankService(&sql.DB{}, stubBankStore{}, broker, emitter, logger, 3)
	require.NoError(t, err)

	return &serviceFixture{broker: broker, emitter: emitter, service: svc}
}

func TestNewBankService_Validation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := progress.NewBroker(logger, 10)
	emitter := &mockEmitter{}
	db := &sql.DB{}

	tests := []struct {
		name    string
		db      *sql.DB
		store   store.BankStore
		tasks   service.TaskDirectory
		emitter events.EventEmitter
		logger  *slog.Logger
	}{
		{"nil db", nil, stubBankStore{}, broker, emitter, logger},
		{"nil store", db, nil, broker, emitter, logger},
		{"nil tasks", db, stubBankStore{}, nil, emitter, logger},
		{"nil emitter", db, stubBankStore{}, broker, nil, logger},
		{"nil logger", db, stubBankStore{}, broker, emitter, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.NewBankService(tc.db, tc.store, tc.tasks, tc.emitter, tc.logger, 3)
			require.Error(t, err)

			var svcErr *service.BankServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, "initialization", svcErr.Operation)
		})
	}
}

func TestSubmitGeneration_EmitsTaskRequest(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	sub, err := f.service.SubmitGeneration(context.Background(), service.SubmitRequest{
		Name:              "  Biology 101  ",
		Description:       "cell structure",
		Text:              "Mitochondria are the powerhouse of the cell.",
		QuestionsPerChunk: 5,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, sub.TaskID)

	require.Len(t, f.emitter.events, 1)
	event := f.emitter.events[0]
	assert.Equal(t, task.TaskTypeBankGeneration, event.Type)

	var params task.BankGenerationParams
	require.NoError(t, event.UnmarshalPayload(&params))
	assert.Equal(t, sub.TaskID, params.TaskID)
	assert.Equal(t, "Biology 101", params.Name)
	assert.Equal(t, "cell structure", params.Description)
	assert.Equal(t, 5, params.QuestionsPerChunk)
	assert.Empty(t, params.FilePath)

	// The returned handle must be live in the broker so clients can
	// subscribe immediately.
	_, err = f.broker.Subscribe(sub.TaskID)
	assert.NoError(t, err)
}

func TestSubmitGeneration_DefaultsQuestionCount(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	sub, err := f.service.SubmitGeneration(context.Background(), service.SubmitRequest{
		Name:     "History",
		FilePath: "/docs/history.txt",
	})
	require.NoError(t, err)

	var params task.BankGenerationParams
	require.NoError(t, f.emitter.events[0].UnmarshalPayload(&params))
	assert.Equal(t, sub.TaskID, params.TaskID)
	assert.Equal(t, 3, params.QuestionsPerChunk)
	assert.Equal(t, "/docs/history.txt", params.FilePath)
}

func TestSubmitGeneration_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  service.SubmitRequest
	}{
		{"missing name", service.SubmitRequest{Text: "some text"}},
		{"no source", service.SubmitRequest{Name: "Banks"}},
		{
			"both sources",
			service.SubmitRequest{Name: "Banks", Text: "text", FilePath: "/tmp/doc.txt"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newServiceFixture(t)

			_, err := f.service.SubmitGeneration(context.Background(), tc.req)
			assert.ErrorIs(t, err, service.ErrInvalidSubmission)
			assert.Empty(t, f.emitter.events)
		})
	}
}

func TestSubmitGeneration_EmitFailure(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.emitter.emitErr = errors.New("emitter unavailable")

	_, err := f.service.SubmitGeneration(context.Background(), service.SubmitRequest{
		Name: "Physics",
		Text: "Force equals mass times acceleration.",
	})
	require.Error(t, err)

	var svcErr *service.BankServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "submit generation", svcErr.Operation)
}

func TestCancelGeneration(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	sub, err := f.service.SubmitGeneration(context.Background(), service.SubmitRequest{
		Name: "Chemistry",
		Text: "The mole is a unit of amount of substance.",
	})
	require.NoError(t, err)

	require.NoError(t, f.service.CancelGeneration(context.Background(), sub.TaskID))
	assert.True(t, f.broker.IsCancelled(sub.TaskID))
}

func TestCancelGeneration_UnknownTask(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	err := f.service.CancelGeneration(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrTaskNotFound)
}
