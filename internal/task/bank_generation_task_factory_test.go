package task

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/qbank-api/internal/config"
)

func newTestFactory(t *testing.T, f *taskFixture) *BankGenerationTaskFactory {
	t.Helper()
	segCfg := config.SegmentConfig{TargetSize: 500, OverlapSize: 100, MinSize: 100}
	return NewBankGenerationTaskFactory(
		f.reader, segCfg, f.generator, f.store, f.broker, nil, 3, taskLogger())
}

func TestCreateTask_Defaults(t *testing.T) {
	f := newTaskFixture(t, longText(600))
	factory := newTestFactory(t, f)

	created, err := factory.CreateTask(f.params)
	require.NoError(t, err)

	bt, ok := created.(*BankGenerationTask)
	require.True(t, ok)
	assert.Equal(t, f.params.TaskID, bt.ID())
}

func TestCreateTask_AppliesQuestionCountDefault(t *testing.T) {
	f := newTaskFixture(t, longText(600))
	factory := newTestFactory(t, f)

	params := f.params
	params.QuestionsPerChunk = 0

	created, err := factory.CreateTask(params)
	require.NoError(t, err)

	bt := created.(*BankGenerationTask)
	assert.Equal(t, 3, bt.params.QuestionsPerChunk)
}

func TestCreateTask_ChunkOverrides(t *testing.T) {
	f := newTaskFixture(t, longText(600))
	factory := newTestFactory(t, f)

	params := f.params
	params.ChunkSize = 300
	params.ChunkOverlap = 50

	_, err := factory.CreateTask(params)
	assert.NoError(t, err)
}

func TestCreateTask_RejectsImpossibleChunking(t *testing.T) {
	f := newTaskFixture(t, longText(600))
	factory := newTestFactory(t, f)

	params := f.params
	// Overlap falls back to the configured 100, which cannot fit a
	// 50-rune window.
	params.ChunkSize = 50

	_, err := factory.CreateTask(params)
	assert.ErrorIs(t, err, ErrBadParams)
}

func TestCreateTask_InvalidParams(t *testing.T) {
	f := newTaskFixture(t, longText(600))
	factory := newTestFactory(t, f)

	params := f.params
	params.TaskID = uuid.Nil

	_, err := factory.CreateTask(params)
	assert.Error(t, err)
}
