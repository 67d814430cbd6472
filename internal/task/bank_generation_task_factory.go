package task

import (
	"fmt"
	"log/slog"

	"github.com/quizforge/qbank-api/internal/config"
	"github.com/quizforge/qbank-api/internal/progress"
	"github.com/quizforge/qbank-api/internal/segment"
	"github.com/quizforge/qbank-api/internal/store"
)

// BankGenerationTaskFactory creates BankGenerationTask instances with a
// fixed set of collaborators, leaving only the per-submission
// parameters to the caller.
type BankGenerationTaskFactory struct {
	reader            DocumentReader
	segmentConfig     config.SegmentConfig
	generator         Generator
	bankStore         store.BankStore
	broker            *progress.Broker
	pacer             Pacer
	questionsPerChunk int
	logger            *slog.Logger
}

// NewBankGenerationTaskFactory creates a new factory for BankGenerationTasks.
// segmentConfig supplies the default chunking parameters; submissions
// may override the chunk size and overlap per request.
func NewBankGenerationTaskFactory(
	reader DocumentReader,
	segmentConfig config.SegmentConfig,
	generator Generator,
	bankStore store.BankStore,
	broker *progress.Broker,
	pacer Pacer,
	questionsPerChunk int,
	logger *slog.Logger,
) *BankGenerationTaskFactory {
	return &BankGenerationTaskFactory{
		reader:            reader,
		segmentConfig:     segmentConfig,
		generator:         generator,
		bankStore:         bankStore,
		broker:            broker,
		pacer:             pacer,
		questionsPerChunk: questionsPerChunk,
		logger:            logger.With("component", "bank_generation_task_factory"),
	}
}

// CreateTask creates a new BankGenerationTask for the given parameters.
func (f *BankGenerationTaskFactory) CreateTask(params BankGenerationParams) (Task, error) {
	if params.QuestionsPerChunk <= 0 {
		params.QuestionsPerChunk = f.questionsPerChunk
	}

	targetSize := f.segmentConfig.TargetSize
	overlapSize := f.segmentConfig.OverlapSize
	if params.ChunkSize > 0 {
		targetSize = params.ChunkSize
	}
	if params.ChunkOverlap > 0 {
		overlapSize = params.ChunkOverlap
	}

	segmenter, err := segment.NewSegmenter(targetSize, overlapSize, f.segmentConfig.MinSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadParams, err)
	}

	return NewBankGenerationTask(
		params,
		f.reader,
		segmenter,
		f.generator,
		f.bankStore,
		f.broker,
		f.pacer,
		f.logger,
	)
}
