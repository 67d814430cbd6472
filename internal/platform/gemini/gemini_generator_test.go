package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"text/template"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/quizforge/qbank-api/internal/config"
	"github.com/quizforge/qbank-api/internal/domain"
	"github.com/quizforge/qbank-api/internal/generation"
)

// mockCaller implements modelCaller with a scripted response function.
type mockCaller struct {
	calls      int
	generateFn func(call int) (*genai.GenerateContentResponse, error)
}

func (m *mockCaller) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	m.calls++
	return m.generateFn(m.calls)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: text}},
				},
			},
		},
	}
}

func safetyBlockedResponse() *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{FinishReason: genai.FinishReasonSafety},
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGenerator(t *testing.T, caller modelCaller, cfg config.LLMConfig) *GeminiGenerator {
	t.Helper()
	tmpl := template.Must(template.New("questions").
		Parse("Generate {{.QuestionCount}} questions from: {{.ChunkText}}"))
	return &GeminiGenerator{
		logger:         testLogger(),
		config:         cfg,
		promptTemplate: tmpl,
		caller:         caller,
		model:          "test-model",
	}
}

func fastConfig() config.LLMConfig {
	return config.LLMConfig{
		MaxRetries:        3,
		RetryDelaySeconds: 1,
		PromptCharLimit:   2000,
		QuestionsPerChunk: 3,
	}
}

func writeTemplateFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewGeminiGeneratorValidation(t *testing.T) {
	ctx := context.Background()
	templatePath := writeTemplateFile(t, "{{.ChunkText}}")

	validConfig := config.LLMConfig{
		GeminiAPIKey:       "test-key",
		ModelName:          "gemini-2.0-flash",
		PromptTemplatePath: templatePath,
	}

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewGeminiGenerator(ctx, nil, validConfig)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger")
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := validConfig
		cfg.GeminiAPIKey = ""
		_, err := NewGeminiGenerator(ctx, testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing model name", func(t *testing.T) {
		cfg := validConfig
		cfg.ModelName = ""
		_, err := NewGeminiGenerator(ctx, testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing template path", func(t *testing.T) {
		cfg := validConfig
		cfg.PromptTemplatePath = ""
		_, err := NewGeminiGenerator(ctx, testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("unreadable template", func(t *testing.T) {
		cfg := validConfig
		cfg.PromptTemplatePath = filepath.Join(t.TempDir(), "missing.tmpl")
		_, err := NewGeminiGenerator(ctx, testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("malformed template", func(t *testing.T) {
		cfg := validConfig
		cfg.PromptTemplatePath = writeTemplateFile(t, "{{.ChunkText")
		_, err := NewGeminiGenerator(ctx, testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("valid config", func(t *testing.T) {
		gen, err := NewGeminiGenerator(ctx, testLogger(), validConfig)
		require.NoError(t, err)
		assert.NotNil(t, gen)
	})
}

func TestGenerateQuestionsStructured(t *testing.T) {
	caller := &mockCaller{
		generateFn: func(int) (*genai.GenerateContentResponse, error) {
			return textResponse(`{"questions": [
				{"question": "What is a sliding window?", "answer": "A bounded view over text.", "difficulty": 1, "question_type": "definition"},
				{"question": "Why keep overlap between chunks?", "answer": "To preserve sentence context.", "difficulty": 3, "question_type": "explanation"}
			]}`), nil
		},
	}

	gen := testGenerator(t, caller, fastConfig())
	bankID := uuid.New()

	questions, err := gen.GenerateQuestions(context.Background(), bankID, "some chunk text", 4, 3)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, 1, caller.calls)

	assert.Equal(t, "What is a sliding window?", questions[0].Question)
	assert.Equal(t, domain.DifficultyEasy, questions[0].Difficulty)
	assert.Equal(t, domain.QuestionTypeDefinition, questions[0].Type)
	assert.Equal(t, bankID, questions[0].BankID)
	assert.Equal(t, 4, questions[0].SourceChunkIndex)
	assert.InDelta(t, generation.StructuredConfidence, questions[0].Confidence, 1e-9)
}

func TestGenerateQuestionsCapsAtDesiredCount(t *testing.T) {
	caller := &mockCaller{
		generateFn: func(int) (*genai.GenerateContentResponse, error) {
			return textResponse(`{"questions": [
				{"question": "First question with plenty of length?", "answer": "a", "difficulty": 2, "question_type": "detail"},
				{"question": "Second question with plenty of length?", "answer": "b", "difficulty": 2, "question_type": "detail"},
				{"question": "Third question with plenty of length?", "answer": "c", "difficulty": 2, "question_type": "detail"}
			]}`), nil
		},
	}

	gen := testGenerator(t, caller, fastConfig())
	questions, err := gen.GenerateQuestions(context.Background(), uuid.New(), "chunk", 0, 2)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestGenerateQuestionsDropsInvalidRecords(t *testing.T) {
	caller := &mockCaller{
		generateFn: func(int) (*genai.GenerateContentResponse, error) {
			return textResponse(`{"questions": [
				{"question": "short", "answer": "too short to accept", "difficulty": 2, "question_type": "detail"},
				{"question": "What survives validation in this batch?", "answer": "This one.", "difficulty": 9, "question_type": "riddle"}
			]}`), nil
		},
	}

	gen := testGenerator(t, caller, fastConfig())
	questions, err := gen.GenerateQuestions(context.Background(), uuid.New(), "chunk", 0, 3)
	require.NoError(t, err)
	require.Len(t, questions, 1)

	// Out-of-range difficulty and unknown type are normalized, not dropped.
	assert.Equal(t, domain.DifficultyMedium, questions[0].Difficulty)
	assert.Equal(t, domain.QuestionTypeExplanation, questions[0].Type)
}

func TestGenerateQuestionsHeuristicFallback(t *testing.T) {
	caller := &mockCaller{
		generateFn: func(int) (*genai.GenerateContentResponse, error) {
			return textResponse("1. What happens when JSON output is damaged?\n2. How are questions still recovered here?"), nil
		},
	}

	gen := testGenerator(t, caller, fastConfig())
	questions, err := gen.GenerateQuestions(context.Background(), uuid.New(), "chunk", 0, 3)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, heuristicAnswer, questions[0].Answer)
	assert.InDelta(t, generation.HeuristicConfidence, questions[0].Confidence, 1e-9)
	assert.Equal(t, domain.DifficultyMedium, questions[0].Difficulty)
}

func TestGenerateQuestionsSafetyBlockNotRetried(t *testing.T) {
	caller := &mockCaller{
		generateFn: func(int) (*genai.GenerateContentResponse, error) {
			return safetyBlockedResponse(), nil
		},
	}

	gen := testGenerator(t, caller, fastConfig())
	_, err := gen.GenerateQuestions(context.Background(), uuid.New(), "chunk", 0, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrContentBlocked)
	assert.Equal(t, 1, caller.calls)
}

func TestGenerateQuestionsExhaustsRetries(t *testing.T) {
	caller := &mockCaller{
		generateFn: func(int) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("transport exploded")
		},
	}

	gen := testGenerator(t, caller, fastConfig())
	_, err := gen.GenerateQuestions(context.Background(), uuid.New(), "chunk", 0, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)
	assert.Equal(t, 3, caller.calls)
}

func TestGenerateQuestionsRetriesMalformedOutput(t *testing.T) {
	caller := &mockCaller{
		generateFn: func(call int) (*genai.GenerateContentResponse, error) {
			if call < 3 {
				return textResponse("nothing question-like in this reply"), nil
			}
			return textResponse(`{"questions": [
				{"question": "Did the retry finally succeed here?", "answer": "Yes.", "difficulty": 2, "question_type": "detail"}
			]}`), nil
		},
	}

	gen := testGenerator(t, caller, fastConfig())
	questions, err := gen.GenerateQuestions(context.Background(), uuid.New(), "chunk", 0, 3)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
	assert.Equal(t, 3, caller.calls)
}

func TestGenerateQuestionsEmptyChunk(t *testing.T) {
	gen := testGenerator(t, &mockCaller{}, fastConfig())
	_, err := gen.GenerateQuestions(context.Background(), uuid.New(), "   ", 0, 3)
	assert.ErrorIs(t, err, ErrEmptyChunkText)
}

func TestGenerateQuestionsCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	caller := &mockCaller{
		generateFn: func(call int) (*genai.GenerateContentResponse, error) {
			if call == 1 {
				cancel()
			}
			return nil, errors.New("transport exploded")
		},
	}

	gen := testGenerator(t, caller, fastConfig())
	_, err := gen.GenerateQuestions(ctx, uuid.New(), "chunk", 0, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 1, caller.calls)
}
