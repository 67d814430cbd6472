package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/quizforge/qbank-api/internal/config"
	"github.com/quizforge/qbank-api/internal/domain"
	"github.com/quizforge/qbank-api/internal/generation"
	"google.golang.org/genai"
)

// heuristicAnswer is attached to questions recovered by line-based
// extraction, which yields no answer text of its own.
const heuristicAnswer = "Refer to the source text for this chunk."

// defaultPromptCharLimit bounds inlined chunk text when no limit is
// configured.
const defaultPromptCharLimit = 2000

// Compile-time check that GeminiGenerator satisfies the interface the
// task layer depends on.
var _ generation.Generator = (*GeminiGenerator)(nil)

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to generate questions from chunk text.
type GeminiGenerator struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// caller issues requests against the Gemini API
	caller modelCaller

	// model is the name of the Gemini model to use
	model string
}

// NewGeminiGenerator creates a new instance of GeminiGenerator with the provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - config: LLM configuration containing API key, model name, and other settings
//
// Returns:
//   - A properly initialized GeminiGenerator or an error if initialization fails
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	// Validate configuration
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.PromptTemplatePath == "" {
		return nil, fmt.Errorf("%w: prompt template path cannot be empty", generation.ErrInvalidConfig)
	}

	// Load and parse prompt template
	templateContent, err := os.ReadFile(cfg.PromptTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
			generation.ErrInvalidConfig, cfg.PromptTemplatePath, err)
	}

	promptTemplate, err := template.New("questions").Parse(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	generator := &GeminiGenerator{
		logger:         logger,
		config:         cfg,
		promptTemplate: promptTemplate,
		caller:         client.Models,
		model:          cfg.ModelName,
	}

	return generator, nil
}

// GenerateQuestions creates questions for the given chunk text.
//
// The chunk text is truncated to the configured prompt character limit,
// rendered into the prompt template, and sent to the Gemini API with
// retry. Structured output is decoded into validated domain questions;
// output whose structure is damaged falls back to line-based extraction
// at reduced confidence. The method returns an error wrapping
// generation.ErrGenerationFailed once all attempts are exhausted, or
// generation.ErrContentBlocked immediately when safety filters reject
// the chunk.
func (g *GeminiGenerator) GenerateQuestions(
	ctx context.Context,
	bankID uuid.UUID,
	chunkText string,
	chunkIndex int,
	desiredCount int,
) ([]*domain.Question, error) {
	if bankID == uuid.Nil {
		return nil, errors.New("bank ID cannot be empty")
	}

	if strings.TrimSpace(chunkText) == "" {
		return nil, ErrEmptyChunkText
	}

	if desiredCount <= 0 {
		desiredCount = g.config.QuestionsPerChunk
	}

	prompt, err := g.createPrompt(ctx, chunkText, desiredCount)
	if err != nil {
		return nil, err
	}

	return g.callWithRetry(ctx, prompt, bankID, chunkIndex, desiredCount)
}

// createPrompt renders the prompt template with the chunk text and the
// requested question count. Chunk text beyond the configured character
// limit is dropped before rendering.
func (g *GeminiGenerator) createPrompt(ctx context.Context, chunkText string, desiredCount int) (string, error) {
	limit := g.config.PromptCharLimit
	if limit <= 0 {
		limit = defaultPromptCharLimit
	}

	if runes := []rune(chunkText); len(runes) > limit {
		g.logger.DebugContext(ctx, "Truncating chunk text for prompt",
			"chunk_runes", len(runes),
			"limit", limit)
		chunkText = string(runes[:limit])
	}

	data := promptData{
		ChunkText:     chunkText,
		QuestionCount: desiredCount,
	}

	var promptBuffer bytes.Buffer
	if err := g.promptTemplate.Execute(&promptBuffer, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return promptBuffer.String(), nil
}

// callWithRetry makes calls to the Gemini API with exponential backoff.
//
// Transport failures and unparseable output are both treated as
// transient and retried; a fresh attempt can yield well-formed output
// where the previous one did not. Safety-filter blocks are permanent
// and returned immediately. maxRetries counts total attempts.
func (g *GeminiGenerator) callWithRetry(
	ctx context.Context,
	prompt string,
	bankID uuid.UUID,
	chunkIndex int,
	desiredCount int,
) ([]*domain.Question, error) {
	maxRetries := g.config.MaxRetries
	baseDelaySeconds := g.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 1 {
		g.logger.WarnContext(ctx, "Invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}

	if baseDelaySeconds < 1 {
		g.logger.WarnContext(ctx, "Invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		g.logger.InfoContext(ctx, "Making Gemini API call",
			"attempt", attempt,
			"max_attempts", maxRetries,
			"chunk_index", chunkIndex)

		questions, err := g.callOnce(ctx, prompt, bankID, chunkIndex, desiredCount)
		if err == nil {
			g.logger.InfoContext(ctx, "Gemini API call successful",
				"attempt", attempt,
				"question_count", len(questions))
			return questions, nil
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attempt,
			"error", err)

		// Safety blocks cannot resolve on retry.
		if errors.Is(err, generation.ErrContentBlocked) {
			return nil, err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}

		if attempt >= maxRetries {
			break
		}

		// delay = baseDelay * (2^(attempt-1)) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt-1))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		g.logger.InfoContext(ctx, "Retrying after delay",
			"attempt", attempt,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			g.logger.WarnContext(ctx, "API call cancelled during retry delay",
				"attempt", attempt,
				"ctx_err", ctx.Err())
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
		generation.ErrGenerationFailed, maxRetries)
}

// callOnce performs a single API call and converts its output into
// domain questions.
func (g *GeminiGenerator) callOnce(
	ctx context.Context,
	prompt string,
	bankID uuid.UUID,
	chunkIndex int,
	desiredCount int,
) ([]*domain.Question, error) {
	resp, err := g.caller.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	switch outcome := generation.Parse(text).(type) {
	case generation.StructuredResult:
		questions := g.questionsFromRecords(ctx, outcome.Records, bankID, chunkIndex, desiredCount)
		if len(questions) == 0 {
			return nil, fmt.Errorf("%w: no record passed validation", generation.ErrInvalidResponse)
		}
		return questions, nil

	case generation.HeuristicResult:
		questions := g.questionsFromLines(ctx, outcome.Questions, bankID, chunkIndex, desiredCount)
		if len(questions) == 0 {
			return nil, fmt.Errorf("%w: no extracted question passed validation", generation.ErrInvalidResponse)
		}
		return questions, nil

	case generation.ParseFailure:
		return nil, outcome.Err

	default:
		return nil, fmt.Errorf("%w: unexpected parse outcome %T", generation.ErrInvalidResponse, outcome)
	}
}

// responseText extracts the concatenated text parts of the first
// candidate, surfacing safety blocks and empty responses as errors.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: chunk rejected by safety filters", generation.ErrContentBlocked)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: no text parts in response", generation.ErrInvalidResponse)
	}

	return sb.String(), nil
}

// questionsFromRecords converts structured records into validated domain
// questions at full confidence. Records that fail domain validation are
// logged and dropped rather than failing the whole batch.
func (g *GeminiGenerator) questionsFromRecords(
	ctx context.Context,
	records []generation.QuestionRecord,
	bankID uuid.UUID,
	chunkIndex int,
	desiredCount int,
) []*domain.Question {
	questions := make([]*domain.Question, 0, len(records))
	for i, rec := range records {
		if len(questions) >= desiredCount {
			break
		}

		qType := domain.QuestionType(strings.ToLower(strings.TrimSpace(rec.Type)))
		question, err := domain.NewQuestion(
			bankID,
			strings.TrimSpace(rec.Question),
			strings.TrimSpace(rec.Answer),
			domain.Difficulty(rec.Difficulty),
			qType,
			chunkIndex,
			generation.StructuredConfidence,
		)
		if err != nil {
			g.logger.WarnContext(ctx, "Dropping invalid question record",
				"record_index", i,
				"chunk_index", chunkIndex,
				"error", err)
			continue
		}

		questions = append(questions, question)
	}

	return questions
}

// questionsFromLines converts heuristically extracted question texts
// into domain questions at reduced confidence with default grading.
func (g *GeminiGenerator) questionsFromLines(
	ctx context.Context,
	lines []string,
	bankID uuid.UUID,
	chunkIndex int,
	desiredCount int,
) []*domain.Question {
	questions := make([]*domain.Question, 0, len(lines))
	for i, line := range lines {
		if len(questions) >= desiredCount {
			break
		}

		question, err := domain.NewQuestion(
			bankID,
			line,
			heuristicAnswer,
			domain.DifficultyMedium,
			domain.QuestionTypeExplanation,
			chunkIndex,
			generation.HeuristicConfidence,
		)
		if err != nil {
			g.logger.WarnContext(ctx, "Dropping invalid extracted question",
				"line_index", i,
				"chunk_index", chunkIndex,
				"error", err)
			continue
		}

		questions = append(questions, question)
	}

	return questions
}
