package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructuredResponse(t *testing.T) {
	raw := `{"questions": [
		{"question": "What is backoff?", "answer": "Waiting longer between retries.", "difficulty": 2, "question_type": "definition"},
		{"question": "Why does overlap matter?", "answer": "It preserves context.", "difficulty": 3, "question_type": "explanation"}
	]}`

	outcome := Parse(raw)
	result, ok := outcome.(StructuredResult)
	require.True(t, ok, "expected a StructuredResult, got %T", outcome)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "What is backoff?", result.Records[0].Question)
	assert.Equal(t, 2, result.Records[0].Difficulty)
	assert.Equal(t, "definition", result.Records[0].Type)
}

func TestParseStructuredInsideMarkdownFence(t *testing.T) {
	raw := "Here you go:\n```json\n{\"questions\": [{\"question\": \"What is a chunk?\", \"answer\": \"A bounded slice.\", \"difficulty\": 1, \"question_type\": \"definition\"}]}\n```\nHope that helps!"

	outcome := Parse(raw)
	result, ok := outcome.(StructuredResult)
	require.True(t, ok, "expected a StructuredResult, got %T", outcome)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "What is a chunk?", result.Records[0].Question)
}

func TestParseStructuredInsideBareFence(t *testing.T) {
	raw := "```\n{\"questions\": [{\"question\": \"What does a sweeper remove?\", \"answer\": \"Idle tasks.\", \"difficulty\": 2, \"question_type\": \"detail\"}]}\n```"

	outcome := Parse(raw)
	result, ok := outcome.(StructuredResult)
	require.True(t, ok, "expected a StructuredResult, got %T", outcome)
	require.Len(t, result.Records, 1)
}

func TestParseHeuristicFallback(t *testing.T) {
	// Truncated structure followed by a few numbered lines: the
	// heuristic pass should still recover the questions.
	raw := `{"questions": [{"question": "broken
1. What mechanisms ensure ordered delivery of events?
2. How does the sliding window preserve sentence context?
Q: Why are per-chunk failures skipped instead of fatal?
3. short
`

	outcome := Parse(raw)
	result, ok := outcome.(HeuristicResult)
	require.True(t, ok, "expected a HeuristicResult, got %T", outcome)

	assert.Contains(t, result.Questions, "What mechanisms ensure ordered delivery of events?")
	assert.Contains(t, result.Questions, "How does the sliding window preserve sentence context?")
	assert.Contains(t, result.Questions, "Why are per-chunk failures skipped instead of fatal?")
	assert.NotContains(t, result.Questions, "short")
}

func TestParseFailure(t *testing.T) {
	outcome := Parse("the model replied with nothing useful at all")
	failure, ok := outcome.(ParseFailure)
	require.True(t, ok, "expected a ParseFailure, got %T", outcome)
	assert.ErrorIs(t, failure.Err, ErrInvalidResponse)
}

func TestParseEmptyQuestionListFallsThrough(t *testing.T) {
	outcome := Parse(`{"questions": []}`)
	_, ok := outcome.(ParseFailure)
	assert.True(t, ok, "empty question list should not count as structured output")
}

func TestParseDeduplicatesHeuristicQuestions(t *testing.T) {
	raw := "1. What is deduplication good for exactly?\n2. What is deduplication good for exactly?"

	outcome := Parse(raw)
	result, ok := outcome.(HeuristicResult)
	require.True(t, ok)
	assert.Len(t, result.Questions, 1)
}
