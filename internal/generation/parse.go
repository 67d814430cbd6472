package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Confidence scores attached to questions depending on how their
// records were recovered from the model output.
const (
	StructuredConfidence = 0.9
	HeuristicConfidence  = 0.7
)

// minHeuristicQuestionLen filters out fragments the line-based
// extraction would otherwise pick up.
const minHeuristicQuestionLen = 10

// QuestionRecord is one structured record decoded from the model's
// JSON output.
type QuestionRecord struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty int    `json:"difficulty"`
	Type       string `json:"question_type"`
}

// ParseOutcome is the tagged result of decoding a model response:
// exactly one of StructuredResult, HeuristicResult, or ParseFailure.
type ParseOutcome interface {
	parseOutcome()
}

// StructuredResult holds records decoded from well-formed JSON output.
type StructuredResult struct {
	Records []QuestionRecord
}

// HeuristicResult holds question texts recovered line-by-line from
// output whose structure could not be decoded. Answers are absent and
// confidence is reduced.
type HeuristicResult struct {
	Questions []string
}

// ParseFailure indicates the response yielded nothing usable.
type ParseFailure struct {
	Err error
}

func (StructuredResult) parseOutcome() {}
func (HeuristicResult) parseOutcome()  {}
func (ParseFailure) parseOutcome()     {}

// responseEnvelope matches the JSON shape the prompt instructs the
// model to emit.
type responseEnvelope struct {
	Questions []QuestionRecord `json:"questions"`
}

var (
	numberedLineRe = regexp.MustCompile(`(?m)^\s*\d+[.。、)]\s*(.+)$`)
	markedLineRe   = regexp.MustCompile(`(?m)^\s*(?:Q|问题)[:：]\s*(.+)$`)
)

// Parse decodes a raw model response into a ParseOutcome.
//
// The structured section is located first: markdown code fences are
// stripped and the outermost JSON object extracted before decoding. If
// decoding fails, a heuristic pass extracts question-like lines
// (numbered lines, explicit "Q:" markers) instead. Only when both
// passes come up empty is a ParseFailure returned.
func Parse(raw string) ParseOutcome {
	jsonText := extractJSON(raw)
	if jsonText != "" {
		var envelope responseEnvelope
		if err := json.Unmarshal([]byte(jsonText), &envelope); err == nil && len(envelope.Questions) > 0 {
			return StructuredResult{Records: envelope.Questions}
		}
	}

	if questions := extractHeuristicQuestions(raw); len(questions) > 0 {
		return HeuristicResult{Questions: questions}
	}

	return ParseFailure{Err: fmt.Errorf("%w: no structured section or question-like lines found", ErrInvalidResponse)}
}

// extractJSON strips incidental markdown fencing and returns the
// outermost JSON object in raw, or "" when none exists.
func extractJSON(raw string) string {
	text := raw

	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// extractHeuristicQuestions pulls question-like lines out of free-form
// output: numbered lines and lines with an explicit question marker.
func extractHeuristicQuestions(raw string) []string {
	var questions []string
	seen := make(map[string]bool)

	for _, re := range []*regexp.Regexp{markedLineRe, numberedLineRe} {
		for _, match := range re.FindAllStringSubmatch(raw, -1) {
			q := strings.TrimSpace(match[1])
			if len([]rune(q)) <= minHeuristicQuestionLen || seen[q] {
				continue
			}
			seen[q] = true
			questions = append(questions, q)
		}
	}

	return questions
}
