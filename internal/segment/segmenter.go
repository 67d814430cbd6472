package segment

import (
	"errors"
	"strings"
)

// Default segmentation parameters, matching the sizes the generation
// prompt is tuned for.
const (
	DefaultTargetSize  = 500
	DefaultOverlapSize = 100
	DefaultMinSize     = 100

	// ellipsis marks context that was truncated away from a natural
	// sentence boundary.
	ellipsis = "..."

	// hardCutLen is the fixed number of runes kept when no sentence
	// boundary exists inside the overlap window.
	hardCutLen = 50
)

// Configuration errors returned by NewSegmenter.
var (
	ErrInvalidTargetSize = errors.New("target size must be positive")
	ErrInvalidOverlap    = errors.New("overlap size must be non-negative and smaller than target size")
	ErrInvalidMinSize    = errors.New("min size must be non-negative")
)

// boundaryRunes are the sentence terminators and line breaks (CJK and
// Latin) at which context padding is truncated.
var boundaryRunes = map[rune]bool{
	'。': true, '．': true, '！': true, '？': true, '；': true,
	'：': true, '，': true, '、': true,
	'.': true, '!': true, '?': true, ';': true, ':': true, ',': true,
	'\n': true,
}

// Chunk is one bounded, possibly context-padded slice of a document.
// StartOffset/EndOffset are rune offsets of the chunk's core interval;
// the cores of a chunk sequence partition the source text exactly.
// Content may additionally carry leading/trailing context beyond the
// core, flagged by HasLeadingContext/HasTrailingContext.
type Chunk struct {
	Index              int
	Content            string
	StartOffset        int
	EndOffset          int
	HasLeadingContext  bool
	HasTrailingContext bool
}

// Segmenter splits text into chunks. The zero value is not usable;
// construct with NewSegmenter.
type Segmenter struct {
	targetSize  int
	overlapSize int
	minSize     int
}

// NewSegmenter returns a Segmenter with the given window parameters.
// targetSize is the sliding window length, overlapSize the amount of
// surrounding context carried per chunk, and minSize the smallest
// segment the recursive mode will keep.
func NewSegmenter(targetSize, overlapSize, minSize int) (*Segmenter, error) {
	if targetSize <= 0 {
		return nil, ErrInvalidTargetSize
	}
	if overlapSize < 0 || overlapSize >= targetSize {
		return nil, ErrInvalidOverlap
	}
	if minSize < 0 {
		return nil, ErrInvalidMinSize
	}

	return &Segmenter{
		targetSize:  targetSize,
		overlapSize: overlapSize,
		minSize:     minSize,
	}, nil
}

// Segment splits text using the context-padded sliding window strategy.
//
// A window of targetSize runes slides across the text, advancing by
// targetSize−overlapSize per step. Every chunk after the first is
// prefixed with up to overlapSize runes taken immediately before its
// window, and every chunk before the last is suffixed with up to
// overlapSize runes taken immediately after it; padding is truncated at
// the nearest sentence boundary and marked with an ellipsis where the
// cut is artificial.
//
// Empty input yields no chunks. Input at or below targetSize is
// returned as a single chunk spanning the whole text, even when it is
// shorter than minSize.
func (s *Segmenter) Segment(text string) []Chunk {
	runes := []rune(text)
	n := len(runes)

	if n == 0 {
		return nil
	}

	if n <= s.targetSize {
		return []Chunk{{
			Index:       0,
			Content:     text,
			StartOffset: 0,
			EndOffset:   n,
		}}
	}

	var chunks []Chunk
	pos := 0
	coreStart := 0

	for pos < n {
		winEnd := pos + s.targetSize
		if winEnd > n {
			winEnd = n
		}

		var b strings.Builder
		hasLeading := false
		hasTrailing := false

		// Leading context: up to overlapSize runes immediately before
		// the window, truncated forward at the first sentence boundary.
		if pos > 0 {
			hasLeading = true
			ctxStart := pos - s.overlapSize
			if ctxStart < 0 {
				ctxStart = 0
			}
			lead := runes[ctxStart:pos]
			if ctxStart > 0 {
				b.WriteString(ellipsis)
				b.WriteString(string(truncateLeading(lead)))
			} else {
				b.WriteString(string(lead))
			}
		}

		b.WriteString(string(runes[pos:winEnd]))

		// Trailing context: up to overlapSize runes immediately after
		// the window, truncated at the first sentence boundary.
		if winEnd < n {
			hasTrailing = true
			ctxEnd := winEnd + s.overlapSize
			if ctxEnd > n {
				ctxEnd = n
			}
			trail := runes[winEnd:ctxEnd]
			if ctxEnd < n {
				b.WriteString(string(truncateTrailing(trail)))
				b.WriteString(ellipsis)
			} else {
				b.WriteString(string(trail))
			}
		}

		chunks = append(chunks, Chunk{
			Index:              len(chunks),
			Content:            b.String(),
			StartOffset:        coreStart,
			EndOffset:          winEnd,
			HasLeadingContext:  hasLeading,
			HasTrailingContext: hasTrailing,
		})

		// The next window starts overlapSize runes before this one
		// ends, so its core begins exactly where this window ended.
		coreStart = winEnd
		if winEnd < n {
			pos = winEnd - s.overlapSize
		} else {
			pos = winEnd
		}
	}

	return chunks
}

// truncateLeading drops everything up to and including the first
// sentence boundary in ctx. Without a boundary it keeps the hardCutLen
// runes nearest the window.
func truncateLeading(ctx []rune) []rune {
	for i, r := range ctx {
		if boundaryRunes[r] {
			return ctx[i+1:]
		}
	}
	if len(ctx) > hardCutLen {
		return ctx[len(ctx)-hardCutLen:]
	}
	return ctx
}

// truncateTrailing keeps everything up to the first sentence boundary
// in ctx. Without a boundary it keeps the first hardCutLen runes.
func truncateTrailing(ctx []rune) []rune {
	for i, r := range ctx {
		if boundaryRunes[r] {
			return ctx[:i+1]
		}
	}
	if len(ctx) > hardCutLen {
		return ctx[:hardCutLen]
	}
	return ctx
}
