package segment

import "strings"

// recursiveSeparators is the ordered separator list for SegmentRecursive,
// from coarsest (paragraph break) to finest (word space). CJK and Latin
// sentence terminators sit between line breaks and spaces.
var recursiveSeparators = []string{
	"\n\n",
	"\n",
	"。",
	"．",
	".",
	"！",
	"!",
	"？",
	"?",
	"；",
	";",
	" ",
}

// SegmentRecursive splits text by recursively applying the separator
// list: any segment still over targetSize is subdivided with the next
// separator class, falling back to a hard cut when no separator
// applies. Unlike Segment, segments shorter than minSize are dropped.
func (s *Segmenter) SegmentRecursive(text string) []Chunk {
	if text == "" {
		return nil
	}

	parts := s.splitRecursive([]rune(text), recursiveSeparators)

	var chunks []Chunk
	offset := 0
	for _, part := range parts {
		end := offset + len(part)
		content := strings.TrimSpace(string(part))
		if len([]rune(content)) >= s.minSize {
			chunks = append(chunks, Chunk{
				Index:       len(chunks),
				Content:     content,
				StartOffset: offset,
				EndOffset:   end,
			})
		}
		offset = end
	}

	return chunks
}

// splitRecursive divides text into pieces no longer than targetSize
// where possible. The returned pieces concatenate back to the input
// exactly, which keeps offsets honest.
func (s *Segmenter) splitRecursive(text []rune, separators []string) [][]rune {
	if len(text) <= s.targetSize {
		return [][]rune{text}
	}

	if len(separators) == 0 {
		return s.hardCut(text)
	}

	sep := []rune(separators[0])
	parts := splitAfter(text, sep)
	if len(parts) == 1 {
		// Separator absent, try the next class.
		return s.splitRecursive(text, separators[1:])
	}

	var result [][]rune
	var current []rune

	for _, part := range parts {
		if len(current)+len(part) <= s.targetSize {
			current = append(current, part...)
			continue
		}

		if len(current) > 0 {
			result = append(result, current)
			current = nil
		}

		if len(part) > s.targetSize {
			sub := s.splitRecursive(part, separators[1:])
			result = append(result, sub[:len(sub)-1]...)
			current = append(current, sub[len(sub)-1]...)
		} else {
			current = append(current, part...)
		}
	}

	if len(current) > 0 {
		result = append(result, current)
	}

	return result
}

// hardCut slices text into targetSize-rune pieces with no regard for
// content. Last resort when every separator class has been exhausted.
func (s *Segmenter) hardCut(text []rune) [][]rune {
	var parts [][]rune
	for i := 0; i < len(text); i += s.targetSize {
		end := i + s.targetSize
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[i:end])
	}
	return parts
}

// splitAfter splits text on sep, keeping the separator attached to the
// end of the preceding piece so that pieces concatenate to the input.
func splitAfter(text, sep []rune) [][]rune {
	var parts [][]rune
	start := 0
	for i := 0; i+len(sep) <= len(text); {
		if string(text[i:i+len(sep)]) == string(sep) {
			parts = append(parts, text[start:i+len(sep)])
			i += len(sep)
			start = i
		} else {
			i++
		}
	}
	parts = append(parts, text[start:])
	return parts
}
