package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyChunkText is returned when a chunk text is empty.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")
)
