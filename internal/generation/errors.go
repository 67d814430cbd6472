package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when question generation produced
	// nothing after exhausting all retries. Callers are expected to skip
	// the offending chunk and continue rather than abort the whole job.
	ErrGenerationFailed = errors.New("failed to generate questions from chunk")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed
	// or is malformed beyond heuristic recovery.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to
	// safety filters. This is permanent for the chunk; retrying cannot help.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry.
	ErrTransientFailure = errors.New("transient error during question generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
