// Package api implements the HTTP delivery layer: request decoding and
// validation, handlers for question bank generation and retrieval, the
// Server-Sent Events progress stream, and the mapping of internal
// errors to sanitized HTTP responses.
package api
