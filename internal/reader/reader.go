// Package reader defines the document text acquisition boundary. The
// pipeline consumes extracted plain text; decoding rich document
// formats is delegated to implementations of DocumentReader.
package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Common errors returned by document readers. Both are terminal to a
// generation job.
var (
	// ErrUnsupportedFormat is returned when no reader handles the file's
	// format.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrParseError is returned when the file matches a supported format
	// but its content cannot be extracted.
	ErrParseError = errors.New("failed to parse document")
)

// DocumentReader extracts plain text from a document on disk.
type DocumentReader interface {
	// ExtractText returns the document's text content.
	// Fails with ErrUnsupportedFormat or ErrParseError.
	ExtractText(path string) (string, error)
}

// PlainTextReader reads UTF-8 plain text documents (.txt, .md). Rich
// formats are rejected with ErrUnsupportedFormat.
type PlainTextReader struct{}

// NewPlainTextReader creates a PlainTextReader.
func NewPlainTextReader() *PlainTextReader {
	return &PlainTextReader{}
}

var _ DocumentReader = (*PlainTextReader)(nil)

// ExtractText implements DocumentReader.
func (r *PlainTextReader) ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown", ".text":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParseError, err)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: file is not valid UTF-8", ErrParseError)
	}

	return string(data), nil
}
