// Package parser extracts plain text from contract documents so that the
// analysis pipeline can treat every input format the same way.
package parser

import (
	"context"
	"errors"
)

var (
	// ErrFileNotFound is returned when a contract document does not exist.
	ErrFileNotFound = errors.New("clamba: contract file not found")

	// ErrUnsupportedFormat is returned for unrecognized document formats.
	ErrUnsupportedFormat = errors.New("clamba: unsupported document format")

	// ErrEmptyDocument is returned when a document yields no usable text.
	ErrEmptyDocument = errors.New("clamba: no text extracted from document")
)

// Document is the format-independent result of parsing a contract file.
type Document struct {
	Path     string
	Format   string // "txt", "md", "pdf", "xlsx"
	Text     string
	Pages    int
	Metadata map[string]string
}

// Parser extracts text from one family of document formats.
type Parser interface {
	Parse(ctx context.Context, path string) (*Document, error)
	SupportedFormats() []string
}
