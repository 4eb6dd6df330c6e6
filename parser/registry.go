package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Registry maps file extensions to parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry builds a registry with the built-in parsers registered.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	for _, p := range []Parser{&TextParser{}, &PDFParser{}, &XLSXParser{}} {
		for _, f := range p.SupportedFormats() {
			r.parsers[f] = p
		}
	}
	return r
}

// Register adds or replaces the parser for a format.
func (r *Registry) Register(format string, p Parser) {
	r.parsers[strings.ToLower(format)] = p
}

// Get returns the parser for a format.
func (r *Registry) Get(format string) (Parser, error) {
	p, ok := r.parsers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return p, nil
}

// Formats lists the registered formats.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for f := range r.parsers {
		out = append(out, f)
	}
	return out
}

// ExtractText parses path with the parser matching its extension and
// returns the document text.
func (r *Registry) ExtractText(ctx context.Context, path string) (string, error) {
	doc, err := r.Parse(ctx, path)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

// Parse resolves the parser for path's extension and runs it. It fails
// early when the file does not exist and rejects documents that yield no
// text at all.
func (r *Registry) Parse(ctx context.Context, path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	p, err := r.Get(ext)
	if err != nil {
		return nil, err
	}

	doc, err := p.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}
	doc.Path = path
	doc.Format = ext
	return doc, nil
}
