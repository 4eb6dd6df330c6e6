package parser

import (
	"context"
	"fmt"
	"os"
)

// TextParser handles plain text and markdown contracts.
type TextParser struct{}

func (p *TextParser) SupportedFormats() []string { return []string{"txt", "md"} }

func (p *TextParser) Parse(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}
	return &Document{
		Text:  string(data),
		Pages: 1,
	}, nil
}
