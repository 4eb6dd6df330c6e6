package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXParser flattens spreadsheet contracts, one line per row, so that
// tabular annexes (pricing grids, delivery schedules) become analyzable
// text.
type XLSXParser struct{}

func (p *XLSXParser) SupportedFormats() []string { return []string{"xlsx"} }

func (p *XLSXParser) Parse(ctx context.Context, path string) (*Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var text strings.Builder
	sheets := f.GetSheetList()

	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString("## " + sheet + "\n")
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			text.WriteString(strings.Join(row, " | ") + "\n")
		}
	}

	return &Document{
		Text:  text.String(),
		Pages: len(sheets),
		Metadata: map[string]string{
			"sheets": fmt.Sprintf("%d", len(sheets)),
		},
	}, nil
}
