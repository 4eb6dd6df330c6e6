package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestRegistryParseText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contract.txt")
	body := "SERVICE AGREEMENT\n\nThe provider delivers monthly reports."
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewRegistry().Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Text != body {
		t.Errorf("Text = %q, want original file content", doc.Text)
	}
	if doc.Format != "txt" {
		t.Errorf("Format = %q, want %q", doc.Format, "txt")
	}
	if doc.Path != path {
		t.Errorf("Path = %q, want %q", doc.Path, path)
	}
}

func TestRegistryParseMarkdown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contract.MD")
	if err := os.WriteFile(path, []byte("# Terms\ncontent"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewRegistry().Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Format != "md" {
		t.Errorf("Format = %q, want %q (extension lowercased)", doc.Format, "md")
	}
}

func TestRegistryParseXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "annex.xlsx")

	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"Item", "Quantity", "Deadline"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]any{"Pallets", "40", "2026-09-15"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	doc, err := NewRegistry().Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !strings.Contains(doc.Text, "Item | Quantity | Deadline") {
		t.Errorf("row not flattened into text:\n%s", doc.Text)
	}
	if !strings.Contains(doc.Text, "Pallets | 40 | 2026-09-15") {
		t.Errorf("data row missing from text:\n%s", doc.Text)
	}
}

func TestRegistryMissingFile(t *testing.T) {
	_, err := NewRegistry().Parse(context.Background(), "/nonexistent/contract.txt")
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("error = %v, want ErrFileNotFound", err)
	}
}

func TestRegistryUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contract.docx")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewRegistry().Parse(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRegistryEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, []byte("   \n\t\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewRegistry().Parse(context.Background(), path)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("error = %v, want ErrEmptyDocument", err)
	}
}

func TestRegistryCustomParser(t *testing.T) {
	r := NewRegistry()
	r.Register("docx", &TextParser{})

	dir := t.TempDir()
	path := filepath.Join(dir, "contract.docx")
	if err := os.WriteFile(path, []byte("delegated"), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := r.ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if text != "delegated" {
		t.Errorf("text = %q, want %q", text, "delegated")
	}
}
