// Package output serializes analysis reports to JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/clamba/automaton"
	"github.com/brunobiangulo/clamba/detect"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Report bundles everything one contract analysis produced.
type Report struct {
	Contract     *automaton.Contract `json:"contract" yaml:"contract"`
	Detection    *detect.Result      `json:"detection" yaml:"detection"`
	Dependencies map[string][]string `json:"dependencies" yaml:"dependencies"`
	Source       string              `json:"source,omitempty" yaml:"source,omitempty"`
	GeneratedAt  time.Time           `json:"generated_at" yaml:"generated_at"`
}

// Options controls the serialization format.
type Options struct {
	Format          string // "json" or "yaml"
	PrettyPrint     bool
	IncludeMetadata bool
}

// Marshal renders the report in the requested format. When metadata is
// excluded, the detection metadata map is omitted from the output without
// mutating the report.
func Marshal(r *Report, opts Options) ([]byte, error) {
	out := *r
	if !opts.IncludeMetadata && r.Detection != nil {
		det := *r.Detection
		det.Metadata = nil
		out.Detection = &det
	}

	switch strings.ToLower(opts.Format) {
	case FormatJSON, "":
		if opts.PrettyPrint {
			return json.MarshalIndent(&out, "", "  ")
		}
		return json.Marshal(&out)
	case FormatYAML, "yml":
		return yaml.Marshal(&out)
	default:
		return nil, fmt.Errorf("unknown output format %q", opts.Format)
	}
}

// WriteFile renders the report and writes it to path. An empty
// opts.Format is inferred from the path extension.
func WriteFile(path string, r *Report, opts Options) error {
	if opts.Format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			opts.Format = FormatYAML
		default:
			opts.Format = FormatJSON
		}
	}

	data, err := Marshal(r, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
