package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/clamba/automaton"
	"github.com/brunobiangulo/clamba/detect"
	"github.com/brunobiangulo/clamba/process"
)

func sampleReport() *Report {
	p := process.Process{
		ID:          "01",
		Name:        "Goods reception",
		Description: "Receive and check goods",
		Type:        process.TypeReception,
		Steps:       []string{"unload", "inspect"},
	}
	contract := &automaton.Contract{
		ID:        "contract-1",
		Name:      "Supply agreement",
		Status:    "draft",
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Automates: []automaton.Automate{automaton.FromProcess(p, nil, true)},
	}
	return &Report{
		Contract: contract,
		Detection: &detect.Result{
			Processes:       []process.Process{p},
			Confidence:      0.82,
			DetectionMethod: "ai_ollama",
			Metadata:        map[string]int{"prompt_length": 1200},
		},
		Dependencies: map[string][]string{"01": {}},
		Source:       "contract.pdf",
		GeneratedAt:  time.Date(2026, 8, 1, 10, 0, 5, 0, time.UTC),
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := Marshal(sampleReport(), Options{Format: FormatJSON, IncludeMetadata: true})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Contains(t, decoded, "contract")
	assert.Contains(t, decoded, "detection")
	det := decoded["detection"].(map[string]any)
	assert.Equal(t, "ai_ollama", det["detection_method"])
	assert.Contains(t, det, "metadata")
}

func TestMarshalJSONPretty(t *testing.T) {
	compact, err := Marshal(sampleReport(), Options{Format: FormatJSON})
	require.NoError(t, err)
	pretty, err := Marshal(sampleReport(), Options{Format: FormatJSON, PrettyPrint: true})
	require.NoError(t, err)

	assert.Greater(t, len(pretty), len(compact))
	assert.Contains(t, string(pretty), "\n  ")
}

func TestMarshalExcludesMetadata(t *testing.T) {
	report := sampleReport()
	data, err := Marshal(report, Options{Format: FormatJSON})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	det := decoded["detection"].(map[string]any)
	assert.NotContains(t, det, "metadata")

	// The caller's report must keep its metadata.
	assert.NotNil(t, report.Detection.Metadata)
}

func TestMarshalYAML(t *testing.T) {
	data, err := Marshal(sampleReport(), Options{Format: FormatYAML, IncludeMetadata: true})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "contract")
	assert.Contains(t, decoded, "dependencies")
}

func TestMarshalUnknownFormat(t *testing.T) {
	_, err := Marshal(sampleReport(), Options{Format: "xml"})
	assert.Error(t, err)
}

func TestWriteFileInfersFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "report.yaml")

	require.NoError(t, WriteFile(path, sampleReport(), Options{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "contract")
}
