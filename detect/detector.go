// Package detect turns raw contract text into structured business
// processes and their dependency graph by querying a language model and
// tolerantly parsing whatever it returns.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brunobiangulo/clamba/extract"
	"github.com/brunobiangulo/clamba/graph"
	"github.com/brunobiangulo/clamba/llm"
	"github.com/brunobiangulo/clamba/process"
)

var (
	// ErrNoPayload is returned when the model response carries no JSON
	// payload that the tolerant extractors can recover.
	ErrNoPayload = errors.New("clamba: no structured payload in model response")

	// ErrNoProcesses is returned when detection yields zero usable
	// process records.
	ErrNoProcesses = errors.New("clamba: no business processes detected")
)

// Options bounds what the detector asks for and how it post-processes
// the answer.
type Options struct {
	MinProcesses       int
	MaxProcesses       int
	MaxStepsPerProcess int
	CycleDetection     bool
	Weights            ConfidenceWeights
}

// DefaultOptions mirrors the production analysis defaults.
func DefaultOptions() Options {
	return Options{
		MinProcesses:       3,
		MaxProcesses:       6,
		MaxStepsPerProcess: 7,
		CycleDetection:     true,
		Weights:            DefaultConfidenceWeights(),
	}
}

// Result is the outcome of one process-detection pass over a contract.
type Result struct {
	Processes       []process.Process `json:"processes" yaml:"processes"`
	Confidence      float64           `json:"confidence" yaml:"confidence"`
	DetectionMethod string            `json:"detection_method" yaml:"detection_method"`
	ContractType    ContractType      `json:"contract_type" yaml:"contract_type"`
	ElapsedSeconds  float64           `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Metadata        map[string]int    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Detector runs detection and dependency analysis against one provider.
type Detector struct {
	provider llm.Provider
	opts     Options
}

// NewDetector builds a detector. Zero-valued options are replaced with
// defaults.
func NewDetector(provider llm.Provider, opts Options) *Detector {
	if opts.MinProcesses == 0 && opts.MaxProcesses == 0 {
		def := DefaultOptions()
		opts.MinProcesses = def.MinProcesses
		opts.MaxProcesses = def.MaxProcesses
	}
	if opts.MaxStepsPerProcess == 0 {
		opts.MaxStepsPerProcess = DefaultOptions().MaxStepsPerProcess
	}
	if opts.Weights == (ConfidenceWeights{}) {
		opts.Weights = DefaultConfidenceWeights()
	}
	return &Detector{provider: provider, opts: opts}
}

// DetectProcesses asks the model for the contract's business processes
// and parses the reply into structured records.
func (d *Detector) DetectProcesses(ctx context.Context, contractText string, hint ContractType, customInstructions string) (*Result, error) {
	start := time.Now()

	prompt := BuildDetectionPrompt(contractText, hint, customInstructions, d.opts)
	resp, err := d.provider.Query(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("process detection query: %w", err)
	}

	raw, ok := extract.ExtractArray(resp.Text)
	if !ok {
		slog.Warn("no process payload in model response",
			"provider", d.provider.Name(),
			"response_length", len(resp.Text))
		return nil, fmt.Errorf("%w: no process array in response", ErrNoPayload)
	}

	processes := process.ParseRecords(raw)
	if len(processes) == 0 {
		return nil, fmt.Errorf("%w: response contained no usable process records", ErrNoProcesses)
	}

	expected := float64(d.opts.MinProcesses+d.opts.MaxProcesses) / 2
	result := &Result{
		Processes:       processes,
		Confidence:      Score(processes, d.opts.Weights, expected),
		DetectionMethod: "ai_" + d.provider.Name(),
		ContractType:    hint,
		ElapsedSeconds:  time.Since(start).Seconds(),
		Metadata: map[string]int{
			"prompt_length":   len(prompt),
			"response_length": len(resp.Text),
			"contract_length": len(contractText),
		},
	}

	slog.Info("processes detected",
		"count", len(processes),
		"confidence", result.Confidence,
		"method", result.DetectionMethod,
		"elapsed_seconds", result.ElapsedSeconds)
	return result, nil
}

// AnalyzeDependencies asks the model for the dependency map between the
// detected processes. The returned map is total over the process ids and
// acyclic when cycle detection is enabled.
func (d *Detector) AnalyzeDependencies(ctx context.Context, processes []process.Process) (map[string][]string, error) {
	ids := make([]string, len(processes))
	for i, p := range processes {
		ids[i] = p.ID
	}

	prompt := BuildDependencyPrompt(processes)
	resp, err := d.provider.Query(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("dependency analysis query: %w", err)
	}

	raw, ok := extract.ExtractObject(resp.Text)
	if !ok {
		slog.Warn("no dependency payload in model response, assuming independence",
			"provider", d.provider.Name())
		raw = map[string]any{}
	}

	deps := graph.ParseDependencies(raw, ids)
	deps = graph.ResolveCycles(deps, d.opts.CycleDetection)

	slog.Info("dependencies analyzed",
		"processes", len(ids),
		"edges", graph.EdgeCount(deps),
		"cycle_detection", d.opts.CycleDetection)
	return deps, nil
}
