// Package clamba analyzes legal contracts with a language model, detects
// the distinct business processes they describe, resolves the dependency
// graph between those processes, and turns each one into an executable
// automaton definition.
package clamba

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brunobiangulo/clamba/automaton"
	"github.com/brunobiangulo/clamba/detect"
	"github.com/brunobiangulo/clamba/llm"
	"github.com/brunobiangulo/clamba/output"
	"github.com/brunobiangulo/clamba/parser"
	"github.com/brunobiangulo/clamba/validate"
)

// Analyzer drives the full pipeline: document parsing, process
// detection, dependency analysis, automaton generation, and validation.
type Analyzer struct {
	cfg      Config
	provider llm.Provider
	parsers  *parser.Registry
	detector *detect.Detector
}

// New creates an Analyzer from a validated configuration.
func New(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := cfg.ActiveProvider()
	provider, err := llm.NewProvider(llm.Config{
		Provider:       cfg.AI.Provider,
		BaseURL:        p.BaseURL,
		Model:          p.Model,
		APIKey:         p.APIKey,
		MaxTokens:      p.MaxTokens,
		Temperature:    p.Temperature,
		TimeoutSeconds: p.TimeoutSeconds,
		MaxRetries:     cfg.Analysis.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("creating AI provider: %w", err)
	}

	detector := detect.NewDetector(provider, detect.Options{
		MinProcesses:       cfg.Analysis.MinProcesses,
		MaxProcesses:       cfg.Analysis.MaxProcesses,
		MaxStepsPerProcess: cfg.Analysis.MaxStepsPerProcess,
		CycleDetection:     cfg.Analysis.CycleDetection,
		Weights:            detect.DefaultConfidenceWeights(),
	})

	return &Analyzer{
		cfg:      cfg,
		provider: provider,
		parsers:  parser.NewRegistry(),
		detector: detector,
	}, nil
}

// Provider exposes the underlying AI provider, mainly for health checks.
func (a *Analyzer) Provider() llm.Provider { return a.provider }

// AnalyzeOption configures a single analysis run.
type AnalyzeOption func(*analyzeOptions)

type analyzeOptions struct {
	contractType       detect.ContractType
	customInstructions string
	contractName       string
	createdBy          string
}

// WithContractType hints the contract family to the detection prompt.
func WithContractType(t detect.ContractType) AnalyzeOption {
	return func(o *analyzeOptions) { o.contractType = t }
}

// WithCustomInstructions appends caller instructions to the detection
// prompt.
func WithCustomInstructions(instructions string) AnalyzeOption {
	return func(o *analyzeOptions) { o.customInstructions = instructions }
}

// WithContractName overrides the generated contract name.
func WithContractName(name string) AnalyzeOption {
	return func(o *analyzeOptions) { o.contractName = name }
}

// WithCreatedBy records who requested the analysis.
func WithCreatedBy(who string) AnalyzeOption {
	return func(o *analyzeOptions) { o.createdBy = who }
}

// AnalyzeContract parses the document at path and runs the full analysis
// pipeline on its text.
func (a *Analyzer) AnalyzeContract(ctx context.Context, path string, opts ...AnalyzeOption) (*output.Report, error) {
	doc, err := a.parsers.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	slog.Info("contract parsed",
		"path", path, "format", doc.Format, "chars", len(doc.Text))

	options := &analyzeOptions{}
	for _, o := range opts {
		o(options)
	}
	if options.contractName == "" {
		base := filepath.Base(path)
		options.contractName = strings.TrimSuffix(base, filepath.Ext(base))
		opts = append(opts, WithContractName(options.contractName))
	}

	report, err := a.AnalyzeText(ctx, doc.Text, opts...)
	if err != nil {
		return nil, err
	}
	report.Source = path
	return report, nil
}

// AnalyzeText runs detection, dependency analysis, automaton generation,
// and validation on raw contract text.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string, opts ...AnalyzeOption) (*output.Report, error) {
	options := &analyzeOptions{
		contractType: detect.ContractAuto,
		createdBy:    "clamba",
	}
	for _, o := range opts {
		o(options)
	}
	if options.contractName == "" {
		options.contractName = "Contract analysis " + time.Now().Format("2006-01-02")
	}

	detection, err := a.detector.DetectProcesses(ctx, text, options.contractType, options.customInstructions)
	if err != nil {
		return nil, err
	}

	deps, err := a.detector.AnalyzeDependencies(ctx, detection.Processes)
	if err != nil {
		return nil, err
	}

	contract := a.buildContract(options, detection, deps)

	var issues []string
	if a.cfg.Analysis.CycleDetection {
		issues = validate.Contract(contract)
	} else {
		// Residual cycles are tolerated when resolution is disabled.
		issues = validate.ContractAllowingCycles(contract)
		if contract.HasCycles() {
			slog.Warn("dependency graph has residual cycles", "contract", contract.ID)
		}
	}
	if len(issues) > 0 {
		slog.Error("generated contract failed validation", "issues", issues)
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(issues, "; "))
	}

	slog.Info("contract analysis complete",
		"contract", contract.ID,
		"automates", len(contract.Automates),
		"confidence", detection.Confidence)

	return &output.Report{
		Contract:     contract,
		Detection:    detection,
		Dependencies: deps,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

func (a *Analyzer) buildContract(options *analyzeOptions, detection *detect.Result, deps map[string][]string) *automaton.Contract {
	automates := make([]automaton.Automate, 0, len(detection.Processes))
	for _, p := range detection.Processes {
		automates = append(automates, automaton.FromProcess(p, deps[p.ID], a.cfg.Output.SanitizeIDs))
	}

	p := a.cfg.ActiveProvider()
	return &automaton.Contract{
		ID:          uuid.NewString(),
		Name:        options.contractName,
		Status:      "draft",
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   options.createdBy,
		Description: fmt.Sprintf("Generated from %d detected business processes", len(detection.Processes)),
		Automates:   automates,
		Metadata: map[string]string{
			"provider":         a.provider.Name(),
			"model":            p.Model,
			"detection_method": detection.DetectionMethod,
		},
	}
}

// SaveReport writes a report to path using the configured output options.
func (a *Analyzer) SaveReport(path string, report *output.Report) error {
	return output.WriteFile(path, report, output.Options{
		Format:          a.cfg.Output.Format,
		PrettyPrint:     a.cfg.Output.PrettyPrint,
		IncludeMetadata: a.cfg.Output.IncludeMetadata,
	})
}

// TestConnection verifies that the configured AI provider is reachable
// and serves the configured model.
func (a *Analyzer) TestConnection(ctx context.Context) error {
	return a.provider.TestConnection(ctx)
}
