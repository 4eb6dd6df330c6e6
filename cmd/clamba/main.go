// Command clamba analyzes legal contracts and generates business process
// automatons from them.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/clamba"
	"github.com/brunobiangulo/clamba/detect"
	"github.com/brunobiangulo/clamba/output"
	"github.com/brunobiangulo/clamba/parser"
	"github.com/brunobiangulo/clamba/store"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	titleColor   = color.New(color.FgMagenta, color.Bold)
)

var (
	configFile string
	debug      bool
	dbPath     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clamba",
		Short: "CLAMBA - turn legal contracts into business process automatons",
		Long: `CLAMBA analyzes legal contracts with a language model, detects the
distinct business processes they describe, resolves the dependencies
between them, and generates an executable automaton per process.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "clamba.yaml", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "clamba_history.db", "Analysis history database path")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <contract-file>",
		Short: "Analyze one contract and generate its automatons",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().StringP("output", "o", "", "Report output path (default: <contract>.report.<format>)")
	analyzeCmd.Flags().StringP("type", "t", "auto", "Contract type hint (logistics, sales, service, auto)")
	analyzeCmd.Flags().String("instructions", "", "Extra instructions for the detection prompt")
	analyzeCmd.Flags().String("name", "", "Contract name (default: file base name)")
	analyzeCmd.Flags().Bool("no-history", false, "Skip recording the analysis in the history database")
	rootCmd.AddCommand(analyzeCmd)

	batchCmd := &cobra.Command{
		Use:   "batch <directory>",
		Short: "Analyze every supported contract in a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().StringP("output-dir", "o", "reports", "Directory for generated reports")
	batchCmd.Flags().StringP("type", "t", "auto", "Contract type hint applied to all files")
	rootCmd.AddCommand(batchCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and test the AI provider connection",
		RunE:  runCheck,
	})

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInitConfig,
	}
	rootCmd.AddCommand(initCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List past contract analyses",
		RunE:  runHistory,
	}
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of rows to show")
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when it exists and falls back to
// defaults when it does not.
func loadConfig() (clamba.Config, error) {
	if _, err := os.Stat(configFile); err != nil {
		cfg := clamba.DefaultConfig()
		cfg.Debug = debug
		return cfg, nil
	}
	cfg, err := clamba.LoadConfig(configFile)
	if err != nil {
		return cfg, err
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func contractTypeFlag(cmd *cobra.Command) detect.ContractType {
	t, _ := cmd.Flags().GetString("type")
	switch detect.ContractType(strings.ToLower(t)) {
	case detect.ContractLogistics:
		return detect.ContractLogistics
	case detect.ContractSales:
		return detect.ContractSales
	case detect.ContractService:
		return detect.ContractService
	default:
		return detect.ContractAuto
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	contractPath := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	analyzer, err := clamba.New(cfg)
	if err != nil {
		return err
	}

	titleColor.Println("Contract Analysis")
	infoColor.Printf("File: %s\n", contractPath)
	infoColor.Printf("Provider: %s\n", analyzer.Provider().Name())

	opts := []clamba.AnalyzeOption{clamba.WithContractType(contractTypeFlag(cmd))}
	if instructions, _ := cmd.Flags().GetString("instructions"); instructions != "" {
		opts = append(opts, clamba.WithCustomInstructions(instructions))
	}
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		opts = append(opts, clamba.WithContractName(name))
	}

	report, err := analyzer.AnalyzeContract(cmd.Context(), contractPath, opts...)
	if err != nil {
		return err
	}

	printReportSummary(report)

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		ext := cfg.Output.Format
		outPath = strings.TrimSuffix(contractPath, filepath.Ext(contractPath)) + ".report." + ext
	}
	if err := analyzer.SaveReport(outPath, report); err != nil {
		return err
	}
	successColor.Printf("Report written to %s\n", outPath)

	if skip, _ := cmd.Flags().GetBool("no-history"); !skip {
		if err := recordHistory(cmd.Context(), cfg, report); err != nil {
			slog.Warn("recording analysis history", "error", err)
		}
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	analyzer, err := clamba.New(cfg)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("output-dir")
	hint := contractTypeFlag(cmd)

	supported := make(map[string]bool)
	for _, f := range parser.NewRegistry().Formats() {
		supported[f] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading contract directory: %w", err)
	}

	analyzed, failed := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(entry.Name())), ".")
		if !supported[ext] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		titleColor.Printf("Analyzing %s\n", entry.Name())

		report, err := analyzer.AnalyzeContract(cmd.Context(), path, clamba.WithContractType(hint))
		if err != nil {
			errorColor.Printf("  failed: %v\n", err)
			failed++
			continue
		}
		printReportSummary(report)

		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		outPath := filepath.Join(outDir, base+".report."+cfg.Output.Format)
		if err := analyzer.SaveReport(outPath, report); err != nil {
			errorColor.Printf("  failed to save report: %v\n", err)
			failed++
			continue
		}
		successColor.Printf("  report written to %s\n", outPath)

		if err := recordHistory(cmd.Context(), cfg, report); err != nil {
			slog.Warn("recording analysis history", "error", err)
		}
		analyzed++
	}

	fmt.Println()
	successColor.Printf("Batch complete: %d analyzed, %d failed\n", analyzed, failed)
	if failed > 0 {
		return fmt.Errorf("%d contract(s) failed", failed)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	successColor.Println("Configuration valid")
	infoColor.Printf("Provider: %s\n", cfg.AI.Provider)
	infoColor.Printf("Model: %s\n", cfg.ActiveProvider().Model)

	analyzer, err := clamba.New(cfg)
	if err != nil {
		return err
	}
	if err := analyzer.TestConnection(cmd.Context()); err != nil {
		return fmt.Errorf("provider connection test failed: %w", err)
	}
	successColor.Println("AI provider reachable")
	return nil
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := configFile
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, remove it first", path)
	}

	cfg := clamba.DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	successColor.Printf("Default configuration written to %s\n", path)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	analyses, err := s.ListAnalyses(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(analyses) == 0 {
		infoColor.Println("No analyses recorded yet")
		return nil
	}

	titleColor.Println("Analysis History")
	for _, a := range analyses {
		fmt.Printf("%4d  %-30s  %d processes  confidence %.2f  %s\n",
			a.ID, truncate(a.ContractName, 30), a.ProcessCount, a.Confidence, a.CreatedAt)
	}
	return nil
}

func printReportSummary(report *output.Report) {
	infoColor.Printf("Contract: %s (%s)\n", report.Contract.Name, report.Contract.ID)
	infoColor.Printf("Confidence: %.2f  Method: %s  Elapsed: %.1fs\n",
		report.Detection.Confidence, report.Detection.DetectionMethod, report.Detection.ElapsedSeconds)

	for _, p := range report.Detection.Processes {
		deps := report.Dependencies[p.ID]
		line := fmt.Sprintf("  [%s] %s (%s, %d steps)", p.ID, p.Name, p.Type, len(p.Steps))
		if len(deps) > 0 {
			sorted := append([]string(nil), deps...)
			sort.Strings(sorted)
			line += " depends on " + strings.Join(sorted, ", ")
		}
		fmt.Println(line)
	}

	if order, ok := report.Contract.ExecutionOrder(); ok {
		infoColor.Printf("Execution order: %s\n", strings.Join(order, " -> "))
	} else {
		errorColor.Println("Dependency graph contains a cycle")
	}
}

func recordHistory(ctx context.Context, cfg clamba.Config, report *output.Report) error {
	s, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	edges := 0
	for _, refs := range report.Dependencies {
		edges += len(refs)
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return err
	}

	_, err = s.LogAnalysis(ctx, store.Analysis{
		ContractID:      report.Contract.ID,
		ContractName:    report.Contract.Name,
		SourcePath:      report.Source,
		Provider:        cfg.AI.Provider,
		Model:           cfg.ActiveProvider().Model,
		DetectionMethod: report.Detection.DetectionMethod,
		ProcessCount:    len(report.Detection.Processes),
		DependencyEdges: edges,
		Confidence:      report.Detection.Confidence,
		ElapsedSeconds:  report.Detection.ElapsedSeconds,
		Report:          string(reportJSON),
	})
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
