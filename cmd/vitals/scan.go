package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vitals-dev/vitals/app"
	"github.com/vitals-dev/vitals/domain"
	"github.com/vitals-dev/vitals/internal/config"
	"github.com/vitals-dev/vitals/internal/logging"
	"github.com/vitals-dev/vitals/service"
)

var (
	scanFormat        string
	scanJSONOutput    bool
	scanYAMLOutput    bool
	scanShowDetails   bool
	scanMinSeverity   string
	scanNoProgress    bool
	scanFresh         bool
	scanNoRecursive   bool
	scanPreviewLength int
	scanOutputPath    string
	scanConfigPath    string
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Scan a codebase and report its structural health",
		Long: `Scan JavaScript/TypeScript modules, estimate pattern density and complexity,
classify the codebase archetype, and report detected issues.

Examples:
  vitals scan src/
  vitals scan --details src/
  vitals scan --format json src/ > report.json
  vitals scan --min-severity high src/ lib/
  vitals scan --fresh --no-progress src/`,
		RunE: runScan,
	}

	cmd.Flags().StringVarP(&scanFormat, "format", "f", "",
		"Output format: text, json, yaml, csv, html")
	cmd.Flags().BoolVar(&scanJSONOutput, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().BoolVar(&scanYAMLOutput, "yaml", false,
		"Output results as YAML (shorthand for --format yaml)")
	cmd.Flags().BoolVarP(&scanShowDetails, "details", "d", false,
		"Show per-module records and remediation prompts")
	cmd.Flags().StringVar(&scanMinSeverity, "min-severity", "",
		"Only report issues at or above this severity: low, medium, high, critical")
	cmd.Flags().BoolVar(&scanNoProgress, "no-progress", false,
		"Disable progress display")
	cmd.Flags().BoolVar(&scanFresh, "fresh", false,
		"Discard the previous scan version and start fresh")
	cmd.Flags().BoolVar(&scanNoRecursive, "no-recursive", false,
		"Do not descend into subdirectories")
	cmd.Flags().IntVar(&scanPreviewLength, "preview-length", 0,
		"Content preview length stored per module (0 = config default)")
	cmd.Flags().StringVarP(&scanOutputPath, "output", "o", "",
		"Output file path (default: stdout)")
	cmd.Flags().StringVarP(&scanConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) (err error) {
	if len(args) == 0 {
		return fmt.Errorf("no paths specified")
	}
	if scanMinSeverity != "" && domain.Severity(scanMinSeverity).Rank() < 0 {
		return fmt.Errorf("unknown severity: %s", scanMinSeverity)
	}

	// Build the request: config file first, command-line flags on top
	loader := service.NewConfigurationLoader()
	var base *domain.ScanRequest
	if scanConfigPath != "" {
		base, err = loader.LoadConfig(scanConfigPath)
		if err != nil {
			return err
		}
	} else {
		base = loader.LoadDefaultConfig()
	}

	req := loader.MergeConfig(base, scanOverrides(args))
	if scanNoRecursive {
		req.Recursive = false
	}

	// Ambient settings (pacing, log directory) come from the same config
	cfg, cfgErr := config.LoadConfigWithTarget(scanConfigPath, "")
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}

	sessionID := uuid.NewString()
	logger := newSessionLogger(cfg, sessionID)
	defer logger.Close()

	// Progress is auto-disabled for JSON output and non-TTY environments
	pm := service.NewProgressManager(!req.NoProgress && req.OutputFormat != domain.OutputFormatJSON)
	defer pm.Close()

	// Pacing keeps interactive scans observable; batch runs skip it
	timer := service.NewImmediateStageTimer()
	if pm.IsInteractive() {
		timer = service.NewStageTimer(
			time.Duration(cfg.Scan.ModulePauseMs)*time.Millisecond,
			time.Duration(cfg.Scan.TickPauseMs)*time.Millisecond,
		)
	}

	task := pm.StartTask("Scanning codebase", 100)
	defer task.Complete()

	lastPercent := 0
	var lastStage domain.ScanStage
	sink := func(ev domain.ProgressEvent) {
		if ev.Stage != lastStage {
			task.Describe(stageLabel(ev.Stage))
			lastStage = ev.Stage
		}
		if cur := int(ev.Percent); cur > lastPercent {
			task.Increment(cur - lastPercent)
			lastPercent = cur
		}
	}

	provider := app.NewModuleProvider()
	scanService := service.NewScanService(provider).
		WithStageTimer(timer).
		WithProgressSink(sink).
		WithLogger(logger)

	fileHelper := app.NewFileHelper().WithGitignore(cfg.Analysis.RespectGitignore)
	uc, err := app.NewScanUseCaseBuilder().
		WithProvider(provider).
		WithService(scanService).
		WithFileHelper(fileHelper).
		Build()
	if err != nil {
		return err
	}

	// Determine output writer
	var writer *os.File
	if scanOutputPath != "" {
		f, createErr := os.Create(scanOutputPath)
		if createErr != nil {
			return fmt.Errorf("failed to create output file: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", closeErr)
			}
		}()
		writer = f
	} else {
		writer = os.Stdout
	}
	req.OutputWriter = writer

	ctx := context.Background()
	response, err := uc.Execute(ctx, *req)
	if err != nil {
		return err
	}

	if req.OutputFormat == domain.OutputFormatText {
		for _, w := range response.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}
	}

	if scanOutputPath != "" {
		absPath, _ := filepath.Abs(scanOutputPath)
		fmt.Printf("Output saved to: %s\n", absPath)
	}

	return nil
}

// scanOverrides translates explicitly set flags into a request overlay.
// Zero values are skipped by MergeConfig, so config values survive.
func scanOverrides(args []string) *domain.ScanRequest {
	override := &domain.ScanRequest{
		Paths:                args,
		ShowDetails:          scanShowDetails,
		NoProgress:           scanNoProgress,
		FreshAnalysis:        scanFresh,
		ContentPreviewLength: scanPreviewLength,
		MinSeverity:          domain.Severity(scanMinSeverity),
	}

	if scanJSONOutput || scanFormat == "json" {
		override.OutputFormat = domain.OutputFormatJSON
	} else if scanYAMLOutput || scanFormat == "yaml" {
		override.OutputFormat = domain.OutputFormatYAML
	} else if scanFormat != "" {
		override.OutputFormat = domain.OutputFormat(scanFormat)
	}

	return override
}

func stageLabel(stage domain.ScanStage) string {
	switch stage {
	case domain.ScanStageScanning:
		return "Scanning modules"
	case domain.ScanStageExtracting:
		return "Extracting patterns"
	case domain.ScanStageMatching:
		return "Matching categories"
	case domain.ScanStagePredicting:
		return "Predicting signature"
	default:
		return "Scanning codebase"
	}
}

// newSessionLogger opens the JSONL session log, falling back to a no-op
// logger when the log directory cannot be prepared.
func newSessionLogger(cfg *config.Config, sessionID string) *logging.Logger {
	logDir := cfg.Logging.Directory
	if logDir == "" {
		logDir = filepath.Join(".vitals", "logs")
	}

	logger, err := logging.NewLogger(logDir, sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: session logging disabled: %v\n", err)
		return logging.NewNopLogger()
	}

	if cfg.Logging.MinLevel != "" {
		logger.SetMinLevel(logging.Level(cfg.Logging.MinLevel))
	}
	return logger
}
