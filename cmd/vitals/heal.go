package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vitals-dev/vitals/app"
	"github.com/vitals-dev/vitals/domain"
	"github.com/vitals-dev/vitals/internal/config"
	"github.com/vitals-dev/vitals/internal/constants"
	"github.com/vitals-dev/vitals/internal/logging"
	"github.com/vitals-dev/vitals/internal/storage"
	"github.com/vitals-dev/vitals/service"
)

var (
	healConfigPath string
	healDBPath     string
	healJSON       bool
)

func healCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heal",
		Short: "Manage the self-healing controller",
		Long: `Track fix candidates for detected issues, apply them, and tune auto-apply.

Candidates and their audit trail persist in a SQLite database, so they
survive across scans and deduplicate against earlier runs.

Examples:
  # Scan and feed the detected issues to the controller
  vitals heal run src/

  # Mark one candidate as applied
  vitals heal apply lowDensity:src/utils.js

  # Show candidate statistics
  vitals heal stats

  # Flip auto-apply on or off
  vitals heal toggle

  # Raise the auto-apply confidence bar
  vitals heal set-threshold 0.95`,
	}

	cmd.PersistentFlags().StringVarP(&healConfigPath, "config", "c", "",
		"Path to config file")
	cmd.PersistentFlags().StringVar(&healDBPath, "db", "",
		"Path to the candidate database (default: .vitals/heal.db)")
	cmd.PersistentFlags().BoolVar(&healJSON, "json", false,
		"Output results as JSON")

	cmd.AddCommand(healRunCmd())
	cmd.AddCommand(healApplyCmd())
	cmd.AddCommand(healStatsCmd())
	cmd.AddCommand(healToggleCmd())
	cmd.AddCommand(healSetThresholdCmd())

	return cmd
}

func healRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [path...]",
		Short: "Scan and track fix candidates for detected issues",
		RunE:  runHealRun,
	}
}

func healApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <candidate-id>",
		Short: "Mark a fix candidate as manually applied",
		Args:  cobra.ExactArgs(1),
		RunE:  runHealApply,
	}
}

func healStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show fix candidate statistics",
		RunE:  runHealStats,
	}
}

func healToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Flip auto-apply on or off",
		RunE:  runHealToggle,
	}
}

func healSetThresholdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-threshold <value>",
		Short: "Set the auto-apply confidence threshold",
		Long: `Set the minimum confidence at which new candidates are applied
automatically. Accepted values lie between 0.70 and 0.99; anything
outside that range is rejected and the previous threshold is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: runHealSetThreshold,
	}
}

func runHealRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("at least one path is required")
	}

	cfg, err := config.LoadConfigWithTarget(healConfigPath, args[0])
	if err != nil {
		return err
	}

	logger := newSessionLogger(cfg, uuid.NewString())
	defer logger.Close()

	// Batch scan: candidates are the output, not the progress display
	req := domain.ScanRequest{
		Paths:                args,
		Recursive:            cfg.Analysis.Recursive,
		NoProgress:           true,
		ContentPreviewLength: cfg.Scan.ContentPreviewLength,
		IncludePatterns:      cfg.Analysis.IncludePatterns,
		ExcludePatterns:      cfg.Analysis.ExcludePatterns,
		Thresholds:           cfg.Detection.Thresholds(),
	}

	provider := app.NewModuleProvider()
	scanService := service.NewScanService(provider).
		WithStageTimer(service.NewImmediateStageTimer()).
		WithLogger(logger)

	fileHelper := app.NewFileHelper().WithGitignore(cfg.Analysis.RespectGitignore)
	scanUC, err := app.NewScanUseCaseBuilder().
		WithProvider(provider).
		WithService(scanService).
		WithFileHelper(fileHelper).
		Build()
	if err != nil {
		return err
	}

	store, err := openCandidateStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	healService := service.NewHealService(cfg.Heal.ToDomain()).
		WithStore(store).
		WithLogger(logger)

	healUC, err := app.NewHealUseCaseBuilder().
		WithService(healService).
		WithScanUseCase(scanUC).
		Build()
	if err != nil {
		return err
	}

	result, err := healUC.Run(context.Background(), req)
	if err != nil {
		if result == nil {
			return err
		}
		// Candidates were created but not all of them persisted
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if healJSON {
		return service.WriteJSON(os.Stdout, result)
	}

	summary := result.Scan.Summary
	fmt.Printf("Scanned %d modules, %d issues found\n", summary.TotalModules, summary.IssuesFound)

	if len(result.Created) == 0 {
		fmt.Println("No new fix candidates")
		return nil
	}

	autoApplied := 0
	for _, c := range result.Created {
		if c.Status == domain.FixStatusAutoApplied {
			autoApplied++
		}
	}

	fmt.Printf("Created %d fix candidates (%d auto-applied)\n", len(result.Created), autoApplied)
	for _, c := range result.Created {
		fmt.Printf("  %s  [%s] confidence %.2f -> %s\n", c.ID, c.Severity, c.Confidence, c.Status)
	}

	return nil
}

func runHealApply(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithTarget(healConfigPath, "")
	if err != nil {
		return err
	}

	logger := newSessionLogger(cfg, uuid.NewString())
	defer logger.Close()

	store, err := openCandidateStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	healService := service.NewHealService(cfg.Heal.ToDomain()).
		WithStore(store).
		WithLogger(logger)

	healUC, err := app.NewHealUseCaseBuilder().WithService(healService).Build()
	if err != nil {
		return err
	}

	candidate, err := healUC.Apply(context.Background(), args[0])
	if err != nil {
		return err
	}

	if healJSON {
		return service.WriteJSON(os.Stdout, candidate)
	}

	fmt.Printf("Applied %s (status: %s)\n", candidate.ID, candidate.Status)

	// The stored trail shows how the candidate got here
	events, err := store.ListEvents(context.Background(), candidate.ID)
	if err == nil && len(events) > 0 {
		fmt.Println("Audit trail:")
		for _, e := range events {
			line := fmt.Sprintf("  %s  %s", e.CreatedAt, e.Event)
			if e.Detail != "" {
				line += "  (" + e.Detail + ")"
			}
			fmt.Println(line)
		}
	}
	return nil
}

func runHealStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithTarget(healConfigPath, "")
	if err != nil {
		return err
	}

	logger := newSessionLogger(cfg, uuid.NewString())
	defer logger.Close()

	store, err := openCandidateStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	healService := service.NewHealService(cfg.Heal.ToDomain()).
		WithStore(store).
		WithLogger(logger)

	healUC, err := app.NewHealUseCaseBuilder().WithService(healService).Build()
	if err != nil {
		return err
	}

	stats, err := healUC.Stats(context.Background())
	if err != nil {
		return err
	}

	format := domain.OutputFormatText
	if healJSON {
		format = domain.OutputFormatJSON
	}

	formatter := service.NewOutputFormatter()
	if err := formatter.WriteHealStats(stats, format, os.Stdout); err != nil {
		return err
	}

	if !healJSON {
		printRecentHealActivity(cfg)
	}
	return nil
}

// printRecentHealActivity tails the heal event log so stats show what
// the controller last did, not just the current totals. Missing or
// empty logs are fine; there is simply nothing to show yet.
func printRecentHealActivity(cfg *config.Config) {
	logDir := cfg.Logging.Directory
	if logDir == "" {
		logDir = filepath.Join(".vitals", "logs")
	}

	events, err := logging.ReadRecentEvents(filepath.Join(logDir, "heal.jsonl"), 5)
	if err != nil || len(events) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Recent activity:")
	for _, e := range events {
		line := fmt.Sprintf("  %s  %s", e.Timestamp.Format("2006-01-02 15:04"), e.EventType)
		if id, ok := e.Details["id"]; ok {
			line += fmt.Sprintf("  %v", id)
		}
		fmt.Println(line)
	}
}

func runHealToggle(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithTarget(healConfigPath, "")
	if err != nil {
		return err
	}

	logger := newSessionLogger(cfg, uuid.NewString())
	defer logger.Close()

	healService := service.NewHealService(cfg.Heal.ToDomain()).WithLogger(logger)
	healUC, err := app.NewHealUseCaseBuilder().WithService(healService).Build()
	if err != nil {
		return err
	}
	enabled := healUC.Toggle()

	cfg.Heal.Enabled = enabled
	path, err := persistHealSettings(cfg)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("Auto-apply %s (saved to %s)\n", state, path)
	return nil
}

func runHealSetThreshold(cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid threshold %q: %w", args[0], err)
	}

	cfg, err := config.LoadConfigWithTarget(healConfigPath, "")
	if err != nil {
		return err
	}

	logger := newSessionLogger(cfg, uuid.NewString())
	defer logger.Close()

	healService := service.NewHealService(cfg.Heal.ToDomain()).WithLogger(logger)
	healUC, err := app.NewHealUseCaseBuilder().WithService(healService).Build()
	if err != nil {
		return err
	}
	if err := healUC.SetThreshold(value); err != nil {
		return err
	}

	cfg.Heal.AutoApplyThreshold = value
	path, err := persistHealSettings(cfg)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("Auto-apply threshold set to %.2f (saved to %s)\n", value, path)
	return nil
}

// openCandidateStore opens the SQLite candidate store, preferring the
// --db flag over the configured path
func openCandidateStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	dbPath := healDBPath
	if dbPath == "" {
		dbPath = cfg.Heal.DatabasePath
	}
	if dbPath == "" {
		dbPath = filepath.Join(".vitals", "heal.db")
	}
	return storage.NewSQLiteStore(dbPath)
}

// persistHealSettings writes the healing settings back to the config
// file so toggles and thresholds survive the process
func persistHealSettings(cfg *config.Config) (string, error) {
	path := healConfigPath
	if path == "" {
		path = constants.ConfigFileName
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return "", err
	}
	return path, nil
}
