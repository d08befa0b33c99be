package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vitals-dev/vitals/domain"
	"github.com/vitals-dev/vitals/internal/analyzer"
	"github.com/vitals-dev/vitals/internal/constants"
	"github.com/vitals-dev/vitals/internal/logging"
	"github.com/vitals-dev/vitals/internal/version"
)

// ScanServiceImpl orchestrates the scan pipeline. Stages advance
// strictly idle -> scanning -> extracting -> matching -> predicting ->
// complete; a failed or interrupted run resets to idle and leaves the
// last published result untouched.
type ScanServiceImpl struct {
	provider  domain.ModuleSourceProvider
	detector  domain.IssueDetector
	prompts   domain.PromptGenerator
	predictor domain.SignaturePredictor
	versioner domain.ScanVersioner
	timer     domain.StageTimer
	sink      domain.ProgressSink
	logger    *logging.Logger

	runMu   sync.Mutex   // at most one scan in flight
	stateMu sync.RWMutex // guards stage and latest
	stage   domain.ScanStage
	latest  *domain.ScanResult
}

// NewScanService creates a scan service reading modules from the
// given provider, with default collaborators
func NewScanService(provider domain.ModuleSourceProvider) *ScanServiceImpl {
	return &ScanServiceImpl{
		provider:  provider,
		detector:  NewIssueDetector(),
		prompts:   NewPromptGenerator(),
		predictor: NewSignaturePredictor(),
		versioner: NewScanVersioner(),
		timer:     NewDefaultStageTimer(),
		logger:    logging.NewNopLogger(),
		stage:     domain.ScanStageIdle,
	}
}

// WithDetector replaces the issue detector
func (s *ScanServiceImpl) WithDetector(detector domain.IssueDetector) *ScanServiceImpl {
	s.detector = detector
	return s
}

// WithPromptGenerator replaces the prompt generator
func (s *ScanServiceImpl) WithPromptGenerator(prompts domain.PromptGenerator) *ScanServiceImpl {
	s.prompts = prompts
	return s
}

// WithPredictor replaces the signature predictor
func (s *ScanServiceImpl) WithPredictor(predictor domain.SignaturePredictor) *ScanServiceImpl {
	s.predictor = predictor
	return s
}

// WithVersioner replaces the scan versioner
func (s *ScanServiceImpl) WithVersioner(versioner domain.ScanVersioner) *ScanServiceImpl {
	s.versioner = versioner
	return s
}

// WithStageTimer replaces the stage timer. Batch runs and tests use
// NewImmediateStageTimer to drop all pacing delays.
func (s *ScanServiceImpl) WithStageTimer(timer domain.StageTimer) *ScanServiceImpl {
	s.timer = timer
	return s
}

// WithProgressSink registers a progress observer
func (s *ScanServiceImpl) WithProgressSink(sink domain.ProgressSink) *ScanServiceImpl {
	s.sink = sink
	return s
}

// WithLogger replaces the no-op logger
func (s *ScanServiceImpl) WithLogger(logger *logging.Logger) *ScanServiceImpl {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Scan runs the full pipeline and returns the completed response
func (s *ScanServiceImpl) Scan(ctx context.Context, req domain.ScanRequest) (*domain.ScanResponse, error) {
	if s.provider == nil {
		return nil, domain.NewAnalysisError("no module source configured", nil)
	}
	// A scan in flight holds runMu until it completes or aborts, so a
	// re-entrant call waits for the prior run instead of failing.
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if stage := s.Stage(); !stage.CanStartScan() {
		return nil, domain.NewAnalysisError(fmt.Sprintf("cannot start scan from stage %s", stage), nil)
	}

	if req.FreshAnalysis {
		s.versioner.Invalidate()
		s.stateMu.Lock()
		s.latest = nil
		s.stateMu.Unlock()
	}

	started := time.Now()
	scanVersion := s.versioner.Next()
	s.logger.SetFingerprint(Fingerprint(scanVersion, started))
	s.logger.Info(logging.CategoryScan, "scan_started", "scan started", map[string]any{
		"version": scanVersion,
		"fresh":   req.FreshAnalysis,
	})

	s.setStage(domain.ScanStageScanning)
	s.emit(domain.ScanStageScanning, 0)

	modules, warnings, skipped, err := s.scanModules(ctx, req)
	if err != nil {
		return nil, s.abort(err)
	}

	// Presentation order: category rank first, denser modules first
	// within a category
	sort.SliceStable(modules, func(i, j int) bool {
		pi, pj := modules[i].Category.Priority(), modules[j].Category.Priority()
		if pi != pj {
			return pi < pj
		}
		return modules[i].PatternDensity > modules[j].PatternDensity
	})

	if err := s.runSyntheticStage(ctx, domain.ScanStageExtracting); err != nil {
		return nil, s.abort(err)
	}
	profile := categoryProfile(modules)
	aggregate := meanDensity(modules)

	if err := s.runSyntheticStage(ctx, domain.ScanStageMatching); err != nil {
		return nil, s.abort(err)
	}
	issues := s.detector.Detect(modules, effectiveThresholds(req.Thresholds))
	issues = floorSeverity(issues, req.MinSeverity)
	for i := range issues {
		issues[i].RemediationPrompt = s.prompts.IssuePrompt(issues[i])
	}

	if err := s.runSyntheticStage(ctx, domain.ScanStagePredicting); err != nil {
		return nil, s.abort(err)
	}
	prediction := s.predictor.Predict(profile, scanVersion, started)

	result := &domain.ScanResult{
		Modules:                 modules,
		CategoryProfile:         profile,
		AggregatePatternDensity: aggregate,
		Archetype:               prediction.Archetype,
		Fingerprint:             prediction.Fingerprint,
		Issues:                  issues,
		ScannedAt:               started.Format(time.RFC3339),
	}

	s.stateMu.Lock()
	s.latest = result
	s.stage = domain.ScanStageComplete
	s.stateMu.Unlock()
	s.emit(domain.ScanStageComplete, 100)

	totalLines := 0
	for _, m := range modules {
		totalLines += m.LinesOfCode
	}

	s.logger.Info(logging.CategoryScan, "scan_complete", "scan complete", map[string]any{
		"modules":     len(modules),
		"skipped":     skipped,
		"issues":      len(issues),
		"archetype":   prediction.Archetype,
		"duration_ms": time.Since(started).Milliseconds(),
	})

	return &domain.ScanResponse{
		Result: result,
		Summary: domain.ScanSummary{
			TotalModules:   len(modules),
			TotalLines:     totalLines,
			AverageDensity: aggregate,
			IssuesFound:    len(issues),
			ModulesSkipped: skipped,
		},
		Warnings:    warnings,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.GetVersion(),
	}, nil
}

// Stage reports the pipeline state at the time of the call
func (s *ScanServiceImpl) Stage() domain.ScanStage {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.stage == "" {
		return domain.ScanStageIdle
	}
	return s.stage
}

// LatestResult returns the most recent completed result, or nil
func (s *ScanServiceImpl) LatestResult() *domain.ScanResult {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.latest
}

// scanModules walks every eligible module, fetching content lazily and
// deriving the per-module record. Unreadable modules are skipped with
// a warning; only cancellation aborts the walk.
func (s *ScanServiceImpl) scanModules(ctx context.Context, req domain.ScanRequest) ([]domain.ModuleRecord, []string, int, error) {
	paths := s.provider.Paths()

	eligible := make([]string, 0, len(paths))
	skipped := 0
	for _, path := range paths {
		if rule, excluded := analyzer.ExcludedModuleRule(path); excluded {
			s.logger.Debug(logging.CategoryScan, "module_excluded", "module excluded", map[string]any{
				"path": path,
				"rule": rule,
			})
			skipped++
			continue
		}
		eligible = append(eligible, path)
	}

	superseded := analyzer.SupersededPaths(eligible)
	previewLimit := previewLimit(req.ContentPreviewLength)

	var warnings []string
	modules := make([]domain.ModuleRecord, 0, len(eligible))
	for i, path := range eligible {
		if err := ctx.Err(); err != nil {
			return nil, nil, 0, err
		}

		content, err := s.provider.Fetch(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, 0, ctx.Err()
			}
			warnings = append(warnings, fmt.Sprintf("skipped %s: %v", path, err))
			s.logger.Warn(logging.CategoryScan, "module_read_failed", "module skipped", map[string]any{
				"path":  path,
				"error": err.Error(),
			})
			skipped++
			continue
		}

		category := analyzer.Categorize(path)
		metrics := analyzer.MeasureComplexity(content)
		density := analyzer.EstimateDensity(content, category)

		modules = append(modules, domain.ModuleRecord{
			Path:                  path,
			Category:              category,
			LinesOfCode:           metrics.Lines,
			Complexity:            metrics.Level(),
			PatternDensity:        density.Density,
			Description:           analyzer.Describe(content, category),
			ContentPreview:        previewOf(content, previewLimit),
			HasSupersedingModules: superseded[path],
		})

		s.emit(domain.ScanStageScanning, 40*float64(i+1)/float64(len(eligible)))
		if err := s.timer.PauseAfterModule(ctx); err != nil {
			return nil, nil, 0, err
		}
	}

	return modules, warnings, skipped, nil
}

// runSyntheticStage advances through one post-scanning stage, emitting
// evenly spaced progress ticks across its window
func (s *ScanServiceImpl) runSyntheticStage(ctx context.Context, stage domain.ScanStage) error {
	s.setStage(stage)
	start, end := stage.Window()
	for tick := 1; tick <= constants.SyntheticStageTicks; tick++ {
		s.emit(stage, start+(end-start)*float64(tick)/float64(constants.SyntheticStageTicks))
		if err := s.timer.PauseAfterTick(ctx); err != nil {
			return err
		}
	}
	return nil
}

// abort resets the pipeline to idle after a failed run. The last
// published result stays as it was.
func (s *ScanServiceImpl) abort(cause error) error {
	s.setStage(domain.ScanStageIdle)
	s.logger.Warn(logging.CategoryScan, "scan_interrupted", "scan interrupted", map[string]any{
		"error": cause.Error(),
	})
	return domain.NewAnalysisError("scan interrupted", cause)
}

func (s *ScanServiceImpl) setStage(stage domain.ScanStage) {
	s.stateMu.Lock()
	s.stage = stage
	s.stateMu.Unlock()
}

func (s *ScanServiceImpl) emit(stage domain.ScanStage, percent float64) {
	if s.sink != nil {
		s.sink(domain.ProgressEvent{Stage: stage, Percent: percent})
	}
}

// categoryProfile computes each category's share of total lines. Every
// category appears in the profile; an empty scan yields all zeros.
func categoryProfile(modules []domain.ModuleRecord) map[domain.Category]float64 {
	lines := make(map[domain.Category]int)
	total := 0
	for _, m := range modules {
		lines[m.Category] += m.LinesOfCode
		total += m.LinesOfCode
	}

	profile := make(map[domain.Category]float64, len(domain.AllCategories()))
	for _, category := range domain.AllCategories() {
		if total == 0 {
			profile[category] = 0
			continue
		}
		profile[category] = float64(lines[category]) / float64(total)
	}
	return profile
}

// meanDensity returns the unweighted mean of per-module densities
func meanDensity(modules []domain.ModuleRecord) float64 {
	if len(modules) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range modules {
		sum += m.PatternDensity
	}
	return sum / float64(len(modules))
}

// floorSeverity drops issues below the configured minimum severity
func floorSeverity(issues []domain.Issue, floor domain.Severity) []domain.Issue {
	if floor == "" {
		return issues
	}
	kept := issues[:0]
	for _, issue := range issues {
		if issue.Severity.AtLeast(floor) {
			kept = append(kept, issue)
		}
	}
	return kept
}

// effectiveThresholds falls back to the defaults when the request
// carries an unset threshold block
func effectiveThresholds(t domain.DetectorThresholds) domain.DetectorThresholds {
	if t.LowDensityThreshold <= 0 {
		return domain.DefaultDetectorThresholds()
	}
	return t
}

func previewLimit(requested int) int {
	switch {
	case requested <= 0:
		return constants.DefaultContentPreviewLength
	case requested > constants.MaxContentPreviewLength:
		return constants.MaxContentPreviewLength
	default:
		return requested
	}
}

// previewOf returns a bounded prefix of the content
func previewOf(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit])
}

// Compile-time interface check
var _ domain.ScanService = (*ScanServiceImpl)(nil)
