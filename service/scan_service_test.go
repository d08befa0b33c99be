package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/vitals-dev/vitals/domain"
)

// fakeProvider serves module content from memory and counts fetches
type fakeProvider struct {
	paths    []string
	contents map[string]string
	failures map[string]error
	fetches  map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		contents: make(map[string]string),
		failures: make(map[string]error),
		fetches:  make(map[string]int),
	}
}

func (p *fakeProvider) add(path, content string) {
	p.paths = append(p.paths, path)
	p.contents[path] = content
}

func (p *fakeProvider) fail(path string, err error) {
	p.paths = append(p.paths, path)
	p.failures[path] = err
}

func (p *fakeProvider) Paths() []string {
	return p.paths
}

func (p *fakeProvider) Fetch(_ context.Context, path string) (string, error) {
	p.fetches[path]++
	if err, ok := p.failures[path]; ok {
		return "", err
	}
	content, ok := p.contents[path]
	if !ok {
		return "", fmt.Errorf("no such module: %s", path)
	}
	return content, nil
}

func newTestScanService(provider domain.ModuleSourceProvider) *ScanServiceImpl {
	return NewScanService(provider).WithStageTimer(NewImmediateStageTimer())
}

// calmModuleContent builds content with no architectural signal
func calmModuleContent(lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&b, "const v%d = () => %d;\n", i, i)
	}
	return b.String()
}

const denseCoreContent = `import { bootstrap } from "./core/runtime";
export class AnalysisEngine {
  async run() {
    await bootstrap();
  }
}
export const createEngine = () => new AnalysisEngine();
`

func TestScan_BuildsModuleRecords(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/features/billing.ts", calmModuleContent(60))
	provider.add("src/core/engine.ts", denseCoreContent)
	svc := newTestScanService(provider)

	response, err := svc.Scan(context.Background(), domain.ScanRequest{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	result := response.Result
	if result == nil {
		t.Fatal("Expected a result")
	}
	if len(result.Modules) != 2 {
		t.Fatalf("Expected 2 modules, got %d", len(result.Modules))
	}

	// Core sorts ahead of features
	engine := result.Modules[0]
	if engine.Path != "src/core/engine.ts" {
		t.Errorf("Expected core module first, got '%s'", engine.Path)
	}
	if engine.Category != domain.CategoryCore {
		t.Errorf("Expected core category, got '%s'", engine.Category)
	}
	if engine.LinesOfCode == 0 {
		t.Error("Expected a line count")
	}
	if engine.PatternDensity != 1.0 {
		t.Errorf("Expected saturated density for the dense module, got %f", engine.PatternDensity)
	}
	if engine.Description == "" {
		t.Error("Expected a description")
	}

	billing := result.Modules[1]
	if billing.Category != domain.CategoryFeatures {
		t.Errorf("Expected features category, got '%s'", billing.Category)
	}
	if billing.PatternDensity != 0 {
		t.Errorf("Expected zero density for the calm module, got %f", billing.PatternDensity)
	}

	if !strings.HasPrefix(result.Fingerprint, "scan-v1-") {
		t.Errorf("Expected first-version fingerprint, got '%s'", result.Fingerprint)
	}
	if _, err := time.Parse(time.RFC3339, result.ScannedAt); err != nil {
		t.Errorf("Expected RFC3339 scan time, got '%s'", result.ScannedAt)
	}

	wantAggregate := (1.0 + 0.0) / 2
	if math.Abs(result.AggregatePatternDensity-wantAggregate) > 1e-9 {
		t.Errorf("Expected aggregate density %f, got %f", wantAggregate, result.AggregatePatternDensity)
	}

	if response.Summary.TotalModules != 2 {
		t.Errorf("Expected 2 total modules, got %d", response.Summary.TotalModules)
	}
	if response.Summary.TotalLines != engine.LinesOfCode+billing.LinesOfCode {
		t.Errorf("Expected summed line count, got %d", response.Summary.TotalLines)
	}
	if len(response.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", response.Warnings)
	}
	if response.Version == "" {
		t.Error("Expected a tool version on the response")
	}

	if svc.Stage() != domain.ScanStageComplete {
		t.Errorf("Expected complete stage after scan, got '%s'", svc.Stage())
	}
	if svc.LatestResult() != result {
		t.Error("Expected the latest result to be the returned result")
	}
}

func TestScan_ComputesCategoryProfile(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/features/billing.ts", calmModuleContent(60))
	provider.add("src/core/engine.ts", denseCoreContent)
	svc := newTestScanService(provider)

	response, err := svc.Scan(context.Background(), domain.ScanRequest{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	profile := response.Result.CategoryProfile
	if len(profile) != len(domain.AllCategories()) {
		t.Fatalf("Expected every category in the profile, got %d entries", len(profile))
	}

	var engineLines, billingLines int
	for _, m := range response.Result.Modules {
		switch m.Category {
		case domain.CategoryCore:
			engineLines = m.LinesOfCode
		case domain.CategoryFeatures:
			billingLines = m.LinesOfCode
		}
	}
	total := float64(engineLines + billingLines)
	if math.Abs(profile[domain.CategoryCore]-float64(engineLines)/total) > 1e-9 {
		t.Errorf("Unexpected core share %f", profile[domain.CategoryCore])
	}
	if profile[domain.CategoryUI] != 0 {
		t.Errorf("Expected zero share for an absent category, got %f", profile[domain.CategoryUI])
	}

	var sum float64
	for _, share := range profile {
		sum += share
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("Expected shares to sum to 1, got %f", sum)
	}
}

func TestScan_ExcludesTestAndGeneratedModules(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/app.ts", calmModuleContent(10))
	provider.add("src/app.test.ts", calmModuleContent(10))
	provider.add("src/__tests__/helpers.ts", calmModuleContent(10))
	provider.add("src/types.d.ts", calmModuleContent(10))
	provider.add("src/api.generated.ts", calmModuleContent(10))
	svc := newTestScanService(provider)

	response, err := svc.Scan(context.Background(), domain.ScanRequest{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(response.Result.Modules) != 1 {
		t.Fatalf("Expected 1 module, got %d", len(response.Result.Modules))
	}
	if response.Result.Modules[0].Path != "src/app.ts" {
		t.Errorf("Expected only the regular module, got '%s'", response.Result.Modules[0].Path)
	}
	if response.Summary.ModulesSkipped != 4 {
		t.Errorf("Expected 4 skipped modules, got %d", response.Summary.ModulesSkipped)
	}

	// Excluded modules are never fetched
	for _, excluded := range []string{"src/app.test.ts", "src/__tests__/helpers.ts", "src/types.d.ts", "src/api.generated.ts"} {
		if provider.fetches[excluded] != 0 {
			t.Errorf("Expected no fetch for excluded module '%s'", excluded)
		}
	}
}

func TestScan_SkipsUnreadableModules(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/app.ts", calmModuleContent(10))
	provider.fail("src/broken.ts", fmt.Errorf("permission denied"))
	svc := newTestScanService(provider)

	response, err := svc.Scan(context.Background(), domain.ScanRequest{})
	if err != nil {
		t.Fatalf("Expected the scan to continue past a read failure, got %v", err)
	}

	if len(response.Result.Modules) != 1 {
		t.Fatalf("Expected 1 module, got %d", len(response.Result.Modules))
	}
	if response.Summary.ModulesSkipped != 1 {
		t.Errorf("Expected 1 skipped module, got %d", response.Summary.ModulesSkipped)
	}
	if len(response.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(response.Warnings))
	}
	if !strings.Contains(response.Warnings[0], "src/broken.ts") {
		t.Errorf("Expected the warning to name the module, got '%s'", response.Warnings[0])
	}
}

func TestScan_FetchesEachModuleOnce(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/a.ts", calmModuleContent(5))
	provider.add("src/b.ts", calmModuleContent(5))
	svc := newTestScanService(provider)

	if _, err := svc.Scan(context.Background(), domain.ScanRequest{}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	for _, path := range []string{"src/a.ts", "src/b.ts"} {
		if provider.fetches[path] != 1 {
			t.Errorf("Expected exactly one fetch for '%s', got %d", path, provider.fetches[path])
		}
	}
}

func TestScan_EmitsProgressInStageOrder(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/a.ts", calmModuleContent(5))
	provider.add("src/b.ts", calmModuleContent(5))

	var events []domain.ProgressEvent
	svc := newTestScanService(provider).WithProgressSink(func(e domain.ProgressEvent) {
		events = append(events, e)
	})

	if _, err := svc.Scan(context.Background(), domain.ScanRequest{}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(events) == 0 {
		t.Fatal("Expected progress events")
	}
	first := events[0]
	if first.Stage != domain.ScanStageScanning || first.Percent != 0 {
		t.Errorf("Expected scan to open at (scanning, 0), got (%s, %f)", first.Stage, first.Percent)
	}
	last := events[len(events)-1]
	if last.Stage != domain.ScanStageComplete || last.Percent != 100 {
		t.Errorf("Expected scan to close at (complete, 100), got (%s, %f)", last.Stage, last.Percent)
	}

	stageRank := map[domain.ScanStage]int{
		domain.ScanStageScanning:   0,
		domain.ScanStageExtracting: 1,
		domain.ScanStageMatching:   2,
		domain.ScanStagePredicting: 3,
		domain.ScanStageComplete:   4,
	}
	seen := make(map[domain.ScanStage]bool)
	lastRank, lastPercent := -1, -1.0
	for _, e := range events {
		rank, ok := stageRank[e.Stage]
		if !ok {
			t.Fatalf("Unexpected stage '%s'", e.Stage)
		}
		if rank < lastRank {
			t.Errorf("Stage '%s' emitted after a later stage", e.Stage)
		}
		if e.Percent < lastPercent {
			t.Errorf("Progress went backwards: %f after %f", e.Percent, lastPercent)
		}
		if e.Percent > 100 {
			t.Errorf("Progress exceeded 100: %f", e.Percent)
		}
		seen[e.Stage] = true
		lastRank, lastPercent = rank, e.Percent
	}
	for stage := range stageRank {
		if !seen[stage] {
			t.Errorf("Expected events for stage '%s'", stage)
		}
	}
}

func TestScan_EmptyProvider(t *testing.T) {
	svc := newTestScanService(newFakeProvider())

	response, err := svc.Scan(context.Background(), domain.ScanRequest{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	result := response.Result
	if len(result.Modules) != 0 {
		t.Errorf("Expected no modules, got %d", len(result.Modules))
	}
	if result.AggregatePatternDensity != 0 {
		t.Errorf("Expected zero aggregate density, got %f", result.AggregatePatternDensity)
	}
	if len(result.CategoryProfile) != len(domain.AllCategories()) {
		t.Errorf("Expected a full zero profile, got %d entries", len(result.CategoryProfile))
	}
	for category, share := range result.CategoryProfile {
		if share != 0 {
			t.Errorf("Expected zero share for '%s', got %f", category, share)
		}
	}
	if result.Archetype != "unclassified" {
		t.Errorf("Expected unclassified archetype, got '%s'", result.Archetype)
	}
	if len(result.Issues) != 0 {
		t.Errorf("Expected no issues, got %d", len(result.Issues))
	}
}

func TestScan_DetectsIssuesAndAttachesPrompts(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/features/billing.ts", calmModuleContent(60))
	provider.add("src/core/engine.ts", denseCoreContent)
	svc := newTestScanService(provider)

	response, err := svc.Scan(context.Background(), domain.ScanRequest{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	lowDensity := issuesOfType(response.Result.Issues, domain.IssueTypeLowDensity)
	if len(lowDensity) != 1 {
		t.Fatalf("Expected 1 low-density issue, got %d", len(lowDensity))
	}
	issue := lowDensity[0]
	if issue.SubjectPath != "src/features/billing.ts" {
		t.Errorf("Expected the calm module flagged, got '%s'", issue.SubjectPath)
	}
	if issue.Severity != domain.SeverityHigh {
		t.Errorf("Expected high severity at zero density, got '%s'", issue.Severity)
	}
	if issue.RemediationPrompt == "" {
		t.Fatal("Expected an attached remediation prompt")
	}
	if !strings.Contains(issue.RemediationPrompt, "src/features/billing.ts") {
		t.Errorf("Expected the prompt to reference the module, got '%s'", issue.RemediationPrompt)
	}
	if response.Summary.IssuesFound != len(response.Result.Issues) {
		t.Errorf("Expected the summary to count issues, got %d", response.Summary.IssuesFound)
	}
}

func TestScan_MinSeverityFiltersIssues(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/features/billing.ts", calmModuleContent(60))
	provider.add("src/core/engine.ts", denseCoreContent)
	svc := newTestScanService(provider)

	response, err := svc.Scan(context.Background(), domain.ScanRequest{
		MinSeverity: domain.SeverityCritical,
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(response.Result.Issues) != 0 {
		t.Errorf("Expected all issues filtered below critical, got %d", len(response.Result.Issues))
	}
	if len(response.Result.Modules) != 2 {
		t.Errorf("Expected modules unaffected by the severity floor, got %d", len(response.Result.Modules))
	}
}

func TestScan_FingerprintVersionAdvances(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/a.ts", calmModuleContent(5))
	svc := newTestScanService(provider)

	first, err := svc.Scan(context.Background(), domain.ScanRequest{})
	if err != nil {
		t.Fatalf("First scan failed: %v", err)
	}
	second, err := svc.Scan(context.Background(), domain.ScanRequest{})
	if err != nil {
		t.Fatalf("Second scan failed: %v", err)
	}

	if !strings.HasPrefix(first.Result.Fingerprint, "scan-v1-") {
		t.Errorf("Expected version 1 fingerprint, got '%s'", first.Result.Fingerprint)
	}
	if !strings.HasPrefix(second.Result.Fingerprint, "scan-v2-") {
		t.Errorf("Expected version 2 fingerprint, got '%s'", second.Result.Fingerprint)
	}
}

func TestScan_RepeatScanKeepsIssueIdentity(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/features/billing.ts", calmModuleContent(60))
	provider.add("src/core/engine.ts", denseCoreContent)
	svc := newTestScanService(provider)

	first, err := svc.Scan(context.Background(), domain.ScanRequest{})
	if err != nil {
		t.Fatalf("First scan failed: %v", err)
	}
	second, err := svc.Scan(context.Background(), domain.ScanRequest{})
	if err != nil {
		t.Fatalf("Second scan failed: %v", err)
	}

	if len(first.Result.Issues) == 0 {
		t.Fatal("Expected the fixture to produce issues")
	}
	if len(second.Result.Issues) != len(first.Result.Issues) {
		t.Fatalf("Expected the same issue count, got %d and %d",
			len(first.Result.Issues), len(second.Result.Issues))
	}
	for i := range first.Result.Issues {
		if second.Result.Issues[i].ID != first.Result.Issues[i].ID {
			t.Errorf("Issue %d changed identity: '%s' vs '%s'",
				i, first.Result.Issues[i].ID, second.Result.Issues[i].ID)
		}
	}
	if second.Result.Fingerprint == first.Result.Fingerprint {
		t.Errorf("Expected a new fingerprint per scan, got '%s' twice", first.Result.Fingerprint)
	}
}

func TestScan_FreshAnalysisStartsNewVersionLine(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/a.ts", calmModuleContent(5))
	svc := newTestScanService(provider)

	if _, err := svc.Scan(context.Background(), domain.ScanRequest{}); err != nil {
		t.Fatalf("First scan failed: %v", err)
	}
	if svc.LatestResult() == nil {
		t.Fatal("Expected a published result")
	}

	fresh, err := svc.Scan(context.Background(), domain.ScanRequest{FreshAnalysis: true})
	if err != nil {
		t.Fatalf("Fresh scan failed: %v", err)
	}

	// Invalidation burns a version so the fresh line never collides
	// with previously published fingerprints
	if !strings.HasPrefix(fresh.Result.Fingerprint, "scan-v3-") {
		t.Errorf("Expected fresh scan at version 3, got '%s'", fresh.Result.Fingerprint)
	}
	if svc.LatestResult() != fresh.Result {
		t.Error("Expected the fresh result to be published")
	}
}

func TestScan_CancelledContext(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/a.ts", calmModuleContent(5))
	svc := newTestScanService(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Scan(ctx, domain.ScanRequest{})
	if err == nil {
		t.Fatal("Expected an error from a cancelled scan")
	}
	if !domain.IsCode(err, domain.ErrCodeAnalysisError) {
		t.Errorf("Expected an analysis error, got %v", err)
	}
	if svc.Stage() != domain.ScanStageIdle {
		t.Errorf("Expected idle stage after interruption, got '%s'", svc.Stage())
	}
	if svc.LatestResult() != nil {
		t.Error("Expected no published result after interruption")
	}
}

func TestScan_MarksSupersededModules(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/core/engine.ts", calmModuleContent(10))
	provider.add("src/core/engine/loop.ts", calmModuleContent(10))
	svc := newTestScanService(provider)

	response, err := svc.Scan(context.Background(), domain.ScanRequest{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	byPath := make(map[string]domain.ModuleRecord)
	for _, m := range response.Result.Modules {
		byPath[m.Path] = m
	}
	if !byPath["src/core/engine.ts"].HasSupersedingModules {
		t.Error("Expected the parent module to be marked superseded")
	}
	if byPath["src/core/engine/loop.ts"].HasSupersedingModules {
		t.Error("Expected the child module to not be marked superseded")
	}
}

func TestScan_BoundsContentPreview(t *testing.T) {
	provider := newFakeProvider()
	provider.add("src/features/long.ts", calmModuleContent(60))
	svc := newTestScanService(provider)

	response, err := svc.Scan(context.Background(), domain.ScanRequest{ContentPreviewLength: 25})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	preview := response.Result.Modules[0].ContentPreview
	if got := len([]rune(preview)); got != 25 {
		t.Errorf("Expected a 25-rune preview, got %d", got)
	}
}

func TestMeanDensity(t *testing.T) {
	modules := []domain.ModuleRecord{
		{PatternDensity: 0.2},
		{PatternDensity: 0.4},
	}
	if got := meanDensity(modules); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("Expected mean 0.3, got %f", got)
	}
	if got := meanDensity(nil); got != 0 {
		t.Errorf("Expected zero mean for no modules, got %f", got)
	}
}

func TestEffectiveThresholds(t *testing.T) {
	if got := effectiveThresholds(domain.DetectorThresholds{}); got.LowDensityThreshold != domain.DefaultLowDensityThreshold {
		t.Errorf("Expected defaults for an unset block, got %f", got.LowDensityThreshold)
	}

	custom := domain.DefaultDetectorThresholds()
	custom.LowDensityThreshold = 0.40
	if got := effectiveThresholds(custom); got.LowDensityThreshold != 0.40 {
		t.Errorf("Expected custom thresholds kept, got %f", got.LowDensityThreshold)
	}
}

func TestPreviewOf(t *testing.T) {
	if got := previewOf("hello", 10); got != "hello" {
		t.Errorf("Expected short content unchanged, got '%s'", got)
	}
	if got := previewOf("hello world", 5); got != "hello" {
		t.Errorf("Expected truncation to 5 runes, got '%s'", got)
	}
}
