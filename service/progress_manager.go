package service

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/vitals-dev/vitals/domain"
)

// ProgressManagerImpl renders stage-labelled progress bars on stderr,
// keeping stdout clean for formatted scan output.
type ProgressManagerImpl struct {
	writer io.Writer
	bars   []*progressbar.ProgressBar
}

// NewProgressManager returns an interactive renderer when enabled and
// stderr is attached to a terminal, and a silent one otherwise.
func NewProgressManager(enabled bool) domain.ProgressManager {
	if enabled && IsInteractiveEnvironment() {
		return newProgressManagerWithWriter(os.Stderr)
	}
	return &NoOpProgressManager{}
}

func newProgressManagerWithWriter(w io.Writer) *ProgressManagerImpl {
	return &ProgressManagerImpl{writer: w}
}

// StartTask begins one bar sized to the task's step count. The scan
// pipeline drives a single 100-step bar and relabels it through
// Describe as stages change.
func (pm *ProgressManagerImpl) StartTask(description string, total int) domain.TaskProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(pm.writer),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		// Stage pacing would skew any time estimate
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(18),
		progressbar.OptionSetTheme(progressbar.Theme{Saucer: "█", SaucerHead: "█", SaucerPadding: "░", BarStart: "[", BarEnd: "]"}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(pm.writer)
		}),
	)
	pm.bars = append(pm.bars, bar)
	return &TaskProgressImpl{bar: bar}
}

// IsInteractive reports that bars are rendered
func (pm *ProgressManagerImpl) IsInteractive() bool {
	return true
}

// Close finishes any bar still running
func (pm *ProgressManagerImpl) Close() {
	for _, bar := range pm.bars {
		_ = bar.Finish()
	}
	pm.bars = nil
}

// TaskProgressImpl adapts one progressbar to the TaskProgress interface
type TaskProgressImpl struct {
	bar *progressbar.ProgressBar
}

// Increment advances the bar by n steps
func (tp *TaskProgressImpl) Increment(n int) {
	_ = tp.bar.Add(n)
}

// Describe relabels the bar mid-flight
func (tp *TaskProgressImpl) Describe(description string) {
	tp.bar.Describe(description)
}

// Complete fills the bar
func (tp *TaskProgressImpl) Complete() {
	_ = tp.bar.Finish()
}

// NoOpProgressManager keeps batch runs and redirected output silent.
type NoOpProgressManager struct{}

func (pm *NoOpProgressManager) StartTask(_ string, _ int) domain.TaskProgress { return &NoOpTaskProgress{} }

func (pm *NoOpProgressManager) IsInteractive() bool { return false }

func (pm *NoOpProgressManager) Close() {}

// NoOpTaskProgress swallows every update.
type NoOpTaskProgress struct{}

func (tp *NoOpTaskProgress) Increment(_ int) {}

func (tp *NoOpTaskProgress) Describe(_ string) {}

func (tp *NoOpTaskProgress) Complete() {}
