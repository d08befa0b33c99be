package service

import (
	"context"
	"time"

	"github.com/vitals-dev/vitals/domain"
	"github.com/vitals-dev/vitals/internal/constants"
)

// StageTimerImpl paces the scan pipeline with real delays so interactive
// runs produce observable progress
type StageTimerImpl struct {
	modulePause time.Duration
	tickPause   time.Duration
}

// NewStageTimer creates a timer with explicit pause durations
func NewStageTimer(modulePause, tickPause time.Duration) *StageTimerImpl {
	return &StageTimerImpl{
		modulePause: modulePause,
		tickPause:   tickPause,
	}
}

// NewDefaultStageTimer creates a timer with the standard pacing
func NewDefaultStageTimer() *StageTimerImpl {
	return NewStageTimer(
		constants.DefaultModulePauseMs*time.Millisecond,
		constants.DefaultTickPauseMs*time.Millisecond,
	)
}

// NewImmediateStageTimer creates a timer that never sleeps. Batch runs
// and tests use this so scans finish as fast as the host allows.
func NewImmediateStageTimer() *StageTimerImpl {
	return NewStageTimer(0, 0)
}

// PauseAfterModule sleeps between per-module steps while scanning
func (t *StageTimerImpl) PauseAfterModule(ctx context.Context) error {
	return pause(ctx, t.modulePause)
}

// PauseAfterTick sleeps between synthetic ticks in later stages
func (t *StageTimerImpl) PauseAfterTick(ctx context.Context) error {
	return pause(ctx, t.tickPause)
}

// pause waits for the duration or until the context is cancelled,
// whichever comes first. Cancellation wins even at zero duration.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Compile-time interface check
var _ domain.StageTimer = (*StageTimerImpl)(nil)
