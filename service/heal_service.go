package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vitals-dev/vitals/domain"
	"github.com/vitals-dev/vitals/internal/logging"
)

// Confidence heuristics. The severity sets the base and the issue type
// nudges it: hotspots have a well-understood fix, structural refactors
// are the most speculative.
const (
	confidenceBaseCritical = 0.95
	confidenceBaseHigh     = 0.85
	confidenceBaseMedium   = 0.72
	confidenceBaseLow      = 0.62

	confidenceNudgeHotspot         = 0.03
	confidenceNudgeLowDensity      = 0.02
	confidenceNudgeMissingCoverage = -0.02
	confidenceNudgeRefactor        = -0.05

	confidenceCeiling = 0.99
)

// HealServiceImpl tracks fix candidates for detected issues and
// auto-applies the ones the configuration trusts. In-memory tracking
// is authoritative for the session; the record store is an audit and
// recovery layer, and its failures are recoverable.
type HealServiceImpl struct {
	mu         sync.Mutex
	config     domain.HealConfig
	candidates map[string]domain.FixCandidate
	store      domain.FixCandidateStore
	logger     *logging.Logger
	hydrated   bool
}

// NewHealService creates a healing controller with the given settings.
// A zero threshold falls back to the default.
func NewHealService(config domain.HealConfig) *HealServiceImpl {
	if config.AutoApplyThreshold == 0 {
		config.AutoApplyThreshold = domain.DefaultAutoApplyThreshold
	}
	return &HealServiceImpl{
		config:     config,
		candidates: make(map[string]domain.FixCandidate),
		logger:     logging.NewNopLogger(),
	}
}

// WithStore attaches a persistent record store
func (s *HealServiceImpl) WithStore(store domain.FixCandidateStore) *HealServiceImpl {
	s.store = store
	return s
}

// WithLogger replaces the no-op logger
func (s *HealServiceImpl) WithLogger(logger *logging.Logger) *HealServiceImpl {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// DetectIssues ingests a batch of issues, creating one candidate per
// issue not already tracked. Candidates meeting the auto-apply bar at
// ingestion time are applied immediately; later config changes never
// touch them. Persistence failures are reported but leave in-memory
// tracking intact.
func (s *HealServiceImpl) DetectIssues(ctx context.Context, issues []domain.Issue) ([]domain.FixCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Hydration failure is tolerable here: tracking continues in memory
	_ = s.hydrate(ctx)

	// One settings snapshot covers the whole batch
	cfg := s.config

	var created []domain.FixCandidate
	var storeErrs []error
	for _, issue := range issues {
		if issue.ID == "" {
			continue
		}
		if _, tracked := s.candidates[issue.ID]; tracked {
			continue
		}

		now := time.Now().UTC().Format(time.RFC3339)
		candidate := domain.FixCandidate{
			ID:          issue.ID,
			SubjectPath: issue.SubjectPath,
			IssueType:   issue.Type,
			Severity:    issue.Severity,
			Confidence:  ConfidenceFor(issue),
			Status:      initialStatus(issue),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := s.persistNew(ctx, candidate); err != nil {
			storeErrs = append(storeErrs, err)
		}

		if cfg.Enabled && candidate.Confidence >= cfg.AutoApplyThreshold {
			candidate.Status = domain.FixStatusAutoApplied
			candidate.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			if err := s.persistTransition(ctx, candidate, "auto-applied above threshold"); err != nil {
				storeErrs = append(storeErrs, err)
			}
			s.logger.Info(logging.CategoryHeal, "fix_auto_applied", "fix auto-applied", map[string]any{
				"id":         candidate.ID,
				"confidence": candidate.Confidence,
				"threshold":  cfg.AutoApplyThreshold,
			})
		} else {
			s.logger.Info(logging.CategoryHeal, "candidate_created", "fix candidate created", map[string]any{
				"id":         candidate.ID,
				"status":     string(candidate.Status),
				"confidence": candidate.Confidence,
			})
		}

		s.candidates[candidate.ID] = candidate
		created = append(created, candidate)
	}

	if len(storeErrs) > 0 {
		return created, domain.NewRecordStoreError(
			fmt.Sprintf("%d store operations failed during ingestion", len(storeErrs)), storeErrs[0])
	}
	return created, nil
}

// ApplyFix marks a tracked candidate as manually applied. Applying an
// already-applied candidate changes nothing and returns it as is. The
// updated candidate is returned even when persistence fails.
func (s *HealServiceImpl) ApplyFix(ctx context.Context, id string) (*domain.FixCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.hydrate(ctx)

	candidate, tracked := s.candidates[id]
	if !tracked {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown fix candidate: %s", id), nil)
	}

	if candidate.Status.IsApplied() {
		return &candidate, nil
	}

	candidate.Status = domain.FixStatusAppliedManually
	candidate.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	s.candidates[id] = candidate

	s.logger.Info(logging.CategoryHeal, "fix_applied", "fix applied manually", map[string]any{
		"id": candidate.ID,
	})

	if err := s.persistTransition(ctx, candidate, "applied manually"); err != nil {
		return &candidate, err
	}
	return &candidate, nil
}

// ToggleEnabled flips auto-apply and returns the new state. Candidates
// already tracked keep their status: enabling never applies the
// backlog, disabling never reverts applied fixes.
func (s *HealServiceImpl) ToggleEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.Enabled = !s.config.Enabled
	s.logger.Info(logging.CategoryHeal, "heal_toggled", "auto-apply toggled", map[string]any{
		"enabled": s.config.Enabled,
	})
	return s.config.Enabled
}

// SetAutoApplyThreshold updates the threshold for future detections.
// Out-of-range values are rejected and the previous threshold is kept.
func (s *HealServiceImpl) SetAutoApplyThreshold(value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := s.config
	candidate.AutoApplyThreshold = value
	if err := candidate.Validate(); err != nil {
		return err
	}

	s.config.AutoApplyThreshold = value
	s.logger.Info(logging.CategoryHeal, "threshold_updated", "auto-apply threshold updated", map[string]any{
		"threshold": value,
	})
	return nil
}

// Config returns a snapshot of the current settings
func (s *HealServiceImpl) Config() domain.HealConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// FetchStats projects the tracked candidates into aggregate counts.
// The projection is pure: it never mutates candidates or settings.
func (s *HealServiceImpl) FetchStats(ctx context.Context) (*domain.HealStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}

	stats := &domain.HealStats{
		Enabled:            s.config.Enabled,
		AutoApplyThreshold: s.config.AutoApplyThreshold,
		GeneratedAt:        time.Now().UTC().Format(time.RFC3339),
	}
	for _, candidate := range s.candidates {
		stats.Total++
		switch {
		case candidate.Status.IsApplied():
			stats.Applied++
		case candidate.Status == domain.FixStatusRejected:
			stats.Rejected++
		default:
			stats.Pending++
			if candidate.Severity == domain.SeverityCritical {
				stats.CriticalOutstanding++
			}
		}
		if candidate.Confidence >= s.config.AutoApplyThreshold {
			stats.HighConfidence++
		}
	}
	return stats, nil
}

// hydrate seeds in-memory tracking from the record store, once.
// Candidates already tracked this session win over stored ones.
func (s *HealServiceImpl) hydrate(ctx context.Context) error {
	if s.store == nil || s.hydrated {
		return nil
	}

	stored, err := s.store.List(ctx)
	if err != nil {
		s.logger.Warn(logging.CategoryHeal, "hydrate_failed", "record store unavailable", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	for _, candidate := range stored {
		if _, tracked := s.candidates[candidate.ID]; !tracked {
			s.candidates[candidate.ID] = candidate
		}
	}
	s.hydrated = true
	return nil
}

func (s *HealServiceImpl) persistNew(ctx context.Context, candidate domain.FixCandidate) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, candidate); err != nil {
		return err
	}
	return s.store.RecordEvent(ctx, domain.FixEvent{
		CandidateID: candidate.ID,
		Event:       "created",
		Detail:      fmt.Sprintf("confidence %.2f", candidate.Confidence),
	})
}

func (s *HealServiceImpl) persistTransition(ctx context.Context, candidate domain.FixCandidate, detail string) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.UpdateStatus(ctx, candidate.ID, candidate.Status); err != nil {
		return err
	}
	return s.store.RecordEvent(ctx, domain.FixEvent{
		CandidateID: candidate.ID,
		Event:       string(candidate.Status),
		Detail:      detail,
	})
}

// ConfidenceFor derives how safe an issue's remediation is to apply
// without review
func ConfidenceFor(issue domain.Issue) float64 {
	var confidence float64
	switch issue.Severity {
	case domain.SeverityCritical:
		confidence = confidenceBaseCritical
	case domain.SeverityHigh:
		confidence = confidenceBaseHigh
	case domain.SeverityMedium:
		confidence = confidenceBaseMedium
	default:
		confidence = confidenceBaseLow
	}

	switch issue.Type {
	case domain.IssueTypeComplexityHotspot:
		confidence += confidenceNudgeHotspot
	case domain.IssueTypeLowDensity:
		confidence += confidenceNudgeLowDensity
	case domain.IssueTypeMissingCoverage:
		confidence += confidenceNudgeMissingCoverage
	case domain.IssueTypeRefactorNeeded:
		confidence += confidenceNudgeRefactor
	}

	if confidence > confidenceCeiling {
		confidence = confidenceCeiling
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// initialStatus gives candidates carrying a ready remediation payload a
// head start in the lifecycle
func initialStatus(issue domain.Issue) domain.FixStatus {
	if issue.RemediationPrompt != "" {
		return domain.FixStatusGenerated
	}
	return domain.FixStatusProposed
}

// Compile-time interface check
var _ domain.HealService = (*HealServiceImpl)(nil)
