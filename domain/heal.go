package domain

import "context"

// FixStatus represents the lifecycle state of a fix candidate
type FixStatus string

const (
	FixStatusProposed        FixStatus = "proposed"
	FixStatusGenerated       FixStatus = "generated"
	FixStatusAutoApplied     FixStatus = "autoApplied"
	FixStatusAppliedManually FixStatus = "appliedManually"
	FixStatusRejected        FixStatus = "rejected"
)

// IsApplied reports whether the candidate reached an applied state
func (s FixStatus) IsApplied() bool {
	return s == FixStatusAutoApplied || s == FixStatusAppliedManually
}

// FixCandidate represents one tracked remediation for a detected issue
type FixCandidate struct {
	ID          string    `json:"id" yaml:"id"`
	SubjectPath string    `json:"subjectPath,omitempty" yaml:"subjectPath,omitempty"`
	IssueType   IssueType `json:"issueType" yaml:"issueType"`
	Severity    Severity  `json:"severity" yaml:"severity"`
	Confidence  float64   `json:"confidence" yaml:"confidence"`
	Status      FixStatus `json:"status" yaml:"status"`
	CreatedAt   string    `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   string    `json:"updatedAt" yaml:"updatedAt"`
}

// FixEvent represents one audit entry for a fix candidate
type FixEvent struct {
	ID          string `json:"id" yaml:"id"`
	CandidateID string `json:"candidateId" yaml:"candidateId"`
	Event       string `json:"event" yaml:"event"`
	Detail      string `json:"detail,omitempty" yaml:"detail,omitempty"`
	CreatedAt   string `json:"createdAt" yaml:"createdAt"`
}

// Auto-apply threshold bounds
const (
	// MinAutoApplyThreshold is the lowest accepted auto-apply confidence
	MinAutoApplyThreshold = 0.70

	// MaxAutoApplyThreshold is the highest accepted auto-apply confidence
	MaxAutoApplyThreshold = 0.99

	// DefaultAutoApplyThreshold is used when no threshold is configured
	DefaultAutoApplyThreshold = 0.85
)

// HealConfig represents the healing controller settings
type HealConfig struct {
	// Enabled controls whether new candidates may be auto-applied
	Enabled bool `json:"enabled" yaml:"enabled"`
	// AutoApplyThreshold is the minimum confidence for auto-apply.
	// Values outside [MinAutoApplyThreshold, MaxAutoApplyThreshold]
	// are rejected and the previous value is kept.
	AutoApplyThreshold float64 `json:"autoApplyThreshold" yaml:"autoApplyThreshold"`
}

// DefaultHealConfig returns the standard healing settings
func DefaultHealConfig() HealConfig {
	return HealConfig{
		Enabled:            false,
		AutoApplyThreshold: DefaultAutoApplyThreshold,
	}
}

// Validate checks that the configuration is acceptable
func (c HealConfig) Validate() error {
	if c.AutoApplyThreshold < MinAutoApplyThreshold || c.AutoApplyThreshold > MaxAutoApplyThreshold {
		return NewInvalidConfigError("auto-apply threshold must be between 0.70 and 0.99")
	}
	return nil
}

// HealStats represents a point-in-time projection of tracked candidates
type HealStats struct {
	Total               int     `json:"total" yaml:"total"`
	Pending             int     `json:"pending" yaml:"pending"`
	Applied             int     `json:"applied" yaml:"applied"`
	Rejected            int     `json:"rejected" yaml:"rejected"`
	CriticalOutstanding int     `json:"criticalOutstanding" yaml:"criticalOutstanding"`
	HighConfidence      int     `json:"highConfidence" yaml:"highConfidence"`
	Enabled             bool    `json:"enabled" yaml:"enabled"`
	AutoApplyThreshold  float64 `json:"autoApplyThreshold" yaml:"autoApplyThreshold"`
	GeneratedAt         string  `json:"generatedAt" yaml:"generatedAt"`
}

// HealService defines the contract for the self-healing controller
type HealService interface {
	// DetectIssues ingests detected issues, deduplicates them against
	// tracked candidates, persists the new ones, and auto-applies those
	// meeting the configured threshold. It returns the candidates that
	// were newly created by this call.
	DetectIssues(ctx context.Context, issues []Issue) ([]FixCandidate, error)
	// ApplyFix marks a candidate as manually applied. Applying an
	// already-applied candidate is a no-op and returns the candidate.
	ApplyFix(ctx context.Context, id string) (*FixCandidate, error)
	// ToggleEnabled flips auto-apply and returns the new state. Flipping
	// never retroactively applies or reverts existing candidates.
	ToggleEnabled() bool
	// SetAutoApplyThreshold updates the threshold, rejecting values
	// outside the accepted range
	SetAutoApplyThreshold(value float64) error
	// Config returns a snapshot of the current settings
	Config() HealConfig
	// FetchStats projects tracked candidates into aggregate statistics
	FetchStats(ctx context.Context) (*HealStats, error)
}

// FixCandidateStore persists fix candidates and their audit trail.
// Store failures are recoverable: in-memory tracking stays authoritative
// for the session.
type FixCandidateStore interface {
	// Save inserts or replaces a candidate
	Save(ctx context.Context, candidate FixCandidate) error
	// Get returns the candidate with the given ID, or nil when absent
	Get(ctx context.Context, id string) (*FixCandidate, error)
	// List returns every stored candidate ordered by creation time
	List(ctx context.Context) ([]FixCandidate, error)
	// UpdateStatus transitions a stored candidate to the given status
	UpdateStatus(ctx context.Context, id string, status FixStatus) error
	// RecordEvent appends one audit entry
	RecordEvent(ctx context.Context, event FixEvent) error
	// Close releases the underlying storage
	Close() error
}
