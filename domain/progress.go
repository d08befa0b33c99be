package domain

// ProgressManager creates progress reporting for long-running work.
// Non-interactive environments get a no-op implementation so output
// streams stay clean.
type ProgressManager interface {
	// StartTask begins tracking a task with the given total step count
	StartTask(description string, total int) TaskProgress
	// IsInteractive reports whether progress is actually rendered
	IsInteractive() bool
	// Close releases any rendering resources
	Close()
}

// TaskProgress tracks the progress of a single task
type TaskProgress interface {
	// Increment advances the task by n steps
	Increment(n int)
	// Describe updates the task description mid-flight
	Describe(description string)
	// Complete marks the task as finished
	Complete()
}
