package constants

// Tool identity
const (
	ToolName       = "vitals"
	ConfigFileName = ".vitals.yaml"
	EnvVarPrefix   = "VITALS"
)

// Scan pacing defaults, in milliseconds. Interactive scans pause
// between steps so progress stays observable; batch runs use zero.
const (
	DefaultModulePauseMs = 35
	DefaultTickPauseMs   = 120
)

// SyntheticStageTicks is the number of progress ticks emitted across
// each post-scanning stage
const SyntheticStageTicks = 4

// Content preview limits
const (
	// DefaultContentPreviewLength bounds the preview stored per module
	DefaultContentPreviewLength = 200

	// MaxContentPreviewLength is the hard ceiling accepted from config
	MaxContentPreviewLength = 2000
)
