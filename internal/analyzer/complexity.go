package analyzer

import (
	"strings"

	"github.com/vitals-dev/vitals/domain"
)

// Complexity score weights
const (
	conditionalWeight = 2.0
	loopWeight        = 3.0
	functionWeight    = 0.5
)

// Complexity band thresholds. Bands are checked from most to least
// severe and the first match wins.
const (
	criticalScore            = 100.0
	criticalLines            = 500
	criticalLinesPerFunction = 80.0

	highScore            = 50.0
	highLines            = 300
	highLinesPerFunction = 50.0

	mediumScore = 20.0
	mediumLines = 150
)

// ComplexityMetrics captures the raw counts behind a complexity band
type ComplexityMetrics struct {
	Conditionals     int
	Loops            int
	Functions        int
	Lines            int
	Score            float64
	LinesPerFunction float64
}

// MeasureComplexity counts branching, looping, and function tokens in
// the content and derives the weighted complexity score.
func MeasureComplexity(content string) ComplexityMetrics {
	m := ComplexityMetrics{
		Conditionals: countTokens(content, conditionalTokens),
		Loops:        countTokens(content, loopTokens),
		Functions:    countTokens(content, functionTokens),
		Lines:        CountLines(content),
	}

	m.Score = conditionalWeight*float64(m.Conditionals) +
		loopWeight*float64(m.Loops) +
		functionWeight*float64(m.Functions)

	// A module with no recognizable functions is treated as one long
	// function, so its full length counts against it.
	if m.Functions > 0 {
		m.LinesPerFunction = float64(m.Lines) / float64(m.Functions)
	} else {
		m.LinesPerFunction = float64(m.Lines)
	}

	return m
}

// Level maps the metrics onto a complexity band
func (m ComplexityMetrics) Level() domain.ComplexityLevel {
	switch {
	case m.Score > criticalScore || m.Lines > criticalLines || m.LinesPerFunction > criticalLinesPerFunction:
		return domain.ComplexityCritical
	case m.Score > highScore || m.Lines > highLines || m.LinesPerFunction > highLinesPerFunction:
		return domain.ComplexityHigh
	case m.Score > mediumScore || m.Lines > mediumLines:
		return domain.ComplexityMedium
	default:
		return domain.ComplexityLow
	}
}

// CountLines returns the raw line count of the content. Empty content
// has zero lines.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}
