package analyzer

import (
	"strings"
	"testing"

	"github.com/vitals-dev/vitals/domain"
)

func TestCountLines(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"const a = 1;", 1},
		{"const a = 1;\nconst b = 2;", 2},
		{"const a = 1;\n", 2},
	}

	for _, tt := range tests {
		if got := CountLines(tt.content); got != tt.want {
			t.Errorf("CountLines(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestMeasureComplexity_Counts(t *testing.T) {
	code := "const a = (x) => { if (x) { return 1; } return 2; };\n" +
		"const b = (y) => y + 1;\n" +
		"const c = (z) => { for (let i = 0; i < z; i++) { run(i); } if (z) { halt(); } }"

	m := MeasureComplexity(code)

	if m.Conditionals != 2 {
		t.Errorf("Conditionals should be 2, got %d", m.Conditionals)
	}
	if m.Loops != 1 {
		t.Errorf("Loops should be 1, got %d", m.Loops)
	}
	if m.Functions != 3 {
		t.Errorf("Functions should be 3, got %d", m.Functions)
	}
	if m.Lines != 3 {
		t.Errorf("Lines should be 3, got %d", m.Lines)
	}

	// 2*2 + 3*1 + 0.5*3
	if m.Score != 8.5 {
		t.Errorf("Score should be 8.5, got %f", m.Score)
	}
	if m.LinesPerFunction != 1.0 {
		t.Errorf("LinesPerFunction should be 1.0, got %f", m.LinesPerFunction)
	}
}

func TestMeasureComplexity_NoFunctions(t *testing.T) {
	// A module with no functions counts as one long function
	code := strings.TrimSuffix(strings.Repeat("const value = 1;\n", 600), "\n")

	m := MeasureComplexity(code)

	if m.Lines != 600 {
		t.Fatalf("Lines should be 600, got %d", m.Lines)
	}
	if m.Functions != 0 {
		t.Fatalf("Functions should be 0, got %d", m.Functions)
	}
	if m.LinesPerFunction != 600 {
		t.Errorf("LinesPerFunction should be 600, got %f", m.LinesPerFunction)
	}
	if m.Level() != domain.ComplexityCritical {
		t.Errorf("600 lines without functions should band critical, got %s", m.Level())
	}
}

func TestComplexityLevel_Low(t *testing.T) {
	m := MeasureComplexity("const a = 1;")
	if m.Level() != domain.ComplexityLow {
		t.Errorf("trivial module should band low, got %s", m.Level())
	}
}

func TestComplexityLevel_MediumByScore(t *testing.T) {
	// 11 conditionals: score 22 > 20
	code := strings.TrimSuffix(strings.Repeat("if (ready) { advance(); }\n", 11), "\n")

	m := MeasureComplexity(code)

	if m.Score != 22 {
		t.Fatalf("Score should be 22, got %f", m.Score)
	}
	if m.Level() != domain.ComplexityMedium {
		t.Errorf("score 22 should band medium, got %s", m.Level())
	}
}

func TestComplexityLevel_MediumByLines(t *testing.T) {
	// 151 lines with enough functions to keep lines-per-function low
	lines := make([]string, 0, 151)
	for i := 0; i < 147; i++ {
		lines = append(lines, "const value = 1;")
	}
	for i := 0; i < 4; i++ {
		lines = append(lines, "const fn = () => 1;")
	}
	code := strings.Join(lines, "\n")

	m := MeasureComplexity(code)

	if m.Lines != 151 {
		t.Fatalf("Lines should be 151, got %d", m.Lines)
	}
	if m.Functions != 4 {
		t.Fatalf("Functions should be 4, got %d", m.Functions)
	}
	if m.Level() != domain.ComplexityMedium {
		t.Errorf("151 lines should band medium, got %s", m.Level())
	}
}

func TestComplexityLevel_HighByScore(t *testing.T) {
	// 26 conditionals: score 52 > 50
	code := strings.TrimSuffix(strings.Repeat("if (ready) { advance(); }\n", 26), "\n")

	m := MeasureComplexity(code)

	if m.Score != 52 {
		t.Fatalf("Score should be 52, got %f", m.Score)
	}
	if m.Level() != domain.ComplexityHigh {
		t.Errorf("score 52 should band high, got %s", m.Level())
	}
}

func TestComplexityLevel_HighByLines(t *testing.T) {
	// 301 lines with functions spread so lines-per-function stays under
	// the critical threshold
	lines := make([]string, 0, 301)
	for i := 0; i < 295; i++ {
		lines = append(lines, "const value = 1;")
	}
	for i := 0; i < 6; i++ {
		lines = append(lines, "const fn = () => 1;")
	}
	code := strings.Join(lines, "\n")

	m := MeasureComplexity(code)

	if m.Lines != 301 {
		t.Fatalf("Lines should be 301, got %d", m.Lines)
	}
	if m.Level() != domain.ComplexityHigh {
		t.Errorf("301 lines should band high, got %s", m.Level())
	}
}

func TestComplexityLevel_CriticalByScore(t *testing.T) {
	// 34 loops: score 102 > 100
	code := strings.TrimSuffix(strings.Repeat("for (let i = 0; i < n; i++) { step(i); }\n", 34), "\n")

	m := MeasureComplexity(code)

	if m.Score != 102 {
		t.Fatalf("Score should be 102, got %f", m.Score)
	}
	if m.Level() != domain.ComplexityCritical {
		t.Errorf("score 102 should band critical, got %s", m.Level())
	}
}

func TestComplexityLevel_ExactBoundaryStaysLower(t *testing.T) {
	// Bands use strict comparisons: score exactly 20 stays low
	code := strings.TrimSuffix(strings.Repeat("if (ready) { advance(); }\n", 10), "\n")

	m := MeasureComplexity(code)

	if m.Score != 20 {
		t.Fatalf("Score should be 20, got %f", m.Score)
	}
	if m.Level() != domain.ComplexityLow {
		t.Errorf("score exactly 20 should stay low, got %s", m.Level())
	}
}

func TestComplexityLevel_EmptyContent(t *testing.T) {
	m := MeasureComplexity("")

	if m.Lines != 0 {
		t.Errorf("empty content should have 0 lines, got %d", m.Lines)
	}
	if m.Level() != domain.ComplexityLow {
		t.Errorf("empty content should band low, got %s", m.Level())
	}
}
