package service

import (
	"math"
	"testing"
	"time"

	"github.com/vitals-dev/vitals/domain"
)

func TestPredict_Archetype(t *testing.T) {
	tests := map[string]struct {
		profile  map[domain.Category]float64
		expected string
	}{
		"interface heavy": {
			profile: map[domain.Category]float64{
				domain.CategoryUI:      0.30,
				domain.CategoryPages:   0.20,
				domain.CategoryUtility: 0.50,
			},
			expected: "interface-heavy",
		},
		"engine centric": {
			profile: map[domain.Category]float64{
				domain.CategoryCore:     0.80,
				domain.CategoryFeatures: 0.20,
			},
			expected: "engine-centric",
		},
		"service oriented": {
			profile: map[domain.Category]float64{
				domain.CategoryServices: 0.40,
				domain.CategoryCore:     0.20,
				domain.CategoryUtility:  0.40,
			},
			expected: "service-oriented",
		},
		"feature driven": {
			profile: map[domain.Category]float64{
				domain.CategoryFeatures: 0.50,
				domain.CategoryUtility:  0.50,
			},
			expected: "feature-driven",
		},
		"state centric": {
			profile: map[domain.Category]float64{
				domain.CategoryHooks:   0.20,
				domain.CategoryStores:  0.15,
				domain.CategoryUtility: 0.65,
			},
			expected: "state-centric",
		},
		"contract first": {
			profile: map[domain.Category]float64{
				domain.CategoryTypeDefs: 0.30,
				domain.CategoryUtility:  0.70,
			},
			expected: "contract-first",
		},
		// UI and pages together clear their bar, so the earlier rule wins
		// even though core alone would qualify as engine-centric
		"interface beats engine": {
			profile: map[domain.Category]float64{
				domain.CategoryUI:    0.25,
				domain.CategoryPages: 0.25,
				domain.CategoryCore:  0.50,
			},
			expected: "interface-heavy",
		},
		"no dominant mix": {
			profile: map[domain.Category]float64{
				domain.CategoryCore:     0.25,
				domain.CategoryServices: 0.25,
				domain.CategoryFeatures: 0.25,
				domain.CategoryUtility:  0.25,
			},
			expected: "mixed-stack",
		},
		"empty profile": {
			profile:  map[domain.Category]float64{},
			expected: "unclassified",
		},
		"zero shares": {
			profile: map[domain.Category]float64{
				domain.CategoryCore: 0,
			},
			expected: "unclassified",
		},
	}

	predictor := NewSignaturePredictor()
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			prediction := predictor.Predict(tt.profile, 1, time.Now())
			if prediction.Archetype != tt.expected {
				t.Errorf("Expected archetype '%s', got '%s'", tt.expected, prediction.Archetype)
			}
		})
	}
}

func TestPredict_Confidence(t *testing.T) {
	tests := map[string]struct {
		profile  map[domain.Category]float64
		expected float64
	}{
		// 0.50 + 0.35*0.80 + 0.15*(0.80-0.20)
		"dominant with margin": {
			profile: map[domain.Category]float64{
				domain.CategoryCore:     0.80,
				domain.CategoryFeatures: 0.20,
			},
			expected: 0.87,
		},
		// A flat profile earns no margin bonus
		"flat profile": {
			profile: map[domain.Category]float64{
				domain.CategoryCore:     0.25,
				domain.CategoryServices: 0.25,
				domain.CategoryFeatures: 0.25,
				domain.CategoryUtility:  0.25,
			},
			expected: 0.5875,
		},
		"empty profile": {
			profile:  map[domain.Category]float64{},
			expected: 0,
		},
	}

	predictor := NewSignaturePredictor()
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			prediction := predictor.Predict(tt.profile, 1, time.Now())
			if math.Abs(prediction.Confidence-tt.expected) > 1e-9 {
				t.Errorf("Expected confidence %g, got %g", tt.expected, prediction.Confidence)
			}
		})
	}
}

func TestPredict_ConfidenceCeiling(t *testing.T) {
	predictor := NewSignaturePredictor()

	// A single all-of-it category would score 1.00 unclamped
	prediction := predictor.Predict(map[domain.Category]float64{
		domain.CategoryCore: 1.0,
	}, 1, time.Now())

	if prediction.Confidence != 0.99 {
		t.Errorf("Expected confidence capped at 0.99, got %g", prediction.Confidence)
	}
}

func TestFingerprint(t *testing.T) {
	scannedAt := time.UnixMilli(1756100000000)

	if got := Fingerprint(3, scannedAt); got != "scan-v3-1756100000000" {
		t.Errorf("Expected 'scan-v3-1756100000000', got '%s'", got)
	}
	if got := Fingerprint(4, scannedAt); got != "scan-v4-1756100000000" {
		t.Errorf("Expected the version in the fingerprint, got '%s'", got)
	}
}

func TestPredict_StampsFingerprint(t *testing.T) {
	predictor := NewSignaturePredictor()
	scannedAt := time.UnixMilli(1756100000000)

	prediction := predictor.Predict(map[domain.Category]float64{
		domain.CategoryCore: 0.80,
		domain.CategoryUI:   0.20,
	}, 7, scannedAt)

	if prediction.Fingerprint != "scan-v7-1756100000000" {
		t.Errorf("Expected fingerprint 'scan-v7-1756100000000', got '%s'", prediction.Fingerprint)
	}
}
