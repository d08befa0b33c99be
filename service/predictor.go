package service

import (
	"fmt"
	"time"

	"github.com/vitals-dev/vitals/domain"
)

// Confidence shaping for archetype predictions
const (
	predictionBaseConfidence = 0.50
	predictionShareWeight    = 0.35
	predictionMarginWeight   = 0.15
	predictionMaxConfidence  = 0.99
	unclassifiedArchetype    = "unclassified"
	mixedArchetype           = "mixed-stack"
	interfaceShareThreshold  = 0.45
	engineShareThreshold     = 0.30
	serviceShareThreshold    = 0.35
	featureShareThreshold    = 0.35
	stateShareThreshold      = 0.30
	contractShareThreshold   = 0.25
)

// archetypeRule maps one recognizable category mix onto a label.
// Rules run in order; the first hit wins.
type archetypeRule struct {
	Name  string
	Match func(profile map[domain.Category]float64) bool
}

var archetypeRules = []archetypeRule{
	{
		Name: "interface-heavy",
		Match: func(p map[domain.Category]float64) bool {
			return p[domain.CategoryUI]+p[domain.CategoryPages] >= interfaceShareThreshold
		},
	},
	{
		Name: "engine-centric",
		Match: func(p map[domain.Category]float64) bool {
			return p[domain.CategoryCore] >= engineShareThreshold
		},
	},
	{
		Name: "service-oriented",
		Match: func(p map[domain.Category]float64) bool {
			return p[domain.CategoryServices] >= serviceShareThreshold
		},
	},
	{
		Name: "feature-driven",
		Match: func(p map[domain.Category]float64) bool {
			return p[domain.CategoryFeatures] >= featureShareThreshold
		},
	},
	{
		Name: "state-centric",
		Match: func(p map[domain.Category]float64) bool {
			return p[domain.CategoryHooks]+p[domain.CategoryStores] >= stateShareThreshold
		},
	},
	{
		Name: "contract-first",
		Match: func(p map[domain.Category]float64) bool {
			return p[domain.CategoryTypeDefs] >= contractShareThreshold
		},
	},
}

// SignaturePredictorImpl derives a scan's archetype and fingerprint from
// its category profile
type SignaturePredictorImpl struct{}

// NewSignaturePredictor creates the default predictor
func NewSignaturePredictor() *SignaturePredictorImpl {
	return &SignaturePredictorImpl{}
}

// Predict classifies the category mix and stamps the fingerprint for
// this scan version
func (p *SignaturePredictorImpl) Predict(profile map[domain.Category]float64, version int, scannedAt time.Time) domain.Prediction {
	return domain.Prediction{
		Archetype:   classifyArchetype(profile),
		Fingerprint: Fingerprint(version, scannedAt),
		Confidence:  predictionConfidence(profile),
	}
}

// Fingerprint renders the stable identifier for one scan version
func Fingerprint(version int, scannedAt time.Time) string {
	return fmt.Sprintf("scan-v%d-%d", version, scannedAt.UnixMilli())
}

func classifyArchetype(profile map[domain.Category]float64) string {
	if profileEmpty(profile) {
		return unclassifiedArchetype
	}
	for _, rule := range archetypeRules {
		if rule.Match(profile) {
			return rule.Name
		}
	}
	return mixedArchetype
}

// predictionConfidence grows with the dominant category's share and with
// its margin over the runner-up
func predictionConfidence(profile map[domain.Category]float64) float64 {
	if profileEmpty(profile) {
		return 0
	}

	dominant, runnerUp := 0.0, 0.0
	for _, share := range profile {
		if share > dominant {
			runnerUp = dominant
			dominant = share
		} else if share > runnerUp {
			runnerUp = share
		}
	}

	confidence := predictionBaseConfidence +
		predictionShareWeight*dominant +
		predictionMarginWeight*(dominant-runnerUp)
	if confidence > predictionMaxConfidence {
		confidence = predictionMaxConfidence
	}
	return confidence
}

func profileEmpty(profile map[domain.Category]float64) bool {
	for _, share := range profile {
		if share > 0 {
			return false
		}
	}
	return true
}

// Compile-time interface check
var _ domain.SignaturePredictor = (*SignaturePredictorImpl)(nil)
