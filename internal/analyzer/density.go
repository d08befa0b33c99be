package analyzer

import (
	"strings"

	"github.com/vitals-dev/vitals/domain"
)

// Density boost weights
const (
	coreImportBoost   = 0.15
	uiPrimitiveBoost  = 0.10
	coreCategoryBoost = 0.20

	// densityLineFactor scales hit counts against module size: one
	// vocabulary hit per ten lines earns full base density.
	densityLineFactor = 0.1
)

// DensityEstimate breaks down one pattern density computation
type DensityEstimate struct {
	Hits    int
	Lines   int
	Base    float64
	Boost   float64
	Density float64
}

// EstimateDensity scores how strongly the content exercises the signal
// vocabulary. The base ratio is boosted for core-namespace imports, UI
// primitive imports, and core category membership, then clamped to
// [0, 1]. The clamp is load-bearing: issue detection and the category
// profile both assume densities never leave the unit interval.
func EstimateDensity(content string, category domain.Category) DensityEstimate {
	est := DensityEstimate{
		Hits:  countTokens(content, signalVocabulary),
		Lines: CountLines(content),
	}

	if est.Lines > 0 {
		est.Base = float64(est.Hits) / (float64(est.Lines) * densityLineFactor)
		if est.Base > 1 {
			est.Base = 1
		}
	}

	sources := ImportSources(content)
	if importsAny(sources, DefaultCoreNamespaces) {
		est.Boost += coreImportBoost
	}
	if importsAny(sources, DefaultUIPrimitiveSources) {
		est.Boost += uiPrimitiveBoost
	}
	if category == domain.CategoryCore {
		est.Boost += coreCategoryBoost
	}

	est.Density = clamp01(est.Base + est.Boost)
	return est
}

func importsAny(sources, prefixes []string) bool {
	for _, source := range sources {
		for _, prefix := range prefixes {
			if strings.HasPrefix(source, prefix) {
				return true
			}
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
