package analyzer

import "regexp"

// TokenPattern pairs a named token with its compiled matcher. Keeping
// the heuristics as data makes them auditable and lets tests enumerate
// the vocabulary instead of chasing inline conditionals.
type TokenPattern struct {
	Name    string
	Matcher *regexp.Regexp
}

// signalVocabulary lists the architectural tokens counted toward
// pattern density. The identifiers are conventional in JavaScript and
// TypeScript codebases, so matching is case-sensitive.
var signalVocabulary = []TokenPattern{
	{"export", regexp.MustCompile(`\bexport\b`)},
	{"import", regexp.MustCompile(`\bimport\b`)},
	{"class", regexp.MustCompile(`\bclass\s+[A-Z]`)},
	{"interface", regexp.MustCompile(`\binterface\s+[A-Z]`)},
	{"async", regexp.MustCompile(`\basync\b`)},
	{"await", regexp.MustCompile(`\bawait\b`)},
	{"promise", regexp.MustCompile(`\bPromise\b`)},
	{"observable", regexp.MustCompile(`\bObservable\b`)},
	{"reducer", regexp.MustCompile(`[Rr]educer\b`)},
	{"dispatch", regexp.MustCompile(`\bdispatch\b`)},
	{"selector", regexp.MustCompile(`[Ss]elector\b`)},
	{"subscribe", regexp.MustCompile(`\bsubscribe\b`)},
	{"hook", regexp.MustCompile(`\buse[A-Z]\w*`)},
	{"context", regexp.MustCompile(`\bcreateContext\b`)},
	{"service", regexp.MustCompile(`\b[A-Z]\w*Service\b`)},
	{"controller", regexp.MustCompile(`\b[A-Z]\w*Controller\b`)},
	{"repository", regexp.MustCompile(`\b[A-Z]\w*Repository\b`)},
	{"factory", regexp.MustCompile(`\b[A-Z]\w*Factory\b`)},
	{"handler", regexp.MustCompile(`\b[A-Z]\w*Handler\b`)},
	{"provider", regexp.MustCompile(`\b[A-Z]\w*Provider\b`)},
	{"middleware", regexp.MustCompile(`\bmiddleware\b`)},
	{"emit", regexp.MustCompile(`\bemit\s*\(`)},
}

// conditionalTokens are the branching constructs counted by the
// complexity estimator.
var conditionalTokens = []TokenPattern{
	{"if", regexp.MustCompile(`\bif\s*\(`)},
	{"switch", regexp.MustCompile(`\bswitch\s*\(`)},
	{"case", regexp.MustCompile(`\bcase\s`)},
	{"catch", regexp.MustCompile(`\bcatch\s*[({]`)},
}

// loopTokens are the iteration constructs counted by the estimator.
var loopTokens = []TokenPattern{
	{"for", regexp.MustCompile(`\bfor\s*\(`)},
	{"while", regexp.MustCompile(`\bwhile\s*\(`)},
	{"do", regexp.MustCompile(`\bdo\s*\{`)},
	{"forEach", regexp.MustCompile(`\.forEach\s*\(`)},
}

// functionTokens are the function-introducing constructs counted by
// the estimator. Arrow functions count the same as declarations.
var functionTokens = []TokenPattern{
	{"function", regexp.MustCompile(`\bfunction\b`)},
	{"arrow", regexp.MustCompile(`=>`)},
}

// DefaultCoreNamespaces are the import source prefixes treated as the
// core namespace when boosting pattern density.
var DefaultCoreNamespaces = []string{
	"@core/",
	"@/core",
	"src/core",
	"./core",
	"../core",
}

// DefaultUIPrimitiveSources are the import source prefixes treated as
// UI primitive libraries when boosting pattern density.
var DefaultUIPrimitiveSources = []string{
	"@ui/",
	"@/components/ui",
	"components/ui",
	"@radix-ui/",
	"@mui/",
	"@chakra-ui/",
	"antd",
}

// importSourcePattern captures the source specifier of ES import
// statements, side-effect imports included.
var importSourcePattern = regexp.MustCompile(`(?m)^\s*import\b[^'"]*['"]([^'"]+)['"]`)

// requireSourcePattern captures CommonJS require() specifiers.
var requireSourcePattern = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)

// ImportSources returns the module specifiers imported by the content,
// in source order. ES imports come before require() calls.
func ImportSources(content string) []string {
	var sources []string
	for _, match := range importSourcePattern.FindAllStringSubmatch(content, -1) {
		sources = append(sources, match[1])
	}
	for _, match := range requireSourcePattern.FindAllStringSubmatch(content, -1) {
		sources = append(sources, match[1])
	}
	return sources
}

func countTokens(content string, patterns []TokenPattern) int {
	total := 0
	for _, p := range patterns {
		total += len(p.Matcher.FindAllStringIndex(content, -1))
	}
	return total
}
