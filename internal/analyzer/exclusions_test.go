package analyzer

import "testing"

func TestExcludedModuleRule(t *testing.T) {
	tests := []struct {
		path string
		rule string
	}{
		{"src/core/engine.test.ts", "test-file"},
		{"src/features/payments.spec.tsx", "test-file"},
		{"src/__tests__/helpers.ts", "test-directory"},
		{"src/__mocks__/api.ts", "test-directory"},
		{"test/setup.ts", "test-directory"},
		{"src/tests/fixtures.ts", "test-directory"},
		{"src/types/global.d.ts", "type-declaration"},
		{"src/types/models.d.mts", "type-declaration"},
		{"src/api/schema.generated.ts", "auto-generated"},
		{"src/api/client.gen.ts", "auto-generated"},
		{"src/__generated__/graphql.ts", "auto-generated"},
	}

	for _, tc := range tests {
		rule, excluded := ExcludedModuleRule(tc.path)
		if !excluded {
			t.Errorf("Expected %s to be excluded", tc.path)
			continue
		}
		if rule != tc.rule {
			t.Errorf("Expected rule '%s' for %s, got '%s'", tc.rule, tc.path, rule)
		}
	}
}

func TestExcludedModuleRule_CaseInsensitive(t *testing.T) {
	rule, excluded := ExcludedModuleRule("src/Core/Engine.Test.ts")
	if !excluded {
		t.Fatal("Expected uppercase test file to be excluded")
	}
	if rule != "test-file" {
		t.Errorf("Expected rule 'test-file', got '%s'", rule)
	}
}

func TestIsExcludedModule_KeepsRegularModules(t *testing.T) {
	paths := []string{
		"src/core/engine.ts",
		"src/services/payments.ts",
		"src/components/Dashboard.tsx",
		// "testimonials" must not trip the test-directory rule
		"src/testimonials/carousel.tsx",
		// a module named "types.ts" is not a declaration file
		"src/types.ts",
		"src/utils/generate.ts",
	}

	for _, path := range paths {
		if IsExcludedModule(path) {
			t.Errorf("Expected %s to be scanned, but it was excluded", path)
		}
	}
}

func TestIsExcludedModule_TopLevelTestDirectory(t *testing.T) {
	if !IsExcludedModule("tests/e2e.ts") {
		t.Error("Expected top-level tests directory to be excluded")
	}
}
