package analyzer

import (
	"testing"

	"github.com/vitals-dev/vitals/domain"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		path     string
		expected domain.Category
	}{
		{"src/core/engine.ts", domain.CategoryCore},
		{"packages/kernel/boot.ts", domain.CategoryCore},
		{"src/services/api-client.ts", domain.CategoryServices},
		{"src/api/session.ts", domain.CategoryServices},
		{"lib/features/checkout/index.ts", domain.CategoryFeatures},
		{"src/components/Button.tsx", domain.CategoryUI},
		{"src/ui/Modal.tsx", domain.CategoryUI},
		{"src/hooks/useAuth.ts", domain.CategoryHooks},
		{"src/stores/cart.ts", domain.CategoryStores},
		{"src/state/session.ts", domain.CategoryStores},
		{"app/pages/Home.tsx", domain.CategoryPages},
		{"src/views/Dashboard.tsx", domain.CategoryPages},
		{"src/types/models.ts", domain.CategoryTypeDefs},
		{"global.d.ts", domain.CategoryTypeDefs},
		{"src/utils/format.ts", domain.CategoryUtility},
		{"src/helpers/dates.ts", domain.CategoryUtility},
	}

	for _, tc := range tests {
		if got := Categorize(tc.path); got != tc.expected {
			t.Errorf("Categorize(%q) = %s, expected %s", tc.path, got, tc.expected)
		}
	}
}

func TestCategorize_CaseInsensitive(t *testing.T) {
	if got := Categorize("SRC/Core/Engine.ts"); got != domain.CategoryCore {
		t.Errorf("matching should ignore case, got %s", got)
	}
	if got := Categorize("src/Components/Button.TSX"); got != domain.CategoryUI {
		t.Errorf("matching should ignore case, got %s", got)
	}
}

func TestCategorize_FirstMatchWins(t *testing.T) {
	// Type definition markers outrank directory markers
	if got := Categorize("src/core/types/helpers.ts"); got != domain.CategoryTypeDefs {
		t.Errorf("types marker should win over core, got %s", got)
	}
	// Core outranks services when both appear
	if got := Categorize("src/core/services/bridge.ts"); got != domain.CategoryCore {
		t.Errorf("core marker should win over services, got %s", got)
	}
}

func TestCategorize_Fallback(t *testing.T) {
	// Every path gets a category
	for _, path := range []string{"index.ts", "random/other/file.ts", ""} {
		if got := Categorize(path); got != domain.CategoryUtility {
			t.Errorf("Categorize(%q) should fall back to utility, got %s", path, got)
		}
	}
}

func TestCategorize_LeadingDirectory(t *testing.T) {
	// A leading marker with no preceding slash in the input still matches
	if got := Categorize("core/engine.ts"); got != domain.CategoryCore {
		t.Errorf("leading core directory should match, got %s", got)
	}
	if got := Categorize("hooks/useCart.ts"); got != domain.CategoryHooks {
		t.Errorf("leading hooks directory should match, got %s", got)
	}
}
