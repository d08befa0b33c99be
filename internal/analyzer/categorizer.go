package analyzer

import (
	"path/filepath"
	"strings"

	"github.com/vitals-dev/vitals/domain"
)

// categoryRule binds a path fragment to the category it implies
type categoryRule struct {
	Fragment string
	Category domain.Category
}

// categoryRules is evaluated in order and the first matching fragment
// wins, so more specific fragments come first. Matching is
// case-insensitive over slash-normalized paths.
var categoryRules = []categoryRule{
	{".d.ts", domain.CategoryTypeDefs},
	{"/types/", domain.CategoryTypeDefs},
	{"/typings/", domain.CategoryTypeDefs},
	{"/core/", domain.CategoryCore},
	{"/engine/", domain.CategoryCore},
	{"/kernel/", domain.CategoryCore},
	{"/services/", domain.CategoryServices},
	{"/service/", domain.CategoryServices},
	{"/api/", domain.CategoryServices},
	{"/clients/", domain.CategoryServices},
	{"/features/", domain.CategoryFeatures},
	{"/feature/", domain.CategoryFeatures},
	{"/domains/", domain.CategoryFeatures},
	{"/hooks/", domain.CategoryHooks},
	{"/composables/", domain.CategoryHooks},
	{"/stores/", domain.CategoryStores},
	{"/store/", domain.CategoryStores},
	{"/state/", domain.CategoryStores},
	{"/slices/", domain.CategoryStores},
	{"/pages/", domain.CategoryPages},
	{"/views/", domain.CategoryPages},
	{"/screens/", domain.CategoryPages},
	{"/routes/", domain.CategoryPages},
	{"/components/", domain.CategoryUI},
	{"/ui/", domain.CategoryUI},
	{"/layouts/", domain.CategoryUI},
	{"/widgets/", domain.CategoryUI},
	{"/utils/", domain.CategoryUtility},
	{"/util/", domain.CategoryUtility},
	{"/helpers/", domain.CategoryUtility},
	{"/lib/", domain.CategoryUtility},
	{"/shared/", domain.CategoryUtility},
}

// Categorize assigns a category from the module path alone. Every path
// gets a category: unmatched paths fall back to utility.
func Categorize(path string) domain.Category {
	normalized := "/" + strings.ToLower(filepath.ToSlash(path))
	for _, rule := range categoryRules {
		if strings.Contains(normalized, rule.Fragment) {
			return rule.Category
		}
	}
	return domain.CategoryUtility
}
