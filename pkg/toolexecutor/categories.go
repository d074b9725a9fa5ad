package toolexecutor

import (
	"fmt"
	"sort"
	"strings"
)

// ToolCategory represents a category of tools
type ToolCategory string

const (
	CategoryOS         ToolCategory = "os"
	CategoryFilesystem ToolCategory = "filesystem"
	CategoryText       ToolCategory = "text"
	CategoryMath       ToolCategory = "math"
	CategoryNetwork    ToolCategory = "network"
	CategoryDatabase   ToolCategory = "database"
	CategoryGeneral    ToolCategory = "general"
)

// AllCategories returns all valid tool categories
func AllCategories() []ToolCategory {
	return []ToolCategory{
		CategoryOS,
		CategoryFilesystem,
		CategoryText,
		CategoryMath,
		CategoryNetwork,
		CategoryDatabase,
		CategoryGeneral,
	}
}

// IsValidCategory checks if a category is valid
func IsValidCategory(category string) bool {
	cat := ToolCategory(strings.ToLower(category))
	for _, valid := range AllCategories() {
		if cat == valid {
			return true
		}
	}
	return false
}

// ParseCategories converts configured names into categories.
func ParseCategories(names []string) ([]ToolCategory, error) {
	out := make([]ToolCategory, 0, len(names))
	for _, name := range names {
		if !IsValidCategory(name) {
			return nil, fmt.Errorf("invalid category: %s", name)
		}
		out = append(out, ToolCategory(strings.ToLower(name)))
	}
	return out, nil
}

// CategoryPolicy decides which categories a registry exposes. Deny overrides
// allow; an empty Allow list allows everything not denied.
type CategoryPolicy struct {
	Allow []ToolCategory
	Deny  []ToolCategory
}

// Allows reports whether tools of category may be registered.
func (p CategoryPolicy) Allows(category ToolCategory) bool {
	if category == "" {
		category = CategoryGeneral
	}

	for _, denyCat := range p.Deny {
		if category == denyCat {
			return false
		}
	}

	if len(p.Allow) == 0 {
		return true
	}

	for _, allowCat := range p.Allow {
		if category == allowCat {
			return true
		}
	}
	return false
}

// FilterByCategory returns the sorted names of tools in category.
func (te *ToolExecutor) FilterByCategory(category ToolCategory) []string {
	te.mu.RLock()
	defer te.mu.RUnlock()

	names := []string{}
	for name, tool := range te.tools {
		if tool.category() == category {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Categories returns the number of tools per category.
func (te *ToolExecutor) Categories() map[ToolCategory]int {
	te.mu.RLock()
	defer te.mu.RUnlock()

	counts := make(map[ToolCategory]int)
	for _, tool := range te.tools {
		counts[tool.category()]++
	}
	return counts
}

func (def *ToolDefinition) category() ToolCategory {
	if def.Category == "" {
		return CategoryGeneral
	}
	return def.Category
}
