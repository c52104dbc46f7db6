package core

// CategoryInfo describes a known spending or income category.
type CategoryInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// FallbackColor is used for categories missing from the table.
const FallbackColor = "#9CA3AF"

// Categories is the lookup table of known categories. Matching is exact and
// case-sensitive everywhere in the engine.
var Categories = []CategoryInfo{
	{Name: "Housing", Color: "#3B82F6"},
	{Name: "Rent", Color: "#3B82F6"},
	{Name: "Food & Dining", Color: "#10B981"},
	{Name: "Groceries", Color: "#10B981"},
	{Name: "Dining", Color: "#FCD34D"},
	{Name: "Transportation", Color: "#F59E0B"},
	{Name: "Entertainment", Color: "#8B5CF6"},
	{Name: "Shopping", Color: "#EC4899"},
	{Name: "Utilities", Color: "#6366F1"},
	{Name: "Healthcare", Color: "#EF4444"},
	{Name: "Travel", Color: "#14B8A6"},
	{Name: "Income", Color: "#22C55E"},
	{Name: "Other", Color: "#6B7280"},
}

var categoryIndex = func() map[string]CategoryInfo {
	m := make(map[string]CategoryInfo, len(Categories))
	for _, c := range Categories {
		m[c.Name] = c
	}
	return m
}()

// IsKnownCategory reports whether name is in the category table.
func IsKnownCategory(name string) bool {
	_, ok := categoryIndex[name]
	return ok
}

// CategoryColor returns the display colour for name.
func CategoryColor(name string) string {
	if c, ok := categoryIndex[name]; ok {
		return c.Color
	}
	return FallbackColor
}
