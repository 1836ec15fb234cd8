package listing

import "strings"

// Filter keeps items whose name contains query, ignoring case.
// An empty query keeps everything. The input slice is never modified.
func Filter[T any](items []T, query string, name func(T) string) []T {
	needle := strings.ToLower(strings.TrimSpace(query))
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if needle == "" || strings.Contains(strings.ToLower(name(item)), needle) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
