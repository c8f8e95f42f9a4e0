package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField's column when whitelisted, otherwise
// the default. The map values are the qualified column names used in SQL.
func ValidateSortField(sortField string, allowed map[string]string, defaultField string) string {
	if column, ok := allowed[strings.TrimSpace(sortField)]; ok {
		return column
	}
	return allowed[defaultField]
}

// TaskSortFields maps accepted task sort keys to columns
var TaskSortFields = map[string]string{
	"created_at": "tasks.created_at",
	"due_date":   "tasks.due_date",
	"priority":   "CASE tasks.priority WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END",
	"title":      "tasks.title",
	"status":     "tasks.status",
}

// escapeLikePattern escapes LIKE wildcards in user input
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// containsPattern builds a lower-cased substring LIKE pattern
func containsPattern(s string) string {
	return "%" + escapeLikePattern(strings.ToLower(strings.TrimSpace(s))) + "%"
}
