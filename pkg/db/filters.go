package db

import (
	"sort"

	"gorm.io/gorm"
)

// Filters is an equality filter set keyed by public field name.
type Filters map[string]any

// ApplyFilters adds `column = value` for every allow-listed field with a non-nil
// value. Unknown fields and nil values are ignored. allowed maps field name to column.
func ApplyFilters(q *gorm.DB, allowed map[string]string, filters Filters) *gorm.DB {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		column, ok := allowed[key]
		if !ok {
			continue
		}
		value := filters[key]
		if value == nil {
			continue
		}
		q = q.Where(column+" = ?", value)
	}
	return q
}
