package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/orderdesk-backend/pkg/db"
)

// stringFilters collects the non-empty query parameters named in keys.
func stringFilters(r *http.Request, keys ...string) db.Filters {
	filters := db.Filters{}
	q := r.URL.Query()
	for _, key := range keys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			filters[key] = v
		}
	}
	return filters
}
