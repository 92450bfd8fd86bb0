package handler

import (
	"net/http"
	"strconv"

	"github.com/Zahidur-Rahman/Task-Pulse/internal/apperror"
)

// defaultPageSize is used when the client sends no limit parameter.
const defaultPageSize = 10

// pathID parses a numeric path parameter. A non-numeric value gets the
// same not-found treatment as a numeric ID that doesn't exist.
func pathID(r *http.Request, name, resource string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(resource, raw)
	}
	return id, nil
}

// pagination maps the skip/limit/is_ascending query parameters onto the
// service layer's 1-based page model. skip is expected to be a multiple of
// limit; anything else rounds down to the containing page.
func pagination(r *http.Request) (page, pageSize int, ascending bool) {
	q := r.URL.Query()

	pageSize = defaultPageSize
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			pageSize = n
		}
	}

	skip := 0
	if raw := q.Get("skip"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			skip = n
		}
	}

	page = 1
	if pageSize > 0 {
		page = skip/pageSize + 1
	}

	ascending = q.Get("is_ascending") == "true" || q.Get("is_ascending") == "1"
	return page, pageSize, ascending
}
