package tracker

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/dharsanguruparan/jobtrack/internal/model"
)

// DefaultPerPage is the listing page size.
const DefaultPerPage = 10

// noStatus never matches a stored status, ids start at 1.
const noStatus int64 = 0

// ParseFilter reads the listing query string: search, status and page. A status
// that is not a number still filters, but matches nothing. Bad page numbers fall
// back to the first page.
func ParseFilter(q url.Values, perPage int) model.JobFilter {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	f := model.JobFilter{
		Search:  strings.TrimSpace(q.Get("search")),
		Page:    1,
		PerPage: perPage,
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			id = noStatus
		}
		f.StatusID = &id
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		f.Page = p
	}
	return f
}

// Filters echoes the active filters back to the page, keyed like the query string.
func Filters(q url.Values) map[string]string {
	out := map[string]string{}
	for _, key := range []string{"search", "status"} {
		if v := q.Get(key); v != "" {
			out[key] = v
		}
	}
	return out
}

// Matches reports whether rec satisfies the search and status parts of f. It is
// the in-process twin of the SQL predicate built by the Postgres repository.
func Matches(rec model.JobRecord, f model.JobFilter) bool {
	if f.StatusID != nil && rec.StatusID != *f.StatusID {
		return false
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(rec.Position), term) ||
		strings.Contains(strings.ToLower(rec.Company), term) {
		return true
	}
	return rec.Location != nil && strings.Contains(strings.ToLower(*rec.Location), term)
}
