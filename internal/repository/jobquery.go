package repository

import (
	"strconv"
	"strings"

	"github.com/dharsanguruparan/jobtrack/internal/model"
)

// likeEscaper makes the search term match literally inside ILIKE, where
// backslash is the default escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// jobPredicate builds the WHERE clause of the listing query. Arguments start at
// $1 (the owner); callers append LIMIT/OFFSET after len(args).
func jobPredicate(userID int64, f model.JobFilter) (string, []any) {
	args := []any{userID}
	clauses := []string{"j.user_id = $1"}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Search != "" {
		p := next("%" + likeEscaper.Replace(f.Search) + "%")
		clauses = append(clauses, "(j.position ILIKE "+p+" OR j.company ILIKE "+p+" OR j.location ILIKE "+p+")")
	}
	if f.StatusID != nil {
		clauses = append(clauses, "j.status_id = "+next(*f.StatusID))
	}
	return strings.Join(clauses, " AND "), args
}

const jobColumns = `j.id, j.position, j.company, j.location, j.job_url, j.salary, j.job_type, j.applied_at,
	j.status_id, j.user_id, j.created_at, j.updated_at, s.id, s.name, s.created_at, s.updated_at`

const jobOrder = `ORDER BY j.created_at DESC, j.id DESC`
