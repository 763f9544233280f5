package repository

import (
	"testing"

	"github.com/dharsanguruparan/jobtrack/internal/model"
)

func TestJobPredicate(t *testing.T) {
	where, args := jobPredicate(7, model.JobFilter{})
	if where != "j.user_id = $1" || len(args) != 1 || args[0] != int64(7) {
		t.Fatalf("unexpected bare predicate: %q %v", where, args)
	}

	status := int64(2)
	where, args = jobPredicate(7, model.JobFilter{Search: "eng", StatusID: &status})
	want := "j.user_id = $1 AND (j.position ILIKE $2 OR j.company ILIKE $2 OR j.location ILIKE $2) AND j.status_id = $3"
	if where != want {
		t.Fatalf("unexpected predicate:\n got %s\nwant %s", where, want)
	}
	if len(args) != 3 || args[1] != "%eng%" || args[2] != int64(2) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestJobPredicateEscapesWildcards(t *testing.T) {
	_, args := jobPredicate(1, model.JobFilter{Search: `100%_c\d`})
	if args[1] != `%100\%\_c\\d%` {
		t.Fatalf("wildcards not escaped: %v", args[1])
	}
}
