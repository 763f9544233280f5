package tracker

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dharsanguruparan/jobtrack/internal/model"
)

// JobInput is the raw form submission for a job record. It carries no user_id;
// the owner comes from the verified session.
type JobInput struct {
	Position  string
	Company   string
	Location  string
	JobURL    string
	Salary    string
	JobType   string
	AppliedAt string
	StatusID  string
}

// JobInputFromValues picks the job fields out of a decoded request body.
func JobInputFromValues(v map[string]string) JobInput {
	return JobInput{
		Position:  v["position"],
		Company:   v["company"],
		Location:  v["location"],
		JobURL:    v["job_url"],
		Salary:    v["salary"],
		JobType:   v["job_type"],
		AppliedAt: v["applied_at"],
		StatusID:  v["status_id"],
	}
}

// StatusInput is the raw form submission for a status.
type StatusInput struct {
	Name string
}

// NotAString stands in for a submitted value that was a list, an object or a
// boolean instead of text. Every field rejects it.
const NotAString = "\x00not-a-string"

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) text(field, value string) {
	if value == NotAString {
		f.add(field, "The "+label(field)+" field must be a string.")
	}
}

func (f fieldErrors) required(field, value string) {
	if value == "" {
		f.add(field, "The "+label(field)+" field is required.")
	}
}

func (f fieldErrors) max(field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		f.add(field, "The "+label(field)+" field must not be greater than "+strconv.Itoa(n)+" characters.")
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// validURL mirrors what browsers accept in a URL input: an absolute URL with a
// scheme and a host.
func validURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != "" && !strings.ContainsAny(s, " \t\n")
}

// parseJob validates every field except status existence, which needs the store.
func parseJob(in JobInput) (model.JobRecord, int64, fieldErrors) {
	in = JobInput{
		Position:  strings.TrimSpace(in.Position),
		Company:   strings.TrimSpace(in.Company),
		Location:  strings.TrimSpace(in.Location),
		JobURL:    strings.TrimSpace(in.JobURL),
		Salary:    strings.TrimSpace(in.Salary),
		JobType:   strings.TrimSpace(in.JobType),
		AppliedAt: strings.TrimSpace(in.AppliedAt),
		StatusID:  strings.TrimSpace(in.StatusID),
	}
	errs := fieldErrors{}
	errs.text("position", in.Position)
	errs.text("company", in.Company)
	errs.text("location", in.Location)
	errs.text("job_url", in.JobURL)
	errs.text("salary", in.Salary)
	errs.text("job_type", in.JobType)
	errs.text("applied_at", in.AppliedAt)
	errs.text("status_id", in.StatusID)
	errs.required("position", in.Position)
	errs.max("position", in.Position, 255)
	errs.required("company", in.Company)
	errs.max("company", in.Company, 255)
	errs.max("location", in.Location, 255)
	if in.JobURL != "" && !validURL(in.JobURL) {
		errs.add("job_url", "The job url field must be a valid URL.")
	}
	errs.max("job_url", in.JobURL, 255)
	errs.max("salary", in.Salary, 50)
	errs.max("job_type", in.JobType, 50)

	rec := model.JobRecord{
		Position: in.Position,
		Company:  in.Company,
		Location: optional(in.Location),
		JobURL:   optional(in.JobURL),
		Salary:   optional(in.Salary),
		JobType:  optional(in.JobType),
	}

	errs.required("applied_at", in.AppliedAt)
	if in.AppliedAt != "" {
		d, err := model.ParseDate(in.AppliedAt)
		if err != nil {
			errs.add("applied_at", "The applied at field must be a valid date.")
		}
		rec.AppliedAt = d
	}

	var statusID int64
	errs.required("status_id", in.StatusID)
	if in.StatusID != "" {
		id, err := strconv.ParseInt(in.StatusID, 10, 64)
		if err != nil || id <= 0 {
			errs.add("status_id", "The selected status id is invalid.")
		}
		statusID = id
	}
	rec.StatusID = statusID
	return rec, statusID, errs
}

func parseStatus(in StatusInput) (model.Status, error) {
	name := strings.TrimSpace(in.Name)
	errs := fieldErrors{}
	errs.text("name", name)
	errs.required("name", name)
	errs.max("name", name, 255)
	if err := errs.err(); err != nil {
		return model.Status{}, err
	}
	return model.Status{Name: name}, nil
}
