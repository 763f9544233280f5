package worker

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/dharsanguruparan/jobtrack/internal/model"
)

var csvHeader = []string{
	"id", "position", "company", "location", "job_url", "salary",
	"job_type", "applied_at", "status", "created_at",
}

// RenderCSV writes records in the given order under a fixed header. Missing
// optional fields become empty cells.
func RenderCSV(records []model.JobRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		status := ""
		if rec.Status != nil {
			status = rec.Status.Name
		}
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Position,
			rec.Company,
			deref(rec.Location),
			deref(rec.JobURL),
			deref(rec.Salary),
			deref(rec.JobType),
			rec.AppliedAt.String(),
			status,
			rec.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", rec.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
