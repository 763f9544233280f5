package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dharsanguruparan/jobtrack/internal/config"
	"github.com/dharsanguruparan/jobtrack/internal/flash"
	"github.com/dharsanguruparan/jobtrack/internal/model"
	"github.com/dharsanguruparan/jobtrack/internal/queue"
	"github.com/dharsanguruparan/jobtrack/internal/signing"
	"github.com/dharsanguruparan/jobtrack/internal/storage"
	"github.com/dharsanguruparan/jobtrack/internal/tracker"
)

type fakeQueue struct {
	payloads []queue.ExportPayload
	err      error
}

func (f *fakeQueue) EnqueueExport(ctx context.Context, payload queue.ExportPayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakePresigner struct{}

func (fakePresigner) PresignExportURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://s3.example/%s?ttl=%d", objectKey, int(ttl.Seconds())), nil
}

type harness struct {
	t       *testing.T
	store   *storage.MemoryStore
	signer  *signing.Signer
	handler http.Handler
}

func newHarness(t *testing.T, withExports bool) (*harness, *fakeQueue) {
	t.Helper()
	store := storage.NewMemoryStore()
	tick := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})
	svc := tracker.NewService(store, store, tracker.DefaultPerPage)
	if _, err := svc.SeedStatuses(context.Background()); err != nil {
		t.Fatalf("seed statuses: %v", err)
	}
	signer := signing.NewSigner([]byte("test-secret"))
	deps := Deps{
		Service: svc,
		Flash:   flash.NewMemoryStore(time.Minute),
		Signer:  signer,
	}
	q := &fakeQueue{}
	if withExports {
		deps.Exports = store
		deps.Queue = q
		deps.Presigner = fakePresigner{}
	}
	srv, err := New(&config.Config{ExportURLTTL: 10 * time.Minute}, deps)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &harness{t: t, store: store, signer: signer, handler: srv.Handler()}, q
}

func (h *harness) send(req *http.Request, userID int64) *httptest.ResponseRecorder {
	h.t.Helper()
	if userID > 0 {
		req.Header.Set("Authorization", "Bearer "+h.signer.Token(userID, time.Hour, time.Now()))
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) get(target string, userID int64) *httptest.ResponseRecorder {
	return h.send(httptest.NewRequest(http.MethodGet, target, nil), userID)
}

func (h *harness) form(method, target string, values url.Values, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.send(req, userID)
}

func (h *harness) sendJSON(method, target string, body any, userID int64) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	if err != nil {
		h.t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return h.send(req, userID)
}

type decodedPage struct {
	Component string                     `json:"component"`
	Props     map[string]json.RawMessage `json:"props"`
	URL       string                     `json:"url"`
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) decodedPage {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var page decodedPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	return page
}

func decodeProp(t *testing.T, page decodedPage, key string, into any) {
	t.Helper()
	raw, ok := page.Props[key]
	if !ok {
		t.Fatalf("page %s has no %q prop", page.Component, key)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("decode prop %s: %v", key, err)
	}
}

func jobValues(position, company string, statusID int64) url.Values {
	return url.Values{
		"position":   {position},
		"company":    {company},
		"applied_at": {"2024-05-01"},
		"status_id":  {fmt.Sprint(statusID)},
	}
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}

func TestPublicAndProtectedRoutes(t *testing.T) {
	h, _ := newHarness(t, false)
	if rec := h.get("/healthz", 0); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if page := decodePage(t, h.get("/", 0)); page.Component != "welcome" {
		t.Fatalf("unexpected welcome component %q", page.Component)
	}
	if rec := h.get("/pekerjaan", 0); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/pekerjaan", nil)
	req.Header.Set("Authorization", "Bearer 1.99999999999.bogus")
	if rec := h.send(req, 0); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a forged token, got %d", rec.Code)
	}
	req = httptest.NewRequest(http.MethodGet, "/pekerjaan", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: h.signer.Token(1, time.Hour, time.Now())})
	if rec := h.send(req, 0); rec.Code != http.StatusOK {
		t.Fatalf("expected cookie session to be accepted, got %d", rec.Code)
	}
}

func TestCreateJobAndList(t *testing.T) {
	h, _ := newHarness(t, false)
	rec := h.form(http.MethodPost, "/pekerjaan", jobValues("Backend Engineer", "Acme", 1), 1)
	expectRedirect(t, rec, "/pekerjaan")

	page := decodePage(t, h.get("/pekerjaan", 1))
	if page.Component != "pekerjaan/index" {
		t.Fatalf("unexpected component %q", page.Component)
	}
	var f flash.Flash
	decodeProp(t, page, "flash", &f)
	if f.Message != tracker.MsgJobCreated {
		t.Fatalf("expected created flash, got %+v", f)
	}
	var jobs struct {
		Total int               `json:"total"`
		Data  []model.JobRecord `json:"data"`
	}
	decodeProp(t, page, "jobs", &jobs)
	if jobs.Total != 1 || len(jobs.Data) != 1 {
		t.Fatalf("expected one job, got %+v", jobs)
	}
	got := jobs.Data[0]
	if got.Position != "Backend Engineer" || got.UserID != 1 || got.Status == nil || got.Status.Name != "Applied" {
		t.Fatalf("unexpected job %+v", got)
	}
	var statuses []model.Status
	decodeProp(t, page, "statuses", &statuses)
	if len(statuses) != len(tracker.DefaultStatuses) || statuses[0].ID != 1 {
		t.Fatalf("expected statuses by id, got %+v", statuses)
	}

	// the flash is shown once
	page = decodePage(t, h.get("/pekerjaan", 1))
	f = flash.Flash{}
	decodeProp(t, page, "flash", &f)
	if !f.Empty() {
		t.Fatalf("expected flash to be consumed, got %+v", f)
	}
	// other users see nothing
	page = decodePage(t, h.get("/pekerjaan", 2))
	decodeProp(t, page, "jobs", &jobs)
	if jobs.Total != 0 {
		t.Fatalf("expected user 2 to see no jobs, got %d", jobs.Total)
	}
}

func TestCreateJobValidation(t *testing.T) {
	h, _ := newHarness(t, false)
	rec := h.sendJSON(http.MethodPost, "/pekerjaan", map[string]any{"job_url": "not a url", "status_id": 99}, 1)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	for _, field := range []string{"position", "company", "applied_at", "job_url", "status_id"} {
		if _, ok := body.Errors[field]; !ok {
			t.Fatalf("expected an error for %s, got %+v", field, body.Errors)
		}
	}
	if body.Message != "The applied at field is required. (and 4 more errors)" {
		t.Fatalf("unexpected summary %q", body.Message)
	}
	if items, _ := h.store.ListJobs(context.Background(), 1); len(items) != 0 {
		t.Fatalf("expected nothing persisted, got %d", len(items))
	}

	rec = h.sendJSON(http.MethodPost, "/pekerjaan", map[string]any{
		"position": "Dev", "company": "Acme", "applied_at": "2024-05-01", "status_id": 99,
	}, 1)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "The selected status id is invalid.") {
		t.Fatalf("expected unknown status to be rejected, got %d %s", rec.Code, rec.Body.String())
	}

	rec = h.sendJSON(http.MethodPost, "/pekerjaan", map[string]any{
		"position":   []string{"Backend", "Engineer"},
		"company":    map[string]string{"name": "Acme"},
		"location":   true,
		"applied_at": "2024-05-01",
		"status_id":  1,
	}, 1)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected non-text values to 422, got %d", rec.Code)
	}
	body = errorBody{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	for field, want := range map[string]string{
		"position": "The position field must be a string.",
		"company":  "The company field must be a string.",
		"location": "The location field must be a string.",
	} {
		if body.Errors[field] != want {
			t.Fatalf("expected %q on %s, got %+v", want, field, body.Errors)
		}
	}
	if items, _ := h.store.ListJobs(context.Background(), 1); len(items) != 0 {
		t.Fatalf("expected nothing persisted, got %d", len(items))
	}
	if rec := h.sendJSON(http.MethodPost, "/status", map[string]any{"name": []int{1}}, 1); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected list status name to 422, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/pekerjaan", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	if rec := h.send(req, 1); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", rec.Code)
	}
}

func TestEditAndUpdateJob(t *testing.T) {
	h, _ := newHarness(t, false)
	expectRedirect(t, h.form(http.MethodPost, "/pekerjaan", jobValues("Dev", "Acme", 1), 1), "/pekerjaan")

	page := decodePage(t, h.get("/pekerjaan/1/edit", 1))
	var options []statusOption
	decodeProp(t, page, "statuses", &options)
	names := make([]string, 0, len(options))
	for _, o := range options {
		names = append(names, o.Name)
	}
	if strings.Join(names, ",") != "Applied,Interview,Offer,Rejected" {
		t.Fatalf("expected statuses by name, got %v", names)
	}

	values := jobValues("Senior Dev", "Acme", 2)
	values.Set("_method", "PUT")
	expectRedirect(t, h.form(http.MethodPost, "/pekerjaan/1/update", values, 1), "/pekerjaan")
	job, err := h.store.GetJob(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Position != "Senior Dev" || job.StatusID != 2 {
		t.Fatalf("update not applied: %+v", job)
	}

	if rec := h.get("/pekerjaan/1/edit", 2); rec.Code != http.StatusNotFound {
		t.Fatalf("expected foreign edit to 404, got %d", rec.Code)
	}
	if rec := h.get("/pekerjaan/42/edit", 1); rec.Code != http.StatusNotFound {
		t.Fatalf("expected missing edit to 404, got %d", rec.Code)
	}
	if rec := h.form(http.MethodPut, "/pekerjaan/42/update", jobValues("X", "Y", 1), 1); rec.Code != http.StatusNotFound {
		t.Fatalf("expected missing update to 404, got %d", rec.Code)
	}
	if rec := h.form(http.MethodPut, "/pekerjaan/1/update", url.Values{}, 1); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected empty update to 422, got %d", rec.Code)
	}
}

func TestDeleteJobIsSoft(t *testing.T) {
	h, _ := newHarness(t, false)
	expectRedirect(t, h.form(http.MethodPost, "/pekerjaan", jobValues("Dev", "Acme", 1), 1), "/pekerjaan")
	_ = h.get("/pekerjaan", 1)

	req := httptest.NewRequest(http.MethodDelete, "/pekerjaan/99", nil)
	req.Header.Set("Referer", "http://example.com/pekerjaan?page=2&search=dev")
	expectRedirect(t, h.send(req, 1), "/pekerjaan?page=2&search=dev")
	var f flash.Flash
	decodeProp(t, decodePage(t, h.get("/pekerjaan", 1)), "flash", &f)
	if f.ErrorMsg != tracker.MsgJobMissing || f.Message != "" {
		t.Fatalf("expected missing flash, got %+v", f)
	}
	if items, _ := h.store.ListJobs(context.Background(), 1); len(items) != 1 {
		t.Fatalf("expected store unchanged, got %d records", len(items))
	}

	req = httptest.NewRequest(http.MethodPost, "/pekerjaan/1", nil)
	req.Header.Set("X-HTTP-Method-Override", "DELETE")
	req.Header.Set("Referer", "https://elsewhere.example/phish")
	expectRedirect(t, h.send(req, 1), "/pekerjaan")
	if items, _ := h.store.ListJobs(context.Background(), 1); len(items) != 0 {
		t.Fatalf("expected record deleted, got %d", len(items))
	}
}

func TestStatusRoutes(t *testing.T) {
	h, _ := newHarness(t, false)
	page := decodePage(t, h.get("/status", 1))
	var statuses []model.Status
	decodeProp(t, page, "statuses", &statuses)
	if statuses[0].Name != "Rejected" {
		t.Fatalf("expected newest status first, got %+v", statuses[0])
	}
	if page := decodePage(t, h.get("/status/create", 1)); page.Component != "status/create" {
		t.Fatalf("unexpected component %q", page.Component)
	}
	if rec := h.form(http.MethodPost, "/status", url.Values{"name": {" "}}, 1); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected blank status name to 422, got %d", rec.Code)
	}
	expectRedirect(t, h.form(http.MethodPost, "/status", url.Values{"name": {"Ghosted"}}, 1), "/status")

	expectRedirect(t, h.form(http.MethodPost, "/pekerjaan", jobValues("Dev", "Acme", 5), 1), "/pekerjaan")
	expectRedirect(t, h.form(http.MethodPost, "/pekerjaan", jobValues("Ops", "Initech", 1), 1), "/pekerjaan")

	if rec := h.send(httptest.NewRequest(http.MethodDelete, "/status/77", nil), 1); rec.Code != http.StatusNotFound {
		t.Fatalf("expected missing status delete to 404, got %d", rec.Code)
	}
	expectRedirect(t, h.send(httptest.NewRequest(http.MethodDelete, "/status/5", nil), 1), "/status")
	items, _ := h.store.ListJobs(context.Background(), 1)
	if len(items) != 1 || items[0].Position != "Ops" {
		t.Fatalf("expected cascade to remove the Ghosted job, got %+v", items)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	h, _ := newHarness(t, false)
	for i := 1; i <= 12; i++ {
		company := "Acme"
		if i%2 == 0 {
			company = "Initech"
		}
		expectRedirect(t, h.form(http.MethodPost, "/pekerjaan", jobValues(fmt.Sprintf("Role %02d", i), company, 1), 1), "/pekerjaan")
	}
	var jobs tracker.Paginator
	page := decodePage(t, h.get("/pekerjaan?page=2", 1))
	decodeProp(t, page, "jobs", &jobs)
	if jobs.Total != 12 || len(jobs.Data) != 2 || jobs.LastPage != 2 {
		t.Fatalf("unexpected second page: total=%d len=%d last=%d", jobs.Total, len(jobs.Data), jobs.LastPage)
	}
	if jobs.Data[0].Position != "Role 02" {
		t.Fatalf("expected oldest records on the last page, got %q", jobs.Data[0].Position)
	}

	jobs = tracker.Paginator{}
	page = decodePage(t, h.get("/pekerjaan?page=922337203685477582", 1))
	decodeProp(t, page, "jobs", &jobs)
	if jobs.Total != 12 || len(jobs.Data) != 0 || jobs.From != nil || jobs.NextPageURL != nil {
		t.Fatalf("expected an empty page past the end, got total=%d len=%d", jobs.Total, len(jobs.Data))
	}

	page = decodePage(t, h.get("/pekerjaan?search=initech&status=1", 1))
	decodeProp(t, page, "jobs", &jobs)
	if jobs.Total != 6 {
		t.Fatalf("expected 6 Initech jobs, got %d", jobs.Total)
	}
	var filters map[string]string
	decodeProp(t, page, "filters", &filters)
	if filters["search"] != "initech" || filters["status"] != "1" {
		t.Fatalf("unexpected filters %v", filters)
	}

	page = decodePage(t, h.get("/pekerjaan?status=abc", 1))
	decodeProp(t, page, "jobs", &jobs)
	if jobs.Total != 0 {
		t.Fatalf("expected non-numeric status to match nothing, got %d", jobs.Total)
	}
}

func TestDashboardCounts(t *testing.T) {
	h, _ := newHarness(t, false)
	expectRedirect(t, h.form(http.MethodPost, "/pekerjaan", jobValues("A", "Acme", 1), 1), "/pekerjaan")
	expectRedirect(t, h.form(http.MethodPost, "/pekerjaan", jobValues("B", "Acme", 2), 1), "/pekerjaan")
	expectRedirect(t, h.form(http.MethodPost, "/pekerjaan", jobValues("C", "Acme", 2), 1), "/pekerjaan")
	var counts tracker.Counts
	decodeProp(t, decodePage(t, h.get("/dashboard", 1)), "counts", &counts)
	if counts.Total != 3 || counts.ByStatus[1].Count != 2 || counts.ByStatus[3].Count != 0 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestExportEndpoints(t *testing.T) {
	disabled, _ := newHarness(t, false)
	if rec := disabled.send(httptest.NewRequest(http.MethodPost, "/exports", nil), 1); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a queue, got %d", rec.Code)
	}

	h, q := newHarness(t, true)
	rec := h.send(httptest.NewRequest(http.MethodPost, "/exports", nil), 1)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	id := created["id"]
	if created["status"] != string(model.ExportQueued) || len(q.payloads) != 1 || q.payloads[0].ExportID != id || q.payloads[0].UserID != 1 {
		t.Fatalf("unexpected enqueue: %v %+v", created, q.payloads)
	}

	if rec := h.get("/exports/"+id, 2); rec.Code != http.StatusNotFound {
		t.Fatalf("expected foreign export to 404, got %d", rec.Code)
	}
	if rec := h.get("/exports/"+id, 1); rec.Code != http.StatusOK {
		t.Fatalf("expected export metadata, got %d", rec.Code)
	}
	if rec := h.get("/exports/"+id+"/url", 1); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 before completion, got %d", rec.Code)
	}
	if err := h.store.MarkCompleted(context.Background(), id, "exports/1/"+id+".csv", 0); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	rec = h.get("/exports/"+id+"/url", 1)
	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK || !strings.Contains(string(body), "https://s3.example/exports/1/"+id+".csv?ttl=600") {
		t.Fatalf("unexpected url response %d %s", rec.Code, body)
	}
}

func TestExportEnqueueFailureMarksFailed(t *testing.T) {
	h, q := newHarness(t, true)
	q.err = errors.New("redis unreachable")
	rec := h.send(httptest.NewRequest(http.MethodPost, "/exports", nil), 1)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the queue is down, got %d", rec.Code)
	}
	var id string
	for _, exp := range h.store.Exports() {
		id = exp.ID
	}
	if id == "" {
		t.Fatalf("expected the export row to be recorded")
	}
	var got model.Export
	rec = h.get("/exports/"+id, 1)
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if got.Status != model.ExportFailed || got.ErrorMessage == nil || !strings.Contains(*got.ErrorMessage, "redis unreachable") {
		t.Fatalf("expected export to be marked failed, got %+v", got)
	}
}
