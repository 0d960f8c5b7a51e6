package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"pingmon/internal/domain"
	"pingmon/internal/store"
)

// ---- test helpers ----

type fakeRunner struct {
	mu   sync.Mutex
	runs []string
}

func (f *fakeRunner) RunNow(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, name)
}

func (f *fakeRunner) NextRunTimes() map[string]time.Time {
	return map[string]time.Time{"j1": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func setup(t *testing.T, token string) (*httptest.Server, *store.FileStore, *fakeRunner) {
	t.Helper()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "jobs.json"), zap.NewNop())
	runner := &fakeRunner{}
	srv := NewServer(zap.NewNop(), st, runner, token, 0.2, 10)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, st, runner
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// ---- tests ----

func TestAddJob_OK_Duplicate_Invalid(t *testing.T) {
	ts, st, _ := setup(t, "")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/jobs",
		`{"name":"cf","target":"1.1.1.1","schedule_minutes":5}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d", resp.StatusCode)
	}
	var created domain.Job
	json.NewDecoder(resp.Body).Decode(&created)
	// Omitted interval/count fall back to the configured defaults.
	if created.IntervalSec != 0.2 || created.Count != 10 {
		t.Fatalf("defaults not applied: %+v", created)
	}
	if job, ok := st.GetByName("cf"); !ok || job.Target != "1.1.1.1" {
		t.Fatalf("job not stored: %+v", job)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/jobs",
		`{"name":"cf","target":"8.8.8.8","schedule_minutes":5}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/jobs",
		`{"name":"bad/name","target":"1.1.1.1","schedule_minutes":5}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid name status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/jobs",
		`{"name":"x","target":"1.1.1.1","schedule_minutes":5,"last_run_at":"2024-01-01T00:00:00Z"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("caller-set last_run_at must be rejected, got %d", resp.StatusCode)
	}
}

func TestPatchJob(t *testing.T) {
	ts, st, _ := setup(t, "")
	st.Add(domain.Job{Name: "j", Target: "a.example", IntervalSec: 1, Count: 2, ScheduleMinutes: 5})

	resp := doJSON(t, http.MethodPatch, ts.URL+"/api/jobs/j", `{"target":"b.example"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", resp.StatusCode)
	}
	if job, _ := st.GetByName("j"); job.Target != "b.example" || job.Count != 2 {
		t.Fatalf("patch result: %+v", job)
	}

	// Unknown fields are rejected, not ignored.
	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/jobs/j", `{"tagret":"oops.example"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d", resp.StatusCode)
	}
	if job, _ := st.GetByName("j"); job.Target != "b.example" {
		t.Fatalf("rejected patch mutated the job: %+v", job)
	}

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/jobs/j", `{"count":0}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid patch status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/jobs/ghost", `{"target":"x"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing job status = %d", resp.StatusCode)
	}
}

func TestDeleteJob(t *testing.T) {
	ts, st, _ := setup(t, "")
	st.Add(domain.Job{Name: "j", Target: "a", IntervalSec: 1, Count: 1, ScheduleMinutes: 1})

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/jobs/j", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/jobs/j", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d", resp.StatusCode)
	}
}

func TestRunNow(t *testing.T) {
	ts, st, runner := setup(t, "")
	st.Add(domain.Job{Name: "j", Target: "a", IntervalSec: 1, Count: 1, ScheduleMinutes: 1})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/jobs/j/run", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("run status = %d", resp.StatusCode)
	}
	if len(runner.runs) != 1 || runner.runs[0] != "j" {
		t.Fatalf("runner calls: %v", runner.runs)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/jobs/ghost/run", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown job status = %d", resp.StatusCode)
	}
}

func TestListAndNextRuns(t *testing.T) {
	ts, st, _ := setup(t, "")
	st.Add(domain.Job{Name: "j1", Target: "a", IntervalSec: 1, Count: 1, ScheduleMinutes: 1})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/jobs", "")
	var jobs []domain.Job
	json.NewDecoder(resp.Body).Decode(&jobs)
	if len(jobs) != 1 || jobs[0].Name != "j1" {
		t.Fatalf("list = %+v", jobs)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/jobs/next-runs", "")
	var times map[string]time.Time
	json.NewDecoder(resp.Body).Decode(&times)
	if _, ok := times["j1"]; !ok {
		t.Fatalf("next runs = %v", times)
	}
}

func TestOperatorTokenGate(t *testing.T) {
	ts, _, _ := setup(t, "secret")

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/jobs", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("with token status = %d", authed.StatusCode)
	}

	// healthz stays open.
	if resp := doJSON(t, http.MethodGet, ts.URL+"/healthz", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}

func TestValidationMessageIsUseful(t *testing.T) {
	ts, _, _ := setup(t, "")
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/jobs",
		`{"name":"j","target":"a","interval_sec":5000,"schedule_minutes":5}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if !strings.Contains(body["error"], "interval_sec") {
		t.Fatalf("error message = %q", body["error"])
	}
}
