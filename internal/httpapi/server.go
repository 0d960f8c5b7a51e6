// Package httpapi exposes job CRUD and run-now over HTTP. Field validation
// happens here so malformed jobs never reach the scheduler.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"pingmon/internal/domain"
	"pingmon/internal/store"
)

// Runner is the slice of the scheduler the API needs.
type Runner interface {
	RunNow(name string)
	NextRunTimes() map[string]time.Time
}

type Server struct {
	Logger        *zap.Logger
	Jobs          store.Store
	Sched         Runner
	OperatorToken string

	// Defaults applied to new jobs when the caller omits the fields.
	DefaultIntervalSec float64
	DefaultCount       int
}

func NewServer(l *zap.Logger, jobs store.Store, sched Runner, token string, defIntervalSec float64, defCount int) *Server {
	return &Server{
		Logger:             l,
		Jobs:               jobs,
		Sched:              sched,
		OperatorToken:      token,
		DefaultIntervalSec: defIntervalSec,
		DefaultCount:       defCount,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(requireToken(s.OperatorToken))
		r.Get("/api/jobs", s.handleListJobs)
		r.Post("/api/jobs", s.handleAddJob)
		r.Get("/api/jobs/next-runs", s.handleNextRuns)
		r.Get("/api/jobs/{name}", s.handleGetJob)
		r.Patch("/api/jobs/{name}", s.handlePatchJob)
		r.Delete("/api/jobs/{name}", s.handleDeleteJob)
		r.Post("/api/jobs/{name}/run", s.handleRunNow)
	})

	return r
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Jobs.Load())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := s.Jobs.GetByName(name)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleAddJob(w http.ResponseWriter, r *http.Request) {
	var job domain.Job
	if err := decodeStrict(r.Body, &job); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if job.LastRunAt != nil {
		writeError(w, http.StatusBadRequest, "last_run_at is set by the scheduler, not the caller")
		return
	}
	if job.IntervalSec == 0 {
		job.IntervalSec = s.DefaultIntervalSec
	}
	if job.Count == 0 {
		job.Count = s.DefaultCount
	}
	if err := job.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := s.Jobs.Add(job)
	if err != nil {
		s.Logger.Error("job_add_error", zap.String("job", job.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save job")
		return
	}
	if !added {
		writeError(w, http.StatusConflict, "job name already exists")
		return
	}
	s.Logger.Info("job_added", zap.String("job", job.Name), zap.String("target", job.Target))
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handlePatchJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var patch domain.JobPatch
	if err := decodeStrict(r.Body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, ok := s.Jobs.GetByName(name)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if _, err := patch.Apply(current); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	found, err := s.Jobs.Update(name, patch)
	if !found {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.Logger.Error("job_update_error", zap.String("job", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save job")
		return
	}
	job, _ := s.Jobs.GetByName(name)
	s.Logger.Info("job_updated", zap.String("job", name))
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	removed, err := s.Jobs.Delete(name)
	if err != nil {
		s.Logger.Error("job_delete_error", zap.String("job", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save jobs")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.Logger.Info("job_deleted", zap.String("job", name))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunNow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.Jobs.GetByName(name); !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	// Dispatched on its own goroutine; the report arrives via the notifier.
	s.Sched.RunNow(name)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "running", "job": name})
}

func (s *Server) handleNextRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sched.NextRunTimes())
}

// decodeStrict rejects unknown field names instead of silently ignoring
// them, so a typoed field in a patch is an error rather than a no-op.
func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("bad payload: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
