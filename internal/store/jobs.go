// Package store persists the job collection as a single JSON document.
//
// The whole collection is the unit of read and write. That is adequate for
// tens of jobs and keeps every mutation a plain read-modify-write under one
// lock; an indexed store only becomes worth it if job counts grow large.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"pingmon/internal/domain"
)

type document struct {
	Jobs []domain.Job `json:"jobs"`
}

// FileStore is a file-backed job store safe for concurrent use by the
// scheduler, on-demand runners and CRUD callers. The lock is never held
// across a probe or notifier call.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load reads the full collection in stored order. A missing file is an empty
// collection. Read or decode failures degrade to an empty list so the
// scheduler keeps running; the failure is logged, not propagated.
func (s *FileStore) Load() []domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileStore) loadLocked() []domain.Job {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("jobs_read_error", zap.String("path", s.path), zap.Error(err))
		}
		return nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("jobs_decode_error", zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return doc.Jobs
}

// Save overwrites the full collection. Write failures propagate: a lost
// operator change must never be swallowed. The write goes through a temp
// file and rename so a crash mid-write cannot corrupt the document.
func (s *FileStore) Save(jobs []domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(jobs)
}

func (s *FileStore) saveLocked(jobs []domain.Job) error {
	if jobs == nil {
		jobs = []domain.Job{}
	}
	data, err := json.MarshalIndent(document{Jobs: jobs}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode jobs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create jobs dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write jobs: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace jobs: %w", err)
	}
	return nil
}

// GetByName returns the job with the given name, or false.
func (s *FileStore) GetByName(name string) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.loadLocked() {
		if j.Name == name {
			return j, true
		}
	}
	return domain.Job{}, false
}

// Add appends the job if its name is unused. Returns false without mutating
// anything when the name already exists.
func (s *FileStore) Add(job domain.Job) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := s.loadLocked()
	for _, j := range jobs {
		if j.Name == job.Name {
			return false, nil
		}
	}
	if err := s.saveLocked(append(jobs, job)); err != nil {
		return false, err
	}
	return true, nil
}

// Update merges a patch into the named job. Returns false when absent.
func (s *FileStore) Update(name string, patch domain.JobPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := s.loadLocked()
	for i, j := range jobs {
		if j.Name != name {
			continue
		}
		merged, err := patch.Apply(j)
		if err != nil {
			return true, err
		}
		jobs[i] = merged
		if err := s.saveLocked(jobs); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, nil
}

// SetLastRun stamps the named job's last run time. This is the only write
// the execution path performs.
func (s *FileStore) SetLastRun(name string, t time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := s.loadLocked()
	for i, j := range jobs {
		if j.Name != name {
			continue
		}
		utc := t.UTC()
		jobs[i].LastRunAt = &utc
		if err := s.saveLocked(jobs); err != nil {
			return true, err
		}
		return true, nil
	}
	return false, nil
}

// Delete removes the named job. Returns false when absent.
func (s *FileStore) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := s.loadLocked()
	kept := jobs[:0]
	for _, j := range jobs {
		if j.Name != name {
			kept = append(kept, j)
		}
	}
	if len(kept) == len(jobs) {
		return false, nil
	}
	if err := s.saveLocked(kept); err != nil {
		return true, err
	}
	return true, nil
}
