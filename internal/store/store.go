package store

import (
	"time"

	"pingmon/internal/domain"
)

// Store is the single source of truth for job definitions. The scheduler
// and the HTTP API both go through it; nobody touches the backing document
// directly.
type Store interface {
	Load() []domain.Job
	Save(jobs []domain.Job) error
	GetByName(name string) (domain.Job, bool)
	Add(job domain.Job) (bool, error)
	Update(name string, patch domain.JobPatch) (bool, error)
	SetLastRun(name string, t time.Time) (bool, error)
	Delete(name string) (bool, error)
}
