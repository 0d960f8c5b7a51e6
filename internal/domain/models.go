package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Field bounds for job definitions.
const (
	MaxNameLen         = 32
	MaxIntervalSec     = 3600
	MaxCount           = 100000
	MaxScheduleMinutes = 10080 // one week
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_. -]+$`)

// Job is a named, persisted definition of a recurring ping probe.
// LastRunAt is written only by the execution path, never by CRUD.
type Job struct {
	Name            string     `json:"name"`
	Target          string     `json:"target"`
	IntervalSec     float64    `json:"interval_sec"`
	Count           int        `json:"count"`
	ScheduleMinutes int        `json:"schedule_minutes"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty"`
}

// Validate checks all operator-settable fields. Target is not resolved here;
// a bad hostname surfaces through the probe itself at run time.
func (j *Job) Validate() error {
	if j.Name == "" || len(j.Name) > MaxNameLen || !namePattern.MatchString(j.Name) {
		return errors.New("name must be 1-32 chars of letters, digits, space, _ - .")
	}
	if j.IntervalSec <= 0 || j.IntervalSec > MaxIntervalSec {
		return fmt.Errorf("interval_sec must be in (0, %d]", MaxIntervalSec)
	}
	if j.Count < 1 || j.Count > MaxCount {
		return fmt.Errorf("count must be in [1, %d]", MaxCount)
	}
	if j.ScheduleMinutes < 1 || j.ScheduleMinutes > MaxScheduleMinutes {
		return fmt.Errorf("schedule_minutes must be in [1, %d]", MaxScheduleMinutes)
	}
	return nil
}

// NextRun returns the earliest time the job may run again. A job that has
// never run is due immediately.
func (j *Job) NextRun(now time.Time) time.Time {
	if j.LastRunAt == nil {
		return now
	}
	return j.LastRunAt.Add(time.Duration(j.ScheduleMinutes) * time.Minute)
}

// JobPatch is a partial update to a job. Nil fields are left untouched.
// There is deliberately no LastRunAt field: the editing path may not move
// the schedule clock.
type JobPatch struct {
	Target          *string  `json:"target,omitempty"`
	IntervalSec     *float64 `json:"interval_sec,omitempty"`
	Count           *int     `json:"count,omitempty"`
	ScheduleMinutes *int     `json:"schedule_minutes,omitempty"`
}

// Apply merges the patch into a copy of job and validates the result.
func (p JobPatch) Apply(job Job) (Job, error) {
	if p.Target != nil {
		job.Target = *p.Target
	}
	if p.IntervalSec != nil {
		job.IntervalSec = *p.IntervalSec
	}
	if p.Count != nil {
		job.Count = *p.Count
	}
	if p.ScheduleMinutes != nil {
		job.ScheduleMinutes = *p.ScheduleMinutes
	}
	if err := job.Validate(); err != nil {
		return Job{}, err
	}
	return job, nil
}
