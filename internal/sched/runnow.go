package sched

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RunNow executes one named job immediately, regardless of its due time.
// The work happens on its own goroutine so a long probe never blocks the
// caller (typically an HTTP handler). An unknown name is reported to the
// operator, not treated as fatal.
func (s *Scheduler) RunNow(name string) {
	go func() {
		ctx := context.Background()
		job, ok := s.Store.GetByName(name)
		if !ok {
			s.deliver(ctx, fmt.Sprintf("Job not found: %s", name))
			return
		}
		s.deliver(ctx, fmt.Sprintf("Running now: %s", name))
		if out := s.runJob(ctx, job); out.Err != nil {
			s.Logger.Warn("run_now_failed", zap.String("job", name), zap.Error(out.Err))
		}
	}()
}

// NextRunTimes projects each job's next due time for UI display.
func (s *Scheduler) NextRunTimes() map[string]time.Time {
	now := s.now().UTC()
	out := make(map[string]time.Time)
	for _, job := range s.Store.Load() {
		out[job.Name] = job.NextRun(now)
	}
	return out
}
