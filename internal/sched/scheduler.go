// Package sched drives the tick loop that detects due jobs and runs them.
package sched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pingmon/internal/domain"
	"pingmon/internal/notify"
	"pingmon/internal/probe"
	"pingmon/internal/report"
	"pingmon/internal/store"
)

const DefaultTick = 10 * time.Second

// Outcome is the per-job record of one execution attempt. The tick loop
// aggregates these instead of raising: a failed job is a value, not an
// abort.
type Outcome struct {
	Job     domain.Job
	Result  domain.ProbeResult
	Skipped bool // missing target, timestamp not advanced
	Err     error
}

// Scheduler polls the job store on a fixed period and executes due jobs
// sequentially within the tick. A slow probe delays the remaining due jobs
// of that tick; that bounded-sequential behavior is the intended trade-off
// at this job count.
type Scheduler struct {
	Store     store.Store
	Prober    probe.Prober
	Notifier  notify.Notifier
	Recipient string
	Logger    *zap.Logger
	Tick      time.Duration

	cron     *cron.Cron
	tickLock sync.Mutex
	now      func() time.Time
}

func New(st store.Store, p probe.Prober, n notify.Notifier, recipient string, logger *zap.Logger, tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Scheduler{
		Store:     st,
		Prober:    p,
		Notifier:  n,
		Recipient: recipient,
		Logger:    logger,
		Tick:      tick,
		now:       time.Now,
	}
}

// Start begins the polling loop. If a tick is still running when the next
// one fires, the new tick is skipped rather than stacked; TryLock makes the
// check-and-acquire atomic.
func (s *Scheduler) Start() error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.Tick), func() {
		if !s.tickLock.TryLock() {
			s.Logger.Warn("tick_still_running")
			return
		}
		defer s.tickLock.Unlock()
		s.tick(context.Background())
	})
	if err != nil {
		return fmt.Errorf("register tick: %w", err)
	}
	s.cron.Start()
	s.Logger.Info("scheduler_started", zap.Duration("tick", s.Tick))
	return nil
}

// Stop halts the tick driver, waiting for an in-flight tick to finish.
// There is no cancellation of an in-flight probe; the probe's own timeout
// bounds the wait.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		s.Logger.Info("scheduler_stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tick runs one polling pass: load all jobs, execute the due ones in stored
// order. A load failure has already degraded to an empty list inside the
// store, so the loop keeps polling no matter what.
func (s *Scheduler) tick(ctx context.Context) []Outcome {
	now := s.now().UTC()
	jobs := s.Store.Load()

	var outcomes []Outcome
	for _, job := range jobs {
		if now.Before(job.NextRun(now)) {
			continue
		}
		out := s.runJob(ctx, job)
		outcomes = append(outcomes, out)
		if out.Err != nil {
			s.Logger.Warn("job_failed",
				zap.String("job", job.Name),
				zap.String("target", job.Target),
				zap.Error(out.Err),
			)
		}
	}
	if len(outcomes) > 0 {
		s.Logger.Debug("tick_done", zap.Int("executed", len(outcomes)))
	}
	return outcomes
}

// runJob executes one job end to end: probe, report, deliver, stamp. The
// timestamp advances whether the probe succeeded, errored or timed out, so
// an unreachable target is paced by its schedule instead of every tick.
// A job with no target is the one exception: it is skipped with a notice
// and left unstamped so it retries as soon as the field is fixed.
func (s *Scheduler) runJob(ctx context.Context, job domain.Job) Outcome {
	if job.Target == "" {
		s.deliver(ctx, fmt.Sprintf("Job skipped: %s\nMissing target.", job.Name))
		return Outcome{Job: job, Skipped: true}
	}

	result := s.Prober.Run(ctx, job.Target, job.Count, job.IntervalSec)
	s.deliver(ctx, report.Format(job.Name, result))

	out := Outcome{Job: job, Result: result}
	if found, err := s.Store.SetLastRun(job.Name, s.now()); err != nil {
		out.Err = fmt.Errorf("stamp last run: %w", err)
	} else if !found {
		// Deleted mid-run; nothing to stamp.
		s.Logger.Info("job_gone", zap.String("job", job.Name))
	}
	return out
}

// deliver pushes text to the operator. Delivery failures are logged, never
// raised into the tick loop.
func (s *Scheduler) deliver(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Deliver(ctx, s.Recipient, text); err != nil {
		s.Logger.Warn("deliver_error", zap.Error(err))
	}
}
