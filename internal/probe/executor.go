// Package probe runs the system ping utility and parses its output.
package probe

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"time"

	"pingmon/internal/domain"
)

// DefaultSlack is added on top of count*interval to bound a probe run.
// It comfortably exceeds per-packet resolution and reply latency.
const DefaultSlack = 60 * time.Second

// Prober runs one probe against a target.
type Prober interface {
	Run(ctx context.Context, target string, count int, intervalSec float64) domain.ProbeResult
}

// Executor invokes ping as an external process. Bin and Slack are
// overridable so tests can substitute a script and a short timeout.
type Executor struct {
	Bin   string
	Slack time.Duration
}

func NewExecutor() *Executor {
	return &Executor{Bin: "ping", Slack: DefaultSlack}
}

// Run executes `ping -c <count> -i <intervalSec> <target>` with a timeout of
// count*intervalSec plus slack. The result always carries the echoed job
// parameters; failures are classified into the Error field rather than
// returned, so a broken probe still produces a reportable result.
// On Linux an interval below 0.2s may require root.
func (e *Executor) Run(ctx context.Context, target string, count int, intervalSec float64) domain.ProbeResult {
	timeout := time.Duration(float64(count)*intervalSec*float64(time.Second)) + e.Slack
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"-c", strconv.Itoa(count),
		"-i", strconv.FormatFloat(intervalSec, 'f', -1, 64),
		target,
	}
	cmd := exec.CommandContext(cctx, e.Bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	switch {
	case cctx.Err() == context.DeadlineExceeded:
		// Treat everything sent as lost; the run still counts.
		return domain.ProbeResult{
			Target:      target,
			Count:       count,
			IntervalSec: intervalSec,
			Transmitted: count,
			LossPct:     100,
			Error:       "ping timed out",
		}
	case err != nil && (errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)):
		return domain.ProbeResult{
			Target:      target,
			Count:       count,
			IntervalSec: intervalSec,
			LossPct:     100,
			Error:       "ping command not found",
		}
	case err != nil && stdout.Len() == 0 && stderr.Len() == 0:
		// Spawn failure with nothing to parse.
		return domain.ProbeResult{
			Target:      target,
			Count:       count,
			IntervalSec: intervalSec,
			LossPct:     100,
			Error:       err.Error(),
		}
	}

	// ping exits non-zero on loss or unknown hosts; stdout is still the
	// authoritative record, with stderr attached as a note.
	return Parse(stdout.String(), stderr.String(), target, count, intervalSec)
}
