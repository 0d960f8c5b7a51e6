// Package report renders probe results into the text delivered to the
// operator.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"pingmon/internal/domain"
)

// Format builds the per-run report. Every execution, success or failure,
// produces exactly one of these.
func Format(jobName string, r domain.ProbeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ping report — %s\n\n", jobName)
	fmt.Fprintf(&b, "Target: %s\n", r.Target)
	fmt.Fprintf(&b, "Test: %d packets (interval %ss)\n\n", r.Count, trimFloat(r.IntervalSec, 3))
	fmt.Fprintf(&b, "Sent: %d\n", r.Transmitted)
	fmt.Fprintf(&b, "Received: %d\n", r.Received)
	fmt.Fprintf(&b, "Packet loss: %.1f%%\n", r.LossPct)

	switch {
	case r.HasRTT():
		fmt.Fprintf(&b, "\nRTT min: %s ms\n", trimFloat(*r.RTTMin, 2))
		fmt.Fprintf(&b, "RTT avg: %s ms\n", trimFloat(*r.RTTAvg, 2))
		fmt.Fprintf(&b, "RTT max: %s ms\n", trimFloat(*r.RTTMax, 2))
		if r.RTTMdev != nil {
			fmt.Fprintf(&b, "Jitter: %s ms\n", trimFloat(*r.RTTMdev, 2))
		}
	case r.RawSummary != "":
		fmt.Fprintf(&b, "\nSummary: %s\n", r.RawSummary)
	default:
		b.WriteString("\nLatency: not available\n")
	}

	if r.Error != "" {
		fmt.Fprintf(&b, "\nNote: %s\n", r.Error)
	}
	return strings.TrimRight(b.String(), "\n")
}

// trimFloat formats with up to digits decimals, dropping trailing zeros so
// 0.200 renders as 0.2 and 2.00 as 2.
func trimFloat(v float64, digits int) string {
	s := strconv.FormatFloat(v, 'f', digits, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
