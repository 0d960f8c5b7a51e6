package probe

import (
	"regexp"
	"strconv"
	"strings"

	"pingmon/internal/domain"
)

// Linux iputils summary lines:
//
//	3 packets transmitted, 3 received, 0% packet loss, time 402ms
//	rtt min/avg/max/mdev = 1.234/5.678/9.012/2.345 ms
var (
	statsRE = regexp.MustCompile(`(?i)(\d+) packets? transmitted, (\d+) received`)
	lossRE  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)% packet loss`)
	rttRE   = regexp.MustCompile(`(?i)rtt min/avg/max/mdev = ([\d.]+)/([\d.]+)/([\d.]+)/([\d.]+) ms`)
)

// Parse extracts structured metrics from raw ping output. Extraction is
// best-effort in a fixed order: packet counts, loss percentage (explicit
// token first, computed otherwise), then the RTT quartet. When no RTT line
// matches, the last non-blank stdout line stands in as RawSummary so output
// from other ping variants still yields a readable report.
func Parse(stdout, stderr, target string, count int, intervalSec float64) domain.ProbeResult {
	res := domain.ProbeResult{
		Target:      target,
		Count:       count,
		IntervalSec: intervalSec,
		Transmitted: count,
		LossPct:     100,
	}

	if m := statsRE.FindStringSubmatch(stdout); m != nil {
		res.Transmitted, _ = strconv.Atoi(m[1])
		res.Received, _ = strconv.Atoi(m[2])
	}
	if m := lossRE.FindStringSubmatch(stdout); m != nil {
		res.LossPct, _ = strconv.ParseFloat(m[1], 64)
	} else if res.Transmitted > 0 {
		res.LossPct = 100 * (1 - float64(res.Received)/float64(res.Transmitted))
	}

	if m := rttRE.FindStringSubmatch(stdout); m != nil {
		res.RTTMin = parseMS(m[1])
		res.RTTAvg = parseMS(m[2])
		res.RTTMax = parseMS(m[3])
		res.RTTMdev = parseMS(m[4])
		res.RawSummary = m[0]
	} else if s := lastNonBlankLine(stdout); s != "" {
		res.RawSummary = s
	}

	if s := strings.TrimSpace(stderr); s != "" {
		res.Error = s
	}
	return res
}

func parseMS(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func lastNonBlankLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if t := strings.TrimSpace(lines[i]); t != "" {
			return t
		}
	}
	return ""
}
