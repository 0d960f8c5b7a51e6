package domain

// ProbeResult is the outcome of a single ping run. It is formatted into a
// report and discarded, never persisted.
type ProbeResult struct {
	Target      string   `json:"target"`
	Count       int      `json:"count"`
	IntervalSec float64  `json:"interval_sec"`
	Transmitted int      `json:"transmitted"`
	Received    int      `json:"received"`
	LossPct     float64  `json:"loss_pct"`
	RTTMin      *float64 `json:"rtt_min_ms,omitempty"` // pointer to allow nil
	RTTAvg      *float64 `json:"rtt_avg_ms,omitempty"`
	RTTMax      *float64 `json:"rtt_max_ms,omitempty"`
	RTTMdev     *float64 `json:"rtt_mdev_ms,omitempty"`
	RawSummary  string   `json:"raw_summary,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// HasRTT reports whether the min/avg/max quartet was parsed. Mdev may still
// be nil on probe tools that omit it.
func (r *ProbeResult) HasRTT() bool {
	return r.RTTMin != nil && r.RTTAvg != nil && r.RTTMax != nil
}
