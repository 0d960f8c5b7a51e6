package probe

import (
	"fmt"
	"strings"
	"testing"
)

const fullOutput = `PING 1.1.1.1 (1.1.1.1) 56(84) bytes of data.
64 bytes from 1.1.1.1: icmp_seq=1 ttl=57 time=1.20 ms
64 bytes from 1.1.1.1: icmp_seq=2 ttl=57 time=2.50 ms
64 bytes from 1.1.1.1: icmp_seq=3 ttl=57 time=4.10 ms

--- 1.1.1.1 ping statistics ---
3 packets transmitted, 3 received, 0% packet loss, time 402ms
rtt min/avg/max/mdev = 1.200/2.500/4.100/0.900 ms
`

func TestParseFullOutput(t *testing.T) {
	r := Parse(fullOutput, "", "1.1.1.1", 3, 0.2)
	if r.Transmitted != 3 || r.Received != 3 {
		t.Fatalf("transmitted=%d received=%d", r.Transmitted, r.Received)
	}
	if r.LossPct != 0 {
		t.Fatalf("loss=%v", r.LossPct)
	}
	if !r.HasRTT() {
		t.Fatalf("rtt not parsed")
	}
	if *r.RTTMin != 1.2 || *r.RTTAvg != 2.5 || *r.RTTMax != 4.1 || *r.RTTMdev != 0.9 {
		t.Fatalf("rtt = %v/%v/%v/%v", *r.RTTMin, *r.RTTAvg, *r.RTTMax, *r.RTTMdev)
	}
	if !strings.HasPrefix(r.RawSummary, "rtt min/avg/max/mdev") {
		t.Fatalf("raw summary = %q", r.RawSummary)
	}
	if r.Error != "" {
		t.Fatalf("unexpected error %q", r.Error)
	}
}

func TestParseNoRTTFallsBackToLastLine(t *testing.T) {
	out := "5 packets transmitted, 2 received, 60% packet loss, time 4100ms\n\n"
	r := Parse(out, "", "host", 5, 1)
	if r.Transmitted != 5 || r.Received != 2 {
		t.Fatalf("transmitted=%d received=%d", r.Transmitted, r.Received)
	}
	if r.LossPct != 60 {
		t.Fatalf("loss=%v", r.LossPct)
	}
	if r.HasRTT() {
		t.Fatalf("rtt should be absent")
	}
	want := "5 packets transmitted, 2 received, 60% packet loss, time 4100ms"
	if r.RawSummary != want {
		t.Fatalf("raw summary = %q, want %q", r.RawSummary, want)
	}
}

func TestParseComputesLossWithoutToken(t *testing.T) {
	out := "4 packets transmitted, 1 received\n"
	r := Parse(out, "", "host", 4, 1)
	if r.LossPct != 75 {
		t.Fatalf("loss=%v, want 75", r.LossPct)
	}
}

func TestParseEmptyOutputDefaults(t *testing.T) {
	r := Parse("", "", "host", 7, 0.5)
	if r.Transmitted != 7 || r.Received != 0 {
		t.Fatalf("transmitted=%d received=%d", r.Transmitted, r.Received)
	}
	if r.LossPct != 100 {
		t.Fatalf("loss=%v", r.LossPct)
	}
	if r.RawSummary != "" {
		t.Fatalf("raw summary = %q", r.RawSummary)
	}
}

func TestParseAttachesStderr(t *testing.T) {
	r := Parse(fullOutput, "ping: some warning\n", "1.1.1.1", 3, 0.2)
	if r.Error != "ping: some warning" {
		t.Fatalf("error = %q", r.Error)
	}
}

func TestParseLossInvariant(t *testing.T) {
	// When no explicit loss token is present, loss must equal
	// 100*(1-received/transmitted).
	for _, tc := range []struct{ tx, rx int }{{10, 10}, {10, 7}, {3, 0}, {1, 1}} {
		out := fmt.Sprintf("%d packets transmitted, %d received\n", tc.tx, tc.rx)
		r := Parse(out, "", "h", tc.tx, 1)
		want := 100 * (1 - float64(tc.rx)/float64(tc.tx))
		if r.LossPct != want {
			t.Fatalf("tx=%d rx=%d loss=%v want %v", tc.tx, tc.rx, r.LossPct, want)
		}
	}
}
