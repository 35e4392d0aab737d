package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.Match(StatusOK, 20, 2*time.Second)
	r.Match(StatusOK, 18, time.Second)
	r.Match(StatusFailed, 0, 0)
	r.Match(StatusSkipped, 0, 0)

	if got := testutil.ToFloat64(r.matches.WithLabelValues(StatusOK)); got != 2 {
		t.Fatalf("ok matches = %v", got)
	}
	if got := testutil.ToFloat64(r.intervals); got != 38 {
		t.Fatalf("intervals = %v", got)
	}
	if got := testutil.ToFloat64(r.matches.WithLabelValues(StatusFailed)); got != 1 {
		t.Fatalf("failed matches = %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.Match(StatusOK, 3, time.Second)
	r.Finish(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "matchfeatures.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{`matchfeatures_matches_total{status="ok"} 1`, "matchfeatures_intervals_total 3", "matchfeatures_last_run_timestamp_seconds 1.7e+09"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Match(StatusOK, 1, time.Second)
	if err := r.WriteTextfile("ignored"); err != nil {
		t.Fatalf("nil recorder should be a no-op: %v", err)
	}
}
