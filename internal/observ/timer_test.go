package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	discover := tm.Begin("discover")
	tm.End(discover, "3 files")
	extract := tm.Begin("extract")
	tm.End(extract, "")
	tm.End(42, "ignored")

	report := tm.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(report.Phases))
	}
	if report.Phases[0].Name != "discover" || report.Phases[0].Note != "3 files" {
		t.Errorf("first phase = %+v", report.Phases[0])
	}
	if report.TotalMS < report.Phases[0].DurationMS {
		t.Errorf("total %.3f below phase %.3f", report.TotalMS, report.Phases[0].DurationMS)
	}

	summary := tm.Summary()
	for _, want := range []string{"timings:", "discover", "// 3 files", "total"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "note")
	if got := tm.Report(); len(got.Phases) != 0 {
		t.Errorf("nil timer report = %+v", got)
	}
}
