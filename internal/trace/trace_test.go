package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeRun, false},
		{LevelError, ScopeRun, false},
		{LevelPhase, ScopePhase, true},
		{LevelPhase, ScopeFile, false},
		{LevelDetail, ScopeFile, true},
		{LevelDetail, ScopeDirective, false},
		{LevelDebug, ScopeDirective, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel accepted an unknown level")
	}
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Errorf("ParseLevel(DETAIL) = %v, %v", l, err)
	}
}

func TestRingTracerWraps(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(ring, ScopeFile, name, "", 0)
	}
	events := ring.Snapshot()
	var names []string
	for _, ev := range events {
		names = append(names, ev.Name)
	}
	if strings.Join(names, ",") != "c,d,e" {
		t.Fatalf("snapshot = %v, want c,d,e", names)
	}

	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 3 {
		t.Errorf("dump has %d lines:\n%s", lines, buf.String())
	}
}

func TestChildSpansNestThroughContext(t *testing.T) {
	ring := NewRingTracer(16, LevelDetail)
	ctx := WithTracer(context.Background(), ring)

	ctx, run := Child(ctx, ScopePhase, "extract")
	fileCtx, file := Child(ctx, ScopeFile, "library/os.rst")
	_, hidden := Child(fileCtx, ScopeDirective, "deprecated")
	hidden.End("")
	file.WithExtra("records", "2").End("")
	run.End("done")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4 (directive scope filtered)", len(events))
	}
	if events[1].ParentID != run.ID() {
		t.Errorf("file span parent = %d, want %d", events[1].ParentID, run.ID())
	}
	if events[2].Kind != KindSpanEnd || events[2].Extra["records"] != "2" {
		t.Errorf("file end event = %+v", events[2])
	}
	if hidden.ID() != 0 {
		t.Errorf("filtered span got an id")
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	span := Begin(tr, ScopeRun, "deprecdoc", 0)
	Point(tr, ScopeFile, "skipped", "", span.ID())
	span.End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev["kind"] != "end" || ev["detail"] != "ok" || ev["scope"] != "run" {
		t.Errorf("end event = %v", ev)
	}
}

func TestRecorderBothModes(t *testing.T) {
	var buf bytes.Buffer
	rec, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Format: FormatText, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	Point(rec, ScopePhase, "discover", "6 files", 0)
	Point(rec, ScopeFile, "library/os.rst", "", 0)

	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("stream got %d lines:\n%s", got, buf.String())
	}
	if n := len(rec.Ring().Snapshot()); n != 1 {
		t.Errorf("ring kept %d events, want 1", n)
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	streamOnly, err := New(Config{Level: LevelPhase, Mode: ModeStream, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	if streamOnly.Ring() != nil {
		t.Error("stream mode kept a ring")
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Error("ParseMode accepted an unknown mode")
	}
	if m, err := ParseMode("BOTH"); err != nil || m != ModeBoth {
		t.Errorf("ParseMode(BOTH) = %v, %v", m, err)
	}
}

func TestRingSpanEventsFollowOneFile(t *testing.T) {
	ring := NewRingTracer(64, LevelDebug)
	ctx := WithTracer(context.Background(), ring)

	ctx, phase := Child(ctx, ScopePhase, "extract")
	goodCtx, good := Child(ctx, ScopeFile, "library/imp.rst")
	Point(FromContext(goodCtx), ScopeDirective, "library/imp:6", "record [imp]", SpanID(goodCtx))
	good.End("")

	badCtx, bad := Child(ctx, ScopeFile, "library/bad.rst")
	parseCtx, parse := Child(badCtx, ScopeFile, "parse")
	Point(FromContext(parseCtx), ScopeDirective, "library/bad:3", "unexpected note", SpanID(parseCtx))
	parse.End("")
	bad.End("Unexpected parent tag note in bad")
	phase.End("")

	var got []string
	for _, ev := range ring.SpanEvents(bad.ID()) {
		got = append(got, ev.Kind.String()+" "+ev.Name)
	}
	want := "begin library/bad.rst,begin parse,point library/bad:3,end parse,end library/bad.rst"
	if strings.Join(got, ",") != want {
		t.Errorf("span events = %v", got)
	}

	var buf bytes.Buffer
	if err := ring.DumpSpan(&buf, FormatText, bad.ID()); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "imp") || !strings.Contains(buf.String(), "unexpected note") {
		t.Errorf("dump:\n%s", buf.String())
	}
}

func TestDisabledRecorder(t *testing.T) {
	rec, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Enabled() || rec.Ring() != nil {
		t.Error("disabled recorder is active")
	}
	var nilRec *Recorder
	nilRec.Emit(&Event{Kind: KindPoint})
	if err := nilRec.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNopTracer(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != Nop {
		t.Error("empty context should carry the nop tracer")
	}
	_, span := Child(ctx, ScopeRun, "x")
	if d := span.End(""); d != 0 {
		t.Errorf("nop span duration = %v", d)
	}
}

func TestHeartbeatNamesOpenFiles(t *testing.T) {
	ring := NewRingTracer(1024, LevelDetail)
	hb := StartHeartbeat(context.Background(), ring, 5*time.Millisecond)
	if hb == nil {
		t.Fatal("heartbeat not started")
	}
	defer hb.Stop()

	phase := Begin(hb, ScopePhase, "extract", 0)
	file := Begin(hb, ScopeFile, "library/os.rst", phase.ID())
	waitForBeat(t, ring, "file: library/os.rst")

	file.End("")
	phase.End("")
	waitForBeat(t, ring, "idle")

	hb.Stop()
	hb.Stop()
}

func waitForBeat(t *testing.T, ring *RingTracer, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := ring.Snapshot()
		for i := len(events) - 1; i >= 0; i-- {
			if events[i].Kind == KindHeartbeat && strings.HasSuffix(events[i].Detail, want) {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no heartbeat with %q", want)
}

func TestHeartbeatDisabled(t *testing.T) {
	if hb := StartHeartbeat(context.Background(), Nop, time.Second); hb != nil {
		t.Error("heartbeat started on a disabled tracer")
	}
	if hb := StartHeartbeat(context.Background(), NewRingTracer(4, LevelPhase), 0); hb != nil {
		t.Error("heartbeat started without an interval")
	}
	var hb *Heartbeat
	hb.Stop()
}
