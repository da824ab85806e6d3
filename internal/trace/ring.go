package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the most recent events in memory so a failed run can
// report what led up to the failure.
type RingTracer struct {
	mu     sync.Mutex
	events []Event
	stored int // events ever stored; the next slot is stored % len(events)
	level  Level
}

// NewRingTracer keeps up to capacity events (default 4096).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{events: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	stored := *ev
	stored.Seq = NextSeq()
	t.events[t.stored%len(t.events)] = stored
	t.stored++
}

// Snapshot returns the kept events oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := min(t.stored, len(t.events))
	out := make([]Event, 0, n)
	for i := t.stored - n; i < t.stored; i++ {
		out = append(out, t.events[i%len(t.events)])
	}
	return out
}

// SpanEvents returns the kept events of span id and of everything nested
// under it, oldest first. Events whose span began before the kept window
// can only be matched through their own ids.
func (t *RingTracer) SpanEvents(id uint64) []Event {
	inside := map[uint64]bool{id: true}
	var out []Event
	for _, ev := range t.Snapshot() {
		switch {
		case inside[ev.SpanID] && ev.SpanID != 0:
		case inside[ev.ParentID] && ev.ParentID != 0:
			if ev.Kind == KindSpanBegin {
				inside[ev.SpanID] = true
			}
		default:
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Dump writes every kept event.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	return writeEvents(w, t.Snapshot(), format)
}

// DumpSpan writes the events of one span subtree, see SpanEvents.
func (t *RingTracer) DumpSpan(w io.Writer, format Format, id uint64) error {
	return writeEvents(w, t.SpanEvents(id), format)
}

func writeEvents(w io.Writer, events []Event, format Format) error {
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
