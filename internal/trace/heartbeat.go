package trace

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Heartbeat wraps a Tracer and periodically emits heartbeat events naming
// the spans still open at the finest traced scope. A beat that keeps naming
// the same document points at a file the parser is stuck on.
type Heartbeat struct {
	Tracer
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}

	mu    sync.Mutex
	open  map[uint64]openSpan
	beats uint64
}

type openSpan struct {
	scope Scope
	name  string
}

// StartHeartbeat starts beating on next until ctx is done or Stop is called.
// It returns nil when tracing is disabled or interval is not positive; use
// the returned value in place of next so span events are observed.
func StartHeartbeat(ctx context.Context, next Tracer, interval time.Duration) *Heartbeat {
	if next == nil || !next.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Heartbeat{
		Tracer:   next,
		interval: interval,
		cancel:   cancel,
		done:     make(chan struct{}),
		open:     make(map[uint64]openSpan),
	}
	go h.run(ctx)
	return h
}

// Emit records span bookkeeping and forwards the event.
func (h *Heartbeat) Emit(ev *Event) {
	if ev != nil {
		h.mu.Lock()
		switch ev.Kind {
		case KindSpanBegin:
			h.open[ev.SpanID] = openSpan{scope: ev.Scope, name: ev.Name}
		case KindSpanEnd:
			delete(h.open, ev.SpanID)
		}
		h.mu.Unlock()
	}
	h.Tracer.Emit(ev)
}

func (h *Heartbeat) run(ctx context.Context) {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.beat()
		case <-ctx.Done():
			return
		}
	}
}

func (h *Heartbeat) beat() {
	h.mu.Lock()
	h.beats++
	detail := fmt.Sprintf("#%d %s", h.beats, h.describeLocked())
	h.mu.Unlock()

	h.Tracer.Emit(&Event{
		Time:   time.Now(),
		Seq:    NextSeq(),
		Kind:   KindHeartbeat,
		Scope:  ScopeRun,
		GID:    getGoroutineID(),
		Name:   "heartbeat",
		Detail: detail,
	})
}

// describeLocked lists the open spans of the deepest scope.
func (h *Heartbeat) describeLocked() string {
	var deepest Scope
	for _, s := range h.open {
		if s.scope > deepest {
			deepest = s.scope
		}
	}
	var names []string
	for _, s := range h.open {
		if s.scope == deepest {
			names = append(names, s.name)
		}
	}
	if len(names) == 0 {
		return "idle"
	}
	sort.Strings(names)
	return deepest.String() + ": " + strings.Join(names, ", ")
}

// Stop ends the heartbeat goroutine and waits for it. Safe on nil and safe
// to call more than once.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}
