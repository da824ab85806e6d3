package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer receives trace events. Implementations must be goroutine-safe.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// StorageMode selects where a Recorder keeps events.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // write as they happen
	ModeRing                          // keep the most recent in memory
	ModeBoth
)

func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	}
	return "unknown"
}

// ParseMode parses a --trace-mode value.
func ParseMode(s string) (StorageMode, error) {
	for _, m := range []StorageMode{ModeStream, ModeRing, ModeBoth} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// Config describes the Recorder the command line builds.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format    // FormatAuto picks NDJSON for .ndjson/.jsonl paths
	Output     io.Writer // overrides OutputPath
	OutputPath string    // "-" or empty means stderr
	RingSize   int       // default 4096
}

// Recorder is the run's tracer: an optional stream written as events happen
// and an optional ring of recent events kept for failure reports. A nil
// *Recorder is a valid disabled tracer.
type Recorder struct {
	level  Level
	stream *StreamTracer
	ring   *RingTracer
}

// Nop discards everything.
var Nop Tracer = (*Recorder)(nil)

// New builds a Recorder for cfg.
func New(cfg Config) (*Recorder, error) {
	r := &Recorder{level: cfg.Level}
	if cfg.Level == LevelOff {
		return r, nil
	}
	if cfg.Mode == ModeStream || cfg.Mode == ModeBoth {
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		r.stream = NewStreamTracer(w, cfg.Level, resolveFormat(cfg))
	}
	if cfg.Mode == ModeRing || cfg.Mode == ModeBoth {
		r.ring = NewRingTracer(cfg.RingSize, cfg.Level)
	}
	if r.stream == nil && r.ring == nil {
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
	return r, nil
}

func resolveFormat(cfg Config) Format {
	if cfg.Format != FormatAuto {
		return cfg.Format
	}
	if strings.HasSuffix(cfg.OutputPath, ".ndjson") || strings.HasSuffix(cfg.OutputPath, ".jsonl") {
		return FormatNDJSON
	}
	return FormatText
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

// Ring returns the in-memory ring, nil outside ring and both modes.
func (r *Recorder) Ring() *RingTracer {
	if r == nil {
		return nil
	}
	return r.ring
}

// Emit hands each sink its own copy; sinks stamp Seq on store.
func (r *Recorder) Emit(ev *Event) {
	if r == nil || ev == nil {
		return
	}
	if r.stream != nil {
		cp := *ev
		r.stream.Emit(&cp)
	}
	if r.ring != nil {
		cp := *ev
		r.ring.Emit(&cp)
	}
}

func (r *Recorder) Flush() error {
	if r == nil || r.stream == nil {
		return nil
	}
	return r.stream.Flush()
}

func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.stream != nil {
		errs = append(errs, r.stream.Close())
	}
	if r.ring != nil {
		errs = append(errs, r.ring.Close())
	}
	return errors.Join(errs...)
}

func (r *Recorder) Level() Level {
	if r == nil {
		return LevelOff
	}
	return r.level
}

func (r *Recorder) Enabled() bool {
	return r.Level() > LevelOff
}
