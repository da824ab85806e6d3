package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"deprecdoc/internal/engine"
	"deprecdoc/internal/ui"
	"deprecdoc/internal/walker"
)

type extractOutcome struct {
	stats walker.Stats
	err   error
}

// runExtractWithUI runs the walker while a progress model renders its
// events on stderr.
func runExtractWithUI(ctx context.Context, eng *engine.Engine, opts walker.Options, emit walker.EmitFunc) (walker.Stats, error) {
	events := make(chan walker.Event, 256)
	opts.Events = events
	w, err := walker.New(eng, opts)
	if err != nil {
		return walker.Stats{}, err
	}
	files, err := w.Discover()
	if err != nil {
		return walker.Stats{}, err
	}
	rel := make([]string, len(files))
	for i, f := range files {
		rel[i] = w.Rel(f)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	outcomeCh := make(chan extractOutcome, 1)
	go func() {
		stats, err := w.Process(ctx, files, emit)
		outcomeCh <- extractOutcome{stats: stats, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("extracting "+eng.SrcDir(), rel, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// An early quit (ctrl+c) stops the walker and drains its events.
	cancel()
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.stats, uiErr
	}
	return outcome.stats, outcome.err
}
