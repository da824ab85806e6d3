package main

import (
	"fmt"
	"io"

	"deprecdoc/internal/diagfilter"
	"deprecdoc/internal/engine"
)

// diagnosticStream decides which parser messages reach the user: the
// allow-list filter first, then the --max-diagnostics cap.
type diagnosticStream struct {
	out    io.Writer
	filter *diagfilter.Filter
	max    int
	shown  int
	capped int
}

func newDiagnosticStream(out io.Writer, cfg engine.Config, opts extractOptions) *diagnosticStream {
	if opts.quiet {
		out = nil
	}
	return &diagnosticStream{
		out:    out,
		filter: diagfilter.New(cfg.Ignore.Roles, cfg.Ignore.Directives),
		max:    opts.maxDiagnostics,
	}
}

// keep is called under the stream reporter's lock.
func (s *diagnosticStream) keep(msg string) bool {
	if !s.filter.Keep(msg) {
		return false
	}
	if s.max > 0 && s.shown >= s.max {
		s.capped++
		return false
	}
	s.shown++
	return true
}

func (s *diagnosticStream) summary(w io.Writer) {
	if s.capped > 0 {
		fmt.Fprintf(w, "... %d more diagnostics not shown (--max-diagnostics=%d)\n", s.capped, s.max)
	}
}
