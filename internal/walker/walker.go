// Package walker drives extraction over a documentation tree: it discovers
// source files, parses each with a fresh deprecation resolver and hands the
// per-file record batches to the caller in walk order.
package walker

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"deprecdoc/internal/deprecation"
	"deprecdoc/internal/engine"
	"deprecdoc/internal/observ"
	"deprecdoc/internal/trace"
)

// MarkerName is the directive the resolver is attached to.
const MarkerName = "deprecated"

// Options configures a Walker.
type Options struct {
	Include  []string // globs relative to the root; DefaultInclude when empty
	Exclude  []string
	Jobs     int // files parsed concurrently; <= 1 means sequential
	Resolver deprecation.Options
	Events   chan<- Event  // optional progress sink, never closed by the walker
	Timer    *observ.Timer // optional phase timings
}

// Batch holds the records of one file that produced any.
type Batch struct {
	File    string // path relative to the root, slash separated
	Records []string
}

// Stats summarises a run.
type Stats struct {
	Files   int
	Batches int
	Records int
}

// EmitFunc receives batches in walk order. An error stops the run.
type EmitFunc func(Batch) error

// FileError is a failure while processing one file.
type FileError struct {
	Path   string // relative to the root
	SpanID uint64 // trace span of the file, 0 when not traced
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("error processing %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Walker extracts deprecation records from every matching file of a tree.
type Walker struct {
	eng     *engine.Engine
	root    string
	opts    Options
	include []glob.Glob
	exclude []glob.Glob
}

// New prepares a walker over the engine's source directory.
func New(eng *engine.Engine, opts Options) (*Walker, error) {
	include := opts.Include
	if len(include) == 0 {
		include = []string{DefaultInclude}
	}
	inc, err := compileGlobs(include)
	if err != nil {
		return nil, err
	}
	exc, err := compileGlobs(opts.Exclude)
	if err != nil {
		return nil, err
	}
	return &Walker{eng: eng, root: eng.SrcDir(), opts: opts, include: inc, exclude: exc}, nil
}

// Run discovers the files and processes them.
func (w *Walker) Run(ctx context.Context, emit EmitFunc) (Stats, error) {
	idx := w.opts.Timer.Begin("discover")
	files, err := w.Discover()
	w.opts.Timer.End(idx, strconv.Itoa(len(files))+" files")
	if err != nil {
		return Stats{}, err
	}
	return w.Process(ctx, files, emit)
}

// Process parses files, which must come from Discover, and emits their
// batches in order. The first failing file in that order ends the run.
func (w *Walker) Process(ctx context.Context, files []string, emit EmitFunc) (Stats, error) {
	ctx, span := trace.Child(ctx, trace.ScopePhase, "extract")
	span.WithExtra("files", strconv.Itoa(len(files)))
	idx := w.opts.Timer.Begin("extract")

	var (
		stats Stats
		err   error
	)
	if w.opts.Jobs > 1 && len(files) > 1 {
		stats, err = w.processParallel(ctx, files, emit)
	} else {
		stats, err = w.processSequential(ctx, files, emit)
	}

	note := fmt.Sprintf("%d batches, %d records", stats.Batches, stats.Records)
	w.opts.Timer.End(idx, note)
	if err != nil {
		span.End(err.Error())
	} else {
		span.End(note)
	}
	return stats, err
}

func (w *Walker) processSequential(ctx context.Context, files []string, emit EmitFunc) (Stats, error) {
	var stats Stats
	session := w.eng.NewSession(false)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		records, err := w.parseFile(ctx, session, path)
		if err := w.finish(ctx, &stats, path, records, err, emit); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

type fileResult struct {
	done    chan struct{}
	session *engine.Session
	records []string
	err     error
}

func (w *Walker) processParallel(ctx context.Context, files []string, emit EmitFunc) (Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*fileResult, len(files))
	for i := range results {
		results[i] = &fileResult{done: make(chan struct{})}
	}

	var g errgroup.Group
	g.SetLimit(w.opts.Jobs)
	go func() {
		for i, path := range files {
			r := results[i]
			if err := ctx.Err(); err != nil {
				r.err = err
				close(r.done)
				continue
			}
			g.Go(func() error {
				defer close(r.done)
				r.session = w.eng.NewSession(true)
				r.records, r.err = w.parseFile(ctx, r.session, path)
				return nil
			})
		}
	}()

	// Every done channel is closed only after its g.Go call returned, so
	// draining all of them makes g.Wait safe.
	var (
		stats    Stats
		firstErr error
	)
	for i, r := range results {
		<-r.done
		if firstErr != nil {
			continue
		}
		if r.session != nil {
			r.session.Flush()
		}
		if err := w.finish(ctx, &stats, files[i], r.records, r.err, emit); err != nil {
			firstErr = err
			cancel()
		}
	}
	_ = g.Wait()
	return stats, firstErr
}

// parseFile parses one document with a fresh resolver.
func (w *Walker) parseFile(ctx context.Context, session *engine.Session, path string) ([]string, error) {
	rel := w.Rel(path)
	w.send(ctx, Event{File: rel, Status: StatusParsing})

	ctx, span := trace.Child(ctx, trace.ScopeFile, rel)
	resolver := deprecation.NewResolver(ctx, w.opts.Resolver)
	session.HandleMarker(MarkerName, resolver.Handle)
	_, err := session.Parse(ctx, path)
	records := resolver.Records().All()
	if err != nil {
		span.End(err.Error())
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return records, err
		}
		return records, &FileError{Path: rel, SpanID: span.ID(), Err: err}
	}
	span.WithExtra("records", strconv.Itoa(len(records))).End("")
	return records, nil
}

// finish accounts for one processed file and emits its batch.
func (w *Walker) finish(ctx context.Context, stats *Stats, path string, records []string, err error, emit EmitFunc) error {
	rel := w.Rel(path)
	stats.Files++
	if err != nil {
		w.send(ctx, Event{File: rel, Status: StatusError})
		return err
	}
	w.send(ctx, Event{File: rel, Status: StatusDone, Records: len(records)})
	if len(records) == 0 {
		return nil
	}
	stats.Batches++
	stats.Records += len(records)
	return emit(Batch{File: rel, Records: records})
}
