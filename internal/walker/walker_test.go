package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"deprecdoc/internal/deprecation"
	"deprecdoc/internal/diag"
	"deprecdoc/internal/engine"
	"deprecdoc/internal/observ"
)

var corpus = map[string]string{
	"index.rst":                "Docs\n====\n\nNothing deprecated.\n",
	"library/asynchat.rst":     "asynchat\n========\n\n.. module:: asynchat\n\n.. deprecated:: 3.6\n",
	"library/email.errors.rst": "Errors\n======\n\n.. module:: email.errors\n\n* x\n\n  .. deprecated:: 3.2\n",
	"library/imp.rst":          "imp\n===\n\n.. module:: imp\n\n.. deprecated:: 3.4\n\nMore\n----\n\n.. deprecated:: 3.10\n",
	"library/os.rst":           ".. module:: os\n\n.. function:: chdir(path)\n\n   .. deprecated:: 3.1\n",
	"library/notes.txt":        ".. module:: txt\n\n.. deprecated:: 1.0\n",
	"build/html/old.rst":       "Old\n===\n\n.. module:: old\n\n.. deprecated:: 1.0\n",
	".git/x.rst":               "X\n=\n\n.. module:: git\n\n.. deprecated:: 1.0\n",
	"whatsnew/3.12.rst":        "What's New\n==========\n\n.. module:: whatsnew\n\n.. deprecated:: 3.12\n",
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func run(t *testing.T, root string, opts Options) ([]Batch, Stats, error) {
	t.Helper()
	eng, err := engine.Open(root, engine.Options{ScratchParent: t.TempDir(), Reporter: diag.NopReporter{}})
	require.NoError(t, err)
	defer eng.Close()

	w, err := New(eng, opts)
	require.NoError(t, err)
	var batches []Batch
	stats, err := w.Run(context.Background(), func(b Batch) error {
		batches = append(batches, b)
		return nil
	})
	return batches, stats, err
}

func TestRunEmitsBatchesInWalkOrder(t *testing.T) {
	root := writeCorpus(t, corpus)
	batches, stats, err := run(t, root, Options{})
	require.NoError(t, err)
	require.Equal(t, []Batch{
		{File: "library/asynchat.rst", Records: []string{"asynchat"}},
		{File: "library/email.errors.rst", Records: []string{"email.errors:BoundaryError", "email.errors:MalformedHeaderDefect"}},
		{File: "library/imp.rst", Records: []string{"imp", "imp"}},
		{File: "whatsnew/3.12.rst", Records: []string{"whatsnew"}},
	}, batches)
	require.Equal(t, Stats{Files: 6, Batches: 4, Records: 6}, stats)
}

func TestRunIsIdempotent(t *testing.T) {
	root := writeCorpus(t, corpus)
	first, _, err := run(t, root, Options{})
	require.NoError(t, err)
	second, _, err := run(t, root, Options{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestParallelMatchesSequential(t *testing.T) {
	root := writeCorpus(t, corpus)
	seq, seqStats, err := run(t, root, Options{})
	require.NoError(t, err)
	par, parStats, err := run(t, root, Options{Jobs: 4})
	require.NoError(t, err)
	require.Equal(t, seq, par)
	require.Equal(t, seqStats, parStats)
}

func TestIncludeExcludeAndEntities(t *testing.T) {
	root := writeCorpus(t, corpus)
	batches, _, err := run(t, root, Options{
		Include:  []string{"library/**.rst"},
		Exclude:  []string{"**/imp.rst"},
		Resolver: deprecation.Options{ResolveEntities: true},
	})
	require.NoError(t, err)
	var files []string
	for _, b := range batches {
		files = append(files, b.File)
	}
	require.Equal(t, []string{"library/asynchat.rst", "library/email.errors.rst", "library/os.rst"}, files)
	require.Equal(t, []string{"os:chdir"}, batches[2].Records)
}

func TestInvalidGlob(t *testing.T) {
	root := writeCorpus(t, nil)
	eng, err := engine.Open(root, engine.Options{ScratchParent: t.TempDir()})
	require.NoError(t, err)
	defer eng.Close()
	_, err = New(eng, Options{Include: []string{"[unclosed"}})
	require.Error(t, err)
}

func TestFailureNamesRelativePath(t *testing.T) {
	files := map[string]string{
		"a.rst":        "A\n=\n\n.. module:: a\n\n.. deprecated:: 1.0\n",
		"lib/bad.rst":  ".. module:: bad\n\n.. note::\n\n   .. deprecated:: 1.0\n",
		"lib/halt.rst": ".. include:: missing.txt\n",
		"z.rst":        "Z\n=\n\n.. module:: z\n\n.. deprecated:: 1.0\n",
	}
	for _, jobs := range []int{1, 3} {
		root := writeCorpus(t, files)
		batches, _, err := run(t, root, Options{Jobs: jobs})

		var fe *FileError
		require.ErrorAs(t, err, &fe, "jobs=%d", jobs)
		require.Equal(t, "lib/bad.rst", fe.Path)
		require.Equal(t, "error processing lib/bad.rst: Unexpected parent tag note in bad", err.Error())

		var uc *deprecation.UnexpectedContextError
		require.True(t, errors.As(err, &uc))
		require.Equal(t, []Batch{{File: "a.rst", Records: []string{"a"}}}, batches)
	}
}

func TestHaltIsFileError(t *testing.T) {
	root := writeCorpus(t, map[string]string{"sub/x.rst": ".. include:: missing.txt\n"})
	_, _, err := run(t, root, Options{})
	var fe *FileError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "sub/x.rst", fe.Path)
	var he *engine.HaltError
	require.ErrorAs(t, err, &he)
}

func TestEmitErrorStopsRun(t *testing.T) {
	root := writeCorpus(t, corpus)
	eng, err := engine.Open(root, engine.Options{ScratchParent: t.TempDir()})
	require.NoError(t, err)
	defer eng.Close()
	w, err := New(eng, Options{})
	require.NoError(t, err)

	stop := errors.New("stop")
	calls := 0
	_, err = w.Run(context.Background(), func(Batch) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, calls)
}

func TestCancelledContext(t *testing.T) {
	root := writeCorpus(t, corpus)
	eng, err := engine.Open(root, engine.Options{ScratchParent: t.TempDir()})
	require.NoError(t, err)
	defer eng.Close()
	w, err := New(eng, Options{Jobs: 2})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Run(ctx, func(Batch) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestEventsAndTimings(t *testing.T) {
	root := writeCorpus(t, corpus)
	eng, err := engine.Open(root, engine.Options{ScratchParent: t.TempDir()})
	require.NoError(t, err)
	defer eng.Close()

	events := make(chan Event, 64)
	timer := observ.NewTimer()
	w, err := New(eng, Options{Events: events, Timer: timer})
	require.NoError(t, err)
	_, err = w.Run(context.Background(), func(Batch) error { return nil })
	require.NoError(t, err)
	close(events)

	done := map[string]int{}
	parsing := 0
	for ev := range events {
		switch ev.Status {
		case StatusParsing:
			parsing++
		case StatusDone:
			done[ev.File] = ev.Records
		}
	}
	require.Equal(t, 6, parsing)
	require.Equal(t, 2, done["library/imp.rst"])
	require.Equal(t, 0, done["index.rst"])

	report := timer.Report()
	require.Len(t, report.Phases, 2)
	require.Equal(t, "discover", report.Phases[0].Name)
	require.Equal(t, "6 files", report.Phases[0].Note)
	require.Equal(t, "extract", report.Phases[1].Name)
}
