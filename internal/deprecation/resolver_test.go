package deprecation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"deprecdoc/internal/doctree"
	"deprecdoc/internal/engine"
	"deprecdoc/internal/trace"
)

func markerIn(tag, module string) engine.Marker {
	root := doctree.New("document")
	parent := doctree.New(tag)
	root.Append(parent)
	return engine.Marker{Name: "deprecated", Args: []string{"3.0"}, Parent: parent, Module: module, Docname: "x"}
}

func markerInDesc(module, fullname string) engine.Marker {
	desc := doctree.New("desc").Set("domain", "py")
	sig := doctree.New("desc_signature")
	if module != "" {
		sig.Set("module", module)
	}
	if fullname != "" {
		sig.Set("fullname", fullname)
	}
	content := doctree.New("desc_content")
	desc.Append(sig, content)
	return engine.Marker{Name: "deprecated", Parent: content, Module: module}
}

func TestResolverPolicy(t *testing.T) {
	tests := []struct {
		name   string
		marker engine.Marker
		want   []string
	}{
		{"section records module", markerIn("section", "imp"), []string{"imp"}},
		{"no module", markerIn("section", ""), nil},
		{"no module in odd container", markerIn("table", ""), nil},
		{"email list item", markerIn("list_item", "email.errors"), []string{
			"email.errors:BoundaryError", "email.errors:MalformedHeaderDefect",
		}},
		{"unittest block quote", markerIn("block_quote", "unittest"), nil},
		{"description skipped", markerInDesc("os", "chdir"), nil},
		{"detached without module", engine.Marker{Name: "deprecated", Docname: "x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(context.Background(), Options{})
			require.NoError(t, r.Handle(tt.marker))
			require.Equal(t, tt.want, r.Records().All())
		})
	}
}

func TestResolverUnexpectedContext(t *testing.T) {
	cases := []engine.Marker{
		markerIn("list_item", "os"),
		markerIn("block_quote", "email.errors"),
		markerIn("note", "os"),
	}
	for _, m := range cases {
		r := NewResolver(context.Background(), Options{})
		err := r.Handle(m)
		var uc *UnexpectedContextError
		require.True(t, errors.As(err, &uc), "err = %v", err)
		require.Equal(t, m.Parent.Tag, uc.Tag)
		require.Equal(t, m.Module, uc.Module)
		require.Equal(t, "Unexpected parent tag "+m.Parent.Tag+" in "+m.Module, err.Error())
		require.Zero(t, r.Records().Len())
	}
}

func TestResolverDetachedMarkerWithModule(t *testing.T) {
	r := NewResolver(context.Background(), Options{})
	err := r.Handle(engine.Marker{Name: "deprecated", Module: "os", Docname: "x"})
	var uc *UnexpectedContextError
	require.True(t, errors.As(err, &uc), "err = %v", err)
	require.Empty(t, uc.Tag)
	require.Equal(t, "os", uc.Module)
	require.Zero(t, r.Records().Len())
}

func TestResolverEntities(t *testing.T) {
	opts := Options{ResolveEntities: true}

	r := NewResolver(context.Background(), opts)
	require.NoError(t, r.Handle(markerInDesc("os", "chdir")))
	require.NoError(t, r.Handle(markerInDesc("", "orphan")))
	require.NoError(t, r.Handle(markerInDesc("os", "")))
	require.Equal(t, []string{"os:chdir"}, r.Records().All())
}

func TestRecordsKeepDuplicatesInOrder(t *testing.T) {
	r := NewResolver(context.Background(), Options{})
	require.NoError(t, r.Handle(markerIn("section", "b")))
	require.NoError(t, r.Handle(markerIn("section", "a")))
	require.NoError(t, r.Handle(markerIn("section", "b")))
	all := r.Records().All()
	require.Equal(t, []string{"b", "a", "b"}, all)

	all[0] = "mutated"
	require.Equal(t, "b", r.Records().All()[0])
}

func TestResolverTracesDecisions(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	r := NewResolver(ctx, Options{})

	require.NoError(t, r.Handle(markerIn("section", "imp")))
	require.NoError(t, r.Handle(markerIn("section", "")))

	events := ring.Snapshot()
	require.Len(t, events, 2)
	require.Equal(t, trace.KindPoint, events[0].Kind)
	require.Equal(t, "record [imp]", events[0].Detail)
	require.Equal(t, "skip: no current module", events[1].Detail)
}

func TestResolverOnParsedDocuments(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"library/imp.rst": "imp\n===\n\n.. module:: imp\n\n.. deprecated:: 3.4\n   Use importlib.\n\nSub\n---\n\n.. deprecated:: 3.5\n",
		"library/email.errors.rst": strings.Join([]string{
			"Errors",
			"======",
			"",
			".. module:: email.errors",
			"",
			"* :class:`BoundaryError`",
			"",
			"  .. deprecated:: 3.2",
			"",
		}, "\n"),
		"library/unittest.rst": ".. module:: unittest\n\nText.\n\n   .. deprecated:: 3.1\n",
		"library/os.rst":       ".. module:: os\n\n.. function:: chdir(path)\n\n   .. deprecated:: 3.1\n",
		"library/bad.rst":      ".. module:: bad\n\n* item\n\n  .. deprecated:: 1.0\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	eng, err := engine.Open(root, engine.Options{ScratchParent: t.TempDir()})
	require.NoError(t, err)
	defer eng.Close()

	run := func(name string, opts Options) ([]string, error) {
		r := NewResolver(context.Background(), opts)
		eng.HandleMarker("deprecated", r.Handle)
		_, err := eng.Parse(context.Background(), filepath.Join(root, filepath.FromSlash(name)))
		return r.Records().All(), err
	}

	got, err := run("library/imp.rst", Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"imp", "imp"}, got)

	got, err = run("library/email.errors.rst", Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"email.errors:BoundaryError", "email.errors:MalformedHeaderDefect"}, got)

	got, err = run("library/unittest.rst", Options{})
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = run("library/os.rst", Options{})
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = run("library/os.rst", Options{ResolveEntities: true})
	require.NoError(t, err)
	require.Equal(t, []string{"os:chdir"}, got)

	_, err = run("library/bad.rst", Options{})
	var uc *UnexpectedContextError
	require.ErrorAs(t, err, &uc)
	require.Equal(t, "list_item", uc.Tag)
}
