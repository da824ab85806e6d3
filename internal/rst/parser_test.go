package rst

import (
	"context"
	"errors"
	"strings"
	"testing"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/directive"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/source"
)

type probeHit struct {
	args        []string
	parent      string
	grandparent string
	line        uint32
}

type fixture struct {
	reg  *Registry
	hits []probeHit
}

func newFixture() *fixture {
	f := &fixture{reg: NewRegistry()}
	f.reg.Register("probe", directive.Spec{OptionalArgs: 1, FinalArgWhitespace: true, HasContent: true},
		func(d *Directive) ([]*doctree.Node, error) {
			p := d.State.Parent()
			h := probeHit{args: d.Args, parent: p.Tag, line: d.Line.No}
			if p.Parent != nil {
				h.grandparent = p.Parent.Tag
			}
			f.hits = append(f.hits, h)
			return nil, nil
		})
	f.reg.Register("needarg", directive.Spec{RequiredArgs: 1}, func(d *Directive) ([]*doctree.Node, error) {
		return nil, nil
	})
	f.reg.Register("note", directive.Spec{HasContent: true}, func(d *Directive) ([]*doctree.Node, error) {
		n := doctree.New("note")
		if err := d.State.NestedParse(d.Content, n); err != nil {
			return nil, err
		}
		return []*doctree.Node{n}, nil
	})
	return f
}

func (f *fixture) parse(t *testing.T, src string) (*doctree.Node, *diag.Bag, error) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.rst", []byte(src))
	bag := diag.NewBag(0)
	doc, err := Parse(context.Background(), fs.Get(id), NewEnv("", "test"), Options{
		Directives: f.reg,
		Roles:      NewRoleSet("emphasis", "py:func", "py:mod"),
		Reporter:   diag.BagReporter{Bag: bag},
		Files:      fs,
	})
	return doc, bag, err
}

func messages(bag *diag.Bag) []string {
	var out []string
	for _, d := range bag.Items() {
		out = append(out, d.Severity.String()+" "+d.Message)
	}
	return out
}

func TestSectionsNest(t *testing.T) {
	f := newFixture()
	doc, bag, err := f.parse(t, "Title\n=====\n\nText.\n\nSub\n---\n\n.. probe::\n\nTwo\n=====\n\nEnd.\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", messages(bag))
	}
	var top []*doctree.Node
	for _, c := range doc.Children {
		if c.Tag == "section" {
			top = append(top, c)
		}
	}
	if len(top) != 2 {
		t.Fatalf("top-level sections = %d, want 2\n%s", len(top), doc.Pformat("  "))
	}
	if top[0].Get("names") != "title" || top[1].Get("names") != "two" {
		t.Errorf("section names = %q, %q", top[0].Get("names"), top[1].Get("names"))
	}
	sub := top[0].FirstChild("section")
	if sub == nil || sub.Get("names") != "sub" {
		t.Fatalf("missing subsection")
	}
	if len(f.hits) != 1 || f.hits[0].parent != "section" || f.hits[0].grandparent != "section" {
		t.Errorf("probe hits = %+v", f.hits)
	}
}

func TestOverlinedTitle(t *testing.T) {
	f := newFixture()
	doc, _, err := f.parse(t, "=====\n Top\n=====\n\nBody\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sec := doc.FirstChild("section")
	if sec == nil || sec.FirstChild("title").AsText() != "Top" {
		t.Fatalf("overlined title not parsed:\n%s", doc.Pformat("  "))
	}
}

func TestTitleLevelInconsistentHalts(t *testing.T) {
	f := newFixture()
	_, bag, err := f.parse(t, "A\n===\n\nB\n---\n\nC\n===\n\nD\n~~~\n")
	var he *HaltError
	if !errors.As(err, &he) {
		t.Fatalf("want HaltError, got %v", err)
	}
	if he.Diagnostic.Message != "Title level inconsistent:" || he.Diagnostic.Severity != diag.SevSevere {
		t.Errorf("halt diagnostic = %+v", he.Diagnostic)
	}
	if !bag.HasAtLeast(diag.SevSevere) {
		t.Errorf("severe message not reported")
	}
}

func TestTransitionAndShortUnderline(t *testing.T) {
	f := newFixture()
	doc, bag, err := f.parse(t, "Para\n\n----------\n\nLonger title\n==\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.FirstChild("transition") == nil {
		t.Errorf("transition missing:\n%s", doc.Pformat("  "))
	}
	if len(doc.FindAll("section")) != 0 {
		t.Errorf("short underline must not open a section")
	}
	if bag.HasWarnings() {
		t.Errorf("unexpected warnings: %v", messages(bag))
	}
}

func TestDirectiveContainers(t *testing.T) {
	cases := []struct {
		name   string
		src    string
		parent string
		grand  string
	}{
		{"document", ".. probe::\n", "document", ""},
		{"bullet", "- item\n\n  .. probe:: 3.1\n", "list_item", "bullet_list"},
		{"enumerated", "1. one\n2. two\n\n   .. probe::\n", "list_item", "enumerated_list"},
		{"block quote", "Text.\n\n   .. probe::\n", "block_quote", "document"},
		{"definition", "term\n   .. probe::\n", "definition", "definition_list_item"},
		{"field", ":Field: value\n\n   .. probe::\n", "field_body", "field"},
		{"note", ".. note::\n\n   .. probe::\n", "note", ""},
		{"footnote", ".. [1] Foot.\n\n   .. probe::\n", "footnote", "document"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			doc, bag, err := f.parse(t, tc.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(f.hits) != 1 {
				t.Fatalf("hits = %d, diags %v\n%s", len(f.hits), messages(bag), doc.Pformat("  "))
			}
			if f.hits[0].parent != tc.parent || f.hits[0].grandparent != tc.grand {
				t.Errorf("parent/grandparent = %s/%s, want %s/%s", f.hits[0].parent, f.hits[0].grandparent, tc.parent, tc.grand)
			}
		})
	}
}

func TestProbeArguments(t *testing.T) {
	f := newFixture()
	if _, _, err := f.parse(t, "Intro.\n\n.. probe:: 3.4 Use the new API.\n\n   Body.\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.hits) != 1 || len(f.hits[0].args) != 1 || f.hits[0].args[0] != "3.4 Use the new API." {
		t.Errorf("hits = %+v", f.hits)
	}
	if f.hits[0].line != 3 {
		t.Errorf("line = %d, want 3", f.hits[0].line)
	}
}

func TestUnknownDirective(t *testing.T) {
	f := newFixture()
	src := "Intro.\n\n.. doctest::\n\n   >>> :gh:`1`\n   .. probe::\n\nAfter.\n"
	doc, bag, err := f.parse(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := messages(bag)
	if len(msgs) != 1 || msgs[0] != `ERROR Unknown directive type "doctest".` {
		t.Fatalf("diagnostics = %v", msgs)
	}
	d := bag.Items()[0]
	if d.Line != 3 || !strings.HasPrefix(d.Detail, ".. doctest::") || !strings.Contains(d.Detail, ">>> :gh:`1`") {
		t.Errorf("diagnostic = %+v", d)
	}
	if len(f.hits) != 0 {
		t.Errorf("content of unknown directive was parsed")
	}
	if len(doc.FindAll("system_message")) != 1 {
		t.Errorf("system_message node missing")
	}
}

func TestDirectiveArgumentError(t *testing.T) {
	f := newFixture()
	_, bag, err := f.parse(t, ".. needarg::\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := messages(bag)
	want := "ERROR Error in \"needarg\" directive:\n1 argument(s) required, 0 supplied."
	if len(msgs) != 1 || msgs[0] != want {
		t.Errorf("diagnostics = %q", msgs)
	}
}

func TestUnknownRoles(t *testing.T) {
	f := newFixture()
	src := "See :gh:`123`, :func:`ok`, ``:issue:`x``` and :source:`Lib/x.py`.\n"
	_, bag, err := f.parse(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := messages(bag)
	want := []string{
		`ERROR Unknown interpreted text role "gh".`,
		`ERROR Unknown interpreted text role "source".`,
	}
	if strings.Join(msgs, "|") != strings.Join(want, "|") {
		t.Errorf("diagnostics = %q, want %q", msgs, want)
	}
}

func TestRoleDefinedInDocument(t *testing.T) {
	f := newFixture()
	f.reg.Register("role", directive.Spec{RequiredArgs: 1, HasContent: true}, func(d *Directive) ([]*doctree.Node, error) {
		d.Env().DefineRole(strings.SplitN(d.Args[0], "(", 2)[0])
		return nil, nil
	})
	_, bag, err := f.parse(t, ".. role:: custom(emphasis)\n\nUse :custom:`x`.\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bag.Len() != 0 {
		t.Errorf("diagnostics = %v", messages(bag))
	}
}

func TestUnexpectedIndentation(t *testing.T) {
	f := newFixture()
	doc, bag, err := f.parse(t, "Line one\nline two\n    .. probe::\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := messages(bag)
	if len(msgs) != 1 || msgs[0] != "ERROR Unexpected indentation." {
		t.Errorf("diagnostics = %v", msgs)
	}
	if bag.Items()[0].Line != 3 {
		t.Errorf("line = %d", bag.Items()[0].Line)
	}
	if len(f.hits) != 1 || f.hits[0].parent != "block_quote" {
		t.Errorf("hits = %+v\n%s", f.hits, doc.Pformat("  "))
	}
}

func TestLiteralBlockNotParsed(t *testing.T) {
	f := newFixture()
	doc, bag, err := f.parse(t, "Example::\n\n   .. probe::\n   :gh:`1`\n\nDone.\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.hits) != 0 || bag.Len() != 0 {
		t.Errorf("literal content parsed: hits %+v diags %v", f.hits, messages(bag))
	}
	lit := doc.FirstChild("literal_block")
	if lit == nil || !strings.HasPrefix(lit.AsText(), ".. probe::") {
		t.Errorf("literal block missing:\n%s", doc.Pformat("  "))
	}
	if p := doc.FirstChild("paragraph"); p == nil || p.AsText() != "Example:" {
		t.Errorf("paragraph text wrong:\n%s", doc.Pformat("  "))
	}
}

func TestTitleInsideBlockQuoteHalts(t *testing.T) {
	f := newFixture()
	_, _, err := f.parse(t, "Para.\n\n   Title\n   =====\n")
	var he *HaltError
	if !errors.As(err, &he) || he.Diagnostic.Message != "Unexpected section title." {
		t.Fatalf("want unexpected section title halt, got %v", err)
	}
}

func TestHaltLevelAboveSevere(t *testing.T) {
	f := newFixture()
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.rst", []byte("Para.\n\n   Title\n   =====\n"))
	_, err := Parse(context.Background(), fs.Get(id), nil, Options{
		Directives: f.reg,
		Files:      fs,
		HaltLevel:  diag.SevSevere + 1,
	})
	if err != nil {
		t.Errorf("parse halted with halt level 5: %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	f := newFixture()
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.rst", []byte("Para.\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, fs.Get(id), nil, Options{Directives: f.reg, Files: fs})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBulletListEndWarning(t *testing.T) {
	f := newFixture()
	_, bag, err := f.parse(t, "- a\n- b\nnot an item\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := messages(bag)
	if len(msgs) != 1 || msgs[0] != "WARNING Bullet list ends without a blank line; unexpected unindent." {
		t.Errorf("diagnostics = %v", msgs)
	}
}

func TestInterpretedRoles(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{":func:`a`", "func"},
		{"x :mod:`a.b` y :c:macro:`M`", "mod|c:macro"},
		{"`default`", ""},
		{"`suffix`:pep:", "pep"},
		{"``:gh:`x```", ""},
		{"`link`_ and `anon`__", ""},
		{"no:role:`x`", ""},
		{"(:issue:`1`)", "issue"},
	}
	for _, tc := range cases {
		got := strings.Join(interpretedRoles(tc.in), "|")
		if got != tc.want {
			t.Errorf("interpretedRoles(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGetIndented(t *testing.T) {
	lines := []source.Line{
		{Text: "- first", No: 1},
		{Text: "  second", No: 2},
		{Text: "", No: 3},
		{Text: "    deeper", No: 4},
		{Text: "next", No: 5},
	}
	block, end, blankFinish := firstKnownIndented(lines, 0, 2, true)
	if end != 4 || blankFinish {
		t.Errorf("end=%d blankFinish=%v", end, blankFinish)
	}
	got := make([]string, len(block))
	for i, l := range block {
		got[i] = l.Text
	}
	if strings.Join(got, "|") != "first|second||  deeper" {
		t.Errorf("block = %q", got)
	}
}
