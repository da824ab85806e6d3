package rst

import (
	"context"
	"fmt"
	"strconv"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/directive"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/source"
)

// DirectiveFunc runs a directive and returns the nodes to insert at the
// directive's position. A *DirectiveError is rendered as a system message;
// any other error aborts the parse.
type DirectiveFunc func(d *Directive) ([]*doctree.Node, error)

// Registry holds directive handlers by name.
type Registry = directive.Registry[DirectiveFunc]

// NewRegistry creates an empty directive registry.
func NewRegistry() *Registry {
	return directive.NewRegistry[DirectiveFunc]()
}

type Options struct {
	Directives *Registry
	Roles      *RoleSet
	Reporter   diag.Reporter
	Files      *source.FileSet
	HaltLevel  diag.Severity // messages at or above abort the parse; zero means SEVERE
	TabWidth   int
}

// HaltError is returned when a system message reaches the halt level.
type HaltError struct {
	Diagnostic diag.Diagnostic
	Text       string
}

func (e *HaltError) Error() string {
	return e.Text
}

// Parse parses one document into a doctree rooted at a "document" node.
func Parse(ctx context.Context, file *source.File, env *Env, opts Options) (*doctree.Node, error) {
	if file == nil {
		return nil, fmt.Errorf("rst: nil file")
	}
	if opts.Directives == nil {
		opts.Directives = NewRegistry()
	}
	if opts.Roles == nil {
		opts.Roles = NewRoleSet()
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	if opts.TabWidth <= 0 {
		opts.TabWidth = 8
	}
	if opts.HaltLevel == 0 {
		opts.HaltLevel = diag.SevSevere
	}
	if env == nil {
		env = NewEnv("", "")
	}

	doc := doctree.New("document").Set("source", file.Path)
	p := &docParser{
		ctx:  ctx,
		opts: opts,
		env:  env,
		doc:  doc,
		file: file,
	}
	st := &State{p: p, parent: doc, titles: newTitleContext(doc)}
	if err := st.run(file.SourceLines(opts.TabWidth)); err != nil {
		return doc, err
	}
	return doc, nil
}

type docParser struct {
	ctx      context.Context
	opts     Options
	env      *Env
	doc      *doctree.Node
	file     *source.File
	includes []string
}

func (p *docParser) pathOf(id source.FileID) string {
	if p.opts.Files != nil {
		if f := p.opts.Files.Get(id); f != nil {
			return f.Path
		}
	}
	if p.file != nil && p.file.ID == id {
		return p.file.Path
	}
	return "<string>"
}

func (p *docParser) spanOf(at source.Line) source.Span {
	var f *source.File
	if p.opts.Files != nil {
		f = p.opts.Files.Get(at.File)
	}
	if f == nil && p.file != nil && p.file.ID == at.File {
		f = p.file
	}
	if f == nil || at.No == 0 {
		return source.Span{File: at.File}
	}
	return f.LineSpan(at.No)
}

// report emits a system message, returning the node to insert and a
// *HaltError when the message reaches the halt level.
func (p *docParser) report(sev diag.Severity, code diag.Code, at source.Line, msg, detail string) (*doctree.Node, error) {
	d := diag.New(sev, code, p.spanOf(at), at.No, msg).WithDetail(detail)
	p.opts.Reporter.Report(d)

	node := doctree.New("system_message").
		Set("level", strconv.Itoa(sev.Level())).
		Set("type", sev.String()).
		Set("source", p.pathOf(at.File))
	if at.No > 0 {
		node.Set("line", strconv.FormatUint(uint64(at.No), 10))
	}
	node.Line = at.No
	node.Append(doctree.NewTextElement("paragraph", msg))
	if detail != "" {
		node.Append(doctree.NewTextElement("literal_block", detail))
	}

	if sev >= p.opts.HaltLevel {
		return node, &HaltError{Diagnostic: d, Text: diag.FormatText(d, p.opts.Files)}
	}
	return node, nil
}

func (p *docParser) lookupDirective(name string) (directive.Entry[DirectiveFunc], bool) {
	for _, key := range p.env.candidates(name) {
		if e, ok := p.opts.Directives.Lookup(key); ok {
			return e, true
		}
	}
	return directive.Entry[DirectiveFunc]{}, false
}

func (p *docParser) knownRole(name string) bool {
	if p.env.hasLocalRole(name) {
		return true
	}
	for _, key := range p.env.candidates(name) {
		if p.opts.Roles.Has(key) {
			return true
		}
	}
	return false
}
