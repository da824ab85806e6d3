package deprecation

import (
	"context"
	"fmt"

	"deprecdoc/internal/doctree"
	"deprecdoc/internal/engine"
	"deprecdoc/internal/trace"
)

// Options tunes the resolver.
type Options struct {
	// ResolveEntities records markers inside object descriptions as
	// module:fullname instead of skipping them.
	ResolveEntities bool
}

// listItemEntities names the entities deprecated by a marker that sits in a
// list item of the given module's page.
var listItemEntities = map[string][]string{
	"email.errors": {"email.errors:BoundaryError", "email.errors:MalformedHeaderDefect"},
}

// silentBlockQuotes lists modules whose block-quoted markers record nothing.
var silentBlockQuotes = map[string]bool{
	"unittest": true,
}

// Resolver decides what each deprecated marker of one document deprecates.
// It is not safe for concurrent use; walkers create one per file.
type Resolver struct {
	opts    Options
	records Records
	tracer  trace.Tracer
	span    uint64
}

// NewResolver creates a resolver with an empty record list. Decisions are
// traced through the tracer carried by ctx.
func NewResolver(ctx context.Context, opts Options) *Resolver {
	return &Resolver{
		opts:   opts,
		tracer: trace.FromContext(ctx),
		span:   trace.SpanID(ctx),
	}
}

// Records returns the accumulated records.
func (r *Resolver) Records() *Records {
	return &r.records
}

// Handle is an engine.MarkerHandler. It never contributes document nodes.
func (r *Resolver) Handle(m engine.Marker) error {
	parent := m.Parent
	if parent != nil {
		if desc := parent.Parent; desc != nil && desc.Tag == "desc" {
			return r.entity(m, desc)
		}
	}
	if m.Module == "" {
		r.point(m, "skip: no current module")
		return nil
	}
	if parent == nil {
		return &UnexpectedContextError{Module: m.Module}
	}

	switch parent.Tag {
	case "section":
		r.add(m, m.Module)
		return nil
	case "list_item":
		if entities, ok := listItemEntities[m.Module]; ok {
			r.add(m, entities...)
			return nil
		}
	case "block_quote":
		if silentBlockQuotes[m.Module] {
			r.point(m, "skip: block quote in "+m.Module)
			return nil
		}
	}
	r.point(m, "unexpected "+parent.Tag)
	return &UnexpectedContextError{Tag: parent.Tag, Module: m.Module}
}

// entity handles markers inside an object description. Only a signature
// that resolved both module and fullname yields a record.
func (r *Resolver) entity(m engine.Marker, desc *doctree.Node) error {
	if !r.opts.ResolveEntities {
		r.point(m, "skip: object description")
		return nil
	}
	sig := desc.FirstChild("desc_signature")
	if sig == nil {
		r.point(m, "skip: description without signature")
		return nil
	}
	module, fullname := sig.Get("module"), sig.Get("fullname")
	if module == "" || fullname == "" {
		r.point(m, "skip: unresolved signature")
		return nil
	}
	r.add(m, module+":"+fullname)
	return nil
}

func (r *Resolver) add(m engine.Marker, records ...string) {
	r.records.Append(records...)
	r.point(m, fmt.Sprintf("record %v", records))
}

func (r *Resolver) point(m engine.Marker, detail string) {
	trace.Point(r.tracer, trace.ScopeDirective, fmt.Sprintf("%s:%d", m.Docname, m.Line.No), detail, r.span)
}
