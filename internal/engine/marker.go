package engine

import (
	"deprecdoc/internal/directive"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/rst"
	"deprecdoc/internal/source"
)

// Marker is one occurrence of a hooked directive, e.g.
//
//	.. deprecated:: 3.12 Use foo instead.
//
// Parent is the node the directive's output would be appended to; its own
// Parent is reachable. Module is the ambient py:module, empty when unset.
type Marker struct {
	Name    string
	Args    []string
	Content []source.Line
	Line    source.Line
	Parent  *doctree.Node
	Module  string
	Docname string
}

// Version returns the first argument.
func (m Marker) Version() string {
	if len(m.Args) == 0 {
		return ""
	}
	return m.Args[0]
}

// Message returns the optional second argument.
func (m Marker) Message() string {
	if len(m.Args) < 2 {
		return ""
	}
	return m.Args[1]
}

// MarkerHandler receives markers. A non-nil error aborts the parse of the
// current document.
type MarkerHandler func(m Marker) error

// markerSpec is the versionchanged family signature: a version, an optional
// message that may contain spaces, and optional content.
var markerSpec = directive.Spec{
	RequiredArgs:       1,
	OptionalArgs:       1,
	FinalArgWhitespace: true,
	HasContent:         true,
}

func markerDirective(h MarkerHandler) rst.DirectiveFunc {
	return func(d *rst.Directive) ([]*doctree.Node, error) {
		env := d.Env()
		module, _ := env.Ref("py:module")
		return nil, h(Marker{
			Name:    d.Name,
			Args:    d.Args,
			Content: d.Content,
			Line:    d.Line,
			Parent:  d.State.Parent(),
			Module:  module,
			Docname: env.Docname,
		})
	}
}
