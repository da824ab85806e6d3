package engine

import (
	"strings"

	"deprecdoc/internal/directive"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/rst"
)

// RefProgram is the reference-context key set by the program directive.
const RefProgram = "std:program"

var (
	genericObjectOptions = directive.OptionSpec{
		"no-index":          directive.Flag,
		"noindex":           directive.Flag,
		"no-index-entry":    directive.Flag,
		"noindexentry":      directive.Flag,
		"no-contents-entry": directive.Flag,
		"nocontentsentry":   directive.Flag,
	}
	cObjectOptions = directive.Merge(genericObjectOptions, directive.OptionSpec{
		"single-line-parameter-list": directive.Flag,
	})
	rstDirectiveOptionOptions = directive.Merge(genericObjectOptions, directive.OptionSpec{
		"type": directive.Unchanged,
	})
)

var cObjectTypes = []string{
	"function", "macro", "type", "member", "var",
	"struct", "union", "enum", "enumerator", "alias",
}

func (e *Engine) registerDomains(r *rst.Registry) {
	desc := objectDescription{}
	obj := func(opts directive.OptionSpec) directive.Spec {
		return directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, Options: opts, HasContent: true}
	}

	r.Register("std:program", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true}, program)
	for _, name := range []string{"std:option", "std:cmdoption", "std:envvar", "std:describe", "std:object"} {
		r.Register(name, obj(genericObjectOptions), desc.run)
	}

	for _, name := range cObjectTypes {
		r.Register("c:"+name, obj(cObjectOptions), desc.run)
	}
	noContent := directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true}
	r.Register("c:namespace", noContent, nothing)
	r.Register("c:namespace-push", noContent, nothing)
	r.Register("c:namespace-pop", directive.Spec{}, nothing)

	r.Register("rst:directive", obj(genericObjectOptions), desc.run)
	r.Register("rst:directive:option", obj(rstDirectiveOptionOptions), desc.run)
	r.Register("rst:role", obj(genericObjectOptions), desc.run)
}

// program sets the program whose options the following option directives
// describe. The argument None clears it.
func program(d *rst.Directive) ([]*doctree.Node, error) {
	name := strings.Join(strings.Fields(d.Args[0]), "-")
	if name == "None" {
		d.Env().ClearRef(RefProgram)
		return nil, nil
	}
	d.Env().SetRef(RefProgram, name)
	return nil, nil
}
