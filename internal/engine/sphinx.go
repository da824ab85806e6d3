package engine

import (
	"strings"

	"deprecdoc/internal/directive"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/rst"
)

var (
	toctreeOptions = directive.OptionSpec{
		"maxdepth":      directive.NonNegativeInt,
		"name":          directive.Unchanged,
		"class":         directive.ClassOption,
		"caption":       directive.UnchangedRequired,
		"glob":          directive.Flag,
		"hidden":        directive.Flag,
		"includehidden": directive.Flag,
		"numbered":      directive.Unchanged,
		"titlesonly":    directive.Flag,
		"reversed":      directive.Flag,
	}
	literalIncludeOptions = withBasic(directive.OptionSpec{
		"dedent":          directive.Unchanged,
		"linenos":         directive.Flag,
		"lineno-start":    directive.NonNegativeInt,
		"lineno-match":    directive.Flag,
		"tab-width":       directive.NonNegativeInt,
		"language":        directive.UnchangedRequired,
		"force":           directive.Flag,
		"encoding":        directive.UnchangedRequired,
		"pyobject":        directive.UnchangedRequired,
		"lines":           directive.UnchangedRequired,
		"start-after":     directive.UnchangedRequired,
		"start-at":        directive.UnchangedRequired,
		"end-before":      directive.UnchangedRequired,
		"end-at":          directive.UnchangedRequired,
		"prepend":         directive.UnchangedRequired,
		"append":          directive.UnchangedRequired,
		"emphasize-lines": directive.UnchangedRequired,
		"caption":         directive.Unchanged,
		"diff":            directive.UnchangedRequired,
	})
)

// versionMarkers share the marker signature and render a versionmodified
// node unless a handler replaces them.
var versionMarkers = []string{"deprecated", "versionadded", "versionchanged", "versionremoved"}

func (e *Engine) registerSphinx(r *rst.Registry) {
	for _, name := range versionMarkers {
		r.Register(name, markerSpec, versionModified)
	}
	r.Register("seealso", directive.Spec{Options: basicOptions, HasContent: true}, bodyContainer("seealso", ""))
	r.Register("toctree", directive.Spec{Options: toctreeOptions, HasContent: true}, toctree)
	r.Register("index", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, Options: directive.OptionSpec{"name": directive.Unchanged}}, indexDirective)
	r.Register("only", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, HasContent: true}, only)
	r.Register("hlist", directive.Spec{Options: directive.OptionSpec{"columns": directive.NonNegativeInt, "class": directive.ClassOption}, HasContent: true}, bodyContainer("hlist", ""))
	r.Register("centered", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true}, textElement("centered"))
	r.Register("acks", directive.Spec{HasContent: true}, bodyContainer("acks", ""))
	r.Register("glossary", directive.Spec{Options: directive.OptionSpec{"sorted": directive.Flag}, HasContent: true}, bodyContainer("glossary", ""))
	r.Register("productionlist", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true}, productionList)
	for _, name := range []string{"sectionauthor", "moduleauthor", "codeauthor", "tabularcolumns"} {
		r.Register(name, directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true}, nothing)
	}
	r.Register("highlight", directive.Spec{RequiredArgs: 1, Options: directive.OptionSpec{
		"force":           directive.Flag,
		"linenothreshold": directive.NonNegativeInt,
	}}, nothing)
	r.Register("default-domain", directive.Spec{RequiredArgs: 1}, defaultDomain)
	r.Register("rst-class", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, HasContent: true}, classDirective)

	codeBlock := directive.Spec{OptionalArgs: 1, Options: codeOptions, HasContent: true}
	r.Register("code-block", codeBlock, codeBlockDirective)
	r.Register("sourcecode", codeBlock, codeBlockDirective)
	r.Register("code", codeBlock, codeBlockDirective)
	r.Register("literalinclude", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, Options: literalIncludeOptions}, e.literalInclude)
}

// versionModified parses the optional message inline and the content as body
// elements of a versionmodified node.
func versionModified(d *rst.Directive) ([]*doctree.Node, error) {
	n := newNode("versionmodified", d).Set("type", d.ObjType()).Set("version", d.Args[0])
	if len(d.Args) == 2 {
		para := doctree.NewTextElement("paragraph", d.Args[1])
		n.Append(para)
		if err := d.State.ScanInline(d.Args[1], d.Line); err != nil {
			return nil, err
		}
	}
	return []*doctree.Node{n}, d.State.NestedParse(d.Content, n)
}

func codeBlockDirective(d *rst.Directive) ([]*doctree.Node, error) {
	if err := requireContent(d); err != nil {
		return nil, err
	}
	return literal("literal_block")(d)
}

func toctree(d *rst.Directive) ([]*doctree.Node, error) {
	wrapper := doctree.New("compound").AddClass("toctree-wrapper")
	wrapper.Line = d.Line.No
	tree := newNode("toctree", d).Set("parent", d.Env().Docname)
	var entries []string
	for _, l := range d.Content {
		if entry := strings.TrimSpace(l.Text); entry != "" {
			entries = append(entries, entry)
		}
	}
	tree.Set("entries", strings.Join(entries, "\n"))
	if caption := d.Options["caption"]; caption != "" {
		tree.Set("caption", caption)
	}
	wrapper.Append(tree)
	return []*doctree.Node{wrapper}, nil
}

func indexDirective(d *rst.Directive) ([]*doctree.Node, error) {
	index := doctree.New("index").Set("entries", strings.TrimSpace(d.Args[0]))
	index.Line = d.Line.No
	target := doctree.New("target")
	target.Line = d.Line.No
	if name := d.Options["name"]; name != "" {
		target.Set("names", name)
	}
	return []*doctree.Node{index, target}, nil
}

// only parses its content with its own title hierarchy.
func only(d *rst.Directive) ([]*doctree.Node, error) {
	n := doctree.New("only").Set("expr", d.Args[0])
	n.Line = d.Line.No
	return []*doctree.Node{n}, d.State.NestedParseWithTitles(d.Content, n)
}

func productionList(d *rst.Directive) ([]*doctree.Node, error) {
	n := doctree.New("productionlist")
	n.Line = d.Line.No
	for _, rule := range strings.Split(d.Args[0], "\n") {
		if strings.TrimSpace(rule) == "" {
			continue
		}
		n.Append(doctree.NewTextElement("production", rule))
	}
	return []*doctree.Node{n}, nil
}

func defaultDomain(d *rst.Directive) ([]*doctree.Node, error) {
	name := strings.ToLower(strings.TrimSpace(d.Args[0]))
	if name == "none" {
		name = ""
	}
	d.Env().DefaultDomain = name
	return nil, nil
}
