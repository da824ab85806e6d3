package engine

import (
	"regexp"
	"strings"

	"deprecdoc/internal/directive"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/rst"
	"deprecdoc/internal/source"
)

var basicOptions = directive.OptionSpec{
	"class": directive.ClassOption,
	"name":  directive.Unchanged,
}

func withBasic(extra directive.OptionSpec) directive.OptionSpec {
	return directive.Merge(basicOptions, extra)
}

var (
	imageOptions = withBasic(directive.OptionSpec{
		"alt":     directive.Unchanged,
		"height":  directive.UnchangedRequired,
		"width":   directive.UnchangedRequired,
		"scale":   directive.NonNegativeInt,
		"align":   directive.Choice("top", "middle", "bottom", "left", "center", "right"),
		"target":  directive.UnchangedRequired,
		"loading": directive.Choice("embed", "link", "lazy"),
	})
	figureOptions = directive.Merge(imageOptions, directive.OptionSpec{
		"figwidth": directive.UnchangedRequired,
		"figclass": directive.ClassOption,
		"align":    directive.Choice("left", "center", "right"),
	})
	tableOptions = withBasic(directive.OptionSpec{
		"align":  directive.Choice("left", "center", "right"),
		"width":  directive.UnchangedRequired,
		"widths": directive.UnchangedRequired,
	})
	csvTableOptions = directive.Merge(tableOptions, directive.OptionSpec{
		"header-rows":  directive.NonNegativeInt,
		"stub-columns": directive.NonNegativeInt,
		"header":       directive.Unchanged,
		"file":         directive.UnchangedRequired,
		"url":          directive.UnchangedRequired,
		"encoding":     directive.UnchangedRequired,
		"delim":        directive.UnchangedRequired,
		"keepspace":    directive.Flag,
		"quote":        directive.UnchangedRequired,
		"escape":       directive.UnchangedRequired,
	})
	listTableOptions = directive.Merge(tableOptions, directive.OptionSpec{
		"header-rows":  directive.NonNegativeInt,
		"stub-columns": directive.NonNegativeInt,
	})
	mathOptions = withBasic(directive.OptionSpec{
		"label":  directive.Unchanged,
		"nowrap": directive.Flag,
	})
	codeOptions = withBasic(directive.OptionSpec{
		"number-lines":    directive.Unchanged,
		"force":           directive.Flag,
		"linenos":         directive.Flag,
		"dedent":          directive.Unchanged,
		"lineno-start":    directive.NonNegativeInt,
		"emphasize-lines": directive.UnchangedRequired,
		"caption":         directive.UnchangedRequired,
	})
	rawOptions = directive.OptionSpec{
		"file":     directive.UnchangedRequired,
		"url":      directive.UnchangedRequired,
		"encoding": directive.UnchangedRequired,
		"class":    directive.ClassOption,
	}
)

var admonitionNames = []string{
	"attention", "caution", "danger", "error", "hint",
	"important", "note", "tip", "warning",
}

func (e *Engine) registerDocutils(r *rst.Registry) {
	for _, name := range admonitionNames {
		r.Register(name, directive.Spec{Options: basicOptions, HasContent: true}, bodyContainer(name, ""))
	}
	titled := directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, Options: basicOptions, HasContent: true}
	r.Register("admonition", titled, bodyContainer("admonition", ""))
	r.Register("topic", titled, bodyContainer("topic", ""))
	r.Register("sidebar", directive.Spec{
		OptionalArgs: 1, FinalArgWhitespace: true, HasContent: true,
		Options: withBasic(directive.OptionSpec{"subtitle": directive.UnchangedRequired}),
	}, bodyContainer("sidebar", ""))
	r.Register("rubric", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, Options: basicOptions}, textElement("rubric"))
	r.Register("epigraph", directive.Spec{HasContent: true}, bodyContainer("block_quote", "epigraph"))
	r.Register("highlights", directive.Spec{HasContent: true}, bodyContainer("block_quote", "highlights"))
	r.Register("pull-quote", directive.Spec{HasContent: true}, bodyContainer("block_quote", "pull-quote"))
	r.Register("compound", directive.Spec{Options: basicOptions, HasContent: true}, bodyContainer("compound", ""))
	r.Register("container", directive.Spec{
		OptionalArgs: 1, FinalArgWhitespace: true, HasContent: true,
		Options: directive.OptionSpec{"name": directive.Unchanged},
	}, bodyContainer("container", ""))

	r.Register("math", directive.Spec{OptionalArgs: 1, FinalArgWhitespace: true, Options: mathOptions, HasContent: true}, literal("math_block"))
	r.Register("raw", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, Options: rawOptions, HasContent: true}, raw)
	r.Register("parsed-literal", directive.Spec{Options: basicOptions, HasContent: true}, parsedLiteral)
	r.Register("image", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, Options: imageOptions}, image)
	r.Register("figure", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, Options: figureOptions, HasContent: true}, figure)

	r.Register("table", directive.Spec{OptionalArgs: 1, FinalArgWhitespace: true, Options: tableOptions, HasContent: true}, bodyContainer("table", ""))
	r.Register("csv-table", directive.Spec{OptionalArgs: 1, FinalArgWhitespace: true, Options: csvTableOptions, HasContent: true}, opaqueTable)
	r.Register("list-table", directive.Spec{OptionalArgs: 1, FinalArgWhitespace: true, Options: listTableOptions, HasContent: true}, listTable)

	r.Register("class", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, HasContent: true}, classDirective)
	r.Register("role", directive.Spec{RequiredArgs: 1, HasContent: true}, roleDirective)
	r.Register("default-role", directive.Spec{OptionalArgs: 1}, defaultRole)
	r.Register("title", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true}, nothing)
	r.Register("meta", directive.Spec{HasContent: true}, nothing)
	r.Register("contents", directive.Spec{
		OptionalArgs: 1, FinalArgWhitespace: true,
		Options: directive.OptionSpec{
			"depth":     directive.NonNegativeInt,
			"local":     directive.Flag,
			"backlinks": directive.Choice("top", "entry", "none"),
			"class":     directive.ClassOption,
		},
	}, pending("contents"))
	sectnum := directive.Spec{Options: directive.OptionSpec{
		"depth":  directive.NonNegativeInt,
		"start":  directive.NonNegativeInt,
		"prefix": directive.Unchanged,
		"suffix": directive.Unchanged,
	}}
	r.Register("sectnum", sectnum, pending("sectnum"))
	r.Register("section-numbering", sectnum, pending("sectnum"))
	r.Register("header", directive.Spec{HasContent: true}, bodyContainer("decoration", "header"))
	r.Register("footer", directive.Spec{HasContent: true}, bodyContainer("decoration", "footer"))
	r.Register("target-notes", directive.Spec{Options: basicOptions}, pending("target-notes"))

	r.Register("replace", directive.Spec{HasContent: true}, replace)
	r.Register("unicode", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, Options: directive.OptionSpec{
		"trim": directive.Flag, "ltrim": directive.Flag, "rtrim": directive.Flag,
	}}, substitutionText)
	r.Register("date", directive.Spec{OptionalArgs: 1, FinalArgWhitespace: true}, substitutionText)

	r.Register("include", directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, Options: includeOptions}, e.include)
}

func newNode(tag string, d *rst.Directive) *doctree.Node {
	n := doctree.New(tag)
	n.Line = d.Line.No
	if cls, ok := d.Options["class"]; ok && cls != "" {
		n.AddClass(strings.Fields(cls)...)
	}
	if name := d.Options["name"]; name != "" {
		n.Set("names", strings.ToLower(strings.Join(strings.Fields(name), " ")))
	}
	return n
}

func requireContent(d *rst.Directive) error {
	if len(d.Content) == 0 {
		return d.Errorf("Content block expected for the %q directive; none found.", d.Name)
	}
	return nil
}

func nothing(*rst.Directive) ([]*doctree.Node, error) {
	return nil, nil
}

// pending stands in for nodes docutils resolves in a later transform.
func pending(kind string) rst.DirectiveFunc {
	return func(d *rst.Directive) ([]*doctree.Node, error) {
		return []*doctree.Node{newNode("pending", d).Set("kind", kind)}, nil
	}
}

// bodyContainer parses the content as body elements of a new tag node. A
// directive argument becomes its title.
func bodyContainer(tag, class string) rst.DirectiveFunc {
	return func(d *rst.Directive) ([]*doctree.Node, error) {
		if err := requireContent(d); err != nil {
			return nil, err
		}
		n := newNode(tag, d)
		if class != "" {
			n.AddClass(class)
		}
		if d.ObjType() != tag {
			n.Set("directive", d.ObjType())
		}
		if len(d.Args) > 0 {
			n.Append(doctree.NewTextElement("title", d.Args[0]))
			if err := d.State.ScanInline(d.Args[0], d.Line); err != nil {
				return nil, err
			}
		}
		if sub := d.Options["subtitle"]; sub != "" {
			n.Append(doctree.NewTextElement("subtitle", sub))
		}
		return []*doctree.Node{n}, d.State.NestedParse(d.Content, n)
	}
}

func textElement(tag string) rst.DirectiveFunc {
	return func(d *rst.Directive) ([]*doctree.Node, error) {
		n := newNode(tag, d)
		n.Append(doctree.NewText(d.Args[0]))
		return []*doctree.Node{n}, d.State.ScanInline(d.Args[0], d.Line)
	}
}

// literal keeps the content verbatim.
func literal(tag string) rst.DirectiveFunc {
	return func(d *rst.Directive) ([]*doctree.Node, error) {
		n := newNode(tag, d)
		if len(d.Args) > 0 {
			n.Set("language", d.Args[0])
		}
		n.Append(doctree.NewText(directive.JoinLines(d.Content)))
		return []*doctree.Node{n}, nil
	}
}

func raw(d *rst.Directive) ([]*doctree.Node, error) {
	if len(d.Content) == 0 && !d.HasOption("file") && !d.HasOption("url") {
		return nil, d.Errorf("Content block expected for the %q directive; none found.", d.Name)
	}
	n := newNode("raw", d).Set("format", strings.ToLower(strings.Join(strings.Fields(d.Args[0]), " ")))
	n.Append(doctree.NewText(directive.JoinLines(d.Content)))
	return []*doctree.Node{n}, nil
}

func parsedLiteral(d *rst.Directive) ([]*doctree.Node, error) {
	if err := requireContent(d); err != nil {
		return nil, err
	}
	n := newNode("literal_block", d)
	n.Append(doctree.NewText(directive.JoinLines(d.Content)))
	return []*doctree.Node{n}, scanLines(d, d.Content)
}

func scanLines(d *rst.Directive, lines []source.Line) error {
	for _, l := range lines {
		if err := d.State.ScanInline(l.Text, l); err != nil {
			return err
		}
	}
	return nil
}

func image(d *rst.Directive) ([]*doctree.Node, error) {
	n := newNode("image", d).Set("uri", strings.Join(strings.Fields(d.Args[0]), ""))
	if alt := d.Options["alt"]; alt != "" {
		n.Set("alt", alt)
	}
	if target := d.Options["target"]; target != "" {
		ref := doctree.New("reference").Set("refuri", target)
		ref.Append(n)
		return []*doctree.Node{ref}, nil
	}
	return []*doctree.Node{n}, nil
}

func figure(d *rst.Directive) ([]*doctree.Node, error) {
	imgs, err := image(d)
	if err != nil {
		return nil, err
	}
	fig := doctree.New("figure")
	fig.Line = d.Line.No
	if cls := d.Options["figclass"]; cls != "" {
		fig.AddClass(strings.Fields(cls)...)
	}
	fig.Append(imgs...)
	if len(d.Content) == 0 {
		return []*doctree.Node{fig}, nil
	}
	body := doctree.New("container")
	if err := d.State.NestedParse(d.Content, body); err != nil {
		return []*doctree.Node{fig}, err
	}
	children := body.TakeChildren()
	if len(children) == 0 {
		return []*doctree.Node{fig}, nil
	}
	if children[0].Tag == "paragraph" {
		children[0].Tag = "caption"
	} else if children[0].Tag != "comment" {
		return []*doctree.Node{fig}, d.Errorf("Figure caption must be a paragraph or empty comment.")
	}
	fig.Append(children[0])
	if len(children) > 1 {
		legend := doctree.New("legend")
		legend.Append(children[1:]...)
		fig.Append(legend)
	}
	return []*doctree.Node{fig}, nil
}

func opaqueTable(d *rst.Directive) ([]*doctree.Node, error) {
	if len(d.Content) == 0 && !d.HasOption("file") && !d.HasOption("url") {
		return nil, d.Errorf("No content for the %q directive.", d.Name)
	}
	n := newNode("table", d).Set("directive", d.ObjType())
	if len(d.Args) > 0 {
		n.Append(doctree.NewTextElement("title", d.Args[0]))
	}
	return []*doctree.Node{n}, scanLines(d, d.Content)
}

func listTable(d *rst.Directive) ([]*doctree.Node, error) {
	if err := requireContent(d); err != nil {
		return nil, err
	}
	n := newNode("table", d).Set("directive", d.ObjType())
	if len(d.Args) > 0 {
		n.Append(doctree.NewTextElement("title", d.Args[0]))
	}
	body := doctree.New("container")
	if err := d.State.NestedParse(d.Content, body); err != nil {
		return []*doctree.Node{n}, err
	}
	if len(body.Children) != 1 || body.Children[0].Tag != "bullet_list" {
		return nil, d.Errorf("Error parsing content block for the %q directive: exactly one bullet list expected.", d.Name)
	}
	n.Append(body.TakeChildren()...)
	return []*doctree.Node{n}, nil
}

// classDirective applies classes to its content, or to the next element when
// it has none.
func classDirective(d *rst.Directive) ([]*doctree.Node, error) {
	classes := strings.Fields(strings.ToLower(d.Args[0]))
	if len(d.Content) == 0 {
		return []*doctree.Node{newNode("pending", d).Set("kind", "class").Set("classes", strings.Join(classes, " "))}, nil
	}
	body := doctree.New("container")
	err := d.State.NestedParse(d.Content, body)
	children := body.TakeChildren()
	for _, c := range children {
		if !c.IsText() && c.Tag != "system_message" {
			c.AddClass(classes...)
		}
	}
	return children, err
}

var roleArgRe = regexp.MustCompile(`^([\p{L}\p{N}]+(?:[-._+:][\p{L}\p{N}]+)*)\s*(?:\(\s*([\p{L}\p{N}]+(?:[-._+:][\p{L}\p{N}]+)*)\s*\)\s*)?$`)

func roleDirective(d *rst.Directive) ([]*doctree.Node, error) {
	m := roleArgRe.FindStringSubmatch(d.Args[0])
	if m == nil {
		return nil, d.Errorf("Invalid argument for %q directive:\n%s", d.Name, d.Args[0])
	}
	if base := m[2]; base != "" && !d.State.KnownRole(base) {
		return nil, d.Errorf("Unknown interpreted text role %q.", base)
	}
	d.Env().DefineRole(m[1])
	return nil, nil
}

func defaultRole(d *rst.Directive) ([]*doctree.Node, error) {
	if len(d.Args) == 0 {
		d.Env().DefaultRole = ""
		return nil, nil
	}
	name := d.Args[0]
	if !d.State.KnownRole(name) {
		return nil, d.Errorf("Unknown interpreted text role %q.", name)
	}
	d.Env().DefaultRole = name
	return nil, nil
}

func inSubstitution(d *rst.Directive) error {
	if d.State.Parent().Tag != "substitution_definition" {
		return d.Errorf("Invalid context: the %q directive can only be used within a substitution definition.", d.Name)
	}
	return nil
}

func replace(d *rst.Directive) ([]*doctree.Node, error) {
	if err := inSubstitution(d); err != nil {
		return nil, err
	}
	if err := requireContent(d); err != nil {
		return nil, err
	}
	body := doctree.New("container")
	if err := d.State.NestedParse(d.Content, body); err != nil {
		return nil, err
	}
	var out []*doctree.Node
	for _, c := range body.TakeChildren() {
		switch c.Tag {
		case "paragraph":
			out = append(out, c.TakeChildren()...)
		case "system_message":
			out = append(out, c)
		default:
			return nil, d.Errorf("Error in %q directive: may contain a single paragraph only.", d.Name)
		}
	}
	return out, nil
}

func substitutionText(d *rst.Directive) ([]*doctree.Node, error) {
	if err := inSubstitution(d); err != nil {
		return nil, err
	}
	text := ""
	if len(d.Args) > 0 {
		text = d.Args[0]
	}
	return []*doctree.Node{doctree.NewText(text)}, nil
}
