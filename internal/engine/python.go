package engine

import (
	"errors"
	"regexp"
	"strings"

	"deprecdoc/internal/directive"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/rst"
)

// Reference-context keys maintained by the Python domain.
const (
	RefModule  = "py:module"
	RefClass   = "py:class"
	refClasses = "py:classes"
	refModules = "py:modules"
)

// pySigRe splits a Python signature into prefix, name, type parameters,
// arguments and return annotation.
var pySigRe = regexp.MustCompile(`^([\p{L}\p{N}_.]*\.)?([\p{L}\p{N}_]+)\s*(?:\[\s*(.*)\s*\])?(?:\(\s*(.*)\s*\)(?:\s*->\s*(.*))?)?$`)

var errBadSignature = errors.New("unparsable signature")

var (
	pyObjectOptions = directive.OptionSpec{
		"no-index":                        directive.Flag,
		"noindex":                         directive.Flag,
		"no-index-entry":                  directive.Flag,
		"noindexentry":                    directive.Flag,
		"no-contents-entry":               directive.Flag,
		"nocontentsentry":                 directive.Flag,
		"single-line-parameter-list":      directive.Flag,
		"single-line-type-parameter-list": directive.Flag,
		"module":                          directive.Unchanged,
		"canonical":                       directive.Unchanged,
		"annotation":                      directive.Unchanged,
	}
	pyFunctionOptions  = directive.Merge(pyObjectOptions, directive.OptionSpec{"async": directive.Flag})
	pyVariableOptions  = directive.Merge(pyObjectOptions, directive.OptionSpec{"type": directive.Unchanged, "value": directive.Unchanged})
	pyClasslikeOptions = directive.Merge(pyObjectOptions, directive.OptionSpec{"final": directive.Flag})
	pyMethodOptions    = directive.Merge(pyObjectOptions, directive.OptionSpec{
		"abstractmethod": directive.Flag,
		"async":          directive.Flag,
		"classmethod":    directive.Flag,
		"final":          directive.Flag,
		"staticmethod":   directive.Flag,
	})
	pyPropertyOptions = directive.Merge(pyObjectOptions, directive.OptionSpec{
		"abstractmethod": directive.Flag,
		"classmethod":    directive.Flag,
		"type":           directive.Unchanged,
	})
	pyTypeOptions   = directive.Merge(pyObjectOptions, directive.OptionSpec{"value": directive.Unchanged})
	pyModuleOptions = directive.OptionSpec{
		"platform":          directive.Unchanged,
		"synopsis":          directive.Unchanged,
		"no-index":          directive.Flag,
		"noindex":           directive.Flag,
		"no-contents-entry": directive.Flag,
		"nocontentsentry":   directive.Flag,
		"deprecated":        directive.Flag,
		"no-typesetting":    directive.Flag,
	}
)

func (e *Engine) registerPython(r *rst.Registry) {
	obj := func(opts directive.OptionSpec) directive.Spec {
		return directive.Spec{RequiredArgs: 1, FinalArgWhitespace: true, Options: opts, HasContent: true}
	}
	plain := objectDescription{signature: pySignature, before: pyBeforeContent(false), after: pyAfterContent(false)}
	nesting := objectDescription{signature: pySignature, before: pyBeforeContent(true), after: pyAfterContent(true)}

	r.Register("py:function", obj(pyFunctionOptions), plain.run)
	r.Register("py:decorator", obj(pyFunctionOptions), plain.run)
	r.Register("py:data", obj(pyVariableOptions), plain.run)
	r.Register("py:class", obj(pyClasslikeOptions), nesting.run)
	r.Register("py:exception", obj(pyClasslikeOptions), nesting.run)
	r.Register("py:method", obj(pyMethodOptions), plain.run)
	r.Register("py:classmethod", obj(pyMethodOptions), plain.run)
	r.Register("py:staticmethod", obj(pyMethodOptions), plain.run)
	r.Register("py:decoratormethod", obj(pyMethodOptions), plain.run)
	r.Register("py:attribute", obj(pyVariableOptions), plain.run)
	r.Register("py:property", obj(pyPropertyOptions), plain.run)
	r.Register("py:type", obj(pyTypeOptions), plain.run)

	r.Register("py:module", directive.Spec{RequiredArgs: 1, Options: pyModuleOptions, HasContent: true}, pyModule)
	r.Register("py:currentmodule", directive.Spec{RequiredArgs: 1}, pyCurrentModule)
}

// sigName is what a signature handler returns: the qualified name and the
// explicit dotted prefix written in the signature.
type sigName struct {
	fullname string
	prefix   string
}

// objectDescription renders a desc node: one desc_signature per signature
// line followed by a desc_content holding the parsed body.
type objectDescription struct {
	signature func(d *rst.Directive, sig string, node *doctree.Node) (sigName, error)
	before    func(d *rst.Directive, names []sigName)
	after     func(d *rst.Directive)
}

func (o objectDescription) run(d *rst.Directive) ([]*doctree.Node, error) {
	noIndex := d.HasOption("no-index") || d.HasOption("noindex")
	index := doctree.New("index")
	index.Line = d.Line.No
	desc := doctree.New("desc").
		Set("domain", d.Domain()).
		Set("objtype", d.ObjType()).
		Set("desctype", d.ObjType())
	desc.Line = d.Line.No
	if noIndex {
		desc.Set("no-index", "True")
	}

	var names []sigName
	for _, sig := range signatures(d.Args[0]) {
		sn := doctree.New("desc_signature")
		sn.Line = d.Line.No
		desc.Append(sn)
		if o.signature == nil {
			sn.Append(doctree.NewTextElement("desc_name", sig))
			continue
		}
		name, err := o.signature(d, sig, sn)
		if err != nil {
			sn.TakeChildren()
			sn.Append(doctree.NewTextElement("desc_name", sig))
			continue
		}
		if !containsName(names, name.fullname) {
			names = append(names, name)
			if !noIndex {
				sn.Set("ids", qualifiedID(sn.Get("module"), name.fullname))
			}
		}
	}

	content := doctree.New("desc_content")
	desc.Append(content)
	if o.before != nil {
		o.before(d, names)
	}
	err := d.State.NestedParseWithTitles(d.Content, content)
	if o.after != nil {
		o.after(d)
	}
	return []*doctree.Node{index, desc}, err
}

// signatures splits the argument into one signature per line, joining lines
// ended by a backslash.
func signatures(arg string) []string {
	arg = strings.ReplaceAll(arg, "\\\n", "")
	lines := strings.Split(arg, "\n")
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

func containsName(names []sigName, fullname string) bool {
	for _, n := range names {
		if n.fullname == fullname {
			return true
		}
	}
	return false
}

func qualifiedID(module, fullname string) string {
	if module != "" {
		return module + "." + fullname
	}
	return fullname
}

// pySignature resolves the module, class and fullname of a Python object from
// its signature and the reference context.
func pySignature(d *rst.Directive, sig string, node *doctree.Node) (sigName, error) {
	m := pySigRe.FindStringSubmatch(sig)
	if m == nil {
		return sigName{}, errBadSignature
	}
	prefix, name, arglist := m[1], m[2], m[4]
	env := d.Env()

	modname, ok := d.Options["module"]
	if !ok {
		modname, _ = env.Ref(RefModule)
	}
	classname, _ := env.Ref(RefClass)

	var fullname string
	switch {
	case classname != "" && prefix != "" && (prefix == classname || strings.HasPrefix(prefix, classname+".")):
		fullname = prefix + name
		prefix = strings.TrimLeft(prefix[len(classname):], ".")
	case classname != "" && prefix != "":
		fullname = classname + "." + prefix + name
	case classname != "":
		fullname = classname + "." + name
	case prefix != "":
		classname = strings.TrimRight(prefix, ".")
		fullname = prefix + name
	default:
		fullname = name
	}

	if modname != "" {
		node.Set("module", modname)
	}
	node.Set("class", classname)
	node.Set("fullname", fullname)

	if prefix != "" {
		node.Append(doctree.NewTextElement("desc_addname", prefix))
	}
	node.Append(doctree.NewTextElement("desc_name", name))
	if m[4] != "" || strings.Contains(sig, "(") {
		node.Append(doctree.NewTextElement("desc_parameterlist", arglist))
	}
	if m[5] != "" {
		node.Append(doctree.NewTextElement("desc_returns", m[5]))
	}
	return sigName{fullname: fullname, prefix: prefix}, nil
}

// pyBeforeContent makes the described object the current class for its body
// and applies a :module: option.
func pyBeforeContent(allowNesting bool) func(*rst.Directive, []sigName) {
	return func(d *rst.Directive, names []sigName) {
		env := d.Env()
		prefix := ""
		if len(names) > 0 {
			last := names[len(names)-1]
			if allowNesting {
				prefix = last.fullname
			} else if last.prefix != "" {
				prefix = strings.Trim(last.prefix, ".")
			}
		}
		if prefix != "" {
			env.SetRef(RefClass, prefix)
			if allowNesting {
				env.Push(refClasses, prefix)
			}
		}
		if module, ok := d.Options["module"]; ok {
			current, _ := env.Ref(RefModule)
			env.Push(refModules, current)
			env.SetRef(RefModule, module)
		}
	}
}

func pyAfterContent(allowNesting bool) func(*rst.Directive) {
	return func(d *rst.Directive) {
		env := d.Env()
		if allowNesting {
			env.Pop(refClasses)
		}
		top, _ := env.Top(refClasses)
		env.SetRef(RefClass, top)
		if d.HasOption("module") {
			prev, _ := env.Pop(refModules)
			env.SetRef(RefModule, prev)
		}
	}
}

// pyModule sets the current module and parses its content into a temporary
// section whose children replace the directive.
func pyModule(d *rst.Directive) ([]*doctree.Node, error) {
	modname := strings.TrimSpace(d.Args[0])
	d.Env().SetRef(RefModule, modname)

	var out []*doctree.Node
	if !d.HasOption("no-index") && !d.HasOption("noindex") {
		target := doctree.New("target").Set("ids", "module-"+modname).Set("ismod", "True")
		target.Line = d.Line.No
		index := doctree.New("index").Set("entries", "module; "+modname)
		index.Line = d.Line.No
		out = append(out, target, index)
	}
	holder := doctree.New("section")
	err := d.State.NestedParseWithTitles(d.Content, holder)
	out = append(out, holder.TakeChildren()...)
	return out, err
}

// pyCurrentModule switches the current module without producing output.
// The argument None clears it.
func pyCurrentModule(d *rst.Directive) ([]*doctree.Node, error) {
	modname := strings.TrimSpace(d.Args[0])
	if modname == "None" {
		d.Env().ClearRef(RefModule)
		return nil, nil
	}
	d.Env().SetRef(RefModule, modname)
	return nil, nil
}
