package rst

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/directive"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/source"
)

const simpleName = `[\p{L}\p{N}]+(?:[-._+:][\p{L}\p{N}]+)*`

var (
	footnoteRe     = regexp.MustCompile(`^\.\. +\[(#|[0-9]+|\*|#` + simpleName + `)\]( +|$)`)
	citationRe     = regexp.MustCompile(`^\.\. +\[(` + simpleName + `)\]( +|$)`)
	targetStartRe  = regexp.MustCompile(`^\.\. +_[^ ]`)
	targetRe       = regexp.MustCompile("^\\.\\. +_(?:`([^`]+)`|((?:[^:\\\\]|\\\\.)+)):( +|$)")
	substitutionRe = regexp.MustCompile(`^\.\. +\|([^|\s](?:[^|]*[^|\s])?)\|( +|$)`)
	directiveRe    = regexp.MustCompile(`^\.\. +(` + simpleName + `) ?::( +|$)`)
	embeddedRe     = regexp.MustCompile(`^(` + simpleName + `) ?::( +|$)`)
)

// Directive is one directive occurrence as seen by its handler.
type Directive struct {
	Name      string // registry name, e.g. "py:function"
	Args      []string
	Options   map[string]string
	Content   []source.Line
	Line      source.Line // the ".. name::" line
	BlockText string
	State     *State
}

// HasOption reports whether the option was given.
func (d *Directive) HasOption(name string) bool {
	_, ok := d.Options[name]
	return ok
}

// Env returns the document environment.
func (d *Directive) Env() *Env {
	return d.State.Env()
}

// Domain and ObjType split a qualified name: "py:function" → "py", "function".
func (d *Directive) Domain() string {
	if i := strings.IndexByte(d.Name, ':'); i >= 0 {
		return d.Name[:i]
	}
	return ""
}

func (d *Directive) ObjType() string {
	if i := strings.IndexByte(d.Name, ':'); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

// DirectiveError is a recoverable directive failure rendered as a system
// message at Severity.
type DirectiveError struct {
	Severity diag.Severity
	Msg      string
}

func (e *DirectiveError) Error() string {
	return e.Msg
}

// Errorf builds an ERROR level DirectiveError.
func (d *Directive) Errorf(format string, args ...any) error {
	return &DirectiveError{Severity: diag.SevError, Msg: fmt.Sprintf(format, args...)}
}

// Warningf builds a WARNING level DirectiveError.
func (d *Directive) Warningf(format string, args ...any) error {
	return &DirectiveError{Severity: diag.SevWarning, Msg: fmt.Sprintf(format, args...)}
}

// Severef builds a SEVERE level DirectiveError.
func (d *Directive) Severef(format string, args ...any) error {
	return &DirectiveError{Severity: diag.SevSevere, Msg: fmt.Sprintf(format, args...)}
}

// explicitList parses consecutive explicit markup blocks.
func (st *State) explicitList(lines []source.Line, i int) (int, error) {
	for {
		end, blankFinish, err := st.explicitConstruct(lines, i)
		if err != nil {
			return end, err
		}
		i = end
		if i >= len(lines) {
			return i, nil
		}
		if k := classify(lines[i].Text); k == kindExplicit || k == kindAnonymous {
			continue
		}
		if !blankFinish {
			return i, st.unindentWarning(diag.BlkExplicitMarkupEnd, "Explicit markup", lines[i])
		}
		return i, nil
	}
}

func (st *State) explicitConstruct(lines []source.Line, i int) (int, bool, error) {
	t := lines[i].Text
	if m := anonymousRe.FindStringIndex(t); m != nil {
		block, end, blankFinish := firstKnownIndented(lines, i, m[1], true)
		target := doctree.New("target").Set("anonymous", "1").Set("refuri", joinURI(block))
		target.Line = lines[i].No
		st.Parent().Append(target)
		return end, blankFinish, nil
	}
	if m := footnoteRe.FindStringSubmatchIndex(t); m != nil {
		return st.footnote(lines, i, "footnote", t[m[2]:m[3]], m[1])
	}
	if m := citationRe.FindStringSubmatchIndex(t); m != nil {
		return st.footnote(lines, i, "citation", t[m[2]:m[3]], m[1])
	}
	if targetStartRe.MatchString(t) {
		return st.target(lines, i)
	}
	if m := substitutionRe.FindStringSubmatchIndex(t); m != nil {
		return st.substitution(lines, i, t[m[2]:m[3]], m[1])
	}
	if m := directiveRe.FindStringSubmatchIndex(t); m != nil {
		return st.directive(lines, i, t[m[2]:m[3]], m[1])
	}
	return st.comment(lines, i)
}

func (st *State) footnote(lines []source.Line, i int, tag, label string, markerEnd int) (int, bool, error) {
	block, end, blankFinish := firstKnownIndented(lines, i, markerEnd, true)
	node := doctree.New(tag).Set("names", normalizeName(label))
	node.Line = lines[i].No
	st.Parent().Append(node)
	node.Append(doctree.NewTextElement("label", label))
	return end, blankFinish, st.NestedParse(block, node)
}

func (st *State) target(lines []source.Line, i int) (int, bool, error) {
	t := lines[i].Text
	m := targetRe.FindStringSubmatchIndex(t)
	if m == nil {
		_, end, blankFinish := rawBlock(lines, i)
		return end, blankFinish, st.Report(diag.SevError, diag.BlkExplicitMarkupEnd, lines[i], "malformed hyperlink target.", "")
	}
	var name string
	if m[2] >= 0 {
		name = t[m[2]:m[3]]
	} else {
		name = t[m[4]:m[5]]
	}
	block, end, blankFinish := firstKnownIndented(lines, i, m[1], true)
	target := doctree.New("target").Set("names", normalizeName(name))
	target.Line = lines[i].No
	if uri := joinURI(block); uri != "" {
		target.Set("refuri", uri)
	} else {
		target.Set("ids", makeID(name))
	}
	st.Parent().Append(target)
	return end, blankFinish, nil
}

func joinURI(block []source.Line) string {
	var sb strings.Builder
	for _, l := range block {
		sb.WriteString(strings.TrimSpace(l.Text))
	}
	return sb.String()
}

func (st *State) substitution(lines []source.Line, i int, name string, markerEnd int) (int, bool, error) {
	block, end, blankFinish := firstKnownIndented(lines, i, markerEnd, false)
	block = trimBlankEnd(block)
	sub := doctree.New("substitution_definition").Set("names", strings.Join(strings.Fields(name), " "))
	sub.Line = lines[i].No
	st.Parent().Append(sub)

	if len(block) == 0 || isBlank(block[0].Text) {
		raw, _, _ := rawBlock(lines, i)
		return end, blankFinish, st.Report(diag.SevWarning, diag.DirNoContent, lines[i],
			fmt.Sprintf("Substitution definition %q missing contents.", name), joinText(raw))
	}
	first := strings.TrimSpace(block[0].Text)
	m := embeddedRe.FindStringSubmatchIndex(first)
	if m == nil {
		raw, _, _ := rawBlock(lines, i)
		return end, blankFinish, st.Report(diag.SevError, diag.DirError, lines[i],
			fmt.Sprintf("Substitution definition %q empty or invalid.", name), joinText(raw))
	}
	dblock := make([]source.Line, len(block))
	copy(dblock, block)
	dblock[0].Text = first[m[1]:]
	inner := &State{p: st.p, parent: sub}
	err := inner.runDirective(first[m[2]:m[3]], dblock, lines[i], lines[i:end])
	return end, blankFinish, err
}

func (st *State) directive(lines []source.Line, i int, name string, markerEnd int) (int, bool, error) {
	block, end, blankFinish := firstKnownIndented(lines, i, markerEnd, false)
	err := st.runDirective(name, block, lines[i], lines[i:end])
	return end, blankFinish, err
}

// runDirective looks up and runs a directive. raw holds the undedented source
// lines for diagnostics.
func (st *State) runDirective(name string, block []source.Line, at source.Line, raw []source.Line) error {
	blockText := joinText(trimBlankEnd(raw))
	entry, ok := st.p.lookupDirective(name)
	if !ok {
		return st.Report(diag.SevError, diag.DirUnknown, at,
			fmt.Sprintf("Unknown directive type %q.", name), blockText)
	}

	inv, err := directive.ParseBlock(entry.Spec, block)
	if err != nil {
		var me *directive.MarkupError
		if errors.As(err, &me) {
			return st.Report(diag.SevError, diag.DirError, at,
				fmt.Sprintf("Error in %q directive:\n%s.", name, me.Msg), blockText)
		}
		return err
	}

	d := &Directive{
		Name:      entry.Name,
		Args:      inv.Args,
		Options:   inv.Options,
		Content:   inv.Content,
		Line:      at,
		BlockText: blockText,
		State:     st,
	}
	result, err := entry.Handler(d)
	if err != nil {
		var de *DirectiveError
		if errors.As(err, &de) {
			return st.Report(de.Severity, diag.DirError, at, de.Msg, blockText)
		}
		return err
	}
	st.Parent().Append(result...)
	return nil
}

func (st *State) comment(lines []source.Line, i int) (int, bool, error) {
	t := lines[i].Text
	m := explicitRe.FindStringIndex(t)
	firstLine := t[m[1]:]
	nextBlank := i+1 >= len(lines) || isBlank(lines[i+1].Text)
	if nextBlank && isBlank(firstLine) {
		c := doctree.New("comment")
		c.Line = lines[i].No
		st.Parent().Append(c)
		return i + 1, true, nil
	}
	block, end, blankFinish := firstKnownIndented(lines, i, m[1], true)
	c := doctree.NewTextElement("comment", joinText(trimBlankEnd(block)))
	c.Line = lines[i].No
	st.Parent().Append(c)
	return end, blankFinish, nil
}
