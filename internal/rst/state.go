package rst

import (
	"regexp"
	"strings"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/source"
)

// State is the parse position handed to directives: where new nodes go and
// whether section titles are allowed there.
type State struct {
	p      *docParser
	parent *doctree.Node
	titles *titleContext // nil when titles are not allowed
}

// titleContext tracks section nesting for a region where titles are allowed.
// stack[0] is the region root; len(stack)-1 is the current section level.
type titleContext struct {
	styles []string
	stack  []*doctree.Node
}

func newTitleContext(root *doctree.Node) *titleContext {
	return &titleContext{stack: []*doctree.Node{root}}
}

func (tc *titleContext) level() int {
	return len(tc.stack) - 1
}

func (tc *titleContext) top() *doctree.Node {
	return tc.stack[len(tc.stack)-1]
}

// Parent returns the node new body elements are appended to.
func (st *State) Parent() *doctree.Node {
	if st.titles != nil {
		return st.titles.top()
	}
	return st.parent
}

// Env returns the document environment.
func (st *State) Env() *Env {
	return st.p.env
}

// Document returns the document root.
func (st *State) Document() *doctree.Node {
	return st.p.doc
}

// File returns the top-level file being parsed.
func (st *State) File() *source.File {
	return st.p.file
}

// NestedParse parses lines as body elements of node. Section titles are not
// allowed.
func (st *State) NestedParse(lines []source.Line, node *doctree.Node) error {
	child := &State{p: st.p, parent: node}
	return child.run(lines)
}

// NestedParseWithTitles parses lines into node, allowing sections with a fresh
// title style hierarchy.
func (st *State) NestedParseWithTitles(lines []source.Line, node *doctree.Node) error {
	child := &State{p: st.p, parent: node, titles: newTitleContext(node)}
	return child.run(lines)
}

// InsertLines parses lines at the current position, as if they appeared in
// place of the running directive.
func (st *State) InsertLines(lines []source.Line) error {
	return st.run(lines)
}

// EnterInclude records path on the include stack. It reports false when path
// is already being included.
func (st *State) EnterInclude(path string) bool {
	for _, p := range st.p.includes {
		if p == path {
			return false
		}
	}
	st.p.includes = append(st.p.includes, path)
	return true
}

// LeaveInclude pops the include stack.
func (st *State) LeaveInclude() {
	if n := len(st.p.includes); n > 0 {
		st.p.includes = st.p.includes[:n-1]
	}
}

// IncludeStack returns the active include paths, outermost first.
func (st *State) IncludeStack() []string {
	out := make([]string, len(st.p.includes))
	copy(out, st.p.includes)
	return out
}

// KnownRole reports whether name resolves to a registered or document-defined
// role.
func (st *State) KnownRole(name string) bool {
	return st.p.knownRole(strings.ToLower(name))
}

// IncludeDepth returns how many includes are active.
func (st *State) IncludeDepth() int {
	return len(st.p.includes)
}

// Report emits a system message and appends it to the current parent.
func (st *State) Report(sev diag.Severity, code diag.Code, at source.Line, msg, detail string) error {
	node, err := st.p.report(sev, code, at, msg, detail)
	st.Parent().Append(node)
	return err
}

// ScanInline checks text for interpreted-text roles and reports unknown ones.
func (st *State) ScanInline(text string, at source.Line) error {
	return st.inline(text, at, st.Parent())
}

var (
	bulletRe    = regexp.MustCompile(`^([-+*\x{2022}\x{2023}\x{2043}])( +|$)`)
	enumRe      = regexp.MustCompile(`^(?:\(([0-9]+|[a-zA-Z]|[ivxlcdm]+|[IVXLCDM]+|#)\)|([0-9]+|[a-zA-Z]|[ivxlcdm]+|[IVXLCDM]+|#)([.)]))( +|$)`)
	fieldRe     = regexp.MustCompile(`^:((?:[^:\\]|\\.|:[^ \x60:])*[^ :\\]?):( +|$)`)
	doctestRe   = regexp.MustCompile(`^>>>( +|$)`)
	lineBlockRe = regexp.MustCompile(`^\|( +|$)`)
	gridTopRe   = regexp.MustCompile(`^\+-[-+]+-\+ *$`)
	simpleTopRe = regexp.MustCompile(`^=+( +=+)+ *$`)
	explicitRe  = regexp.MustCompile(`^\.\.( +|$)`)
	anonymousRe = regexp.MustCompile(`^__( +|$)`)
)

type lineKind uint8

const (
	kindBlank lineKind = iota
	kindIndent
	kindBullet
	kindEnum
	kindField
	kindDoctest
	kindLineBlock
	kindGridTable
	kindSimpleTable
	kindExplicit
	kindAnonymous
	kindLine
	kindText
)

func classify(t string) lineKind {
	switch {
	case isBlank(t):
		return kindBlank
	case isIndented(t):
		return kindIndent
	case bulletRe.MatchString(t):
		return kindBullet
	case enumRe.MatchString(t):
		return kindEnum
	case fieldRe.MatchString(t):
		return kindField
	case doctestRe.MatchString(t):
		return kindDoctest
	case lineBlockRe.MatchString(t):
		return kindLineBlock
	case gridTopRe.MatchString(t):
		return kindGridTable
	case simpleTopRe.MatchString(t):
		return kindSimpleTable
	case explicitRe.MatchString(t):
		return kindExplicit
	case anonymousRe.MatchString(t):
		return kindAnonymous
	case isPunctRun(t):
		return kindLine
	}
	return kindText
}

// isPunctRun reports whether t is a run of one repeated 7-bit punctuation
// character, optionally followed by spaces.
func isPunctRun(t string) bool {
	if t == "" || !isAdornment(t[0]) {
		return false
	}
	c := t[0]
	i := 0
	for i < len(t) && t[i] == c {
		i++
	}
	for i < len(t) && t[i] == ' ' {
		i++
	}
	return i == len(t)
}

func isAdornment(c byte) bool {
	switch {
	case c >= '!' && c <= '/', c >= ':' && c <= '@', c >= '[' && c <= '`', c >= '{' && c <= '~':
		return true
	}
	return false
}

func (st *State) run(lines []source.Line) error {
	for i := 0; i < len(lines); {
		if err := st.p.ctx.Err(); err != nil {
			return err
		}
		if isBlank(lines[i].Text) {
			i++
			continue
		}
		next, err := st.construct(lines, i)
		if err != nil {
			return err
		}
		if next <= i {
			next = i + 1
		}
		i = next
	}
	return nil
}

func (st *State) construct(lines []source.Line, i int) (int, error) {
	switch t := lines[i].Text; classify(t) {
	case kindIndent:
		return st.blockQuote(lines, i)
	case kindBullet:
		return st.bulletList(lines, i)
	case kindEnum:
		return st.enumeratedList(lines, i)
	case kindField:
		return st.fieldList(lines, i)
	case kindDoctest:
		return st.doctestBlock(lines, i)
	case kindLineBlock:
		return st.lineBlock(lines, i)
	case kindGridTable:
		return st.gridTable(lines, i)
	case kindSimpleTable:
		return st.simpleTable(lines, i)
	case kindExplicit:
		return st.explicitList(lines, i)
	case kindAnonymous:
		return st.explicitList(lines, i)
	case kindLine:
		return st.line(lines, i)
	default:
		return st.text(lines, i)
	}
}

// unindentWarning reports a construct that ends without a blank line.
func (st *State) unindentWarning(code diag.Code, what string, at source.Line) error {
	return st.Report(diag.SevWarning, code, at, what+" ends without a blank line; unexpected unindent.", "")
}
