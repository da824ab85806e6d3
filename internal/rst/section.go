package rst

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/source"
)

// underlinedTitle handles "Title\n=====". ok is false when the underline is
// too short to count and the lines should be read as a paragraph.
func (st *State) underlinedTitle(lines []source.Line, i int) (int, bool, error) {
	titleLine, ulLine := lines[i], lines[i+1]
	title := strings.TrimRight(titleLine.Text, " ")
	underline := strings.TrimRight(ulLine.Text, " ")
	blockText := titleLine.Text + "\n" + ulLine.Text

	var messages []*doctree.Node
	if runewidth.StringWidth(title) > len(underline) {
		if len(underline) < 4 {
			if st.titles != nil {
				node, err := st.p.report(diag.SevInfo, diag.SecUnderlineTooShort, ulLine,
					"Possible title underline, too short for the title.\nTreating it as ordinary text because it's so short.", "")
				st.Parent().Append(node)
				if err != nil {
					return i + 2, true, err
				}
			}
			return i, false, nil
		}
		node, err := st.p.report(diag.SevWarning, diag.SecUnderlineTooShort, ulLine, "Title underline too short.", blockText)
		if err != nil {
			st.Parent().Append(node)
			return i + 2, true, err
		}
		messages = append(messages, node)
	}
	if st.titles == nil {
		parent := st.Parent()
		parent.Append(messages...)
		return i + 2, true, st.Report(diag.SevSevere, diag.SecUnexpectedTitle, ulLine, "Unexpected section title.", blockText)
	}
	return i + 2, true, st.section(title, underline[:1], titleLine, blockText, messages)
}

// line handles a line made of one repeated punctuation character: a
// transition or the overline of a title.
func (st *State) line(lines []source.Line, i int) (int, error) {
	overLine := lines[i]
	overline := strings.TrimRight(overLine.Text, " ")
	marker := strings.TrimSpace(overline)

	if st.titles == nil {
		if marker == "::" || len(marker) < 4 {
			return st.paragraph(lines, i)
		}
		return i + 1, st.Report(diag.SevSevere, diag.SecUnexpectedTitle, overLine,
			"Unexpected section title or transition.", overLine.Text)
	}

	if i+1 >= len(lines) || isBlank(lines[i+1].Text) {
		if len(marker) < 4 {
			return st.paragraph(lines, i)
		}
		tr := doctree.New("transition")
		tr.Line = overLine.No
		st.Parent().Append(tr)
		return i + 1, nil
	}

	titleLine := lines[i+1]
	if isPunctRun(titleLine.Text) {
		if len(overline) < 4 {
			return st.paragraph(lines, i)
		}
		blockText := overLine.Text + "\n" + titleLine.Text
		return i + 2, st.Report(diag.SevError, diag.SecOverlineMismatch, overLine,
			"Invalid section title or transition marker.", blockText)
	}

	if i+2 >= len(lines) {
		if len(overline) < 4 {
			return st.paragraph(lines, i)
		}
		return i + 2, st.Report(diag.SevSevere, diag.SecIncompleteTitle, overLine,
			"Incomplete section title.", overLine.Text+"\n"+titleLine.Text)
	}

	ulLine := lines[i+2]
	underline := strings.TrimRight(ulLine.Text, " ")
	blockText := overLine.Text + "\n" + titleLine.Text + "\n" + ulLine.Text
	switch {
	case !isPunctRun(underline):
		if len(overline) < 4 {
			return st.paragraph(lines, i)
		}
		return i + 3, st.Report(diag.SevSevere, diag.SecOverlineMismatch, overLine,
			"Missing matching underline for section title overline.", blockText)
	case overline != underline:
		if len(overline) < 4 {
			return st.paragraph(lines, i)
		}
		return i + 3, st.Report(diag.SevSevere, diag.SecOverlineMismatch, overLine,
			"Title overline & underline mismatch.", blockText)
	}

	title := strings.TrimSpace(titleLine.Text)
	var messages []*doctree.Node
	if runewidth.StringWidth(title) > len(overline) {
		if len(overline) < 4 {
			return st.paragraph(lines, i)
		}
		node, err := st.p.report(diag.SevWarning, diag.SecUnderlineTooShort, overLine, "Title overline too short.", blockText)
		if err != nil {
			st.Parent().Append(node)
			return i + 3, err
		}
		messages = append(messages, node)
	}
	return i + 3, st.section(title, overline[:1]+underline[:1], titleLine, blockText, messages)
}

// section opens a new section at the level implied by style. Styles are
// numbered in order of first appearance.
func (st *State) section(title, style string, at source.Line, blockText string, messages []*doctree.Node) error {
	tc := st.titles
	level := 0
	for k, s := range tc.styles {
		if s == style {
			level = k + 1
			break
		}
	}
	switch {
	case level == 0 && len(tc.styles) == tc.level():
		tc.styles = append(tc.styles, style)
		level = tc.level() + 1
	case level == 0:
		return st.Report(diag.SevSevere, diag.SecTitleLevelInconsistent, at, "Title level inconsistent:", blockText)
	case level <= tc.level():
		tc.stack = tc.stack[:level]
	case level != tc.level()+1:
		return st.Report(diag.SevSevere, diag.SecTitleLevelInconsistent, at, "Title level inconsistent:", blockText)
	}

	sec := doctree.New("section")
	sec.Line = at.No
	name := normalizeName(title)
	sec.Set("names", name).Set("ids", makeID(name))
	tc.top().Append(sec)
	tc.stack = append(tc.stack, sec)

	t := doctree.NewTextElement("title", title)
	t.Line = at.No
	sec.Append(t)
	sec.Append(messages...)
	return st.inline(title, at, sec)
}

// normalizeName lowercases and collapses whitespace, the way reference names
// are normalised.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// makeID turns a name into an identifier: ASCII letters and digits separated
// by single hyphens.
func makeID(s string) string {
	var sb strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingDash = sb.Len() > 0
			continue
		}
		if pendingDash {
			sb.WriteByte('-')
			pendingDash = false
		}
		sb.WriteRune(r)
	}
	id := sb.String()
	if id != "" && id[0] >= '0' && id[0] <= '9' {
		id = "id" + id
	}
	return id
}
