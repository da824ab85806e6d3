package rst

import (
	"strings"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/source"
)

// Tables are kept opaque: the node stores the raw table text and only the
// cell text is checked for roles.

func (st *State) gridTable(lines []source.Line, i int) (int, error) {
	end := i
	var unexpected *source.Line
	for end < len(lines) && !isBlank(lines[end].Text) {
		if end > i && isIndented(lines[end].Text) {
			l := lines[end]
			unexpected = &l
			break
		}
		end++
	}
	block := lines[i:end]
	for k, l := range block {
		if c := l.Text[0]; c != '+' && c != '|' {
			block = block[:k]
			end = i + k
			break
		}
	}
	if unexpected != nil {
		if err := st.Report(diag.SevError, diag.BlkUnexpectedIndentation, *unexpected, "Unexpected indentation.", ""); err != nil {
			return end, err
		}
	}

	width := len(block[0].Text)
	malformed := !gridTopRe.MatchString(block[len(block)-1].Text)
	if !malformed {
		for _, l := range block {
			t := l.Text
			if len(t) != width || (t[len(t)-1] != '+' && t[len(t)-1] != '|') {
				malformed = true
				break
			}
		}
	}
	if malformed {
		return end, st.Report(diag.SevError, diag.BlkMalformedTable, lines[i], "Malformed table.", joinText(block))
	}

	parent := st.Parent()
	table := doctree.NewTextElement("table", joinText(block)).Set("format", "grid")
	table.Line = lines[i].No
	parent.Append(table)
	for _, l := range block {
		if !strings.HasPrefix(l.Text, "|") {
			continue
		}
		for _, cell := range strings.Split(strings.Trim(l.Text, "|"), "|") {
			if err := st.inline(strings.TrimSpace(cell), l, parent); err != nil {
				return end, err
			}
		}
	}
	return end, nil
}

func (st *State) simpleTable(lines []source.Line, i int) (int, error) {
	topLen := len(strings.TrimSpace(lines[i].Text))
	found := 0
	foundAt := -1
	end := -1
	for k := i + 1; k < len(lines); k++ {
		t := lines[k].Text
		if !simpleTopRe.MatchString(t) {
			continue
		}
		if len(strings.TrimSpace(t)) != topLen {
			next := k + 1
			return next, st.Report(diag.SevError, diag.BlkMalformedTable, lines[i],
				"Malformed table.\nBottom/header table border does not match top border.", joinText(lines[i:k+1]))
		}
		found++
		foundAt = k
		if found == 2 || k == len(lines)-1 || isBlank(lines[k+1].Text) {
			end = k
			break
		}
	}
	if end < 0 {
		if found > 0 {
			return foundAt + 1, st.Report(diag.SevError, diag.BlkMalformedTable, lines[i],
				"Malformed table.\nNo bottom table border found or no blank line after table bottom.", joinText(lines[i:foundAt+1]))
		}
		return len(lines), st.Report(diag.SevError, diag.BlkMalformedTable, lines[i],
			"Malformed table.\nNo bottom table border found.", joinText(lines[i:]))
	}

	block := lines[i : end+1]
	parent := st.Parent()
	table := doctree.NewTextElement("table", joinText(block)).Set("format", "simple")
	table.Line = lines[i].No
	parent.Append(table)
	for _, l := range block {
		if simpleTopRe.MatchString(l.Text) || isBlank(l.Text) {
			continue
		}
		if err := st.inline(strings.TrimSpace(l.Text), l, parent); err != nil {
			return end + 1, err
		}
	}
	return end + 1, nil
}
