package rst

import (
	"regexp"
	"strings"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/source"
)

func (st *State) blockQuote(lines []source.Line, i int) (int, error) {
	block, end, blankFinish := indentedBlock(lines, i)
	quote := doctree.New("block_quote")
	quote.Line = lines[i].No
	st.Parent().Append(quote)
	if err := st.NestedParse(block, quote); err != nil {
		return end, err
	}
	if !blankFinish && end < len(lines) {
		if err := st.unindentWarning(diag.BlkBlockQuoteEnd, "Block quote", lines[end]); err != nil {
			return end, err
		}
	}
	return end, nil
}

// text handles a line that starts no other construct: a paragraph, a section
// title with underline, or a definition list.
func (st *State) text(lines []source.Line, i int) (int, error) {
	if i+1 < len(lines) {
		next := lines[i+1].Text
		switch {
		case isBlank(next):
		case isIndented(next):
			return st.definitionList(lines, i)
		case isPunctRun(next):
			if end, ok, err := st.underlinedTitle(lines, i); ok || err != nil {
				return end, err
			}
		}
	}
	return st.paragraph(lines, i)
}

// paragraph collects lines until a blank line. An indented line inside the
// paragraph ends it with an "Unexpected indentation." error.
func (st *State) paragraph(lines []source.Line, i int) (int, error) {
	end := i + 1
	var unexpected *source.Line
	for end < len(lines) {
		t := lines[end].Text
		if isBlank(t) {
			break
		}
		if isIndented(t) {
			l := lines[end]
			unexpected = &l
			break
		}
		end++
	}
	block := lines[i:end]
	data := strings.TrimRight(joinText(block), " \n")

	literalNext := false
	text := data
	if hasLiteralMarker(data) {
		literalNext = true
		switch {
		case len(data) == 2:
			text = ""
		case data[len(data)-3] == ' ' || data[len(data)-3] == '\n':
			text = strings.TrimRight(data[:len(data)-3], " \n")
		default:
			text = data[:len(data)-1]
		}
	}

	parent := st.Parent()
	if text != "" {
		para := doctree.NewTextElement("paragraph", text)
		para.Line = lines[i].No
		parent.Append(para)
		if err := st.inline(text, lines[i], parent); err != nil {
			return end, err
		}
	}
	if unexpected != nil {
		if err := st.Report(diag.SevError, diag.BlkUnexpectedIndentation, *unexpected, "Unexpected indentation.", ""); err != nil {
			return end, err
		}
	}
	if literalNext {
		return st.literalBlock(lines, end)
	}
	return end, nil
}

var literalMarkerRe = regexp.MustCompile(`(?:^|[^\\])(?:\\\\)*::$`)

func hasLiteralMarker(data string) bool {
	return literalMarkerRe.MatchString(data)
}

func (st *State) literalBlock(lines []source.Line, i int) (int, error) {
	var at source.Line
	if i < len(lines) {
		at = lines[i]
	} else if len(lines) > 0 {
		at = lines[len(lines)-1]
	}
	block, end, blankFinish := indentedBlock(lines, i)
	block = trimBlankEnd(block)
	if len(block) == 0 {
		return end, st.Report(diag.SevWarning, diag.BlkLiteralBlockExpected, at, "Literal block expected; none found.", "")
	}
	lit := doctree.NewTextElement("literal_block", joinText(block))
	lit.Line = block[0].No
	st.Parent().Append(lit)
	if !blankFinish && end < len(lines) {
		if err := st.unindentWarning(diag.BlkInconsistentLiteral, "Literal block", lines[end]); err != nil {
			return end, err
		}
	}
	return end, nil
}

func (st *State) definitionList(lines []source.Line, i int) (int, error) {
	dl := doctree.New("definition_list")
	dl.Line = lines[i].No
	st.Parent().Append(dl)
	for {
		term := lines[i]
		block, end, blankFinish := indentedBlock(lines, i+1)

		item := doctree.New("definition_list_item")
		item.Line = term.No
		dl.Append(item)
		parts := strings.Split(term.Text, " : ")
		termNode := doctree.NewTextElement("term", strings.TrimSpace(parts[0]))
		item.Append(termNode)
		for _, c := range parts[1:] {
			item.Append(doctree.NewTextElement("classifier", strings.TrimSpace(c)))
		}
		def := doctree.New("definition")
		item.Append(def)
		if err := st.inline(term.Text, term, def); err != nil {
			return end, err
		}
		if strings.HasSuffix(term.Text, "::") {
			node, err := st.p.report(diag.SevInfo, diag.BlkLiteralBlockExpected, term,
				`Blank line missing before literal block (after the "::")? Interpreted as a definition list item.`, "")
			def.Append(node)
			if err != nil {
				return end, err
			}
		}
		if err := st.NestedParse(block, def); err != nil {
			return end, err
		}

		i = end
		if i+1 < len(lines) && classify(lines[i].Text) == kindText && classify(lines[i+1].Text) == kindIndent {
			continue
		}
		if !blankFinish && i < len(lines) {
			return i, st.unindentWarning(diag.BlkDefinitionListEnd, "Definition list", lines[i])
		}
		return i, nil
	}
}

func (st *State) doctestBlock(lines []source.Line, i int) (int, error) {
	end := i
	for end < len(lines) && !isBlank(lines[end].Text) {
		end++
	}
	node := doctree.NewTextElement("doctest_block", joinText(lines[i:end]))
	node.Line = lines[i].No
	st.Parent().Append(node)
	return end, nil
}

func (st *State) lineBlock(lines []source.Line, i int) (int, error) {
	block := doctree.New("line_block")
	block.Line = lines[i].No
	parent := st.Parent()
	parent.Append(block)
	end := i
	for end < len(lines) && !isBlank(lines[end].Text) {
		t := lines[end].Text
		if m := lineBlockRe.FindStringIndex(t); m != nil {
			t = t[m[1]:]
		} else {
			t = strings.TrimSpace(t)
		}
		line := doctree.NewTextElement("line", t)
		line.Line = lines[end].No
		block.Append(line)
		if err := st.inline(t, lines[end], parent); err != nil {
			return end, err
		}
		end++
	}
	return end, nil
}
