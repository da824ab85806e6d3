package rst

import (
	"strings"

	"deprecdoc/internal/source"
)

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isIndented(s string) bool {
	return s != "" && s[0] == ' '
}

func indentOf(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}

// cut drops the first n bytes of s, like a Python slice s[n:].
func cut(s string, n int) string {
	if n >= len(s) {
		return ""
	}
	return s[n:]
}

func joinText(lines []source.Line) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.Text)
	}
	return sb.String()
}

func trimBlankTop(block []source.Line) []source.Line {
	for len(block) > 0 && isBlank(block[0].Text) {
		block = block[1:]
	}
	return block
}

func trimBlankEnd(block []source.Line) []source.Line {
	for len(block) > 0 && isBlank(block[len(block)-1].Text) {
		block = block[:len(block)-1]
	}
	return block
}

// getIndented collects the indented block starting at start. blockIndent and
// firstIndent are -1 when unknown. It returns the dedented block, the detected
// indentation, the index of the first line after the block and whether the
// block ended with a blank line (or end of input).
func getIndented(lines []source.Line, start int, untilBlank bool, blockIndent, firstIndent int) ([]source.Line, int, int, bool) {
	indent := blockIndent
	end := start
	if blockIndent >= 0 && firstIndent < 0 {
		firstIndent = blockIndent
	}
	if firstIndent >= 0 {
		end++
	}
	blankFinish := true
	for end < len(lines) {
		t := lines[end].Text
		if t != "" && (t[0] != ' ' || (blockIndent >= 0 && strings.TrimSpace(t[:min(blockIndent, len(t))]) != "")) {
			blankFinish = end > start && isBlank(lines[end-1].Text)
			break
		}
		stripped := strings.TrimLeft(t, " ")
		if stripped == "" {
			if untilBlank {
				blankFinish = true
				break
			}
		} else if blockIndent < 0 {
			li := len(t) - len(stripped)
			if indent < 0 || li < indent {
				indent = li
			}
		}
		end++
	}
	if end > len(lines) {
		end = len(lines)
	}

	block := make([]source.Line, end-start)
	copy(block, lines[start:end])
	if firstIndent >= 0 && len(block) > 0 {
		block[0].Text = cut(block[0].Text, firstIndent)
	}
	if indent > 0 {
		from := 0
		if firstIndent >= 0 {
			from = 1
		}
		for k := from; k < len(block); k++ {
			block[k].Text = cut(block[k].Text, indent)
		}
	}
	return block, max(indent, 0), end, blankFinish
}

// indentedBlock is the block that starts at an indented line.
func indentedBlock(lines []source.Line, start int) ([]source.Line, int, bool) {
	block, _, end, blankFinish := getIndented(lines, start, false, -1, -1)
	return trimBlankTop(block), end, blankFinish
}

// firstKnownIndented is the block whose first line starts after a marker of
// width firstIndent (list bullets, explicit markup).
func firstKnownIndented(lines []source.Line, start, firstIndent int, stripTop bool) ([]source.Line, int, bool) {
	block, _, end, blankFinish := getIndented(lines, start, false, -1, firstIndent)
	if stripTop {
		block = trimBlankTop(block)
	}
	return block, end, blankFinish
}

// rawBlock returns the undedented lines of an explicit construct starting at
// start, for use in diagnostics.
func rawBlock(lines []source.Line, start int) ([]source.Line, int, bool) {
	_, _, end, blankFinish := getIndented(lines, start, false, -1, 0)
	return lines[start:end], end, blankFinish
}
