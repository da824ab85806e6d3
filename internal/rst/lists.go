package rst

import (
	"strconv"
	"strings"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/source"
)

func (st *State) bulletList(lines []source.Line, i int) (int, error) {
	bullet := bulletRe.FindStringSubmatch(lines[i].Text)[1]
	list := doctree.New("bullet_list").Set("bullet", bullet)
	list.Line = lines[i].No
	st.Parent().Append(list)

	for {
		m := bulletRe.FindStringSubmatchIndex(lines[i].Text)
		block, end, blankFinish := firstKnownIndented(lines, i, m[1], true)
		item := doctree.New("list_item")
		item.Line = lines[i].No
		list.Append(item)
		if err := st.NestedParse(block, item); err != nil {
			return end, err
		}
		i = end
		if i >= len(lines) {
			return i, nil
		}
		if sm := bulletRe.FindStringSubmatch(lines[i].Text); sm != nil && sm[1] == bullet {
			continue
		}
		if !blankFinish {
			return i, st.unindentWarning(diag.BlkListEnd, "Bullet list", lines[i])
		}
		return i, nil
	}
}

type enumFormat uint8

const (
	fmtPeriod enumFormat = iota + 1
	fmtParens
	fmtRParen
)

type enumSequence uint8

const (
	seqArabic enumSequence = iota + 1
	seqLowerAlpha
	seqUpperAlpha
	seqLowerRoman
	seqUpperRoman
	seqAuto
)

type enumerator struct {
	format  enumFormat
	seq     enumSequence
	ordinal int
	width   int // bytes up to the item text
}

// parseEnumerator interprets an enumerator match. expected, when non-zero, is
// the sequence of the surrounding list and disambiguates "i" and friends.
func parseEnumerator(t string, expected enumSequence) (enumerator, bool) {
	m := enumRe.FindStringSubmatchIndex(t)
	if m == nil {
		return enumerator{}, false
	}
	var e enumerator
	var text string
	if m[2] >= 0 {
		e.format = fmtParens
		text = t[m[2]:m[3]]
	} else {
		text = t[m[4]:m[5]]
		if t[m[6]:m[7]] == "." {
			e.format = fmtPeriod
		} else {
			e.format = fmtRParen
		}
	}
	e.width = m[1]

	switch {
	case text == "#":
		e.seq = seqAuto
		e.ordinal = 1
		return e, true
	case isDigits(text):
		e.seq = seqArabic
		n, err := strconv.Atoi(text)
		if err != nil {
			return enumerator{}, false
		}
		e.ordinal = n
		return e, true
	}

	lower := strings.ToLower(text)
	roman := isRoman(lower)
	switch {
	case len(text) == 1 && roman && (expected == seqLowerRoman || expected == seqUpperRoman || (expected == 0 && lower == "i")):
		e.seq = romanSeq(text)
	case len(text) == 1:
		if text >= "a" && text <= "z" {
			e.seq = seqLowerAlpha
		} else {
			e.seq = seqUpperAlpha
		}
		e.ordinal = int(lower[0]-'a') + 1
		return e, true
	case roman:
		e.seq = romanSeq(text)
	default:
		return enumerator{}, false
	}
	n, ok := romanValue(lower)
	if !ok {
		return enumerator{}, false
	}
	e.ordinal = n
	return e, true
}

func romanSeq(text string) enumSequence {
	if strings.ToLower(text) == text {
		return seqLowerRoman
	}
	return seqUpperRoman
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func isRoman(s string) bool {
	if s == "" {
		return false
	}
	return strings.Trim(s, "ivxlcdm") == ""
}

func romanValue(s string) (int, bool) {
	vals := map[byte]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000}
	total := 0
	for i := 0; i < len(s); i++ {
		v := vals[s[i]]
		if i+1 < len(s) && vals[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	if total <= 0 || toRoman(total) != s {
		return 0, false
	}
	return total, true
}

func toRoman(n int) string {
	table := []struct {
		v int
		s string
	}{{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"}, {100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"}, {10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"}}
	var sb strings.Builder
	for _, e := range table {
		for n >= e.v {
			sb.WriteString(e.s)
			n -= e.v
		}
	}
	return sb.String()
}

// formatEnumerator renders the enumerator for ordinal in the given style.
func formatEnumerator(ordinal int, seq enumSequence, format enumFormat) string {
	var text string
	switch seq {
	case seqArabic:
		text = strconv.Itoa(ordinal)
	case seqLowerAlpha, seqUpperAlpha:
		if ordinal < 1 || ordinal > 26 {
			return ""
		}
		text = string(rune('a' + ordinal - 1))
		if seq == seqUpperAlpha {
			text = strings.ToUpper(text)
		}
	case seqLowerRoman:
		text = toRoman(ordinal)
	case seqUpperRoman:
		text = strings.ToUpper(toRoman(ordinal))
	case seqAuto:
		text = "#"
	}
	switch format {
	case fmtParens:
		return "(" + text + ")"
	case fmtRParen:
		return text + ")"
	}
	return text + "."
}

// isEnumeratedItem rejects "A. Einstein" style paragraphs: the next line must
// be blank, indented or the next enumerator.
func isEnumeratedItem(lines []source.Line, i int, e enumerator) bool {
	if i+1 >= len(lines) {
		return true
	}
	next := lines[i+1].Text
	if next == "" || next[0] == ' ' {
		return true
	}
	if want := formatEnumerator(e.ordinal+1, e.seq, e.format); want != "" && strings.HasPrefix(next, want) {
		return true
	}
	return strings.HasPrefix(next, formatEnumerator(0, seqAuto, e.format))
}

func (st *State) enumeratedList(lines []source.Line, i int) (int, error) {
	first, ok := parseEnumerator(lines[i].Text, 0)
	if !ok || !isEnumeratedItem(lines, i, first) {
		return st.text(lines, i)
	}
	list := doctree.New("enumerated_list")
	list.Line = lines[i].No
	st.Parent().Append(list)

	e := first
	for {
		block, end, blankFinish := firstKnownIndented(lines, i, e.width, true)
		item := doctree.New("list_item")
		item.Line = lines[i].No
		list.Append(item)
		if err := st.NestedParse(block, item); err != nil {
			return end, err
		}
		i = end
		if i >= len(lines) {
			return i, nil
		}
		next, ok := parseEnumerator(lines[i].Text, first.seq)
		if ok && next.format == e.format &&
			(next.seq == e.seq || next.seq == seqAuto) &&
			(next.seq == seqAuto || next.ordinal == e.ordinal+1) &&
			isEnumeratedItem(lines, i, next) {
			if next.seq == seqAuto {
				next.seq = e.seq
				next.ordinal = e.ordinal + 1
			}
			e = next
			continue
		}
		if !blankFinish {
			return i, st.unindentWarning(diag.BlkEnumerationSequence, "Enumerated list", lines[i])
		}
		return i, nil
	}
}

func (st *State) fieldList(lines []source.Line, i int) (int, error) {
	list := doctree.New("field_list")
	list.Line = lines[i].No
	parent := st.Parent()
	parent.Append(list)
	for {
		m := fieldRe.FindStringSubmatchIndex(lines[i].Text)
		name := lines[i].Text[m[2]:m[3]]
		block, end, blankFinish := firstKnownIndented(lines, i, m[1], true)

		field := doctree.New("field")
		field.Line = lines[i].No
		list.Append(field)
		field.Append(doctree.NewTextElement("field_name", name))
		body := doctree.New("field_body")
		field.Append(body)
		if err := st.inline(name, lines[i], body); err != nil {
			return end, err
		}
		if err := st.NestedParse(block, body); err != nil {
			return end, err
		}
		i = end
		if i >= len(lines) {
			return i, nil
		}
		if fieldRe.MatchString(lines[i].Text) {
			continue
		}
		if !blankFinish {
			return i, st.unindentWarning(diag.BlkFieldListEnd, "Field list", lines[i])
		}
		return i, nil
	}
}
