package rst

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"deprecdoc/internal/diag"
	"deprecdoc/internal/doctree"
	"deprecdoc/internal/source"
)

var rolePrefixRe = regexp.MustCompile(`^:(` + simpleName + `):`)

// inline scans text for interpreted text and reports roles that are not
// registered. Only role names are inspected; no inline nodes are built.
func (st *State) inline(text string, at source.Line, into *doctree.Node) error {
	for _, role := range interpretedRoles(text) {
		if role == "" {
			role = st.p.env.DefaultRole
			if role == "" {
				continue
			}
		}
		if st.p.knownRole(strings.ToLower(role)) {
			continue
		}
		node, err := st.p.report(diag.SevError, diag.RoleUnknown, at,
			fmt.Sprintf("Unknown interpreted text role %q.", role), "")
		into.Append(node)
		if err != nil {
			return err
		}
	}
	return nil
}

// interpretedRoles returns, in order, the role of every interpreted text
// span in text. Spans without an explicit role yield "".
func interpretedRoles(text string) []string {
	var roles []string
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\\':
			i += 2
			continue
		case c == '`' && strings.HasPrefix(text[i:], "``") && startOK(text, i):
			if end := findEnd(text, i+2, "``"); end >= 0 {
				i = end + 2
				continue
			}
			i += 2
			continue
		case c == ':' && startOK(text, i):
			if m := rolePrefixRe.FindStringSubmatch(text[i:]); m != nil {
				open := i + len(m[0])
				if open < len(text) && text[open] == '`' && !strings.HasPrefix(text[open:], "``") {
					if end := findEnd(text, open+1, "`"); end >= 0 {
						roles = append(roles, m[1])
						i = end + 1
						continue
					}
				}
			}
		case c == '`' && startOK(text, i):
			if end := findEnd(text, i+1, "`"); end >= 0 {
				after := end + 1
				if after < len(text) && text[after] == '_' {
					i = after + 1
					continue
				}
				if m := rolePrefixRe.FindStringSubmatch(text[after:]); m != nil {
					roles = append(roles, m[1])
					i = after + len(m[0])
					continue
				}
				roles = append(roles, "")
				i = after
				continue
			}
		}
		i++
	}
	return roles
}

// startOK applies the inline markup start-string rule: the marker is at the
// start of text or follows whitespace or opening punctuation.
func startOK(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	if unicode.IsSpace(r) {
		return true
	}
	if strings.ContainsRune(`'"([{<-/:`, r) {
		return true
	}
	return unicode.In(r, unicode.Ps, unicode.Pi, unicode.Pf, unicode.Pd, unicode.Po)
}

// findEnd finds the end-string marker starting the search at from. The end
// string must follow a non-space character and must not be escaped.
func findEnd(text string, from int, marker string) int {
	if from >= len(text) || text[from] == ' ' || text[from] == '\n' {
		return -1
	}
	for k := from; k < len(text); k++ {
		if text[k] == '\\' {
			k++
			continue
		}
		if !strings.HasPrefix(text[k:], marker) || k == from {
			continue
		}
		prev := text[k-1]
		if prev == ' ' || prev == '\n' {
			continue
		}
		if marker == "`" && strings.HasPrefix(text[k:], "``") {
			continue
		}
		return k
	}
	return -1
}
