package doctree

import (
	"io"
	"strings"
)

// Pformat renders the tree in the indented pseudo-XML form docutils uses for
// debugging output.
func (n *Node) Pformat(indent string) string {
	var sb strings.Builder
	n.pformat(&sb, indent, 0)
	return sb.String()
}

// WritePseudoXML writes Pformat output with a four-space indent.
func WritePseudoXML(w io.Writer, n *Node) error {
	_, err := io.WriteString(w, n.Pformat("    "))
	return err
}

func (n *Node) pformat(sb *strings.Builder, indent string, depth int) {
	prefix := strings.Repeat(indent, depth)
	if n.IsText() {
		for _, line := range strings.Split(n.Text, "\n") {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		return
	}
	sb.WriteString(prefix)
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	for _, k := range n.SortedKeys() {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(escapeAttr(n.Attrs[k]))
		sb.WriteByte('"')
	}
	sb.WriteString(">\n")
	for _, c := range n.Children {
		c.pformat(sb, indent, depth+1)
	}
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;", "\n", "&#10;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
