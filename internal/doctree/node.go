package doctree

import (
	"sort"
	"strings"
)

// TextTag is the tag of leaf text nodes.
const TextTag = "#text"

// Node is one element of a parsed document. Element nodes carry a tag and
// attributes, text nodes carry Text. Parent links are rebuilt after decoding.
type Node struct {
	Tag      string            `msgpack:"tag" json:"tag"`
	Attrs    map[string]string `msgpack:"attrs,omitempty" json:"attrs,omitempty"`
	Text     string            `msgpack:"text,omitempty" json:"text,omitempty"`
	Line     uint32            `msgpack:"line,omitempty" json:"line,omitempty"`
	Children []*Node           `msgpack:"children,omitempty" json:"children,omitempty"`
	Parent   *Node             `msgpack:"-" json:"-"`
}

// New creates an element node.
func New(tag string) *Node {
	return &Node{Tag: tag}
}

// NewText creates a text leaf.
func NewText(text string) *Node {
	return &Node{Tag: TextTag, Text: text}
}

// NewTextElement creates an element holding a single text child, e.g. a
// paragraph or title.
func NewTextElement(tag, text string) *Node {
	n := New(tag)
	if text != "" {
		n.Append(NewText(text))
	}
	return n
}

// IsText reports whether n is a text leaf.
func (n *Node) IsText() bool {
	return n != nil && n.Tag == TextTag
}

// Append attaches children to n, detaching them from their previous parent.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.Parent != nil && c.Parent != n {
			c.Parent.Remove(c)
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Remove detaches child from n. It is a no-op when child is not a child of n.
func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// TakeChildren detaches and returns all children of n.
func (n *Node) TakeChildren() []*Node {
	out := n.Children
	n.Children = nil
	for _, c := range out {
		c.Parent = nil
	}
	return out
}

// Get returns an attribute value, "" when unset.
func (n *Node) Get(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// Has reports whether the attribute is present (even if empty).
func (n *Node) Has(key string) bool {
	if n == nil || n.Attrs == nil {
		return false
	}
	_, ok := n.Attrs[key]
	return ok
}

// Set assigns an attribute and returns n for chaining.
func (n *Node) Set(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string, 4)
	}
	n.Attrs[key] = value
	return n
}

// AddClass appends to the space separated "classes" attribute.
func (n *Node) AddClass(classes ...string) *Node {
	cur := n.Get("classes")
	for _, c := range classes {
		if c == "" {
			continue
		}
		if cur == "" {
			cur = c
		} else {
			cur += " " + c
		}
	}
	if cur != "" {
		n.Set("classes", cur)
	}
	return n
}

// SortedKeys returns attribute names in lexical order.
func (n *Node) SortedKeys() []string {
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FirstChild returns the first direct child with the given tag.
func (n *Node) FirstChild(tag string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// Walk visits n and its descendants depth-first. Returning false from fn skips
// the subtree of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// FindAll collects every descendant (including n) with the given tag.
func (n *Node) FindAll(tag string) []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		if x.Tag == tag {
			out = append(out, x)
		}
		return true
	})
	return out
}

// Ancestor returns the closest strict ancestor with the given tag.
func (n *Node) Ancestor(tag string) *Node {
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Tag == tag {
			return p
		}
	}
	return nil
}

// AsText concatenates every text leaf below n.
func (n *Node) AsText() string {
	var sb strings.Builder
	n.Walk(func(x *Node) bool {
		if x.IsText() {
			sb.WriteString(x.Text)
		}
		return true
	})
	return sb.String()
}

// Relink restores Parent pointers below n. Used after decoding.
func (n *Node) Relink() {
	for _, c := range n.Children {
		c.Parent = n
		c.Relink()
	}
}
