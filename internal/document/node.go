package document

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockAtoms lists the elements that break inline flow. An annotation span
// may never contain one of these.
var blockAtoms = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Br:         true,
	atom.Li:         true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Blockquote: true,
	atom.Pre:        true,
	atom.Table:      true,
	atom.Tr:         true,
	atom.Td:         true,
	atom.Hr:         true,
}

// IsText reports whether n is a text node.
func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// IsBlock reports whether n is an element that starts a new line of text.
func IsBlock(n *html.Node) bool {
	if !IsElement(n) {
		return false
	}
	if n.DataAtom != 0 {
		return blockAtoms[n.DataAtom]
	}
	return blockAtoms[atom.Lookup([]byte(n.Data))]
}

// NewText creates a detached text node.
func NewText(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// NewElement creates a detached element with the given attributes.
// Attributes are passed as key/value pairs.
func NewElement(tag string, kv ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return n
}

// Attr returns the value of the named attribute.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether the class attribute of n contains class.
func HasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// ChildCount returns the number of children of n.
func ChildCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// ChildAt returns the i-th child of n, or nil if i is out of range.
func ChildAt(n *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// ChildIndex returns the position of n among its siblings.
func ChildIndex(n *html.Node) int {
	i := 0
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		i++
	}
	return i
}

// Closest returns the nearest inclusive ancestor of n matching pred.
func Closest(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for ; n != nil; n = n.Parent {
		if pred(n) {
			return n
		}
	}
	return nil
}

// IsAncestor reports whether a is a proper ancestor of n.
func IsAncestor(a, n *html.Node) bool {
	if a == nil || n == nil {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants in tree order. Returning false from fn
// skips the children of the visited node.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// TextOf returns the concatenated text content of n.
func TextOf(n *html.Node) string {
	var b strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// TextLen returns the byte length of the text content of n.
func TextLen(n *html.Node) ByteOffset {
	var total ByteOffset
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			total += ByteOffset(len(c.Data))
		}
		return true
	})
	return total
}

// InsertAfter inserts the detached node n immediately after ref.
func InsertAfter(ref, n *html.Node) {
	if ref.NextSibling != nil {
		ref.Parent.InsertBefore(n, ref.NextSibling)
		return
	}
	ref.Parent.AppendChild(n)
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// SplitText splits the text node n at byte offset off. n keeps the text
// before off and the returned node, inserted right after n, holds the rest.
func SplitText(n *html.Node, off int) (*html.Node, error) {
	if !IsText(n) {
		return nil, ErrNotText
	}
	if off < 0 || off > len(n.Data) {
		return nil, ErrOffsetOutOfRange
	}
	if off < len(n.Data) && !utf8.RuneStart(n.Data[off]) {
		return nil, ErrSplitsRune
	}
	rest := NewText(n.Data[off:])
	n.Data = n.Data[:off]
	InsertAfter(n, rest)
	return rest, nil
}

// Unwrap splices the children of n into its parent in place of n and removes
// n. It returns the first and last spliced node, both nil if n was empty.
func Unwrap(n *html.Node) (first, last *html.Node) {
	parent := n.Parent
	if parent == nil {
		return nil, nil
	}
	first, last = n.FirstChild, n.LastChild
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)
	return first, last
}

// Normalize merges adjacent text nodes and drops empty ones throughout the
// subtree rooted at n.
func Normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.TextNode && c.Data == "":
			n.RemoveChild(c)
		case c.Type == html.TextNode:
			for next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				after := next.NextSibling
				n.RemoveChild(next)
				next = after
			}
		case c.Type == html.ElementNode:
			Normalize(c)
		}
		c = next
	}
}
