package hostdom

import (
	"sort"
	"strings"
)

// NodeKind identifies a tree node.
type NodeKind uint8

const (
	// ElementNode is a tagged element with attributes and children.
	ElementNode NodeKind = iota
	// TextNode holds character data.
	TextNode
	// PlaceholderNode is an invisible anchor (a comment node in a real
	// DOM).
	PlaceholderNode
)

// Node is one node of the host tree.
type Node struct {
	Kind      NodeKind
	Tag       string
	Text      string
	Attrs     map[string]string
	Listeners map[string]bool
	Children  []*Node

	parent *Node
}

// Attr returns an attribute value, or "" when unset.
func (n *Node) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// HasListener reports whether an event listener is registered.
func (n *Node) HasListener(event string) bool {
	return n.Listeners[event]
}

// size counts this node and all descendants.
func (n *Node) size() int {
	total := 1
	for _, c := range n.Children {
		total += c.size()
	}
	return total
}

// textContent concatenates the text of the subtree, in order.
func (n *Node) textContent(sb *strings.Builder) {
	if n.Kind == TextNode {
		sb.WriteString(n.Text)
	}
	for _, c := range n.Children {
		c.textContent(sb)
	}
}

// TextContent returns the concatenated text of the subtree.
func (n *Node) TextContent() string {
	var sb strings.Builder
	n.textContent(&sb)
	return sb.String()
}

// render writes an HTML-ish rendering, placeholders as comments.
func (n *Node) render(sb *strings.Builder) {
	switch n.Kind {
	case TextNode:
		sb.WriteString(n.Text)
	case PlaceholderNode:
		sb.WriteString("<!---->")
	case ElementNode:
		sb.WriteByte('<')
		sb.WriteString(n.Tag)
		names := make([]string, 0, len(n.Attrs))
		for name := range n.Attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sb.WriteByte(' ')
			sb.WriteString(name)
			sb.WriteString(`="`)
			sb.WriteString(n.Attrs[name])
			sb.WriteByte('"')
		}
		sb.WriteByte('>')
		for _, c := range n.Children {
			c.render(sb)
		}
		sb.WriteString("</")
		sb.WriteString(n.Tag)
		sb.WriteByte('>')
	}
}

// Render returns an HTML-ish rendering of the subtree for assertions
// and demos.
func (n *Node) Render() string {
	var sb strings.Builder
	n.render(&sb)
	return sb.String()
}

// indexIn returns the node's position among its parent's children.
func (n *Node) indexIn(parent *Node) int {
	for i, c := range parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}
