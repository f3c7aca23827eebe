package html

import (
	"strings"
)

// NodeID is a stable index into a Document's element arena.
type NodeID int

// NoNode is the ID carried by text nodes and detached elements.
const NoNode NodeID = -1

// XHTMLNamespace is the namespace of every element parsed from HTML.
const XHTMLNamespace = "http://www.w3.org/1999/xhtml"

type Node struct {
	ID         NodeID
	Type       NodeType
	TagName    string
	Namespace  string
	Attributes map[string]string
	Text       string
	Children   []*Node
	Parent     *Node
}

type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

// StyleSource is a stylesheet referenced by the document, either inline
// from a <style> element or linked with <link rel="stylesheet">.
type StyleSource struct {
	Text  string
	Href  string
	Media string
}

type Document struct {
	Root        *Node
	Stylesheets []StyleSource

	nodes   []*Node
	visited map[string]struct{}
}

func NewDocument() *Document {
	d := &Document{
		Stylesheets: make([]StyleSource, 0),
		visited:     make(map[string]struct{}),
	}
	d.Root = d.CreateElement("document", nil)
	return d
}

// CreateElement allocates an element in the document arena. The element is
// detached until added to a parent.
func (d *Document) CreateElement(tag string, attrs map[string]string) *Node {
	n := &Node{
		ID:         NodeID(len(d.nodes)),
		Type:       ElementNode,
		TagName:    strings.ToLower(tag),
		Namespace:  XHTMLNamespace,
		Attributes: attrs,
		Children:   make([]*Node, 0),
	}
	d.nodes = append(d.nodes, n)
	return n
}

// Node returns the element with the given ID, or nil.
func (d *Document) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(d.nodes) {
		return nil
	}
	return d.nodes[id]
}

// Elements returns the IDs of every element attached below the root, in
// document order. The synthetic root is not included.
func (d *Document) Elements() []NodeID {
	ids := make([]NodeID, 0, len(d.nodes))
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			if c.Type != ElementNode {
				continue
			}
			ids = append(ids, c.ID)
			walk(c)
		}
	}
	walk(d.Root)
	return ids
}

// ElementByID finds the first element whose id attribute equals id.
func (d *Document) ElementByID(id string) *Node {
	for _, e := range d.Elements() {
		if v, ok := d.nodes[e].GetAttribute("id"); ok && v == id {
			return d.nodes[e]
		}
	}
	return nil
}

// ElementsByTag returns the elements with the given tag name in document order.
func (d *Document) ElementsByTag(tag string) []*Node {
	var out []*Node
	for _, e := range d.Elements() {
		if d.nodes[e].TagName == tag {
			out = append(out, d.nodes[e])
		}
	}
	return out
}

// MarkVisited records a link target as visited for :visited matching.
func (d *Document) MarkVisited(uri string) {
	d.visited[uri] = struct{}{}
}

func (n *Node) GetAttribute(name string) (string, bool) {
	if n.Attributes == nil {
		return "", false
	}
	val, ok := n.Attributes[name]
	return val, ok
}

// AddChild adds a child node and sets up the parent relationship
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// AppendText creates a text node and adds it as a child
func (n *Node) AppendText(text string) {
	if text == "" {
		return
	}
	n.Children = append(n.Children, &Node{
		ID:     NoNode,
		Type:   TextNode,
		Text:   text,
		Parent: n,
	})
}

// RemoveChild removes the given child from this node's children list,
// clears its parent pointer, and returns the removed child.
// Returns nil if child is not found.
func (n *Node) RemoveChild(child *Node) *Node {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return child
		}
	}
	return nil
}

// ParentElement returns the parent unless it is the synthetic document root.
func (n *Node) ParentElement() *Node {
	if n.Parent == nil || n.Parent.TagName == "document" && n.Parent.Parent == nil {
		return nil
	}
	return n.Parent
}

// ElementChildren returns the element children, skipping text.
func (n *Node) ElementChildren() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// PreviousElementSibling returns the closest preceding element sibling.
func (n *Node) PreviousElementSibling() *Node {
	if n.Parent == nil {
		return nil
	}
	var prev *Node
	for _, c := range n.Parent.Children {
		if c == n {
			return prev
		}
		if c.Type == ElementNode {
			prev = c
		}
	}
	return nil
}

// NextElementSibling returns the closest following element sibling.
func (n *Node) NextElementSibling() *Node {
	if n.Parent == nil {
		return nil
	}
	found := false
	for _, c := range n.Parent.Children {
		if c == n {
			found = true
			continue
		}
		if found && c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// ElementIndex returns the zero-based position of this element among its
// parent's element children, or -1 if it has no parent.
func (n *Node) ElementIndex() int {
	if n.Parent == nil {
		return -1
	}
	i := 0
	for _, c := range n.Parent.Children {
		if c == n {
			return i
		}
		if c.Type == ElementNode {
			i++
		}
	}
	return -1
}

// TextContent concatenates every descendant text node.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Text
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}
