package html

import "strings"

// The methods below let a Document serve as the tree and attribute
// resolver for selector matching. All of them tolerate unknown IDs.

func (d *Document) ParentElement(e NodeID) (NodeID, bool) {
	n := d.Node(e)
	if n == nil {
		return NoNode, false
	}
	p := n.ParentElement()
	if p == nil {
		return NoNode, false
	}
	return p.ID, true
}

func (d *Document) PreviousSiblingElement(e NodeID) (NodeID, bool) {
	n := d.Node(e)
	if n == nil {
		return NoNode, false
	}
	prev := n.PreviousElementSibling()
	if prev == nil {
		return NoNode, false
	}
	return prev.ID, true
}

// MatchesElement compares the local name case-insensitively. An empty
// namespace matches any namespace.
func (d *Document) MatchesElement(e NodeID, namespaceURI, name string) bool {
	n := d.Node(e)
	if n == nil {
		return false
	}
	if namespaceURI != "" && namespaceURI != n.Namespace {
		return false
	}
	return strings.EqualFold(n.TagName, name)
}

func (d *Document) IsFirstChildElement(e NodeID) bool {
	n := d.Node(e)
	return n != nil && n.Parent != nil && n.PreviousElementSibling() == nil
}

func (d *Document) IsLastChildElement(e NodeID) bool {
	n := d.Node(e)
	return n != nil && n.Parent != nil && n.NextElementSibling() == nil
}

func (d *Document) PositionOfElement(e NodeID) int {
	n := d.Node(e)
	if n == nil {
		return -1
	}
	return n.ElementIndex()
}

func (d *Document) AttributeValue(e NodeID, namespaceURI, name string) (string, bool) {
	n := d.Node(e)
	if n == nil {
		return "", false
	}
	if namespaceURI != "" && namespaceURI != n.Namespace {
		return "", false
	}
	return n.GetAttribute(strings.ToLower(name))
}

func (d *Document) Class(e NodeID) (string, bool) {
	return d.AttributeValue(e, "", "class")
}

func (d *Document) ID(e NodeID) (string, bool) {
	return d.AttributeValue(e, "", "id")
}

// Lang returns the nearest lang attribute on the element or its ancestors.
func (d *Document) Lang(e NodeID) (string, bool) {
	for n := d.Node(e); n != nil; n = n.ParentElement() {
		if v, ok := n.GetAttribute("lang"); ok {
			return v, true
		}
		if v, ok := n.GetAttribute("xml:lang"); ok {
			return v, true
		}
	}
	return "", false
}

func (d *Document) linkURI(e NodeID) (string, bool) {
	n := d.Node(e)
	if n == nil || n.TagName != "a" {
		return "", false
	}
	return n.GetAttribute("href")
}

func (d *Document) IsLink(e NodeID) bool {
	_, ok := d.linkURI(e)
	return ok
}

func (d *Document) IsVisited(e NodeID) bool {
	uri, ok := d.linkURI(e)
	if !ok {
		return false
	}
	_, seen := d.visited[uri]
	return seen
}

// ElementStyling returns the style attribute text.
func (d *Document) ElementStyling(e NodeID) (string, bool) {
	n := d.Node(e)
	if n == nil {
		return "", false
	}
	s, ok := n.GetAttribute("style")
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
