package css

import "saucer/pkg/html"

// TreeResolver answers structural questions about the element tree.
type TreeResolver interface {
	ParentElement(e html.NodeID) (html.NodeID, bool)
	PreviousSiblingElement(e html.NodeID) (html.NodeID, bool)
	// MatchesElement reports whether e has the given local name. An empty
	// namespaceURI matches any namespace.
	MatchesElement(e html.NodeID, namespaceURI, name string) bool
	IsFirstChildElement(e html.NodeID) bool
	IsLastChildElement(e html.NodeID) bool
	// PositionOfElement is the zero-based index among element siblings.
	PositionOfElement(e html.NodeID) int
}

// AttributeResolver answers attribute and document-state questions.
type AttributeResolver interface {
	AttributeValue(e html.NodeID, namespaceURI, name string) (string, bool)
	Class(e html.NodeID) (string, bool)
	ID(e html.NodeID) (string, bool)
	Lang(e html.NodeID) (string, bool)
	IsLink(e html.NodeID) bool
	IsVisited(e html.NodeID) bool
	// ElementStyling is the text of the style attribute.
	ElementStyling(e html.NodeID) (string, bool)
	// NonCSSStyling is declaration text derived from presentation attributes.
	NonCSSStyling(e html.NodeID) (string, bool)
}

// StyleFactory turns declaration text into a ruleset.
type StyleFactory interface {
	ParseDeclarations(origin Origin, text string) *Ruleset
}
