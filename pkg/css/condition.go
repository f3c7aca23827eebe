package css

import (
	"strings"

	"saucer/pkg/html"
)

// Condition is a single test inside a compound selector (an id, class,
// attribute or structural pseudo-class). The set of conditions is closed.
type Condition interface {
	Matches(e html.NodeID, attrs AttributeResolver, tree TreeResolver) bool
	weight() specificityWeight
}

type specificityWeight int

const (
	weightNone specificityWeight = iota
	weightB
	weightC
)

type idCondition struct{ id string }

func IDCondition(id string) Condition { return idCondition{id} }

func (c idCondition) Matches(e html.NodeID, attrs AttributeResolver, _ TreeResolver) bool {
	v, ok := attrs.ID(e)
	return ok && v == c.id
}

func (idCondition) weight() specificityWeight { return weightB }

type classCondition struct{ class string }

func ClassCondition(class string) Condition { return classCondition{class} }

func (c classCondition) Matches(e html.NodeID, attrs AttributeResolver, _ TreeResolver) bool {
	v, ok := attrs.Class(e)
	if !ok {
		return false
	}
	for _, f := range strings.Fields(v) {
		if f == c.class {
			return true
		}
	}
	return false
}

func (classCondition) weight() specificityWeight { return weightC }

// AttributeMatch selects how an attribute value is compared.
type AttributeMatch int

const (
	AttributeExists    AttributeMatch = iota // [a]
	AttributeEquals                          // [a=v]
	AttributePrefix                          // [a^=v]
	AttributeSuffix                          // [a$=v]
	AttributeSubstring                       // [a*=v]
	AttributeIncludes                        // [a~=v]
	AttributeDashMatch                       // [a|=v]
)

type attributeCondition struct {
	match     AttributeMatch
	namespace string
	name      string
	value     string
}

func AttributeCondition(match AttributeMatch, namespaceURI, name, value string) Condition {
	return attributeCondition{match: match, namespace: namespaceURI, name: name, value: value}
}

func (c attributeCondition) Matches(e html.NodeID, attrs AttributeResolver, _ TreeResolver) bool {
	v, ok := attrs.AttributeValue(e, c.namespace, c.name)
	if !ok {
		return false
	}
	switch c.match {
	case AttributeExists:
		return true
	case AttributeEquals:
		return v == c.value
	case AttributePrefix:
		return c.value != "" && strings.HasPrefix(v, c.value)
	case AttributeSuffix:
		return c.value != "" && strings.HasSuffix(v, c.value)
	case AttributeSubstring:
		return c.value != "" && strings.Contains(v, c.value)
	case AttributeIncludes:
		for _, f := range strings.Fields(v) {
			if f == c.value {
				return true
			}
		}
		return false
	case AttributeDashMatch:
		return v == c.value || strings.HasPrefix(v, c.value+"-")
	}
	return false
}

func (attributeCondition) weight() specificityWeight { return weightC }

type langCondition struct{ lang string }

func LangCondition(lang string) Condition { return langCondition{lang} }

func (c langCondition) Matches(e html.NodeID, attrs AttributeResolver, _ TreeResolver) bool {
	v, ok := attrs.Lang(e)
	if !ok {
		return false
	}
	if strings.EqualFold(v, c.lang) {
		return true
	}
	primary, _, _ := strings.Cut(v, "-")
	return strings.EqualFold(primary, c.lang)
}

func (langCondition) weight() specificityWeight { return weightC }

type firstChildCondition struct{}

func FirstChildCondition() Condition { return firstChildCondition{} }

func (firstChildCondition) Matches(e html.NodeID, _ AttributeResolver, tree TreeResolver) bool {
	return tree.IsFirstChildElement(e)
}

func (firstChildCondition) weight() specificityWeight { return weightC }

type lastChildCondition struct{}

func LastChildCondition() Condition { return lastChildCondition{} }

func (lastChildCondition) Matches(e html.NodeID, _ AttributeResolver, tree TreeResolver) bool {
	return tree.IsLastChildElement(e)
}

func (lastChildCondition) weight() specificityWeight { return weightC }

// nthChildCondition matches positions a*n+b for some n >= 0, counting
// element siblings from 1.
type nthChildCondition struct{ a, b int }

func NthChildCondition(a, b int) Condition { return nthChildCondition{a, b} }

func (c nthChildCondition) Matches(e html.NodeID, _ AttributeResolver, tree TreeResolver) bool {
	pos := tree.PositionOfElement(e)
	if pos < 0 {
		return false
	}
	d := pos + 1 - c.b
	if c.a == 0 {
		return d == 0
	}
	return d%c.a == 0 && d/c.a >= 0
}

func (nthChildCondition) weight() specificityWeight { return weightC }

type parityCondition struct{ even bool }

func EvenChildCondition() Condition { return parityCondition{even: true} }
func OddChildCondition() Condition { return parityCondition{even: false} }

func (c parityCondition) Matches(e html.NodeID, _ AttributeResolver, tree TreeResolver) bool {
	pos := tree.PositionOfElement(e)
	if pos < 0 {
		return false
	}
	return ((pos+1)%2 == 0) == c.even
}

func (parityCondition) weight() specificityWeight { return weightC }

type linkCondition struct{}

func LinkCondition() Condition { return linkCondition{} }

func (linkCondition) Matches(e html.NodeID, attrs AttributeResolver, _ TreeResolver) bool {
	return attrs.IsLink(e)
}

func (linkCondition) weight() specificityWeight { return weightC }

// unsupportedCondition stands in for selector syntax the engine cannot
// evaluate. It never matches.
type unsupportedCondition struct{}

func UnsupportedCondition() Condition { return unsupportedCondition{} }

func (unsupportedCondition) Matches(html.NodeID, AttributeResolver, TreeResolver) bool {
	return false
}

func (unsupportedCondition) weight() specificityWeight { return weightNone }
