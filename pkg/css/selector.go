package css

import (
	"errors"
	"fmt"
	"sync/atomic"

	"saucer/pkg/html"
)

// Axis is the relation between a selector and the one before it in a chain.
type Axis int

const (
	DescendantAxis Axis = iota
	ChildAxis
	ImmediateSiblingAxis
)

// PseudoClass is a bit set of dynamic pseudo-classes.
type PseudoClass int

const (
	VisitedPseudoClass PseudoClass = 2
	HoverPseudoClass   PseudoClass = 4
	ActivePseudoClass  PseudoClass = 8
	FocusPseudoClass   PseudoClass = 16
)

var (
	errSecondPseudoElement = errors.New("more than one pseudo-element")
	errConditionAfterPE    = errors.New("condition after pseudo-element")
)

var selectorCount atomic.Int64

// Selector is one compound selector. Chained selectors extend a match to
// descendants or children; a sibling selector constrains the element's
// immediately preceding sibling. Specificity and order are only meaningful
// on the last selector of a chain.
type Selector struct {
	id        int64
	ruleset   *Ruleset
	axis      Axis
	name      string
	namespace string

	conditions    []Condition
	pseudoClass   PseudoClass
	pseudoElement string

	specificityB int
	specificityC int
	specificityD int
	pos          int

	chained *Selector
	sibling *Selector
}

func NewSelector(axis Axis) *Selector {
	return &Selector{
		id:   selectorCount.Add(1) - 1,
		axis: axis,
	}
}

// ID is unique per selector for the lifetime of the process.
func (s *Selector) ID() int64 { return s.id }

func (s *Selector) Axis() Axis { return s.axis }
func (s *Selector) SetAxis(axis Axis) { s.axis = axis }
func (s *Selector) Name() string { return s.name }
func (s *Selector) PseudoElement() string { return s.pseudoElement }
func (s *Selector) Ruleset() *Ruleset { return s.ruleset }
func (s *Selector) ChainedSelector() *Selector { return s.chained }
func (s *Selector) SiblingSelector() *Selector { return s.sibling }
func (s *Selector) Pos() int { return s.pos }

// Specificity returns the (b, c, d) triple.
func (s *Selector) Specificity() (b, c, d int) {
	return s.specificityB, s.specificityC, s.specificityD
}

func (s *Selector) SetSpecificity(b, c, d int) {
	s.specificityB, s.specificityC, s.specificityD = b, c, d
}

// SetName restricts the selector to elements with the given local name.
func (s *Selector) SetName(name string) {
	s.name = name
	s.specificityD++
}

func (s *Selector) SetNamespace(namespaceURI string) {
	s.namespace = namespaceURI
}

func (s *Selector) SetChainedSelector(next *Selector) { s.chained = next }
func (s *Selector) SetSiblingSelector(prev *Selector) { s.sibling = prev }

// AddCondition appends c. Conditions after a pseudo-element make the
// selector unsatisfiable; the condition is still recorded.
func (s *Selector) AddCondition(c Condition) error {
	switch c.weight() {
	case weightB:
		s.specificityB++
	case weightC:
		s.specificityC++
	}
	var err error
	if s.pseudoElement != "" {
		s.conditions = append(s.conditions, UnsupportedCondition())
		err = fmt.Errorf("%w %s", errConditionAfterPE, s.pseudoElement)
	}
	s.conditions = append(s.conditions, c)
	return err
}

// SetPseudoClass sets one dynamic pseudo-class. Repeating a pseudo-class
// does not add specificity.
func (s *Selector) SetPseudoClass(pc PseudoClass) {
	if !s.IsPseudoClass(pc) {
		s.specificityC++
	}
	s.pseudoClass |= pc
}

func (s *Selector) IsPseudoClass(pc PseudoClass) bool {
	return s.pseudoClass&pc != 0
}

// SetPseudoElement targets a generated sub-part such as before or
// first-line. A second pseudo-element makes the selector unsatisfiable.
func (s *Selector) SetPseudoElement(pe string) error {
	if s.pseudoElement != "" {
		s.AddCondition(UnsupportedCondition())
		return errSecondPseudoElement
	}
	s.specificityD++
	s.pseudoElement = pe
	return nil
}

// SetPos records declaration order on the whole chain.
func (s *Selector) SetPos(pos int) {
	s.pos = pos
	if s.sibling != nil {
		s.sibling.SetPos(pos)
	}
	if s.chained != nil {
		s.chained.SetPos(pos)
	}
}

func (s *Selector) setRuleset(r *Ruleset) {
	s.ruleset = r
	if s.sibling != nil {
		s.sibling.setRuleset(r)
	}
	if s.chained != nil {
		s.chained.setRuleset(r)
	}
}

// Last returns the final selector of the chain, the one that carries
// specificity and declarations.
func (s *Selector) Last() *Selector {
	for s.chained != nil {
		s = s.chained
	}
	return s
}

// Order is a fixed-width sortable key: "0", then B, C and D as three digits
// each, then the position as five digits.
func (s *Selector) Order() string {
	if s.chained != nil {
		return s.chained.Order()
	}
	return fmt.Sprintf("0%03d%03d%03d%05d",
		s.specificityB%1000, s.specificityC%1000, s.specificityD%1000, s.pos%100000)
}

// Matches tests the static parts of the selector against e: the sibling
// anchor, the element name and every condition. Dynamic pseudo-classes are
// ignored.
func (s *Selector) Matches(e html.NodeID, attrs AttributeResolver, tree TreeResolver) bool {
	if s.sibling != nil {
		sib, ok := s.sibling.appropriateSibling(e, tree)
		if !ok || !s.sibling.Matches(sib, attrs, tree) {
			return false
		}
	}
	if s.name != "" && !tree.MatchesElement(e, s.namespace, s.name) {
		return false
	}
	for _, c := range s.conditions {
		if !c.Matches(e, attrs, tree) {
			return false
		}
	}
	return true
}

// MatchesDynamic tests the dynamic pseudo-classes. Only :visited can hold
// here; :hover, :active and :focus are tracked by the Matcher instead.
func (s *Selector) MatchesDynamic(e html.NodeID, attrs AttributeResolver, tree TreeResolver) bool {
	if s.sibling != nil {
		sib, ok := s.sibling.appropriateSibling(e, tree)
		if !ok || !s.sibling.MatchesDynamic(sib, attrs, tree) {
			return false
		}
	}
	if s.IsPseudoClass(VisitedPseudoClass) {
		if attrs == nil || !attrs.IsVisited(e) {
			return false
		}
	}
	if s.IsPseudoClass(ActivePseudoClass) || s.IsPseudoClass(HoverPseudoClass) || s.IsPseudoClass(FocusPseudoClass) {
		return false
	}
	return true
}

func (s *Selector) appropriateSibling(e html.NodeID, tree TreeResolver) (html.NodeID, bool) {
	if s.axis != ImmediateSiblingAxis {
		return html.NoNode, false
	}
	return tree.PreviousSiblingElement(e)
}
