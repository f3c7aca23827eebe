package css

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"saucer/pkg/html"
)

// Matcher matches the selectors of a set of stylesheets against a document
// and produces the cascaded style of each element. Matching is incremental:
// an element is matched using the Mapper of its parent, and Mappers are
// shared between siblings that matched the same selectors.
//
// All methods are safe for concurrent use. Work on one element is
// serialized by a per-element lock; matching an element may also take the
// locks of its ancestors, always in child-to-ancestor order.
type Matcher struct {
	tree   TreeResolver
	attrs  AttributeResolver
	styles StyleFactory
	log    *zap.Logger

	docMapper     *Mapper
	pageRules     []*PageRule
	fontFaceRules []*FontFaceRule

	mu      sync.Mutex
	mappers map[html.NodeID]*Mapper
	locks   sync.Map

	visited elementSet
	hovered elementSet
	active  elementSet
	focused elementSet
}

// NewMatcher assembles the stylesheets for medium. Sheets must be given in
// cascade order: user-agent, then user, then author. Selectors are numbered
// in that order, which breaks specificity ties.
func NewMatcher(tree TreeResolver, attrs AttributeResolver, styles StyleFactory, sheets []*Stylesheet, medium Medium, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Matcher{
		tree:    tree,
		attrs:   attrs,
		styles:  styles,
		log:     log.Named("matcher"),
		mappers: make(map[html.NodeID]*Mapper),
	}
	m.docMapper = m.createDocumentMapper(sheets, medium)
	return m
}

type orderedSelector struct {
	order string
	sel   *Selector
}

func (m *Matcher) createDocumentMapper(sheets []*Stylesheet, medium Medium) *Mapper {
	var sorted []orderedSelector
	count, pageCount := 0, 0

	addRuleset := func(rs *Ruleset) {
		for _, sel := range rs.Selectors {
			count++
			sel.SetPos(count)
			sorted = append(sorted, orderedSelector{sel.Order(), sel})
		}
	}

	for _, sheet := range sheets {
		if !sheet.Media.Matches(medium) {
			m.log.Debug("Skipping stylesheet for medium", zap.String("uri", sheet.URI), zap.String("medium", medium.Type))
			continue
		}
		for _, c := range sheet.Contents {
			switch c := c.(type) {
			case *Ruleset:
				addRuleset(c)
			case *PageRule:
				pageCount++
				c.SetPos(pageCount)
				m.pageRules = append(m.pageRules, c)
			case *MediaRule:
				if c.Matches(medium) {
					for _, rs := range c.Rules {
						addRuleset(rs)
					}
				}
			case *FontFaceRule:
				m.fontFaceRules = append(m.fontFaceRules, c)
			}
		}
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].order < sorted[j].order })
	sort.SliceStable(m.pageRules, func(i, j int) bool {
		return m.pageRules[i].Order() < m.pageRules[j].Order()
	})

	axes := make([]*Selector, len(sorted))
	for i, s := range sorted {
		axes[i] = s.sel
	}
	m.log.Debug("Matcher created", zap.Int("selectors", len(axes)), zap.Int("pageRules", len(m.pageRules)))
	return &Mapper{matcher: m, axes: axes}
}

// lock returns e's mutex. Entries live as long as the Matcher, one per
// element ever styled, so RemoveStyle never hands a second mutex out for
// the same element. Locks are taken child first, then ancestors one at a
// time up the tree, and m.mu is only ever held briefly inside them; the
// order follows the tree, so it cannot cycle.
func (m *Matcher) lock(e html.NodeID) *sync.Mutex {
	l, _ := m.locks.LoadOrStore(e, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// CascadedStyle returns the cascaded style of e. With restyle set the
// element is matched again even if a Mapper is already linked to it.
func (m *Matcher) CascadedStyle(e html.NodeID, restyle bool) *CascadedStyle {
	l := m.lock(e)
	l.Lock()
	defer l.Unlock()

	var mp *Mapper
	if restyle {
		mp = m.matchElement(e)
	} else {
		mp = m.mapperLocked(e)
	}
	return mp.cascadedStyle(e)
}

// PECascadedStyle returns the style of pseudo-element pe of e, or nil when
// no selector targets it.
func (m *Matcher) PECascadedStyle(e html.NodeID, pe string) *CascadedStyle {
	l := m.lock(e)
	l.Lock()
	defer l.Unlock()
	return m.mapperLocked(e).peCascadedStyle(pe)
}

// PageInfo is the result of cascading the @page rules for one page.
type PageInfo struct {
	Properties  []*PropertyDeclaration
	Style       *CascadedStyle
	MarginBoxes map[string][]*PropertyDeclaration
}

// MarginBoxStyle returns the cascaded style of a margin box such as
// top-center, or nil when no rule declares it.
func (p *PageInfo) MarginBoxStyle(name string) *CascadedStyle {
	decls, ok := p.MarginBoxes[name]
	if !ok {
		return nil
	}
	return NewCascadedStyle(decls)
}

// PageCascadedStyle cascades every @page rule that applies to the page.
// Rules are visited in page-specificity order so later rules win; a later
// rule's margin box replaces an earlier one with the same name.
func (m *Matcher) PageCascadedStyle(pageName, pseudoPage string) *PageInfo {
	var props []*PropertyDeclaration
	boxes := make(map[string][]*PropertyDeclaration)
	for _, pr := range m.pageRules {
		if !pr.Applies(pageName, pseudoPage) {
			continue
		}
		props = append(props, pr.Ruleset.Declarations...)
		for name, decls := range pr.MarginBoxes {
			boxes[name] = decls
		}
	}
	style := EmptyCascadedStyle()
	if len(props) > 0 {
		style = NewCascadedStyle(props)
	}
	return &PageInfo{Properties: props, Style: style, MarginBoxes: boxes}
}

func (m *Matcher) FontFaceRules() []*FontFaceRule {
	return m.fontFaceRules
}

func (m *Matcher) IsVisitedStyled(e html.NodeID) bool { return m.visited.contains(e) }
func (m *Matcher) IsHoverStyled(e html.NodeID) bool { return m.hovered.contains(e) }
func (m *Matcher) IsActiveStyled(e html.NodeID) bool { return m.active.contains(e) }
func (m *Matcher) IsFocusStyled(e html.NodeID) bool { return m.focused.contains(e) }

// RemoveStyle forgets the Mapper linked to e; the next lookup rematches it.
func (m *Matcher) RemoveStyle(e html.NodeID) {
	m.mu.Lock()
	delete(m.mappers, e)
	m.mu.Unlock()
}

// Restyle rematches every element and returns their cascaded styles in the
// same order. At most workers elements are processed at once.
func (m *Matcher) Restyle(ctx context.Context, elements []html.NodeID, workers int) ([]*CascadedStyle, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]*CascadedStyle, len(elements))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range elements {
		if gctx.Err() != nil {
			break
		}
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = m.CascadedStyle(e, true)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("restyle: %w", err)
	}
	// gctx is always done once Wait returns; only the caller's context counts
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("restyle: %w", err)
	}
	m.log.Debug("Restyle complete", zap.Int("elements", len(elements)), zap.Int("workers", workers))
	return out, nil
}

// matchElement must be called with e's lock held.
func (m *Matcher) matchElement(e html.NodeID) *Mapper {
	if parent, ok := m.tree.ParentElement(e); ok {
		return m.mapperOf(parent).mapChild(e)
	}
	return m.docMapper.mapChild(e)
}

func (m *Matcher) mapperOf(e html.NodeID) *Mapper {
	l := m.lock(e)
	l.Lock()
	defer l.Unlock()
	return m.mapperLocked(e)
}

// mapperLocked must be called with e's lock held.
func (m *Matcher) mapperLocked(e html.NodeID) *Mapper {
	m.mu.Lock()
	mp := m.mappers[e]
	m.mu.Unlock()
	if mp == nil {
		mp = m.matchElement(e)
	}
	return mp
}

func (m *Matcher) link(e html.NodeID, mp *Mapper) {
	m.mu.Lock()
	m.mappers[e] = mp
	m.mu.Unlock()
}

// Mapper is the matching context below one element: the selectors that
// may still match descendants, the selectors that matched the element and
// a cache of child Mappers keyed by the selectors each child matched.
type Mapper struct {
	matcher         *Matcher
	axes            []*Selector
	pseudoSelectors map[string][]*Selector
	mappedSelectors []*Selector

	mu       sync.Mutex
	children map[string]*Mapper
}

func (mp *Mapper) mapChild(e html.NodeID) *Mapper {
	m := mp.matcher
	childAxes := make([]*Selector, 0, len(mp.axes)+10)
	pseudo := make(map[string][]*Selector)
	var mapped []*Selector
	var key strings.Builder

	for _, sel := range mp.axes {
		switch sel.Axis() {
		case DescendantAxis:
			// Carried forward to every descendant, matched here or not.
			childAxes = append(childAxes, sel)
		case ImmediateSiblingAxis:
			panic(&InvariantError{Op: "mapChild", Selector: sel.ID(), Detail: "immediate sibling axis in active selectors"})
		}

		if !sel.Matches(e, m.attrs, m.tree) {
			continue
		}

		if pe := sel.PseudoElement(); pe != "" {
			pseudo[pe] = append(pseudo[pe], sel)
			key.WriteString(strconv.FormatInt(sel.ID(), 10))
			key.WriteByte(':')
			continue
		}

		if sel.IsPseudoClass(VisitedPseudoClass) {
			m.visited.add(e)
		}
		if sel.IsPseudoClass(ActivePseudoClass) {
			m.active.add(e)
		}
		if sel.IsPseudoClass(HoverPseudoClass) {
			m.hovered.add(e)
		}
		if sel.IsPseudoClass(FocusPseudoClass) {
			m.focused.add(e)
		}
		if !sel.MatchesDynamic(e, m.attrs, m.tree) {
			continue
		}

		key.WriteString(strconv.FormatInt(sel.ID(), 10))
		key.WriteByte(':')
		chain := sel.ChainedSelector()
		switch {
		case chain == nil:
			mapped = append(mapped, sel)
		case chain.Axis() == ImmediateSiblingAxis:
			panic(&InvariantError{Op: "mapChild", Selector: chain.ID(), Detail: "chained selector on immediate sibling axis"})
		default:
			childAxes = append(childAxes, chain)
		}
	}

	k := key.String()
	mp.mu.Lock()
	child, ok := mp.children[k]
	if !ok {
		child = &Mapper{
			matcher:         m,
			axes:            childAxes,
			pseudoSelectors: pseudo,
			mappedSelectors: mapped,
		}
		if mp.children == nil {
			mp.children = make(map[string]*Mapper)
		}
		mp.children[k] = child
	}
	mp.mu.Unlock()

	m.link(e, child)
	return child
}

// cascadedStyle orders declarations as: presentation attributes, matched
// rulesets in specificity order, then the style attribute.
func (mp *Mapper) cascadedStyle(e html.NodeID) *CascadedStyle {
	m := mp.matcher
	var decls []*PropertyDeclaration

	if rs := m.parseStyling(m.attrs.NonCSSStyling, e); rs != nil {
		decls = append(decls, rs.Declarations...)
	}
	for _, sel := range mp.mappedSelectors {
		decls = append(decls, sel.Ruleset().Declarations...)
	}
	if rs := m.parseStyling(m.attrs.ElementStyling, e); rs != nil {
		decls = append(decls, rs.Declarations...)
	}

	if len(decls) == 0 {
		return EmptyCascadedStyle()
	}
	return NewCascadedStyle(decls)
}

func (mp *Mapper) peCascadedStyle(pe string) *CascadedStyle {
	sels, ok := mp.pseudoSelectors[pe]
	if !ok || len(sels) == 0 {
		return nil
	}
	var decls []*PropertyDeclaration
	for _, sel := range sels {
		decls = append(decls, sel.Ruleset().Declarations...)
	}
	return NewCascadedStyle(decls)
}

func (m *Matcher) parseStyling(source func(html.NodeID) (string, bool), e html.NodeID) *Ruleset {
	if m.styles == nil || m.attrs == nil {
		return nil
	}
	text, ok := source(e)
	if !ok {
		return nil
	}
	return m.styles.ParseDeclarations(Author, text)
}

type elementSet struct {
	mu sync.RWMutex
	m  map[html.NodeID]struct{}
}

func (s *elementSet) add(e html.NodeID) {
	s.mu.Lock()
	if s.m == nil {
		s.m = make(map[html.NodeID]struct{})
	}
	s.m[e] = struct{}{}
	s.mu.Unlock()
}

func (s *elementSet) contains(e html.NodeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[e]
	return ok
}
