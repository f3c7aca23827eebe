package css

import (
	"fmt"
	"strings"
)

// Content is one top-level item of a stylesheet: *Ruleset, *PageRule,
// *MediaRule or *FontFaceRule.
type Content interface {
	content()
}

func (*Ruleset) content()      {}
func (*PageRule) content()     {}
func (*MediaRule) content()    {}
func (*FontFaceRule) content() {}

// Ruleset is a list of selectors sharing one declaration block.
type Ruleset struct {
	Origin       Origin
	Declarations []*PropertyDeclaration
	Selectors    []*Selector
}

func NewRuleset(origin Origin) *Ruleset {
	return &Ruleset{Origin: origin}
}

func (r *Ruleset) AddDeclaration(d *PropertyDeclaration) {
	r.Declarations = append(r.Declarations, d)
}

// AddSelector attaches a selector chain to this ruleset.
func (r *Ruleset) AddSelector(s *Selector) {
	s.setRuleset(r)
	r.Selectors = append(r.Selectors, s)
}

// PageRule is an @page rule with its optional page name, pseudo-page and
// nested margin boxes.
type PageRule struct {
	Name        string
	PseudoPage  string
	Ruleset     *Ruleset
	MarginBoxes map[string][]*PropertyDeclaration

	pos int
}

// Applies reports whether the rule selects the given page. The first page
// is treated as a right page.
func (p *PageRule) Applies(pageName, pseudoPage string) bool {
	switch {
	case p.Name == "" && p.PseudoPage == "":
		return true
	case p.Name == "":
		return p.PseudoPage == pseudoPage || p.PseudoPage == "right" && pseudoPage == "first"
	case p.Name == pageName && p.PseudoPage == "":
		return true
	case p.Name == pageName:
		return p.PseudoPage == pseudoPage
	}
	return false
}

// Order sorts page rules by named page, then :first or :blank, then :left
// or :right, then position.
func (p *PageRule) Order() string {
	named, first, side := 0, 0, 0
	if p.Name != "" {
		named = 1
	}
	switch p.PseudoPage {
	case "first", "blank":
		first = 1
	case "left", "right":
		side = 1
	}
	return fmt.Sprintf("%d%d%d%05d", named, first, side, p.pos%100000)
}

func (p *PageRule) SetPos(pos int) { p.pos = pos }

// MediaRule groups rulesets that apply only when the medium matches.
type MediaRule struct {
	Media MediaQueryList
	Rules []*Ruleset
}

func (m *MediaRule) Matches(medium Medium) bool {
	return m.Media.Matches(medium)
}

// FontFaceRule carries the descriptors of one @font-face block.
type FontFaceRule struct {
	Ruleset *Ruleset
}

// Family returns the font-family descriptor without quotes.
func (f *FontFaceRule) Family() string {
	for _, d := range f.Ruleset.Declarations {
		if d.Name == "font-family" {
			return strings.Trim(d.Value, `"'`)
		}
	}
	return ""
}

// Stylesheet is an assembled stylesheet ready for the Matcher.
type Stylesheet struct {
	URI      string
	Origin   Origin
	Media    MediaQueryList
	Contents []Content
	Imports  []string
	Warnings []string
}

// FontFaceRules returns the @font-face rules in source order.
func (s *Stylesheet) FontFaceRules() []*FontFaceRule {
	var out []*FontFaceRule
	for _, c := range s.Contents {
		if f, ok := c.(*FontFaceRule); ok {
			out = append(out, f)
		}
	}
	return out
}

// Medium describes the output device for media queries.
type Medium struct {
	Type   string
	Width  float64
	Height float64
}

// MediaQueryList is a comma-separated list of queries. An empty list
// matches every medium.
type MediaQueryList []MediaQuery

type MediaQuery struct {
	Not      bool
	Type     string
	Features []MediaFeature
}

// MediaFeature is a range test such as (min-width: 600px). Value is in px.
type MediaFeature struct {
	Name  string
	Value float64
	Bare  bool
}

func (l MediaQueryList) Matches(m Medium) bool {
	if len(l) == 0 {
		return true
	}
	for _, q := range l {
		if q.Matches(m) {
			return true
		}
	}
	return false
}

func (q MediaQuery) Matches(m Medium) bool {
	ok := q.Type == "" || q.Type == "all" || strings.EqualFold(q.Type, m.Type)
	for _, f := range q.Features {
		if !ok {
			break
		}
		ok = f.matches(m)
	}
	if q.Not {
		return !ok
	}
	return ok
}

func (f MediaFeature) matches(m Medium) bool {
	switch f.Name {
	case "width":
		return f.Bare || m.Width == f.Value
	case "min-width":
		return m.Width >= f.Value
	case "max-width":
		return m.Width <= f.Value
	case "height":
		return f.Bare || m.Height == f.Value
	case "min-height":
		return m.Height >= f.Value
	case "max-height":
		return m.Height <= f.Value
	case "orientation-portrait":
		return m.Height >= m.Width
	case "orientation-landscape":
		return m.Width > m.Height
	}
	return false
}

// ParseMediaQueryList parses text such as "screen and (min-width: 600px),
// print".
func ParseMediaQueryList(text string) MediaQueryList {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out MediaQueryList
	for _, part := range strings.Split(text, ",") {
		out = append(out, parseMediaQuery(strings.ToLower(strings.TrimSpace(part))))
	}
	return out
}

func parseMediaQuery(s string) MediaQuery {
	var q MediaQuery
	for s != "" {
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "(") {
			end := strings.IndexByte(s, ')')
			if end < 0 {
				q.Features = append(q.Features, parseMediaFeature(s[1:]))
				break
			}
			q.Features = append(q.Features, parseMediaFeature(s[1:end]))
			s = s[end+1:]
			continue
		}
		word, rest, _ := strings.Cut(s, " ")
		if i := strings.IndexByte(word, '('); i > 0 {
			word, rest = word[:i], word[i:]+" "+rest
		}
		switch word {
		case "not":
			q.Not = true
		case "only", "and", "":
		default:
			q.Type = word
		}
		s = rest
	}
	return q
}

func parseMediaFeature(s string) MediaFeature {
	name, value, found := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !found {
		return MediaFeature{Name: name, Bare: true}
	}
	value = strings.TrimSpace(value)
	if name == "orientation" {
		return MediaFeature{Name: "orientation-" + value}
	}
	px, ok := parsePixels(value)
	if !ok {
		// An unknown unit makes the feature false.
		return MediaFeature{Name: "unknown"}
	}
	return MediaFeature{Name: name, Value: px}
}
