package css

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"github.com/tdewolff/parse/v2/strconv"
	"go.uber.org/zap"
)

var errUnexpectedToken = errors.New("unexpected token in selector")

// Parser assembles stylesheets and declaration blocks from CSS text. It
// holds no per-parse state and may be shared between goroutines.
type Parser struct {
	log *zap.Logger
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css")}
}

// ParseStylesheet parses a complete stylesheet. Problems in the input never
// fail the parse: bad rules are dropped and reported in Warnings.
func (p *Parser) ParseStylesheet(text, uri string, origin Origin) *Stylesheet {
	sheet := &Stylesheet{URI: uri, Origin: origin}
	gp := css.NewParser(parse.NewInputString(text), false)

	for {
		gt, _, data := gp.Next()
		switch gt {
		case css.ErrorGrammar:
			if p.stop(gp, sheet) {
				return sheet
			}
		case css.BeginRulesetGrammar:
			if rs := p.ruleset(gp, sheet); rs != nil {
				sheet.Contents = append(sheet.Contents, rs)
			}
		case css.AtRuleGrammar:
			if string(data) == "@import" {
				if uri := importURL(gp.Values()); uri != "" {
					sheet.Imports = append(sheet.Imports, uri)
				}
			}
		case css.BeginAtRuleGrammar:
			switch string(data) {
			case "@media":
				media := ParseMediaQueryList(tokenText(gp.Values()))
				sheet.Contents = append(sheet.Contents, p.mediaRule(gp, sheet, media))
			case "@page":
				sheet.Contents = append(sheet.Contents, p.pageRule(gp, sheet, origin))
			case "@font-face":
				rs := NewRuleset(origin)
				p.declarations(gp, sheet, rs, css.EndAtRuleGrammar)
				sheet.Contents = append(sheet.Contents, &FontFaceRule{Ruleset: rs})
			default:
				p.log.Debug("Skipping at-rule", zap.String("rule", string(data)), zap.String("uri", uri))
				skipBlock(gp)
			}
		}
	}
}

// ParseDeclarations parses the body of a style attribute or declaration
// block.
func (p *Parser) ParseDeclarations(origin Origin, text string) *Ruleset {
	rs := NewRuleset(origin)
	gp := css.NewParser(parse.NewInputString(text), true)
	for {
		gt, _, data := gp.Next()
		switch gt {
		case css.ErrorGrammar:
			if p.stop(gp, nil) {
				return rs
			}
		case css.DeclarationGrammar:
			p.addDeclaration(rs, string(data), gp.Values())
		case css.BeginAtRuleGrammar:
			skipBlock(gp)
		}
	}
}

// ParseSelectors parses a selector group such as "div > p, td.x". Each
// returned selector is the first step of its chain.
func (p *Parser) ParseSelectors(text string) ([]*Selector, []string) {
	sheet := &Stylesheet{}
	gp := css.NewParser(parse.NewInputString(text+"{}"), false)
	for {
		gt, _, _ := gp.Next()
		switch gt {
		case css.BeginRulesetGrammar:
			return p.selectors(gp.Values(), sheet), sheet.Warnings
		case css.ErrorGrammar:
			if p.stop(gp, sheet) {
				return nil, sheet.Warnings
			}
		}
	}
}

// stop reports whether the grammar stream has ended. Parse errors are
// recorded and parsing resumes.
func (p *Parser) stop(gp *css.Parser, sheet *Stylesheet) bool {
	err := gp.Err()
	if err == nil || errors.Is(err, io.EOF) || !gp.HasParseError() {
		return true
	}
	p.log.Debug("CSS parse error", zap.Error(err))
	if sheet != nil {
		sheet.Warnings = append(sheet.Warnings, err.Error())
	}
	return false
}

func (p *Parser) ruleset(gp *css.Parser, sheet *Stylesheet) *Ruleset {
	sels := p.selectors(gp.Values(), sheet)
	rs := NewRuleset(sheet.Origin)
	p.declarations(gp, sheet, rs, css.EndRulesetGrammar)
	if len(sels) == 0 {
		return nil
	}
	for _, s := range sels {
		rs.AddSelector(s)
	}
	return rs
}

// declarations reads declarations into rs until the end grammar.
func (p *Parser) declarations(gp *css.Parser, sheet *Stylesheet, rs *Ruleset, end css.GrammarType) {
	for {
		gt, _, data := gp.Next()
		switch gt {
		case end:
			return
		case css.DeclarationGrammar:
			p.addDeclaration(rs, string(data), gp.Values())
		case css.BeginAtRuleGrammar:
			skipBlock(gp)
		case css.ErrorGrammar:
			if p.stop(gp, sheet) {
				return
			}
		}
	}
}

func (p *Parser) mediaRule(gp *css.Parser, sheet *Stylesheet, media MediaQueryList) *MediaRule {
	rule := &MediaRule{Media: media}
	for {
		gt, _, data := gp.Next()
		switch gt {
		case css.EndAtRuleGrammar:
			return rule
		case css.BeginRulesetGrammar:
			if rs := p.ruleset(gp, sheet); rs != nil {
				rule.Rules = append(rule.Rules, rs)
			}
		case css.BeginAtRuleGrammar:
			p.log.Debug("Skipping nested at-rule", zap.String("rule", string(data)))
			skipBlock(gp)
		case css.ErrorGrammar:
			if p.stop(gp, sheet) {
				return rule
			}
		}
	}
}

func (p *Parser) pageRule(gp *css.Parser, sheet *Stylesheet, origin Origin) *PageRule {
	rule := &PageRule{Ruleset: NewRuleset(origin), MarginBoxes: make(map[string][]*PropertyDeclaration)}
	afterColon := false
	for _, t := range gp.Values() {
		switch t.TokenType {
		case css.ColonToken:
			afterColon = true
		case css.IdentToken:
			if afterColon {
				rule.PseudoPage = strings.ToLower(string(t.Data))
			} else {
				rule.Name = string(t.Data)
			}
		}
	}

	for {
		gt, _, data := gp.Next()
		switch gt {
		case css.EndAtRuleGrammar:
			return rule
		case css.DeclarationGrammar:
			p.addDeclaration(rule.Ruleset, string(data), gp.Values())
		case css.BeginAtRuleGrammar:
			// Margin boxes arrive as raw tokens.
			name := strings.TrimPrefix(string(data), "@")
			var body strings.Builder
			collectBlock(gp, &body)
			rule.MarginBoxes[name] = p.ParseDeclarations(origin, body.String()).Declarations
		case css.ErrorGrammar:
			if p.stop(gp, sheet) {
				return rule
			}
		}
	}
}

// skipBlock consumes grammar events up to the end of the current at-rule.
func skipBlock(gp *css.Parser) {
	collectBlock(gp, nil)
}

func collectBlock(gp *css.Parser, body *strings.Builder) {
	depth := 1
	for depth > 0 {
		gt, _, data := gp.Next()
		switch gt {
		case css.BeginAtRuleGrammar:
			depth++
		case css.EndAtRuleGrammar:
			depth--
		case css.TokenGrammar:
			if body != nil {
				body.Write(data)
			}
		case css.ErrorGrammar:
			if !gp.HasParseError() {
				return
			}
		}
	}
}

func (p *Parser) addDeclaration(rs *Ruleset, name string, values []css.Token) {
	if strings.HasPrefix(name, "--") {
		return
	}
	important := false
	n := len(values)
	for n > 0 && values[n-1].TokenType == css.WhitespaceToken {
		n--
	}
	if n >= 2 && values[n-1].TokenType == css.IdentToken &&
		strings.EqualFold(string(values[n-1].Data), "important") &&
		values[n-2].TokenType == css.DelimToken && string(values[n-2].Data) == "!" {
		important = true
		n -= 2
	}
	value := strings.TrimSpace(tokenText(values[:n]))
	if value == "" {
		p.log.Debug("Dropping empty declaration", zap.String("property", name))
		return
	}
	for _, d := range expandShorthand(name, value, important, rs.Origin) {
		rs.AddDeclaration(d)
	}
}

func tokenText(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// importURL extracts the target of @import "x" or @import url(x).
func importURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			s := strings.TrimSuffix(strings.TrimPrefix(string(t.Data), "url("), ")")
			return unquote(strings.TrimSpace(s))
		}
	}
	return ""
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// selectors builds selector chains for each comma-separated group. A group
// that cannot be parsed is dropped with a warning; the others survive.
func (p *Parser) selectors(tokens []css.Token, sheet *Stylesheet) []*Selector {
	var out []*Selector
	start := 0
	for i := 0; i <= len(tokens); i++ {
		if i < len(tokens) && tokens[i].TokenType != css.CommaToken {
			continue
		}
		group := tokens[start:i]
		start = i + 1
		sel, err := p.selectorChain(group)
		if err != nil {
			msg := fmt.Sprintf("dropping selector %q: %v", tokenText(group), err)
			sheet.Warnings = append(sheet.Warnings, msg)
			p.log.Warn("Unsupported selector", zap.String("selector", tokenText(group)), zap.Error(err))
			continue
		}
		out = append(out, sel)
	}
	return out
}

// selectorChain turns one complex selector into a chain. Descendant and
// child steps are linked with SetChainedSelector; an adjacent sibling
// compound becomes the sibling selector of the compound after it, which
// takes over its place in the chain. The last step carries the summed
// specificity.
func (p *Parser) selectorChain(tokens []css.Token) (*Selector, error) {
	if len(tokens) == 0 {
		return nil, errors.New("empty selector")
	}
	var steps []*Selector
	var b, c, d int
	axis := DescendantAxis
	sibling, general := false, false
	i := 0
	for {
		sel := NewSelector(axis)
		n, err := p.compound(sel, tokens[i:])
		if err != nil {
			return nil, err
		}
		i += n
		sb, sc, sd := sel.Specificity()
		b, c, d = b+sb, c+sc, d+sd

		if sibling {
			prev := steps[len(steps)-1]
			sel.SetAxis(prev.Axis())
			prev.SetAxis(ImmediateSiblingAxis)
			sel.SetSiblingSelector(prev)
			if general {
				// Only the adjacent sibling is supported.
				sel.AddCondition(UnsupportedCondition())
			}
			steps[len(steps)-1] = sel
		} else {
			steps = append(steps, sel)
		}

		if i >= len(tokens) {
			break
		}
		t := tokens[i]
		sibling, general = false, false
		switch {
		case t.TokenType == css.WhitespaceToken:
			axis = DescendantAxis
		case isDelim(t, '>'):
			axis = ChildAxis
		case isDelim(t, '+'):
			sibling = true
		case isDelim(t, '~'):
			sibling, general = true, true
		default:
			return nil, fmt.Errorf("%w %q", errUnexpectedToken, t.Data)
		}
		i++
		for i < len(tokens) && tokens[i].TokenType == css.WhitespaceToken {
			i++
		}
		if i >= len(tokens) {
			return nil, errors.New("dangling combinator")
		}
	}

	for _, s := range steps[:len(steps)-1] {
		if hasPseudoElement(s) {
			return nil, errors.New("pseudo-element before the last compound")
		}
	}
	last := steps[len(steps)-1]
	if last.SiblingSelector() != nil && hasPseudoElement(last.SiblingSelector()) {
		return nil, errors.New("pseudo-element on a sibling compound")
	}
	for j := 0; j < len(steps)-1; j++ {
		steps[j].SetChainedSelector(steps[j+1])
	}
	last.SetSpecificity(b, c, d)
	return steps[0], nil
}

func hasPseudoElement(s *Selector) bool {
	for ; s != nil; s = s.SiblingSelector() {
		if s.PseudoElement() != "" {
			return true
		}
	}
	return false
}

func isDelim(t css.Token, c byte) bool {
	return t.TokenType == css.DelimToken && len(t.Data) == 1 && t.Data[0] == c
}

var pseudoElements = map[string]bool{
	"before":       true,
	"after":        true,
	"first-line":   true,
	"first-letter": true,
}

// compound parses one compound selector into sel and returns the number of
// tokens consumed.
func (p *Parser) compound(sel *Selector, tokens []css.Token) (int, error) {
	i := 0
	if i < len(tokens) {
		switch t := tokens[i]; {
		case t.TokenType == css.IdentToken:
			sel.SetName(strings.ToLower(string(t.Data)))
			i++
		case isDelim(t, '*'):
			i++
		}
	}

	for i < len(tokens) {
		t := tokens[i]
		switch {
		case t.TokenType == css.WhitespaceToken, isDelim(t, '>'), isDelim(t, '+'), isDelim(t, '~'):
			if i == 0 {
				return 0, errors.New("missing compound selector")
			}
			return i, nil
		case t.TokenType == css.HashToken:
			p.condition(sel, IDCondition(string(t.Data[1:])))
			i++
		case isDelim(t, '.'):
			if i+1 >= len(tokens) || tokens[i+1].TokenType != css.IdentToken {
				return 0, errors.New("class name expected")
			}
			p.condition(sel, ClassCondition(string(tokens[i+1].Data)))
			i += 2
		case t.TokenType == css.LeftBracketToken:
			n, cond, err := attribute(tokens[i:])
			if err != nil {
				return 0, err
			}
			p.condition(sel, cond)
			i += n
		case t.TokenType == css.ColonToken:
			n, err := p.pseudo(sel, tokens[i:])
			if err != nil {
				return 0, err
			}
			i += n
		default:
			return 0, fmt.Errorf("%w %q", errUnexpectedToken, t.Data)
		}
	}
	if i == 0 {
		return 0, errors.New("missing compound selector")
	}
	return i, nil
}

func (p *Parser) condition(sel *Selector, c Condition) {
	if err := sel.AddCondition(c); err != nil {
		p.log.Warn("Selector can never match", zap.Error(err))
	}
}

func attribute(tokens []css.Token) (int, Condition, error) {
	end := -1
	for j, t := range tokens {
		if t.TokenType == css.RightBracketToken {
			end = j
			break
		}
	}
	if end < 2 || tokens[1].TokenType != css.IdentToken {
		return 0, nil, errors.New("malformed attribute selector")
	}
	name := strings.ToLower(string(tokens[1].Data))
	if end == 2 {
		return end + 1, AttributeCondition(AttributeExists, "", name, ""), nil
	}

	var match AttributeMatch
	k := 2
	switch op := tokens[k]; {
	case isDelim(op, '='):
		match = AttributeEquals
	case op.TokenType == css.IncludeMatchToken:
		match = AttributeIncludes
	case op.TokenType == css.DashMatchToken:
		match = AttributeDashMatch
	case op.TokenType == css.PrefixMatchToken:
		match = AttributePrefix
	case op.TokenType == css.SuffixMatchToken:
		match = AttributeSuffix
	case op.TokenType == css.SubstringMatchToken:
		match = AttributeSubstring
	default:
		return 0, nil, fmt.Errorf("unknown attribute operator %q", op.Data)
	}
	k++
	if k >= end {
		return 0, nil, errors.New("attribute value expected")
	}
	v := tokens[k]
	if v.TokenType != css.IdentToken && v.TokenType != css.StringToken && v.TokenType != css.NumberToken {
		return 0, nil, fmt.Errorf("bad attribute value %q", v.Data)
	}
	return end + 1, AttributeCondition(match, "", name, unquote(string(v.Data))), nil
}

// pseudo handles :class, ::element, :func(args) and the single-colon
// CSS2 pseudo-elements.
func (p *Parser) pseudo(sel *Selector, tokens []css.Token) (int, error) {
	i := 1
	double := false
	if i < len(tokens) && tokens[i].TokenType == css.ColonToken {
		double = true
		i++
	}
	if i >= len(tokens) {
		return 0, errors.New("pseudo-class name expected")
	}
	t := tokens[i]
	i++

	switch t.TokenType {
	case css.IdentToken:
		name := strings.ToLower(string(t.Data))
		if double || pseudoElements[name] {
			if !pseudoElements[name] {
				return 0, fmt.Errorf("unknown pseudo-element %q", name)
			}
			if err := sel.SetPseudoElement(name); err != nil {
				p.log.Warn("Selector can never match", zap.Error(err))
			}
			return i, nil
		}
		switch name {
		case "first-child":
			p.condition(sel, FirstChildCondition())
		case "last-child":
			p.condition(sel, LastChildCondition())
		case "link":
			p.condition(sel, LinkCondition())
		case "visited":
			sel.SetPseudoClass(VisitedPseudoClass)
		case "hover":
			sel.SetPseudoClass(HoverPseudoClass)
		case "active":
			sel.SetPseudoClass(ActivePseudoClass)
		case "focus":
			sel.SetPseudoClass(FocusPseudoClass)
		default:
			p.log.Warn("Unsupported pseudo-class", zap.String("name", name))
			p.condition(sel, UnsupportedCondition())
		}
		return i, nil

	case css.FunctionToken:
		name := strings.ToLower(strings.TrimSuffix(string(t.Data), "("))
		var arg strings.Builder
		depth := 1
		for ; i < len(tokens) && depth > 0; i++ {
			switch tokens[i].TokenType {
			case css.FunctionToken, css.LeftParenthesisToken:
				depth++
			case css.RightParenthesisToken:
				depth--
			}
			if depth > 0 && tokens[i].TokenType != css.WhitespaceToken {
				arg.Write(tokens[i].Data)
			}
		}
		if depth > 0 {
			return 0, errors.New("unterminated function")
		}
		switch name {
		case "nth-child":
			cond, ok := nthChild(arg.String())
			if !ok {
				return 0, fmt.Errorf("bad nth-child argument %q", arg.String())
			}
			p.condition(sel, cond)
		case "lang":
			p.condition(sel, LangCondition(unquote(arg.String())))
		default:
			p.log.Warn("Unsupported pseudo-class", zap.String("name", name))
			p.condition(sel, UnsupportedCondition())
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w %q", errUnexpectedToken, t.Data)
}

// nthChild parses an+b, odd and even.
func nthChild(s string) (Condition, bool) {
	s = strings.ToLower(s)
	switch s {
	case "odd":
		return OddChildCondition(), true
	case "even":
		return EvenChildCondition(), true
	}
	a, b := 0, 0
	idx := strings.IndexByte(s, 'n')
	if idx < 0 {
		v, ok := atoi(s)
		if !ok {
			return nil, false
		}
		return NthChildCondition(0, v), true
	}
	switch prefix := s[:idx]; prefix {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		v, ok := atoi(prefix)
		if !ok {
			return nil, false
		}
		a = v
	}
	if rest := s[idx+1:]; rest != "" {
		v, ok := atoi(rest)
		if !ok {
			return nil, false
		}
		b = v
	}
	return NthChildCondition(a, b), true
}

func atoi(s string) (int, bool) {
	v, n := strconv.ParseInt([]byte(s))
	if n == 0 || n != len(s) {
		return 0, false
	}
	return int(v), true
}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "dotted": true, "dashed": true, "solid": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
}

// expandShorthand splits box and border shorthands into longhands so the
// cascade resolves each side on its own.
func expandShorthand(name, value string, important bool, origin Origin) []*PropertyDeclaration {
	decl := func(n, v string) *PropertyDeclaration {
		return NewPropertyDeclaration(n, v, important, origin)
	}
	switch name {
	case "margin", "padding":
		return boxSides(name+"-", "", value, decl)
	case "border-width", "border-style", "border-color":
		return boxSides("border-", strings.TrimPrefix(name, "border"), value, decl)
	case "border":
		var out []*PropertyDeclaration
		for _, side := range sides {
			out = append(out, borderSide(side, value, decl)...)
		}
		return out
	case "border-top", "border-right", "border-bottom", "border-left":
		return borderSide(strings.TrimPrefix(name, "border-"), value, decl)
	}
	return []*PropertyDeclaration{decl(name, value)}
}

// boxSides expands one to four values the way margin does: top, right,
// bottom, left with missing sides copied from their opposite.
func boxSides(prefix, suffix, value string, decl func(n, v string) *PropertyDeclaration) []*PropertyDeclaration {
	parts := strings.Fields(value)
	var v [4]string
	switch len(parts) {
	case 1:
		v = [4]string{parts[0], parts[0], parts[0], parts[0]}
	case 2:
		v = [4]string{parts[0], parts[1], parts[0], parts[1]}
	case 3:
		v = [4]string{parts[0], parts[1], parts[2], parts[1]}
	case 4:
		v = [4]string{parts[0], parts[1], parts[2], parts[3]}
	default:
		return nil
	}
	out := make([]*PropertyDeclaration, 4)
	for i, side := range sides {
		out[i] = decl(prefix+side+suffix, v[i])
	}
	return out
}

// borderSide expands "1px solid black" for one side. Omitted parts reset
// to their initial values.
func borderSide(side, value string, decl func(n, v string) *PropertyDeclaration) []*PropertyDeclaration {
	width, style, color := "medium", "none", "currentcolor"
	for _, part := range strings.Fields(value) {
		lower := strings.ToLower(part)
		switch {
		case borderStyles[lower]:
			style = lower
		case lower == "thin" || lower == "medium" || lower == "thick":
			width = lower
		case isLength(part):
			width = part
		default:
			color = part
		}
	}
	prefix := "border-" + side
	return []*PropertyDeclaration{
		decl(prefix+"-width", width),
		decl(prefix+"-style", style),
		decl(prefix+"-color", color),
	}
}

func isLength(s string) bool {
	_, unit, ok := parseDimension(s)
	return ok && unit != "%"
}
