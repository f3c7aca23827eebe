package css

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"saucer/pkg/html"
)

var screen = Medium{Type: "screen", Width: 1024, Height: 768}

func newTestMatcher(t *testing.T, doc *html.Document, author string) *Matcher {
	t.Helper()
	log := zaptest.NewLogger(t)
	p := NewParser(log)
	sheet := p.ParseStylesheet(author, "author.css", Author)
	require.Empty(t, sheet.Warnings)
	return NewMatcher(doc, doc, p, []*Stylesheet{sheet}, screen, log)
}

func parseDoc(t *testing.T, src string) *html.Document {
	t.Helper()
	doc, err := html.Parse(src)
	require.NoError(t, err)
	return doc
}

func byID(t *testing.T, doc *html.Document, id string) html.NodeID {
	t.Helper()
	n := doc.ElementByID(id)
	require.NotNil(t, n, "no element with id %q", id)
	return n.ID
}

func value(s *CascadedStyle, name string) string {
	if d := s.PropertyByName(name); d != nil {
		return d.Value
	}
	return ""
}

func TestMatcher_SpecificityOverride(t *testing.T) {
	doc := parseDoc(t, `<div id="header" class="highlight">x</div><div id="plain">y</div>`)
	m := newTestMatcher(t, doc, `
		#header { color: green; }
		.highlight { color: blue; }
		div { color: red; }
	`)

	assert.Equal(t, "green", value(m.CascadedStyle(byID(t, doc, "header"), false), "color"))
	assert.Equal(t, "red", value(m.CascadedStyle(byID(t, doc, "plain"), false), "color"))
}

func TestMatcher_SourceOrderBreaksTies(t *testing.T) {
	doc := parseDoc(t, `<p id="p" class="a b">x</p>`)
	m := newTestMatcher(t, doc, `.b { color: red } .a { color: blue }`)
	assert.Equal(t, "blue", value(m.CascadedStyle(byID(t, doc, "p"), false), "color"))
}

func TestMatcher_StyleAttributeAndPresentation(t *testing.T) {
	doc := parseDoc(t, `<table id="t" width="200" style="color: red"><tr><td id="c">x</td></tr></table>
		<table id="u" width="150"><tr><td>y</td></tr></table>`)
	m := newTestMatcher(t, doc, `
		#t { color: blue; width: 300px; }
		table { border-collapse: collapse !important; }
		#u { height: 10px }
	`)

	styleT := m.CascadedStyle(byID(t, doc, "t"), false)
	assert.Equal(t, "red", value(styleT, "color"), "style attribute beats id")
	assert.Equal(t, "300px", value(styleT, "width"), "stylesheet beats presentation attribute")
	assert.Equal(t, "collapse", value(styleT, "border-collapse"))

	styleU := m.CascadedStyle(byID(t, doc, "u"), false)
	assert.Equal(t, "150px", value(styleU, "width"))

	plain := newTestMatcher(t, doc, `#t { color: blue !important }`)
	assert.Equal(t, "blue", value(plain.CascadedStyle(byID(t, doc, "t"), false), "color"),
		"important author rule beats normal style attribute")
}

func TestMatcher_Axes(t *testing.T) {
	doc := parseDoc(t, `<div id="outer"><section><p id="deep">a</p></section><p id="direct">b</p></div>
		<ul><li id="one">1</li><li id="two">2</li><li id="three">3</li></ul>`)
	m := newTestMatcher(t, doc, `
		div p { color: red }
		div > p { width: 1px }
		li + li { color: blue }
		ul > li + li + li { width: 3px }
	`)

	deep := m.CascadedStyle(byID(t, doc, "deep"), false)
	assert.Equal(t, "red", value(deep, "color"))
	assert.False(t, deep.HasProperty("width"), "child axis must not reach grandchildren")

	direct := m.CascadedStyle(byID(t, doc, "direct"), false)
	assert.Equal(t, "1px", value(direct, "width"))

	assert.False(t, m.CascadedStyle(byID(t, doc, "one"), false).HasProperty("color"))
	assert.Equal(t, "blue", value(m.CascadedStyle(byID(t, doc, "two"), false), "color"))
	assert.False(t, m.CascadedStyle(byID(t, doc, "two"), false).HasProperty("width"))
	assert.Equal(t, "3px", value(m.CascadedStyle(byID(t, doc, "three"), false), "width"))
}

func TestMatcher_SiblingsShareMapper(t *testing.T) {
	doc := parseDoc(t, `<ul><li id="a" class="x">1</li><li id="b" class="x">2</li><li id="c" class="y">3</li></ul>`)
	m := newTestMatcher(t, doc, `ul li { color: red } .y { color: blue }`)

	a, b, c := byID(t, doc, "a"), byID(t, doc, "b"), byID(t, doc, "c")
	for _, e := range []html.NodeID{a, b, c} {
		m.CascadedStyle(e, false)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Same(t, m.mappers[a], m.mappers[b])
	assert.NotSame(t, m.mappers[a], m.mappers[c])
}

func TestMatcher_RestyleRelinks(t *testing.T) {
	doc := parseDoc(t, `<p id="p" class="a">x</p>`)
	m := newTestMatcher(t, doc, `.a { color: red } .b { color: blue }`)
	p := byID(t, doc, "p")

	assert.Equal(t, "red", value(m.CascadedStyle(p, false), "color"))

	doc.Node(p).Attributes["class"] = "b"
	assert.Equal(t, "red", value(m.CascadedStyle(p, false), "color"), "memoized until restyle")
	assert.Equal(t, "blue", value(m.CascadedStyle(p, true), "color"))

	doc.Node(p).Attributes["class"] = "a"
	m.RemoveStyle(p)
	assert.Equal(t, "red", value(m.CascadedStyle(p, false), "color"))
}

func TestMatcher_DynamicPseudoClasses(t *testing.T) {
	doc := parseDoc(t, `<a id="seen" href="/seen">x</a><a id="fresh" href="/fresh">y</a><p id="p">z</p>`)
	doc.MarkVisited("/seen")
	m := newTestMatcher(t, doc, `
		a:link { color: blue }
		a:visited { color: purple }
		a:hover { color: red }
		p:focus { width: 1px }
	`)

	seen, fresh, p := byID(t, doc, "seen"), byID(t, doc, "fresh"), byID(t, doc, "p")
	assert.Equal(t, "purple", value(m.CascadedStyle(seen, false), "color"))
	assert.Equal(t, "blue", value(m.CascadedStyle(fresh, false), "color"))
	assert.False(t, m.CascadedStyle(p, false).HasProperty("width"))

	assert.True(t, m.IsVisitedStyled(seen))
	assert.True(t, m.IsHoverStyled(seen))
	assert.True(t, m.IsHoverStyled(fresh))
	assert.False(t, m.IsActiveStyled(seen))
	assert.True(t, m.IsFocusStyled(p))
	assert.False(t, m.IsHoverStyled(p))
}

func TestMatcher_PseudoElements(t *testing.T) {
	doc := parseDoc(t, `<p id="p">x</p><div id="d">y</div>`)
	m := newTestMatcher(t, doc, `
		p { color: black }
		p::before { content: "a"; color: red }
		p#p::before { color: green }
		p:first-line { width: 1px }
	`)

	p := byID(t, doc, "p")
	assert.Equal(t, "black", value(m.CascadedStyle(p, false), "color"))
	assert.False(t, m.CascadedStyle(p, false).HasProperty("content"))

	before := m.PECascadedStyle(p, "before")
	require.NotNil(t, before)
	assert.Equal(t, "green", value(before, "color"))
	assert.Equal(t, `"a"`, value(before, "content"))

	assert.NotNil(t, m.PECascadedStyle(p, "first-line"))
	assert.Nil(t, m.PECascadedStyle(p, "after"))
	assert.Nil(t, m.PECascadedStyle(byID(t, doc, "d"), "before"))
}

func TestMatcher_MediaFiltering(t *testing.T) {
	doc := parseDoc(t, `<p id="p">x</p>`)
	m := newTestMatcher(t, doc, `
		@media print { p { color: red } }
		@media screen and (min-width: 800px) { p { width: 10px } }
		@media screen and (max-width: 800px) { p { height: 10px } }
	`)

	style := m.CascadedStyle(byID(t, doc, "p"), false)
	assert.False(t, style.HasProperty("color"))
	assert.True(t, style.HasProperty("width"))
	assert.False(t, style.HasProperty("height"))
}

func TestMatcher_SheetMediaAndOrigins(t *testing.T) {
	doc := parseDoc(t, `<p id="p">x</p>`)
	p := NewParser(nil)
	ua := p.ParseStylesheet(`p { color: gray; display: block }`, "ua", UserAgent)
	user := p.ParseStylesheet(`p { color: green !important }`, "user", User)
	printOnly := p.ParseStylesheet(`p { color: red !important }`, "print", Author)
	printOnly.Media = ParseMediaQueryList("print")
	author := p.ParseStylesheet(`p { color: blue }`, "author", Author)

	m := NewMatcher(doc, doc, p, []*Stylesheet{ua, user, printOnly, author}, screen, nil)
	style := m.CascadedStyle(byID(t, doc, "p"), false)
	assert.Equal(t, "green", value(style, "color"))
	assert.Equal(t, "block", style.Ident("display"))
}

func TestMatcher_PageCascadedStyle(t *testing.T) {
	doc := parseDoc(t, `<p>x</p>`)
	m := newTestMatcher(t, doc, `
		@page { size: a4; margin-top: 1cm }
		@page :right { margin-right: 3cm; @top-center { content: "R" } }
		@page :first { margin-top: 2cm; @top-center { content: "F" } }
		@page :left { margin-left: 2cm }
		@page cover { margin-left: 0 }
	`)

	info := m.PageCascadedStyle("", "first")
	assert.Equal(t, "2cm", value(info.Style, "margin-top"), ":first outranks the blank rule")
	assert.Equal(t, "3cm", value(info.Style, "margin-right"), "the first page is a right page")
	assert.False(t, info.Style.HasProperty("margin-left"))
	assert.Len(t, info.Properties, 4)
	assert.Equal(t, `"F"`, value(info.MarginBoxStyle("top-center"), "content"))
	assert.Nil(t, info.MarginBoxStyle("bottom-left"))

	left := m.PageCascadedStyle("", "left")
	assert.Equal(t, "2cm", value(left.Style, "margin-left"))
	assert.Empty(t, left.MarginBoxes)

	cover := m.PageCascadedStyle("cover", "left")
	assert.Equal(t, "0", value(cover.Style, "margin-left"))
}

func TestMatcher_FontFaceRules(t *testing.T) {
	doc := parseDoc(t, `<p>x</p>`)
	m := newTestMatcher(t, doc, `@font-face { font-family: Sans } @media print { p { color: red } }`)
	require.Len(t, m.FontFaceRules(), 1)
	assert.Equal(t, "Sans", m.FontFaceRules()[0].Family())
}

func TestMatcher_Restyle(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc := parseDoc(t, `<table><tr><td class="a">1</td><td>2</td></tr><tr><td class="a">3</td><td>4</td></tr></table>`)
	m := newTestMatcher(t, doc, `td { color: red } tr td.a { color: blue } tr > td + td { width: 5px }`)

	elements := doc.Elements()
	styles, err := m.Restyle(context.Background(), elements, 4)
	require.NoError(t, err)
	require.Len(t, styles, len(elements))

	for i, e := range elements {
		require.NotNil(t, styles[i])
		assert.Equal(t, m.CascadedStyle(e, false).Fingerprint(), styles[i].Fingerprint())
	}
}

func TestMatcher_RestyleSingleWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc := parseDoc(t, `<p class="a">x</p>`)
	m := newTestMatcher(t, doc, `.a { color: red }`)

	styles, err := m.Restyle(context.Background(), doc.Elements(), 1)
	require.NoError(t, err)
	require.Len(t, styles, len(doc.Elements()))
	p := doc.ElementsByTag("p")[0].ID
	for i, e := range doc.Elements() {
		if e == p {
			assert.Equal(t, "red", value(styles[i], "color"))
		}
	}
}

func TestMatcher_RestyleCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc := parseDoc(t, `<p>x</p><p>y</p>`)
	m := newTestMatcher(t, doc, `p { color: red }`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Restyle(ctx, doc.Elements(), 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapper_SiblingAxisIsInvariantViolation(t *testing.T) {
	doc := parseDoc(t, `<p id="p">x</p>`)
	m := newTestMatcher(t, doc, ``)

	bad := NewSelector(ImmediateSiblingAxis)
	mp := &Mapper{matcher: m, axes: []*Selector{bad}}

	defer func() {
		r := recover()
		ierr, ok := r.(*InvariantError)
		require.True(t, ok, "expected *InvariantError, got %v", r)
		assert.Equal(t, "mapChild", ierr.Op)
		assert.Equal(t, bad.ID(), ierr.Selector)
	}()
	mp.mapChild(byID(t, doc, "p"))
}
