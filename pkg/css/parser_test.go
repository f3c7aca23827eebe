package css

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func declStrings(decls []*PropertyDeclaration) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.String()
	}
	return out
}

func TestParseStylesheet_Rulesets(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))
	sheet := p.ParseStylesheet(`
		div { color: red; }
		p, span { width: 10px !important; display: block }
	`, "test.css", Author)

	require.Len(t, sheet.Contents, 2)
	assert.Empty(t, sheet.Warnings)

	first := sheet.Contents[0].(*Ruleset)
	assert.Equal(t, Author, first.Origin)
	assert.Equal(t, []string{"color: red"}, declStrings(first.Declarations))
	require.Len(t, first.Selectors, 1)
	assert.Equal(t, "div", first.Selectors[0].Name())

	second := sheet.Contents[1].(*Ruleset)
	assert.Equal(t, []string{"width: 10px !important", "display: block"}, declStrings(second.Declarations))
	require.Len(t, second.Selectors, 2)
	assert.Same(t, second, second.Selectors[1].Ruleset())
}

func TestParseStylesheet_ShorthandExpansion(t *testing.T) {
	p := NewParser(nil)
	rs := p.ParseDeclarations(Author, "margin: 1px 2px; border: 3px solid; border-left: thin dotted red; padding: 1px 2px 3px")

	want := []string{
		"margin-top: 1px", "margin-right: 2px", "margin-bottom: 1px", "margin-left: 2px",
		"border-top-width: 3px", "border-top-style: solid", "border-top-color: currentcolor",
		"border-right-width: 3px", "border-right-style: solid", "border-right-color: currentcolor",
		"border-bottom-width: 3px", "border-bottom-style: solid", "border-bottom-color: currentcolor",
		"border-left-width: 3px", "border-left-style: solid", "border-left-color: currentcolor",
		"border-left-width: thin", "border-left-style: dotted", "border-left-color: red",
		"padding-top: 1px", "padding-right: 2px", "padding-bottom: 3px", "padding-left: 2px",
	}
	if diff := cmp.Diff(want, declStrings(rs.Declarations)); diff != "" {
		t.Errorf("declarations mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDeclarations_Inline(t *testing.T) {
	p := NewParser(nil)
	rs := p.ParseDeclarations(User, "COLOR: Red; width:50% ; ; bogus; font-family: 'A B', serif !IMPORTANT")

	require.Len(t, rs.Declarations, 3)
	assert.Equal(t, "color", rs.Declarations[0].Name)
	assert.Equal(t, "Red", rs.Declarations[0].Value)
	assert.Equal(t, "50%", rs.Declarations[1].Value)
	assert.Equal(t, User, rs.Declarations[2].Origin)
	assert.True(t, rs.Declarations[2].Important)
	assert.Equal(t, "'A B',serif", rs.Declarations[2].Value)
}

func TestParseStylesheet_AtRules(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t))
	sheet := p.ParseStylesheet(`
		@import url("base.css");
		@import "print.css" print;
		@charset "utf-8";
		@media print, screen and (min-width: 600px) {
			td { padding: 2px }
			@supports (display: grid) { td { color: red } }
		}
		@keyframes spin { from { color: red } to { color: blue } }
		@font-face { font-family: "Body Font"; src: url(a.woff) }
		@page wide:left { margin: 1in; @top-center { content: "Title" } }
		p { color: green }
	`, "", Author)

	assert.Equal(t, []string{"base.css", "print.css"}, sheet.Imports)
	require.Len(t, sheet.Contents, 4)

	media := sheet.Contents[0].(*MediaRule)
	require.Len(t, media.Media, 2)
	assert.Equal(t, "print", media.Media[0].Type)
	assert.Equal(t, "screen", media.Media[1].Type)
	assert.Equal(t, []MediaFeature{{Name: "min-width", Value: 600}}, media.Media[1].Features)
	require.Len(t, media.Rules, 1)
	assert.Len(t, media.Rules[0].Declarations, 4)

	font := sheet.Contents[1].(*FontFaceRule)
	assert.Equal(t, "Body Font", font.Family())

	page := sheet.Contents[2].(*PageRule)
	assert.Equal(t, "wide", page.Name)
	assert.Equal(t, "left", page.PseudoPage)
	assert.Len(t, page.Ruleset.Declarations, 4)
	require.Contains(t, page.MarginBoxes, "top-center")
	assert.Equal(t, []string{`content: "Title"`}, declStrings(page.MarginBoxes["top-center"]))

	rs := sheet.Contents[3].(*Ruleset)
	assert.Equal(t, "p", rs.Selectors[0].Name())
}

func TestParseSelectors_Chains(t *testing.T) {
	p := NewParser(nil)

	t.Run("descendant and child", func(t *testing.T) {
		sels, warnings := p.ParseSelectors("table > tr td.x")
		require.Empty(t, warnings)
		require.Len(t, sels, 1)

		table := sels[0]
		tr := table.ChainedSelector()
		td := tr.ChainedSelector()
		require.NotNil(t, td)
		assert.Equal(t, DescendantAxis, table.Axis())
		assert.Equal(t, ChildAxis, tr.Axis())
		assert.Equal(t, DescendantAxis, td.Axis())
		assert.Nil(t, td.ChainedSelector())

		b, c, d := td.Specificity()
		assert.Equal(t, []int{0, 1, 3}, []int{b, c, d})
	})

	t.Run("adjacent sibling", func(t *testing.T) {
		sels, _ := p.ParseSelectors("ul > li + li")
		require.Len(t, sels, 1)

		ul := sels[0]
		li := ul.ChainedSelector()
		require.NotNil(t, li)
		assert.Nil(t, li.ChainedSelector())
		assert.Equal(t, ChildAxis, li.Axis(), "the sibling's axis moves to the compound after it")

		prev := li.SiblingSelector()
		require.NotNil(t, prev)
		assert.Equal(t, ImmediateSiblingAxis, prev.Axis())
		assert.Equal(t, "li", prev.Name())

		_, _, d := li.Specificity()
		assert.Equal(t, 3, d)
	})

	t.Run("groups", func(t *testing.T) {
		sels, warnings := p.ParseSelectors("#a, .b:first-child, *[title~=x], p::before, a:hover")
		assert.Empty(t, warnings)
		require.Len(t, sels, 5)

		b, _, _ := sels[0].Specificity()
		assert.Equal(t, 1, b)
		_, c, _ := sels[1].Specificity()
		assert.Equal(t, 2, c)
		assert.Equal(t, "", sels[2].Name())
		assert.Equal(t, "before", sels[3].PseudoElement())
		assert.True(t, sels[4].IsPseudoClass(HoverPseudoClass))
	})

	t.Run("legacy pseudo-element", func(t *testing.T) {
		sels, _ := p.ParseSelectors("p:first-line")
		require.Len(t, sels, 1)
		assert.Equal(t, "first-line", sels[0].PseudoElement())
	})

	t.Run("bad groups are dropped", func(t *testing.T) {
		sels, warnings := p.ParseSelectors("p::before span, div, ::nonsense")
		require.Len(t, sels, 1)
		assert.Equal(t, "div", sels[0].Name())
		assert.Len(t, warnings, 2)
	})

	t.Run("unsupported pseudo-class keeps the selector", func(t *testing.T) {
		sels, warnings := p.ParseSelectors("p:not(.x), a ~ b")
		assert.Empty(t, warnings)
		require.Len(t, sels, 2)
	})
}

func TestNthChild(t *testing.T) {
	tests := []struct {
		arg  string
		want Condition
	}{
		{"odd", OddChildCondition()},
		{"EVEN", EvenChildCondition()},
		{"3", NthChildCondition(0, 3)},
		{"2n+1", NthChildCondition(2, 1)},
		{"n", NthChildCondition(1, 0)},
		{"-n+3", NthChildCondition(-1, 3)},
		{"3n-2", NthChildCondition(3, -2)},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, ok := nthChild(tt.arg)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := nthChild("2x")
	assert.False(t, ok)
}
