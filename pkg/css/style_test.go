package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLength(t *testing.T) {
	tests := []struct {
		value string
		want  Length
	}{
		{"auto", Length{}},
		{"", Length{}},
		{"100px", FixedLength(100)},
		{"100", FixedLength(100)},
		{"50%", PercentLength(50)},
		{"12pt", FixedLength(16)},
		{"1in", FixedLength(96)},
		{"2.54cm", FixedLength(96)},
		{"1pc", FixedLength(16)},
		{"2em", FixedLength(20)},
		{"2ex", FixedLength(10)},
		{"10furlongs", Length{}},
		{"calc(1px)", Length{}},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLength(tt.value, 10))
		})
	}
}

func TestLength_Resolve(t *testing.T) {
	assert.Equal(t, 30, FixedLength(30).Width(200))
	assert.Equal(t, 50, PercentLength(25).Width(200))
	assert.Equal(t, 200, Length{}.Width(200))
	assert.Equal(t, 0, Length{}.MinWidth(200))
	assert.Equal(t, "auto", Length{}.String())
	assert.Equal(t, "25%", PercentLength(25).String())
	assert.Equal(t, "30px", FixedLength(30).String())
}

func TestComputeStyle_Defaults(t *testing.T) {
	s := ComputeStyle(nil, nil)
	assert.Equal(t, "inline", s.Display)
	assert.Equal(t, "auto", s.TableLayout)
	assert.Equal(t, 16.0, s.FontSize)
	assert.True(t, s.Width.IsVariable())
	assert.Equal(t, BoxEdge{}, s.Border)
	assert.True(t, s.CollapsesWhitespace())
	assert.True(t, s.Wraps())
}

func TestComputeStyle_BoxProperties(t *testing.T) {
	rs := NewParser(nil).ParseDeclarations(Author,
		"display: table; width: 50%; margin: 0 auto; padding: 2px 10%; "+
			"border: 4px solid; border-right-style: none; border-bottom-width: thick; "+
			"border-spacing: 3px 1px; table-layout: fixed; white-space: nowrap")
	s := ComputeStyle(NewCascadedStyle(rs.Declarations), nil)

	assert.True(t, s.IsTable())
	assert.True(t, s.IsFixedLayout())
	assert.Equal(t, PercentLength(50), s.Width)
	assert.True(t, s.Margin.Left.IsVariable())
	assert.Equal(t, FixedLength(0), s.Margin.Top)
	assert.Equal(t, BoxEdge{Top: 2, Right: 20, Bottom: 2, Left: 20}, s.Padding.Resolve(200))
	assert.Equal(t, BoxEdge{Top: 4, Right: 0, Bottom: 5, Left: 4}, s.Border)
	assert.Equal(t, 4, s.Border.Horizontal())
	assert.Equal(t, 3, s.BorderSpacingH)
	assert.Equal(t, 1, s.BorderSpacingV)
	assert.False(t, s.Wraps())
}

func TestComputeStyle_FixedLayoutNeedsWidth(t *testing.T) {
	rs := NewParser(nil).ParseDeclarations(Author, "display: table; table-layout: fixed")
	s := ComputeStyle(NewCascadedStyle(rs.Declarations), nil)
	assert.False(t, s.IsFixedLayout())
}

func TestComputeStyle_Inheritance(t *testing.T) {
	p := NewParser(nil)
	parent := ComputeStyle(NewCascadedStyle(p.ParseDeclarations(Author,
		"font-size: 20px; white-space: pre; border-collapse: collapse; border-spacing: 6px; width: 100px").Declarations), nil)

	child := ComputeStyle(NewCascadedStyle(p.ParseDeclarations(Author, "padding-left: 1em").Declarations), parent)
	assert.Equal(t, 20.0, child.FontSize)
	assert.Equal(t, "pre", child.WhiteSpace)
	assert.True(t, child.BorderCollapse)
	assert.Equal(t, 6, child.BorderSpacingH)
	assert.True(t, child.Width.IsVariable(), "width is not inherited")
	assert.Equal(t, FixedLength(20), child.Padding.Left)

	relative := ComputeStyle(NewCascadedStyle(p.ParseDeclarations(Author, "font-size: 150%").Declarations), parent)
	assert.Equal(t, 30.0, relative.FontSize)

	keyword := ComputeStyle(NewCascadedStyle(p.ParseDeclarations(Author, "font-size: small").Declarations), parent)
	assert.Equal(t, 13.0, keyword.FontSize)
}
