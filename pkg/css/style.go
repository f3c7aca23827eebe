package css

import (
	"math"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/strconv"
)

// MaxWidth stands in for an unbounded width.
const MaxWidth = math.MaxInt32 / 2

const defaultFontSize = 16.0

type LengthType int

const (
	LengthVariable LengthType = iota
	LengthFixed
	LengthPercent
)

// Length is a horizontal size as the table algorithms consume it. Fixed
// values are whole pixels; percent values are whole percentages.
type Length struct {
	Type  LengthType
	Value int
}

func FixedLength(px int) Length { return Length{Type: LengthFixed, Value: px} }
func PercentLength(pct int) Length { return Length{Type: LengthPercent, Value: pct} }
func (l Length) IsVariable() bool { return l.Type == LengthVariable }
func (l Length) IsFixed() bool { return l.Type == LengthFixed }
func (l Length) IsPercent() bool { return l.Type == LengthPercent }

// Width resolves l against maxWidth. A variable length takes all of it.
func (l Length) Width(maxWidth int) int {
	switch l.Type {
	case LengthFixed:
		return l.Value
	case LengthPercent:
		return maxWidth * l.Value / 100
	}
	return maxWidth
}

// MinWidth resolves l against maxWidth. A variable length is zero.
func (l Length) MinWidth(maxWidth int) int {
	switch l.Type {
	case LengthFixed:
		return l.Value
	case LengthPercent:
		return maxWidth * l.Value / 100
	}
	return 0
}

func (l Length) String() string {
	switch l.Type {
	case LengthFixed:
		return string(strconv.AppendInt(nil, int64(l.Value))) + "px"
	case LengthPercent:
		return string(strconv.AppendInt(nil, int64(l.Value))) + "%"
	}
	return "auto"
}

// BoxEdge holds resolved pixel values for the four sides of a box.
type BoxEdge struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

func (b BoxEdge) Horizontal() int { return b.Left + b.Right }

// LengthEdge holds unresolved values for the four sides of a box.
type LengthEdge struct {
	Top    Length
	Right  Length
	Bottom Length
	Left   Length
}

// Resolve turns percentages into pixels against the containing block
// width. Auto sides resolve to zero.
func (e LengthEdge) Resolve(cbWidth int) BoxEdge {
	return BoxEdge{
		Top:    e.Top.MinWidth(cbWidth),
		Right:  e.Right.MinWidth(cbWidth),
		Bottom: e.Bottom.MinWidth(cbWidth),
		Left:   e.Left.MinWidth(cbWidth),
	}
}

// Style is the computed subset of properties the table engine reads.
type Style struct {
	Display     string
	Width       Length
	MinWidth    Length
	Margin      LengthEdge
	Padding     LengthEdge
	Border      BoxEdge
	TableLayout string

	// Inherited.
	FontSize       float64
	WhiteSpace     string
	BorderCollapse bool
	BorderSpacingH int
	BorderSpacingV int
}

var sides = [4]string{"top", "right", "bottom", "left"}

// ComputeStyle derives the computed subset from a cascaded style. The
// parent supplies inherited values and the em base; nil means the root.
func ComputeStyle(c *CascadedStyle, parent *Style) *Style {
	if c == nil {
		c = EmptyCascadedStyle()
	}
	s := &Style{
		Display:     "inline",
		TableLayout: "auto",
		FontSize:    defaultFontSize,
		WhiteSpace:  "normal",
	}
	if parent != nil {
		s.FontSize = parent.FontSize
		s.WhiteSpace = parent.WhiteSpace
		s.BorderCollapse = parent.BorderCollapse
		s.BorderSpacingH = parent.BorderSpacingH
		s.BorderSpacingV = parent.BorderSpacingV
	}

	if d := c.PropertyByName("font-size"); d != nil {
		s.FontSize = fontSize(d.Value, s.FontSize)
	}
	if v := c.Ident("display"); v != "" {
		s.Display = v
	}
	if v := c.Ident("white-space"); v != "" && v != "inherit" {
		s.WhiteSpace = v
	}
	if v := c.Ident("border-collapse"); v != "" && v != "inherit" {
		s.BorderCollapse = v == "collapse"
	}
	if v := c.Ident("table-layout"); v != "" {
		s.TableLayout = v
	}
	if d := c.PropertyByName("border-spacing"); d != nil {
		fields := strings.Fields(d.Value)
		if len(fields) > 0 {
			h, hok := parseLengthPx(fields[0], s.FontSize)
			v, vok := h, hok
			if len(fields) > 1 {
				v, vok = parseLengthPx(fields[1], s.FontSize)
			}
			if hok && vok {
				s.BorderSpacingH, s.BorderSpacingV = round(h), round(v)
			}
		}
	}

	s.Width = s.length(c, "width")
	s.MinWidth = s.length(c, "min-width")

	margin := [4]*Length{&s.Margin.Top, &s.Margin.Right, &s.Margin.Bottom, &s.Margin.Left}
	padding := [4]*Length{&s.Padding.Top, &s.Padding.Right, &s.Padding.Bottom, &s.Padding.Left}
	border := [4]*int{&s.Border.Top, &s.Border.Right, &s.Border.Bottom, &s.Border.Left}
	for i, side := range sides {
		*margin[i] = s.length(c, "margin-"+side)
		*padding[i] = s.length(c, "padding-"+side)
		*border[i] = s.borderWidth(c, side)
	}
	return s
}

func (s *Style) length(c *CascadedStyle, name string) Length {
	d := c.PropertyByName(name)
	if d == nil {
		return Length{}
	}
	return ParseLength(d.Value, s.FontSize)
}

func (s *Style) borderWidth(c *CascadedStyle, side string) int {
	switch c.Ident("border-" + side + "-style") {
	case "", "none", "hidden":
		return 0
	}
	d := c.PropertyByName("border-" + side + "-width")
	if d == nil {
		return 3
	}
	switch strings.ToLower(d.Value) {
	case "thin":
		return 1
	case "medium":
		return 3
	case "thick":
		return 5
	}
	px, ok := parseLengthPx(d.Value, s.FontSize)
	if !ok || px < 0 {
		return 3
	}
	return round(px)
}

// IsTable reports whether the box is a table or inline table.
func (s *Style) IsTable() bool {
	return s.Display == "table" || s.Display == "inline-table"
}

// IsFixedLayout reports whether the table uses the fixed layout algorithm:
// table-layout is fixed and the width is not auto.
func (s *Style) IsFixedLayout() bool {
	return s.TableLayout == "fixed" && !s.Width.IsVariable()
}

// CollapsesWhitespace reports whether runs of spaces become one.
func (s *Style) CollapsesWhitespace() bool {
	return s.WhiteSpace != "pre" && s.WhiteSpace != "pre-wrap"
}

// Wraps reports whether lines may break at spaces.
func (s *Style) Wraps() bool {
	return s.WhiteSpace != "nowrap" && s.WhiteSpace != "pre"
}

// ParseLength parses a width value. Auto and unparsable values are
// variable; em and ex are relative to fontSize.
func ParseLength(value string, fontSize float64) Length {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "auto") {
		return Length{}
	}
	num, unit, ok := parseDimension(value)
	if !ok {
		return Length{}
	}
	if unit == "%" {
		return PercentLength(round(num))
	}
	px, ok := toPixels(num, unit, fontSize)
	if !ok {
		return Length{}
	}
	return FixedLength(round(px))
}

func parseLengthPx(value string, fontSize float64) (float64, bool) {
	num, unit, ok := parseDimension(value)
	if !ok || unit == "%" {
		return 0, false
	}
	return toPixels(num, unit, fontSize)
}

// parsePixels converts an absolute length to pixels. Relative units are
// measured against the default font size.
func parsePixels(value string) (float64, bool) {
	return parseLengthPx(value, defaultFontSize)
}

func parseDimension(value string) (float64, string, bool) {
	b := []byte(strings.TrimSpace(value))
	n, u := parse.Dimension(b)
	if n == 0 || n+u != len(b) {
		return 0, "", false
	}
	num, m := strconv.ParseFloat(b[:n])
	if m != n {
		return 0, "", false
	}
	return num, strings.ToLower(string(b[n:])), true
}

func toPixels(num float64, unit string, fontSize float64) (float64, bool) {
	switch unit {
	case "", "px":
		return num, true
	case "pt":
		return num * 96 / 72, true
	case "pc":
		return num * 16, true
	case "in":
		return num * 96, true
	case "cm":
		return num * 96 / 2.54, true
	case "mm":
		return num * 96 / 25.4, true
	case "em":
		return num * fontSize, true
	case "ex":
		return num * fontSize / 2, true
	}
	return 0, false
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 9,
	"x-small":  10,
	"small":    13,
	"medium":   16,
	"large":    18,
	"x-large":  24,
	"xx-large": 32,
}

func fontSize(value string, parentSize float64) float64 {
	value = strings.ToLower(strings.TrimSpace(value))
	if px, ok := fontSizeKeywords[value]; ok {
		return px
	}
	switch value {
	case "smaller":
		return parentSize / 1.2
	case "larger":
		return parentSize * 1.2
	case "inherit":
		return parentSize
	}
	num, unit, ok := parseDimension(value)
	if !ok {
		return parentSize
	}
	if unit == "%" {
		return parentSize * num / 100
	}
	px, ok := toPixels(num, unit, parentSize)
	if !ok || px < 0 {
		return parentSize
	}
	return px
}

func round(f float64) int {
	return int(math.Round(f))
}
