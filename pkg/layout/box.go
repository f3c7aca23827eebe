package layout

import (
	"saucer/pkg/css"
	"saucer/pkg/html"
	"saucer/pkg/text"
)

// Box carries what every table part shares: its element (html.NoNode for
// anonymous boxes) and its styles.
type Box struct {
	Element  html.NodeID
	Cascaded *css.CascadedStyle
	Style    *css.Style
}

// IsAnonymous reports whether the box was generated rather than taken from
// an element.
func (b *Box) IsAnonymous() bool {
	return b.Element == html.NoNode
}

// TableColumn is a col or colgroup element. Columns inside a colgroup point
// at it through Parent.
type TableColumn struct {
	Box
	Span   int
	Parent *TableColumn
}

// width is the declared column width, falling back to the colgroup's.
func (c *TableColumn) width() css.Length {
	w := c.Style.Width
	if w.IsVariable() && c.Parent != nil {
		w = c.Parent.Style.Width
	}
	return w
}

// ColumnData is one effective column. Span is the number of authored
// columns it stands for.
type ColumnData struct {
	Span int
}

// TableSectionBox is a row group: thead, tbody, tfoot or an anonymous group
// wrapping bare rows. The grid holds one slot per effective column for each
// row.
type TableSectionBox struct {
	Box
	Rows []*TableRowBox

	table *TableBox
	grid  [][]*TableCellBox
}

func (s *TableSectionBox) IsHeader() bool { return s.Style.Display == "table-header-group" }
func (s *TableSectionBox) IsFooter() bool { return s.Style.Display == "table-footer-group" }

// NumRows counts grid rows, which includes rows added for rowspans reaching
// past the last row.
func (s *TableSectionBox) NumRows() int {
	return len(s.grid)
}

type TableRowBox struct {
	Box
	Cells []*TableCellBox
}

// TableCellBox is a table cell. Row is the index of its first row in the
// section, Col the authored column index it starts at.
type TableCellBox struct {
	Box
	ColSpan int
	RowSpan int
	Row     int
	Col     int

	// Content is the cell's inline content, one flow per block.
	Content []Flow
	// Width is the border-box width assigned by layout.
	Width int

	section        *TableSectionBox
	minWidth       int
	maxWidth       int
	minMaxComputed bool
}

// spanningCell fills the grid slots covered by a cell's colspan after its
// first column.
var spanningCell = &TableCellBox{}

// Section is the row group holding the cell.
func (c *TableCellBox) Section() *TableSectionBox { return c.section }

func (c *TableCellBox) MinWidth() int { return c.minWidth }
func (c *TableCellBox) MaxWidth() int { return c.maxWidth }

// Flow is a run of inline content between block boundaries.
type Flow struct {
	Runs []text.Run
	// Atoms are widths of replaced elements sitting in the flow.
	Atoms []int
	// Tables are nested tables, each sized by its own min/max widths.
	Tables []*TableBox
}

// Strategy names the column width algorithm a table uses.
type Strategy int

const (
	StrategyAuto Strategy = iota
	StrategyFixed
	// StrategyMargin is auto layout for page margin area tables.
	StrategyMargin
)

func (s Strategy) String() string {
	switch s {
	case StrategyFixed:
		return "fixed"
	case StrategyMargin:
		return "margin"
	}
	return "auto"
}
