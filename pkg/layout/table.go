package layout

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"saucer/pkg/css"
	"saucer/pkg/text"
)

// TableBox is a table with its row groups and column elements. Columns are
// tracked as effective columns: a cell spanning several authored columns
// that no other cell separates occupies a single effective column.
type TableBox struct {
	Box
	Sections     []*TableSectionBox
	StyleColumns []*TableColumn
	// ContainingWidth is the content width of the containing block.
	ContainingWidth int

	marginAreaRoot bool
	strategy       Strategy
	columns        []ColumnData
	columnPos      []int

	fixed fixedState
	auto  autoState

	sizer *text.Sizer
	log   *zap.Logger

	minMaxCalculated bool
	minWidth         int
	maxWidth         int
	contentWidth     int
	width            int
}

// NewTableBox creates an empty table. marginAreaRoot selects the page
// margin variant of auto layout.
func NewTableBox(box Box, marginAreaRoot bool, sizer *text.Sizer, log *zap.Logger) *TableBox {
	if sizer == nil {
		sizer = text.NewSizer(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	t := &TableBox{Box: box, marginAreaRoot: marginAreaRoot, sizer: sizer, log: log}
	t.setStyle(box.Cascaded, box.Style)
	return t
}

// setStyle assigns the table's style and picks its layout strategy.
func (t *TableBox) setStyle(cascaded *css.CascadedStyle, style *css.Style) {
	t.Cascaded, t.Style = cascaded, style
	switch {
	case t.marginAreaRoot:
		t.strategy = StrategyMargin
	case t.Style.IsFixedLayout():
		t.strategy = StrategyFixed
	default:
		t.strategy = StrategyAuto
	}
	t.log.Debug("Table strategy selected",
		zap.Int("element", int(t.Element)),
		zap.Stringer("strategy", t.strategy))
}

func (t *TableBox) Strategy() Strategy { return t.strategy }

// AddSection appends a row group. Sections must be added before the first
// min/max calculation.
func (t *TableBox) AddSection(s *TableSectionBox) {
	s.table = t
	for _, r := range s.Rows {
		for _, c := range r.Cells {
			c.section = s
		}
	}
	t.Sections = append(t.Sections, s)
}

func (t *TableBox) NumEffCols() int { return len(t.columns) }

func (t *TableBox) SpanOfEffCol(effCol int) int { return t.columns[effCol].Span }

// ColToEffCol maps an authored column index to the effective column that
// contains it, or NumEffCols for a column past the end.
func (t *TableBox) ColToEffCol(col int) int {
	c := 0
	for i := 0; i < t.NumEffCols(); i++ {
		c += t.SpanOfEffCol(i)
		if c > col {
			return i
		}
	}
	return t.NumEffCols()
}

// EffColToCol maps an effective column to its first authored column.
func (t *TableBox) EffColToCol(effCol int) int {
	c := 0
	for i := 0; i < effCol; i++ {
		c += t.SpanOfEffCol(i)
	}
	return c
}

// AppendColumn adds an effective column standing for span authored columns.
func (t *TableBox) AppendColumn(span int) {
	t.columns = append(t.columns, ColumnData{Span: span})
	for _, s := range t.Sections {
		s.extendGridToColumnCount(len(t.columns))
	}
}

// SplitColumn divides the effective column at pos in two. The first keeps
// firstSpan authored columns and the second the rest.
func (t *TableBox) SplitColumn(pos, firstSpan int) {
	t.columns = append(t.columns, ColumnData{})
	copy(t.columns[pos+1:], t.columns[pos:])
	t.columns[pos] = ColumnData{Span: firstSpan}
	t.columns[pos+1].Span -= firstSpan

	for _, s := range t.Sections {
		s.splitColumn(pos)
	}
}

// Columns returns a copy of the effective columns.
func (t *TableBox) Columns() []ColumnData {
	return append([]ColumnData(nil), t.columns...)
}

// ColumnPos returns the left offset of every effective column followed by
// the total width. It is empty until Layout has run.
func (t *TableBox) ColumnPos() []int {
	return append([]int{}, t.columnPos...)
}

func (t *TableBox) MinWidth() int { return t.minWidth }
func (t *TableBox) MaxWidth() int { return t.maxWidth }

// Width is the border-box width chosen by Layout.
func (t *TableBox) Width() int {
	margin, _, _ := t.edges()
	return t.width - margin.Horizontal()
}

// CalcMinMaxWidth builds the cell grid and computes the table's min/max
// widths. It does nothing when they are already known.
func (t *TableBox) CalcMinMaxWidth(ctx context.Context) error {
	if t.minMaxCalculated {
		return nil
	}
	if err := t.recalcSections(ctx); err != nil {
		return err
	}
	if t.strategy == StrategyFixed {
		t.fixedCalcMinMaxWidth()
	} else if err := t.autoCalcMinMaxWidth(ctx); err != nil {
		return err
	}
	t.minMaxCalculated = true
	return nil
}

func (t *TableBox) recalcSections(ctx context.Context) error {
	for _, s := range t.Sections {
		if err := s.recalcCells(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Layout sizes the table against ContainingWidth and positions its
// columns. Nested tables are laid out inside their cells afterwards.
func (t *TableBox) Layout(ctx context.Context) error {
	if err := t.CalcMinMaxWidth(ctx); err != nil {
		return err
	}
	t.calcDimensions()
	t.calcWidth()

	if t.strategy == StrategyFixed {
		t.fixedLayout()
	} else if err := t.autoLayout(ctx); err != nil {
		return err
	}

	t.setCellWidths()
	return t.layoutNested(ctx)
}

// Reset drops every derived value so the next pass recomputes from the
// box tree.
func (t *TableBox) Reset() {
	t.fixed = fixedState{}
	t.auto = autoState{}
	t.columns = nil
	t.columnPos = nil
	t.minMaxCalculated = false
	t.minWidth, t.maxWidth = 0, 0
	t.contentWidth, t.width = 0, 0
	for _, s := range t.Sections {
		s.grid = nil
		for _, r := range s.Rows {
			for _, c := range r.Cells {
				c.minMaxComputed = false
				c.Width = 0
				for _, f := range c.Content {
					for _, nt := range f.Tables {
						nt.Reset()
					}
				}
			}
		}
	}
}

// edges resolves margins, borders and padding against the containing
// block. Collapsing tables have neither borders nor padding of their own.
func (t *TableBox) edges() (margin, border, padding css.BoxEdge) {
	margin = t.Style.Margin.Resolve(t.ContainingWidth)
	if !t.Style.BorderCollapse {
		border = t.Style.Border
		padding = t.Style.Padding.Resolve(t.ContainingWidth)
	}
	return margin, border, padding
}

func (t *TableBox) hSpacing() int {
	if t.Style.BorderCollapse {
		return 0
	}
	return t.Style.BorderSpacingH
}

// marginsBordersPaddingAndSpacing is the horizontal space outside the
// columns. Auto margins count as zero.
func (t *TableBox) marginsBordersPaddingAndSpacing() int {
	margin, border, padding := t.edges()
	result := margin.Horizontal() + border.Horizontal()
	if !t.Style.BorderCollapse {
		result += padding.Horizontal() + (t.NumEffCols()+1)*t.hSpacing()
	}
	return result
}

// cssWidth is the content width the table's width property asks for, or -1
// for auto. The declared width includes border and padding.
func (t *TableBox) cssWidth() int {
	if t.Style.Width.IsVariable() {
		return -1
	}
	_, border, padding := t.edges()
	w := t.Style.Width.Width(t.ContainingWidth) - border.Horizontal() - padding.Horizontal()
	if w < 0 {
		return -1
	}
	return w
}

func (t *TableBox) calcDimensions() {
	margin, border, padding := t.edges()
	mbp := margin.Horizontal() + border.Horizontal() + padding.Horizontal()
	if w := t.cssWidth(); w >= 0 {
		t.contentWidth = w
	} else {
		t.contentWidth = max(0, t.ContainingWidth-mbp)
	}
	t.width = t.contentWidth + mbp
}

// calcWidth grows the table to its min width, and shrinks an auto width
// table to its max width.
func (t *TableBox) calcWidth() {
	if t.minWidth > t.width {
		t.contentWidth += t.minWidth - t.width
		t.width = t.minWidth
	} else if t.Style.Width.IsVariable() && t.maxWidth < t.width {
		t.contentWidth -= t.width - t.maxWidth
		t.width = t.maxWidth
	}
}

func (t *TableBox) setCellWidths() {
	h := t.hSpacing()
	for _, s := range t.Sections {
		for _, r := range s.Rows {
			for _, c := range r.Cells {
				start := t.ColToEffCol(c.Col)
				end := min(t.ColToEffCol(c.Col+c.ColSpan), t.NumEffCols())
				if start >= end {
					continue
				}
				c.Width = t.columnPos[end] - t.columnPos[start] - h
			}
		}
	}
}

func (t *TableBox) layoutNested(ctx context.Context) error {
	for _, s := range t.Sections {
		for _, r := range s.Rows {
			for _, c := range r.Cells {
				inner := c.Width - c.Style.Border.Horizontal() - c.Style.Padding.Resolve(c.Width).Horizontal()
				for _, f := range c.Content {
					for _, nt := range f.Tables {
						nt.ContainingWidth = max(0, inner)
						if err := nt.Layout(ctx); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	return nil
}

// FirstRow is the first row of the first section that has one.
func (t *TableBox) FirstRow() *TableRowBox {
	for _, s := range t.Sections {
		if len(s.Rows) > 0 {
			return s.Rows[0]
		}
	}
	return nil
}

// ColElement returns the col or colgroup covering authored column col.
func (t *TableBox) ColElement(col int) *TableColumn {
	c := 0
	for _, tc := range t.StyleColumns {
		c += tc.Span
		if c > col {
			return tc
		}
	}
	return nil
}

// ColumnBounds returns the left edge, relative to the table's border box,
// and the width of authored column col. Layout must have run.
func (t *TableBox) ColumnBounds(col int) (x, width int) {
	effCol := t.ColToEffCol(col)
	if effCol >= t.NumEffCols() || len(t.columnPos) == 0 {
		return 0, 0
	}
	_, border, padding := t.edges()
	h := t.hSpacing()
	x = border.Left + padding.Left + t.columnPos[effCol] + h
	return x, t.columnPos[effCol+1] - t.columnPos[effCol] - h
}

func (t *TableBox) sectionAbove(s *TableSectionBox) *TableSectionBox {
	for i := t.sectionIndex(s) - 1; i >= 0; i-- {
		if t.Sections[i].NumRows() > 0 {
			return t.Sections[i]
		}
	}
	return nil
}

func (t *TableBox) sectionBelow(s *TableSectionBox) *TableSectionBox {
	idx := t.sectionIndex(s)
	if idx < 0 {
		return nil
	}
	for i := idx + 1; i < len(t.Sections); i++ {
		if t.Sections[i].NumRows() > 0 {
			return t.Sections[i]
		}
	}
	return nil
}

func (t *TableBox) sectionIndex(s *TableSectionBox) int {
	for i, o := range t.Sections {
		if o == s {
			return i
		}
	}
	return -1
}

// realCellBefore walks left from effCol past spanning slots.
func realCellBefore(s *TableSectionBox, row, effCol int) *TableCellBox {
	var c *TableCellBox
	for ; effCol >= 0; effCol-- {
		c = s.cellAt(row, effCol)
		if c != spanningCell {
			return c
		}
	}
	return nil
}

// CellAbove returns the cell in the row above c, looking into the previous
// non-empty section when c is in the first row.
func (t *TableBox) CellAbove(c *TableCellBox) *TableCellBox {
	s, row := c.section, c.Row-1
	if c.Row == 0 {
		if s = t.sectionAbove(c.section); s == nil {
			return nil
		}
		row = s.NumRows() - 1
	}
	return realCellBefore(s, row, t.ColToEffCol(c.Col))
}

// CellBelow returns the cell in the row below c's last row.
func (t *TableBox) CellBelow(c *TableCellBox) *TableCellBox {
	s, row := c.section, c.Row+c.RowSpan
	if row >= c.section.NumRows() {
		if s = t.sectionBelow(c.section); s == nil {
			return nil
		}
		row = 0
	}
	return realCellBefore(s, row, t.ColToEffCol(c.Col))
}

func (t *TableBox) CellLeft(c *TableCellBox) *TableCellBox {
	effCol := t.ColToEffCol(c.Col)
	if effCol == 0 {
		return nil
	}
	return realCellBefore(c.section, c.Row, effCol-1)
}

func (t *TableBox) CellRight(c *TableCellBox) *TableCellBox {
	effCol := t.ColToEffCol(c.Col + c.ColSpan)
	if effCol >= t.NumEffCols() {
		return nil
	}
	if r := c.section.cellAt(c.Row, effCol); r != spanningCell {
		return r
	}
	return nil
}

func (s *TableSectionBox) cellAt(row, effCol int) *TableCellBox {
	if row < 0 || row >= len(s.grid) || effCol < 0 || effCol >= len(s.grid[row]) {
		return nil
	}
	return s.grid[row][effCol]
}

func (s *TableSectionBox) ensureRows(n int) {
	for len(s.grid) < n {
		s.grid = append(s.grid, make([]*TableCellBox, s.table.NumEffCols()))
	}
}

func (s *TableSectionBox) extendGridToColumnCount(n int) {
	for i, row := range s.grid {
		for len(row) < n {
			row = append(row, nil)
		}
		s.grid[i] = row
	}
}

// splitColumn mirrors TableBox.SplitColumn: a cell covering the old column
// now covers both halves.
func (s *TableSectionBox) splitColumn(pos int) {
	for i, row := range s.grid {
		var fill *TableCellBox
		if row[pos] != nil {
			fill = spanningCell
		}
		row = append(row, nil)
		copy(row[pos+2:], row[pos+1:])
		row[pos+1] = fill
		s.grid[i] = row
	}
}

// recalcCells rebuilds the grid from the section's rows, appending and
// splitting table columns as cells demand.
func (s *TableSectionBox) recalcCells(ctx context.Context) error {
	s.grid = nil
	for r, row := range s.Rows {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("recalc cells: %w", err)
		}
		s.ensureRows(r + 1)
		for _, c := range row.Cells {
			s.addCell(c, r)
		}
	}
	return nil
}

func (s *TableSectionBox) addCell(c *TableCellBox, cRow int) {
	t := s.table
	rSpan, cSpan := c.RowSpan, c.ColSpan
	s.ensureRows(cRow + rSpan)

	cCol := 0
	for cCol < t.NumEffCols() && s.grid[cRow][cCol] != nil {
		cCol++
	}
	first := cCol

	set := c
	for cSpan > 0 {
		var currentSpan int
		if cCol >= t.NumEffCols() {
			t.AppendColumn(cSpan)
			currentSpan = cSpan
		} else {
			currentSpan = t.SpanOfEffCol(cCol)
			if cSpan < currentSpan {
				t.SplitColumn(cCol, cSpan)
				currentSpan = cSpan
			}
		}
		for r := 0; r < rSpan; r++ {
			if s.grid[cRow+r][cCol] == nil {
				s.grid[cRow+r][cCol] = set
			}
		}
		cCol++
		cSpan -= currentSpan
		set = spanningCell
	}

	c.Row = cRow
	c.Col = t.EffColToCol(first)
	c.section = s
}
