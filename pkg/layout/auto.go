package layout

import (
	"context"
	"fmt"
	"sort"

	"saucer/pkg/css"
)

// columnLayout is the working state of one effective column. The eff
// values include what spanning cells contributed.
type columnLayout struct {
	width       css.Length
	effWidth    css.Length
	minWidth    int
	maxWidth    int
	effMinWidth int
	effMaxWidth int
	calcWidth   int
}

type autoState struct {
	cols      []*columnLayout
	spanCells []*TableCellBox
}

func (t *TableBox) minColWidth() int {
	if t.strategy == StrategyMargin {
		return 0
	}
	return 1
}

// fullRecalc rebuilds the per-column state from col elements and every
// cell of every row.
func (t *TableBox) fullRecalc(ctx context.Context) error {
	n := t.NumEffCols()
	mcw := t.minColWidth()
	cols := make([]*columnLayout, n)
	for i := range cols {
		cols[i] = &columnLayout{minWidth: mcw, maxWidth: mcw}
	}
	t.auto = autoState{cols: cols}

	cCol := 0
	for _, col := range t.StyleColumns {
		w := col.width()
		if (w.IsFixed() || w.IsPercent()) && w.Value == 0 {
			w = css.Length{}
		}
		eff := t.ColToEffCol(cCol)
		if !w.IsVariable() && col.Span == 1 && eff < n && t.SpanOfEffCol(eff) == 1 {
			cols[eff].width = w
			if w.IsFixed() && cols[eff].maxWidth < w.Value {
				cols[eff].maxWidth = w.Value
			}
		}
		cCol += col.Span
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("table columns: %w", err)
		}
		if err := t.recalcColumn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// recalcColumn folds the cells starting in effCol into its state. Cells
// spanning several columns are queued for calcEffectiveWidth.
func (t *TableBox) recalcColumn(ctx context.Context, effCol int) error {
	l := t.auto.cols[effCol]
	mcw := t.minColWidth()

	for _, s := range t.Sections {
		for i := 0; i < s.NumRows(); i++ {
			cell := s.cellAt(i, effCol)
			if cell == nil || cell == spanningCell || cell.Row != i {
				continue
			}
			if cell.ColSpan > 1 {
				if effCol == 0 || s.cellAt(i, effCol-1) != cell {
					l.minWidth = max(l.minWidth, mcw)
					l.maxWidth = max(l.maxWidth, mcw)
					t.auto.spanCells = append(t.auto.spanCells, cell)
				}
				continue
			}

			l.minWidth = max(l.minWidth, mcw)
			l.maxWidth = max(l.maxWidth, mcw)
			if err := cell.calcMinMaxWidth(ctx, t); err != nil {
				return err
			}
			l.minWidth = max(l.minWidth, cell.minWidth)
			l.maxWidth = max(l.maxWidth, cell.maxWidth)

			w := cell.outerStyleOrColWidth(t)
			w.Value = min(css.MaxWidth, max(0, w.Value))
			switch w.Type {
			case css.LengthFixed:
				// a fixed width only ever grows and never replaces a percent
				if w.Value > 0 && !l.width.IsPercent() {
					if l.width.IsFixed() {
						l.width.Value = max(l.width.Value, w.Value)
					} else {
						l.width = w
					}
					l.maxWidth = max(l.maxWidth, w.Value)
				}
			case css.LengthPercent:
				if w.Value > 0 && (!l.width.IsPercent() || w.Value > l.width.Value) {
					l.width = w
				}
			}
		}
	}

	l.maxWidth = max(l.maxWidth, l.minWidth)
	return nil
}

// calcEffectiveWidth distributes the widths of spanning cells over the
// columns they cover, narrowest spans first. It returns the table max width
// implied by percent widths on spanning cells.
func (t *TableBox) calcEffectiveWidth(ctx context.Context) (int, error) {
	cols := t.auto.cols
	n := len(cols)
	h := t.hSpacing()
	tMaxWidth := 0

	for _, l := range cols {
		l.effWidth = l.width
		l.effMinWidth = l.minWidth
		l.effMaxWidth = l.maxWidth
	}

	spanCells := t.auto.spanCells
	sort.SliceStable(spanCells, func(i, j int) bool {
		return spanCells[i].ColSpan < spanCells[j].ColSpan
	})

	for _, cell := range spanCells {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("spanning cells: %w", err)
		}
		if err := cell.calcMinMaxWidth(ctx, t); err != nil {
			return 0, err
		}

		span := cell.ColSpan
		w := cell.outerStyleOrColWidth(t)
		if w.Value == 0 {
			w = css.Length{}
		}

		col := t.ColToEffCol(cell.Col)
		lastCol := col
		cMinWidth := cell.minWidth + h
		cMaxWidth := cell.maxWidth + h
		totalPercent, minWidth, maxWidth, fixedWidth := 0, 0, 0, 0
		allColsArePercent, allColsAreFixed, haveVariable := true, true, false

		for lastCol < n && span > 0 {
			l := cols[lastCol]
			switch {
			case l.width.IsPercent():
				totalPercent += l.width.Value
				allColsAreFixed = false
			case l.width.IsFixed() && l.width.Value > 0:
				fixedWidth += l.width.Value
				allColsArePercent = false
			default:
				haveVariable = true
				// Keep a percent another spanning cell already gave this
				// column.
				if !l.effWidth.IsPercent() {
					l.effWidth = css.Length{}
					allColsArePercent = false
				} else {
					totalPercent += l.effWidth.Value
				}
				allColsAreFixed = false
			}

			span -= t.SpanOfEffCol(lastCol)
			minWidth += l.effMinWidth
			maxWidth += l.effMaxWidth
			lastCol++
			cMinWidth -= h
			cMaxWidth -= h
		}

		if w.IsPercent() {
			if totalPercent > w.Value || allColsArePercent {
				// unsatisfiable
				w = css.Length{}
			} else {
				spanMax := max(maxWidth, cMaxWidth)
				tMaxWidth = max(tMaxWidth, spanMax*100/w.Value)

				// Give the non-percent columns percentages adding up to
				// the cell's.
				percentMissing := w.Value - totalPercent
				totalWidth := 0
				for pos := col; pos < lastCol; pos++ {
					if !cols[pos].width.IsPercent() {
						totalWidth += cols[pos].effMaxWidth
					}
				}
				for pos := col; pos < lastCol && totalWidth > 0; pos++ {
					l := cols[pos]
					if l.width.IsPercent() {
						continue
					}
					percent := percentMissing * l.effMaxWidth / totalWidth
					totalWidth -= l.effMaxWidth
					percentMissing -= percent
					if percent > 0 {
						l.effWidth = css.PercentLength(percent)
					} else {
						l.effWidth = css.Length{}
					}
				}
			}
		}

		if cMinWidth > minWidth {
			switch {
			case allColsAreFixed:
				for pos := col; fixedWidth > 0 && pos < lastCol; pos++ {
					l := cols[pos]
					cWidth := max(l.effMinWidth, cMinWidth*l.width.Value/fixedWidth)
					fixedWidth -= l.width.Value
					cMinWidth -= cWidth
					l.effMinWidth = cWidth
				}
			case allColsArePercent:
				maxw, minw, cminw := maxWidth, minWidth, cMinWidth
				for pos := col; maxw > 0 && totalPercent > 0 && pos < lastCol; pos++ {
					l := cols[pos]
					if l.effWidth.IsPercent() && l.effWidth.Value > 0 && fixedWidth <= cMinWidth {
						cWidth := max(l.effMinWidth, cminw*l.effWidth.Value/totalPercent)
						cWidth = min(l.effMinWidth+(cMinWidth-minw), cWidth)
						maxw -= l.effMaxWidth
						minw -= l.effMinWidth
						cMinWidth -= cWidth
						l.effMinWidth = cWidth
					}
				}
			default:
				maxw, minw := maxWidth, minWidth
				// fixed columns take their width first
				fixedFirst := func(l *columnLayout) bool {
					return l.width.IsFixed() && haveVariable && fixedWidth <= cMinWidth
				}
				for pos := col; maxw > 0 && pos < lastCol; pos++ {
					l := cols[pos]
					if fixedFirst(l) {
						cWidth := max(l.effMinWidth, l.width.Value)
						fixedWidth -= l.width.Value
						minw -= l.effMinWidth
						maxw -= l.effMaxWidth
						cMinWidth -= cWidth
						l.effMinWidth = cWidth
					}
				}
				for pos := col; maxw > 0 && pos < lastCol && minw < cMinWidth; pos++ {
					l := cols[pos]
					if fixedFirst(l) {
						continue
					}
					cWidth := max(l.effMinWidth, cMinWidth*l.effMaxWidth/maxw)
					cWidth = min(l.effMinWidth+(cMinWidth-minw), cWidth)
					maxw -= l.effMaxWidth
					minw -= l.effMinWidth
					cMinWidth -= cWidth
					l.effMinWidth = cWidth
				}
			}
		}

		if w.IsPercent() {
			for pos := col; pos < lastCol; pos++ {
				cols[pos].maxWidth = max(cols[pos].maxWidth, cols[pos].minWidth)
			}
		} else if cMaxWidth > maxWidth {
			for pos := col; maxWidth > 0 && pos < lastCol; pos++ {
				l := cols[pos]
				cWidth := max(l.effMaxWidth, cMaxWidth*l.effMaxWidth/maxWidth)
				maxWidth -= l.effMaxWidth
				cMaxWidth -= cWidth
				l.effMaxWidth = cWidth
			}
		}
	}

	return tMaxWidth, nil
}

func (t *TableBox) autoCalcMinMaxWidth(ctx context.Context) error {
	if err := t.fullRecalc(ctx); err != nil {
		return err
	}
	spanMaxWidth, err := t.calcEffectiveWidth(ctx)
	if err != nil {
		return err
	}

	minWidth, maxWidth, maxPercent, maxNonPercent := 0, 0, 0, 0
	remainingPercent := 100
	for _, l := range t.auto.cols {
		minWidth += l.effMinWidth
		maxWidth += l.effMaxWidth
		if l.effWidth.IsPercent() {
			percent := min(l.effWidth.Value, remainingPercent)
			pw := l.effMaxWidth * 100 / max(percent, 1)
			remainingPercent -= percent
			maxPercent = max(maxPercent, pw)
		} else {
			maxNonPercent += l.effMaxWidth
		}
	}

	// scale the other columns so the percent columns get their share
	maxNonPercent = (maxNonPercent*100 + 50) / max(remainingPercent, 1)
	maxWidth = max(maxWidth, maxNonPercent, maxPercent, spanMaxWidth)

	bs := t.marginsBordersPaddingAndSpacing()
	minWidth += bs
	maxWidth += bs

	if tw := t.Style.Width; tw.IsFixed() && tw.Value > 0 {
		t.calcDimensions()
		minWidth = max(minWidth, t.width)
		maxWidth = minWidth
	}

	t.maxWidth = min(maxWidth, css.MaxWidth)
	t.minWidth = min(minWidth, css.MaxWidth)

	if t.strategy == StrategyMargin {
		t.balanceMarginColumns()
	}
	return nil
}

// balanceMarginColumns makes the side columns of a three column margin
// table mirror each other so the centre column stays centred.
func (t *TableBox) balanceMarginColumns() {
	cols := t.auto.cols
	if len(cols) != 3 {
		return
	}
	if center := cols[1]; center.width.IsVariable() && center.maxWidth == 0 {
		return
	}
	switch {
	case cols[0].minWidth > cols[2].minWidth:
		cols[2] = cols[0]
	case cols[2].minWidth > cols[0].minWidth:
		cols[0] = cols[2]
	default:
		l := &columnLayout{
			minWidth: max(cols[0].minWidth, cols[2].minWidth),
			maxWidth: max(cols[0].maxWidth, cols[2].maxWidth),
		}
		l.effMinWidth = l.minWidth
		l.effMaxWidth = l.maxWidth
		cols[0], cols[2] = l, l
	}
}

// autoLayout assigns column widths for the table width. Every column starts
// at its min width; space is then given to percent, fixed and auto columns
// in that order, and an overcommitted table is shrunk auto columns first
// and percent columns last.
func (t *TableBox) autoLayout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("table layout: %w", err)
	}
	cols := t.auto.cols
	n := len(cols)
	tableWidth := t.width - t.marginsBordersPaddingAndSpacing()
	available := tableWidth

	havePercent := false
	numVariable, numFixed := 0, 0
	totalVariable, totalFixed, totalPercent, allocVariable := 0, 0, 0, 0

	for _, l := range cols {
		w := l.effMinWidth
		l.calcWidth = w
		available -= w
		switch l.effWidth.Type {
		case css.LengthPercent:
			havePercent = true
			totalPercent += l.effWidth.Value
		case css.LengthFixed:
			numFixed++
			totalFixed += l.effMaxWidth
		case css.LengthVariable:
			numVariable++
			totalVariable += l.effMaxWidth
			allocVariable += w
		}
	}

	if available > 0 && havePercent {
		for _, l := range cols {
			if l.effWidth.IsPercent() {
				w := max(l.effMinWidth, l.effWidth.MinWidth(tableWidth))
				available += l.calcWidth - w
				l.calcWidth = w
			}
		}
		if totalPercent > 100 {
			// take the excess back from the last columns
			excess := tableWidth * (totalPercent - 100) / 100
			for i := n - 1; i >= 0; i-- {
				l := cols[i]
				if !l.effWidth.IsPercent() {
					continue
				}
				w := l.calcWidth
				reduction := min(w, excess)
				excess -= reduction
				newWidth := max(l.effMinWidth, w-reduction)
				available += w - newWidth
				l.calcWidth = newWidth
			}
		}
	}

	if available > 0 {
		for _, l := range cols {
			if l.effWidth.IsFixed() && l.effWidth.Value > l.calcWidth {
				available += l.calcWidth - l.effWidth.Value
				l.calcWidth = l.effWidth.Value
			}
		}
	}

	if available > 0 && numVariable > 0 {
		available += allocVariable
		for _, l := range cols {
			if l.effWidth.IsVariable() && totalVariable != 0 {
				w := max(l.calcWidth, available*l.effMaxWidth/totalVariable)
				available -= w
				totalVariable -= l.effMaxWidth
				l.calcWidth = w
			}
		}
	}

	if available > 0 && numFixed > 0 {
		for _, l := range cols {
			if l.effWidth.IsFixed() && totalFixed != 0 {
				w := available * l.effMaxWidth / totalFixed
				available -= w
				totalFixed -= l.effMaxWidth
				l.calcWidth += w
			}
		}
	}

	if available > 0 && havePercent && totalPercent < 100 {
		for _, l := range cols {
			if !l.effWidth.IsPercent() {
				continue
			}
			w := available * l.effWidth.Value / totalPercent
			available -= w
			totalPercent -= l.effWidth.Value
			l.calcWidth += w
			if available == 0 || totalPercent == 0 {
				break
			}
		}
	}

	if available > 0 {
		for i, total := n-1, n; i >= 0; i, total = i-1, total-1 {
			w := available / total
			available -= w
			cols[i].calcWidth += w
		}
	}

	if available < 0 {
		available = shrinkColumns(cols, available, css.Length.IsVariable)
	}
	if available < 0 {
		available = shrinkColumns(cols, available, css.Length.IsFixed)
	}
	if available < 0 {
		shrinkColumns(cols, available, css.Length.IsPercent)
	}

	widths := make([]int, n)
	for i, l := range cols {
		widths[i] = l.calcWidth
	}
	t.setColumnPos(widths)
	return nil
}

// shrinkColumns takes the negative available space back from the columns
// selected by kind, each in proportion to how far it sits above its min
// width, starting from the last column. It returns what is still missing.
func shrinkColumns(cols []*columnLayout, available int, kind func(css.Length) bool) int {
	mw := 0
	for i := len(cols) - 1; i >= 0; i-- {
		if kind(cols[i].effWidth) {
			mw += cols[i].calcWidth - cols[i].effMinWidth
		}
	}
	for i := len(cols) - 1; i >= 0 && mw > 0; i-- {
		l := cols[i]
		if !kind(l.effWidth) {
			continue
		}
		minMaxDiff := l.calcWidth - l.effMinWidth
		reduce := available * minMaxDiff / mw
		l.calcWidth += reduce
		available -= reduce
		mw -= minMaxDiff
		if available >= 0 {
			break
		}
	}
	return available
}
