package layout

import "saucer/pkg/css"

type fixedState struct {
	widths []css.Length
}

// fixedCalcWidthArray collects column widths from col elements and then from
// the cells of the first row, and returns the fixed width claimed.
func (t *TableBox) fixedCalcWidthArray() int {
	n := t.NumEffCols()
	widths := make([]css.Length, n)
	used := 0

	cCol := 0
	for _, col := range t.StyleColumns {
		w := col.width()
		effWidth := 0
		if w.IsFixed() && w.Value > 0 {
			effWidth = min(w.Value, css.MaxWidth)
		}

		usedSpan, i := 0, 0
		for usedSpan < col.Span {
			if cCol+i >= n {
				t.AppendColumn(col.Span - usedSpan)
				n++
				widths = append(widths, css.Length{})
			}
			eSpan := t.SpanOfEffCol(cCol + i)
			if (w.IsFixed() || w.IsPercent()) && w.Value > 0 {
				widths[cCol+i] = css.Length{Type: w.Type, Value: w.Value * eSpan}
				used += effWidth * eSpan
			}
			usedSpan += eSpan
			i++
		}
		cCol += i
	}

	cCol = 0
	if row := t.FirstRow(); row != nil {
		for _, cell := range row.Cells {
			w := cell.outerStyleWidth()
			span := cell.ColSpan
			effWidth := 0
			if w.IsFixed() && w.Value > 0 {
				effWidth = w.Value
			}

			usedSpan, i := 0, 0
			for usedSpan < span && cCol+i < n {
				eSpan := t.SpanOfEffCol(cCol + i)
				// col elements win; each spanned column takes the whole cell width
				if widths[cCol+i].IsVariable() && !w.IsVariable() {
					widths[cCol+i] = css.Length{Type: w.Type, Value: w.Value * eSpan}
					used += effWidth * eSpan
				}
				usedSpan += eSpan
				i++
			}
			cCol += i
		}
	}

	t.fixed.widths = widths
	return used
}

func (t *TableBox) fixedCalcMinMaxWidth() {
	bs := t.marginsBordersPaddingAndSpacing()
	t.calcDimensions()

	mw := t.fixedCalcWidthArray() + bs
	t.minWidth = max(mw, t.width)
	t.maxWidth = t.minWidth

	for _, w := range t.fixed.widths {
		if !w.IsFixed() {
			t.maxWidth = css.MaxWidth
			break
		}
	}
}

// fixedLayout hands out the table width: fixed columns first, then percent
// columns, then an even share to auto columns. Whatever is left is spread
// over all columns starting from the last.
func (t *TableBox) fixedLayout() {
	tableWidth := t.width - t.marginsBordersPaddingAndSpacing()
	available := tableWidth
	n := t.NumEffCols()
	widths := t.fixed.widths

	calcWidth := make([]int, n)
	for i := range calcWidth {
		calcWidth[i] = -1
	}

	for i, l := range widths {
		if l.IsFixed() {
			calcWidth[i] = l.Value
			available -= l.Value
		}
	}

	if available > 0 {
		totalPercent := 0
		for _, l := range widths {
			if l.IsPercent() {
				totalPercent += l.Value
			}
		}
		base := min(tableWidth*totalPercent/100, available)
		for i := 0; available > 0 && totalPercent > 0 && i < n; i++ {
			if l := widths[i]; l.IsPercent() {
				w := base * l.Value / totalPercent
				available -= w
				calcWidth[i] = w
			}
		}
	}

	if available > 0 {
		totalVariable := 0
		for _, l := range widths {
			if l.IsVariable() {
				totalVariable++
			}
		}
		for i := 0; available > 0 && i < n; i++ {
			if widths[i].IsVariable() {
				w := available / totalVariable
				available -= w
				calcWidth[i] = w
				totalVariable--
			}
		}
	}

	for i := range calcWidth {
		if calcWidth[i] < 0 {
			calcWidth[i] = 0
		}
	}

	if available > 0 {
		for i, total := n-1, n; i >= 0; i, total = i-1, total-1 {
			w := available / total
			available -= w
			calcWidth[i] += w
		}
	}

	t.setColumnPos(calcWidth)
}

// setColumnPos turns column widths into left offsets.
func (t *TableBox) setColumnPos(widths []int) {
	h := t.hSpacing()
	pos := make([]int, len(widths)+1)
	x := 0
	for i, w := range widths {
		pos[i] = x
		x += w + h
	}
	pos[len(widths)] = x
	t.columnPos = pos
}
