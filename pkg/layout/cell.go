package layout

import (
	"context"

	"saucer/pkg/css"
	"saucer/pkg/text"
)

// calcMinMaxWidth sizes the cell's content and adds its horizontal borders
// and padding. A fixed width replaces both values unless the content is
// wider.
func (c *TableCellBox) calcMinMaxWidth(ctx context.Context, t *TableBox) error {
	if c.minMaxComputed {
		return nil
	}
	minW, maxW := 0, 0
	for _, f := range c.Content {
		fmin, fmax, err := f.minMax(ctx, t.sizer)
		if err != nil {
			return err
		}
		minW = max(minW, fmin)
		maxW = max(maxW, fmax)
	}
	if w := c.Style.Width; w.IsFixed() {
		minW = max(minW, w.Value)
		maxW = minW
	}

	extra := c.Style.Border.Horizontal() + c.Style.Padding.Resolve(0).Horizontal()
	c.minWidth = minW + extra
	c.maxWidth = max(maxW, minW) + extra
	c.minMaxComputed = true
	return nil
}

// outerStyleWidth is the declared width with borders and padding added to
// fixed values.
func (c *TableCellBox) outerStyleWidth() css.Length {
	w := c.Style.Width
	if !w.IsFixed() {
		return w
	}
	return css.FixedLength(w.Value + c.Style.Border.Horizontal() + c.Style.Padding.Resolve(0).Horizontal())
}

// outerStyleOrColWidth falls back to the col element's width for a
// single-column cell without one.
func (c *TableCellBox) outerStyleOrColWidth(t *TableBox) css.Length {
	w := c.outerStyleWidth()
	if c.ColSpan > 1 || !w.IsVariable() {
		return w
	}
	if col := t.ColElement(c.Col); col != nil {
		return col.Style.Width
	}
	return w
}

func (f Flow) minMax(ctx context.Context, sizer *text.Sizer) (int, int, error) {
	mm, err := sizer.MinMax(ctx, f.Runs)
	if err != nil {
		return 0, 0, err
	}
	minW, maxW := mm.MinContentSize, mm.MaxContentSize
	for _, a := range f.Atoms {
		minW = max(minW, a)
		maxW += a
	}
	for _, nt := range f.Tables {
		if err := nt.CalcMinMaxWidth(ctx); err != nil {
			return 0, 0, err
		}
		minW = max(minW, nt.MinWidth())
		maxW += nt.MaxWidth()
	}
	return minW, maxW, nil
}
