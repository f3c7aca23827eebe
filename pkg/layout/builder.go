package layout

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"saucer/pkg/css"
	"saucer/pkg/html"
	"saucer/pkg/text"
)

const (
	maxColSpan = 1000
	maxRowSpan = 65534
)

// Builder turns table elements into box trees. It caches computed styles
// and is not safe for concurrent use.
type Builder struct {
	doc     *html.Document
	matcher *css.Matcher
	sizer   *text.Sizer
	log     *zap.Logger

	styles map[html.NodeID]*css.Style
}

func NewBuilder(doc *html.Document, matcher *css.Matcher, sizer *text.Sizer, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		doc:     doc,
		matcher: matcher,
		sizer:   sizer,
		log:     log,
		styles:  make(map[html.NodeID]*css.Style),
	}
}

// Style returns the computed style of an element, deriving its ancestors'
// styles first.
func (b *Builder) Style(e html.NodeID) *css.Style {
	if s, ok := b.styles[e]; ok {
		return s
	}
	var parent *css.Style
	if p, ok := b.doc.ParentElement(e); ok {
		parent = b.Style(p)
	}
	s := css.ComputeStyle(b.matcher.CascadedStyle(e, false), parent)
	b.styles[e] = s
	return s
}

func (b *Builder) box(n *html.Node) Box {
	return Box{Element: n.ID, Cascaded: b.matcher.CascadedStyle(n.ID, false), Style: b.Style(n.ID)}
}

// anonymous creates a generated box inheriting from parent.
func anonymous(display string, parent *css.Style) Box {
	c := css.LayoutStyle(css.LayoutDeclaration("display", display))
	return Box{Element: html.NoNode, Cascaded: c, Style: css.ComputeStyle(c, parent)}
}

// Build creates the box tree of the table element e.
func (b *Builder) Build(e html.NodeID) (*TableBox, error) {
	n := b.doc.Node(e)
	if n == nil || n.Type != html.ElementNode {
		return nil, fmt.Errorf("build table: no element %d", e)
	}
	tb := b.box(n)
	if !tb.Style.IsTable() {
		return nil, fmt.Errorf("build table: element %d has display %q", e, tb.Style.Display)
	}
	return b.buildTable(n, tb, false), nil
}

// BuildMarginTable creates a table for a page margin area, laid out with the
// margin variant of auto layout.
func (b *Builder) BuildMarginTable(e html.NodeID) (*TableBox, error) {
	n := b.doc.Node(e)
	if n == nil {
		return nil, fmt.Errorf("build margin table: no element %d", e)
	}
	return b.buildTable(n, b.box(n), true), nil
}

func (b *Builder) buildTable(n *html.Node, box Box, marginArea bool) *TableBox {
	t := NewTableBox(box, marginArea, b.sizer, b.log)

	var header, footer *TableSectionBox
	var body []*TableSectionBox
	var anon *TableSectionBox
	addSection := func(s *TableSectionBox) {
		switch {
		case s.IsHeader() && header == nil:
			header = s
		case s.IsFooter() && footer == nil:
			footer = s
		default:
			body = append(body, s)
		}
	}

	for _, child := range n.ElementChildren() {
		cb := b.box(child)
		switch cb.Style.Display {
		case "none", "table-caption":
			anon = nil
		case "table-column-group":
			anon = nil
			group := &TableColumn{Box: cb, Span: span(child, "span", maxColSpan)}
			cols := child.ElementChildren()
			if len(cols) == 0 {
				t.StyleColumns = append(t.StyleColumns, group)
			}
			for _, col := range cols {
				if cs := b.box(col); cs.Style.Display == "table-column" {
					t.StyleColumns = append(t.StyleColumns, &TableColumn{Box: cs, Span: span(col, "span", maxColSpan), Parent: group})
				}
			}
		case "table-column":
			anon = nil
			t.StyleColumns = append(t.StyleColumns, &TableColumn{Box: cb, Span: span(child, "span", maxColSpan)})
		case "table-header-group", "table-row-group", "table-footer-group":
			anon = nil
			addSection(b.buildSection(child, cb))
		case "table-row", "table-cell":
			if anon == nil {
				anon = &TableSectionBox{Box: anonymous("table-row-group", box.Style)}
				addSection(anon)
			}
			if cb.Style.Display == "table-row" {
				anon.Rows = append(anon.Rows, b.buildRow(child, cb))
			} else {
				b.appendCell(anon, child, cb)
			}
		default:
			b.log.Debug("Skipping non-table child", zap.String("tag", child.TagName), zap.String("display", cb.Style.Display))
		}
	}

	if header != nil {
		t.AddSection(header)
	}
	for _, s := range body {
		t.AddSection(s)
	}
	if footer != nil {
		t.AddSection(footer)
	}
	return t
}

func (b *Builder) buildSection(n *html.Node, box Box) *TableSectionBox {
	s := &TableSectionBox{Box: box}
	for _, child := range n.ElementChildren() {
		cb := b.box(child)
		switch cb.Style.Display {
		case "table-row":
			s.Rows = append(s.Rows, b.buildRow(child, cb))
		case "table-cell":
			b.appendCell(s, child, cb)
		}
	}
	return s
}

// appendCell adds a cell found outside a row to the section's trailing
// anonymous row.
func (b *Builder) appendCell(s *TableSectionBox, n *html.Node, box Box) {
	var row *TableRowBox
	if k := len(s.Rows); k > 0 && s.Rows[k-1].IsAnonymous() {
		row = s.Rows[k-1]
	} else {
		row = &TableRowBox{Box: anonymous("table-row", s.Style)}
		s.Rows = append(s.Rows, row)
	}
	row.Cells = append(row.Cells, b.buildCell(n, box))
}

func (b *Builder) buildRow(n *html.Node, box Box) *TableRowBox {
	r := &TableRowBox{Box: box}
	for _, child := range n.ElementChildren() {
		if cb := b.box(child); cb.Style.Display == "table-cell" {
			r.Cells = append(r.Cells, b.buildCell(child, cb))
		}
	}
	return r
}

func (b *Builder) buildCell(n *html.Node, box Box) *TableCellBox {
	c := &TableCellBox{
		Box:     box,
		ColSpan: span(n, "colspan", maxColSpan),
		RowSpan: span(n, "rowspan", maxRowSpan),
	}
	c.Content = b.content(n, box.Style)
	return c
}

// span reads a span attribute clamped to 1..limit.
func span(n *html.Node, attr string, limit int) int {
	v, ok := n.GetAttribute(attr)
	if !ok {
		return 1
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i < 1 {
		return 1
	}
	return min(i, limit)
}

// content splits the descendants of n into flows. Block boxes and nested
// tables end the current flow.
func (b *Builder) content(n *html.Node, style *css.Style) []Flow {
	var flows []Flow
	cur := Flow{}
	flush := func() {
		if len(cur.Runs) > 0 || len(cur.Atoms) > 0 || len(cur.Tables) > 0 {
			flows = append(flows, cur)
		}
		cur = Flow{}
	}

	var walk func(n *html.Node, style *css.Style)
	walk = func(n *html.Node, style *css.Style) {
		for _, child := range n.Children {
			if child.Type == html.TextNode {
				cur.Runs = append(cur.Runs, text.Run{
					Text:       child.Text,
					FontSize:   style.FontSize,
					WhiteSpace: text.ParseWhiteSpace(style.WhiteSpace),
				})
				continue
			}
			cs := b.Style(child.ID)
			switch {
			case cs.Display == "none":
			case cs.IsTable():
				flush()
				cur.Tables = append(cur.Tables, b.buildTable(child, b.box(child), false))
				flush()
			case child.TagName == "img":
				w := cs.Width.MinWidth(0) + cs.Border.Horizontal() + cs.Padding.Resolve(0).Horizontal()
				cur.Atoms = append(cur.Atoms, w)
			case cs.Display == "inline":
				walk(child, cs)
			default:
				flush()
				walk(child, cs)
				flush()
			}
		}
	}
	walk(n, style)
	flush()
	return flows
}
