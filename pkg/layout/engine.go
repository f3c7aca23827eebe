package layout

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"saucer/pkg/css"
	"saucer/pkg/html"
	"saucer/pkg/text"
)

const defaultViewportWidth = 1024

// TableResult is the outcome of laying out one table.
type TableResult struct {
	Element   html.NodeID
	Strategy  Strategy
	ColumnPos []int
	MinWidth  int
	MaxWidth  int
	// Width is the table's border-box width.
	Width int
	Table *TableBox
}

// Engine lays out every table of a document.
type Engine struct {
	doc      *html.Document
	matcher  *css.Matcher
	measurer text.Measurer
	viewport int
	workers  int
	log      *zap.Logger
}

type Option func(*Engine)

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMeasurer sets how text widths are measured. The default uses the
// bundled Go Regular font.
func WithMeasurer(m text.Measurer) Option {
	return func(e *Engine) { e.measurer = m }
}

func WithViewportWidth(w int) Option {
	return func(e *Engine) { e.viewport = w }
}

// WithWorkers restyles the whole document with n concurrent workers before
// building tables. With n <= 1 styles are resolved lazily.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

func NewEngine(doc *html.Document, matcher *css.Matcher, opts ...Option) *Engine {
	e := &Engine{
		doc:      doc,
		matcher:  matcher,
		viewport: defaultViewportWidth,
		workers:  1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	e.log = e.log.Named("table")
	if e.measurer == nil {
		e.measurer = text.DefaultFontMeasurer()
	}
	return e
}

// LayoutTables builds and lays out every table in the document. Nested
// tables are laid out inside their cells. Results are in document order.
func (e *Engine) LayoutTables(ctx context.Context) ([]TableResult, error) {
	elements := e.doc.Elements()
	if e.workers > 1 {
		if _, err := e.matcher.Restyle(ctx, elements, e.workers); err != nil {
			return nil, err
		}
	}

	b := NewBuilder(e.doc, e.matcher, text.NewSizer(e.measurer), e.log)
	order := make(map[html.NodeID]int, len(elements))
	for i, id := range elements {
		order[id] = i
	}

	var results []TableResult
	for _, id := range elements {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("layout tables: %w", err)
		}
		if !b.Style(id).IsTable() || e.insideTable(b, id) || e.hidden(b, id) {
			continue
		}
		t, err := b.Build(id)
		if err != nil {
			return results, err
		}
		t.ContainingWidth = e.containingWidth(b, id)
		if err := t.Layout(ctx); err != nil {
			return results, fmt.Errorf("layout table %d: %w", id, err)
		}
		results = appendResults(results, t)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return order[results[i].Element] < order[results[j].Element]
	})
	e.log.Info("Tables laid out", zap.Int("tables", len(results)))
	return results, nil
}

func appendResults(results []TableResult, t *TableBox) []TableResult {
	results = append(results, TableResult{
		Element:   t.Element,
		Strategy:  t.Strategy(),
		ColumnPos: t.ColumnPos(),
		MinWidth:  t.MinWidth(),
		MaxWidth:  t.MaxWidth(),
		Width:     t.Width(),
		Table:     t,
	})
	for _, s := range t.Sections {
		for _, r := range s.Rows {
			for _, c := range r.Cells {
				for _, f := range c.Content {
					for _, nt := range f.Tables {
						results = appendResults(results, nt)
					}
				}
			}
		}
	}
	return results
}

func (e *Engine) insideTable(b *Builder, id html.NodeID) bool {
	for p, ok := e.doc.ParentElement(id); ok; p, ok = e.doc.ParentElement(p) {
		if b.Style(p).IsTable() {
			return true
		}
	}
	return false
}

func (e *Engine) hidden(b *Builder, id html.NodeID) bool {
	for p, ok := id, true; ok; p, ok = e.doc.ParentElement(p) {
		if b.Style(p).Display == "none" {
			return true
		}
	}
	return false
}

// containingWidth walks from the root down to the table's parent, narrowing
// the viewport by every block ancestor's width or its margins, borders and
// padding.
func (e *Engine) containingWidth(b *Builder, id html.NodeID) int {
	var chain []html.NodeID
	for p, ok := e.doc.ParentElement(id); ok; p, ok = e.doc.ParentElement(p) {
		chain = append(chain, p)
	}
	cb := e.viewport
	for i := len(chain) - 1; i >= 0; i-- {
		s := b.Style(chain[i])
		if s.Display == "inline" {
			continue
		}
		if !s.Width.IsVariable() {
			cb = s.Width.Width(cb)
			continue
		}
		margin := s.Margin.Resolve(cb)
		padding := s.Padding.Resolve(cb)
		cb = max(0, cb-margin.Horizontal()-s.Border.Horizontal()-padding.Horizontal())
	}
	return cb
}
