package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"saucer/pkg/css"
	"saucer/pkg/html"
	"saucer/pkg/text"
)

// Cells use 10px text with no padding and a 0.5em advance, so every
// character is 5px wide. Tables have no border spacing.
const baseCSS = `
	body { margin: 0 }
	table { border-spacing: 0 }
	td, th { padding: 0; font-size: 10px }
`

var fiveApart = text.EstimateMeasurer{Advance: 0.5}

type fixture struct {
	doc     *html.Document
	matcher *css.Matcher
	builder *Builder
}

func newFixture(t *testing.T, src, author string) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	doc, err := html.Parse(src)
	require.NoError(t, err)

	p := css.NewParser(log)
	sheets := []*css.Stylesheet{
		css.UserAgentStylesheet(p, ""),
		p.ParseStylesheet(baseCSS+author, "test.css", css.Author),
	}
	m := css.NewMatcher(doc, doc, p, sheets, css.Medium{Type: "screen", Width: 1024, Height: 768}, log)
	return &fixture{
		doc:     doc,
		matcher: m,
		builder: NewBuilder(doc, m, text.NewSizer(fiveApart), log),
	}
}

func (f *fixture) id(t *testing.T, id string) html.NodeID {
	t.Helper()
	n := f.doc.ElementByID(id)
	require.NotNil(t, n, "no element with id %q", id)
	return n.ID
}

// table builds the table with the given id inside a containing block of
// width cb.
func (f *fixture) table(t *testing.T, id string, cb int) *TableBox {
	t.Helper()
	tb, err := f.builder.Build(f.id(t, id))
	require.NoError(t, err)
	tb.ContainingWidth = cb
	return tb
}

func (f *fixture) cell(t *testing.T, tb *TableBox, id string) *TableCellBox {
	t.Helper()
	want := f.id(t, id)
	for _, s := range tb.Sections {
		for _, r := range s.Rows {
			for _, c := range r.Cells {
				if c.Element == want {
					return c
				}
			}
		}
	}
	t.Fatalf("no cell %q", id)
	return nil
}

// layout builds and lays out a table in a 1024px containing block.
func layout(t *testing.T, src, author string) *TableBox {
	t.Helper()
	f := newFixture(t, src, author)
	tb := f.table(t, "t", 1024)
	require.NoError(t, tb.Layout(context.Background()))
	return tb
}
