package resource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"saucer/pkg/css"
)

func uris(sheets []*css.Stylesheet) []string {
	out := make([]string, len(sheets))
	for i, s := range sheets {
		out[i] = s.URI
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"/docs/page.html", "a.css", "/docs/a.css"},
		{"/docs/page.html", "../css/a.css", "/css/a.css"},
		{"/docs/page.html", "/abs/a.css", "/abs/a.css"},
		{"http://example.com/docs/page.html", "a.css", "http://example.com/docs/a.css"},
		{"http://example.com/docs/page.html", "/a.css", "http://example.com/a.css"},
		{"/docs/page.html", "https://cdn.example.com/a.css", "https://cdn.example.com/a.css"},
		{"/docs/page.html", "ftp://example.com/a.css", "ftp://example.com/a.css"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), filepath.FromSlash(Resolve(tt.base, tt.ref)))
		})
	}
}

func TestLoader_LocalImports(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("a.css", `@import "b.css"; @import "missing.css"; p { color: red }`)
	write("b.css", `@import url(a.css); p { margin-left: 1px }`)

	l := NewLoader(filepath.Join(dir, "doc.html"), zaptest.NewLogger(t))
	p := css.NewParser(zaptest.NewLogger(t))
	sheets, err := l.Load(context.Background(), p, "a.css", css.User)

	assert.Equal(t, []string{filepath.Join(dir, "b.css"), filepath.Join(dir, "a.css")}, uris(sheets),
		"imports come first and the cycle back to a.css is cut")
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.ErrorIs(t, err, os.ErrNotExist)
	for _, s := range sheets {
		assert.Equal(t, css.User, s.Origin)
	}

	_, err = l.Load(context.Background(), p, "nope.css", css.Author)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_InlineImports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "print.css"), []byte(`p { color: black }`), 0o644))

	p := css.NewParser(zaptest.NewLogger(t))
	inline := p.ParseStylesheet(`@import "print.css"; p { color: red }`, "inline:0", css.Author)
	inline.Media = css.ParseMediaQueryList("print")

	l := NewLoader(filepath.Join(dir, "doc.html"), nil)
	sheets, err := l.Imports(context.Background(), p, inline)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, filepath.Join(dir, "print.css"), sheets[0].URI)
	assert.Equal(t, inline.Media, sheets[0].Media, "imports inherit the importer's media")
	assert.Same(t, inline, sheets[1])
}

func TestLoader_Network(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/css/a.css", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		_, _ = w.Write([]byte(`@import "b.css"; @import "/logo.png"; p { color: red }`))
	})
	mux.HandleFunc("/css/b.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte(`p { margin-left: 1px }`))
	})
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	l := NewLoader(srv.URL+"/index.html", zaptest.NewLogger(t))
	p := css.NewParser(zaptest.NewLogger(t))

	sheets, err := l.Load(context.Background(), p, "css/a.css", css.Author)
	assert.Equal(t, []string{srv.URL + "/css/b.css", srv.URL + "/css/a.css"}, uris(sheets))
	assert.ErrorContains(t, err, "unexpected content type for CSS: image/png")

	_, err = l.Load(context.Background(), p, "gone.css", css.Author)
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestLoader_UnsupportedScheme(t *testing.T) {
	l := NewLoader("/docs/page.html", nil)
	_, err := l.FetchCSS(context.Background(), "ftp://example.com/a.css")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestLoader_Cancelled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.css"), []byte(`@import "b.css";`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLoader(filepath.Join(dir, "doc.html"), nil)
	sheets, err := l.Load(ctx, css.NewParser(nil), "a.css", css.Author)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sheets, 1)
}
