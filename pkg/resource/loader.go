package resource

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"saucer/pkg/css"
)

// Loader fetches stylesheets and the sheets they @import.
type Loader struct {
	base string
	log  *zap.Logger
}

var _ Fetcher = (*Loader)(nil)

// NewLoader returns a loader resolving references against base, usually
// the document's path or URL.
func NewLoader(base string, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{base: base, log: log}
}

// Load fetches and parses the sheet at ref, then follows its imports.
// Imported sheets come before the sheet importing them. The returned
// error collects every import that failed; the sheets that loaded are
// still returned.
func (l *Loader) Load(ctx context.Context, p *css.Parser, ref string, origin css.Origin) ([]*css.Stylesheet, error) {
	uri := Resolve(l.base, ref)
	text, err := l.FetchCSS(ctx, uri)
	if err != nil {
		return nil, err
	}
	sheet := p.ParseStylesheet(text, uri, origin)
	return l.withImports(ctx, p, sheet, uri, map[string]bool{uri: true})
}

// Imports follows the imports of a sheet that was not fetched, such as a
// <style> element, resolving them against the loader's base.
func (l *Loader) Imports(ctx context.Context, p *css.Parser, sheet *css.Stylesheet) ([]*css.Stylesheet, error) {
	return l.withImports(ctx, p, sheet, l.base, map[string]bool{})
}

// withImports loads each URI once, which also cuts import cycles.
func (l *Loader) withImports(ctx context.Context, p *css.Parser, sheet *css.Stylesheet, base string, seen map[string]bool) ([]*css.Stylesheet, error) {
	var out []*css.Stylesheet
	var errs error
	for _, ref := range sheet.Imports {
		if err := ctx.Err(); err != nil {
			return append(out, sheet), multierr.Append(errs, err)
		}
		uri := Resolve(base, ref)
		if seen[uri] {
			l.log.Debug("Skipping stylesheet already loaded", zap.String("uri", uri), zap.String("importer", sheet.URI))
			continue
		}
		seen[uri] = true

		text, err := l.FetchCSS(ctx, uri)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("import %s: %w", ref, err))
			continue
		}
		imported := p.ParseStylesheet(text, uri, sheet.Origin)
		if imported.Media == nil {
			imported.Media = sheet.Media
		}
		sheets, err := l.withImports(ctx, p, imported, uri, seen)
		errs = multierr.Append(errs, err)
		out = append(out, sheets...)
	}
	return append(out, sheet), errs
}
