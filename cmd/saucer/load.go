package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"saucer/pkg/config"
	"saucer/pkg/css"
	"saucer/pkg/html"
	"saucer/pkg/resource"
)

const defaultFontSize = 16.0

// session is a parsed document with its stylesheets assembled.
type session struct {
	doc     *html.Document
	matcher *css.Matcher
}

// openDocument parses the HTML file at path and builds a matcher over the
// user agent, user and document stylesheets. Stylesheets that cannot be
// read are skipped and reported together in one warning.
func openDocument(ctx context.Context, path string, cfg config.EngineConfig, log *zap.Logger) (*session, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := html.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	for _, uri := range cfg.Visited {
		doc.MarkVisited(uri)
	}

	p := css.NewParser(log)
	sheets, err := loadStylesheets(ctx, doc, resource.NewLoader(path, log), cfg, p, log)
	if err != nil {
		log.Warn("Some stylesheets could not be loaded", zap.Errors("errors", multierr.Errors(err)))
	}

	medium := css.Medium{
		Type:   cfg.Medium,
		Width:  float64(cfg.ViewportWidth),
		Height: float64(cfg.ViewportHeight),
	}
	m := css.NewMatcher(doc, doc, p, sheets, medium, log)
	return &session{doc: doc, matcher: m}, nil
}

// loadStylesheets returns the stylesheets in cascade order. Every sheet
// that fails to load adds to the returned error; the others are still
// returned.
func loadStylesheets(ctx context.Context, doc *html.Document, l *resource.Loader, cfg config.EngineConfig, p *css.Parser, log *zap.Logger) ([]*css.Stylesheet, error) {
	var sheets []*css.Stylesheet
	var errs error

	override := ""
	if cfg.UserAgentStylesheet != "" {
		data, err := os.ReadFile(cfg.UserAgentStylesheet)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("user agent stylesheet: %w", err))
		} else {
			override = string(data)
		}
	}
	sheets = append(sheets, css.UserAgentStylesheet(p, override))
	if cfg.FontSize > 0 && cfg.FontSize != defaultFontSize {
		rule := "html { font-size: " + strconv.FormatFloat(cfg.FontSize, 'f', -1, 64) + "px }"
		sheets = append(sheets, p.ParseStylesheet(rule, "config:font-size", css.UserAgent))
	}

	// user stylesheets are relative to the working directory
	user := resource.NewLoader("", log)
	for _, path := range cfg.UserStylesheets {
		loaded, err := user.Load(ctx, p, path, css.User)
		errs = multierr.Append(errs, err)
		sheets = append(sheets, loaded...)
	}

	for i, src := range doc.Stylesheets {
		var loaded []*css.Stylesheet
		var err error
		if src.Href != "" {
			loaded, err = l.Load(ctx, p, src.Href, css.Author)
		} else {
			inline := p.ParseStylesheet(src.Text, "inline:"+strconv.Itoa(i), css.Author)
			loaded, err = l.Imports(ctx, p, inline)
		}
		errs = multierr.Append(errs, err)
		if src.Media != "" {
			media := css.ParseMediaQueryList(src.Media)
			for _, s := range loaded {
				if s.Media == nil {
					s.Media = media
				}
			}
		}
		sheets = append(sheets, loaded...)
	}
	return sheets, errs
}
