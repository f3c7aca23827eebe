package css

import (
	_ "embed"

	"go.uber.org/zap"
)

//go:embed useragent.css
var userAgentCSS string

// UserAgentStylesheet returns the built-in default stylesheet. A non-empty
// override replaces it.
func UserAgentStylesheet(p *Parser, override string) *Stylesheet {
	text := userAgentCSS
	uri := "builtin:useragent.css"
	if override != "" {
		text = override
		uri = "config:useragent"
	}
	sheet := p.ParseStylesheet(text, uri, UserAgent)
	if len(sheet.Warnings) > 0 {
		p.log.Warn("User agent stylesheet has problems", zap.Strings("warnings", sheet.Warnings))
	}
	return sheet
}
