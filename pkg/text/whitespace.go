package text

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2"
)

// WhiteSpace is the processing mode selected by the white-space property.
type WhiteSpace struct {
	CollapseSpaces   bool
	PreserveNewlines bool
	Wrap             bool
}

// ParseWhiteSpace maps a white-space value to its mode. Unknown values
// behave like normal.
func ParseWhiteSpace(value string) WhiteSpace {
	switch value {
	case "pre":
		return WhiteSpace{PreserveNewlines: true}
	case "nowrap":
		return WhiteSpace{CollapseSpaces: true}
	case "pre-wrap":
		return WhiteSpace{PreserveNewlines: true, Wrap: true}
	case "pre-line":
		return WhiteSpace{CollapseSpaces: true, PreserveNewlines: true, Wrap: true}
	}
	return WhiteSpace{CollapseSpaces: true, Wrap: true}
}

// Collapse applies the white-space mode to s. Collapsing modes turn tabs
// into spaces and runs of spaces into one; newlines become spaces unless
// they are preserved, in which case the spaces around them are dropped.
// ctx is polled before the text is touched and once per preserved line.
func Collapse(ctx context.Context, s string, ws WhiteSpace) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("collapse whitespace: %w", err)
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if !ws.CollapseSpaces {
		return s, nil
	}
	if !ws.PreserveNewlines {
		b := parse.ReplaceMultipleWhitespace([]byte(s))
		return string(bytes.ReplaceAll(b, []byte{'\n'}, []byte{' '})), nil
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("collapse whitespace: %w", err)
		}
		lines[i] = strings.Trim(string(parse.ReplaceMultipleWhitespace([]byte(line))), " ")
	}
	return strings.Join(lines, "\n"), nil
}
