package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhiteSpace(t *testing.T) {
	assert.Equal(t, WhiteSpace{CollapseSpaces: true, Wrap: true}, ParseWhiteSpace("normal"))
	assert.Equal(t, WhiteSpace{CollapseSpaces: true, Wrap: true}, ParseWhiteSpace("bogus"))
	assert.Equal(t, WhiteSpace{PreserveNewlines: true}, ParseWhiteSpace("pre"))
	assert.Equal(t, WhiteSpace{CollapseSpaces: true}, ParseWhiteSpace("nowrap"))
	assert.Equal(t, WhiteSpace{PreserveNewlines: true, Wrap: true}, ParseWhiteSpace("pre-wrap"))
	assert.Equal(t, WhiteSpace{CollapseSpaces: true, PreserveNewlines: true, Wrap: true}, ParseWhiteSpace("pre-line"))
}

func TestCollapse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		mode string
		want string
	}{
		{"normal runs", "a  \t b", "normal", "a b"},
		{"normal newline", "a\n\n  b", "normal", "a b"},
		{"normal crlf", "a\r\nb", "normal", "a b"},
		{"nowrap", "a   b", "nowrap", "a b"},
		{"pre untouched", "a  \n  b", "pre", "a  \n  b"},
		{"pre crlf", "a\r\nb", "pre", "a\nb"},
		{"pre-line", "a  \n  b   c", "pre-line", "a\nb c"},
		{"pre-line blank lines", "a\n\nb", "pre-line", "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collapse(context.Background(), tt.in, ParseWhiteSpace(tt.mode))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollapse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, mode := range []string{"normal", "pre", "pre-line"} {
		_, err := Collapse(ctx, "a  \n  b", ParseWhiteSpace(mode))
		assert.ErrorIs(t, err, context.Canceled, mode)
	}
}
