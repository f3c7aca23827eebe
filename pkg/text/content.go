package text

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// MinMaxSizes is the intrinsic width range of a piece of content.
// MinContentSize is its widest unbreakable stretch, MaxContentSize its
// width laid out without soft wraps.
type MinMaxSizes struct {
	MinContentSize int
	MaxContentSize int
}

// Run is a stretch of text set at one font size under one white-space mode.
// Consecutive runs flow on the same line.
type Run struct {
	Text       string
	FontSize   float64
	WhiteSpace WhiteSpace
}

// Sizer computes min/max content widths of inline text.
type Sizer struct {
	measure Measurer
}

func NewSizer(m Measurer) *Sizer {
	if m == nil {
		m = EstimateMeasurer{}
	}
	return &Sizer{measure: m}
}

// MinMax measures runs as one inline flow. Collapsible spaces at the start
// and end of a line do not count. ctx is polled once per run.
func (s *Sizer) MinMax(ctx context.Context, runs []Run) (MinMaxSizes, error) {
	var (
		line, lineMax float64
		word, wordMax float64
		pendingSpace  float64
		atLineStart   = true
	)
	track := func() {
		lineMax = math.Max(lineMax, line)
		wordMax = math.Max(wordMax, word)
	}

	for _, r := range runs {
		if err := ctx.Err(); err != nil {
			return MinMaxSizes{}, fmt.Errorf("content width: %w", err)
		}
		ws := r.WhiteSpace
		space := s.measure.Width(" ", r.FontSize)

		text, err := Collapse(ctx, r.Text, ws)
		if err != nil {
			return MinMaxSizes{}, fmt.Errorf("content width: %w", err)
		}
		for i, ln := range strings.Split(text, "\n") {
			if i > 0 {
				line, word, pendingSpace = 0, 0, 0
				atLineStart = true
			}
			for j, part := range strings.Split(ln, " ") {
				if j > 0 {
					if ws.CollapseSpaces {
						if !atLineStart && pendingSpace == 0 {
							pendingSpace = space
						}
					} else {
						line += space
						if !ws.Wrap {
							word += space
						}
						track()
					}
					if ws.Wrap {
						word = 0
					}
				}
				if part == "" {
					continue
				}
				if pendingSpace > 0 {
					line += pendingSpace
					if !ws.Wrap {
						word += pendingSpace
					}
					pendingSpace = 0
				}
				w := s.measure.Width(part, r.FontSize)
				line += w
				word += w
				atLineStart = false
				track()
			}
		}
	}

	return MinMaxSizes{
		MinContentSize: int(math.Ceil(wordMax)),
		MaxContentSize: int(math.Ceil(lineMax)),
	}, nil
}
