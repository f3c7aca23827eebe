package text

import (
	"fmt"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Measurer reports the advance width of a string in pixels.
type Measurer interface {
	Width(s string, fontSize float64) float64
}

// FontMeasurer measures text with a TrueType font. One face is kept per
// font size. Safe for concurrent use.
type FontMeasurer struct {
	font *truetype.Font

	mu       sync.Mutex
	contexts map[float64]*gg.Context
}

// NewFontMeasurer parses a TrueType font.
func NewFontMeasurer(ttf []byte) (*FontMeasurer, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &FontMeasurer{font: f, contexts: make(map[float64]*gg.Context)}, nil
}

// LoadFontMeasurer reads a TrueType font file.
func LoadFontMeasurer(path string) (*FontMeasurer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load font %s: %w", path, err)
	}
	return NewFontMeasurer(b)
}

// DefaultFontMeasurer measures with the bundled Go Regular font.
func DefaultFontMeasurer() *FontMeasurer {
	m, err := NewFontMeasurer(goregular.TTF)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *FontMeasurer) Width(s string, fontSize float64) float64 {
	if s == "" {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	dc, ok := m.contexts[fontSize]
	if !ok {
		dc = gg.NewContext(1, 1)
		dc.SetFontFace(m.face(fontSize))
		m.contexts[fontSize] = dc
	}
	w, _ := dc.MeasureString(s)
	return w
}

func (m *FontMeasurer) face(size float64) font.Face {
	return truetype.NewFace(m.font, &truetype.Options{Size: size, Hinting: font.HintingNone})
}

// EstimateMeasurer assumes every character has the same advance, given as
// a fraction of the font size.
type EstimateMeasurer struct {
	Advance float64
}

func (e EstimateMeasurer) Width(s string, fontSize float64) float64 {
	advance := e.Advance
	if advance == 0 {
		advance = 0.6
	}
	return float64(utf8.RuneCountInString(s)) * fontSize * advance
}

// NewMeasurer picks the measurer for a configured font path: the font at
// path, the bundled font when path is empty, or an estimate when the font
// cannot be loaded.
func NewMeasurer(path string, log *zap.Logger) Measurer {
	if log == nil {
		log = zap.NewNop()
	}
	if path == "" {
		return DefaultFontMeasurer()
	}
	m, err := LoadFontMeasurer(path)
	if err != nil {
		log.Warn("Falling back to estimated text widths", zap.String("font", path), zap.Error(err))
		return EstimateMeasurer{}
	}
	return m
}
