// Package render draws stored puzzles as PNG snapshots.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"regexp"
	"strconv"
	"strings"

	"github.com/dyluth/regent/pkg/puzzle"
)

// Renderer produces an image of a puzzle record.
type Renderer interface {
	RenderSnapshot(rec *puzzle.Record) ([]byte, error)
}

// Fallback is used for labels without a parseable color.
var Fallback = color.RGBA{R: 128, G: 128, B: 128, A: 255}

var (
	gridLine = color.RGBA{A: 255}

	rgbPattern = regexp.MustCompile(`^rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*([0-9.]+)\s*)?\)$`)
	hexPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// PNGRenderer paints one square per cell.
type PNGRenderer struct {
	CellSize int  // pixels per cell side, defaults to 40
	Grid     bool // draw 1px black cell borders
}

// NewPNGRenderer returns a renderer with 40px cells and grid lines.
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{CellSize: 40, Grid: true}
}

// RenderSnapshot encodes the record as PNG. Queen cells get a filled marker
// and blocked cells a cross. An empty record yields a 1x1 grey image.
func (r *PNGRenderer) RenderSnapshot(rec *puzzle.Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("cannot render nil record")
	}
	img := r.Draw(rec)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode puzzle %d: %w", rec.ID, err)
	}
	return buf.Bytes(), nil
}

// Draw paints the record into an RGBA image.
func (r *PNGRenderer) Draw(rec *puzzle.Record) *image.RGBA {
	rows, cols := rec.Matrix.Size()
	if rows == 0 || cols == 0 {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.Set(0, 0, Fallback)
		return img
	}

	size := r.CellSize
	if size <= 0 {
		size = 40
	}

	palette := make(map[int]color.RGBA, len(rec.ColorMap))
	for label, token := range rec.ColorMap.Inverse() {
		if c, ok := ParseColor(token); ok {
			palette[label] = c
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, cols*size, rows*size))
	for i, row := range rec.Matrix {
		for j, cell := range row {
			fill, ok := palette[cell.Color()]
			if !ok {
				fill = Fallback
			}
			rect := image.Rect(j*size, i*size, (j+1)*size, (i+1)*size)
			draw.Draw(img, rect, &image.Uniform{C: fill}, image.Point{}, draw.Src)

			switch cell.State() {
			case puzzle.StateQueen:
				drawQueen(img, rect, contrast(fill))
			case puzzle.StateBlocked:
				drawCross(img, rect, contrast(fill))
			}

			if r.Grid {
				drawBorder(img, rect)
			}
		}
	}
	return img
}

// ParseColor parses rgb(), rgba(), #rrggbb and #rgb tokens.
func ParseColor(token string) (color.RGBA, bool) {
	token = strings.ToLower(strings.TrimSpace(token))

	if m := rgbPattern.FindStringSubmatch(token); m != nil {
		var c [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(m[i+1])
			if err != nil || v > 255 {
				return Fallback, false
			}
			c[i] = uint8(v)
		}
		return color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}, true
	}

	if m := hexPattern.FindStringSubmatch(token); m != nil {
		hex := m[1]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Fallback, false
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
	}

	return Fallback, false
}

// contrast returns black on bright fills and white on dark ones.
func contrast(c color.RGBA) color.RGBA {
	brightness := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if brightness > 127.5 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

func drawBorder(img *image.RGBA, rect image.Rectangle) {
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.Set(x, rect.Min.Y, gridLine)
		img.Set(x, rect.Max.Y-1, gridLine)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.Set(rect.Min.X, y, gridLine)
		img.Set(rect.Max.X-1, y, gridLine)
	}
}

func drawQueen(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	inset := rect.Dx() / 3
	inner := rect.Inset(inset)
	if inner.Empty() {
		inner = rect
	}
	draw.Draw(img, inner, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func drawCross(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	inset := rect.Dx() / 4
	n := rect.Dx() - 2*inset
	for k := 0; k < n; k++ {
		img.Set(rect.Min.X+inset+k, rect.Min.Y+inset+k, c)
		img.Set(rect.Max.X-1-inset-k, rect.Min.Y+inset+k, c)
	}
}
