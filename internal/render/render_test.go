package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/dyluth/regent/pkg/puzzle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		token string
		want  color.RGBA
		ok    bool
	}{
		{"rgb(255, 123, 96)", color.RGBA{255, 123, 96, 255}, true},
		{"  RGB(1,2,3) ", color.RGBA{1, 2, 3, 255}, true},
		{"rgba(10, 20, 30, 0.5)", color.RGBA{10, 20, 30, 255}, true},
		{"#ff8000", color.RGBA{255, 128, 0, 255}, true},
		{"#0F0", color.RGBA{0, 255, 0, 255}, true},
		{"rgb(300, 0, 0)", Fallback, false},
		{"tomato", Fallback, false},
		{"", Fallback, false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := ParseColor(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderSnapshot(t *testing.T) {
	rec := &puzzle.Record{
		ID: 1,
		Matrix: puzzle.Matrix{
			{{1, 0}, {2, 1}},
			{{2, -1}, {3, 0}},
		},
		ColorMap: puzzle.ColorMap{"rgb(255, 0, 0)": 1, "#0000ff": 2, "mystery": 3},
	}

	r := &PNGRenderer{CellSize: 10, Grid: true}
	data, err := r.RenderSnapshot(rec)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())

	rgba := func(x, y int) color.RGBA {
		return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	}

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, rgba(2, 2), "cell fill")
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, rgba(0, 0), "grid line")
	assert.Equal(t, Fallback, rgba(18, 12), "unknown token falls back to grey")
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgba(15, 5), "queen marker contrasts with dark blue")
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, rgba(11, 2), "queen cell fill outside marker")
}

func TestRenderSnapshot_NoGrid(t *testing.T) {
	rec := &puzzle.Record{
		ID:       2,
		Matrix:   puzzle.Matrix{{{1, 0}}},
		ColorMap: puzzle.ColorMap{"#ffffff": 1},
	}
	img := (&PNGRenderer{CellSize: 4}).Draw(rec)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(0, 0))
}

func TestRenderSnapshot_Empty(t *testing.T) {
	data, err := NewPNGRenderer().RenderSnapshot(&puzzle.Record{ID: 3, Matrix: puzzle.Matrix{}, ColorMap: puzzle.ColorMap{}})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
}

func TestRenderSnapshot_Nil(t *testing.T) {
	_, err := NewPNGRenderer().RenderSnapshot(nil)
	assert.Error(t, err)
}

func TestContrast(t *testing.T) {
	assert.Equal(t, color.RGBA{A: 255}, contrast(color.RGBA{255, 255, 200, 255}))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, contrast(color.RGBA{10, 10, 60, 255}))
}
