package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorFromPacked(t *testing.T) {
	tests := []struct {
		packed  uint32
		r, g, b uint8
	}{
		{0xFF8000, 255, 128, 0},
		{0x000000, 0, 0, 0},
		{0x123456, 0x12, 0x34, 0x56},
		{0xFFFFFF, 255, 255, 255},
		{0xAB123456, 0x12, 0x34, 0x56}, // high byte ignored
	}
	for _, tt := range tests {
		c := ColorFromPacked(tt.packed)
		assert.Equal(t, [3]uint8{tt.r, tt.g, tt.b}, [3]uint8{c.R, c.G, c.B}, "%#x", tt.packed)
		assert.False(t, c.Indexed)
		assert.False(t, c.IsDefault())
	}

	c := ColorFromRGB(1, 2, 3)
	assert.True(t, ColorFromPacked(c.Packed()).Equals(c))
	assert.Zero(t, ColorFromIndex(4).Packed(), "indexed colors have no packed form")
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#FF8040", ColorFromRGB(255, 128, 64), false},
		{"#ff8040", ColorFromRGB(255, 128, 64), false},
		{"FF8040", ColorFromRGB(255, 128, 64), false},
		{"#FFF", ColorWhite, false},
		{"#000", ColorBlack, false},
		{"Black", ColorBlack, false},
		{" grey ", ColorGray, false},
		{"reset", ColorDefault, false},
		{"#GGG", Color{}, true},
		{"#12345", Color{}, true},
		{"chartreuse-ish", Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equals(tt.want), "got %v", got)
		})
	}
}

func TestColorEquals(t *testing.T) {
	tests := []struct {
		a, b Color
		want bool
	}{
		{ColorDefault, ColorDefault, true},
		{ColorRed, ColorRed, true},
		{ColorRed, ColorBlue, false},
		{ColorDefault, ColorBlack, false},
		{ColorFromIndex(5), ColorFromIndex(5), true},
		{ColorFromIndex(5), ColorFromRGB(5, 0, 0), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Equals(tt.b), "%v.Equals(%v)", tt.a, tt.b)
	}
}

func TestColorResolve(t *testing.T) {
	assert.Equal(t, ColorWhite, ColorDefault.Resolve(ColorWhite))
	assert.Equal(t, ColorBlack, ColorDefault.Resolve(ColorDefault))
	assert.Equal(t, ColorRed, ColorFromIndex(9).Resolve(ColorBlack), "bright red")
	assert.Equal(t, ColorFromRGB(95, 135, 175), ColorFromIndex(67).Resolve(ColorBlack), "cube entry")
	assert.Equal(t, ColorFromRGB(8, 8, 8), ColorFromIndex(232).Resolve(ColorBlack), "gray ramp")

	c := ColorFromRGB(10, 200, 30)
	assert.Equal(t, c, ColorFromColorful(c.Colorful(ColorBlack)))
}

func TestAttributes(t *testing.T) {
	attrs := AttrBold.With(AttrItalic)
	assert.True(t, attrs.Has(AttrBold))
	assert.True(t, attrs.Has(AttrItalic))
	assert.False(t, attrs.Has(AttrUnderline))
	assert.False(t, attrs.Without(AttrBold).Has(AttrBold))

	s := NewStyle(ColorRed).WithBackground(ColorBlue).Bold()
	assert.True(t, s.Attributes.Has(AttrBold))
	assert.False(t, s.Equals(DefaultStyle()))
	assert.True(t, s.WithAttributes(AttrNone).Equals(NewStyle(ColorRed).WithBackground(ColorBlue)))
}

func TestCells(t *testing.T) {
	accent := ClusterCell("e\u0301", DefaultStyle())
	assert.Equal(t, 'e', accent.Rune)
	assert.Len(t, accent.Combining, 1)
	assert.Equal(t, "e\u0301", accent.Symbol())
	assert.Equal(t, 1, accent.Width)
	assert.False(t, accent.Equals(NewCell('e')), "combining marks take part in equality")

	assert.Equal(t, 2, ClusterCell("漢", DefaultStyle()).Width)
	assert.True(t, ClusterCell("", NewStyle(ColorRed)).Style.Equals(NewStyle(ColorRed)))

	a := NewCell('x')
	assert.True(t, a.Equals(NewCell('x')))
	assert.False(t, a.Equals(a.WithStyle(NewStyle(ColorRed))))

	cont := ContinuationCell()
	assert.True(t, cont.IsContinuation())
	assert.Empty(t, cont.Symbol())
}

func TestScreenRect(t *testing.T) {
	r := RectFromSize(2, 3, 4, 5)
	w, h := r.Size()
	assert.Equal(t, 5, w)
	assert.Equal(t, 4, h)
	assert.True(t, r.Contains(3, 2))
	assert.False(t, r.Contains(8, 2))
	assert.False(t, r.Contains(3, 6))
	assert.Equal(t, "5x4+3+2", r.String())

	in := r.Intersection(RectFromSize(4, 6, 10, 10))
	assert.Equal(t, ScreenRect{Top: 4, Left: 6, Bottom: 6, Right: 8}, in)
	assert.Equal(t, ScreenRect{}, r.Intersection(RectFromSize(20, 20, 1, 1)))
	assert.True(t, RectFromSize(5, 5, 0, 4).IsEmpty())
}
