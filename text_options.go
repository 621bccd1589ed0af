package brine2d

// HAlign is horizontal text alignment inside the layout box.
type HAlign uint8

const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignRight
)

// VAlign is vertical text alignment inside the layout box.
type VAlign uint8

const (
	AlignTop VAlign = iota
	AlignMiddle
	AlignBottom
)

// TextStyle is a set of decoration flags applied to a run.
type TextStyle uint8

const (
	StyleBold TextStyle = 1 << iota
	StyleUnderline
	StyleStrikethrough
)

// Has reports whether all bits of f are set.
func (s TextStyle) Has(f TextStyle) bool { return s&f == f }

// TextShadow draws the whole layout once more, offset and tinted, beneath
// the primary pass.
type TextShadow struct {
	OffsetX, OffsetY float32
	Color            Color
}

// TextRenderOptions controls text layout.
//
// MaxWidth enables word wrapping when positive. MaxWidth and MaxHeight
// together form the box used for alignment; a zero dimension aligns
// against the draw origin instead.
type TextRenderOptions struct {
	Color       Color
	Size        float32 // 0 uses the font's native size
	HAlign      HAlign
	VAlign      VAlign
	MaxWidth    float32
	MaxHeight   float32
	LineSpacing float32 // multiplier on the font line height; 0 means 1
	Markup      bool
	Shadow      *TextShadow
}

// DefaultTextOptions returns white, left/top aligned, unwrapped options.
func DefaultTextOptions() TextRenderOptions {
	return TextRenderOptions{
		Color:       White,
		LineSpacing: 1,
	}
}

// TextRun is a contiguous span of text sharing one style. Runs are
// produced by the markup parser, or as a single run for plain text.
type TextRun struct {
	Text  string
	Color Color
	Style TextStyle
	Size  float32 // 0 inherits TextRenderOptions.Size
}

// Glyph is the atlas placement and metrics of one rune. Positions are in
// atlas pixels; bearings and advance in font pixels at the atlas size.
type Glyph struct {
	Rune          rune
	X, Y          int
	Width, Height int
	BearingX      float32 // left edge relative to the pen position
	BearingY      float32 // top edge above the baseline
	Advance       float32
}

// FontMetrics are the vertical metrics of a font atlas.
type FontMetrics struct {
	Size       float32
	Ascent     float32
	Descent    float32
	LineHeight float32
}

// Font is a rasterized font ready for drawing: a glyph table plus the
// texture holding the glyph bitmaps.
type Font interface {
	Glyph(r rune) (Glyph, bool)
	Kern(a, b rune) float32
	Metrics() FontMetrics
	// Texture returns the uploaded atlas, or nil before upload.
	Texture() Texture
}
