package fontatlas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"runtime"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"

	"github.com/CrazyPickleStudios/brine2d"
)

// ErrAtlasOverflow is wrapped by errors reporting glyphs that do not fit.
var ErrAtlasOverflow = errors.New("fontatlas: atlas overflow")

func (e *OverflowError) Unwrap() error { return ErrAtlasOverflow }

// maxKernRunes bounds the charset size for which a full kerning table is
// built; the table grows with the square of the charset.
const maxKernRunes = 512

// Options configures Generate.
type Options struct {
	// Size is the pixel size (em height) to rasterize at.
	Size float32
	// Charset lists the runes to include. Defaults to printable ASCII.
	Charset []rune
	// Padding is the gap between glyphs in pixels. Values below 1 are
	// raised to 1.
	Padding int
	// Filter is the sampling mode of the uploaded texture.
	Filter brine2d.Filter
	// Workers bounds parallel rasterization. Defaults to GOMAXPROCS.
	Workers int
	// Hinting controls glyph outline quantization. Defaults to full.
	Hinting font.Hinting
}

// DefaultCharset returns printable ASCII, 0x20 through 0x7E.
func DefaultCharset() []rune {
	rs := make([]rune, 0, 0x7F-0x20)
	for r := rune(0x20); r < 0x7F; r++ {
		rs = append(rs, r)
	}
	return rs
}

// Charset returns the unique runes of s in order of first appearance.
func Charset(s string) []rune {
	seen := make(map[rune]bool)
	var out []rune
	for _, r := range s {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// Atlas is a packed glyph texture plus its rune table. Glyph metadata is
// immutable after Generate.
type Atlas struct {
	glyphs  map[rune]brine2d.Glyph
	kerning map[[2]rune]float32
	metrics brine2d.FontMetrics
	filter  brine2d.Filter

	// Image holds the atlas pixels: white RGB with glyph coverage in alpha.
	Image *image.NRGBA

	tex brine2d.Texture
}

var _ brine2d.Font = (*Atlas)(nil)

// rasterized is one glyph's bitmap and metrics before packing.
type rasterized struct {
	glyph brine2d.Glyph
	mask  *image.Alpha
}

// Generate rasterizes opts.Charset of f and packs it into one atlas.
// Runes the font has no glyph for are left out of the table. If the glyphs
// do not fit in the estimated atlas, Generate returns an error wrapping
// ErrAtlasOverflow.
func Generate(f *Font, opts Options) (*Atlas, error) {
	if f == nil {
		return nil, errors.New("fontatlas: nil font")
	}
	if opts.Size <= 0 {
		return nil, fmt.Errorf("fontatlas: invalid size %v", opts.Size)
	}
	if len(opts.Charset) == 0 {
		opts.Charset = DefaultCharset()
	}
	opts.Padding = max(opts.Padding, 1)
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Hinting == font.HintingNone {
		opts.Hinting = font.HintingFull
	}

	faceOpts := &opentype.FaceOptions{Size: float64(opts.Size), DPI: 72, Hinting: opts.Hinting}
	glyphs, err := rasterizeAll(f, faceOpts, opts.Charset, opts.Workers)
	if err != nil {
		return nil, err
	}

	items := make([]packItem, len(glyphs))
	for i, g := range glyphs {
		items[i] = packItem{r: g.glyph.Rune, w: g.glyph.Width, h: g.glyph.Height}
	}
	side := estimateSide(items, opts.Padding)
	if err := packRows(items, side, opts.Padding); err != nil {
		return nil, err
	}

	a := &Atlas{
		glyphs: make(map[rune]brine2d.Glyph, len(glyphs)),
		filter: opts.Filter,
		Image:  image.NewNRGBA(image.Rect(0, 0, side, side)),
	}
	for i, g := range glyphs {
		g.glyph.X, g.glyph.Y = items[i].x, items[i].y
		a.glyphs[g.glyph.Rune] = g.glyph
		if g.mask != nil {
			blitCoverage(a.Image, g.mask, g.glyph.X, g.glyph.Y)
		}
	}

	face, err := opentype.NewFace(f, faceOpts)
	if err != nil {
		return nil, fmt.Errorf("fontatlas: create face: %w", err)
	}
	defer face.Close()
	m := face.Metrics()
	a.metrics = brine2d.FontMetrics{
		Size:       opts.Size,
		Ascent:     fix(m.Ascent),
		Descent:    fix(m.Descent),
		LineHeight: fix(m.Height),
	}
	a.kerning = buildKerning(face, a.glyphs)

	brine2d.Logger().Info("fontatlas: atlas generated",
		"glyphs", len(a.glyphs),
		"size", opts.Size,
		"side", side)
	return a, nil
}

// rasterizeAll renders every rune of charset. Work is split across workers,
// each with its own face since faces are not safe for concurrent use.
func rasterizeAll(f *Font, faceOpts *opentype.FaceOptions, charset []rune, workers int) ([]rasterized, error) {
	results := make([]*rasterized, len(charset))
	chunk := (len(charset) + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < len(charset); start += chunk {
		end := min(start+chunk, len(charset))
		g.Go(func() error {
			face, err := opentype.NewFace(f, faceOpts)
			if err != nil {
				return fmt.Errorf("fontatlas: create face: %w", err)
			}
			defer face.Close()

			var buf sfnt.Buffer
			for i := start; i < end; i++ {
				r := charset[i]
				idx, err := f.GlyphIndex(&buf, r)
				if err != nil || idx == 0 {
					brine2d.Logger().Debug("fontatlas: no glyph for rune", "rune", string(r))
					continue
				}
				rg, ok := rasterize(face, r)
				if ok {
					results[i] = &rg
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]rasterized, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// rasterize renders r with the pen at the origin. The face reuses its mask
// buffer between calls, so the coverage is copied out.
func rasterize(face font.Face, r rune) (rasterized, bool) {
	dr, mask, maskp, advance, ok := face.Glyph(fixed.Point26_6{}, r)
	if !ok {
		return rasterized{}, false
	}
	g := brine2d.Glyph{
		Rune:     r,
		Width:    dr.Dx(),
		Height:   dr.Dy(),
		BearingX: float32(dr.Min.X),
		BearingY: float32(-dr.Min.Y),
		Advance:  fix(advance),
	}
	if dr.Empty() || mask == nil {
		return rasterized{glyph: g}, true
	}
	bitmap := image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	draw.Draw(bitmap, bitmap.Bounds(), mask, maskp, draw.Src)
	return rasterized{glyph: g, mask: bitmap}, true
}

// blitCoverage writes coverage as white texels with alpha = coverage.
func blitCoverage(dst *image.NRGBA, mask *image.Alpha, x, y int) {
	b := mask.Bounds()
	for j := 0; j < b.Dy(); j++ {
		for i := 0; i < b.Dx(); i++ {
			a := mask.AlphaAt(i, j).A
			if a == 0 {
				continue
			}
			dst.SetNRGBA(x+i, y+j, color.NRGBA{R: 255, G: 255, B: 255, A: a})
		}
	}
}

func buildKerning(face font.Face, glyphs map[rune]brine2d.Glyph) map[[2]rune]float32 {
	kern := make(map[[2]rune]float32)
	if len(glyphs) > maxKernRunes {
		return kern
	}
	for a := range glyphs {
		for b := range glyphs {
			if k := face.Kern(a, b); k != 0 {
				kern[[2]rune{a, b}] = fix(k)
			}
		}
	}
	return kern
}

func fix(v fixed.Int26_6) float32 {
	return float32(v) / 64
}

// Glyph returns the glyph for r. Missing runes report ok=false.
func (a *Atlas) Glyph(r rune) (brine2d.Glyph, bool) {
	g, ok := a.glyphs[r]
	return g, ok
}

// MustGlyph is like Glyph but panics when r is missing.
func (a *Atlas) MustGlyph(r rune) brine2d.Glyph {
	g, ok := a.glyphs[r]
	if !ok {
		panic(fmt.Sprintf("fontatlas: no glyph for %q", r))
	}
	return g
}

// Len returns the number of glyphs in the atlas.
func (a *Atlas) Len() int { return len(a.glyphs) }

// Kern returns the horizontal adjustment between a and b in pixels.
func (a *Atlas) Kern(l, r rune) float32 { return a.kerning[[2]rune{l, r}] }

// Metrics returns the vertical font metrics.
func (a *Atlas) Metrics() brine2d.FontMetrics { return a.metrics }

// Filter returns the sampling mode used on upload.
func (a *Atlas) Filter() brine2d.Filter { return a.filter }

// Side returns the width (and height) of the atlas in pixels.
func (a *Atlas) Side() int { return a.Image.Bounds().Dx() }

// Texture implements brine2d.Font. It is nil until Upload.
func (a *Atlas) Texture() brine2d.Texture { return a.tex }

// Upload creates the atlas texture. Calling Upload again is a no-op.
func (a *Atlas) Upload(tc brine2d.TextureContext) error {
	if a.tex != nil {
		return nil
	}
	tex, err := tc.CreateTextureFromImage(a.Image, a.filter)
	if err != nil {
		return fmt.Errorf("fontatlas: upload atlas: %w", err)
	}
	a.tex = tex
	return nil
}

// Release destroys the uploaded texture. The glyph table stays valid and
// the atlas may be uploaded again.
func (a *Atlas) Release(tc brine2d.TextureContext) {
	if a.tex == nil {
		return
	}
	tc.ReleaseTexture(a.tex)
	a.tex = nil
}
