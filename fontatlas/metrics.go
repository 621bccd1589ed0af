package fontatlas

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/CrazyPickleStudios/brine2d"
)

// metricsFile is the serialized glyph table written next to an atlas
// image. Glyphs are sorted by rune so output is deterministic.
type metricsFile struct {
	Version int                 `msgpack:"v"`
	Side    int                 `msgpack:"side"`
	Filter  brine2d.Filter      `msgpack:"filter"`
	Metrics brine2d.FontMetrics `msgpack:"metrics"`
	Glyphs  []brine2d.Glyph     `msgpack:"glyphs"`
	Kerning []kernPair          `msgpack:"kerning"`
}

type kernPair struct {
	L, R  rune
	Value float32
}

const metricsVersion = 1

// WriteMetrics writes the glyph table and font metrics as zstd-compressed
// msgpack. Together with the atlas image this reconstructs the Atlas via
// ReadMetrics.
func (a *Atlas) WriteMetrics(w io.Writer) error {
	mf := metricsFile{
		Version: metricsVersion,
		Side:    a.Side(),
		Filter:  a.filter,
		Metrics: a.metrics,
		Glyphs:  make([]brine2d.Glyph, 0, len(a.glyphs)),
	}
	for _, g := range a.glyphs {
		mf.Glyphs = append(mf.Glyphs, g)
	}
	sort.Slice(mf.Glyphs, func(i, j int) bool { return mf.Glyphs[i].Rune < mf.Glyphs[j].Rune })
	for k, v := range a.kerning {
		mf.Kerning = append(mf.Kerning, kernPair{L: k[0], R: k[1], Value: v})
	}
	sort.Slice(mf.Kerning, func(i, j int) bool {
		if mf.Kerning[i].L != mf.Kerning[j].L {
			return mf.Kerning[i].L < mf.Kerning[j].L
		}
		return mf.Kerning[i].R < mf.Kerning[j].R
	})

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("fontatlas: zstd writer: %w", err)
	}
	if err := msgpack.NewEncoder(zw).Encode(&mf); err != nil {
		zw.Close()
		return fmt.Errorf("fontatlas: encode metrics: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("fontatlas: zstd close: %w", err)
	}
	return nil
}

// ReadMetrics rebuilds an Atlas from a metrics stream written by
// WriteMetrics and the matching atlas image.
func ReadMetrics(r io.Reader, img image.Image) (*Atlas, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("fontatlas: zstd reader: %w", err)
	}
	defer zr.Close()

	var mf metricsFile
	if err := msgpack.NewDecoder(zr).Decode(&mf); err != nil {
		return nil, fmt.Errorf("fontatlas: decode metrics: %w", err)
	}
	if mf.Version != metricsVersion {
		return nil, fmt.Errorf("fontatlas: unsupported metrics version %d", mf.Version)
	}
	b := img.Bounds()
	if b.Dx() != mf.Side || b.Dy() != mf.Side {
		return nil, fmt.Errorf("fontatlas: image is %dx%d, metrics expect %d", b.Dx(), b.Dy(), mf.Side)
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	a := &Atlas{
		glyphs:  make(map[rune]brine2d.Glyph, len(mf.Glyphs)),
		kerning: make(map[[2]rune]float32, len(mf.Kerning)),
		metrics: mf.Metrics,
		filter:  mf.Filter,
		Image:   nrgba,
	}
	for _, g := range mf.Glyphs {
		a.glyphs[g.Rune] = g
	}
	for _, k := range mf.Kerning {
		a.kerning[[2]rune{k.L, k.R}] = k.Value
	}
	return a, nil
}
