package text

import (
	"errors"
	"unicode"

	"github.com/go-text/typesetting/language"
	"golang.org/x/text/unicode/norm"

	"github.com/CrazyPickleStudios/brine2d"
)

// ErrNotUploaded is returned by Draw when the font has no texture yet.
var ErrNotUploaded = errors.New("text: font texture not uploaded")

// QuadSink receives the primitives produced by Draw. The batch renderer
// and the immediate renderer both implement it.
type QuadSink interface {
	// DrawGlyph draws the src region of the font texture into dst.
	DrawGlyph(tex brine2d.Texture, src, dst brine2d.Rect, c brine2d.Color)
	// FillRect draws a solid rectangle (underline, strikethrough).
	FillRect(dst brine2d.Rect, c brine2d.Color)
}

// Draw lays out s with its top-left at (x, y) and emits it into sink. A
// shadow, when set, is emitted in full before the primary pass.
func Draw(sink QuadSink, font brine2d.Font, s string, x, y float32, opts brine2d.TextRenderOptions) error {
	if font == nil {
		return brine2d.ErrNoFont
	}
	tex := font.Texture()
	if tex == nil {
		return ErrNotUploaded
	}
	l := layoutText(font, s, opts)
	if sh := opts.Shadow; sh != nil {
		c := sh.Color
		l.emit(sink, tex, x+sh.OffsetX, y+sh.OffsetY, &c, true)
	}
	l.emit(sink, tex, x, y, nil, true)
	return nil
}

// Measure returns the size of the glyph quads Draw would emit for s,
// shadow included. It runs the same layout as Draw; decorations are not
// counted.
func Measure(font brine2d.Font, s string, opts brine2d.TextRenderOptions) (w, h float32) {
	b := Bounds(font, s, 0, 0, opts)
	return b.W, b.H
}

// Bounds returns the bounding box of the glyph quads Draw would emit for s
// at (x, y), shadow pass included and decorations excluded.
func Bounds(font brine2d.Font, s string, x, y float32, opts brine2d.TextRenderOptions) brine2d.Rect {
	if font == nil || s == "" {
		return brine2d.Rect{}
	}
	var bs boundsSink
	l := layoutText(font, s, opts)
	if sh := opts.Shadow; sh != nil {
		l.emit(&bs, nil, x+sh.OffsetX, y+sh.OffsetY, nil, false)
	}
	l.emit(&bs, nil, x, y, nil, false)
	return bs.r
}

type boundsSink struct{ r brine2d.Rect }

func (b *boundsSink) DrawGlyph(_ brine2d.Texture, _, dst brine2d.Rect, _ brine2d.Color) {
	b.r = b.r.Union(dst)
}

func (b *boundsSink) FillRect(brine2d.Rect, brine2d.Color) {}

// char is one rune of the flattened run list.
type char struct {
	r   rune
	run int
}

type tokenKind uint8

const (
	tokenWord tokenKind = iota
	tokenSpace
	tokenNewline
)

type token struct {
	kind  tokenKind
	chars []char
}

// placed is a glyph positioned on its line. pen is the pen x relative to
// the line start.
type placed struct {
	g     brine2d.Glyph
	pen   float32
	scale float32
	run   int
}

type line struct {
	glyphs []placed
	// width is the advance width, excluding trailing spaces.
	width float32
	// ink is the horizontal extent of visible glyphs.
	inkMin, inkMax float32
	hasInk         bool
	scale          float32
	last           rune
}

type layout struct {
	font    brine2d.Font
	metrics brine2d.FontMetrics
	opts    brine2d.TextRenderOptions
	runs    []brine2d.TextRun
	lines   []*line
	base    float32
}

func layoutText(font brine2d.Font, s string, opts brine2d.TextRenderOptions) *layout {
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = 1
	}
	l := &layout{font: font, metrics: font.Metrics(), opts: opts}
	l.base = l.scaleFor(0)

	var runs []brine2d.TextRun
	if opts.Markup {
		runs = ParseMarkup(s, opts.Color)
	} else {
		runs = []brine2d.TextRun{{Text: s, Color: opts.Color}}
	}
	l.runs = make([]brine2d.TextRun, len(runs))
	for i, r := range runs {
		r.Text = norm.NFC.String(r.Text)
		l.runs[i] = r
	}

	l.newLine()
	var pending []char
	for _, tok := range tokenize(l.runs) {
		switch tok.kind {
		case tokenNewline:
			pending = nil
			l.newLine()
		case tokenSpace:
			pending = append(pending, tok.chars...)
		case tokenWord:
			cur := l.current()
			if l.opts.MaxWidth > 0 && cur.hasInk {
				with := append(append([]char(nil), pending...), tok.chars...)
				if l.extentAfter(cur, with) > l.opts.MaxWidth {
					pending = nil
					l.newLine()
				}
			}
			l.place(l.current(), pending)
			pending = nil
			l.place(l.current(), tok.chars)
		}
	}
	return l
}

// scaleFor returns the factor from atlas pixels to the requested size.
func (l *layout) scaleFor(size float32) float32 {
	if size <= 0 {
		size = l.opts.Size
	}
	if size <= 0 || l.metrics.Size <= 0 {
		return 1
	}
	return size / l.metrics.Size
}

func (l *layout) current() *line { return l.lines[len(l.lines)-1] }

func (l *layout) newLine() {
	l.lines = append(l.lines, &line{})
}

// advance walks chars from the end of ln, calling fn with each glyph's
// position. Missing glyphs are skipped and do not move the pen.
func (l *layout) advance(ln *line, chars []char, fn func(p placed)) {
	pen, last := ln.width, ln.last
	if n := len(ln.glyphs); n > 0 {
		lp := ln.glyphs[n-1]
		pen = lp.pen + l.glyphAdvance(lp)
	}
	for _, c := range chars {
		g, ok := l.font.Glyph(c.r)
		if !ok {
			brine2d.Logger().Debug("text: no glyph for rune", "rune", string(c.r))
			continue
		}
		run := l.runs[c.run]
		scale := l.scaleFor(run.Size)
		if last != 0 {
			pen += l.font.Kern(last, c.r) * scale
		}
		p := placed{g: g, pen: pen, scale: scale, run: c.run}
		fn(p)
		pen += l.glyphAdvance(p)
		last = c.r
	}
}

func (l *layout) glyphAdvance(p placed) float32 {
	adv := p.g.Advance * p.scale
	if l.runs[p.run].Style.Has(brine2d.StyleBold) {
		adv++
	}
	return adv
}

// inkExtent returns the horizontal span of p's quads relative to the line.
func (l *layout) inkExtent(p placed) (lo, hi float32, ok bool) {
	if p.g.Width == 0 || p.g.Height == 0 {
		return 0, 0, false
	}
	lo = p.pen + p.g.BearingX*p.scale
	hi = lo + float32(p.g.Width)*p.scale
	if l.runs[p.run].Style.Has(brine2d.StyleBold) {
		hi++
	}
	return lo, hi, true
}

// extentAfter returns the ink width ln would have with chars appended.
func (l *layout) extentAfter(ln *line, chars []char) float32 {
	lo, hi, has := ln.inkMin, ln.inkMax, ln.hasInk
	l.advance(ln, chars, func(p placed) {
		a, b, ok := l.inkExtent(p)
		if !ok {
			return
		}
		if !has {
			lo, hi, has = a, b, true
			return
		}
		lo, hi = min(lo, a), max(hi, b)
	})
	return hi - lo
}

func (l *layout) place(ln *line, chars []char) {
	l.advance(ln, chars, func(p placed) {
		ln.glyphs = append(ln.glyphs, p)
		ln.scale = max(ln.scale, p.scale)
		ln.last = p.g.Rune
		if a, b, ok := l.inkExtent(p); ok {
			if !ln.hasInk {
				ln.inkMin, ln.inkMax, ln.hasInk = a, b, true
			} else {
				ln.inkMin, ln.inkMax = min(ln.inkMin, a), max(ln.inkMax, b)
			}
		}
		if !unicode.IsSpace(p.g.Rune) {
			ln.width = p.pen + l.glyphAdvance(p)
		}
	})
}

func (l *layout) lineScale(ln *line) float32 {
	if ln.scale > 0 {
		return ln.scale
	}
	return l.base
}

func (l *layout) lineAdvance(ln *line) float32 {
	return l.metrics.LineHeight * l.lineScale(ln) * l.opts.LineSpacing
}

// emit writes the laid out text at (x, y). A non-nil tint replaces every
// run color, which is how the shadow pass is drawn.
func (l *layout) emit(sink QuadSink, tex brine2d.Texture, x, y float32, tint *brine2d.Color, decorate bool) {
	var blockH float32
	for _, ln := range l.lines {
		blockH += l.lineAdvance(ln)
	}
	switch l.opts.VAlign {
	case brine2d.AlignMiddle:
		y += (l.opts.MaxHeight - blockH) / 2
	case brine2d.AlignBottom:
		y += l.opts.MaxHeight - blockH
	}

	top := y
	for _, ln := range l.lines {
		lx := x
		switch l.opts.HAlign {
		case brine2d.AlignCenter:
			lx += (l.opts.MaxWidth - ln.width) / 2
		case brine2d.AlignRight:
			lx += l.opts.MaxWidth - ln.width
		}
		baseline := top + l.metrics.Ascent*l.lineScale(ln)

		for _, p := range ln.glyphs {
			if p.g.Width == 0 || p.g.Height == 0 {
				continue
			}
			run := l.runs[p.run]
			c := run.Color
			if tint != nil {
				c = *tint
			}
			src := brine2d.R(float32(p.g.X), float32(p.g.Y), float32(p.g.Width), float32(p.g.Height))
			dst := brine2d.R(
				lx+p.pen+p.g.BearingX*p.scale,
				baseline-p.g.BearingY*p.scale,
				float32(p.g.Width)*p.scale,
				float32(p.g.Height)*p.scale)
			sink.DrawGlyph(tex, src, dst, c)
			if run.Style.Has(brine2d.StyleBold) {
				dst.X++
				sink.DrawGlyph(tex, src, dst, c)
			}
		}
		if decorate {
			l.decorate(sink, ln, lx, baseline, tint)
		}
		top += l.lineAdvance(ln)
	}
}

// decorate draws underline and strikethrough bars. Each bar spans one
// contiguous stretch of a run on the line.
func (l *layout) decorate(sink QuadSink, ln *line, lx, baseline float32, tint *brine2d.Color) {
	for i := 0; i < len(ln.glyphs); {
		run := ln.glyphs[i].run
		j := i
		for j < len(ln.glyphs) && ln.glyphs[j].run == run {
			j++
		}
		r := l.runs[run]
		if r.Style&(brine2d.StyleUnderline|brine2d.StyleStrikethrough) != 0 {
			first, last := ln.glyphs[i], ln.glyphs[j-1]
			x0 := lx + first.pen
			x1 := lx + last.pen + l.glyphAdvance(last)
			scale := first.scale
			thick := max(1, l.metrics.Size*scale/14)
			c := r.Color
			if tint != nil {
				c = *tint
			}
			if r.Style.Has(brine2d.StyleUnderline) {
				uy := baseline + max(1, l.metrics.Descent*scale/2)
				sink.FillRect(brine2d.R(x0, uy, x1-x0, thick), c)
			}
			if r.Style.Has(brine2d.StyleStrikethrough) {
				sy := baseline - l.metrics.Ascent*scale*0.35
				sink.FillRect(brine2d.R(x0, sy, x1-x0, thick), c)
			}
		}
		i = j
	}
}

// tokenize splits the runs into words, whitespace and newlines. Han and
// kana characters have no spaces between words, so each one is a token of
// its own and lines may break between them.
func tokenize(runs []brine2d.TextRun) []token {
	var toks []token
	var cur *token
	for ri, run := range runs {
		for _, r := range run.Text {
			c := char{r: r, run: ri}
			switch {
			case r == '\n':
				toks = append(toks, token{kind: tokenNewline})
				cur = nil
			case r == '\r':
			case unicode.IsSpace(r):
				if cur == nil || cur.kind != tokenSpace {
					toks = append(toks, token{kind: tokenSpace})
					cur = &toks[len(toks)-1]
				}
				cur.chars = append(cur.chars, c)
			case breaksAnywhere(r):
				toks = append(toks, token{kind: tokenWord, chars: []char{c}})
				cur = nil
			default:
				if cur == nil || cur.kind != tokenWord {
					toks = append(toks, token{kind: tokenWord})
					cur = &toks[len(toks)-1]
				}
				cur.chars = append(cur.chars, c)
			}
		}
	}
	return toks
}

func breaksAnywhere(r rune) bool {
	switch language.LookupScript(r) {
	case language.Han, language.Hiragana, language.Katakana:
		return true
	}
	return false
}
