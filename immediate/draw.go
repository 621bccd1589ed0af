package immediate

import (
	"math"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/fontatlas"
	"github.com/CrazyPickleStudios/brine2d/internal/vertex"
	"github.com/CrazyPickleStudios/brine2d/text"
)

// shape builds geometry with build and fills it with c as one draw, so
// triangles sharing an edge leave no seam.
func (r *Renderer) shape(c brine2d.Color, build func(b *vertex.Batch)) {
	if !r.drawing() {
		return
	}
	r.geom.Reset()
	build(r.geom)
	r.drawTriangles(r.geom.Vertices(), premulOf(c), nil)
}

// DrawRectangleFilled implements brine2d.Renderer.
func (r *Renderer) DrawRectangleFilled(rect brine2d.Rect, c brine2d.Color) {
	r.shape(c, func(b *vertex.Batch) {
		b.AddQuad(rect, c, vertex.FullUV)
	})
}

// DrawRectangleOutline implements brine2d.Renderer. The outline is drawn
// inside rect.
func (r *Renderer) DrawRectangleOutline(rect brine2d.Rect, c brine2d.Color, thickness float32) {
	t := min(thickness, rect.W/2, rect.H/2)
	if t <= 0 {
		return
	}
	r.shape(c, func(b *vertex.Batch) {
		b.AddQuad(brine2d.R(rect.X, rect.Y, rect.W, t), c, vertex.FullUV)
		b.AddQuad(brine2d.R(rect.X, rect.Bottom()-t, rect.W, t), c, vertex.FullUV)
		b.AddQuad(brine2d.R(rect.X, rect.Y+t, t, rect.H-2*t), c, vertex.FullUV)
		b.AddQuad(brine2d.R(rect.Right()-t, rect.Y+t, t, rect.H-2*t), c, vertex.FullUV)
	})
}

// DrawCircleFilled implements brine2d.Renderer.
func (r *Renderer) DrawCircleFilled(cx, cy, radius float32, c brine2d.Color) {
	if radius <= 0 {
		return
	}
	r.shape(c, func(b *vertex.Batch) {
		n := vertex.CircleSegments(radius)
		px, py := cx+radius, cy
		for i := 1; i <= n; i++ {
			s, co := math.Sincos(2 * math.Pi * float64(i) / float64(n))
			x, y := cx+radius*float32(co), cy+radius*float32(s)
			b.AddTriangle([3][2]float32{{cx, cy}, {px, py}, {x, y}}, c, vertex.FullUV)
			px, py = x, y
		}
	})
}

// DrawCircleOutline implements brine2d.Renderer. The ring is centred on
// the radius.
func (r *Renderer) DrawCircleOutline(cx, cy, radius float32, c brine2d.Color, thickness float32) {
	if radius <= 0 || thickness <= 0 {
		return
	}
	inner := max(radius-thickness/2, 0)
	outer := radius + thickness/2
	r.shape(c, func(b *vertex.Batch) {
		n := vertex.CircleSegments(outer)
		for i := 0; i < n; i++ {
			s0, c0 := math.Sincos(2 * math.Pi * float64(i) / float64(n))
			s1, c1 := math.Sincos(2 * math.Pi * float64(i+1) / float64(n))
			o0 := [2]float32{cx + outer*float32(c0), cy + outer*float32(s0)}
			o1 := [2]float32{cx + outer*float32(c1), cy + outer*float32(s1)}
			i0 := [2]float32{cx + inner*float32(c0), cy + inner*float32(s0)}
			i1 := [2]float32{cx + inner*float32(c1), cy + inner*float32(s1)}
			b.AddTriangle([3][2]float32{o0, o1, i1}, c, vertex.FullUV)
			b.AddTriangle([3][2]float32{o0, i1, i0}, c, vertex.FullUV)
		}
	})
}

// DrawLine implements brine2d.Renderer.
func (r *Renderer) DrawLine(x0, y0, x1, y1 float32, c brine2d.Color, thickness float32) {
	dx, dy := x1-x0, y1-y0
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 || thickness <= 0 {
		return
	}
	angle := float32(math.Atan2(float64(dy), float64(dx)))
	mx, my := (x0+x1)/2, (y0+y1)/2
	r.shape(c, func(b *vertex.Batch) {
		b.AddQuadRotated(brine2d.R(mx-length/2, my-thickness/2, length, thickness), c, vertex.FullUV, angle)
	})
}

// DrawTexture implements brine2d.Renderer.
func (r *Renderer) DrawTexture(t brine2d.Texture, x, y float32) {
	if t == nil {
		return
	}
	r.DrawTextureSized(t, brine2d.R(x, y, float32(t.Width()), float32(t.Height())), brine2d.White)
}

// DrawTextureSized implements brine2d.Renderer.
func (r *Renderer) DrawTextureSized(t brine2d.Texture, dst brine2d.Rect, tint brine2d.Color) {
	if t == nil {
		return
	}
	r.DrawTextureRegion(t, brine2d.R(0, 0, float32(t.Width()), float32(t.Height())), dst, 0, tint)
}

// DrawTextureRegion implements brine2d.Renderer.
func (r *Renderer) DrawTextureRegion(t brine2d.Texture, src, dst brine2d.Rect, rotation float32, tint brine2d.Color) {
	if !r.drawing() {
		return
	}
	it, err := r.own(t)
	if err != nil {
		r.fail(err)
		return
	}
	if r.target != nil && it == r.target.tex {
		brine2d.Logger().Warn("immediate: drawing a render target into itself ignored")
		return
	}
	r.geom.Reset()
	r.geom.AddQuadRotated(dst, tint, vertex.FullUV, rotation)
	quad := r.geom.Vertices()
	r.drawTriangles(quad, premul{}, paintTexture(it, src, quad, tint))
}

// glyphSink routes text layout output into the renderer.
type glyphSink struct{ r *Renderer }

func (s glyphSink) DrawGlyph(tex brine2d.Texture, src, dst brine2d.Rect, c brine2d.Color) {
	s.r.DrawTextureRegion(tex, src, dst, 0, c)
}

func (s glyphSink) FillRect(dst brine2d.Rect, c brine2d.Color) {
	s.r.DrawRectangleFilled(dst, c)
}

// SetDefaultFont implements brine2d.Renderer.
func (r *Renderer) SetDefaultFont(f brine2d.Font) { r.font = f }

func (r *Renderer) defaultFont() (brine2d.Font, error) {
	if r.font != nil {
		return r.font, nil
	}
	a, err := fontatlas.FromConfig(r.cfg.Font)
	if err != nil {
		return nil, err
	}
	if err := a.Upload(r); err != nil {
		return nil, err
	}
	r.font = a
	return a, nil
}

// DrawText implements brine2d.Renderer.
func (r *Renderer) DrawText(s string, x, y float32, c brine2d.Color) {
	opts := brine2d.DefaultTextOptions()
	opts.Color = c
	r.DrawTextWithOptions(s, x, y, opts)
}

// DrawTextWithOptions implements brine2d.Renderer.
func (r *Renderer) DrawTextWithOptions(s string, x, y float32, opts brine2d.TextRenderOptions) {
	if !r.drawing() || s == "" {
		return
	}
	f, err := r.defaultFont()
	if err != nil {
		r.fail(err)
		return
	}
	if err := text.Draw(glyphSink{r}, f, s, x, y, opts); err != nil {
		r.fail(err)
	}
}

// MeasureText implements brine2d.Renderer.
func (r *Renderer) MeasureText(s string, opts brine2d.TextRenderOptions) (w, h float32) {
	f, err := r.defaultFont()
	if err != nil {
		brine2d.Logger().Warn("immediate: measure without font", "err", err)
		return 0, 0
	}
	return text.Measure(f, s, opts)
}
