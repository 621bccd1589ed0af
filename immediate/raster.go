package immediate

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/internal/blend"
	"github.com/CrazyPickleStudios/brine2d/internal/vertex"
)

// ensureCleared fills dst with c unless it was already cleared or drawn
// to this frame.
func (r *Renderer) ensureCleared(dst *image.RGBA, c brine2d.Color) {
	if r.cleared[dst] {
		return
	}
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(c.NRGBA()), image.Point{}, xdraw.Src)
	r.cleared[dst] = true
}

// premul is a premultiplied 8-bit color.
type premul struct{ r, g, b, a uint8 }

func premulOf(c brine2d.Color) premul {
	n := c.NRGBA()
	return premul{blend.MulDiv255(n.R, n.A), blend.MulDiv255(n.G, n.A), blend.MulDiv255(n.B, n.A), n.A}
}

// drawTriangles rasterizes the triangles in verts and composites them
// with the current blend mode. Colors come from fill, or from the layer
// built by paint when one is given.
func (r *Renderer) drawTriangles(verts []vertex.Vertex, fill premul, paint func(layer *image.RGBA)) {
	if len(verts) < 3 {
		return
	}
	dst, clearColor := r.destination()
	area := r.coverage(verts, r.clip(dst))
	if area.Empty() {
		return
	}
	r.ensureCleared(dst, clearColor)

	var layer *image.RGBA
	if paint != nil {
		layer = r.scratchLayer(area)
		paint(layer)
	}
	composite(dst, area, &r.mask, layer, fill, r.blend)
	r.stats.Draws++
	r.stats.Pixels += area.Dx() * area.Dy()
}

// coverage rasterizes verts into r.mask and returns the destination
// rectangle the mask covers. The mask is origin-based: mask pixel (0, 0)
// is destination pixel area.Min.
func (r *Renderer) coverage(verts []vertex.Vertex, clip image.Rectangle) image.Rectangle {
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for _, v := range verts {
		minX, maxX = min(minX, v.X), max(maxX, v.X)
		minY, maxY = min(minY, v.Y), max(maxY, v.Y)
	}
	area := image.Rect(
		int(math.Floor(float64(minX))), int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX))), int(math.Ceil(float64(maxY))),
	).Intersect(clip)
	if area.Empty() {
		return image.Rectangle{}
	}

	w, h := area.Dx(), area.Dy()
	ox, oy := float32(area.Min.X), float32(area.Min.Y)
	r.raster.Reset(w, h)
	r.raster.DrawOp = xdraw.Src
	for i := 0; i+2 < len(verts); i += 3 {
		a, b, c := verts[i], verts[i+1], verts[i+2]
		cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
		if cross == 0 {
			continue
		}
		// One winding for every triangle, so shared edges add up to full
		// coverage instead of cancelling.
		if cross < 0 {
			b, c = c, b
		}
		r.raster.MoveTo(a.X-ox, a.Y-oy)
		r.raster.LineTo(b.X-ox, b.Y-oy)
		r.raster.LineTo(c.X-ox, c.Y-oy)
		r.raster.ClosePath()
	}

	n := w * h
	if cap(r.mask.Pix) < n {
		r.mask.Pix = make([]uint8, n)
	}
	r.mask.Pix = r.mask.Pix[:n]
	r.mask.Stride = w
	r.mask.Rect = image.Rect(0, 0, w, h)
	r.raster.Draw(&r.mask, r.mask.Rect, image.Opaque, image.Point{})
	return area
}

// scratchLayer returns a transparent RGBA image covering area.
func (r *Renderer) scratchLayer(area image.Rectangle) *image.RGBA {
	n := area.Dx() * area.Dy() * 4
	if cap(r.layer.Pix) < n {
		r.layer.Pix = make([]uint8, n)
	}
	r.layer.Pix = r.layer.Pix[:n]
	clear(r.layer.Pix)
	r.layer.Stride = area.Dx() * 4
	r.layer.Rect = area
	return &r.layer
}

// paintTexture returns a painter that maps the src pixels of tex onto the
// quad in verts (the six vertices emitted by vertex.Batch.AddQuadRotated)
// and applies tint.
func paintTexture(tex *Texture, src brine2d.Rect, quad []vertex.Vertex, tint brine2d.Color) func(*image.RGBA) {
	return func(layer *image.RGBA) {
		if src.W == 0 || src.H == 0 {
			return
		}
		// Corners TL, TR and BL of the quad.
		p0, p1, p3 := quad[0], quad[1], quad[5]
		ax, ay := float64(p1.X-p0.X)/float64(src.W), float64(p1.Y-p0.Y)/float64(src.W)
		bx, by := float64(p3.X-p0.X)/float64(src.H), float64(p3.Y-p0.Y)/float64(src.H)
		sx, sy := float64(src.X), float64(src.Y)
		m := f64.Aff3{
			ax, bx, float64(p0.X) - ax*sx - bx*sy,
			ay, by, float64(p0.Y) - ay*sx - by*sy,
		}
		sr := image.Rect(
			int(math.Floor(sx)), int(math.Floor(sy)),
			int(math.Ceil(float64(src.Right()))), int(math.Ceil(float64(src.Bottom()))),
		).Intersect(tex.img.Bounds())
		if d, ok := translation(m); ok {
			xdraw.Draw(layer, sr.Add(d), tex.img, sr.Min, xdraw.Src)
		} else {
			interpolator(tex.filter).Transform(layer, m, tex.img, sr, xdraw.Src, nil)
		}
		applyTint(layer, tint)
	}
}

// translation reports whether m only moves pixels by whole amounts, and
// by how much. Such maps are copied directly rather than going through
// Interpolator.Transform.
func translation(m f64.Aff3) (image.Point, bool) {
	if m[0] != 1 || m[1] != 0 || m[3] != 0 || m[4] != 1 {
		return image.Point{}, false
	}
	if m[2] != math.Trunc(m[2]) || m[5] != math.Trunc(m[5]) {
		return image.Point{}, false
	}
	return image.Pt(int(m[2]), int(m[5])), true
}

func interpolator(f brine2d.Filter) xdraw.Interpolator {
	if f == brine2d.FilterNearest {
		return xdraw.NearestNeighbor
	}
	return xdraw.ApproxBiLinear
}

// applyTint multiplies premultiplied pixels by a straight tint color.
func applyTint(img *image.RGBA, tint brine2d.Color) {
	if tint == brine2d.White {
		return
	}
	t := premulOf(tint)
	p := img.Pix
	for i := 0; i+3 < len(p); i += 4 {
		p[i] = blend.MulDiv255(p[i], t.r)
		p[i+1] = blend.MulDiv255(p[i+1], t.g)
		p[i+2] = blend.MulDiv255(p[i+2], t.b)
		p[i+3] = blend.MulDiv255(p[i+3], t.a)
	}
}

// composite blends the source (layer, or fill when layer is nil) through
// mask into dst over area. The source is scaled by mask coverage before
// blending, except for BlendNone, which interpolates between the
// destination and the source by coverage.
func composite(dst *image.RGBA, area image.Rectangle, mask *image.Alpha, layer *image.RGBA, fill premul, mode brine2d.BlendMode) {
	op := blend.For(mode)
	w := area.Dx()
	for y := area.Min.Y; y < area.Max.Y; y++ {
		mrow := mask.Pix[(y-area.Min.Y)*mask.Stride:]
		drow := dst.Pix[dst.PixOffset(area.Min.X, y):]
		var lrow []uint8
		if layer != nil {
			lrow = layer.Pix[layer.PixOffset(area.Min.X, y):]
		}
		for x := 0; x < w; x++ {
			m := mrow[x]
			if m == 0 {
				continue
			}
			s := fill
			if lrow != nil {
				l := lrow[x*4 : x*4+4 : x*4+4]
				s = premul{l[0], l[1], l[2], l[3]}
			}
			d := drow[x*4 : x*4+4 : x*4+4]
			if mode == brine2d.BlendNone {
				d[0], d[1], d[2], d[3] = blend.Lerp(s.r, s.g, s.b, s.a, d[0], d[1], d[2], d[3], m)
				continue
			}
			sr, sg, sb, sa := blend.Scale(s.r, s.g, s.b, s.a, m)
			d[0], d[1], d[2], d[3] = op(sr, sg, sb, sa, d[0], d[1], d[2], d[3])
		}
	}
}
