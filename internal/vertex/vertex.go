// Package vertex implements the CPU-side vertex batch: quads are expanded
// into triangle-list vertices, transformed to screen space, and snapped to
// whole pixels.
package vertex

import (
	"encoding/binary"
	"math"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/gfx"
)

// Size is the byte size of one encoded Vertex.
const Size = gfx.VertexStride

// PerQuad is the number of vertices emitted per quad (two triangles).
const PerQuad = 6

// Vertex is one corner of a triangle in screen pixels.
type Vertex struct {
	X, Y       float32
	R, G, B, A float32
	U, V       float32
}

// UV is a texture-coordinate rectangle in normalized [0, 1] space.
type UV struct {
	U0, V0, U1, V1 float32
}

// FullUV covers the whole texture.
var FullUV = UV{0, 0, 1, 1}

// RegionUV converts a pixel rectangle of a w x h texture to UV space.
func RegionUV(src brine2d.Rect, w, h int) UV {
	fw, fh := float32(w), float32(h)
	return UV{
		U0: src.X / fw,
		V0: src.Y / fh,
		U1: src.Right() / fw,
		V1: src.Bottom() / fh,
	}
}

// Batch accumulates vertices up to a fixed capacity. The zero value is
// not usable; call NewBatch.
type Batch struct {
	verts    []Vertex
	capacity int
	camera   brine2d.Camera
}

// NewBatch returns a batch holding up to capacity vertices. capacity is
// rounded down to a whole number of quads.
func NewBatch(capacity int) *Batch {
	capacity -= capacity % PerQuad
	if capacity < PerQuad {
		capacity = PerQuad
	}
	return &Batch{
		verts:    make([]Vertex, 0, capacity),
		capacity: capacity,
	}
}

// SetCamera sets the world-to-screen transform applied to added vertices.
// nil means identity.
func (b *Batch) SetCamera(c brine2d.Camera) { b.camera = c }

// Len returns the number of vertices in the batch.
func (b *Batch) Len() int { return len(b.verts) }

// Cap returns the batch capacity in vertices.
func (b *Batch) Cap() int { return b.capacity }

// Empty reports whether the batch holds no vertices.
func (b *Batch) Empty() bool { return len(b.verts) == 0 }

// Fits reports whether n more vertices fit without exceeding capacity.
func (b *Batch) Fits(n int) bool { return len(b.verts)+n <= b.capacity }

// Reset empties the batch, keeping its storage.
func (b *Batch) Reset() { b.verts = b.verts[:0] }

// Vertices returns the accumulated vertices. The slice aliases the batch
// and is valid until the next Add or Reset.
func (b *Batch) Vertices() []Vertex { return b.verts }

// AddQuad appends an axis-aligned quad. The caller must check Fits first.
func (b *Batch) AddQuad(dst brine2d.Rect, c brine2d.Color, uv UV) {
	b.AddQuadRotated(dst, c, uv, 0)
}

// AddQuadRotated appends a quad rotated by angle radians around its
// centre. Corners are rotated relative to the centre, translated, passed
// through the camera and rounded to the nearest pixel.
func (b *Batch) AddQuadRotated(dst brine2d.Rect, c brine2d.Color, uv UV, angle float32) {
	hw, hh := dst.W/2, dst.H/2
	cx, cy := dst.X+hw, dst.Y+hh

	// Corner offsets from the centre: TL, TR, BR, BL.
	corners := [4][2]float32{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	uvs := [4][2]float32{{uv.U0, uv.V0}, {uv.U1, uv.V0}, {uv.U1, uv.V1}, {uv.U0, uv.V1}}

	var sin, cos float32 = 0, 1
	if angle != 0 {
		s, co := math.Sincos(float64(angle))
		sin, cos = float32(s), float32(co)
	}

	var quad [4]Vertex
	for i, off := range corners {
		x := cx + off[0]*cos - off[1]*sin
		y := cy + off[0]*sin + off[1]*cos
		if b.camera != nil {
			x, y = b.camera.WorldToScreen(x, y)
		}
		quad[i] = Vertex{
			X: round(x), Y: round(y),
			R: c.R, G: c.G, B: c.B, A: c.A,
			U: uvs[i][0], V: uvs[i][1],
		}
	}

	b.verts = append(b.verts, quad[0], quad[1], quad[2], quad[0], quad[2], quad[3])
}

// AddTriangle appends one triangle. Used for primitives that are not
// quads (circle fans). Corners go through the camera and are rounded like
// quad corners.
func (b *Batch) AddTriangle(p [3][2]float32, c brine2d.Color, uv UV) {
	for _, pt := range p {
		x, y := pt[0], pt[1]
		if b.camera != nil {
			x, y = b.camera.WorldToScreen(x, y)
		}
		b.verts = append(b.verts, Vertex{
			X: round(x), Y: round(y),
			R: c.R, G: c.G, B: c.B, A: c.A,
			U: uv.U0, V: uv.V0,
		})
	}
}

// Encode writes the vertices in the gfx vertex layout into dst, growing it
// as needed, and returns the encoded bytes.
func Encode(dst []byte, verts []Vertex) []byte {
	n := len(verts) * Size
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, v := range verts {
		o := dst[i*Size:]
		putF32(o[0:], v.X)
		putF32(o[4:], v.Y)
		putF32(o[8:], v.R)
		putF32(o[12:], v.G)
		putF32(o[16:], v.B)
		putF32(o[20:], v.A)
		putF32(o[24:], v.U)
		putF32(o[28:], v.V)
	}
	return dst
}

// Decode is the inverse of Encode.
func Decode(data []byte) []Vertex {
	out := make([]Vertex, len(data)/Size)
	for i := range out {
		o := data[i*Size:]
		out[i] = Vertex{
			X: getF32(o[0:]), Y: getF32(o[4:]),
			R: getF32(o[8:]), G: getF32(o[12:]), B: getF32(o[16:]), A: getF32(o[20:]),
			U: getF32(o[24:]), V: getF32(o[28:]),
		}
	}
	return out
}

// CircleSegments picks a segment count for a circle of the given radius
// that keeps chords around 4px.
func CircleSegments(radius float32) int {
	n := int(math.Ceil(2 * math.Pi * float64(radius) / 4))
	return min(max(n, 12), 128)
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func getF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func round(v float32) float32 {
	return float32(math.Round(float64(v)))
}
