package brine2d

// Camera maps world coordinates to screen pixels. Renderers pass every
// emitted vertex through WorldToScreen; a nil Camera means identity.
type Camera interface {
	WorldToScreen(x, y float32) (float32, float32)
}

// Camera2D is a basic orthographic camera: it centres Position in a
// viewport of the given size, scaled by Zoom and rotated by Rotation
// (radians, clockwise on screen).
type Camera2D struct {
	X, Y     float32
	Zoom     float32
	Rotation float32

	ViewportWidth, ViewportHeight float32
}

// NewCamera2D returns a camera looking at the centre of a viewport.
func NewCamera2D(viewportW, viewportH float32) *Camera2D {
	return &Camera2D{
		X:              viewportW / 2,
		Y:              viewportH / 2,
		Zoom:           1,
		ViewportWidth:  viewportW,
		ViewportHeight: viewportH,
	}
}

// Matrix returns the world-to-screen transform.
func (c *Camera2D) Matrix() Matrix {
	zoom := float64(c.Zoom)
	if zoom == 0 {
		zoom = 1
	}
	m := Translate(float64(c.ViewportWidth)/2, float64(c.ViewportHeight)/2)
	m = m.Multiply(Rotate(float64(c.Rotation)))
	m = m.Multiply(Scale(zoom, zoom))
	return m.Multiply(Translate(-float64(c.X), -float64(c.Y)))
}

// WorldToScreen implements Camera.
func (c *Camera2D) WorldToScreen(x, y float32) (float32, float32) {
	sx, sy := c.Matrix().Apply(float64(x), float64(y))
	return float32(sx), float32(sy)
}

// ScreenToWorld is the inverse of WorldToScreen.
func (c *Camera2D) ScreenToWorld(x, y float32) (float32, float32) {
	wx, wy := c.Matrix().Invert().Apply(float64(x), float64(y))
	return float32(wx), float32(wy)
}

// MatrixCamera adapts a fixed Matrix to the Camera interface.
type MatrixCamera Matrix

// WorldToScreen implements Camera.
func (m MatrixCamera) WorldToScreen(x, y float32) (float32, float32) {
	sx, sy := Matrix(m).Apply(float64(x), float64(y))
	return float32(sx), float32(sy)
}
