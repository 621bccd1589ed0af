package immediate

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"golang.org/x/image/math/f64"

	"github.com/CrazyPickleStudios/brine2d"
)

func newRenderer(t *testing.T, w, h int) *Renderer {
	t.Helper()
	cfg := brine2d.DefaultConfig()
	cfg.Backend = brine2d.BackendImmediate
	cfg.Width, cfg.Height = w, h
	r, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func frame(t *testing.T, r *Renderer, draw func()) {
	t.Helper()
	if err := r.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame() = %v", err)
	}
	draw()
	if err := r.EndFrame(); err != nil {
		t.Fatalf("EndFrame() = %v", err)
	}
}

func at(r *Renderer, x, y int) color.RGBA {
	return r.Canvas().RGBAAt(x, y)
}

var (
	red   = color.RGBA{255, 0, 0, 255}
	black = color.RGBA{0, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func TestFillRect(t *testing.T) {
	r := newRenderer(t, 16, 16)
	frame(t, r, func() {
		r.DrawRectangleFilled(brine2d.R(2, 2, 4, 4), brine2d.Red)
	})
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{2, 2, red},
		{5, 5, red},
		{1, 1, black},
		{6, 6, black},
		{15, 15, black},
	}
	for _, tt := range tests {
		if got := at(r, tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
	if s := r.Stats(); s.Draws != 1 || s.Pixels != 16 || s.Frames != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestEmptyFrameClearsCanvas(t *testing.T) {
	cfg := brine2d.DefaultConfig()
	cfg.Width, cfg.Height = 4, 4
	cfg.ClearColor = brine2d.Blue
	canvas := image.NewRGBA(image.Rect(0, 0, 4, 4))
	r, err := New(cfg, canvas)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	frame(t, r, func() {})
	if got := canvas.RGBAAt(3, 3); got != blue {
		t.Errorf("pixel = %v, want %v", got, blue)
	}
}

func TestBlendModes(t *testing.T) {
	tests := []struct {
		name string
		mode brine2d.BlendMode
		dst  brine2d.Color
		src  brine2d.Color
		want color.RGBA
	}{
		{"alpha", brine2d.BlendAlpha, brine2d.White, brine2d.Red.WithAlpha(0.5), color.RGBA{255, 127, 127, 255}},
		{"additive", brine2d.BlendAdditive, brine2d.Black, brine2d.Red.WithAlpha(0.5), color.RGBA{128, 0, 0, 255}},
		{"additive saturates", brine2d.BlendAdditive, brine2d.Yellow, brine2d.Red, color.RGBA{255, 255, 0, 255}},
		{"multiply", brine2d.BlendMultiply, brine2d.Yellow, brine2d.Red, color.RGBA{255, 0, 0, 255}},
		{"multiply keeps alpha", brine2d.BlendMultiply, brine2d.White, brine2d.Black, color.RGBA{0, 0, 0, 255}},
		{"none", brine2d.BlendNone, brine2d.White, brine2d.Transparent, color.RGBA{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRenderer(t, 4, 4)
			frame(t, r, func() {
				r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), tt.dst)
				r.SetBlendMode(tt.mode)
				r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), tt.src)
			})
			if got := at(r, 1, 1); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
			if r.BlendMode() != tt.mode {
				t.Errorf("BlendMode() = %v", r.BlendMode())
			}
		})
	}
}

func TestScissorClips(t *testing.T) {
	r := newRenderer(t, 16, 16)
	frame(t, r, func() {
		r.PushScissorRect(&brine2d.Rect{X: 0, Y: 0, W: 4, H: 16})
		r.DrawRectangleFilled(brine2d.R(0, 0, 16, 16), brine2d.Red)
		if got := r.Scissor(); got == nil || got.W != 4 {
			t.Errorf("Scissor() = %v", got)
		}
		if err := r.PopScissorRect(); err != nil {
			t.Errorf("PopScissorRect() = %v", err)
		}
		if err := r.PopScissorRect(); !errors.Is(err, brine2d.ErrScissorStackEmpty) {
			t.Errorf("PopScissorRect() on empty = %v", err)
		}
	})
	if got := at(r, 2, 8); got != red {
		t.Errorf("inside scissor = %v, want red", got)
	}
	if got := at(r, 8, 8); got != black {
		t.Errorf("outside scissor = %v, want black", got)
	}
}

func TestScissorOutsideTargetDrawsNothing(t *testing.T) {
	r := newRenderer(t, 8, 8)
	frame(t, r, func() {
		r.PushScissorRect(&brine2d.Rect{X: 20, Y: 20, W: 4, H: 4})
		r.DrawRectangleFilled(brine2d.R(0, 0, 8, 8), brine2d.Red)
		r.PopScissorRect()
	})
	if r.Stats().Draws != 0 {
		t.Errorf("Draws = %d, want 0", r.Stats().Draws)
	}
}

func TestRenderTarget(t *testing.T) {
	r := newRenderer(t, 16, 16)
	rt, err := r.CreateRenderTarget(8, 8, brine2d.FilterNearest)
	if err != nil {
		t.Fatal(err)
	}
	rt.SetClearColor(brine2d.Blue)
	frame(t, r, func() {
		r.PushRenderTarget(rt)
		r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.Red)
		if r.RenderTarget() != rt {
			t.Error("RenderTarget() is not the pushed target")
		}
		r.PopRenderTarget()
		r.PopRenderTarget() // empty: logged and ignored
		r.DrawTexture(rt.Texture(), 8, 8)
	})
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{9, 9, red},
		{14, 14, blue},
		{2, 2, black},
	}
	for _, tt := range tests {
		if got := at(r, tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestTextureTintAndRegion(t *testing.T) {
	r := newRenderer(t, 8, 8)
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{255, 255, 255, 255})
	img.SetRGBA(1, 0, red)
	tex, err := r.CreateTextureFromImage(img, brine2d.FilterNearest)
	if err != nil {
		t.Fatal(err)
	}
	frame(t, r, func() {
		r.DrawTextureRegion(tex, brine2d.R(0, 0, 1, 1), brine2d.R(0, 0, 4, 4), 0, brine2d.Green)
		r.DrawTextureRegion(tex, brine2d.R(1, 0, 1, 1), brine2d.R(4, 4, 4, 4), 0, brine2d.White)
	})
	if got := at(r, 1, 1); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("tinted white = %v, want green", got)
	}
	if got := at(r, 6, 6); got != red {
		t.Errorf("region = %v, want red", got)
	}
}

func TestTextureRegionOneToOne(t *testing.T) {
	r := newRenderer(t, 16, 16)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	texel := func(x, y int) color.RGBA {
		return color.RGBA{uint8(40 + x*50), uint8(40 + y*50), 200, 255}
	}
	for y := range 4 {
		for x := range 4 {
			img.SetRGBA(x, y, texel(x, y))
		}
	}
	tex, err := r.CreateTextureFromImage(img, brine2d.FilterNearest)
	if err != nil {
		t.Fatal(err)
	}
	frame(t, r, func() {
		r.DrawTextureRegion(tex, brine2d.R(1, 2, 2, 2), brine2d.R(5, 3, 2, 2), 0, brine2d.White)
	})
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{5, 3, texel(1, 2)},
		{6, 3, texel(2, 2)},
		{5, 4, texel(1, 3)},
		{6, 4, texel(2, 3)},
		{4, 3, black},
		{7, 4, black},
		{5, 2, black},
		{6, 5, black},
	}
	for _, tt := range tests {
		if got := at(r, tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestTranslation(t *testing.T) {
	tests := []struct {
		name string
		m    f64.Aff3
		want image.Point
		ok   bool
	}{
		{"whole", f64.Aff3{1, 0, 4, 0, 1, -2}, image.Pt(4, -2), true},
		{"identity", f64.Aff3{1, 0, 0, 0, 1, 0}, image.Point{}, true},
		{"fractional", f64.Aff3{1, 0, 4.5, 0, 1, 1}, image.Point{}, false},
		{"scaled", f64.Aff3{2, 0, 4, 0, 2, 1}, image.Point{}, false},
		{"rotated", f64.Aff3{0, -1, 4, 1, 0, 1}, image.Point{}, false},
	}
	for _, tt := range tests {
		got, ok := translation(tt.m)
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: translation() = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCameraTransforms(t *testing.T) {
	r := newRenderer(t, 16, 16)
	r.SetCamera(brine2d.MatrixCamera(brine2d.Translate(4, 0)))
	frame(t, r, func() {
		r.DrawRectangleFilled(brine2d.R(0, 0, 2, 2), brine2d.Red)
	})
	if got := at(r, 5, 1); got != red {
		t.Errorf("translated pixel = %v, want red", got)
	}
	if got := at(r, 1, 1); got != black {
		t.Errorf("origin pixel = %v, want black", got)
	}
}

func TestCircleHasNoSeams(t *testing.T) {
	r := newRenderer(t, 32, 32)
	frame(t, r, func() {
		r.DrawCircleFilled(16, 16, 10, brine2d.Red)
	})
	for x := 9; x <= 23; x++ {
		for _, y := range []int{12, 16, 20} {
			if got := at(r, x, y); got.R < 250 || got.G != 0 {
				t.Fatalf("pixel (%d,%d) = %v, want red", x, y, got)
			}
		}
	}
	if got := at(r, 1, 1); got != black {
		t.Errorf("corner = %v, want black", got)
	}
}

func TestPrimitivesTouchCanvas(t *testing.T) {
	tests := []struct {
		name         string
		draw         func(r *Renderer)
		hitX, hitY   int
		missX, missY int
	}{
		{"outline", func(r *Renderer) { r.DrawRectangleOutline(brine2d.R(2, 2, 12, 12), brine2d.Red, 2) }, 3, 8, 8, 8},
		{"ring", func(r *Renderer) { r.DrawCircleOutline(8, 8, 6, brine2d.Red, 2) }, 14, 8, 8, 8},
		{"line", func(r *Renderer) { r.DrawLine(0, 8, 16, 8, brine2d.Red, 2) }, 8, 8, 8, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRenderer(t, 16, 16)
			frame(t, r, func() { tt.draw(r) })
			if got := at(r, tt.hitX, tt.hitY); got.R == 0 {
				t.Errorf("pixel (%d,%d) = %v, want red coverage", tt.hitX, tt.hitY, got)
			}
			if got := at(r, tt.missX, tt.missY); got != black {
				t.Errorf("pixel (%d,%d) = %v, want black", tt.missX, tt.missY, got)
			}
		})
	}
}

func TestDrawsOutsideFrameIgnored(t *testing.T) {
	r := newRenderer(t, 4, 4)
	r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.Red)
	if got := at(r, 1, 1); got != (color.RGBA{}) {
		t.Errorf("pixel = %v, want untouched", got)
	}
	if err := r.EndFrame(); !errors.Is(err, brine2d.ErrNotInFrame) {
		t.Errorf("EndFrame() = %v, want ErrNotInFrame", err)
	}
	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := r.BeginFrame(); !errors.Is(err, ErrFrameInProgress) {
		t.Errorf("second BeginFrame() = %v", err)
	}
	r.EndFrame()
	r.Close()
	if err := r.BeginFrame(); !errors.Is(err, brine2d.ErrClosed) {
		t.Errorf("BeginFrame after Close = %v", err)
	}
}

type strangeTexture struct{}

func (strangeTexture) Width() int             { return 1 }
func (strangeTexture) Height() int            { return 1 }
func (strangeTexture) Filter() brine2d.Filter { return brine2d.FilterLinear }

func TestTextureErrorsFailFrame(t *testing.T) {
	r := newRenderer(t, 4, 4)
	other := newRenderer(t, 4, 4)
	foreign, _ := other.CreateBlankTexture(1, 1, brine2d.FilterLinear)
	released, _ := r.CreateBlankTexture(1, 1, brine2d.FilterLinear)
	r.ReleaseTexture(released)

	tests := []struct {
		name string
		tex  brine2d.Texture
		want error
	}{
		{"stranger", strangeTexture{}, brine2d.ErrForeignTexture},
		{"other renderer", foreign, brine2d.ErrForeignTexture},
		{"released", released, errReleased},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.BeginFrame(); err != nil {
				t.Fatal(err)
			}
			r.DrawTexture(tt.tex, 0, 0)
			if err := r.EndFrame(); !errors.Is(err, tt.want) {
				t.Errorf("EndFrame() = %v, want %v", err, tt.want)
			}
		})
	}
	if released.Width() != 1 {
		t.Errorf("released texture lost its size")
	}
}

func TestText(t *testing.T) {
	r := newRenderer(t, 64, 32)
	frame(t, r, func() {
		r.DrawText("Hi", 2, 2, brine2d.White)
	})
	lit := 0
	b := r.Canvas().Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if at(r, x, y).R > 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("DrawText left the canvas empty")
	}
	w, h := r.MeasureText("Hi", brine2d.DefaultTextOptions())
	if w <= 0 || h <= 0 {
		t.Errorf("MeasureText = %v x %v", w, h)
	}
}

func TestAsync(t *testing.T) {
	r := newRenderer(t, 4, 4)
	done := make(chan error, 1)
	go func() {
		tex, err := r.Async().CreateBlankTexture(3, 2, brine2d.FilterNearest)
		if err == nil && tex.Width() != 3 {
			err = errors.New("wrong size")
		}
		done <- err
	}()
	deadline := time.Now().Add(5 * time.Second)
	for r.dispatch.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("async call never queued")
		}
		time.Sleep(time.Millisecond)
	}
	frame(t, r, func() {})
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestRegisteredAsImmediate(t *testing.T) {
	cfg := brine2d.DefaultConfig()
	cfg.Backend = brine2d.BackendImmediate
	cfg.Width, cfg.Height = 8, 8
	canvas := image.NewRGBA(image.Rect(0, 0, 8, 8))
	rr, err := brine2d.NewRenderer(cfg, brine2d.Host{Canvas: canvas})
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	defer rr.Close()
	r, ok := rr.(*Renderer)
	if !ok {
		t.Fatalf("NewRenderer() returned %T", rr)
	}
	if r.Canvas() != canvas {
		t.Error("host canvas not used")
	}
	if w, h := r.Size(); w != 8 || h != 8 {
		t.Errorf("Size() = %dx%d", w, h)
	}
}
