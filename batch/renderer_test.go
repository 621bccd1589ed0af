package batch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/fontatlas"
	"github.com/CrazyPickleStudios/brine2d/gfx"
	"github.com/CrazyPickleStudios/brine2d/gfx/gfxtest"
	"github.com/CrazyPickleStudios/brine2d/internal/vertex"
	"github.com/CrazyPickleStudios/brine2d/shader"
)

func testConfig(dev *gfxtest.Device) brine2d.Config {
	cfg := brine2d.DefaultConfig()
	cfg.Width, cfg.Height = dev.Width, dev.Height
	return cfg
}

func newRenderer(t *testing.T, dev *gfxtest.Device, mutate func(*brine2d.Config), opts ...Option) *Renderer {
	t.Helper()
	cfg := testConfig(dev)
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := New(dev, cfg, opts...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func blank(t *testing.T, r *Renderer, filter brine2d.Filter) *Texture {
	t.Helper()
	tex, err := r.CreateBlankTexture(4, 4, filter)
	if err != nil {
		t.Fatal(err)
	}
	return tex.(*Texture)
}

// frame runs draw between BeginFrame and EndFrame and returns the
// submitted frame.
func frame(t *testing.T, r *Renderer, dev *gfxtest.Device, draw func()) *gfxtest.Frame {
	t.Helper()
	if err := r.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame() = %v", err)
	}
	draw()
	if err := r.EndFrame(); err != nil {
		t.Fatalf("EndFrame() = %v", err)
	}
	return dev.LastFrame()
}

func capacity(n int) func(*brine2d.Config) {
	return func(c *brine2d.Config) { c.MaxBatchVertices = n }
}

func TestDrawCallsAreCeilOfCapacity(t *testing.T) {
	tests := []struct {
		quads, draws int
	}{
		{1, 1},
		{10, 1},
		{11, 2},
		{25, 3},
	}
	for _, tt := range tests {
		dev := gfxtest.New(64, 64)
		r := newRenderer(t, dev, capacity(60))
		tex := blank(t, r, brine2d.FilterLinear)

		f := frame(t, r, dev, func() {
			for i := range tt.quads {
				r.DrawTextureSized(tex, brine2d.R(float32(i), 0, 1, 1), brine2d.White)
			}
		})
		draws := f.Draws()
		if len(draws) != tt.draws {
			t.Errorf("%d quads: %d draws, want %d", tt.quads, len(draws), tt.draws)
		}
		var total uint32
		for _, d := range draws {
			if d.Count > 60 {
				t.Errorf("%d quads: draw of %d vertices exceeds capacity", tt.quads, d.Count)
			}
			total += d.Count
		}
		if int(total) != tt.quads*6 {
			t.Errorf("%d quads: drew %d vertices", tt.quads, total)
		}
		if got := r.Stats().Flushes[FlushCapacity]; got != tt.draws-1 {
			t.Errorf("%d quads: %d capacity flushes, want %d", tt.quads, got, tt.draws-1)
		}
	}
}

func TestSingleBatchFrameDrawsOnce(t *testing.T) {
	dev := gfxtest.New(64, 64)
	r := newRenderer(t, dev, nil)

	f := frame(t, r, dev, func() {
		r.DrawRectangleFilled(brine2d.R(2, 2, 8, 8), brine2d.Red)
	})

	draws := f.Draws()
	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}
	if draws[0].Count != 6 {
		t.Errorf("draw of %d vertices, want 6", draws[0].Count)
	}
	st := r.Stats()
	if st.DrawCalls != 1 || st.Flushes[FlushEndFrame] != 1 {
		t.Errorf("stats = %d draw calls, %d end-frame flushes; want 1 and 1",
			st.DrawCalls, st.Flushes[FlushEndFrame])
	}
}

func TestTenThousandQuadsKeepOrder(t *testing.T) {
	dev := gfxtest.New(256, 256)
	r := newRenderer(t, dev, capacity(6000))
	tex := blank(t, r, brine2d.FilterNearest)

	const n = 10000
	pos := func(i int) (float32, float32) { return float32(i % 200), float32(i / 200) }
	f := frame(t, r, dev, func() {
		for i := range n {
			x, y := pos(i)
			r.DrawTextureSized(tex, brine2d.R(x, y, 1, 1), brine2d.White)
		}
	})

	draws := f.Draws()
	if len(draws) != 10 {
		t.Fatalf("got %d draws, want 10", len(draws))
	}
	var verts []vertex.Vertex
	for _, d := range draws {
		if d.Count > 6000 {
			t.Fatalf("draw of %d vertices exceeds capacity", d.Count)
		}
		verts = append(verts, vertex.Decode(d.Vertices)...)
	}
	if len(verts) != n*6 {
		t.Fatalf("decoded %d vertices, want %d", len(verts), n*6)
	}
	for i := range n {
		x, y := pos(i)
		if v := verts[i*6]; v.X != x || v.Y != y {
			t.Fatalf("quad %d starts at (%v,%v), want (%v,%v)", i, v.X, v.Y, x, y)
		}
	}
}

func TestTextureChangeFlushes(t *testing.T) {
	dev := gfxtest.New(64, 64)
	r := newRenderer(t, dev, nil)
	a := blank(t, r, brine2d.FilterLinear)
	b := blank(t, r, brine2d.FilterNearest)

	f := frame(t, r, dev, func() {
		r.DrawTexture(a, 0, 0)
		r.DrawTexture(a, 4, 0)
		r.DrawTexture(b, 8, 0)
		r.DrawTexture(a, 12, 0)
	})

	want := []struct {
		tex    *Texture
		count  uint32
		filter gputypes.FilterMode
	}{
		{a, 12, gputypes.FilterModeLinear},
		{b, 6, gputypes.FilterModeNearest},
		{a, 6, gputypes.FilterModeLinear},
	}
	draws := f.Draws()
	if len(draws) != len(want) {
		t.Fatalf("got %d draws, want %d", len(draws), len(want))
	}
	for i, w := range want {
		d := draws[i]
		if d.Texture != w.tex.GPU() || d.Count != w.count || d.Sampler.Filter != w.filter {
			t.Errorf("draw %d = tex %v count %d filter %v, want tex %v count %d filter %v",
				i, d.Texture.Label(), d.Count, d.Sampler.Filter, w.tex.GPU().Label(), w.count, w.filter)
		}
	}
	if got := r.Stats().Flushes[FlushTexture]; got != 2 {
		t.Errorf("texture flushes = %d, want 2", got)
	}
}

func TestSetBlendModeTwiceFlushesOnce(t *testing.T) {
	dev := gfxtest.New(64, 64)
	r := newRenderer(t, dev, nil)

	f := frame(t, r, dev, func() {
		r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.Red)
		r.SetBlendMode(brine2d.BlendAdditive)
		r.SetBlendMode(brine2d.BlendAdditive)
		r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.Red)
	})

	draws := f.Draws()
	if len(draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(draws))
	}
	if got := r.Stats().Flushes[FlushBlend]; got != 1 {
		t.Errorf("blend flushes = %d, want 1", got)
	}
	if got := draws[1].Pipeline.Desc.Label; got != "sprite/additive" {
		t.Errorf("second draw pipeline = %q", got)
	}
	var additive int
	for _, p := range dev.Pipelines {
		if p.Desc.Label == "sprite/additive" {
			additive++
		}
	}
	if additive != 1 {
		t.Errorf("created %d additive pipelines, want 1", additive)
	}
	if r.BlendMode() != brine2d.BlendAdditive {
		t.Errorf("BlendMode() = %v", r.BlendMode())
	}
}

func TestBlendStates(t *testing.T) {
	if blendState(brine2d.BlendNone) != nil {
		t.Error("BlendNone should disable blending")
	}
	alpha := blendState(brine2d.BlendAlpha)
	if alpha.Color.SrcFactor != gputypes.BlendFactorSrcAlpha || alpha.Color.DstFactor != gputypes.BlendFactorOneMinusSrcAlpha {
		t.Errorf("alpha blend = %+v", alpha.Color)
	}
	add := blendState(brine2d.BlendAdditive)
	if add.Color.DstFactor != gputypes.BlendFactorOne {
		t.Errorf("additive blend = %+v", add.Color)
	}
	mul := blendState(brine2d.BlendMultiply)
	if mul.Color.SrcFactor != gputypes.BlendFactorDst || mul.Color.DstFactor != gputypes.BlendFactorZero {
		t.Errorf("multiply color = %+v", mul.Color)
	}
	if mul.Alpha.SrcFactor != gputypes.BlendFactorZero || mul.Alpha.DstFactor != gputypes.BlendFactorOne {
		t.Errorf("multiply must keep destination alpha: %+v", mul.Alpha)
	}
}

func TestPipelineFailureIsFatal(t *testing.T) {
	dev := gfxtest.New(64, 64)
	dev.FailPipelines = map[string]bool{"sprite/alpha": true}
	if _, err := New(dev, testConfig(dev)); err == nil || !strings.Contains(err.Error(), "alpha pipeline") {
		t.Fatalf("New() = %v, want alpha pipeline error", err)
	}

	dev = gfxtest.New(64, 64)
	dev.FailPipelines = map[string]bool{"sprite/additive": true}
	r := newRenderer(t, dev, nil)
	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	r.SetBlendMode(brine2d.BlendAdditive)
	r.DrawRectangleFilled(brine2d.R(0, 0, 1, 1), brine2d.White)
	if err := r.EndFrame(); err == nil {
		t.Fatal("EndFrame() = nil, want pipeline error")
	}
	if r.BlendMode() != brine2d.BlendAlpha {
		t.Errorf("BlendMode() = %v, want alpha after failed switch", r.BlendMode())
	}
	if len(dev.Frames) != 0 {
		t.Errorf("failed frame was submitted")
	}
}

func TestFirstFlushClearsEachDestination(t *testing.T) {
	dev := gfxtest.New(64, 64)
	r := newRenderer(t, dev, nil)
	rt, err := r.CreateRenderTarget(16, 16, brine2d.FilterLinear)
	if err != nil {
		t.Fatal(err)
	}
	rt.SetClearColor(brine2d.Blue)

	f := frame(t, r, dev, func() {
		r.PushRenderTarget(rt)
		r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.Red)
		r.PopRenderTarget()
		r.DrawTexture(rt.Texture(), 0, 0)
		r.PushRenderTarget(rt)
		r.DrawRectangleFilled(brine2d.R(4, 4, 4, 4), brine2d.Red)
		r.PopRenderTarget()
	})

	rtTex := rt.Texture().(*Texture).GPU()
	want := []struct {
		target gfx.Texture
		load   gputypes.LoadOp
	}{
		{rtTex, gputypes.LoadOpClear},
		{dev.Surface(), gputypes.LoadOpClear},
		{rtTex, gputypes.LoadOpLoad},
	}
	if len(f.Passes) != len(want) {
		t.Fatalf("got %d passes, want %d", len(f.Passes), len(want))
	}
	for i, w := range want {
		p := f.Passes[i]
		if p.Target != w.target {
			t.Errorf("pass %d target = %s", i, p.Target.Label())
		}
		if p.Load != w.load {
			t.Errorf("pass %d load = %v, want %v", i, p.Load, w.load)
		}
	}
	if c := f.Passes[0].Clear; c.B != 1 || c.R != 0 {
		t.Errorf("render target clear = %+v, want blue", c)
	}
	if c := f.Passes[1].Clear; c.A != 1 || c.R != 0 {
		t.Errorf("surface clear = %+v, want config black", c)
	}
	if got := r.Stats().Flushes[FlushTarget]; got != 3 {
		t.Errorf("target flushes = %d, want 3", got)
	}
}

func TestEmptyFrameClearsSurface(t *testing.T) {
	dev := gfxtest.New(32, 32)
	r := newRenderer(t, dev, nil)
	f := frame(t, r, dev, func() {})
	if len(f.Passes) != 1 || f.Passes[0].Load != gputypes.LoadOpClear || len(f.Passes[0].Draws) != 0 {
		t.Errorf("empty frame passes = %+v", f.Passes)
	}
	if !f.Presented {
		t.Error("frame not presented")
	}
}

func TestStackRoundTrip(t *testing.T) {
	dev := gfxtest.New(64, 64)
	r := newRenderer(t, dev, nil)
	rt, err := r.CreateRenderTarget(8, 8, brine2d.FilterLinear)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	defer r.EndFrame()

	base := brine2d.R(1, 2, 3, 4)
	r.PushScissorRect(&base)
	for _, n := range []int{0, 1, 5} {
		for i := range n {
			rect := brine2d.R(float32(i), 0, 10, 10)
			r.PushScissorRect(&rect)
			r.PushRenderTarget(rt)
		}
		for range n {
			r.PopRenderTarget()
			if err := r.PopScissorRect(); err != nil {
				t.Fatalf("n=%d: PopScissorRect() = %v", n, err)
			}
		}
		if s := r.Scissor(); s == nil || *s != base {
			t.Errorf("n=%d: scissor = %v, want %v", n, s, base)
		}
		if r.RenderTarget() != nil {
			t.Errorf("n=%d: render target not restored", n)
		}
	}

	if err := r.PopScissorRect(); err != nil {
		t.Fatal(err)
	}
	if err := r.PopScissorRect(); !errors.Is(err, brine2d.ErrScissorStackEmpty) {
		t.Errorf("PopScissorRect on empty stack = %v", err)
	}
	// An empty render target pop is only logged.
	r.PopRenderTarget()
}

func TestScissorIsClampedAndFlushes(t *testing.T) {
	dev := gfxtest.New(64, 64)
	r := newRenderer(t, dev, nil)

	f := frame(t, r, dev, func() {
		r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.White)
		clip := brine2d.R(10.5, 5, 20, 100)
		r.PushScissorRect(&clip)
		same := clip
		r.PushScissorRect(&same)
		r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.White)
		_ = r.PopScissorRect()
		_ = r.PopScissorRect()
	})

	draws := f.Draws()
	if len(draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(draws))
	}
	if draws[0].Scissor != nil {
		t.Errorf("first draw clipped: %v", *draws[0].Scissor)
	}
	if s := draws[1].Scissor; s == nil || *s != [4]uint32{11, 5, 20, 59} {
		t.Errorf("scissor = %v, want [11 5 20 59]", s)
	}
	if got := r.Stats().Flushes[FlushScissor]; got != 2 {
		t.Errorf("scissor flushes = %d, want 2", got)
	}
}

func TestScissorRectRoundsEveryEdge(t *testing.T) {
	tests := []struct {
		name string
		in   brine2d.Rect
		want [4]uint32
	}{
		{"whole pixels", brine2d.R(4, 6, 10, 12), [4]uint32{4, 6, 10, 12}},
		{"below half", brine2d.R(4.4, 6.4, 10, 12), [4]uint32{4, 6, 10, 12}},
		{"half", brine2d.R(4.5, 6.5, 10, 12), [4]uint32{5, 7, 10, 12}},
		{"above half", brine2d.R(4.6, 6.6, 10, 12), [4]uint32{5, 7, 10, 12}},
		{"clamped", brine2d.R(-5, -5, 200, 200), [4]uint32{0, 0, 64, 48}},
		{"outside", brine2d.R(100, 100, 5, 5), [4]uint32{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		x, y, w, h := scissorRect(tt.in, 64, 48)
		if got := [4]uint32{x, y, w, h}; got != tt.want {
			t.Errorf("%s: scissorRect(%v) = %v, want %v", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestSurfaceUnavailableSkipsFrame(t *testing.T) {
	dev := gfxtest.New(64, 64)
	r := newRenderer(t, dev, nil)
	dev.SurfaceUnavailable = true

	if err := r.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame() = %v", err)
	}
	r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.White)
	if err := r.EndFrame(); err != nil {
		t.Fatalf("EndFrame() = %v", err)
	}
	if len(dev.Frames) != 0 {
		t.Errorf("skipped frame recorded %d frames", len(dev.Frames))
	}
	if s := r.Stats(); s.SkippedFrames != 1 || s.DrawCalls != 0 {
		t.Errorf("stats = %+v", s)
	}

	dev.SurfaceUnavailable = false
	frame(t, r, dev, func() {})
	if len(dev.Frames) != 1 {
		t.Errorf("frame after recovery not submitted")
	}
}

func TestPostProcessingBlitsScene(t *testing.T) {
	dev := gfxtest.New(32, 32)
	r := newRenderer(t, dev, func(c *brine2d.Config) { c.PostProcessing = true })

	f := frame(t, r, dev, func() {
		r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.White)
	})
	if len(f.Passes) != 1 || f.Passes[0].Target.Label() != "scene" {
		t.Fatalf("scene pass missing: %+v", f.Passes)
	}
	if len(f.Blits) != 1 || f.Blits[0].Src.Label() != "scene" || f.Blits[0].Dst != dev.Surface() || f.Blits[0].Pipeline != nil {
		t.Fatalf("blits = %+v, want one plain copy scene->surface", f.Blits)
	}

	chain, err := NewEffectChain(context.Background(), r, shader.Blit, shader.Grayscale)
	if err != nil {
		t.Fatal(err)
	}
	r.SetPostProcessor(chain)
	f = frame(t, r, dev, func() {
		r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.White)
	})
	if len(f.Blits) != 2 {
		t.Fatalf("got %d blits, want 2", len(f.Blits))
	}
	first, second := f.Blits[0], f.Blits[1]
	if first.Src.Label() != "scene" || first.Dst.Label() != "scratch" || first.Pipeline.Desc.Label != "effect/blit" {
		t.Errorf("first effect = %s -> %s via %s", first.Src.Label(), first.Dst.Label(), first.Pipeline.Desc.Label)
	}
	if second.Src.Label() != "scratch" || second.Dst != dev.Surface() || second.Pipeline.Desc.Label != "effect/grayscale" {
		t.Errorf("second effect = %s -> %s", second.Src.Label(), second.Dst.Label())
	}
	if !first.Pipeline.Desc.Fullscreen {
		t.Error("effect pipeline is not fullscreen")
	}
}

func TestCameraTransformsVertices(t *testing.T) {
	dev := gfxtest.New(64, 64)
	r := newRenderer(t, dev, nil, WithCamera(brine2d.MatrixCamera(brine2d.Translate(10, 5))))

	f := frame(t, r, dev, func() {
		r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.White)
	})
	v := vertex.Decode(f.Draws()[0].Vertices)[0]
	if v.X != 10 || v.Y != 5 {
		t.Errorf("first vertex at (%v,%v), want (10,5)", v.X, v.Y)
	}
}

func TestPrimitiveVertexCounts(t *testing.T) {
	tests := []struct {
		name string
		draw func(r *Renderer)
		want uint32
	}{
		{"rect", func(r *Renderer) { r.DrawRectangleFilled(brine2d.R(0, 0, 4, 4), brine2d.White) }, 6},
		{"outline", func(r *Renderer) { r.DrawRectangleOutline(brine2d.R(0, 0, 10, 10), brine2d.White, 2) }, 24},
		{"circle", func(r *Renderer) { r.DrawCircleFilled(20, 20, 10, brine2d.White) }, 16 * 3},
		{"ring", func(r *Renderer) { r.DrawCircleOutline(20, 20, 10, brine2d.White, 2) }, 18 * 6},
		{"line", func(r *Renderer) { r.DrawLine(0, 0, 10, 10, brine2d.White, 1) }, 6},
		{"zero line", func(r *Renderer) { r.DrawLine(3, 3, 3, 3, brine2d.White, 1) }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := gfxtest.New(64, 64)
			r := newRenderer(t, dev, nil)
			f := frame(t, r, dev, func() { tt.draw(r) })
			var got uint32
			for _, d := range f.Draws() {
				got += d.Count
				if d.Texture != r.white.GPU() {
					t.Errorf("primitive drawn with %s", d.Texture.Label())
				}
			}
			if got != tt.want {
				t.Errorf("vertices = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDrawTextUsesFontTexture(t *testing.T) {
	dev := gfxtest.New(64, 64)
	r := newRenderer(t, dev, nil)
	a, err := fontatlas.Generate(fontatlas.DefaultFont(), fontatlas.Options{Size: 12, Charset: fontatlas.Charset("Hi")})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Upload(r); err != nil {
		t.Fatal(err)
	}
	r.SetDefaultFont(a)

	f := frame(t, r, dev, func() {
		r.DrawText("Hi", 2, 2, brine2d.Yellow)
	})
	draws := f.Draws()
	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}
	if draws[0].Texture != a.Texture().(*Texture).GPU() || draws[0].Count != 12 {
		t.Errorf("text draw = %s with %d vertices", draws[0].Texture.Label(), draws[0].Count)
	}
	if w, h := r.MeasureText("Hi", brine2d.DefaultTextOptions()); w <= 0 || h <= 0 {
		t.Errorf("MeasureText = %vx%v", w, h)
	}
}

func TestAsyncRunsAtBeginFrame(t *testing.T) {
	dev := gfxtest.New(64, 64)
	r := newRenderer(t, dev, nil)

	type result struct {
		tex brine2d.Texture
		err error
	}
	done := make(chan result, 1)
	go func() {
		tex, err := r.Async().CreateBlankTexture(8, 8, brine2d.FilterNearest)
		done <- result{tex, err}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for r.dispatch.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("async call never queued")
		}
		time.Sleep(time.Millisecond)
	}
	frame(t, r, dev, func() {})

	res := <-done
	if res.err != nil {
		t.Fatal(res.err)
	}
	if res.tex.Width() != 8 || res.tex.Filter() != brine2d.FilterNearest {
		t.Errorf("async texture = %dx%d %v", res.tex.Width(), res.tex.Height(), res.tex.Filter())
	}
}

type strangerTexture struct{}

func (strangerTexture) Width() int             { return 1 }
func (strangerTexture) Height() int            { return 1 }
func (strangerTexture) Filter() brine2d.Filter { return brine2d.FilterLinear }

func TestForeignTextureFailsFrame(t *testing.T) {
	dev := gfxtest.New(64, 64)
	r := newRenderer(t, dev, nil)
	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	r.DrawTexture(strangerTexture{}, 0, 0)
	if err := r.EndFrame(); !errors.Is(err, brine2d.ErrForeignTexture) {
		t.Errorf("EndFrame() = %v, want ErrForeignTexture", err)
	}
}

func TestFrameLifecycleErrors(t *testing.T) {
	dev := gfxtest.New(64, 64)
	cfg := testConfig(dev)
	r, err := New(dev, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.EndFrame(); !errors.Is(err, brine2d.ErrNotInFrame) {
		t.Errorf("EndFrame without BeginFrame = %v", err)
	}
	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := r.BeginFrame(); !errors.Is(err, ErrFrameInProgress) {
		t.Errorf("second BeginFrame = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if err := r.BeginFrame(); !errors.Is(err, brine2d.ErrClosed) {
		t.Errorf("BeginFrame after Close = %v", err)
	}
	if len(dev.Released) == 0 {
		t.Error("Close released nothing")
	}
}

func TestRegisteredAsGPUBackend(t *testing.T) {
	dev := gfxtest.New(64, 64)
	cfg := testConfig(dev)
	cfg.Backend = brine2d.BackendGPU

	rr, err := brine2d.NewRenderer(cfg, brine2d.Host{Device: dev})
	if err != nil {
		t.Fatal(err)
	}
	defer rr.Close()
	if _, ok := rr.(*Renderer); !ok {
		t.Errorf("NewRenderer returned %T", rr)
	}
	if _, err := brine2d.NewRenderer(cfg, brine2d.Host{}); err == nil {
		t.Error("NewRenderer without a device should fail")
	}
}
