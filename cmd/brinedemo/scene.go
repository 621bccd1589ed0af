package main

import (
	"image"
	"image/color"
	"math"

	"github.com/CrazyPickleStudios/brine2d"
)

// sheetRegions names the cells of the generated sprite sheet.
const sheetRegions = `
checker: [0, 0, 32, 32]
stripes: [32, 0, 32, 32]
dot:     [64, 0, 32, 32]
`

type scene struct {
	cfg    brine2d.Config
	sheet  *brine2d.TextureAtlas
	target brine2d.RenderTarget
	camera *brine2d.Camera2D
}

func newScene(r brine2d.Renderer, cfg brine2d.Config) (*scene, error) {
	tex, err := r.CreateTextureFromImage(spriteSheet(), brine2d.FilterNearest)
	if err != nil {
		return nil, err
	}
	sheet := brine2d.NewTextureAtlas(tex)
	if err := sheet.LoadRegions([]byte(sheetRegions)); err != nil {
		r.ReleaseTexture(tex)
		return nil, err
	}
	rt, err := r.CreateRenderTarget(128, 128, cfg.DefaultFilter)
	if err != nil {
		r.ReleaseTexture(tex)
		return nil, err
	}
	rt.SetClearColor(brine2d.RGBA8(20, 24, 40, 255))
	return &scene{
		cfg:    cfg,
		sheet:  sheet,
		target: rt,
		camera: brine2d.NewCamera2D(float32(cfg.Width), float32(cfg.Height)),
	}, nil
}

func (s *scene) release(r brine2d.Renderer) {
	s.target.Release()
	r.ReleaseTexture(s.sheet.Texture())
}

// draw paints one frame. Frame advances the animated parts.
func (s *scene) draw(r brine2d.Renderer, frame int) {
	w, h := float32(s.cfg.Width), float32(s.cfg.Height)
	t := float32(frame) / 60

	// Off-screen: a small orbit rendered once per frame into the target.
	r.PushRenderTarget(s.target)
	r.DrawCircleFilled(64, 64, 20, brine2d.Orange)
	for i := range 6 {
		a := t + float32(i)*math.Pi/3
		x := 64 + 44*float32(math.Cos(float64(a)))
		y := 64 + 44*float32(math.Sin(float64(a)))
		r.DrawCircleFilled(x, y, 8, brine2d.Cyan)
	}
	r.DrawCircleOutline(64, 64, 44, brine2d.White.WithAlpha(0.4), 2)
	r.PopRenderTarget()

	// Background gradient as horizontal bands.
	const bands = 32
	for i := range bands {
		k := float32(i) / bands
		c := brine2d.RGB(0.1+k*0.3, 0.15+k*0.2, 0.3+k*0.2)
		r.DrawRectangleFilled(brine2d.R(0, h*k, w, h/bands+1), c)
	}

	// Sprites from the sheet.
	for i, name := range s.sheet.Names() {
		x := 40 + float32(i)*80
		s.sheet.Draw(r, name, brine2d.R(x, 40, 64, 64), 0, brine2d.White)
		s.sheet.Draw(r, name, brine2d.R(x, 120, 64, 64), t+float32(i), brine2d.RGB(1, 0.8, 0.8))
	}

	// Blend modes over a white strip.
	r.DrawRectangleFilled(brine2d.R(40, 220, 320, 60), brine2d.White)
	for i, m := range brine2d.BlendModes {
		r.SetBlendMode(m)
		r.DrawRectangleFilled(brine2d.R(50+float32(i)*75, 230, 60, 40), brine2d.Blue.WithAlpha(0.5))
	}
	r.SetBlendMode(brine2d.BlendAlpha)

	// Scissored lines.
	clip := brine2d.R(400, 40, 200, 140)
	r.DrawRectangleOutline(clip, brine2d.Yellow, 1)
	r.PushScissorRect(&clip)
	for i := range 12 {
		x := 380 + float32(i)*24
		r.DrawLine(x, 20, x+60, 200, brine2d.Magenta, 3)
	}
	if err := r.PopScissorRect(); err != nil {
		brine2d.Logger().Warn("unbalanced scissor", "err", err)
	}

	// The render target, drawn twice at different sizes.
	r.DrawTexture(s.target.Texture(), 640, 40)
	r.DrawTextureSized(s.target.Texture(), brine2d.R(780, 40, 64, 64), brine2d.White.WithAlpha(0.7))

	// Text.
	opts := brine2d.DefaultTextOptions()
	opts.Markup = true
	opts.Shadow = &brine2d.TextShadow{OffsetX: 2, OffsetY: 2, Color: brine2d.Black.WithAlpha(0.6)}
	r.DrawTextWithOptions("[b]brine2d[/b] [color=#ffcc00]batched[/color] [u]2D[/u] rendering", 40, 310, opts)

	box := brine2d.DefaultTextOptions()
	box.MaxWidth = 260
	box.HAlign = brine2d.AlignCenter
	box.Color = brine2d.RGB(0.9, 0.9, 1)
	msg := "Text wraps inside a box and is centred on each line."
	bw, bh := r.MeasureText(msg, box)
	r.DrawRectangleOutline(brine2d.R(40, 350, bw, bh), brine2d.Gray, 1)
	r.DrawTextWithOptions(msg, 40, 350, box)

	// World-space markers through a rotating, zoomed camera.
	s.camera.Rotation = t / 4
	s.camera.Zoom = 1.5
	r.SetCamera(s.camera)
	for i := range 5 {
		x := s.camera.X - 80 + float32(i)*40
		r.DrawCircleFilled(x, s.camera.Y+120, 10, brine2d.Green.WithAlpha(0.8))
	}
	r.SetCamera(nil)
}

// spriteSheet generates three 32x32 cells: a checkerboard, diagonal
// stripes and a soft dot.
func spriteSheet() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 96, 32))
	for y := range 32 {
		for x := range 32 {
			if (x/8+y/8)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{230, 230, 230, 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{60, 60, 70, 255})
			}
			if (x+y)/6%2 == 0 {
				img.SetNRGBA(32+x, y, color.NRGBA{240, 80, 80, 255})
			} else {
				img.SetNRGBA(32+x, y, color.NRGBA{250, 220, 90, 255})
			}
			dx, dy := float64(x)-15.5, float64(y)-15.5
			d := math.Sqrt(dx*dx+dy*dy) / 16
			a := uint8(255 * math.Max(0, 1-d*d))
			img.SetNRGBA(64+x, y, color.NRGBA{120, 200, 255, a})
		}
	}
	return img
}
