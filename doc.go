// Package brine2d is a batched 2D rendering engine.
//
// # Overview
//
// Game code issues immediate-mode draw calls (textured quads, rectangles,
// circles, lines, text) between BeginFrame and EndFrame. The GPU renderer
// accumulates them into vertex batches and submits the smallest number of
// draw calls that preserves paint order: a batch is flushed only when it is
// full, or when the texture, blend mode, render target or scissor changes.
//
// # Quick Start
//
//	import (
//	    "github.com/CrazyPickleStudios/brine2d"
//	    _ "github.com/CrazyPickleStudios/brine2d/batch"     // "gpu"
//	    _ "github.com/CrazyPickleStudios/brine2d/immediate" // "immediate"
//	)
//
//	cfg := brine2d.DefaultConfig()
//	r, err := brine2d.NewRenderer(cfg, brine2d.Host{Device: dev})
//	...
//	r.BeginFrame()
//	r.DrawRectangleFilled(brine2d.R(10, 10, 100, 50), brine2d.Red)
//	r.DrawText("Hello", 10, 80, brine2d.White)
//	r.EndFrame()
//
// # Architecture
//
// The library is organized into:
//   - Public API: Renderer, Config, Color, Rect, BlendMode, Camera
//   - batch: the GPU renderer (batching, pipeline cache, target stacks)
//   - immediate: a software renderer onto an *image.RGBA
//   - gfx: the graphics device contract; backend/wgpu implements it on
//     the wgpu HAL, gfx/gfxtest records calls for tests
//   - fontatlas: glyph rasterization and atlas packing
//   - text: markup parsing and text layout
//   - shader: shader format resolution and compilation
package brine2d
