package shader

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"

	"github.com/CrazyPickleStudios/brine2d"
	"github.com/CrazyPickleStudios/brine2d/gfx"
)

// Toolchain compiles WGSL into backend formats. It is a process-wide
// service: Init brings it up once, Shutdown tears it down.
type Toolchain struct {
	mu          sync.Mutex
	initialized bool
	transpiler  Transpiler
	cache       map[cacheKey]gfx.ShaderCode
	hits        uint64
	misses      uint64
}

type cacheKey struct {
	source string
	format gfx.ShaderFormat
}

var toolchain Toolchain

// ToolchainOption configures Init.
type ToolchainOption func(*Toolchain)

// WithTranspiler sets the SPIR-V transpiler used when naga cannot emit a
// format directly. The default probes for spirv-cross on PATH.
func WithTranspiler(t Transpiler) ToolchainOption {
	return func(tc *Toolchain) { tc.transpiler = t }
}

// Init initializes the shared toolchain. Calling Init again while
// initialized is a no-op.
func Init(opts ...ToolchainOption) error {
	toolchain.mu.Lock()
	defer toolchain.mu.Unlock()
	if toolchain.initialized {
		return nil
	}
	toolchain.transpiler = nil
	for _, o := range opts {
		o(&toolchain)
	}
	if toolchain.transpiler == nil {
		if sc, err := FindSPIRVCross(); err == nil {
			toolchain.transpiler = sc
		} else {
			brine2d.Logger().Debug("shader: spirv-cross not found", "err", err)
		}
	}
	toolchain.cache = make(map[cacheKey]gfx.ShaderCode)
	toolchain.hits, toolchain.misses = 0, 0
	toolchain.initialized = true
	brine2d.Logger().Debug("shader: toolchain initialized", "transpiler", toolchain.transpiler != nil)
	return nil
}

// Shutdown releases the toolchain. Compile fails with ErrNotInitialized
// until the next Init.
func Shutdown() {
	toolchain.mu.Lock()
	defer toolchain.mu.Unlock()
	toolchain.initialized = false
	toolchain.cache = nil
	toolchain.transpiler = nil
}

// Initialized reports whether Init has been called without a matching
// Shutdown.
func Initialized() bool {
	toolchain.mu.Lock()
	defer toolchain.mu.Unlock()
	return toolchain.initialized
}

// Default returns the shared toolchain.
func Default() *Toolchain { return &toolchain }

// Stats returns compile cache hits and misses.
func (tc *Toolchain) Stats() (hits, misses uint64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.hits, tc.misses
}

// Compile translates WGSL source to format. Results are cached by source
// text and format.
func (tc *Toolchain) Compile(ctx context.Context, wgsl string, format gfx.ShaderFormat) (gfx.ShaderCode, error) {
	tc.mu.Lock()
	if !tc.initialized {
		tc.mu.Unlock()
		return gfx.ShaderCode{}, ErrNotInitialized
	}
	key := cacheKey{source: wgsl, format: format}
	if code, ok := tc.cache[key]; ok {
		tc.hits++
		tc.mu.Unlock()
		return code, nil
	}
	tc.misses++
	transpiler := tc.transpiler
	tc.mu.Unlock()

	code, err := compile(ctx, wgsl, format, transpiler)
	if err != nil {
		return gfx.ShaderCode{}, err
	}

	tc.mu.Lock()
	if tc.cache != nil {
		tc.cache[key] = code
	}
	tc.mu.Unlock()
	return code, nil
}

func compile(ctx context.Context, src string, format gfx.ShaderFormat, tr Transpiler) (gfx.ShaderCode, error) {
	switch format {
	case gfx.ShaderWGSL:
		return gfx.ShaderCode{Format: format, Code: []byte(src)}, nil
	case gfx.ShaderSPIRV:
		spv, err := naga.Compile(src)
		if err != nil {
			return gfx.ShaderCode{}, fmt.Errorf("compile wgsl to spir-v: %w", err)
		}
		return gfx.ShaderCode{Format: format, Code: spv}, nil
	}

	module, err := lower(src)
	if err != nil {
		return gfx.ShaderCode{}, err
	}
	code, direct := compileDirect(module, format)
	if direct == nil {
		return code, nil
	}
	if tr == nil {
		return gfx.ShaderCode{}, fmt.Errorf("%w: naga %s backend failed: %w", ErrNoTranspiler, format, direct)
	}

	brine2d.Logger().Debug("shader: falling back to spir-v transpiler", "format", format, "err", direct)
	spv, err := naga.Compile(src)
	if err != nil {
		return gfx.ShaderCode{}, fmt.Errorf("compile wgsl to spir-v: %w", err)
	}
	return transpileAll(ctx, tr, spv, module, format)
}

func lower(src string) (*ir.Module, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse wgsl: %w", err)
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, fmt.Errorf("lower wgsl: %w", err)
	}
	return module, nil
}

func compileDirect(module *ir.Module, format gfx.ShaderFormat) (gfx.ShaderCode, error) {
	switch format {
	case gfx.ShaderMSL:
		out, _, err := msl.Compile(module, msl.DefaultOptions())
		if err != nil {
			return gfx.ShaderCode{}, err
		}
		return gfx.ShaderCode{Format: format, Code: []byte(out)}, nil
	case gfx.ShaderHLSL:
		out, _, err := hlsl.Compile(module, hlsl.DefaultOptions())
		if err != nil {
			return gfx.ShaderCode{}, err
		}
		return gfx.ShaderCode{Format: format, Code: []byte(out)}, nil
	case gfx.ShaderGLSL:
		stages := make(map[string][]byte, len(module.EntryPoints))
		for _, ep := range module.EntryPoints {
			opts := glsl.DefaultOptions()
			opts.EntryPoint = ep.Name
			out, _, err := glsl.Compile(module, opts)
			if err != nil {
				return gfx.ShaderCode{}, fmt.Errorf("entry point %s: %w", ep.Name, err)
			}
			stages[ep.Name] = []byte(out)
		}
		return gfx.ShaderCode{Format: format, Stages: stages}, nil
	}
	return gfx.ShaderCode{}, fmt.Errorf("unsupported shader format %s", format)
}

func transpileAll(ctx context.Context, tr Transpiler, spv []byte, module *ir.Module, format gfx.ShaderFormat) (gfx.ShaderCode, error) {
	if format != gfx.ShaderGLSL {
		out, err := tr.Transpile(ctx, spv, format, "")
		if err != nil {
			return gfx.ShaderCode{}, err
		}
		return gfx.ShaderCode{Format: format, Code: out}, nil
	}
	stages := make(map[string][]byte, len(module.EntryPoints))
	for _, ep := range module.EntryPoints {
		out, err := tr.Transpile(ctx, spv, format, ep.Name)
		if err != nil {
			return gfx.ShaderCode{}, fmt.Errorf("entry point %s: %w", ep.Name, err)
		}
		stages[ep.Name] = out
	}
	return gfx.ShaderCode{Format: format, Stages: stages}, nil
}

// SPIRVWords converts little-endian SPIR-V bytes to 32-bit words.
func SPIRVWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}
