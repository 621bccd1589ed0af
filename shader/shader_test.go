package shader

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/CrazyPickleStudios/brine2d/gfx"
	"github.com/CrazyPickleStudios/brine2d/gfx/gfxtest"
)

func initToolchain(t *testing.T, opts ...ToolchainOption) {
	t.Helper()
	Shutdown()
	if err := Init(opts...); err != nil {
		t.Fatalf("Init() = %v", err)
	}
	t.Cleanup(Shutdown)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		backend gfx.Backend
		want    gfx.ShaderFormat
	}{
		{gfx.BackendVulkan, gfx.ShaderSPIRV},
		{gfx.BackendMetal, gfx.ShaderMSL},
		{gfx.BackendD3D12, gfx.ShaderHLSL},
		{gfx.BackendOpenGL, gfx.ShaderGLSL},
		{gfx.BackendWebGPU, gfx.ShaderWGSL},
		{gfx.BackendNoop, gfx.ShaderWGSL},
	}
	seen := map[gfx.ShaderFormat]gfx.Backend{}
	for _, tt := range tests {
		t.Run(tt.backend.String(), func(t *testing.T) {
			if got := FormatFor(tt.backend); got != tt.want {
				t.Errorf("FormatFor(%s) = %s, want %s", tt.backend, got, tt.want)
			}
		})
		if tt.want != gfx.ShaderWGSL {
			if prev, dup := seen[tt.want]; dup {
				t.Errorf("%s and %s share format %s", prev, tt.backend, tt.want)
			}
			seen[tt.want] = tt.backend
		}
	}
}

func TestResolvePrefersBundle(t *testing.T) {
	initToolchain(t)
	r := NewResolver(gfx.BackendVulkan)
	r.Bundle = fstest.MapFS{
		"spirv/sprite.spv": {Data: []byte{1, 2, 3, 4}},
	}

	code, err := r.Resolve(context.Background(), Sprite)
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	if code.Format != gfx.ShaderSPIRV || string(code.Code) != "\x01\x02\x03\x04" {
		t.Errorf("Resolve() = %+v, want bundled bytes", code)
	}
	if hits, misses := Default().Stats(); hits+misses != 0 {
		t.Errorf("toolchain used despite bundle: hits=%d misses=%d", hits, misses)
	}
}

func TestResolveWGSLPassthrough(t *testing.T) {
	initToolchain(t)
	r := NewResolver(gfx.BackendWebGPU)

	code, err := r.Resolve(context.Background(), Sprite)
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	if code.Format != gfx.ShaderWGSL || !strings.Contains(string(code.Code), "fn vs_main") {
		t.Errorf("unexpected WGSL code: %.60q", code.Code)
	}

	// Second resolve is served from the cache.
	if _, err := r.Resolve(context.Background(), Sprite); err != nil {
		t.Fatal(err)
	}
	if hits, _ := Default().Stats(); hits != 1 {
		t.Errorf("cache hits = %d, want 1", hits)
	}
}

func TestResolveCompilesSPIRV(t *testing.T) {
	initToolchain(t)
	r := NewResolver(gfx.BackendVulkan)

	code, err := r.Resolve(context.Background(), Blit)
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	words := SPIRVWords(code.Code)
	if len(words) == 0 || words[0] != 0x07230203 {
		t.Fatalf("missing SPIR-V magic, got %d words", len(words))
	}
}

func TestResolveNotFound(t *testing.T) {
	initToolchain(t)
	r := NewResolver(gfx.BackendVulkan)

	_, err := r.Resolve(context.Background(), "missing")
	var re *ResolveError
	if !errors.As(err, &re) {
		t.Fatalf("Resolve() error = %v, want *ResolveError", err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error %v does not wrap ErrNotFound", err)
	}
	if re.Backend != gfx.BackendVulkan || re.Format != gfx.ShaderSPIRV || re.Hint == "" {
		t.Errorf("diagnostics incomplete: %+v", re)
	}
}

func TestResolveBeforeInit(t *testing.T) {
	Shutdown()
	r := NewResolver(gfx.BackendWebGPU)
	_, err := r.Resolve(context.Background(), Sprite)
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Resolve() = %v, want ErrNotInitialized", err)
	}
	if !strings.Contains(err.Error(), "shader.Init") {
		t.Errorf("error lacks hint: %v", err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	initToolchain(t, WithTranspiler(&fakeTranspiler{}))
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	if !Initialized() {
		t.Fatal("Initialized() = false")
	}
	if _, ok := Default().transpiler.(*fakeTranspiler); !ok {
		t.Error("second Init replaced the configured transpiler")
	}
	Shutdown()
	if Initialized() {
		t.Error("Initialized() after Shutdown = true")
	}
}

type fakeTranspiler struct {
	entries []string
}

func (f *fakeTranspiler) Transpile(_ context.Context, spirv []byte, format gfx.ShaderFormat, entry string) ([]byte, error) {
	f.entries = append(f.entries, entry)
	return []byte(format.String() + ":" + entry), nil
}

func TestTranspileAllPerStage(t *testing.T) {
	module, err := lower(mustSource(t, Blit))
	if err != nil {
		t.Fatal(err)
	}
	fake := &fakeTranspiler{}
	code, err := transpileAll(context.Background(), fake, []byte{0}, module, gfx.ShaderGLSL)
	if err != nil {
		t.Fatal(err)
	}
	if string(code.Stages[VertexEntry]) != "glsl:vs_main" || string(code.Stages[FragmentEntry]) != "glsl:fs_main" {
		t.Errorf("stages = %q", code.Stages)
	}

	code, err = transpileAll(context.Background(), fake, []byte{0}, module, gfx.ShaderMSL)
	if err != nil {
		t.Fatal(err)
	}
	if string(code.Code) != "msl:" {
		t.Errorf("msl code = %q", code.Code)
	}
}

func TestSPIRVCrossArgs(t *testing.T) {
	sc := &SPIRVCross{Path: "spirv-cross"}
	args, err := sc.Args("in.spv", gfx.ShaderGLSL, "fs_main")
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(args, " ")
	if got != "in.spv --version 330 --no-es --entry fs_main" {
		t.Errorf("Args() = %q", got)
	}
	if _, err := sc.Args("in.spv", gfx.ShaderSPIRV, ""); err == nil {
		t.Error("Args(spirv) should fail")
	}
}

func TestCreateShaderWrapsDeviceError(t *testing.T) {
	initToolchain(t)
	dev := gfxtest.New(8, 8)
	dev.FailShaders = true

	_, err := CreateShader(context.Background(), dev, NewResolver(gfx.BackendWebGPU), Sprite)
	var re *ResolveError
	if !errors.As(err, &re) || re.Hint == "" {
		t.Fatalf("CreateShader() = %v, want *ResolveError with hint", err)
	}
}

func mustSource(t *testing.T, name string) string {
	t.Helper()
	b, err := sources.ReadFile("shaders/" + name + ".wgsl")
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
