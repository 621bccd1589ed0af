package shader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/CrazyPickleStudios/brine2d/gfx"
)

// Transpiler converts SPIR-V into another shader format. entry selects a
// single entry point for per-stage formats and is empty otherwise.
type Transpiler interface {
	Transpile(ctx context.Context, spirv []byte, format gfx.ShaderFormat, entry string) ([]byte, error)
}

// SPIRVCross runs the spirv-cross command line tool.
type SPIRVCross struct {
	Path string
}

// FindSPIRVCross locates spirv-cross on PATH.
func FindSPIRVCross() (*SPIRVCross, error) {
	p, err := exec.LookPath("spirv-cross")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTranspiler, err)
	}
	return &SPIRVCross{Path: p}, nil
}

// Args returns the spirv-cross arguments for a conversion.
func (s *SPIRVCross) Args(input string, format gfx.ShaderFormat, entry string) ([]string, error) {
	args := []string{input}
	switch format {
	case gfx.ShaderMSL:
		args = append(args, "--msl")
	case gfx.ShaderHLSL:
		args = append(args, "--hlsl", "--shader-model", "50")
	case gfx.ShaderGLSL:
		args = append(args, "--version", "330", "--no-es")
	default:
		return nil, fmt.Errorf("spirv-cross cannot produce %s", format)
	}
	if entry != "" {
		args = append(args, "--entry", entry)
	}
	return args, nil
}

// Transpile implements Transpiler.
func (s *SPIRVCross) Transpile(ctx context.Context, spirv []byte, format gfx.ShaderFormat, entry string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "brine2d-spirv")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "shader.spv")
	if err := os.WriteFile(input, spirv, 0o600); err != nil {
		return nil, err
	}
	args, err := s.Args(input, format, entry)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("spirv-cross: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}
