// Package fontatlas rasterizes a charset of a TrueType/OpenType font into a
// single RGBA atlas texture with a rune-keyed glyph table.
package fontatlas

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Font is a parsed font file. Safe for concurrent use.
type Font = opentype.Font

// Loader opens fonts by name.
type Loader interface {
	Open(name string) (*Font, error)
}

// FSLoader loads fonts from a file system. Names ending in ".zst" are
// zstd-decompressed before parsing.
type FSLoader struct {
	FS fs.FS
}

// Open implements Loader.
func (l FSLoader) Open(name string) (*Font, error) {
	data, err := fs.ReadFile(l.FS, name)
	if err != nil {
		return nil, fmt.Errorf("fontatlas: read %s: %w", name, err)
	}
	if strings.HasSuffix(name, ".zst") {
		if data, err = decompress(data); err != nil {
			return nil, fmt.Errorf("fontatlas: decompress %s: %w", name, err)
		}
	}
	return Parse(data)
}

// Parse parses TTF or OTF data.
func Parse(data []byte) (*Font, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fontatlas: parse font: %w", err)
	}
	return f, nil
}

// DefaultFont returns the embedded Go Regular font.
func DefaultFont() *Font {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic("fontatlas: embedded font is invalid: " + err.Error())
	}
	return f
}

func decompress(b []byte) ([]byte, error) {
	zr, err := zstd.NewReader(bytes.NewReader(b), zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
