package fontatlas

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/CrazyPickleStudios/brine2d"
)

// FromConfig builds the atlas described by cfg: the font at cfg.Path (the
// embedded Go Regular when empty) rasterized at cfg.Size.
func FromConfig(cfg brine2d.FontConfig) (*Atlas, error) {
	f := DefaultFont()
	if cfg.Path != "" {
		var err error
		f, err = FSLoader{FS: os.DirFS(filepath.Dir(cfg.Path))}.Open(filepath.Base(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("fontatlas: load %s: %w", cfg.Path, err)
		}
	}
	size := cfg.Size
	if size <= 0 {
		size = 16
	}
	opts := Options{Size: size, Filter: cfg.Filter}
	if cfg.Charset != "" {
		opts.Charset = Charset(cfg.Charset)
	}
	return Generate(f, opts)
}
