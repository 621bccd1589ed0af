package brine2d

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// TextureAtlas is a texture with named sub-rectangles (sprite sheets).
type TextureAtlas struct {
	tex     Texture
	regions map[string]Rect
}

// NewTextureAtlas returns an atlas over tex with no regions.
func NewTextureAtlas(tex Texture) *TextureAtlas {
	return &TextureAtlas{tex: tex, regions: make(map[string]Rect)}
}

// Texture returns the underlying texture.
func (a *TextureAtlas) Texture() Texture { return a.tex }

// Add registers or replaces a named region.
func (a *TextureAtlas) Add(name string, r Rect) {
	a.regions[name] = r
}

// Region returns the named region. A missing name is logged and reported
// through ok; it is not an error.
func (a *TextureAtlas) Region(name string) (r Rect, ok bool) {
	r, ok = a.regions[name]
	if !ok {
		Logger().Warn("brine2d: atlas region not found", "region", name)
	}
	return r, ok
}

// MustRegion is like Region but panics when the region is missing.
func (a *TextureAtlas) MustRegion(name string) Rect {
	r, ok := a.regions[name]
	if !ok {
		panic(fmt.Sprintf("brine2d: atlas region %q not found", name))
	}
	return r
}

// Names returns the region names, sorted.
func (a *TextureAtlas) Names() []string {
	names := make([]string, 0, len(a.regions))
	for n := range a.regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Draw draws a named region into dst. It returns false when the region
// does not exist.
func (a *TextureAtlas) Draw(r Renderer, name string, dst Rect, rotation float32, tint Color) bool {
	src, ok := a.Region(name)
	if !ok {
		return false
	}
	r.DrawTextureRegion(a.tex, src, dst, rotation, tint)
	return true
}

// LoadRegions decodes a YAML mapping of region name to [x, y, w, h]:
//
//	player_idle: [0, 0, 32, 32]
//	player_run:  [32, 0, 32, 32]
func (a *TextureAtlas) LoadRegions(data []byte) error {
	var raw map[string][4]float32
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("brine2d: parse atlas regions: %w", err)
	}
	for name, v := range raw {
		if v[2] <= 0 || v[3] <= 0 {
			return fmt.Errorf("brine2d: atlas region %q has no area", name)
		}
		a.regions[name] = Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}
	}
	return nil
}
