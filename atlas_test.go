package brine2d

import "testing"

type fakeTexture struct{ w, h int }

func (t fakeTexture) Width() int     { return t.w }
func (t fakeTexture) Height() int    { return t.h }
func (t fakeTexture) Filter() Filter { return FilterNearest }

// regionRecorder records DrawTextureRegion calls. Other Renderer methods
// are not implemented.
type regionRecorder struct {
	Renderer
	src, dst []Rect
}

func (r *regionRecorder) DrawTextureRegion(_ Texture, src, dst Rect, _ float32, _ Color) {
	r.src = append(r.src, src)
	r.dst = append(r.dst, dst)
}

func TestTextureAtlas_Regions(t *testing.T) {
	a := NewTextureAtlas(fakeTexture{64, 32})
	err := a.LoadRegions([]byte(`
idle: [0, 0, 32, 32]
run:  [32, 0, 32, 32]
`))
	if err != nil {
		t.Fatal(err)
	}
	a.Add("jump", R(0, 16, 16, 16))

	if names := a.Names(); len(names) != 3 || names[0] != "idle" || names[1] != "jump" || names[2] != "run" {
		t.Errorf("Names() = %v", names)
	}
	if r, ok := a.Region("run"); !ok || r != R(32, 0, 32, 32) {
		t.Errorf("Region(run) = %v, %v", r, ok)
	}
	if _, ok := a.Region("swim"); ok {
		t.Error("Region(swim) found")
	}
	if a.MustRegion("jump") != R(0, 16, 16, 16) {
		t.Error("MustRegion(jump) mismatch")
	}
}

func TestTextureAtlas_MustRegionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRegion did not panic")
		}
	}()
	NewTextureAtlas(fakeTexture{1, 1}).MustRegion("nope")
}

func TestTextureAtlas_LoadRegionsErrors(t *testing.T) {
	tests := map[string]string{
		"not a map":  "[1, 2]",
		"zero width": "a: [0, 0, 0, 4]",
		"no height":  "a: [0, 0, 4, -1]",
	}
	for name, in := range tests {
		if err := NewTextureAtlas(fakeTexture{1, 1}).LoadRegions([]byte(in)); err == nil {
			t.Errorf("%s: LoadRegions(%q) succeeded", name, in)
		}
	}
}

func TestTextureAtlas_Draw(t *testing.T) {
	a := NewTextureAtlas(fakeTexture{64, 64})
	a.Add("coin", R(8, 8, 16, 16))
	rec := &regionRecorder{}

	if !a.Draw(rec, "coin", R(100, 100, 32, 32), 0, White) {
		t.Fatal("Draw(coin) = false")
	}
	if a.Draw(rec, "gem", R(0, 0, 1, 1), 0, White) {
		t.Error("Draw(gem) = true")
	}
	if len(rec.src) != 1 || rec.src[0] != R(8, 8, 16, 16) || rec.dst[0] != R(100, 100, 32, 32) {
		t.Errorf("recorded src %v dst %v", rec.src, rec.dst)
	}
}
