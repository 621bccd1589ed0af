package brine2d

import "testing"

func TestRect_Intersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"overlap", R(0, 0, 10, 10), R(5, 5, 10, 10), R(5, 5, 5, 5)},
		{"contained", R(0, 0, 10, 10), R(2, 3, 4, 5), R(2, 3, 4, 5)},
		{"touching edges", R(0, 0, 10, 10), R(10, 0, 5, 5), Rect{}},
		{"disjoint", R(0, 0, 1, 1), R(5, 5, 1, 1), Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersect(tt.b); got != tt.want {
				t.Errorf("Intersect = %+v, want %+v", got, tt.want)
			}
			if got := tt.a.Overlaps(tt.b); got != !tt.want.Empty() {
				t.Errorf("Overlaps = %v", got)
			}
		})
	}
}

func TestRect_Union(t *testing.T) {
	if got := R(0, 0, 2, 2).Union(R(5, 1, 1, 4)); got != R(0, 0, 6, 5) {
		t.Errorf("Union = %+v", got)
	}
	if got := (Rect{}).Union(R(1, 1, 1, 1)); got != R(1, 1, 1, 1) {
		t.Errorf("Union with empty = %+v", got)
	}
	if got := R(1, 1, 1, 1).Union(R(9, 9, 0, 3)); got != R(1, 1, 1, 1) {
		t.Errorf("Union ignoring empty = %+v", got)
	}
}

func TestRect_Contains(t *testing.T) {
	r := R(10, 10, 5, 5)
	tests := []struct {
		x, y float32
		want bool
	}{
		{10, 10, true},
		{14.9, 14.9, true},
		{15, 12, false},
		{12, 15, false},
		{9.9, 12, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v", tt.x, tt.y, got)
		}
	}
	if r.Right() != 15 || r.Bottom() != 15 {
		t.Errorf("Right, Bottom = %v, %v", r.Right(), r.Bottom())
	}
}
