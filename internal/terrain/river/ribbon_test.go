package river

import (
	"testing"

	"github.com/Faultbox/terragen/pkg/math"
)

func TestBuildRibbon(t *testing.T) {
	path := &Path{Points: []Point{
		{Position: math.Vec3{X: 0, Y: 5, Z: 0}, Height: 5},
		{Position: math.Vec3{X: 2, Y: 4, Z: 0}, Height: 4},
		{Position: math.Vec3{X: 4, Y: 3, Z: 0}, Height: 3},
	}}
	r := BuildRibbon(path, 2, 0.5)

	if len(r.Vertices) != 8 || len(r.UVs) != 8 || len(r.Indices) != 12 {
		t.Fatalf("got %d vertices, %d uvs, %d indices", len(r.Vertices), len(r.UVs), len(r.Indices))
	}

	// First segment runs along +X at a slight descent; its side vertices sit
	// one unit either side of the centerline, half a unit below the bank.
	first := r.Vertices[0]
	if first.X > 0.3 || first.X < -0.3 || first.Z > -0.9 || first.Z < -1.01 {
		t.Errorf("left vertex of first segment at %v", first)
	}
	if d := r.Vertices[1].Y - 4.5; d > 0.2 || d < -0.2 {
		t.Errorf("water surface at %v, want about 4.5", r.Vertices[1].Y)
	}

	wantIdx := []int{0, 1, 2, 1, 3, 2, 4, 5, 6, 5, 7, 6}
	for i, v := range wantIdx {
		if r.Indices[i] != v {
			t.Errorf("index %d = %d, want %d", i, r.Indices[i], v)
		}
	}
	if r.UVs[2] != (UV{0, 0.5}) || r.UVs[7] != (UV{1, 1}) {
		t.Errorf("uvs %v", r.UVs)
	}
}

func TestBuildRibbonFlatSegment(t *testing.T) {
	path := &Path{Points: []Point{
		{Position: math.Vec3{X: 1, Z: 1}, Height: 2},
		{Position: math.Vec3{X: 1, Z: 5}, Height: 2},
	}}
	r := BuildRibbon(path, 4, 0)
	// Heading +Z, the perpendicular is -X.
	want := []math.Vec3{{X: 3, Y: 2, Z: 1}, {X: -1, Y: 2, Z: 1}, {X: 3, Y: 2, Z: 5}, {X: -1, Y: 2, Z: 5}}
	for i := range want {
		if r.Vertices[i] != want[i] {
			t.Errorf("vertex %d = %v, want %v", i, r.Vertices[i], want[i])
		}
	}
}

func TestBuildRibbonEmpty(t *testing.T) {
	if r := BuildRibbon(nil, 2, 0.4); r.Vertices != nil {
		t.Error("nil path produced geometry")
	}
	one := &Path{Points: []Point{{Height: 3}}}
	if r := BuildRibbon(one, 2, 0.4); len(r.Indices) != 0 {
		t.Error("single point produced geometry")
	}
}
