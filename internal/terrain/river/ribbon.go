package river

import "github.com/Faultbox/terragen/pkg/math"

// UV is a texture coordinate.
type UV struct {
	U float32 `json:"u"`
	V float32 `json:"v"`
}

// Ribbon is flat river surface geometry: one quad per path segment, laid
// WaterOffset below the pre-carve heights.
type Ribbon struct {
	Vertices []math.Vec3 `json:"vertices"`
	UVs      []UV        `json:"uvs"`
	Indices  []int       `json:"indices"`
}

// BuildRibbon returns the ribbon for a path, or an empty ribbon for paths
// with fewer than two points. Segments do not share vertices.
func BuildRibbon(p *Path, width, waterOffset float64) Ribbon {
	var r Ribbon
	if p == nil || p.Degenerate() {
		return r
	}
	n := len(p.Points)
	segments := n - 1
	r.Vertices = make([]math.Vec3, 0, segments*4)
	r.UVs = make([]UV, 0, segments*4)
	r.Indices = make([]int, 0, segments*6)

	half := float32(width) * 0.5
	step := 1 / float32(segments)
	for i := 0; i < segments; i++ {
		a := p.Points[i].Position.WithY(p.Points[i].Height - float32(waterOffset))
		b := p.Points[i+1].Position.WithY(p.Points[i+1].Height - float32(waterOffset))

		dir := b.Sub(a).Normalize()
		perp := dir.Cross(math.Up).Normalize().Scale(half)

		r.Vertices = append(r.Vertices, a.Sub(perp), a.Add(perp), b.Sub(perp), b.Add(perp))

		u := float32(i) * step
		r.UVs = append(r.UVs, UV{0, u}, UV{1, u}, UV{0, u + step}, UV{1, u + step})

		// Two triangles per quad, wound so the top face points up.
		base := i * 4
		r.Indices = append(r.Indices, base, base+1, base+2, base+1, base+3, base+2)
	}
	return r
}
