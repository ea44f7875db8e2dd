package epa

import (
	"math"
	"sync"

	"github.com/akmonengine/stride/gjk"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Face is a triangle of the expanding polytope, its normal pointing away from the origin
type Face struct {
	Points   [3]mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// edge is a polytope edge with the number of visible faces sharing it.
// Edges shared by a single visible face bound the hole left by removing them.
type edge struct {
	A, B  mgl64.Vec3
	Count int
}

// polytope owns reusable buffers so that expansion does not allocate once warm
type polytope struct {
	faces   []Face
	edges   []edge
	visible []int
	// interior is a point strictly inside the polytope, used to orient new faces.
	// The polytope only grows, so the initial tetrahedron centroid stays inside.
	interior mgl64.Vec3
}

var polytopePool = sync.Pool{
	New: func() interface{} {
		return &polytope{
			faces:   make([]Face, 0, polytopeInitialCapacity),
			edges:   make([]edge, 0, polytopeInitialCapacity),
			visible: make([]int, 0, polytopeInitialCapacity),
		}
	},
}

func (p *polytope) reset() {
	p.faces = p.faces[:0]
	p.edges = p.edges[:0]
	p.visible = p.visible[:0]
}

// build seeds the polytope with the four faces of the GJK tetrahedron
func (p *polytope) build(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return errors.Errorf("invalid simplex count: %d (expected 4)", simplex.Count)
	}

	a, b, c, d := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]
	p.interior = a.Add(b).Add(c).Add(d).Mul(0.25)

	candidates := [4]Face{
		newFace(a, b, c, p.interior),
		newFace(a, c, d, p.interior),
		newFace(a, d, b, p.interior),
		newFace(b, d, c, p.interior),
	}

	for _, face := range candidates {
		if face.Distance >= EPAMinFaceDistance {
			p.faces = append(p.faces, face)
		}
	}
	if len(p.faces) < 3 {
		p.faces = append(p.faces[:0], candidates[:]...)
	}

	return nil
}

// newFace orients the triangle normal away from interior and computes its distance to the origin
func newFace(a, b, c, interior mgl64.Vec3) Face {
	face := Face{Points: [3]mgl64.Vec3{a, b, c}}

	normal := b.Sub(a).Cross(c.Sub(a))
	length := normal.Len()
	if length < 1e-8 {
		face.Normal = mgl64.Vec3{0, 1, 0}
		face.Distance = EPAMinFaceDistance
		return face
	}
	normal = normal.Mul(1.0 / length)

	if normal.Dot(interior.Sub(a)) > 0 {
		normal = normal.Mul(-1)
	}

	distance := a.Dot(normal)
	if distance < 0 {
		normal = normal.Mul(-1)
		distance = -distance
	}

	face.Normal = snapNormalToAxis(normal)
	face.Distance = math.Max(distance, EPAMinFaceDistance)

	return face
}

func (p *polytope) closest() int {
	if len(p.faces) == 0 {
		return -1
	}

	best := 0
	for i := 1; i < len(p.faces); i++ {
		if p.faces[i].Distance < p.faces[best].Distance {
			best = i
		}
	}
	return best
}

func (p *polytope) removeFace(i int) {
	last := len(p.faces) - 1
	p.faces[i] = p.faces[last]
	p.faces = p.faces[:last]
}

// expand replaces the faces visible from support by a fan joining support to the hole boundary
func (p *polytope) expand(support mgl64.Vec3, closest int) {
	p.visible = p.visible[:0]
	for i := range p.faces {
		if support.Sub(p.faces[i].Points[0]).Dot(p.faces[i].Normal) > 0 {
			p.visible = append(p.visible, i)
		}
	}
	if len(p.visible) >= len(p.faces) {
		p.visible = append(p.visible[:0], closest)
	}

	p.edges = p.edges[:0]
	for _, i := range p.visible {
		face := &p.faces[i]
		p.addEdge(face.Points[0], face.Points[1])
		p.addEdge(face.Points[1], face.Points[2])
		p.addEdge(face.Points[2], face.Points[0])
	}

	// remove from the highest index so swap-removal does not move a pending index
	sortDescending(p.visible)
	for _, i := range p.visible {
		p.removeFace(i)
	}

	for _, e := range p.edges {
		if e.Count == 1 {
			p.faces = append(p.faces, newFace(e.A, e.B, support, p.interior))
		}
	}

	if len(p.faces) == 0 {
		p.faces = append(p.faces, Face{
			Points:   [3]mgl64.Vec3{support, support, support},
			Normal:   mgl64.Vec3{0, 1, 0},
			Distance: EPAMinFaceDistance,
		})
	}
}

func (p *polytope) addEdge(a, b mgl64.Vec3) {
	if compareVec3(a, b) > 0 {
		a, b = b, a
	}
	for i := range p.edges {
		if p.edges[i].A == a && p.edges[i].B == b {
			p.edges[i].Count++
			return
		}
	}
	p.edges = append(p.edges, edge{A: a, B: b, Count: 1})
}

func sortDescending(indices []int) {
	for i := 1; i < len(indices); i++ {
		for j := i; j > 0 && indices[j-1] < indices[j]; j-- {
			indices[j-1], indices[j] = indices[j], indices[j-1]
		}
	}
}

// compareVec3 orders vectors lexicographically
func compareVec3(a, b mgl64.Vec3) int {
	for i := 0; i < 3; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}
