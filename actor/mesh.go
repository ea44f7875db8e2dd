package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Triangle is a single face of a triangle mesh, in local space
type Triangle struct {
	A, B, C mgl64.Vec3
}

// Normal returns the unit face normal following the A→B→C winding
func (t Triangle) Normal() mgl64.Vec3 {
	n := t.B.Sub(t.A).Cross(t.C.Sub(t.A))
	if n.LenSqr() < 1e-20 {
		return mgl64.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

// ClosestPoint returns the point of the triangle closest to p
func (t Triangle) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	return ClosestPointOnTriangle(p, t.A, t.B, t.C)
}

// Transformed moves the triangle into the space described by transform
func (t Triangle) Transformed(transform Transform) Triangle {
	return Triangle{
		A: transform.PointToWorld(t.A),
		B: transform.PointToWorld(t.B),
		C: transform.PointToWorld(t.C),
	}
}

// SupportWorld lets a world-space triangle act as a convex proxy in the narrow phase
func (t Triangle) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	best := t.A
	if t.B.Dot(direction) > best.Dot(direction) {
		best = t.B
	}
	if t.C.Dot(direction) > best.Dot(direction) {
		best = t.C
	}
	return best
}

func (t Triangle) Center() mgl64.Vec3 {
	return t.A.Add(t.B).Add(t.C).Mul(1.0 / 3.0)
}

// FeatureWorld returns the whole face when the direction is close to the face normal,
// otherwise the edge leaning the most toward direction
func (t Triangle) FeatureWorld(direction mgl64.Vec3) []mgl64.Vec3 {
	if math.Abs(t.Normal().Dot(direction.Normalize())) > 0.7 {
		return []mgl64.Vec3{t.A, t.B, t.C}
	}

	vertices := [3]mgl64.Vec3{t.A, t.B, t.C}
	lowest := 0
	for i := 1; i < 3; i++ {
		if vertices[i].Dot(direction) < vertices[lowest].Dot(direction) {
			lowest = i
		}
	}
	return []mgl64.Vec3{vertices[(lowest+1)%3], vertices[(lowest+2)%3]}
}

func (t Triangle) bounds() AABB {
	min, max := t.A, t.A
	for _, p := range [2]mgl64.Vec3{t.B, t.C} {
		for i := 0; i < 3; i++ {
			min[i] = math.Min(min[i], p[i])
			max[i] = math.Max(max[i], p[i])
		}
	}
	return AABB{Min: min, Max: max}
}

// rayCast is a two-sided Möller–Trumbore test
func (t Triangle) rayCast(from, d mgl64.Vec3) (float64, bool) {
	const eps = 1e-12
	e1 := t.B.Sub(t.A)
	e2 := t.C.Sub(t.A)
	p := d.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < eps {
		return 0, false
	}

	inv := 1.0 / det
	s := from.Sub(t.A)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := d.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	tt := e2.Dot(q) * inv
	if tt < 0 || tt > 1 {
		return 0, false
	}
	return tt, true
}

// TriangleMesh is a concave collision shape. It can only be used by static bodies.
type TriangleMesh struct {
	Triangles []Triangle
	bounds    AABB
	aabb      AABB
}

// NewTriangleMesh builds a mesh from a vertex buffer and an index buffer of triangle lists.
// Returns nil when no triangle can be built.
func NewTriangleMesh(vertices []mgl64.Vec3, indices []int) *TriangleMesh {
	m := &TriangleMesh{}
	for i := 0; i+2 < len(indices); i += 3 {
		ia, ib, ic := indices[i], indices[i+1], indices[i+2]
		if ia < 0 || ib < 0 || ic < 0 || ia >= len(vertices) || ib >= len(vertices) || ic >= len(vertices) {
			continue
		}
		m.Triangles = append(m.Triangles, Triangle{A: vertices[ia], B: vertices[ib], C: vertices[ic]})
	}
	if len(m.Triangles) == 0 {
		return nil
	}

	m.bounds = m.Triangles[0].bounds()
	for _, tri := range m.Triangles[1:] {
		b := tri.bounds()
		for i := 0; i < 3; i++ {
			m.bounds.Min[i] = math.Min(m.bounds.Min[i], b.Min[i])
			m.bounds.Max[i] = math.Max(m.bounds.Max[i], b.Max[i])
		}
	}
	return m
}

func (m *TriangleMesh) Type() ShapeType { return ShapeTypeTriangleMesh }

func (m *TriangleMesh) ComputeAABB(transform Transform) {
	m.aabb = transformedAABB(m.bounds, transform)
}

func (m *TriangleMesh) GetAABB() AABB {
	return m.aabb
}

func (m *TriangleMesh) LocalBounds() AABB {
	return m.bounds
}

// ComputeInertia returns zero, meshes are static only
func (m *TriangleMesh) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}

// Overlapping returns the triangles whose bounds overlap a local-space box
func (m *TriangleMesh) Overlapping(box AABB) []Triangle {
	var result []Triangle
	for _, tri := range m.Triangles {
		if tri.bounds().Overlaps(box) {
			result = append(result, tri)
		}
	}
	return result
}

func (m *TriangleMesh) RayCast(from, to mgl64.Vec3) (RayHit, bool) {
	d := to.Sub(from)
	best := math.Inf(1)
	var normal mgl64.Vec3

	for _, tri := range m.Triangles {
		if t, ok := tri.rayCast(from, d); ok && t < best {
			best = t
			normal = tri.Normal()
		}
	}

	if math.IsInf(best, 1) {
		return RayHit{}, false
	}
	if normal.Dot(d) > 0 {
		normal = normal.Mul(-1)
	}
	return RayHit{Fraction: best, Normal: normal}, true
}
