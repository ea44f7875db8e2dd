package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypeCapsule
	ShapeTypeCylinder
	ShapeTypeConvexHull
	ShapeTypeTriangleMesh
)

// RayHit is a ray intersection expressed in the space the ray was cast in
type RayHit struct {
	// Fraction along the segment, 0 at its start and 1 at its end
	Fraction float64
	// Unit surface normal, pointing against the ray
	Normal mgl64.Vec3
}

// ShapeInterface is the interface that all collision shapes must implement
type ShapeInterface interface {
	Type() ShapeType
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform)
	GetAABB() AABB
	// LocalBounds is the bounding box of the shape in its own space
	LocalBounds() AABB
	ComputeInertia(mass float64) mgl64.Mat3
	// RayCast intersects the local-space segment from→to with the surface.
	// A segment starting inside a solid shape reports no hit.
	RayCast(from, to mgl64.Vec3) (RayHit, bool)
}

// ConvexShape is a shape usable by the GJK/EPA narrow phase
type ConvexShape interface {
	ShapeInterface
	Support(direction mgl64.Vec3) mgl64.Vec3
	GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3
}

// RoundShape is a convex shape described as a segment swept by a sphere.
// Sphere and capsule contacts are computed analytically from the core segment.
type RoundShape interface {
	ConvexShape
	Core() (a, b mgl64.Vec3, radius float64)
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
	aabb        AABB
}

func (b *Box) Type() ShapeType { return ShapeTypeBox }

func (b *Box) ComputeAABB(transform Transform) {
	b.aabb = transformedAABB(b.LocalBounds(), transform)
}

func (b *Box) GetAABB() AABB {
	return b.aabb
}

func (b *Box) LocalBounds() AABB {
	return AABB{Min: b.HalfExtents.Mul(-1), Max: b.HalfExtents}
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2

	// I = (m/12) * (dimension1² + dimension2²)
	factor := mass / 12.0
	ix := factor * (y*y + z*z)
	iy := factor * (x*x + z*z)
	iz := factor * (x*x + y*y)

	return mgl64.Mat3{
		ix, 0, 0,
		0, iy, 0,
		0, 0, iz,
	}
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// GetContactFeature returns the face whose normal is the most aligned with direction
func (b *Box) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	hx := b.HalfExtents.X()
	hy := b.HalfExtents.Y()
	hz := b.HalfExtents.Z()

	// Dominant axis of the direction picks the face, vertices are CCW seen from outside
	ax, ay, az := math.Abs(direction.X()), math.Abs(direction.Y()), math.Abs(direction.Z())
	switch {
	case ax >= ay && ax >= az:
		if direction.X() >= 0 {
			return []mgl64.Vec3{{hx, -hy, -hz}, {hx, -hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}
		}
		return []mgl64.Vec3{{-hx, -hy, hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {-hx, hy, hz}}
	case ay >= az:
		if direction.Y() >= 0 {
			return []mgl64.Vec3{{-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}
		}
		return []mgl64.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, -hy, -hz}, {-hx, -hy, -hz}}
	default:
		if direction.Z() >= 0 {
			return []mgl64.Vec3{{-hx, -hy, hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, -hy, hz}}
		}
		return []mgl64.Vec3{{hx, -hy, -hz}, {hx, hy, -hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}}
	}
}

// RayCast is a slab test against the local box
func (b *Box) RayCast(from, to mgl64.Vec3) (RayHit, bool) {
	d := to.Sub(from)
	tEnter, tExit := math.Inf(-1), math.Inf(1)
	enterAxis := -1
	enterSign := 0.0

	for i := 0; i < 3; i++ {
		h := b.HalfExtents[i]
		if math.Abs(d[i]) < 1e-12 {
			if from[i] < -h || from[i] > h {
				return RayHit{}, false
			}
			continue
		}

		inv := 1.0 / d[i]
		t1 := (-h - from[i]) * inv
		t2 := (h - from[i]) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}
		if t1 > tEnter {
			tEnter = t1
			enterAxis = i
			enterSign = sign
		}
		if t2 < tExit {
			tExit = t2
		}
	}

	if enterAxis < 0 || tEnter > tExit || tEnter < 0 || tEnter > 1 {
		return RayHit{}, false
	}

	var normal mgl64.Vec3
	normal[enterAxis] = enterSign
	return RayHit{Fraction: tEnter, Normal: normal}, true
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
	aabb   AABB
}

func (s *Sphere) Type() ShapeType { return ShapeTypeSphere }

// ComputeAABB calculates the axis-aligned bounding box for the sphere
func (s *Sphere) ComputeAABB(transform Transform) {
	// Sphere AABB is not affected by rotation, only by position
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	s.aabb = AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

func (s *Sphere) GetAABB() AABB {
	return s.aabb
}

func (s *Sphere) LocalBounds() AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: r.Mul(-1), Max: r}
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = (2/5) * m * r²
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Mat3{
		i, 0, 0,
		0, i, 0,
		0, 0, i,
	}
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() < 1e-16 {
		return mgl64.Vec3{s.Radius, 0, 0}
	}
	return direction.Normalize().Mul(s.Radius)
}

func (s *Sphere) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

func (s *Sphere) Core() (mgl64.Vec3, mgl64.Vec3, float64) {
	return mgl64.Vec3{}, mgl64.Vec3{}, s.Radius
}

func (s *Sphere) RayCast(from, to mgl64.Vec3) (RayHit, bool) {
	d := to.Sub(from)
	t, ok := raySphere(from, d, s.Radius)
	if !ok {
		return RayHit{}, false
	}

	hit := from.Add(d.Mul(t))
	return RayHit{Fraction: t, Normal: hit.Normalize()}, true
}
