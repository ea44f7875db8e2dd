package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Capsule is a segment along the local Y axis swept by a sphere.
// HalfHeight is half the length of the inner segment, the total half height is HalfHeight+Radius.
type Capsule struct {
	Radius     float64
	HalfHeight float64
	aabb       AABB
}

func (c *Capsule) Type() ShapeType { return ShapeTypeCapsule }

func (c *Capsule) ComputeAABB(transform Transform) {
	a, b, _ := c.Core()
	wa := transform.PointToWorld(a)
	wb := transform.PointToWorld(b)
	r := mgl64.Vec3{c.Radius, c.Radius, c.Radius}

	min := mgl64.Vec3{math.Min(wa[0], wb[0]), math.Min(wa[1], wb[1]), math.Min(wa[2], wb[2])}
	max := mgl64.Vec3{math.Max(wa[0], wb[0]), math.Max(wa[1], wb[1]), math.Max(wa[2], wb[2])}
	c.aabb = AABB{Min: min.Sub(r), Max: max.Add(r)}
}

func (c *Capsule) GetAABB() AABB {
	return c.aabb
}

func (c *Capsule) LocalBounds() AABB {
	h := mgl64.Vec3{c.Radius, c.HalfHeight + c.Radius, c.Radius}
	return AABB{Min: h.Mul(-1), Max: h}
}

// ComputeInertia splits the mass between the cylinder and the two hemispheres by volume
func (c *Capsule) ComputeInertia(mass float64) mgl64.Mat3 {
	r := c.Radius
	h := c.HalfHeight * 2
	cylinderVolume := math.Pi * r * r * h
	sphereVolume := (4.0 / 3.0) * math.Pi * r * r * r
	total := cylinderVolume + sphereVolume
	if total <= 0 {
		return mgl64.Mat3{}
	}

	mc := mass * cylinderVolume / total
	ms := mass - mc

	iy := mc*r*r/2 + ms*2*r*r/5
	ixz := mc*(r*r/4+h*h/12) + ms*(2*r*r/5+h*h/4+3*h*r/8)

	return mgl64.Mat3{
		ixz, 0, 0,
		0, iy, 0,
		0, 0, ixz,
	}
}

func (c *Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	tip := mgl64.Vec3{0, c.HalfHeight, 0}
	if direction.Y() < 0 {
		tip = mgl64.Vec3{0, -c.HalfHeight, 0}
	}
	if direction.LenSqr() < 1e-16 {
		return tip
	}
	return tip.Add(direction.Normalize().Mul(c.Radius))
}

// GetContactFeature returns the side line when the direction is mostly radial,
// and a single point on a hemisphere otherwise
func (c *Capsule) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	if direction.LenSqr() < 1e-16 {
		return []mgl64.Vec3{c.Support(direction)}
	}
	dir := direction.Normalize()
	radial := mgl64.Vec3{dir.X(), 0, dir.Z()}
	if math.Abs(dir.Y()) > 0.7 || radial.LenSqr() < 1e-12 {
		return []mgl64.Vec3{c.Support(dir)}
	}

	side := radial.Normalize().Mul(c.Radius)
	return []mgl64.Vec3{
		side.Add(mgl64.Vec3{0, -c.HalfHeight, 0}),
		side.Add(mgl64.Vec3{0, c.HalfHeight, 0}),
	}
}

func (c *Capsule) Core() (mgl64.Vec3, mgl64.Vec3, float64) {
	return mgl64.Vec3{0, -c.HalfHeight, 0}, mgl64.Vec3{0, c.HalfHeight, 0}, c.Radius
}

// RayCast takes the earliest entry among the side wall and the two end spheres
func (c *Capsule) RayCast(from, to mgl64.Vec3) (RayHit, bool) {
	a, b, r := c.Core()
	if closest, _ := ClosestPointOnSegment(from, a, b); from.Sub(closest).LenSqr() < r*r {
		return RayHit{}, false
	}

	d := to.Sub(from)
	best := math.Inf(1)
	var normal mgl64.Vec3

	if t, ok := rayInfiniteCylinder(from, d, r); ok {
		y := from.Y() + d.Y()*t
		if y >= -c.HalfHeight && y <= c.HalfHeight {
			hit := from.Add(d.Mul(t))
			best = t
			normal = mgl64.Vec3{hit.X(), 0, hit.Z()}.Normalize()
		}
	}

	for _, center := range [2]mgl64.Vec3{a, b} {
		if t, ok := raySphere(from.Sub(center), d, r); ok && t < best {
			best = t
			normal = from.Add(d.Mul(t)).Sub(center).Normalize()
		}
	}

	if math.IsInf(best, 1) {
		return RayHit{}, false
	}
	return RayHit{Fraction: best, Normal: normal}, true
}

// rayInfiniteCylinder intersects a segment with the infinite Y-axis cylinder of the given radius
func rayInfiniteCylinder(from, d mgl64.Vec3, radius float64) (float64, bool) {
	a := d.X()*d.X() + d.Z()*d.Z()
	if a < 1e-16 {
		return 0, false
	}
	b := 2 * (from.X()*d.X() + from.Z()*d.Z())
	c := from.X()*from.X() + from.Z()*from.Z() - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}

	t := (-b - math.Sqrt(disc)) / (2 * a)
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}
