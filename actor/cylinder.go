package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// capSegments is the number of vertices used to approximate a cylinder cap as a contact feature
const capSegments = 8

// Cylinder is aligned with the local Y axis
type Cylinder struct {
	Radius     float64
	HalfHeight float64
	aabb       AABB
}

func (c *Cylinder) Type() ShapeType { return ShapeTypeCylinder }

func (c *Cylinder) ComputeAABB(transform Transform) {
	c.aabb = transformedAABB(c.LocalBounds(), transform)
}

func (c *Cylinder) GetAABB() AABB {
	return c.aabb
}

func (c *Cylinder) LocalBounds() AABB {
	h := mgl64.Vec3{c.Radius, c.HalfHeight, c.Radius}
	return AABB{Min: h.Mul(-1), Max: h}
}

func (c *Cylinder) ComputeInertia(mass float64) mgl64.Mat3 {
	r := c.Radius
	h := c.HalfHeight * 2
	iy := mass * r * r / 2
	ixz := mass * (3*r*r + h*h) / 12

	return mgl64.Mat3{
		ixz, 0, 0,
		0, iy, 0,
		0, 0, ixz,
	}
}

func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	y := c.HalfHeight
	if direction.Y() < 0 {
		y = -y
	}

	radial := mgl64.Vec3{direction.X(), 0, direction.Z()}
	if radial.LenSqr() < 1e-16 {
		return mgl64.Vec3{0, y, 0}
	}
	radial = radial.Normalize().Mul(c.Radius)
	return mgl64.Vec3{radial.X(), y, radial.Z()}
}

// GetContactFeature returns a cap polygon for mostly axial directions, a side line otherwise
func (c *Cylinder) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	if direction.LenSqr() < 1e-16 {
		return []mgl64.Vec3{c.Support(direction)}
	}
	dir := direction.Normalize()
	radial := mgl64.Vec3{dir.X(), 0, dir.Z()}

	if math.Abs(dir.Y()) > 0.7 || radial.LenSqr() < 1e-12 {
		y := c.HalfHeight
		if dir.Y() < 0 {
			y = -y
		}
		points := make([]mgl64.Vec3, capSegments)
		for i := range points {
			angle := 2 * math.Pi * float64(i) / capSegments
			points[i] = mgl64.Vec3{c.Radius * math.Cos(angle), y, c.Radius * math.Sin(angle)}
		}
		return points
	}

	side := radial.Normalize().Mul(c.Radius)
	return []mgl64.Vec3{
		side.Add(mgl64.Vec3{0, -c.HalfHeight, 0}),
		side.Add(mgl64.Vec3{0, c.HalfHeight, 0}),
	}
}

func (c *Cylinder) RayCast(from, to mgl64.Vec3) (RayHit, bool) {
	r2 := c.Radius * c.Radius
	if math.Abs(from.Y()) <= c.HalfHeight && from.X()*from.X()+from.Z()*from.Z() <= r2 {
		return RayHit{}, false
	}

	d := to.Sub(from)
	best := math.Inf(1)
	var normal mgl64.Vec3

	if t, ok := rayInfiniteCylinder(from, d, c.Radius); ok {
		hit := from.Add(d.Mul(t))
		if math.Abs(hit.Y()) <= c.HalfHeight {
			best = t
			normal = mgl64.Vec3{hit.X(), 0, hit.Z()}.Normalize()
		}
	}

	if math.Abs(d.Y()) > 1e-12 {
		for _, y := range [2]float64{-c.HalfHeight, c.HalfHeight} {
			t := (y - from.Y()) / d.Y()
			if t < 0 || t > 1 || t >= best {
				continue
			}
			hit := from.Add(d.Mul(t))
			if hit.X()*hit.X()+hit.Z()*hit.Z() <= r2 {
				best = t
				normal = mgl64.Vec3{0, math.Copysign(1, y), 0}
			}
		}
	}

	if math.IsInf(best, 1) {
		return RayHit{}, false
	}
	return RayHit{Fraction: best, Normal: normal}, true
}
