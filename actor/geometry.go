package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// Clamp restricts v to [lo, hi]
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClosestPointOnSegment returns the point of [a, b] closest to p and its parameter along the segment
func ClosestPointOnSegment(p, a, b mgl64.Vec3) (mgl64.Vec3, float64) {
	ab := b.Sub(a)
	lenSqr := ab.LenSqr()
	if lenSqr < 1e-16 {
		return a, 0
	}

	t := Clamp(p.Sub(a).Dot(ab)/lenSqr, 0, 1)
	return a.Add(ab.Mul(t)), t
}

// ClosestPointsSegmentSegment returns the closest pair of points between [p1, q1] and [p2, q2]
func ClosestPointsSegmentSegment(p1, q1, p2, q2 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	const eps = 1e-12

	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	var s, t float64
	switch {
	case a <= eps && e <= eps:
		s, t = 0, 0
	case a <= eps:
		s = 0
		t = Clamp(f/e, 0, 1)
	default:
		c := d1.Dot(r)
		if e <= eps {
			t = 0
			s = Clamp(-c/a, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom != 0 {
				s = Clamp((b*f-c*e)/denom, 0, 1)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = Clamp(-c/a, 0, 1)
			} else if t > 1 {
				t = 1
				s = Clamp((b-c)/a, 0, 1)
			}
		}
	}

	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

// ClosestPointOnTriangle returns the point of triangle abc closest to p
func ClosestPointOnTriangle(p, a, b, c mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w))
	}

	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// ClosestPointOnBox clamps a local-space point onto a centered box
func ClosestPointOnBox(p, halfExtents mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		Clamp(p.X(), -halfExtents.X(), halfExtents.X()),
		Clamp(p.Y(), -halfExtents.Y(), halfExtents.Y()),
		Clamp(p.Z(), -halfExtents.Z(), halfExtents.Z()),
	}
}

// ClosestPointsSegmentConvex finds the closest pair between segment [a, b] and a convex set
// described by its closest-point projection. The squared distance along the segment is
// convex, so a golden-section search converges to the global minimum.
func ClosestPointsSegmentConvex(a, b mgl64.Vec3, project func(mgl64.Vec3) mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	if a.Sub(b).LenSqr() < 1e-16 {
		return a, project(a)
	}

	distSqr := func(t float64) float64 {
		p := a.Add(b.Sub(a).Mul(t))
		return p.Sub(project(p)).LenSqr()
	}

	const invPhi = 0.6180339887498949
	lo, hi := 0.0, 1.0
	x1 := hi - invPhi*(hi-lo)
	x2 := lo + invPhi*(hi-lo)
	f1, f2 := distSqr(x1), distSqr(x2)

	for i := 0; i < 60 && hi-lo > 1e-9; i++ {
		if f1 <= f2 {
			hi = x2
			x2, f2 = x1, f1
			x1 = hi - invPhi*(hi-lo)
			f1 = distSqr(x1)
		} else {
			lo = x1
			x1, f1 = x2, f2
			x2 = lo + invPhi*(hi-lo)
			f2 = distSqr(x2)
		}
	}

	// The endpoints are not sampled by the bracketing, check them explicitly
	t := (lo + hi) / 2
	best := distSqr(t)
	if d := distSqr(0); d < best {
		t, best = 0, d
	}
	if d := distSqr(1); d < best {
		t = 1
	}

	p := a.Add(b.Sub(a).Mul(t))
	return p, project(p)
}

// raySphere intersects the segment origin + d*t, t in [0, 1], with a sphere centered at the origin.
// Segments starting inside the sphere do not hit.
func raySphere(from, d mgl64.Vec3, radius float64) (float64, bool) {
	a := d.Dot(d)
	if a < 1e-16 {
		return 0, false
	}
	b := 2 * from.Dot(d)
	c := from.Dot(from) - radius*radius
	if c < 0 {
		return 0, false
	}

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

// tangentBasis builds two unit vectors orthogonal to normal and to each other
func tangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
