package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Expand grows the box by margin on every side
func (a AABB) Expand(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Center returns the middle of the box
func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// HalfExtents returns half of the box size on each axis
func (a AABB) HalfExtents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// IntersectsSegment performs a slab test of the segment from→to against the box.
// Unlike a shape ray cast, a segment starting inside the box counts as intersecting.
func (a AABB) IntersectsSegment(from, to mgl64.Vec3) bool {
	d := to.Sub(from)
	tmin, tmax := 0.0, 1.0

	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if from[i] < a.Min[i] || from[i] > a.Max[i] {
				return false
			}
			continue
		}

		inv := 1.0 / d[i]
		t1 := (a.Min[i] - from[i]) * inv
		t2 := (a.Max[i] - from[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}

	return true
}

// ToLocal returns the box enclosing a world-space box once moved into the local space of transform
func (a AABB) ToLocal(transform Transform) AABB {
	return boundCorners(a, transform.PointToLocal)
}

// transformedAABB computes the world AABB enclosing a local box under a transform
func transformedAABB(local AABB, transform Transform) AABB {
	return boundCorners(local, transform.PointToWorld)
}

func boundCorners(box AABB, mapPoint func(mgl64.Vec3) mgl64.Vec3) AABB {
	corners := [8]mgl64.Vec3{
		{box.Min.X(), box.Min.Y(), box.Min.Z()},
		{box.Max.X(), box.Min.Y(), box.Min.Z()},
		{box.Min.X(), box.Max.Y(), box.Min.Z()},
		{box.Max.X(), box.Max.Y(), box.Min.Z()},
		{box.Min.X(), box.Min.Y(), box.Max.Z()},
		{box.Max.X(), box.Min.Y(), box.Max.Z()},
		{box.Min.X(), box.Max.Y(), box.Max.Z()},
		{box.Max.X(), box.Max.Y(), box.Max.Z()},
	}

	first := mapPoint(corners[0])
	result := AABB{Min: first, Max: first}
	for _, corner := range corners[1:] {
		p := mapPoint(corner)
		for i := 0; i < 3; i++ {
			result.Min[i] = math.Min(result.Min[i], p[i])
			result.Max[i] = math.Max(result.Max[i], p[i])
		}
	}
	return result
}
