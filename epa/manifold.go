package epa

import (
	"math"

	"github.com/akmonengine/stride/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

// GenerateManifold builds up to 4 contact points for two touching shapes with
// Sutherland-Hodgman clipping.
//
// The feature with more vertices is the reference, the other one the incident feature.
// The incident feature is clipped against the side planes of the reference, and each
// remaining vertex is measured against the reference plane. A vertex of A measured against
// a face of B is projected onto that face, so points are always reported on B.
//
// normal points from A toward B, depth is the EPA penetration depth.
func GenerateManifold(a, b Shape, normal mgl64.Vec3, depth, margin float64) []manifold.ContactPoint {
	featureA := a.FeatureWorld(normal)
	featureB := b.FeatureWorld(normal.Mul(-1))

	referenceIsA := len(featureB) <= len(featureA)
	incident, reference := featureB, featureA
	outward := normal
	if !referenceIsA {
		incident, reference = featureA, featureB
		outward = normal.Mul(-1)
	}

	var points []manifold.ContactPoint

	if len(incident) > 0 && len(reference) > 0 {
		clipped := incident
		if len(incident) > 1 {
			clipped = clipIncidentAgainstReference(incident, reference, normal)
		}

		offset := math.Inf(-1)
		for _, p := range reference {
			offset = math.Max(offset, p.Dot(outward))
		}

		for _, p := range clipped {
			separation := p.Dot(outward) - offset
			if separation > margin {
				continue
			}

			onB := p
			if !referenceIsA {
				onB = p.Sub(outward.Mul(separation))
			}
			points = append(points, manifold.ContactPoint{
				PositionOnB: onB,
				Normal:      normal,
				Separation:  separation,
			})
		}
	}

	if len(points) == 0 {
		points = append(points, manifold.ContactPoint{
			PositionOnB: b.SupportWorld(normal.Mul(-1)),
			Normal:      normal,
			Separation:  -depth,
		})
	}

	if len(points) > manifold.MaxPoints {
		points = reduceTo4Points(points, normal)
	}

	return points
}

// clipIncidentAgainstReference clips the incident polygon against the planes that
// contain each reference edge and the contact normal
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	if len(reference) < 2 {
		return incident
	}

	center := computeCenter(reference)
	output := incident

	edges := len(reference)
	if edges == 2 {
		// a segment has a single edge
		edges = 1
	}

	for i := 0; i < edges && len(output) > 0; i++ {
		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		clipNormal := v2.Sub(v1).Cross(normal)
		if clipNormal.LenSqr() < 1e-12 {
			continue
		}
		clipNormal = clipNormal.Normalize()

		if edges == 1 {
			// clip between the two planes bounding the segment ends
			along := v2.Sub(v1).Normalize()
			output = clipPolygonAgainstPlane(output, v1, along)
			output = clipPolygonAgainstPlane(output, v2, along.Mul(-1))
			continue
		}

		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}
		output = clipPolygonAgainstPlane(output, v1, clipNormal)
	}

	return output
}

// clipPolygonAgainstPlane keeps the part of the polygon on the positive side of the plane
func clipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	const tolerance = 1e-6

	if len(polygon) == 0 {
		return polygon
	}
	if len(polygon) == 2 {
		return clipSegmentAgainstPlane(polygon[0], polygon[1], planePoint, planeNormal)
	}

	var output []mgl64.Vec3
	for i := 0; i < len(polygon); i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		if currentDist >= -tolerance {
			output = append(output, current)
			if nextDist < -tolerance {
				output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
			}
		} else if nextDist >= -tolerance {
			output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
		}
	}

	return output
}

func clipSegmentAgainstPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	const tolerance = 1e-6

	d1 := p1.Sub(planePoint).Dot(planeNormal)
	d2 := p2.Sub(planePoint).Dot(planeNormal)

	switch {
	case d1 >= -tolerance && d2 >= -tolerance:
		return []mgl64.Vec3{p1, p2}
	case d1 >= -tolerance:
		return []mgl64.Vec3{p1, lineIntersectPlane(p1, p2, planePoint, planeNormal)}
	case d2 >= -tolerance:
		return []mgl64.Vec3{lineIntersectPlane(p1, p2, planePoint, planeNormal), p2}
	}
	return nil
}

func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	denom := dir.Dot(planeNormal)
	if math.Abs(denom) < 1e-10 {
		return p1
	}

	t := -p1.Sub(planePoint).Dot(planeNormal) / denom
	return p1.Add(dir.Mul(math.Max(0, math.Min(1, t))))
}

func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{}
	}

	sum := mgl64.Vec3{}
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

func tangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	tangent1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}

// reduceTo4Points keeps the extreme points along two tangent axes, plus the deepest
// points when extremes coincide
func reduceTo4Points(points []manifold.ContactPoint, normal mgl64.Vec3) []manifold.ContactPoint {
	tangent1, tangent2 := tangentBasis(normal)

	minX, maxX, minY, maxY := 0, 0, 0, 0
	for i, p := range points {
		x := p.PositionOnB.Dot(tangent1)
		y := p.PositionOnB.Dot(tangent2)

		if x < points[minX].PositionOnB.Dot(tangent1) {
			minX = i
		}
		if x > points[maxX].PositionOnB.Dot(tangent1) {
			maxX = i
		}
		if y < points[minY].PositionOnB.Dot(tangent2) {
			minY = i
		}
		if y > points[maxY].PositionOnB.Dot(tangent2) {
			maxY = i
		}
	}

	used := make([]bool, len(points))
	result := make([]manifold.ContactPoint, 0, manifold.MaxPoints)
	for _, i := range [4]int{minX, maxX, minY, maxY} {
		if !used[i] {
			used[i] = true
			result = append(result, points[i])
		}
	}

	for len(result) < manifold.MaxPoints {
		deepest := -1
		for i, p := range points {
			if !used[i] && (deepest < 0 || p.Separation < points[deepest].Separation) {
				deepest = i
			}
		}
		if deepest < 0 {
			break
		}
		used[deepest] = true
		result = append(result, points[deepest])
	}

	return result
}
