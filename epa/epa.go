// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA runs after GJK detected an overlap. It expands the GJK simplex inside the Minkowski
// difference until it finds the face closest to the origin, which gives the contact normal
// and the penetration depth. Contact points are then built by clipping the two shapes'
// contact features against each other.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"math"

	"github.com/akmonengine/stride/gjk"
	"github.com/akmonengine/stride/manifold"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const (
	// EPAMaxIterations limits polytope expansion
	EPAMaxIterations = 32

	// EPAConvergenceTolerance stops the expansion once a new support point improves
	// the closest face distance by less than this
	EPAConvergenceTolerance = 0.001

	// EPAMinFaceDistance is the minimum distance kept for a face, smaller faces are degenerate
	EPAMinFaceDistance = 0.0001

	// NormalSnapThreshold clamps nearly-zero normal components to zero
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is used when the simplex is too small to measure depth
	DegeneratePenetrationEstimate = 0.01

	polytopeInitialCapacity = 16
)

// Shape is a convex proxy able to report its contact feature along a direction
type Shape interface {
	gjk.Convex
	FeatureWorld(direction mgl64.Vec3) []mgl64.Vec3
}

// Contact is the result of EPA for one overlapping pair
type Contact struct {
	// Normal points from A toward B
	Normal mgl64.Vec3
	Depth  float64
	Points []manifold.ContactPoint
}

// EPA computes the contact between two overlapping shapes from the GJK simplex.
// Points whose separation exceeds margin are discarded.
func EPA(a, b Shape, simplex *gjk.Simplex, margin float64) (Contact, error) {
	if simplex.Count < 4 {
		return degenerateContact(a, b, simplex, margin), nil
	}

	p := polytopePool.Get().(*polytope)
	defer polytopePool.Put(p)
	p.reset()

	if err := p.build(simplex); err != nil {
		return Contact{}, err
	}

	for i := 0; i < EPAMaxIterations; i++ {
		if len(p.faces) == 0 {
			break
		}

		closest := p.closest()
		face := p.faces[closest]

		if face.Distance < EPAMinFaceDistance {
			p.removeFace(closest)
			continue
		}

		support := gjk.MinkowskiSupport(a, b, face.Normal)
		if support.Dot(face.Normal)-face.Distance < EPAConvergenceTolerance {
			return newContact(a, b, face.Normal, face.Distance, margin), nil
		}

		p.expand(support, closest)
	}

	return Contact{}, errors.Errorf("EPA failed to converge after %d iterations", EPAMaxIterations)
}

// degenerateContact estimates a contact when GJK ended on a point or a segment,
// which happens when the shapes barely touch
func degenerateContact(a, b Shape, simplex *gjk.Simplex, margin float64) Contact {
	if simplex.Count >= 2 {
		p0, p1 := simplex.Points[0], simplex.Points[1]
		closest := p0
		if p1.Len() < p0.Len() {
			closest = p1
		}
		if depth := closest.Len(); depth > NormalSnapThreshold {
			return newContact(a, b, closest.Mul(1.0/depth), depth, margin)
		}
	}

	normal := b.Center().Sub(a.Center())
	if length := normal.Len(); length < NormalSnapThreshold {
		normal = mgl64.Vec3{0, 1, 0}
	} else {
		normal = normal.Mul(1.0 / length)
	}

	return newContact(a, b, normal, DegeneratePenetrationEstimate, margin)
}

func newContact(a, b Shape, normal mgl64.Vec3, depth, margin float64) Contact {
	return Contact{
		Normal: normal,
		Depth:  depth,
		Points: GenerateManifold(a, b, normal, depth, margin),
	}
}

// snapNormalToAxis clamps nearly-zero components of a normal to zero and renormalizes it.
// Axis-aligned resting contacts then produce exact axis normals.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 3; i++ {
		if math.Abs(normal[i]) < NormalSnapThreshold {
			normal[i] = 0
		}
	}

	length := normal.Len()
	if length <= 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}
	return normal.Mul(1.0 / length)
}
