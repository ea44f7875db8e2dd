package stride

import (
	"github.com/akmonengine/stride/actor"
	"github.com/akmonengine/stride/epa"
	"github.com/akmonengine/stride/gjk"
	"github.com/akmonengine/stride/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

// coreEpsilon is the distance under which a round core is considered inside the other solid
const coreEpsilon = 1e-9

// collide computes the contact points of a pair, normals pointing from a toward b.
// Points separated by more than the contact margin are dropped.
func (w *World) collide(a, b *actor.RigidBody) ([]manifold.ContactPoint, error) {
	meshA, aIsMesh := a.Shape.(*actor.TriangleMesh)
	meshB, bIsMesh := b.Shape.(*actor.TriangleMesh)

	switch {
	case aIsMesh && bIsMesh:
		return nil, nil
	case aIsMesh:
		return w.collideMesh(a, meshA, b)
	case bIsMesh:
		points, err := w.collideMesh(b, meshB, a)
		return flip(points), err
	}

	if points, ok := collideRound(a, b, w.margin); ok {
		return points, nil
	}
	return w.collideConvex(a, b)
}

// collideConvex runs GJK then EPA on two convex proxies
func (w *World) collideConvex(a, b epa.Shape) ([]manifold.ContactPoint, error) {
	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	if !gjk.GJK(a, b, simplex) {
		return nil, nil
	}

	contact, err := epa.EPA(a, b, simplex, w.margin)
	if err != nil {
		return nil, err
	}
	return contact.Points, nil
}

// collideMesh tests a convex body against the triangles of a static mesh near it.
// The mesh is body A of the returned points.
func (w *World) collideMesh(meshBody *actor.RigidBody, mesh *actor.TriangleMesh, other *actor.RigidBody) ([]manifold.ContactPoint, error) {
	if _, ok := other.Shape.(actor.ConvexShape); !ok {
		return nil, nil
	}

	bounds := other.Shape.GetAABB().Expand(w.margin).ToLocal(meshBody.Transform)
	s0, s1, radius, round := roundCore(other)

	var points []manifold.ContactPoint
	var firstErr error
	for _, local := range mesh.Overlapping(bounds) {
		tri := local.Transformed(meshBody.Transform)

		if round {
			if found, ok := roundConvex(s0, s1, radius, tri.ClosestPoint, false, w.margin); ok {
				points = appendUnique(points, found...)
				continue
			}
		}

		found, err := w.collideConvex(tri, other)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		points = appendUnique(points, found...)
	}

	return points, firstErr
}

// collideRound handles the pairs where sphere and capsule contacts have a closed form.
// It reports false when the pair needs the generic path.
func collideRound(a, b *actor.RigidBody, margin float64) ([]manifold.ContactPoint, bool) {
	a0, a1, ra, aRound := roundCore(a)
	b0, b1, rb, bRound := roundCore(b)

	switch {
	case aRound && bRound:
		return roundRound(a0, a1, ra, b0, b1, rb, margin)
	case aRound:
		if project := boxProjector(b); project != nil {
			return roundConvex(a0, a1, ra, project, true, margin)
		}
	case bRound:
		if project := boxProjector(a); project != nil {
			return roundConvex(b0, b1, rb, project, false, margin)
		}
	}
	return nil, false
}

// roundCore returns the world-space core segment and radius of spheres and capsules
func roundCore(body *actor.RigidBody) (mgl64.Vec3, mgl64.Vec3, float64, bool) {
	round, ok := body.Shape.(actor.RoundShape)
	if !ok {
		return mgl64.Vec3{}, mgl64.Vec3{}, 0, false
	}

	a, b, radius := round.Core()
	return body.Transform.PointToWorld(a), body.Transform.PointToWorld(b), radius, true
}

// boxProjector returns the world-space closest point projection of a box body, nil for other shapes
func boxProjector(body *actor.RigidBody) func(mgl64.Vec3) mgl64.Vec3 {
	box, ok := body.Shape.(*actor.Box)
	if !ok {
		return nil
	}

	transform := body.Transform
	return func(p mgl64.Vec3) mgl64.Vec3 {
		local := actor.ClosestPointOnBox(transform.PointToLocal(p), box.HalfExtents)
		return transform.PointToWorld(local)
	}
}

func roundRound(a0, a1 mgl64.Vec3, ra float64, b0, b1 mgl64.Vec3, rb float64, margin float64) ([]manifold.ContactPoint, bool) {
	pa, pb := actor.ClosestPointsSegmentSegment(a0, a1, b0, b1)
	delta := pb.Sub(pa)
	distance := delta.Len()
	if distance < coreEpsilon {
		return nil, false
	}

	separation := distance - ra - rb
	if separation > margin {
		return nil, true
	}

	normal := delta.Mul(1.0 / distance)
	return []manifold.ContactPoint{{
		PositionOnB: pb.Sub(normal.Mul(rb)),
		Normal:      normal,
		Separation:  separation,
	}}, true
}

// roundConvex measures a swept sphere against a convex solid given by its projection.
// Besides the closest pair, both core ends are measured so that a capsule lying on a
// face gets a stable two point contact.
func roundConvex(s0, s1 mgl64.Vec3, radius float64, project func(mgl64.Vec3) mgl64.Vec3, roundIsA bool, margin float64) ([]manifold.ContactPoint, bool) {
	onCore, onSolid := actor.ClosestPointsSegmentConvex(s0, s1, project)
	candidates := [3][2]mgl64.Vec3{
		{onCore, onSolid},
		{s0, project(s0)},
		{s1, project(s1)},
	}

	var points []manifold.ContactPoint
	for i, c := range candidates {
		delta := c[1].Sub(c[0])
		distance := delta.Len()
		if distance < coreEpsilon {
			if i == 0 {
				return nil, false
			}
			continue
		}

		separation := distance - radius
		if separation > margin {
			continue
		}

		toSolid := delta.Mul(1.0 / distance)
		point := manifold.ContactPoint{
			PositionOnB: c[1],
			Normal:      toSolid,
			Separation:  separation,
		}
		if !roundIsA {
			point.PositionOnB = c[0].Add(toSolid.Mul(radius))
			point.Normal = toSolid.Mul(-1)
		}
		points = appendUnique(points, point)
	}

	return points, true
}

// appendUnique skips the points lying on an already kept one
func appendUnique(points []manifold.ContactPoint, candidates ...manifold.ContactPoint) []manifold.ContactPoint {
	const thresholdSqr = manifold.ContactMatchThreshold * manifold.ContactMatchThreshold

next:
	for _, c := range candidates {
		for _, p := range points {
			if p.PositionOnB.Sub(c.PositionOnB).LenSqr() < thresholdSqr*0.25 {
				continue next
			}
		}
		points = append(points, c)
	}
	return points
}

// flip turns points computed for (a, b) into points for (b, a)
func flip(points []manifold.ContactPoint) []manifold.ContactPoint {
	for i, p := range points {
		points[i] = manifold.ContactPoint{
			PositionOnB: p.PositionOnA(),
			Normal:      p.Normal.Mul(-1),
			Separation:  p.Separation,
		}
	}
	return points
}
