package physics

import (
	"sort"

	"github.com/akmonengine/stride/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// RayResult is one ray hit. The zero value is a miss.
type RayResult struct {
	ObjectID ObjectID
	Flag     CollisionFlag
	Mass     float64
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	// Fraction of the ray at the hit, 0 at its start and 1 at its end
	Fraction float64
	// Origin is the position of the hit body when the ray was cast
	Origin mgl64.Vec3
	Hit    bool
}

// HasHit is false when the ray hit nothing
func (r RayResult) HasHit() bool {
	return r.Hit
}

// CollisionPoint is a contact seen from a body: the point lies on the other body and the
// normal points from the other body toward the queried one
type CollisionPoint struct {
	Other      ObjectID
	Point      mgl64.Vec3
	Normal     mgl64.Vec3
	Separation float64
}

func (p *PhysicsWorld) castRay(from, to mgl64.Vec3, exclude ObjectID, visit func(RayResult)) {
	ray := to.Sub(from)

	p.world.RayTest(from, to, func(body *actor.RigidBody, hit actor.RayHit) {
		id := ObjectID(body.ID)
		if id == exclude {
			return
		}
		entry, ok := p.entries[id]
		if !ok {
			return
		}

		visit(RayResult{
			ObjectID: id,
			Flag:     entry.Flag,
			Mass:     entry.Mass,
			Point:    from.Add(ray.Mul(hit.Fraction)),
			Normal:   hit.Normal,
			Fraction: hit.Fraction,
			Origin:   body.Transform.Position,
			Hit:      true,
		})
	})
}

// CastRayClosestHit returns the nearest hit on the segment from→to, ignoring exclude.
// Bodies the segment starts in are not reported.
func (p *PhysicsWorld) CastRayClosestHit(from, to mgl64.Vec3, exclude ObjectID) RayResult {
	var closest RayResult
	p.castRay(from, to, exclude, func(r RayResult) {
		if !closest.Hit || r.Fraction < closest.Fraction {
			closest = r
		}
	})
	return closest
}

// CastRayAllHits returns every hit on the segment from→to, nearest first.
// Hits at the same fraction keep the world order.
func (p *PhysicsWorld) CastRayAllHits(from, to mgl64.Vec3, exclude ObjectID) []RayResult {
	var results []RayResult
	p.castRay(from, to, exclude, func(r RayResult) {
		results = append(results, r)
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Fraction < results[j].Fraction
	})
	return results
}

// GetCollisionsWithGroup returns the live objects of group that touched id during the last step
func (p *PhysicsWorld) GetCollisionsWithGroup(id ObjectID, group uint32) []ObjectID {
	others := p.tracker.QueryGroup(int(id), group, func(other int) (uint32, bool) {
		entry, ok := p.entries[ObjectID(other)]
		if !ok || !entry.ExistsInWorld {
			return 0, false
		}
		return entry.CollisionGroup, true
	})

	result := make([]ObjectID, len(others))
	for i, other := range others {
		result[i] = ObjectID(other)
	}
	return result
}

// IsTouching reports whether the last step found a and b in contact
func (p *PhysicsWorld) IsTouching(a, b ObjectID) bool {
	return p.tracker.Contains(int(a), int(b))
}

// GetAllCollisionPoints returns the contact points between id and the given others,
// or every body touching id when others is empty
func (p *PhysicsWorld) GetAllCollisionPoints(id ObjectID, others ...ObjectID) []CollisionPoint {
	accept := func(other ObjectID) bool {
		if len(others) == 0 {
			return true
		}
		for _, o := range others {
			if o == other {
				return true
			}
		}
		return false
	}

	var points []CollisionPoint
	for i := 0; i < p.world.ManifoldCount(); i++ {
		m := p.world.ManifoldByIndex(i)

		var other ObjectID
		var queriedIsA bool
		switch int(id) {
		case m.BodyA.ID:
			other, queriedIsA = ObjectID(m.BodyB.ID), true
		case m.BodyB.ID:
			other = ObjectID(m.BodyA.ID)
		default:
			continue
		}
		if !accept(other) {
			continue
		}

		for _, c := range m.Points() {
			point := CollisionPoint{Other: other, Separation: c.Separation}
			if queriedIsA {
				point.Point = c.PositionOnB
				point.Normal = normalize(c.Normal.Mul(-1))
			} else {
				point.Point = c.PositionOnA()
				point.Normal = normalize(c.Normal)
			}
			points = append(points, point)
		}
	}
	return points
}

func normalize(v mgl64.Vec3) mgl64.Vec3 {
	if v.LenSqr() < 1e-24 {
		return mgl64.Vec3{}
	}
	return v.Normalize()
}
