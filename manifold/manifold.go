// Package manifold holds persistent contact manifolds and the pool that owns them.
//
// A manifold records every contact point currently shared by one pair of bodies.
// Manifolds live in a Pool for as long as the broad phase keeps the pair overlapping,
// and are reachable by index through Pool.At between simulation steps.
package manifold

import (
	"github.com/akmonengine/stride/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxPoints is the number of contact points a manifold keeps
	MaxPoints = 4

	// ContactMatchThreshold is the distance under which a new point is considered
	// the continuation of a previous one
	ContactMatchThreshold = 0.02
)

// ContactPoint is one contact between the two bodies of a manifold
type ContactPoint struct {
	// PositionOnB is the world position of the contact on body B's surface
	PositionOnB mgl64.Vec3
	// Normal is the unit contact normal, pointing from body A toward body B
	Normal mgl64.Vec3
	// Separation is negative when the bodies interpenetrate
	Separation float64
	// LifeTime counts the refreshes this point survived
	LifeTime int
}

// PositionOnA returns the matching point on body A's surface
func (p ContactPoint) PositionOnA() mgl64.Vec3 {
	return p.PositionOnB.Sub(p.Normal.Mul(p.Separation))
}

// ContactManifold is the persistent record of the contacts between BodyA and BodyB
type ContactManifold struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
	// Normal is the unit normal of the deepest point, from A toward B
	Normal mgl64.Vec3

	points [MaxPoints]ContactPoint
	count  int

	poolIndex int
	slot      int
	overflow  bool
}

// PoolIndex is the manifold position in its pool's live array, -1 once released.
// It changes on every Release of another manifold and must not be cached.
func (m *ContactManifold) PoolIndex() int {
	return m.poolIndex
}

// Overflow reports whether the manifold was heap allocated past the pool capacity
func (m *ContactManifold) Overflow() bool {
	return m.overflow
}

// Len returns the number of contact points
func (m *ContactManifold) Len() int {
	return m.count
}

func (m *ContactManifold) Point(i int) ContactPoint {
	return m.points[i]
}

// Points returns the contact points. The slice aliases the manifold storage.
func (m *ContactManifold) Points() []ContactPoint {
	return m.points[:m.count]
}

// Involves reports whether body is one of the two manifold bodies
func (m *ContactManifold) Involves(body *actor.RigidBody) bool {
	return m.BodyA == body || m.BodyB == body
}

// Penetrating reports whether at least one point has a negative separation
func (m *ContactManifold) Penetrating() bool {
	for _, p := range m.Points() {
		if p.Separation < 0 {
			return true
		}
	}
	return false
}

// Clear drops every contact point
func (m *ContactManifold) Clear() {
	m.count = 0
}

// Refresh replaces the contact set. A new point within ContactMatchThreshold of a
// previous point inherits and increments its LifeTime. When more than MaxPoints are
// given the deepest ones are kept.
func (m *ContactManifold) Refresh(points []ContactPoint) {
	previous := m.points
	previousCount := m.count

	points = deepest(points, MaxPoints)
	m.count = len(points)

	for i, p := range points {
		p.LifeTime = 0
		for j := 0; j < previousCount; j++ {
			if previous[j].PositionOnB.Sub(p.PositionOnB).LenSqr() < ContactMatchThreshold*ContactMatchThreshold {
				p.LifeTime = previous[j].LifeTime + 1
				break
			}
		}
		m.points[i] = p
	}

	m.Normal = mgl64.Vec3{}
	if m.count > 0 {
		deepestIndex := 0
		for i := 1; i < m.count; i++ {
			if m.points[i].Separation < m.points[deepestIndex].Separation {
				deepestIndex = i
			}
		}
		m.Normal = m.points[deepestIndex].Normal
	}
}

// deepest keeps the n points with the lowest separation, preserving their order
func deepest(points []ContactPoint, n int) []ContactPoint {
	if len(points) <= n {
		return points
	}

	used := make([]bool, len(points))
	for range n {
		best := -1
		for i, p := range points {
			if !used[i] && (best < 0 || p.Separation < points[best].Separation) {
				best = i
			}
		}
		used[best] = true
	}

	kept := make([]ContactPoint, 0, n)
	for i, p := range points {
		if used[i] {
			kept = append(kept, p)
		}
	}
	return kept
}

func (m *ContactManifold) reset(bodyA, bodyB *actor.RigidBody) {
	m.BodyA = bodyA
	m.BodyB = bodyB
	m.Normal = mgl64.Vec3{}
	m.count = 0
}
