package stride

import (
	"sync"

	"github.com/akmonengine/stride/actor"
	"github.com/akmonengine/stride/constraint"
	"github.com/akmonengine/stride/manifold"
)

// pairKey identifies a persistent manifold. a precedes b in the world order.
type pairKey struct {
	a, b *actor.RigidBody
}

// BroadPhase rebuilds the grid and streams the pairs whose bounds, grown by margin, overlap
func BroadPhase(spatialGrid *SpatialGrid, bodies []*actor.RigidBody, filters []Filter, margin float64, workersCount int) <-chan Pair {
	spatialGrid.Clear()
	for i, body := range bodies {
		spatialGrid.Insert(i, body.Shape.GetAABB().Expand(margin))
	}
	spatialGrid.SortCells()

	return spatialGrid.FindPairsParallel(bodies, filters, margin, workersCount)
}

// detectCollision refreshes the persistent manifolds and returns one constraint per touching pair
func (w *World) detectCollision() []*constraint.ContactConstraint {
	pairs := BroadPhase(w.grid, w.bodies, w.filters, w.margin, w.Workers)
	w.narrowPhase(pairs)
	w.releaseStale()
	w.wakeTouched()

	return w.buildConstraints()
}

// narrowPhase consumes the broad phase pairs on Workers goroutines.
// Manifolds are acquired and refreshed concurrently, the map lock only covers bookkeeping.
func (w *World) narrowPhase(pairs <-chan Pair) {
	var wg sync.WaitGroup

	for range max(1, w.Workers) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range pairs {
				w.processPair(pair)
			}
		}()
	}

	wg.Wait()
}

func (w *World) processPair(pair Pair) {
	key := pairKey{a: pair.BodyA, b: pair.BodyB}

	points, err := w.collide(pair.BodyA, pair.BodyB)
	if err != nil {
		w.reportFailure(key, err)
	}

	w.mu.Lock()
	m, ok := w.manifolds[key]
	w.mu.Unlock()

	if !ok {
		if len(points) == 0 {
			return
		}
		m = w.pool.Acquire(pair.BodyA, pair.BodyB)
	}
	m.Refresh(points)

	w.mu.Lock()
	w.manifolds[key] = m
	w.seen[key] = struct{}{}
	w.mu.Unlock()

	if m.Len() > 0 && w.contactCallback != nil {
		w.contactCallback(pair.BodyA, pair.BodyB)
	}
}

// reportFailure logs a narrow phase failure once per pair and per step
func (w *World) reportFailure(key pairKey, err error) {
	w.mu.Lock()
	_, logged := w.failures[key]
	w.failures[key] = struct{}{}
	w.mu.Unlock()

	if !logged {
		w.logger.Printf("stride: skipping contact between bodies %d and %d: %v", key.a.ID, key.b.ID, err)
	}
}

// releaseStale hands back the manifolds of the pairs the broad phase no longer reports.
// Manifolds between two sleeping bodies are kept, the broad phase skips those pairs.
func (w *World) releaseStale() {
	var stale []*manifold.ContactManifold
	for key, m := range w.manifolds {
		if _, ok := w.seen[key]; ok {
			continue
		}
		if key.a.IsSleeping && key.b.IsSleeping {
			continue
		}
		stale = append(stale, m)
		delete(w.manifolds, key)
	}
	clear(w.seen)

	task(w.Workers, stale, w.pool.Release)
}

// wakeTouched wakes the sleeping bodies pushed into by an awake dynamic body
func (w *World) wakeTouched() {
	w.pool.Each(func(m *manifold.ContactManifold) {
		if !m.Penetrating() {
			return
		}
		wakeBy(m.BodyA, m.BodyB)
		wakeBy(m.BodyB, m.BodyA)
	})
}

func wakeBy(sleeper, other *actor.RigidBody) {
	if !sleeper.IsSleeping || !other.IsDynamic() || other.IsSleeping {
		return
	}
	sleeper.Awake()
	sleeper.PreviousTransform = sleeper.Transform
}

func (w *World) buildConstraints() []*constraint.ContactConstraint {
	constraints := make([]*constraint.ContactConstraint, 0, w.pool.Len())
	w.pool.Each(func(m *manifold.ContactManifold) {
		if m.Len() > 0 {
			constraints = append(constraints, constraint.NewContactConstraint(m))
		}
	})
	return constraints
}

// releaseBody drops every manifold involving body. The bodies asleep against it lose
// their support and are woken.
func (w *World) releaseBody(body *actor.RigidBody) {
	for key, m := range w.manifolds {
		if key.a != body && key.b != body {
			continue
		}
		other := key.a
		if other == body {
			other = key.b
		}
		if other.IsSleeping {
			other.Awake()
			other.PreviousTransform = other.Transform
		}

		delete(w.manifolds, key)
		w.pool.Release(m)
	}
}
