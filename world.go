// Package stride is a rigid-body dynamics world solved with XPBD substeps.
//
// Each fixed step integrates the bodies, finds overlapping pairs with a hashed grid,
// refreshes one persistent contact manifold per touching pair on a pool of workers,
// and solves the contacts. Manifolds stay enumerable between steps, which is what the
// spatial query layer and the character solver build upon.
package stride

import (
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/akmonengine/stride/actor"
	"github.com/akmonengine/stride/constraint"
	"github.com/akmonengine/stride/manifold"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const (
	DefaultSubsteps      = 4
	DefaultCellSize      = 2.0
	DefaultNumCells      = 4096
	DefaultContactMargin = 0.04

	// DefaultSleepTime is how long a body must stay under DefaultSleepVelocity before sleeping
	DefaultSleepTime     = 0.1
	DefaultSleepVelocity = 0.05
)

// ErrContractViolation is raised, wrapped with a stack, when the world is misused
var ErrContractViolation = errors.New("contract violation")

type WorldConfig struct {
	Gravity  mgl64.Vec3
	Substeps int
	// Workers is the number of goroutines used by each stage of a step
	Workers  int
	CellSize float64
	NumCells int
	// ContactMargin is the distance under which separated bodies already get contact points
	ContactMargin float64
	SleepTime     float64
	SleepVelocity float64
	Pool          manifold.PoolConfig
	Logger        *log.Logger
}

func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Gravity:       mgl64.Vec3{0, -9.81, 0},
		Substeps:      DefaultSubsteps,
		Workers:       runtime.GOMAXPROCS(0),
		CellSize:      DefaultCellSize,
		NumCells:      DefaultNumCells,
		ContactMargin: DefaultContactMargin,
		SleepTime:     DefaultSleepTime,
		SleepVelocity: DefaultSleepVelocity,
		Pool:          manifold.DefaultPoolConfig(),
		Logger:        log.Default(),
	}
}

type World struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity  mgl64.Vec3
	Substeps int
	Workers  int

	bodies  []*actor.RigidBody
	filters []Filter
	members map[*actor.RigidBody]struct{}

	grid          *SpatialGrid
	pool          *manifold.Pool
	margin        float64
	sleepTime     float64
	sleepVelocity float64

	mu        sync.Mutex
	manifolds map[pairKey]*manifold.ContactManifold
	seen      map[pairKey]struct{}
	failures  map[pairKey]struct{}

	contactCallback func(bodyA, bodyB *actor.RigidBody)

	accumulator float64
	// clamped is set while consecutive calls keep hitting maxSubSteps, to log once
	clamped  bool
	stepping atomic.Bool
	logger   *log.Logger
}

func NewWorld(cfg WorldConfig) *World {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Pool.Logger == nil {
		cfg.Pool.Logger = cfg.Logger
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = DefaultCellSize
	}

	return &World{
		Gravity:       cfg.Gravity,
		Substeps:      max(1, cfg.Substeps),
		Workers:       max(1, cfg.Workers),
		members:       make(map[*actor.RigidBody]struct{}),
		grid:          NewSpatialGrid(cfg.CellSize, cfg.NumCells),
		pool:          manifold.NewPool(cfg.Pool),
		margin:        cfg.ContactMargin,
		sleepTime:     cfg.SleepTime,
		sleepVelocity: cfg.SleepVelocity,
		manifolds:     make(map[pairKey]*manifold.ContactManifold),
		seen:          make(map[pairKey]struct{}),
		failures:      make(map[pairKey]struct{}),
		logger:        cfg.Logger,
	}
}

func (w *World) checkNotStepping(operation string) {
	if w.stepping.Load() {
		panic(errors.Wrapf(ErrContractViolation, "%s while the world is stepping", operation))
	}
}

// AddBody adds a rigid body to the world with its collision group and mask
func (w *World) AddBody(body *actor.RigidBody, group, mask uint32) {
	w.checkNotStepping("AddBody")
	if _, ok := w.members[body]; ok {
		panic(errors.Wrapf(ErrContractViolation, "body %d is already in the world", body.ID))
	}

	w.members[body] = struct{}{}
	w.bodies = append(w.bodies, body)
	w.filters = append(w.filters, Filter{Group: group, Mask: mask})
	body.Shape.ComputeAABB(body.Transform)
}

// RemoveBody removes a rigid body and releases its manifolds. Unknown bodies are ignored.
func (w *World) RemoveBody(body *actor.RigidBody) {
	w.checkNotStepping("RemoveBody")
	if _, ok := w.members[body]; !ok {
		return
	}

	k := -1
	for i, b := range w.bodies {
		if b == body {
			k = i
			break
		}
	}

	// order is kept, pairs rely on it to lock bodies consistently
	w.bodies = append(w.bodies[:k], w.bodies[k+1:]...)
	w.filters = append(w.filters[:k], w.filters[k+1:]...)
	delete(w.members, body)

	w.releaseBody(body)
}

// Contains reports whether body was added to the world
func (w *World) Contains(body *actor.RigidBody) bool {
	_, ok := w.members[body]
	return ok
}

// Bodies returns the bodies in world order. The slice must not be modified.
func (w *World) Bodies() []*actor.RigidBody {
	return w.bodies
}

// SetContactCallback registers fn, called from the narrow phase workers for every pair
// with contact points, possibly several times per step and concurrently
func (w *World) SetContactCallback(fn func(bodyA, bodyB *actor.RigidBody)) {
	w.checkNotStepping("SetContactCallback")
	w.contactCallback = fn
}

// ManifoldCount is the number of live manifolds, only meaningful between steps
func (w *World) ManifoldCount() int {
	return w.pool.Len()
}

// ManifoldByIndex returns the i-th live manifold. Indices change on every step.
func (w *World) ManifoldByIndex(i int) *manifold.ContactManifold {
	return w.pool.At(i)
}

// RayTest calls visit for every body crossed by the segment from→to, in world order
func (w *World) RayTest(from, to mgl64.Vec3, visit func(body *actor.RigidBody, hit actor.RayHit)) {
	for _, body := range w.bodies {
		if !body.Shape.GetAABB().IntersectsSegment(from, to) {
			continue
		}
		if hit, ok := body.RayCast(from, to); ok {
			visit(body, hit)
		}
	}
}

// StepSimulation advances the world by dt. With maxSubSteps > 0 the time is consumed in
// fixed steps of fixedSubStep, the remainder is kept for the next call and steps beyond
// maxSubSteps are dropped. With maxSubSteps <= 0 a single step of dt is taken.
// It returns the number of steps taken.
func (w *World) StepSimulation(dt float64, maxSubSteps int, fixedSubStep float64) int {
	if dt <= 0 {
		return 0
	}

	w.stepping.Store(true)
	defer w.stepping.Store(false)

	if maxSubSteps <= 0 || fixedSubStep <= 0 {
		w.step(dt)
		return 1
	}

	w.accumulator += dt
	steps := int(w.accumulator / fixedSubStep)
	w.accumulator -= float64(steps) * fixedSubStep

	if steps > maxSubSteps {
		if !w.clamped {
			w.logger.Printf("stride: %d steps needed, clamped to %d, simulation falls behind real time", steps, maxSubSteps)
		}
		w.clamped = true
		steps = maxSubSteps
		w.accumulator = 0
	} else {
		w.clamped = false
	}

	for range steps {
		w.step(fixedSubStep)
	}
	return steps
}

func (w *World) step(dt float64) {
	h := dt / float64(w.Substeps)
	clear(w.failures)

	for range w.Substeps {
		w.integrate(h)

		// Collision pair finding: broad phase, then narrow phase on persistent manifolds
		constraints := w.detectCollision()

		// Solver, only one iteration is required thanks to substeps
		w.solvePosition(h, constraints)

		// Calculate final velocities and commit positions
		w.update(h)

		w.solveVelocity(h, constraints)

		w.trySleep(h)
	}

	for _, body := range w.bodies {
		body.ClearForces()
	}
}

func (w *World) integrate(h float64) {
	task(w.Workers, w.bodies, func(body *actor.RigidBody) {
		body.Integrate(h, w.Gravity)
	})
}

func (w *World) solvePosition(h float64, constraints []*constraint.ContactConstraint) {
	task(w.Workers, constraints, func(constraint *constraint.ContactConstraint) {
		constraint.SolvePosition(h)
	})
}

func (w *World) update(h float64) {
	task(w.Workers, w.bodies, func(body *actor.RigidBody) {
		body.Update(h)
	})
}

func (w *World) solveVelocity(h float64, constraints []*constraint.ContactConstraint) {
	task(w.Workers, constraints, func(constraint *constraint.ContactConstraint) {
		constraint.SolveVelocity(h)
	})
}

// trySleep is too simple to use a task, it slows down in multiple goroutines
func (w *World) trySleep(h float64) {
	for _, body := range w.bodies {
		body.TrySleep(h, w.sleepTime, w.sleepVelocity)
	}
}
