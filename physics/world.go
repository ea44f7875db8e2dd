// Package physics is the spatial query layer of the engine.
//
// A PhysicsWorld owns the dynamics world and a registry of the bodies added by game
// objects. Game objects address their body by ObjectID: they move it, cast rays, and
// read the contacts the last step produced. Everything here runs on the frame driver
// goroutine, between two steps.
package physics

import (
	"log"

	"github.com/akmonengine/stride"
	"github.com/akmonengine/stride/actor"
	"github.com/akmonengine/stride/contact"
	"github.com/akmonengine/stride/manifold"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ErrContractViolation is the cause of every panic raised on misuse
var ErrContractViolation = stride.ErrContractViolation

const (
	DefaultMaxSubSteps  = 4
	DefaultFixedSubStep = 1.0 / 60.0
)

// DynamicsWorld is the rigid-body world the layer drives. *stride.World implements it.
type DynamicsWorld interface {
	StepSimulation(dt float64, maxSubSteps int, fixedSubStep float64) int
	AddBody(body *actor.RigidBody, group, mask uint32)
	RemoveBody(body *actor.RigidBody)
	RayTest(from, to mgl64.Vec3, visit func(body *actor.RigidBody, hit actor.RayHit))
	ManifoldCount() int
	ManifoldByIndex(i int) *manifold.ContactManifold
	SetContactCallback(fn func(bodyA, bodyB *actor.RigidBody))
}

type Config struct {
	World stride.WorldConfig
	// MaxSubSteps bounds the fixed steps taken by one Simulate call, the late time is dropped
	MaxSubSteps  int
	FixedSubStep float64
}

func DefaultConfig() Config {
	return Config{
		World:        stride.DefaultWorldConfig(),
		MaxSubSteps:  DefaultMaxSubSteps,
		FixedSubStep: DefaultFixedSubStep,
	}
}

// PhysicsWorld is the explicit owner of the physics state, built once by the frame driver
type PhysicsWorld struct {
	world   DynamicsWorld
	tracker *contact.PairTracker
	events  Events

	entries map[ObjectID]*RigidBodyEntry
	// order keeps the registration order, iterations over the registry follow it
	order []ObjectID

	maxSubSteps  int
	fixedSubStep float64
	stepping     bool
	logger       *log.Logger
}

// New creates a PhysicsWorld over a new stride.World
func New(cfg Config) *PhysicsWorld {
	return NewWithWorld(stride.NewWorld(cfg.World), cfg)
}

// NewWithWorld creates a PhysicsWorld over an existing dynamics world
func NewWithWorld(world DynamicsWorld, cfg Config) *PhysicsWorld {
	logger := cfg.World.Logger
	if logger == nil {
		logger = log.Default()
	}

	p := &PhysicsWorld{
		world:        world,
		tracker:      contact.NewPairTracker(),
		events:       NewEvents(),
		entries:      make(map[ObjectID]*RigidBodyEntry),
		maxSubSteps:  cfg.MaxSubSteps,
		fixedSubStep: cfg.FixedSubStep,
		logger:       logger,
	}

	world.SetContactCallback(func(bodyA, bodyB *actor.RigidBody) {
		p.tracker.Record(bodyA.ID, bodyB.ID)
	})

	return p
}

func (p *PhysicsWorld) violation(format string, args ...any) {
	panic(errors.Wrapf(ErrContractViolation, format, args...))
}

func (p *PhysicsWorld) checkNotStepping(operation string) {
	if p.stepping {
		p.violation("%s while the world is stepping", operation)
	}
}

// mustEntry returns the entry of id, calling an unknown id is a caller bug
func (p *PhysicsWorld) mustEntry(id ObjectID, operation string) *RigidBodyEntry {
	entry, ok := p.entries[id]
	if !ok {
		p.violation("%s on object %d which has no body", operation, id)
	}
	return entry
}

// AddBody builds the shape described by desc, registers the body under id and inserts it
// in the world. The mass must be positive for dynamic bodies and zero otherwise.
func (p *PhysicsWorld) AddBody(desc ShapeDescriptor, transform actor.Transform, id ObjectID, mass float64, wantsCallback bool, flag CollisionFlag, group, mask uint32) *RigidBodyEntry {
	p.checkNotStepping("AddBody")

	if _, ok := p.entries[id]; ok {
		p.violation("object %d already has a body", id)
	}
	if flag == FlagDynamic && mass <= 0 {
		p.violation("object %d: dynamic body with mass %v", id, mass)
	}
	if flag != FlagDynamic && mass != 0 {
		p.violation("object %d: %s body with mass %v", id, flag, mass)
	}
	if desc.Kind == ShapeConcaveMesh && flag != FlagStatic {
		p.violation("object %d: concave mesh on a %s body", id, flag)
	}

	shape, err := buildShape(desc)
	if err != nil {
		p.violation("object %d: %v", id, err)
	}

	body := actor.NewRigidBody(transform, shape, flag.bodyType(), mass)
	body.ID = int(id)

	entry := &RigidBodyEntry{
		ObjectID:       id,
		Body:           body,
		CollisionGroup: group,
		CollisionMask:  mask,
		Flag:           flag,
		Mass:           mass,
		WantsCallback:  wantsCallback,
		Descriptor:     desc,
	}
	p.entries[id] = entry
	p.order = append(p.order, id)

	p.world.AddBody(body, group, mask)
	entry.ExistsInWorld = true

	return entry
}

// SoftRemove pulls the body out of the world, its entry is kept for Restore
func (p *PhysicsWorld) SoftRemove(id ObjectID) {
	p.checkNotStepping("SoftRemove")
	entry := p.mustEntry(id, "SoftRemove")
	if !entry.ExistsInWorld {
		return
	}

	p.world.RemoveBody(entry.Body)
	entry.ExistsInWorld = false
}

// Restore puts a soft removed body back, with the group and mask it was added with
func (p *PhysicsWorld) Restore(id ObjectID) {
	p.checkNotStepping("Restore")
	entry := p.mustEntry(id, "Restore")
	if entry.ExistsInWorld {
		return
	}

	entry.Body.Awake()
	p.world.AddBody(entry.Body, entry.CollisionGroup, entry.CollisionMask)
	entry.ExistsInWorld = true
}

// RemoveBody removes the body and forgets its entry. Unknown ids are ignored.
func (p *PhysicsWorld) RemoveBody(id ObjectID) {
	p.checkNotStepping("RemoveBody")
	entry, ok := p.entries[id]
	if !ok {
		return
	}

	if entry.ExistsInWorld {
		p.world.RemoveBody(entry.Body)
	}
	delete(p.entries, id)
	for i, other := range p.order {
		if other == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	p.events.forget(id)
}

// Teardown removes every body
func (p *PhysicsWorld) Teardown() {
	p.checkNotStepping("Teardown")
	for _, id := range append([]ObjectID(nil), p.order...) {
		p.RemoveBody(id)
	}
	p.tracker.Clear()
}

// Entry returns the registry entry of id
func (p *PhysicsWorld) Entry(id ObjectID) (*RigidBodyEntry, bool) {
	entry, ok := p.entries[id]
	return entry, ok
}

// Len is the number of registered bodies, soft removed ones included
func (p *PhysicsWorld) Len() int {
	return len(p.order)
}

// Subscribe registers a listener called after each Simulate
func (p *PhysicsWorld) Subscribe(eventType EventType, listener EventListener) {
	p.events.Subscribe(eventType, listener)
}

// Simulate clears the contact pairs of the previous frame, advances the world by dt and
// dispatches the collision events
func (p *PhysicsWorld) Simulate(dt float64) int {
	p.checkNotStepping("Simulate")
	p.tracker.Clear()

	p.stepping = true
	steps := p.world.StepSimulation(dt, p.maxSubSteps, p.fixedSubStep)
	p.stepping = false

	p.dispatchEvents()
	return steps
}

// SimulateClock advances the world by the last frame time of c
func (p *PhysicsWorld) SimulateClock(c FrameClock) int {
	return p.Simulate(c.StepTime())
}

func (p *PhysicsWorld) dispatchEvents() {
	for _, pair := range p.tracker.Pairs() {
		a, b := ObjectID(pair.A), ObjectID(pair.B)
		if p.wantsCallback(a) || p.wantsCallback(b) {
			p.events.recordPair(a, b)
		}
	}

	live := make([]*RigidBodyEntry, 0, len(p.order))
	for _, id := range p.order {
		if entry := p.entries[id]; entry.ExistsInWorld && entry.Flag == FlagDynamic {
			live = append(live, entry)
		}
	}
	p.events.processSleepEvents(live)

	p.events.flush(p.sleeping)
}

func (p *PhysicsWorld) wantsCallback(id ObjectID) bool {
	entry, ok := p.entries[id]
	return ok && entry.WantsCallback
}

// sleeping is true for bodies that cannot move on their own: asleep, or not dynamic
func (p *PhysicsWorld) sleeping(id ObjectID) bool {
	entry, ok := p.entries[id]
	if !ok {
		return false
	}
	return entry.Body.IsSleeping || entry.Flag != FlagDynamic
}
