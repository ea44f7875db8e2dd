package physics

import (
	"github.com/akmonengine/stride/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// teleport writes a new transform. The body is always woken, a sleeping body would not
// pick the move up otherwise.
func (p *PhysicsWorld) teleport(entry *RigidBodyEntry, transform actor.Transform, resetMotion bool) {
	body := entry.Body
	body.SetTransform(transform)
	if resetMotion {
		body.ResetMotion()
	}
	body.Awake()
}

// SetOrigin moves the body to origin. With resetMotion its velocities and forces are cleared.
func (p *PhysicsWorld) SetOrigin(id ObjectID, origin mgl64.Vec3, resetMotion bool) {
	p.checkNotStepping("SetOrigin")
	entry := p.mustEntry(id, "SetOrigin")

	transform := entry.Body.Transform
	transform.Position = origin
	p.teleport(entry, transform, resetMotion)
}

// AddToOrigin moves the body by delta
func (p *PhysicsWorld) AddToOrigin(id ObjectID, delta mgl64.Vec3, resetMotion bool) {
	p.checkNotStepping("AddToOrigin")
	entry := p.mustEntry(id, "AddToOrigin")

	transform := entry.Body.Transform
	transform.Position = transform.Position.Add(delta)
	p.teleport(entry, transform, resetMotion)
}

// SetRotation replaces the body orientation
func (p *PhysicsWorld) SetRotation(id ObjectID, rotation mgl64.Quat, resetMotion bool) {
	p.checkNotStepping("SetRotation")
	entry := p.mustEntry(id, "SetRotation")

	transform := entry.Body.Transform
	transform.SetRotation(rotation)
	p.teleport(entry, transform, resetMotion)
}

// AddToRotation applies delta on top of the current orientation, in world space
func (p *PhysicsWorld) AddToRotation(id ObjectID, delta mgl64.Quat, resetMotion bool) {
	p.checkNotStepping("AddToRotation")
	entry := p.mustEntry(id, "AddToRotation")

	transform := entry.Body.Transform
	transform.SetRotation(delta.Mul(transform.Rotation))
	p.teleport(entry, transform, resetMotion)
}

// GetTransforms returns the current origin and rotation of the body
func (p *PhysicsWorld) GetTransforms(id ObjectID) (actor.Transform, bool) {
	entry, ok := p.entries[id]
	if !ok {
		return actor.Transform{}, false
	}
	return entry.Body.Transform, true
}

// ApplyCentralImpulse changes the body velocity by impulse/mass, only dynamic bodies react
func (p *PhysicsWorld) ApplyCentralImpulse(id ObjectID, impulse mgl64.Vec3) {
	p.checkNotStepping("ApplyCentralImpulse")
	p.mustEntry(id, "ApplyCentralImpulse").Body.ApplyImpulse(impulse)
}

func (p *PhysicsWorld) SetLinearVelocity(id ObjectID, velocity mgl64.Vec3) {
	p.checkNotStepping("SetLinearVelocity")
	body := p.mustEntry(id, "SetLinearVelocity").Body
	if body.IsDynamic() {
		body.Velocity = velocity
		body.Awake()
	}
}

func (p *PhysicsWorld) LinearVelocity(id ObjectID) mgl64.Vec3 {
	entry, ok := p.entries[id]
	if !ok {
		return mgl64.Vec3{}
	}
	return entry.Body.Velocity
}

// SetAngularFactor locks, or unlocks, the rotation of the body
func (p *PhysicsWorld) SetAngularFactor(id ObjectID, lock bool) {
	p.checkNotStepping("SetAngularFactor")
	body := p.mustEntry(id, "SetAngularFactor").Body
	body.FixedRotation = lock
	if lock {
		body.AngularVelocity = mgl64.Vec3{}
	}
}

func (p *PhysicsWorld) Activate(id ObjectID) {
	p.checkNotStepping("Activate")
	p.mustEntry(id, "Activate").Body.Awake()
}

// Deactivate puts a dynamic body to sleep until something touches or moves it
func (p *PhysicsWorld) Deactivate(id ObjectID) {
	p.checkNotStepping("Deactivate")
	body := p.mustEntry(id, "Deactivate").Body
	if body.IsDynamic() {
		body.Sleep()
	}
}

// LocalHalfExtents returns the half size of the body shape in its own space
func (p *PhysicsWorld) LocalHalfExtents(id ObjectID) mgl64.Vec3 {
	return p.mustEntry(id, "LocalHalfExtents").Body.Shape.LocalBounds().HalfExtents()
}
