// Package character moves kinematic-looking characters over a physics world.
//
// A Controller drives one dynamic body. Update reads the contacts of the last step once
// per frame to decide whether the character stands, falls or can jump. Move turns a
// requested displacement into a wall slide, a stair step or a slope-following move, and
// writes it back as an origin delta. Everything runs on the frame driver goroutine.
package character

import (
	"math"

	"github.com/akmonengine/stride/actor"
	"github.com/akmonengine/stride/physics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

var up = mgl64.Vec3{0, 1, 0}

// Space is the part of the physics world a Controller reads and writes
type Space interface {
	Entry(id physics.ObjectID) (*physics.RigidBodyEntry, bool)
	GetTransforms(id physics.ObjectID) (actor.Transform, bool)
	LocalHalfExtents(id physics.ObjectID) mgl64.Vec3
	CastRayClosestHit(from, to mgl64.Vec3, exclude physics.ObjectID) physics.RayResult
	GetAllCollisionPoints(id physics.ObjectID, others ...physics.ObjectID) []physics.CollisionPoint
	AddToOrigin(id physics.ObjectID, delta mgl64.Vec3, resetMotion bool)
	SetLinearVelocity(id physics.ObjectID, velocity mgl64.Vec3)
	LinearVelocity(id physics.ObjectID) mgl64.Vec3
	ApplyCentralImpulse(id physics.ObjectID, impulse mgl64.Vec3)
}

type Controller struct {
	space Space
	id    physics.ObjectID
	clock physics.FrameClock
	cfg   Config

	// radius and halfHeight describe the collider, halfHeight includes the rounded ends
	radius     float64
	halfHeight float64
	// rounded is set for capsules and spheres, their bottom rests above a slope
	rounded bool

	state State
	// moveDirection is the unit horizontal direction of the last accepted move
	moveDirection mgl64.Vec3
	stuck         bool
}

// New binds a Controller to the body of id, which must already be in space
func New(space Space, id physics.ObjectID, clock physics.FrameClock, cfg Config) *Controller {
	c := &Controller{
		space: space,
		id:    id,
		clock: clock,
		cfg:   cfg,
	}
	transform := c.transform("New")

	half := space.LocalHalfExtents(id)
	c.radius = math.Max(half.X(), half.Z())
	c.halfHeight = half.Y()
	if entry, ok := space.Entry(id); ok {
		kind := entry.Descriptor.Kind
		c.rounded = kind == physics.ShapeCapsule || kind == physics.ShapeSphere
	}

	c.state.PreviousY = transform.Position.Y()
	c.state.LastTimeOnGround = clock.Now()
	return c
}

func (c *Controller) violation(format string, args ...any) {
	panic(errors.Wrapf(physics.ErrContractViolation, format, args...))
}

// transform returns the collider transform, a character without collider is a caller bug
func (c *Controller) transform(operation string) actor.Transform {
	transform, ok := c.space.GetTransforms(c.id)
	if !ok {
		c.violation("%s: character %d has no collider", operation, c.id)
	}
	return transform
}

func (c *Controller) ID() physics.ObjectID {
	return c.id
}

// State returns a copy of the character state
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Phase() Phase {
	return c.state.Phase()
}

func (c *Controller) bottom(transform actor.Transform) float64 {
	return transform.Position.Y() - c.halfHeight
}

func (c *Controller) walkable(normal mgl64.Vec3) bool {
	return angleBetween(normal, up) < c.cfg.WalkableFloorAngle
}

// groundContact returns the most upward walkable contact of the last step
func (c *Controller) groundContact() (ContactPoint, bool) {
	var ground ContactPoint
	found := false

	for _, p := range c.space.GetAllCollisionPoints(c.id) {
		if !c.walkable(p.Normal) {
			continue
		}
		if !found || p.Normal.Y() > ground.Normal.Y() {
			ground = ContactPoint{Point: p.Point, Normal: p.Normal}
			found = true
		}
	}
	return ground, found
}

// Update advances the state machine from the contacts of the step that just ran.
// It is called once per frame, after the step and before Move and Jump.
func (c *Controller) Update() {
	transform := c.transform("Update")
	now := c.clock.Now()
	y := transform.Position.Y()
	bottom := c.bottom(transform)

	c.state.Moving = false

	ground, onGround := c.groundContact()
	// a jump leaves speculative contacts behind for a frame
	if onGround && c.state.Jumped && c.space.LinearVelocity(c.id).Y() > 0 {
		onGround = false
	}

	if onGround {
		if !c.state.CanStay {
			c.space.SetLinearVelocity(c.id, mgl64.Vec3{})
		}
		c.state.CanStay = true
		c.state.Jumped = false
		c.state.JumpedWhileMoving = false
		c.state.Falling = false
		c.state.StartFalling = false
		c.state.FallDistance = 0
		c.state.LastTimeOnGround = now
		c.state.BottomCollisionPoint = ground
		c.stuck = false
	} else {
		c.state.CanStay = false
		c.stuck = math.Abs(y-c.state.PreviousY) < c.cfg.StuckEpsilon

		switch {
		case y < c.state.PreviousY && !c.stuck:
			c.state.StartFalling = !c.state.Falling
			if c.state.StartFalling {
				c.state.StartFallingHeight = bottom
			}
			c.state.Falling = true
			c.state.FallDistance = c.state.StartFallingHeight - bottom
		case y > c.state.PreviousY && !c.stuck:
			c.state.Falling = false
			c.state.StartFalling = false
		default:
			c.state.StartFalling = false
		}
	}

	c.state.CanJump = c.canJump(now)
	c.state.PreviousY = y
}

func (c *Controller) canJump(now float64) bool {
	if c.state.CanStay {
		return !c.state.Jumped
	}
	if c.stuck {
		return true
	}
	return !c.state.Jumped && now-c.state.LastTimeOnGround <= c.cfg.JumpExtendTime
}

// Jump throws the character upward, or forward and upward while it moves.
// It fails when the character cannot jump now, or when its body is not dynamic.
func (c *Controller) Jump() bool {
	entry, ok := c.space.Entry(c.id)
	if !ok {
		c.violation("Jump: character %d has no collider", c.id)
	}
	if entry.Flag != physics.FlagDynamic {
		return false
	}

	c.state.CanJump = c.canJump(c.clock.Now())
	if !c.state.CanJump {
		return false
	}

	direction := up
	if c.state.Moving && c.moveDirection.LenSqr() > 0 {
		pitch := c.cfg.StartJumpAngle
		direction = c.moveDirection.Mul(math.Cos(pitch)).Add(up.Mul(math.Sin(pitch)))
		c.state.JumpedWhileMoving = true
	}

	// a jump in coyote time must not fight the fall speed
	velocity := c.space.LinearVelocity(c.id)
	velocity[1] = math.Max(velocity[1], 0)
	c.space.SetLinearVelocity(c.id, velocity)
	c.space.ApplyCentralImpulse(c.id, direction.Mul(c.cfg.JumpSpeed*entry.Mass))

	c.state.Jumped = true
	c.state.CanJump = false
	c.stuck = false
	return true
}

// angleBetween returns the angle between two vectors, in radians
func angleBetween(a, b mgl64.Vec3) float64 {
	lengths := a.Len() * b.Len()
	if lengths < 1e-12 {
		return math.Pi / 2
	}
	return math.Acos(actor.Clamp(a.Dot(b)/lengths, -1, 1))
}
