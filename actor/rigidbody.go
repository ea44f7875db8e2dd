package actor

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies never move and have infinite mass (ground, walls)
	BodyTypeStatic

	// BodyTypeKinematic bodies have infinite mass and are only moved by setting their transform
	BodyTypeKinematic
)

func (t BodyType) String() string {
	switch t {
	case BodyTypeDynamic:
		return "dynamic"
	case BodyTypeStatic:
		return "static"
	case BodyTypeKinematic:
		return "kinematic"
	}
	return "unknown"
}

type Material struct {
	Restitution float64 // 0 = no rebound, 1 = perfect restitution

	StaticFriction  float64
	DynamicFriction float64
	LinearDamping   float64
	AngularDamping  float64
}

// DefaultMaterial is a non-bouncy material with moderate friction
func DefaultMaterial() Material {
	return Material{
		StaticFriction:  0.6,
		DynamicFriction: 0.4,
		AngularDamping:  0.05,
	}
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// ID is the owner's handle on this body. It is not interpreted by the world.
	ID int

	PreviousTransform Transform
	Transform         Transform

	PresolveVelocity mgl64.Vec3
	Velocity         mgl64.Vec3 // m/s

	PresolveAngularVelocity mgl64.Vec3
	AngularVelocity         mgl64.Vec3 // rad/s

	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsSleeping bool
	SleepTimer float64
	// CanSleep false keeps the body awake whatever its velocity
	CanSleep bool
	// FixedRotation bodies never rotate, their inverse inertia is zero
	FixedRotation bool

	Material Material
	BodyType BodyType
	mass     float64

	Shape ShapeInterface

	// Mutex guards the body while contact constraints are solved in parallel
	Mutex sync.Mutex
}

// NewRigidBody creates a new rigid body. The mass is only used by dynamic bodies,
// static and kinematic bodies get an infinite mass.
func NewRigidBody(transform Transform, shape ShapeInterface, bodyType BodyType, mass float64) *RigidBody {
	transform = transform.Normalized()
	rb := &RigidBody{
		PreviousTransform: transform,
		Transform:         transform,
		Shape:             shape,
		BodyType:          bodyType,
		Material:          DefaultMaterial(),
		CanSleep:          true,
	}

	if bodyType == BodyTypeDynamic && mass > 0 {
		rb.mass = mass
		rb.InertiaLocal = shape.ComputeInertia(mass)
		rb.InverseInertiaLocal = rb.InertiaLocal.Inv()
	} else {
		rb.mass = math.Inf(1)
	}

	rb.Shape.ComputeAABB(rb.Transform)

	return rb
}

// Mass returns +Inf for static and kinematic bodies
func (rb *RigidBody) Mass() float64 {
	return rb.mass
}

func (rb *RigidBody) InverseMass() float64 {
	if rb.BodyType != BodyTypeDynamic {
		return 0
	}
	return 1.0 / rb.mass
}

func (rb *RigidBody) IsDynamic() bool {
	return rb.BodyType == BodyTypeDynamic
}

// SetTransform teleports the body and refreshes its bounds
func (rb *RigidBody) SetTransform(transform Transform) {
	rb.Transform = transform.Normalized()
	rb.PreviousTransform = rb.Transform
	rb.Shape.ComputeAABB(rb.Transform)
}

// ResetMotion zeroes velocities and accumulated forces
func (rb *RigidBody) ResetMotion() {
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
	rb.PresolveVelocity = mgl64.Vec3{}
	rb.PresolveAngularVelocity = mgl64.Vec3{}
	rb.ClearForces()
}

func (rb *RigidBody) TrySleep(dt float64, timeThreshold float64, velocityThreshold float64) {
	if !rb.CanSleep || rb.BodyType != BodyTypeDynamic {
		return
	}

	if rb.Velocity.Len() < velocityThreshold && rb.AngularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timeThreshold {
			rb.Sleep()
		}
	} else {
		rb.SleepTimer = 0
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0

	rb.Shape.ComputeAABB(rb.Transform)
	rb.ResetMotion()
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

// Integrate predicts the body transform for a substep of length dt
func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	if rb.BodyType != BodyTypeDynamic || rb.IsSleeping {
		return
	}

	rb.PreviousTransform = rb.Transform

	acceleration := gravity.Add(rb.accumulatedForce.Mul(1.0 / rb.mass))
	rb.Velocity = rb.Velocity.Add(acceleration.Mul(dt))
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	if rb.FixedRotation {
		rb.AngularVelocity = mgl64.Vec3{}
	} else {
		angularAcceleration := rb.GetInverseInertiaWorld().Mul3x1(rb.accumulatedTorque)
		rb.AngularVelocity = rb.AngularVelocity.Add(angularAcceleration.Mul(dt))
		rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))

		spin := mgl64.Quat{V: rb.AngularVelocity, W: 0}.Mul(rb.Transform.Rotation).Scale(0.5 * dt)
		rb.Transform.SetRotation(rb.Transform.Rotation.Add(spin))
	}

	rb.PresolveVelocity = rb.Velocity
	rb.PresolveAngularVelocity = rb.AngularVelocity

	rb.Shape.ComputeAABB(rb.Transform)
}

// Update derives velocities from the solved positions
func (rb *RigidBody) Update(dt float64) {
	if rb.BodyType != BodyTypeDynamic || rb.IsSleeping {
		return
	}

	rb.Velocity = rb.Transform.Position.Sub(rb.PreviousTransform.Position).Mul(1.0 / dt)
	if rb.FixedRotation {
		rb.AngularVelocity = mgl64.Vec3{}
	} else {
		qDelta := rb.Transform.Rotation.Mul(rb.PreviousTransform.Rotation.Conjugate()).Normalize()
		if qDelta.W >= 0.0 {
			rb.AngularVelocity = qDelta.V.Mul(2.0 / dt)
		} else {
			rb.AngularVelocity = qDelta.V.Mul(-2.0 / dt)
		}
	}

	rb.Shape.ComputeAABB(rb.Transform)
}

// AddForce in newtons, applied until the forces are cleared at the end of the step
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.BodyType == BodyTypeDynamic {
		rb.Awake()
		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque in N⋅m
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.BodyType == BodyTypeDynamic {
		rb.Awake()
		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

// ApplyImpulse changes the linear velocity by impulse/mass, through the center of mass
func (rb *RigidBody) ApplyImpulse(impulse mgl64.Vec3) {
	if rb.BodyType == BodyTypeDynamic {
		rb.Awake()
		rb.Velocity = rb.Velocity.Add(impulse.Mul(1.0 / rb.mass))
	}
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{}
	rb.accumulatedTorque = mgl64.Vec3{}
}

// Center is the world position of the body origin
func (rb *RigidBody) Center() mgl64.Vec3 {
	return rb.Transform.Position
}

// SupportWorld returns the furthest point of a convex shape along a world direction
func (rb *RigidBody) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	convex := rb.Shape.(ConvexShape)
	local := convex.Support(rb.Transform.DirectionToLocal(direction))
	return rb.Transform.PointToWorld(local)
}

// FeatureWorld returns the world-space contact feature of a convex shape along a world direction
func (rb *RigidBody) FeatureWorld(direction mgl64.Vec3) []mgl64.Vec3 {
	convex := rb.Shape.(ConvexShape)
	feature := convex.GetContactFeature(rb.Transform.DirectionToLocal(direction))

	result := make([]mgl64.Vec3, len(feature))
	for i, p := range feature {
		result[i] = rb.Transform.PointToWorld(p)
	}
	return result
}

// RayCast intersects a world segment with the body shape. The normal is returned in world space.
func (rb *RigidBody) RayCast(from, to mgl64.Vec3) (RayHit, bool) {
	hit, ok := rb.Shape.RayCast(rb.Transform.PointToLocal(from), rb.Transform.PointToLocal(to))
	if !ok {
		return RayHit{}, false
	}
	hit.Normal = rb.Transform.DirectionToWorld(hit.Normal)
	return hit, true
}

func (rb *RigidBody) GetInertiaWorld() mgl64.Mat3 {
	// I_world = R * I_local * R^T
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InertiaLocal).Mul3(R.Transpose())
}

func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.BodyType != BodyTypeDynamic || rb.FixedRotation {
		return mgl64.Mat3{}
	}

	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}
