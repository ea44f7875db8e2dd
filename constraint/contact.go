package constraint

import (
	"math"

	"github.com/akmonengine/stride/actor"
	"github.com/akmonengine/stride/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultCompliance controls soft constraint stiffness for contact resolution.
	// Lower values = stiffer contacts, higher values = softer contacts.
	// Typical range: 1e-10 (very stiff) to 1e-6 (soft)
	DefaultCompliance = 1e-7

	// penetrationSlop is the depth under which a point is not corrected
	penetrationSlop = 1e-8
)

// ContactConstraint resolves the contacts of one manifold.
// Only penetrating points are corrected, points kept within the contact margin
// are reported to queries but do not push the bodies apart.
type ContactConstraint struct {
	BodyA      *actor.RigidBody
	BodyB      *actor.RigidBody
	Normal     mgl64.Vec3
	Points     []manifold.ContactPoint
	Compliance float64
}

// NewContactConstraint builds a constraint reading the manifold points.
// The manifold must not be refreshed while the constraint is in use.
func NewContactConstraint(m *manifold.ContactManifold) *ContactConstraint {
	return &ContactConstraint{
		BodyA:      m.BodyA,
		BodyB:      m.BodyB,
		Normal:     m.Normal,
		Points:     m.Points(),
		Compliance: DefaultCompliance,
	}
}

// lock takes both body mutexes, BodyA first. The world always orders a pair the same way.
func (c *ContactConstraint) lock() func() {
	c.BodyA.Mutex.Lock()
	c.BodyB.Mutex.Lock()
	return func() {
		c.BodyB.Mutex.Unlock()
		c.BodyA.Mutex.Unlock()
	}
}

func (c *ContactConstraint) skip() bool {
	if len(c.Points) == 0 || c.BodyA == c.BodyB {
		return true
	}
	if c.BodyA.IsSleeping && c.BodyB.IsSleeping {
		return true
	}
	return !c.BodyA.IsDynamic() && !c.BodyB.IsDynamic()
}

// SolvePosition pushes the bodies apart along the manifold normal, in a single
// correction shared by every penetrating point (PBD style, no lambda accumulation)
func (c *ContactConstraint) SolvePosition(dt float64) {
	if c.skip() {
		return
	}

	bodyA := c.BodyA
	bodyB := c.BodyB
	defer c.lock()()

	invMassA := bodyA.InverseMass()
	invMassB := bodyB.InverseMass()
	IA_inv := bodyA.GetInverseInertiaWorld()
	IB_inv := bodyB.GetInverseInertiaWorld()

	var totalWeight float64
	var totalPenetration float64

	for _, point := range c.Points {
		penetration := -point.Separation
		if penetration <= penetrationSlop {
			continue
		}

		rA := point.PositionOnA().Sub(bodyA.Transform.Position)
		rB := point.PositionOnB.Sub(bodyB.Transform.Position)

		rA_cross_n := rA.Cross(c.Normal)
		rB_cross_n := rB.Cross(c.Normal)

		wA := invMassA + IA_inv.Mul3x1(rA_cross_n).Dot(rA_cross_n)
		wB := invMassB + IB_inv.Mul3x1(rB_cross_n).Dot(rB_cross_n)
		totalWeight += wA + wB

		totalPenetration += penetration
	}

	if totalWeight <= 1e-8 {
		return
	}

	alphaTilde := c.Compliance / (dt * dt)
	deltaLambda := -totalPenetration / (totalWeight + alphaTilde)
	totalImpulse := c.Normal.Mul(deltaLambda)

	if bodyA.IsDynamic() {
		bodyA.Transform.Position = bodyA.Transform.Position.Add(totalImpulse.Mul(invMassA))
	}
	if bodyB.IsDynamic() {
		bodyB.Transform.Position = bodyB.Transform.Position.Sub(totalImpulse.Mul(invMassB))
	}

	// one rotation per body, from the torques of every penetrating point
	var totalTorqueA, totalTorqueB mgl64.Vec3
	for _, point := range c.Points {
		if -point.Separation <= penetrationSlop {
			continue
		}

		rA := point.PositionOnA().Sub(bodyA.Transform.Position)
		rB := point.PositionOnB.Sub(bodyB.Transform.Position)

		totalTorqueA = totalTorqueA.Add(rA.Cross(totalImpulse))
		totalTorqueB = totalTorqueB.Add(rB.Cross(totalImpulse.Mul(-1)))
	}

	applyRotation(bodyA, IA_inv.Mul3x1(totalTorqueA))
	applyRotation(bodyB, IB_inv.Mul3x1(totalTorqueB))
}

// SolveVelocity applies restitution and Coulomb friction on penetrating points
func (c *ContactConstraint) SolveVelocity(dt float64) {
	if c.skip() {
		return
	}

	bodyA := c.BodyA
	bodyB := c.BodyB
	defer c.lock()()

	invMassA := bodyA.InverseMass()
	invMassB := bodyB.InverseMass()
	IA_inv := bodyA.GetInverseInertiaWorld()
	IB_inv := bodyB.GetInverseInertiaWorld()

	restitution := ComputeRestitution(bodyA.Material, bodyB.Material)
	staticFriction := ComputeStaticFriction(bodyA.Material, bodyB.Material)
	dynamicFriction := ComputeDynamicFriction(bodyA.Material, bodyB.Material)

	var linearA, linearB, angularA, angularB mgl64.Vec3

	for _, point := range c.Points {
		if point.Separation > 0 {
			continue
		}

		rA := point.PositionOnA().Sub(bodyA.Transform.Position)
		rB := point.PositionOnB.Sub(bodyB.Transform.Position)

		vA := bodyA.Velocity.Add(bodyA.AngularVelocity.Cross(rA))
		vB := bodyB.Velocity.Add(bodyB.AngularVelocity.Cross(rB))
		relativeVel := vB.Sub(vA)
		normalVel := relativeVel.Dot(c.Normal)

		vAPrev := bodyA.PresolveVelocity.Add(bodyA.PresolveAngularVelocity.Cross(rA))
		vBPrev := bodyB.PresolveVelocity.Add(bodyB.PresolveAngularVelocity.Cross(rB))
		normalVelPrev := vBPrev.Sub(vAPrev).Dot(c.Normal)

		rA_cross_n := rA.Cross(c.Normal)
		rB_cross_n := rB.Cross(c.Normal)
		effectiveMassNormal := invMassA + invMassB +
			IA_inv.Mul3x1(rA_cross_n).Dot(rA_cross_n) +
			IB_inv.Mul3x1(rB_cross_n).Dot(rB_cross_n)
		if effectiveMassNormal < 1e-10 {
			continue
		}

		targetVel := -restitution * normalVelPrev
		// never pull the bodies together
		lambdaNormal := math.Max(0, (targetVel-normalVel)/effectiveMassNormal)

		normalImpulse := c.Normal.Mul(lambdaNormal)
		linearA = linearA.Sub(normalImpulse.Mul(invMassA))
		linearB = linearB.Add(normalImpulse.Mul(invMassB))
		angularA = angularA.Add(IA_inv.Mul3x1(rA.Cross(normalImpulse.Mul(-1))))
		angularB = angularB.Add(IB_inv.Mul3x1(rB.Cross(normalImpulse)))

		if lambdaNormal <= 0 {
			continue
		}

		tangentVel := relativeVel.Sub(c.Normal.Mul(normalVel))
		tangentSpeed := tangentVel.Len()
		if tangentSpeed <= 1e-6 {
			continue
		}
		tangentDir := tangentVel.Mul(1.0 / tangentSpeed)

		rA_cross_t := rA.Cross(tangentDir)
		rB_cross_t := rB.Cross(tangentDir)
		effectiveMassTangent := invMassA + invMassB +
			IA_inv.Mul3x1(rA_cross_t).Dot(rA_cross_t) +
			IB_inv.Mul3x1(rB_cross_t).Dot(rB_cross_t)
		if effectiveMassTangent < 1e-10 {
			continue
		}

		lambdaTangent := -tangentSpeed / effectiveMassTangent

		var frictionImpulse mgl64.Vec3
		if math.Abs(lambdaTangent) <= staticFriction*lambdaNormal {
			frictionImpulse = tangentDir.Mul(lambdaTangent)
		} else {
			frictionImpulse = tangentDir.Mul(-dynamicFriction * lambdaNormal)
		}

		linearA = linearA.Sub(frictionImpulse.Mul(invMassA))
		linearB = linearB.Add(frictionImpulse.Mul(invMassB))
		angularA = angularA.Add(IA_inv.Mul3x1(rA.Cross(frictionImpulse.Mul(-1))))
		angularB = angularB.Add(IB_inv.Mul3x1(rB.Cross(frictionImpulse)))
	}

	bodyA.Velocity = bodyA.Velocity.Add(linearA)
	bodyB.Velocity = bodyB.Velocity.Add(linearB)
	bodyA.AngularVelocity = bodyA.AngularVelocity.Add(angularA)
	bodyB.AngularVelocity = bodyB.AngularVelocity.Add(angularB)

	clampSmallVelocities(bodyA)
	clampSmallVelocities(bodyB)
}
