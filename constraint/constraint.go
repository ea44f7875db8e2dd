package constraint

import (
	"math"

	"github.com/akmonengine/stride/actor"
	"github.com/go-gl/mathgl/mgl64"
)

type Constraint interface {
	SolvePosition(dt float64)
	SolveVelocity(dt float64)
}

// ComputeRestitution averages both materials
func ComputeRestitution(matA, matB actor.Material) float64 {
	return (matA.Restitution + matB.Restitution) / 2.0
}

// ComputeStaticFriction is the geometric mean of both materials
func ComputeStaticFriction(matA, matB actor.Material) float64 {
	return math.Sqrt(matA.StaticFriction * matB.StaticFriction)
}

func ComputeDynamicFriction(matA, matB actor.Material) float64 {
	return math.Sqrt(matA.DynamicFriction * matB.DynamicFriction)
}

func clampSmallVelocities(rb *actor.RigidBody) {
	const velocityThreshold = 1e-5

	if rb.Velocity.Len() < velocityThreshold {
		rb.Velocity = mgl64.Vec3{}
	}
	if rb.AngularVelocity.Len() < velocityThreshold {
		rb.AngularVelocity = mgl64.Vec3{}
	}
}

// applyRotation rotates a dynamic body by a small angle vector
func applyRotation(rb *actor.RigidBody, deltaRotation mgl64.Vec3) {
	if !rb.IsDynamic() || rb.FixedRotation || deltaRotation.Len() <= 1e-10 {
		return
	}

	qDelta := mgl64.Quat{W: 1.0, V: deltaRotation.Mul(0.5)}.Normalize()
	rb.Transform.SetRotation(qDelta.Mul(rb.Transform.Rotation))
}
