package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position and an orientation in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewTransformAt creates a transform with the cached inverse rotation already computed
func NewTransformAt(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	t := Transform{Position: position}
	t.SetRotation(rotation)
	return t
}

// SetRotation normalizes and stores the rotation, refreshing its cached inverse.
// A zero quaternion is treated as the identity.
func (t *Transform) SetRotation(rotation mgl64.Quat) {
	if rotation.Len() < 1e-12 {
		rotation = mgl64.QuatIdent()
	}
	t.Rotation = rotation.Normalize()
	t.InverseRotation = t.Rotation.Inverse()
}

// Normalized returns a copy of the transform with a valid unit rotation and inverse
func (t Transform) Normalized() Transform {
	t.SetRotation(t.Rotation)
	return t
}

// PointToWorld transforms a local-space point into world space
func (t Transform) PointToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(p))
}

// PointToLocal transforms a world-space point into local space
func (t Transform) PointToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(p.Sub(t.Position))
}

// DirectionToWorld rotates a local-space direction into world space
func (t Transform) DirectionToWorld(d mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(d)
}

// DirectionToLocal rotates a world-space direction into local space
func (t Transform) DirectionToLocal(d mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(d)
}
