package physics

import (
	"github.com/akmonengine/stride/actor"
)

// ObjectID is the game object handle a body is registered under
type ObjectID int

// NoObject excludes nothing from ray casts
const NoObject ObjectID = -1

// CollisionFlag is how a body takes part in the simulation
type CollisionFlag uint8

const (
	FlagDynamic CollisionFlag = iota
	FlagStatic
	FlagKinematic
)

func (f CollisionFlag) String() string {
	switch f {
	case FlagDynamic:
		return "dynamic"
	case FlagStatic:
		return "static"
	case FlagKinematic:
		return "kinematic"
	}
	return "unknown"
}

func (f CollisionFlag) bodyType() actor.BodyType {
	switch f {
	case FlagStatic:
		return actor.BodyTypeStatic
	case FlagKinematic:
		return actor.BodyTypeKinematic
	}
	return actor.BodyTypeDynamic
}

// RigidBodyEntry is the registry record of a body. It outlives soft removals.
type RigidBodyEntry struct {
	ObjectID       ObjectID
	Body           *actor.RigidBody
	CollisionGroup uint32
	CollisionMask  uint32
	Flag           CollisionFlag
	Mass           float64
	// ExistsInWorld is false while the body is soft removed
	ExistsInWorld bool
	// WantsCallback enables the collision events of the pairs this body is part of
	WantsCallback bool
	Descriptor    ShapeDescriptor
}
