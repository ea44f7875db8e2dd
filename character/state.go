package character

import "github.com/go-gl/mathgl/mgl64"

// Phase is the movement state a character is in
type Phase uint8

const (
	Grounded Phase = iota
	AirborneRising
	AirborneFalling
	Jumped
	JumpedWhileMoving
)

func (p Phase) String() string {
	switch p {
	case Grounded:
		return "grounded"
	case AirborneRising:
		return "airborne rising"
	case AirborneFalling:
		return "airborne falling"
	case Jumped:
		return "jumped"
	case JumpedWhileMoving:
		return "jumped while moving"
	}
	return "unknown"
}

// ContactPoint is a point of the world the character touches, with the normal pointing
// toward the character
type ContactPoint struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
}

// State is updated once per frame by its Controller
type State struct {
	// CanStay is true while the character stands on a walkable contact
	CanStay           bool
	Moving            bool
	Jumped            bool
	JumpedWhileMoving bool
	Falling           bool
	// StartFalling is only true on the first falling frame
	StartFalling       bool
	StartFallingHeight float64
	FallDistance       float64
	LastTimeOnGround   float64
	CanJump            bool
	PreviousY          float64

	BottomCollisionPoint ContactPoint
}

// Phase derives the movement state from the flags
func (s State) Phase() Phase {
	switch {
	case s.JumpedWhileMoving:
		return JumpedWhileMoving
	case s.Jumped:
		return Jumped
	case s.CanStay:
		return Grounded
	case s.Falling:
		return AirborneFalling
	}
	return AirborneRising
}
