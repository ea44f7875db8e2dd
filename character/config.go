package character

import "github.com/go-gl/mathgl/mgl64"

// Config tunes a Controller. Angles are in radians, distances in meters.
// The fudge factors and epsilons were tuned by hand, they are not physical constants.
type Config struct {
	// WalkableFloorAngle is the steepest contact, measured from world up, the character stands on
	WalkableFloorAngle float64
	MaxStepHeight      float64
	// JumpExtendTime is how long after leaving the ground a jump is still accepted
	JumpExtendTime   float64
	AirControlFactor float64
	// StartJumpAngle pitches a jump taken while moving, measured from the ground
	StartJumpAngle float64
	JumpSpeed      float64

	// WallStopAngle and SideWallStopAngle are the angles between an obstacle normal and
	// the reverse move direction under which the move stops instead of sliding
	WallStopAngle     float64
	SideWallStopAngle float64

	SlopeFudge      float64
	ProbeFudge      float64
	StepEpsilon     float64
	LiftEpsilon     float64
	ProbeMargin     float64
	DegenerateNudge float64
	// StuckEpsilon is the vertical motion under which an airborne character counts as stuck
	StuckEpsilon float64
}

func DefaultConfig() Config {
	return Config{
		WalkableFloorAngle: mgl64.DegToRad(50),
		MaxStepHeight:      0.35,
		JumpExtendTime:     0.2,
		AirControlFactor:   0.3,
		StartJumpAngle:     mgl64.DegToRad(60),
		JumpSpeed:          5,
		WallStopAngle:      mgl64.DegToRad(30),
		SideWallStopAngle:  mgl64.DegToRad(40),
		SlopeFudge:         1.01,
		ProbeFudge:         1.02,
		StepEpsilon:        0.005,
		LiftEpsilon:        0.01,
		ProbeMargin:        0.02,
		DegenerateNudge:    1e-4,
		StuckEpsilon:       1e-5,
	}
}
