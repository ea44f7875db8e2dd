package character

import (
	"math"

	"github.com/akmonengine/stride/physics"
	"github.com/go-gl/mathgl/mgl64"
)

// probe is one horizontal obstacle ray
type probe struct {
	hit      physics.RayResult
	hard     bool
	maxAngle float64
}

// rotateAroundUp turns a horizontal direction by angle radians around world up
func rotateAroundUp(direction mgl64.Vec3, angle float64) mgl64.Vec3 {
	return mgl64.QuatRotate(angle, up).Rotate(direction)
}

func horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

// blocks reports whether a hit body stops the character. Dynamic bodies only do when
// pushing is disabled.
func blocks(hit physics.RayResult, pushDynamic bool) bool {
	return hit.HasHit() && !(hit.Flag == physics.FlagDynamic && pushDynamic)
}

// Move displaces the character by v. The move is redirected along the walls it slides on,
// lifted onto stairs, bent along walkable slopes, and scaled down in the air.
// It returns false when the move was rejected and the character did not move.
func (c *Controller) Move(v mgl64.Vec3, pushDynamic bool) bool {
	transform := c.transform("Move")
	position := transform.Position

	flat := horizontal(v)
	length := flat.Len()
	if length < c.cfg.DegenerateNudge {
		if v.LenSqr() == 0 {
			return false
		}
		c.apply(v)
		return true
	}
	direction := flat.Mul(1 / length)

	// Obstacles at head height, in front and at 45° on each side
	head := position.Add(up.Mul(c.halfHeight - c.cfg.ProbeMargin))
	reach := math.Max(2*c.radius, length+c.radius) * c.cfg.ProbeFudge

	probes := [3]probe{
		{maxAngle: c.cfg.WallStopAngle},
		{maxAngle: c.cfg.SideWallStopAngle},
		{maxAngle: c.cfg.SideWallStopAngle},
	}
	rays := [3]mgl64.Vec3{direction, rotateAroundUp(direction, math.Pi/4), rotateAroundUp(direction, -math.Pi/4)}

	hardCount := 0
	for i, ray := range rays {
		probes[i].hit = c.space.CastRayClosestHit(head, head.Add(ray.Mul(reach)), c.id)
		probes[i].hard = blocks(probes[i].hit, pushDynamic)
		if probes[i].hard {
			hardCount++
		}
	}

	if hardCount == len(probes) {
		return false
	}

	if hardCount > 0 {
		var slideOn *physics.RayResult
		for i := range probes {
			if !probes[i].hard {
				continue
			}
			if angleBetween(horizontal(probes[i].hit.Normal), direction.Mul(-1)) < probes[i].maxAngle {
				return false
			}
			if slideOn == nil || probes[i].hit.Fraction < slideOn.Fraction {
				slideOn = &probes[i].hit
			}
		}

		flat = c.slide(flat, slideOn.Normal)
		length = flat.Len()
		if length < c.cfg.DegenerateNudge {
			return false
		}
		direction = flat.Mul(1 / length)
	}

	if !c.state.CanStay {
		c.apply(mgl64.Vec3{flat.X(), v.Y(), flat.Z()}.Mul(c.cfg.AirControlFactor))
		c.moveDirection = direction
		return true
	}

	lift, ok := c.groundOffset(position, flat, direction, pushDynamic)
	if !ok {
		return false
	}

	move := mgl64.Vec3{flat.X(), v.Y(), flat.Z()}
	if lift != nil {
		move[1] = *lift
	}
	c.apply(move)
	c.moveDirection = direction
	return true
}

// slide removes from a horizontal move the part going into a surface
func (c *Controller) slide(move, normal mgl64.Vec3) mgl64.Vec3 {
	n := horizontal(normal)
	if n.LenSqr() < 1e-12 {
		return move
	}
	n = n.Normalize()

	if into := move.Dot(n); into < 0 {
		return move.Sub(n.Mul(into))
	}
	return move
}

func (c *Controller) apply(move mgl64.Vec3) {
	c.space.AddToOrigin(c.id, move, false)
	c.state.Moving = true
}

// groundOffset finds the vertical part of a grounded move. Rays cast down at the leading
// edge of the destination tell stairs from slopes: a rise the slope of the surface hit
// cannot explain is a step, climbed when low enough. Without a step the move follows the
// change of floor height between the character and its destination. A nil offset keeps
// the requested vertical motion; ok is false when the move must be rejected.
func (c *Controller) groundOffset(position, move, direction mgl64.Vec3, pushDynamic bool) (*float64, bool) {
	bottom := position.Y() - c.halfHeight
	top := position.Y() + c.halfHeight
	destination := position.Add(move)
	edge := c.radius * c.cfg.ProbeFudge

	// deep enough for a walkable slope going down under the farthest foot
	fall := (move.Len() + edge) * math.Tan(c.cfg.WalkableFloorAngle) * c.cfg.SlopeFudge
	depth := bottom - fall - c.cfg.ProbeMargin

	downRay := func(at mgl64.Vec3) physics.RayResult {
		from := mgl64.Vec3{at.X(), top, at.Z()}
		to := mgl64.Vec3{at.X(), depth, at.Z()}
		return c.space.CastRayClosestHit(from, to, c.id)
	}

	// rises are measured from the floor under the character, or from its bottom over a ledge
	reference := bottom
	standing := bottom
	if under := downRay(position); under.HasHit() && c.walkable(under.Normal) {
		reference = under.Point.Y()
		standing = reference + c.clearance(under.Normal)
	}

	feet := []mgl64.Vec3{
		destination.Add(direction.Mul(edge)),
		destination.Add(rotateAroundUp(direction, math.Pi/4).Mul(edge)),
		destination.Add(rotateAroundUp(direction, -math.Pi/4).Mul(edge)),
	}

	for _, foot := range feet {
		hit := downRay(foot)
		if !hit.HasHit() || !c.isStep(hit, position, reference) {
			continue
		}

		height := hit.Point.Y() - bottom
		if height <= c.cfg.StepEpsilon {
			continue
		}
		if height > c.cfg.MaxStepHeight || (hit.Flag == physics.FlagDynamic && !pushDynamic) {
			return nil, false
		}
		lift := height + c.cfg.LiftEpsilon
		return &lift, true
	}

	floor := downRay(destination)
	if !floor.HasHit() || !c.walkable(floor.Normal) {
		return nil, true
	}

	offset := floor.Point.Y() + c.clearance(floor.Normal) - standing
	if math.Abs(offset) < c.cfg.StepEpsilon {
		offset = 0
	}
	return &offset, true
}

// isStep reports whether the rise from the reference height to a foot hit is steeper than
// the surface hit, over the horizontal distance from the character to that foot
func (c *Controller) isStep(hit physics.RayResult, position mgl64.Vec3, reference float64) bool {
	rise := hit.Point.Y() - reference
	run := horizontal(hit.Point.Sub(position)).Len()
	slope := math.Min(angleBetween(hit.Normal, up), c.cfg.WalkableFloorAngle)

	return rise > run*math.Tan(slope)*c.cfg.SlopeFudge+c.cfg.StepEpsilon
}

// clearance is the height of a rounded bottom above the floor it rests on
func (c *Controller) clearance(normal mgl64.Vec3) float64 {
	if !c.rounded {
		return 0
	}
	return c.radius * (1/math.Cos(angleBetween(normal, up)) - 1)
}
