package main

import (
	"fmt"
	"math"

	"github.com/akmonengine/stride/actor"
	"github.com/akmonengine/stride/character"
	"github.com/akmonengine/stride/physics"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	floorID physics.ObjectID = iota + 1
	stepID
	wallID
	crateID
	walkerID
)

func at(position mgl64.Vec3) actor.Transform {
	return actor.NewTransformAt(position, mgl64.QuatIdent())
}

func box(halfExtents mgl64.Vec3) physics.ShapeDescriptor {
	return physics.ShapeDescriptor{Kind: physics.ShapeBox, HalfExtents: halfExtents}
}

// SetupScene builds a floor with a stair step, a wall, a crate and a capsule character
func SetupScene() *physics.PhysicsWorld {
	world := physics.New(physics.DefaultConfig())

	world.AddBody(box(mgl64.Vec3{20, 0.5, 20}), at(mgl64.Vec3{0, -0.5, 0}), floorID, 0, false, physics.FlagStatic, 1, math.MaxUint32)
	// a 0.25 m step starting at x=2
	world.AddBody(box(mgl64.Vec3{1.5, 0.125, 2}), at(mgl64.Vec3{3.5, 0.125, 0}), stepID, 0, false, physics.FlagStatic, 1, math.MaxUint32)
	world.AddBody(box(mgl64.Vec3{0.5, 2, 4}), at(mgl64.Vec3{7.5, 2, 0}), wallID, 0, false, physics.FlagStatic, 1, math.MaxUint32)
	world.AddBody(box(mgl64.Vec3{0.3, 0.3, 0.3}), at(mgl64.Vec3{-2, 3, 0}), crateID, 2, true, physics.FlagDynamic, 1, math.MaxUint32)

	capsule := physics.ShapeDescriptor{Kind: physics.ShapeCapsule, Radius: 0.3, HalfHeight: 0.6}
	world.AddBody(capsule, at(mgl64.Vec3{0, 0.92, 0}), walkerID, 80, false, physics.FlagDynamic, 1, math.MaxUint32)
	world.SetAngularFactor(walkerID, true)

	return world
}

// Walk moves the character toward the wall, jumps once on the step and reports each second
func Walk() {
	fmt.Println("Walker: stairs, wall and a falling crate")
	fmt.Println("========================================")

	world := SetupScene()
	defer world.Teardown()

	world.Subscribe(physics.COLLISION_ENTER, func(event physics.Event) {
		e := event.(physics.CollisionEnterEvent)
		fmt.Printf("  enter: %d touches %d\n", e.ObjectA, e.ObjectB)
	})
	world.Subscribe(physics.ON_SLEEP, func(event physics.Event) {
		fmt.Printf("  sleep: %d\n", event.(physics.SleepEvent).Object)
	})

	clock := physics.NewManualClock()
	walker := character.New(world, walkerID, clock, character.DefaultConfig())

	const dt = 1.0 / 60.0
	const frames = 360
	speed := 2.0

	for frame := 0; frame < frames; frame++ {
		clock.Advance(dt)
		world.SimulateClock(clock)
		walker.Update()

		accepted := walker.Move(mgl64.Vec3{speed * dt, 0, 0}, true)
		if frame == 150 && walker.Jump() {
			fmt.Printf("  jump at frame %d\n", frame)
		}

		if frame%60 == 0 || (!accepted && frame%20 == 0) {
			transform, _ := world.GetTransforms(walkerID)
			state := walker.State()
			fmt.Printf("t=%.2fs position=%v phase=%v moved=%v fall=%.3f\n",
				clock.Now(), transform.Position, walker.Phase(), accepted, state.FallDistance)
		}
	}

	hit := world.CastRayClosestHit(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{10, 1, 0}, walkerID)
	if hit.HasHit() {
		fmt.Printf("wall ahead: object %d at %v\n", hit.ObjectID, hit.Point)
	}
	fmt.Println("Done!")
}

func main() {
	Walk()
}
