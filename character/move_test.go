package character

import (
	"fmt"
	"math"
	"testing"

	"github.com/akmonengine/stride/physics"
	"github.com/go-gl/mathgl/mgl64"
)

func floorAt(y float64) plane {
	return plane{point: mgl64.Vec3{0, y, 0}, normal: mgl64.Vec3{0, 1, 0}, flag: physics.FlagStatic, id: 1}
}

func wallAt(x float64, flag physics.CollisionFlag) plane {
	return plane{point: mgl64.Vec3{x, 0, 0}, normal: mgl64.Vec3{-1, 0, 0}, flag: flag, id: 2}
}

// stepAt is the top of a stair starting at x = 0.35
func stepAt(y float64) plane {
	return plane{
		point:   mgl64.Vec3{0, y, 0},
		normal:  mgl64.Vec3{0, 1, 0},
		flag:    physics.FlagStatic,
		id:      3,
		accepts: func(p mgl64.Vec3) bool { return p.X() > 0.35 },
	}
}

func TestMoveWithoutHorizontalPart(t *testing.T) {
	space := newFakeSpace()
	c := New(space, characterID, physics.NewManualClock(), DefaultConfig())

	if c.Move(mgl64.Vec3{}, false) {
		t.Errorf("got a zero move accepted")
	}
	if !c.Move(mgl64.Vec3{0, 0.5, 0}, false) {
		t.Fatalf("got a vertical move rejected")
	}
	if len(space.moves) != 1 || space.moves[0] != (mgl64.Vec3{0, 0.5, 0}) {
		t.Errorf("got moves %v, want [(0,0.5,0)]", space.moves)
	}
	if !c.State().Moving {
		t.Errorf("got moving false after a move")
	}
}

func TestMoveAirborne(t *testing.T) {
	space := newFakeSpace()
	c := New(space, characterID, physics.NewManualClock(), DefaultConfig())

	if !c.Move(mgl64.Vec3{1, 0.2, 0}, false) {
		t.Fatalf("got the move rejected")
	}
	want := mgl64.Vec3{1, 0.2, 0}.Mul(DefaultConfig().AirControlFactor)
	if !vec3ApproxEqual(space.moves[0], want, 1e-12) {
		t.Errorf("got move %v, want %v", space.moves[0], want)
	}
}

func TestMoveObstacles(t *testing.T) {
	diagonal := mgl64.Vec3{1, 0, 1}.Normalize().Mul(0.2)

	tests := []struct {
		name        string
		wall        plane
		move        mgl64.Vec3
		pushDynamic bool
		want        mgl64.Vec3
		accepted    bool
	}{
		{"blocked by every probe", wallAt(0.6, physics.FlagStatic), mgl64.Vec3{0.6, 0, 0}, false, mgl64.Vec3{}, false},
		{"head-on wall", wallAt(0.85, physics.FlagStatic), mgl64.Vec3{0.6, 0, 0}, false, mgl64.Vec3{}, false},
		{"slides along a wall", wallAt(0.6, physics.FlagStatic), diagonal, false, mgl64.Vec3{0, 0, diagonal.Z()}, true},
		{"pushes a dynamic body", wallAt(0.85, physics.FlagDynamic), mgl64.Vec3{0.6, 0, 0}, true, mgl64.Vec3{0.6, 0, 0}, true},
		{"stopped by a dynamic body", wallAt(0.85, physics.FlagDynamic), mgl64.Vec3{0.6, 0, 0}, false, mgl64.Vec3{}, false},
		{"wall out of reach", wallAt(2, physics.FlagStatic), mgl64.Vec3{0.1, 0, 0}, false, mgl64.Vec3{0.1, 0, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space := newFakeSpace()
			c := newGrounded(space, physics.NewManualClock())
			space.planes = []plane{floorAt(0), tt.wall}

			if got := c.Move(tt.move, tt.pushDynamic); got != tt.accepted {
				t.Fatalf("got accepted %v, want %v", got, tt.accepted)
			}
			if !tt.accepted {
				if len(space.moves) != 0 {
					t.Errorf("got moves %v on a rejected move", space.moves)
				}
				return
			}
			if len(space.moves) != 1 || !vec3ApproxEqual(space.moves[0], tt.want, 1e-9) {
				t.Errorf("got moves %v, want [%v]", space.moves, tt.want)
			}
		})
	}
}

func TestMoveStairs(t *testing.T) {
	lift := DefaultConfig().LiftEpsilon

	tests := []struct {
		name     string
		height   float64
		accepted bool
		wantY    float64
	}{
		{"low step", 0.2, true, 0.2 + lift},
		{"highest step", 0.34, true, 0.34 + lift},
		{"too high", 0.36, false, 0},
		{"low ledge", 0.1, true, 0.1 + lift},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space := newFakeSpace()
			c := newGrounded(space, physics.NewManualClock())
			space.planes = []plane{floorAt(0), stepAt(tt.height)}

			if got := c.Move(mgl64.Vec3{0.1, 0, 0}, false); got != tt.accepted {
				t.Fatalf("got accepted %v, want %v", got, tt.accepted)
			}
			if !tt.accepted {
				return
			}
			want := mgl64.Vec3{0.1, tt.wantY, 0}
			if !vec3ApproxEqual(space.moves[0], want, 1e-9) {
				t.Errorf("got move %v, want %v", space.moves[0], want)
			}
		})
	}
}

// slopeAt is a plane through the origin rising toward +x by angle degrees, negative going down
func slopeAt(degrees float64) plane {
	angle := mgl64.DegToRad(degrees)
	return plane{normal: mgl64.Vec3{-math.Sin(angle), math.Cos(angle), 0}, flag: physics.FlagStatic, id: 1}
}

func TestMoveFollowsFloor(t *testing.T) {
	// a narrow steep strip under the path, the side feet miss it
	steepStrip := plane{
		point:   mgl64.Vec3{0, -0.03, 0},
		normal:  mgl64.Vec3{math.Sin(mgl64.DegToRad(70)), math.Cos(mgl64.DegToRad(70)), 0},
		flag:    physics.FlagStatic,
		id:      1,
		accepts: func(p mgl64.Vec3) bool { return math.Abs(p.X()) < 0.05 },
	}
	ledgeTop := floorAt(0)
	ledgeTop.accepts = func(p mgl64.Vec3) bool { return p.X() < 0.05 }

	type floorCase struct {
		name   string
		planes []plane
		move   mgl64.Vec3
		want   mgl64.Vec3
	}

	tests := []floorCase{
		{"flat", []plane{floorAt(0)}, mgl64.Vec3{0.1, 0, 0}, mgl64.Vec3{0.1, 0, 0}},
		{"hovering over a flat floor", []plane{floorAt(-0.03)}, mgl64.Vec3{0.1, 0, 0}, mgl64.Vec3{0.1, 0, 0}},
		{"down a ledge", []plane{ledgeTop, floorAt(-0.03)}, mgl64.Vec3{0.1, 0, 0}, mgl64.Vec3{0.1, -0.03, 0}},
		{"off a ledge", nil, mgl64.Vec3{0.1, -0.05, 0}, mgl64.Vec3{0.1, -0.05, 0}},
		{"unwalkable floor", []plane{steepStrip}, mgl64.Vec3{0, 0, 0.1}, mgl64.Vec3{0, 0, 0.1}},
	}
	for _, degrees := range []float64{10, 30, 45, -30} {
		tests = append(tests, floorCase{
			name:   fmt.Sprintf("slope %v°", degrees),
			planes: []plane{slopeAt(degrees)},
			move:   mgl64.Vec3{0.1, 0, 0},
			want:   mgl64.Vec3{0.1, 0.1 * math.Tan(mgl64.DegToRad(degrees)), 0},
		})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space := newFakeSpace()
			c := newGrounded(space, physics.NewManualClock())
			space.planes = tt.planes

			if !c.Move(tt.move, false) {
				t.Fatalf("got the move rejected")
			}
			if !vec3ApproxEqual(space.moves[0], tt.want, 1e-9) {
				t.Errorf("got move %v, want %v", space.moves[0], tt.want)
			}
		})
	}
}

func TestMoveOntoRamp(t *testing.T) {
	const degrees = 30
	angle := mgl64.DegToRad(degrees)

	tests := []struct {
		name string
		kind physics.ShapeKind
		want float64
	}{
		{"capsule", physics.ShapeCapsule, 0.1*math.Tan(angle) + 0.3*(1/math.Cos(angle)-1)},
		{"box", physics.ShapeBox, 0.1 * math.Tan(angle)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space := newFakeSpace()
			space.entry.Descriptor.Kind = tt.kind
			c := newGrounded(space, physics.NewManualClock())

			flat := floorAt(0)
			flat.accepts = func(p mgl64.Vec3) bool { return p.X() < 0.05 }
			ramp := slopeAt(degrees)
			ramp.accepts = func(p mgl64.Vec3) bool { return p.X() >= 0.05 }
			space.planes = []plane{flat, ramp}

			if !c.Move(mgl64.Vec3{0.1, 0, 0}, false) {
				t.Fatalf("got the move onto the ramp rejected")
			}
			if got := space.moves[0].Y(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got dy %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoveThenJumpForward(t *testing.T) {
	space := newFakeSpace()
	c := newGrounded(space, physics.NewManualClock())
	space.planes = []plane{floorAt(0)}

	c.Move(mgl64.Vec3{0, 0, 0.1}, false)
	if !c.Jump() {
		t.Fatalf("got the jump rejected")
	}

	impulse := space.impulses[0]
	if impulse.Z() <= 0 || impulse.Y() <= impulse.Z() {
		t.Errorf("got impulse %v, want it forward and mostly upward", impulse)
	}
	if c.Phase() != JumpedWhileMoving {
		t.Errorf("got phase %v, want jumped while moving", c.Phase())
	}
}

func BenchmarkMove(b *testing.B) {
	space := newFakeSpace()
	c := newGrounded(space, physics.NewManualClock())
	space.planes = []plane{floorAt(0), wallAt(5, physics.FlagStatic)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Move(mgl64.Vec3{0.01, 0, 0.01}, false)
		space.transform.Position = mgl64.Vec3{0, 0.9, 0}
	}
}
