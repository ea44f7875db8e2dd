package physics

import (
	"math"
	"testing"

	"github.com/akmonengine/stride/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const (
	floorID ObjectID = 1
	boxID   ObjectID = 2
)

func newTestWorld() *PhysicsWorld {
	cfg := DefaultConfig()
	cfg.World.Workers = 2
	return New(cfg)
}

func at(position mgl64.Vec3) actor.Transform {
	return actor.NewTransformAt(position, mgl64.QuatIdent())
}

// addFloor adds a static slab whose top face is at y=0
func addFloor(p *PhysicsWorld, id ObjectID, group uint32) *RigidBodyEntry {
	desc := ShapeDescriptor{Kind: ShapeBox, HalfExtents: mgl64.Vec3{10, 0.5, 10}}
	return p.AddBody(desc, at(mgl64.Vec3{0, -0.5, 0}), id, 0, false, FlagStatic, group, math.MaxUint32)
}

func addBox(p *PhysicsWorld, id ObjectID, position mgl64.Vec3, wantsCallback bool, group uint32) *RigidBodyEntry {
	desc := ShapeDescriptor{Kind: ShapeBox, HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}
	return p.AddBody(desc, at(position), id, 1, wantsCallback, FlagDynamic, group, math.MaxUint32)
}

func vec3ApproxEqual(a, b mgl64.Vec3, epsilon float64) bool {
	return math.Abs(a.X()-b.X()) < epsilon &&
		math.Abs(a.Y()-b.Y()) < epsilon &&
		math.Abs(a.Z()-b.Z()) < epsilon
}

func expectContractViolation(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("got no panic, want a contract violation")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrContractViolation) {
			t.Errorf("got panic %v, want ErrContractViolation", r)
		}
	}()
	fn()
}

func TestAddBodyContractViolations(t *testing.T) {
	box := ShapeDescriptor{Kind: ShapeBox, HalfExtents: mgl64.Vec3{1, 1, 1}}
	floor := ShapeDescriptor{
		Kind:     ShapeConcaveMesh,
		Vertices: []mgl64.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}},
		Indices:  []int{0, 2, 1},
	}

	tests := []struct {
		name string
		add  func(p *PhysicsWorld)
	}{
		{"dynamic without mass", func(p *PhysicsWorld) {
			p.AddBody(box, actor.NewTransform(), 10, 0, false, FlagDynamic, 1, 1)
		}},
		{"static with mass", func(p *PhysicsWorld) {
			p.AddBody(box, actor.NewTransform(), 10, 2, false, FlagStatic, 1, 1)
		}},
		{"kinematic with mass", func(p *PhysicsWorld) {
			p.AddBody(box, actor.NewTransform(), 10, 2, false, FlagKinematic, 1, 1)
		}},
		{"dynamic concave mesh", func(p *PhysicsWorld) {
			p.AddBody(floor, actor.NewTransform(), 10, 1, false, FlagDynamic, 1, 1)
		}},
		{"duplicate id", func(p *PhysicsWorld) {
			p.AddBody(box, actor.NewTransform(), boxID, 1, false, FlagDynamic, 1, 1)
		}},
		{"empty mesh", func(p *PhysicsWorld) {
			p.AddBody(ShapeDescriptor{Kind: ShapeConvexMesh}, actor.NewTransform(), 10, 1, false, FlagDynamic, 1, 1)
		}},
		{"while stepping", func(p *PhysicsWorld) {
			p.stepping = true
			p.AddBody(box, actor.NewTransform(), 10, 1, false, FlagDynamic, 1, 1)
		}},
		{"unknown object", func(p *PhysicsWorld) {
			p.SetOrigin(42, mgl64.Vec3{}, false)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestWorld()
			addBox(p, boxID, mgl64.Vec3{0, 5, 0}, false, 1)

			expectContractViolation(t, func() { tt.add(p) })

			if p.Len() != 1 {
				t.Errorf("got %d bodies, want the failed one not registered", p.Len())
			}
		})
	}
}

func TestAddBodyStaticConcaveMesh(t *testing.T) {
	p := newTestWorld()
	desc := ShapeDescriptor{
		Kind:     ShapeConcaveMesh,
		Vertices: []mgl64.Vec3{{-5, 0, -5}, {5, 0, -5}, {5, 0, 5}, {-5, 0, 5}},
		Indices:  []int{0, 2, 1, 0, 3, 2},
	}

	entry := p.AddBody(desc, actor.NewTransform(), floorID, 0, false, FlagStatic, 1, 1)

	if !entry.ExistsInWorld || entry.Body.ID != int(floorID) {
		t.Errorf("got entry %+v, want a live body carrying the object id", entry)
	}
	if _, ok := entry.Body.Shape.(*actor.TriangleMesh); !ok {
		t.Errorf("got shape %T, want a triangle mesh", entry.Body.Shape)
	}
}

func TestSetOriginWakesAndResetsMotion(t *testing.T) {
	tests := []struct {
		name        string
		resetMotion bool
		want        mgl64.Vec3
	}{
		{"keep motion", false, mgl64.Vec3{1, 0, 0}},
		{"reset motion", true, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestWorld()
			body := addBox(p, boxID, mgl64.Vec3{0, 5, 0}, false, 1).Body
			p.Deactivate(boxID)
			body.Velocity = mgl64.Vec3{1, 0, 0}

			p.SetOrigin(boxID, mgl64.Vec3{3, 4, 5}, tt.resetMotion)

			if body.IsSleeping {
				t.Errorf("got a sleeping body, want it woken")
			}
			if body.Velocity != tt.want {
				t.Errorf("got velocity %v, want %v", body.Velocity, tt.want)
			}
			if tr, _ := p.GetTransforms(boxID); tr.Position != (mgl64.Vec3{3, 4, 5}) {
				t.Errorf("got origin %v, want (3,4,5)", tr.Position)
			}
			if aabb := body.Shape.GetAABB(); !aabb.ContainsPoint(mgl64.Vec3{3, 4, 5}) {
				t.Errorf("got bounds %v, want them moved with the body", aabb)
			}
		})
	}
}

func TestAddToOriginAndRotation(t *testing.T) {
	p := newTestWorld()
	addBox(p, boxID, mgl64.Vec3{1, 2, 3}, false, 1)

	p.AddToOrigin(boxID, mgl64.Vec3{0, 0.5, -1}, false)
	p.AddToRotation(boxID, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}), false)
	p.AddToRotation(boxID, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}), false)

	tr, ok := p.GetTransforms(boxID)
	if !ok {
		t.Fatalf("got no transform")
	}
	if !vec3ApproxEqual(tr.Position, mgl64.Vec3{1, 2.5, 2}, 1e-12) {
		t.Errorf("got origin %v, want (1,2.5,2)", tr.Position)
	}
	if got := tr.Rotation.Rotate(mgl64.Vec3{1, 0, 0}); !vec3ApproxEqual(got, mgl64.Vec3{-1, 0, 0}, 1e-9) {
		t.Errorf("got x axis %v, want it turned by half a turn", got)
	}

	p.SetRotation(boxID, mgl64.QuatIdent(), false)
	if tr, _ := p.GetTransforms(boxID); !vec3ApproxEqual(tr.Rotation.V, mgl64.Vec3{}, 1e-12) {
		t.Errorf("got rotation %v, want identity", tr.Rotation)
	}
}

func TestSoftRemoveRestore(t *testing.T) {
	p := newTestWorld()
	entry := addBox(p, boxID, mgl64.Vec3{0, 0, -5}, false, 0x4)
	from, to := mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, -10}

	p.SoftRemove(boxID)
	p.SoftRemove(boxID)

	if entry.ExistsInWorld {
		t.Errorf("got the body in the world after SoftRemove")
	}
	if hit := p.CastRayClosestHit(from, to, NoObject); hit.HasHit() {
		t.Errorf("got a hit on a soft removed body")
	}
	if _, ok := p.Entry(boxID); !ok {
		t.Errorf("got the entry dropped, want it kept")
	}

	p.Restore(boxID)
	p.Restore(boxID)

	if !entry.ExistsInWorld {
		t.Errorf("got the body out of the world after Restore")
	}
	if hit := p.CastRayClosestHit(from, to, NoObject); !hit.HasHit() || hit.ObjectID != boxID {
		t.Errorf("got %+v, want a hit on the restored body", hit)
	}
	if entry.CollisionGroup != 0x4 || entry.CollisionMask != math.MaxUint32 {
		t.Errorf("got group %x mask %x, want the original ones", entry.CollisionGroup, entry.CollisionMask)
	}
}

func TestSoftRemoveWakesSleepers(t *testing.T) {
	p := newTestWorld()
	addFloor(p, floorID, 1)
	box := addBox(p, boxID, mgl64.Vec3{0, 0.49, 0}, false, 1)

	p.Simulate(DefaultFixedSubStep)
	p.Deactivate(boxID)
	p.SoftRemove(floorID)

	if box.Body.IsSleeping {
		t.Errorf("got the box asleep in mid air after its floor was removed")
	}
}

func TestRemoveBodyAndTeardown(t *testing.T) {
	p := newTestWorld()
	addFloor(p, floorID, 1)
	addBox(p, boxID, mgl64.Vec3{0, 0.5, 0}, false, 1)
	addBox(p, 3, mgl64.Vec3{3, 0.5, 0}, false, 1)
	p.SoftRemove(3)

	p.RemoveBody(boxID)
	p.RemoveBody(boxID)

	if _, ok := p.Entry(boxID); ok {
		t.Errorf("got the entry kept after RemoveBody")
	}
	if p.Len() != 2 {
		t.Errorf("got %d bodies, want 2", p.Len())
	}

	p.Teardown()

	if p.Len() != 0 {
		t.Errorf("got %d bodies after Teardown, want 0", p.Len())
	}
	if hit := p.CastRayClosestHit(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -5, 0}, NoObject); hit.HasHit() {
		t.Errorf("got a hit after Teardown")
	}
}

func TestSimulateRestingBox(t *testing.T) {
	p := newTestWorld()
	addFloor(p, floorID, 1)
	addBox(p, boxID, mgl64.Vec3{0, 0.6, 0}, false, 1)

	clock := NewManualClock()
	for range 120 {
		clock.Advance(1.0 / 60.0)
		p.SimulateClock(clock)
	}

	tr, _ := p.GetTransforms(boxID)
	if math.Abs(tr.Position.Y()-0.5) > 0.05 {
		t.Errorf("got height %v, want the box resting at 0.5", tr.Position.Y())
	}
	if !p.IsTouching(boxID, floorID) || !p.IsTouching(floorID, boxID) {
		t.Errorf("got the box and the floor not touching")
	}
}
