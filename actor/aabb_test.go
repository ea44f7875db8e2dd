package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func vec3ApproxEqual(a, b mgl64.Vec3, epsilon float64) bool {
	return math.Abs(a.X()-b.X()) < epsilon &&
		math.Abs(a.Y()-b.Y()) < epsilon &&
		math.Abs(a.Z()-b.Z()) < epsilon
}

func TestAABBOverlaps(t *testing.T) {
	unit := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name  string
		other AABB
		want  bool
	}{
		{"separated on x", AABB{Min: mgl64.Vec3{2, 0, 0}, Max: mgl64.Vec3{3, 1, 1}}, false},
		{"separated on y", AABB{Min: mgl64.Vec3{0, -2, 0}, Max: mgl64.Vec3{1, -1, 1}}, false},
		{"separated on z", AABB{Min: mgl64.Vec3{0, 0, 1.5}, Max: mgl64.Vec3{1, 1, 2}}, false},
		{"overlapping", AABB{Min: mgl64.Vec3{0.5, 0.5, 0.5}, Max: mgl64.Vec3{2, 2, 2}}, true},
		{"face touching", AABB{Min: mgl64.Vec3{1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}}, true},
		{"contained", AABB{Min: mgl64.Vec3{0.2, 0.2, 0.2}, Max: mgl64.Vec3{0.8, 0.8, 0.8}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unit.Overlaps(tt.other); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got := tt.other.Overlaps(unit); got != tt.want {
				t.Errorf("symmetric: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAABBContainsPoint(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		point mgl64.Vec3
		want  bool
	}{
		{mgl64.Vec3{0, 0, 0}, true},
		{mgl64.Vec3{1, 1, 1}, true},
		{mgl64.Vec3{1.01, 0, 0}, false},
		{mgl64.Vec3{0, -2, 0}, false},
	}

	for _, tt := range tests {
		if got := box.ContainsPoint(tt.point); got != tt.want {
			t.Errorf("ContainsPoint(%v): got %v, want %v", tt.point, got, tt.want)
		}
	}
}

func TestAABBExpand(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{2, 2, 2}}.Expand(0.5)

	if !vec3ApproxEqual(box.Min, mgl64.Vec3{-0.5, -0.5, -0.5}, 1e-12) {
		t.Errorf("got min %v, want (-0.5,-0.5,-0.5)", box.Min)
	}
	if !vec3ApproxEqual(box.Center(), mgl64.Vec3{1, 1, 1}, 1e-12) {
		t.Errorf("got center %v, want (1,1,1)", box.Center())
	}
	if !vec3ApproxEqual(box.HalfExtents(), mgl64.Vec3{1.5, 1.5, 1.5}, 1e-12) {
		t.Errorf("got half extents %v, want (1.5,1.5,1.5)", box.HalfExtents())
	}
}

func TestAABBIntersectsSegment(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name     string
		from, to mgl64.Vec3
		want     bool
	}{
		{"through", mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, true},
		{"stops short", mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{-2, 0, 0}, false},
		{"starts inside", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 5, 0}, true},
		{"misses", mgl64.Vec3{-5, 2, 0}, mgl64.Vec3{5, 2, 0}, false},
		{"axis parallel outside", mgl64.Vec3{2, -5, 0}, mgl64.Vec3{2, 5, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.IntersectsSegment(tt.from, tt.to); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAABBToLocal(t *testing.T) {
	transform := NewTransformAt(mgl64.Vec3{10, 0, 0}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))
	world := AABB{Min: mgl64.Vec3{9, -1, -2}, Max: mgl64.Vec3{11, 1, 2}}

	local := world.ToLocal(transform)

	// a quarter turn around y swaps the x and z extents
	if !vec3ApproxEqual(local.Min, mgl64.Vec3{-2, -1, -1}, 1e-9) {
		t.Errorf("got min %v, want (-2,-1,-1)", local.Min)
	}
	if !vec3ApproxEqual(local.Max, mgl64.Vec3{2, 1, 1}, 1e-9) {
		t.Errorf("got max %v, want (2,1,1)", local.Max)
	}
}

func TestTransformRoundTrip(t *testing.T) {
	transform := NewTransformAt(mgl64.Vec3{1, 2, 3}, mgl64.QuatRotate(0.7, mgl64.Vec3{1, 1, 0}.Normalize()))
	p := mgl64.Vec3{0.3, -4, 2}

	if got := transform.PointToLocal(transform.PointToWorld(p)); !vec3ApproxEqual(got, p, 1e-9) {
		t.Errorf("got %v, want %v", got, p)
	}
	if got := transform.DirectionToLocal(transform.DirectionToWorld(p)); !vec3ApproxEqual(got, p, 1e-9) {
		t.Errorf("got %v, want %v", got, p)
	}
}

func TestTransformSetRotationZero(t *testing.T) {
	var transform Transform
	transform.SetRotation(mgl64.Quat{})

	if transform.Rotation != mgl64.QuatIdent() {
		t.Errorf("got %v, want the identity", transform.Rotation)
	}
}
