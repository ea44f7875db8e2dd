package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func createUnitCubeHull() *ConvexHull {
	var points []mgl64.Vec3
	for _, x := range []float64{-1, 1} {
		for _, y := range []float64{-1, 1} {
			for _, z := range []float64{-1, 1} {
				points = append(points, mgl64.Vec3{x, y, z})
			}
		}
	}
	return NewConvexHull(points)
}

func createFloorMesh(half float64) *TriangleMesh {
	vertices := []mgl64.Vec3{
		{-half, 0, -half},
		{half, 0, -half},
		{half, 0, half},
		{-half, 0, half},
	}
	return NewTriangleMesh(vertices, []int{0, 2, 1, 0, 3, 2})
}

func TestShapeRayCast(t *testing.T) {
	tests := []struct {
		name         string
		shape        ShapeInterface
		from, to     mgl64.Vec3
		wantHit      bool
		wantFraction float64
		wantNormal   mgl64.Vec3
	}{
		{"box side", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, true, 0.4, mgl64.Vec3{-1, 0, 0}},
		{"box from inside", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{5, 0, 0}, false, 0, mgl64.Vec3{}},
		{"box too short", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{-2, 0, 0}, false, 0, mgl64.Vec3{}},
		{"sphere", &Sphere{Radius: 1}, mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, true, 0.4, mgl64.Vec3{-1, 0, 0}},
		{"sphere from inside", &Sphere{Radius: 1}, mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{5, 0, 0}, false, 0, mgl64.Vec3{}},
		{"capsule side", &Capsule{Radius: 0.5, HalfHeight: 1}, mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, true, 0.45, mgl64.Vec3{-1, 0, 0}},
		{"capsule top", &Capsule{Radius: 0.5, HalfHeight: 1}, mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -5, 0}, true, 0.35, mgl64.Vec3{0, 1, 0}},
		{"capsule from inside", &Capsule{Radius: 0.5, HalfHeight: 1}, mgl64.Vec3{0, 1.2, 0}, mgl64.Vec3{0, 5, 0}, false, 0, mgl64.Vec3{}},
		{"cylinder cap", &Cylinder{Radius: 0.5, HalfHeight: 1}, mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -5, 0}, true, 0.4, mgl64.Vec3{0, 1, 0}},
		{"cylinder side", &Cylinder{Radius: 0.5, HalfHeight: 1}, mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -5}, true, 0.45, mgl64.Vec3{0, 0, 1}},
		{"hull", createUnitCubeHull(), mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, true, 0.4, mgl64.Vec3{-1, 0, 0}},
		{"hull from inside", createUnitCubeHull(), mgl64.Vec3{0, 0, 0}, mgl64.Vec3{5, 0, 0}, false, 0, mgl64.Vec3{}},
		{"mesh from above", createFloorMesh(1), mgl64.Vec3{0.2, 5, 0.5}, mgl64.Vec3{0.2, -5, 0.5}, true, 0.5, mgl64.Vec3{0, 1, 0}},
		{"mesh from below", createFloorMesh(1), mgl64.Vec3{0.2, -5, 0.5}, mgl64.Vec3{0.2, 5, 0.5}, true, 0.5, mgl64.Vec3{0, -1, 0}},
		{"mesh miss", createFloorMesh(1), mgl64.Vec3{3, 5, 0}, mgl64.Vec3{3, -5, 0}, false, 0, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := tt.shape.RayCast(tt.from, tt.to)
			if ok != tt.wantHit {
				t.Fatalf("got hit %v, want %v", ok, tt.wantHit)
			}
			if !ok {
				return
			}
			if math.Abs(hit.Fraction-tt.wantFraction) > 1e-9 {
				t.Errorf("got fraction %v, want %v", hit.Fraction, tt.wantFraction)
			}
			if !vec3ApproxEqual(hit.Normal, tt.wantNormal, 1e-9) {
				t.Errorf("got normal %v, want %v", hit.Normal, tt.wantNormal)
			}
		})
	}
}

func TestShapeComputeInertia(t *testing.T) {
	tests := []struct {
		name  string
		shape ShapeInterface
		mass  float64
		want  mgl64.Vec3
	}{
		{"box", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, 12, mgl64.Vec3{8, 8, 8}},
		{"sphere", &Sphere{Radius: 1}, 5, mgl64.Vec3{2, 2, 2}},
		{"cylinder", &Cylinder{Radius: 1, HalfHeight: 1}, 12, mgl64.Vec3{7, 6, 7}},
		{"mesh", createFloorMesh(1), 1, mgl64.Vec3{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inertia := tt.shape.ComputeInertia(tt.mass)
			got := mgl64.Vec3{inertia.At(0, 0), inertia.At(1, 1), inertia.At(2, 2)}
			if !vec3ApproxEqual(got, tt.want, 1e-9) {
				t.Errorf("got diagonal %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCapsuleInertiaIsSymmetric(t *testing.T) {
	inertia := (&Capsule{Radius: 0.3, HalfHeight: 0.6}).ComputeInertia(70)

	if inertia.At(0, 0) != inertia.At(2, 2) {
		t.Errorf("got Ixx %v and Izz %v, want them equal", inertia.At(0, 0), inertia.At(2, 2))
	}
	if inertia.At(1, 1) >= inertia.At(0, 0) {
		t.Errorf("got Iyy %v >= Ixx %v for a standing capsule", inertia.At(1, 1), inertia.At(0, 0))
	}
}

func TestShapeComputeAABB(t *testing.T) {
	quarterTurn := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})

	tests := []struct {
		name      string
		shape     ShapeInterface
		transform Transform
		wantMin   mgl64.Vec3
		wantMax   mgl64.Vec3
	}{
		{
			name:      "rotated box",
			shape:     &Box{HalfExtents: mgl64.Vec3{2, 1, 1}},
			transform: NewTransformAt(mgl64.Vec3{0, 0, 0}, quarterTurn),
			wantMin:   mgl64.Vec3{-1, -2, -1},
			wantMax:   mgl64.Vec3{1, 2, 1},
		},
		{
			name:      "translated sphere",
			shape:     &Sphere{Radius: 0.5},
			transform: NewTransformAt(mgl64.Vec3{1, 2, 3}, mgl64.QuatIdent()),
			wantMin:   mgl64.Vec3{0.5, 1.5, 2.5},
			wantMax:   mgl64.Vec3{1.5, 2.5, 3.5},
		},
		{
			name:      "lying capsule",
			shape:     &Capsule{Radius: 0.5, HalfHeight: 1},
			transform: NewTransformAt(mgl64.Vec3{0, 0, 0}, quarterTurn),
			wantMin:   mgl64.Vec3{-1.5, -0.5, -0.5},
			wantMax:   mgl64.Vec3{1.5, 0.5, 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.shape.ComputeAABB(tt.transform)
			aabb := tt.shape.GetAABB()
			if !vec3ApproxEqual(aabb.Min, tt.wantMin, 1e-9) || !vec3ApproxEqual(aabb.Max, tt.wantMax, 1e-9) {
				t.Errorf("got %v-%v, want %v-%v", aabb.Min, aabb.Max, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestBoxGetContactFeature(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}

	tests := []struct {
		direction mgl64.Vec3
		axis      int
		value     float64
	}{
		{mgl64.Vec3{0, 1, 0.2}, 1, 2},
		{mgl64.Vec3{-1, 0.1, 0}, 0, -1},
		{mgl64.Vec3{0, 0, -1}, 2, -3},
	}

	for _, tt := range tests {
		feature := box.GetContactFeature(tt.direction)
		if len(feature) != 4 {
			t.Fatalf("got %d vertices, want 4", len(feature))
		}
		for _, p := range feature {
			if p[tt.axis] != tt.value {
				t.Errorf("direction %v: got vertex %v, want axis %d at %v", tt.direction, p, tt.axis, tt.value)
			}
		}
	}
}

func TestCapsuleSupportAndFeature(t *testing.T) {
	capsule := &Capsule{Radius: 0.5, HalfHeight: 1}

	if got := capsule.Support(mgl64.Vec3{0, -1, 0}); !vec3ApproxEqual(got, mgl64.Vec3{0, -1.5, 0}, 1e-12) {
		t.Errorf("got %v, want (0,-1.5,0)", got)
	}
	if got := capsule.GetContactFeature(mgl64.Vec3{0, -1, 0}); len(got) != 1 {
		t.Errorf("got %d points, want a single point under the capsule", len(got))
	}
	side := capsule.GetContactFeature(mgl64.Vec3{1, 0, 0})
	if len(side) != 2 {
		t.Fatalf("got %d points, want the side line", len(side))
	}
	if side[0].X() != 0.5 || side[1].X() != 0.5 {
		t.Errorf("got %v, want a line at x=0.5", side)
	}
}

func TestCylinderGetContactFeature(t *testing.T) {
	cylinder := &Cylinder{Radius: 0.5, HalfHeight: 1}

	bottom := cylinder.GetContactFeature(mgl64.Vec3{0, -1, 0})
	if len(bottom) != capSegments {
		t.Fatalf("got %d points, want %d", len(bottom), capSegments)
	}
	for _, p := range bottom {
		if p.Y() != -1 {
			t.Errorf("got %v, want a point on the bottom cap", p)
		}
	}
}

func TestNewConvexHull(t *testing.T) {
	t.Run("cube", func(t *testing.T) {
		hull := createUnitCubeHull()
		if hull == nil {
			t.Fatalf("got nil hull")
		}
		if len(hull.faces) != 6 {
			t.Errorf("got %d faces, want 6", len(hull.faces))
		}
		for _, f := range hull.faces {
			if len(f.Vertices) != 4 {
				t.Errorf("got %d vertices on face %v, want 4", len(f.Vertices), f.Normal)
			}
		}
		if got := hull.Support(mgl64.Vec3{1, 1, 1}); got != (mgl64.Vec3{1, 1, 1}) {
			t.Errorf("got support %v, want (1,1,1)", got)
		}
		if got := hull.GetContactFeature(mgl64.Vec3{0, 1, 0}); len(got) != 4 || got[0].Y() != 1 {
			t.Errorf("got feature %v, want the top face", got)
		}
	})

	t.Run("too few points", func(t *testing.T) {
		if hull := NewConvexHull([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}); hull != nil {
			t.Errorf("got a hull, want nil")
		}
	})

	t.Run("flat points", func(t *testing.T) {
		points := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}, {1, 0, 1}}
		if hull := NewConvexHull(points); hull != nil {
			t.Errorf("got a hull, want nil")
		}
	})
}

func TestNewTriangleMesh(t *testing.T) {
	t.Run("skips out of range indices", func(t *testing.T) {
		vertices := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}}
		mesh := NewTriangleMesh(vertices, []int{0, 1, 2, 0, 1, 7})
		if mesh == nil || len(mesh.Triangles) != 1 {
			t.Fatalf("got %v, want a single triangle", mesh)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if mesh := NewTriangleMesh(nil, nil); mesh != nil {
			t.Errorf("got a mesh, want nil")
		}
	})

	t.Run("overlapping", func(t *testing.T) {
		mesh := createFloorMesh(1)
		box := AABB{Min: mgl64.Vec3{0.8, -0.1, -0.9}, Max: mgl64.Vec3{0.9, 0.1, -0.8}}
		if got := mesh.Overlapping(box); len(got) == 0 {
			t.Errorf("got no triangles, want the corner triangle")
		}
		far := AABB{Min: mgl64.Vec3{5, 5, 5}, Max: mgl64.Vec3{6, 6, 6}}
		if got := mesh.Overlapping(far); len(got) != 0 {
			t.Errorf("got %d triangles, want none", len(got))
		}
	})
}

func TestTriangleFeatureWorld(t *testing.T) {
	tri := Triangle{A: mgl64.Vec3{0, 0, 0}, B: mgl64.Vec3{0, 0, 1}, C: mgl64.Vec3{1, 0, 0}}

	if got := tri.FeatureWorld(mgl64.Vec3{0, 1, 0}); len(got) != 3 {
		t.Errorf("got %d points, want the whole face", len(got))
	}
	edge := tri.FeatureWorld(mgl64.Vec3{1, 0, 0})
	if len(edge) != 2 {
		t.Fatalf("got %d points, want an edge", len(edge))
	}
	for _, p := range edge {
		if p == tri.A {
			t.Errorf("got %v, want the edge away from the lowest vertex", edge)
		}
	}
}
