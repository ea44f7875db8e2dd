package physics

import (
	"testing"

	"github.com/akmonengine/stride/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func cornerVertices(half mgl64.Vec3) []mgl64.Vec3 {
	var vertices []mgl64.Vec3
	for _, x := range []float64{-1, 1} {
		for _, y := range []float64{-1, 1} {
			for _, z := range []float64{-1, 1} {
				vertices = append(vertices, mgl64.Vec3{x * half.X(), y * half.Y(), z * half.Z()})
			}
		}
	}
	return vertices
}

func TestBuildShapeDerivesDimensions(t *testing.T) {
	vertices := cornerVertices(mgl64.Vec3{1, 2, 0.5})

	tests := []struct {
		name string
		desc ShapeDescriptor
		want actor.ShapeInterface
	}{
		{"box from mesh", ShapeDescriptor{Kind: ShapeBox, Vertices: vertices}, &actor.Box{HalfExtents: mgl64.Vec3{1, 2, 0.5}}},
		{"explicit box", ShapeDescriptor{Kind: ShapeBox, Vertices: vertices, HalfExtents: mgl64.Vec3{3, 3, 3}}, &actor.Box{HalfExtents: mgl64.Vec3{3, 3, 3}}},
		{"sphere from mesh", ShapeDescriptor{Kind: ShapeSphere, Vertices: vertices}, &actor.Sphere{Radius: 2}},
		{"capsule from mesh", ShapeDescriptor{Kind: ShapeCapsule, Vertices: vertices}, &actor.Capsule{Radius: 1, HalfHeight: 1}},
		{"explicit capsule", ShapeDescriptor{Kind: ShapeCapsule, Radius: 0.3, HalfHeight: 0.6}, &actor.Capsule{Radius: 0.3, HalfHeight: 0.6}},
		{"cylinder from mesh", ShapeDescriptor{Kind: ShapeCylinder, Vertices: vertices}, &actor.Cylinder{Radius: 1, HalfHeight: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildShape(tt.desc)
			if err != nil {
				t.Fatalf("got error %v", err)
			}

			switch want := tt.want.(type) {
			case *actor.Box:
				if box, ok := got.(*actor.Box); !ok || box.HalfExtents != want.HalfExtents {
					t.Errorf("got %#v, want %#v", got, want)
				}
			case *actor.Sphere:
				if sphere, ok := got.(*actor.Sphere); !ok || sphere.Radius != want.Radius {
					t.Errorf("got %#v, want %#v", got, want)
				}
			case *actor.Capsule:
				if capsule, ok := got.(*actor.Capsule); !ok || capsule.Radius != want.Radius || capsule.HalfHeight != want.HalfHeight {
					t.Errorf("got %#v, want %#v", got, want)
				}
			case *actor.Cylinder:
				if cylinder, ok := got.(*actor.Cylinder); !ok || cylinder.Radius != want.Radius || cylinder.HalfHeight != want.HalfHeight {
					t.Errorf("got %#v, want %#v", got, want)
				}
			}
		})
	}
}

func TestBuildShapeMeshes(t *testing.T) {
	convex, err := buildShape(ShapeDescriptor{Kind: ShapeConvexMesh, Vertices: cornerVertices(mgl64.Vec3{1, 1, 1})})
	if err != nil {
		t.Fatalf("got error %v", err)
	}
	if _, ok := convex.(*actor.ConvexHull); !ok {
		t.Errorf("got %T, want a convex hull", convex)
	}

	concave, err := buildShape(ShapeDescriptor{
		Kind:     ShapeConcaveMesh,
		Vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
		Indices:  []int{0, 2, 1},
	})
	if err != nil {
		t.Fatalf("got error %v", err)
	}
	if mesh, ok := concave.(*actor.TriangleMesh); !ok || len(mesh.Triangles) != 1 {
		t.Errorf("got %#v, want a one triangle mesh", concave)
	}
}

func TestBuildShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		desc ShapeDescriptor
	}{
		{"box without dimensions", ShapeDescriptor{Kind: ShapeBox}},
		{"flat box", ShapeDescriptor{Kind: ShapeBox, HalfExtents: mgl64.Vec3{1, 0, 1}}},
		{"sphere without dimensions", ShapeDescriptor{Kind: ShapeSphere}},
		{"negative capsule", ShapeDescriptor{Kind: ShapeCapsule, Radius: 1, HalfHeight: -1}},
		{"flat convex mesh", ShapeDescriptor{Kind: ShapeConvexMesh, Vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}, {1, 0, 1}}}},
		{"concave mesh without indices", ShapeDescriptor{Kind: ShapeConcaveMesh, Vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}}}},
		{"unknown kind", ShapeDescriptor{Kind: 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if shape, err := buildShape(tt.desc); err == nil {
				t.Errorf("got %#v, want an error", shape)
			}
		})
	}
}
