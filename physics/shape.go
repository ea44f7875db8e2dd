package physics

import (
	"math"

	"github.com/akmonengine/stride/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ShapeKind selects the collision shape built from a ShapeDescriptor
type ShapeKind uint8

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCapsule
	ShapeCylinder
	// ShapeConvexMesh wraps the mesh vertices in a convex hull
	ShapeConvexMesh
	// ShapeConcaveMesh keeps the triangles as they are, static bodies only
	ShapeConcaveMesh
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCapsule:
		return "capsule"
	case ShapeCylinder:
		return "cylinder"
	case ShapeConvexMesh:
		return "convex mesh"
	case ShapeConcaveMesh:
		return "concave mesh"
	}
	return "unknown"
}

// ShapeDescriptor describes the collision shape of a body.
// Primitive dimensions left at zero are derived from the bounds of Vertices.
type ShapeDescriptor struct {
	Kind     ShapeKind
	Vertices []mgl64.Vec3
	// Indices lists the triangles of a concave mesh, three per triangle
	Indices []int

	HalfExtents mgl64.Vec3
	Radius      float64
	// HalfHeight is half the inner segment of a capsule, or half the height of a cylinder
	HalfHeight float64
}

// meshHalfExtents returns the largest distance from the origin along each axis
func meshHalfExtents(vertices []mgl64.Vec3) mgl64.Vec3 {
	var half mgl64.Vec3
	for _, v := range vertices {
		for i := 0; i < 3; i++ {
			half[i] = math.Max(half[i], math.Abs(v[i]))
		}
	}
	return half
}

func buildShape(desc ShapeDescriptor) (actor.ShapeInterface, error) {
	half := meshHalfExtents(desc.Vertices)

	switch desc.Kind {
	case ShapeBox:
		extents := desc.HalfExtents
		if extents == (mgl64.Vec3{}) {
			extents = half
		}
		if extents.X() <= 0 || extents.Y() <= 0 || extents.Z() <= 0 {
			return nil, errors.Errorf("box half extents %v must be positive", extents)
		}
		return &actor.Box{HalfExtents: extents}, nil

	case ShapeSphere:
		radius := desc.Radius
		if radius == 0 {
			radius = math.Max(half.X(), math.Max(half.Y(), half.Z()))
		}
		if radius <= 0 {
			return nil, errors.Errorf("sphere radius %v must be positive", radius)
		}
		return &actor.Sphere{Radius: radius}, nil

	case ShapeCapsule:
		radius, halfHeight := desc.Radius, desc.HalfHeight
		if radius == 0 {
			radius = math.Max(half.X(), half.Z())
			halfHeight = math.Max(half.Y()-radius, 0)
		}
		if radius <= 0 || halfHeight < 0 {
			return nil, errors.Errorf("capsule radius %v and half height %v are invalid", radius, halfHeight)
		}
		return &actor.Capsule{Radius: radius, HalfHeight: halfHeight}, nil

	case ShapeCylinder:
		radius, halfHeight := desc.Radius, desc.HalfHeight
		if radius == 0 {
			radius = math.Max(half.X(), half.Z())
		}
		if halfHeight == 0 {
			halfHeight = half.Y()
		}
		if radius <= 0 || halfHeight <= 0 {
			return nil, errors.Errorf("cylinder radius %v and half height %v must be positive", radius, halfHeight)
		}
		return &actor.Cylinder{Radius: radius, HalfHeight: halfHeight}, nil

	case ShapeConvexMesh:
		hull := actor.NewConvexHull(desc.Vertices)
		if hull == nil {
			return nil, errors.Errorf("convex mesh of %d vertices has no volume", len(desc.Vertices))
		}
		return hull, nil

	case ShapeConcaveMesh:
		mesh := actor.NewTriangleMesh(desc.Vertices, desc.Indices)
		if mesh == nil {
			return nil, errors.Errorf("concave mesh of %d vertices has no triangle", len(desc.Vertices))
		}
		return mesh, nil
	}

	return nil, errors.Errorf("unknown shape kind %d", desc.Kind)
}
