package actor

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

const hullPlaneTolerance = 1e-7

// hullFace is one planar face of a convex hull: Normal·p = Distance, vertices ordered CCW from outside
type hullFace struct {
	Normal   mgl64.Vec3
	Distance float64
	Vertices []mgl64.Vec3
}

// ConvexHull is the convex hull of a point cloud, in local space.
// Faces are extracted once at construction by testing every vertex triple,
// which is fine for the small hulls used as colliders.
type ConvexHull struct {
	Points []mgl64.Vec3
	faces  []hullFace
	bounds AABB
	aabb   AABB
}

// NewConvexHull builds a hull from a point cloud. Returns nil when the points do not span a volume.
func NewConvexHull(points []mgl64.Vec3) *ConvexHull {
	if len(points) < 4 {
		return nil
	}

	h := &ConvexHull{Points: append([]mgl64.Vec3(nil), points...)}
	h.bounds = AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			h.bounds.Min[i] = math.Min(h.bounds.Min[i], p[i])
			h.bounds.Max[i] = math.Max(h.bounds.Max[i], p[i])
		}
	}

	h.buildFaces()
	if len(h.faces) < 4 {
		return nil
	}
	return h
}

func (h *ConvexHull) buildFaces() {
	scale := math.Max(1, h.bounds.Max.Sub(h.bounds.Min).Len())
	tolerance := hullPlaneTolerance * scale

	n := len(h.Points)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				normal := h.Points[j].Sub(h.Points[i]).Cross(h.Points[k].Sub(h.Points[i]))
				if normal.Len() < 1e-10 {
					continue
				}
				normal = normal.Normalize()
				distance := normal.Dot(h.Points[i])

				above, below := false, false
				for _, p := range h.Points {
					side := normal.Dot(p) - distance
					if side > tolerance {
						above = true
					} else if side < -tolerance {
						below = true
					}
					if above && below {
						break
					}
				}

				switch {
				case above && below:
					continue
				case above:
					normal = normal.Mul(-1)
					distance = -distance
				}

				if h.hasFace(normal, distance, tolerance) {
					continue
				}
				h.faces = append(h.faces, hullFace{
					Normal:   normal,
					Distance: distance,
					Vertices: h.faceVertices(normal, distance, tolerance),
				})
			}
		}
	}
}

func (h *ConvexHull) hasFace(normal mgl64.Vec3, distance, tolerance float64) bool {
	for _, f := range h.faces {
		if f.Normal.Dot(normal) > 1-1e-9 && math.Abs(f.Distance-distance) < tolerance {
			return true
		}
	}
	return false
}

// faceVertices collects the points lying on a plane and orders them counter-clockwise around the normal
func (h *ConvexHull) faceVertices(normal mgl64.Vec3, distance, tolerance float64) []mgl64.Vec3 {
	var vertices []mgl64.Vec3
	for _, p := range h.Points {
		if math.Abs(normal.Dot(p)-distance) <= tolerance {
			vertices = append(vertices, p)
		}
	}

	center := mgl64.Vec3{}
	for _, v := range vertices {
		center = center.Add(v)
	}
	center = center.Mul(1.0 / float64(len(vertices)))

	t1, t2 := tangentBasis(normal)
	sort.Slice(vertices, func(a, b int) bool {
		da := vertices[a].Sub(center)
		db := vertices[b].Sub(center)
		return math.Atan2(da.Dot(t2), da.Dot(t1)) < math.Atan2(db.Dot(t2), db.Dot(t1))
	})
	return vertices
}

func (h *ConvexHull) Type() ShapeType { return ShapeTypeConvexHull }

func (h *ConvexHull) ComputeAABB(transform Transform) {
	h.aabb = transformedAABB(h.bounds, transform)
}

func (h *ConvexHull) GetAABB() AABB {
	return h.aabb
}

func (h *ConvexHull) LocalBounds() AABB {
	return h.bounds
}

// ComputeInertia approximates the hull by its bounding box
func (h *ConvexHull) ComputeInertia(mass float64) mgl64.Mat3 {
	box := Box{HalfExtents: h.bounds.HalfExtents()}
	return box.ComputeInertia(mass)
}

func (h *ConvexHull) Support(direction mgl64.Vec3) mgl64.Vec3 {
	best := h.Points[0]
	bestDot := best.Dot(direction)
	for _, p := range h.Points[1:] {
		if d := p.Dot(direction); d > bestDot {
			best, bestDot = p, d
		}
	}
	return best
}

func (h *ConvexHull) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	bestDot := math.Inf(-1)
	var best []mgl64.Vec3
	for _, f := range h.faces {
		if d := f.Normal.Dot(direction); d > bestDot {
			bestDot = d
			best = f.Vertices
		}
	}
	return best
}

// RayCast clips the segment against every face plane (Cyrus-Beck)
func (h *ConvexHull) RayCast(from, to mgl64.Vec3) (RayHit, bool) {
	d := to.Sub(from)
	tEnter, tExit := math.Inf(-1), math.Inf(1)
	var normal mgl64.Vec3
	inside := true

	for _, f := range h.faces {
		dist := f.Normal.Dot(from) - f.Distance
		if dist > 0 {
			inside = false
		}
		denom := f.Normal.Dot(d)
		if math.Abs(denom) < 1e-12 {
			if dist > 0 {
				return RayHit{}, false
			}
			continue
		}

		t := -dist / denom
		if denom < 0 {
			if t > tEnter {
				tEnter = t
				normal = f.Normal
			}
		} else if t < tExit {
			tExit = t
		}
		if tEnter > tExit {
			return RayHit{}, false
		}
	}

	if inside || tEnter < 0 || tEnter > 1 {
		return RayHit{}, false
	}
	return RayHit{Fraction: tEnter, Normal: normal}, true
}
