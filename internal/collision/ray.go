// Package collision provides ray queries against generated meshes.
package collision

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/bezier-extrude/internal/extrude"
	"github.com/Faultbox/bezier-extrude/pkg/math"
)

// triangleEpsilon is the determinant below which a ray counts as parallel to a triangle.
const triangleEpsilon = 1e-7

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// NewRay creates a ray, normalizing dir.
func NewRay(origin, dir math.Vec3) Ray {
	return Ray{Origin: origin, Direction: dir.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// NewAABB creates an AABB from two corners in any order.
func NewAABB(a, b math.Vec3) AABB {
	return AABB{Min: a.Min(b), Max: a.Max(b)}
}

// FromBounds converts mesh bounds to an AABB.
func FromBounds(b extrude.Bounds) AABB {
	return AABB{Min: b.Min, Max: b.Max}
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)

	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()

	for axis := range 3 {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle runs the Moller-Trumbore test against triangle (a, b, c).
// Both faces count as hits. Returns the distance along the ray.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, hit bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)

	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)
	if math32.Abs(det) < triangleEpsilon {
		return 0, false
	}
	inv := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = edge2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// Hit describes the closest ray/mesh intersection.
type Hit struct {
	Distance float32
	Point    math.Vec3
	// Triangle is the index of the first of the triangle's three entries in
	// the mesh index buffer.
	Triangle int
	// Normal is the geometric face normal, flipped to face the ray.
	Normal math.Vec3
}

// Raycast returns the closest triangle of mesh hit by the ray. The mesh bounds
// are tested first so rays that miss the whole mesh cost one slab test.
func Raycast(r Ray, mesh *extrude.MeshBuffers) (Hit, bool) {
	if mesh == nil || len(mesh.Triangles) == 0 {
		return Hit{}, false
	}
	if _, ok := r.IntersectAABB(FromBounds(mesh.Bounds)); !ok {
		return Hit{}, false
	}

	best := Hit{Distance: math32.MaxFloat32, Triangle: -1}
	for i := 0; i+2 < len(mesh.Triangles); i += 3 {
		a := mesh.Vertices[mesh.Triangles[i]]
		b := mesh.Vertices[mesh.Triangles[i+1]]
		c := mesh.Vertices[mesh.Triangles[i+2]]

		t, ok := r.IntersectTriangle(a, b, c)
		if !ok || t >= best.Distance {
			continue
		}
		best.Distance = t
		best.Triangle = i
		best.Normal = b.Sub(a).Cross(c.Sub(a)).Normalize()
	}

	if best.Triangle < 0 {
		return Hit{}, false
	}
	if best.Normal.Dot(r.Direction) > 0 {
		best.Normal = best.Normal.Neg()
	}
	best.Point = r.At(best.Distance)
	return best, true
}
