// Package extrude sweeps a 2D profile along a Bezier chain and keeps the
// resulting mesh buffers up to date with incremental patches.
package extrude

import (
	"errors"
	"fmt"

	"github.com/Faultbox/bezier-extrude/internal/curve"
	"github.com/Faultbox/bezier-extrude/pkg/math"
)

var (
	// ErrInvalidOperation is returned for edits that would break the control
	// point invariants (it is the same value as curve.ErrInvalidOperation).
	ErrInvalidOperation = curve.ErrInvalidOperation

	// ErrConfiguration is returned for out-of-range settings.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotInitialized is returned when the extruder is used before
	// Initialize or after Shutdown.
	ErrNotInitialized = errors.New("extruder not initialized")
)

// Ring count limits.
const (
	MinRingCount     = 2
	MaxRingCount     = 32
	DefaultRingCount = 8
)

// Material is an opaque render material reference owned by the host.
type Material string

// PatchMode selects which part of the buffers a generation pass touches.
type PatchMode int

const (
	FullRebuild PatchMode = iota
	AppendSegment
	DeleteSegment
	ModifySegment
)

func (m PatchMode) String() string {
	switch m {
	case FullRebuild:
		return "FullRebuild"
	case AppendSegment:
		return "AppendSegment"
	case DeleteSegment:
		return "DeleteSegment"
	case ModifySegment:
		return "ModifySegment"
	default:
		return fmt.Sprintf("PatchMode(%d)", int(m))
	}
}

// Region describes the buffer range touched by one patch. End values are exclusive.
type Region struct {
	Mode          PatchMode
	SegmentStart  int
	SegmentEnd    int
	VertexStart   int
	VertexEnd     int
	TriangleStart int
	TriangleEnd   int
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Size returns the box extents.
func (b Bounds) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Vertex is one interleaved vertex for GPU upload.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// MeshBuffers holds the generated mesh as parallel arrays. Vertices, Normals
// and UVs share indexing; Triangles holds index triples.
type MeshBuffers struct {
	Vertices  []math.Vec3
	Normals   []math.Vec3
	UVs       []math.Vec2
	Triangles []uint32
	Bounds    Bounds
}

// Clone returns a deep copy.
func (m *MeshBuffers) Clone() MeshBuffers {
	return MeshBuffers{
		Vertices:  append([]math.Vec3(nil), m.Vertices...),
		Normals:   append([]math.Vec3(nil), m.Normals...),
		UVs:       append([]math.Vec2(nil), m.UVs...),
		Triangles: append([]uint32(nil), m.Triangles...),
		Bounds:    m.Bounds,
	}
}

// TriangleCount returns the number of triangles.
func (m *MeshBuffers) TriangleCount() int {
	return len(m.Triangles) / 3
}

// Interleave packs the parallel arrays into one vertex slice.
func (m *MeshBuffers) Interleave() []Vertex {
	out := make([]Vertex, len(m.Vertices))
	for i := range m.Vertices {
		out[i] = Vertex{
			Position: m.Vertices[i].Array(),
			Normal:   m.Normals[i].Array(),
			TexCoord: [2]float32{m.UVs[i].X, m.UVs[i].Y},
		}
	}
	return out
}

func (m *MeshBuffers) updateBounds() {
	if len(m.Vertices) == 0 {
		m.Bounds = Bounds{}
		return
	}
	b := Bounds{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		b.Min = b.Min.Min(v)
		b.Max = b.Max.Max(v)
	}
	m.Bounds = b
}

// Stats summarizes the current mesh for logs and tools.
type Stats struct {
	ControlPoints int
	Segments      int
	RingCount     int
	Vertices      int
	Triangles     int
	ArcLength     float32
	Bounds        Bounds
}
