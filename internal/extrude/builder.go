package extrude

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/bezier-extrude/internal/curve"
	"github.com/Faultbox/bezier-extrude/internal/shape"
	"github.com/Faultbox/bezier-extrude/pkg/math"
)

// Builder owns the mesh buffers and patches them as control points change.
//
// Layout: segment s emits rings t = 0..rings-1, except that ring 0 of every
// segment after the first is skipped because it coincides with the last ring
// of the previous segment. Global ring g therefore belongs to segment
// (g-1)/(rings-1) and the buffers hold 1 + (rings-1)*segments rings.
// Every mode computes offsets with the same helpers so patches land exactly
// where a full rebuild would have written.
type Builder struct {
	points    *curve.ControlPointSet
	sampler   *curve.Sampler
	shape     *shape.Shape2D
	rings     int
	precision int

	mesh MeshBuffers
	// segLengths caches the estimated length of every segment in the buffers.
	segLengths []float32
	revision   uint64

	log *zap.Logger
}

// NewBuilder creates a builder over points. Call Rebuild before any other patch.
func NewBuilder(points *curve.ControlPointSet, s *shape.Shape2D, rings, precision int, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	if precision < 2 {
		precision = curve.DefaultPrecision
	}
	return &Builder{
		points:    points,
		sampler:   curve.NewSampler(points),
		shape:     s,
		rings:     rings,
		precision: precision,
		log:       log,
	}
}

// Mesh returns the live buffers. Callers must not modify them.
func (b *Builder) Mesh() *MeshBuffers {
	return &b.mesh
}

// Revision counts the patches applied so far.
func (b *Builder) Revision() uint64 {
	return b.revision
}

// Shape returns the profile in use.
func (b *Builder) Shape() *shape.Shape2D {
	return b.shape
}

// RingCount returns the rings per segment.
func (b *Builder) RingCount() int {
	return b.rings
}

// Segments returns the number of segments currently in the buffers.
func (b *Builder) Segments() int {
	return len(b.segLengths)
}

// ArcLength returns the summed segment length estimates of the current mesh.
func (b *Builder) ArcLength() float32 {
	var total float32
	for _, l := range b.segLengths {
		total += l
	}
	return total
}

// SetShape swaps the profile and rebuilds. Invalid profiles are rejected
// before anything changes.
func (b *Builder) SetShape(s *shape.Shape2D) (Region, error) {
	if err := s.Validate(); err != nil {
		return Region{}, err
	}
	b.shape = s
	return b.Rebuild()
}

// SetRingCount changes the rings per segment and rebuilds.
func (b *Builder) SetRingCount(n int) (Region, error) {
	if err := ValidateRingCount(n); err != nil {
		return Region{}, err
	}
	b.rings = n
	return b.Rebuild()
}

// ValidateRingCount checks n against [MinRingCount, MaxRingCount].
func ValidateRingCount(n int) error {
	if n < MinRingCount || n > MaxRingCount {
		return fmt.Errorf("%w: ring count %d outside [%d, %d]", ErrConfiguration, n, MinRingCount, MaxRingCount)
	}
	return nil
}

// Rebuild clears and regenerates every buffer.
func (b *Builder) Rebuild() (Region, error) {
	if err := b.checkInputs(); err != nil {
		return Region{}, err
	}

	segments := b.points.Segments()
	verts := b.vertexCount(segments)
	tris := b.triangleCount(segments)

	b.mesh = MeshBuffers{
		Vertices:  make([]math.Vec3, verts),
		Normals:   make([]math.Vec3, verts),
		UVs:       make([]math.Vec2, verts),
		Triangles: make([]uint32, tris),
	}
	b.segLengths = make([]float32, segments)
	for seg := range segments {
		b.segLengths[seg] = b.sampler.SegmentLength(seg, b.precision)
	}

	b.writeGeometry(0, segments)
	b.writeUVs(0, segments)
	b.writeTriangles(0, segments)
	b.mesh.updateBounds()

	return b.finish(Region{
		Mode:          FullRebuild,
		SegmentStart:  0,
		SegmentEnd:    segments,
		VertexStart:   0,
		VertexEnd:     verts,
		TriangleStart: 0,
		TriangleEnd:   tris,
	}), nil
}

// Append extends the buffers with the segment ending at the newest control
// point. The points must already hold exactly one more segment than the buffers.
func (b *Builder) Append() (Region, error) {
	if err := b.checkInputs(); err != nil {
		return Region{}, err
	}
	seg := b.points.Segments() - 1
	if seg != len(b.segLengths) || seg < 1 {
		return Region{}, fmt.Errorf("%w: append with %d control points over %d built segments",
			ErrInvalidOperation, b.points.Len(), len(b.segLengths))
	}

	vStart, vEnd := b.vertexOffset(seg), b.vertexCount(seg+1)
	tStart, tEnd := b.triangleOffset(seg), b.triangleCount(seg+1)

	b.mesh.Vertices = grow(b.mesh.Vertices, vEnd)
	b.mesh.Normals = grow(b.mesh.Normals, vEnd)
	b.mesh.UVs = grow(b.mesh.UVs, vEnd)
	b.mesh.Triangles = grow(b.mesh.Triangles, tEnd)
	b.segLengths = append(b.segLengths, b.sampler.SegmentLength(seg, b.precision))

	b.writeGeometry(seg, seg+1)
	b.writeUVs(seg, seg+1)
	b.writeTriangles(seg, seg+1)
	b.mesh.updateBounds()

	return b.finish(Region{
		Mode:          AppendSegment,
		SegmentStart:  seg,
		SegmentEnd:    seg + 1,
		VertexStart:   vStart,
		VertexEnd:     vEnd,
		TriangleStart: tStart,
		TriangleEnd:   tEnd,
	}), nil
}

// Delete truncates the trailing segment after the tail control point was removed.
func (b *Builder) Delete() (Region, error) {
	seg := len(b.segLengths) - 1
	if seg != b.points.Segments() || seg < 1 {
		return Region{}, fmt.Errorf("%w: delete with %d control points over %d built segments",
			ErrInvalidOperation, b.points.Len(), len(b.segLengths))
	}

	vStart, vEnd := b.vertexOffset(seg), len(b.mesh.Vertices)
	tStart, tEnd := b.triangleOffset(seg), len(b.mesh.Triangles)

	b.mesh.Vertices = b.mesh.Vertices[:vStart]
	b.mesh.Normals = b.mesh.Normals[:vStart]
	b.mesh.UVs = b.mesh.UVs[:vStart]
	b.mesh.Triangles = b.mesh.Triangles[:tStart]
	b.segLengths = b.segLengths[:seg]
	b.mesh.updateBounds()

	return b.finish(Region{
		Mode:          DeleteSegment,
		SegmentStart:  seg,
		SegmentEnd:    seg + 1,
		VertexStart:   vStart,
		VertexEnd:     vEnd,
		TriangleStart: tStart,
		TriangleEnd:   tEnd,
	}), nil
}

// Modify regenerates the one or two segments adjacent to control point index
// in place. Topology is unchanged; positions, normals and the affected triangle
// range are overwritten. V coordinates of every later ring are refreshed too,
// since they accumulate the lengths of the segments before them.
func (b *Builder) Modify(index int) (Region, error) {
	if err := b.checkInputs(); err != nil {
		return Region{}, err
	}
	n := b.points.Len()
	if index < 0 || index >= n {
		return Region{}, fmt.Errorf("%w: control point %d out of range [0, %d)", ErrInvalidOperation, index, n)
	}
	if len(b.segLengths) != b.points.Segments() {
		return Region{}, fmt.Errorf("%w: modify with %d control points over %d built segments",
			ErrInvalidOperation, n, len(b.segLengths))
	}

	segStart, segEnd := affectedSegments(index, n)
	for seg := segStart; seg < segEnd; seg++ {
		b.segLengths[seg] = b.sampler.SegmentLength(seg, b.precision)
	}

	b.writeGeometry(segStart, segEnd)
	b.writeUVs(segStart, len(b.segLengths))
	b.writeTriangles(segStart, segEnd)
	b.mesh.updateBounds()

	return b.finish(Region{
		Mode:          ModifySegment,
		SegmentStart:  segStart,
		SegmentEnd:    segEnd,
		VertexStart:   b.vertexOffset(segStart),
		VertexEnd:     b.vertexCount(segEnd),
		TriangleStart: b.triangleOffset(segStart),
		TriangleEnd:   b.triangleCount(segEnd),
	}), nil
}

// affectedSegments returns the segment range around a control point: the first
// and last points own one segment, interior points two.
func affectedSegments(index, count int) (start, end int) {
	switch {
	case index == 0:
		return 0, 1
	case index == count-1:
		return count - 2, count - 1
	default:
		return index - 1, index + 1
	}
}

func (b *Builder) checkInputs() error {
	if b.points.Len() < curve.MinControlPoints {
		return fmt.Errorf("%w: need at least %d control points, have %d",
			ErrInvalidOperation, curve.MinControlPoints, b.points.Len())
	}
	if err := b.shape.Validate(); err != nil {
		return err
	}
	return ValidateRingCount(b.rings)
}

func (b *Builder) finish(r Region) Region {
	b.revision++
	b.log.Debug("mesh patched",
		zap.Stringer("mode", r.Mode),
		zap.Int("segment_start", r.SegmentStart),
		zap.Int("segment_end", r.SegmentEnd),
		zap.Int("vertex_start", r.VertexStart),
		zap.Int("vertex_end", r.VertexEnd),
		zap.Int("vertices", len(b.mesh.Vertices)),
		zap.Int("triangles", b.mesh.TriangleCount()),
	)
	return r
}

// firstRing is the first ring a segment emits; segments after the first share
// ring 0 with their predecessor.
func firstRing(seg int) int {
	if seg > 0 {
		return 1
	}
	return 0
}

// vertexOffset is where segment seg's first emitted vertex lives.
func (b *Builder) vertexOffset(seg int) int {
	return (seg*(b.rings-1) + firstRing(seg)) * b.shape.VertexCount()
}

// vertexCount is the vertex buffer length for the given number of segments.
func (b *Builder) vertexCount(segments int) int {
	if segments == 0 {
		return 0
	}
	return (1 + segments*(b.rings-1)) * b.shape.VertexCount()
}

// trianglesPerGap is the index count connecting two adjacent rings: two
// triangles (6 indices) for every edge of the profile.
func (b *Builder) trianglesPerGap() int {
	return 3 * b.shape.LineCount()
}

// triangleOffset is where segment seg's first triangle index lives.
func (b *Builder) triangleOffset(seg int) int {
	return seg * (b.rings - 1) * b.trianglesPerGap()
}

// triangleCount is the index buffer length for the given number of segments.
func (b *Builder) triangleCount(segments int) int {
	return b.triangleOffset(segments)
}

// ringT returns the curve parameter of a segment-local ring.
func (b *Builder) ringT(ring int) float32 {
	return float32(ring) / float32(b.rings-1)
}

// writeGeometry writes positions and normals of segments [segStart, segEnd).
func (b *Builder) writeGeometry(segStart, segEnd int) {
	vc := b.shape.VertexCount()
	for seg := segStart; seg < segEnd; seg++ {
		dst := b.vertexOffset(seg)
		for ring := firstRing(seg); ring < b.rings; ring++ {
			frame := b.sampler.SampleFrame(b.ringT(ring), seg)
			for i := range vc {
				v := b.shape.Vertex(i)
				b.mesh.Vertices[dst] = frame.LocalToWorldPos(v.Point.Vec3())
				b.mesh.Normals[dst] = frame.LocalToWorldDir(v.Normal.Vec3())
				dst++
			}
		}
	}
}

// writeUVs writes texture coordinates of segments [segStart, segEnd). U comes
// from the profile; V is the estimated distance along the curve divided by the
// profile's U span.
func (b *Builder) writeUVs(segStart, segEnd int) {
	span := b.shape.USpan()
	if span == 0 {
		span = 1
	}

	var before float32
	for seg := 0; seg < segStart; seg++ {
		before += b.segLengths[seg]
	}

	vc := b.shape.VertexCount()
	for seg := segStart; seg < segEnd; seg++ {
		dst := b.vertexOffset(seg)
		for ring := firstRing(seg); ring < b.rings; ring++ {
			v := (before + b.ringT(ring)*b.segLengths[seg]) / span
			for i := range vc {
				b.mesh.UVs[dst] = math.Vec2{X: b.shape.Vertex(i).U, Y: v}
				dst++
			}
		}
		before += b.segLengths[seg]
	}
}

// writeTriangles writes the side-wall triangles of segments [segStart, segEnd).
// Each profile edge (A, B) between ring r and r+1 becomes
// (A, nextA, nextB) and (A, nextB, B).
func (b *Builder) writeTriangles(segStart, segEnd int) {
	vc := b.shape.VertexCount()
	edges := b.shape.LineCount() / 2

	dst := b.triangleOffset(segStart)
	for gap := segStart * (b.rings - 1); gap < segEnd*(b.rings-1); gap++ {
		root := gap * vc
		next := (gap + 1) * vc
		for e := range edges {
			la, lb := b.shape.Line(e)
			currentA := uint32(root + la)
			currentB := uint32(root + lb)
			nextA := uint32(next + la)
			nextB := uint32(next + lb)

			tri := b.mesh.Triangles[dst : dst+6]
			tri[0], tri[1], tri[2] = currentA, nextA, nextB
			tri[3], tri[4], tri[5] = currentA, nextB, currentB
			dst += 6
		}
	}
}

// grow extends s to length n, reusing capacity when possible.
func grow[T any](s []T, n int) []T {
	if n <= cap(s) {
		return s[:n]
	}
	out := make([]T, n, n+n/2)
	copy(out, s)
	return out
}
