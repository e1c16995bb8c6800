package extrude

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/bezier-extrude/internal/curve"
	"github.com/Faultbox/bezier-extrude/internal/shape"
	"github.com/Faultbox/bezier-extrude/pkg/math"
)

// closedQuad is a 2x2 square outline with lines [0,1,1,2,2,3,3,0].
func closedQuad(t *testing.T) *shape.Shape2D {
	t.Helper()
	s, err := shape.New("quad", []shape.Vertex{
		{Point: math.Vec2{X: -1, Y: -1}, Normal: math.Vec2{X: -1}, U: 0},
		{Point: math.Vec2{X: -1, Y: 1}, Normal: math.Vec2{X: -1}, U: 0.25},
		{Point: math.Vec2{X: 1, Y: 1}, Normal: math.Vec2{X: 1}, U: 0.5},
		{Point: math.Vec2{X: 1, Y: -1}, Normal: math.Vec2{X: 1}, U: 0.75},
	}, []int{0, 1, 1, 2, 2, 3, 3, 0})
	require.NoError(t, err)
	return s
}

// newPoints builds n control points; the second is placed 10 units along +Z.
func newPoints(t *testing.T, n int) *curve.ControlPointSet {
	t.Helper()
	pts := curve.NewControlPointSet()
	for i := 0; i < n; i++ {
		pts.Append()
	}
	h, err := pts.Handle(1)
	require.NoError(t, err)
	h.SetPosition(math.Vec3{Z: 10})
	pts.DetectChanges()
	return pts
}

func newBuilder(t *testing.T, pts *curve.ControlPointSet, s *shape.Shape2D, rings int) *Builder {
	t.Helper()
	b := NewBuilder(pts, s, rings, curve.DefaultPrecision, nil)
	_, err := b.Rebuild()
	require.NoError(t, err)
	return b
}

func expectedVertices(s *shape.Shape2D, rings, points int) int {
	return s.VertexCount() * (1 + (rings-1)*(points-1))
}

func expectedIndices(s *shape.Shape2D, rings, points int) int {
	return 3 * 2 * (s.LineCount() / 2) * (rings - 1) * (points - 1)
}

func TestRebuildQuadScenario(t *testing.T) {
	pts := newPoints(t, 2)
	b := newBuilder(t, pts, closedQuad(t), 2)
	m := b.Mesh()

	assert.Len(t, m.Vertices, 8)
	assert.Len(t, m.Normals, 8)
	assert.Len(t, m.UVs, 8)
	assert.Len(t, m.Triangles, 24)

	assert.True(t, m.Bounds.Min.ApproxEqual(math.Vec3{X: -1, Y: -1, Z: 0}, 1e-5), "min %v", m.Bounds.Min)
	assert.True(t, m.Bounds.Max.ApproxEqual(math.Vec3{X: 1, Y: 1, Z: 10}, 1e-5), "max %v", m.Bounds.Max)

	// Both rings reproduce the outline at their end of the curve.
	for i := 0; i < 4; i++ {
		p := closedQuad(t).Vertex(i).Point
		assert.True(t, m.Vertices[i].ApproxEqual(math.Vec3{X: p.X, Y: p.Y, Z: 0}, 1e-5))
		assert.True(t, m.Vertices[4+i].ApproxEqual(math.Vec3{X: p.X, Y: p.Y, Z: 10}, 1e-5))
	}
}

func TestRebuildTriangleWinding(t *testing.T) {
	pts := newPoints(t, 2)
	b := newBuilder(t, pts, closedQuad(t), 2)

	// Edge (0,1) between ring 0 (0..3) and ring 1 (4..7).
	assert.Equal(t, []uint32{0, 4, 5, 0, 5, 1}, b.Mesh().Triangles[:6])
	// Closing edge (3,0).
	assert.Equal(t, []uint32{3, 7, 4, 3, 4, 0}, b.Mesh().Triangles[18:24])
}

func TestRebuildBufferLengths(t *testing.T) {
	shapes := map[string]*shape.Shape2D{
		"quad": shape.Quad(1),
		"road": shape.Road(4, 0.25),
	}

	for name, s := range shapes {
		for _, rings := range []int{2, 3, 8, 32} {
			for _, n := range []int{2, 3, 5} {
				pts := newPoints(t, n)
				b := newBuilder(t, pts, s, rings)
				m := b.Mesh()

				assert.Len(t, m.Vertices, expectedVertices(s, rings, n), "%s rings=%d points=%d", name, rings, n)
				assert.Len(t, m.Triangles, expectedIndices(s, rings, n), "%s rings=%d points=%d", name, rings, n)
				for _, idx := range m.Triangles {
					require.Less(t, int(idx), len(m.Vertices))
				}
			}
		}
	}
}

func TestAppendSegment(t *testing.T) {
	s := closedQuad(t)
	pts := newPoints(t, 2)
	b := newBuilder(t, pts, s, 4)
	before := b.Mesh().Clone()

	pts.Append()
	r, err := b.Append()
	require.NoError(t, err)

	m := b.Mesh()
	assert.Equal(t, AppendSegment, r.Mode)
	assert.Equal(t, len(before.Vertices)+s.VertexCount()*(4-1), len(m.Vertices))
	assert.Equal(t, before.Vertices, m.Vertices[:len(before.Vertices)], "segment 0 untouched")
	assert.Equal(t, before.Triangles, m.Triangles[:len(before.Triangles)])
	assert.Equal(t, len(before.Vertices), r.VertexStart)
	assert.Equal(t, len(m.Vertices), r.VertexEnd)
}

func TestAppendMatchesRebuild(t *testing.T) {
	s := shape.Road(4, 0.25)
	pts := newPoints(t, 2)
	b := newBuilder(t, pts, s, 6)

	pts.Append()
	_, err := b.Append()
	require.NoError(t, err)

	fresh := newBuilder(t, pts, s, 6)
	assert.Equal(t, fresh.Mesh().Clone(), b.Mesh().Clone())
}

func TestAppendDeleteRoundTrip(t *testing.T) {
	s := closedQuad(t)
	pts := newPoints(t, 3)
	b := newBuilder(t, pts, s, 5)
	before := b.Mesh().Clone()

	pts.Append()
	_, err := b.Append()
	require.NoError(t, err)

	require.NoError(t, pts.RemoveLast())
	r, err := b.Delete()
	require.NoError(t, err)

	assert.Equal(t, DeleteSegment, r.Mode)
	assert.Equal(t, before, b.Mesh().Clone())
}

func TestDeleteTruncatesTail(t *testing.T) {
	s := closedQuad(t)
	pts := newPoints(t, 4)
	b := newBuilder(t, pts, s, 3)
	n := len(b.Mesh().Vertices)
	ni := len(b.Mesh().Triangles)

	require.NoError(t, pts.RemoveLast())
	_, err := b.Delete()
	require.NoError(t, err)

	assert.Len(t, b.Mesh().Vertices, n-(3-1)*s.VertexCount())
	assert.Len(t, b.Mesh().Triangles, ni-(3-1)*3*s.LineCount())
}

func TestPatchOutOfSync(t *testing.T) {
	pts := newPoints(t, 3)
	b := newBuilder(t, pts, closedQuad(t), 3)
	before := b.Mesh().Clone()

	_, err := b.Append()
	assert.ErrorIs(t, err, ErrInvalidOperation, "no point was appended")

	_, err = b.Delete()
	assert.ErrorIs(t, err, ErrInvalidOperation, "no point was removed")

	_, err = b.Modify(3)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	assert.Equal(t, before, b.Mesh().Clone())
}

func TestModifyRegions(t *testing.T) {
	s := closedQuad(t)
	pts := newPoints(t, 4)
	b := newBuilder(t, pts, s, 3)

	tests := []struct {
		index      int
		start, end int
	}{
		{0, 0, 1},
		{1, 0, 2},
		{2, 1, 3},
		{3, 2, 3},
	}

	for _, tt := range tests {
		r, err := b.Modify(tt.index)
		require.NoError(t, err)
		assert.Equal(t, ModifySegment, r.Mode)
		assert.Equal(t, tt.start, r.SegmentStart, "index %d", tt.index)
		assert.Equal(t, tt.end, r.SegmentEnd, "index %d", tt.index)
		assert.Equal(t, b.vertexOffset(tt.start), r.VertexStart)
		assert.Equal(t, tt.start*(3-1)*3*s.LineCount(), r.TriangleStart)
	}
}

func TestModifyMatchesRebuild(t *testing.T) {
	shapes := []*shape.Shape2D{closedQuad(t), shape.Road(4, 0.25)}

	for _, s := range shapes {
		for _, rings := range []int{2, 5, 9} {
			for _, n := range []int{2, 3, 5} {
				for index := 0; index < n; index++ {
					pts := newPoints(t, n)
					b := newBuilder(t, pts, s, rings)

					h, err := pts.Handle(index)
					require.NoError(t, err)
					h.SetPosition(h.Position().Add(math.Vec3{X: 3, Y: -2, Z: 1.5}))
					h.SetRotation(math.QuatFromAxisAngle(math.Vec3{X: 0.3, Y: 1, Z: 0.2}.Normalize(), 0.7))
					h.SetContinuity(4)

					changed := pts.DetectChanges()
					require.Equal(t, []int{index}, changed)
					_, err = b.Modify(index)
					require.NoError(t, err)

					fresh := newBuilder(t, pts, s, rings)
					assert.Equal(t, fresh.Mesh().Clone(), b.Mesh().Clone(),
						"%s rings=%d points=%d index=%d", s.Name(), rings, n, index)
				}
			}
		}
	}
}

func TestModifyLeavesUnaffectedGeometry(t *testing.T) {
	s := closedQuad(t)
	pts := newPoints(t, 5)
	b := newBuilder(t, pts, s, 4)
	before := b.Mesh().Clone()

	h, _ := pts.Handle(1)
	h.SetPosition(h.Position().Add(math.Vec3{Y: 5}))
	r, err := b.Modify(1)
	require.NoError(t, err)

	m := b.Mesh()
	assert.Equal(t, before.Vertices[r.VertexEnd:], m.Vertices[r.VertexEnd:])
	assert.Equal(t, before.Normals[r.VertexEnd:], m.Normals[r.VertexEnd:])
	assert.Equal(t, before.Triangles, m.Triangles, "topology unchanged")
	assert.NotEqual(t, before.Vertices[r.VertexStart:r.VertexEnd], m.Vertices[r.VertexStart:r.VertexEnd])
}

func TestUVs(t *testing.T) {
	s := closedQuad(t)
	pts := newPoints(t, 3)
	b := newBuilder(t, pts, s, 3)
	m := b.Mesh()

	// U comes from the profile on every ring.
	for i, uv := range m.UVs {
		assert.Equal(t, s.Vertex(i%s.VertexCount()).U, uv.X)
	}

	// V starts at zero and grows monotonically ring to ring.
	assert.Equal(t, float32(0), m.UVs[0].Y)
	rings := len(m.UVs) / s.VertexCount()
	for r := 1; r < rings; r++ {
		assert.Greater(t, m.UVs[r*s.VertexCount()].Y, m.UVs[(r-1)*s.VertexCount()].Y)
	}

	// The last ring sits at the total length over the profile span.
	last := m.UVs[len(m.UVs)-1].Y
	assert.InDelta(t, b.ArcLength()/s.USpan(), last, 1e-4)
}

func TestUVsZeroSpan(t *testing.T) {
	point, err := shape.New("point", []shape.Vertex{{}}, nil)
	require.NoError(t, err)
	require.Zero(t, point.USpan())

	pts := newPoints(t, 2)
	b := newBuilder(t, pts, point, 2)
	m := b.Mesh()
	assert.Len(t, m.Vertices, 2)
	assert.Empty(t, m.Triangles)
	assert.InDelta(t, 10, m.UVs[1].Y, 1e-3)
	assert.False(t, gomath.IsNaN(float64(m.UVs[1].Y)))
}

func TestSetShapeRejectsInvalid(t *testing.T) {
	pts := newPoints(t, 2)
	b := newBuilder(t, pts, closedQuad(t), 2)
	before := b.Mesh().Clone()

	_, err := b.SetShape(&shape.Shape2D{})
	assert.ErrorIs(t, err, shape.ErrInvalidAsset)
	_, err = b.SetShape(nil)
	assert.ErrorIs(t, err, shape.ErrInvalidAsset)

	assert.Equal(t, before, b.Mesh().Clone())
}

func TestSetRingCountRange(t *testing.T) {
	pts := newPoints(t, 2)
	b := newBuilder(t, pts, closedQuad(t), 2)

	for _, n := range []int{0, 1, 33} {
		_, err := b.SetRingCount(n)
		assert.ErrorIs(t, err, ErrConfiguration, "n=%d", n)
	}
	assert.Equal(t, 2, b.RingCount())

	r, err := b.SetRingCount(32)
	require.NoError(t, err)
	assert.Equal(t, FullRebuild, r.Mode)
	assert.Len(t, b.Mesh().Vertices, 4*32)
}

func TestInterleave(t *testing.T) {
	pts := newPoints(t, 2)
	b := newBuilder(t, pts, closedQuad(t), 2)
	m := b.Mesh()

	v := m.Interleave()
	require.Len(t, v, len(m.Vertices))
	assert.Equal(t, m.Vertices[5].Array(), v[5].Position)
	assert.Equal(t, m.Normals[5].Array(), v[5].Normal)
	assert.Equal(t, [2]float32{m.UVs[5].X, m.UVs[5].Y}, v[5].TexCoord)
}

func TestPatchModeString(t *testing.T) {
	assert.Equal(t, "FullRebuild", FullRebuild.String())
	assert.Equal(t, "ModifySegment", ModifySegment.String())
	assert.Equal(t, "PatchMode(9)", PatchMode(9).String())
}
