package shape

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/bezier-extrude/pkg/math"
)

func TestNewValidation(t *testing.T) {
	two := []Vertex{
		{Point: math.Vec2{X: 0, Y: 0}},
		{Point: math.Vec2{X: 1, Y: 0}},
	}

	tests := []struct {
		name     string
		vertices []Vertex
		lines    []int
		wantErr  bool
	}{
		{"valid", two, []int{0, 1}, false},
		{"no lines", two, nil, false},
		{"no vertices", nil, []int{}, true},
		{"odd lines", two, []int{0, 1, 1}, true},
		{"index too large", two, []int{0, 2}, true},
		{"negative index", two, []int{-1, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.name, tt.vertices, tt.lines)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAsset)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.vertices), s.VertexCount())
			assert.Equal(t, len(tt.lines), s.LineCount())
		})
	}
}

func TestNewCopiesInput(t *testing.T) {
	vertices := []Vertex{{Point: math.Vec2{X: 0}}, {Point: math.Vec2{X: 1}}}
	lines := []int{0, 1}
	s, err := New("copy", vertices, lines)
	require.NoError(t, err)

	vertices[0].Point.X = 42
	lines[0] = 1

	assert.Equal(t, float32(0), s.Vertex(0).Point.X)
	a, b := s.Line(0)
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
}

func TestUSpanFollowsVertexOrder(t *testing.T) {
	// The closing edge 3->0 is in Lines but not counted by USpan.
	q := Quad(2)
	assert.InDelta(t, 6.0, q.USpan(), 1e-5)

	r := Road(4, 0.25)
	// curb + zero-length corner + width + zero-length corner + curb
	assert.InDelta(t, 4.5, r.USpan(), 1e-5)
}

func TestBuiltin(t *testing.T) {
	q, err := Builtin(BuiltinQuad)
	require.NoError(t, err)
	assert.Equal(t, 4, q.VertexCount())
	assert.Equal(t, 8, q.LineCount())

	r, err := Builtin(BuiltinRoad)
	require.NoError(t, err)
	assert.Equal(t, 6, r.VertexCount())
	assert.Equal(t, 6, r.LineCount())

	_, err = Builtin("triangle")
	assert.ErrorIs(t, err, ErrInvalidAsset)
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
name: strip
vertices:
  - point: [-1, 0]
    normal: [0, 1]
    u: 0
  - point: [1, 0]
    normal: [0, 1]
    u: 1
lines: [0, 1]
`)
	s, err := Parse(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "strip", s.Name())
	assert.Equal(t, 2, s.VertexCount())
	assert.Equal(t, math.Vec2{X: -1, Y: 0}, s.Vertex(0).Point)
	assert.Equal(t, float32(1), s.Vertex(1).U)
	assert.InDelta(t, 2.0, s.USpan(), 1e-6)
}

func TestParseTOML(t *testing.T) {
	data := []byte(`
name = "strip"
lines = [0, 1]

[[vertices]]
point = [-1.0, 0.0]
normal = [0.0, 1.0]
u = 0.0

[[vertices]]
point = [1.0, 0.0]
normal = [0.0, 1.0]
u = 1.0
`)
	s, err := Parse(data, FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, 2, s.VertexCount())
	assert.Equal(t, math.Vec2{X: 1, Y: 0}, s.Vertex(1).Point)
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "name: empty\n"},
		{"odd lines", "vertices:\n  - point: [0, 0]\nlines: [0]\n"},
		{"out of range", "vertices:\n  - point: [0, 0]\nlines: [0, 3]\n"},
		{"syntax", "vertices: [[[\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), FormatYAML)
			assert.ErrorIs(t, err, ErrInvalidAsset)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, ext := range []string{".yaml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "road"+ext)
			want := Road(4, 0.25)
			require.NoError(t, Save(want, path))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, want.Name(), got.Name())
			assert.Equal(t, want.Vertices(), got.Vertices())
			assert.Equal(t, want.Lines(), got.Lines())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("/nonexistent/shape.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "shape.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidAsset)
}

func TestZeroValueShapeInvalid(t *testing.T) {
	var nilShape *Shape2D
	assert.ErrorIs(t, nilShape.Validate(), ErrInvalidAsset)
	assert.ErrorIs(t, (&Shape2D{}).Validate(), ErrInvalidAsset)
	assert.NoError(t, Default().Validate())
}
