// Package shape defines the 2D cross-section profiles that are swept along a curve.
package shape

import (
	"errors"
	"fmt"

	"github.com/Faultbox/bezier-extrude/pkg/math"
)

// ErrInvalidAsset is returned for malformed profiles.
var ErrInvalidAsset = errors.New("invalid shape asset")

// Vertex is one outline point of a profile.
type Vertex struct {
	Point  math.Vec2 // Position in the frame's XY plane
	Normal math.Vec2 // Outward normal in the same plane
	U      float32   // Texture U coordinate
}

// Shape2D is an immutable cross-section outline. Lines holds index pairs
// (stride 2) naming the edges that become side walls; the pairs may form
// several disjoint strips.
type Shape2D struct {
	name     string
	vertices []Vertex
	lines    []int
	uSpan    float32
}

// New validates and builds a profile. The slices are copied.
func New(name string, vertices []Vertex, lines []int) (*Shape2D, error) {
	if err := Validate(vertices, lines); err != nil {
		return nil, fmt.Errorf("shape %q: %w", name, err)
	}

	s := &Shape2D{
		name:     name,
		vertices: append([]Vertex(nil), vertices...),
		lines:    append([]int(nil), lines...),
	}
	s.uSpan = calcUSpan(s.vertices)
	return s, nil
}

// Validate checks the profile invariants: at least one vertex, an even number
// of line indices and every index in range.
func Validate(vertices []Vertex, lines []int) error {
	if len(vertices) == 0 {
		return fmt.Errorf("%w: no vertices", ErrInvalidAsset)
	}
	if len(lines)%2 != 0 {
		return fmt.Errorf("%w: odd line index count %d", ErrInvalidAsset, len(lines))
	}
	for i, idx := range lines {
		if idx < 0 || idx >= len(vertices) {
			return fmt.Errorf("%w: line index %d at position %d out of range [0, %d)",
				ErrInvalidAsset, idx, i, len(vertices))
		}
	}
	return nil
}

// Validate re-checks the invariants; a nil or zero-value profile is invalid.
func (s *Shape2D) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil shape", ErrInvalidAsset)
	}
	return Validate(s.vertices, s.lines)
}

// Name returns the asset name.
func (s *Shape2D) Name() string {
	return s.name
}

// VertexCount returns the number of outline points.
func (s *Shape2D) VertexCount() int {
	return len(s.vertices)
}

// LineCount returns the number of line indices (twice the edge count).
func (s *Shape2D) LineCount() int {
	return len(s.lines)
}

// Vertex returns the i-th outline point.
func (s *Shape2D) Vertex(i int) Vertex {
	return s.vertices[i]
}

// Line returns the endpoints of the i-th edge.
func (s *Shape2D) Line(i int) (a, b int) {
	return s.lines[2*i], s.lines[2*i+1]
}

// Vertices returns a copy of the outline points.
func (s *Shape2D) Vertices() []Vertex {
	return append([]Vertex(nil), s.vertices...)
}

// Lines returns a copy of the line index list.
func (s *Shape2D) Lines() []int {
	return append([]int(nil), s.lines...)
}

// USpan returns the outline length measured along vertex order (not along Lines).
func (s *Shape2D) USpan() float32 {
	return s.uSpan
}

func calcUSpan(vertices []Vertex) float32 {
	var distance float32
	for i := 0; i < len(vertices)-1; i++ {
		distance += vertices[i].Point.Distance(vertices[i+1].Point)
	}
	return distance
}
