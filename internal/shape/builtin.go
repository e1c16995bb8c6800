package shape

import (
	"fmt"

	"github.com/Faultbox/bezier-extrude/pkg/math"
)

// Names of the built-in profiles.
const (
	BuiltinQuad = "quad"
	BuiltinRoad = "road"
)

// Quad returns a closed square tube profile of the given edge size, centred on the curve.
func Quad(size float32) *Shape2D {
	h := size / 2
	const d = 0.70710677 // 1/sqrt(2)
	s, err := New(BuiltinQuad, []Vertex{
		{Point: math.Vec2{X: -h, Y: -h}, Normal: math.Vec2{X: -d, Y: -d}, U: 0},
		{Point: math.Vec2{X: -h, Y: h}, Normal: math.Vec2{X: -d, Y: d}, U: 0.25},
		{Point: math.Vec2{X: h, Y: h}, Normal: math.Vec2{X: d, Y: d}, U: 0.5},
		{Point: math.Vec2{X: h, Y: -h}, Normal: math.Vec2{X: d, Y: -d}, U: 0.75},
	}, []int{0, 1, 1, 2, 2, 3, 3, 0})
	if err != nil {
		panic(err)
	}
	return s
}

// Road returns an open profile of three disjoint strips: left curb face, road
// surface at Y=0 and right curb face. Vertices are duplicated at the corners so
// each strip keeps its own normal.
func Road(width, curb float32) *Shape2D {
	h := width / 2
	perimeter := 2*curb + width
	s, err := New(BuiltinRoad, []Vertex{
		{Point: math.Vec2{X: -h, Y: curb}, Normal: math.Vec2{X: 1}, U: 0},
		{Point: math.Vec2{X: -h, Y: 0}, Normal: math.Vec2{X: 1}, U: curb / perimeter},
		{Point: math.Vec2{X: -h, Y: 0}, Normal: math.Vec2{Y: 1}, U: curb / perimeter},
		{Point: math.Vec2{X: h, Y: 0}, Normal: math.Vec2{Y: 1}, U: (curb + width) / perimeter},
		{Point: math.Vec2{X: h, Y: 0}, Normal: math.Vec2{X: -1}, U: (curb + width) / perimeter},
		{Point: math.Vec2{X: h, Y: curb}, Normal: math.Vec2{X: -1}, U: 1},
	}, []int{0, 1, 2, 3, 4, 5})
	if err != nil {
		panic(err)
	}
	return s
}

// Default returns the profile used when nothing is configured.
func Default() *Shape2D {
	return Quad(1)
}

// Builtin resolves a built-in profile by name.
func Builtin(name string) (*Shape2D, error) {
	switch name {
	case BuiltinQuad:
		return Quad(1), nil
	case BuiltinRoad:
		return Road(4, 0.25), nil
	default:
		return nil, fmt.Errorf("%w: unknown builtin %q", ErrInvalidAsset, name)
	}
}
