// Package curve provides control points, oriented frames and cubic Bezier
// sampling for the extrusion path.
package curve

import "github.com/Faultbox/bezier-extrude/pkg/math"

// Frame is a position plus orientation used to place a cross-section ring.
type Frame struct {
	Position math.Vec3
	Rotation math.Quat
}

// NewFrame creates a frame from an explicit rotation.
func NewFrame(position math.Vec3, rotation math.Quat) Frame {
	return Frame{Position: position, Rotation: rotation}
}

// FrameFromForward creates a frame looking along forward with world up.
func FrameFromForward(position, forward math.Vec3) Frame {
	return Frame{Position: position, Rotation: math.LookRotation(forward, math.Up)}
}

// LocalToWorldPos maps a frame-local point to world space.
func (f Frame) LocalToWorldPos(p math.Vec3) math.Vec3 {
	return f.Position.Add(f.Rotation.Rotate(p))
}

// LocalToWorldDir rotates a frame-local direction into world space.
func (f Frame) LocalToWorldDir(v math.Vec3) math.Vec3 {
	return f.Rotation.Rotate(v)
}

// WorldToLocal maps a world-space point into the frame.
func (f Frame) WorldToLocal(p math.Vec3) math.Vec3 {
	return f.Rotation.Conjugate().Rotate(p.Sub(f.Position))
}

// Matrix returns the frame as a local-to-world transform.
func (f Frame) Matrix() math.Mat4 {
	return math.TRS(f.Position, f.Rotation)
}
