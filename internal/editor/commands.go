// Package editor implements undoable edits on an extruder.
package editor

import (
	"fmt"

	"github.com/Faultbox/bezier-extrude/internal/curve"
	"github.com/Faultbox/bezier-extrude/internal/extrude"
	"github.com/Faultbox/bezier-extrude/internal/shape"
	"github.com/Faultbox/bezier-extrude/pkg/math"
)

// Command is one reversible edit. Do records whatever Undo needs.
type Command interface {
	Name() string
	Do(e *extrude.Extruder) error
	Undo(e *extrude.Extruder) error
}

// AddControlPoint appends a control point.
type AddControlPoint struct{}

func (AddControlPoint) Name() string { return "add control point" }

func (AddControlPoint) Do(e *extrude.Extruder) error { return e.AddControlPoint() }

func (AddControlPoint) Undo(e *extrude.Extruder) error { return e.RemoveControlPoint() }

// RemoveControlPoint removes the tail control point, remembering it for undo.
type RemoveControlPoint struct {
	removed curve.ControlPoint
}

func (c *RemoveControlPoint) Name() string { return "remove control point" }

func (c *RemoveControlPoint) Do(e *extrude.Extruder) error {
	n := e.ControlPointCount()
	if n <= curve.MinControlPoints {
		// Let the extruder produce the error so callers see one message.
		return e.RemoveControlPoint()
	}
	h, err := e.ControlPoint(n - 1)
	if err != nil {
		return err
	}
	removed := h.Get()
	if err := e.RemoveControlPoint(); err != nil {
		return err
	}
	c.removed = removed
	return nil
}

func (c *RemoveControlPoint) Undo(e *extrude.Extruder) error {
	points := append(e.ControlPoints(), c.removed)
	return e.RestoreControlPoints(points)
}

// SetShape swaps the profile.
type SetShape struct {
	Shape *shape.Shape2D
	prev  *shape.Shape2D
}

func (c *SetShape) Name() string {
	if c.Shape == nil {
		return "set shape"
	}
	return fmt.Sprintf("set shape %q", c.Shape.Name())
}

func (c *SetShape) Do(e *extrude.Extruder) error {
	prev := e.Shape()
	if err := e.SetShape(c.Shape); err != nil {
		return err
	}
	c.prev = prev
	return nil
}

func (c *SetShape) Undo(e *extrude.Extruder) error { return e.SetShape(c.prev) }

// SetRingCount changes the rings per segment.
type SetRingCount struct {
	Count int
	prev  int
}

func (c *SetRingCount) Name() string { return fmt.Sprintf("set ring count %d", c.Count) }

func (c *SetRingCount) Do(e *extrude.Extruder) error {
	prev := e.RingCount()
	if err := e.SetRingCount(c.Count); err != nil {
		return err
	}
	c.prev = prev
	return nil
}

func (c *SetRingCount) Undo(e *extrude.Extruder) error { return e.SetRingCount(c.prev) }

// SetMaterial changes the render material.
type SetMaterial struct {
	Material extrude.Material
	prev     extrude.Material
}

func (c *SetMaterial) Name() string { return fmt.Sprintf("set material %q", c.Material) }

func (c *SetMaterial) Do(e *extrude.Extruder) error {
	prev := e.Material()
	if err := e.SetMaterial(c.Material); err != nil {
		return err
	}
	c.prev = prev
	return nil
}

func (c *SetMaterial) Undo(e *extrude.Extruder) error { return e.SetMaterial(c.prev) }

// SetContinuity sets both handle lengths of one control point.
type SetContinuity struct {
	Index int
	Value float32
	prev  math.Vec3
}

func (c *SetContinuity) Name() string {
	return fmt.Sprintf("set continuity %d to %g", c.Index, c.Value)
}

func (c *SetContinuity) Do(e *extrude.Extruder) error {
	h, err := e.ControlPoint(c.Index)
	if err != nil {
		return err
	}
	c.prev = h.HandleScale()
	h.SetContinuity(c.Value)
	return e.ApplyChanges()
}

func (c *SetContinuity) Undo(e *extrude.Extruder) error {
	h, err := e.ControlPoint(c.Index)
	if err != nil {
		return err
	}
	h.SetHandleScale(c.prev)
	return e.ApplyChanges()
}

// MoveControlPoint sets the position and rotation of one control point.
type MoveControlPoint struct {
	Index    int
	Position math.Vec3
	Rotation math.Quat
	prev     curve.ControlPoint
}

func (c *MoveControlPoint) Name() string { return fmt.Sprintf("move control point %d", c.Index) }

func (c *MoveControlPoint) Do(e *extrude.Extruder) error {
	h, err := e.ControlPoint(c.Index)
	if err != nil {
		return err
	}
	c.prev = h.Get()
	h.SetPosition(c.Position)
	h.SetRotation(c.Rotation)
	return e.ApplyChanges()
}

func (c *MoveControlPoint) Undo(e *extrude.Extruder) error {
	h, err := e.ControlPoint(c.Index)
	if err != nil {
		return err
	}
	h.Set(c.prev)
	return e.ApplyChanges()
}
