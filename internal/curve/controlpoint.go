package curve

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/bezier-extrude/pkg/math"
)

// ErrInvalidOperation is returned when an edit would break the control point invariants.
var ErrInvalidOperation = errors.New("invalid operation")

const (
	// MinControlPoints is the smallest set that still forms one segment.
	MinControlPoints = 2

	// AppendSpacing is the gap added beyond the previous point's outgoing handle.
	AppendSpacing = 10

	// DefaultHandleLength is the handle scale X/Z of newly appended points.
	DefaultHandleLength = 8

	// Continuity limits mirror the editor slider range.
	MinContinuity = 1
	MaxContinuity = 100
)

// ControlPoint is one anchor of the curve. HandleScale.X is the incoming handle
// length, HandleScale.Z the outgoing one; Y is unused by the curve math.
type ControlPoint struct {
	Position    math.Vec3
	Rotation    math.Quat
	HandleScale math.Vec3
}

// DefaultHandleScale returns the handle scale given to new points.
func DefaultHandleScale() math.Vec3 {
	return math.Vec3{X: DefaultHandleLength, Y: 1, Z: DefaultHandleLength}
}

// Forward returns the point's local +Z axis.
func (cp ControlPoint) Forward() math.Vec3 {
	return cp.Rotation.Forward()
}

// Up returns the point's local +Y axis.
func (cp ControlPoint) Up() math.Vec3 {
	return cp.Rotation.Up()
}

// ControlPointSet is the ordered list of anchors plus the snapshot used for
// pull-based change detection. Index is identity: only append and remove-last
// are supported.
type ControlPointSet struct {
	points []ControlPoint
	cached []ControlPoint
}

// NewControlPointSet returns an empty set. Callers append at least two points
// before sampling.
func NewControlPointSet() *ControlPointSet {
	return &ControlPointSet{}
}

// Len returns the number of control points.
func (s *ControlPointSet) Len() int {
	return len(s.points)
}

// Segments returns the number of Bezier segments (Len-1, never negative).
func (s *ControlPointSet) Segments() int {
	if len(s.points) < 2 {
		return 0
	}
	return len(s.points) - 1
}

// At returns the control point at index i.
func (s *ControlPointSet) At(i int) ControlPoint {
	return s.points[i]
}

// Points returns a copy of all control points.
func (s *ControlPointSet) Points() []ControlPoint {
	return append([]ControlPoint(nil), s.points...)
}

// Append adds a point after the last one, offset along its forward axis by
// AppendSpacing plus its outgoing handle length, and returns the new count.
// The snapshot is updated so the new point is not reported as changed.
func (s *ControlPointSet) Append() int {
	cp := ControlPoint{
		Rotation:    math.QuatIdentity(),
		HandleScale: DefaultHandleScale(),
	}
	if n := len(s.points); n > 0 {
		prev := s.points[n-1]
		cp.Position = prev.Position.Add(prev.Forward().Normalize().Scale(AppendSpacing + prev.HandleScale.Z))
		cp.Rotation = prev.Rotation
	}

	s.points = append(s.points, cp)
	s.cached = append(s.cached, cp)
	return len(s.points)
}

// RemoveLast drops the tail point. It fails when only MinControlPoints remain.
func (s *ControlPointSet) RemoveLast() error {
	if len(s.points) <= MinControlPoints {
		return fmt.Errorf("%w: cannot remove control point, %d is the minimum", ErrInvalidOperation, MinControlPoints)
	}
	s.points = s.points[:len(s.points)-1]
	s.cached = s.cached[:len(s.cached)-1]
	return nil
}

// Restore replaces the whole set, e.g. when a document is loaded.
func (s *ControlPointSet) Restore(points []ControlPoint) error {
	if len(points) < MinControlPoints {
		return fmt.Errorf("%w: need at least %d control points, got %d", ErrInvalidOperation, MinControlPoints, len(points))
	}
	s.points = append([]ControlPoint(nil), points...)
	s.cached = append([]ControlPoint(nil), points...)
	return nil
}

// DetectChanges compares live points against the cached snapshot, refreshes
// the snapshot for every changed index and returns those indices in order.
func (s *ControlPointSet) DetectChanges() []int {
	var changed []int
	for i := range s.points {
		if s.points[i] != s.cached[i] {
			s.cached[i] = s.points[i]
			changed = append(changed, i)
		}
	}
	return changed
}

// NextChange reports the first changed index and refreshes only its snapshot,
// leaving later changes for subsequent calls.
func (s *ControlPointSet) NextChange() (int, bool) {
	for i := range s.points {
		if s.points[i] != s.cached[i] {
			s.cached[i] = s.points[i]
			return i, true
		}
	}
	return 0, false
}

// Handle returns an accessor for the point at index i.
func (s *ControlPointSet) Handle(i int) (Handle, error) {
	if i < 0 || i >= len(s.points) {
		return Handle{}, fmt.Errorf("%w: control point %d out of range [0, %d)", ErrInvalidOperation, i, len(s.points))
	}
	return Handle{set: s, index: i}, nil
}

// Handle is an index into a ControlPointSet with accessors. Writes go to the
// live point only; the change is picked up by the next DetectChanges.
type Handle struct {
	set   *ControlPointSet
	index int
}

// Index returns the point's position in the set.
func (h Handle) Index() int {
	return h.index
}

// Get returns the current control point value.
func (h Handle) Get() ControlPoint {
	return h.set.points[h.index]
}

// Set replaces the control point value.
func (h Handle) Set(cp ControlPoint) {
	h.set.points[h.index] = cp
}

func (h Handle) Position() math.Vec3 {
	return h.set.points[h.index].Position
}

func (h Handle) SetPosition(p math.Vec3) {
	h.set.points[h.index].Position = p
}

func (h Handle) Rotation() math.Quat {
	return h.set.points[h.index].Rotation
}

func (h Handle) SetRotation(q math.Quat) {
	h.set.points[h.index].Rotation = q.Normalize()
}

func (h Handle) HandleScale() math.Vec3 {
	return h.set.points[h.index].HandleScale
}

func (h Handle) SetHandleScale(s math.Vec3) {
	h.set.points[h.index].HandleScale = s
}

// SetContinuity sets both handle lengths to c, clamped to [MinContinuity, MaxContinuity].
func (h Handle) SetContinuity(c float32) {
	c = math32.Max(MinContinuity, math32.Min(MaxContinuity, c))
	h.SetHandleScale(math.Vec3{X: c, Y: 1, Z: c})
}
