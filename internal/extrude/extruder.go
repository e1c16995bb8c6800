package extrude

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/bezier-extrude/internal/curve"
	"github.com/Faultbox/bezier-extrude/internal/shape"
)

// Modify interval limits, matching the editor's update-time slider.
const (
	MinModifyInterval     = 100 * time.Millisecond
	MaxModifyInterval     = 5 * time.Second
	DefaultModifyInterval = 100 * time.Millisecond
)

// Config holds the settings applied by Initialize.
type Config struct {
	RingCount      int
	ModifyInterval time.Duration
	// Precision is the sample count per segment for length estimates.
	Precision int
	// SingleChangePerTick processes only the first changed control point per
	// poll, leaving the rest for later ticks.
	SingleChangePerTick bool
	Shape               *shape.Shape2D
	Material            Material
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		RingCount:      DefaultRingCount,
		ModifyInterval: DefaultModifyInterval,
		Precision:      curve.DefaultPrecision,
		Shape:          shape.Default(),
	}
}

// Validate checks ring count and modify interval ranges.
func (c Config) Validate() error {
	if err := ValidateRingCount(c.RingCount); err != nil {
		return err
	}
	if c.ModifyInterval < MinModifyInterval || c.ModifyInterval > MaxModifyInterval {
		return fmt.Errorf("%w: modify interval %v outside [%v, %v]",
			ErrConfiguration, c.ModifyInterval, MinModifyInterval, MaxModifyInterval)
	}
	if c.Shape != nil {
		if err := c.Shape.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Option configures an Extruder.
type Option func(*Extruder)

// WithLogger sets the logger used for patch diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(e *Extruder) {
		e.log = log
	}
}

// Extruder is the entry point for hosts: it owns the control points and the
// mesh, exposes the editing operations and runs pull-based change detection
// from Tick. It is not safe for concurrent use.
type Extruder struct {
	cfg         Config
	points      *curve.ControlPointSet
	builder     *Builder
	timer       time.Duration
	initialized bool

	log *zap.Logger
}

// New creates an extruder. Call Initialize before use.
func New(opts ...Option) *Extruder {
	e := &Extruder{log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize validates cfg, creates the two starting control points and
// builds the initial mesh.
func (e *Extruder) Initialize(cfg Config) error {
	if cfg.Shape == nil {
		cfg.Shape = shape.Default()
	}
	if cfg.Precision < 2 {
		cfg.Precision = curve.DefaultPrecision
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	points := curve.NewControlPointSet()
	for points.Len() < curve.MinControlPoints {
		points.Append()
	}

	builder := NewBuilder(points, cfg.Shape, cfg.RingCount, cfg.Precision, e.log)
	if _, err := builder.Rebuild(); err != nil {
		return fmt.Errorf("building initial mesh: %w", err)
	}

	e.cfg = cfg
	e.points = points
	e.builder = builder
	e.timer = 0
	e.initialized = true

	e.log.Info("extruder initialized",
		zap.String("shape", cfg.Shape.Name()),
		zap.Int("rings", cfg.RingCount),
		zap.Duration("modify_interval", cfg.ModifyInterval),
		zap.String("material", string(cfg.Material)),
	)
	return nil
}

// Shutdown releases the mesh and control points.
func (e *Extruder) Shutdown() {
	if !e.initialized {
		return
	}
	e.points = nil
	e.builder = nil
	e.initialized = false
	e.log.Info("extruder shut down")
}

func (e *Extruder) ready() error {
	if !e.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Tick advances the poll timer. Once it exceeds the modify interval, changed
// control points are detected and patched and the timer resets.
func (e *Extruder) Tick(dt time.Duration) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.timer += dt
	if e.timer <= e.cfg.ModifyInterval {
		return nil
	}
	e.timer = 0
	return e.ApplyChanges()
}

// ApplyChanges runs change detection and patching immediately, ignoring the timer.
func (e *Extruder) ApplyChanges() error {
	if err := e.ready(); err != nil {
		return err
	}

	if e.cfg.SingleChangePerTick {
		if i, ok := e.points.NextChange(); ok {
			return e.modify(i)
		}
		return nil
	}

	for _, i := range e.points.DetectChanges() {
		if err := e.modify(i); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extruder) modify(index int) error {
	if _, err := e.builder.Modify(index); err != nil {
		return fmt.Errorf("patching control point %d: %w", index, err)
	}
	return nil
}

// AddControlPoint appends a control point after the last one and extends the mesh.
func (e *Extruder) AddControlPoint() error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.points.Append() > curve.MinControlPoints {
		if _, err := e.builder.Append(); err != nil {
			_ = e.points.RemoveLast()
			return err
		}
		return nil
	}
	_, err := e.builder.Rebuild()
	return err
}

// RemoveControlPoint removes the last control point and truncates the mesh.
// It fails with ErrInvalidOperation when only two points remain.
func (e *Extruder) RemoveControlPoint() error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.points.RemoveLast(); err != nil {
		return err
	}
	_, err := e.builder.Delete()
	return err
}

// RestoreControlPoints replaces every control point and rebuilds.
func (e *Extruder) RestoreControlPoints(points []curve.ControlPoint) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.points.Restore(points); err != nil {
		return err
	}
	_, err := e.builder.Rebuild()
	return err
}

// ControlPoint returns a handle to the control point at index i. Edits made
// through it are applied by the next Tick or ApplyChanges.
func (e *Extruder) ControlPoint(i int) (curve.Handle, error) {
	if err := e.ready(); err != nil {
		return curve.Handle{}, err
	}
	return e.points.Handle(i)
}

// ControlPoints returns a copy of all control points.
func (e *Extruder) ControlPoints() []curve.ControlPoint {
	if e.points == nil {
		return nil
	}
	return e.points.Points()
}

// ControlPointCount returns the number of control points.
func (e *Extruder) ControlPointCount() int {
	if e.points == nil {
		return 0
	}
	return e.points.Len()
}

// SetShape swaps the profile and rebuilds when it differs from the current one.
func (e *Extruder) SetShape(s *shape.Shape2D) error {
	if err := e.ready(); err != nil {
		return err
	}
	if s == e.cfg.Shape {
		return nil
	}
	if _, err := e.builder.SetShape(s); err != nil {
		return err
	}
	e.cfg.Shape = s
	return nil
}

// Shape returns the current profile.
func (e *Extruder) Shape() *shape.Shape2D {
	return e.cfg.Shape
}

// SetRingCount changes the rings per segment and rebuilds when it differs.
func (e *Extruder) SetRingCount(n int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if n == e.cfg.RingCount {
		return nil
	}
	if _, err := e.builder.SetRingCount(n); err != nil {
		return err
	}
	e.cfg.RingCount = n
	return nil
}

// RingCount returns the rings per segment.
func (e *Extruder) RingCount() int {
	return e.cfg.RingCount
}

// SetMaterial sets the render material and rebuilds when it differs.
func (e *Extruder) SetMaterial(m Material) error {
	if err := e.ready(); err != nil {
		return err
	}
	if m == e.cfg.Material {
		return nil
	}
	e.cfg.Material = m
	_, err := e.builder.Rebuild()
	return err
}

// Material returns the render material.
func (e *Extruder) Material() Material {
	return e.cfg.Material
}

// SetModifyInterval changes the minimum time between change polls.
func (e *Extruder) SetModifyInterval(d time.Duration) error {
	if d < MinModifyInterval || d > MaxModifyInterval {
		return fmt.Errorf("%w: modify interval %v outside [%v, %v]",
			ErrConfiguration, d, MinModifyInterval, MaxModifyInterval)
	}
	e.cfg.ModifyInterval = d
	return nil
}

// ModifyInterval returns the minimum time between change polls.
func (e *Extruder) ModifyInterval() time.Duration {
	return e.cfg.ModifyInterval
}

// Regenerate forces a full rebuild.
func (e *Extruder) Regenerate() error {
	if err := e.ready(); err != nil {
		return err
	}
	_, err := e.builder.Rebuild()
	return err
}

// Mesh returns a copy of the current buffers.
func (e *Extruder) Mesh() (MeshBuffers, error) {
	if err := e.ready(); err != nil {
		return MeshBuffers{}, err
	}
	return e.builder.Mesh().Clone(), nil
}

// Revision changes whenever the mesh buffers are patched or rebuilt.
func (e *Extruder) Revision() uint64 {
	if !e.initialized {
		return 0
	}
	return e.builder.Revision()
}

// Stats summarizes the current mesh.
func (e *Extruder) Stats() Stats {
	if !e.initialized {
		return Stats{}
	}
	m := e.builder.Mesh()
	return Stats{
		ControlPoints: e.points.Len(),
		Segments:      e.builder.Segments(),
		RingCount:     e.builder.RingCount(),
		Vertices:      len(m.Vertices),
		Triangles:     m.TriangleCount(),
		ArcLength:     e.builder.ArcLength(),
		Bounds:        m.Bounds,
	}
}
