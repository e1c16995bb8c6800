// Package document persists an extrusion (profile reference, settings and
// control points) as YAML.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/bezier-extrude/internal/assets"
	"github.com/Faultbox/bezier-extrude/internal/curve"
	"github.com/Faultbox/bezier-extrude/internal/extrude"
	"github.com/Faultbox/bezier-extrude/pkg/math"
)

// Document is the on-disk layout of an extrusion.
type Document struct {
	Name           string         `yaml:"name"`
	Shape          string         `yaml:"shape"` // builtin name or path relative to the document
	RingCount      int            `yaml:"ring_count"`
	Material       string         `yaml:"material,omitempty"`
	ModifyInterval time.Duration  `yaml:"modify_interval"`
	ControlPoints  []ControlPoint `yaml:"control_points"`

	// dir resolves relative shape paths; set by Load.
	dir string
}

// ControlPoint is one anchor. Rotation is stored as X, Y, Z, W.
type ControlPoint struct {
	Position    [3]float32 `yaml:"position,flow"`
	Rotation    [4]float32 `yaml:"rotation,flow"`
	HandleScale [3]float32 `yaml:"handle_scale,flow"`
}

// New returns a document with default settings and the two starting points.
func New(name string) *Document {
	points := curve.NewControlPointSet()
	for points.Len() < curve.MinControlPoints {
		points.Append()
	}
	return &Document{
		Name:           name,
		Shape:          "quad",
		RingCount:      extrude.DefaultRingCount,
		ModifyInterval: extrude.DefaultModifyInterval,
		ControlPoints:  fromCurve(points.Points()),
	}
}

// Load reads a document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing document %s: %w", path, err)
	}
	doc.dir = filepath.Dir(path)

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("document %s: %w", path, err)
	}
	return &doc, nil
}

// Save writes the document to path, creating parent directories as needed.
func (d *Document) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating document directory: %w", err)
		}
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// Validate checks settings ranges and the control point minimum.
func (d *Document) Validate() error {
	if err := extrude.ValidateRingCount(d.RingCount); err != nil {
		return err
	}
	if d.ModifyInterval < extrude.MinModifyInterval || d.ModifyInterval > extrude.MaxModifyInterval {
		return fmt.Errorf("%w: modify interval %v outside [%v, %v]", extrude.ErrConfiguration,
			d.ModifyInterval, extrude.MinModifyInterval, extrude.MaxModifyInterval)
	}
	if len(d.ControlPoints) < curve.MinControlPoints {
		return fmt.Errorf("%w: need at least %d control points, got %d",
			extrude.ErrInvalidOperation, curve.MinControlPoints, len(d.ControlPoints))
	}
	return nil
}

// ShapeRef returns the shape reference resolved against the document's directory.
func (d *Document) ShapeRef() string {
	if d.Shape == "" {
		return "quad"
	}
	if assets.IsBuiltin(d.Shape) || filepath.IsAbs(d.Shape) || d.dir == "" {
		return d.Shape
	}
	return filepath.Join(d.dir, d.Shape)
}

// Config returns the extruder configuration described by the document.
func (d *Document) Config(m *assets.Manager) (extrude.Config, error) {
	s, err := m.Load(d.ShapeRef())
	if err != nil {
		return extrude.Config{}, err
	}
	cfg := extrude.DefaultConfig()
	cfg.RingCount = d.RingCount
	cfg.ModifyInterval = d.ModifyInterval
	cfg.Shape = s
	cfg.Material = extrude.Material(d.Material)
	return cfg, nil
}

// Apply loads the document's shape and settings into e and restores its
// control points. Everything is validated before e changes.
func (d *Document) Apply(e *extrude.Extruder, m *assets.Manager) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s, err := m.Load(d.ShapeRef())
	if err != nil {
		return err
	}

	if err := e.RestoreControlPoints(d.Points()); err != nil {
		return err
	}
	if err := e.SetShape(s); err != nil {
		return err
	}
	if err := e.SetRingCount(d.RingCount); err != nil {
		return err
	}
	if err := e.SetModifyInterval(d.ModifyInterval); err != nil {
		return err
	}
	return e.SetMaterial(extrude.Material(d.Material))
}

// Sync brings e in line with the document without a full rebuild: the point
// count is adjusted by appending or removing tail points, then every point is
// written through its handle so the next Tick patches only what moved.
func (d *Document) Sync(e *extrude.Extruder, m *assets.Manager) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s, err := m.Load(d.ShapeRef())
	if err != nil {
		return err
	}

	points := d.Points()
	for e.ControlPointCount() < len(points) {
		if err := e.AddControlPoint(); err != nil {
			return err
		}
	}
	for e.ControlPointCount() > len(points) {
		if err := e.RemoveControlPoint(); err != nil {
			return err
		}
	}
	for i, cp := range points {
		h, err := e.ControlPoint(i)
		if err != nil {
			return err
		}
		if h.Get() != cp {
			h.Set(cp)
		}
	}

	if err := e.SetShape(s); err != nil {
		return err
	}
	if err := e.SetRingCount(d.RingCount); err != nil {
		return err
	}
	if err := e.SetModifyInterval(d.ModifyInterval); err != nil {
		return err
	}
	return e.SetMaterial(extrude.Material(d.Material))
}

// Points converts the stored anchors. Rotations are normalized; a zero
// rotation becomes identity.
func (d *Document) Points() []curve.ControlPoint {
	out := make([]curve.ControlPoint, len(d.ControlPoints))
	for i, cp := range d.ControlPoints {
		rot := math.Quat{X: cp.Rotation[0], Y: cp.Rotation[1], Z: cp.Rotation[2], W: cp.Rotation[3]}
		if rot == (math.Quat{}) {
			rot = math.QuatIdentity()
		}
		out[i] = curve.ControlPoint{
			Position:    math.Vec3{X: cp.Position[0], Y: cp.Position[1], Z: cp.Position[2]},
			Rotation:    rot.Normalize(),
			HandleScale: math.Vec3{X: cp.HandleScale[0], Y: cp.HandleScale[1], Z: cp.HandleScale[2]},
		}
	}
	return out
}

// Capture records the current state of e. shapeRef is stored as given since
// the extruder only knows the loaded profile.
func Capture(e *extrude.Extruder, name, shapeRef string) *Document {
	return &Document{
		Name:           name,
		Shape:          shapeRef,
		RingCount:      e.RingCount(),
		Material:       string(e.Material()),
		ModifyInterval: e.ModifyInterval(),
		ControlPoints:  fromCurve(e.ControlPoints()),
	}
}

func fromCurve(points []curve.ControlPoint) []ControlPoint {
	out := make([]ControlPoint, len(points))
	for i, cp := range points {
		out[i] = ControlPoint{
			Position:    cp.Position.Array(),
			Rotation:    [4]float32{cp.Rotation.X, cp.Rotation.Y, cp.Rotation.Z, cp.Rotation.W},
			HandleScale: cp.HandleScale.Array(),
		}
	}
	return out
}
