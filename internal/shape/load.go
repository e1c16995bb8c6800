package shape

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/bezier-extrude/pkg/math"
)

// Format identifies a shape asset encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, fmt.Errorf("%w: unsupported extension %q", ErrInvalidAsset, filepath.Ext(path))
	}
}

// asset is the on-disk layout of a profile.
type asset struct {
	Name     string        `yaml:"name" toml:"name"`
	Vertices []vertexAsset `yaml:"vertices" toml:"vertices"`
	Lines    []int         `yaml:"lines" toml:"lines"`
}

type vertexAsset struct {
	Point  [2]float32 `yaml:"point" toml:"point"`
	Normal [2]float32 `yaml:"normal" toml:"normal"`
	U      float32    `yaml:"u" toml:"u"`
}

// Load reads and validates a profile from a .yaml/.yml or .toml file.
func Load(path string) (*Shape2D, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading shape %s: %w", path, err)
	}

	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("loading shape %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a profile.
func Parse(data []byte, format Format) (*Shape2D, error) {
	var a asset
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &a)
	case FormatTOML:
		err = toml.Unmarshal(data, &a)
	default:
		return nil, fmt.Errorf("%w: unknown format %v", ErrInvalidAsset, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}

	vertices := make([]Vertex, len(a.Vertices))
	for i, v := range a.Vertices {
		vertices[i] = Vertex{
			Point:  math.Vec2{X: v.Point[0], Y: v.Point[1]},
			Normal: math.Vec2{X: v.Normal[0], Y: v.Normal[1]},
			U:      v.U,
		}
	}
	return New(a.Name, vertices, a.Lines)
}

// Marshal encodes a profile in the given format.
func Marshal(s *Shape2D, format Format) ([]byte, error) {
	a := asset{
		Name:     s.name,
		Vertices: make([]vertexAsset, len(s.vertices)),
		Lines:    s.Lines(),
	}
	for i, v := range s.vertices {
		a.Vertices[i] = vertexAsset{
			Point:  [2]float32{v.Point.X, v.Point.Y},
			Normal: [2]float32{v.Normal.X, v.Normal.Y},
			U:      v.U,
		}
	}

	switch format {
	case FormatYAML:
		return yaml.Marshal(&a)
	case FormatTOML:
		return toml.Marshal(&a)
	default:
		return nil, fmt.Errorf("%w: unknown format %v", ErrInvalidAsset, format)
	}
}

// Save writes a profile to path, choosing the format from the extension.
func Save(s *Shape2D, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := Marshal(s, format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
