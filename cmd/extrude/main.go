// extrude builds and inspects meshes swept along Bezier control point chains.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/bezier-extrude/internal/assets"
	"github.com/Faultbox/bezier-extrude/internal/collision"
	"github.com/Faultbox/bezier-extrude/internal/config"
	"github.com/Faultbox/bezier-extrude/internal/document"
	"github.com/Faultbox/bezier-extrude/internal/editor"
	"github.com/Faultbox/bezier-extrude/internal/extrude"
	"github.com/Faultbox/bezier-extrude/internal/logger"
	"github.com/Faultbox/bezier-extrude/internal/shape"
	"github.com/Faultbox/bezier-extrude/pkg/math"
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
		fileCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
		fileCfg.MaxBackups = cfg.Logging.MaxBackups
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := args[0]
	args = args[1:]

	switch command {
	case "build":
		err = cmdBuild(cfg, args)
	case "shape":
		err = cmdShape(args)
	case "raycast", "ray":
		err = cmdRaycast(cfg, args)
	case "watch":
		err = cmdWatch(cfg, args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Debug("command failed", zap.String("command", command), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`extrude - Bezier cross-section extrusion tool

Usage:
  extrude [global options] <command> [options]

Commands:
  build   [-doc scene.yaml] [-add N] [-continuity C] [-o prefix] [-save scene.yaml]
          Generate a mesh and print its statistics
  shape   <ref> [-o out.toml]      Show a builtin or file profile, optionally convert it
  raycast [-doc scene.yaml] -origin x,y,z -dir x,y,z
          Cast a ray against the generated mesh
  watch   -doc scene.yaml [-o prefix] [-duration 30s]
          Rebuild incrementally as the document or its shape file changes

Global options:
  -config path     Config file (.yaml or .toml)
  -debug           Debug logging
  -log-file path   Also log to a rotating file
  -rings N         Rings per segment (2-32)
  -interval d      Minimum time between change polls (100ms-5s)
  -shape ref       Shape builtin name (quad, road) or file path
  -all-changes     Patch every edited control point per poll (default)
  -single-change   Patch one edited control point per poll
  -no-watch        Do not watch shape files in watch mode

Examples:
  extrude build -add 3 -o out/tube
  extrude -shape road -rings 12 build -save highway.yaml
  extrude shape road -o road.toml
  extrude raycast -doc highway.yaml -origin 0,10,9 -dir 0,-1,0
  extrude -debug watch -doc highway.yaml -o out/highway`)
}

// session is an extruder set up from the config and an optional document.
type session struct {
	cfg      *config.Config
	manager  *assets.Manager
	extruder *extrude.Extruder
	doc      *document.Document
	docPath  string
}

func newSession(cfg *config.Config, docPath string) (*session, error) {
	manager := assets.NewManager(logger.Named("assets"))

	s, err := manager.Load(cfg.Extrude.Shape)
	if err != nil {
		return nil, err
	}

	e := extrude.New(extrude.WithLogger(logger.Named("extrude")))
	if err := e.Initialize(cfg.ExtruderConfig(s)); err != nil {
		return nil, err
	}

	sess := &session{cfg: cfg, manager: manager, extruder: e, docPath: docPath}
	if docPath == "" {
		sess.doc = document.Capture(e, "untitled", cfg.Extrude.Shape)
		return sess, nil
	}

	doc, err := document.Load(docPath)
	if err != nil {
		return nil, err
	}
	if err := doc.Apply(e, manager); err != nil {
		return nil, fmt.Errorf("applying %s: %w", docPath, err)
	}
	sess.doc = doc
	logger.Info("document loaded",
		zap.String("path", docPath),
		zap.String("name", doc.Name),
		zap.Int("control_points", len(doc.ControlPoints)),
	)
	return sess, nil
}

func (s *session) close() {
	s.extruder.Shutdown()
	s.manager.Close()
}

// exportBuffers writes prefix.vtx (interleaved vertices) and prefix.idx (indices).
func (s *session) exportBuffers(prefix string) error {
	m, err := s.extruder.Mesh()
	if err != nil {
		return err
	}

	var vb, ib bytes.Buffer
	if err := m.WriteBuffers(&vb, &ib); err != nil {
		return err
	}
	if dir := filepath.Dir(prefix); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(prefix+".vtx", vb.Bytes(), 0644); err != nil {
		return err
	}
	return os.WriteFile(prefix+".idx", ib.Bytes(), 0644)
}

func cmdBuild(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	docPath := fs.String("doc", "", "Document to load")
	add := fs.Int("add", 0, "Append N control points")
	continuity := fs.Float64("continuity", 0, "Set every control point's handle length (1-100)")
	out := fs.String("o", "", "Dump raw buffers to <prefix>.vtx and <prefix>.idx")
	save := fs.String("save", "", "Save the resulting document")
	fs.Parse(args)

	sess, err := newSession(cfg, *docPath)
	if err != nil {
		return err
	}
	defer sess.close()

	history := editor.NewHistory(sess.extruder, 0, logger.Named("editor"))
	for range *add {
		if err := history.Do(editor.AddControlPoint{}); err != nil {
			return err
		}
	}
	if *continuity > 0 {
		for i := range sess.extruder.ControlPointCount() {
			if err := history.Do(&editor.SetContinuity{Index: i, Value: float32(*continuity)}); err != nil {
				return err
			}
		}
	}

	printStats(sess.extruder.Stats())

	if *out != "" {
		if err := sess.exportBuffers(*out); err != nil {
			return err
		}
		fmt.Printf("Wrote %s.vtx (%d-byte stride) and %s.idx (uint32)\n", *out, extrude.VertexStride, *out)
	}
	if *save != "" {
		doc := document.Capture(sess.extruder, sess.doc.Name, sess.doc.Shape)
		if err := doc.Save(*save); err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", *save)
	}
	return nil
}

func printStats(st extrude.Stats) {
	fmt.Printf("Control points: %d\n", st.ControlPoints)
	fmt.Printf("Segments:       %d\n", st.Segments)
	fmt.Printf("Rings:          %d\n", st.RingCount)
	fmt.Printf("Vertices:       %d\n", st.Vertices)
	fmt.Printf("Triangles:      %d\n", st.Triangles)
	fmt.Printf("Arc length:     %.3f\n", st.ArcLength)
	fmt.Printf("Bounds:         %s - %s\n", formatVec3(st.Bounds.Min), formatVec3(st.Bounds.Max))
}

func cmdShape(args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		fmt.Fprintln(os.Stderr, "Usage: extrude shape <ref> [-o out.yaml|out.toml]")
		os.Exit(1)
	}
	ref := args[0]

	fs := flag.NewFlagSet("shape", flag.ExitOnError)
	out := fs.String("o", "", "Save the profile (format from extension)")
	fs.Parse(args[1:])

	s, err := assets.NewManager(logger.Named("assets")).Load(ref)
	if err != nil {
		return err
	}

	fmt.Printf("Shape:    %s\n", s.Name())
	fmt.Printf("Vertices: %d\n", s.VertexCount())
	fmt.Printf("Edges:    %d\n", s.LineCount()/2)
	fmt.Printf("U span:   %.3f\n", s.USpan())
	fmt.Println()
	for i, v := range s.Vertices() {
		fmt.Printf("  %2d  point (%7.3f, %7.3f)  normal (%6.3f, %6.3f)  u %.3f\n",
			i, v.Point.X, v.Point.Y, v.Normal.X, v.Normal.Y, v.U)
	}

	if *out != "" {
		if err := shape.Save(s, *out); err != nil {
			return err
		}
		fmt.Printf("\nSaved %s\n", *out)
	}
	return nil
}

func cmdRaycast(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("raycast", flag.ExitOnError)
	docPath := fs.String("doc", "", "Document to load")
	origin := fs.String("origin", "", "Ray origin x,y,z")
	dir := fs.String("dir", "0,-1,0", "Ray direction x,y,z")
	fs.Parse(args)

	if *origin == "" {
		fmt.Fprintln(os.Stderr, "Usage: extrude raycast [-doc scene.yaml] -origin x,y,z [-dir x,y,z]")
		os.Exit(1)
	}
	o, err := parseVec3(*origin)
	if err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	d, err := parseVec3(*dir)
	if err != nil {
		return fmt.Errorf("dir: %w", err)
	}
	if d.Length() == 0 {
		return fmt.Errorf("dir: zero direction")
	}

	sess, err := newSession(cfg, *docPath)
	if err != nil {
		return err
	}
	defer sess.close()

	m, err := sess.extruder.Mesh()
	if err != nil {
		return err
	}

	hit, ok := collision.Raycast(collision.NewRay(o, d), &m)
	if !ok {
		fmt.Println("No hit")
		return nil
	}
	fmt.Printf("Hit:      %s\n", formatVec3(hit.Point))
	fmt.Printf("Distance: %.4f\n", hit.Distance)
	fmt.Printf("Normal:   %s\n", formatVec3(hit.Normal))
	fmt.Printf("Triangle: %d\n", hit.Triangle/3)
	return nil
}

func parseVec3(s string) (math.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math.Vec3{}, fmt.Errorf("expected x,y,z, got %q", s)
	}
	var v [3]float32
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = float32(f)
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func formatVec3(v math.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

// absPath returns path made absolute for comparing watcher events.
func absPath(path string) string {
	return assets.Key(filepath.Clean(path))
}
