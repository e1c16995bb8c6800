package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/bezier-extrude/internal/assets"
	"github.com/Faultbox/bezier-extrude/internal/config"
	"github.com/Faultbox/bezier-extrude/internal/document"
	"github.com/Faultbox/bezier-extrude/internal/extrude"
	"github.com/Faultbox/bezier-extrude/internal/shape"
	"github.com/Faultbox/bezier-extrude/pkg/math"
)

func TestParseVec3(t *testing.T) {
	v, err := parseVec3("1, -2.5,3")
	require.NoError(t, err)
	assert.Equal(t, math.Vec3{X: 1, Y: -2.5, Z: 3}, v)

	for _, bad := range []string{"", "1,2", "1,2,3,4", "a,b,c"} {
		_, err := parseVec3(bad)
		assert.Error(t, err, bad)
	}
}

func newTestLoop(t *testing.T) (*watchLoop, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, shape.Save(shape.Quad(1), filepath.Join(dir, "profile.yaml")))

	doc := document.New("scene")
	doc.Shape = "profile.yaml"
	docPath := filepath.Join(dir, "scene.yaml")
	require.NoError(t, doc.Save(docPath))

	sess, err := newSession(config.Default(), docPath)
	require.NoError(t, err)
	t.Cleanup(sess.close)

	w, err := assets.NewWatcher(nil)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	loop := &watchLoop{session: sess, watcher: w, out: filepath.Join(dir, "out", "mesh")}
	require.NoError(t, loop.watchFiles())
	return loop, dir
}

func TestWatchLoopDocumentReload(t *testing.T) {
	loop, dir := newTestLoop(t)
	docPath := filepath.Join(dir, "scene.yaml")

	doc, err := document.Load(docPath)
	require.NoError(t, err)
	doc.ControlPoints[1].Position = [3]float32{3, 0, 18}
	doc.RingCount = 4
	require.NoError(t, doc.Save(docPath))

	loop.handleReload(assets.Reload{Path: absPath(docPath)})
	require.NoError(t, loop.extruder.ApplyChanges())
	assert.Equal(t, 4, loop.extruder.RingCount())
	assert.Equal(t, math.Vec3{X: 3, Z: 18}, loop.extruder.ControlPoints()[1].Position)

	require.NoError(t, loop.publish())
	vtx, err := os.Stat(loop.out + ".vtx")
	require.NoError(t, err)
	idx, err := os.Stat(loop.out + ".idx")
	require.NoError(t, err)

	st := loop.extruder.Stats()
	assert.Equal(t, int64(st.Vertices*extrude.VertexStride), vtx.Size())
	assert.Equal(t, int64(st.Triangles*3*4), idx.Size())
}

func TestWatchLoopShapeReload(t *testing.T) {
	loop, dir := newTestLoop(t)
	shapePath := filepath.Join(dir, "profile.yaml")

	require.NoError(t, shape.Save(shape.Road(4, 0.25), shapePath))
	loop.handleReload(assets.Reload{Path: absPath(shapePath)})
	assert.Equal(t, 6, loop.extruder.Shape().VertexCount())

	// A broken edit keeps the last good profile.
	require.NoError(t, os.WriteFile(shapePath, []byte("lines: [0]\n"), 0o644))
	loop.handleReload(assets.Reload{Path: absPath(shapePath)})
	assert.Equal(t, 6, loop.extruder.Shape().VertexCount())
}

func TestWatchLoopBadDocumentKeepsState(t *testing.T) {
	loop, dir := newTestLoop(t)
	docPath := filepath.Join(dir, "scene.yaml")
	before := loop.extruder.ControlPoints()

	require.NoError(t, os.WriteFile(docPath, []byte("ring_count: 99\n"), 0o644))
	loop.handleReload(assets.Reload{Path: absPath(docPath)})
	assert.Equal(t, before, loop.extruder.ControlPoints())
	assert.Equal(t, 8, loop.extruder.RingCount())
}
