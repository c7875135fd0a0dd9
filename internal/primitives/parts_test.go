package primitives

import (
	"os"
	"path/filepath"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spatial-engine/internal/pose"
	"spatial-engine/internal/scenegraph"
)

func TestLoadPartsMissingFileUsesDefaults(t *testing.T) {
	parts, err := LoadParts(filepath.Join(t.TempDir(), "parts.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultParts(), parts)
	assert.Len(t, parts, 4)
}

func TestLoadParts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.yaml")
	body := `parts:
  - label: lid
    type: box
    size: [2, 0.5, 1]
    position: [0, 1, -3]
    color: "#ff8000"
  - label: knob
    type: sphere
    size: [0.4]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	parts, err := LoadParts(path)
	require.NoError(t, err)
	require.Len(t, parts, 2)

	lid, err := parts[0].Shape()
	require.NoError(t, err)
	assert.Equal(t, scenegraph.ShapeBox, lid.Kind)
	assert.Equal(t, rl.NewVector3(1, 0.25, 0.5), lid.HalfExtents)
	assert.Equal(t, pose.At(rl.NewVector3(0, 1, -3)), parts[0].Pose())
	assert.Equal(t, rl.NewColor(255, 128, 0, 255), parts[0].Tint())

	knob, err := parts[1].Shape()
	require.NoError(t, err)
	assert.Equal(t, scenegraph.ShapeSphere, knob.Kind)
	assert.InDelta(t, 0.2, knob.Radius, 1e-6)
	assert.Equal(t, defaultPrimitiveColor, parts[1].Tint())
}

func TestLoadPartsRejectsUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parts:\n  - type: torus\n"), 0644))
	_, err := LoadParts(path)
	assert.ErrorIs(t, err, ErrInvalidPart)

	require.NoError(t, os.WriteFile(path, []byte("parts: {"), 0644))
	_, err = LoadParts(path)
	assert.Error(t, err)
}

func TestModelMatrixScalesUnitMesh(t *testing.T) {
	box := scenegraph.Box(rl.NewVector3(2, 4, 6))
	m := ModelMatrix(box, pose.At(rl.NewVector3(1, 0, 0)))
	// Unit cube corner (0.5, 0.5, 0.5) lands on the box corner, offset by the pose.
	got := rl.Vector3Transform(rl.NewVector3(0.5, 0.5, 0.5), m)
	assert.True(t, pose.VecApproxEqual(rl.NewVector3(2, 2, 3), got, 1e-5), "got %+v", got)

	sphere := scenegraph.Sphere(3)
	m = ModelMatrix(sphere, pose.New(rl.Vector3Zero(), rl.QuaternionFromAxisAngle(pose.Up, rl.Pi/2), rl.Vector3One()))
	got = rl.Vector3Transform(rl.NewVector3(1, 0, 0), m)
	assert.True(t, pose.VecApproxEqual(rl.NewVector3(0, 0, -3), got, 1e-5), "got %+v", got)
}
