package scene

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	gridExtent     = 10
	gridMinorStep  = 1
	gridMajorStep  = 5
	gridMinorAlpha = 50
	gridMajorAlpha = 120
	axisLineAlpha  = 220

	// frameMargin pads the fitted view so the bounds do not touch the screen edge.
	frameMargin = 1.5
	minDistance = 0.2
)

// Background is the clear color of the viewer.
var Background = rl.NewColor(204, 204, 204, 255)

// Speeds scales the navigation input.
type Speeds struct {
	Move   float32 // units per second
	Rotate float32 // degrees per pixel of mouse travel
	Zoom   float32 // units per wheel step
}

// Navigation is one frame of camera input, already read from the devices.
type Navigation struct {
	Orbit rl.Vector2 // mouse travel in pixels while orbiting
	Move  rl.Vector3 // forward, right, up in [-1, 1]
	Zoom  float32    // wheel steps, positive towards the target
}

// Scene holds an orbit camera around a target and draws the 3D world. Navigation can be
// switched off while objects are being manipulated.
type Scene struct {
	Camera      rl.Camera3D
	GridVisible bool
	Speeds      Speeds

	navigation bool
}

// New returns a scene with a perspective camera looking at the origin.
func New(speeds Speeds) *Scene {
	s := &Scene{GridVisible: true, Speeds: speeds, navigation: true}
	s.Camera.Position = rl.NewVector3(0, 1.6, 3)
	s.Camera.Target = rl.NewVector3(0, 0, 0)
	s.Camera.Up = rl.NewVector3(0, 1, 0)
	s.Camera.Fovy = 45
	s.Camera.Projection = rl.CameraPerspective
	return s
}

// SetNavigationEnabled switches free camera navigation on or off.
func (s *Scene) SetNavigationEnabled(enabled bool) {
	s.navigation = enabled
}

// NavigationEnabled reports whether the camera follows navigation input.
func (s *Scene) NavigationEnabled() bool {
	return s.navigation
}

// SetGridVisible sets whether the editor grid is drawn.
func (s *Scene) SetGridVisible(visible bool) {
	s.GridVisible = visible
}

// Update reads mouse and keyboard and moves the camera. orbit is whether the orbit button
// is held on empty space this frame.
func (s *Scene) Update(dt float32, orbit bool) {
	var nav Navigation
	if orbit {
		nav.Orbit = rl.GetMouseDelta()
	}
	nav.Zoom = rl.GetMouseWheelMove()
	if rl.IsKeyDown(rl.KeyW) {
		nav.Move.X++
	}
	if rl.IsKeyDown(rl.KeyS) {
		nav.Move.X--
	}
	if rl.IsKeyDown(rl.KeyD) {
		nav.Move.Y++
	}
	if rl.IsKeyDown(rl.KeyA) {
		nav.Move.Y--
	}
	if rl.IsKeyDown(rl.KeyE) {
		nav.Move.Z++
	}
	if rl.IsKeyDown(rl.KeyQ) {
		nav.Move.Z--
	}
	s.Apply(nav, dt)
}

// Apply moves the camera by nav. It does nothing while navigation is disabled.
func (s *Scene) Apply(nav Navigation, dt float32) {
	if !s.navigation {
		return
	}
	if nav.Orbit.X != 0 || nav.Orbit.Y != 0 {
		rl.CameraYaw(&s.Camera, -nav.Orbit.X*s.Speeds.Rotate*rl.Deg2rad, 1)
		rl.CameraPitch(&s.Camera, -nav.Orbit.Y*s.Speeds.Rotate*rl.Deg2rad, 1, 1, 0)
	}
	if nav.Move != (rl.Vector3{}) {
		step := s.Speeds.Move * dt
		rl.CameraMoveForward(&s.Camera, nav.Move.X*step, 1)
		rl.CameraMoveRight(&s.Camera, nav.Move.Y*step, 1)
		rl.CameraMoveUp(&s.Camera, nav.Move.Z*step)
	}
	if nav.Zoom != 0 {
		s.zoom(nav.Zoom * s.Speeds.Zoom)
	}
}

func (s *Scene) zoom(amount float32) {
	toTarget := rl.Vector3Subtract(s.Camera.Target, s.Camera.Position)
	dist := rl.Vector3Length(toTarget)
	next := math32.Max(dist-amount, minDistance)
	dir := rl.Vector3Normalize(toTarget)
	s.Camera.Position = rl.Vector3Subtract(s.Camera.Target, rl.Vector3Scale(dir, next))
}

// Frame points the camera at the center of bounds and backs off along the current view
// direction until the largest extent fits the vertical field of view.
func (s *Scene) Frame(bounds rl.BoundingBox) {
	size := rl.Vector3Subtract(bounds.Max, bounds.Min)
	center := rl.Vector3Scale(rl.Vector3Add(bounds.Min, bounds.Max), 0.5)
	maxDim := math32.Max(size.X, math32.Max(size.Y, size.Z))
	fov := s.Camera.Fovy * rl.Deg2rad
	dist := math32.Abs(maxDim/math32.Tan(fov/2)) * frameMargin
	if dist < minDistance {
		dist = minDistance
	}

	dir := rl.Vector3Subtract(s.Camera.Position, s.Camera.Target)
	if rl.Vector3Length(dir) < 1e-6 {
		dir = rl.NewVector3(0, 0, 1)
	}
	dir = rl.Vector3Normalize(dir)
	s.Camera.Target = center
	s.Camera.Position = rl.Vector3Add(center, rl.Vector3Scale(dir, dist))
}

// Ray returns the world ray under a screen position.
func (s *Scene) Ray(screen rl.Vector2) rl.Ray {
	return rl.GetScreenToWorldRay(screen, s.Camera)
}

// Draw renders the grid and then calls drawWorld inside the 3D pass.
func (s *Scene) Draw(drawWorld func()) {
	rl.BeginMode3D(s.Camera)
	if s.GridVisible {
		drawEditorGrid()
	}
	if drawWorld != nil {
		drawWorld()
	}
	rl.EndMode3D()
}

// drawEditorGrid draws a grid on the XZ plane with major/minor lines and axis lines.
// Reuses start/end vectors to avoid per-frame allocations in the hot loop.
func drawEditorGrid() {
	minor := rl.NewColor(128, 128, 128, gridMinorAlpha)
	major := rl.NewColor(90, 90, 90, gridMajorAlpha)
	axisX := rl.NewColor(220, 80, 80, axisLineAlpha)
	axisZ := rl.NewColor(80, 80, 220, axisLineAlpha)

	var start, end rl.Vector3
	for i := -gridExtent; i <= gridExtent; i += gridMinorStep {
		c := major
		if i%gridMajorStep != 0 {
			c = minor
		}
		start.X, start.Y, start.Z = float32(i), 0, -gridExtent
		end.X, end.Y, end.Z = float32(i), 0, gridExtent
		rl.DrawLine3D(start, end, c)
		start.X, start.Y, start.Z = -gridExtent, 0, float32(i)
		end.X, end.Y, end.Z = gridExtent, 0, float32(i)
		rl.DrawLine3D(start, end, c)
	}
	rl.DrawLine3D(rl.NewVector3(-gridExtent, 0, 0), rl.NewVector3(gridExtent, 0, 0), axisX)
	rl.DrawLine3D(rl.NewVector3(0, 0, -gridExtent), rl.NewVector3(0, 0, gridExtent), axisZ)
}
