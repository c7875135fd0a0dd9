package main

import (
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"spatial-engine/internal/debug"
	"spatial-engine/internal/engine"
	"spatial-engine/internal/engineconfig"
	"spatial-engine/internal/graphics"
	"spatial-engine/internal/input"
	"spatial-engine/internal/logger"
	"spatial-engine/internal/placement"
	"spatial-engine/internal/pose"
	"spatial-engine/internal/primitives"
	"spatial-engine/internal/scene"
	"spatial-engine/internal/scenegraph"
)

const (
	indicatorRadius = 0.15
	heldBrightness  = 0.35
)

var (
	lightDir       = rl.NewVector3(-0.4, -1, -0.3)
	indicatorColor = rl.NewColor(40, 160, 255, 255)
)

// app owns the viewer: the part graph, the camera scene, the engine and the renderers.
type app struct {
	cfg      engineconfig.Config
	log      *logger.Logger
	graph    *scenegraph.Graph
	scene    *scene.Scene
	engine   *engine.Engine
	renderer *primitives.Renderer
	overlay  *debug.Debug

	labels map[scenegraph.NodeID]string
	tints  map[scenegraph.NodeID]color.RGBA

	// ground stands in for a device hit test when placement takes surface hits.
	ground     *placement.PlaneSource
	pointerRay rl.Ray

	// placingClick is set while the left button that confirmed placement is held.
	placingClick bool
}

// frameInput is the mouse state read from raylib for one frame.
type frameInput struct {
	ray                       rl.Ray
	leftPressed, leftReleased bool
	leftDown                  bool
	rightPressed              bool
	rightReleased             bool
}

func newApp(cfg engineconfig.Config, log *logger.Logger, parts []primitives.PartDef) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      log,
		graph:    scenegraph.New(),
		renderer: primitives.NewRenderer(),
		overlay:  debug.New(),
		labels:   make(map[scenegraph.NodeID]string, len(parts)),
		tints:    make(map[scenegraph.NodeID]color.RGBA, len(parts)),
	}
	a.overlay.Visible = cfg.ShowDebug
	a.ground = placement.NewPlaneSource(cfg.Placement.PlaneHeight, func() (rl.Ray, bool) {
		return a.pointerRay, true
	})

	for _, p := range parts {
		shape, err := p.Shape()
		if err != nil {
			return nil, fmt.Errorf("part %q: %w", p.Label, err)
		}
		id := a.graph.AddPart(shape, p.Pose())
		a.labels[id] = p.Label
		a.tints[id] = p.Tint()
	}

	a.scene = scene.New(scene.Speeds{
		Move:   cfg.Camera.MoveSpeed,
		Rotate: cfg.Camera.RotateSpeed,
		Zoom:   cfg.Camera.ZoomSpeed,
	})
	a.scene.SetGridVisible(cfg.GridVisible)
	if bounds, ok := a.graph.Bounds(); ok {
		a.scene.Frame(bounds)
	}

	opts := engine.DefaultOptions()
	opts.Placement = cfg.Placement.Enabled
	opts.Surface = cfg.Placement.Source == engineconfig.SourceSurface
	opts.PlaneHeight = cfg.Placement.PlaneHeight
	opts.PointerDepth = cfg.Pointer.DefaultDepth
	a.engine = engine.New(a.graph, a.scene, opts, log.Logger)
	a.engine.OnPlacementConfirmed(func(p pose.Pose) {
		a.log.Debug("model placed", zap.Float32("x", p.Position.X), zap.Float32("z", p.Position.Z))
	})

	log.Info("viewer ready", zap.Int("parts", len(parts)), zap.Bool("placement", opts.Placement))
	return a, nil
}

func (a *app) window() graphics.Window {
	w := a.cfg.Window
	return graphics.Window{
		Width:      w.Width,
		Height:     w.Height,
		TargetFPS:  w.TargetFPS,
		Title:      w.Title,
		Background: scene.Background,
	}
}

// update handles the viewer keys, then feeds this frame's mouse state to the engine and the
// camera.
func (a *app) update(dt float32) {
	if rl.IsKeyPressed(rl.KeyF1) {
		a.overlay.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyG) {
		a.scene.SetGridVisible(!a.scene.GridVisible)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.engine.ResetPlacement()
	}

	orbit := a.step(frameInput{
		ray:           a.scene.Ray(rl.GetMousePosition()),
		leftPressed:   rl.IsMouseButtonPressed(rl.MouseButtonLeft),
		leftReleased:  rl.IsMouseButtonReleased(rl.MouseButtonLeft),
		leftDown:      rl.IsMouseButtonDown(rl.MouseButtonLeft),
		rightPressed:  rl.IsMouseButtonPressed(rl.MouseButtonRight),
		rightReleased: rl.IsMouseButtonReleased(rl.MouseButtonRight),
	}, dt)
	a.scene.Update(dt, orbit)
}

// step pushes the pointer events, runs the engine and reports whether the left drag orbits
// the camera. A grab switches navigation off through the engine; a click that places the
// model never orbits.
func (a *app) step(in frameInput, dt float32) bool {
	a.engine.SetPointerRay(in.ray)
	if a.cfg.Placement.Source == engineconfig.SourceSurface {
		a.reportGroundHit(in.ray)
	}

	push := func(kind input.EventKind) {
		if err := a.engine.Push(input.Event{Kind: kind, Source: input.Pointer}); err != nil {
			a.log.Warn("push event", zap.Error(err))
		}
	}
	if in.leftPressed {
		st := a.engine.Placement()
		a.placingClick = st.Active && !st.Confirmed
		push(input.SelectStart)
	}
	if in.leftReleased {
		a.placingClick = false
		push(input.SelectEnd)
	}
	if in.rightPressed {
		push(input.SqueezeStart)
	}
	if in.rightReleased {
		push(input.SqueezeEnd)
	}

	a.engine.Update(dt)
	return in.leftDown && !a.placingClick
}

// reportGroundHit reports the mouse ray's hit on the ground plane as this frame's surface hit.
func (a *app) reportGroundHit(ray rl.Ray) {
	a.pointerRay = ray
	if p, ok := a.ground.Candidate(); ok {
		a.engine.ReportSurfaceHit(p)
	}
}

func (a *app) draw() {
	a.renderer.SetView(a.scene.Camera.Position, lightDir)
	a.scene.Draw(a.drawWorld)
	a.overlay.Draw(a.snapshot(), a.log.Lines())
}

func (a *app) drawWorld() {
	held := make(map[scenegraph.NodeID]bool)
	for _, s := range a.engine.Sessions() {
		held[s.Target] = true
	}
	nodes, err := a.graph.Snapshot()
	if err != nil {
		a.log.Error("scene snapshot", zap.Error(err))
		return
	}
	for _, n := range nodes {
		if !n.Visible || n.Shape.Kind == scenegraph.ShapeNone {
			continue
		}
		world, ok := a.graph.WorldPose(n.ID)
		if !ok {
			continue
		}
		tint := a.tints[n.ID]
		if held[n.ID] {
			tint = rl.ColorBrightness(tint, heldBrightness)
		}
		a.renderer.Draw(n.Shape, world, tint)
	}

	if p, ok := a.engine.PlacementIndicator(); ok {
		rl.DrawCircle3D(p.Position, indicatorRadius, rl.NewVector3(1, 0, 0), 90, indicatorColor)
	}
}

func (a *app) snapshot() debug.Snapshot {
	return debug.Snapshot{
		Navigation: a.engine.IsCameraNavigationEnabled(),
		Placement:  a.engine.Placement(),
		Sessions:   a.engine.Sessions(),
		Labels:     a.labels,
	}
}

func (a *app) close() {
	a.renderer.Unload()
}
