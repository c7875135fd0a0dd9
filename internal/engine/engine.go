package engine

import (
	"errors"
	"fmt"
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"spatial-engine/internal/arbiter"
	"spatial-engine/internal/input"
	"spatial-engine/internal/manipulation"
	"spatial-engine/internal/picking"
	"spatial-engine/internal/placement"
	"spatial-engine/internal/pose"
	"spatial-engine/internal/scenegraph"
)

var ErrUnknownSource = errors.New("unknown input source")

// Options configures an Engine.
type Options struct {
	// Placement starts the engine in the place-once flow. When false the nodes are usable
	// immediately.
	Placement bool
	// Surface feeds placement from reported surface hits instead of the ground plane.
	Surface bool
	// PlaneHeight is the y of the ground plane used without surface hits.
	PlaneHeight float32
	// PlacementAim is the source whose aim ray is intersected with the ground plane.
	PlacementAim input.SourceID
	// PointerDepth is the resting distance of the synthesized pointer pose.
	PointerDepth float32
}

// DefaultOptions returns placement on the ground plane, aimed with the pointer.
func DefaultOptions() Options {
	return Options{
		Placement:    true,
		PlacementAim: input.Pointer,
		PointerDepth: input.DefaultPointerDepth,
	}
}

// Engine wires the picker, session registry, placement controller and arbiter around a scene
// graph. Hosts push input events and source poses between frames and call Update once per
// frame. It is not safe for concurrent use.
type Engine struct {
	graph     scenegraph.Adapter
	log       *zap.Logger
	arbiter   *arbiter.Arbiter
	registry  *manipulation.Registry
	placement *placement.Controller
	surface   *placement.SurfaceSource
	queue     *input.Queue
	sources   map[input.SourceID]*input.Source

	manipulable []scenegraph.NodeID
	elapsed     float32
}

// New builds an engine over graph. camera may be nil; it is switched off while any session is
// active. The manipulable set starts as graph.ManipulableNodes().
func New(graph scenegraph.Adapter, camera arbiter.Camera, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		graph:   graph,
		log:     log,
		arbiter: arbiter.New(camera, log.Named("arbiter")),
		queue:   input.NewQueue(),
		sources: make(map[input.SourceID]*input.Source, len(input.Sources)),
	}
	for _, id := range input.Sources {
		src := input.NewSource(id)
		if id == input.Pointer {
			src.Connected = true
			src.SetDefaultDepth(opts.PointerDepth)
		}
		e.sources[id] = src
	}

	e.registry = manipulation.NewRegistry(graph, picking.New(graph), e.arbiter, log)
	e.registry.OnEnded(func(s manipulation.Session, _ manipulation.Reason) {
		if s.Source == input.Pointer {
			e.sources[input.Pointer].ResetAnchor()
		}
	})

	var src placement.Source
	if opts.Surface {
		e.surface = placement.NewSurfaceSource()
		src = e.surface
	} else {
		src = placement.NewPlaneSource(opts.PlaneHeight, e.aimOf(opts.PlacementAim))
	}
	e.placement = placement.NewController(graph, src, log)

	e.manipulable = graph.ManipulableNodes()
	if opts.Placement {
		e.placement.Hide(e.manipulable)
	} else {
		e.placement.Skip(e.manipulable)
	}
	return e
}

func (e *Engine) aimOf(id input.SourceID) func() (rl.Ray, bool) {
	return func() (rl.Ray, bool) {
		src, ok := e.sources[id]
		if !ok || !src.Connected {
			return rl.Ray{}, false
		}
		return src.Aim, true
	}
}

// Push queues an input event for the next Update. Events act on the source state seen at
// drain time, so a grab snapshots the pose set by the last SetSourcePose before Update.
func (e *Engine) Push(ev input.Event) error {
	if !ev.Source.Valid() {
		return fmt.Errorf("push %s: %w", ev, ErrUnknownSource)
	}
	e.queue.Push(ev)
	return nil
}

// SetSourcePose updates a tracked controller pose.
func (e *Engine) SetSourcePose(id input.SourceID, p pose.Pose) error {
	src, ok := e.sources[id]
	if !ok {
		return fmt.Errorf("set pose of %s: %w", id, ErrUnknownSource)
	}
	src.SetPose(p)
	return nil
}

// SetPointerRay updates the pointer from a screen ray. Malformed rays are ignored.
func (e *Engine) SetPointerRay(r rl.Ray) bool {
	return e.sources[input.Pointer].SetRay(r)
}

// ReportSurfaceHit hands this frame's surface hit-test pose to placement. The first report
// switches placement from the ground plane to surface hits.
func (e *Engine) ReportSurfaceHit(p pose.Pose) {
	if e.surface == nil {
		e.surface = placement.NewSurfaceSource()
		e.placement.SetSource(e.surface)
		e.log.Info("placement source switched to surface hits")
	}
	e.surface.Report(p)
}

// SetManipulableSet replaces the pool of nodes that can be picked and placed. Running
// sessions and the placement state are left alone. While placement is pending, nodes that
// leave the pool are shown again and new ones are hidden.
func (e *Engine) SetManipulableSet(ids []scenegraph.NodeID) {
	set := slices.Clone(ids)
	slices.Sort(set)
	set = slices.Compact(set)

	var dropped []scenegraph.NodeID
	for _, id := range e.manipulable {
		if _, found := slices.BinarySearch(set, id); !found {
			dropped = append(dropped, id)
		}
	}
	e.manipulable = set
	e.placement.Show(dropped)
	e.placement.Hide(e.manipulable)
}

// ManipulableSet returns a copy of the current pool.
func (e *Engine) ManipulableSet() []scenegraph.NodeID {
	return slices.Clone(e.manipulable)
}

// Update runs one frame: queued events in arrival order, then placement, then every active
// session in ascending source order.
func (e *Engine) Update(dt float32) {
	e.elapsed += dt

	consumed := false
	for _, ev := range e.queue.Drain() {
		e.handle(ev, &consumed)
	}
	e.placement.Update()
	e.registry.Update(e.Source)
}

func (e *Engine) handle(ev input.Event, consumed *bool) {
	src := e.sources[ev.Source]
	switch ev.Kind {
	case input.SelectStart, input.SqueezeStart, input.SqueezeEnd:
		if !src.Connected {
			// Nothing can release a grab from a source that is gone.
			e.log.Debug("event from disconnected source ignored", zap.Stringer("event", ev))
			return
		}
	}

	switch ev.Kind {
	case input.SelectStart:
		src.Primary = input.Pressed
		if *consumed {
			return
		}
		if e.placement.Pending() {
			// Placement owns every select until it is confirmed, and the confirming
			// select must not also grab.
			*consumed = true
			e.placement.Confirm(e.manipulable)
			return
		}
		e.registry.Begin(src, e.manipulable)
	case input.SelectEnd:
		src.Primary = input.Released
		e.registry.End(src.ID, manipulation.ReasonSelectEnd)
	case input.SqueezeStart:
		src.Secondary = input.Pressed
		e.registry.SetMode(src, manipulation.Rotate)
	case input.SqueezeEnd:
		src.Secondary = input.Released
		e.registry.SetMode(src, manipulation.Translate)
	case input.Connected:
		src.Connected = true
	case input.Disconnected:
		src.Connected = false
		src.Primary = input.Idle
		src.Secondary = input.Idle
		if e.registry.End(src.ID, manipulation.ReasonDisconnected) {
			e.log.Info("source disconnected, session released", zap.Stringer("source", src.ID))
		}
	}
}

// Source returns the live state of source id, or nil for an unknown id.
func (e *Engine) Source(id input.SourceID) *input.Source {
	return e.sources[id]
}

// IsCameraNavigationEnabled reports whether free camera navigation is allowed this frame.
func (e *Engine) IsCameraNavigationEnabled() bool {
	return e.arbiter.NavigationEnabled()
}

// OnPlacementConfirmed registers fn to run with the confirmed placement pose.
func (e *Engine) OnPlacementConfirmed(fn func(pose.Pose)) {
	e.placement.OnConfirmed(fn)
}

// OnSessionStarted registers fn to run when a grab becomes active.
func (e *Engine) OnSessionStarted(fn func(manipulation.Session)) {
	e.registry.OnStarted(fn)
}

// OnSessionEnded registers fn to run when a grab is released.
func (e *Engine) OnSessionEnded(fn func(manipulation.Session, manipulation.Reason)) {
	e.registry.OnEnded(fn)
}

// ResetPlacement releases every session and re-enters placement mode.
func (e *Engine) ResetPlacement() {
	e.registry.EndAll(manipulation.ReasonReset)
	e.placement.Reset(e.manipulable)
}

// Placement returns the placement state.
func (e *Engine) Placement() placement.State {
	return e.placement.State()
}

// PlacementIndicator returns where to draw the placement indicator, if anywhere.
func (e *Engine) PlacementIndicator() (pose.Pose, bool) {
	return e.placement.Indicator()
}

// Sessions returns the active sessions in ascending source order.
func (e *Engine) Sessions() []manipulation.Session {
	return e.registry.Sessions()
}

// Elapsed returns the total time passed to Update.
func (e *Engine) Elapsed() float32 {
	return e.elapsed
}
