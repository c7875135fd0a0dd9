package manipulation

import (
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spatial-engine/internal/arbiter"
	"spatial-engine/internal/input"
	"spatial-engine/internal/picking"
	"spatial-engine/internal/pose"
	"spatial-engine/internal/scenegraph"
)

// Registry holds at most one session per input source and runs each source's state machine
// (Idle → Armed → Active → Released). Sessions of different sources are independent; the
// only shared state is the arbiter counter.
type Registry struct {
	graph    scenegraph.Adapter
	picker   *picking.Picker
	arbiter  *arbiter.Arbiter
	log      *zap.Logger
	sessions map[input.SourceID]*Session

	onStarted []func(Session)
	onEnded   []func(Session, Reason)
}

// NewRegistry wires a registry to the scene graph, picker and arbiter.
func NewRegistry(graph scenegraph.Adapter, picker *picking.Picker, arb *arbiter.Arbiter, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		graph:    graph,
		picker:   picker,
		arbiter:  arb,
		log:      log.Named("manipulation"),
		sessions: make(map[input.SourceID]*Session),
	}
}

// OnStarted registers fn to run when a session becomes active.
func (r *Registry) OnStarted(fn func(Session)) {
	r.onStarted = append(r.onStarted, fn)
}

// OnEnded registers fn to run when a session is released.
func (r *Registry) OnEnded(fn func(Session, Reason)) {
	r.onEnded = append(r.onEnded, fn)
}

// Begin handles select-start for src: pick along the aim ray, arm with snapshots of the
// target and input poses, and activate immediately. It returns false on a pick miss, when
// src already has a session, or when another source already holds the picked node
// (first session wins).
func (r *Registry) Begin(src *input.Source, candidates []scenegraph.NodeID) (Session, bool) {
	if _, busy := r.sessions[src.ID]; busy {
		return Session{}, false
	}
	hit, ok := r.picker.Pick(src.Aim, candidates)
	if !ok {
		return Session{}, false
	}
	if holder, held := r.Holder(hit.Node); held {
		r.log.Debug("grab rejected, target held",
			zap.Stringer("source", src.ID),
			zap.Uint32("node", uint32(hit.Node)),
			zap.Stringer("holder", holder))
		return Session{}, false
	}
	world, ok := r.graph.WorldPose(hit.Node)
	if !ok {
		return Session{}, false
	}
	local, _ := r.graph.LocalPose(hit.Node)
	parent, ok := r.graph.ParentWorldPose(hit.Node)
	if !ok {
		parent = pose.Identity()
	}
	if src.ID == input.Pointer {
		// Keep the synthesized pointer pose on the grabbed surface.
		src.Anchor(hit.Distance)
	}

	s := &Session{
		ID:            uuid.NewString(),
		Source:        src.ID,
		Target:        hit.Node,
		State:         Armed,
		InitialTarget: world,
		InitialInput:  src.Pose,
		HitPoint:      hit.Point,
		Distance:      hit.Distance,
		initialLocal:  local,
		parentWorld:   parent,
	}
	if src.Secondary == input.Pressed {
		s.Mode = Rotate
	}
	r.sessions[src.ID] = s
	r.activate(s)
	return *s, true
}

func (r *Registry) activate(s *Session) {
	s.State = Active
	r.arbiter.Acquire()
	r.log.Debug("session active",
		zap.String("session", s.ID),
		zap.Stringer("source", s.Source),
		zap.Uint32("node", uint32(s.Target)),
		zap.Float32("distance", s.Distance))
	for _, fn := range r.onStarted {
		fn(*s)
	}
}

// End releases the session of source. Calling it again, or for a source without a session,
// is a no-op that returns false.
func (r *Registry) End(source input.SourceID, reason Reason) bool {
	s, ok := r.sessions[source]
	if !ok {
		return false
	}
	delete(r.sessions, source)
	s.State = Released
	r.arbiter.Release()
	r.log.Debug("session released",
		zap.String("session", s.ID),
		zap.Stringer("source", s.Source),
		zap.Stringer("reason", reason))
	for _, fn := range r.onEnded {
		fn(*s, reason)
	}
	return true
}

// EndAll releases every session in ascending source order.
func (r *Registry) EndAll(reason Reason) {
	for _, id := range r.sourceIDs() {
		r.End(id, reason)
	}
}

// SetMode switches the live mode of source's session. On an actual switch the session
// re-snapshots the target's current pose and src's pose so the object does not jump.
func (r *Registry) SetMode(src *input.Source, mode Mode) {
	s, ok := r.sessions[src.ID]
	if !ok || s.Mode == mode {
		return
	}
	world, ok := r.graph.WorldPose(s.Target)
	if !ok {
		// The next update releases it.
		return
	}
	local, _ := r.graph.LocalPose(s.Target)
	s.Mode = mode
	s.InitialTarget = world
	s.initialLocal = local
	s.InitialInput = src.Pose
	r.log.Debug("session mode", zap.String("session", s.ID), zap.Stringer("mode", mode))
}

// Update integrates every active session against its source's current pose, in ascending
// source order. Sessions whose target vanished are released implicitly.
func (r *Registry) Update(lookup func(input.SourceID) *input.Source) {
	for _, id := range r.sourceIDs() {
		s := r.sessions[id]
		if !r.graph.Exists(s.Target) {
			r.log.Warn("manipulation target removed, releasing",
				zap.String("session", s.ID),
				zap.Uint32("node", uint32(s.Target)))
			r.End(id, ReasonTargetRemoved)
			continue
		}
		src := lookup(id)
		if src == nil {
			continue
		}
		local, ok := s.targetLocal(src.Pose)
		if !ok {
			continue
		}
		if err := r.graph.SetLocalPose(s.Target, local); err != nil {
			r.log.Error("write target pose", zap.String("session", s.ID), zap.Error(err))
			r.End(id, ReasonWriteFailed)
		}
	}
}

// Session returns a copy of source's session.
func (r *Registry) Session(source input.SourceID) (Session, bool) {
	s, ok := r.sessions[source]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// State returns the state machine state of source: Active while it holds a session,
// Idle otherwise (Released is transient and the machine is reused for the next grab).
func (r *Registry) State(source input.SourceID) State {
	if s, ok := r.sessions[source]; ok {
		return s.State
	}
	return Idle
}

// Sessions returns copies of all sessions in ascending source order.
func (r *Registry) Sessions() []Session {
	out := make([]Session, 0, len(r.sessions))
	for _, id := range r.sourceIDs() {
		out = append(out, *r.sessions[id])
	}
	return out
}

// Holder returns the source whose session targets node.
func (r *Registry) Holder(node scenegraph.NodeID) (input.SourceID, bool) {
	for _, id := range r.sourceIDs() {
		if r.sessions[id].Target == node {
			return id, true
		}
	}
	return 0, false
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

func (r *Registry) sourceIDs() []input.SourceID {
	ids := make([]input.SourceID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
