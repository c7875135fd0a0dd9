package placement

import (
	"go.uber.org/zap"

	"spatial-engine/internal/pose"
	"spatial-engine/internal/scenegraph"
)

// State is the externally visible placement state. Candidate is nil when there is no valid
// candidate this frame.
type State struct {
	Active    bool
	Candidate *pose.Pose
	Confirmed bool
}

// Controller runs the place-once flow: while unconfirmed it tracks a candidate pose from its
// source and shows an indicator there; Confirm freezes the manipulable nodes at the candidate.
// After confirmation it never writes a pose again until Reset.
type Controller struct {
	graph  scenegraph.Adapter
	source Source
	log    *zap.Logger

	active       bool
	confirmed    bool
	candidate    pose.Pose
	hasCandidate bool

	listeners []func(pose.Pose)
}

// NewController returns an active, unconfirmed controller fed by source.
func NewController(graph scenegraph.Adapter, source Source, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		graph:  graph,
		source: source,
		log:    log.Named("placement"),
		active: true,
	}
}

// SetSource swaps the candidate source, e.g. when an immersive session with hit testing starts.
func (c *Controller) SetSource(source Source) {
	c.source = source
	c.hasCandidate = false
}

// OnConfirmed registers fn to run with the confirmed pose.
func (c *Controller) OnConfirmed(fn func(pose.Pose)) {
	c.listeners = append(c.listeners, fn)
}

// Pending reports whether placement still owns select events.
func (c *Controller) Pending() bool {
	return c.active && !c.confirmed
}

// Update recomputes the candidate. A frame without a valid candidate clears it.
func (c *Controller) Update() {
	if !c.Pending() {
		return
	}
	c.hasCandidate = false
	if c.source != nil {
		c.candidate, c.hasCandidate = c.source.Candidate()
		if fs, ok := c.source.(FrameSource); ok {
			fs.EndFrame()
		}
	}
}

// Confirm freezes the position and orientation of nodes at the candidate, keeping each
// node's scale, and reveals them. It returns false and changes nothing when placement is not
// pending or there is no candidate.
func (c *Controller) Confirm(nodes []scenegraph.NodeID) bool {
	if !c.Pending() {
		return false
	}
	if !c.hasCandidate {
		c.log.Debug("confirm ignored, no candidate")
		return false
	}
	at := c.candidate
	for _, id := range nodes {
		if err := c.place(id, at); err != nil {
			c.log.Error("place node", zap.Uint32("node", uint32(id)), zap.Error(err))
		}
	}
	c.setVisible(nodes, true)
	c.confirmed = true
	c.hasCandidate = false
	c.log.Info("placement confirmed",
		zap.Float32("x", at.Position.X),
		zap.Float32("y", at.Position.Y),
		zap.Float32("z", at.Position.Z),
		zap.Int("nodes", len(nodes)))
	for _, fn := range c.listeners {
		fn(at)
	}
	return true
}

func (c *Controller) place(id scenegraph.NodeID, at pose.Pose) error {
	local, ok := c.graph.LocalPose(id)
	if !ok {
		return scenegraph.ErrUnknownNode
	}
	parent, ok := c.graph.ParentWorldPose(id)
	if !ok {
		parent = pose.Identity()
	}
	world := at
	world.Scale = parent.Mul(local).Scale
	next := parent.Inverse().Mul(world)
	next.Scale = local.Scale
	return c.graph.SetLocalPose(id, next)
}

// Skip marks placement as done without moving anything, for hosts that run with placement
// disabled.
func (c *Controller) Skip(nodes []scenegraph.NodeID) {
	c.active = false
	c.confirmed = true
	c.hasCandidate = false
	c.setVisible(nodes, true)
}

// Reset re-enters placement mode and hides nodes until the next confirm.
func (c *Controller) Reset(nodes []scenegraph.NodeID) {
	c.active = true
	c.confirmed = false
	c.hasCandidate = false
	c.setVisible(nodes, false)
	c.log.Info("placement reset")
}

// Hide hides nodes while placement is pending. Nodes added before confirmation use it.
func (c *Controller) Hide(nodes []scenegraph.NodeID) {
	if c.Pending() {
		c.setVisible(nodes, false)
	}
}

// Show reveals nodes while placement is pending, for nodes leaving the placed set.
func (c *Controller) Show(nodes []scenegraph.NodeID) {
	if c.Pending() && len(nodes) > 0 {
		c.setVisible(nodes, true)
	}
}

// Indicator returns the indicator pose; visible is false when it must not be drawn.
func (c *Controller) Indicator() (p pose.Pose, visible bool) {
	if !c.Pending() || !c.hasCandidate {
		return pose.Pose{}, false
	}
	return c.candidate, true
}

// State returns a copy of the placement state.
func (c *Controller) State() State {
	st := State{Active: c.active, Confirmed: c.confirmed}
	if c.Pending() && c.hasCandidate {
		p := c.candidate
		st.Candidate = &p
	}
	return st
}

func (c *Controller) setVisible(nodes []scenegraph.NodeID, visible bool) {
	v, ok := c.graph.(scenegraph.Visibility)
	if !ok {
		return
	}
	for _, id := range nodes {
		v.SetVisible(id, visible)
	}
}
