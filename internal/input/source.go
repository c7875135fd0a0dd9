package input

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"spatial-engine/internal/pose"
)

// SourceID identifies an input source. Ascending id order is the processing order
// within a frame.
type SourceID int

const (
	// Pointer is the 2D mouse/touch pointer; its pose is synthesized from a screen ray.
	Pointer SourceID = iota
	// Controller0 and Controller1 are tracked 6-DoF controllers.
	Controller0
	Controller1
)

// Sources lists every source id in processing order.
var Sources = []SourceID{Pointer, Controller0, Controller1}

func (id SourceID) String() string {
	switch id {
	case Pointer:
		return "pointer"
	case Controller0:
		return "controller-0"
	case Controller1:
		return "controller-1"
	default:
		return fmt.Sprintf("source-%d", int(id))
	}
}

// Valid reports whether id is one of the known sources.
func (id SourceID) Valid() bool {
	return id >= Pointer && id <= Controller1
}

// ButtonState is the state of a trigger or button.
type ButtonState int

const (
	Idle ButtonState = iota
	Pressed
	Released
)

func (b ButtonState) String() string {
	switch b {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// DefaultPointerDepth is the distance along the pointer ray used for its synthesized pose
// when nothing is grabbed.
const DefaultPointerDepth = 1

// Source is the unified view of the pointer and the controllers: a world pose, an aim ray
// and button state. Primary is select (trigger / left button), Secondary is squeeze (grip /
// right button) and toggles rotate mode.
type Source struct {
	ID        SourceID
	Pose      pose.Pose
	Aim       rl.Ray
	Primary   ButtonState
	Secondary ButtonState
	Connected bool

	// depth is the distance along Aim where a pointer's synthesized pose sits.
	depth        float32
	defaultDepth float32
}

// NewSource returns a disconnected source with an identity pose.
func NewSource(id SourceID) *Source {
	s := &Source{ID: id, depth: DefaultPointerDepth, defaultDepth: DefaultPointerDepth}
	s.SetPose(pose.Identity())
	return s
}

// SetPose updates a tracked pose; the aim ray follows the pose's forward direction.
func (s *Source) SetPose(p pose.Pose) {
	s.Pose = pose.New(p.Position, p.Orientation, p.Scale)
	s.Aim = s.Pose.Ray()
}

// SetRay updates a pointer from a screen ray (e.g. raylib GetScreenToWorldRay).
// The pose is synthesized at the current depth along the ray, oriented along it.
// A malformed ray leaves the source unchanged and returns false.
func (s *Source) SetRay(r rl.Ray) bool {
	r, ok := pose.NormalizeRay(r)
	if !ok {
		return false
	}
	s.Aim = r
	s.Pose = pose.New(
		rl.Vector3Add(r.Position, rl.Vector3Scale(r.Direction, s.depth)),
		pose.LookRotation(r.Direction),
		rl.Vector3One(),
	)
	return true
}

// Anchor sets the depth at which the synthesized pointer pose sits along the aim ray, so a
// grabbed object stays at the distance it was picked at. Non-positive depths are ignored.
func (s *Source) Anchor(depth float32) {
	if depth <= 0 {
		return
	}
	s.depth = depth
	s.SetRay(s.Aim)
}

// ResetAnchor restores the default pointer depth.
func (s *Source) ResetAnchor() {
	s.Anchor(s.defaultDepth)
}

// SetDefaultDepth changes the depth the pointer returns to when released.
// Non-positive depths are ignored.
func (s *Source) SetDefaultDepth(depth float32) {
	if depth <= 0 {
		return
	}
	s.defaultDepth = depth
	s.Anchor(depth)
}

// Depth returns the current pointer depth.
func (s *Source) Depth() float32 {
	return s.depth
}
