package manipulation

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"spatial-engine/internal/input"
	"spatial-engine/internal/pose"
	"spatial-engine/internal/scenegraph"
)

// Mode is the live sub-state of an active session.
type Mode int

const (
	Translate Mode = iota
	Rotate
)

func (m Mode) String() string {
	if m == Rotate {
		return "rotate"
	}
	return "translate"
}

// State is the lifecycle state of a source's state machine.
type State int

const (
	Idle State = iota
	Armed
	Active
	Released
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Active:
		return "active"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// Reason says why a session was released.
type Reason int

const (
	ReasonSelectEnd Reason = iota
	ReasonDisconnected
	ReasonTargetRemoved
	ReasonWriteFailed
	ReasonReset
)

func (r Reason) String() string {
	switch r {
	case ReasonSelectEnd:
		return "select-end"
	case ReasonDisconnected:
		return "disconnected"
	case ReasonTargetRemoved:
		return "target-removed"
	case ReasonWriteFailed:
		return "write-failed"
	case ReasonReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Session is one input source manipulating one node.
// InitialTarget and InitialInput are world poses snapshotted at grab time and re-snapshotted
// whenever the mode switches, so each mode segment integrates from where the last one ended.
type Session struct {
	ID            string
	Source        input.SourceID
	Target        scenegraph.NodeID
	Mode          Mode
	State         State
	InitialTarget pose.Pose
	InitialInput  pose.Pose
	HitPoint      rl.Vector3
	Distance      float32

	initialLocal pose.Pose
	parentWorld  pose.Pose
}

// targetLocal computes the node's new parent-relative pose for the current input pose.
// ok is false when the frame must be skipped (degenerate rotation).
// Scale always comes from the snapshot, so manipulation never drifts it.
func (s *Session) targetLocal(current pose.Pose) (pose.Pose, bool) {
	local := s.initialLocal
	switch s.Mode {
	case Translate:
		delta := rl.Vector3Subtract(current.Position, s.InitialInput.Position)
		local.Position = rl.Vector3Add(s.initialLocal.Position, s.parentWorld.InverseTransformDirection(delta))
	case Rotate:
		delta, ok := pose.RotationDelta(s.InitialInput.Orientation, current.Orientation)
		if !ok {
			return local, false
		}
		local.Orientation = rl.QuaternionNormalize(rl.QuaternionMultiply(s.initialLocal.Orientation, delta))
	}
	local.Scale = s.initialLocal.Scale
	return local, true
}
