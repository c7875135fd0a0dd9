package scenegraph

import (
	"errors"

	rl "github.com/gen2brain/raylib-go/raylib"

	"spatial-engine/internal/pose"
)

// NodeID identifies a node in the scene graph. Zero is never assigned.
type NodeID uint32

// ErrUnknownNode is returned when an operation names a node that does not exist.
var ErrUnknownNode = errors.New("scenegraph: unknown node")

// Hit is one ray intersection with a primitive node, in world space.
type Hit struct {
	Node     NodeID
	Point    rl.Vector3
	Normal   rl.Vector3
	Distance float32
}

// Adapter is the narrow view of a scene graph that the manipulation engine consumes.
// The engine holds node ids only; the adapter owns the nodes.
type Adapter interface {
	// ManipulableNodes returns the ids of nodes flagged manipulable, in ascending id order.
	ManipulableNodes() []NodeID
	// Exists reports whether id is still part of the graph.
	Exists(id NodeID) bool
	// WorldPose returns the node's pose in world space.
	WorldPose(id NodeID) (pose.Pose, bool)
	// LocalPose returns the node's pose relative to its parent.
	LocalPose(id NodeID) (pose.Pose, bool)
	// ParentWorldPose returns the world pose of the node's parent (identity for top-level nodes).
	ParentWorldPose(id NodeID) (pose.Pose, bool)
	// SetLocalPose replaces the node's parent-relative pose.
	SetLocalPose(id NodeID, p pose.Pose) error
	// Raycast intersects ray with the subtrees rooted at candidates and returns the hits
	// ordered by distance (ties by ascending node id). Hits behind the origin are excluded.
	Raycast(ray rl.Ray, candidates []NodeID) []Hit
	// ResolveTopLevelAncestor maps a primitive to the manipulable node that owns it.
	ResolveTopLevelAncestor(id NodeID) NodeID
}

// Visibility is implemented by adapters that can hide nodes (e.g. before placement).
type Visibility interface {
	SetVisible(id NodeID, visible bool)
}
