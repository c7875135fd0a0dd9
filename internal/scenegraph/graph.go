package scenegraph

import (
	"fmt"
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/jinzhu/copier"

	"spatial-engine/internal/pose"
)

// Node is one record in the graph. Parent zero means the node hangs off the scene root.
// Manipulable is the explicit flag the picking engine resolves hits to.
type Node struct {
	ID          NodeID
	Name        string
	Parent      NodeID
	Children    []NodeID
	Local       pose.Pose
	Shape       Shape
	Manipulable bool
	Visible     bool
}

// NodeSpec describes a node to add.
type NodeSpec struct {
	Name        string
	Parent      NodeID
	Local       pose.Pose
	Shape       Shape
	Manipulable bool
}

// Graph is an in-memory scene graph. It implements Adapter and Visibility.
// It is not safe for concurrent use; the host mutates it from the frame loop only.
type Graph struct {
	nodes  map[NodeID]*Node
	roots  []NodeID
	nextID NodeID
	parts  int
}

var (
	_ Adapter    = (*Graph)(nil)
	_ Visibility = (*Graph)(nil)
)

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// Add inserts a node under spec.Parent (or the root) and returns its id.
// A zero Local scale is replaced by unit scale so an unset pose is usable.
func (g *Graph) Add(spec NodeSpec) (NodeID, error) {
	if spec.Parent != 0 {
		if _, ok := g.nodes[spec.Parent]; !ok {
			return 0, fmt.Errorf("add %q under %d: %w", spec.Name, spec.Parent, ErrUnknownNode)
		}
	}
	local := spec.Local
	if local.Scale == (rl.Vector3{}) {
		local.Scale = rl.Vector3One()
	}
	local = pose.New(local.Position, local.Orientation, local.Scale)

	g.nextID++
	id := g.nextID
	g.nodes[id] = &Node{
		ID:          id,
		Name:        spec.Name,
		Parent:      spec.Parent,
		Local:       local,
		Shape:       spec.Shape,
		Manipulable: spec.Manipulable,
		Visible:     true,
	}
	if spec.Parent == 0 {
		g.roots = append(g.roots, id)
	} else {
		p := g.nodes[spec.Parent]
		p.Children = append(p.Children, id)
	}
	return id, nil
}

// AddPart adds a top-level manipulable node named part_N, N counting parts added so far.
func (g *Graph) AddPart(shape Shape, local pose.Pose) NodeID {
	name := fmt.Sprintf("part_%d", g.parts)
	g.parts++
	// Root parent cannot fail.
	id, _ := g.Add(NodeSpec{Name: name, Local: local, Shape: shape, Manipulable: true})
	return id
}

// Remove deletes id and its whole subtree.
func (g *Graph) Remove(id NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("remove %d: %w", id, ErrUnknownNode)
	}
	if n.Parent == 0 {
		g.roots = slices.DeleteFunc(g.roots, func(r NodeID) bool { return r == id })
	} else if p, ok := g.nodes[n.Parent]; ok {
		p.Children = slices.DeleteFunc(p.Children, func(c NodeID) bool { return c == id })
	}
	g.removeSubtree(id)
	return nil
}

func (g *Graph) removeSubtree(id NodeID) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for _, c := range n.Children {
		g.removeSubtree(c)
	}
	delete(g.nodes, id)
}

// Clear removes every node. The part counter restarts at zero.
func (g *Graph) Clear() {
	g.nodes = make(map[NodeID]*Node)
	g.roots = nil
	g.parts = 0
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns a copy of the record for id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	out := *n
	out.Children = slices.Clone(n.Children)
	return out, true
}

// Snapshot returns deep copies of all nodes in ascending id order, safe to keep across frames.
func (g *Graph) Snapshot() ([]Node, error) {
	src := make([]Node, 0, len(g.nodes))
	for _, id := range g.sortedIDs() {
		src = append(src, *g.nodes[id])
	}
	var out []Node
	if err := copier.CopyWithOption(&out, &src, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return out, nil
}

// SetVisible shows or hides a node and its subtree for drawing and picking.
func (g *Graph) SetVisible(id NodeID, visible bool) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	n.Visible = visible
	for _, c := range n.Children {
		g.SetVisible(c, visible)
	}
}

// SetManipulable flips the manipulable flag on an existing node.
func (g *Graph) SetManipulable(id NodeID, manipulable bool) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("set manipulable %d: %w", id, ErrUnknownNode)
	}
	n.Manipulable = manipulable
	return nil
}

// ManipulableNodes returns manipulable node ids in ascending order.
func (g *Graph) ManipulableNodes() []NodeID {
	var out []NodeID
	for _, id := range g.sortedIDs() {
		if g.nodes[id].Manipulable {
			out = append(out, id)
		}
	}
	return out
}

// Exists reports whether id is in the graph.
func (g *Graph) Exists(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// LocalPose returns the parent-relative pose of id.
func (g *Graph) LocalPose(id NodeID) (pose.Pose, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return pose.Pose{}, false
	}
	return n.Local, true
}

// WorldPose composes the local poses from the root down to id.
func (g *Graph) WorldPose(id NodeID) (pose.Pose, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return pose.Pose{}, false
	}
	if n.Parent == 0 {
		return n.Local, true
	}
	parent, ok := g.WorldPose(n.Parent)
	if !ok {
		return n.Local, true
	}
	return parent.Mul(n.Local), true
}

// ParentWorldPose returns the world pose of id's parent, identity for top-level nodes.
func (g *Graph) ParentWorldPose(id NodeID) (pose.Pose, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return pose.Pose{}, false
	}
	if n.Parent == 0 {
		return pose.Identity(), true
	}
	return g.WorldPose(n.Parent)
}

// SetLocalPose replaces the parent-relative pose of id. The orientation is normalized.
func (g *Graph) SetLocalPose(id NodeID, p pose.Pose) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("set pose %d: %w", id, ErrUnknownNode)
	}
	n.Local = pose.New(p.Position, p.Orientation, p.Scale)
	return nil
}

// Raycast intersects ray with every visible shaped node in the candidate subtrees.
// Hits are sorted by distance, ties by ascending node id.
func (g *Graph) Raycast(ray rl.Ray, candidates []NodeID) []Hit {
	seen := make(map[NodeID]bool, len(candidates))
	var hits []Hit
	var walk func(id NodeID)
	walk = func(id NodeID) {
		if seen[id] {
			return
		}
		seen[id] = true
		n, ok := g.nodes[id]
		if !ok || !n.Visible {
			return
		}
		if n.Shape.Kind != ShapeNone {
			if world, ok := g.WorldPose(id); ok {
				if c, hit := n.Shape.intersect(ray, world); hit {
					hits = append(hits, Hit{Node: id, Point: c.Point, Normal: c.Normal, Distance: c.Distance})
				}
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, id := range candidates {
		walk(id)
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		case a.Node < b.Node:
			return -1
		case a.Node > b.Node:
			return 1
		}
		return 0
	})
	return hits
}

// ResolveTopLevelAncestor returns the nearest manipulable node at or above id.
// When no ancestor is manipulable, the top-level node (child of the root) is returned.
func (g *Graph) ResolveTopLevelAncestor(id NodeID) NodeID {
	cur, ok := g.nodes[id]
	if !ok {
		return id
	}
	for {
		if cur.Manipulable || cur.Parent == 0 {
			return cur.ID
		}
		parent, ok := g.nodes[cur.Parent]
		if !ok {
			return cur.ID
		}
		cur = parent
	}
}

// Bounds returns the world AABB of all visible shaped nodes. ok is false for an empty scene.
func (g *Graph) Bounds() (rl.BoundingBox, bool) {
	var box rl.BoundingBox
	found := false
	for _, id := range g.sortedIDs() {
		n := g.nodes[id]
		if !n.Visible {
			continue
		}
		world, _ := g.WorldPose(id)
		b, ok := n.Shape.bounds(world)
		if !ok {
			continue
		}
		if !found {
			box, found = b, true
			continue
		}
		box.Min = rl.Vector3Min(box.Min, b.Min)
		box.Max = rl.Vector3Max(box.Max, b.Max)
	}
	return box, found
}

func (g *Graph) sortedIDs() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
