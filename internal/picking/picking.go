package picking

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"spatial-engine/internal/pose"
	"spatial-engine/internal/scenegraph"
)

// Hit is a resolved pick: the manipulable node that owns the closest primitive hit,
// the world hit point and the distance along the ray.
type Hit struct {
	Node      scenegraph.NodeID
	Primitive scenegraph.NodeID
	Point     rl.Vector3
	Distance  float32
}

// Picker resolves rays against the current manipulable set. It holds no state besides the
// adapter reference; Pick is a pure query.
type Picker struct {
	graph scenegraph.Adapter
}

// New returns a picker querying graph.
func New(graph scenegraph.Adapter) *Picker {
	return &Picker{graph: graph}
}

// Pick returns the closest hit of ray against the candidate subtrees, resolved to its
// manipulable ancestor. A zero-length direction, an empty candidate set or no intersection
// is a miss. Hits resolving to a node outside candidates are skipped.
func (p *Picker) Pick(ray rl.Ray, candidates []scenegraph.NodeID) (Hit, bool) {
	if len(candidates) == 0 {
		return Hit{}, false
	}
	ray, ok := pose.NormalizeRay(ray)
	if !ok {
		return Hit{}, false
	}
	allowed := make(map[scenegraph.NodeID]bool, len(candidates))
	for _, id := range candidates {
		allowed[id] = true
	}
	for _, h := range p.graph.Raycast(ray, candidates) {
		target := p.graph.ResolveTopLevelAncestor(h.Node)
		if !allowed[target] {
			continue
		}
		return Hit{Node: target, Primitive: h.Node, Point: h.Point, Distance: h.Distance}, true
	}
	return Hit{}, false
}
