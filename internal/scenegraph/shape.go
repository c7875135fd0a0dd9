package scenegraph

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"spatial-engine/internal/pose"
)

// ShapeKind selects the collision geometry of a node.
type ShapeKind int

const (
	// ShapeNone marks a grouping node with no geometry of its own.
	ShapeNone ShapeKind = iota
	ShapeSphere
	ShapeBox
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeNone:
		return "none"
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	default:
		return "unknown"
	}
}

// Shape is the collision geometry of a node in its local space, before the node's scale.
// Radius is used by spheres; HalfExtents by boxes.
type Shape struct {
	Kind        ShapeKind
	Radius      float32
	HalfExtents rl.Vector3
}

// Sphere returns a sphere shape of the given radius.
func Sphere(radius float32) Shape {
	return Shape{Kind: ShapeSphere, Radius: radius}
}

// Box returns a box shape with the given full size (width, height, length).
func Box(size rl.Vector3) Shape {
	return Shape{Kind: ShapeBox, HalfExtents: rl.Vector3Scale(size, 0.5)}
}

// intersect returns the hit of ray against the shape placed at world.
// Boxes are oriented: the ray is moved into the box frame (rotation and translation only,
// so distances are preserved) and tested against an axis-aligned box scaled by the node.
func (s Shape) intersect(ray rl.Ray, world pose.Pose) (rl.RayCollision, bool) {
	var c rl.RayCollision
	switch s.Kind {
	case ShapeSphere:
		radius := s.Radius * pose.MaxComponent(world.Scale)
		if radius <= 0 {
			return c, false
		}
		// Origin inside the sphere reports the exit point; treat as a hit at that distance.
		c = rl.GetRayCollisionSphere(ray, world.Position, radius)
	case ShapeBox:
		half := rl.Vector3Multiply(s.HalfExtents, absVec(world.Scale))
		inv := rl.QuaternionInvert(world.Orientation)
		local := rl.NewRay(
			rl.Vector3RotateByQuaternion(rl.Vector3Subtract(ray.Position, world.Position), inv),
			rl.Vector3RotateByQuaternion(ray.Direction, inv),
		)
		c = rl.GetRayCollisionBox(local, rl.NewBoundingBox(rl.Vector3Negate(half), half))
		if c.Hit {
			c.Point = rl.Vector3Add(world.Position, rl.Vector3RotateByQuaternion(c.Point, world.Orientation))
			c.Normal = rl.Vector3RotateByQuaternion(c.Normal, world.Orientation)
		}
	default:
		return c, false
	}
	// raylib reports spheres behind the origin as hits with a negative distance.
	if !c.Hit || c.Distance < 0 {
		return c, false
	}
	return c, true
}

// bounds returns the world AABB enclosing the shape placed at world.
func (s Shape) bounds(world pose.Pose) (rl.BoundingBox, bool) {
	var r float32
	switch s.Kind {
	case ShapeSphere:
		r = s.Radius * pose.MaxComponent(world.Scale)
	case ShapeBox:
		h := rl.Vector3Multiply(s.HalfExtents, absVec(world.Scale))
		r = math32.Sqrt(h.X*h.X + h.Y*h.Y + h.Z*h.Z)
	default:
		return rl.BoundingBox{}, false
	}
	ext := rl.NewVector3(r, r, r)
	return rl.NewBoundingBox(rl.Vector3Subtract(world.Position, ext), rl.Vector3Add(world.Position, ext)), true
}

func absVec(v rl.Vector3) rl.Vector3 {
	return rl.NewVector3(math32.Abs(v.X), math32.Abs(v.Y), math32.Abs(v.Z))
}
