package pose

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Epsilon is the tolerance used for pose comparisons and for detecting degenerate
// vectors and quaternions (zero-length directions, zero-magnitude rotations).
const Epsilon = 1e-5

// Forward is the aim direction of an input device in its own space (-Z, as in raylib/OpenGL).
var Forward = rl.NewVector3(0, 0, -1)

// Up is the world up axis (Y-up, same as the scene grid).
var Up = rl.NewVector3(0, 1, 0)

// Pose is a position, orientation and scale relative to a parent.
// Orientation is kept normalized by every constructor and mutator in this package.
// Translation and rotation helpers never touch Scale.
type Pose struct {
	Position    rl.Vector3
	Orientation rl.Quaternion
	Scale       rl.Vector3
}

// Identity returns the pose at the origin with no rotation and unit scale.
func Identity() Pose {
	return Pose{
		Position:    rl.Vector3Zero(),
		Orientation: rl.QuaternionIdentity(),
		Scale:       rl.Vector3One(),
	}
}

// At returns an identity pose moved to position.
func At(position rl.Vector3) Pose {
	p := Identity()
	p.Position = position
	return p
}

// New returns a pose with the given components. A degenerate orientation becomes identity.
func New(position rl.Vector3, orientation rl.Quaternion, scale rl.Vector3) Pose {
	q, ok := NormalizeQuat(orientation)
	if !ok {
		q = rl.QuaternionIdentity()
	}
	return Pose{Position: position, Orientation: q, Scale: scale}
}

// NormalizeQuat returns q scaled to unit length. ok is false when q has (near) zero magnitude.
func NormalizeQuat(q rl.Quaternion) (rl.Quaternion, bool) {
	if rl.QuaternionLength(q) < Epsilon {
		return rl.QuaternionIdentity(), false
	}
	return rl.QuaternionNormalize(q), true
}

// Translated returns p moved by delta. Orientation and scale are unchanged.
func (p Pose) Translated(delta rl.Vector3) Pose {
	p.Position = rl.Vector3Add(p.Position, delta)
	return p
}

// WithOrientation returns p with a new (normalized) orientation. Position and scale are unchanged.
// A degenerate q leaves p as is.
func (p Pose) WithOrientation(q rl.Quaternion) Pose {
	if n, ok := NormalizeQuat(q); ok {
		p.Orientation = n
	}
	return p
}

// Mul composes p (parent) with child, returning the child's pose in p's parent space.
// Scale is applied component-wise, which is exact for uniform scale and for unrotated
// non-uniform scale.
func (p Pose) Mul(child Pose) Pose {
	scaled := rl.Vector3Multiply(p.Scale, child.Position)
	return Pose{
		Position:    rl.Vector3Add(p.Position, rl.Vector3RotateByQuaternion(scaled, p.Orientation)),
		Orientation: rl.QuaternionNormalize(rl.QuaternionMultiply(p.Orientation, child.Orientation)),
		Scale:       rl.Vector3Multiply(p.Scale, child.Scale),
	}
}

// Inverse returns the pose that undoes p, so that p.Inverse().Mul(p) is identity.
// Zero scale components are treated as 1.
func (p Pose) Inverse() Pose {
	inv := rl.QuaternionInvert(p.Orientation)
	invScale := safeReciprocal(p.Scale)
	pos := rl.Vector3RotateByQuaternion(rl.Vector3Negate(p.Position), inv)
	return Pose{
		Position:    rl.Vector3Multiply(invScale, pos),
		Orientation: rl.QuaternionNormalize(inv),
		Scale:       invScale,
	}
}

// TransformPoint maps a point from p's local space into its parent space.
func (p Pose) TransformPoint(v rl.Vector3) rl.Vector3 {
	return rl.Vector3Add(p.Position, rl.Vector3RotateByQuaternion(rl.Vector3Multiply(p.Scale, v), p.Orientation))
}

// InverseTransformDirection maps a direction (no translation) from parent space into p's local
// space, including the inverse scale.
func (p Pose) InverseTransformDirection(v rl.Vector3) rl.Vector3 {
	local := rl.Vector3RotateByQuaternion(v, rl.QuaternionInvert(p.Orientation))
	return rl.Vector3Multiply(local, safeReciprocal(p.Scale))
}

// Forward returns the world aim direction of p (Forward rotated by the orientation).
func (p Pose) Forward() rl.Vector3 {
	return rl.Vector3Normalize(rl.Vector3RotateByQuaternion(Forward, p.Orientation))
}

// Ray returns the aim ray of p: origin at the position, direction along Forward().
func (p Pose) Ray() rl.Ray {
	return rl.NewRay(p.Position, p.Forward())
}

// Matrix returns the model matrix (scale, then rotation, then translation) for drawing.
func (p Pose) Matrix() rl.Matrix {
	s := rl.MatrixScale(p.Scale.X, p.Scale.Y, p.Scale.Z)
	t := rl.MatrixTranslate(p.Position.X, p.Position.Y, p.Position.Z)
	return rl.MatrixMultiply(rl.MatrixMultiply(s, rotationMatrix(p.Orientation)), t)
}

// rotationMatrix builds the rotation from the images of the basis vectors, so it agrees with
// Vector3RotateByQuaternion. raylib-go's QuaternionToMatrix yields the transpose.
func rotationMatrix(q rl.Quaternion) rl.Matrix {
	x := rl.Vector3RotateByQuaternion(rl.NewVector3(1, 0, 0), q)
	y := rl.Vector3RotateByQuaternion(rl.NewVector3(0, 1, 0), q)
	z := rl.Vector3RotateByQuaternion(rl.NewVector3(0, 0, 1), q)
	m := rl.MatrixIdentity()
	m.M0, m.M1, m.M2 = x.X, x.Y, x.Z
	m.M4, m.M5, m.M6 = y.X, y.Y, y.Z
	m.M8, m.M9, m.M10 = z.X, z.Y, z.Z
	return m
}

// RotationDelta returns inverse(from) * to, the rotation that takes from to to in from's frame.
// ok is false when either quaternion is degenerate.
func RotationDelta(from, to rl.Quaternion) (rl.Quaternion, bool) {
	f, ok := NormalizeQuat(from)
	if !ok {
		return rl.QuaternionIdentity(), false
	}
	t, ok := NormalizeQuat(to)
	if !ok {
		return rl.QuaternionIdentity(), false
	}
	return NormalizeQuat(rl.QuaternionMultiply(rl.QuaternionInvert(f), t))
}

// LookRotation returns the orientation that turns Forward onto dir.
// Opposite directions resolve to a half turn about Up. A zero dir returns identity.
func LookRotation(dir rl.Vector3) rl.Quaternion {
	if rl.Vector3Length(dir) < Epsilon {
		return rl.QuaternionIdentity()
	}
	d := rl.Vector3Normalize(dir)
	if rl.Vector3DotProduct(Forward, d) < -1+Epsilon {
		return rl.QuaternionFromAxisAngle(Up, math32.Pi)
	}
	return rl.QuaternionNormalize(rl.QuaternionFromVector3ToVector3(Forward, d))
}

// NormalizeRay returns r with a unit-length direction. ok is false for a zero-length
// (malformed) direction.
func NormalizeRay(r rl.Ray) (rl.Ray, bool) {
	if rl.Vector3Length(r.Direction) < Epsilon {
		return r, false
	}
	r.Direction = rl.Vector3Normalize(r.Direction)
	return r, true
}

// VecApproxEqual reports whether a and b differ by at most eps on every axis.
func VecApproxEqual(a, b rl.Vector3, eps float32) bool {
	return math32.Abs(a.X-b.X) <= eps && math32.Abs(a.Y-b.Y) <= eps && math32.Abs(a.Z-b.Z) <= eps
}

// QuatApproxEqual reports whether a and b describe the same rotation within eps.
// q and -q are the same rotation.
func QuatApproxEqual(a, b rl.Quaternion, eps float32) bool {
	dot := a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
	return 1-math32.Abs(dot) <= eps
}

// ApproxEqual reports whether a and b are equal within eps.
func ApproxEqual(a, b Pose, eps float32) bool {
	return VecApproxEqual(a.Position, b.Position, eps) &&
		QuatApproxEqual(a.Orientation, b.Orientation, eps) &&
		VecApproxEqual(a.Scale, b.Scale, eps)
}

// MaxComponent returns the largest absolute component of v (used to scale bounding spheres).
func MaxComponent(v rl.Vector3) float32 {
	return math32.Max(math32.Abs(v.X), math32.Max(math32.Abs(v.Y), math32.Abs(v.Z)))
}

func safeReciprocal(v rl.Vector3) rl.Vector3 {
	r := rl.Vector3One()
	if math32.Abs(v.X) > Epsilon {
		r.X = 1 / v.X
	}
	if math32.Abs(v.Y) > Epsilon {
		r.Y = 1 / v.Y
	}
	if math32.Abs(v.Z) > Epsilon {
		r.Z = 1 / v.Z
	}
	return r
}
