package placement

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"spatial-engine/internal/pose"
)

// Source produces the candidate placement pose for the current frame.
type Source interface {
	Candidate() (pose.Pose, bool)
}

// FrameSource is a Source whose report only lives for one frame.
type FrameSource interface {
	Source
	EndFrame()
}

// PlaneSource intersects an aim ray with the horizontal plane y = Height.
type PlaneSource struct {
	Height float32
	aim    func() (rl.Ray, bool)
}

// NewPlaneSource returns a plane source fed by aim, usually the pointer or a controller ray.
func NewPlaneSource(height float32, aim func() (rl.Ray, bool)) *PlaneSource {
	return &PlaneSource{Height: height, aim: aim}
}

// Candidate returns the plane hit, oriented upright with its back to the ray origin.
// Rays parallel to the plane or pointing away from it give no candidate.
func (s *PlaneSource) Candidate() (pose.Pose, bool) {
	if s.aim == nil {
		return pose.Pose{}, false
	}
	ray, ok := s.aim()
	if !ok {
		return pose.Pose{}, false
	}
	point, ok := intersectPlane(ray, s.Height)
	if !ok {
		return pose.Pose{}, false
	}
	facing := rl.NewVector3(ray.Direction.X, 0, ray.Direction.Z)
	return pose.New(point, pose.LookRotation(facing), rl.Vector3One()), true
}

func intersectPlane(ray rl.Ray, height float32) (rl.Vector3, bool) {
	ray, ok := pose.NormalizeRay(ray)
	if !ok {
		return rl.Vector3{}, false
	}
	if math32.Abs(ray.Direction.Y) < pose.Epsilon {
		return rl.Vector3{}, false
	}
	t := (height - ray.Position.Y) / ray.Direction.Y
	if t < 0 {
		return rl.Vector3{}, false
	}
	return rl.Vector3Add(ray.Position, rl.Vector3Scale(ray.Direction, t)), true
}

// SurfaceSource holds the latest real-world surface hit reported for this frame.
type SurfaceSource struct {
	hit   pose.Pose
	valid bool
}

// NewSurfaceSource returns a surface source with no report.
func NewSurfaceSource() *SurfaceSource {
	return &SurfaceSource{}
}

// Report stores the hit-test pose for the current frame, replacing any earlier report.
func (s *SurfaceSource) Report(p pose.Pose) {
	s.hit = pose.New(p.Position, p.Orientation, rl.Vector3One())
	s.valid = true
}

func (s *SurfaceSource) Candidate() (pose.Pose, bool) {
	return s.hit, s.valid
}

// EndFrame drops the report so a frame without one has no candidate.
func (s *SurfaceSource) EndFrame() {
	s.valid = false
}
