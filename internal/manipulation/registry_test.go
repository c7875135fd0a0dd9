package manipulation

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"spatial-engine/internal/arbiter"
	"spatial-engine/internal/input"
	"spatial-engine/internal/picking"
	"spatial-engine/internal/pose"
	"spatial-engine/internal/scenegraph"
)

const eps = 1e-5

type fixture struct {
	graph   *scenegraph.Graph
	reg     *Registry
	arb     *arbiter.Arbiter
	sources map[input.SourceID]*input.Source
}

func newFixture(t *testing.T, log *zap.Logger) *fixture {
	t.Helper()
	if log == nil {
		log = zaptest.NewLogger(t)
	}
	g := scenegraph.New()
	arb := arbiter.New(nil, log)
	f := &fixture{
		graph:   g,
		arb:     arb,
		reg:     NewRegistry(g, picking.New(g), arb, log),
		sources: make(map[input.SourceID]*input.Source),
	}
	for _, id := range input.Sources {
		f.sources[id] = input.NewSource(id)
	}
	return f
}

func (f *fixture) lookup(id input.SourceID) *input.Source {
	return f.sources[id]
}

// aimAt points a controller at target from position.
func (f *fixture) aimAt(id input.SourceID, position, target rl.Vector3) {
	dir := rl.Vector3Subtract(target, position)
	f.sources[id].SetPose(pose.New(position, pose.LookRotation(dir), rl.Vector3One()))
}

func (f *fixture) moveTo(id input.SourceID, position rl.Vector3) {
	p := f.sources[id].Pose
	p.Position = position
	f.sources[id].SetPose(p)
}

func TestGrabAndTranslateScenario(t *testing.T) {
	f := newFixture(t, nil)
	node := f.graph.AddPart(scenegraph.Sphere(0.5), pose.Identity())
	f.aimAt(input.Controller0, rl.NewVector3(0, 1, 0), rl.Vector3Zero())

	s, ok := f.reg.Begin(f.sources[input.Controller0], f.graph.ManipulableNodes())
	require.True(t, ok)
	assert.Equal(t, Active, s.State)
	assert.Equal(t, Translate, s.Mode)
	assert.Equal(t, node, s.Target)
	assert.NotEmpty(t, s.ID)

	f.moveTo(input.Controller0, rl.NewVector3(0, 1, 0.5))
	f.reg.Update(f.lookup)

	world, _ := f.graph.WorldPose(node)
	assert.True(t, pose.VecApproxEqual(rl.NewVector3(0, 0, 0.5), world.Position, eps), "got %+v", world.Position)
	assert.Equal(t, rl.QuaternionIdentity(), world.Orientation)
}

func TestTranslateTracksInputEveryFrame(t *testing.T) {
	f := newFixture(t, nil)
	q := rl.QuaternionFromAxisAngle(rl.NewVector3(1, 0, 0), 0.3)
	node := f.graph.AddPart(scenegraph.Box(rl.NewVector3(1, 1, 1)), pose.New(rl.NewVector3(2, 0, -3), q, rl.NewVector3(2, 2, 2)))
	f.aimAt(input.Controller1, rl.NewVector3(2, 0, 0), rl.NewVector3(2, 0, -3))

	s, ok := f.reg.Begin(f.sources[input.Controller1], f.graph.ManipulableNodes())
	require.True(t, ok)

	path := []rl.Vector3{{X: 2.1, Y: 0, Z: 0}, {X: 3, Y: 1, Z: -1}, {X: -4, Y: 0.5, Z: 2}, {X: 2, Y: 0, Z: 0}}
	for _, p := range path {
		f.moveTo(input.Controller1, p)
		f.reg.Update(f.lookup)

		world, _ := f.graph.WorldPose(node)
		gotDelta := rl.Vector3Subtract(world.Position, s.InitialTarget.Position)
		wantDelta := rl.Vector3Subtract(p, s.InitialInput.Position)
		assert.True(t, pose.VecApproxEqual(wantDelta, gotDelta, eps), "want %+v got %+v", wantDelta, gotDelta)
		assert.True(t, pose.QuatApproxEqual(s.InitialTarget.Orientation, world.Orientation, eps))
		assert.Equal(t, s.InitialTarget.Scale, world.Scale)
	}
}

func TestTranslateUnderScaledParent(t *testing.T) {
	f := newFixture(t, nil)
	parent, _ := f.graph.Add(scenegraph.NodeSpec{
		Name:  "stage",
		Local: pose.New(rl.Vector3Zero(), rl.QuaternionFromAxisAngle(pose.Up, rl.Pi/2), rl.NewVector3(2, 2, 2)),
	})
	node, _ := f.graph.Add(scenegraph.NodeSpec{
		Name: "part", Parent: parent, Shape: scenegraph.Sphere(0.5), Manipulable: true,
		Local: pose.At(rl.NewVector3(1, 0, 0)),
	})
	before, _ := f.graph.WorldPose(node)
	f.aimAt(input.Controller0, rl.Vector3Add(before.Position, rl.NewVector3(0, 3, 0)), before.Position)

	_, ok := f.reg.Begin(f.sources[input.Controller0], []scenegraph.NodeID{node})
	require.True(t, ok)

	f.moveTo(input.Controller0, rl.Vector3Add(f.sources[input.Controller0].Pose.Position, rl.NewVector3(1, 0, 0)))
	f.reg.Update(f.lookup)

	after, _ := f.graph.WorldPose(node)
	assert.True(t, pose.VecApproxEqual(rl.Vector3Add(before.Position, rl.NewVector3(1, 0, 0)), after.Position, 1e-4),
		"before %+v after %+v", before.Position, after.Position)
}

func TestRotateComposition(t *testing.T) {
	f := newFixture(t, nil)
	start := rl.QuaternionFromAxisAngle(rl.NewVector3(0, 0, 1), 0.5)
	node := f.graph.AddPart(scenegraph.Sphere(1), pose.New(rl.NewVector3(0, 0, -5), start, rl.Vector3One()))
	src := f.sources[input.Controller0]
	f.aimAt(input.Controller0, rl.Vector3Zero(), rl.NewVector3(0, 0, -5))

	s, ok := f.reg.Begin(src, f.graph.ManipulableNodes())
	require.True(t, ok)
	src.Secondary = input.Pressed
	f.reg.SetMode(src, Rotate)
	s, _ = f.reg.Session(input.Controller0)
	require.Equal(t, Rotate, s.Mode)

	twist := rl.QuaternionFromAxisAngle(pose.Up, 0.8)
	moved := pose.New(rl.NewVector3(1, 2, 3), rl.QuaternionMultiply(src.Pose.Orientation, twist), rl.Vector3One())
	src.SetPose(moved)
	f.reg.Update(f.lookup)

	world, _ := f.graph.WorldPose(node)
	delta, _ := pose.RotationDelta(s.InitialInput.Orientation, moved.Orientation)
	want := rl.QuaternionMultiply(s.InitialTarget.Orientation, delta)
	assert.True(t, pose.QuatApproxEqual(want, world.Orientation, eps))
	assert.Equal(t, s.InitialTarget.Position, world.Position, "rotate pivots around the object origin")
	assert.Equal(t, rl.Vector3One(), world.Scale)
}

func TestModeSwitchRebasesWithoutJump(t *testing.T) {
	f := newFixture(t, nil)
	node := f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(0, 0, -5)))
	src := f.sources[input.Controller0]
	f.aimAt(input.Controller0, rl.Vector3Zero(), rl.NewVector3(0, 0, -5))
	_, ok := f.reg.Begin(src, f.graph.ManipulableNodes())
	require.True(t, ok)

	f.moveTo(input.Controller0, rl.NewVector3(1, 0, 0))
	f.reg.Update(f.lookup)

	f.reg.SetMode(src, Rotate)
	// Hand drifts while rotating: position must stay put.
	f.moveTo(input.Controller0, rl.NewVector3(3, 0, 0))
	f.reg.Update(f.lookup)
	world, _ := f.graph.WorldPose(node)
	assert.True(t, pose.VecApproxEqual(rl.NewVector3(1, 0, -5), world.Position, eps))

	f.reg.SetMode(src, Translate)
	f.reg.Update(f.lookup)
	world, _ = f.graph.WorldPose(node)
	assert.True(t, pose.VecApproxEqual(rl.NewVector3(1, 0, -5), world.Position, eps), "no jump after switching back")
}

func TestSecondaryHeldAtGrabStartsInRotate(t *testing.T) {
	f := newFixture(t, nil)
	f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(0, 0, -5)))
	src := f.sources[input.Controller0]
	f.aimAt(input.Controller0, rl.Vector3Zero(), rl.NewVector3(0, 0, -5))
	src.Secondary = input.Pressed

	s, ok := f.reg.Begin(src, f.graph.ManipulableNodes())
	require.True(t, ok)
	assert.Equal(t, Rotate, s.Mode)
}

func TestDegenerateRotationIsNoOp(t *testing.T) {
	f := newFixture(t, nil)
	node := f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(0, 0, -5)))
	src := f.sources[input.Controller0]
	f.aimAt(input.Controller0, rl.Vector3Zero(), rl.NewVector3(0, 0, -5))
	src.Secondary = input.Pressed
	_, ok := f.reg.Begin(src, f.graph.ManipulableNodes())
	require.True(t, ok)
	before, _ := f.graph.LocalPose(node)

	src.Pose.Orientation = rl.NewQuaternion(0, 0, 0, 0)
	f.reg.Update(f.lookup)

	after, _ := f.graph.LocalPose(node)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, f.reg.Len())
}

func TestPickMissCreatesNoSession(t *testing.T) {
	f := newFixture(t, nil)
	f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(10, 0, -5)))
	f.aimAt(input.Controller0, rl.Vector3Zero(), rl.NewVector3(0, 0, -5))

	_, ok := f.reg.Begin(f.sources[input.Controller0], f.graph.ManipulableNodes())
	assert.False(t, ok)
	assert.Zero(t, f.reg.Len())
	assert.True(t, f.arb.NavigationEnabled())
	assert.Equal(t, Idle, f.reg.State(input.Controller0))
}

func TestFirstSessionWins(t *testing.T) {
	f := newFixture(t, nil)
	x := f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(0, 0, -5)))
	f.aimAt(input.Controller0, rl.Vector3Zero(), rl.NewVector3(0, 0, -5))
	f.aimAt(input.Controller1, rl.NewVector3(0.2, 0, 0), rl.NewVector3(0, 0, -5))

	a, ok := f.reg.Begin(f.sources[input.Controller0], f.graph.ManipulableNodes())
	require.True(t, ok)
	_, ok = f.reg.Begin(f.sources[input.Controller1], f.graph.ManipulableNodes())
	assert.False(t, ok, "second grab of a held node is rejected")
	assert.Equal(t, Idle, f.reg.State(input.Controller1))

	holder, held := f.reg.Holder(x)
	require.True(t, held)
	assert.Equal(t, input.Controller0, holder)

	f.moveTo(input.Controller0, rl.NewVector3(0, 1, 0))
	f.reg.Update(f.lookup)
	world, _ := f.graph.WorldPose(x)
	assert.True(t, pose.VecApproxEqual(rl.Vector3Add(a.InitialTarget.Position, rl.NewVector3(0, 1, 0)), world.Position, eps))

	// Once A lets go, B may grab.
	f.reg.End(input.Controller0, ReasonSelectEnd)
	f.aimAt(input.Controller1, rl.NewVector3(0.2, 1, 0), world.Position)
	_, ok = f.reg.Begin(f.sources[input.Controller1], f.graph.ManipulableNodes())
	assert.True(t, ok)
}

func TestTwoControllersDifferentNodes(t *testing.T) {
	f := newFixture(t, nil)
	left := f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(-3, 0, -5)))
	right := f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(3, 0, -5)))
	f.aimAt(input.Controller0, rl.NewVector3(-3, 0, 0), rl.NewVector3(-3, 0, -5))
	f.aimAt(input.Controller1, rl.NewVector3(3, 0, 0), rl.NewVector3(3, 0, -5))

	_, ok := f.reg.Begin(f.sources[input.Controller0], f.graph.ManipulableNodes())
	require.True(t, ok)
	_, ok = f.reg.Begin(f.sources[input.Controller1], f.graph.ManipulableNodes())
	require.True(t, ok)
	assert.Equal(t, 2, f.arb.Active())

	f.moveTo(input.Controller0, rl.NewVector3(-3, 1, 0))
	f.moveTo(input.Controller1, rl.NewVector3(3, 0, 1))
	f.reg.Update(f.lookup)

	lw, _ := f.graph.WorldPose(left)
	rw, _ := f.graph.WorldPose(right)
	assert.True(t, pose.VecApproxEqual(rl.NewVector3(-3, 1, -5), lw.Position, eps))
	assert.True(t, pose.VecApproxEqual(rl.NewVector3(3, 0, -4), rw.Position, eps))

	sessions := f.reg.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, input.Controller0, sessions[0].Source)
	assert.Equal(t, input.Controller1, sessions[1].Source)
}

func TestReleaseIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(0, 0, -5)))
	f.aimAt(input.Controller0, rl.Vector3Zero(), rl.NewVector3(0, 0, -5))
	ended := 0
	f.reg.OnEnded(func(Session, Reason) { ended++ })

	_, ok := f.reg.Begin(f.sources[input.Controller0], f.graph.ManipulableNodes())
	require.True(t, ok)
	assert.False(t, f.arb.NavigationEnabled())

	assert.True(t, f.reg.End(input.Controller0, ReasonSelectEnd))
	assert.False(t, f.reg.End(input.Controller0, ReasonSelectEnd))
	assert.Equal(t, 1, ended)
	assert.Zero(t, f.arb.Active())
	assert.True(t, f.arb.NavigationEnabled())
}

func TestTargetRemovedIsImplicitRelease(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, zap.New(core))
	node := f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(0, 0, -5)))
	f.aimAt(input.Controller0, rl.Vector3Zero(), rl.NewVector3(0, 0, -5))
	var reason Reason = -1
	f.reg.OnEnded(func(_ Session, r Reason) { reason = r })

	_, ok := f.reg.Begin(f.sources[input.Controller0], f.graph.ManipulableNodes())
	require.True(t, ok)
	require.NoError(t, f.graph.Remove(node))

	f.reg.Update(f.lookup)
	assert.Zero(t, f.reg.Len())
	assert.Equal(t, ReasonTargetRemoved, reason)
	assert.True(t, f.arb.NavigationEnabled())
	assert.Equal(t, 1, logs.FilterMessage("manipulation target removed, releasing").Len())
}

func TestUntargetedNodesNeverMove(t *testing.T) {
	f := newFixture(t, nil)
	f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(0, 0, -5)))
	bystander := f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(5, 5, 5)))
	before, _ := f.graph.WorldPose(bystander)
	f.aimAt(input.Controller0, rl.Vector3Zero(), rl.NewVector3(0, 0, -5))
	_, ok := f.reg.Begin(f.sources[input.Controller0], f.graph.ManipulableNodes())
	require.True(t, ok)

	for i := 0; i < 10; i++ {
		f.moveTo(input.Controller0, rl.NewVector3(float32(i), 0, 0))
		f.reg.Update(f.lookup)
	}
	after, _ := f.graph.WorldPose(bystander)
	assert.Equal(t, before, after)
}

func TestPointerAnchorsAtHitDistance(t *testing.T) {
	f := newFixture(t, nil)
	node := f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(0, 0, -5)))
	ptr := f.sources[input.Pointer]
	require.True(t, ptr.SetRay(rl.NewRay(rl.Vector3Zero(), rl.NewVector3(0, 0, -1))))

	s, ok := f.reg.Begin(ptr, f.graph.ManipulableNodes())
	require.True(t, ok)
	assert.InDelta(t, 4, ptr.Depth(), 1e-5)
	assert.True(t, pose.VecApproxEqual(rl.NewVector3(0, 0, -4), s.InitialInput.Position, eps))

	// Sweep the pointer ray sideways: the object follows at the grab distance.
	ptr.SetRay(rl.NewRay(rl.NewVector3(1, 0, 0), rl.NewVector3(0, 0, -1)))
	f.reg.Update(f.lookup)
	world, _ := f.graph.WorldPose(node)
	assert.True(t, pose.VecApproxEqual(rl.NewVector3(1, 0, -5), world.Position, eps))
}

func TestEndAll(t *testing.T) {
	f := newFixture(t, nil)
	f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(-3, 0, -5)))
	f.graph.AddPart(scenegraph.Sphere(1), pose.At(rl.NewVector3(3, 0, -5)))
	f.aimAt(input.Controller0, rl.NewVector3(-3, 0, 0), rl.NewVector3(-3, 0, -5))
	f.aimAt(input.Controller1, rl.NewVector3(3, 0, 0), rl.NewVector3(3, 0, -5))
	f.reg.Begin(f.sources[input.Controller0], f.graph.ManipulableNodes())
	f.reg.Begin(f.sources[input.Controller1], f.graph.ManipulableNodes())

	f.reg.EndAll(ReasonReset)
	assert.Zero(t, f.reg.Len())
	assert.True(t, f.arb.NavigationEnabled())
}
