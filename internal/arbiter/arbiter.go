package arbiter

import "go.uber.org/zap"

// Camera is the free-navigation controller the arbiter switches on and off.
type Camera interface {
	SetNavigationEnabled(enabled bool)
}

// Arbiter keeps camera navigation and direct manipulation mutually exclusive: navigation is
// enabled iff no manipulation session is active. The camera hook runs synchronously inside
// the call that changes the count, so both switch within the same frame step.
type Arbiter struct {
	active int
	camera Camera
	log    *zap.Logger
}

// New returns an arbiter with zero active sessions. camera may be nil.
// The camera is told navigation is enabled right away.
func New(camera Camera, log *zap.Logger) *Arbiter {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Arbiter{camera: camera, log: log}
	if camera != nil {
		camera.SetNavigationEnabled(true)
	}
	return a
}

// SetCamera replaces the camera hook and syncs it to the current state.
func (a *Arbiter) SetCamera(camera Camera) {
	a.camera = camera
	if camera != nil {
		camera.SetNavigationEnabled(a.NavigationEnabled())
	}
}

// Acquire records a session becoming active.
func (a *Arbiter) Acquire() {
	a.active++
	if a.active == 1 {
		a.notify(false)
	}
}

// Release records a session leaving the active state. Releasing with no active session is
// clamped at zero and logged.
func (a *Arbiter) Release() {
	if a.active == 0 {
		a.log.Warn("arbiter release without active session")
		return
	}
	a.active--
	if a.active == 0 {
		a.notify(true)
	}
}

// Active returns the number of active sessions.
func (a *Arbiter) Active() int {
	return a.active
}

// NavigationEnabled reports whether free camera navigation is in effect.
func (a *Arbiter) NavigationEnabled() bool {
	return a.active == 0
}

func (a *Arbiter) notify(enabled bool) {
	a.log.Debug("camera navigation", zap.Bool("enabled", enabled), zap.Int("active_sessions", a.active))
	if a.camera != nil {
		a.camera.SetNavigationEnabled(enabled)
	}
}
