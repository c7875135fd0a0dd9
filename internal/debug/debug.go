package debug

import (
	"fmt"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"

	"spatial-engine/internal/manipulation"
	"spatial-engine/internal/placement"
	"spatial-engine/internal/scenegraph"
)

const (
	fontSize   = 18
	padding    = 12
	lineHeight = fontSize + 4
	maxLogRows = 8
	// updateInterval: only refresh FPS/Mem text every N frames to reduce allocations.
	updateInterval = 30
)

// Snapshot is the engine state shown by the overlay for one frame.
type Snapshot struct {
	Navigation bool
	Placement  placement.State
	Sessions   []manipulation.Session
	Labels     map[scenegraph.NodeID]string
}

// Debug draws the runtime overlay: FPS and heap on the right, engine status and recent log
// lines on the left. Off by default.
type Debug struct {
	Visible bool

	frameCount   uint32
	lastFpsText  string
	lastMemText  string
	lastMemStats runtime.MemStats
}

// New returns a hidden overlay.
func New() *Debug {
	return &Debug{}
}

// Toggle flips visibility.
func (d *Debug) Toggle() {
	d.Visible = !d.Visible
}

// StatusLines renders the engine part of the overlay.
func StatusLines(s Snapshot) []string {
	lines := make([]string, 0, 3+len(s.Sessions))
	if s.Navigation {
		lines = append(lines, "camera: orbit")
	} else {
		lines = append(lines, "camera: locked")
	}
	switch {
	case s.Placement.Confirmed:
		lines = append(lines, "placement: confirmed")
	case s.Placement.Candidate != nil:
		c := s.Placement.Candidate.Position
		lines = append(lines, fmt.Sprintf("placement: candidate (%.2f, %.2f, %.2f), click to place", c.X, c.Y, c.Z))
	default:
		lines = append(lines, "placement: no surface")
	}
	lines = append(lines, fmt.Sprintf("sessions: %d", len(s.Sessions)))
	for _, sess := range s.Sessions {
		label := s.Labels[sess.Target]
		if label == "" {
			label = fmt.Sprintf("node %d", sess.Target)
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s", sess.Source, sess.Mode, label))
	}
	return lines
}

// Draw renders the overlay. Call after the 3D pass.
func (d *Debug) Draw(s Snapshot, logLines []string) {
	if !d.Visible {
		return
	}
	d.frameCount++
	if d.frameCount%updateInterval == 1 || d.lastFpsText == "" {
		d.lastFpsText = fmt.Sprintf("FPS: %d", rl.GetFPS())
		runtime.ReadMemStats(&d.lastMemStats)
		d.lastMemText = fmt.Sprintf("Mem: %.2f MiB", float64(d.lastMemStats.Alloc)/(1024*1024))
	}

	screenW := int32(rl.GetScreenWidth())
	screenH := int32(rl.GetScreenHeight())
	y := int32(padding)
	for _, text := range []string{d.lastFpsText, d.lastMemText} {
		w := rl.MeasureText(text, fontSize)
		rl.DrawText(text, screenW-w-padding, y, fontSize, rl.DarkGreen)
		y += lineHeight
	}

	y = padding
	for _, line := range StatusLines(s) {
		rl.DrawText(line, padding, y, fontSize, rl.Black)
		y += lineHeight
	}

	if len(logLines) > maxLogRows {
		logLines = logLines[len(logLines)-maxLogRows:]
	}
	y = screenH - padding - int32(len(logLines))*lineHeight
	for _, line := range logLines {
		rl.DrawText(line, padding, y, fontSize-4, rl.DarkGray)
		y += lineHeight
	}
}
