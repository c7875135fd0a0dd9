package graphics

import rl "github.com/gen2brain/raylib-go/raylib"

// Window describes the viewer window.
type Window struct {
	Width, Height int32
	TargetFPS     int32
	Title         string
	Background    rl.Color
}

// Run opens the window and runs the main loop. Each frame it calls update with the frame time,
// then clears the screen and calls draw. ESC closes the window. unload, if set, runs while the
// GPU context is still alive.
func Run(w Window, update func(dt float32), draw func(), unload func()) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(w.Width, w.Height, w.Title)
	defer rl.CloseWindow()
	if unload != nil {
		defer unload()
	}

	if w.TargetFPS > 0 {
		rl.SetTargetFPS(w.TargetFPS)
	}

	for !rl.WindowShouldClose() {
		update(rl.GetFrameTime())

		rl.BeginDrawing()
		rl.ClearBackground(w.Background)
		draw()
		rl.EndDrawing()
	}
}
