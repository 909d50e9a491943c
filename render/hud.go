package render

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds the data needed to render the heads-up display.
type HUDData struct {
	Title      string
	Producers  int
	Herbivores int
	Carnivores int
	Tick       int64
	Speed      int
	Paused     bool
}

// HUD renders population counts and simulation controls.
type HUD struct{}

// NewHUD creates a HUD.
func NewHUD() *HUD {
	return &HUD{}
}

// Draw renders the HUD and returns the (possibly changed) paused state and
// speed multiplier.
func (h *HUD) Draw(data HUDData) (paused bool, speed int) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Producers: %d | Herbivores: %d | Carnivores: %d",
			data.Producers, data.Herbivores, data.Carnivores),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d", data.Tick, data.Speed, rl.GetFPS()),
		10, 55, 16, rl.LightGray,
	)

	paused = data.Paused
	label := "Pause"
	if paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: 10, Y: 80, Width: 90, Height: 26}, label) {
		paused = !paused
	}

	speed = int(gui.SliderBar(
		rl.Rectangle{X: 150, Y: 80, Width: 140, Height: 26},
		"speed", fmt.Sprintf("%dx", data.Speed),
		float32(data.Speed), 1, 10,
	))
	if speed < 1 {
		speed = 1
	}

	return paused, speed
}
