// Package render is the raylib host for the simulation: it implements the
// visual proxy sink and draws one sprite per live entity.
package render

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// sprite is the display state of one visual proxy. The core pushes
// position and facing; everything else is fixed at creation.
type sprite struct {
	kind    components.Kind
	x, z    float32
	heading float32
	size    float32
	color   rl.Color
}

// Renderer owns all visual proxies and the world-to-screen transform.
// It satisfies the simulation's proxy sink contract.
type Renderer struct {
	sprites    map[uint64]*sprite
	nextHandle uint64

	scale   float32 // pixels per world unit
	centerX float32
	centerY float32
}

// NewRenderer creates a renderer sized from the configured screen and map.
func NewRenderer() *Renderer {
	cfg := config.Cfg()
	w := float32(cfg.Screen.Width)
	h := float32(cfg.Screen.Height)
	extent := 2 * cfg.Derived.HalfExtent32

	scale := w / extent
	if s := h / extent; s < scale {
		scale = s
	}

	return &Renderer{
		sprites:    make(map[uint64]*sprite),
		nextHandle: 1,
		scale:      scale,
		centerX:    w / 2,
		centerY:    h / 2,
	}
}

// Create makes a sprite for a newly spawned entity, sized and colored by
// species, and returns its handle.
func (r *Renderer) Create(kind components.Kind, x, z float32) uint64 {
	params := config.Cfg().Params(uint8(kind))

	handle := r.nextHandle
	r.nextHandle++

	r.sprites[handle] = &sprite{
		kind: kind,
		x:    x,
		z:    z,
		size: float32(params.Size),
		color: rl.Color{
			R: params.Color[0],
			G: params.Color[1],
			B: params.Color[2],
			A: 255,
		},
	}
	return handle
}

// Destroy releases the sprite for a despawned entity.
func (r *Renderer) Destroy(handle uint64) {
	delete(r.sprites, handle)
}

// Move pushes the current position and facing to a sprite.
func (r *Renderer) Move(handle uint64, x, z, heading float32) {
	s, ok := r.sprites[handle]
	if !ok {
		return
	}
	s.x = x
	s.z = z
	s.heading = heading
}

// Count returns the number of live sprites.
func (r *Renderer) Count() int {
	return len(r.sprites)
}

// Draw renders the map bounds and every sprite. Consumers get a facing
// notch; producers are plain circles.
func (r *Renderer) Draw() {
	cfg := config.Cfg()
	half := cfg.Derived.HalfExtent32

	x0, y0 := r.toScreen(-half, -half)
	x1, y1 := r.toScreen(half, half)
	rl.DrawRectangleLines(int32(x0), int32(y0), int32(x1-x0), int32(y1-y0), rl.DarkGray)

	for _, ob := range cfg.World.Obstacles {
		ox, oy := r.toScreen(float32(ob.X), float32(ob.Z))
		rl.DrawCircleLines(int32(ox), int32(oy), float32(ob.Radius)*r.scale, rl.Gray)
	}

	for _, s := range r.sprites {
		sx, sy := r.toScreen(s.x, s.z)
		radius := s.size * r.scale

		rl.DrawCircle(int32(sx), int32(sy), radius, s.color)

		if s.kind.Consumer() {
			nx := sx + float32(math.Cos(float64(s.heading)))*radius*1.6
			ny := sy + float32(math.Sin(float64(s.heading)))*radius*1.6
			rl.DrawLine(int32(sx), int32(sy), int32(nx), int32(ny), rl.White)
		}
	}
}

// toScreen maps a ground-plane point to screen pixels.
func (r *Renderer) toScreen(x, z float32) (float32, float32) {
	return r.centerX + x*r.scale, r.centerY + z*r.scale
}
