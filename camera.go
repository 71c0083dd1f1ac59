package placement

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// cameraAnim holds the active tweens of a camera move.
type cameraAnim struct {
	x, y, zoom          *gween.Tween
	doneX, doneY, doneZ bool
}

// Camera drives a TransformState over time. It is the usual source of the
// per-frame state handed to NewPlacement.
type Camera struct {
	state TransformState

	// MinZoom and MaxZoom clamp the zoom level.
	MinZoom, MaxZoom float64

	anim *cameraAnim
}

// NewCamera creates a camera for a viewport of the given size centered on
// center (world pixels at zoom 0).
func NewCamera(width, height float64, center Vec2, zoom float64) *Camera {
	return &Camera{
		state: TransformState{
			Width:  width,
			Height: height,
			Zoom:   zoom,
			Center: center,
		},
		MinZoom: 0,
		MaxZoom: 22,
	}
}

// State returns the transform state for the current frame.
func (c *Camera) State() TransformState {
	return c.state
}

// SetViewport resizes the viewport.
func (c *Camera) SetViewport(width, height float64) {
	c.state.Width = width
	c.state.Height = height
}

// SetBearing sets the map bearing in radians.
func (c *Camera) SetBearing(angle float64) {
	c.state.Angle = angle
}

// SetPitch sets the map pitch in radians.
func (c *Camera) SetPitch(pitch float64) {
	c.state.Pitch = pitch
}

// JumpTo moves the camera immediately, cancelling any animation.
func (c *Camera) JumpTo(center Vec2, zoom float64) {
	c.anim = nil
	c.state.Center = center
	c.state.Zoom = c.clampZoom(zoom)
}

// PanBy shifts the center by a screen-space delta in pixels.
func (c *Camera) PanBy(dx, dy float64) {
	s := c.state.Scale()
	c.state.Center.X -= dx / s
	c.state.Center.Y -= dy / s
}

// FlyTo animates the camera to center and zoom over duration seconds.
func (c *Camera) FlyTo(center Vec2, zoom float64, duration float32, easeFn ease.TweenFunc) {
	c.anim = &cameraAnim{
		x:    gween.New(float32(c.state.Center.X), float32(center.X), duration, easeFn),
		y:    gween.New(float32(c.state.Center.Y), float32(center.Y), duration, easeFn),
		zoom: gween.New(float32(c.state.Zoom), float32(c.clampZoom(zoom)), duration, easeFn),
	}
}

// Animating reports whether a FlyTo is in progress.
func (c *Camera) Animating() bool {
	return c.anim != nil
}

// Update advances any active animation by dt seconds.
func (c *Camera) Update(dt float32) {
	a := c.anim
	if a == nil {
		return
	}
	if !a.doneX {
		val, done := a.x.Update(dt)
		c.state.Center.X = float64(val)
		a.doneX = done
	}
	if !a.doneY {
		val, done := a.y.Update(dt)
		c.state.Center.Y = float64(val)
		a.doneY = done
	}
	if !a.doneZ {
		val, done := a.zoom.Update(dt)
		c.state.Zoom = c.clampZoom(float64(val))
		a.doneZ = done
	}
	if a.doneX && a.doneY && a.doneZ {
		c.anim = nil
	}
}

func (c *Camera) clampZoom(z float64) float64 {
	return max(c.MinZoom, min(c.MaxZoom, z))
}
