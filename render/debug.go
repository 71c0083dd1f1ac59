package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/placement"
)

// Collision debug colors.
var (
	PlacedColor   = color.NRGBA{R: 0x30, G: 0xc0, B: 0x60, A: 0xff}
	RejectedColor = color.NRGBA{R: 0xe0, G: 0x40, B: 0x40, A: 0xff}
)

// DebugStrokeWidth is the line width of the collision overlay.
const DebugStrokeWidth = 1

// DrawCollisionDebug strokes the shapes recorded by a placement.GridIndex
// with WithShowCollisionBoxes enabled. Circles outside the viewport were not
// used by the placement test and are skipped.
func DrawCollisionDebug(dst *ebiten.Image, shapes []placement.DebugShape) {
	for i := range shapes {
		s := &shapes[i]
		clr := shapeColor(s)
		if clr == nil {
			continue
		}
		if s.Circle {
			vector.StrokeCircle(dst, float32(s.Center.X), float32(s.Center.Y), float32(s.Radius), DebugStrokeWidth, clr, true)
			continue
		}
		b := s.Bounds
		vector.StrokeRect(dst, float32(b.X), float32(b.Y), float32(b.Width), float32(b.Height), DebugStrokeWidth, clr, false)
	}
}

// shapeColor returns the overlay color of s, or nil when s is not drawn.
func shapeColor(s *placement.DebugShape) color.Color {
	if s.Circle && !s.Used {
		return nil
	}
	if s.Placed {
		return PlacedColor
	}
	return RejectedColor
}
