package placement

import "math"

// defaultFOV is the vertical field of view used for the map projection.
const defaultFOV = 0.6435011087932844

// TransformState is the view of the map for one frame: viewport size,
// zoom, bearing, pitch and the map center.
type TransformState struct {
	// Width and Height are the viewport size in pixels.
	Width, Height float64
	// Zoom is the fractional zoom level.
	Zoom float64
	// Angle is the map bearing in radians.
	Angle float64
	// Pitch tilts the map away from the viewer, in radians.
	Pitch float64
	// Center is the world position the viewport centers on, in world
	// pixels at zoom 0 (the whole world spans [0, TileSize)).
	Center Vec2
}

// Scale returns 2^Zoom.
func (s TransformState) Scale() float64 {
	return math.Exp2(s.Zoom)
}

// WorldSize returns the width of the world in pixels at the current zoom.
func (s TransformState) WorldSize() float64 {
	return TileSize * s.Scale()
}

// CameraToCenterDistance returns the distance in pixels from the camera to
// the point it looks at.
func (s TransformState) CameraToCenterDistance() float64 {
	return 0.5 / math.Tan(defaultFOV/2) * s.Height
}

// ProjMatrix returns the matrix mapping world pixels (z = 0) to clip space.
func (s TransformState) ProjMatrix() Mat4 {
	dist := s.CameraToCenterDistance()
	halfFov := defaultFOV / 2
	groundAngle := math.Pi/2 + s.Pitch
	topHalfSurfaceDistance := math.Sin(halfFov) * dist / math.Sin(math.Pi-groundAngle-halfFov)
	farZ := (math.Cos(math.Pi/2-s.Pitch)*topHalfSurfaceDistance + dist) * 1.01

	c := s.Center.Scale(s.Scale())
	m := Perspective(defaultFOV, s.Width/s.Height, 1, farZ)
	m = m.Scale(1, -1, 1)
	m = m.Translate(0, 0, -dist)
	m = m.RotateX(s.Pitch)
	m = m.RotateZ(s.Angle)
	return m.Translate(-c.X, -c.Y, 0)
}

// TileMatrix returns the position matrix for a tile: tile units to clip
// space.
func (s TransformState) TileMatrix(id CanonicalTileID) Mat4 {
	scale := s.WorldSize() / math.Exp2(float64(id.Z))
	m := Identity().
		Translate(float64(id.X)*scale, float64(id.Y)*scale, 0).
		Scale(scale/Extent, scale/Extent, 1)
	return s.ProjMatrix().Multiply(m)
}

// ViewportMatrix maps clip space to viewport pixels with Y down.
func (s TransformState) ViewportMatrix() Mat4 {
	return Identity().Scale(s.Width/2, -s.Height/2, 1).Translate(1, -1, 0)
}

// LabelPlaneMatrix returns the matrix projecting tile units into the plane
// symbols are laid out in. Map-pitched symbols lay out on the map plane in
// pixels (rotated with the viewport unless rotateWithMap); viewport-pitched
// symbols lay out directly in viewport pixels.
func LabelPlaneMatrix(posMatrix Mat4, pitchWithMap, rotateWithMap bool, state TransformState, pixelsToTileUnits float64) Mat4 {
	m := Identity()
	if pitchWithMap {
		m = m.Scale(1/pixelsToTileUnits, 1/pixelsToTileUnits, 1)
		if !rotateWithMap {
			m = m.RotateZ(state.Angle)
		}
		return m
	}
	return state.ViewportMatrix().Multiply(posMatrix)
}

// ScreenToWorld unprojects a viewport point onto the map plane. The result
// is in world pixels at zoom 0. ok is false when the ray misses the plane.
func (s TransformState) ScreenToWorld(sx, sy float64) (Vec2, bool) {
	inv, ok := s.ViewportMatrix().Multiply(s.ProjMatrix()).Invert()
	if !ok {
		return Vec2{}, false
	}
	p0 := inv.TransformVec4([4]float64{sx, sy, -1, 1})
	p1 := inv.TransformVec4([4]float64{sx, sy, 1, 1})
	if p0[3] == 0 || p1[3] == 0 {
		return Vec2{}, false
	}
	x0, y0, z0 := p0[0]/p0[3], p0[1]/p0[3], p0[2]/p0[3]
	x1, y1, z1 := p1[0]/p1[3], p1[1]/p1[3], p1[2]/p1[3]
	if z0 == z1 {
		return Vec2{}, false
	}
	t := z0 / (z0 - z1)
	if t < 0 {
		return Vec2{}, false
	}
	scale := s.Scale()
	return Vec2{(x0 + (x1-x0)*t) / scale, (y0 + (y1-y0)*t) / scale}, true
}

// WorldToScreen projects a world point (zoom 0 pixels) into the viewport.
func (s TransformState) WorldToScreen(p Vec2) Vec2 {
	m := s.ViewportMatrix().Multiply(s.ProjMatrix())
	pt, _ := m.Project(p.Scale(s.Scale()))
	return pt
}

// CoveringTiles returns the tiles at zoom z whose area intersects the
// viewport, clamped to the world.
func (s TransformState) CoveringTiles(z uint8) []CanonicalTileID {
	corners := [4][2]float64{{0, 0}, {s.Width, 0}, {s.Width, s.Height}, {0, s.Height}}
	pts := make([]Vec2, 0, 4)
	for _, c := range corners {
		if p, ok := s.ScreenToWorld(c[0], c[1]); ok {
			pts = append(pts, p)
		}
	}
	if len(pts) == 0 {
		return nil
	}
	bounds := RectFromPoints(pts...)
	n := int(math.Exp2(float64(z)))
	tileWorld := TileSize / float64(n)

	clampTile := func(v float64) int {
		i := int(math.Floor(v / tileWorld))
		return max(0, min(n-1, i))
	}
	x0, x1 := clampTile(bounds.X), clampTile(bounds.X+bounds.Width)
	y0, y1 := clampTile(bounds.Y), clampTile(bounds.Y+bounds.Height)

	tiles := make([]CanonicalTileID, 0, (x1-x0+1)*(y1-y0+1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			tiles = append(tiles, CanonicalTileID{Z: z, X: uint32(x), Y: uint32(y)})
		}
	}
	return tiles
}
