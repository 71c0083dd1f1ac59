package placement

import "math"

// PlaceQuery carries everything a collision index needs to test one
// collision feature.
type PlaceQuery struct {
	// PosMatrix maps tile units to clip space.
	PosMatrix Mat4
	// LabelPlaneMatrix maps tile units to the plane the symbol is laid out
	// in; see LabelPlaneMatrix.
	LabelPlaneMatrix Mat4
	// PixelRatio is tile units per pixel at the tile's own zoom.
	PixelRatio float64
	// Symbol is the placed symbol the feature belongs to.
	Symbol *PlacedSymbol
	// Scale is 2^(zoom - tile zoom).
	Scale float64
	// FontSize is the evaluated symbol size in pixels.
	FontSize float64
	// AllowOverlap places the feature regardless of collisions.
	AllowOverlap bool
	// PitchWithMap lays the feature out on the map plane.
	PitchWithMap bool
	// ShowCollisionBoxes records debug geometry for the feature.
	ShowCollisionBoxes bool
}

// CollisionIndex decides whether collision features fit on screen and
// reserves the space of placed ones. An index serves a single frame.
type CollisionIndex interface {
	// PlaceFeature reports whether the feature fits. It records projected
	// geometry on the feature's boxes for a following InsertFeature.
	PlaceFeature(f *CollisionFeature, q PlaceQuery) bool
	// InsertFeature reserves the feature's space. Features with
	// ignorePlacement do not block later features.
	InsertFeature(f *CollisionFeature, ignorePlacement bool)
}

const (
	gridCellSize    = 25
	viewportPadding = 100
)

type gridEntry struct {
	bounds Rect
	circle bool
	center Vec2
	radius float64
}

func (e *gridEntry) hits(o *gridEntry) bool {
	switch {
	case e.circle && o.circle:
		return circlesIntersect(e.center, e.radius, o.center, o.radius)
	case e.circle:
		return o.bounds.IntersectsCircle(e.center, e.radius)
	case o.circle:
		return e.bounds.IntersectsCircle(o.center, o.radius)
	default:
		return e.bounds.Intersects(o.bounds)
	}
}

// DebugShape is a projected collision box or circle captured for debug
// drawing.
type DebugShape struct {
	Bounds Rect
	Center Vec2
	Radius float64
	Circle bool
	Placed bool
	Used   bool
}

// GridIndex is a CollisionIndex over a dense grid of viewport cells. The
// grid covers the viewport plus a padding margin; features projecting
// entirely outside it are never placed.
type GridIndex struct {
	state          TransformState
	viewportMatrix Mat4
	camDist        float64

	bounds  Rect
	cols    int
	rows    int
	cells   [][]int32 // row*cols + col -> indices into entries
	entries []gridEntry

	debug []DebugShape
}

// NewGridIndex creates an empty index for one frame.
func NewGridIndex(state TransformState) *GridIndex {
	b := Rect{
		X:      -viewportPadding,
		Y:      -viewportPadding,
		Width:  state.Width + 2*viewportPadding,
		Height: state.Height + 2*viewportPadding,
	}
	cols := max(1, int(math.Ceil(b.Width/gridCellSize)))
	rows := max(1, int(math.Ceil(b.Height/gridCellSize)))
	return &GridIndex{
		state:          state,
		viewportMatrix: state.ViewportMatrix(),
		camDist:        state.CameraToCenterDistance(),
		bounds:         b,
		cols:           cols,
		rows:           rows,
		cells:          make([][]int32, cols*rows),
	}
}

// Len returns the number of blocking shapes in the index.
func (g *GridIndex) Len() int {
	return len(g.entries)
}

// DebugShapes returns the shapes captured for features tested with
// ShowCollisionBoxes. The returned slice MUST NOT be mutated.
func (g *GridIndex) DebugShapes() []DebugShape {
	return g.debug
}

// PlaceFeature implements CollisionIndex.
func (g *GridIndex) PlaceFeature(f *CollisionFeature, q PlaceQuery) bool {
	if len(f.Boxes) == 0 {
		return true
	}
	sizeScale := 1.0
	if q.Symbol != nil && q.Symbol.LayoutSize > 0 {
		sizeScale = q.FontSize / q.Symbol.LayoutSize
	}
	var placed bool
	if f.AlongLine {
		placed = g.placeCircles(f, q, sizeScale)
	} else {
		placed = g.placeBoxes(f, q, sizeScale)
	}

	if q.ShowCollisionBoxes {
		for i := range f.Boxes {
			b := &f.Boxes[i]
			g.debug = append(g.debug, DebugShape{
				Bounds: b.Projected,
				Center: b.ProjectedCenter,
				Radius: b.ProjectedRadius,
				Circle: f.AlongLine,
				Placed: placed,
				Used:   b.Used,
			})
		}
	}
	return placed
}

func (g *GridIndex) placeBoxes(f *CollisionFeature, q PlaceQuery, sizeScale float64) bool {
	var toScreen, planeInv Mat4
	if q.PitchWithMap {
		toScreen = g.viewportMatrix.Multiply(q.PosMatrix)
		planeInv, _ = q.LabelPlaneMatrix.Invert()
	}

	placed := true
	for i := range f.Boxes {
		b := &f.Boxes[i]
		b.Used = true
		if q.PitchWithMap {
			b.Projected = g.projectMapBox(b, q.LabelPlaneMatrix, planeInv, toScreen, sizeScale)
		} else {
			anchor, _ := q.LabelPlaneMatrix.Project(b.Anchor)
			k := sizeScale * g.perspectiveRatio(q.PosMatrix, b.Anchor)
			b.Projected = Rect{
				X:      anchor.X + b.X1*k,
				Y:      anchor.Y + b.Y1*k,
				Width:  (b.X2 - b.X1) * k,
				Height: (b.Y2 - b.Y1) * k,
			}
		}
		b.ProjectedCenter = Vec2{b.Projected.X + b.Projected.Width/2, b.Projected.Y + b.Projected.Height/2}
		b.ProjectedRadius = 0

		if !placed {
			continue
		}
		if !g.bounds.Intersects(b.Projected) {
			placed = false
			continue
		}
		if !q.AllowOverlap && g.hitTest(&gridEntry{bounds: b.Projected}) {
			placed = false
		}
	}
	return placed
}

// projectMapBox lays a box out on the map plane and returns the viewport
// bounds of its four projected corners.
func (g *GridIndex) projectMapBox(b *CollisionBox, plane, planeInv, toScreen Mat4, sizeScale float64) Rect {
	anchor, _ := plane.Project(b.Anchor)
	offsets := [4]Vec2{{b.X1, b.Y1}, {b.X2, b.Y1}, {b.X2, b.Y2}, {b.X1, b.Y2}}
	var pts [4]Vec2
	for i, o := range offsets {
		tileCorner, _ := planeInv.Project(anchor.Add(o.Scale(sizeScale)))
		pts[i], _ = toScreen.Project(tileCorner)
	}
	return RectFromPoints(pts[:]...)
}

func (g *GridIndex) placeCircles(f *CollisionFeature, q PlaceQuery, sizeScale float64) bool {
	toScreen := g.viewportMatrix.Multiply(q.PosMatrix)
	tileUnitsPerPixel := 1.0
	if q.Scale > 0 {
		tileUnitsPerPixel = q.PixelRatio / q.Scale
	}

	placed := true
	used := 0
	for i := range f.Boxes {
		b := &f.Boxes[i]
		if q.PitchWithMap {
			center, _ := toScreen.Project(b.Anchor)
			rim, _ := toScreen.Project(b.Anchor.Add(Vec2{b.Radius * sizeScale * tileUnitsPerPixel, 0}))
			b.ProjectedCenter = center
			b.ProjectedRadius = rim.Sub(center).Len()
		} else {
			b.ProjectedCenter, _ = q.LabelPlaneMatrix.Project(b.Anchor)
			b.ProjectedRadius = b.Radius * sizeScale * g.perspectiveRatio(q.PosMatrix, b.Anchor)
		}
		r := b.ProjectedRadius
		b.Projected = Rect{X: b.ProjectedCenter.X - r, Y: b.ProjectedCenter.Y - r, Width: 2 * r, Height: 2 * r}

		// Circles whose center leaves the grid do not constrain the label.
		b.Used = g.bounds.Contains(b.ProjectedCenter.X, b.ProjectedCenter.Y)
		if !b.Used {
			continue
		}
		used++
		if placed && !q.AllowOverlap &&
			g.hitTest(&gridEntry{bounds: b.Projected, circle: true, center: b.ProjectedCenter, radius: r}) {
			placed = false
		}
	}
	return placed && used > 0
}

// perspectiveRatio scales viewport-aligned geometry so that symbols far
// from the camera shrink less than the map does.
func (g *GridIndex) perspectiveRatio(posMatrix Mat4, anchor Vec2) float64 {
	_, w := posMatrix.Project(anchor)
	if w <= 0 {
		return 1
	}
	return 0.5 + 0.5*(g.camDist/w)
}

// InsertFeature implements CollisionIndex.
func (g *GridIndex) InsertFeature(f *CollisionFeature, ignorePlacement bool) {
	if ignorePlacement {
		return
	}
	for i := range f.Boxes {
		b := &f.Boxes[i]
		if !b.Used {
			continue
		}
		e := gridEntry{bounds: b.Projected}
		if f.AlongLine {
			e.circle = true
			e.center = b.ProjectedCenter
			e.radius = b.ProjectedRadius
		}
		g.insert(e)
	}
}

func (g *GridIndex) insert(e gridEntry) {
	idx := int32(len(g.entries))
	g.entries = append(g.entries, e)
	c0, r0, c1, r1 := g.cellRange(e.bounds)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			cell := r*g.cols + c
			g.cells[cell] = append(g.cells[cell], idx)
		}
	}
}

func (g *GridIndex) hitTest(e *gridEntry) bool {
	c0, r0, c1, r1 := g.cellRange(e.bounds)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, idx := range g.cells[r*g.cols+c] {
				if e.hits(&g.entries[idx]) {
					return true
				}
			}
		}
	}
	return false
}

// cellRange returns the inclusive cell range covered by r, clamped to the
// grid.
func (g *GridIndex) cellRange(r Rect) (c0, r0, c1, r1 int) {
	toCell := func(v, origin float64, n int) int {
		i := int(math.Floor((v - origin) / gridCellSize))
		return max(0, min(n-1, i))
	}
	c0 = toCell(r.X, g.bounds.X, g.cols)
	c1 = toCell(r.X+r.Width, g.bounds.X, g.cols)
	r0 = toCell(r.Y, g.bounds.Y, g.rows)
	r1 = toCell(r.Y+r.Height, g.bounds.Y, g.rows)
	return
}
