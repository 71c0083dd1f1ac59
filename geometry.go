package placement

import "math"

// Tile geometry constants. Symbol geometry inside a tile is expressed in
// tile units, Extent units per tile edge; a tile is drawn TileSize pixels
// wide at its own zoom level.
const (
	Extent   = 8192
	TileSize = 512
)

// Vec2 is a 2D vector used for anchors, offsets and projected positions.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// RectFromPoints returns the smallest Rect containing all given points.
func RectFromPoints(pts ...Vec2) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// IntersectsCircle reports whether r overlaps the circle at c with radius.
func (r Rect) IntersectsCircle(c Vec2, radius float64) bool {
	nx := math.Max(r.X, math.Min(c.X, r.X+r.Width))
	ny := math.Max(r.Y, math.Min(c.Y, r.Y+r.Height))
	dx, dy := c.X-nx, c.Y-ny
	return dx*dx+dy*dy <= radius*radius
}

// circlesIntersect reports whether two circles overlap. Touching circles
// are considered intersecting, matching Rect.Intersects.
func circlesIntersect(a Vec2, ra float64, b Vec2, rb float64) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	r := ra + rb
	return dx*dx+dy*dy <= r*r
}

// AlignmentType selects whether a symbol half follows the map plane or the
// viewport when the map is pitched or rotated.
type AlignmentType uint8

const (
	AlignmentViewport AlignmentType = iota // faces the viewer
	AlignmentMap                           // follows the map plane
)

func (a AlignmentType) String() string {
	switch a {
	case AlignmentViewport:
		return "viewport"
	case AlignmentMap:
		return "map"
	default:
		return "unknown"
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
