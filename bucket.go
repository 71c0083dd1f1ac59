package placement

import "fmt"

// HalfLayout is the layout configuration of one half (text or icon) of a
// symbol layer.
type HalfLayout struct {
	PitchAlignment    AlignmentType
	RotationAlignment AlignmentType
	// AllowOverlap places the half even when it collides.
	AllowOverlap bool
	// IgnorePlacement keeps the half visible without blocking later symbols.
	IgnorePlacement bool
	// Optional lets the other half show when this one is not placed.
	Optional bool
}

// SymbolLayout is the layout configuration shared by a bucket's symbols.
type SymbolLayout struct {
	Text HalfLayout
	Icon HalfLayout
}

// PlacedSymbol is the per-symbol record used to evaluate sizes and anchor
// glyph or icon geometry.
type PlacedSymbol struct {
	// Anchor is the symbol position in tile units.
	Anchor Vec2
	// LowerSize and UpperSize bracket data-driven sizes; see FeatureSize and
	// CompositeSize.
	LowerSize, UpperSize float64
	// LayoutSize is the size the quads and collision boxes were laid out at.
	LayoutSize float64
}

// SymbolQuad is a textured quad in pixels relative to the symbol anchor at
// the layout size.
type SymbolQuad struct {
	TL, TR, BL, BR Vec2
	// Tex is the source rectangle on the atlas page, in pixels.
	Tex Rect
}

// CollisionBox is one box (or circle, for line-following features) of a
// collision feature. Offsets are pixels at the layout size.
type CollisionBox struct {
	// Anchor is the box center in tile units.
	Anchor Vec2
	// X1, Y1, X2, Y2 are the box edges relative to the anchor.
	X1, Y1, X2, Y2 float64
	// Radius is used when the feature is along a line.
	Radius float64

	// Fields below are written by the collision index during placement.

	// Used reports whether the box took part in the last placement test.
	Used bool
	// Projected is the viewport-space bounding rectangle of the box.
	Projected Rect
	// ProjectedCenter and ProjectedRadius describe circles in viewport space.
	ProjectedCenter Vec2
	ProjectedRadius float64
}

// CollisionFeature is the set of boxes reserving space for one half of a
// symbol.
type CollisionFeature struct {
	Boxes []CollisionBox
	// AlongLine marks the boxes as a chain of circles.
	AlongLine bool
}

// SymbolInstance is one label candidate: a text and icon pair sharing an
// anchor.
type SymbolInstance struct {
	// CrossTileID identifies the logical label across frames and tile
	// rebuilds. Zero means unassigned.
	CrossTileID uint32
	// Key and Anchor identify the label for CrossTileIndex matching.
	Key    string
	Anchor Vec2

	HasText bool
	HasIcon bool
	// IsDuplicate excludes the instance from placement.
	IsDuplicate bool

	TextCollisionFeature CollisionFeature
	IconCollisionFeature CollisionFeature

	// PlacedTextIndices and PlacedIconIndices index into the bucket's
	// Text.PlacedSymbols and Icon.PlacedSymbols.
	PlacedTextIndices []int
	PlacedIconIndices []int

	GlyphQuads []SymbolQuad
	IconQuad   *SymbolQuad

	// PlacedText and PlacedIcon hold the decision of the last placement.
	PlacedText bool
	PlacedIcon bool
}

// OpacityVertex is the per-vertex fade attribute of glyph and icon quads.
type OpacityVertex struct {
	Current float32
	Target  float32
}

// newOpacityVertex converts a channel state to its vertex attribute.
func newOpacityVertex(s OpacityState) OpacityVertex {
	return OpacityVertex{Current: float32(s.Current), Target: float32(s.Target)}
}

// CollisionOpacityVertex is the per-vertex attribute of collision debug
// geometry.
type CollisionOpacityVertex struct {
	Placed  bool
	NotUsed bool
}

// SymbolBuffers is the text or icon geometry of a bucket.
type SymbolBuffers struct {
	PlacedSymbols   []PlacedSymbol
	OpacityVertices []OpacityVertex
}

// CollisionBuffers is collision debug geometry of a bucket.
type CollisionBuffers struct {
	OpacityVertices []CollisionOpacityVertex
}

// SymbolBucket holds one tile's renderable symbols for one layer.
type SymbolBucket struct {
	Layout SymbolLayout

	Text SymbolBuffers
	Icon SymbolBuffers

	CollisionBox    CollisionBuffers
	CollisionCircle CollisionBuffers

	SymbolInstances []SymbolInstance

	// TextSize and IconSize evaluate symbol sizes for the current zoom. A nil
	// binder uses each symbol's layout size.
	TextSize SizeBinder
	IconSize SizeBinder
}

// HasTextData reports whether the bucket has text geometry.
func (b *SymbolBucket) HasTextData() bool {
	return len(b.Text.PlacedSymbols) > 0
}

// HasIconData reports whether the bucket has icon geometry.
func (b *SymbolBucket) HasIconData() bool {
	return len(b.Icon.PlacedSymbols) > 0
}

// HasCollisionBoxData reports whether any symbol has box collision geometry.
func (b *SymbolBucket) HasCollisionBoxData() bool {
	return b.hasCollisionData(false)
}

// HasCollisionCircleData reports whether any symbol has circle collision
// geometry.
func (b *SymbolBucket) HasCollisionCircleData() bool {
	return b.hasCollisionData(true)
}

func (b *SymbolBucket) hasCollisionData(alongLine bool) bool {
	for i := range b.SymbolInstances {
		si := &b.SymbolInstances[i]
		if hasBoxes(&si.TextCollisionFeature, alongLine) || hasBoxes(&si.IconCollisionFeature, alongLine) {
			return true
		}
	}
	return false
}

func hasBoxes(f *CollisionFeature, alongLine bool) bool {
	return f.AlongLine == alongLine && len(f.Boxes) > 0
}

// placedSymbol returns the indexed placed symbol. An out of range index is
// a bucket construction bug and panics.
func (buf *SymbolBuffers) placedSymbol(i int) *PlacedSymbol {
	if i < 0 || i >= len(buf.PlacedSymbols) {
		panic(fmt.Sprintf("placement: placed symbol index %d out of range [0,%d)", i, len(buf.PlacedSymbols)))
	}
	return &buf.PlacedSymbols[i]
}
