package placement

import (
	"fmt"
	"math"
)

// CanonicalTileID addresses a tile in the tile pyramid.
type CanonicalTileID struct {
	Z    uint8
	X, Y uint32
}

func (id CanonicalTileID) String() string {
	return fmt.Sprintf("%d/%d/%d", id.Z, id.X, id.Y)
}

// Origin returns the tile's top-left corner in world pixels at zoom 0.
func (id CanonicalTileID) Origin() Vec2 {
	size := TileSize / math.Exp2(float64(id.Z))
	return Vec2{float64(id.X) * size, float64(id.Y) * size}
}

// ToWorld converts a point in tile units to world pixels at zoom 0.
func (id CanonicalTileID) ToWorld(p Vec2) Vec2 {
	size := TileSize / math.Exp2(float64(id.Z))
	return id.Origin().Add(p.Scale(size / Extent))
}

// FromWorld converts a world point (zoom 0 pixels) to this tile's units.
func (id CanonicalTileID) FromWorld(p Vec2) Vec2 {
	size := TileSize / math.Exp2(float64(id.Z))
	return p.Sub(id.Origin()).Scale(Extent / size)
}

// OverscaledTileID is a canonical tile displayed at a possibly higher zoom
// than its data was cut for.
type OverscaledTileID struct {
	OverscaledZ uint8
	Canonical   CanonicalTileID
}

// NewOverscaledTileID returns an id displayed at its own zoom.
func NewOverscaledTileID(z uint8, x, y uint32) OverscaledTileID {
	return OverscaledTileID{OverscaledZ: z, Canonical: CanonicalTileID{Z: z, X: x, Y: y}}
}

// PixelsToTileUnits converts a pixel length at the given zoom into tile units.
func (id OverscaledTileID) PixelsToTileUnits(pixelValue, zoom float64) float64 {
	return pixelValue * (Extent / (TileSize * math.Exp2(zoom-float64(id.OverscaledZ))))
}

func (id OverscaledTileID) String() string {
	return fmt.Sprintf("%s@%d", id.Canonical, id.OverscaledZ)
}

// Tile is the placement view of a loaded tile. Buckets are looked up by
// layer through a typed accessor.
type Tile interface {
	// IsRenderable reports whether the tile has data ready to draw.
	IsRenderable() bool
	// SymbolBucket returns the tile's symbol bucket for a layer.
	SymbolBucket(layerID string) (*SymbolBucket, bool)
}

// GeometryTile is a Tile holding symbol buckets in memory.
type GeometryTile struct {
	ID OverscaledTileID

	renderable bool
	buckets    map[string]*SymbolBucket
}

// NewGeometryTile creates an empty, renderable tile.
func NewGeometryTile(id OverscaledTileID) *GeometryTile {
	return &GeometryTile{ID: id, renderable: true, buckets: make(map[string]*SymbolBucket)}
}

// IsRenderable reports whether the tile is ready to draw.
func (t *GeometryTile) IsRenderable() bool {
	return t.renderable
}

// SetRenderable marks the tile as (not) ready to draw.
func (t *GeometryTile) SetRenderable(renderable bool) {
	t.renderable = renderable
}

// SymbolBucket returns the bucket for layerID.
func (t *GeometryTile) SymbolBucket(layerID string) (*SymbolBucket, bool) {
	b, ok := t.buckets[layerID]
	return b, ok
}

// SetBucket installs (or replaces) the bucket for layerID.
func (t *GeometryTile) SetBucket(layerID string, b *SymbolBucket) {
	if b == nil {
		panic("placement: cannot set nil bucket")
	}
	t.buckets[layerID] = b
}

// RemoveBucket drops the bucket for layerID.
func (t *GeometryTile) RemoveBucket(layerID string) {
	delete(t.buckets, layerID)
}

// RenderTile is a tile as drawn this frame: its id, its position matrix and
// its data.
type RenderTile struct {
	ID     OverscaledTileID
	Matrix Mat4
	Tile   Tile
}

// NewRenderTile computes the tile matrix for state.
func NewRenderTile(id OverscaledTileID, tile Tile, state TransformState) *RenderTile {
	return &RenderTile{ID: id, Matrix: state.TileMatrix(id.Canonical), Tile: tile}
}

// SymbolLayer is a symbol style layer with the tiles it draws this frame.
type SymbolLayer struct {
	ID          string
	RenderTiles []*RenderTile
}

// eachBucket calls fn for every renderable tile holding a bucket for the
// layer.
func (l *SymbolLayer) eachBucket(fn func(rt *RenderTile, b *SymbolBucket)) {
	for _, rt := range l.RenderTiles {
		if rt.Tile == nil || !rt.Tile.IsRenderable() {
			continue
		}
		b, ok := rt.Tile.SymbolBucket(l.ID)
		if !ok {
			continue
		}
		if b == nil {
			panic(fmt.Sprintf("placement: tile %s returned nil bucket for layer %q", rt.ID, l.ID))
		}
		fn(rt, b)
	}
}
