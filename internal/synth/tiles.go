package synth

import (
	"math/rand/v2"

	"github.com/phanxgames/placement"
)

// Tiles keeps the generated tiles covering the current view of a World.
type Tiles struct {
	// OnEvict, when set, is called with the bucket of every tile that
	// leaves the cache or is rebuilt.
	OnEvict func(b *placement.SymbolBucket)

	world   *World
	layerID string
	tiles   map[placement.CanonicalTileID]*placement.GeometryTile
	order   []placement.CanonicalTileID
	builds  int
}

// NewTiles creates an empty cache producing buckets for layerID.
func NewTiles(w *World, layerID string) *Tiles {
	return &Tiles{
		world:   w,
		layerID: layerID,
		tiles:   make(map[placement.CanonicalTileID]*placement.GeometryTile),
	}
}

// Layer returns the symbol layer drawing the tiles that cover state. Tiles
// are generated on first use; tiles no longer covering the view are
// evicted.
func (t *Tiles) Layer(state placement.TransformState) *placement.SymbolLayer {
	z := t.world.TileZoom(state.Zoom)
	ids := state.CoveringTiles(z)

	covered := make(map[placement.CanonicalTileID]bool, len(ids))
	layer := &placement.SymbolLayer{ID: t.layerID, RenderTiles: make([]*placement.RenderTile, 0, len(ids))}
	for _, id := range ids {
		covered[id] = true
		tile, ok := t.tiles[id]
		if !ok {
			tile = t.build(id)
			t.tiles[id] = tile
		}
		layer.RenderTiles = append(layer.RenderTiles, placement.NewRenderTile(tile.ID, tile, state))
	}
	for id, tile := range t.tiles {
		if !covered[id] {
			t.evict(tile)
			delete(t.tiles, id)
		}
	}
	t.order = ids
	return layer
}

func (t *Tiles) build(id placement.CanonicalTileID) *placement.GeometryTile {
	tile := placement.NewGeometryTile(placement.NewOverscaledTileID(id.Z, id.X, id.Y))
	tile.SetBucket(t.layerID, t.world.Bucket(id))
	t.builds++
	return tile
}

func (t *Tiles) evict(tile *placement.GeometryTile) {
	if t.OnEvict == nil {
		return
	}
	if b, ok := tile.SymbolBucket(t.layerID); ok {
		t.OnEvict(b)
	}
}

// Rebuild replaces the bucket of a cached tile with a freshly generated
// one, as a tile reload would. It reports whether the tile was cached.
func (t *Tiles) Rebuild(id placement.CanonicalTileID) bool {
	tile, ok := t.tiles[id]
	if !ok {
		return false
	}
	t.evict(tile)
	tile.SetBucket(t.layerID, t.world.Bucket(id))
	t.builds++
	return true
}

// RebuildRandom rebuilds one of the tiles of the last Layer call.
func (t *Tiles) RebuildRandom(r *rand.Rand) (placement.CanonicalTileID, bool) {
	if len(t.order) == 0 {
		return placement.CanonicalTileID{}, false
	}
	id := t.order[r.IntN(len(t.order))]
	return id, t.Rebuild(id)
}

// Len returns the number of cached tiles.
func (t *Tiles) Len() int {
	return len(t.tiles)
}

// Builds returns the number of buckets generated so far.
func (t *Tiles) Builds() int {
	return t.builds
}
