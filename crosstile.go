package placement

import "math"

// defaultMatchTolerance is the distance, in tile units of the incoming tile,
// within which a rebuilt symbol is matched to a known one.
const defaultMatchTolerance = 4

type knownSymbol struct {
	id    uint32
	world Vec2
}

type crossTileLayer struct {
	known   map[string][]knownSymbol
	claims  map[uint32]*SymbolBucket
	buckets map[OverscaledTileID]*SymbolBucket
}

// CrossTileIndex carries cross-tile ids over tile rebuilds. When a bucket is
// added, its unassigned symbols take the id of a previously indexed symbol
// with the same key at (almost) the same world position. A symbol whose id
// is already held by another live bucket is marked duplicate, so a label
// shown by both a parent and a child tile is placed once.
type CrossTileIndex struct {
	// Tolerance is the matching distance in tile units of the added bucket.
	Tolerance float64

	layers map[string]*crossTileLayer
}

// NewCrossTileIndex creates an empty index.
func NewCrossTileIndex() *CrossTileIndex {
	return &CrossTileIndex{
		Tolerance: defaultMatchTolerance,
		layers:    make(map[string]*crossTileLayer),
	}
}

func (x *CrossTileIndex) layer(id string) *crossTileLayer {
	l, ok := x.layers[id]
	if !ok {
		l = &crossTileLayer{
			known:   make(map[string][]knownSymbol),
			claims:  make(map[uint32]*SymbolBucket),
			buckets: make(map[OverscaledTileID]*SymbolBucket),
		}
		x.layers[id] = l
	}
	return l
}

// AddBucket indexes b as the layer's bucket for tileID, replacing any
// previous one. Adding the same bucket again is a no-op.
func (x *CrossTileIndex) AddBucket(tileID OverscaledTileID, layerID string, b *SymbolBucket) {
	l := x.layer(layerID)
	if old, ok := l.buckets[tileID]; ok {
		if old == b {
			return
		}
		l.release(old)
	}
	l.buckets[tileID] = b

	tolWorld := x.Tolerance * TileSize / math.Exp2(float64(tileID.Canonical.Z)) / Extent
	for i := range b.SymbolInstances {
		si := &b.SymbolInstances[i]
		si.IsDuplicate = false
		if si.CrossTileID == 0 && si.Key != "" {
			world := tileID.Canonical.ToWorld(si.Anchor)
			if id, ok := l.match(si.Key, world, tolWorld); ok {
				si.CrossTileID = id
			}
		}
		if si.CrossTileID == 0 {
			continue
		}
		if owner, claimed := l.claims[si.CrossTileID]; claimed && owner != b {
			si.IsDuplicate = true
			continue
		}
		l.claims[si.CrossTileID] = b
	}
}

// match returns the id of the closest known symbol with key within tol.
func (l *crossTileLayer) match(key string, world Vec2, tol float64) (uint32, bool) {
	var (
		best  uint32
		bestD = math.Inf(1)
	)
	for _, k := range l.known[key] {
		if d := k.world.Sub(world).Len(); d <= tol && d < bestD {
			best, bestD = k.id, d
		}
	}
	return best, bestD <= tol
}

func (l *crossTileLayer) release(b *SymbolBucket) {
	for i := range b.SymbolInstances {
		id := b.SymbolInstances[i].CrossTileID
		if l.claims[id] == b {
			delete(l.claims, id)
		}
	}
}

// Remember records the ids of b's symbols, including those assigned by
// placement, so later rebuilds can match them.
func (x *CrossTileIndex) Remember(tileID OverscaledTileID, layerID string, b *SymbolBucket) {
	l := x.layer(layerID)
	for i := range b.SymbolInstances {
		si := &b.SymbolInstances[i]
		if si.CrossTileID == 0 || si.IsDuplicate || si.Key == "" {
			continue
		}
		if _, claimed := l.claims[si.CrossTileID]; !claimed {
			l.claims[si.CrossTileID] = b
		}
		if l.knows(si.Key, si.CrossTileID) {
			continue
		}
		l.known[si.Key] = append(l.known[si.Key], knownSymbol{
			id:    si.CrossTileID,
			world: tileID.Canonical.ToWorld(si.Anchor),
		})
	}
}

func (l *crossTileLayer) knows(key string, id uint32) bool {
	for _, k := range l.known[key] {
		if k.id == id {
			return true
		}
	}
	return false
}

// RemoveTile releases the ids held by tileID's buckets in every layer. The
// ids stay known for matching.
func (x *CrossTileIndex) RemoveTile(tileID OverscaledTileID) {
	for _, l := range x.layers {
		if b, ok := l.buckets[tileID]; ok {
			l.release(b)
			delete(l.buckets, tileID)
		}
	}
}

// IndexLayer adds the renderable buckets of layer and removes the layer's
// buckets of tiles no longer drawn.
func (x *CrossTileIndex) IndexLayer(layer *SymbolLayer) {
	l := x.layer(layer.ID)
	drawn := make(map[OverscaledTileID]bool, len(layer.RenderTiles))
	layer.eachBucket(func(rt *RenderTile, b *SymbolBucket) {
		drawn[rt.ID] = true
		x.AddBucket(rt.ID, layer.ID, b)
	})
	for id, b := range l.buckets {
		if !drawn[id] {
			l.release(b)
			delete(l.buckets, id)
		}
	}
}

// RememberLayer calls Remember for every renderable bucket of layer.
func (x *CrossTileIndex) RememberLayer(layer *SymbolLayer) {
	layer.eachBucket(func(rt *RenderTile, b *SymbolBucket) {
		x.Remember(rt.ID, layer.ID, b)
	})
}

// Prune forgets known symbols that no live bucket holds and for which live
// reports false.
func (x *CrossTileIndex) Prune(live func(id uint32) bool) {
	for _, l := range x.layers {
		for key, syms := range l.known {
			kept := syms[:0]
			for _, k := range syms {
				if _, claimed := l.claims[k.id]; claimed || live(k.id) {
					kept = append(kept, k)
				}
			}
			if len(kept) == 0 {
				delete(l.known, key)
				continue
			}
			l.known[key] = kept
		}
	}
}

// Known returns the number of remembered symbols of layerID.
func (x *CrossTileIndex) Known(layerID string) int {
	l, ok := x.layers[layerID]
	if !ok {
		return 0
	}
	n := 0
	for _, syms := range l.known {
		n += len(syms)
	}
	return n
}
