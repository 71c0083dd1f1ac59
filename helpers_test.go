package placement

import (
	"math"
	"time"
)

const epsilon = 1e-6

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

const testLayerID = "labels"

// testState is an 800x600 viewport showing tile 0/0/0 centered at zoom 0.
// Tile unit (4096, 4096) projects to the viewport center and one pixel is
// 16 tile units.
func testState() TransformState {
	return TransformState{Width: 800, Height: 600, Zoom: 0, Center: Vec2{256, 256}}
}

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// testBucket builds a bucket with point labels.
type testBucket struct {
	*SymbolBucket
}

func newTestBucket(layout SymbolLayout) *testBucket {
	return &testBucket{&SymbolBucket{Layout: layout}}
}

// add appends a label at anchor (tile units) with a text box of
// 2*halfW x 2*halfH pixels and, when icon is set, an icon box of the same
// size.
func (b *testBucket) add(anchor Vec2, text, icon bool, halfW, halfH float64) *SymbolInstance {
	si := SymbolInstance{Anchor: anchor, HasText: text, HasIcon: icon}
	box := CollisionBox{Anchor: anchor, X1: -halfW, Y1: -halfH, X2: halfW, Y2: halfH}
	if text {
		si.PlacedTextIndices = []int{len(b.Text.PlacedSymbols)}
		b.Text.PlacedSymbols = append(b.Text.PlacedSymbols, PlacedSymbol{Anchor: anchor, LayoutSize: 16})
		si.TextCollisionFeature = CollisionFeature{Boxes: []CollisionBox{box}}
		si.GlyphQuads = make([]SymbolQuad, 3)
	}
	if icon {
		si.PlacedIconIndices = []int{len(b.Icon.PlacedSymbols)}
		b.Icon.PlacedSymbols = append(b.Icon.PlacedSymbols, PlacedSymbol{Anchor: anchor, LayoutSize: 1})
		si.IconCollisionFeature = CollisionFeature{Boxes: []CollisionBox{box}}
		si.IconQuad = &SymbolQuad{}
	}
	b.SymbolInstances = append(b.SymbolInstances, si)
	return &b.SymbolInstances[len(b.SymbolInstances)-1]
}

// testLayer places every bucket on tile 0/0/0 of its own GeometryTile.
func testLayer(state TransformState, buckets ...*SymbolBucket) *SymbolLayer {
	layer := &SymbolLayer{ID: testLayerID}
	for _, b := range buckets {
		id := NewOverscaledTileID(0, 0, 0)
		tile := NewGeometryTile(id)
		tile.SetBucket(testLayerID, b)
		layer.RenderTiles = append(layer.RenderTiles, NewRenderTile(id, tile, state))
	}
	return layer
}

// scriptedIndex is a CollisionIndex returning fixed answers per feature.
type scriptedIndex struct {
	answers  map[*CollisionFeature]bool
	fallback bool
	queries  []PlaceQuery
	inserted []*CollisionFeature
	ignored  []*CollisionFeature
}

func newScriptedIndex(fallback bool) *scriptedIndex {
	return &scriptedIndex{answers: make(map[*CollisionFeature]bool), fallback: fallback}
}

func (s *scriptedIndex) PlaceFeature(f *CollisionFeature, q PlaceQuery) bool {
	s.queries = append(s.queries, q)
	if ans, ok := s.answers[f]; ok {
		return ans
	}
	return s.fallback
}

func (s *scriptedIndex) InsertFeature(f *CollisionFeature, ignorePlacement bool) {
	if ignorePlacement {
		s.ignored = append(s.ignored, f)
		return
	}
	s.inserted = append(s.inserted, f)
}

// committedWith returns a committed Placement holding states, for use as a
// predecessor.
func committedWith(states map[uint32]JointOpacityState, at time.Time) *Placement {
	p := NewPlacement(testState(), WithCollisionIndex(newScriptedIndex(true)))
	for id, s := range states {
		p.opacities[id] = s
		p.maxCrossTileID = max(p.maxCrossTileID, id)
	}
	p.committed = true
	p.commitTime = at
	return p
}

// eventRecorder collects fade events.
type eventRecorder struct {
	events []FadeEvent
}

func (r *eventRecorder) EmitFade(e FadeEvent) {
	r.events = append(r.events, e)
}

func (r *eventRecorder) count(kind FadeEventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
