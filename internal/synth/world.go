// Package synth generates a deterministic synthetic map of named points and
// cuts it into symbol tiles for headless runs and demos.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/phanxgames/placement"
)

// Glyph metrics of the generated labels, in pixels at the layout size.
const (
	GlyphAdvance = 7
	GlyphWidth   = 6
	GlyphHeight  = 10
	LayoutSize   = 16
	IconSize     = 12
)

var syllables = [...]string{
	"ka", "lo", "mer", "ven", "tor", "ash", "bel", "rin",
	"dor", "sa", "ul", "fen", "qui", "har", "mo", "len",
}

// POI is one named point of interest.
type POI struct {
	Name string
	// World is the position in world pixels at zoom 0.
	World placement.Vec2
	// MinZoom is the lowest tile zoom showing the point.
	MinZoom uint8
	Icon    bool
}

// World is a set of points of interest spread over the whole map.
type World struct {
	POIs    []POI
	MaxZoom uint8
}

// NewWorld generates count points from seed. The same seed always yields
// the same world.
func NewWorld(seed uint64, count int) *World {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	w := &World{POIs: make([]POI, 0, count), MaxZoom: 4}
	for i := range count {
		w.POIs = append(w.POIs, POI{
			Name: name(r),
			World: placement.Vec2{
				X: r.Float64() * placement.TileSize,
				Y: r.Float64() * placement.TileSize,
			},
			MinZoom: uint8(i % int(w.MaxZoom+1)),
			Icon:    i%3 == 0,
		})
	}
	return w
}

func name(r *rand.Rand) string {
	var b strings.Builder
	for i := range 2 + r.IntN(2) {
		s := syllables[r.IntN(len(syllables))]
		if i == 0 {
			s = string(unicode.ToUpper(rune(s[0]))) + s[1:]
		}
		b.WriteString(s)
	}
	return b.String()
}

// Center returns the middle of the world in world pixels.
func (w *World) Center() placement.Vec2 {
	return placement.Vec2{X: placement.TileSize / 2, Y: placement.TileSize / 2}
}

// TileZoom returns the tile zoom drawn at a fractional view zoom.
func (w *World) TileZoom(zoom float64) uint8 {
	z := math.Floor(zoom)
	return uint8(max(0, min(float64(w.MaxZoom), z)))
}

// Bucket builds the symbol bucket of tile id: every point inside the tile
// whose MinZoom is at most id.Z. Text is centered on the point; icons sit
// above it and are optional.
func (w *World) Bucket(id placement.CanonicalTileID) *placement.SymbolBucket {
	b := &placement.SymbolBucket{
		Layout: placement.SymbolLayout{Icon: placement.HalfLayout{Optional: true}},
	}
	size := placement.TileSize / math.Exp2(float64(id.Z))
	origin := id.Origin()
	for i := range w.POIs {
		poi := &w.POIs[i]
		if poi.MinZoom > id.Z {
			continue
		}
		if poi.World.X < origin.X || poi.World.X >= origin.X+size ||
			poi.World.Y < origin.Y || poi.World.Y >= origin.Y+size {
			continue
		}
		addPOI(b, id, poi)
	}
	return b
}

func addPOI(b *placement.SymbolBucket, id placement.CanonicalTileID, poi *POI) {
	anchor := id.FromWorld(poi.World)
	si := placement.SymbolInstance{
		Key:     poi.Name,
		Anchor:  anchor,
		HasText: true,
		HasIcon: poi.Icon,
	}

	n := len(poi.Name)
	half := float64(n*GlyphAdvance) / 2
	si.PlacedTextIndices = []int{len(b.Text.PlacedSymbols)}
	b.Text.PlacedSymbols = append(b.Text.PlacedSymbols, placement.PlacedSymbol{Anchor: anchor, LayoutSize: LayoutSize})
	si.GlyphQuads = make([]placement.SymbolQuad, n)
	for g := range n {
		x0 := -half + float64(g*GlyphAdvance)
		si.GlyphQuads[g] = placement.SymbolQuad{
			TL: placement.Vec2{X: x0, Y: -GlyphHeight / 2},
			TR: placement.Vec2{X: x0 + GlyphWidth, Y: -GlyphHeight / 2},
			BL: placement.Vec2{X: x0, Y: GlyphHeight / 2},
			BR: placement.Vec2{X: x0 + GlyphWidth, Y: GlyphHeight / 2},
		}
	}
	si.TextCollisionFeature = placement.CollisionFeature{Boxes: []placement.CollisionBox{{
		Anchor: anchor, X1: -half - 2, Y1: -GlyphHeight/2 - 2, X2: half + 2, Y2: GlyphHeight/2 + 2,
	}}}

	if poi.Icon {
		const h = IconSize / 2
		si.PlacedIconIndices = []int{len(b.Icon.PlacedSymbols)}
		b.Icon.PlacedSymbols = append(b.Icon.PlacedSymbols, placement.PlacedSymbol{Anchor: anchor, LayoutSize: 1})
		si.IconQuad = &placement.SymbolQuad{
			TL: placement.Vec2{X: -h, Y: -GlyphHeight - IconSize},
			TR: placement.Vec2{X: h, Y: -GlyphHeight - IconSize},
			BL: placement.Vec2{X: -h, Y: -GlyphHeight},
			BR: placement.Vec2{X: h, Y: -GlyphHeight},
		}
		si.IconCollisionFeature = placement.CollisionFeature{Boxes: []placement.CollisionBox{{
			Anchor: anchor, X1: -h - 1, Y1: -GlyphHeight - IconSize - 1, X2: h + 1, Y2: -GlyphHeight + 1,
		}}}
	}
	b.SymbolInstances = append(b.SymbolInstances, si)
}

func (p POI) String() string {
	return fmt.Sprintf("%s@(%.1f,%.1f)z%d", p.Name, p.World.X, p.World.Y, p.MinZoom)
}
