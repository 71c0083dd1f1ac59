package placement

import "time"

// Pipeline runs the per-frame placement sequence and keeps the committed
// Placement between frames.
type Pipeline struct {
	current   *Placement
	crossTile *CrossTileIndex
	sink      EventSink
	debug     bool
	opts      []Option
	newIndex  func(TransformState) CollisionIndex
	frames    uint64
}

// NewPipeline creates a Pipeline whose placements are configured with opts.
// The collision index and the previous Placement are set per frame and
// override WithCollisionIndex, WithPrevious and WithStartID in opts; use
// SetCollisionIndexFunc for a custom index.
func NewPipeline(opts ...Option) *Pipeline {
	return &Pipeline{opts: opts}
}

// Current returns the last committed Placement, or nil before the first
// frame.
func (p *Pipeline) Current() *Placement {
	return p.current
}

// Frames returns the number of frames run.
func (p *Pipeline) Frames() uint64 {
	return p.frames
}

// SetCrossTileIndex enables id matching over tile rebuilds.
func (p *Pipeline) SetCrossTileIndex(x *CrossTileIndex) {
	p.crossTile = x
}

// SetEventSink sets the receiver of fade events.
func (p *Pipeline) SetEventSink(s EventSink) {
	p.sink = s
}

// SetCollisionIndexFunc sets the constructor of each frame's collision
// index. nil restores the GridIndex.
func (p *Pipeline) SetCollisionIndexFunc(fn func(TransformState) CollisionIndex) {
	p.newIndex = fn
}

// SetDebugMode enables or disables debug mode. When enabled, per-frame
// timings and counters are logged at debug level.
func (p *Pipeline) SetDebugMode(enabled bool) {
	p.debug = enabled
}

// Frame places layers in order for the view state, commits at now and
// rebuilds the opacity buffers of every drawn bucket. It returns the new
// committed Placement.
func (p *Pipeline) Frame(state TransformState, layers []*SymbolLayer, now time.Time) *Placement {
	opts := make([]Option, 0, len(p.opts)+5)
	opts = append(opts, p.opts...)
	opts = append(opts, WithStartID(0), WithPrevious(p.current))
	if p.debug {
		opts = append(opts, WithDebug(true))
	}
	if p.sink != nil {
		opts = append(opts, WithEventSink(p.sink))
	}
	if p.newIndex != nil {
		opts = append(opts, WithCollisionIndex(p.newIndex(state)))
	} else {
		opts = append(opts, WithCollisionIndex(NewGridIndex(state)))
	}
	pl := NewPlacement(state, opts...)

	if p.crossTile != nil {
		for _, l := range layers {
			p.crossTile.IndexLayer(l)
		}
	}
	for _, l := range layers {
		pl.PlaceLayer(l)
	}
	if p.crossTile != nil {
		for _, l := range layers {
			p.crossTile.RememberLayer(l)
		}
	}

	pl.Commit(p.current, now)
	for _, l := range layers {
		pl.UpdateLayerOpacities(l)
	}

	if p.crossTile != nil {
		p.crossTile.Prune(func(id uint32) bool {
			_, ok := pl.opacities[id]
			return ok
		})
	}

	if pl.opts.debug {
		debugLog(pl)
		debugCheckOpacityStates(pl)
	}
	if p.current == nil {
		Logger().Info("placement: first frame committed", "symbols", pl.Len())
	}
	p.current = pl
	p.frames++
	return pl
}
