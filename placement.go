package placement

import (
	"fmt"
	"math"
	"time"
)

// placementPair is the decision for one symbol in one frame.
type placementPair struct {
	text bool
	icon bool
}

// Placement is one frame of symbol placement. Layers are placed into it
// with PlaceLayer, then Commit reconciles it with the previous frame and
// freezes its opacity state. UpdateLayerOpacities projects the committed
// state into bucket vertex buffers.
//
// A Placement is not safe for concurrent use.
type Placement struct {
	state TransformState
	index CollisionIndex
	opts  options

	placements map[uint32]placementPair
	opacities  map[uint32]JointOpacityState

	commitTime     time.Time
	committed      bool
	maxCrossTileID uint32
	firstNewID     uint32

	stats FrameStats
}

// NewPlacement creates a Placement for one frame viewed through state.
// Every frame after the first should pass WithPrevious so that new labels
// are numbered after the ones still fading out.
func NewPlacement(state TransformState, opts ...Option) *Placement {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	idx := o.index
	if idx == nil {
		idx = NewGridIndex(state)
	}
	start := o.startID
	if o.prev != nil {
		start = max(start, o.prev.maxCrossTileID)
	}
	return &Placement{
		state:          state,
		index:          idx,
		opts:           o,
		placements:     make(map[uint32]placementPair),
		opacities:      make(map[uint32]JointOpacityState),
		maxCrossTileID: start,
	}
}

// State returns the transform state the Placement was created with.
func (p *Placement) State() TransformState { return p.state }

// CollisionIndex returns the index used by PlaceLayer.
func (p *Placement) CollisionIndex() CollisionIndex { return p.index }

// CommitTime returns the time passed to Commit.
func (p *Placement) CommitTime() time.Time { return p.commitTime }

// Committed reports whether Commit has run.
func (p *Placement) Committed() bool { return p.committed }

// MaxCrossTileID returns the largest cross-tile id assigned or seen so far.
func (p *Placement) MaxCrossTileID() uint32 { return p.maxCrossTileID }

// Stats returns the counters of this frame. Durations are only measured in
// debug mode.
func (p *Placement) Stats() FrameStats { return p.stats }

// Len returns the number of committed opacity states.
func (p *Placement) Len() int { return len(p.opacities) }

// Placed returns the decision recorded for id by PlaceLayer.
func (p *Placement) Placed(id uint32) (text, icon, ok bool) {
	pair, ok := p.placements[id]
	return pair.text, pair.icon, ok
}

// Opacity returns the committed state of id. Unknown ids are hidden.
func (p *Placement) Opacity(id uint32) JointOpacityState {
	return p.opacities[id]
}

// PlaceLayer runs greedy placement over every renderable bucket of layer,
// in tile order then symbol order. Earlier symbols win collisions.
//
// Symbols without a cross-tile id are numbered after every id already
// carried by the layer.
func (p *Placement) PlaceLayer(layer *SymbolLayer) {
	var start time.Time
	if p.opts.debug {
		start = time.Now()
	}
	layer.eachBucket(p.reserveBucketIDs)
	layer.eachBucket(p.placeLayerBucket)
	if p.opts.debug {
		p.stats.PlaceTime += time.Since(start)
	}
}

func (p *Placement) reserveBucketIDs(_ *RenderTile, b *SymbolBucket) {
	for i := range b.SymbolInstances {
		if id := b.SymbolInstances[i].CrossTileID; id > p.maxCrossTileID {
			p.maxCrossTileID = id
		}
	}
}

func (p *Placement) placeLayerBucket(rt *RenderTile, b *SymbolBucket) {
	zoom := p.state.Zoom
	pixelsToTileUnits := rt.ID.PixelsToTileUnits(1, zoom)
	scale := math.Exp2(zoom - float64(rt.ID.Canonical.Z))
	layout := b.Layout

	textPlane := LabelPlaneMatrix(rt.Matrix,
		layout.Text.PitchAlignment == AlignmentMap,
		layout.Text.RotationAlignment == AlignmentMap,
		p.state, pixelsToTileUnits)
	iconPlane := LabelPlaneMatrix(rt.Matrix,
		layout.Icon.PitchAlignment == AlignmentMap,
		layout.Icon.RotationAlignment == AlignmentMap,
		p.state, pixelsToTileUnits)

	textSize := evaluateBinder(b.TextSize, zoom)
	iconSize := evaluateBinder(b.IconSize, zoom)

	iconWithoutText := !b.HasTextData() || layout.Text.Optional
	textWithoutIcon := !b.HasIconData() || layout.Icon.Optional
	const pixelRatio = Extent / TileSize

	for i := range b.SymbolInstances {
		si := &b.SymbolInstances[i]
		if si.IsDuplicate {
			continue
		}
		if len(si.PlacedTextIndices) == 0 && len(si.PlacedIconIndices) == 0 {
			continue
		}
		p.stats.Candidates++

		var placeText, placeIcon bool
		if len(si.PlacedTextIndices) > 0 {
			ps := b.Text.placedSymbol(si.PlacedTextIndices[0])
			placeText = p.index.PlaceFeature(&si.TextCollisionFeature, PlaceQuery{
				PosMatrix:          rt.Matrix,
				LabelPlaneMatrix:   textPlane,
				PixelRatio:         pixelRatio,
				Symbol:             ps,
				Scale:              scale,
				FontSize:           EvaluateSizeForFeature(textSize, ps),
				AllowOverlap:       layout.Text.AllowOverlap,
				PitchWithMap:       layout.Text.PitchAlignment == AlignmentMap,
				ShowCollisionBoxes: p.opts.showCollisionBoxes,
			})
		}
		if len(si.PlacedIconIndices) > 0 {
			ps := b.Icon.placedSymbol(si.PlacedIconIndices[0])
			placeIcon = p.index.PlaceFeature(&si.IconCollisionFeature, PlaceQuery{
				PosMatrix:          rt.Matrix,
				LabelPlaneMatrix:   iconPlane,
				PixelRatio:         pixelRatio,
				Symbol:             ps,
				Scale:              scale,
				FontSize:           EvaluateSizeForFeature(iconSize, ps),
				AllowOverlap:       layout.Icon.AllowOverlap,
				PitchWithMap:       layout.Icon.PitchAlignment == AlignmentMap,
				ShowCollisionBoxes: p.opts.showCollisionBoxes,
			})
		}

		// Couple the halves. Branch order matters: a bucket where both
		// halves are optional keeps the independent decisions.
		switch {
		case !iconWithoutText && !textWithoutIcon:
			placeText = placeText && placeIcon
			placeIcon = placeText
		case !textWithoutIcon:
			placeText = placeText && placeIcon
		case !iconWithoutText:
			placeIcon = placeText && placeIcon
		}

		si.PlacedText = placeText
		if placeText {
			p.index.InsertFeature(&si.TextCollisionFeature, layout.Text.IgnorePlacement)
			p.stats.PlacedText++
		}
		si.PlacedIcon = placeIcon
		if placeIcon {
			p.index.InsertFeature(&si.IconCollisionFeature, layout.Icon.IgnorePlacement)
			p.stats.PlacedIcon++
		}

		if si.CrossTileID == 0 {
			p.maxCrossTileID++
			si.CrossTileID = p.maxCrossTileID
			if p.firstNewID == 0 {
				p.firstNewID = si.CrossTileID
			}
		}
		if _, seen := p.placements[si.CrossTileID]; !seen {
			p.placements[si.CrossTileID] = placementPair{text: placeText, icon: placeIcon}
		}
	}
}

// Commit freezes this frame's opacity state at now. prev is the previously
// committed Placement, or nil on the first frame; it must not be used after
// the call. A nil prev falls back to the Placement given to WithPrevious.
//
// Commit panics if prev differs from the WithPrevious Placement, or if ids
// handed out by PlaceLayer overlap the ids of prev.
//
// Symbols placed in both frames continue their fade. New symbols start at
// zero opacity. Symbols of prev missing from this frame keep fading out and
// are dropped once fully transparent.
func (p *Placement) Commit(prev *Placement, now time.Time) {
	if p.committed {
		panic("placement: Commit called twice on the same Placement")
	}
	var start time.Time
	if p.opts.debug {
		start = time.Now()
	}
	if prev == nil {
		prev = p.opts.prev
	} else if p.opts.prev != nil && prev != p.opts.prev {
		panic("placement: Commit with a Placement other than WithPrevious")
	}
	if prev != nil && p.firstNewID != 0 && p.firstNewID <= prev.maxCrossTileID {
		panic(fmt.Sprintf("placement: new cross-tile id %d overlaps previous ids up to %d; create the Placement WithPrevious",
			p.firstNewID, prev.maxCrossTileID))
	}
	p.committed = true
	p.commitTime = now

	if prev == nil {
		for id, pair := range p.placements {
			s := NewJointOpacityState(targetOf(pair.icon), targetOf(pair.text))
			p.opacities[id] = s
			p.emitTransition(id, JointOpacityState{}, s)
		}
		p.finishCommit(start)
		return
	}

	if prev.maxCrossTileID > p.maxCrossTileID {
		p.maxCrossTileID = prev.maxCrossTileID
	}

	elapsed := now.Sub(prev.commitTime)
	if elapsed < 0 {
		Logger().Warn("placement: commit time went backwards", "elapsed", elapsed)
		elapsed = 0
	}
	increment := float64(elapsed) / float64(p.opts.fadeDuration)
	rule := p.opts.fadeRule

	for id, pair := range p.placements {
		iconTarget, textTarget := targetOf(pair.icon), targetOf(pair.text)
		before, ok := prev.opacities[id]
		var s JointOpacityState
		if ok {
			s = rule.NextJoint(before, increment, iconTarget, textTarget)
		} else {
			s = NewJointOpacityState(iconTarget, textTarget)
		}
		p.opacities[id] = s
		p.emitTransition(id, before, s)
	}

	for id, before := range prev.opacities {
		if _, placed := p.placements[id]; placed {
			continue
		}
		s := rule.NextJoint(before, increment, 0, 0)
		if s.Resolved() {
			p.stats.Dropped++
			p.emit(FadeEvent{Kind: FadeDropped, Channel: ChannelBoth, CrossTileID: id, State: s, Time: now})
			continue
		}
		p.opacities[id] = s
		p.stats.Carried++
		p.emitTransition(id, before, s)
	}

	p.finishCommit(start)
}

func (p *Placement) finishCommit(start time.Time) {
	if p.opts.debug {
		p.stats.CommitTime += time.Since(start)
	}
}

func (p *Placement) emitTransition(id uint32, before, after JointOpacityState) {
	if p.opts.sink == nil {
		return
	}
	in, out := transitionChannels(before, after)
	if in != 0 {
		p.emit(FadeEvent{Kind: FadeInStarted, Channel: in, CrossTileID: id, State: after, Time: p.commitTime})
	}
	if out != 0 {
		p.emit(FadeEvent{Kind: FadeOutStarted, Channel: out, CrossTileID: id, State: after, Time: p.commitTime})
	}
}

func (p *Placement) emit(e FadeEvent) {
	if p.opts.sink != nil {
		p.opts.sink.EmitFade(e)
	}
}

// UpdateLayerOpacities rebuilds the opacity buffers of every renderable
// bucket of layer from the committed state.
func (p *Placement) UpdateLayerOpacities(layer *SymbolLayer) {
	if !p.committed {
		panic(fmt.Sprintf("placement: UpdateLayerOpacities(%q) before Commit", layer.ID))
	}
	var start time.Time
	if p.opts.debug {
		start = time.Now()
	}
	layer.eachBucket(func(_ *RenderTile, b *SymbolBucket) {
		p.updateBucketOpacities(b)
	})
	if p.opts.debug {
		p.stats.UpdateTime += time.Since(start)
	}
}

func (p *Placement) updateBucketOpacities(b *SymbolBucket) {
	hasText, hasIcon := b.HasTextData(), b.HasIconData()
	hasBoxes, hasCircles := b.HasCollisionBoxData(), b.HasCollisionCircleData()

	if hasText {
		b.Text.OpacityVertices = b.Text.OpacityVertices[:0]
	}
	if hasIcon {
		b.Icon.OpacityVertices = b.Icon.OpacityVertices[:0]
	}
	if hasBoxes {
		b.CollisionBox.OpacityVertices = b.CollisionBox.OpacityVertices[:0]
	}
	if hasCircles {
		b.CollisionCircle.OpacityVertices = b.CollisionCircle.OpacityVertices[:0]
	}

	for i := range b.SymbolInstances {
		si := &b.SymbolInstances[i]
		s := p.Opacity(si.CrossTileID)

		if si.HasText {
			v := newOpacityVertex(s.Text)
			for range len(si.GlyphQuads) * 4 {
				b.Text.OpacityVertices = append(b.Text.OpacityVertices, v)
			}
		}
		if si.HasIcon && si.IconQuad != nil {
			v := newOpacityVertex(s.Icon)
			b.Icon.OpacityVertices = append(b.Icon.OpacityVertices, v, v, v, v)
		}
		appendCollisionVertices(b, &si.TextCollisionFeature, si.PlacedText)
		appendCollisionVertices(b, &si.IconCollisionFeature, si.PlacedIcon)
	}

	u := p.opts.uploader
	if u == nil {
		return
	}
	if hasText {
		u.UpdateSymbolOpacities(b, BufferText, b.Text.OpacityVertices)
		b.Text.OpacityVertices = nil
	}
	if hasIcon {
		u.UpdateSymbolOpacities(b, BufferIcon, b.Icon.OpacityVertices)
		b.Icon.OpacityVertices = nil
	}
	if hasBoxes {
		u.UpdateCollisionOpacities(b, BufferCollisionBox, b.CollisionBox.OpacityVertices)
		b.CollisionBox.OpacityVertices = nil
	}
	if hasCircles {
		u.UpdateCollisionOpacities(b, BufferCollisionCircle, b.CollisionCircle.OpacityVertices)
		b.CollisionCircle.OpacityVertices = nil
	}
}

// appendCollisionVertices emits four debug vertices per box. Circles also
// carry whether they took part in the last placement test.
func appendCollisionVertices(b *SymbolBucket, f *CollisionFeature, placed bool) {
	for i := range f.Boxes {
		if f.AlongLine {
			v := CollisionOpacityVertex{Placed: placed, NotUsed: !f.Boxes[i].Used}
			b.CollisionCircle.OpacityVertices = append(b.CollisionCircle.OpacityVertices, v, v, v, v)
		} else {
			v := CollisionOpacityVertex{Placed: placed}
			b.CollisionBox.OpacityVertices = append(b.CollisionBox.OpacityVertices, v, v, v, v)
		}
	}
}
