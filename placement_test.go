package placement

import (
	"math/rand"
	"strings"
	"testing"
	"time"
)

func TestFirstCommitSeedsFromZero(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{1000, 1000}, true, false, 10, 5)
	b.add(Vec2{3000, 3000}, true, false, 10, 5)
	idx := newScriptedIndex(true)
	idx.answers[&b.SymbolInstances[1].TextCollisionFeature] = false

	p := NewPlacement(state, WithCollisionIndex(idx))
	p.PlaceLayer(testLayer(state, b.SymbolBucket))
	p.Commit(nil, testEpoch)

	a, c := b.SymbolInstances[0], b.SymbolInstances[1]
	if got := p.Opacity(a.CrossTileID); got != (JointOpacityState{Icon: OpacityState{0, 0}, Text: OpacityState{0, 1}}) {
		t.Errorf("placed label state = %+v, want text {0 1}", got)
	}
	if got := p.Opacity(c.CrossTileID); !got.IsHidden() {
		t.Errorf("unplaced label state = %+v, want hidden", got)
	}
	if !p.CommitTime().Equal(testEpoch) {
		t.Errorf("CommitTime = %v, want %v", p.CommitTime(), testEpoch)
	}
	if p.Len() != 2 {
		t.Errorf("Len = %d, want 2", p.Len())
	}
}

func TestOpacityUnknownIDIsHidden(t *testing.T) {
	p := NewPlacement(testState())
	p.Commit(nil, testEpoch)
	if got := p.Opacity(42); got != (JointOpacityState{}) {
		t.Errorf("Opacity(42) = %+v, want zero state", got)
	}
}

func TestCrossTileIDsAreMonotone(t *testing.T) {
	state := testState()
	first := newTestBucket(SymbolLayout{})
	for i := range 3 {
		first.add(Vec2{float64(1000 * (i + 1)), 1000}, true, false, 4, 4)
	}
	p1 := NewPlacement(state, WithCollisionIndex(newScriptedIndex(true)))
	p1.PlaceLayer(testLayer(state, first.SymbolBucket))
	p1.Commit(nil, testEpoch)

	seen := make(map[uint32]bool)
	for _, si := range first.SymbolInstances {
		if si.CrossTileID == 0 || seen[si.CrossTileID] {
			t.Fatalf("bad id %d after first pass", si.CrossTileID)
		}
		seen[si.CrossTileID] = true
	}
	if p1.MaxCrossTileID() != 3 {
		t.Fatalf("MaxCrossTileID = %d, want 3", p1.MaxCrossTileID())
	}
	before := []uint32{first.SymbolInstances[0].CrossTileID, first.SymbolInstances[1].CrossTileID, first.SymbolInstances[2].CrossTileID}

	second := newTestBucket(SymbolLayout{})
	second.add(Vec2{500, 500}, true, false, 4, 4)
	second.add(Vec2{600, 600}, true, false, 4, 4)
	p2 := NewPlacement(state, WithCollisionIndex(newScriptedIndex(true)), WithStartID(p1.MaxCrossTileID()))
	p2.PlaceLayer(testLayer(state, first.SymbolBucket, second.SymbolBucket))
	p2.Commit(p1, testEpoch.Add(16*time.Millisecond))

	for i, id := range before {
		if first.SymbolInstances[i].CrossTileID != id {
			t.Errorf("instance %d id changed from %d to %d", i, id, first.SymbolInstances[i].CrossTileID)
		}
	}
	for _, si := range second.SymbolInstances {
		if si.CrossTileID <= 3 || seen[si.CrossTileID] {
			t.Errorf("new id %d collides with or precedes earlier ids", si.CrossTileID)
		}
		seen[si.CrossTileID] = true
	}
	if p2.MaxCrossTileID() != 5 {
		t.Errorf("MaxCrossTileID = %d, want 5", p2.MaxCrossTileID())
	}
}

func TestPreassignedIDRaisesCounter(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{100, 100}, true, false, 4, 4).CrossTileID = 40
	b.add(Vec2{900, 900}, true, false, 4, 4)

	p := NewPlacement(state, WithCollisionIndex(newScriptedIndex(true)))
	p.PlaceLayer(testLayer(state, b.SymbolBucket))

	if got := b.SymbolInstances[1].CrossTileID; got != 41 {
		t.Errorf("new id = %d, want 41", got)
	}
}

func TestNewIDPrecedingPreassignedIDInBucket(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{100, 100}, true, false, 4, 4)
	b.add(Vec2{900, 900}, true, false, 4, 4).CrossTileID = 1

	p := NewPlacement(state, WithCollisionIndex(newScriptedIndex(true)))
	p.PlaceLayer(testLayer(state, b.SymbolBucket))

	fresh, old := b.SymbolInstances[0].CrossTileID, b.SymbolInstances[1].CrossTileID
	if fresh != 2 || old != 1 {
		t.Errorf("ids = %d, %d, want 2, 1", fresh, old)
	}
	if p.MaxCrossTileID() != 2 {
		t.Errorf("MaxCrossTileID = %d, want 2", p.MaxCrossTileID())
	}
}

func TestWithPreviousNumbersAfterFadingLabels(t *testing.T) {
	state := testState()
	first := newTestBucket(SymbolLayout{})
	a := first.add(Vec2{1000, 1000}, true, false, 4, 4)
	p1 := NewPlacement(state)
	p1.PlaceLayer(testLayer(state, first.SymbolBucket))
	p1.Commit(nil, testEpoch)

	second := newTestBucket(SymbolLayout{})
	b := second.add(Vec2{3000, 3000}, true, false, 4, 4)
	p2 := NewPlacement(state, WithPrevious(p1))
	p2.PlaceLayer(testLayer(state, second.SymbolBucket))
	p2.Commit(nil, testEpoch.Add(100*time.Millisecond))

	if b.CrossTileID == a.CrossTileID {
		t.Fatalf("new label reused id %d", a.CrossTileID)
	}
	if got := p2.Opacity(b.CrossTileID); got != NewJointOpacityState(0, 1) {
		t.Errorf("new label state = %+v, want a fresh fade-in", got)
	}
	if got := p2.Opacity(a.CrossTileID).Text; got.Target != 0 {
		t.Errorf("removed label text = %+v, want target 0", got)
	}
}

func TestCommitRejectsOverlappingIDs(t *testing.T) {
	state := testState()
	first := newTestBucket(SymbolLayout{})
	first.add(Vec2{1000, 1000}, true, false, 4, 4)
	p1 := NewPlacement(state)
	p1.PlaceLayer(testLayer(state, first.SymbolBucket))
	p1.Commit(nil, testEpoch)

	second := newTestBucket(SymbolLayout{})
	second.add(Vec2{3000, 3000}, true, false, 4, 4)
	p2 := NewPlacement(state)
	p2.PlaceLayer(testLayer(state, second.SymbolBucket))

	defer func() {
		if recover() == nil {
			t.Error("Commit did not panic on ids overlapping the previous frame")
		}
	}()
	p2.Commit(p1, testEpoch.Add(100*time.Millisecond))
}

func TestCommitRejectsOtherPrevious(t *testing.T) {
	p1 := committedWith(nil, testEpoch)
	other := committedWith(nil, testEpoch)
	p := NewPlacement(testState(), WithPrevious(p1))
	defer func() {
		if recover() == nil {
			t.Error("Commit did not panic on a prev other than WithPrevious")
		}
	}()
	p.Commit(other, testEpoch)
}

func TestCommitCarriesMaxID(t *testing.T) {
	prev := committedWith(map[uint32]JointOpacityState{90: {}}, testEpoch)
	p := NewPlacement(testState())
	p.Commit(prev, testEpoch)
	if p.MaxCrossTileID() != 90 {
		t.Errorf("MaxCrossTileID = %d, want 90", p.MaxCrossTileID())
	}
}

func TestCouplingTable(t *testing.T) {
	tests := []struct {
		name                       string
		textData, iconData         bool
		textOptional, iconOptional bool
		textAns, iconAns           bool
		wantText, wantIcon         bool
	}{
		{"both required, icon blocked", true, true, false, false, true, false, false, false},
		{"both required, text blocked", true, true, false, false, false, true, false, false},
		{"both required, both fit", true, true, false, false, true, true, true, true},
		{"text optional, icon blocked", true, true, true, false, true, false, false, false},
		{"text optional, text blocked", true, true, true, false, false, true, false, true},
		{"icon optional, icon blocked", true, true, false, true, true, false, true, false},
		{"icon optional, text blocked", true, true, false, true, false, true, false, false},
		{"both optional", true, true, true, true, true, false, true, false},
		{"both optional, text blocked", true, true, true, true, false, true, false, true},
		{"text only bucket", true, false, false, false, true, false, true, false},
		{"icon only bucket", false, true, false, false, false, true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := testState()
			b := newTestBucket(SymbolLayout{
				Text: HalfLayout{Optional: tt.textOptional},
				Icon: HalfLayout{Optional: tt.iconOptional},
			})
			si := b.add(Vec2{4096, 4096}, tt.textData, tt.iconData, 10, 10)
			idx := newScriptedIndex(false)
			idx.answers[&si.TextCollisionFeature] = tt.textAns
			idx.answers[&si.IconCollisionFeature] = tt.iconAns

			p := NewPlacement(state, WithCollisionIndex(idx))
			p.PlaceLayer(testLayer(state, b.SymbolBucket))

			if si.PlacedText != tt.wantText || si.PlacedIcon != tt.wantIcon {
				t.Errorf("placed (text, icon) = (%v, %v), want (%v, %v)",
					si.PlacedText, si.PlacedIcon, tt.wantText, tt.wantIcon)
			}
			text, icon, ok := p.Placed(si.CrossTileID)
			if !ok || text != tt.wantText || icon != tt.wantIcon {
				t.Errorf("Placed(%d) = (%v, %v, %v)", si.CrossTileID, text, icon, ok)
			}
			wantInserted := 0
			if tt.wantText {
				wantInserted++
			}
			if tt.wantIcon {
				wantInserted++
			}
			if len(idx.inserted) != wantInserted {
				t.Errorf("inserted %d features, want %d", len(idx.inserted), wantInserted)
			}
		})
	}
}

func TestCouplingLawHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	state := testState()
	b := newTestBucket(SymbolLayout{})
	for i := range 200 {
		b.add(Vec2{float64(i * 40), float64(i * 40)}, true, true, 4, 4)
	}
	idx := newScriptedIndex(false)
	for i := range b.SymbolInstances {
		idx.answers[&b.SymbolInstances[i].TextCollisionFeature] = rng.Intn(2) == 0
		idx.answers[&b.SymbolInstances[i].IconCollisionFeature] = rng.Intn(2) == 0
	}
	p := NewPlacement(state, WithCollisionIndex(idx))
	p.PlaceLayer(testLayer(state, b.SymbolBucket))
	for i, si := range b.SymbolInstances {
		if si.PlacedText != si.PlacedIcon {
			t.Fatalf("instance %d: text %v icon %v", i, si.PlacedText, si.PlacedIcon)
		}
	}
}

func TestIgnorePlacementDoesNotBlock(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{Text: HalfLayout{IgnorePlacement: true}})
	b.add(Vec2{4096, 4096}, true, false, 10, 10)
	idx := newScriptedIndex(true)
	p := NewPlacement(state, WithCollisionIndex(idx))
	p.PlaceLayer(testLayer(state, b.SymbolBucket))
	if len(idx.ignored) != 1 || len(idx.inserted) != 0 {
		t.Errorf("ignored %d inserted %d, want 1 and 0", len(idx.ignored), len(idx.inserted))
	}
}

func TestPlaceQueryParameters(t *testing.T) {
	state := testState()
	state.Zoom = 1
	b := newTestBucket(SymbolLayout{
		Text: HalfLayout{PitchAlignment: AlignmentMap, AllowOverlap: true},
	})
	b.TextSize = ConstantSize(24)
	b.add(Vec2{4096, 4096}, true, true, 10, 10)
	idx := newScriptedIndex(true)

	p := NewPlacement(state, WithCollisionIndex(idx), WithShowCollisionBoxes(true))
	p.PlaceLayer(testLayer(state, b.SymbolBucket))

	if len(idx.queries) != 2 {
		t.Fatalf("got %d queries, want 2", len(idx.queries))
	}
	text, icon := idx.queries[0], idx.queries[1]
	if text.FontSize != 24 || !text.AllowOverlap || !text.PitchWithMap || !text.ShowCollisionBoxes {
		t.Errorf("text query = %+v", text)
	}
	if icon.FontSize != 1 || icon.AllowOverlap || icon.PitchWithMap {
		t.Errorf("icon query = %+v", icon)
	}
	if text.PixelRatio != 16 || !approxEqual(text.Scale, 2, epsilon) {
		t.Errorf("PixelRatio %v Scale %v, want 16 and 2", text.PixelRatio, text.Scale)
	}
	if text.Symbol != &b.Text.PlacedSymbols[0] {
		t.Error("text query does not reference the bucket's placed symbol")
	}
}

func TestDuplicatesAndEmptyInstancesAreSkipped(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{100, 100}, true, false, 4, 4).IsDuplicate = true
	b.SymbolInstances = append(b.SymbolInstances, SymbolInstance{Anchor: Vec2{200, 200}})
	b.add(Vec2{300, 300}, true, false, 4, 4)

	idx := newScriptedIndex(true)
	p := NewPlacement(state, WithCollisionIndex(idx))
	p.PlaceLayer(testLayer(state, b.SymbolBucket))

	if b.SymbolInstances[0].CrossTileID != 0 || b.SymbolInstances[1].CrossTileID != 0 {
		t.Errorf("skipped instances got ids %d, %d",
			b.SymbolInstances[0].CrossTileID, b.SymbolInstances[1].CrossTileID)
	}
	if b.SymbolInstances[2].CrossTileID != 1 {
		t.Errorf("placed instance id = %d, want 1", b.SymbolInstances[2].CrossTileID)
	}
	if len(idx.queries) != 1 {
		t.Errorf("collision index queried %d times, want 1", len(idx.queries))
	}
	if got := p.Stats().Candidates; got != 1 {
		t.Errorf("Candidates = %d, want 1", got)
	}
}

func TestFirstRecordWinsForSharedID(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{100, 100}, true, false, 4, 4).CrossTileID = 5
	b.add(Vec2{900, 900}, true, false, 4, 4).CrossTileID = 5
	idx := newScriptedIndex(true)
	idx.answers[&b.SymbolInstances[1].TextCollisionFeature] = false

	p := NewPlacement(state, WithCollisionIndex(idx))
	p.PlaceLayer(testLayer(state, b.SymbolBucket))
	if text, _, _ := p.Placed(5); !text {
		t.Error("second instance overwrote the first decision")
	}
}

func TestPlacedSymbolIndexOutOfRangePanics(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{100, 100}, true, false, 4, 4).PlacedTextIndices = []int{3}

	defer func() {
		r := recover()
		msg, ok := r.(string)
		if !ok || !strings.HasPrefix(msg, "placement:") {
			t.Errorf("recover() = %v, want placement: panic", r)
		}
	}()
	p := NewPlacement(state, WithCollisionIndex(newScriptedIndex(true)))
	p.PlaceLayer(testLayer(state, b.SymbolBucket))
}

func TestUnrenderableTilesAreSkipped(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{100, 100}, true, false, 4, 4)
	layer := testLayer(state, b.SymbolBucket)
	layer.RenderTiles[0].Tile.(*GeometryTile).SetRenderable(false)

	idx := newScriptedIndex(true)
	p := NewPlacement(state, WithCollisionIndex(idx))
	p.PlaceLayer(layer)
	p.Commit(nil, testEpoch)
	p.UpdateLayerOpacities(layer)
	if len(idx.queries) != 0 || b.SymbolInstances[0].CrossTileID != 0 {
		t.Error("unrenderable tile was placed")
	}
	if len(b.Text.OpacityVertices) != 0 {
		t.Error("unrenderable tile got opacity vertices")
	}
}

func TestCommitTwicePanics(t *testing.T) {
	p := NewPlacement(testState())
	p.Commit(nil, testEpoch)
	defer func() {
		if recover() == nil {
			t.Error("second Commit did not panic")
		}
	}()
	p.Commit(nil, testEpoch)
}

func TestFadeContinuityAfterLabelLeaves(t *testing.T) {
	start := map[uint32]JointOpacityState{
		7: {Icon: OpacityState{0.4, 1}, Text: OpacityState{0.2, 1}},
	}

	t.Run("one commit", func(t *testing.T) {
		next := NextJointOpacityState(start[7], 0.5, 0, 0)
		if next.Icon.Target != 0 || next.Text.Target != 0 {
			t.Errorf("targets = %v, %v, want 0", next.Icon.Target, next.Text.Target)
		}
		if next.Icon.Current > 0.4 || next.Text.Current > 0.2 || next.Icon.Current < 0 || next.Text.Current < 0 {
			t.Errorf("currents = %v, %v", next.Icon.Current, next.Text.Current)
		}

		prev := committedWith(start, testEpoch)
		p := NewPlacement(testState())
		p.Commit(prev, testEpoch.Add(150*time.Millisecond))
		if _, ok := p.opacities[7]; ok {
			t.Error("fully faded label kept in committed map")
		}
		if p.Stats().Dropped != 1 {
			t.Errorf("Dropped = %d, want 1", p.Stats().Dropped)
		}
	})

	t.Run("small steps", func(t *testing.T) {
		rec := &eventRecorder{}
		prev := committedWith(start, testEpoch)
		last := start[7]
		now := testEpoch
		dropped := -1
		for i := range 10 {
			now = now.Add(30 * time.Millisecond) // increment 0.1
			p := NewPlacement(testState(), WithEventSink(rec))
			p.Commit(prev, now)
			s, ok := p.opacities[7]
			if !ok {
				dropped = i
				break
			}
			if s.Icon.Target != 0 || s.Text.Target != 0 {
				t.Fatalf("commit %d: targets %v %v", i, s.Icon.Target, s.Text.Target)
			}
			if s.Icon.Current > last.Icon.Current || s.Text.Current > last.Text.Current {
				t.Fatalf("commit %d: currents rose from %+v to %+v", i, last, s)
			}
			if s.Icon.Current < 0 || s.Text.Current < 0 {
				t.Fatalf("commit %d: negative current %+v", i, s)
			}
			last = s
			prev = p
		}
		if dropped < 3 || dropped > 5 {
			t.Errorf("dropped after commit %d, want between 3 and 5", dropped)
		}
		if rec.count(FadeOutStarted) != 1 || rec.count(FadeDropped) != 1 {
			t.Errorf("events: %d fade-out, %d dropped, want 1 each",
				rec.count(FadeOutStarted), rec.count(FadeDropped))
		}
	})
}

func TestZeroIncrementRoundTrip(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{100, 100}, true, true, 4, 4).CrossTileID = 1
	b.add(Vec2{900, 900}, true, true, 4, 4).CrossTileID = 2
	b.add(Vec2{1900, 1900}, true, true, 4, 4).CrossTileID = 3
	states := map[uint32]JointOpacityState{
		1: {Icon: OpacityState{0.5, 1}, Text: OpacityState{0.25, 1}},
		2: {Icon: OpacityState{1, 1}, Text: OpacityState{1, 1}},
		3: {Icon: OpacityState{0.75, 0}, Text: OpacityState{0, 0}},
	}
	idx := newScriptedIndex(true)
	idx.answers[&b.SymbolInstances[2].TextCollisionFeature] = false
	idx.answers[&b.SymbolInstances[2].IconCollisionFeature] = false

	for _, rule := range []FadeRule{FadeLiteral, FadeTowardTarget} {
		prev := committedWith(states, testEpoch)
		p := NewPlacement(state, WithCollisionIndex(idx), WithFadeRule(rule))
		p.PlaceLayer(testLayer(state, b.SymbolBucket))
		p.Commit(prev, testEpoch)
		for id, want := range states {
			got := p.Opacity(id)
			if got.Icon.Current != want.Icon.Current || got.Text.Current != want.Text.Current {
				t.Errorf("%v: id %d currents = %+v, want %+v", rule, id, got, want)
			}
		}
	}
}

func TestEndToEndScenario(t *testing.T) {
	tests := []struct {
		rule       FadeRule
		wantFrame2 OpacityState
		// dropped reports whether the label's state is gone after a third
		// commit without it.
		dropped bool
	}{
		{FadeLiteral, OpacityState{1, 0}, false},
		{FadeTowardTarget, OpacityState{0, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.rule.String(), func(t *testing.T) {
			state := testState()
			b := newTestBucket(SymbolLayout{})
			label := b.add(Vec2{4096, 4096}, true, false, 20, 8)
			layer := testLayer(state, b.SymbolBucket)

			p1 := NewPlacement(state, WithFadeRule(tt.rule))
			p1.PlaceLayer(layer)
			if !label.PlacedText {
				t.Fatal("frame 1: label not placed in an empty index")
			}
			p1.Commit(nil, testEpoch)
			id := label.CrossTileID
			if got := p1.Opacity(id).Text; got != (OpacityState{0, 1}) {
				t.Fatalf("frame 1 text = %+v, want {0 1}", got)
			}

			grid := NewGridIndex(state)
			blocker := CollisionFeature{Boxes: []CollisionBox{{Anchor: Vec2{4096, 4096}, X1: -5, Y1: -5, X2: 5, Y2: 5}}}
			if !grid.PlaceFeature(&blocker, PlaceQuery{
				PosMatrix:        layer.RenderTiles[0].Matrix,
				LabelPlaneMatrix: LabelPlaneMatrix(layer.RenderTiles[0].Matrix, false, false, state, 16),
				FontSize:         1,
			}) {
				t.Fatal("blocker not placed")
			}
			grid.InsertFeature(&blocker, false)

			p2 := NewPlacement(state, WithFadeRule(tt.rule), WithCollisionIndex(grid), WithStartID(p1.MaxCrossTileID()))
			p2.PlaceLayer(layer)
			if label.PlacedText {
				t.Fatal("frame 2: overlapping label placed")
			}
			p2.Commit(p1, testEpoch.Add(DefaultFadeDuration))
			if got := p2.Opacity(id).Text; got != tt.wantFrame2 {
				t.Fatalf("frame 2 text = %+v, want %+v", got, tt.wantFrame2)
			}

			p3 := NewPlacement(state, WithFadeRule(tt.rule), WithStartID(p2.MaxCrossTileID()))
			p3.Commit(p2, testEpoch.Add(2*DefaultFadeDuration))
			_, kept := p3.opacities[id]
			if kept == tt.dropped {
				t.Errorf("frame 3 kept = %v, want %v", kept, !tt.dropped)
			}
		})
	}
}

func TestCommitEmitsFadeEvents(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{100, 100}, true, false, 4, 4)
	b.add(Vec2{2000, 2000}, true, false, 4, 4)
	rec := &eventRecorder{}
	idx := newScriptedIndex(true)
	idx.answers[&b.SymbolInstances[1].TextCollisionFeature] = false

	p := NewPlacement(state, WithCollisionIndex(idx), WithEventSink(rec))
	p.PlaceLayer(testLayer(state, b.SymbolBucket))
	p.Commit(nil, testEpoch)

	if len(rec.events) != 1 {
		t.Fatalf("got %d events, want 1", len(rec.events))
	}
	e := rec.events[0]
	if e.Kind != FadeInStarted || e.Channel != ChannelText || e.CrossTileID != b.SymbolInstances[0].CrossTileID {
		t.Errorf("event = %+v", e)
	}
	if !e.Time.Equal(testEpoch) {
		t.Errorf("event time = %v", e.Time)
	}
}

func TestCommitTimeGoingBackwardsIsClamped(t *testing.T) {
	prev := committedWith(map[uint32]JointOpacityState{
		3: {Text: OpacityState{0.5, 0}},
	}, testEpoch)
	p := NewPlacement(testState())
	p.Commit(prev, testEpoch.Add(-time.Second))
	if got := p.Opacity(3).Text.Current; got != 0.5 {
		t.Errorf("current = %v, want unchanged 0.5", got)
	}
}

func TestWithFadeDuration(t *testing.T) {
	prev := committedWith(map[uint32]JointOpacityState{
		3: {Text: OpacityState{1, 1}},
	}, testEpoch)
	p := NewPlacement(testState(), WithFadeDuration(time.Second), WithFadeRule(FadeTowardTarget))
	p.Commit(prev, testEpoch.Add(250*time.Millisecond))
	if got := p.Opacity(3).Text.Current; !approxEqual(got, 0.75, epsilon) {
		t.Errorf("current = %v, want 0.75", got)
	}
}

func TestUpdateLayerOpacities(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{1000, 1000}, true, true, 4, 4)
	blocked := b.add(Vec2{3000, 3000}, true, true, 4, 4)
	blocked.TextCollisionFeature = CollisionFeature{
		AlongLine: true,
		Boxes: []CollisionBox{
			{Anchor: Vec2{3000, 3000}, Radius: 3},
			{Anchor: Vec2{3100, 3000}, Radius: 3},
		},
	}
	idx := newScriptedIndex(true)
	idx.answers[&b.SymbolInstances[1].IconCollisionFeature] = false
	layer := testLayer(state, b.SymbolBucket)

	p := NewPlacement(state, WithCollisionIndex(idx))
	p.PlaceLayer(layer)
	b.SymbolInstances[1].TextCollisionFeature.Boxes[0].Used = true
	p.Commit(nil, testEpoch)
	p.UpdateLayerOpacities(layer)

	if got, want := len(b.Text.OpacityVertices), 2*3*4; got != want {
		t.Fatalf("text vertices = %d, want %d", got, want)
	}
	if got, want := len(b.Icon.OpacityVertices), 2*4; got != want {
		t.Fatalf("icon vertices = %d, want %d", got, want)
	}
	if v := b.Text.OpacityVertices[0]; v != (OpacityVertex{Current: 0, Target: 1}) {
		t.Errorf("placed text vertex = %+v", v)
	}
	if v := b.Text.OpacityVertices[12]; v != (OpacityVertex{}) {
		t.Errorf("blocked text vertex = %+v", v)
	}

	// Boxes: placed text + placed icon + blocked icon.
	if got := len(b.CollisionBox.OpacityVertices); got != 3*4 {
		t.Fatalf("collision box vertices = %d, want 12", got)
	}
	if !b.CollisionBox.OpacityVertices[0].Placed || b.CollisionBox.OpacityVertices[8].Placed {
		t.Error("collision box placed flags wrong")
	}
	circles := b.CollisionCircle.OpacityVertices
	if len(circles) != 2*4 {
		t.Fatalf("collision circle vertices = %d, want 8", len(circles))
	}
	if circles[0].NotUsed || !circles[4].NotUsed || circles[0].Placed {
		t.Errorf("circle vertices = %+v, %+v", circles[0], circles[4])
	}
}

func TestUpdateLayerOpacitiesUploads(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{1000, 1000}, true, true, 4, 4)
	layer := testLayer(state, b.SymbolBucket)
	up := NewMemoryUploader()

	p := NewPlacement(state, WithCollisionIndex(newScriptedIndex(true)), WithUploader(up))
	p.PlaceLayer(layer)
	p.Commit(nil, testEpoch)
	p.UpdateLayerOpacities(layer)

	if b.Text.OpacityVertices != nil || b.Icon.OpacityVertices != nil || b.CollisionBox.OpacityVertices != nil {
		t.Error("bucket kept buffers after upload")
	}
	if got := len(up.Symbol(b.SymbolBucket, BufferText)); got != 12 {
		t.Errorf("uploaded text vertices = %d, want 12", got)
	}
	if got := len(up.Symbol(b.SymbolBucket, BufferIcon)); got != 4 {
		t.Errorf("uploaded icon vertices = %d, want 4", got)
	}
	if got := len(up.Collision(b.SymbolBucket, BufferCollisionBox)); got != 8 {
		t.Errorf("uploaded box vertices = %d, want 8", got)
	}
	if up.Uploads() != 3 {
		t.Errorf("Uploads = %d, want 3 (no circle data)", up.Uploads())
	}

	up.Forget(b.SymbolBucket)
	if up.Symbol(b.SymbolBucket, BufferText) != nil {
		t.Error("Forget kept text buffer")
	}
}

func TestUpdateBeforeCommitPanics(t *testing.T) {
	p := NewPlacement(testState())
	defer func() {
		if recover() == nil {
			t.Error("UpdateLayerOpacities before Commit did not panic")
		}
	}()
	p.UpdateLayerOpacities(&SymbolLayer{ID: "x"})
}

func TestDebugStatsTimings(t *testing.T) {
	state := testState()
	b := newTestBucket(SymbolLayout{})
	b.add(Vec2{1000, 1000}, true, false, 4, 4)
	layer := testLayer(state, b.SymbolBucket)

	p := NewPlacement(state, WithDebug(true))
	p.PlaceLayer(layer)
	p.Commit(nil, testEpoch)
	p.UpdateLayerOpacities(layer)
	s := p.Stats()
	if s.Candidates != 1 || s.PlacedText != 1 || s.PlacedIcon != 0 {
		t.Errorf("stats = %+v", s)
	}
	if s.Total() < 0 {
		t.Errorf("Total = %v", s.Total())
	}
}
