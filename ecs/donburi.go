package ecs

import (
	"time"

	"github.com/phanxgames/placement"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// FadeEventType is the Donburi event type for placement fade events.
// Subscribe to this in your ECS systems to react to labels appearing and
// disappearing.
var FadeEventType = events.NewEventType[placement.FadeEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Fade events
// are published to FadeEventType and can be consumed with events.Subscribe
// and ProcessEvents.
func NewDonburiSink(world donburi.World) placement.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitFade(e placement.FadeEvent) {
	FadeEventType.Publish(s.world, e)
}

// Label mirrors one label with committed fade state.
type Label struct {
	CrossTileID uint32
	State       placement.JointOpacityState
	// Since is the commit time of the last transition.
	Since time.Time
}

// LabelComponent is attached to every entity created by a LabelTracker.
var LabelComponent = donburi.NewComponentType[Label]()

var labelQuery = donburi.NewQuery(filter.Contains(LabelComponent))

// CountLabels returns the number of label entities in world.
func CountLabels(world donburi.World) int {
	return labelQuery.Count(world)
}

// LabelTracker keeps one entity per label between its first fade-in and
// the commit that drops it.
type LabelTracker struct {
	entities map[uint32]donburi.Entity
}

// NewLabelTracker subscribes a tracker to FadeEventType on world.
func NewLabelTracker(world donburi.World) *LabelTracker {
	t := &LabelTracker{entities: make(map[uint32]donburi.Entity)}
	FadeEventType.Subscribe(world, t.handle)
	return t
}

func (t *LabelTracker) handle(w donburi.World, e placement.FadeEvent) {
	ent, ok := t.entities[e.CrossTileID]
	if ok && !w.Valid(ent) {
		delete(t.entities, e.CrossTileID)
		ok = false
	}

	switch e.Kind {
	case placement.FadeDropped:
		if ok {
			w.Remove(ent)
			delete(t.entities, e.CrossTileID)
		}
		return
	case placement.FadeOutStarted:
		if !ok {
			return
		}
	case placement.FadeInStarted:
		if !ok {
			ent = w.Create(LabelComponent)
			t.entities[e.CrossTileID] = ent
		}
	}
	LabelComponent.SetValue(w.Entry(ent), Label{
		CrossTileID: e.CrossTileID,
		State:       e.State,
		Since:       e.Time,
	})
}

// Entity returns the entity mirroring the label with id.
func (t *LabelTracker) Entity(id uint32) (donburi.Entity, bool) {
	ent, ok := t.entities[id]
	return ent, ok
}

// Len returns the number of tracked labels.
func (t *LabelTracker) Len() int {
	return len(t.entities)
}
