package placement

import "time"

// FadeEventKind identifies what a FadeEvent reports.
type FadeEventKind uint8

const (
	// FadeInStarted reports a channel whose target became 1.
	FadeInStarted FadeEventKind = iota
	// FadeOutStarted reports a channel whose target became 0.
	FadeOutStarted
	// FadeDropped reports a symbol whose fade resolved while it was absent
	// from placement. Its state is gone from the committed map.
	FadeDropped
)

func (k FadeEventKind) String() string {
	switch k {
	case FadeInStarted:
		return "fade-in"
	case FadeOutStarted:
		return "fade-out"
	case FadeDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// FadeChannel is a bit set of the symbol halves an event refers to.
type FadeChannel uint8

const (
	ChannelIcon FadeChannel = 1 << iota
	ChannelText

	ChannelBoth = ChannelIcon | ChannelText
)

// FadeEvent describes a fade transition decided at commit.
type FadeEvent struct {
	Kind        FadeEventKind
	Channel     FadeChannel
	CrossTileID uint32
	// State is the committed state. It is the last known state for
	// FadeDropped.
	State JointOpacityState
	Time  time.Time
}

// EventSink receives fade events emitted by Placement.Commit. Emit is
// called synchronously, in no particular id order.
type EventSink interface {
	EmitFade(FadeEvent)
}

// EventSinkFunc adapts a function to an EventSink.
type EventSinkFunc func(FadeEvent)

// EmitFade implements EventSink.
func (f EventSinkFunc) EmitFade(e FadeEvent) { f(e) }

// transitionChannels returns the channels whose target moved from 0 to 1
// (in) and from 1 to 0 (out).
func transitionChannels(prev, next JointOpacityState) (in, out FadeChannel) {
	classify := func(p, n OpacityState, ch FadeChannel) {
		switch {
		case p.Target == 0 && n.Target == 1:
			in |= ch
		case p.Target == 1 && n.Target == 0:
			out |= ch
		}
	}
	classify(prev.Icon, next.Icon, ChannelIcon)
	classify(prev.Text, next.Text, ChannelText)
	return in, out
}
