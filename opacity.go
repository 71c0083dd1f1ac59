package placement

import "fmt"

// OpacityState is one fading channel of a symbol: the opacity it currently
// shows and the opacity it is animating toward. Current is always in [0, 1];
// Target is 0 or 1.
type OpacityState struct {
	Current float64
	Target  float64
}

// NewOpacityState returns a state at rest at zero opacity heading toward
// target. Symbols without history start fully transparent.
func NewOpacityState(target float64) OpacityState {
	return OpacityState{Current: 0, Target: target}
}

// NextOpacityState derives the next frame's state from prev using the
// literal fade rule:
//
//	Current = clamp01(prev.Current ± increment)
//
// where the step is positive only when prev.Current+prev.Target == 1. The sum
// is compared, not the target alone, so a fractional Current on a target of 1
// steps downward. See FadeTowardTarget for the alternative rule.
func NextOpacityState(prev OpacityState, increment, target float64) OpacityState {
	return FadeLiteral.Next(prev, increment, target)
}

// IsHidden reports whether the channel is fully transparent and staying so.
func (s OpacityState) IsHidden() bool {
	return s.Current == 0 && s.Target == 0
}

// Resolved reports whether the channel has finished fading.
func (s OpacityState) Resolved() bool {
	return s.Current == s.Target
}

// FadeRule selects how Current moves between frames.
type FadeRule uint8

const (
	// FadeLiteral steps up only when prev.Current+prev.Target equals 1.
	// Otherwise it steps down. A fully visible label that loses its spot
	// sits at {1 0}, which steps up and stays there, so it never resolves
	// and is never dropped from the committed states. Long sessions with
	// churning labels should use FadeTowardTarget.
	FadeLiteral FadeRule = iota
	// FadeTowardTarget steps toward the new target.
	FadeTowardTarget
)

func (r FadeRule) String() string {
	switch r {
	case FadeLiteral:
		return "literal"
	case FadeTowardTarget:
		return "toward-target"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r FadeRule) MarshalText() ([]byte, error) {
	if r > FadeTowardTarget {
		return nil, fmt.Errorf("placement: invalid fade rule %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the names
// returned by String.
func (r *FadeRule) UnmarshalText(text []byte) error {
	switch string(text) {
	case "literal":
		*r = FadeLiteral
	case "toward-target":
		*r = FadeTowardTarget
	default:
		return fmt.Errorf("placement: unknown fade rule %q", text)
	}
	return nil
}

// Next applies the rule to one channel.
func (r FadeRule) Next(prev OpacityState, increment, target float64) OpacityState {
	var up bool
	switch r {
	case FadeTowardTarget:
		up = target == 1
	default:
		up = prev.Current+prev.Target == 1.0
	}
	step := -increment
	if up {
		step = increment
	}
	return OpacityState{
		Current: clamp01(prev.Current + step),
		Target:  target,
	}
}

// JointOpacityState pairs the icon and text channels of one symbol. It is the
// only per-symbol state carried between frames.
type JointOpacityState struct {
	Icon OpacityState
	Text OpacityState
}

// NewJointOpacityState seeds both channels at zero opacity.
func NewJointOpacityState(iconTarget, textTarget float64) JointOpacityState {
	return JointOpacityState{
		Icon: NewOpacityState(iconTarget),
		Text: NewOpacityState(textTarget),
	}
}

// NextJointOpacityState advances both channels with the literal rule.
func NextJointOpacityState(prev JointOpacityState, increment, iconTarget, textTarget float64) JointOpacityState {
	return FadeLiteral.NextJoint(prev, increment, iconTarget, textTarget)
}

// NextJoint advances both channels with r.
func (r FadeRule) NextJoint(prev JointOpacityState, increment, iconTarget, textTarget float64) JointOpacityState {
	return JointOpacityState{
		Icon: r.Next(prev.Icon, increment, iconTarget),
		Text: r.Next(prev.Text, increment, textTarget),
	}
}

// IsHidden reports whether both channels are hidden.
func (j JointOpacityState) IsHidden() bool {
	return j.Icon.IsHidden() && j.Text.IsHidden()
}

// Resolved reports whether both channels have finished fading.
func (j JointOpacityState) Resolved() bool {
	return j.Icon.Resolved() && j.Text.Resolved()
}

// targetOf converts a placement decision to an opacity target.
func targetOf(placed bool) float64 {
	if placed {
		return 1
	}
	return 0
}
