package placement

import (
	"time"

	"github.com/tanema/gween/ease"
)

// DefaultFadeDuration is the time a full opacity transition takes.
const DefaultFadeDuration = 300 * time.Millisecond

// FadeAlpha evaluates a fade attribute some time after the commit that
// produced it, the way a symbol shader does: Current moves toward Target by
// elapsed/duration and is clamped to [0, 1].
func FadeAlpha(v OpacityVertex, elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return float64(v.Target)
	}
	change := float64(elapsed) / float64(duration)
	if v.Target != 1 {
		change = -change
	}
	return clamp01(float64(v.Current) + change)
}

// FadeCurve reshapes linear fade progress for display.
type FadeCurve struct {
	// Ease maps linear progress in [0, 1]; nil leaves it linear.
	Ease ease.TweenFunc
}

// Apply maps a linear alpha through the curve.
func (c FadeCurve) Apply(alpha float64) float64 {
	if c.Ease == nil {
		return clamp01(alpha)
	}
	return clamp01(float64(c.Ease(float32(clamp01(alpha)), 0, 1, 1)))
}
