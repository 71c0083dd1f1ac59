package placement

import (
	"log/slog"
	"time"
)

// FrameStats holds per-frame placement counters. Durations are only
// populated in debug mode.
type FrameStats struct {
	PlaceTime  time.Duration
	CommitTime time.Duration
	UpdateTime time.Duration

	// Candidates counts symbols tested for placement.
	Candidates int
	PlacedText int
	PlacedIcon int
	// Carried counts symbols kept fading out after leaving placement.
	Carried int
	// Dropped counts symbols whose state was discarded at commit.
	Dropped int
}

// Total returns the time spent in placement, commit and projection.
func (s FrameStats) Total() time.Duration {
	return s.PlaceTime + s.CommitTime + s.UpdateTime
}

// LogValue implements slog.LogValuer.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("place", s.PlaceTime),
		slog.Duration("commit", s.CommitTime),
		slog.Duration("update", s.UpdateTime),
		slog.Duration("total", s.Total()),
		slog.Int("candidates", s.Candidates),
		slog.Int("placed_text", s.PlacedText),
		slog.Int("placed_icon", s.PlacedIcon),
		slog.Int("carried", s.Carried),
		slog.Int("dropped", s.Dropped),
	)
}

// debugLog logs frame statistics at debug level.
func debugLog(p *Placement) {
	Logger().Debug("placement frame",
		"stats", p.stats,
		"symbols", len(p.opacities),
		"max_id", p.maxCrossTileID)
}

// debugMaxOpacityStates is the committed state count above which debug mode
// warns that fades are not being dropped.
const debugMaxOpacityStates = 100_000

func debugCheckOpacityStates(p *Placement) {
	if n := len(p.opacities); n > debugMaxOpacityStates {
		Logger().Warn("placement: committed opacity states exceed threshold",
			"states", n, "threshold", debugMaxOpacityStates)
	}
}
