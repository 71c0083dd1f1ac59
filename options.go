package placement

import "time"

// Option configures a Placement.
type Option func(*options)

type options struct {
	index              CollisionIndex
	fadeRule           FadeRule
	fadeDuration       time.Duration
	showCollisionBoxes bool
	sink               EventSink
	uploader           VertexUploader
	debug              bool
	startID            uint32
	prev               *Placement
}

func defaultOptions() options {
	return options{
		fadeRule:     FadeLiteral,
		fadeDuration: DefaultFadeDuration,
	}
}

// WithCollisionIndex replaces the default GridIndex. The index must not be
// shared with another Placement.
func WithCollisionIndex(idx CollisionIndex) Option {
	return func(o *options) {
		o.index = idx
	}
}

// WithFadeRule selects how opacity moves between commits.
func WithFadeRule(r FadeRule) Option {
	return func(o *options) {
		o.fadeRule = r
	}
}

// WithFadeDuration sets the time a full fade takes. Non-positive durations
// are ignored.
func WithFadeDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.fadeDuration = d
		}
	}
}

// WithShowCollisionBoxes captures collision debug geometry during placement.
func WithShowCollisionBoxes(show bool) Option {
	return func(o *options) {
		o.showCollisionBoxes = show
	}
}

// WithEventSink receives fade events at commit.
func WithEventSink(s EventSink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithUploader hands opacity buffers to u. Without an uploader the buffers
// stay on the bucket.
func WithUploader(u VertexUploader) Option {
	return func(o *options) {
		o.uploader = u
	}
}

// WithDebug collects per-frame statistics and logs them at debug level.
func WithDebug(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
	}
}

// WithPrevious names the committed Placement of the previous frame. New
// cross-tile ids continue after its MaxCrossTileID, and Commit reconciles
// against it when called with a nil prev.
func WithPrevious(prev *Placement) Option {
	return func(o *options) {
		o.prev = prev
	}
}

// WithStartID continues cross-tile id assignment after id. WithPrevious
// covers the usual case.
func WithStartID(id uint32) Option {
	return func(o *options) {
		o.startID = id
	}
}
