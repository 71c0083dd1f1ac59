// Package labelsim runs a headless placement simulation over a synthetic
// map with a touring camera.
package labelsim

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/placement"
	"github.com/phanxgames/placement/internal/synth"
)

const layerID = "poi"

// Config holds labelsim command configuration.
type Config struct {
	Frames        int                `env:"LABELSIM_FRAMES"          envDefault:"600"`
	Seed          uint64             `env:"LABELSIM_SEED"            envDefault:"1"`
	LabelsPerTile int                `env:"LABELSIM_LABELS_PER_TILE" envDefault:"40"`
	FrameInterval time.Duration      `env:"LABELSIM_FRAME_INTERVAL"  envDefault:"16ms"`
	RebuildEvery  int                `env:"LABELSIM_REBUILD_EVERY"   envDefault:"45"`
	FadeRule      placement.FadeRule `env:"LABELSIM_FADE_RULE"       envDefault:"toward-target"`
	FadeDuration  time.Duration      `env:"LABELSIM_FADE_DURATION"   envDefault:"300ms"`
	Verbose       bool               `env:"LABELSIM_VERBOSE"`
}

// ParseConfig loads defaults from the environment and then parses flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.IntVar(&cfg.Frames, "frames", cfg.Frames, "number of frames to simulate")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "map and camera tour seed")
	fs.IntVar(&cfg.LabelsPerTile, "labels-per-tile", cfg.LabelsPerTile, "average labels per zoom-2 tile")
	fs.DurationVar(&cfg.FrameInterval, "frame-interval", cfg.FrameInterval, "simulated time between frames")
	fs.IntVar(&cfg.RebuildEvery, "rebuild-every", cfg.RebuildEvery, "reload a random tile every N frames (0 disables)")
	fs.TextVar(&cfg.FadeRule, "fade-rule", cfg.FadeRule, "opacity step rule: literal or toward-target")
	fs.DurationVar(&cfg.FadeDuration, "fade-duration", cfg.FadeDuration, "time of a full fade")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log per-frame placement statistics")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.Frames <= 0:
		return errors.New("frames must be positive")
	case c.LabelsPerTile < 0:
		return errors.New("labels per tile must not be negative")
	case c.FrameInterval <= 0:
		return errors.New("frame interval must be positive")
	case c.RebuildEvery < 0:
		return errors.New("rebuild interval must not be negative")
	}
	return nil
}

// simEpoch is the simulated clock origin.
var simEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Run executes the simulation, printing one line per simulated second and
// a summary to out. Logs go to errOut.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	placement.SetLogger(slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level})))
	defer placement.SetLogger(nil)

	world := synth.NewWorld(cfg.Seed, cfg.LabelsPerTile*16)
	tiles := synth.NewTiles(world, layerID)
	uploader := placement.NewMemoryUploader()
	tiles.OnEvict = uploader.Forget

	var fades fadeCounts
	pipe := placement.NewPipeline(
		placement.WithFadeRule(cfg.FadeRule),
		placement.WithFadeDuration(cfg.FadeDuration),
		placement.WithUploader(uploader),
	)
	pipe.SetCrossTileIndex(placement.NewCrossTileIndex())
	pipe.SetEventSink(placement.EventSinkFunc(fades.record))
	pipe.SetDebugMode(cfg.Verbose)

	cam := placement.NewCamera(800, 600, world.Center(), 1)
	cam.MaxZoom = float64(world.MaxZoom) + 1
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))

	perSecond := max(1, int(time.Second/cfg.FrameInterval))
	now := simEpoch
	var win window
	var last *placement.Placement

	for frame := 1; frame <= cfg.Frames; frame++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		if !cam.Animating() && len(world.POIs) > 0 {
			poi := world.POIs[r.IntN(len(world.POIs))]
			cam.FlyTo(poi.World, 1+r.Float64()*float64(world.MaxZoom), 2, ease.InOutQuad)
		}
		cam.Update(float32(cfg.FrameInterval.Seconds()))
		if cfg.RebuildEvery > 0 && frame%cfg.RebuildEvery == 0 {
			tiles.RebuildRandom(r)
		}

		state := cam.State()
		layer := tiles.Layer(state)
		now = now.Add(cfg.FrameInterval)
		last = pipe.Frame(state, []*placement.SymbolLayer{layer}, now)
		win.add(last.Stats())

		if frame%perSecond == 0 {
			fmt.Fprintf(out, "t=%s zoom=%.2f tiles=%d symbols=%d %s\n",
				now.Sub(simEpoch), state.Zoom, len(layer.RenderTiles), last.Len(), &win)
			win = window{}
		}
	}

	fmt.Fprintf(out, "summary frames=%d tiles_built=%d max_id=%d fade_in=%d fade_out=%d dropped=%d\n",
		pipe.Frames(), tiles.Builds(), last.MaxCrossTileID(), fades.in, fades.out, fades.dropped)
	return nil
}

// fadeCounts tallies fade events.
type fadeCounts struct {
	in, out, dropped int
}

func (c *fadeCounts) record(e placement.FadeEvent) {
	switch e.Kind {
	case placement.FadeInStarted:
		c.in++
	case placement.FadeOutStarted:
		c.out++
	case placement.FadeDropped:
		c.dropped++
	}
}

// window averages frame statistics over one reporting period.
type window struct {
	frames                 int
	candidates, placedText int
	carried, dropped       int
}

func (w *window) add(s placement.FrameStats) {
	w.frames++
	w.candidates += s.Candidates
	w.placedText += s.PlacedText
	w.carried += s.Carried
	w.dropped += s.Dropped
}

func (w *window) String() string {
	if w.frames == 0 {
		return "frames=0"
	}
	n := float64(w.frames)
	return fmt.Sprintf("candidates=%.1f placed_text=%.1f carried=%.1f dropped=%d",
		float64(w.candidates)/n, float64(w.placedText)/n, float64(w.carried)/n, w.dropped)
}
