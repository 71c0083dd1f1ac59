package placement

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerSilentByDefault(t *testing.T) {
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("default logger is enabled")
	}
}

func TestDebugModeLogsFrameStats(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	state := testState()
	a := newTestBucket(SymbolLayout{})
	a.add(Vec2{1000, 1000}, true, false, 4, 4)
	pipe := NewPipeline()
	pipe.SetDebugMode(true)
	pipe.Frame(state, []*SymbolLayer{testLayer(state, a.SymbolBucket)}, testEpoch)

	out := buf.String()
	for _, want := range []string{"placement frame", "stats.candidates=1", "stats.placed_text=1", "first frame committed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestDebugModeOffLogsNothingPerFrame(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	pipe := NewPipeline()
	pipe.Frame(testState(), nil, testEpoch)
	pipe.Frame(testState(), nil, testEpoch)
	if strings.Contains(buf.String(), "placement frame") {
		t.Errorf("frame stats logged without debug mode:\n%s", buf.String())
	}
}

func TestSetLoggerNilRestoresSilence(t *testing.T) {
	SetLogger(slog.Default())
	SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("SetLogger(nil) left logging enabled")
	}
}

func TestEventKindsAndBuffers(t *testing.T) {
	names := map[string]string{
		FadeInStarted.String():         "fade-in",
		FadeOutStarted.String():        "fade-out",
		FadeDropped.String():           "dropped",
		BufferText.String():            "text",
		BufferCollisionCircle.String(): "collision-circle",
	}
	for got, want := range names {
		if got != want {
			t.Errorf("name %q, want %q", got, want)
		}
	}

	in, out := transitionChannels(
		JointOpacityState{Icon: OpacityState{1, 1}, Text: OpacityState{0, 0}},
		JointOpacityState{Icon: OpacityState{1, 0}, Text: OpacityState{0, 1}},
	)
	if in != ChannelText || out != ChannelIcon {
		t.Errorf("transitionChannels = %v, %v", in, out)
	}

	var got []FadeEvent
	sink := EventSinkFunc(func(e FadeEvent) { got = append(got, e) })
	sink.EmitFade(FadeEvent{Kind: FadeDropped})
	if len(got) != 1 {
		t.Error("EventSinkFunc did not forward")
	}
}
