package playback

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"cdrip/internal/engine"
	"cdrip/internal/services"
	"cdrip/internal/testsupport"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestCDTrackPlayerBuildsGraph(t *testing.T) {
	eng := testsupport.NewFakeEngine()
	cfg := testsupport.NewConfig(t, testsupport.WithDevice("/dev/sr0"))

	if err := NewCDTrackPlayer(eng, cfg, 3).Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}

	graph := eng.LastGraph()
	want := []string{"cdiocddasrc", "queue", "audioconvert", "audioresample", "autoaudiosink"}
	if got := graph.Factories(); !slices.Equal(got, want) {
		t.Fatalf("factories = %v, want %v", got, want)
	}
	if v, _ := graph.Element("cdiocddasrc").Property("track"); v != uint(3) {
		t.Fatalf("track = %#v", v)
	}
	if v, _ := graph.Element("cdiocddasrc").Property("device"); v != "/dev/sr0" {
		t.Fatalf("device = %#v", v)
	}

	queue := graph.Element("queue")
	props := map[string]any{
		"max-size-buffers": uint32(0),
		"max-size-time":    uint64(5_000_000_000),
		"max-size-bytes":   uint32(10 * 1024 * 1024),
	}
	for key, want := range props {
		if got, _ := queue.Property(key); got != want {
			t.Fatalf("queue %s = %#v, want %#v", key, got, want)
		}
	}
	if links := graph.Element("queue").Links(); !slices.Equal(links, []string{"convert"}) {
		t.Fatalf("queue links = %v", links)
	}
}

func TestPlaybackTearsDownOnEveryExit(t *testing.T) {
	tests := []struct {
		name    string
		script  []engine.Message
		cancel  bool
		wantErr error
	}{
		{name: "end of stream", script: []engine.Message{engine.EOS{}}},
		{
			name:    "engine error",
			script:  []engine.Message{engine.ErrorMessage{Source: "source", Err: errors.New("read error")}},
			wantErr: services.ErrRuntime,
		},
		{name: "cancelled", cancel: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			eng := testsupport.NewFakeEngine().Script(tc.script...)
			if tc.cancel {
				eng.OnPlaying(func(*testsupport.FakeGraph) { cancel() })
			}

			// Repeated calls must each start from and return to a null graph.
			for range 2 {
				err := NewCDTrackPlayer(eng, nil, 1).Play(ctx)
				if tc.wantErr == nil && err != nil {
					t.Fatalf("Play: %v", err)
				}
				if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			}

			for _, graph := range eng.Graphs() {
				history := graph.StateHistory()
				if graph.State() != engine.StateNull || history[len(history)-1] != engine.StateNull {
					t.Fatalf("graph %s not torn down: %v", graph.Name(), history)
				}
			}
		})
	}
}

func TestPlaybackLogsNowPlayingAndForwardsTags(t *testing.T) {
	logger, buf := captureLogger()
	tags := engine.Tags{Title: "So What", Artist: "Miles Davis", Album: "Kind of Blue"}
	eng := testsupport.NewFakeEngine().Script(
		engine.StateChanged{Source: "convert", Old: engine.StatePaused, New: engine.StatePlaying},
		engine.TagMessage{Source: "source", Tags: tags},
		engine.TagMessage{Source: "source"},
		engine.EOS{},
	)

	var got []engine.Tags
	player := NewCDTrackPlayer(eng, nil, 1,
		WithLogger(logger),
		WithTagHandler(func(tg engine.Tags) { got = append(got, tg) }),
	)
	if err := player.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}

	if len(got) != 1 || got[0] != tags {
		t.Fatalf("tag handler got %+v", got)
	}
	if n := strings.Count(buf.String(), `"msg":"now playing"`); n != 1 {
		t.Fatalf("expected one now playing line for the graph itself, got %d:\n%s", n, buf.String())
	}
}

func TestCDTrackPlayerRejectsInvalidTrack(t *testing.T) {
	err := NewCDTrackPlayer(testsupport.NewFakeEngine(), nil, 0).Play(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCDTrackPlayerMissingSink(t *testing.T) {
	eng := testsupport.NewFakeEngine().MissingFactory("autoaudiosink")
	err := NewCDTrackPlayer(eng, nil, 1).Play(context.Background())
	if !errors.Is(err, services.ErrEngineConstruction) {
		t.Fatalf("expected engine construction error, got %v", err)
	}
}

func TestFilePlayerMissingFile(t *testing.T) {
	err := NewFilePlayer(testsupport.NewFakeEngine(), nil, filepath.Join(t.TempDir(), "nope.flac")).Play(context.Background())
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestFilePlayerLinksFirstAudioPadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.flac")
	testsupport.WriteFile(t, path, 1024)

	video := testsupport.NewFakePad("src_0", "video/x-raw")
	audio := testsupport.NewFakePad("src_1", "audio/x-raw")
	extra := testsupport.NewFakePad("src_2", "audio/x-raw")
	eng := testsupport.NewFakeEngine().OnPlaying(func(g *testsupport.FakeGraph) {
		decoder := g.Element("decodebin3")
		decoder.EmitPad(video)
		decoder.EmitPad(audio)
		decoder.EmitPad(extra)
		decoder.EmitPad(audio)
	})

	if err := NewFilePlayer(eng, nil, path).Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}

	graph := eng.LastGraph()
	want := []string{"filesrc", "decodebin3", "audioconvert", "audioresample", "autoaudiosink"}
	if got := graph.Factories(); !slices.Equal(got, want) {
		t.Fatalf("factories = %v, want %v", got, want)
	}
	if v, _ := graph.Element("filesrc").Property("location"); v != path {
		t.Fatalf("location = %#v", v)
	}
	if links := graph.Element("filesrc").Links(); !slices.Equal(links, []string{"decoder"}) {
		t.Fatalf("source links = %v", links)
	}
	sink, _ := graph.Element("audioconvert").StaticPad("sink")
	if audio.Peer() == nil || audio.Peer() != sink {
		t.Fatal("audio pad not linked to converter")
	}
	if video.IsLinked() || extra.IsLinked() {
		t.Fatal("only the first audio pad should be linked")
	}
	if graph.State() != engine.StateNull {
		t.Fatalf("graph left in %s", graph.State())
	}
}

func TestPadLinkerRetriesAfterFailedLink(t *testing.T) {
	sink := testsupport.NewFakePad("sink", "audio/x-raw")
	linker := newPadLinker(sink, slog.New(slog.DiscardHandler))

	first := testsupport.NewFakePad("src_0", "audio/x-raw").FailLink(errors.New("not negotiated"))
	linker.handle(first)
	if linker.Linked() {
		t.Fatal("failed link must not mark the linker as done")
	}

	second := testsupport.NewFakePad("src_1", "audio/x-raw")
	linker.handle(second)
	if !linker.Linked() || second.Peer() != sink {
		t.Fatal("second audio pad should link after the first failed")
	}
}
