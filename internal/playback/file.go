package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cdrip/internal/config"
	"cdrip/internal/engine"
	"cdrip/internal/logging"
	"cdrip/internal/services"
)

// FilePlayer plays an audio file through a decoder with dynamic pads.
type FilePlayer struct {
	engine   engine.Engine
	path     string
	settings settings
}

// NewFilePlayer prepares playback of path.
func NewFilePlayer(eng engine.Engine, cfg *config.Config, path string, opts ...Option) *FilePlayer {
	return &FilePlayer{
		engine:   eng,
		path:     strings.TrimSpace(path),
		settings: newSettings(cfg, "file-player", opts),
	}
}

// Path returns the file being played.
func (p *FilePlayer) Path() string { return p.path }

// Play blocks until the file ends, fails, or ctx is cancelled.
func (p *FilePlayer) Play(ctx context.Context) error {
	info, err := os.Stat(p.path)
	if err != nil {
		return services.Wrap(services.ErrPrecondition, stage, "open file", p.path, err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrPrecondition, stage, "open file", p.path+" is a directory", nil)
	}
	logger := p.settings.logger.With(logging.String("file", filepath.Base(p.path)))

	graph, err := p.engine.NewGraph("play-file")
	if err != nil {
		return services.Wrap(services.ErrEngineConstruction, stage, "create graph", "", err)
	}
	elements, err := engine.BuildElements(p.engine, graph, stage,
		engine.ElementSpec{Factory: "filesrc", Name: "source", Properties: []engine.Property{{Key: "location", Value: p.path}}},
		engine.ElementSpec{Factory: p.settings.decoderElement, Name: "decoder"},
		engine.ElementSpec{Factory: "audioconvert", Name: "convert"},
		engine.ElementSpec{Factory: "audioresample", Name: "resample"},
		engine.ElementSpec{Factory: p.settings.sinkElement, Name: "output"},
	)
	if err != nil {
		return err
	}
	source, decoder, convert, resample, output := elements[0], elements[1], elements[2], elements[3], elements[4]

	if err := engine.LinkChain(stage, source, decoder); err != nil {
		return err
	}
	if err := engine.LinkChain(stage, convert, resample, output); err != nil {
		return err
	}
	sinkPad, ok := convert.StaticPad("sink")
	if !ok {
		return services.Wrap(services.ErrLink, stage, "link decoder", convert.Name()+" has no sink pad", nil)
	}
	linker := newPadLinker(sinkPad, logger)
	decoder.OnPadAdded(linker.handle)

	logger.Info("playing file", logging.String("path", p.path))
	return play(ctx, graph, p.settings, logger)
}

// padLinker links the first audio pad a decoder announces to sink. Later
// audio pads and every non-audio pad are ignored.
type padLinker struct {
	sink   engine.Pad
	logger *slog.Logger

	mu     sync.Mutex
	linked bool
}

func newPadLinker(sink engine.Pad, logger *slog.Logger) *padLinker {
	return &padLinker{sink: sink, logger: logger}
}

var errSinkLinked = errors.New("sink pad already linked")

func (l *padLinker) handle(pad engine.Pad) {
	mediaType := pad.MediaType()
	if !strings.HasPrefix(mediaType, "audio/") {
		l.logger.Debug("ignoring non-audio pad",
			logging.String("pad", pad.Name()),
			logging.String("media_type", mediaType),
		)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.linked {
		l.logger.Debug("audio already linked; ignoring pad", logging.String("pad", pad.Name()))
		return
	}

	err := errSinkLinked
	if !l.sink.IsLinked() {
		err = pad.Link(l.sink)
	}
	if err != nil {
		logging.ErrorWithContext(l.logger, "decoder pad link failed", "decoder_link_failed",
			logging.String("pad", pad.Name()),
			logging.String("media_type", mediaType),
			logging.Error(fmt.Errorf("%w: %w", services.ErrLink, err)),
			logging.String(logging.FieldErrorHint, "the engine will report the stream as not linked"),
		)
		return
	}
	l.linked = true
	l.logger.Debug("decoder linked", logging.String("pad", pad.Name()), logging.String("media_type", mediaType))
}

// Linked reports whether an audio pad has been linked.
func (l *padLinker) Linked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.linked
}
