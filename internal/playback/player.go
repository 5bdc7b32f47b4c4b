package playback

import (
	"context"
	"log/slog"
	"strings"

	"cdrip/internal/config"
	"cdrip/internal/engine"
	"cdrip/internal/logging"
)

const stage = "playback"

// TagHandler receives stream metadata as the engine discovers it.
type TagHandler func(engine.Tags)

// Option customizes a player.
type Option func(*settings)

type settings struct {
	logger          *slog.Logger
	onTags          TagHandler
	device          string
	sourceElement   string
	decoderElement  string
	sinkElement     string
	queueMaxBuffers uint32
	queueMaxTime    uint64
	queueMaxBytes   uint32
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithTagHandler forwards tag messages to fn.
func WithTagHandler(fn TagHandler) Option {
	return func(s *settings) { s.onTags = fn }
}

func newSettings(cfg *config.Config, component string, opts []Option) settings {
	defaults := config.Default()
	if cfg == nil {
		cfg = &defaults
	}
	s := settings{
		device:          strings.TrimSpace(cfg.Drive.Device),
		sourceElement:   firstNonEmpty(cfg.Playback.SourceElement, defaults.Playback.SourceElement),
		decoderElement:  firstNonEmpty(cfg.Playback.DecoderElement, defaults.Playback.DecoderElement),
		sinkElement:     firstNonEmpty(cfg.Playback.SinkElement, defaults.Playback.SinkElement),
		queueMaxBuffers: uint32(max(cfg.Playback.QueueMaxBuffers, 0)),
		queueMaxTime:    uint64(max(cfg.Playback.QueueMaxTimeMS, 0)) * 1_000_000,
		queueMaxBytes:   uint32(max(cfg.Playback.QueueMaxBytes, 0)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	s.logger = logging.NewComponentLogger(s.logger, component)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// play runs graph until it finishes or ctx is cancelled.
func play(ctx context.Context, graph engine.Graph, s settings, logger *slog.Logger) error {
	job := engine.NewJob(graph, stage, logger)
	logger = logger.With(logging.String(logging.FieldJobID, job.ID()))

	outcome, err := job.Run(job.Context(ctx), engine.Handlers{
		StateChanged: func(m engine.StateChanged) {
			if m.Source == graph.Name() && m.New == engine.StatePlaying && m.Old != engine.StatePlaying {
				logger.Info("now playing", logging.String(logging.FieldEventType, "playback_started"))
			}
		},
		Tag: func(m engine.TagMessage) {
			if m.Tags.Empty() {
				return
			}
			logger.Debug("stream tags",
				logging.String("title", m.Tags.Title),
				logging.String("artist", m.Tags.Artist),
				logging.String("album", m.Tags.Album),
			)
			if s.onTags != nil {
				s.onTags(m.Tags)
			}
		},
	})

	switch outcome {
	case engine.OutcomeCancelled:
		logger.Info("playback stopped", logging.String(logging.FieldEventType, "playback_cancelled"))
		return nil
	case engine.OutcomeEOS:
		if err != nil {
			return err
		}
		logger.Info("playback finished", logging.String(logging.FieldEventType, "playback_completed"))
		return nil
	default:
		return err
	}
}
