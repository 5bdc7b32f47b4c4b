package playback

import (
	"context"
	"fmt"

	"cdrip/internal/config"
	"cdrip/internal/engine"
	"cdrip/internal/logging"
	"cdrip/internal/services"
)

// CDTrackPlayer plays one track straight from the disc.
type CDTrackPlayer struct {
	engine   engine.Engine
	track    int
	settings settings
}

// NewCDTrackPlayer prepares playback of the 1-based track.
func NewCDTrackPlayer(eng engine.Engine, cfg *config.Config, track int, opts ...Option) *CDTrackPlayer {
	return &CDTrackPlayer{
		engine:   eng,
		track:    track,
		settings: newSettings(cfg, "cd-player", opts),
	}
}

// Track returns the disc position being played.
func (p *CDTrackPlayer) Track() int { return p.track }

// Play blocks until the track ends, fails, or ctx is cancelled.
func (p *CDTrackPlayer) Play(ctx context.Context) error {
	if p.track <= 0 {
		return services.Wrap(services.ErrConfiguration, stage, "validate track", fmt.Sprintf("track %d is not a disc position", p.track), nil)
	}
	ctx = services.WithTrack(ctx, p.track)
	logger := logging.WithContext(ctx, p.settings.logger)

	graph, err := p.engine.NewGraph(fmt.Sprintf("play-track-%02d", p.track))
	if err != nil {
		return services.Wrap(services.ErrEngineConstruction, stage, "create graph", "", err)
	}
	elements, err := engine.BuildElements(p.engine, graph, stage, p.elementSpecs()...)
	if err != nil {
		return err
	}
	if err := engine.LinkChain(stage, elements...); err != nil {
		return err
	}

	logger.Info("playing disc track", logging.String("source", p.settings.sourceElement))
	return play(ctx, graph, p.settings, logger)
}

func (p *CDTrackPlayer) elementSpecs() []engine.ElementSpec {
	sourceProps := []engine.Property{{Key: "track", Value: uint(p.track)}}
	if p.settings.device != "" {
		sourceProps = append(sourceProps, engine.Property{Key: "device", Value: p.settings.device})
	}
	return []engine.ElementSpec{
		{Factory: p.settings.sourceElement, Name: "source", Properties: sourceProps},
		{Factory: "queue", Name: "buffer", Properties: []engine.Property{
			{Key: "max-size-buffers", Value: p.settings.queueMaxBuffers},
			{Key: "max-size-time", Value: p.settings.queueMaxTime},
			{Key: "max-size-bytes", Value: p.settings.queueMaxBytes},
		}},
		{Factory: "audioconvert", Name: "convert"},
		{Factory: "audioresample", Name: "resample"},
		{Factory: p.settings.sinkElement, Name: "output"},
	}
}
