package encoding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cdrip/internal/audio"
	"cdrip/internal/config"
	"cdrip/internal/engine"
	"cdrip/internal/logging"
	"cdrip/internal/metadata"
	"cdrip/internal/services"
)

const stage = "encoding"

// Request describes one track to rip and encode.
type Request struct {
	// SourceTrack is the 1-based disc position read by the source element.
	SourceTrack int
	Track       metadata.TrackDetails
	Album       metadata.AlbumDetails
	OutputPath  string
	Format      audio.Format
}

// Encoder builds and runs encoding graphs against an engine.
type Encoder struct {
	engine        engine.Engine
	logger        *slog.Logger
	device        string
	sourceElement string
	verifyTags    bool
}

// NewEncoder constructs an encoder. cfg may be nil, in which case the
// default drive and source element are used.
func NewEncoder(eng engine.Engine, cfg *config.Config, logger *slog.Logger) *Encoder {
	defaults := config.Default()
	if cfg == nil {
		cfg = &defaults
	}
	source := strings.TrimSpace(cfg.Encoding.SourceElement)
	if source == "" {
		source = defaults.Encoding.SourceElement
	}
	return &Encoder{
		engine:        eng,
		logger:        logging.NewComponentLogger(logger, "encoder"),
		device:        strings.TrimSpace(cfg.Drive.Device),
		sourceElement: source,
		verifyTags:    cfg.Encoding.VerifyTags,
	}
}

// EncodeTrack rips req.SourceTrack into req.OutputPath. Every failure is
// returned as an error tagged with one of the services markers; the graph is
// back in its null state whenever a run was started.
func (e *Encoder) EncodeTrack(ctx context.Context, req Request) error {
	if !req.Format.Valid() {
		return services.Wrap(services.ErrConfiguration, stage, "validate request", fmt.Sprintf("unknown format %d", int(req.Format)), nil)
	}
	if req.SourceTrack <= 0 {
		req.SourceTrack = req.Track.Number
	}
	if req.SourceTrack <= 0 {
		return services.Wrap(services.ErrConfiguration, stage, "validate request", "track number must be positive", nil)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrConfiguration, stage, "validate request", "output path is empty", nil)
	}

	ctx = services.WithTrack(ctx, req.Track.Number)
	logger := logging.WithContext(ctx, e.logger).With(logging.String(logging.FieldFormat, req.Format.Key()))

	graph, err := e.engine.NewGraph(fmt.Sprintf("encode-track-%02d", req.SourceTrack))
	if err != nil {
		return services.Wrap(services.ErrEngineConstruction, stage, "create graph", "", err)
	}

	elements, err := engine.BuildElements(e.engine, graph, stage, e.elementSpecs(req)...)
	if err != nil {
		return err
	}
	source, rate, convert, resample, encoder, sink := elements[0], elements[1], elements[2], elements[3], elements[4], elements[5]

	if err := engine.LinkChain(stage, source, rate, convert, resample); err != nil {
		return err
	}
	if err := attachEncoder(resample, encoder, req.Format); err != nil {
		return err
	}
	if err := engine.LinkChain(stage, encoder, sink); err != nil {
		return err
	}

	job := engine.NewJob(graph, stage, logger)
	logger = logger.With(logging.String(logging.FieldJobID, job.ID()))
	logger.Info("encoding track",
		logging.String(logging.FieldEventType, "track_started"),
		logging.String("title", req.Track.Title),
		logging.String("output", req.OutputPath),
	)

	started := time.Now()
	tagged := false
	outcome, err := job.Run(job.Context(ctx), engine.Handlers{
		StateChanged: func(m engine.StateChanged) {
			if m.Source != graph.Name() {
				return
			}
			logger.Debug("graph state changed",
				logging.String("old", m.Old.String()),
				logging.String("new", m.New.String()),
			)
			// Pads flush in Null and Ready and drop events sent there.
			if !tagged && (m.New == engine.StatePaused || m.New == engine.StatePlaying) {
				tagged = true
				sendTags(graph, logger, req)
			}
		},
	})
	if outcome == engine.OutcomeCancelled {
		if err == nil {
			err = context.Canceled
		}
		return services.Wrap(services.ErrRuntime, stage, "run", "encoding cancelled", err)
	}
	if err != nil {
		return err
	}

	logger.Info("track encoded",
		logging.String(logging.FieldEventType, "track_completed"),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)

	if e.verifyTags {
		verifyWrittenTags(logger, req)
	}
	return nil
}

func sendTags(graph engine.Graph, logger *slog.Logger, req Request) {
	if graph.SendEvent(engine.TagEvent{Tags: TagsFor(req.Track, req.Album)}) {
		return
	}
	logging.WarnWithContext(logger, "tag event not accepted", "tags_not_applied",
		logging.String(logging.FieldErrorHint, "output file will be written without metadata"),
	)
}

func (e *Encoder) elementSpecs(req Request) []engine.ElementSpec {
	sourceProps := []engine.Property{{Key: "track", Value: uint(req.SourceTrack)}}
	if e.device != "" {
		sourceProps = append(sourceProps, engine.Property{Key: "device", Value: e.device})
	}
	return []engine.ElementSpec{
		{Factory: e.sourceElement, Name: "source", Properties: sourceProps},
		{Factory: "audiorate", Name: "rate"},
		{Factory: "audioconvert", Name: "convert"},
		{Factory: "audioresample", Name: "resample"},
		{Factory: audio.ProbeFactory, Name: "encoder"},
		{Factory: "filesink", Name: "sink", Properties: []engine.Property{{Key: "location", Value: req.OutputPath}}},
	}
}

// attachEncoder configures encoder for format and links upstream's source pad
// to a freshly requested audio pad.
func attachEncoder(upstream, encoder engine.Element, format audio.Format) error {
	descriptor := format.Descriptor()
	if err := encoder.SetDescriptor(descriptor.Profile()); err != nil {
		return services.Wrap(services.ErrUnsupportedFormat, stage, "apply encoding profile",
			fmt.Sprintf("%s (%s)", format.Name(), descriptor), err)
	}

	sinkPad, ok := encoder.RequestPad(audio.AudioPadTemplate)
	if !ok {
		return services.Wrap(services.ErrUnsupportedFormat, stage, "request audio pad",
			fmt.Sprintf("%s exposed no audio input for %s; the GStreamer plugins for this format are probably not installed",
				encoder.Factory(), format.Name()),
			nil)
	}

	srcPad, ok := upstream.StaticPad("src")
	if !ok {
		encoder.ReleaseRequestPad(sinkPad)
		return services.Wrap(services.ErrLink, stage, "link encoder", fmt.Sprintf("%s has no src pad", upstream.Name()), nil)
	}
	if err := srcPad.Link(sinkPad); err != nil {
		encoder.ReleaseRequestPad(sinkPad)
		return services.Wrap(services.ErrLink, stage, "link encoder",
			fmt.Sprintf("%s:%s -> %s:%s", upstream.Name(), srcPad.Name(), encoder.Name(), sinkPad.Name()), err)
	}
	return nil
}

// TagsFor builds the tag set embedded in an encoded track. Title, album and
// track number are always set; the artist only when known.
func TagsFor(track metadata.TrackDetails, album metadata.AlbumDetails) engine.Tags {
	tags := engine.Tags{
		Title:       track.Title,
		Album:       album.Title,
		TrackNumber: track.Number,
	}
	if track.HasArtist() {
		tags.Artist = strings.TrimSpace(track.Artist)
	}
	return tags
}
