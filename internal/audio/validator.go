package audio

import (
	"log/slog"
	"sync"

	"cdrip/internal/engine"
	"cdrip/internal/logging"
)

const (
	// ProbeFactory is the multiplexing encoder element used for encoding and probing.
	ProbeFactory = "encodebin"
	// AudioPadTemplate is the request pad template for audio input on ProbeFactory.
	AudioPadTemplate = "audio_%u"
)

// Validator checks at runtime which formats the engine can encode.
type Validator struct {
	engine engine.Engine
	logger *slog.Logger

	mu            sync.Mutex
	reportedMuxer bool

	// muxer is created on first use and reused; Probe holds muxerMu while it
	// swaps profiles on it.
	muxerMu sync.Mutex
	muxer   engine.Element
}

// NewValidator constructs a validator for eng.
func NewValidator(eng engine.Engine, logger *slog.Logger) *Validator {
	return &Validator{
		engine: eng,
		logger: logging.NewComponentLogger(logger, "validator"),
	}
}

// Probe reports whether f's encoder chain resolves with the installed plugins.
// All probes share one element and the requested pad is always released, so
// repeated probes are idempotent and do not accumulate engine objects.
func (v *Validator) Probe(f Format) bool {
	if v == nil || v.engine == nil {
		return false
	}
	v.muxerMu.Lock()
	defer v.muxerMu.Unlock()
	muxer, err := v.sharedMuxer()
	if err != nil {
		v.reportMissingMuxer(err)
		return false
	}
	if err := muxer.SetDescriptor(f.Descriptor().Profile()); err != nil {
		v.logger.Debug("format descriptor rejected",
			logging.String(logging.FieldFormat, f.Key()),
			logging.Error(err),
		)
		return false
	}
	pad, ok := muxer.RequestPad(AudioPadTemplate)
	if !ok {
		v.logger.Debug("format unsupported",
			logging.String(logging.FieldFormat, f.Key()),
			logging.String("descriptor", f.Descriptor().String()),
			logging.String(logging.FieldErrorHint, "install the GStreamer plugin providing this encoder"),
		)
		return false
	}
	muxer.ReleaseRequestPad(pad)
	return true
}

// Results probes every format. The map is computed fresh on each call.
func (v *Validator) Results() map[Format]bool {
	results := make(map[Format]bool, len(AllFormats()))
	if !v.muxerAvailable() {
		for _, f := range AllFormats() {
			results[f] = false
		}
		return results
	}
	for _, f := range AllFormats() {
		results[f] = v.Probe(f)
	}
	return results
}

// Supported returns the formats that probe successfully, in display order.
func (v *Validator) Supported() []Format {
	if !v.muxerAvailable() {
		return nil
	}
	supported := make([]Format, 0, len(AllFormats()))
	for _, f := range AllFormats() {
		if v.Probe(f) {
			supported = append(supported, f)
		}
	}
	return supported
}

// sharedMuxer must be called with muxerMu held.
func (v *Validator) sharedMuxer() (engine.Element, error) {
	if v.muxer != nil {
		return v.muxer, nil
	}
	muxer, err := v.engine.NewElement(ProbeFactory, "")
	if err != nil {
		return nil, err
	}
	v.muxer = muxer
	return muxer, nil
}

func (v *Validator) muxerAvailable() bool {
	if v == nil || v.engine == nil {
		return false
	}
	if v.engine.HasFactory(ProbeFactory) {
		return true
	}
	v.reportMissingMuxer(nil)
	return false
}

func (v *Validator) reportMissingMuxer(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.reportedMuxer {
		return
	}
	v.reportedMuxer = true
	attrs := []logging.Attr{
		logging.String("element", ProbeFactory),
		logging.String(logging.FieldErrorHint, "install gst-plugins-base"),
		logging.String(logging.FieldImpact, "no output format can be encoded"),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	logging.WarnWithContext(v.logger, "encoding element unavailable", "encoder_missing", attrs...)
}
