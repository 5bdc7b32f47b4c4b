//go:build gstreamer

package gstreamer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"

	"cdrip/internal/engine"
	"cdrip/internal/services"
)

const busPollInterval = 100 * time.Millisecond

var initOnce sync.Once

// Available reports whether this binary was built with the GStreamer backend.
func Available() bool { return true }

// Open initializes GStreamer and returns an engine backed by it.
func Open() (engine.Engine, error) {
	initOnce.Do(func() { gst.Init(nil) })
	return &gstEngine{}, nil
}

type gstEngine struct{}

func (e *gstEngine) NewGraph(name string) (engine.Graph, error) {
	pipeline, err := gst.NewPipeline(name)
	if err != nil {
		return nil, fmt.Errorf("%w: create pipeline %q: %w", services.ErrEngineConstruction, name, err)
	}
	return &graph{name: name, pipeline: pipeline, bus: &bus{b: pipeline.GetPipelineBus()}}, nil
}

func (e *gstEngine) NewElement(factory, name string) (engine.Element, error) {
	if gst.Find(factory) == nil {
		return nil, fmt.Errorf("%w: no element factory %q", services.ErrEngineConstruction, factory)
	}
	var (
		el  *gst.Element
		err error
	)
	if name == "" {
		el, err = gst.NewElement(factory)
	} else {
		el, err = gst.NewElementWithName(factory, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: make %q: %w", services.ErrEngineConstruction, factory, err)
	}
	return &element{el: el, factory: factory}, nil
}

func (e *gstEngine) HasFactory(factory string) bool {
	return gst.Find(factory) != nil
}

func (e *gstEngine) Close() error { return nil }

type element struct {
	el      *gst.Element
	factory string

	mu        sync.Mutex
	requested []*gst.Pad
}

func (e *element) Name() string    { return e.el.GetName() }
func (e *element) Factory() string { return e.factory }

func (e *element) Set(key string, value any) error {
	return e.el.SetProperty(key, value)
}

// SetDescriptor hands encodebin the serialized profile. gst_util_set_object_arg
// deserializes it; a profile the muxer cannot satisfy shows up later as a
// failed audio request pad.
func (e *element) SetDescriptor(profile engine.EncodingProfile) error {
	if gst.NewCapsFromString(profile.ContainerCaps) == nil || gst.NewCapsFromString(profile.StreamCaps) == nil {
		return fmt.Errorf("%w: invalid caps in profile %q", services.ErrUnsupportedFormat, profile.String())
	}
	e.el.SetArg("profile", profile.String())
	return nil
}

func (e *element) StaticPad(name string) (engine.Pad, bool) {
	p := e.el.GetStaticPad(name)
	if p == nil {
		return nil, false
	}
	return &pad{p: p}, true
}

func (e *element) RequestPad(template string) (engine.Pad, bool) {
	p := e.el.GetRequestPad(template)
	if p == nil {
		return nil, false
	}
	e.mu.Lock()
	e.requested = append(e.requested, p)
	e.mu.Unlock()
	return &pad{p: p}, true
}

func (e *element) ReleaseRequestPad(ep engine.Pad) {
	wrapped, ok := ep.(*pad)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, p := range e.requested {
		if p == wrapped.p {
			e.el.ReleaseRequestPad(p)
			e.requested = append(e.requested[:i], e.requested[i+1:]...)
			return
		}
	}
}

func (e *element) RequestedPads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requested)
}

func (e *element) Link(dst engine.Element) error {
	other, ok := dst.(*element)
	if !ok {
		return fmt.Errorf("link %s: foreign element %T", e.Name(), dst)
	}
	return e.el.Link(other.el)
}

func (e *element) OnPadAdded(fn func(engine.Pad)) {
	_, _ = e.el.Connect("pad-added", func(_ *gst.Element, p *gst.Pad) {
		fn(&pad{p: p})
	})
}

type pad struct {
	p *gst.Pad
}

func (p *pad) Name() string { return p.p.GetName() }

func (p *pad) MediaType() string {
	caps := p.p.GetCurrentCaps()
	if caps == nil {
		caps = p.p.QueryCaps(nil)
	}
	if caps == nil || caps.GetSize() == 0 {
		return ""
	}
	return caps.GetStructureAt(0).Name()
}

func (p *pad) IsLinked() bool { return p.p.IsLinked() }

func (p *pad) Link(sink engine.Pad) error {
	other, ok := sink.(*pad)
	if !ok {
		return fmt.Errorf("link pad %s: foreign pad %T", p.Name(), sink)
	}
	if ret := p.p.Link(other.p); ret != gst.PadLinkOK {
		return fmt.Errorf("link pad %s -> %s: %s", p.Name(), other.Name(), ret.String())
	}
	return nil
}

type graph struct {
	name     string
	pipeline *gst.Pipeline
	bus      *bus
}

func (g *graph) Name() string { return g.name }

func (g *graph) Add(elements ...engine.Element) error {
	raw := make([]*gst.Element, 0, len(elements))
	for _, el := range elements {
		wrapped, ok := el.(*element)
		if !ok {
			return fmt.Errorf("add to %s: foreign element %T", g.name, el)
		}
		raw = append(raw, wrapped.el)
	}
	return g.pipeline.AddMany(raw...)
}

func (g *graph) SetState(state engine.State) error {
	return g.pipeline.SetState(toGstState(state))
}

func (g *graph) State() engine.State {
	return fromGstState(g.pipeline.GetCurrentState())
}

func (g *graph) SendEvent(ev engine.Event) bool {
	switch e := ev.(type) {
	case engine.TagEvent:
		return g.pipeline.SendEvent(gst.NewTagEvent(tagList(e.Tags)))
	default:
		return false
	}
}

func (g *graph) Bus() engine.Bus { return g.bus }

type bus struct {
	b *gst.Bus
}

// Pop polls the pipeline bus so cancellation is observed between polls.
func (b *bus) Pop(ctx context.Context) (engine.Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg := b.b.TimedPop(gst.ClockTime(busPollInterval))
		if msg == nil {
			continue
		}
		if converted, ok := convertMessage(msg); ok {
			return converted, nil
		}
	}
}

func convertMessage(msg *gst.Message) (engine.Message, bool) {
	switch msg.Type() {
	case gst.MessageEOS:
		return engine.EOS{Source: msg.Source()}, true
	case gst.MessageError:
		gerr := msg.ParseError()
		if gerr == nil {
			return engine.ErrorMessage{Source: msg.Source(), Err: errors.New("unknown engine error")}, true
		}
		return engine.ErrorMessage{Source: msg.Source(), Err: errors.New(gerr.Error()), Debug: gerr.DebugString()}, true
	case gst.MessageWarning:
		gerr := msg.ParseWarning()
		if gerr == nil {
			return engine.WarningMessage{Source: msg.Source()}, true
		}
		return engine.WarningMessage{Source: msg.Source(), Err: errors.New(gerr.Error()), Debug: gerr.DebugString()}, true
	case gst.MessageStateChanged:
		old, current := msg.ParseStateChanged()
		return engine.StateChanged{Source: msg.Source(), Old: fromGstState(old), New: fromGstState(current)}, true
	case gst.MessageTag:
		list := msg.ParseTags()
		if list == nil {
			return nil, false
		}
		return engine.TagMessage{Source: msg.Source(), Tags: readTags(list)}, true
	default:
		return nil, false
	}
}

func tagList(tags engine.Tags) *gst.TagList {
	list := gst.NewEmptyTagList()
	if tags.Title != "" {
		list.AddValue(gst.TagMergeReplace, gst.TagTitle, tags.Title)
	}
	if tags.Artist != "" {
		list.AddValue(gst.TagMergeReplace, gst.TagArtist, tags.Artist)
	}
	if tags.Album != "" {
		list.AddValue(gst.TagMergeReplace, gst.TagAlbum, tags.Album)
	}
	if tags.Genre != "" {
		list.AddValue(gst.TagMergeReplace, gst.TagGenre, tags.Genre)
	}
	if tags.TrackNumber > 0 {
		list.AddValue(gst.TagMergeReplace, gst.TagTrackNumber, uint(tags.TrackNumber))
	}
	return list
}

func readTags(list *gst.TagList) engine.Tags {
	var tags engine.Tags
	tags.Title, _ = list.GetString(gst.TagTitle)
	tags.Artist, _ = list.GetString(gst.TagArtist)
	tags.Album, _ = list.GetString(gst.TagAlbum)
	tags.Genre, _ = list.GetString(gst.TagGenre)
	if n, ok := list.GetUint32(gst.TagTrackNumber); ok {
		tags.TrackNumber = int(n)
	}
	return tags
}

func toGstState(state engine.State) gst.State {
	switch state {
	case engine.StateReady:
		return gst.StateReady
	case engine.StatePaused:
		return gst.StatePaused
	case engine.StatePlaying:
		return gst.StatePlaying
	default:
		return gst.StateNull
	}
}

func fromGstState(state gst.State) engine.State {
	switch state {
	case gst.StateReady:
		return engine.StateReady
	case gst.StatePaused:
		return engine.StatePaused
	case gst.StatePlaying:
		return engine.StatePlaying
	default:
		return engine.StateNull
	}
}
