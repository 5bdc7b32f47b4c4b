package testsupport

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"cdrip/internal/engine"
	"cdrip/internal/services"
)

// FakeEngine is an in-memory engine.Engine. Graphs built from it deliver a
// scripted message sequence once they reach StatePlaying.
type FakeEngine struct {
	mu sync.Mutex

	missing    map[string]bool
	rejected   map[string]bool
	setErrs    map[string]error
	linkErrs   map[string]error
	stateErrs  map[engine.State]error
	script     []engine.Message
	onPlaying  func(*FakeGraph)
	graphs     []*FakeGraph
	elements   []*FakeElement
	nameCounts map[string]int
	closed     bool
}

// NewFakeEngine returns an engine whose graphs emit EOS after starting.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		missing:    map[string]bool{},
		rejected:   map[string]bool{},
		setErrs:    map[string]error{},
		linkErrs:   map[string]error{},
		stateErrs:  map[engine.State]error{},
		script:     []engine.Message{engine.EOS{}},
		nameCounts: map[string]int{},
	}
}

// MissingFactory marks element classes as unavailable.
func (e *FakeEngine) MissingFactory(factories ...string) *FakeEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, f := range factories {
		e.missing[f] = true
	}
	return e
}

// RejectProfile makes request pads fail on elements configured with profile.
func (e *FakeEngine) RejectProfile(profile engine.EncodingProfile) *FakeEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rejected[profile.String()] = true
	return e
}

// FailSet makes Set(key) fail on every element of factory.
func (e *FakeEngine) FailSet(factory, key string, err error) *FakeEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setErrs[factory+"."+key] = err
	return e
}

// FailLink makes linking the named elements fail.
func (e *FakeEngine) FailLink(src, dst string, err error) *FakeEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.linkErrs[src+"->"+dst] = err
	return e
}

// FailState makes graph transitions into state fail.
func (e *FakeEngine) FailState(state engine.State, err error) *FakeEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stateErrs[state] = err
	return e
}

// Script replaces the messages every new graph emits after starting. An empty
// script leaves the bus silent until the caller cancels.
func (e *FakeEngine) Script(msgs ...engine.Message) *FakeEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.script = slices.Clone(msgs)
	return e
}

// OnPlaying registers fn to run each time a graph enters StatePlaying, after
// the state change is posted and before scripted messages.
func (e *FakeEngine) OnPlaying(fn func(*FakeGraph)) *FakeEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onPlaying = fn
	return e
}

// Graphs returns the graphs created so far.
func (e *FakeEngine) Graphs() []*FakeGraph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.graphs)
}

// LastGraph returns the most recently created graph or nil.
func (e *FakeEngine) LastGraph() *FakeGraph {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.graphs) == 0 {
		return nil
	}
	return e.graphs[len(e.graphs)-1]
}

// Elements returns the elements created so far.
func (e *FakeEngine) Elements() []*FakeElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.elements)
}

// Closed reports whether Close was called.
func (e *FakeEngine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *FakeEngine) NewGraph(name string) (engine.Graph, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := &FakeGraph{
		eng:  e,
		name: name,
		bus:  &fakeBus{ch: make(chan engine.Message, 64)},
	}
	e.graphs = append(e.graphs, g)
	return g, nil
}

func (e *FakeEngine) NewElement(factory, name string) (engine.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.missing[factory] {
		return nil, fmt.Errorf("%w: no element factory %q", services.ErrEngineConstruction, factory)
	}
	if name == "" {
		name = fmt.Sprintf("%s%d", factory, e.nameCounts[factory])
		e.nameCounts[factory]++
	}
	el := &FakeElement{
		eng:     e,
		name:    name,
		factory: factory,
		props:   map[string]any{},
		pads:    map[string]*FakePad{},
	}
	e.elements = append(e.elements, el)
	return el, nil
}

func (e *FakeEngine) HasFactory(factory string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.missing[factory]
}

func (e *FakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// FakeGraph records lifecycle calls made against it.
type FakeGraph struct {
	eng *FakeEngine

	mu       sync.Mutex
	name     string
	state    engine.State
	history  []engine.State
	elements []*FakeElement
	events   []engine.Event
	bus      *fakeBus
}

func (g *FakeGraph) Name() string { return g.name }

func (g *FakeGraph) Add(elements ...engine.Element) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, el := range elements {
		fe, ok := el.(*FakeElement)
		if !ok {
			return fmt.Errorf("fake graph: foreign element %T", el)
		}
		g.elements = append(g.elements, fe)
	}
	return nil
}

func (g *FakeGraph) SetState(state engine.State) error {
	g.eng.mu.Lock()
	stateErr := g.eng.stateErrs[state]
	script := slices.Clone(g.eng.script)
	onPlaying := g.eng.onPlaying
	g.eng.mu.Unlock()

	g.mu.Lock()
	g.history = append(g.history, state)
	if stateErr != nil {
		g.mu.Unlock()
		return stateErr
	}
	old := g.state
	g.state = state
	g.mu.Unlock()

	if state == engine.StatePlaying && old != engine.StatePlaying {
		g.bus.post(engine.StateChanged{Source: g.name, Old: old, New: state})
		if onPlaying != nil {
			onPlaying(g)
		}
		for _, msg := range script {
			g.bus.post(msg)
		}
	}
	return nil
}

func (g *FakeGraph) State() engine.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *FakeGraph) SendEvent(event engine.Event) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, event)
	return true
}

func (g *FakeGraph) Bus() engine.Bus { return g.bus }

// Post injects msg onto the graph's bus.
func (g *FakeGraph) Post(msg engine.Message) { g.bus.post(msg) }

// StateHistory returns every state requested, in order.
func (g *FakeGraph) StateHistory() []engine.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.history)
}

// Events returns the events sent to the graph.
func (g *FakeGraph) Events() []engine.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.events)
}

// Element returns the first element created from factory.
func (g *FakeGraph) Element(factory string) *FakeElement {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, el := range g.elements {
		if el.factory == factory {
			return el
		}
	}
	return nil
}

// Factories lists element classes in insertion order.
func (g *FakeGraph) Factories() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.elements))
	for _, el := range g.elements {
		out = append(out, el.factory)
	}
	return out
}

type fakeBus struct {
	ch chan engine.Message
}

func (b *fakeBus) post(msg engine.Message) {
	b.ch <- msg
}

func (b *fakeBus) Pop(ctx context.Context) (engine.Message, error) {
	select {
	case msg := <-b.ch:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FakeElement records configuration and link calls.
type FakeElement struct {
	eng *FakeEngine

	mu        sync.Mutex
	name      string
	factory   string
	props     map[string]any
	profile   *engine.EncodingProfile
	pads      map[string]*FakePad
	requested []*FakePad
	released  int
	links     []string
	padAdded  []func(engine.Pad)
}

func (el *FakeElement) Name() string    { return el.name }
func (el *FakeElement) Factory() string { return el.factory }

func (el *FakeElement) Set(key string, value any) error {
	el.eng.mu.Lock()
	err := el.eng.setErrs[el.factory+"."+key]
	el.eng.mu.Unlock()
	if err != nil {
		return err
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	el.props[key] = value
	return nil
}

// Property returns a configured property value.
func (el *FakeElement) Property(key string) (any, bool) {
	el.mu.Lock()
	defer el.mu.Unlock()
	v, ok := el.props[key]
	return v, ok
}

func (el *FakeElement) SetDescriptor(profile engine.EncodingProfile) error {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.profile = &profile
	return nil
}

// Profile returns the encoding profile applied to the element.
func (el *FakeElement) Profile() (engine.EncodingProfile, bool) {
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.profile == nil {
		return engine.EncodingProfile{}, false
	}
	return *el.profile, true
}

func (el *FakeElement) StaticPad(name string) (engine.Pad, bool) {
	if name != "src" && name != "sink" {
		return nil, false
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	pad, ok := el.pads[name]
	if !ok {
		pad = NewFakePad(name, "audio/x-raw")
		el.pads[name] = pad
	}
	return pad, true
}

func (el *FakeElement) RequestPad(template string) (engine.Pad, bool) {
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.profile == nil {
		return nil, false
	}
	el.eng.mu.Lock()
	rejected := el.eng.rejected[el.profile.String()]
	el.eng.mu.Unlock()
	if rejected {
		return nil, false
	}
	pad := NewFakePad(fmt.Sprintf("%s_%d", trimTemplate(template), len(el.requested)+el.released), "audio/x-raw")
	el.requested = append(el.requested, pad)
	return pad, true
}

func (el *FakeElement) ReleaseRequestPad(pad engine.Pad) {
	el.mu.Lock()
	defer el.mu.Unlock()
	for i, p := range el.requested {
		if engine.Pad(p) == pad {
			el.requested = slices.Delete(el.requested, i, i+1)
			el.released++
			return
		}
	}
}

func (el *FakeElement) RequestedPads() int {
	el.mu.Lock()
	defer el.mu.Unlock()
	return len(el.requested)
}

func (el *FakeElement) Link(dst engine.Element) error {
	el.eng.mu.Lock()
	err := el.eng.linkErrs[el.name+"->"+dst.Name()]
	el.eng.mu.Unlock()
	if err != nil {
		return err
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	el.links = append(el.links, dst.Name())
	return nil
}

// Links returns the names of elements this element was linked to.
func (el *FakeElement) Links() []string {
	el.mu.Lock()
	defer el.mu.Unlock()
	return slices.Clone(el.links)
}

func (el *FakeElement) OnPadAdded(fn func(engine.Pad)) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.padAdded = append(el.padAdded, fn)
}

// EmitPad announces a dynamically created pad to registered callbacks.
func (el *FakeElement) EmitPad(pad *FakePad) {
	el.mu.Lock()
	callbacks := slices.Clone(el.padAdded)
	el.mu.Unlock()
	for _, fn := range callbacks {
		fn(pad)
	}
}

func trimTemplate(template string) string {
	for i := 0; i < len(template); i++ {
		if template[i] == '%' {
			return template[:max(i-1, 0)]
		}
	}
	return template
}

// FakePad is a pad whose link state is tracked in memory.
type FakePad struct {
	mu        sync.Mutex
	name      string
	mediaType string
	peer      *FakePad
	linkErr   error
}

// NewFakePad returns an unlinked pad.
func NewFakePad(name, mediaType string) *FakePad {
	return &FakePad{name: name, mediaType: mediaType}
}

// FailLink makes the next Link call from this pad fail with err.
func (p *FakePad) FailLink(err error) *FakePad {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.linkErr = err
	return p
}

func (p *FakePad) Name() string      { return p.name }
func (p *FakePad) MediaType() string { return p.mediaType }

func (p *FakePad) IsLinked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peer != nil
}

// Peer returns the pad this pad is linked to.
func (p *FakePad) Peer() *FakePad {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peer
}

var errPadLinked = errors.New("pad already linked")

func (p *FakePad) Link(sink engine.Pad) error {
	other, ok := sink.(*FakePad)
	if !ok {
		return fmt.Errorf("fake pad: foreign pad %T", sink)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.linkErr != nil {
		err := p.linkErr
		p.linkErr = nil
		return err
	}
	if p.peer != nil {
		return errPadLinked
	}
	other.mu.Lock()
	defer other.mu.Unlock()
	if other.peer != nil {
		return errPadLinked
	}
	p.peer = other
	other.peer = p
	return nil
}
