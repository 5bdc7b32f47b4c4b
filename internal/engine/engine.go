package engine

import (
	"fmt"

	"cdrip/internal/services"
)

// State is the lifecycle state of a graph.
type State int

const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EncodingProfile names the container and stream capabilities an encoding
// element is asked to produce.
type EncodingProfile struct {
	ContainerCaps string
	StreamCaps    string
}

// String renders the profile in the engine's "container:stream" serialization.
func (p EncodingProfile) String() string {
	return p.ContainerCaps + ":" + p.StreamCaps
}

// Engine instantiates processing elements and graphs by element class name.
type Engine interface {
	NewGraph(name string) (Graph, error)
	// NewElement returns an error wrapping services.ErrEngineConstruction when
	// the factory is unavailable.
	NewElement(factory, name string) (Element, error)
	HasFactory(factory string) bool
	Close() error
}

// Element is a single processing node.
type Element interface {
	Name() string
	Factory() string
	Set(key string, value any) error
	SetDescriptor(profile EncodingProfile) error
	StaticPad(name string) (Pad, bool)
	// RequestPad asks the element for a new pad from template. The boolean is
	// false when the element cannot satisfy the request.
	RequestPad(template string) (Pad, bool)
	ReleaseRequestPad(pad Pad)
	Link(dst Element) error
	// OnPadAdded registers fn for dynamically created pads. fn may run on an
	// engine thread.
	OnPadAdded(fn func(Pad))
	// RequestedPads reports outstanding request pads.
	RequestedPads() int
}

// Pad is a connection point on an element.
type Pad interface {
	Name() string
	// MediaType is the leading capability name, e.g. "audio/x-raw".
	MediaType() string
	IsLinked() bool
	Link(sink Pad) error
}

// Graph is a container of linked elements with a single lifecycle.
type Graph interface {
	Name() string
	Add(elements ...Element) error
	SetState(state State) error
	State() State
	SendEvent(event Event) bool
	Bus() Bus
}

// LinkChain links elements pairwise in order. Failures wrap services.ErrLink.
func LinkChain(stage string, elements ...Element) error {
	for i := 0; i+1 < len(elements); i++ {
		src, dst := elements[i], elements[i+1]
		if err := src.Link(dst); err != nil {
			return services.Wrap(
				services.ErrLink,
				stage,
				"link",
				fmt.Sprintf("%s -> %s", src.Name(), dst.Name()),
				err,
			)
		}
	}
	return nil
}

// BuildElements instantiates one element per spec and adds them to graph.
func BuildElements(eng Engine, graph Graph, stage string, specs ...ElementSpec) ([]Element, error) {
	elements := make([]Element, 0, len(specs))
	for _, spec := range specs {
		el, err := eng.NewElement(spec.Factory, spec.Name)
		if err != nil {
			return nil, services.Wrap(
				services.ErrEngineConstruction,
				stage,
				"create element",
				spec.Factory,
				err,
			)
		}
		for _, prop := range spec.Properties {
			if err := el.Set(prop.Key, prop.Value); err != nil {
				return nil, services.Wrap(
					services.ErrEngineConstruction,
					stage,
					"configure element",
					fmt.Sprintf("%s.%s", spec.Factory, prop.Key),
					err,
				)
			}
		}
		elements = append(elements, el)
	}
	if err := graph.Add(elements...); err != nil {
		return nil, services.Wrap(services.ErrEngineConstruction, stage, "add elements", "", err)
	}
	return elements, nil
}

// ElementSpec describes one element to instantiate.
type ElementSpec struct {
	Factory    string
	Name       string
	Properties []Property
}

// Property is an ordered element configuration value.
type Property struct {
	Key   string
	Value any
}
