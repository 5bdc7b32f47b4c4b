package engine

import "context"

// Bus delivers graph messages in emission order.
type Bus interface {
	// Pop blocks until the next message arrives or ctx is done.
	Pop(ctx context.Context) (Message, error)
}

// Message is a notification emitted on a graph's bus.
type Message interface {
	isMessage()
}

// EOS marks the end of the stream.
type EOS struct {
	Source string
}

// ErrorMessage reports a fatal element failure.
type ErrorMessage struct {
	Source string
	Err    error
	Debug  string
}

// WarningMessage reports a recoverable element problem.
type WarningMessage struct {
	Source string
	Err    error
	Debug  string
}

// StateChanged reports an element or graph state transition. Source is the
// graph name when the graph itself changed state.
type StateChanged struct {
	Source string
	Old    State
	New    State
}

// TagMessage carries stream metadata discovered by an element.
type TagMessage struct {
	Source string
	Tags   Tags
}

func (EOS) isMessage()            {}
func (ErrorMessage) isMessage()   {}
func (WarningMessage) isMessage() {}
func (StateChanged) isMessage()   {}
func (TagMessage) isMessage()     {}

// Tags is the metadata subset cdrip reads and writes.
type Tags struct {
	Title       string
	Artist      string
	Album       string
	Genre       string
	TrackNumber int
}

// Empty reports whether no field is set.
func (t Tags) Empty() bool {
	return t == Tags{}
}

// Event travels downstream through a graph.
type Event interface {
	isEvent()
}

// TagEvent attaches metadata to the stream so muxers write it into the output.
type TagEvent struct {
	Tags Tags
}

func (TagEvent) isEvent() {}
