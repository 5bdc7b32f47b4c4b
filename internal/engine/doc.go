// Package engine defines the media-graph capability cdrip builds on: element
// factories, pads, graphs with a message bus, and Job, which drives one graph
// from start to an idle state.
//
// The concrete GStreamer backend lives in engine/gstreamer. Tests use the
// in-memory FakeEngine from internal/testsupport.
package engine
