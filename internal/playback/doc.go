// Package playback plays a disc track or an audio file to the system output.
//
// Both players hand their graph to an engine.Job, so the graph is back in the
// null state on every exit path: end of stream, an engine error, or
// cancellation of the context passed to Play. Cancellation is how callers
// stop playback and is not reported as an error.
//
// File playback links the decoder's dynamic pads through padLinker, which
// accepts the first audio pad and ignores every other pad.
package playback
