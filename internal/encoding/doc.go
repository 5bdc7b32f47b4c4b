// Package encoding rips one CD track into an encoded audio file.
//
// EncodeTrack builds the graph
//
//	cdparanoiasrc -> audiorate -> audioconvert -> audioresample -> encodebin -> filesink
//
// configures encodebin with the format's encoding profile, requests its audio
// input pad, tags the stream and runs the graph to completion through an
// engine.Job. The encodebin pad request is the step that fails when the
// plugins for a format are missing, so it is reported as
// services.ErrUnsupportedFormat rather than a link failure.
//
// OutputFileName is the single source of truth for file names; the transcode
// manager and the CLI both call it.
package encoding
