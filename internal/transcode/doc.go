// Package transcode rips every track of an album into one output format.
//
// Manager.TranscodeAlbum walks the album in order and encodes each track
// through an encoding.Encoder. A failing track is logged and recorded in the
// Report and the batch moves on; only preconditions (an output directory that
// cannot be created, a busy drive, an unknown format) fail the call itself.
// Cancelling the context stops the batch between tracks.
//
// History, notifications, the drive lock and the post-rip eject are optional
// collaborators supplied through Options.
package transcode
