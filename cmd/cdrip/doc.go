// Command cdrip rips audio CDs to Opus, Vorbis, FLAC, MP3, AAC or WavPack,
// plays disc tracks and audio files, and reports on past rips.
//
// The media engine is GStreamer and is only compiled in with the gstreamer
// build tag; without it, commands that need the engine explain how to
// rebuild. Interrupting a command (Ctrl+C) cancels its context: playback
// stops cleanly and a rip finishes its current track before stopping.
package main
