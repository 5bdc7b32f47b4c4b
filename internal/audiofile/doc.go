// Package audiofile discovers local audio files for playback and reads their
// embedded tags.
package audiofile
