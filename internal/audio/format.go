package audio

import (
	"fmt"
	"strings"

	"cdrip/internal/services"
)

// Format is an output audio format.
type Format int

const (
	Opus Format = iota
	Vorbis
	FLAC
	MP3
	AAC
	WavPack
)

// AllFormats returns every known format in display order. The first entry is
// the default selection.
func AllFormats() []Format {
	return []Format{Opus, Vorbis, FLAC, MP3, AAC, WavPack}
}

// Extension returns the output file extension without the leading dot.
func (f Format) Extension() string {
	switch f {
	case Opus:
		return "opus"
	case Vorbis:
		return "ogg"
	case FLAC:
		return "flac"
	case MP3:
		return "mp3"
	case AAC:
		return "m4a"
	case WavPack:
		return "wv"
	}
	panic(unknownFormat(f))
}

// Name returns the human readable format name.
func (f Format) Name() string {
	switch f {
	case Opus:
		return "Opus"
	case Vorbis:
		return "Ogg Vorbis"
	case FLAC:
		return "FLAC"
	case MP3:
		return "MP3"
	case AAC:
		return "AAC"
	case WavPack:
		return "WavPack"
	}
	panic(unknownFormat(f))
}

// Key is the stable lowercase identifier used in config files and history.
func (f Format) Key() string {
	switch f {
	case Opus:
		return "opus"
	case Vorbis:
		return "vorbis"
	case FLAC:
		return "flac"
	case MP3:
		return "mp3"
	case AAC:
		return "aac"
	case WavPack:
		return "wavpack"
	}
	panic(unknownFormat(f))
}

// IsLossless reports whether the format preserves the source audio exactly.
func (f Format) IsLossless() bool {
	switch f {
	case FLAC, WavPack:
		return true
	case Opus, Vorbis, MP3, AAC:
		return false
	}
	panic(unknownFormat(f))
}

// Valid reports whether f is one of the declared formats.
func (f Format) Valid() bool {
	return f >= Opus && f <= WavPack
}

func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return f.Name()
}

// ParseFormat resolves a key, extension or display name, ignoring case.
func ParseFormat(value string) (Format, error) {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle != "" {
		for _, f := range AllFormats() {
			if needle == f.Key() || needle == f.Extension() || needle == strings.ToLower(f.Name()) {
				return f, nil
			}
		}
	}
	keys := make([]string, 0, len(AllFormats()))
	for _, f := range AllFormats() {
		keys = append(keys, f.Key())
	}
	return 0, fmt.Errorf("%w: unknown audio format %q (expected one of %s)",
		services.ErrConfiguration, value, strings.Join(keys, ", "))
}

func unknownFormat(f Format) string {
	return fmt.Sprintf("audio: undeclared format %d", int(f))
}
