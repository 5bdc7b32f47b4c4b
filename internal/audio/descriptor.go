package audio

import "cdrip/internal/engine"

// Descriptor is the container and stream capability pair an encoding element
// must produce for a format.
type Descriptor struct {
	Container string
	Stream    string
}

// Descriptor returns the encoding descriptor for f. It is total over the
// declared formats.
func (f Format) Descriptor() Descriptor {
	switch f {
	case Opus:
		return Descriptor{Container: "application/ogg", Stream: "audio/x-opus"}
	case Vorbis:
		return Descriptor{Container: "application/ogg", Stream: "audio/x-vorbis"}
	case FLAC:
		return Descriptor{Container: "audio/x-flac", Stream: "audio/x-flac"}
	case MP3:
		return Descriptor{Container: "application/x-id3", Stream: "audio/mpeg,mpegversion=(int)1,layer=(int)3"}
	case AAC:
		return Descriptor{Container: "video/quicktime,variant=(string)iso", Stream: "audio/mpeg,mpegversion=(int)4"}
	case WavPack:
		return Descriptor{Container: "audio/x-wavpack", Stream: "audio/x-wavpack"}
	}
	panic(unknownFormat(f))
}

// Profile converts the descriptor to the engine's encoding profile.
func (d Descriptor) Profile() engine.EncodingProfile {
	return engine.EncodingProfile{ContainerCaps: d.Container, StreamCaps: d.Stream}
}

func (d Descriptor) String() string {
	return d.Profile().String()
}
