package audiofile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

var errNoAudioStream = errors.New("no audio stream found")

// Tags is the metadata read back from an audio file.
type Tags struct {
	Title       string
	Artist      string
	Album       string
	Genre       string
	TrackNumber int
}

// taglibFallback lists the extensions TagLib is tried for when dhowden/tag
// cannot parse a file.
var taglibFallback = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".m4a":  true,
	".mp4":  true,
	".wv":   true,
}

// ReadTags reads metadata from path. TagLib is tried when dhowden/tag cannot
// parse a file of a format TagLib knows, and only if TagLib finds an audio
// stream in it.
func ReadTags(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if !taglibFallback[strings.ToLower(filepath.Ext(path))] {
			return Tags{}, fmt.Errorf("read tags %s: %w", path, err)
		}
		fallback, fbErr := readWithTaglib(path)
		if fbErr != nil {
			return Tags{}, fmt.Errorf("read tags %s: %w (taglib: %w)", path, err, fbErr)
		}
		return fallback, nil
	}

	track, _ := m.Track()
	return Tags{
		Title:       m.Title(),
		Artist:      m.Artist(),
		Album:       m.Album(),
		Genre:       m.Genre(),
		TrackNumber: track,
	}, nil
}

func readWithTaglib(path string) (Tags, error) {
	props, err := taglib.ReadProperties(path)
	if err != nil {
		return Tags{}, err
	}
	if props.SampleRate == 0 || props.Channels == 0 {
		return Tags{}, errNoAudioStream
	}
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return Tags{}, err
	}
	tags := taglibTags(raw)
	return Tags{
		Title:       tags.get(taglib.Title),
		Artist:      tags.get(taglib.Artist, taglib.AlbumArtist),
		Album:       tags.get(taglib.Album),
		Genre:       tags.get(taglib.Genre),
		TrackNumber: tags.trackNumber(),
	}, nil
}

type taglibTags map[string][]string

// get returns the first value for any of keys.
func (t taglibTags) get(keys ...string) string {
	for _, key := range keys {
		if values, ok := t[key]; ok && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// trackNumber accepts both "N" and "N/M".
func (t taglibTags) trackNumber() int {
	s := t.get(taglib.TrackNumber)
	if idx := strings.Index(s, "/"); idx > 0 {
		s = s[:idx]
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
