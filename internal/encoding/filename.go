package encoding

import (
	"fmt"
	"strings"

	"cdrip/internal/audio"
	"cdrip/internal/metadata"
	"cdrip/internal/textutil"
)

// UnknownArtist fills the artist slot of file names for tracks without one.
const UnknownArtist = "Unknown"

// OutputFileName returns "NN - Artist - Album - Title.ext" with path-hostile
// characters in each free-text field replaced by underscores.
func OutputFileName(track metadata.TrackDetails, album metadata.AlbumDetails, format audio.Format) string {
	artist := UnknownArtist
	if track.HasArtist() {
		artist = strings.TrimSpace(track.Artist)
	}
	return fmt.Sprintf("%02d - %s - %s - %s.%s",
		track.Number,
		textutil.SanitizeFileName(artist),
		textutil.SanitizeFileName(album.Title),
		textutil.SanitizeFileName(track.Title),
		format.Extension(),
	)
}
