package metadata

import (
	"errors"
	"fmt"
	"strings"
)

// TrackDetails describes one album track. Empty strings and zero values mean
// the field is unknown.
type TrackDetails struct {
	Number           int    `toml:"number"`
	Title            string `toml:"title"`
	DurationMS       int    `toml:"duration_ms,omitempty"`
	Artist           string `toml:"artist,omitempty"`
	ArtistSortName   string `toml:"artist_sortname,omitempty"`
	ArtistID         string `toml:"artist_id,omitempty"`
	TrackID          string `toml:"track_id,omitempty"`
	Composer         string `toml:"composer,omitempty"`
	ComposerSortName string `toml:"composer_sortname,omitempty"`
}

// DurationString renders the duration as m:ss, or "" when unknown.
func (t TrackDetails) DurationString() string {
	if t.DurationMS <= 0 {
		return ""
	}
	seconds := t.DurationMS / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// HasArtist reports whether a track artist is known.
func (t TrackDetails) HasArtist() bool {
	return strings.TrimSpace(t.Artist) != ""
}

// AlbumDetails describes a disc release. Tracks are in disc playback order.
type AlbumDetails struct {
	AlbumID          string         `toml:"album_id,omitempty"`
	Title            string         `toml:"title"`
	Artist           string         `toml:"artist,omitempty"`
	ArtistSortName   string         `toml:"artist_sortname,omitempty"`
	ArtistID         string         `toml:"artist_id,omitempty"`
	ReleaseDate      string         `toml:"release_date,omitempty"`
	Country          string         `toml:"country,omitempty"`
	DiscNumber       int            `toml:"disc_number,omitempty"`
	DiscCount        int            `toml:"disc_count,omitempty"`
	Barcode          string         `toml:"barcode,omitempty"`
	Composer         string         `toml:"composer,omitempty"`
	ComposerSortName string         `toml:"composer_sortname,omitempty"`
	Tracks           []TrackDetails `toml:"tracks"`
}

var (
	ErrMissingTitle = errors.New("album title is required")
	ErrNoTracks     = errors.New("album has no tracks")
	ErrTrackOrder   = errors.New("track numbers must start at 1 and increase by one")
)

// Validate checks the album invariants: a title, at least one track, every
// track titled, and track numbers 1..N in order.
func (a AlbumDetails) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrMissingTitle
	}
	if len(a.Tracks) == 0 {
		return ErrNoTracks
	}
	for i, track := range a.Tracks {
		if track.Number != i+1 {
			return fmt.Errorf("%w: position %d has track %d", ErrTrackOrder, i+1, track.Number)
		}
		if strings.TrimSpace(track.Title) == "" {
			return fmt.Errorf("track %d: title is required", track.Number)
		}
	}
	return nil
}

// Track returns the track with the given number.
func (a AlbumDetails) Track(number int) (TrackDetails, bool) {
	for _, t := range a.Tracks {
		if t.Number == number {
			return t, true
		}
	}
	return TrackDetails{}, false
}

// Placeholder builds an album whose tracks are titled "Track N". It stands in
// for resolved metadata when only the disc's track count is known.
func Placeholder(title string, count int) AlbumDetails {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Unknown Album"
	}
	album := AlbumDetails{Title: title, Tracks: make([]TrackDetails, 0, max(count, 0))}
	for n := 1; n <= count; n++ {
		album.Tracks = append(album.Tracks, TrackDetails{Number: n, Title: fmt.Sprintf("Track %d", n)})
	}
	return album
}
