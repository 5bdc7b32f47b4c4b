package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDurationString(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, ""},
		{999, "0:00"},
		{61_000, "1:01"},
		{245_500, "4:05"},
		{3_600_000, "60:00"},
	}
	for _, tt := range tests {
		if got := (TrackDetails{DurationMS: tt.ms}).DurationString(); got != tt.want {
			t.Fatalf("DurationString(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	good := Placeholder("X", 3)
	if err := good.Validate(); err != nil {
		t.Fatalf("placeholder should validate: %v", err)
	}

	tests := []struct {
		name  string
		album AlbumDetails
		want  error
	}{
		{"no title", AlbumDetails{Tracks: good.Tracks}, ErrMissingTitle},
		{"no tracks", AlbumDetails{Title: "X"}, ErrNoTracks},
		{"gap", AlbumDetails{Title: "X", Tracks: []TrackDetails{{Number: 1, Title: "a"}, {Number: 3, Title: "b"}}}, ErrTrackOrder},
		{"zero based", AlbumDetails{Title: "X", Tracks: []TrackDetails{{Number: 0, Title: "a"}}}, ErrTrackOrder},
		{"duplicate", AlbumDetails{Title: "X", Tracks: []TrackDetails{{Number: 1, Title: "a"}, {Number: 1, Title: "b"}}}, ErrTrackOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.album.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPlaceholder(t *testing.T) {
	album := Placeholder("", 2)
	if album.Title != "Unknown Album" || len(album.Tracks) != 2 {
		t.Fatalf("unexpected placeholder %+v", album)
	}
	if album.Tracks[1].Number != 2 || album.Tracks[1].Title != "Track 2" {
		t.Fatalf("unexpected track %+v", album.Tracks[1])
	}
	if got := Placeholder("X", -1); len(got.Tracks) != 0 {
		t.Fatalf("negative count should yield no tracks")
	}
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "album.toml")
	album := AlbumDetails{
		Title:       "Kind of Blue",
		Artist:      "Miles Davis",
		ReleaseDate: "1959-08-17",
		Tracks: []TrackDetails{
			{Number: 1, Title: "So What", DurationMS: 562_000},
			{Number: 2, Title: "Freddie Freeloader", Artist: "Miles Davis"},
		},
	}
	if err := WriteAlbum(path, album); err != nil {
		t.Fatalf("WriteAlbum: %v", err)
	}
	loaded, err := LoadAlbum(path)
	if err != nil {
		t.Fatalf("LoadAlbum: %v", err)
	}
	if loaded.Title != album.Title || loaded.Artist != album.Artist || len(loaded.Tracks) != 2 {
		t.Fatalf("unexpected album %+v", loaded)
	}
	if loaded.Tracks[0].DurationString() != "9:22" {
		t.Fatalf("unexpected duration %q", loaded.Tracks[0].DurationString())
	}
}

func TestLoadAlbumRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "album.toml")
	manifest := "title = \"X\"\n\n[[tracks]]\nnumber = 2\ntitle = \"late\"\n"
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAlbum(path); !errors.Is(err, ErrTrackOrder) {
		t.Fatalf("expected track order error, got %v", err)
	}
}
