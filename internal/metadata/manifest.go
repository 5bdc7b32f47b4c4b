package metadata

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadAlbum reads an album manifest in TOML form and validates it.
func LoadAlbum(path string) (AlbumDetails, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AlbumDetails{}, fmt.Errorf("read album manifest: %w", err)
	}
	var album AlbumDetails
	if err := toml.Unmarshal(data, &album); err != nil {
		return AlbumDetails{}, fmt.Errorf("parse album manifest %s: %w", path, err)
	}
	if err := album.Validate(); err != nil {
		return AlbumDetails{}, fmt.Errorf("album manifest %s: %w", path, err)
	}
	return album, nil
}

// WriteAlbum stores album as a TOML manifest that LoadAlbum can read back.
func WriteAlbum(path string, album AlbumDetails) error {
	data, err := toml.Marshal(album)
	if err != nil {
		return fmt.Errorf("encode album manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write album manifest: %w", err)
	}
	return nil
}
