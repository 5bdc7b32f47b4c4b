package audiofile

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Extensions lists the file extensions recognized as playable audio.
var Extensions = []string{"mp3", "wav", "flac", "ogg", "m4a", "aac", "opus"}

// File is an audio file found on disk.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Name returns the base file name.
func (f File) Name() string {
	return filepath.Base(f.Path)
}

// IsAudioFile reports whether path has a recognized audio extension, ignoring case.
func IsAudioFile(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	return slices.Contains(Extensions, strings.ToLower(ext))
}

// List returns the audio files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func List(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsAudioFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, File{
			Path:    filepath.Join(dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	slices.SortFunc(files, func(a, b File) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return files, nil
}
