package preflight

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"cdrip/internal/config"
	"cdrip/internal/deps"
	"cdrip/internal/disc"
	"cdrip/internal/engine"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDrive reports whether the configured drive holds a readable disc.
func CheckDrive(device string) Result {
	const name = "Optical drive"
	device = strings.TrimSpace(device)
	if device == "" {
		return Result{Name: name, Passed: true, Detail: "default device (not probed)"}
	}
	status, err := disc.CheckDriveStatus(device)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if status != disc.DriveStatusDiscOK {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", device, status)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (disc loaded)", device)}
}

// CheckSystemDeps evaluates the external binaries used for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "gst-inspect-1.0",
			Command:     "gst-inspect-1.0",
			Description: "Lists installed GStreamer plugins when diagnosing missing elements",
			Optional:    true,
		},
		{
			Name:        "eject",
			Command:     "eject",
			Description: "Opens the drive tray after a rip",
			Optional:    cfg == nil || !cfg.Drive.EjectAfterRip,
		},
	}
	return deps.CheckBinaries(requirements)
}

// CheckEngineElements verifies that every element factory the rip and
// playback graphs are built from is installed.
func CheckEngineElements(eng engine.Engine, cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	requirements := []deps.ElementRequirement{
		{Factory: cfg.Encoding.SourceElement, Description: "Reads audio tracks from the disc for ripping"},
		{Factory: "audiorate", Description: "Fills gaps in the ripped stream"},
		{Factory: "audioconvert", Description: "Converts sample formats"},
		{Factory: "audioresample", Description: "Resamples to the encoder rate"},
		{Factory: "encodebin", Description: "Builds encoder and muxer chains"},
		{Factory: "filesink", Description: "Writes encoded files"},
		{Factory: cfg.Playback.SourceElement, Description: "Reads audio tracks for CD playback", Optional: true},
		{Factory: "queue", Description: "Buffers CD playback", Optional: true},
		{Factory: "filesrc", Description: "Reads audio files for playback", Optional: true},
		{Factory: cfg.Playback.DecoderElement, Description: "Decodes audio files for playback", Optional: true},
		{Factory: cfg.Playback.SinkElement, Description: "Plays audio on the default output", Optional: true},
	}
	return deps.CheckElements(eng, requirements)
}
