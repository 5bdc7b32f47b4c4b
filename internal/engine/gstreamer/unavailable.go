//go:build !gstreamer

package gstreamer

import (
	"fmt"

	"cdrip/internal/engine"
	"cdrip/internal/services"
)

// Available reports whether this binary was built with the GStreamer backend.
func Available() bool { return false }

// Open fails because the binary was built without the gstreamer build tag.
func Open() (engine.Engine, error) {
	return nil, fmt.Errorf("%w: GStreamer backend not compiled in; rebuild with -tags gstreamer",
		services.ErrEngineConstruction)
}
