// Package gstreamer adapts go-gst to the engine interfaces. The backend is
// compiled only with the gstreamer build tag since it needs cgo and the
// GStreamer development headers.
package gstreamer
