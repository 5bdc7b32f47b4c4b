package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrEngineConstruction = errors.New("engine construction failure")
	ErrLink               = errors.New("link failure")
	ErrRuntime            = errors.New("runtime fault")
	ErrPrecondition       = errors.New("precondition failure")
	ErrConfiguration      = errors.New("configuration error")
	ErrExternalTool       = errors.New("external tool error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrRuntime
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short, stable label for the failure category of err. It is
// what the history store persists and what the CLI prints next to failed tracks.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported-format"
	case errors.Is(err, ErrEngineConstruction):
		return "engine-construction"
	case errors.Is(err, ErrLink):
		return "link"
	case errors.Is(err, ErrRuntime):
		return "runtime"
	case errors.Is(err, ErrPrecondition):
		return "precondition"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrExternalTool):
		return "external-tool"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
