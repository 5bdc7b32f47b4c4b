package deps

import (
	"fmt"
	"strings"

	"cdrip/internal/engine"
)

// ElementRequirement names a media-engine element factory.
type ElementRequirement struct {
	Factory     string
	Description string
	Optional    bool
}

// CheckElements asks the engine whether each factory is installed. The
// gst-inspect-1.0 hint in Detail points at the plugin set to look in.
func CheckElements(eng engine.Engine, requirements []ElementRequirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		factory := strings.TrimSpace(req.Factory)
		status := Status{
			Name:        factory,
			Command:     factory,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case factory == "":
			status.Detail = "element not configured"
		case eng == nil:
			status.Detail = "media engine unavailable"
		case eng.HasFactory(factory):
			status.Available = true
		default:
			status.Detail = fmt.Sprintf("element %q not registered (check with gst-inspect-1.0 %s)", factory, factory)
		}
		results = append(results, status)
	}
	return results
}
