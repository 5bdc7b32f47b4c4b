package disc

import (
	"context"
	"os/exec"
	"strings"

	"cdrip/internal/services"
)

// Ejector defines disc eject operations.
type Ejector interface {
	Eject(ctx context.Context, device string) error
}

type commandEjector struct {
	binary string
}

// NewEjector creates an ejector that shells out to the eject utility.
func NewEjector() Ejector {
	return commandEjector{binary: "eject"}
}

func (e commandEjector) Eject(ctx context.Context, device string) error {
	args := []string{}
	if device = strings.TrimSpace(device); device != "" {
		args = append(args, device)
	}
	cmd := exec.CommandContext(ctx, e.binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = "eject failed"
		}
		return services.Wrap(services.ErrExternalTool, "disc", "eject "+device, detail, err)
	}
	return nil
}
