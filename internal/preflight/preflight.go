package preflight

import (
	"context"
	"fmt"

	"cdrip/internal/config"
	"cdrip/internal/deps"
	"cdrip/internal/engine"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for the given config. The output
// directory is always checked; the state directory only when history is on.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir)}
	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}
	return results
}

// FromStatuses folds dependency statuses into results so callers can render
// a single list. Optional dependencies pass with a note when absent.
func FromStatuses(statuses []deps.Status) []Result {
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Description
		} else if status.Optional {
			result.Passed = true
			result.Detail = fmt.Sprintf("optional: %s", status.Detail)
		}
		results = append(results, result)
	}
	return results
}

// Ready runs every check that gates a rip and returns the failures.
func Ready(ctx context.Context, eng engine.Engine, cfg *config.Config) []Result {
	var failed []Result
	all := RunAll(ctx, cfg)
	all = append(all, FromStatuses(CheckEngineElements(eng, cfg))...)
	for _, result := range all {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
