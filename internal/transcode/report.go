package transcode

import (
	"fmt"
	"time"

	"cdrip/internal/audio"
	"cdrip/internal/history"
	"cdrip/internal/metadata"
)

// TrackOutcome is the result of encoding one track.
type TrackOutcome struct {
	Track     metadata.TrackDetails
	Path      string
	Err       error
	Cancelled bool
	Duration  time.Duration
}

// Succeeded reports whether the track was encoded.
func (o TrackOutcome) Succeeded() bool {
	return o.Err == nil && !o.Cancelled
}

// Status returns the history status of the outcome.
func (o TrackOutcome) Status() string {
	switch {
	case o.Cancelled:
		return history.TrackCancelled
	case o.Err != nil:
		return history.TrackFailed
	default:
		return history.TrackSucceeded
	}
}

// Report accumulates per-track outcomes for one batch.
type Report struct {
	BatchID   string
	Album     string
	Format    audio.Format
	OutputDir string
	Tracks    []TrackOutcome
	StartedAt time.Time
	Elapsed   time.Duration
}

// Total returns the number of tracks in the batch.
func (r Report) Total() int { return len(r.Tracks) }

// Succeeded returns the number of encoded tracks.
func (r Report) Succeeded() int {
	n := 0
	for _, t := range r.Tracks {
		if t.Succeeded() {
			n++
		}
	}
	return n
}

// Failed returns the outcomes that ended in an error.
func (r Report) Failed() []TrackOutcome {
	var failed []TrackOutcome
	for _, t := range r.Tracks {
		if t.Err != nil && !t.Cancelled {
			failed = append(failed, t)
		}
	}
	return failed
}

// Cancelled reports whether any track was skipped by cancellation.
func (r Report) Cancelled() bool {
	for _, t := range r.Tracks {
		if t.Cancelled {
			return true
		}
	}
	return false
}

// Summary renders "N of M tracks succeeded".
func (r Report) Summary() string {
	return fmt.Sprintf("%d of %d tracks succeeded", r.Succeeded(), r.Total())
}

// Status returns the history status of the batch.
func (r Report) Status() string {
	succeeded := r.Succeeded()
	switch {
	case r.Cancelled():
		return history.BatchCancelled
	case succeeded == r.Total():
		return history.BatchCompleted
	case succeeded == 0:
		return history.BatchFailed
	default:
		return history.BatchPartial
	}
}
