// Package timer derives the display state of a challenge from its start and
// expiration times. Everything here is pure and safe to call per request.
package timer

import (
	"fmt"
	"math"
	"time"
)

// Phase is the lifecycle position of a challenge relative to now.
type Phase string

const (
	PhaseNotStarted Phase = "not-started"
	PhaseActive     Phase = "active"
	PhaseExpired    Phase = "expired"
)

// Labels shown for the open-ended and finished cases.
const (
	LabelNoExpiration = "No expiration"
	LabelExpired      = "Challenge expired"
)

// State is the derived timer view of a challenge.
type State struct {
	Phase Phase `json:"phase"`
	// Percent is elapsed progress in [0, 100].
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}

// ComputeState returns the phase, progress and countdown label of a challenge
// at now. A nil expiration means the challenge never ends.
func ComputeState(now, start time.Time, expiration *time.Time) State {
	if expiration == nil {
		return State{Phase: PhaseActive, Percent: 0, Label: LabelNoExpiration}
	}

	if now.Before(start) {
		return State{
			Phase:   PhaseNotStarted,
			Percent: 0,
			Label:   "Starts in: " + FormatCountdown(start.Sub(now)),
		}
	}

	if !now.Before(*expiration) {
		return State{Phase: PhaseExpired, Percent: 100, Label: LabelExpired}
	}

	return State{
		Phase:   PhaseActive,
		Percent: Progress(now, start, *expiration),
		Label:   "Time left: " + FormatCountdown(expiration.Sub(now)),
	}
}

// Progress is the rounded percentage of [start, expiration] elapsed at now,
// clamped to [0, 100]. An empty or inverted window counts as complete.
func Progress(now, start, expiration time.Time) int {
	total := expiration.Sub(start)
	if total <= 0 {
		return 100
	}
	elapsed := now.Sub(start)
	pct := math.Round(float64(elapsed) / float64(total) * 100)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return int(pct)
	}
}

// FormatCountdown renders d as "{days}d {hours}h {minutes}m", truncating each unit.
// Negative durations render as zero.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}
