package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestComputeState_NoExpiration(t *testing.T) {
	for _, now := range []time.Time{base.Add(-time.Hour), base, base.Add(1000 * time.Hour)} {
		got := ComputeState(now, base, nil)
		assert.Equal(t, State{Phase: PhaseActive, Percent: 0, Label: "No expiration"}, got)
	}
}

func TestComputeState_NotStarted(t *testing.T) {
	exp := ptr(base.Add(48 * time.Hour))

	got := ComputeState(base.Add(-time.Hour), base, exp)
	assert.Equal(t, PhaseNotStarted, got.Phase)
	assert.Equal(t, 0, got.Percent)
	assert.Equal(t, "Starts in: 0d 1h 0m", got.Label)

	got = ComputeState(base.Add(-(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 59*time.Second)), base, exp)
	assert.Equal(t, "Starts in: 2d 3h 4m", got.Label)
}

func TestComputeState_Active(t *testing.T) {
	exp := ptr(base.Add(10 * 24 * time.Hour))

	got := ComputeState(base.Add(5*24*time.Hour), base, exp)
	assert.Equal(t, PhaseActive, got.Phase)
	assert.Equal(t, 50, got.Percent)
	assert.Equal(t, "Time left: 5d 0h 0m", got.Label)

	got = ComputeState(base, base, exp)
	assert.Equal(t, PhaseActive, got.Phase)
	assert.Equal(t, 0, got.Percent)
	assert.Equal(t, "Time left: 10d 0h 0m", got.Label)
}

func TestComputeState_Expired(t *testing.T) {
	exp := ptr(base.Add(time.Hour))

	for _, now := range []time.Time{*exp, exp.Add(time.Nanosecond), exp.Add(365 * 24 * time.Hour)} {
		got := ComputeState(now, base, exp)
		assert.Equal(t, State{Phase: PhaseExpired, Percent: 100, Label: "Challenge expired"}, got)
	}
}

func TestComputeState_ExpirationNotAfterStart(t *testing.T) {
	tests := []struct {
		name string
		exp  time.Time
		now  time.Time
	}{
		{"equal, at start", base, base},
		{"equal, later", base, base.Add(time.Minute)},
		{"inverted, between", base.Add(-time.Hour), base.Add(-30 * time.Minute)},
		{"inverted, after start", base.Add(-time.Hour), base.Add(time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeState(tt.now, base, ptr(tt.exp))
			assert.GreaterOrEqual(t, got.Percent, 0)
			assert.LessOrEqual(t, got.Percent, 100)
		})
	}
}

func TestComputeState_PercentIsMonotonic(t *testing.T) {
	exp := ptr(base.Add(7*24*time.Hour + 13*time.Minute))

	prev := -1
	for now := base.Add(-2 * time.Hour); now.Before(exp.Add(2 * time.Hour)); now = now.Add(17 * time.Minute) {
		got := ComputeState(now, base, exp)
		assert.GreaterOrEqual(t, got.Percent, prev, "at %s", now)
		assert.GreaterOrEqual(t, got.Percent, 0)
		assert.LessOrEqual(t, got.Percent, 100)
		prev = got.Percent
	}
	assert.Equal(t, 100, prev)
}

func TestProgress(t *testing.T) {
	end := base.Add(3 * time.Hour)

	assert.Equal(t, 0, Progress(base.Add(-time.Hour), base, end))
	assert.Equal(t, 33, Progress(base.Add(time.Hour), base, end))
	assert.Equal(t, 67, Progress(base.Add(2*time.Hour), base, end))
	assert.Equal(t, 100, Progress(end.Add(time.Hour), base, end))
	assert.Equal(t, 100, Progress(base, base, base))
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0d 0h 0m"},
		{-time.Hour, "0d 0h 0m"},
		{59 * time.Second, "0d 0h 0m"},
		{90 * time.Minute, "0d 1h 30m"},
		{25*time.Hour + time.Minute, "1d 1h 1m"},
		{30 * 24 * time.Hour, "30d 0h 0m"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCountdown(tt.in))
		})
	}
}
