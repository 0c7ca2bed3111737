// Package color derives stable avatar colours for leaderboard entries.
package color

import (
	"fmt"
	"hash/fnv"
)

// Avatar tone. Muted enough for white initials to stay readable.
const (
	avatarSaturation = 0.45
	avatarLightness  = 0.55
)

// ForUser returns a "#RRGGBB" colour for userID. The same ID always maps to
// the same colour, so a user keeps their colour across challenges.
func ForUser(userID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	hue := float64(h.Sum32() % 360)

	r, g, b := hslToRGB(hue, avatarSaturation, avatarLightness)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// hslToRGB converts hue (0-360), saturation and lightness (0-1) to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	h /= 360.0

	if s == 0 {
		v := uint8(l*255 + 0.5)
		return v, v, v
	}

	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q

	return channel(p, q, h+1.0/3.0), channel(p, q, h), channel(p, q, h-1.0/3.0)
}

func channel(p, q, t float64) uint8 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	var v float64
	switch {
	case t < 1.0/6.0:
		v = p + (q-p)*6*t
	case t < 1.0/2.0:
		v = q
	case t < 2.0/3.0:
		v = p + (q-p)*(2.0/3.0-t)*6
	default:
		v = p
	}
	return uint8(v*255 + 0.5)
}
