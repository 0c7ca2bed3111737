// Package images derives BlurHash placeholders for uploaded progress photos.
package images

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// blurHashSize bounds the longest side of the thumbnail the hash is computed from.
// A placeholder needs no detail, and 64px keeps encoding in the millisecond range.
const blurHashSize = 64

// Components used for every hash: 4 horizontal, 3 vertical (~28 chars).
const (
	xComponents = 4
	yComponents = 3
)

// ComputeBlurHash decodes an image from r and returns its BlurHash.
func ComputeBlurHash(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	hash, err := blurhash.Encode(xComponents, yComponents, Thumbnail(img, blurHashSize))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// Thumbnail scales img so that neither side exceeds maxSide, keeping the aspect ratio.
// Images already within bounds are returned unchanged.
func Thumbnail(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}

	dw, dh := maxSide, maxSide
	if w > h {
		dh = max(h*maxSide/w, 1)
	} else {
		dw = max(w*maxSide/h, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
