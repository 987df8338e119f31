package builder

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// FromImage encodes a decoded image as PNG so it can be embedded by any
// Canvas. Transparency is preserved through the PNG alpha channel.
func FromImage(name string, src image.Image) (*Image, error) {
	if src == nil {
		return nil, fmt.Errorf("image %s: nil source", name)
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image %s: empty bounds", name)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return &Image{
		Name:   name,
		Format: "PNG",
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// Fit scales an image box of w×h to fit inside maxW×maxH, preserving the
// aspect ratio.
func Fit(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}
