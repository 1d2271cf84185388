package embeddings

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DecodeImage decodes jpeg, png, gif or webp bytes into an opaque RGB image.
// Alpha is discarded rather than composited, so the colour channels keep their stored values.
func DecodeImage(data []byte) (image.Image, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("decode image: %s image has no pixels", format)
	}

	rgb := image.NewNRGBA(b)
	draw.Draw(rgb, b, src, b.Min, draw.Src)

	for i := 3; i < len(rgb.Pix); i += 4 {
		rgb.Pix[i] = 0xff
	}

	return rgb, nil
}
