package lblannotate

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // Register the decoders accepted by the labeling services.
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// decodeImage decodes the encoded image in data, applies the EXIF orientation and returns it as
// an RGBA image with its origin at (0, 0), ready to be drawn on.
func decodeImage(data []byte) (*image.RGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}
