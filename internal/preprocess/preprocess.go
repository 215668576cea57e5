// Package preprocess turns uploaded image bytes into the normalized CHW
// float tensor the classifier expects.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/Brownie44l1/trash-api/internal/model"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	mean = [model.Channels]float32{0.485, 0.456, 0.406}
	std  = [model.Channels]float32{0.229, 0.224, 0.225}
)

var (
	// ErrInvalidImage means the header does not identify an image of a known
	// format, or declares an unusable size.
	ErrInvalidImage = errors.New("not a valid image")
	// ErrOpenImage means the header was readable but the pixel data was not,
	// for example a truncated or corrupted body.
	ErrOpenImage = errors.New("could not open image")
)

// Decode reads an image of any registered format and flattens it to opaque
// RGB. Images declaring more than maxPixels pixels are rejected before their
// pixel data is decoded.
func Decode(data []byte, maxPixels int64) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("%w: decoder panic: %v", ErrOpenImage, r)
		}
	}()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels || pixels == 0 {
		return nil, fmt.Errorf("%w: %s image is %dx%d", ErrInvalidImage, format, cfg.Width, cfg.Height)
	}

	decoded, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenImage, format, err)
	}
	return toRGB(decoded), nil
}

// toRGB drops the alpha channel, keeping the straight color values.
func toRGB(img image.Image) *image.NRGBA {
	rgb := imaging.Clone(img)
	for i := 3; i < len(rgb.Pix); i += 4 {
		rgb.Pix[i] = 0xff
	}
	return rgb
}

// Tensor resizes img to the model's input resolution and returns its pixels
// as a model.InputLen tensor in CHW order, normalized per channel.
func Tensor(img image.Image) []float32 {
	const size = model.ImageSize
	resized := resize.Resize(size, size, img, resize.Bilinear)

	bounds := resized.Bounds()
	plane := size * size
	inputData := make([]float32, model.InputLen)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			pixelIndex := y*size + x
			inputData[pixelIndex] = normalize(r, 0)
			inputData[plane+pixelIndex] = normalize(g, 1)
			inputData[2*plane+pixelIndex] = normalize(b, 2)
		}
	}
	return inputData
}

func normalize(v uint32, channel int) float32 {
	return (float32(v)/65535.0 - mean[channel]) / std[channel]
}
