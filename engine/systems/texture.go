package systems

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/resources"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DEFAULT_TEXTURE_NAME      = "default"
	DEFAULT_TEXTURE_DIMENSION = 2
)

var ErrTextureDecode = errors.New("failed to decode texture")

/**
 * @brief Creates the blue/white checkerboard used for meshes without a
 * usable diffuse texture. Generated in code so it never depends on assets.
 */
func NewDefaultTexture(dimension uint32) *resources.Texture {
	if dimension == 0 {
		dimension = DEFAULT_TEXTURE_DIMENSION
	}
	channels := uint32(4)
	pixels := bytes.Repeat([]uint8{255}, int(dimension*dimension*channels))

	// Each pixel.
	for row := uint32(0); row < dimension; row++ {
		for col := uint32(0); col < dimension; col++ {
			index := (row*dimension + col) * channels
			if row%2 == col%2 {
				pixels[index+0] = 0
				pixels[index+1] = 0
			}
		}
	}

	return &resources.Texture{
		Name:         DEFAULT_TEXTURE_NAME,
		Width:        dimension,
		Height:       dimension,
		ChannelCount: 4,
		Pixels:       pixels,
	}
}

/**
 * @brief Turns an embedded texture into RGBA pixels. Compressed payloads go
 * through DecodeImage; raw payloads must hold exactly Width*Height texels.
 */
func DecodeTexture(embedded resources.EmbeddedTexture, maxDimension uint32) (*resources.Texture, error) {
	if embedded.Compressed {
		return DecodeImage(embedded.Name, embedded.Data, maxDimension)
	}
	expected := int(embedded.Width) * int(embedded.Height) * 4
	if expected == 0 || len(embedded.Data) != expected {
		return nil, fmt.Errorf("%w: %s is %dx%d but holds %d bytes", ErrTextureDecode, embedded.Name, embedded.Width, embedded.Height, len(embedded.Data))
	}
	return &resources.Texture{
		Name:         embedded.Name,
		Width:        embedded.Width,
		Height:       embedded.Height,
		ChannelCount: 4,
		Pixels:       bytes.Clone(embedded.Data),
	}, nil
}

/**
 * @brief Decodes an encoded image (png, jpeg, bmp, tiff, webp) into RGBA
 * pixels. Images larger than maxDimension on either side are scaled down
 * keeping their aspect ratio; zero keeps the original size.
 */
func DecodeImage(name string, data []byte, maxDimension uint32) (*resources.Texture, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTextureDecode, name, err)
	}
	core.LogDebug("decoded %s texture %s (%dx%d)", format, name, src.Bounds().Dx(), src.Bounds().Dy())

	rgba := toRGBA(src, maxDimension)
	return &resources.Texture{
		Name:         name,
		Width:        uint32(rgba.Rect.Dx()),
		Height:       uint32(rgba.Rect.Dy()),
		ChannelCount: 4,
		Pixels:       rgba.Pix,
	}, nil
}

func toRGBA(src image.Image, maxDimension uint32) *image.RGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxDimension > 0 && (w > int(maxDimension) || h > int(maxDimension)) {
		if w >= h {
			h = max(1, h*int(maxDimension)/w)
			w = int(maxDimension)
		} else {
			w = max(1, w*int(maxDimension)/h)
			h = int(maxDimension)
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Rect, src, bounds, draw.Src, nil)
		return dst
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Rect, src, bounds.Min, draw.Src)
	return dst
}
