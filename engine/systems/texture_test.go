package systems

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/spaghettifunk/anima-ar/engine/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 30, A: 255})
		}
	}
	return img
}

func TestDefaultTextureIsCheckerboard(t *testing.T) {
	t.Parallel()

	tex := NewDefaultTexture(0)
	require.Equal(t, uint32(DEFAULT_TEXTURE_DIMENSION), tex.Width)
	require.Len(t, tex.Pixels, 2*2*4)

	blue := []uint8{0, 0, 255, 255}
	white := []uint8{255, 255, 255, 255}
	assert.Equal(t, blue, tex.Pixels[0:4])
	assert.Equal(t, white, tex.Pixels[4:8])
	assert.Equal(t, white, tex.Pixels[8:12])
	assert.Equal(t, blue, tex.Pixels[12:16])
}

func TestDecodeCompressedTextures(t *testing.T) {
	t.Parallel()

	encoders := map[string]func(*bytes.Buffer, image.Image) error{
		"png": func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) },
		"bmp": func(b *bytes.Buffer, img image.Image) error { return bmp.Encode(b, img) },
	}
	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encode(&buf, testImage(3, 2)))

			tex, err := DecodeTexture(resources.EmbeddedTexture{Name: name, Compressed: true, Data: buf.Bytes()}, 0)
			require.NoError(t, err)
			assert.Equal(t, uint32(3), tex.Width)
			assert.Equal(t, uint32(2), tex.Height)
			assert.Equal(t, uint8(4), tex.ChannelCount)
			assert.Equal(t, []uint8{200, 10, 30, 255}, tex.Pixels[0:4])
		})
	}
}

func TestDecodeScalesLargeTextures(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(64, 16)))

	tex, err := DecodeImage("wide", buf.Bytes(), 32)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), tex.Width)
	assert.Equal(t, uint32(8), tex.Height)
	assert.Len(t, tex.Pixels, 32*8*4)
}

func TestDecodeRawTexture(t *testing.T) {
	t.Parallel()

	raw := []uint8{1, 2, 3, 4, 5, 6, 7, 8}
	tex, err := DecodeTexture(resources.EmbeddedTexture{Name: "raw", Width: 2, Height: 1, Data: raw}, 0)
	require.NoError(t, err)
	assert.Equal(t, raw, tex.Pixels)

	raw[0] = 99
	assert.Equal(t, uint8(1), tex.Pixels[0])

	_, err = DecodeTexture(resources.EmbeddedTexture{Name: "short", Width: 2, Height: 2, Data: raw}, 0)
	assert.ErrorIs(t, err, ErrTextureDecode)
}

func TestDecodeGarbage(t *testing.T) {
	t.Parallel()

	_, err := DecodeTexture(resources.EmbeddedTexture{Name: "junk", Compressed: true, Data: []byte("junk")}, 0)
	assert.ErrorIs(t, err, ErrTextureDecode)

	_, err = DecodeImage("junk", []byte("junk"), 0)
	assert.ErrorIs(t, err, ErrTextureDecode)

	_, err = DecodeTexture(resources.EmbeddedTexture{Name: "flat", Width: 4, Data: make([]byte, 16)}, 0)
	assert.ErrorIs(t, err, ErrTextureDecode)
}

func TestDecodeImageIgnoresSizeFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(3, 2)))

	// a compressed texture whose size fields carry stale values
	tex, err := DecodeTexture(resources.EmbeddedTexture{Name: "stale", Width: 7, Height: 9, Compressed: true, Data: buf.Bytes()}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), tex.Width)
	assert.Equal(t, uint32(2), tex.Height)

	fromFile, err := DecodeImage("textures/wood.png", buf.Bytes(), 0)
	require.NoError(t, err)
	assert.Equal(t, tex.Pixels, fromFile.Pixels)
	assert.Equal(t, "textures/wood.png", fromFile.Name)
}
