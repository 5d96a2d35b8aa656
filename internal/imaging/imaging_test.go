package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itec-nfc/inventario/internal/model"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255})))
	return buf.Bytes()
}

func TestProcessReencodesAsJPEG(t *testing.T) {
	for name, data := range map[string][]byte{
		"jpeg": jpegBytes(t, 100, 80),
		"png":  pngBytes(t, 100, 80),
	} {
		t.Run(name, func(t *testing.T) {
			photo, err := Process(bytes.NewReader(data), DefaultOptions)
			require.NoError(t, err)
			assert.Equal(t, MIME, photo.MIME)
			assert.Equal(t, 100, photo.Width)
			assert.Equal(t, 80, photo.Height)

			_, format, err := image.Decode(bytes.NewReader(photo.Data))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
		})
	}
}

func TestProcessDownscalesKeepingAspect(t *testing.T) {
	photo, err := Process(bytes.NewReader(jpegBytes(t, 2000, 1000)), Options{MaxDimension: 500, Quality: 80})
	require.NoError(t, err)
	assert.Equal(t, 500, photo.Width)
	assert.Equal(t, 250, photo.Height)
}

func TestProcessRejects(t *testing.T) {
	tests := map[string][]byte{
		"text": []byte("not an image"),
		"gif":  []byte("GIF89a..."),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Process(bytes.NewReader(data), DefaultOptions)
			assert.ErrorIs(t, err, model.ErrInvalidArgument)
		})
	}
}

func TestProcessSizeLimit(t *testing.T) {
	data := pngBytes(t, 50, 50)
	_, err := Process(bytes.NewReader(data), Options{MaxBytes: int64(len(data) - 1)})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestThumbnailIsSquare(t *testing.T) {
	photo, err := Process(bytes.NewReader(jpegBytes(t, 300, 120)), DefaultOptions)
	require.NoError(t, err)

	thumb, err := Thumbnail(photo.Data, 64)
	require.NoError(t, err)
	assert.Equal(t, 64, thumb.Width)
	assert.Equal(t, 64, thumb.Height)

	_, err = Thumbnail([]byte("junk"), 64)
	assert.Error(t, err)
}
