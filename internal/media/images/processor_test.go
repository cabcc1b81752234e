package images_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlog/driftlog-server/internal/media/images"
)

// testPhoto renders a gradient so the blurhash has real color content.
func testPhoto(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(255 * x / w),
				G: uint8(255 * y / h),
				B: 128,
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessLargePhoto(t *testing.T) {
	data := testPhoto(t, 1600, 1200)

	result, err := images.Process(data)
	require.NoError(t, err)

	assert.Equal(t, 1600, result.Width)
	assert.Equal(t, 1200, result.Height)
	assert.NotEmpty(t, result.BlurHash)
	assert.NotEmpty(t, result.Thumbnail)

	// Thumbnail decodes as a JPEG with the longest side capped at 640.
	thumb, err := jpeg.Decode(bytes.NewReader(result.Thumbnail))
	require.NoError(t, err)
	assert.Equal(t, 640, thumb.Bounds().Dx())
	assert.Equal(t, 480, thumb.Bounds().Dy())
}

func TestProcessSmallPhotoKeepsDimensions(t *testing.T) {
	data := testPhoto(t, 200, 300)

	result, err := images.Process(data)
	require.NoError(t, err)

	thumb, err := jpeg.Decode(bytes.NewReader(result.Thumbnail))
	require.NoError(t, err)
	assert.Equal(t, 200, thumb.Bounds().Dx())
	assert.Equal(t, 300, thumb.Bounds().Dy())
}

func TestProcessRejectsGarbage(t *testing.T) {
	_, err := images.Process([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestBlurHashDeterministic(t *testing.T) {
	data := testPhoto(t, 400, 400)

	a, err := images.Process(data)
	require.NoError(t, err)
	b, err := images.Process(data)
	require.NoError(t, err)

	assert.Equal(t, a.BlurHash, b.BlurHash)
}
