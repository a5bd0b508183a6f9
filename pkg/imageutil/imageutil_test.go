package imageutil

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestCompressScalesToBounds(t *testing.T) {
	res, err := Compress(pngDataURL(t, 400, 200), Options{MaxWidth: 100, MaxHeight: 100})
	require.NoError(t, err)

	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 50, res.Height)
	assert.Equal(t, "jpeg", res.Format)
	assert.InDelta(t, 0.8, res.Quality, 1e-9)
	assert.True(t, strings.HasPrefix(res.Data, "data:image/jpeg;base64,"))
}

func TestCompressKeepsSmallImages(t *testing.T) {
	res, err := Compress(pngDataURL(t, 40, 30), Options{})
	require.NoError(t, err)
	assert.Equal(t, 40, res.Width)
	assert.Equal(t, 30, res.Height)
}

func TestCompressRejectsNonImage(t *testing.T) {
	_, err := Compress("data:text/plain;base64,aGVsbG8=", Options{})
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = Compress("data:image/png,notbase64", Options{})
	assert.ErrorIs(t, err, ErrDataURL)
}

func TestThumbnail(t *testing.T) {
	thumb, err := Thumbnail(pngDataURL(t, 300, 100), 32)
	require.NoError(t, err)

	_, raw, err := DecodeDataURL(thumb)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(32, 32), img.Bounds().Size())
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 1, Base64Size("data:image/jpeg;base64,"+strings.Repeat("A", 1366)))
	assert.Equal(t, 0.5, RecommendQuality(6000))
	assert.Equal(t, 0.9, RecommendQuality(100))
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", FormatFileSize(2*1024*1024))
	assert.ErrorIs(t, Validate("image/png", MaxUploadBytes+1), ErrTooLarge)
}
