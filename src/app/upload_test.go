package app

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIDSource(t *testing.T) {
	var ids IDSource
	now := time.UnixMilli(1716336000000)
	first := ids.Next(now)
	second := ids.Next(now)
	third := ids.Next(now.Add(-time.Second))
	assert.Equal(t, "local-1716336000000", first)
	assert.Equal(t, "local-1716336000001", second)
	assert.Equal(t, "local-1716336000002", third)
}

func TestEncodeUpload(t *testing.T) {
	t.Run("shrinks large images to jpeg", func(t *testing.T) {
		enc, err := EncodeUpload(pngBytes(t, 400, 200), 100)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", enc.ContentType)
		img, _, err := image.Decode(bytes.NewReader(enc.Data))
		require.NoError(t, err)
		assert.Equal(t, 100, img.Bounds().Dx())
		assert.Equal(t, 50, img.Bounds().Dy())
		assert.True(t, strings.HasPrefix(enc.DataURI(), "data:image/jpeg;base64,"))
	})

	t.Run("small images keep their size", func(t *testing.T) {
		enc, err := EncodeUpload(pngBytes(t, 40, 30), 100)
		require.NoError(t, err)
		img, _, err := image.Decode(bytes.NewReader(enc.Data))
		require.NoError(t, err)
		assert.Equal(t, 40, img.Bounds().Dx())
	})

	t.Run("undecodable bytes pass through", func(t *testing.T) {
		enc, err := EncodeUpload([]byte("not an image"), 100)
		require.NoError(t, err)
		assert.Equal(t, []byte("not an image"), enc.Data)
		assert.Contains(t, enc.ContentType, "text/plain")
	})

	t.Run("empty upload", func(t *testing.T) {
		_, err := EncodeUpload(nil, 100)
		assert.ErrorIs(t, err, ErrEmptyUpload)
	})
}

func TestNewImageRecord(t *testing.T) {
	meta := UploadMeta{Category: CategoryInterior, Complex: Complex1, Type: Type47, Space: SpaceKitchen}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := NewImageRecord("local-1", "prop-101", meta, "data:x", now)
	assert.Equal(t, OrientationSouth, rec.Orientation)
	assert.Equal(t, FloorMid, rec.FloorLevel)
	assert.Equal(t, "2024-06-01", rec.CreatedAt)

	meta.Orientation = OrientationSouthEast
	meta.FloorLevel = FloorHigh
	rec = NewImageRecord("local-2", "prop-101", meta, "data:x", now)
	assert.Equal(t, OrientationSouthEast, rec.Orientation)
	assert.Equal(t, FloorHigh, rec.FloorLevel)
}
