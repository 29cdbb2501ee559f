//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"fatigue-monitor/internal/domain/entity"
)

func TestCodec_EncodeJPEGFromPNG(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, testImage()))

	out, err := NewCodec().EncodeJPEG(src.Bytes(), 80)
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, 32, img.Bounds().Dx())
	require.Equal(t, 24, img.Bounds().Dy())
}

func TestCodec_EncodeJPEGFromBMP(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, bmp.Encode(&src, testImage()))

	out, err := NewCodec().EncodeJPEG(src.Bytes(), 80)
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
}

func TestCodec_RejectsNonImage(t *testing.T) {
	_, err := NewCodec().EncodeJPEG([]byte("definitely not an image"), 80)
	require.Error(t, err)
}

func TestCodec_RejectsOversizedImage(t *testing.T) {
	_, err := NewCodec().EncodeJPEG(pngHeader(100000, 100000), 80)
	require.ErrorIs(t, err, entity.ErrUnreadableFile)
}

func TestCamera_StubUnavailable(t *testing.T) {
	_, err := NewCamera(0).Open(context.Background(), 640, 480)
	require.ErrorIs(t, err, entity.ErrDeviceUnavailable)
}
