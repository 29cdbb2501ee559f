//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"fatigue-monitor/internal/domain/port"
)

// Codec перекодирует изображения без OpenCV.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

// EncodeJPEG декодирует JPEG, PNG, GIF, BMP, TIFF или WebP и кодирует в JPEG.
func (Codec) EncodeJPEG(data []byte, quality int) ([]byte, error) {
	if err := checkDimensions(data); err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// JPEG не хранит прозрачность, подкладываем непрозрачный RGBA
	if format != "jpeg" {
		rgba := image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), image.White, image.Point{}, draw.Src)
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Over)
		img = rgba
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

var _ port.ImageCodec = (*Codec)(nil)
