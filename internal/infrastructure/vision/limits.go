package vision

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"fatigue-monitor/internal/domain/entity"
)

// MaxPixels предельный размер изображения, которое соглашаемся декодировать.
const MaxPixels = 40_000_000

// checkDimensions читает только заголовок и отклоняет слишком большие изображения.
// Формат, который не удалось распознать по заголовку, оставляем декодеру.
func checkDimensions(data []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: %s has empty dimensions %dx%d", entity.ErrUnreadableFile, format, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %s image %dx%d is too large", entity.ErrUnreadableFile, format, cfg.Width, cfg.Height)
	}
	return nil
}
