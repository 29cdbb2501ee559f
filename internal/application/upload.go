package app

import (
	"fmt"
	"time"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// UploadAdapter превращает загруженный файл в запрос того же вида, что и кадр с камеры.
type UploadAdapter struct {
	codec   port.ImageCodec
	quality int
	now     func() time.Time
}

func NewUploadAdapter(codec port.ImageCodec, quality int) *UploadAdapter {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &UploadAdapter{codec: codec, quality: quality, now: time.Now}
}

// FromFile декодирует файл и перекодирует его в JPEG.
func (u *UploadAdapter) FromFile(file entity.UploadedFile) (entity.DetectionRequest, error) {
	if len(file.Data) == 0 {
		return entity.DetectionRequest{}, fmt.Errorf("%w: %s is empty", entity.ErrUnreadableFile, file.Name)
	}

	img, err := u.codec.EncodeJPEG(file.Data, u.quality)
	if err != nil {
		return entity.DetectionRequest{}, fmt.Errorf("%w: %s: %v", entity.ErrUnreadableFile, file.Name, err)
	}

	return entity.NewDetectionRequest(img, entity.SourceUpload, u.now()), nil
}
