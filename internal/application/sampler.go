package app

import (
	"fmt"

	"fatigue-monitor/internal/domain/port"
)

// DefaultJPEGQuality качество сжатия кадров (0.8 в терминах браузера)
const DefaultJPEGQuality = 80

// Frame снимок кадра вместе с сессией, из которой он взят
type Frame struct {
	SessionID uint64
	Image     []byte
}

// FrameSampler снимает кадры с активной сессии
type FrameSampler struct {
	quality int
}

func NewFrameSampler(quality int) *FrameSampler {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &FrameSampler{quality: quality}
}

// Sample снимает текущий кадр. Состояние сессии не меняется.
func (f *FrameSampler) Sample(session *CaptureSession) (Frame, error) {
	var frame Frame
	err := session.withStream(func(sessionID uint64, stream port.VideoStream) error {
		img, err := stream.Snapshot(f.quality)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		frame = Frame{SessionID: sessionID, Image: img}
		return nil
	})
	return frame, err
}
