//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

const snapshotAttempts = 5

// Camera устройство видеозахвата OpenCV. Одновременно открыт не больше одного потока.
type Camera struct {
	deviceID int

	mu   sync.Mutex
	busy bool
}

// NewCamera создаёт камеру по номеру устройства.
func NewCamera(deviceID int) *Camera {
	return &Camera{deviceID: deviceID}
}

// Open захватывает камеру и выставляет разрешение.
func (c *Camera) Open(ctx context.Context, width, height int) (port.VideoStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, fmt.Errorf("%w: device %d is busy", entity.ErrDeviceUnavailable, c.deviceID)
	}

	vc, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: open device %d: %v", entity.ErrDeviceUnavailable, c.deviceID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d is not available", entity.ErrDeviceUnavailable, c.deviceID)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(height))

	c.busy = true
	log.Printf("Camera %d opened (%dx%d requested)", c.deviceID, width, height)

	return &cameraStream{camera: c, capture: vc, frame: gocv.NewMat()}, nil
}

func (c *Camera) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

type cameraStream struct {
	camera  *Camera
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	closed  bool
}

// Snapshot читает кадр в том разрешении, которое отдаёт камера.
func (s *cameraStream) Snapshot(quality int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("stream is closed")
	}

	for i := 0; i < snapshotAttempts; i++ {
		if s.capture.Read(&s.frame) && !s.frame.Empty() {
			return encodeMat(s.frame, quality)
		}
	}
	return nil, errors.New("camera returned no frame")
}

// Close освобождает устройство.
func (s *cameraStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.frame.Close()
	err := s.capture.Close()
	s.camera.release()
	return err
}

var _ port.CaptureDevice = (*Camera)(nil)
