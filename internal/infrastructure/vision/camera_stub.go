//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"fmt"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// Camera камера-заглушка (без OpenCV).
type Camera struct {
	deviceID int
}

// NewCamera создаёт камеру-заглушку.
func NewCamera(deviceID int) *Camera {
	return &Camera{deviceID: deviceID}
}

// Open всегда возвращает ErrDeviceUnavailable, если сборка без тега gocv.
func (c *Camera) Open(_ context.Context, width, height int) (port.VideoStream, error) {
	return nil, fmt.Errorf("%w: device %d: gocv build tag is not enabled", entity.ErrDeviceUnavailable, c.deviceID)
}

var _ port.CaptureDevice = (*Camera)(nil)
