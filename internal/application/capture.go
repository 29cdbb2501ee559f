package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// CaptureSession владеет потоком камеры: Idle → Streaming → Idle.
type CaptureSession struct {
	device    port.CaptureDevice
	surface   port.DisplaySurface
	streamURL func(at time.Time) string
	width     int
	height    int

	mu        sync.Mutex
	stream    port.VideoStream
	sessionID uint64
	stopHooks []func()
}

// NewCaptureSession создаёт сессию захвата для одной области отображения.
// streamURL строит адрес живого потока на момент запуска.
func NewCaptureSession(device port.CaptureDevice, surface port.DisplaySurface, streamURL func(at time.Time) string, width, height int) *CaptureSession {
	return &CaptureSession{
		device:    device,
		surface:   surface,
		streamURL: streamURL,
		width:     width,
		height:    height,
	}
}

// OnStop регистрирует действие, выполняемое при каждой остановке потока.
func (s *CaptureSession) OnStop(hook func()) {
	s.mu.Lock()
	s.stopHooks = append(s.stopHooks, hook)
	s.mu.Unlock()
}

// Start открывает камеру и показывает живой поток. Повторный вызов ничего не делает.
func (s *CaptureSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return nil
	}

	stream, err := s.device.Open(ctx, s.width, s.height)
	if err != nil {
		if errors.Is(err, entity.ErrDeviceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", entity.ErrDeviceUnavailable, err)
	}

	s.stream = stream
	s.sessionID++
	s.surface.ShowLive(s.streamURL(time.Now()))
	log.Printf("Capture session %d started (%dx%d)", s.sessionID, s.width, s.height)
	return nil
}

// Stop освобождает камеру, отключает автодетекцию и возвращает заглушку.
// Без активного потока ничего не делает.
func (s *CaptureSession) Stop() {
	s.mu.Lock()
	stream := s.stream
	if stream == nil {
		s.mu.Unlock()
		return
	}
	s.stream = nil
	id := s.sessionID
	hooks := make([]func(), len(s.stopHooks))
	copy(hooks, s.stopHooks)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}

	if err := stream.Close(); err != nil {
		log.Printf("Error closing capture stream: %v", err)
	}
	s.surface.ShowPlaceholder()
	log.Printf("Capture session %d stopped", id)
}

// State возвращает снимок состояния сессии.
func (s *CaptureSession) State() entity.CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entity.CaptureState{SessionID: s.sessionID, Active: s.stream != nil}
}

// IsCurrent сообщает, что сессия с этим идентификатором всё ещё активна.
func (s *CaptureSession) IsCurrent(sessionID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil && s.sessionID == sessionID
}

// withStream выполняет fn над открытым потоком, не давая закрыть его посередине.
func (s *CaptureSession) withStream(fn func(sessionID uint64, stream port.VideoStream) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return entity.ErrNoActiveSession
	}
	return fn(s.sessionID, s.stream)
}
