package app

import (
	"context"
	"log"
	"sync"
	"time"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// DefaultHealthInterval период проверки доступности сервиса
const DefaultHealthInterval = 30 * time.Second

// ConnectionMonitor следит за доступностью сервиса инференса.
// Ошибки проверки не выходят наружу, они меняют только статус.
type ConnectionMonitor struct {
	prober   port.HealthProber
	recorder port.Recorder
	timeout  time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	status  entity.ConnectionStatus
	checked bool

	pollMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewConnectionMonitor(prober port.HealthProber, recorder port.Recorder, timeout time.Duration) *ConnectionMonitor {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &ConnectionMonitor{
		prober:   prober,
		recorder: recorder,
		timeout:  timeout,
		now:      time.Now,
	}
}

// CheckOnce опрашивает health-эндпоинт и обновляет статус.
func (m *ConnectionMonitor) CheckOnce(ctx context.Context) entity.ConnectionStatus {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	status := entity.ConnectionStatus{LastCheckedAt: m.now()}
	report, err := m.prober.Health(ctx)
	switch {
	case err != nil:
		log.Printf("Health check failed: %v", err)
	case !report.Healthy():
		log.Printf("Health check: service reports status %q", report.Status)
	default:
		status.Reachable = true
		status.Metadata = report.Metadata
	}

	m.mu.Lock()
	changed := !m.checked || m.status.Reachable != status.Reachable
	m.status = status
	m.checked = true
	m.mu.Unlock()

	m.recorder.SetReachable(status.Reachable)
	if changed {
		if status.Reachable {
			log.Printf("Inference service is reachable")
		} else {
			log.Printf("Inference service is unreachable")
		}
	}
	return status
}

// Status возвращает последний известный статус.
func (m *ConnectionMonitor) Status() entity.ConnectionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// StartPolling проверяет сразу и затем каждые period до StopPolling.
func (m *ConnectionMonitor) StartPolling(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = DefaultHealthInterval
	}

	m.pollMu.Lock()
	defer m.pollMu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		m.CheckOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckOnce(ctx)
			}
		}
	}()
}

// StopPolling останавливает опрос и ждёт завершения текущей проверки.
func (m *ConnectionMonitor) StopPolling() {
	m.pollMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.pollMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
