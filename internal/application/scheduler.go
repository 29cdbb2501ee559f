package app

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// DefaultAutoDetectInterval период автодетекции
const DefaultAutoDetectInterval = 2 * time.Second

// TickFunc выполняет одну отправку кадра. fresh сообщает, нужен ли ещё результат.
type TickFunc func(ctx context.Context, fresh func() bool)

// AutoDetectScheduler периодически запускает детекцию, пока сессия активна.
// Одновременно выполняется не больше одной отправки.
type AutoDetectScheduler struct {
	session   *CaptureSession
	interval  time.Duration
	tick      TickFunc
	recorder  port.Recorder
	newTicker func(time.Duration) (<-chan time.Time, func())

	mu         sync.Mutex
	enabled    bool
	generation uint64
	cancel     context.CancelFunc
	inFlight   atomic.Bool
}

// NewAutoDetectScheduler создаёт планировщик и привязывает его к остановке сессии.
func NewAutoDetectScheduler(session *CaptureSession, interval time.Duration, tick TickFunc, recorder port.Recorder) *AutoDetectScheduler {
	if interval <= 0 {
		interval = DefaultAutoDetectInterval
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}

	s := &AutoDetectScheduler{
		session:   session,
		interval:  interval,
		tick:      tick,
		recorder:  recorder,
		newTicker: newTimeTicker,
	}
	session.OnStop(s.Disable)
	return s
}

func newTimeTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Enable запускает таймер и сразу отправляет первый кадр.
// Без активной сессии возвращает ErrSessionRequired.
func (s *AutoDetectScheduler) Enable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enabled {
		return nil
	}

	state := s.session.State()
	if !state.Active {
		return entity.ErrSessionRequired
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.generation++
	s.enabled = true
	s.cancel = cancel

	ticks, stop := s.newTicker(s.interval)
	go s.loop(ctx, s.generation, state.SessionID, ticks, stop)

	log.Printf("Auto-detect enabled for session %d (every %v)", state.SessionID, s.interval)
	return nil
}

// Disable останавливает таймер. Текущая отправка доводится до конца, её результат отбрасывается.
func (s *AutoDetectScheduler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}
	s.enabled = false
	s.cancel()
	s.cancel = nil
	log.Println("Auto-detect disabled")
}

// State возвращает снимок состояния планировщика.
func (s *AutoDetectScheduler) State() entity.SchedulerState {
	s.mu.Lock()
	enabled := s.enabled
	s.mu.Unlock()
	return entity.SchedulerState{Enabled: enabled, InFlight: s.inFlight.Load()}
}

func (s *AutoDetectScheduler) loop(ctx context.Context, generation, sessionID uint64, ticks <-chan time.Time, stop func()) {
	defer stop()

	fresh := func() bool {
		return s.isCurrent(generation, sessionID)
	}

	// Первый кадр уходит сразу после включения.
	s.fire(ctx, fresh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			if ctx.Err() != nil {
				return
			}
			s.fire(ctx, fresh)
		}
	}
}

// fire запускает отправку, если предыдущая уже завершилась.
func (s *AutoDetectScheduler) fire(ctx context.Context, fresh func() bool) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.recorder.TickSkipped()
		log.Printf("Auto-detect tick skipped: submission still in flight")
		return
	}
	go func() {
		defer s.inFlight.Store(false)
		s.tick(context.WithoutCancel(ctx), fresh)
	}()
}

func (s *AutoDetectScheduler) isCurrent(generation, sessionID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled && s.generation == generation && s.session.IsCurrent(sessionID)
}
