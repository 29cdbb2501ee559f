package app

import (
	"context"
	"time"

	"fatigue-monitor/internal/domain/entity"
)

// Outcome итог одной отправки на детекцию
type Outcome struct {
	SessionID uint64
	Source    entity.Source
	Result    *entity.DetectionResult
	Err       error
	Latency   time.Duration
	Stale     bool // результат пришёл после остановки сессии или автодетекции и был отброшен
}

// Task отправка, выполняющаяся в фоне
type Task struct {
	done    chan struct{}
	outcome Outcome
}

func runTask(fn func() Outcome) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.outcome = fn()
	}()
	return t
}

// Done закрывается, когда отправка завершена.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait ждёт завершения отправки или отмены ctx.
func (t *Task) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
