package port

import (
	"context"

	"fatigue-monitor/internal/domain/entity"
)

// ResultSink получатель принятых результатов (история, MQTT, websocket)
type ResultSink interface {
	Publish(ctx context.Context, record entity.DetectionRecord) error
}

// HistoryRepository интерфейс хранилища истории детекций
type HistoryRepository interface {
	ResultSink

	// Recent возвращает последние записи, новые первыми
	Recent(ctx context.Context, limit int) ([]entity.DetectionRecord, error)
}

// Recorder собирает метрики конвейера
type Recorder interface {
	ObserveSubmission(source entity.Source, outcome string, latencySeconds float64)
	TickSkipped()
	ResultDiscarded(reason string)
	SetReachable(reachable bool)
}
