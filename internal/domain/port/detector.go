package port

import (
	"context"

	"fatigue-monitor/internal/domain/entity"
)

// DetectionClient интерфейс клиента сервиса инференса
type DetectionClient interface {
	// Submit отправляет изображение на классификацию.
	// Ошибки конвейера возвращаются как *entity.Failure.
	Submit(ctx context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error)
}

// HealthProber проверяет доступность сервиса инференса
type HealthProber interface {
	Health(ctx context.Context) (*entity.HealthReport, error)
}
