package entity

import "time"

// HealthyStatus значение поля status у работающего сервиса
const HealthyStatus = "healthy"

// HealthReport ответ health-эндпоинта сервиса инференса
type HealthReport struct {
	Status   string
	Accuracy *float64
	Metadata map[string]any
}

// Healthy сообщает, готов ли сервис принимать запросы.
func (h *HealthReport) Healthy() bool {
	return h != nil && h.Status == HealthyStatus
}

// ConnectionStatus состояние связи с сервисом инференса
type ConnectionStatus struct {
	Reachable     bool
	LastCheckedAt time.Time
	Metadata      map[string]any // заполняется только при Reachable
}

// Accuracy возвращает точность модели из метаданных, если сервис её сообщил.
func (s ConnectionStatus) Accuracy() (float64, bool) {
	v, ok := s.Metadata["accuracy"]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
