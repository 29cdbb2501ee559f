package app

import "fatigue-monitor/internal/domain/entity"

// NopRecorder не собирает метрик
type NopRecorder struct{}

func (NopRecorder) ObserveSubmission(entity.Source, string, float64) {}
func (NopRecorder) TickSkipped()                                     {}
func (NopRecorder) ResultDiscarded(string)                           {}
func (NopRecorder) SetReachable(bool)                                {}

// outcomeLabel метка исхода для метрик
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := entity.FailureKindOf(err); ok {
		return string(kind)
	}
	return "error"
}
