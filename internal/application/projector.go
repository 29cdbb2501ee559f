package app

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// ResultProjector выводит результат на панель и раздаёт его подписчикам.
type ResultProjector struct {
	surface port.ResultSurface
	sinks   []port.ResultSink
}

func NewResultProjector(surface port.ResultSurface, sinks ...port.ResultSink) *ResultProjector {
	return &ResultProjector{surface: surface, sinks: sinks}
}

// Apply перерисовывает панель и раздаёт результат подписчикам.
func (p *ResultProjector) Apply(ctx context.Context, record entity.DetectionRecord) {
	p.Show(record)
	p.Publish(ctx, record)
}

// Show перерисовывает панель.
func (p *ResultProjector) Show(record entity.DetectionRecord) {
	p.surface.ShowResult(Project(record))
}

// Publish раздаёт результат подписчикам. Ошибки подписчиков только логируются.
func (p *ResultProjector) Publish(ctx context.Context, record entity.DetectionRecord) {
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, record); err != nil {
			log.Printf("Error publishing detection result: %v", err)
		}
	}
}

// Clear прячет панель результатов.
func (p *ResultProjector) Clear() {
	p.surface.ClearResult()
}

// Project строит представление результата для панели.
func Project(record entity.DetectionRecord) entity.ResultView {
	res := record.Result
	view := entity.ResultView{
		Label:      res.PredictedClass.Label(),
		Confidence: FormatPercent(res.Confidence),
		Source:     record.Source,
		Latency:    record.Latency,
	}

	switch res.PredictedClass {
	case entity.ClassAlert:
		view.Emoji, view.Severity = "✅", entity.SeverityOK
	case entity.ClassNonVigilant:
		view.Emoji, view.Severity = "⚠️", entity.SeverityWarning
	default:
		view.Emoji, view.Severity = "😴", entity.SeverityCritical
	}

	for _, c := range entity.Classes {
		view.Probabilities = append(view.Probabilities, entity.ProbabilityRow{
			Label: c.Label(),
			Value: FormatPercent(res.Probability(c)),
		})
	}

	if f := res.Features; f != nil {
		view.Features = []string{
			fmt.Sprintf("👁️ EAR: %s", strconv.FormatFloat(f.EyeAspectRatio, 'f', -1, 64)),
			fmt.Sprintf("😊 Улыбка: %s", yesNo(f.IsSmiling)),
			fmt.Sprintf("🥱 Зевота: %s", yesNo(f.IsYawning)),
			fmt.Sprintf("🔍 Метод: %s", f.Method),
		}
	}

	return view
}

// FormatPercent печатает проценты с точностью до десятой: 92%, 92.5%.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64) + "%"
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}
