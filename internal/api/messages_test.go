package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fatigue-monitor/internal/domain/entity"
)

func TestRenderResult(t *testing.T) {
	view := entity.ResultView{
		Label:      "ALERT",
		Emoji:      "✅",
		Confidence: "92%",
		Probabilities: []entity.ProbabilityRow{
			{Label: "ALERT", Value: "92%"},
			{Label: "NON VIGILANT", Value: "5%"},
			{Label: "DROWSY", Value: "3%"},
		},
		Features: []string{"👁️ EAR: 0.31"},
		Source:   entity.SourceWebcam,
		Latency:  140 * time.Millisecond,
	}

	text := renderResult(view)
	assert.Contains(t, text, "✅ ALERT\n")
	assert.Contains(t, text, "Уверенность: 92%")
	assert.Contains(t, text, "• NON VIGILANT: 5%")
	assert.Contains(t, text, "🧩 Признаки:\n👁️ EAR: 0.31")
	assert.Contains(t, text, "📹 камера · 140 ms")
}

func TestRenderResult_NoFeatures(t *testing.T) {
	text := renderResult(entity.ResultView{Label: "DROWSY", Emoji: "😴", Confidence: "81%", Source: entity.SourceUpload})
	assert.NotContains(t, text, "Признаки")
	assert.Contains(t, text, "📤 загрузка")
}

func TestRenderStatus(t *testing.T) {
	never := renderStatus(entity.ConnectionStatus{}, entity.CaptureState{}, entity.SchedulerState{})
	assert.Contains(t, never, "проверка ещё не выполнялась")
	assert.Contains(t, never, "📷 Камера: выключена")

	down := renderStatus(
		entity.ConnectionStatus{LastCheckedAt: time.Now()},
		entity.CaptureState{SessionID: 2, Active: true},
		entity.SchedulerState{Enabled: true, InFlight: true},
	)
	assert.Contains(t, down, "🔴 Сервис инференса: недоступен")
	assert.Contains(t, down, "сессия 2")
	assert.Contains(t, down, "идёт запрос")
}

func TestRenderJournal(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.Local)
	text := renderJournal([]entity.JournalEntry{
		{At: at, Level: entity.JournalInfo, Message: "Готово."},
		{At: at.Add(time.Second), Level: entity.JournalError, Message: "❌ Ошибка"},
	})
	assert.Equal(t, "📝 Журнал:\nℹ️ [09:30:00] Готово.\n❗ [09:30:01] ❌ Ошибка", text)
}

func TestRenderHistory(t *testing.T) {
	assert.Equal(t, msgHistoryEmpty, renderHistory(nil))

	text := renderHistory([]entity.DetectionRecord{{
		Source:     entity.SourceWebcam,
		Result:     entity.DetectionResult{PredictedClass: entity.ClassNonVigilant, Confidence: 64.5},
		Latency:    120 * time.Millisecond,
		DetectedAt: time.Now(),
	}})
	assert.Contains(t, text, "NON VIGILANT (64.5%)")
	assert.Contains(t, text, "120ms")
}

func TestFailureMessage(t *testing.T) {
	assert.Contains(t, failureMessage(entity.NewFailure(entity.FailureMalformedResponse, "bad json", nil)), "Некорректный ответ")
	assert.Contains(t, failureMessage(entity.NewFailure(entity.FailureRequestFailed, "timeout", nil)), "недоступен")
}
