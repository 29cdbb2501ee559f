package telegram

import (
	"fmt"
	"strings"
	"time"

	app "fatigue-monitor/internal/application"
	"fatigue-monitor/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я слежу за усталостью оператора по камере.

📹 Включите камеру и снимайте кадры вручную или автоматически, либо пришлите фото для анализа.

📋 Команды:
/camera — включить камеру
/stop — выключить камеру
/capture — снять кадр и проверить
/auto on|off — автодетекция
/upload — проверить фото
/status — состояние сервиса
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ /camera включает камеру и присылает ссылку на живой поток
2️⃣ /capture отправляет текущий кадр на анализ
3️⃣ /auto on анализирует кадры каждые несколько секунд
4️⃣ Фото или файл-изображение можно прислать в любой момент

📊 Результат обновляется в одном сообщении-панели.

📋 Другие команды:
/stream — ссылка на поток
/log — журнал событий
/history — последние результаты
/status — состояние сервиса инференса
/cancel — отменить ожидание фото`

	msgAwaitingUpload    = "📤 Пришлите фото или изображение файлом."
	msgCancelled         = "❌ Операция отменена."
	msgSendPhoto         = "📸 Пришлите фото для анализа или используйте /help."
	msgUnknownCommand    = "❓ Неизвестная команда. Используйте /help для справки."
	msgForbidden         = "⛔ Этот чат не может управлять мониторингом."
	msgCameraOn          = "📹 Камера включена."
	msgCameraOff         = "⏹️ Камера выключена."
	msgCameraBusy        = "⚠️ Камера недоступна: %v"
	msgCameraRequired    = "⚠️ Сначала включите камеру: /camera"
	msgProcessing        = "⏳ Анализирую изображение..."
	msgAutoOn            = "🔄 Автодетекция включена (каждые %v)."
	msgAutoOff           = "⏸️ Автодетекция выключена."
	msgAutoUsage         = "Использование: /auto on или /auto off"
	msgUnreadableFile    = "⚠️ Не удалось прочитать изображение. Пришлите JPEG, PNG, BMP, TIFF или WebP."
	msgDownloadError     = "⚠️ Не удалось скачать файл. Попробуйте ещё раз."
	msgRequestFailed     = "❌ Сервис инференса недоступен: %v"
	msgInferenceError    = "❌ Сервис вернул ошибку: %v"
	msgMalformed         = "❌ Некорректный ответ сервиса: %v"
	msgHistoryDisabled   = "📭 История не ведётся."
	msgHistoryEmpty      = "📭 Результатов пока нет."
	msgPlaceholder       = "📷 Камера выключена. Используйте /camera."
	msgStreamUnavailable = "📷 Камера выключена, поток недоступен."
)

// renderResult текст панели результатов
func renderResult(view entity.ResultView) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s\n", view.Emoji, view.Label)
	fmt.Fprintf(&sb, "Уверенность: %s\n\n", view.Confidence)

	sb.WriteString("📊 Вероятности:\n")
	for _, row := range view.Probabilities {
		fmt.Fprintf(&sb, "• %s: %s\n", row.Label, row.Value)
	}

	if len(view.Features) > 0 {
		sb.WriteString("\n🧩 Признаки:\n")
		for _, line := range view.Features {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	fmt.Fprintf(&sb, "\n%s · %d ms", sourceName(view.Source), view.Latency.Milliseconds())
	return sb.String()
}

func sourceName(source entity.Source) string {
	switch source {
	case entity.SourceWebcam:
		return "📹 камера"
	case entity.SourceUpload:
		return "📤 загрузка"
	}
	return string(source)
}

// renderStatus состояние сервиса, камеры и автодетекции
func renderStatus(status entity.ConnectionStatus, capture entity.CaptureState, scheduler entity.SchedulerState) string {
	var sb strings.Builder

	switch {
	case status.LastCheckedAt.IsZero():
		sb.WriteString("⏳ Сервис инференса: проверка ещё не выполнялась\n")
	case status.Reachable:
		sb.WriteString("🟢 Сервис инференса: доступен\n")
		if acc, ok := status.Accuracy(); ok {
			fmt.Fprintf(&sb, "🎯 Точность модели: %.1f%%\n", acc)
		}
	default:
		sb.WriteString("🔴 Сервис инференса: недоступен\n")
	}
	if !status.LastCheckedAt.IsZero() {
		fmt.Fprintf(&sb, "🕒 Проверено: %s\n", status.LastCheckedAt.Format("15:04:05"))
	}

	if capture.Active {
		fmt.Fprintf(&sb, "📹 Камера: включена (сессия %d)\n", capture.SessionID)
	} else {
		sb.WriteString("📷 Камера: выключена\n")
	}

	switch {
	case scheduler.InFlight:
		sb.WriteString("🔄 Автодетекция: включена, идёт запрос")
	case scheduler.Enabled:
		sb.WriteString("🔄 Автодетекция: включена")
	default:
		sb.WriteString("⏸️ Автодетекция: выключена")
	}
	return sb.String()
}

var journalIcons = map[entity.JournalLevel]string{
	entity.JournalInfo:    "ℹ️",
	entity.JournalSuccess: "✅",
	entity.JournalWarning: "⚠️",
	entity.JournalError:   "❗",
}

// renderJournal журнал в хронологическом порядке
func renderJournal(entries []entity.JournalEntry) string {
	var sb strings.Builder
	sb.WriteString("📝 Журнал:\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s [%s] %s\n", journalIcons[e.Level], e.At.Format("15:04:05"), e.Message)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderHistory(records []entity.DetectionRecord) string {
	if len(records) == 0 {
		return msgHistoryEmpty
	}

	var sb strings.Builder
	sb.WriteString("🗂 Последние результаты:\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "%s %s %s (%s), %s\n",
			r.DetectedAt.Local().Format("02.01 15:04:05"),
			sourceName(r.Source),
			r.Result.PredictedClass.Label(),
			app.FormatPercent(r.Result.Confidence),
			r.Latency.Round(time.Millisecond))
	}
	return strings.TrimRight(sb.String(), "\n")
}
