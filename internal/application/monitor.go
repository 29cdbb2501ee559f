package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// MonitorConfig параметры мониторинга одного оператора
type MonitorConfig struct {
	StreamURL          func(at time.Time) string // адрес живого потока, t= на момент запуска
	Width              int
	Height             int
	JPEGQuality        int
	AutoDetectInterval time.Duration
	JournalSize        int
}

// MonitorDeps зависимости мониторинга
type MonitorDeps struct {
	Device   port.CaptureDevice
	Codec    port.ImageCodec
	Detector port.DetectionClient
	Display  port.DisplaySurface
	Results  port.ResultSurface
	Sinks    []port.ResultSink
	Recorder port.Recorder
}

// MonitorService связывает камеру, автодетекцию, загрузку и панель результатов
// одного оператора. Все результаты проходят через deliver.
type MonitorService struct {
	capture   *CaptureSession
	sampler   *FrameSampler
	scheduler *AutoDetectScheduler
	uploads   *UploadAdapter
	detector  port.DetectionClient
	projector *ResultProjector
	display   port.DisplaySurface
	journal   *Journal
	recorder  port.Recorder
	interval  time.Duration
	now       func() time.Time

	panelMu sync.Mutex // проверка актуальности и вывод на панель
}

// NewMonitorService собирает мониторинг для одной области отображения.
func NewMonitorService(cfg MonitorConfig, deps MonitorDeps) *MonitorService {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = NopRecorder{}
	}
	interval := cfg.AutoDetectInterval
	if interval <= 0 {
		interval = DefaultAutoDetectInterval
	}

	m := &MonitorService{
		capture:   NewCaptureSession(deps.Device, deps.Display, cfg.StreamURL, cfg.Width, cfg.Height),
		sampler:   NewFrameSampler(cfg.JPEGQuality),
		uploads:   NewUploadAdapter(deps.Codec, cfg.JPEGQuality),
		detector:  deps.Detector,
		projector: NewResultProjector(deps.Results, deps.Sinks...),
		display:   deps.Display,
		journal:   NewJournal(cfg.JournalSize),
		recorder:  recorder,
		interval:  interval,
		now:       time.Now,
	}
	m.scheduler = NewAutoDetectScheduler(m.capture, interval, m.autoTick, recorder)
	return m
}

// Init приводит область отображения в исходное состояние.
func (m *MonitorService) Init() {
	m.journal.Reset()
	m.display.ShowPlaceholder()
	m.journal.Add(entity.JournalSuccess, "🚀 Система готова")
}

// Dispose освобождает камеру.
func (m *MonitorService) Dispose() {
	m.scheduler.Disable()
	m.capture.Stop()
}

// StartCamera включает камеру.
func (m *MonitorService) StartCamera(ctx context.Context) error {
	wasActive := m.capture.State().Active
	if err := m.capture.Start(ctx); err != nil {
		m.journal.Add(entity.JournalError, fmt.Sprintf("❌ Ошибка камеры: %v", err))
		return err
	}
	if !wasActive {
		m.journal.Add(entity.JournalSuccess, "📹 Камера включена")
	}
	return nil
}

// StopCamera выключает камеру и автодетекцию, прячет результаты и очищает журнал.
func (m *MonitorService) StopCamera() {
	m.panelMu.Lock()
	defer m.panelMu.Unlock()

	m.capture.Stop()
	m.scheduler.Disable()
	m.projector.Clear()
	m.journal.Reset()
}

// Capture снимает кадр и отправляет его на детекцию.
func (m *MonitorService) Capture(ctx context.Context) (*Task, error) {
	frame, err := m.sampler.Sample(m.capture)
	if err != nil {
		if errors.Is(err, entity.ErrNoActiveSession) {
			m.journal.Add(entity.JournalWarning, "⚠️ Сначала включите камеру")
		} else {
			m.journal.Add(entity.JournalError, fmt.Sprintf("❌ Не удалось снять кадр: %v", err))
		}
		return nil, err
	}

	req := entity.NewDetectionRequest(frame.Image, entity.SourceWebcam, m.now())
	fresh := func() bool { return m.capture.IsCurrent(frame.SessionID) }
	return runTask(func() Outcome {
		return m.detect(ctx, req, frame.SessionID, fresh)
	}), nil
}

// SetAutoDetect включает или выключает автодетекцию.
func (m *MonitorService) SetAutoDetect(enabled bool) error {
	if !enabled {
		if m.scheduler.State().Enabled {
			m.scheduler.Disable()
			m.journal.Add(entity.JournalInfo, "⏸️ Автодетекция выключена")
		}
		return nil
	}

	if m.scheduler.State().Enabled {
		return nil
	}
	if err := m.scheduler.Enable(); err != nil {
		m.journal.Add(entity.JournalWarning, "⚠️ Сначала включите камеру")
		return err
	}
	m.journal.Add(entity.JournalWarning, fmt.Sprintf("🔄 Автодетекция включена (каждые %v)", m.interval))
	return nil
}

// Upload показывает загруженное изображение и отправляет его на детекцию.
// Сессия камеры и автодетекция в этом не участвуют.
func (m *MonitorService) Upload(ctx context.Context, file entity.UploadedFile) (*Task, error) {
	req, err := m.uploads.FromFile(file)
	if err != nil {
		m.journal.Add(entity.JournalError, fmt.Sprintf("❌ Не удалось прочитать файл %s", file.Name))
		return nil, err
	}

	m.journal.Add(entity.JournalSuccess, fmt.Sprintf("📤 Загрузка: %s", file.Name))
	m.display.ShowStill(req.ImageData)
	return runTask(func() Outcome {
		return m.detect(ctx, req, 0, func() bool { return true })
	}), nil
}

// CaptureState возвращает состояние камеры.
func (m *MonitorService) CaptureState() entity.CaptureState {
	return m.capture.State()
}

// SchedulerState возвращает состояние автодетекции.
func (m *MonitorService) SchedulerState() entity.SchedulerState {
	return m.scheduler.State()
}

// Journal возвращает записи диагностического журнала.
func (m *MonitorService) Journal() []entity.JournalEntry {
	return m.journal.Entries()
}

func (m *MonitorService) autoTick(ctx context.Context, fresh func() bool) {
	frame, err := m.sampler.Sample(m.capture)
	if err != nil {
		if !errors.Is(err, entity.ErrNoActiveSession) {
			m.journal.Add(entity.JournalError, fmt.Sprintf("❌ Не удалось снять кадр: %v", err))
		}
		return
	}

	req := entity.NewDetectionRequest(frame.Image, entity.SourceWebcam, m.now())
	m.detect(ctx, req, frame.SessionID, fresh)
}

// detect отправляет запрос и передаёт итог на панель, если он ещё актуален.
func (m *MonitorService) detect(ctx context.Context, req entity.DetectionRequest, sessionID uint64, fresh func() bool) Outcome {
	start := time.Now()
	result, err := m.detector.Submit(ctx, req)
	outcome := Outcome{
		SessionID: sessionID,
		Source:    req.Source,
		Result:    result,
		Err:       err,
		Latency:   time.Since(start),
	}
	m.recorder.ObserveSubmission(req.Source, outcomeLabel(err), outcome.Latency.Seconds())

	m.deliver(ctx, &outcome, fresh)
	return outcome
}

// deliver проверяет актуальность и выводит итог под panelMu,
// поэтому StopCamera не может вклиниться между проверкой и выводом.
func (m *MonitorService) deliver(ctx context.Context, outcome *Outcome, fresh func() bool) {
	m.panelMu.Lock()
	if !fresh() {
		m.panelMu.Unlock()
		outcome.Stale = true
		m.recorder.ResultDiscarded("stale")
		log.Printf("Discarding stale %s result of session %d", outcome.Source, outcome.SessionID)
		return
	}

	if outcome.Err != nil {
		if kind, _ := entity.FailureKindOf(outcome.Err); kind == entity.FailureInferenceRejected {
			m.journal.Add(entity.JournalError, fmt.Sprintf("❌ Ошибка сервиса: %v", outcome.Err))
		} else {
			m.journal.Add(entity.JournalError, fmt.Sprintf("❌ Запрос не выполнен: %v", outcome.Err))
		}
		m.panelMu.Unlock()
		return
	}
	if outcome.Result == nil {
		m.panelMu.Unlock()
		return
	}

	record := entity.DetectionRecord{
		SessionID:  outcome.SessionID,
		Source:     outcome.Source,
		Result:     *outcome.Result,
		Latency:    outcome.Latency,
		DetectedAt: m.now(),
	}
	m.projector.Show(record)
	m.journal.Add(entity.JournalSuccess, fmt.Sprintf("🎯 %s (%s) - %dms",
		outcome.Result.PredictedClass.Label(), FormatPercent(outcome.Result.Confidence), outcome.Latency.Milliseconds()))
	m.panelMu.Unlock()

	m.projector.Publish(ctx, record)
}
