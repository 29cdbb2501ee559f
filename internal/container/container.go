package container

import (
	"time"

	app "fatigue-monitor/internal/application"
	"fatigue-monitor/internal/domain/port"
)

// Deps общие зависимости всех рабочих областей
type Deps struct {
	Device    port.CaptureDevice
	Codec     port.ImageCodec
	Detector  port.DetectionClient
	Prober    port.HealthProber
	Operators port.OperatorRepository
	History   port.HistoryRepository // nil, если история не ведётся
	Sinks     []port.ResultSink
	Recorder  port.Recorder

	// StreamURL строит адрес живого потока для источника
	StreamURL func(source string, at time.Time) string
}

type Container struct {
	OperatorService *app.OperatorService
	Connection      *app.ConnectionMonitor
	History         port.HistoryRepository

	deps    Deps
	monitor app.MonitorConfig
}

func New(deps Deps, monitor app.MonitorConfig, requestTimeout time.Duration) *Container {
	sinks := deps.Sinks
	if deps.History != nil {
		sinks = append([]port.ResultSink{deps.History}, sinks...)
	}
	deps.Sinks = sinks

	return &Container{
		OperatorService: app.NewOperatorService(deps.Operators),
		Connection:      app.NewConnectionMonitor(deps.Prober, deps.Recorder, requestTimeout),
		History:         deps.History,
		deps:            deps,
		monitor:         monitor,
	}
}

// NewMonitor собирает мониторинг для новой области отображения.
func (c *Container) NewMonitor(display port.DisplaySurface, results port.ResultSurface) *app.MonitorService {
	cfg := c.monitor
	cfg.StreamURL = func(at time.Time) string {
		return c.streamURLAt("0", at)
	}

	return app.NewMonitorService(cfg, app.MonitorDeps{
		Device:   c.deps.Device,
		Codec:    c.deps.Codec,
		Detector: c.deps.Detector,
		Display:  display,
		Results:  results,
		Sinks:    c.deps.Sinks,
		Recorder: c.deps.Recorder,
	})
}

// StreamURL адрес потока на текущий момент: "0" для камеры или идентификатор загрузки.
func (c *Container) StreamURL(source string) string {
	return c.streamURLAt(source, time.Now())
}

func (c *Container) streamURLAt(source string, at time.Time) string {
	if c.deps.StreamURL == nil {
		return ""
	}
	return c.deps.StreamURL(source, at)
}

// AutoDetectInterval период автодетекции.
func (c *Container) AutoDetectInterval() time.Duration {
	if c.monitor.AutoDetectInterval <= 0 {
		return app.DefaultAutoDetectInterval
	}
	return c.monitor.AutoDetectInterval
}
