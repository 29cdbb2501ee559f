package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fatigue-monitor/config"
	app "fatigue-monitor/internal/application"
	telegram "fatigue-monitor/internal/api"
	"fatigue-monitor/internal/container"
	"fatigue-monitor/internal/domain/port"
	"fatigue-monitor/internal/infrastructure/inference"
	"fatigue-monitor/internal/infrastructure/metrics"
	"fatigue-monitor/internal/infrastructure/mqtt"
	"fatigue-monitor/internal/infrastructure/storage"
	"fatigue-monitor/internal/infrastructure/vision"
	"fatigue-monitor/internal/infrastructure/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Клиент сервиса инференса
	client := inference.NewClient(cfg.InferenceURL, inference.Endpoints{
		Predict: cfg.PredictPath,
		Health:  cfg.HealthPath,
		Stream:  cfg.StreamPath,
	}, cfg.RequestTimeout)

	recorder := metrics.New()
	sinks := []port.ResultSink{recorder}

	// История детекций
	var history port.HistoryRepository
	if cfg.HistoryDB != "" {
		db, err := storage.NewSQLiteHistory(cfg.HistoryDB)
		if err != nil {
			log.Fatalf("Failed to open history: %v", err)
		}
		defer db.Close()
		history = db
	}

	// Публикация результатов в MQTT
	if cfg.MQTTBroker != "" {
		mqttClient, err := mqtt.Connect(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		})
		if err != nil {
			log.Fatalf("Failed to connect to MQTT: %v", err)
		}
		defer mqttClient.Disconnect(250)
		sinks = append(sinks, mqtt.NewPublisher(mqttClient, cfg.MQTTTopic))
	}

	// Диагностический HTTP: метрики и поток результатов
	var diagnostics *http.Server
	if cfg.DiagnosticsAddr != "" {
		hub := websocket.NewHub()
		go hub.Run(ctx)
		sinks = append(sinks, hub)

		mux := http.NewServeMux()
		mux.Handle("/metrics", recorder.Handler())
		mux.HandleFunc("/ws/results", hub.Handler())

		diagnostics = &http.Server{Addr: cfg.DiagnosticsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("Diagnostics server listening on %s", cfg.DiagnosticsAddr)
			if err := diagnostics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Diagnostics server error: %v", err)
			}
		}()
	}

	// Собираем сервисы приложения
	appContainer := container.New(container.Deps{
		Device:    vision.NewCamera(cfg.CameraDevice),
		Codec:     vision.NewCodec(),
		Detector:  client,
		Prober:    client,
		Operators: storage.NewMemoryOperatorRepository(),
		History:   history,
		Sinks:     sinks,
		Recorder:  recorder,
		StreamURL: client.StreamURL,
	}, app.MonitorConfig{
		Width:              cfg.CaptureWidth,
		Height:             cfg.CaptureHeight,
		JPEGQuality:        cfg.JPEGQuality,
		AutoDetectInterval: cfg.AutoDetectInterval,
		JournalSize:        cfg.JournalSize,
	}, cfg.RequestTimeout)

	appContainer.Connection.StartPolling(ctx, cfg.HealthInterval)
	defer appContainer.Connection.StopPolling()

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, cfg.ChatAllowed)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	log.Println("Bot is running...")
	if err := bot.Run(ctx); err != nil {
		log.Printf("Bot error: %v", err)
	}

	if diagnostics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := diagnostics.Shutdown(shutdownCtx); err != nil {
			log.Printf("Diagnostics server shutdown error: %v", err)
		}
	}
	log.Println("Shutdown complete")
}
