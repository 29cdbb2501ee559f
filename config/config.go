package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	AllowedChats  []int64 // пусто - бот отвечает всем

	InferenceURL   string
	PredictPath    string
	HealthPath     string
	StreamPath     string
	RequestTimeout time.Duration

	CameraDevice  int
	CaptureWidth  int
	CaptureHeight int
	JPEGQuality   int

	AutoDetectInterval time.Duration
	HealthInterval     time.Duration
	JournalSize        int

	HistoryDB       string // пусто - история не ведётся
	DiagnosticsAddr string // пусто - /metrics и /ws/results не поднимаются

	MQTTBroker   string // пусто - результаты в MQTT не публикуются
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	MQTTTopic    string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	allowed, err := parseChatIDs(os.Getenv("ALLOWED_CHATS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		AllowedChats:  allowed,

		InferenceURL:   getEnv("INFERENCE_URL", "http://localhost:5000"),
		PredictPath:    getEnv("PREDICT_PATH", "/predict"),
		HealthPath:     getEnv("HEALTH_PATH", "/health"),
		StreamPath:     getEnv("STREAM_PATH", "/video_feed"),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),

		CameraDevice:  getEnvAsInt("CAMERA_DEVICE", 0),
		CaptureWidth:  getEnvAsInt("CAPTURE_WIDTH", 640),
		CaptureHeight: getEnvAsInt("CAPTURE_HEIGHT", 480),
		JPEGQuality:   getEnvAsInt("JPEG_QUALITY", 80),

		AutoDetectInterval: getEnvAsDuration("AUTO_DETECT_INTERVAL", 2*time.Second),
		HealthInterval:     getEnvAsDuration("HEALTH_INTERVAL", 30*time.Second),
		JournalSize:        getEnvAsInt("JOURNAL_SIZE", 50),

		HistoryDB:       getEnvOptional("HISTORY_DB", "./data/history.db"),
		DiagnosticsAddr: getEnvOptional("DIAGNOSTICS_ADDR", ":9090"),

		MQTTBroker:   os.Getenv("MQTT_BROKER"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "fatigue-monitor"),
		MQTTUsername: os.Getenv("MQTT_USERNAME"),
		MQTTPassword: os.Getenv("MQTT_PASSWORD"),
		MQTTTopic:    getEnv("MQTT_TOPIC", "fatigue/{source}/result"),
	}

	return cfg, nil
}

// Validate проверяет обязательные поля и диапазоны.
func (c *Config) Validate() error {
	var errs []error
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.AutoDetectInterval <= 0 {
		errs = append(errs, errors.New("AUTO_DETECT_INTERVAL must be positive"))
	}
	if c.HealthInterval <= 0 {
		errs = append(errs, errors.New("HEALTH_INTERVAL must be positive"))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("JPEG_QUALITY must be in 1..100, got %d", c.JPEGQuality))
	}
	if c.CaptureWidth <= 0 || c.CaptureHeight <= 0 {
		errs = append(errs, errors.New("CAPTURE_WIDTH and CAPTURE_HEIGHT must be positive"))
	}
	return errors.Join(errs...)
}

// ChatAllowed сообщает, может ли чат управлять ботом.
func (c *Config) ChatAllowed(chatID int64) bool {
	if len(c.AllowedChats) == 0 {
		return true
	}
	for _, id := range c.AllowedChats {
		if id == chatID {
			return true
		}
	}
	return false
}

func parseChatIDs(value string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ALLOWED_CHATS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOptional как getEnv, но явно заданная пустая строка остаётся пустой
func getEnvOptional(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration принимает "2s", "500ms" или целое число секунд
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
