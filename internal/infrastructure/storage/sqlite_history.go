package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// SQLiteHistory хранит принятые результаты детекции в SQLite.
type SQLiteHistory struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// NewSQLiteHistory открывает базу и создаёт таблицу при необходимости.
func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	h := &SQLiteHistory{conn: conn}
	if err := h.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}

	return h, nil
}

func (h *SQLiteHistory) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL,
		predicted_class TEXT NOT NULL,
		confidence REAL NOT NULL,
		prob_alert REAL DEFAULT 0,
		prob_non_vigilant REAL DEFAULT 0,
		prob_drowsy REAL DEFAULT 0,
		has_features INTEGER DEFAULT 0,
		ear REAL DEFAULT 0,
		is_smiling INTEGER DEFAULT 0,
		is_yawning INTEGER DEFAULT 0,
		method TEXT DEFAULT '',
		latency_ms INTEGER DEFAULT 0,
		detected_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_detections_detected_at ON detections(detected_at);
	CREATE INDEX IF NOT EXISTS idx_detections_class ON detections(predicted_class);
	`

	_, err := h.conn.Exec(schema)
	return err
}

// Publish сохраняет запись.
func (h *SQLiteHistory) Publish(ctx context.Context, record entity.DetectionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	res := record.Result
	var (
		hasFeatures, smiling, yawning bool
		ear                           float64
		method                        string
	)
	if f := res.Features; f != nil {
		hasFeatures, smiling, yawning, ear, method = true, f.IsSmiling, f.IsYawning, f.EyeAspectRatio, f.Method
	}

	_, err := h.conn.ExecContext(ctx, `
		INSERT INTO detections (session_id, source, predicted_class, confidence,
			prob_alert, prob_non_vigilant, prob_drowsy,
			has_features, ear, is_smiling, is_yawning, method, latency_ms, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, int64(record.SessionID), string(record.Source), string(res.PredictedClass), res.Confidence,
		res.Probability(entity.ClassAlert), res.Probability(entity.ClassNonVigilant), res.Probability(entity.ClassDrowsy),
		hasFeatures, ear, smiling, yawning, method, record.Latency.Milliseconds(), record.DetectedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}
	return nil
}

// Recent возвращает последние записи, новые первыми.
func (h *SQLiteHistory) Recent(ctx context.Context, limit int) ([]entity.DetectionRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := h.conn.QueryContext(ctx, `
		SELECT session_id, source, predicted_class, confidence,
			prob_alert, prob_non_vigilant, prob_drowsy,
			has_features, ear, is_smiling, is_yawning, method, latency_ms, detected_at
		FROM detections ORDER BY detected_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var records []entity.DetectionRecord
	for rows.Next() {
		var (
			sessionID                     int64
			source, class, method         string
			confidence, pa, pn, pd, ear   float64
			hasFeatures, smiling, yawning bool
			latencyMs                     int64
			detectedAt                    time.Time
		)
		if err := rows.Scan(&sessionID, &source, &class, &confidence, &pa, &pn, &pd,
			&hasFeatures, &ear, &smiling, &yawning, &method, &latencyMs, &detectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}

		record := entity.DetectionRecord{
			SessionID: uint64(sessionID),
			Source:    entity.Source(source),
			Result: entity.DetectionResult{
				PredictedClass: entity.Class(class),
				Confidence:     confidence,
				Probabilities: map[entity.Class]float64{
					entity.ClassAlert:       pa,
					entity.ClassNonVigilant: pn,
					entity.ClassDrowsy:      pd,
				},
			},
			Latency:    time.Duration(latencyMs) * time.Millisecond,
			DetectedAt: detectedAt,
		}
		if hasFeatures {
			record.Result.Features = &entity.Features{
				EyeAspectRatio: ear,
				IsSmiling:      smiling,
				IsYawning:      yawning,
				Method:         method,
			}
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Close закрывает соединение с базой.
func (h *SQLiteHistory) Close() error {
	return h.conn.Close()
}

var _ port.HistoryRepository = (*SQLiteHistory)(nil)
