package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// SourcePlaceholder подставляется в шаблон топика.
const SourcePlaceholder = "{source}"

// DefaultTopic шаблон топика по умолчанию
const DefaultTopic = "fatigue/" + SourcePlaceholder + "/result"

const publishTimeout = 5 * time.Second

// publishClient часть mqtt.Client, нужная издателю
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher отправляет принятые результаты в MQTT.
type Publisher struct {
	client publishClient
	topic  string
}

// NewPublisher создаёт издателя. Пустой шаблон заменяется DefaultTopic.
func NewPublisher(client publishClient, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{client: client, topic: topic}
}

type resultMessage struct {
	SessionID      uint64             `json:"session_id"`
	Source         string             `json:"source"`
	PredictedClass string             `json:"predicted_class"`
	Confidence     float64            `json:"confidence"`
	Probabilities  map[string]float64 `json:"probabilities"`
	Features       *featuresMessage   `json:"features,omitempty"`
	LatencyMs      int64              `json:"latency_ms"`
	DetectedAt     time.Time          `json:"detected_at"`
}

type featuresMessage struct {
	EAR       float64 `json:"ear"`
	IsSmiling bool    `json:"is_smiling"`
	IsYawning bool    `json:"is_yawning"`
	Method    string  `json:"method,omitempty"`
}

// Publish публикует результат с QoS 1.
func (p *Publisher) Publish(ctx context.Context, record entity.DetectionRecord) error {
	payload, err := json.Marshal(newResultMessage(record))
	if err != nil {
		return fmt.Errorf("failed to marshal detection result: %w", err)
	}

	topic := formatTopic(p.topic, string(record.Source))

	token := p.client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish detection result: %w", err)
	}

	log.Printf("Published %s result to topic: %s", record.Result.PredictedClass, topic)
	return nil
}

func newResultMessage(record entity.DetectionRecord) resultMessage {
	probs := make(map[string]float64, len(record.Result.Probabilities))
	for class, value := range record.Result.Probabilities {
		probs[string(class)] = value
	}

	msg := resultMessage{
		SessionID:      record.SessionID,
		Source:         string(record.Source),
		PredictedClass: string(record.Result.PredictedClass),
		Confidence:     record.Result.Confidence,
		Probabilities:  probs,
		LatencyMs:      record.Latency.Milliseconds(),
		DetectedAt:     record.DetectedAt.UTC(),
	}
	if f := record.Result.Features; f != nil {
		msg.Features = &featuresMessage{
			EAR:       f.EyeAspectRatio,
			IsSmiling: f.IsSmiling,
			IsYawning: f.IsYawning,
			Method:    f.Method,
		}
	}
	return msg
}

// formatTopic подставляет источник в шаблон топика
func formatTopic(topicPattern, source string) string {
	return strings.ReplaceAll(topicPattern, SourcePlaceholder, source)
}

var _ port.ResultSink = (*Publisher)(nil)
