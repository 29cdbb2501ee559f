package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

const maxResponseSize = 1 << 20

// Endpoints пути сервиса инференса относительно базового адреса
type Endpoints struct {
	Predict string
	Health  string
	Stream  string
}

// DefaultEndpoints пути Flask-сервиса
var DefaultEndpoints = Endpoints{
	Predict: "/predict",
	Health:  "/health",
	Stream:  "/video_feed",
}

// Client HTTP-клиент сервиса классификации усталости
type Client struct {
	baseURL   string
	endpoints Endpoints
	http      *http.Client
}

// NewClient создаёт клиента. timeout ограничивает каждый запрос целиком.
func NewClient(baseURL string, endpoints Endpoints, timeout time.Duration) *Client {
	if endpoints.Predict == "" {
		endpoints.Predict = DefaultEndpoints.Predict
	}
	if endpoints.Health == "" {
		endpoints.Health = DefaultEndpoints.Health
	}
	if endpoints.Stream == "" {
		endpoints.Stream = DefaultEndpoints.Stream
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: endpoints,
		http:      &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	ImageBase64 string `json:"image_base64"`
	Source      string `json:"source"`
}

type predictResponse struct {
	Error          *string             `json:"error"`
	PredictedClass *string             `json:"predicted_class"`
	Confidence     *float64            `json:"confidence"`
	Probabilities  map[string]*float64 `json:"probabilities"`
	Features       *featuresPayload    `json:"features"`
}

type featuresPayload struct {
	EAR       float64 `json:"ear"`
	IsSmiling bool    `json:"is_smiling"`
	IsYawning bool    `json:"is_yawning"`
	Method    string  `json:"method"`
}

// Submit отправляет изображение на /predict.
func (c *Client) Submit(ctx context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error) {
	body, err := json.Marshal(predictRequest{
		ImageBase64: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(req.ImageData),
		Source:      string(req.Source),
	})
	if err != nil {
		return nil, entity.NewFailure(entity.FailureRequestFailed, "encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.endpoints.Predict, bytes.NewReader(body))
	if err != nil {
		return nil, entity.NewFailure(entity.FailureRequestFailed, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, entity.NewFailure(entity.FailureRequestFailed, "post "+c.endpoints.Predict, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, entity.NewFailure(entity.FailureRequestFailed, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, entity.NewFailure(entity.FailureRequestFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	return decodePrediction(data)
}

func decodePrediction(data []byte) (*entity.DetectionResult, error) {
	var payload predictResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, entity.NewFailure(entity.FailureMalformedResponse, "decode response", err)
	}

	if payload.Error != nil && *payload.Error != "" {
		return nil, entity.NewFailure(entity.FailureInferenceRejected, *payload.Error, nil)
	}

	if payload.PredictedClass == nil || payload.Confidence == nil || payload.Probabilities == nil {
		return nil, entity.NewFailure(entity.FailureMalformedResponse, "missing predicted_class, confidence or probabilities", nil)
	}

	class, ok := entity.ParseClass(*payload.PredictedClass)
	if !ok {
		return nil, entity.NewFailure(entity.FailureMalformedResponse, fmt.Sprintf("unknown class %q", *payload.PredictedClass), nil)
	}

	result := &entity.DetectionResult{
		PredictedClass: class,
		Confidence:     *payload.Confidence,
		Probabilities:  make(map[entity.Class]float64, len(payload.Probabilities)),
	}
	for label, value := range payload.Probabilities {
		c, ok := entity.ParseClass(label)
		if !ok || value == nil {
			return nil, entity.NewFailure(entity.FailureMalformedResponse, fmt.Sprintf("bad probability %q", label), nil)
		}
		result.Probabilities[c] = *value
	}

	if f := payload.Features; f != nil {
		result.Features = &entity.Features{
			EyeAspectRatio: f.EAR,
			IsSmiling:      f.IsSmiling,
			IsYawning:      f.IsYawning,
			Method:         f.Method,
		}
	}

	return result, nil
}

// Health опрашивает health-эндпоинт. Ответ не-2xx считается ошибкой.
func (c *Client) Health(ctx context.Context) (*entity.HealthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.endpoints.Health, nil)
	if err != nil {
		return nil, fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c.endpoints.Health, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: unexpected status %d", c.endpoints.Health, resp.StatusCode)
	}

	var metadata map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}

	report := &entity.HealthReport{Metadata: metadata}
	if status, ok := metadata["status"].(string); ok {
		report.Status = status
	}
	if accuracy, ok := metadata["accuracy"].(float64); ok {
		report.Accuracy = &accuracy
	}
	return report, nil
}

// StreamURL адрес непрерывного потока кадров: "0" для камеры или идентификатор загрузки.
func (c *Client) StreamURL(source string, at time.Time) string {
	return StreamURL(c.baseURL+c.endpoints.Stream, source, at)
}

// StreamURL собирает адрес потока с меткой времени в параметре t.
func StreamURL(streamEndpoint, source string, at time.Time) string {
	q := url.Values{}
	q.Set("source", source)
	q.Set("t", strconv.FormatInt(at.UnixMilli(), 10))
	return streamEndpoint + "?" + q.Encode()
}

var (
	_ port.DetectionClient = (*Client)(nil)
	_ port.HealthProber    = (*Client)(nil)
)
