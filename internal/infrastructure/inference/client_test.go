package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fatigue-monitor/internal/domain/entity"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", DefaultEndpoints, time.Second)
}

func webcamRequest() entity.DetectionRequest {
	return entity.NewDetectionRequest([]byte{0xff, 0xd8, 0xff}, entity.SourceWebcam, time.Now())
}

func TestClient_SubmitSuccess(t *testing.T) {
	var got predictRequest
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Write([]byte(`{"success": true, "predicted_class": "alert", "confidence": 92,
			"probabilities": {"alert": 92, "non_vigilant": 5, "tired": 3},
			"features": {"ear": 0.31, "is_smiling": true, "is_yawning": false, "method": "dlib"}}`))
	})

	result, err := client.Submit(context.Background(), webcamRequest())
	require.NoError(t, err)

	require.Equal(t, "webcam", got.Source)
	require.True(t, strings.HasPrefix(got.ImageBase64, "data:image/jpeg;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got.ImageBase64, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xd8, 0xff}, raw)

	require.Equal(t, entity.ClassAlert, result.PredictedClass)
	require.Equal(t, 92.0, result.Confidence)
	require.Equal(t, 3.0, result.Probability(entity.ClassDrowsy))
	require.Equal(t, 5.0, result.Probability(entity.ClassNonVigilant))
	require.NotNil(t, result.Features)
	require.Equal(t, 0.31, result.Features.EyeAspectRatio)
	require.True(t, result.Features.IsSmiling)
	require.Equal(t, "dlib", result.Features.Method)
}

func TestClient_SubmitFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   entity.FailureKind
	}{
		{"application error", http.StatusOK, `{"error": "x"}`, entity.FailureInferenceRejected},
		{"empty error without prediction", http.StatusOK, `{"error": ""}`, entity.FailureMalformedResponse},
		{"server error", http.StatusInternalServerError, `{"error": "boom"}`, entity.FailureRequestFailed},
		{"not found", http.StatusNotFound, `not found`, entity.FailureRequestFailed},
		{"not json", http.StatusOK, `<html>`, entity.FailureMalformedResponse},
		{"missing confidence", http.StatusOK, `{"predicted_class": "alert", "probabilities": {}}`, entity.FailureMalformedResponse},
		{"unknown class", http.StatusOK, `{"predicted_class": "asleep", "confidence": 50, "probabilities": {}}`, entity.FailureMalformedResponse},
		{"bad probability", http.StatusOK, `{"predicted_class": "alert", "confidence": 50, "probabilities": {"bored": 1}}`, entity.FailureMalformedResponse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			result, err := client.Submit(context.Background(), webcamRequest())
			require.Nil(t, result)
			kind, ok := entity.FailureKindOf(err)
			require.True(t, ok, "got %v", err)
			require.Equal(t, tc.kind, kind)
		})
	}
}

func TestClient_SubmitEmptyErrorIsNotRejection(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "", "predicted_class": "tired", "confidence": 77,
			"probabilities": {"alert": 10, "non_vigilant": 13, "tired": 77}}`))
	})

	result, err := client.Submit(context.Background(), webcamRequest())
	require.NoError(t, err)
	require.Equal(t, entity.ClassDrowsy, result.PredictedClass)
	require.Equal(t, 77.0, result.Confidence)
}

func TestClient_SubmitRejectedMessage(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Model not loaded"}`))
	})

	_, err := client.Submit(context.Background(), webcamRequest())
	var failure *entity.Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "Model not loaded", failure.Message)
}

func TestClient_SubmitTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(srv.URL, DefaultEndpoints, time.Second)
	srv.Close()

	_, err := client.Submit(context.Background(), webcamRequest())
	kind, ok := entity.FailureKindOf(err)
	require.True(t, ok)
	require.Equal(t, entity.FailureRequestFailed, kind)
}

func TestClient_SubmitTimeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(done) })

	client := NewClient(srv.URL, DefaultEndpoints, 50*time.Millisecond)
	_, err := client.Submit(context.Background(), webcamRequest())
	kind, ok := entity.FailureKindOf(err)
	require.True(t, ok)
	require.Equal(t, entity.FailureRequestFailed, kind)
}

func TestClient_Health(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status": "healthy", "accuracy": 94.5, "model_loaded": true, "device": "cpu"}`))
	})

	report, err := client.Health(context.Background())
	require.NoError(t, err)
	require.True(t, report.Healthy())
	require.NotNil(t, report.Accuracy)
	require.Equal(t, 94.5, *report.Accuracy)
	require.Equal(t, "cpu", report.Metadata["device"])
}

func TestClient_HealthNonSuccess(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Health(context.Background())
	require.Error(t, err)
}

func TestClient_HealthDegraded(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "degraded", "model_loaded": false}`))
	})

	report, err := client.Health(context.Background())
	require.NoError(t, err)
	require.False(t, report.Healthy())
	require.Nil(t, report.Accuracy)
}

func TestStreamURL(t *testing.T) {
	client := NewClient("http://camera.local:5000/", DefaultEndpoints, time.Second)
	at := time.UnixMilli(1700000000123)

	require.Equal(t, "http://camera.local:5000/video_feed?source=0&t=1700000000123", client.StreamURL("0", at))
	require.Equal(t, "http://camera.local:5000/video_feed?source=clip+1.mp4&t=1700000000123", client.StreamURL("clip 1.mp4", at))
}
