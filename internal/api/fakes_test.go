package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "fatigue-monitor/internal/application"
	"fatigue-monitor/internal/container"
	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
	"fatigue-monitor/internal/infrastructure/storage"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	editErr  error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	if _, ok := c.(tgbotapi.EditMessageTextConfig); ok && s.editErr != nil {
		return tgbotapi.Message{}, s.editErr
	}
	s.nextID++
	return tgbotapi.Message{MessageID: s.nextID}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// Texts тексты всех отправленных сообщений, подписей и правок
func (s *fakeSender) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		case tgbotapi.PhotoConfig:
			out = append(out, m.Caption)
		}
	}
	return out
}

func (s *fakeSender) Edits() []tgbotapi.EditMessageTextConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range s.sent {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (s *fakeSender) Deletes() []tgbotapi.DeleteMessageConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tgbotapi.DeleteMessageConfig
	for _, c := range s.requests {
		if d, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

func (s *fakeSender) Contains(substr string) bool {
	for _, text := range s.Texts() {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

type fakeStream struct{}

func (fakeStream) Snapshot(int) ([]byte, error) { return []byte("frame"), nil }
func (fakeStream) Close() error                 { return nil }

type fakeDevice struct {
	err error
}

func (d fakeDevice) Open(context.Context, int, int) (port.VideoStream, error) {
	if d.err != nil {
		return nil, d.err
	}
	return fakeStream{}, nil
}

type fakeCodec struct{}

func (fakeCodec) EncodeJPEG(data []byte, quality int) ([]byte, error) {
	if string(data) == "garbage" {
		return nil, errors.New("unknown format")
	}
	return append([]byte("jpeg:"), data...), nil
}

type fakeDetector struct {
	result *entity.DetectionResult
	err    error
}

func (d fakeDetector) Submit(ctx context.Context, req entity.DetectionRequest) (*entity.DetectionResult, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.result, nil
}

type fakeProber struct{}

func (fakeProber) Health(context.Context) (*entity.HealthReport, error) {
	acc := 94.5
	return &entity.HealthReport{Status: entity.HealthyStatus, Accuracy: &acc, Metadata: map[string]any{"status": "healthy", "accuracy": acc}}, nil
}

func drowsyResult() *entity.DetectionResult {
	return &entity.DetectionResult{
		PredictedClass: entity.ClassDrowsy,
		Confidence:     81.25,
		Probabilities: map[entity.Class]float64{
			entity.ClassAlert:       6.25,
			entity.ClassNonVigilant: 12.5,
			entity.ClassDrowsy:      81.25,
		},
	}
}

type botFixture struct {
	bot    *Bot
	sender *fakeSender
}

func newBotFixture(device port.CaptureDevice, detector port.DetectionClient, allowed func(int64) bool) *botFixture {
	c := container.New(container.Deps{
		Device:    device,
		Codec:     fakeCodec{},
		Detector:  detector,
		Prober:    fakeProber{},
		Operators: storage.NewMemoryOperatorRepository(),
		StreamURL: func(source string, at time.Time) string { return "http://svc/video_feed?source=" + source },
	}, app.MonitorConfig{Width: 640, Height: 480, JPEGQuality: 80, AutoDetectInterval: time.Hour}, time.Second)

	sender := &fakeSender{}
	download := func(fileID string) ([]byte, error) {
		if fileID == "missing" {
			return nil, errors.New("not found")
		}
		return []byte(fileID), nil
	}
	return &botFixture{bot: newBot(sender, download, c, allowed), sender: sender}
}

func command(chatID int64, text string) *tgbotapi.Message {
	name := strings.SplitN(text, " ", 2)[0]
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: chatID},
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func photo(chatID int64, fileID string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From:  &tgbotapi.User{ID: chatID},
		Chat:  &tgbotapi.Chat{ID: chatID},
		Photo: []tgbotapi.PhotoSize{{FileID: "thumb"}, {FileID: fileID}},
	}
}
