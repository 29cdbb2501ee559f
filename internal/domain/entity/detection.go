package entity

import (
	"strings"
	"time"
)

// Source источник изображения для детекции
type Source string

const (
	SourceWebcam Source = "webcam" // Кадр с камеры
	SourceUpload Source = "upload" // Загруженный пользователем файл
)

// Valid проверяет, что источник известен
func (s Source) Valid() bool {
	return s == SourceWebcam || s == SourceUpload
}

// Class класс усталости, возвращаемый сервисом
type Class string

const (
	ClassAlert       Class = "alert"
	ClassNonVigilant Class = "non_vigilant"
	ClassDrowsy      Class = "drowsy"
)

// Classes перечисляет классы в порядке вывода на панели.
var Classes = []Class{ClassAlert, ClassNonVigilant, ClassDrowsy}

// ParseClass разбирает метку класса. Сервис называет третий класс "tired".
func ParseClass(label string) (Class, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "alert":
		return ClassAlert, true
	case "non_vigilant":
		return ClassNonVigilant, true
	case "drowsy", "tired":
		return ClassDrowsy, true
	}
	return "", false
}

// Label возвращает метку для панели результатов: ALERT, NON VIGILANT, DROWSY.
func (c Class) Label() string {
	return strings.ToUpper(strings.ReplaceAll(string(c), "_", " "))
}

// DetectionRequest запрос на классификацию одного изображения.
// Значение не меняется после создания.
type DetectionRequest struct {
	ImageData   []byte    // JPEG
	Source      Source    // откуда взято изображение
	SubmittedAt time.Time // момент формирования запроса
}

// NewDetectionRequest создаёт запрос со своей копией данных изображения.
func NewDetectionRequest(imageData []byte, source Source, at time.Time) DetectionRequest {
	data := make([]byte, len(imageData))
	copy(data, imageData)
	return DetectionRequest{ImageData: data, Source: source, SubmittedAt: at}
}

// Features признаки лица, если сервис их посчитал
type Features struct {
	EyeAspectRatio float64
	IsSmiling      bool
	IsYawning      bool
	Method         string
}

// DetectionResult результат классификации
type DetectionResult struct {
	PredictedClass Class
	Confidence     float64           // проценты 0..100
	Probabilities  map[Class]float64 // проценты 0..100
	Features       *Features         // nil, если признаков нет
}

// Probability возвращает вероятность класса или 0.
func (r *DetectionResult) Probability(c Class) float64 {
	if r == nil || r.Probabilities == nil {
		return 0
	}
	return r.Probabilities[c]
}

// DetectionRecord запись о принятом результате для истории и внешних подписчиков.
type DetectionRecord struct {
	SessionID  uint64
	Source     Source
	Result     DetectionResult
	Latency    time.Duration
	DetectedAt time.Time
}

// UploadedFile файл, присланный оператором
type UploadedFile struct {
	Name string
	Data []byte
}
