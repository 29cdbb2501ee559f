package entity

import (
	"errors"
	"fmt"
)

var (
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	ErrNoActiveSession   = errors.New("no active capture session")
	ErrSessionRequired   = errors.New("auto-detect requires an active capture session")
	ErrUnreadableFile    = errors.New("unreadable image file")
)

// FailureKind вид ошибки конвейера детекции
type FailureKind string

const (
	FailureRequestFailed     FailureKind = "request_failed"     // сеть, таймаут, не-2xx
	FailureInferenceRejected FailureKind = "inference_rejected" // сервис вернул поле error
	FailureMalformedResponse FailureKind = "malformed_response" // ответ не разобрать
)

// Failure ошибка отправки запроса на детекцию
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure создаёт ошибку заданного вида.
func NewFailure(kind FailureKind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

// FailureKindOf возвращает вид ошибки, если err содержит *Failure.
func FailureKindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}
