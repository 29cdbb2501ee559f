package port

import "context"

// CaptureDevice интерфейс устройства видеозахвата
type CaptureDevice interface {
	// Open захватывает устройство в монопольное пользование с заданным разрешением
	Open(ctx context.Context, width, height int) (VideoStream, error)
}

// VideoStream открытый поток камеры
type VideoStream interface {
	// Snapshot снимает текущий кадр в исходном разрешении и кодирует его в JPEG
	Snapshot(quality int) ([]byte, error)

	// Close освобождает устройство
	Close() error
}

// ImageCodec проверяет и перекодирует изображения
type ImageCodec interface {
	// EncodeJPEG декодирует произвольное изображение и кодирует его в JPEG
	EncodeJPEG(data []byte, quality int) ([]byte, error)
}
