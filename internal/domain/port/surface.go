package port

import "fatigue-monitor/internal/domain/entity"

// DisplaySurface область отображения одного оператора
type DisplaySurface interface {
	// ShowLive показывает живой поток по адресу
	ShowLive(streamURL string)

	// ShowStill показывает снимок или загруженное изображение
	ShowStill(image []byte)

	// ShowPlaceholder возвращает заглушку по умолчанию
	ShowPlaceholder()
}

// ResultSurface панель результатов
type ResultSurface interface {
	// ShowResult перерисовывает панель, последний вызов побеждает
	ShowResult(view entity.ResultView)

	// ClearResult прячет панель
	ClearResult()
}
