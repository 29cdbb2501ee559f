package entity

// CaptureState снимок состояния сессии захвата
type CaptureState struct {
	SessionID uint64 // идентификатор текущей (или последней) сессии
	Active    bool   // true, пока поток камеры открыт
}

// SchedulerState снимок состояния автодетекции
type SchedulerState struct {
	Enabled  bool
	InFlight bool
}
