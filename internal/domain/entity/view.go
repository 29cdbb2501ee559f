package entity

import "time"

// Severity уровень тревоги для отображения результата
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
)

// ProbabilityRow строка панели вероятностей
type ProbabilityRow struct {
	Label string // например "NON VIGILANT"
	Value string // например "5%"
}

// ResultView то, что показывает панель результатов
type ResultView struct {
	Label         string // ALERT / NON VIGILANT / DROWSY
	Emoji         string
	Severity      Severity
	Confidence    string // "92%"
	Probabilities []ProbabilityRow
	Features      []string // пусто, если признаков нет
	Source        Source
	Latency       time.Duration
}

// JournalLevel уровень записи в журнале
type JournalLevel string

const (
	JournalInfo    JournalLevel = "info"
	JournalSuccess JournalLevel = "success"
	JournalWarning JournalLevel = "warning"
	JournalError   JournalLevel = "error"
)

// JournalEntry строка диагностического журнала
type JournalEntry struct {
	At      time.Time
	Level   JournalLevel
	Message string
}
