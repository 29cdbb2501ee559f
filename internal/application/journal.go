package app

import (
	"log"
	"sync"
	"time"

	"fatigue-monitor/internal/domain/entity"
)

const defaultJournalSize = 50

// Journal диагностический журнал оператора, хранит последние записи
type Journal struct {
	mu      sync.Mutex
	size    int
	entries []entity.JournalEntry
	now     func() time.Time
}

func NewJournal(size int) *Journal {
	if size <= 0 {
		size = defaultJournalSize
	}
	j := &Journal{size: size, now: time.Now}
	j.Reset()
	return j
}

// Add дописывает запись и дублирует её в лог процесса.
func (j *Journal) Add(level entity.JournalLevel, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, entity.JournalEntry{At: j.now(), Level: level, Message: message})
	if over := len(j.entries) - j.size; over > 0 {
		j.entries = append(j.entries[:0], j.entries[over:]...)
	}
	log.Printf("[journal:%s] %s", level, message)
}

// Reset очищает журнал до строки "Готово."
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = []entity.JournalEntry{{At: j.now(), Level: entity.JournalInfo, Message: "Готово."}}
}

// Entries возвращает копию записей, старые первыми.
func (j *Journal) Entries() []entity.JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]entity.JournalEntry, len(j.entries))
	copy(out, j.entries)
	return out
}
