package storage

import (
	"context"
	"sync"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// MemoryOperatorRepository in-memory хранилище операторов, ключ - ID чата
type MemoryOperatorRepository struct {
	mu        sync.RWMutex
	operators map[int64]*entity.Operator
}

// NewMemoryOperatorRepository создаёт новое in-memory хранилище
func NewMemoryOperatorRepository() *MemoryOperatorRepository {
	return &MemoryOperatorRepository{
		operators: make(map[int64]*entity.Operator),
	}
}

// Get возвращает оператора чата, создаёт нового если не найден
func (r *MemoryOperatorRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	r.mu.RLock()
	operator, exists := r.operators[chatID]
	r.mu.RUnlock()

	if exists {
		return operator, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Мог появиться, пока ждали блокировку
	if operator, exists := r.operators[chatID]; exists {
		return operator, nil
	}

	operator = entity.NewOperator(userID, chatID)
	r.operators[chatID] = operator
	return operator, nil
}

// Save сохраняет состояние оператора
func (r *MemoryOperatorRepository) Save(ctx context.Context, operator *entity.Operator) error {
	r.mu.Lock()
	r.operators[operator.ChatID] = operator
	r.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.OperatorRepository = (*MemoryOperatorRepository)(nil)
