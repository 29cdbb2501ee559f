package port

import (
	"context"

	"fatigue-monitor/internal/domain/entity"
)

// OperatorRepository интерфейс хранилища операторов
type OperatorRepository interface {
	// Get возвращает состояние оператора в чате, создаёт новое если не найдено.
	// Состояние хранится по чату: у одного пользователя в разных чатах разные панели.
	Get(ctx context.Context, userID, chatID int64) (*entity.Operator, error)

	// Save сохраняет состояние оператора
	Save(ctx context.Context, operator *entity.Operator) error
}
