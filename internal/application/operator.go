package app

import (
	"context"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

type OperatorService struct {
	repo port.OperatorRepository
}

func NewOperatorService(repo port.OperatorRepository) *OperatorService {
	return &OperatorService{repo: repo}
}

func (s *OperatorService) Get(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *OperatorService) SetState(ctx context.Context, userID, chatID int64, state entity.OperatorState) (*entity.Operator, error) {
	operator, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	operator.SetState(state)
	if err := s.repo.Save(ctx, operator); err != nil {
		return nil, err
	}

	return operator, nil
}

func (s *OperatorService) BeginUpload(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingUpload)
}

func (s *OperatorService) Cancel(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// BindPanel запоминает сообщение, в котором оператор видит панель результатов.
func (s *OperatorService) BindPanel(ctx context.Context, userID, chatID int64, messageID int) error {
	operator, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return err
	}
	operator.PanelMessageID = messageID
	return s.repo.Save(ctx, operator)
}

// ReleasePanel забывает панель результатов чата, следующий результат придёт новым сообщением.
func (s *OperatorService) ReleasePanel(ctx context.Context, userID, chatID int64) error {
	operator, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return err
	}
	operator.ResetPanel()
	return s.repo.Save(ctx, operator)
}
