package entity

// OperatorState состояние оператора в диалоге
type OperatorState string

const (
	StateMainMenu       OperatorState = "main_menu"       // В главном меню
	StateAwaitingUpload OperatorState = "awaiting_upload" // Ожидание фото для анализа
)

// Operator представляет пользователя, управляющего мониторингом из чата
type Operator struct {
	ID             int64         // Telegram User ID
	ChatID         int64         // Telegram Chat ID
	State          OperatorState // Текущее состояние
	PanelMessageID int           // Сообщение с панелью результатов, 0 если панели нет
}

// NewOperator создаёт оператора с начальным состоянием
func NewOperator(userID, chatID int64) *Operator {
	return &Operator{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние оператора
func (o *Operator) SetState(state OperatorState) {
	o.State = state
}

// ResetPanel забывает сообщение с панелью, следующий результат придёт новым сообщением
func (o *Operator) ResetPanel() {
	o.PanelMessageID = 0
}
