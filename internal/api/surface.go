package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "fatigue-monitor/internal/application"
	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

// sender часть BotAPI, которой пользуется чат
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// chatSurface область отображения и панель результатов в одном чате.
// Панель результатов одна и редактируется на месте.
type chatSurface struct {
	api       sender
	operators *app.OperatorService
	userID    int64
	chatID    int64

	mu sync.Mutex
}

func newChatSurface(api sender, operators *app.OperatorService, userID, chatID int64) *chatSurface {
	return &chatSurface{api: api, operators: operators, userID: userID, chatID: chatID}
}

func (s *chatSurface) ShowLive(streamURL string) {
	s.send(fmt.Sprintf("🎥 Живой поток: %s", streamURL))
}

func (s *chatSurface) ShowStill(image []byte) {
	photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FileBytes{Name: "frame.jpg", Bytes: image})
	photo.Caption = msgProcessing
	if _, err := s.api.Send(photo); err != nil {
		log.Printf("Error sending photo to chat %d: %v", s.chatID, err)
	}
}

func (s *chatSurface) ShowPlaceholder() {
	s.send(msgPlaceholder)
}

// ShowResult редактирует панель или присылает новую, если панели ещё нет.
func (s *chatSurface) ShowResult(view entity.ResultView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	text := renderResult(view)

	operator, err := s.operators.Get(ctx, s.userID, s.chatID)
	if err != nil {
		log.Printf("Error getting operator: %v", err)
		return
	}

	if operator.PanelMessageID != 0 {
		edit := tgbotapi.NewEditMessageText(s.chatID, operator.PanelMessageID, text)
		_, err := s.api.Send(edit)
		if err == nil || isNotModified(err) {
			return
		}
		log.Printf("Error editing result panel, sending a new one: %v", err)
	}

	msg, err := s.api.Send(tgbotapi.NewMessage(s.chatID, text))
	if err != nil {
		log.Printf("Error sending result panel: %v", err)
		return
	}
	if err := s.operators.BindPanel(ctx, s.userID, s.chatID, msg.MessageID); err != nil {
		log.Printf("Error saving result panel: %v", err)
	}
}

// ClearResult удаляет панель из чата.
func (s *chatSurface) ClearResult() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	operator, err := s.operators.Get(ctx, s.userID, s.chatID)
	if err != nil || operator.PanelMessageID == 0 {
		return
	}

	if _, err := s.api.Request(tgbotapi.NewDeleteMessage(s.chatID, operator.PanelMessageID)); err != nil {
		log.Printf("Error deleting result panel: %v", err)
	}
	if err := s.operators.ReleasePanel(ctx, s.userID, s.chatID); err != nil {
		log.Printf("Error resetting result panel: %v", err)
	}
}

func (s *chatSurface) send(text string) {
	if _, err := s.api.Send(tgbotapi.NewMessage(s.chatID, text)); err != nil {
		log.Printf("Error sending message to chat %d: %v", s.chatID, err)
	}
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}

var (
	_ port.DisplaySurface = (*chatSurface)(nil)
	_ port.ResultSurface  = (*chatSurface)(nil)
)
