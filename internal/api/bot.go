package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "fatigue-monitor/internal/application"
	"fatigue-monitor/internal/container"
	"fatigue-monitor/internal/domain/entity"
)

const (
	historyLimit    = 10
	downloadTimeout = 30 * time.Second
)

// Bot представляет Telegram-бота. Каждый чат получает свою рабочую область мониторинга.
type Bot struct {
	bot       *tgbotapi.BotAPI
	api       sender
	download  func(fileID string) ([]byte, error)
	container *container.Container
	allowed   func(chatID int64) bool

	ctx        context.Context
	mu         sync.Mutex
	workspaces map[int64]*app.MonitorService
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, allowed func(chatID int64) bool) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	b := newBot(api, nil, c, allowed)
	b.bot = api
	b.download = b.downloadFile
	return b, nil
}

func newBot(api sender, download func(string) ([]byte, error), c *container.Container, allowed func(int64) bool) *Bot {
	if allowed == nil {
		allowed = func(int64) bool { return true }
	}
	return &Bot{
		api:        api,
		download:   download,
		container:  c,
		allowed:    allowed,
		ctx:        context.Background(),
		workspaces: make(map[int64]*app.MonitorService),
	}
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	defer b.dispose()

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if !b.allowed(msg.Chat.ID) {
		log.Printf("Rejected message from chat %d", msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgForbidden)
		return
	}

	monitor := b.workspace(msg.From.ID, msg.Chat.ID)

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, monitor)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleUpload(ctx, msg, monitor, photo.FileID, "photo.jpg")
		return
	}

	// Изображение, присланное файлом
	if msg.Document != nil {
		if !strings.HasPrefix(msg.Document.MimeType, "image/") {
			b.sendMessage(msg.Chat.ID, msgUnreadableFile)
			return
		}
		b.handleUpload(ctx, msg, monitor, msg.Document.FileID, msg.Document.FileName)
		return
	}

	// Текстовое сообщение (не команда)
	operator, err := b.container.OperatorService.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err == nil && operator.State == entity.StateAwaitingUpload {
		b.sendMessage(msg.Chat.ID, msgAwaitingUpload)
		return
	}
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, monitor *app.MonitorService) {
	chatID := msg.Chat.ID
	operators := b.container.OperatorService

	switch msg.Command() {
	case "start":
		if _, err := operators.Cancel(ctx, msg.From.ID, chatID); err != nil {
			log.Printf("Error updating operator: %v", err)
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "camera":
		if err := monitor.StartCamera(ctx); err != nil {
			b.sendMessage(chatID, fmt.Sprintf(msgCameraBusy, err))
			return
		}
		b.sendMessage(chatID, msgCameraOn)

	case "stop":
		monitor.StopCamera()
		b.sendMessage(chatID, msgCameraOff)

	case "capture":
		task, err := monitor.Capture(ctx)
		if err != nil {
			if errors.Is(err, entity.ErrNoActiveSession) {
				b.sendMessage(chatID, msgCameraRequired)
			} else {
				b.sendMessage(chatID, fmt.Sprintf(msgCameraBusy, err))
			}
			return
		}
		go b.awaitTask(chatID, task)

	case "auto":
		b.handleAuto(chatID, msg.CommandArguments(), monitor)

	case "upload":
		if _, err := operators.BeginUpload(ctx, msg.From.ID, chatID); err != nil {
			log.Printf("Error updating operator: %v", err)
		}
		b.sendMessage(chatID, msgAwaitingUpload)

	case "cancel":
		if _, err := operators.Cancel(ctx, msg.From.ID, chatID); err != nil {
			log.Printf("Error updating operator: %v", err)
		}
		b.sendMessage(chatID, msgCancelled)

	case "status":
		b.sendMessage(chatID, renderStatus(b.container.Connection.Status(), monitor.CaptureState(), monitor.SchedulerState()))

	case "stream":
		if source := strings.TrimSpace(msg.CommandArguments()); source != "" {
			b.sendMessage(chatID, fmt.Sprintf("🎥 Поток %s: %s", source, b.container.StreamURL(source)))
			return
		}
		if !monitor.CaptureState().Active {
			b.sendMessage(chatID, msgStreamUnavailable)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("🎥 Живой поток: %s", b.container.StreamURL("0")))

	case "log":
		b.sendMessage(chatID, renderJournal(monitor.Journal()))

	case "history":
		b.handleHistory(ctx, chatID)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) handleAuto(chatID int64, args string, monitor *app.MonitorService) {
	var enable bool
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "on", "вкл":
		enable = true
	case "off", "выкл":
		enable = false
	case "":
		enable = !monitor.SchedulerState().Enabled
	default:
		b.sendMessage(chatID, msgAutoUsage)
		return
	}

	if err := monitor.SetAutoDetect(enable); err != nil {
		b.sendMessage(chatID, msgCameraRequired)
		return
	}
	if enable {
		b.sendMessage(chatID, fmt.Sprintf(msgAutoOn, b.container.AutoDetectInterval()))
	} else {
		b.sendMessage(chatID, msgAutoOff)
	}
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64) {
	if b.container.History == nil {
		b.sendMessage(chatID, msgHistoryDisabled)
		return
	}

	records, err := b.container.History.Recent(ctx, historyLimit)
	if err != nil {
		log.Printf("Error reading history: %v", err)
		b.sendMessage(chatID, msgHistoryDisabled)
		return
	}
	b.sendMessage(chatID, renderHistory(records))
}

// handleUpload скачивает изображение и отправляет его на анализ
func (b *Bot) handleUpload(ctx context.Context, msg *tgbotapi.Message, monitor *app.MonitorService, fileID, name string) {
	if _, err := b.container.OperatorService.Cancel(ctx, msg.From.ID, msg.Chat.ID); err != nil {
		log.Printf("Error updating operator: %v", err)
	}

	data, err := b.download(fileID)
	if err != nil {
		log.Printf("Error downloading file: %v", err)
		b.sendMessage(msg.Chat.ID, msgDownloadError)
		return
	}

	task, err := monitor.Upload(ctx, entity.UploadedFile{Name: name, Data: data})
	if err != nil {
		b.sendMessage(msg.Chat.ID, msgUnreadableFile)
		return
	}
	go b.awaitTask(msg.Chat.ID, task)
}

// awaitTask сообщает об ошибке детекции. Успешный результат уже на панели.
func (b *Bot) awaitTask(chatID int64, task *app.Task) {
	outcome, err := task.Wait(b.ctx)
	if err != nil || outcome.Stale || outcome.Err == nil {
		return
	}
	b.sendMessage(chatID, failureMessage(outcome.Err))
}

func failureMessage(err error) string {
	kind, _ := entity.FailureKindOf(err)
	switch kind {
	case entity.FailureInferenceRejected:
		return fmt.Sprintf(msgInferenceError, err)
	case entity.FailureMalformedResponse:
		return fmt.Sprintf(msgMalformed, err)
	default:
		return fmt.Sprintf(msgRequestFailed, err)
	}
}

// workspace возвращает мониторинг чата, создаёт при первом обращении
func (b *Bot) workspace(userID, chatID int64) *app.MonitorService {
	b.mu.Lock()
	defer b.mu.Unlock()

	if monitor, ok := b.workspaces[chatID]; ok {
		return monitor
	}

	surface := newChatSurface(b.api, b.container.OperatorService, userID, chatID)
	monitor := b.container.NewMonitor(surface, surface)
	monitor.Init()
	b.workspaces[chatID] = monitor
	log.Printf("Created workspace for chat %d", chatID)
	return monitor
}

func (b *Bot) dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for chatID, monitor := range b.workspaces {
		monitor.Dispose()
		delete(b.workspaces, chatID)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	file, err := b.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	client := &http.Client{Timeout: downloadTimeout}
	resp, err := client.Get(file.Link(b.bot.Token))
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
