package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fatigue-monitor/internal/domain/entity"
	"fatigue-monitor/internal/domain/port"
)

const (
	broadcastBuffer = 32
	writeWait       = 5 * time.Second
	pongWait        = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub рассылает принятые результаты подключённым наблюдателям.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex

	// pongWait срок ожидания pong, пинги уходят каждые 9/10 этого срока
	pongWait time.Duration
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		pongWait:   pongWait,
	}
}

// Run обслуживает подключения до отмены контекста.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			log.Printf("WebSocket: viewer connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			log.Printf("WebSocket: viewer disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Printf("WebSocket: error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast ставит сообщение в очередь рассылки. При переполненной очереди сообщение теряется.
func (h *Hub) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		return false
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

type resultEvent struct {
	Type       string             `json:"type"`
	SessionID  uint64             `json:"session_id"`
	Source     string             `json:"source"`
	Label      string             `json:"label"`
	Confidence float64            `json:"confidence"`
	Probs      map[string]float64 `json:"probabilities"`
	LatencyMs  int64              `json:"latency_ms"`
	DetectedAt time.Time          `json:"detected_at"`
}

// Publish рассылает результат как JSON-событие "result".
func (h *Hub) Publish(_ context.Context, record entity.DetectionRecord) error {
	probs := make(map[string]float64, len(record.Result.Probabilities))
	for class, value := range record.Result.Probabilities {
		probs[string(class)] = value
	}

	payload, err := json.Marshal(resultEvent{
		Type:       "result",
		SessionID:  record.SessionID,
		Source:     string(record.Source),
		Label:      record.Result.PredictedClass.Label(),
		Confidence: record.Result.Confidence,
		Probs:      probs,
		LatencyMs:  record.Latency.Milliseconds(),
		DetectedAt: record.DetectedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal result event: %w", err)
	}

	if !h.Broadcast(payload) {
		return fmt.Errorf("websocket broadcast queue is full")
	}
	return nil
}

// Handler принимает подключения наблюдателей. Входящие сообщения игнорируются,
// соединение держится пингами.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(h.pongWait))
		connection.SetPongHandler(func(string) error {
			connection.SetReadDeadline(time.Now().Add(h.pongWait))
			return nil
		})

		h.Register(connection)
		defer h.Unregister(connection)

		stop := make(chan struct{})
		defer close(stop)
		go h.ping(connection, stop)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// ping шлёт control-фреймы. WriteControl можно вызывать параллельно с WriteMessage из Run.
func (h *Hub) ping(connection *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(h.pongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := connection.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

var _ port.ResultSink = (*Hub)(nil)
