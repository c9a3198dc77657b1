package hub

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// Типы событий кухни.
const (
	EventNewOrder          = "new_order"
	EventOrderStatusUpdate = "order_status_update"
	EventOrdersSynced      = "orders_synced"
)

// Message описывает событие, отправляемое клиентам.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub хранит подключённых клиентов кухни и рассылает им события.
type Hub struct {
	logger *zap.Logger

	mu       sync.Mutex
	clients  map[*Conn]struct{}
	onChange func(clients int)
}

// New создаёт пустой хаб. onChange вызывается при изменении числа клиентов и может быть nil.
func New(logger *zap.Logger, onChange func(clients int)) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:   logger,
		clients:  make(map[*Conn]struct{}),
		onChange: onChange,
	}
}

// ServeHTTP подключает клиента и держит соединение до его закрытия.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := Upgrade(w, r)
	if err != nil {
		h.logger.Warn("kitchen websocket upgrade failed", zap.Error(err))
		return
	}

	h.add(c)
	defer h.remove(c)

	c.ReadLoop(nil)
}

func (h *Hub) add(c *Conn) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.notify(n)
}

func (h *Hub) remove(c *Conn) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	c.Close()
	if ok {
		h.notify(n)
	}
}

func (h *Hub) notify(n int) {
	if h.onChange != nil {
		h.onChange(n)
	}
}

// Broadcast отправляет событие всем клиентам. Клиенты с переполненным буфером отключаются.
func (h *Hub) Broadcast(eventType string, data any) {
	payload, err := json.Marshal(Message{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("encode hub message", zap.String("type", eventType), zap.Error(err))
		return
	}

	h.mu.Lock()
	targets := make([]*Conn, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.sendRaw(payload); err != nil {
			if errors.Is(err, ErrSlowClient) {
				h.logger.Warn("dropping slow kitchen client")
			}
			h.remove(c)
		}
	}
}

// Clients возвращает число подключённых клиентов.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close отключает всех клиентов.
func (h *Hub) Close() {
	h.mu.Lock()
	targets := make([]*Conn, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		h.remove(c)
	}
}
