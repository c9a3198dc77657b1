package ordersapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-delivery/internal/model"
)

// Типы событий потока заказов.
const (
	EventNewOrder          = "new_order"
	EventOrderStatusUpdate = "order_status_update"
)

// Event описывает сообщение из потока событий API заказов.
type Event struct {
	Type         string            `json:"type"`
	OrderID      int64             `json:"order_id"`
	OrderNumber  string            `json:"order_number"`
	CustomerName string            `json:"customer_name,omitempty"`
	Total        decimal.Decimal   `json:"total"`
	Status       model.OrderStatus `json:"status,omitempty"`
}

// EventsURL возвращает адрес WebSocket-потока событий.
func (c *Client) EventsURL() string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

// Subscribe читает поток событий и передаёт их в handler.
// После обрыва соединения переподключается через ReconnectDelay, пока не отменён ctx.
func (c *Client) Subscribe(ctx context.Context, handler func(Event)) error {
	if c == nil || c.baseURL == "" {
		return ErrNotConfigured
	}

	for {
		err := c.listen(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("orders events stream interrupted", zap.Error(err), zap.Duration("reconnect_in", c.ReconnectDelay))

		timer := time.NewTimer(c.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) listen(ctx context.Context, handler func(Event)) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.EventsURL(), header)
	if err != nil {
		return fmt.Errorf("dial events: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		if ev.Type != EventNewOrder && ev.Type != EventOrderStatusUpdate {
			continue
		}
		handler(ev)
	}
}
