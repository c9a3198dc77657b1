package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-delivery/internal/delivery"
	"github.com/mmeshcher/restaurant-delivery/internal/hub"
)

// Сообщения клиента живого расчёта.
const (
	liveInput    = "input"
	liveLocated  = "located"
	liveExpress  = "express"
	liveSubtotal = "subtotal"

	liveQuote = "quote"
)

type liveMessage struct {
	Type       string           `json:"type"`
	Value      string           `json:"value,omitempty"`
	PostalCode string           `json:"postal_code,omitempty"`
	Express    bool             `json:"express,omitempty"`
	Subtotal   *decimal.Decimal `json:"subtotal,omitempty"`
}

// Live ведёт живой расчёт доставки по WebSocket: ввод индекса с задержкой,
// индекс из геолокации и переключатели заказа.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	subtotal, express, err := quoteParams(r)
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}
	session := sessionID(r)

	conn, err := hub.Upgrade(w, r)
	if err != nil {
		h.logger.Warn("live websocket upgrade failed", zap.Error(err))
		return
	}

	live := h.service.NewLiveSession(r.Context(), session, subtotal, express, func(res delivery.LiveResult) {
		if err := conn.Send(hub.Message{Type: liveQuote, Data: res}); err != nil {
			h.logger.Debug("live quote not delivered", zap.Error(err))
		}
	})
	defer h.service.CloseLiveSession(live)

	conn.ReadLoop(func(data []byte) {
		var msg liveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		switch msg.Type {
		case liveInput:
			live.Input(msg.Value)
		case liveLocated:
			live.Located(msg.PostalCode)
		case liveExpress:
			live.SetExpress(msg.Express)
		case liveSubtotal:
			if msg.Subtotal != nil && !msg.Subtotal.IsNegative() {
				live.SetSubtotal(*msg.Subtotal)
			}
		}
	})
}
