package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/restaurant-delivery/internal/model"
	"github.com/mmeshcher/restaurant-delivery/internal/workflow"
)

// GetKitchenOrders возвращает доску кухни. Фильтр задаётся повторяющимся параметром status.
func (h *Handler) GetKitchenOrders(w http.ResponseWriter, r *http.Request) {
	filter := workflow.DefaultFilter()
	if raw, ok := r.URL.Query()["status"]; ok {
		filter = workflow.NewFilter()
		for _, v := range raw {
			st := model.OrderStatus(v)
			if !st.Valid() {
				writeStatus(w, http.StatusBadRequest)
				return
			}
			filter[st] = struct{}{}
		}
	}

	board, err := h.service.KitchenBoard(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, "kitchen board", err)
		return
	}

	h.writeJSON(w, http.StatusOK, board)
}

type statusInfo struct {
	Status       model.OrderStatus    `json:"status"`
	Presentation workflow.StatusStyle `json:"presentation"`
	Actions      []workflow.Action    `json:"actions"`
	Terminal     bool                 `json:"terminal"`
}

// GetStatuses возвращает отображение статусов и таблицу переходов.
func (h *Handler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	resp := make([]statusInfo, 0, len(model.AllOrderStatuses))
	for _, st := range model.AllOrderStatuses {
		resp = append(resp, statusInfo{
			Status:       st,
			Presentation: workflow.Presentation(st),
			Actions:      workflow.Actions(st),
			Terminal:     workflow.IsTerminal(st),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type statusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// UpdateOrderStatus переводит заказ в следующий статус.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, r, "update order status", err)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

// GetStatusHistory возвращает журнал смены статусов заказа.
func (h *Handler) GetStatusHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	history, err := h.service.StatusHistory(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "status history", err)
		return
	}

	if len(history) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

func orderID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
