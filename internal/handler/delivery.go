package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-delivery/internal/geo"
	"github.com/mmeshcher/restaurant-delivery/internal/model"
	"github.com/mmeshcher/restaurant-delivery/internal/service"
)

// GetZones возвращает таблицу зон доставки.
func (h *Handler) GetZones(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Zones())
}

// Quote рассчитывает стоимость доставки.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req service.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	quote, err := h.service.Quote(r.Context(), sessionID(r), req)
	if err != nil {
		h.writeError(w, r, "quote", err)
		return
	}

	h.writeJSON(w, http.StatusOK, quote)
}

// GetSession возвращает сохранённые индекс и адрес клиента.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	subtotal, express, err := quoteParams(r)
	if err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	saved, err := h.service.SavedDelivery(r.Context(), sessionID(r), subtotal, express)
	if err != nil {
		h.writeError(w, r, "saved delivery", err)
		return
	}

	h.writeJSON(w, http.StatusOK, saved)
}

type locateRequest struct {
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	ErrorCode int             `json:"error_code"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Express   bool            `json:"express"`
}

func (req locateRequest) source() geo.Reported {
	if req.ErrorCode != 0 || req.Latitude == nil || req.Longitude == nil {
		return geo.Reported{ErrorCode: req.ErrorCode}
	}
	return geo.Reported{Coordinates: &model.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}}
}

// Locate определяет адрес по координатам, сообщённым браузером.
func (h *Handler) Locate(w http.ResponseWriter, r *http.Request) {
	var req locateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest)
		return
	}

	res, err := h.service.Locate(r.Context(), sessionID(r), req.source(), req.Subtotal, req.Express)
	if err != nil {
		var posErr *geo.PositionError
		if !errors.As(err, &posErr) && !errors.Is(err, geo.ErrAddressNotFound) {
			h.logger.Warn("geocoder error", zap.Error(err))
			writeStatus(w, http.StatusBadGateway)
			return
		}
		h.writeError(w, r, "locate", err)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

// ForgetAddress удаляет определённый по геолокации адрес.
func (h *Handler) ForgetAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ForgetAddress(r.Context(), sessionID(r)); err != nil {
		h.writeError(w, r, "forget address", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func quoteParams(r *http.Request) (decimal.Decimal, bool, error) {
	q := r.URL.Query()

	subtotal := decimal.Zero
	if raw := q.Get("subtotal"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, false, err
		}
		subtotal = v
	}

	express := false
	if raw := q.Get("express"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return decimal.Zero, false, err
		}
		express = v
	}

	return subtotal, express, nil
}
