// Package handler содержит HTTP-обработчики API доставки и кухни.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-delivery/internal/delivery"
	"github.com/mmeshcher/restaurant-delivery/internal/geo"
	"github.com/mmeshcher/restaurant-delivery/internal/middleware"
	"github.com/mmeshcher/restaurant-delivery/internal/model"
	"github.com/mmeshcher/restaurant-delivery/internal/ordersapi"
	"github.com/mmeshcher/restaurant-delivery/internal/repository"
	"github.com/mmeshcher/restaurant-delivery/internal/service"
	"github.com/mmeshcher/restaurant-delivery/internal/workflow"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Zones() []delivery.Zone
	Quote(ctx context.Context, session string, req service.QuoteRequest) (*service.Quote, error)
	SavedDelivery(ctx context.Context, session string, subtotal decimal.Decimal, express bool) (*service.SavedDelivery, error)
	Locate(ctx context.Context, session string, source geo.PositionSource, subtotal decimal.Decimal, express bool) (*service.LocateResult, error)
	ForgetAddress(ctx context.Context, session string) error
	NewLiveSession(ctx context.Context, session string, subtotal decimal.Decimal, express bool, publish func(delivery.LiveResult)) *delivery.LiveSession
	CloseLiveSession(live *delivery.LiveSession)

	KitchenBoard(ctx context.Context, filter workflow.Filter) (*service.KitchenBoard, error)
	UpdateOrderStatus(ctx context.Context, id int64, next model.OrderStatus) (*model.Order, error)
	StatusHistory(ctx context.Context, id int64) ([]model.StatusChange, error)
}

// Pinger проверяет доступность внешней зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options содержит необязательные части обработчика.
type Options struct {
	// Kitchen обслуживает WebSocket кухни.
	Kitchen http.Handler
	// Metrics отдаёт метрики Prometheus.
	Metrics http.Handler
	// Observer получает длительность запросов.
	Observer middleware.HTTPObserver
	// Health проверяется в /health.
	Health map[string]Pinger
}

// Handler реализует HTTP-обработчики API доставки и кухни.
type Handler struct {
	service Service
	logger  *zap.Logger
	session *middleware.SessionMiddleware
	opts    Options
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, session *middleware.SessionMiddleware, opts Options) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: s,
		logger:  logger,
		session: session,
		opts:    opts,
	}
}

type errorResponse struct {
	Code  int    `json:"code,omitempty"`
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response", zap.Error(err))
	}
}

func writeStatus(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}

// writeError переводит ошибку сервиса в HTTP-ответ.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var posErr *geo.PositionError
	switch {
	case errors.As(err, &posErr):
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: posErr.Code, Error: posErr.Error()})
	case errors.Is(err, geo.ErrAddressNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, workflow.ErrUnknownStatus):
		writeStatus(w, http.StatusBadRequest)
	case errors.Is(err, workflow.ErrIllegalTransition), errors.Is(err, service.ErrTransitionInFlight):
		writeStatus(w, http.StatusConflict)
	case errors.Is(err, repository.ErrOrderNotFound), errors.Is(err, ordersapi.ErrOrderNotFound):
		writeStatus(w, http.StatusNotFound)
	case errors.Is(err, ordersapi.ErrUpstream):
		h.logger.Warn(op+" upstream error", zap.String("path", r.URL.Path), zap.Error(err))
		writeStatus(w, http.StatusBadGateway)
	default:
		h.logger.Error(op+" error", zap.String("path", r.URL.Path), zap.Error(err))
		writeStatus(w, http.StatusInternalServerError)
	}
}

func sessionID(r *http.Request) string {
	id, _ := middleware.GetSessionIDFromContext(r.Context())
	return id
}

// Health проверяет доступность зависимостей.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	code := http.StatusOK
	for name, p := range h.opts.Health {
		if err := p.Ping(r.Context()); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			status[name] = "down"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	h.writeJSON(w, code, status)
}
