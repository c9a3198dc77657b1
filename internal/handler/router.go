package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/restaurant-delivery/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса доставки.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.Logger(h.logger, h.opts.Observer))
	r.Use(custommiddleware.GzipMiddleware)

	r.Get("/health", h.Health)
	if h.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.opts.Metrics)
	}

	r.Route("/api/delivery", func(r chi.Router) {
		r.Use(h.session.Middleware)

		r.Get("/zones", h.GetZones)
		r.Post("/quote", h.Quote)
		r.Get("/session", h.GetSession)
		r.Post("/locate", h.Locate)
		r.Delete("/address", h.ForgetAddress)
		r.Get("/live", h.Live)
	})

	r.Route("/api/kitchen", func(r chi.Router) {
		r.Get("/orders", h.GetKitchenOrders)
		r.Get("/statuses", h.GetStatuses)
		r.Post("/orders/{id}/status", h.UpdateOrderStatus)
		r.Get("/orders/{id}/history", h.GetStatusHistory)
		if h.opts.Kitchen != nil {
			r.Method(http.MethodGet, "/ws", h.opts.Kitchen)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
