// Package metrics собирает метрики Prometheus сервиса доставки и кухни.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics хранит собственный реестр и коллекторы сервиса.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	quotes         *prometheus.CounterVec
	locateResults  *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	syncRuns       *prometheus.CounterVec
	syncedOrders   prometheus.Gauge
	kitchenClients prometheus.Gauge
	liveSessions   prometheus.Gauge
}

// New создаёт реестр и регистрирует метрики.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delivery_quotes_total",
			Help: "Delivery quotes by zone",
		}, []string{"zone", "available"}),
		locateResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delivery_locate_total",
			Help: "Address detection attempts by outcome",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kitchen_status_transitions_total",
			Help: "Requested order status transitions by target status and outcome",
		}, []string{"to", "outcome"}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kitchen_order_sync_total",
			Help: "Order synchronisation runs by outcome",
		}, []string{"outcome"}),
		syncedOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kitchen_synced_orders",
			Help: "Orders received in the last successful synchronisation",
		}),
		kitchenClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kitchen_ws_clients",
			Help: "Connected kitchen websocket clients",
		}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "delivery_live_sessions",
			Help: "Open live delivery quote sessions",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.quotes,
		m.locateResults,
		m.transitions,
		m.syncRuns,
		m.syncedOrders,
		m.kitchenClients,
		m.liveSessions,
	)

	return m
}

// Handler возвращает HTTP-обработчик для выдачи метрик.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry возвращает реестр метрик.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTP учитывает обработанный HTTP-запрос.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Quote учитывает расчёт доставки.
func (m *Metrics) Quote(zone string, available bool) {
	if m == nil {
		return
	}
	if zone == "" {
		zone = "none"
	}
	m.quotes.WithLabelValues(zone, strconv.FormatBool(available)).Inc()
}

// Locate учитывает результат определения адреса.
func (m *Metrics) Locate(outcome string) {
	if m == nil {
		return
	}
	m.locateResults.WithLabelValues(outcome).Inc()
}

// Transition учитывает запрос смены статуса заказа.
func (m *Metrics) Transition(to, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to, outcome).Inc()
}

// Sync учитывает синхронизацию заказов.
func (m *Metrics) Sync(err error, orders int) {
	if m == nil {
		return
	}
	if err != nil {
		m.syncRuns.WithLabelValues("error").Inc()
		return
	}
	m.syncRuns.WithLabelValues("ok").Inc()
	m.syncedOrders.Set(float64(orders))
}

// KitchenClients задаёт число подключённых клиентов кухни.
func (m *Metrics) KitchenClients(n int) {
	if m == nil {
		return
	}
	m.kitchenClients.Set(float64(n))
}

// LiveSessionOpened учитывает открытие сессии живого расчёта.
func (m *Metrics) LiveSessionOpened() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

// LiveSessionClosed учитывает закрытие сессии живого расчёта.
func (m *Metrics) LiveSessionClosed() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}
