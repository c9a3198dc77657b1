// Package service реализует бизнес-логику сервиса доставки и кухни ресторана.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-delivery/internal/delivery"
	"github.com/mmeshcher/restaurant-delivery/internal/geo"
	"github.com/mmeshcher/restaurant-delivery/internal/metrics"
	"github.com/mmeshcher/restaurant-delivery/internal/model"
	"github.com/mmeshcher/restaurant-delivery/internal/storage"
	"github.com/mmeshcher/restaurant-delivery/internal/workflow"
)

var (
	// ErrTransitionInFlight возвращается, если по заказу уже выполняется смена статуса.
	ErrTransitionInFlight = errors.New("status change already in progress")
	// ErrInvalidRequest возвращается для некорректных входных данных.
	ErrInvalidRequest = errors.New("invalid request")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	UpsertOrders(ctx context.Context, orders []model.Order) error
	GetOrdersByStatus(ctx context.Context, statuses []model.OrderStatus) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus, updatedAt time.Time) error
	AddStatusChange(ctx context.Context, change model.StatusChange) error
	GetStatusHistory(ctx context.Context, orderID int64) ([]model.StatusChange, error)
}

// OrdersAPI описывает внешний API заказов.
type OrdersAPI interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
}

// AddressResolver определяет адрес по координатам пользователя.
type AddressResolver interface {
	Locate(ctx context.Context, source geo.PositionSource) (*geo.Location, error)
}

// Notifier рассылает события кухне.
type Notifier interface {
	Broadcast(eventType string, data any)
}

// Deps содержит зависимости сервиса.
type Deps struct {
	Repo     Repository
	Orders   OrdersAPI
	Engine   *delivery.Engine
	Resolver AddressResolver
	Store    storage.Store
	Notifier Notifier
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Location *time.Location
	Now      func() time.Time
}

// Service содержит бизнес-логику расчёта доставки и работы кухни.
type Service struct {
	repo     Repository
	orders   OrdersAPI
	engine   *delivery.Engine
	resolver AddressResolver
	store    storage.Store
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
	inFlight *workflow.InFlight
}

// NewService создаёт новый сервис.
func NewService(d Deps) *Service {
	s := &Service{
		repo:     d.Repo,
		orders:   d.Orders,
		engine:   d.Engine,
		resolver: d.Resolver,
		store:    d.Store,
		notifier: d.Notifier,
		metrics:  d.Metrics,
		logger:   d.Logger,
		location: d.Location,
		now:      d.Now,
		inFlight: workflow.NewInFlight(),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.store == nil {
		s.store = storage.NewMemory()
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

func (s *Service) localNow() time.Time {
	return s.now().In(s.location)
}

func (s *Service) broadcast(eventType string, data any) {
	if s.notifier != nil {
		s.notifier.Broadcast(eventType, data)
	}
}
