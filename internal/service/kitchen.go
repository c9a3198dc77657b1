package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-delivery/internal/hub"
	"github.com/mmeshcher/restaurant-delivery/internal/model"
	"github.com/mmeshcher/restaurant-delivery/internal/ordersapi"
	"github.com/mmeshcher/restaurant-delivery/internal/workflow"
)

// OrderCard описывает заказ на доске кухни вместе с отображением и доступными действиями.
type OrderCard struct {
	model.Order
	Presentation workflow.StatusStyle `json:"presentation"`
	Actions      []workflow.Action    `json:"actions"`
	TimeSince    string               `json:"time_since"`
	Remaining    workflow.Remaining   `json:"remaining"`
	Updating     bool                 `json:"updating"`
}

// StatusBadge описывает кнопку фильтра по статусу.
type StatusBadge struct {
	Status   model.OrderStatus `json:"status"`
	Label    string            `json:"label"`
	Count    int               `json:"count"`
	Selected bool              `json:"selected"`
}

// KitchenBoard описывает доску заказов кухни.
type KitchenBoard struct {
	Orders []OrderCard               `json:"orders"`
	Counts map[model.OrderStatus]int `json:"counts"`
	Badges []StatusBadge             `json:"badges"`
	Filter []model.OrderStatus       `json:"filter"`
}

// StatusUpdate описывает событие смены статуса заказа для клиентов кухни.
type StatusUpdate struct {
	OrderID     int64             `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      model.OrderStatus `json:"status"`
}

// KitchenBoard возвращает заказы в работе, отфильтрованные по выбранным статусам.
func (s *Service) KitchenBoard(ctx context.Context, filter workflow.Filter) (*KitchenBoard, error) {
	orders, err := s.repo.GetOrdersByStatus(ctx, workflow.ActiveStatuses())
	if err != nil {
		return nil, fmt.Errorf("load active orders: %w", err)
	}
	workflow.SortByCreated(orders)

	now := s.now()
	counts := workflow.Counts(orders)

	board := &KitchenBoard{
		Orders: make([]OrderCard, 0, len(orders)),
		Counts: counts,
		Filter: filter.Statuses(),
	}

	for _, o := range filter.Apply(orders) {
		board.Orders = append(board.Orders, OrderCard{
			Order:        o,
			Presentation: workflow.Presentation(o.Status),
			Actions:      workflow.Actions(o.Status),
			TimeSince:    workflow.TimeSinceOrder(o.CreatedAt, now),
			Remaining:    workflow.RemainingTime(o.CreatedAt, now),
			Updating:     s.inFlight.Busy(o.ID),
		})
	}

	for _, st := range workflow.BadgeStatuses() {
		board.Badges = append(board.Badges, StatusBadge{
			Status:   st,
			Label:    workflow.Presentation(st).Label,
			Count:    counts[st],
			Selected: filter.Contains(st),
		})
	}

	return board, nil
}

// UpdateOrderStatus переводит заказ в следующий статус через API заказов.
// Локальная копия меняется только после подтверждения API.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, next model.OrderStatus) (*model.Order, error) {
	if !s.inFlight.Acquire(id) {
		return nil, ErrTransitionInFlight
	}
	defer s.inFlight.Release(id)

	current, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := workflow.Transition(current.Status, next); err != nil {
		s.metrics.Transition(string(next), "rejected")
		return nil, err
	}

	updated, err := s.orders.UpdateStatus(ctx, id, next)
	if err != nil {
		s.metrics.Transition(string(next), string(model.StatusChangeFailed))
		s.recordStatusChange(ctx, model.StatusChange{
			OrderID: id,
			From:    current.Status,
			To:      next,
			Outcome: model.StatusChangeFailed,
			Error:   err.Error(),
		})
		return nil, fmt.Errorf("update order %d status: %w", id, err)
	}

	result := *current
	result.Status = next
	// updated_at продвигается только временем API, иначе следующая синхронизация
	// будет отброшена как устаревшая.
	if updated != nil && !updated.UpdatedAt.IsZero() {
		result.UpdatedAt = updated.UpdatedAt
	}

	if err := s.repo.UpdateOrderStatus(ctx, id, next, result.UpdatedAt); err != nil {
		s.logger.Error("store confirmed order status",
			zap.Int64("order_id", id), zap.String("status", string(next)), zap.Error(err))
	}
	s.recordStatusChange(ctx, model.StatusChange{
		OrderID: id,
		From:    current.Status,
		To:      next,
		Outcome: model.StatusChangeApplied,
	})
	s.metrics.Transition(string(next), string(model.StatusChangeApplied))

	s.broadcast(hub.EventOrderStatusUpdate, StatusUpdate{
		OrderID:     id,
		OrderNumber: result.OrderNumber,
		Status:      next,
	})

	return &result, nil
}

func (s *Service) recordStatusChange(ctx context.Context, change model.StatusChange) {
	if change.CreatedAt.IsZero() {
		change.CreatedAt = s.now()
	}
	if err := s.repo.AddStatusChange(ctx, change); err != nil {
		s.logger.Warn("record status change", zap.Int64("order_id", change.OrderID), zap.Error(err))
	}
}

// StatusHistory возвращает журнал смены статусов заказа.
func (s *Service) StatusHistory(ctx context.Context, id int64) ([]model.StatusChange, error) {
	if _, err := s.repo.GetOrder(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetStatusHistory(ctx, id)
}

// SyncOrders загружает заказы из API в локальную копию и уведомляет кухню.
func (s *Service) SyncOrders(ctx context.Context) (int, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		s.metrics.Sync(err, 0)
		return 0, fmt.Errorf("list orders: %w", err)
	}

	if err := s.repo.UpsertOrders(ctx, orders); err != nil {
		s.metrics.Sync(err, 0)
		return 0, fmt.Errorf("store orders: %w", err)
	}
	s.metrics.Sync(nil, len(orders))

	s.broadcast(hub.EventOrdersSynced, map[string]int{"count": len(orders)})

	return len(orders), nil
}

// HandleOrderEvent обрабатывает событие из потока API заказов.
func (s *Service) HandleOrderEvent(ctx context.Context, ev ordersapi.Event) {
	switch ev.Type {
	case ordersapi.EventNewOrder:
		s.broadcast(hub.EventNewOrder, ev)
	case ordersapi.EventOrderStatusUpdate:
		s.broadcast(hub.EventOrderStatusUpdate, StatusUpdate{
			OrderID:     ev.OrderID,
			OrderNumber: ev.OrderNumber,
			Status:      ev.Status,
		})
	default:
		return
	}

	if _, err := s.SyncOrders(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("sync orders after event", zap.String("event", ev.Type), zap.Error(err))
	}
}
