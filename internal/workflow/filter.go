package workflow

import (
	"sort"

	"github.com/mmeshcher/restaurant-delivery/internal/model"
)

// Filter задаёт набор статусов, заказы в которых показываются на доске.
type Filter map[model.OrderStatus]struct{}

// DefaultFilter возвращает фильтр по умолчанию: новые, подтверждённые и готовящиеся заказы.
func DefaultFilter() Filter {
	return NewFilter(model.OrderStatusPending, model.OrderStatusConfirmed, model.OrderStatusPreparing)
}

// NewFilter создаёт фильтр из перечисленных статусов.
func NewFilter(statuses ...model.OrderStatus) Filter {
	f := make(Filter, len(statuses))
	for _, s := range statuses {
		f[s] = struct{}{}
	}
	return f
}

// Toggle включает статус в фильтр или исключает из него.
func (f Filter) Toggle(status model.OrderStatus) {
	if _, ok := f[status]; ok {
		delete(f, status)
		return
	}
	f[status] = struct{}{}
}

// Contains сообщает, выбран ли статус.
func (f Filter) Contains(status model.OrderStatus) bool {
	_, ok := f[status]
	return ok
}

// Statuses возвращает выбранные статусы в порядке жизненного цикла.
func (f Filter) Statuses() []model.OrderStatus {
	res := make([]model.OrderStatus, 0, len(f))
	for _, s := range model.AllOrderStatuses {
		if f.Contains(s) {
			res = append(res, s)
		}
	}
	return res
}

// Apply возвращает заказы в выбранных статусах, сохраняя порядок.
func (f Filter) Apply(orders []model.Order) []model.Order {
	res := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if f.Contains(o.Status) {
			res = append(res, o)
		}
	}
	return res
}

// Counts подсчитывает заказы по статусам.
func Counts(orders []model.Order) map[model.OrderStatus]int {
	res := make(map[model.OrderStatus]int, len(model.AllOrderStatuses))
	for _, o := range orders {
		res[o.Status]++
	}
	return res
}

// BadgeStatuses возвращает статусы, для которых показываются кнопки фильтра.
func BadgeStatuses() []model.OrderStatus {
	res := make([]model.OrderStatus, 0, len(model.AllOrderStatuses))
	for _, s := range model.AllOrderStatuses {
		if s == model.OrderStatusCompleted || s == model.OrderStatusCancelled {
			continue
		}
		res = append(res, s)
	}
	return res
}

// ActiveStatuses возвращает статусы заказов, которые находятся в работе.
func ActiveStatuses() []model.OrderStatus {
	return BadgeStatuses()
}

// SortByCreated упорядочивает заказы от старых к новым.
func SortByCreated(orders []model.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
