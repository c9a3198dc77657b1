// Package workflow описывает жизненный цикл заказа на кухне: допустимые переходы статусов,
// их отображение и расчёт времени приготовления.
package workflow

import (
	"errors"
	"fmt"

	"github.com/mmeshcher/restaurant-delivery/internal/model"
)

var (
	// ErrIllegalTransition возвращается при попытке перехода, которого нет в таблице.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrUnknownStatus возвращается для статуса вне известного набора.
	ErrUnknownStatus = errors.New("unknown order status")
)

// Варианты кнопок действия.
const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// Action описывает кнопку перехода заказа в следующий статус.
type Action struct {
	Next    model.OrderStatus `json:"next"`
	Label   string            `json:"label"`
	Icon    string            `json:"icon"`
	Variant string            `json:"variant"`
	Style   string            `json:"style"`
}

var transitions = map[model.OrderStatus][]Action{
	model.OrderStatusPending: {
		{Next: model.OrderStatusConfirmed, Label: "Przyjmij", Icon: "check", Variant: VariantDefault, Style: "from-blue-500 to-blue-600"},
		{Next: model.OrderStatusCancelled, Label: "Odrzuć", Icon: "x", Variant: VariantDestructive, Style: "from-red-500 to-red-600"},
	},
	model.OrderStatusConfirmed: {
		{Next: model.OrderStatusPreparing, Label: "Zacznij Gotować", Icon: "chef-hat", Variant: VariantDefault, Style: "from-orange-500 to-red-500"},
	},
	model.OrderStatusPreparing: {
		{Next: model.OrderStatusReady, Label: "Gotowe!", Icon: "check", Variant: VariantDefault, Style: "from-green-500 to-emerald-600"},
	},
	model.OrderStatusReady: {
		{Next: model.OrderStatusDelivering, Label: "W dostawie", Icon: "bike", Variant: VariantDefault, Style: "from-purple-500 to-indigo-600"},
	},
	model.OrderStatusDelivering: {
		{Next: model.OrderStatusCompleted, Label: "Dostarczono", Icon: "check", Variant: VariantDefault, Style: "from-green-500 to-emerald-600"},
	},
	model.OrderStatusCompleted: nil,
	model.OrderStatusCancelled: nil,
}

// Actions возвращает действия, доступные в статусе. Для конечных и неизвестных статусов возвращается пустой список.
func Actions(status model.OrderStatus) []Action {
	actions := transitions[status]
	res := make([]Action, len(actions))
	copy(res, actions)
	return res
}

// Table возвращает полную таблицу переходов.
func Table() map[model.OrderStatus][]Action {
	res := make(map[model.OrderStatus][]Action, len(transitions))
	for status := range transitions {
		res[status] = Actions(status)
	}
	return res
}

// CanTransition сообщает, разрешён ли переход from -> to.
func CanTransition(from, to model.OrderStatus) bool {
	for _, a := range transitions[from] {
		if a.Next == to {
			return true
		}
	}
	return false
}

// Transition проверяет переход и возвращает новый статус.
func Transition(from, to model.OrderStatus) (model.OrderStatus, error) {
	if !from.Valid() {
		return from, fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !to.Valid() {
		return from, fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return to, nil
}

// IsTerminal сообщает, что из статуса нет переходов.
func IsTerminal(status model.OrderStatus) bool {
	return status.Valid() && len(transitions[status]) == 0
}
