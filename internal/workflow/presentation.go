package workflow

import "github.com/mmeshcher/restaurant-delivery/internal/model"

// StatusStyle описывает отображение статуса на карточке заказа.
type StatusStyle struct {
	Label  string `json:"label"`
	Color  string `json:"color"`
	Bg     string `json:"bg"`
	Border string `json:"border"`
}

func paletteStyle(label, color string) StatusStyle {
	return StatusStyle{
		Label:  label,
		Color:  "text-" + color + "-700 dark:text-" + color + "-300",
		Bg:     "bg-" + color + "-50 dark:bg-" + color + "-900/20",
		Border: "border-" + color + "-400 dark:border-" + color + "-600",
	}
}

var presentation = map[model.OrderStatus]StatusStyle{
	model.OrderStatusPending:    paletteStyle("Nowe", "yellow"),
	model.OrderStatusConfirmed:  paletteStyle("Potwierdzone", "blue"),
	model.OrderStatusPreparing:  paletteStyle("W przygotowaniu", "orange"),
	model.OrderStatusReady:      paletteStyle("Gotowe", "green"),
	model.OrderStatusDelivering: paletteStyle("W dostawie", "purple"),
	model.OrderStatusCompleted:  paletteStyle("Zakończone", "gray"),
	model.OrderStatusCancelled:  paletteStyle("Anulowane", "red"),
}

// Presentation возвращает отображение статуса. Неизвестный статус показывается как новый заказ.
func Presentation(status model.OrderStatus) StatusStyle {
	if s, ok := presentation[status]; ok {
		return s
	}
	return presentation[model.OrderStatusPending]
}
