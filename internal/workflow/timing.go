package workflow

import (
	"fmt"
	"time"
)

// PrepBudget задаёт стандартное время приготовления заказа.
const PrepBudget = 30 * time.Minute

const yellowThreshold = 15

// Уровни срочности заказа.
const (
	UrgencyOK      = "ok"
	UrgencyWarning = "warning"
	UrgencyLate    = "late"
)

// Remaining описывает остаток времени на приготовление.
type Remaining struct {
	Minutes int    `json:"minutes"`
	Urgency string `json:"urgency"`
	Text    string `json:"text"`
	Color   string `json:"color"`
	Bg      string `json:"bg"`
}

// TimeSinceOrder возвращает время с момента оформления: "Teraz", "n min" или "Hh Mm".
func TimeSinceOrder(createdAt, now time.Time) string {
	minutes := int(now.Sub(createdAt) / time.Minute)
	switch {
	case minutes < 1:
		return "Teraz"
	case minutes < 60:
		return fmt.Sprintf("%d min", minutes)
	default:
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
}

// RemainingTime сравнивает прошедшее время со стандартным и относит заказ к одному из трёх уровней.
func RemainingTime(createdAt, now time.Time) Remaining {
	elapsed := int(now.Sub(createdAt) / time.Minute)
	remaining := int(PrepBudget/time.Minute) - elapsed

	switch {
	case remaining <= 0:
		return Remaining{
			Minutes: remaining,
			Urgency: UrgencyLate,
			Text:    "Opóźnienie!",
			Color:   "text-red-600 dark:text-red-400",
			Bg:      "bg-red-100 dark:bg-red-900/30",
		}
	case remaining <= yellowThreshold:
		return Remaining{
			Minutes: remaining,
			Urgency: UrgencyWarning,
			Text:    fmt.Sprintf("Pozostało: %d min", remaining),
			Color:   "text-yellow-600 dark:text-yellow-400",
			Bg:      "bg-yellow-100 dark:bg-yellow-900/30",
		}
	default:
		return Remaining{
			Minutes: remaining,
			Urgency: UrgencyOK,
			Text:    fmt.Sprintf("Pozostało: %d min", remaining),
			Color:   "text-green-600 dark:text-green-400",
			Bg:      "bg-green-100 dark:bg-green-900/30",
		}
	}
}
