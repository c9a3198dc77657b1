// Package model содержит доменные сущности сервиса доставки и кухни ресторана.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает этап жизненного цикла заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// AllOrderStatuses перечисляет статусы в порядке прохождения заказа.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivering,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// Valid сообщает, входит ли статус в известный набор.
func (s OrderStatus) Valid() bool {
	for _, st := range AllOrderStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// OrderItem описывает позицию заказа.
type OrderItem struct {
	ID                  int64           `json:"id"`
	MenuItemID          int64           `json:"menu_item_id,omitempty"`
	Name                string          `json:"menu_item_name"`
	Price               decimal.Decimal `json:"menu_item_price"`
	Quantity            int             `json:"quantity"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
}

// Order описывает заказ, полученный из внешнего API заказов.
type Order struct {
	ID                  int64           `json:"id"`
	OrderNumber         string          `json:"order_number"`
	CustomerName        string          `json:"customer_name"`
	CustomerPhone       string          `json:"customer_phone"`
	DeliveryPostalCode  string          `json:"delivery_postal_code,omitempty"`
	Total               decimal.Decimal `json:"total"`
	PaymentMethod       string          `json:"payment_method"`
	Status              OrderStatus     `json:"status"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	Items               []OrderItem     `json:"items"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Coordinates содержит географические координаты пользователя.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DetectedAddress описывает адрес, определённый обратным геокодированием.
type DetectedAddress struct {
	Street      string `json:"street,omitempty"`
	HouseNumber string `json:"houseNumber,omitempty"`
	PostalCode  string `json:"postalCode"`
	City        string `json:"city"`
	Suburb      string `json:"suburb,omitempty"`
	District    string `json:"district,omitempty"`
	FullAddress string `json:"fullAddress"`
}

// CheckoutAutofill содержит данные для автозаполнения формы оформления заказа.
type CheckoutAutofill struct {
	Street      string `json:"street"`
	PostalCode  string `json:"postalCode"`
	City        string `json:"city"`
	Suburb      string `json:"suburb,omitempty"`
	FullAddress string `json:"fullAddress"`
}

// NewCheckoutAutofill собирает данные автозаполнения из определённого адреса.
func NewCheckoutAutofill(a DetectedAddress) CheckoutAutofill {
	street := a.Street
	if a.Street != "" && a.HouseNumber != "" {
		street = a.Street + " " + a.HouseNumber
	}
	return CheckoutAutofill{
		Street:      street,
		PostalCode:  a.PostalCode,
		City:        a.City,
		Suburb:      a.Suburb,
		FullAddress: a.FullAddress,
	}
}

// StatusChangeOutcome описывает результат запроса на смену статуса.
type StatusChangeOutcome string

const (
	StatusChangeApplied StatusChangeOutcome = "applied"
	StatusChangeFailed  StatusChangeOutcome = "failed"
)

// StatusChange описывает запись журнала смены статусов заказа.
type StatusChange struct {
	OrderID   int64               `json:"order_id"`
	From      OrderStatus         `json:"from"`
	To        OrderStatus         `json:"to"`
	Outcome   StatusChangeOutcome `json:"outcome"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}
