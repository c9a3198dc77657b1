// Package delivery рассчитывает стоимость и время доставки по почтовому индексу.
package delivery

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/restaurant-delivery/internal/validation"
)

// Rules содержит общие для всех зон правила доставки.
type Rules struct {
	ExpressSurcharge    decimal.Decimal
	ExpressETA          string
	NewCustomerDiscount decimal.Decimal
	MinimumOrder        decimal.Decimal
	// FreeDeliveryNudge задаёт остаток до порога, при котором показывается подсказка "Dodaj ... zł".
	FreeDeliveryNudge decimal.Decimal
	OpensAt           time.Duration
	ClosesAt          time.Duration
}

// DefaultRules возвращает правила доставки ресторана.
func DefaultRules() Rules {
	return Rules{
		ExpressSurcharge:    decimal.NewFromInt(10),
		ExpressETA:          "15-20 min",
		NewCustomerDiscount: decimal.NewFromInt(5),
		MinimumOrder:        decimal.NewFromInt(30),
		FreeDeliveryNudge:   decimal.NewFromInt(30),
		OpensAt:             10 * time.Hour,
		ClosesAt:            22 * time.Hour,
	}
}

// Options задаёт параметры расчёта.
type Options struct {
	IsExpress     bool
	IsWeekend     bool
	IsNewCustomer bool
}

// Calculation содержит результат расчёта доставки.
type Calculation struct {
	Zone                *Zone           `json:"zone"`
	Available           bool            `json:"available"`
	IsFree              bool            `json:"isFree"`
	BaseFee             decimal.Decimal `json:"baseFee"`
	ExpressFee          decimal.Decimal `json:"expressFee"`
	NewCustomerDiscount decimal.Decimal `json:"newCustomerDiscount"`
	FinalPrice          decimal.Decimal `json:"finalPrice"`
	AmountToFree        decimal.Decimal `json:"amountToFree"`
	EstimatedTime       string          `json:"estimatedTime"`
	Message             string          `json:"message"`
	MessagePl           string          `json:"messagePl"`
	WeekendNotice       bool            `json:"weekendNotice"`
	BelowMinimum        bool            `json:"belowMinimum"`
}

type prefixEntry struct {
	prefix string
	zone   int
}

// Engine определяет зону доставки и рассчитывает её стоимость.
type Engine struct {
	zones    []Zone
	prefixes []prefixEntry
	rules    Rules
}

// NewEngine создаёт калькулятор и проверяет, что префиксы зон не пересекаются.
func NewEngine(zones []Zone, rules Rules) (*Engine, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("%w: no zones", ErrInvalidZoneTable)
	}

	e := &Engine{
		zones: make([]Zone, len(zones)),
		rules: rules,
	}
	copy(e.zones, zones)

	owner := make(map[string]string)
	for i, z := range e.zones {
		if z.ID == "" {
			return nil, fmt.Errorf("%w: zone #%d has no id", ErrInvalidZoneTable, i)
		}
		if z.ETA.Min > z.ETA.Max {
			return nil, fmt.Errorf("%w: zone %q eta min exceeds max", ErrInvalidZoneTable, z.ID)
		}
		for _, pattern := range z.PostalPrefixes {
			expanded, err := expandPrefix(pattern)
			if err != nil {
				return nil, err
			}
			for _, p := range expanded {
				if other, ok := owner[p]; ok {
					if other == z.ID {
						continue
					}
					return nil, fmt.Errorf("%w: prefix %q belongs to %q and %q", ErrInvalidZoneTable, p, other, z.ID)
				}
				owner[p] = z.ID
				e.prefixes = append(e.prefixes, prefixEntry{prefix: p, zone: i})
			}
		}
	}

	sort.SliceStable(e.prefixes, func(i, j int) bool {
		if len(e.prefixes[i].prefix) != len(e.prefixes[j].prefix) {
			return len(e.prefixes[i].prefix) > len(e.prefixes[j].prefix)
		}
		return e.prefixes[i].prefix < e.prefixes[j].prefix
	})

	return e, nil
}

// Zones возвращает копию таблицы зон.
func (e *Engine) Zones() []Zone {
	res := make([]Zone, len(e.zones))
	copy(res, e.zones)
	return res
}

// Rules возвращает правила доставки.
func (e *Engine) Rules() Rules {
	return e.rules
}

// DetectZone возвращает зону с самым длинным совпавшим префиксом или nil.
func (e *Engine) DetectZone(postalCode string) *Zone {
	code := validation.NormalizePostalCode(postalCode)
	if len(code) < 2 {
		return nil
	}

	for _, p := range e.prefixes {
		if strings.HasPrefix(code, p.prefix) {
			z := e.zones[p.zone]
			return &z
		}
	}

	return nil
}

// Calculate рассчитывает стоимость доставки для индекса и суммы заказа.
func (e *Engine) Calculate(postalCode string, subtotal decimal.Decimal, opts Options) Calculation {
	calc := Calculation{
		WeekendNotice: opts.IsWeekend,
		BelowMinimum:  subtotal.LessThan(e.rules.MinimumOrder),
	}

	zone := e.DetectZone(postalCode)
	if zone == nil {
		if len(validation.NormalizePostalCode(postalCode)) < 2 {
			calc.Message = "Please enter postal code for accurate delivery cost"
			calc.MessagePl = "Wprowadź kod pocztowy, aby obliczyć koszt dostawy"
		} else {
			calc.Message = "Delivery is not available for this postal code"
			calc.MessagePl = "Brak dostawy pod ten kod pocztowy"
		}
		return calc
	}

	calc.Zone = zone
	calc.Available = true
	calc.BaseFee = zone.BaseFee
	calc.IsFree = subtotal.GreaterThanOrEqual(zone.FreeDeliveryThreshold)

	fee := decimal.Zero
	if !calc.IsFree {
		fee = zone.BaseFee
	}

	calc.ExpressFee = decimal.Zero
	if opts.IsExpress {
		calc.ExpressFee = e.rules.ExpressSurcharge
		fee = fee.Add(calc.ExpressFee)
	}

	calc.NewCustomerDiscount = decimal.Zero
	if opts.IsNewCustomer {
		calc.NewCustomerDiscount = decimal.Min(e.rules.NewCustomerDiscount, fee)
		fee = fee.Sub(calc.NewCustomerDiscount)
	}

	calc.FinalPrice = fee

	calc.AmountToFree = decimal.Zero
	if remaining := zone.FreeDeliveryThreshold.Sub(subtotal); remaining.IsPositive() {
		calc.AmountToFree = remaining
	}

	calc.EstimatedTime = zone.ETA.String()
	if opts.IsExpress {
		calc.EstimatedTime = e.rules.ExpressETA
	}

	switch {
	case calc.IsFree:
		calc.Message = "Free delivery to " + zone.Name
		calc.MessagePl = "Darmowa dostawa do " + zone.NamePl
	case calc.AmountToFree.LessThanOrEqual(e.rules.FreeDeliveryNudge):
		amount := calc.AmountToFree.StringFixed(2)
		calc.Message = "Add " + amount + " zł for free delivery"
		calc.MessagePl = "Dodaj " + amount + " zł do darmowej dostawy"
	default:
		calc.Message = "Delivery to " + zone.Name
		calc.MessagePl = "Dostawa do " + zone.NamePl
	}

	return calc
}

// IsDeliveryAvailable сообщает, попадает ли момент now в часы работы доставки (границы включительно).
func (e *Engine) IsDeliveryAvailable(now time.Time) bool {
	current := time.Duration(now.Hour())*time.Hour + time.Duration(now.Minute())*time.Minute
	return current >= e.rules.OpensAt && current <= e.rules.ClosesAt
}

// IsWeekend сообщает, приходится ли now на субботу или воскресенье.
func IsWeekend(now time.Time) bool {
	day := now.Weekday()
	return day == time.Saturday || day == time.Sunday
}
