// Package geo определяет адрес доставки по координатам пользователя.
package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/restaurant-delivery/internal/model"
)

// Коды ошибок геолокации, которые сообщает браузер.
const (
	PositionUnknown          = 0
	PositionPermissionDenied = 1
	PositionUnavailable      = 2
	PositionTimeout          = 3
)

// PositionError описывает ошибку получения координат.
type PositionError struct {
	Code int
	Err  error
}

// Error возвращает сообщение для пользователя.
func (e *PositionError) Error() string {
	switch e.Code {
	case PositionPermissionDenied:
		return "Odmowa dostępu do lokalizacji"
	case PositionUnavailable:
		return "Lokalizacja niedostępna"
	case PositionTimeout:
		return "Timeout - spróbuj ponownie"
	default:
		return "Błąd określania lokalizacji"
	}
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

// PositionSource возвращает текущие координаты пользователя.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (model.Coordinates, error)
}

// Reported отдаёт координаты, переданные клиентом, или код ошибки геолокации.
type Reported struct {
	Coordinates *model.Coordinates
	ErrorCode   int
}

// CurrentPosition возвращает сообщённые координаты или соответствующую ошибку.
func (r Reported) CurrentPosition(ctx context.Context) (model.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return model.Coordinates{}, err
	}
	if r.ErrorCode != 0 {
		return model.Coordinates{}, &PositionError{Code: r.ErrorCode}
	}
	if r.Coordinates == nil {
		return model.Coordinates{}, &PositionError{Code: PositionUnavailable}
	}
	if err := ValidateCoordinates(*r.Coordinates); err != nil {
		return model.Coordinates{}, &PositionError{Code: PositionUnavailable, Err: err}
	}
	return *r.Coordinates, nil
}

// ErrInvalidCoordinates возвращается для координат вне допустимого диапазона.
var ErrInvalidCoordinates = errors.New("coordinates out of range")

// ValidateCoordinates проверяет диапазоны широты и долготы.
func ValidateCoordinates(c model.Coordinates) error {
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: %f,%f", ErrInvalidCoordinates, c.Latitude, c.Longitude)
	}
	return nil
}
