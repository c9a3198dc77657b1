package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmeshcher/restaurant-delivery/internal/model"
)

// ErrAddressNotFound возвращается, если по координатам не удалось определить адрес с индексом.
var ErrAddressNotFound = errors.New("Nie udało się określić adresu")

// DefaultPositionTimeout ограничивает ожидание координат.
const DefaultPositionTimeout = 10 * time.Second

// Geocoder выполняет обратное геокодирование.
type Geocoder interface {
	AddressFromCoordinates(ctx context.Context, lat, lon float64) (*model.DetectedAddress, error)
}

// Resolver получает координаты и превращает их в адрес доставки.
type Resolver struct {
	geocoder        Geocoder
	positionTimeout time.Duration
}

// NewResolver создаёт резолвер адреса.
func NewResolver(g Geocoder, positionTimeout time.Duration) *Resolver {
	if positionTimeout <= 0 {
		positionTimeout = DefaultPositionTimeout
	}
	return &Resolver{geocoder: g, positionTimeout: positionTimeout}
}

// Location содержит результат определения адреса.
type Location struct {
	Coordinates model.Coordinates     `json:"coordinates"`
	Address     model.DetectedAddress `json:"address"`
}

// Locate выполняет один запрос координат и один запрос геокодирования.
func (r *Resolver) Locate(ctx context.Context, source PositionSource) (*Location, error) {
	posCtx, cancel := context.WithTimeout(ctx, r.positionTimeout)
	coords, err := source.CurrentPosition(posCtx)
	cancel()
	if err != nil {
		return nil, classifyPositionError(err)
	}

	addr, err := r.geocoder.AddressFromCoordinates(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	if addr == nil {
		return nil, ErrAddressNotFound
	}

	return &Location{Coordinates: coords, Address: *addr}, nil
}

func classifyPositionError(err error) error {
	var posErr *PositionError
	if errors.As(err, &posErr) {
		return posErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &PositionError{Code: PositionTimeout, Err: err}
	}
	return &PositionError{Code: PositionUnknown, Err: err}
}
