package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-delivery/internal/delivery"
	"github.com/mmeshcher/restaurant-delivery/internal/geo"
	"github.com/mmeshcher/restaurant-delivery/internal/model"
	"github.com/mmeshcher/restaurant-delivery/internal/storage"
	"github.com/mmeshcher/restaurant-delivery/internal/validation"
)

// QuoteRequest описывает запрос расчёта доставки.
type QuoteRequest struct {
	PostalCode  string          `json:"postal_code"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Express     bool            `json:"express"`
	NewCustomer bool            `json:"new_customer"`
}

// Quote содержит расчёт доставки вместе с состоянием часов работы.
type Quote struct {
	delivery.Calculation
	PostalCode   string          `json:"postalCode"`
	DeliveryOpen bool            `json:"deliveryOpen"`
	MinimumOrder decimal.Decimal `json:"minimumOrder"`
}

// SavedDelivery содержит сохранённые данные доставки клиента.
type SavedDelivery struct {
	PostalCode string                  `json:"postalCode,omitempty"`
	Address    *model.DetectedAddress  `json:"address,omitempty"`
	Autofill   *model.CheckoutAutofill `json:"autofill,omitempty"`
	Quote      *Quote                  `json:"quote,omitempty"`
}

// LocateResult содержит результат определения адреса по геолокации.
type LocateResult struct {
	Location geo.Location           `json:"location"`
	Autofill model.CheckoutAutofill `json:"autofill"`
	Quote    Quote                  `json:"quote"`
}

// Zones возвращает таблицу зон доставки.
func (s *Service) Zones() []delivery.Zone {
	return s.engine.Zones()
}

// Calculate рассчитывает доставку без сохранения состояния.
func (s *Service) Calculate(postalCode string, subtotal decimal.Decimal, express, newCustomer bool) Quote {
	now := s.localNow()
	calc := s.engine.Calculate(postalCode, subtotal, delivery.Options{
		IsExpress:     express,
		IsWeekend:     delivery.IsWeekend(now),
		IsNewCustomer: newCustomer,
	})

	zoneID := ""
	if calc.Zone != nil {
		zoneID = calc.Zone.ID
	}
	s.metrics.Quote(zoneID, calc.Available)

	return Quote{
		Calculation:  calc,
		PostalCode:   validation.FormatPostalCode(postalCode),
		DeliveryOpen: s.engine.IsDeliveryAvailable(now),
		MinimumOrder: s.engine.Rules().MinimumOrder,
	}
}

// Quote рассчитывает доставку и запоминает индекс, если для него нашлась зона.
// Определённый по геолокации адрес с другим индексом при этом удаляется.
func (s *Service) Quote(ctx context.Context, session string, req QuoteRequest) (*Quote, error) {
	if req.Subtotal.IsNegative() {
		return nil, fmt.Errorf("%w: subtotal must not be negative", ErrInvalidRequest)
	}

	q := s.Calculate(req.PostalCode, req.Subtotal, req.Express, req.NewCustomer)
	if q.Zone != nil {
		s.rememberPostalCode(ctx, session, q.PostalCode)
		s.forgetStaleAddress(ctx, session, q.PostalCode)
	}

	return &q, nil
}

// forgetStaleAddress удаляет определённый адрес, если его индекс не совпадает с введённым вручную.
func (s *Service) forgetStaleAddress(ctx context.Context, session, postalCode string) {
	var addr model.DetectedAddress
	if err := storage.GetJSON(ctx, storage.Scoped(s.store, session), storage.KeyAddress, &addr); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("read detected address", zap.String("session", session), zap.Error(err))
		}
		return
	}

	if validation.NormalizePostalCode(addr.PostalCode) == validation.NormalizePostalCode(postalCode) {
		return
	}
	if err := s.ForgetAddress(ctx, session); err != nil {
		s.logger.Warn("forget detected address", zap.String("session", session), zap.Error(err))
	}
}

func (s *Service) rememberPostalCode(ctx context.Context, session, postalCode string) {
	st := storage.Scoped(s.store, session)
	if err := st.Set(ctx, storage.KeyPostalCode, postalCode); err != nil {
		s.logger.Warn("save postal code", zap.String("session", session), zap.Error(err))
	}
}

// SavedDelivery возвращает сохранённые индекс и адрес клиента и расчёт для них.
func (s *Service) SavedDelivery(ctx context.Context, session string, subtotal decimal.Decimal, express bool) (*SavedDelivery, error) {
	st := storage.Scoped(s.store, session)
	res := &SavedDelivery{}

	code, err := st.Get(ctx, storage.KeyPostalCode)
	switch {
	case err == nil:
		res.PostalCode = code
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("read postal code: %w", err)
	}

	var addr model.DetectedAddress
	if err := storage.GetJSON(ctx, st, storage.KeyAddress, &addr); err == nil {
		res.Address = &addr
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("read address: %w", err)
	}

	var autofill model.CheckoutAutofill
	if err := storage.GetJSON(ctx, st, storage.KeyCheckoutAutofill, &autofill); err == nil {
		res.Autofill = &autofill
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("read autofill: %w", err)
	}

	if res.PostalCode != "" {
		q := s.Calculate(res.PostalCode, subtotal, express, false)
		res.Quote = &q
	}

	return res, nil
}

// Locate определяет адрес по геолокации, рассчитывает доставку и сохраняет адрес.
// При ошибке сохранённые данные не меняются.
func (s *Service) Locate(ctx context.Context, session string, source geo.PositionSource, subtotal decimal.Decimal, express bool) (*LocateResult, error) {
	loc, err := s.resolver.Locate(ctx, source)
	if err != nil {
		s.metrics.Locate(locateOutcome(err))
		return nil, err
	}
	s.metrics.Locate("ok")

	autofill := model.NewCheckoutAutofill(loc.Address)
	quote := s.Calculate(loc.Address.PostalCode, subtotal, express, false)

	st := storage.Scoped(s.store, session)
	if err := storage.SetJSON(ctx, st, storage.KeyAddress, loc.Address); err != nil {
		s.logger.Warn("save detected address", zap.String("session", session), zap.Error(err))
	}
	if err := storage.SetJSON(ctx, st, storage.KeyCheckoutAutofill, autofill); err != nil {
		s.logger.Warn("save checkout autofill", zap.String("session", session), zap.Error(err))
	}
	s.rememberPostalCode(ctx, session, loc.Address.PostalCode)

	return &LocateResult{
		Location: *loc,
		Autofill: autofill,
		Quote:    quote,
	}, nil
}

func locateOutcome(err error) string {
	var posErr *geo.PositionError
	switch {
	case errors.As(err, &posErr):
		return fmt.Sprintf("position_error_%d", posErr.Code)
	case errors.Is(err, geo.ErrAddressNotFound):
		return "address_not_found"
	default:
		return "geocoder_error"
	}
}

// ForgetAddress удаляет определённый по геолокации адрес после ручной правки индекса.
func (s *Service) ForgetAddress(ctx context.Context, session string) error {
	st := storage.Scoped(s.store, session)
	if err := st.Remove(ctx, storage.KeyAddress); err != nil {
		return fmt.Errorf("remove address: %w", err)
	}
	if err := st.Remove(ctx, storage.KeyCheckoutAutofill); err != nil {
		return fmt.Errorf("remove autofill: %w", err)
	}
	return nil
}

// NewLiveSession создаёт сессию живого расчёта, восстановленную из сохранённых данных.
// Индекс, для которого нашлась зона, сохраняется после каждой публикации,
// а ручной ввод индекса удаляет определённый ранее адрес.
func (s *Service) NewLiveSession(ctx context.Context, session string, subtotal decimal.Decimal, express bool, publish func(delivery.LiveResult)) *delivery.LiveSession {
	quote := func(postalCode string, subtotal decimal.Decimal, express bool) delivery.Calculation {
		return s.Calculate(postalCode, subtotal, express, false).Calculation
	}

	live := delivery.NewLiveSession(quote, delivery.DefaultDebounce, func(res delivery.LiveResult) {
		saveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if res.Calculation != nil && res.Calculation.Zone != nil {
			s.rememberPostalCode(saveCtx, session, validation.FormatPostalCode(res.PostalCode))
		}
		// Ручная правка индекса отменяет адрес, определённый по геолокации.
		if res.Source == delivery.SourceManual {
			if err := s.ForgetAddress(saveCtx, session); err != nil {
				s.logger.Warn("forget detected address", zap.String("session", session), zap.Error(err))
			}
		}
		cancel()
		publish(res)
	})

	saved := ""
	if code, err := storage.Scoped(s.store, session).Get(ctx, storage.KeyPostalCode); err == nil {
		saved = code
	}
	live.Restore(saved, subtotal, express)
	s.metrics.LiveSessionOpened()

	return live
}

// CloseLiveSession завершает сессию живого расчёта.
func (s *Service) CloseLiveSession(live *delivery.LiveSession) {
	live.Close()
	s.metrics.LiveSessionClosed()
}
