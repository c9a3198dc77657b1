package delivery

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/restaurant-delivery/internal/validation"
)

// DefaultDebounce задаёт задержку перед пересчётом после ввода индекса вручную.
const DefaultDebounce = 500 * time.Millisecond

// Источники пересчёта.
const (
	SourceManual   = "manual"
	SourceLocation = "location"
	SourceOptions  = "options"
)

// QuoteFunc рассчитывает доставку для текущего состояния сессии.
type QuoteFunc func(postalCode string, subtotal decimal.Decimal, express bool) Calculation

// LiveResult публикуется после каждого пересчёта. Calculation == nil означает, что расчёт сброшен.
type LiveResult struct {
	Revision    uint64       `json:"revision"`
	Source      string       `json:"source"`
	PostalCode  string       `json:"postalCode"`
	Calculation *Calculation `json:"calculation"`
}

// LiveSession пересчитывает доставку по мере ввода индекса.
// Ручной ввод откладывается на debounce, результат геолокации публикуется сразу,
// устаревшие результаты отбрасываются.
type LiveSession struct {
	quote   QuoteFunc
	publish func(LiveResult)
	delay   time.Duration

	mu         sync.Mutex
	input      string
	postalCode string
	subtotal   decimal.Decimal
	express    bool
	timer      *time.Timer
	pending    uint64
	revision   uint64
	closed     bool

	pubMu     sync.Mutex
	published uint64
}

// NewLiveSession создаёт сессию. publish вызывается последовательно, без удерживаемых блокировок сессии.
func NewLiveSession(quote QuoteFunc, delay time.Duration, publish func(LiveResult)) *LiveSession {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &LiveSession{
		quote:   quote,
		publish: publish,
		delay:   delay,
	}
}

// Restore задаёт начальное состояние из сохранённых данных без публикации.
func (s *LiveSession) Restore(postalCode string, subtotal decimal.Decimal, express bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.input = validation.SanitizePostalInput(postalCode)
	if len(validation.NormalizePostalCode(s.input)) >= 2 {
		s.postalCode = s.input
	}
	s.subtotal = subtotal
	s.express = express
}

// Input принимает очередное значение поля индекса и откладывает пересчёт.
func (s *LiveSession) Input(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.input = validation.SanitizePostalInput(raw)
	s.pending++
	gen := s.pending

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

func (s *LiveSession) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.pending {
		s.mu.Unlock()
		return
	}
	s.timer = nil

	digits := validation.NormalizePostalCode(s.input)
	var res LiveResult
	switch {
	case s.input == "":
		s.postalCode = ""
		s.revision++
		res = LiveResult{Revision: s.revision, Source: SourceManual}
	case len(digits) >= 2:
		s.postalCode = s.input
		res = s.recalculateLocked(SourceManual)
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.emit(res)
}

// Located применяет индекс, определённый по геолокации. Отложенный ручной пересчёт отменяется.
func (s *LiveSession) Located(postalCode string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.pending++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.input = validation.SanitizePostalInput(postalCode)
	s.postalCode = s.input
	res := s.recalculateLocked(SourceLocation)
	s.mu.Unlock()

	s.emit(res)
}

// SetExpress переключает экспресс-доставку и сразу пересчитывает, если индекс уже известен.
func (s *LiveSession) SetExpress(express bool) {
	s.mu.Lock()
	s.express = express
	s.recalculateOptions()
}

// SetSubtotal обновляет сумму заказа и сразу пересчитывает, если индекс уже известен.
func (s *LiveSession) SetSubtotal(subtotal decimal.Decimal) {
	s.mu.Lock()
	s.subtotal = subtotal
	s.recalculateOptions()
}

// recalculateOptions вызывается с захваченным s.mu и освобождает его.
func (s *LiveSession) recalculateOptions() {
	if s.closed || s.postalCode == "" {
		s.mu.Unlock()
		return
	}
	res := s.recalculateLocked(SourceOptions)
	s.mu.Unlock()

	s.emit(res)
}

func (s *LiveSession) recalculateLocked(source string) LiveResult {
	s.revision++
	calc := s.quote(s.postalCode, s.subtotal, s.express)
	return LiveResult{
		Revision:    s.revision,
		Source:      source,
		PostalCode:  s.postalCode,
		Calculation: &calc,
	}
}

// emit публикует результат, если он не старше последнего опубликованного.
func (s *LiveSession) emit(res LiveResult) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	if res.Revision <= s.published {
		return
	}
	s.published = res.Revision
	s.publish(res)
}

// PostalCode возвращает последний применённый индекс.
func (s *LiveSession) PostalCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postalCode
}

// Close останавливает отложенный пересчёт; дальнейшие вызовы игнорируются.
func (s *LiveSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
