package delivery

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 30 * time.Millisecond

type recorder struct {
	mu      sync.Mutex
	results []LiveResult
	ch      chan LiveResult
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan LiveResult, 16)}
}

func (r *recorder) publish(res LiveResult) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	r.ch <- res
}

func (r *recorder) next(t *testing.T) LiveResult {
	t.Helper()
	select {
	case res := <-r.ch:
		return res
	case <-time.After(time.Second):
		t.Fatalf("no result published")
		return LiveResult{}
	}
}

func (r *recorder) none(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case res := <-r.ch:
		t.Fatalf("unexpected result: %+v", res)
	case <-time.After(wait):
	}
}

func newTestSession(t *testing.T) (*LiveSession, *recorder) {
	t.Helper()
	e := newTestEngine(t)
	rec := newRecorder()
	s := NewLiveSession(func(code string, subtotal decimal.Decimal, express bool) Calculation {
		return e.Calculate(code, subtotal, Options{IsExpress: express})
	}, testDebounce, rec.publish)
	s.SetSubtotal(dec("50"))
	t.Cleanup(s.Close)
	return s, rec
}

func TestLiveSession_DebouncesKeystrokes(t *testing.T) {
	s, rec := newTestSession(t)

	for _, v := range []string{"0", "00", "00-", "00-0", "00-00", "00-001"} {
		s.Input(v)
	}

	res := rec.next(t)
	assert.Equal(t, SourceManual, res.Source)
	assert.Equal(t, "00-001", res.PostalCode)
	require.NotNil(t, res.Calculation)
	assert.Equal(t, "warsaw-center", res.Calculation.Zone.ID)

	rec.none(t, 3*testDebounce)
}

func TestLiveSession_SingleDigitDoesNotRecalculate(t *testing.T) {
	s, rec := newTestSession(t)

	s.Input("0")

	rec.none(t, 3*testDebounce)
}

func TestLiveSession_EmptyInputClears(t *testing.T) {
	s, rec := newTestSession(t)

	s.Input("00-001")
	rec.next(t)

	s.Input("")
	res := rec.next(t)
	assert.Nil(t, res.Calculation)
	assert.Empty(t, s.PostalCode())
}

func TestLiveSession_LocationSupersedesPendingInput(t *testing.T) {
	s, rec := newTestSession(t)

	s.Input("05-200")
	s.Located("00-950")

	res := rec.next(t)
	assert.Equal(t, SourceLocation, res.Source)
	assert.Equal(t, "00-950", res.PostalCode)

	rec.none(t, 3*testDebounce)
	assert.Equal(t, "00-950", s.PostalCode())
}

func TestLiveSession_OptionsRecalculateImmediately(t *testing.T) {
	s, rec := newTestSession(t)

	s.SetExpress(true)
	rec.none(t, testDebounce)

	s.Located("00-001")
	first := rec.next(t)
	require.NotNil(t, first.Calculation)
	assert.True(t, first.Calculation.FinalPrice.Equal(dec("15")))

	s.SetExpress(false)
	second := rec.next(t)
	assert.Equal(t, SourceOptions, second.Source)
	assert.True(t, second.Calculation.FinalPrice.Equal(dec("5")))
	assert.Greater(t, second.Revision, first.Revision)
}

func TestLiveSession_DropsStaleRevisions(t *testing.T) {
	rec := newRecorder()
	s := NewLiveSession(nil, testDebounce, rec.publish)

	s.emit(LiveResult{Revision: 2, PostalCode: "00-001"})
	s.emit(LiveResult{Revision: 1, PostalCode: "05-200"})
	s.emit(LiveResult{Revision: 3, PostalCode: "03-100"})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.results, 2)
	assert.Equal(t, "00-001", rec.results[0].PostalCode)
	assert.Equal(t, "03-100", rec.results[1].PostalCode)
}

func TestLiveSession_CloseStopsPendingInput(t *testing.T) {
	s, rec := newTestSession(t)

	s.Input("00-001")
	s.Close()

	rec.none(t, 3*testDebounce)
}
