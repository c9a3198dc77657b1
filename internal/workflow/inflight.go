package workflow

import "sync"

// InFlight не даёт отправить второй запрос смены статуса, пока первый не завершён.
type InFlight struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

// NewInFlight создаёт пустой набор.
func NewInFlight() *InFlight {
	return &InFlight{ids: make(map[int64]struct{})}
}

// Acquire захватывает заказ. Возвращает false, если запрос по заказу уже выполняется.
func (f *InFlight) Acquire(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.ids[id]; busy {
		return false
	}
	f.ids[id] = struct{}{}
	return true
}

// Release освобождает заказ.
func (f *InFlight) Release(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
}

// Busy сообщает, выполняется ли сейчас запрос по заказу.
func (f *InFlight) Busy(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.ids[id]
	return busy
}
