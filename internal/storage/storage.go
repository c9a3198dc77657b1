// Package storage хранит данные клиента между запросами: последний индекс, определённый адрес
// и данные автозаполнения формы заказа.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Ключи хранилища.
const (
	KeyPostalCode       = "delivery_postal_code"
	KeyAddress          = "delivery_address"
	KeyCheckoutAutofill = "checkout_autofill"
)

// ErrNotFound возвращается, если ключ отсутствует.
var ErrNotFound = errors.New("storage key not found")

// Store хранит строковые значения по ключу.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type scoped struct {
	store  Store
	prefix string
}

// Scoped возвращает хранилище, ключи которого изолированы в рамках сессии.
func Scoped(s Store, session string) Store {
	return &scoped{store: s, prefix: "session:" + session + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Remove(ctx context.Context, key string) error {
	return s.store.Remove(ctx, s.prefix+key)
}

// GetJSON читает значение и декодирует его в v. Повреждённое значение считается отсутствующим.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrNotFound, key, err)
	}
	return nil
}

// SetJSON кодирует v в JSON и сохраняет.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
