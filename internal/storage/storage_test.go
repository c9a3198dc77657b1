package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, KeyPostalCode)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyPostalCode, "00-001"))
	v, err := s.Get(ctx, KeyPostalCode)
	require.NoError(t, err)
	assert.Equal(t, "00-001", v)

	require.NoError(t, s.Set(ctx, KeyPostalCode, "05-120"))
	v, err = s.Get(ctx, KeyPostalCode)
	require.NoError(t, err)
	assert.Equal(t, "05-120", v)

	require.NoError(t, SetJSON(ctx, s, KeyAddress, address{PostalCode: "05-120", City: "Legionowo"}))
	var got address
	require.NoError(t, GetJSON(ctx, s, KeyAddress, &got))
	assert.Equal(t, "Legionowo", got.City)

	require.NoError(t, s.Remove(ctx, KeyAddress))
	assert.ErrorIs(t, GetJSON(ctx, s, KeyAddress, &got), ErrNotFound)

	require.NoError(t, s.Remove(ctx, "never-set"))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestScopedIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	base := NewMemory()

	a := Scoped(base, "a")
	b := Scoped(base, "b")

	require.NoError(t, a.Set(ctx, KeyPostalCode, "00-001"))

	_, err := b.Get(ctx, KeyPostalCode)
	assert.ErrorIs(t, err, ErrNotFound)

	raw, err := base.Get(ctx, "session:a:"+KeyPostalCode)
	require.NoError(t, err)
	assert.Equal(t, "00-001", raw)

	exerciseStore(t, b)
}

func TestGetJSON_CorruptedValueIsNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Set(ctx, KeyCheckoutAutofill, "{broken"))

	var v address
	err := GetJSON(ctx, s, KeyCheckoutAutofill, &v)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS is not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	s := NewRedis(client, WithPrefix("test:"+uuid.NewString()+":"), WithTTL(time.Minute))
	require.NoError(t, s.Ping(context.Background()))

	exerciseStore(t, Scoped(s, uuid.NewString()))
}

func TestRedis_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	s := NewRedis(client)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := s.Get(ctx, KeyPostalCode)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	assert.Error(t, s.Set(ctx, KeyPostalCode, "00-001"))
}
