package cache

import (
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Memcached хранит временные значения в memcached.
type Memcached struct {
	client *memcache.Client
}

// NewMemcached создает клиент для указанных серверов memcached.
func NewMemcached(servers ...string) *Memcached {
	return &Memcached{client: memcache.New(servers...)}
}

// memcached считает Expiration больше 30 суток абсолютным unix-временем.
const maxRelativeExpiration = 30 * 24 * time.Hour

// Set сохраняет временное значение. Срок жизни округляется до секунд.
func (m *Memcached) Set(key string, value []byte, ttl time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: expiration(ttl, time.Now()),
	})
}

// expiration переводит срок жизни в формат memcached: секунды для коротких
// сроков, абсолютное время для длинных.
func expiration(ttl time.Duration, now time.Time) int32 {
	if ttl <= 0 {
		return 0
	}
	if ttl > maxRelativeExpiration {
		return int32(now.Add(ttl).Unix())
	}
	seconds := int32(ttl / time.Second)
	if seconds == 0 {
		// 0 означает "без срока"
		seconds = 1
	}
	return seconds
}

func (m *Memcached) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

func (m *Memcached) Delete(key string) error {
	err := m.client.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}
