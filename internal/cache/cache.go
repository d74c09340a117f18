package cache

import (
	"errors"
	"time"
)

// ErrMiss - ключ отсутствует или истек.
var ErrMiss = errors.New("cache miss")

// Cache - временное хранилище ключ-значение (состояние OAuth, отозванные токены).
type Cache interface {
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
	Delete(key string) error
}
