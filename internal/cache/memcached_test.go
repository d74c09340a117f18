package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemcached_Expiration(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.Equal(t, int32(300), expiration(5*time.Minute, now))
	assert.Equal(t, int32(30*24*3600), expiration(maxRelativeExpiration, now))
	assert.Equal(t, int32(1), expiration(300*time.Millisecond, now))

	// Длинный срок (TOKEN_TTL больше 720h) становится абсолютным временем
	long := 45 * 24 * time.Hour
	assert.Equal(t, int32(now.Add(long).Unix()), expiration(long, now))
}
