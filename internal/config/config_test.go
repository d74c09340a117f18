package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PUBLIC_URL", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("BLOB_BACKEND", "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageInMemory, cfg.Storage)
	assert.Equal(t, BlobLocal, cfg.BlobBackend)
	assert.Equal(t, "http://localhost:8080", cfg.PublicURL)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.GeneratedSecret)
	assert.Len(t, cfg.JWTSecret, 64)
	assert.False(t, cfg.Seed)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE", StorageInMemory)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "90m")

	cfg, err := Load([]string{"--port", "9100", "--seed"})
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.True(t, cfg.Seed)
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret)
	assert.False(t, cfg.GeneratedSecret)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
}

func TestLoad_Validation(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TOKEN_TTL", "")

	_, err := Load([]string{"--storage", StoragePostgres})
	assert.ErrorContains(t, err, "DATABASE_URL")

	_, err = Load([]string{"--blob", BlobS3})
	assert.ErrorContains(t, err, "S3_BUCKET")

	_, err = Load([]string{"--storage", "mongo"})
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/x")
	_, err = Load([]string{"--storage", StoragePostgres})
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("TOKEN_TTL", "soon")
	_, err = Load(nil)
	assert.ErrorContains(t, err, "TOKEN_TTL")
}

func TestLoad_S3PublicURL(t *testing.T) {
	t.Setenv("STORAGE", "")
	t.Setenv("PORT", "")
	t.Setenv("BLOB_BACKEND", BlobS3)
	t.Setenv("S3_BUCKET", "media")
	t.Setenv("S3_PUBLIC_URL", "")
	t.Setenv("PUBLIC_URL", "https://cdn.example")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example", cfg.S3PublicURL)

	t.Setenv("S3_PUBLIC_URL", "https://media.example")
	cfg, err = Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://media.example", cfg.S3PublicURL)
	assert.Equal(t, "https://cdn.example", cfg.PublicURL)

	// Без явного адреса S3 строит его сам, а не берет локальный по умолчанию
	t.Setenv("S3_PUBLIC_URL", "")
	t.Setenv("PUBLIC_URL", "")
	cfg, err = Load(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.S3PublicURL)
}
