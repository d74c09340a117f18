package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	StorageInMemory = "in-memory"
	StoragePostgres = "postgres"

	BlobLocal = "local"
	BlobS3    = "s3"

	defaultPort     = "8080"
	defaultTokenTTL = 24 * time.Hour
)

// Config - настройки сервера: окружение (.env подхватывается), затем флаги.
type Config struct {
	Port        string
	Storage     string
	DatabaseURL string

	BlobBackend string
	BlobDir     string
	PublicURL   string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	// S3PublicURL - базовый адрес объектов бакета для чтения. Пусто: адрес
	// строится из endpoint и бакета.
	S3PublicURL string

	JWTSecret []byte
	// GeneratedSecret - секрет создан случайно, сессии не переживут рестарт.
	GeneratedSecret bool
	TokenTTL        time.Duration

	MemcacheURL string
	NATSURL     string
	NATSSubject string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string

	ZipkinAddress string

	Seed bool
}

// Load читает конфигурацию. args - аргументы командной строки без имени программы.
func Load(args []string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getenv("PORT", defaultPort),
		Storage:            getenv("STORAGE", StorageInMemory),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		BlobBackend:        getenv("BLOB_BACKEND", BlobLocal),
		BlobDir:            getenv("BLOB_DIR", "data/blobs"),
		PublicURL:          os.Getenv("PUBLIC_URL"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Region:           getenv("S3_REGION", "us-east-1"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3PublicURL:        getenv("S3_PUBLIC_URL", os.Getenv("PUBLIC_URL")),
		MemcacheURL:        os.Getenv("MEMCACHE_URL"),
		NATSURL:            os.Getenv("NATS_URL"),
		NATSSubject:        os.Getenv("NATS_SUBJECT"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubRedirectURL:  os.Getenv("GITHUB_REDIRECT_URL"),
		ZipkinAddress:      os.Getenv("ZIPKIN_ADDRESS"),
		TokenTTL:           defaultTokenTTL,
	}
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", raw, err)
		}
		cfg.TokenTTL = ttl
	}

	flagSet := pflag.NewFlagSet("x-clone-server", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage type (in-memory or postgres)")
	flagSet.StringVar(&cfg.BlobBackend, "blob", cfg.BlobBackend, "Blob backend (local or s3)")
	flagSet.StringVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	flagSet.BoolVar(&cfg.Seed, "seed", false, "fill the in-memory storage with demo data")
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://localhost:" + cfg.Port
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = []byte(secret)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageInMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}

	switch c.BlobBackend {
	case BlobLocal:
	case BlobS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET must be set for s3 blob backend")
		}
	default:
		return fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}

	if len(c.JWTSecret) == 0 {
		// В postgres-режиме сессии должны переживать рестарт
		if c.Storage == StoragePostgres {
			return errors.New("JWT_SECRET must be set for postgres storage")
		}
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		c.JWTSecret = []byte(hex.EncodeToString(secret))
		c.GeneratedSecret = true
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
