package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UkralStul/x-clone-service/api"
	"github.com/UkralStul/x-clone-service/internal/blob"
	"github.com/UkralStul/x-clone-service/internal/blob/local"
	"github.com/UkralStul/x-clone-service/internal/blob/s3"
	"github.com/UkralStul/x-clone-service/internal/cache"
	"github.com/UkralStul/x-clone-service/internal/config"
	"github.com/UkralStul/x-clone-service/internal/dataloader"
	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/identity"
	"github.com/UkralStul/x-clone-service/internal/live"
	"github.com/UkralStul/x-clone-service/internal/metrics"
	"github.com/UkralStul/x-clone-service/internal/service"
	"github.com/UkralStul/x-clone-service/internal/storage"
	"github.com/UkralStul/x-clone-service/internal/storage/inmemory"
	"github.com/UkralStul/x-clone-service/internal/storage/postgres"
	"github.com/UkralStul/x-clone-service/internal/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const serviceName = "x-clone-service"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if cfg.GeneratedSecret {
		logger.Warn("JWT_SECRET is not set, using a random secret: sessions will not survive a restart")
	}

	var store storage.Storage
	logger.Info("starting server", "storage", cfg.Storage, "blob", cfg.BlobBackend)
	if cfg.Storage == config.StoragePostgres {
		store, err = postgres.New(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
	} else {
		store = inmemory.New()
	}

	var bus live.Bus
	if cfg.NATSURL != "" {
		natsBus, err := live.DialNATS(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			logger.Error("failed to connect to nats", "err", err)
			os.Exit(1)
		}
		defer natsBus.Close()
		bus = natsBus
	} else {
		bus = live.NewLocalBus()
	}
	// Все записи проходят через Watch, чтобы живые выборки узнавали об изменениях
	store = live.Watch(store, bus, logger)

	hub, err := live.NewHub(store, bus, logger)
	if err != nil {
		logger.Error("failed to start live hub", "err", err)
		os.Exit(1)
	}
	defer hub.Close()

	var (
		blobs     blob.Store
		fileStore *local.Store
	)
	if cfg.BlobBackend == config.BlobS3 {
		blobs, err = s3.New(s3.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
	} else {
		fileStore, err = local.New(cfg.BlobDir, cfg.PublicURL)
		blobs = fileStore
	}
	if err != nil {
		logger.Error("failed to init blob storage", "err", err)
		os.Exit(1)
	}

	var kv cache.Cache = cache.NewMemory()
	if cfg.MemcacheURL != "" {
		kv = cache.NewMemcached(cfg.MemcacheURL)
	}

	trace, err := tracing.New(cfg.ZipkinAddress, serviceName, "localhost:"+cfg.Port)
	if err != nil {
		logger.Error("failed to init tracing", "err", err)
		os.Exit(1)
	}
	defer trace.Close()

	tokens, err := identity.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to init tokens", "err", err)
		os.Exit(1)
	}
	provider := identity.NewProvider(store, tokens, kv, identity.GitHubConfig{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.GitHubRedirectURL,
		HTTPClient:   trace.Client,
	}, logger)

	if cfg.Seed {
		if cfg.Storage != config.StorageInMemory {
			logger.Warn("--seed is ignored for persistent storage")
		} else {
			// Заполним данными для ручной проверки
			fillWithMockData(store, logger)
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(skipUpgrades(trace.Middleware))

	h := &api.Handler{
		Identity: provider,
		Posts:    service.NewPosts(store),
		Blobs:    service.NewBlobs(blobs),
		Hub:      hub,
		Store:    store,
		Logger:   logger,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		PingInterval: 10 * time.Second,
	}

	router.Mount("/api/v1", dataloader.Middleware(store, h.Routes()))
	if fileStore != nil {
		router.Handle("/files/*", fileStore.Handler())
	}
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", metrics.Handler(metrics.Registry()))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", "http://localhost:"+cfg.Port+"/api/v1")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Живые подписки держат соединения, поэтому hub закрывается до Shutdown
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}

// skipUpgrades не пропускает websocket-запросы через mw: обертка трассировки
// не отдает соединение для Hijack.
func skipUpgrades(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		traced := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			traced.ServeHTTP(w, r)
		})
	}
}

func fillWithMockData(s storage.Storage, logger *slog.Logger) {
	ctx := context.Background()
	now := time.Now()

	alice, err := s.CreateUser(ctx, &domain.User{DisplayName: "Alice", CreatedAt: now})
	if err != nil {
		logger.Error("fillWithMockData: failed to create user", "err", err)
		os.Exit(1)
	}
	bob, err := s.CreateUser(ctx, &domain.User{DisplayName: "", CreatedAt: now})
	if err != nil {
		logger.Error("fillWithMockData: failed to create user", "err", err)
		os.Exit(1)
	}

	posts := []*domain.Post{
		{Text: "첫 트윗입니다!", AuthorID: alice.ID, AuthorDisplayName: alice.NameOrAnonymous()},
		{Text: "Live feed keeps the latest 25 posts.", AuthorID: bob.ID, AuthorDisplayName: bob.NameOrAnonymous()},
		{Text: "Posts are limited to 180 characters.", AuthorID: alice.ID, AuthorDisplayName: alice.NameOrAnonymous()},
	}
	for i, post := range posts {
		post.CreatedAt = domain.Millis(now.Add(time.Duration(i) * time.Second))
		if _, err := s.CreatePost(ctx, post); err != nil {
			logger.Error("fillWithMockData: failed to create post", "err", err)
			os.Exit(1)
		}
	}

	logger.Info("mock data filled", "users", 2, "posts", len(posts))
}
