// Package testserver поднимает полный сервер на in-memory хранилищах для тестов
// транспорта, клиента и представлений.
package testserver

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UkralStul/x-clone-service/api"
	"github.com/UkralStul/x-clone-service/internal/blob/local"
	"github.com/UkralStul/x-clone-service/internal/cache"
	"github.com/UkralStul/x-clone-service/internal/dataloader"
	"github.com/UkralStul/x-clone-service/internal/identity"
	"github.com/UkralStul/x-clone-service/internal/live"
	"github.com/UkralStul/x-clone-service/internal/service"
	"github.com/UkralStul/x-clone-service/internal/storage"
	"github.com/UkralStul/x-clone-service/internal/storage/inmemory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type Server struct {
	*httptest.Server
	Store    storage.Storage
	Blobs    *local.Store
	BlobDir  string
	Identity *identity.Provider
}

// Start запускает сервер; он останавливается в t.Cleanup.
func Start(t testing.TB) *Server {
	t.Helper()

	bus := live.NewLocalBus()
	store := live.Watch(inmemory.New(), bus, nil)

	hub, err := live.NewHub(store, bus, nil)
	require.NoError(t, err)

	tokens, err := identity.NewTokens([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	provider := identity.NewProvider(store, tokens, cache.NewMemory(), identity.GitHubConfig{}, nil)

	dir := t.TempDir()
	// Публичный адрес блобов известен только после старта, маршруты добавляются следом
	router := chi.NewRouter()
	httpSrv := httptest.NewServer(router)
	srv := &Server{Server: httpSrv, Store: store, BlobDir: dir, Identity: provider}

	blobs, err := local.New(dir, httpSrv.URL)
	require.NoError(t, err)
	srv.Blobs = blobs

	h := &api.Handler{
		Identity:     provider,
		Posts:        service.NewPosts(store),
		Blobs:        service.NewBlobs(blobs),
		Hub:          hub,
		Store:        store,
		PingInterval: time.Second,
	}
	router.Mount("/api/v1", dataloader.Middleware(store, h.Routes()))
	router.Handle("/files/*", blobs.Handler())

	t.Cleanup(func() {
		hub.Close()
		httpSrv.CloseClientConnections()
		httpSrv.Close()
	})
	return srv
}
