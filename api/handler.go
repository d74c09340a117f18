package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/UkralStul/x-clone-service/internal/identity"
	"github.com/UkralStul/x-clone-service/internal/live"
	"github.com/UkralStul/x-clone-service/internal/service"
	"github.com/UkralStul/x-clone-service/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const defaultPingInterval = 10 * time.Second

// Handler - корневая структура транспорта.
// Она содержит все зависимости, которые нужны для обработки запросов.
type Handler struct {
	Identity *identity.Provider
	Posts    *service.Posts
	Blobs    *service.Blobs
	Hub      *live.Hub
	// Store нужен дата-лоадерам живой ленты.
	Store  storage.Storage
	Logger *slog.Logger

	Upgrader     websocket.Upgrader
	PingInterval time.Duration
}

// Routes собирает роутер API. Монтируется на /api/v1.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Вход и регистрация не читают токен: устаревший токен клиента
	// не должен мешать войти заново.
	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-up", h.signUp)
		r.Post("/sign-in", h.signIn)
		r.Get("/github", h.githubRedirect)
		r.Get("/github/callback", h.githubCallback)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)
			r.Post("/sign-out", h.signOut)
			r.Get("/me", h.me)
			r.Patch("/me", h.updateMe)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", h.createPost)
			r.Get("/", h.listPosts)
			r.Get("/live", h.livePosts)
			r.Get("/{id}", h.getPost)
			r.Patch("/{id}", h.updatePost)
			r.Delete("/{id}", h.deletePost)
		})

		r.Route("/blobs", func(r chi.Router) {
			r.Get("/url", h.blobURL)
			r.Put("/*", h.uploadBlob)
			r.Delete("/*", h.deleteBlob)
		})
	})

	return r
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// authenticate кладет пользователя сессии в контекст. Токен берется из
// заголовка Authorization или параметра access_token (WebSocket).
// Запрос без токена проходит анонимно.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := h.Identity.Authenticate(r.Context(), token)
		if err != nil {
			h.respondError(w, r, "user", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user, token)))
	})
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("access_token")
}
