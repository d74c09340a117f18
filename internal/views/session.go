package views

import (
	"context"
	"log/slog"
	"sync"

	"github.com/UkralStul/x-clone-service/internal/domain"
)

// Session - текущая личность клиента. Устанавливается при входе,
// очищается при выходе; наблюдатели узнают о каждом изменении.
type Session struct {
	identity Identity
	logger   *slog.Logger

	mu        sync.RWMutex
	user      *domain.User
	observers map[int]func(*domain.User)
	nextID    int
}

func NewSession(identity Identity, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		identity:  identity,
		logger:    logger,
		observers: make(map[int]func(*domain.User)),
	}
}

// Current возвращает копию текущего пользователя или nil.
func (s *Session) Current() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Set(user *domain.User) {
	var copied *domain.User
	if user != nil {
		u := *user
		copied = &u
	}
	s.mu.Lock()
	s.user = copied
	observers := make([]func(*domain.User), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(s.Current())
	}
}

func (s *Session) Clear() { s.Set(nil) }

// Observe подписывает fn на изменения сессии. Возвращает функцию отписки.
func (s *Session) Observe(fn func(*domain.User)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// SignOut завершает сессию и возвращает маршрут входа.
// Ошибка провайдера не мешает локальному выходу.
func (s *Session) SignOut(ctx context.Context) string {
	if err := s.identity.SignOut(ctx); err != nil {
		s.logger.Error("sign out", "err", err)
	}
	s.Clear()
	return RouteLogin
}

// RequireSession возвращает маршрут входа, если сессии нет.
func RequireSession(s *Session) (string, bool) {
	if s.Current() == nil {
		return RouteLogin, false
	}
	return "", true
}
