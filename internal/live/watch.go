package live

import (
	"context"
	"log/slog"

	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/metrics"
	"github.com/UkralStul/x-clone-service/internal/storage"
)

// watchedStore публикует уведомление в шину после каждой успешной мутации поста.
type watchedStore struct {
	storage.Storage
	bus    Bus
	logger *slog.Logger
}

// Watch оборачивает хранилище так, чтобы изменения постов попадали в шину.
func Watch(store storage.Storage, bus Bus, logger *slog.Logger) storage.Storage {
	if logger == nil {
		logger = slog.Default()
	}
	return &watchedStore{Storage: store, bus: bus, logger: logger}
}

func (s *watchedStore) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	created, err := s.Storage.CreatePost(ctx, post)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, "insert")
	return created, nil
}

func (s *watchedStore) UpdatePost(ctx context.Context, id string, patch storage.PostPatch) (*domain.Post, error) {
	updated, err := s.Storage.UpdatePost(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, "update")
	return updated, nil
}

func (s *watchedStore) DeletePost(ctx context.Context, id string) error {
	if err := s.Storage.DeletePost(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "delete")
	return nil
}

func (s *watchedStore) changed(ctx context.Context, op string) {
	metrics.PostMutation(op)
	// Мутация уже применена, ошибка шины только логируется
	if err := s.bus.Publish(ctx); err != nil {
		s.logger.Error("publish post change", "op", op, "err", err)
	}
}
