package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/storage"
)

// NewPost - поля, которые клиент передает при вставке.
type NewPost struct {
	Text              string `json:"text"`
	CreatedAt         int64  `json:"createdAt"`
	AuthorDisplayName string `json:"authorDisplayName"`
}

// Posts применяет правила коллекции постов поверх хранилища.
type Posts struct {
	store storage.Storage
	now   func() time.Time
}

func NewPosts(store storage.Storage) *Posts {
	return &Posts{store: store, now: time.Now}
}

// Insert создает пост от имени actor. authorId всегда берется из сессии.
func (s *Posts) Insert(ctx context.Context, actor *domain.User, in NewPost) (*domain.Post, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !domain.ValidText(in.Text) {
		return nil, ErrInvalidText
	}

	name := strings.TrimSpace(in.AuthorDisplayName)
	if name == "" {
		name = actor.NameOrAnonymous()
	}
	createdAt := in.CreatedAt
	if createdAt <= 0 {
		createdAt = domain.Millis(s.now())
	}

	return s.store.CreatePost(ctx, &domain.Post{
		Text:              in.Text,
		AuthorID:          actor.ID,
		AuthorDisplayName: name,
		CreatedAt:         createdAt,
	})
}

// Update применяет частичное обновление; разрешено только автору.
func (s *Posts) Update(ctx context.Context, actor *domain.User, id string, patch storage.PostPatch) (*domain.Post, error) {
	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	if patch.Text != nil && !domain.ValidText(*patch.Text) {
		return nil, ErrInvalidText
	}
	return s.store.UpdatePost(ctx, id, patch)
}

// Delete удаляет пост; разрешено только автору. Объект изображения не трогается.
func (s *Posts) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	return s.store.DeletePost(ctx, id)
}

func (s *Posts) Get(ctx context.Context, id string) (*domain.Post, error) {
	return s.store.GetPostByID(ctx, id)
}

// Query - разовая выборка по убыванию createdAt.
func (s *Posts) Query(ctx context.Context, q storage.PostQuery) ([]*domain.Post, error) {
	q.Limit = storage.NormalizeLimit(q.Limit)
	return s.store.QueryPosts(ctx, q)
}

func (s *Posts) authorize(ctx context.Context, actor *domain.User, id string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.ID {
		return fmt.Errorf("post %s: %w", id, ErrForbidden)
	}
	return nil
}
