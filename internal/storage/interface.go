package storage

import (
	"context"
	"errors"

	"github.com/UkralStul/x-clone-service/internal/domain"
)

var (
	// ErrNotFound - документ не найден.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate - нарушение уникальности (email, github id).
	ErrDuplicate = errors.New("document already exists")
)

// PostQuery - выборка постов: всегда по убыванию createdAt.
// Пустой AuthorID означает все посты.
type PostQuery struct {
	AuthorID string
	Limit    int
}

// PostPatch - частичное обновление поста. nil-поля не меняются.
type PostPatch struct {
	Text     *string
	PhotoURL *string
}

// UserPatch - частичное обновление профиля.
type UserPatch struct {
	DisplayName *string
	PhotoURL    *string
}

// Storage определяет контракт для хранилищ документов.
type Storage interface {
	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	UpdatePost(ctx context.Context, id string, patch PostPatch) (*domain.Post, error)
	DeletePost(ctx context.Context, id string) error
	QueryPosts(ctx context.Context, q PostQuery) ([]*domain.Post, error)

	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*domain.User, error)

	// Метод для Dataloader'а
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
}

// NormalizeLimit приводит лимит выборки к допустимому диапазону.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return domain.FeedLimit
	}
	if limit > 100 {
		return 100
	}
	return limit
}
