package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/storage"
	"github.com/google/uuid"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	db *gorm.DB
}

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true, // gorm.ErrDuplicatedKey вместо ошибки драйвера
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(&domain.Post{}, &domain.User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	p := *post
	p.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, translate(err, "post", id)
	}
	return &post, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, patch storage.PostPatch) (*domain.Post, error) {
	fields := make(map[string]interface{}, 2)
	if patch.Text != nil {
		fields["text"] = *patch.Text
	}
	if patch.PhotoURL != nil {
		fields["photo_url"] = *patch.PhotoURL
	}

	var post domain.Post
	// Чтение и запись в одной транзакции, чтобы вернуть актуальную версию
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", id).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&post).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&post, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err, "post", id)
	}
	return &post, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&domain.Post{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post with id %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) QueryPosts(ctx context.Context, q storage.PostQuery) ([]*domain.Post, error) {
	var posts []*domain.Post
	query := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(storage.NormalizeLimit(q.Limit))
	if q.AuthorID != "" {
		query = query.Where("author_id = ?", q.AuthorID)
	}
	err := query.Find(&posts).Error
	return posts, err
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	u := *user
	u.ID = uuid.NewString()
	if u.Email != nil {
		e := strings.ToLower(*u.Email)
		u.Email = &e
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, translate(err, "user", u.ID)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user", id)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(email)).Error; err != nil {
		return nil, translate(err, "user", email)
	}
	return &user, nil
}

func (s *Store) GetUserByGitHubID(ctx context.Context, githubID int64) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "github_id = ?", githubID).Error; err != nil {
		return nil, translate(err, "user", fmt.Sprint(githubID))
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch storage.UserPatch) (*domain.User, error) {
	fields := make(map[string]interface{}, 2)
	if patch.DisplayName != nil {
		fields["display_name"] = *patch.DisplayName
	}
	if patch.PhotoURL != nil {
		fields["photo_url"] = *patch.PhotoURL
	}

	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&user, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err, "user", id)
	}
	return &user, nil
}

// === Dataloader Method ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	var users []*domain.User
	// Загружаем всех пользователей одним запросом
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}

	result := make(map[string]*domain.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// translate приводит ошибки GORM к ошибкам пакета storage.
func translate(err error, kind, key string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %s: %w", kind, key, storage.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s %s: %w", kind, key, storage.ErrDuplicate)
	}
	return err
}
