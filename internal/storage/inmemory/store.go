package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/storage"
	"github.com/google/uuid"
)

type postRecord struct {
	post domain.Post
	seq  uint64 // порядок вставки, разрешает равные createdAt
}

// Store реализует интерфейс Storage в памяти.
type Store struct {
	mu          sync.RWMutex
	seq         uint64
	posts       map[string]*postRecord
	users       map[string]*domain.User
	usersEmail  map[string]string // map[email]userID
	usersGitHub map[int64]string  // map[githubID]userID
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		posts:       make(map[string]*postRecord),
		users:       make(map[string]*domain.User),
		usersEmail:  make(map[string]string),
		usersGitHub: make(map[int64]string),
	}
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	rec := &postRecord{post: *post, seq: s.seq}
	rec.post.ID = uuid.NewString()
	rec.post.AuthorPhotoURL = ""
	s.posts[rec.post.ID] = rec

	out := rec.post
	return &out, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post with id %s: %w", id, storage.ErrNotFound)
	}
	out := rec.post
	return &out, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, patch storage.PostPatch) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post with id %s: %w", id, storage.ErrNotFound)
	}
	if patch.Text != nil {
		rec.post.Text = *patch.Text
	}
	if patch.PhotoURL != nil {
		rec.post.PhotoURL = *patch.PhotoURL
	}
	out := rec.post
	return &out, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fmt.Errorf("post with id %s: %w", id, storage.ErrNotFound)
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) QueryPosts(ctx context.Context, q storage.PostQuery) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*postRecord, 0, len(s.posts))
	for _, rec := range s.posts {
		if q.AuthorID != "" && rec.post.AuthorID != q.AuthorID {
			continue
		}
		matched = append(matched, rec)
	}

	// Сортируем по createdAt по убыванию, при равенстве - последний вставленный первым
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].post.CreatedAt != matched[j].post.CreatedAt {
			return matched[i].post.CreatedAt > matched[j].post.CreatedAt
		}
		return matched[i].seq > matched[j].seq
	})

	limit := storage.NormalizeLimit(q.Limit)
	if len(matched) > limit {
		matched = matched[:limit]
	}

	result := make([]*domain.Post, len(matched))
	for i, rec := range matched {
		p := rec.post
		result[i] = &p
	}
	return result, nil
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var email string
	if user.Email != nil {
		email = strings.ToLower(*user.Email)
		if _, ok := s.usersEmail[email]; ok {
			return nil, fmt.Errorf("user with email %s: %w", email, storage.ErrDuplicate)
		}
	}
	if user.GitHubID != nil {
		if _, ok := s.usersGitHub[*user.GitHubID]; ok {
			return nil, fmt.Errorf("user with github id %d: %w", *user.GitHubID, storage.ErrDuplicate)
		}
	}

	u := *user
	u.ID = uuid.NewString()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Email != nil {
		e := email
		u.Email = &e
		s.usersEmail[email] = u.ID
	}
	if u.GitHubID != nil {
		s.usersGitHub[*u.GitHubID] = u.ID
	}
	s.users[u.ID] = &u

	out := u
	return &out, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("user with email %s: %w", email, storage.ErrNotFound)
	}
	return s.userLocked(id)
}

func (s *Store) GetUserByGitHubID(ctx context.Context, githubID int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersGitHub[githubID]
	if !ok {
		return nil, fmt.Errorf("user with github id %d: %w", githubID, storage.ErrNotFound)
	}
	return s.userLocked(id)
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch storage.UserPatch) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %s: %w", id, storage.ErrNotFound)
	}
	if patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	if patch.PhotoURL != nil {
		u.PhotoURL = *patch.PhotoURL
	}
	out := *u
	return &out, nil
}

// === Dataloader Methods ===

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out := *u
			results[id] = &out
		}
	}
	return results, nil
}

func (s *Store) userLocked(id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %s: %w", id, storage.ErrNotFound)
	}
	out := *u
	return &out, nil
}
