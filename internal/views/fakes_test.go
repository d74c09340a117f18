package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/UkralStul/x-clone-service/internal/blob"
	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/service"
	"github.com/UkralStul/x-clone-service/internal/storage"
)

var errBackend = errors.New("backend unavailable")

// fakeBackend - платформа в памяти, считающая сетевые вызовы.
type fakeBackend struct {
	mu      sync.Mutex
	calls   map[string]int
	fail    map[string]error
	posts   map[string]*domain.Post
	blobs   map[string][]byte
	users   map[string]*domain.User
	current *domain.User
	nextID  int
	queries []storage.PostQuery
	streams []*fakeStream
	patches []storage.PostPatch

	// insertGate, если задан, задерживает InsertPost до закрытия канала.
	insertGate    chan struct{}
	insertStarted chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls: make(map[string]int),
		fail:  make(map[string]error),
		posts: make(map[string]*domain.Post),
		blobs: make(map[string][]byte),
		users: make(map[string]*domain.User),
	}
}

func (b *fakeBackend) call(name string) error {
	b.calls[name]++
	return b.fail[name]
}

func (b *fakeBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *fakeBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

func (b *fakeBackend) failOn(name string, err error) {
	b.mu.Lock()
	b.fail[name] = err
	b.mu.Unlock()
}

// === Identity ===

func (b *fakeBackend) addUser(user *domain.User) {
	b.mu.Lock()
	b.users[user.ID] = user
	b.mu.Unlock()
}

func (b *fakeBackend) SignUp(ctx context.Context, email, password, displayName string) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("SignUp"); err != nil {
		return nil, err
	}
	b.nextID++
	user := &domain.User{ID: fmt.Sprintf("u%d", b.nextID), Email: &email, DisplayName: displayName}
	b.users[user.ID] = user
	b.current = user
	return user, nil
}

func (b *fakeBackend) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("SignIn"); err != nil {
		return nil, err
	}
	for _, u := range b.users {
		if u.Email != nil && *u.Email == email && password == "secret1" {
			b.current = u
			return u, nil
		}
	}
	return nil, domain.NewAuthError(domain.AuthInvalidCredential)
}

func (b *fakeBackend) GitHubAuthURL() string { return "https://github.example/authorize" }

func (b *fakeBackend) CompleteGitHub(ctx context.Context, state, code string) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("CompleteGitHub"); err != nil {
		return nil, err
	}
	user := &domain.User{ID: "gh-user", DisplayName: "octocat"}
	b.users[user.ID] = user
	b.current = user
	return user, nil
}

func (b *fakeBackend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
	return b.call("SignOut")
}

func (b *fakeBackend) UpdateProfile(ctx context.Context, displayName, photoURL *string) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("UpdateProfile"); err != nil {
		return nil, err
	}
	if b.current == nil {
		return nil, service.ErrUnauthenticated
	}
	updated := *b.current
	if displayName != nil {
		updated.DisplayName = *displayName
	}
	if photoURL != nil {
		updated.PhotoURL = *photoURL
	}
	b.current = &updated
	b.users[updated.ID] = &updated
	return &updated, nil
}

// === Documents ===

func (b *fakeBackend) InsertPost(ctx context.Context, in service.NewPost) (*domain.Post, error) {
	b.mu.Lock()
	gate, started := b.insertGate, b.insertStarted
	b.mu.Unlock()
	if gate != nil {
		started <- struct{}{}
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("InsertPost"); err != nil {
		return nil, err
	}
	if b.current == nil {
		return nil, service.ErrUnauthenticated
	}
	b.nextID++
	post := &domain.Post{
		ID:                fmt.Sprintf("p%d", b.nextID),
		Text:              in.Text,
		AuthorID:          b.current.ID,
		AuthorDisplayName: in.AuthorDisplayName,
		CreatedAt:         in.CreatedAt,
	}
	b.posts[post.ID] = post
	out := *post
	return &out, nil
}

func (b *fakeBackend) UpdatePost(ctx context.Context, id string, patch storage.PostPatch) (*domain.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("UpdatePost"); err != nil {
		return nil, err
	}
	b.patches = append(b.patches, patch)
	post, ok := b.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if patch.Text != nil {
		post.Text = *patch.Text
	}
	if patch.PhotoURL != nil {
		post.PhotoURL = *patch.PhotoURL
	}
	out := *post
	return &out, nil
}

func (b *fakeBackend) DeletePost(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("DeletePost"); err != nil {
		return err
	}
	if _, ok := b.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(b.posts, id)
	return nil
}

func (b *fakeBackend) QueryPosts(ctx context.Context, q storage.PostQuery) ([]*domain.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("QueryPosts"); err != nil {
		return nil, err
	}
	b.queries = append(b.queries, q)
	var out []*domain.Post
	for _, p := range b.posts {
		if q.AuthorID != "" && p.AuthorID != q.AuthorID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (b *fakeBackend) Subscribe(ctx context.Context, q storage.PostQuery) (Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("Subscribe"); err != nil {
		return nil, err
	}
	b.queries = append(b.queries, q)
	s := &fakeStream{ch: make(chan []*domain.Post, 1)}
	b.streams = append(b.streams, s)
	return s, nil
}

func (b *fakeBackend) stream(i int) *fakeStream {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streams[i]
}

// === Blobs ===

func (b *fakeBackend) Upload(ctx context.Context, path string, data []byte) (blob.Ref, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("Upload"); err != nil {
		return blob.Ref{}, err
	}
	b.blobs[path] = append([]byte(nil), data...)
	return blob.Ref{Path: path}, nil
}

func (b *fakeBackend) DownloadURL(ctx context.Context, ref blob.Ref) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("DownloadURL"); err != nil {
		return "", err
	}
	if _, ok := b.blobs[ref.Path]; !ok {
		return "", blob.ErrNotFound
	}
	return "https://files.example/" + ref.Path, nil
}

func (b *fakeBackend) DeleteBlob(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("DeleteBlob"); err != nil {
		return err
	}
	if _, ok := b.blobs[path]; !ok {
		return fmt.Errorf("%s: %w", path, blob.ErrNotFound)
	}
	delete(b.blobs, path)
	return nil
}

// fakeStream - живая выборка с ручной доставкой снимков.
type fakeStream struct {
	mu        sync.Mutex
	ch        chan []*domain.Post
	cancelled bool
	err       error
}

func (s *fakeStream) C() <-chan []*domain.Post { return s.ch }

func (s *fakeStream) push(posts ...*domain.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- posts
}

func (s *fakeStream) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	s.cancelled = true
	close(s.ch)
}

// drop закрывает поток со стороны сервера, как при обрыве соединения.
func (s *fakeStream) drop(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}
	s.cancelled = true
	s.err = err
	close(s.ch)
}

func (s *fakeStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *fakeStream) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// recorder собирает alert-сообщения и отвечает на confirm.
type recorder struct {
	mu      sync.Mutex
	alerts  []string
	answer  bool
	prompts []string
}

func (r *recorder) Alert(msg string) {
	r.mu.Lock()
	r.alerts = append(r.alerts, msg)
	r.mu.Unlock()
}

func (r *recorder) Confirm(msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, msg)
	return r.answer
}

// newTestDeps собирает зависимости с вошедшим пользователем alice.
func newTestDeps() (Deps, *fakeBackend, *recorder) {
	backend := newFakeBackend()
	alice := &domain.User{ID: "alice", DisplayName: "Alice"}
	backend.addUser(alice)
	backend.current = alice

	rec := &recorder{answer: true}
	session := NewSession(backend, nil)
	session.Set(alice)

	return Deps{
		Session:   session,
		Identity:  backend,
		Documents: backend,
		Blobs:     backend,
		Subscribe: backend.Subscribe,
		Alerter:   rec,
		Confirmer: rec,
	}, backend, rec
}

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
