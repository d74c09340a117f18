package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/storage"
	"github.com/UkralStul/x-clone-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestPosts_InsertForcesAuthor(t *testing.T) {
	svc := NewPosts(inmemory.New())
	svc.now = func() time.Time { return time.UnixMilli(5000) }
	alice := &domain.User{ID: "alice", DisplayName: "Alice"}

	post, err := svc.Insert(context.Background(), alice, NewPost{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "alice", post.AuthorID)
	assert.Equal(t, "Alice", post.AuthorDisplayName)
	assert.Equal(t, int64(5000), post.CreatedAt)
	assert.False(t, post.HasPhoto())

	anon, err := svc.Insert(context.Background(), &domain.User{ID: "x"}, NewPost{Text: "hi", CreatedAt: 42})
	require.NoError(t, err)
	assert.Equal(t, domain.AnonymousName, anon.AuthorDisplayName)
	assert.Equal(t, int64(42), anon.CreatedAt)
}

func TestPosts_InsertValidation(t *testing.T) {
	svc := NewPosts(inmemory.New())
	ctx := context.Background()

	_, err := svc.Insert(ctx, nil, NewPost{Text: "hello"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	actor := &domain.User{ID: "u1"}
	_, err = svc.Insert(ctx, actor, NewPost{Text: ""})
	assert.ErrorIs(t, err, ErrInvalidText)

	_, err = svc.Insert(ctx, actor, NewPost{Text: strings.Repeat("a", domain.MaxTextLength+1)})
	assert.ErrorIs(t, err, ErrInvalidText)

	// 180 символов кириллицы - больше 180 байт, но допустимо
	_, err = svc.Insert(ctx, actor, NewPost{Text: strings.Repeat("я", domain.MaxTextLength)})
	assert.NoError(t, err)
}

func TestPosts_OwnershipGate(t *testing.T) {
	svc := NewPosts(inmemory.New())
	ctx := context.Background()
	alice := &domain.User{ID: "alice"}
	bob := &domain.User{ID: "bob"}

	post, err := svc.Insert(ctx, alice, NewPost{Text: "mine"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob, post.ID, storage.PostPatch{Text: strPtr("hacked")})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, bob, post.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, nil, post.ID), ErrUnauthenticated)

	updated, err := svc.Update(ctx, alice, post.ID, storage.PostPatch{Text: strPtr("edited"), PhotoURL: strPtr("http://x/p.png")})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
	assert.Equal(t, "http://x/p.png", updated.PhotoURL)
	assert.Equal(t, post.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, alice, post.ID, storage.PostPatch{Text: strPtr("")})
	assert.ErrorIs(t, err, ErrInvalidText)

	require.NoError(t, svc.Delete(ctx, alice, post.ID))
	_, err = svc.Get(ctx, post.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestPosts_QueryDefaultsLimit(t *testing.T) {
	svc := NewPosts(inmemory.New())
	ctx := context.Background()
	actor := &domain.User{ID: "u1"}

	for i := 1; i <= 30; i++ {
		_, err := svc.Insert(ctx, actor, NewPost{Text: "post", CreatedAt: int64(i)})
		require.NoError(t, err)
	}

	posts, err := svc.Query(ctx, storage.PostQuery{})
	require.NoError(t, err)
	require.Len(t, posts, domain.FeedLimit)
	assert.Equal(t, int64(30), posts[0].CreatedAt)
	assert.Equal(t, int64(6), posts[len(posts)-1].CreatedAt)
}
