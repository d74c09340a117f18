package views

import (
	"context"
	"testing"

	"github.com/UkralStul/x-clone-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_MountQueriesOwnPostsOnce(t *testing.T) {
	d, backend, _ := newTestDeps()
	seedPost(backend, false)
	backend.posts["other"] = &domain.Post{ID: "other", AuthorID: "bob", CreatedAt: 5}
	p := NewProfile(d)

	p.Mount(context.Background())

	require.Len(t, backend.queries, 1)
	assert.Equal(t, "alice", backend.queries[0].AuthorID)
	assert.Equal(t, domain.FeedLimit, backend.queries[0].Limit)
	require.Len(t, p.Items(), 1)
	assert.Equal(t, "p-seed", p.Items()[0].Post().ID)

	// Новые посты не появляются без повторного Mount
	backend.posts["later"] = &domain.Post{ID: "later", AuthorID: "alice", CreatedAt: 500}
	assert.Len(t, p.Items(), 1)
	assert.Equal(t, 1, backend.count("QueryPosts"))
}

func TestProfile_DisplayNameFallback(t *testing.T) {
	d, _, _ := newTestDeps()
	p := NewProfile(d)
	assert.Equal(t, "Alice", p.DisplayName())
	assert.Empty(t, p.AvatarURL())

	d.Session.Set(&domain.User{ID: "alice"})
	assert.Equal(t, ProfileAnonymous, p.DisplayName())
}

func TestProfile_Rename(t *testing.T) {
	d, backend, _ := newTestDeps()
	p := NewProfile(d)

	// Без режима правки ничего не отправляется
	p.SetName("Ignored")
	p.SaveName(context.Background())
	assert.Zero(t, backend.total())

	p.StartEdit()
	p.SetName("  Alicia ")
	p.SaveName(context.Background())

	assert.False(t, p.Editing())
	assert.Equal(t, "Alicia", p.DisplayName())
	assert.Equal(t, "Alicia", d.Session.Current().DisplayName)
}

func TestProfile_RenameErrorKeepsEditing(t *testing.T) {
	d, backend, _ := newTestDeps()
	backend.failOn("UpdateProfile", errBackend)
	p := NewProfile(d)

	p.StartEdit()
	p.SetName("Alicia")
	p.SaveName(context.Background())

	assert.True(t, p.Editing())
	assert.Equal(t, "Alice", p.DisplayName())
}

func TestProfile_AvatarOverwrites(t *testing.T) {
	d, backend, _ := newTestDeps()
	p := NewProfile(d)

	p.ChangeAvatar(context.Background(), &File{Name: "a.png", Data: pngData})
	second := append(append([]byte{}, pngData...), 0x07)
	p.ChangeAvatar(context.Background(), &File{Name: "b.png", Data: second})

	path := domain.AvatarPath("alice")
	assert.Len(t, backend.blobs, 1)
	assert.Equal(t, second, backend.blobs[path])
	assert.Equal(t, "https://files.example/"+path, p.AvatarURL())
	assert.Equal(t, 2, backend.count("UpdateProfile"))
}
