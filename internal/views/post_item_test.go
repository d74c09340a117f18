package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/UkralStul/x-clone-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedPost кладет пост alice в бэкенд, при необходимости с фото.
func seedPost(b *fakeBackend, withPhoto bool) *domain.Post {
	post := &domain.Post{ID: "p-seed", Text: "original", AuthorID: "alice", AuthorDisplayName: "Alice", CreatedAt: 100}
	if withPhoto {
		path := domain.PostPhotoPath("alice", post.ID)
		b.blobs[path] = pngData
		post.PhotoURL = "https://files.example/" + path
	}
	b.posts[post.ID] = post
	cp := *post
	return &cp
}

func TestPostItem_ControlsOnlyForAuthor(t *testing.T) {
	d, backend, _ := newTestDeps()
	item := NewPostItem(d, seedPost(backend, false))
	assert.NotNil(t, item.Controls())

	d.Session.Set(&domain.User{ID: "bob"})
	assert.Nil(t, item.Controls())

	d.Session.Clear()
	assert.Nil(t, item.Controls())
}

func TestPostItem_EditTextKeepsPhoto(t *testing.T) {
	d, backend, _ := newTestDeps()
	post := seedPost(backend, true)
	item := NewPostItem(d, post)

	controls := item.Controls()
	require.NotNil(t, controls)
	controls.Edit()
	assert.Equal(t, ModeEdit, item.Mode())
	assert.Equal(t, "original", item.Draft())

	controls.SetDraft("edited")
	controls.Save(context.Background())

	assert.Equal(t, ModeView, item.Mode())
	assert.Equal(t, "edited", item.Post().Text)
	assert.Equal(t, post.PhotoURL, item.Post().PhotoURL)
	assert.Equal(t, 1, backend.count("UpdatePost"))
	require.Len(t, backend.patches, 1)
	assert.Nil(t, backend.patches[0].PhotoURL)
	assert.Zero(t, backend.count("Upload"))
}

func TestPostItem_SaveWithStagedImage(t *testing.T) {
	d, backend, _ := newTestDeps()
	item := NewPostItem(d, seedPost(backend, false))
	controls := item.Controls()

	controls.Edit()
	controls.StageImage(&File{Name: "new.png", Data: pngData})
	assert.True(t, strings.HasPrefix(item.PhotoURL(), "data:image/png;base64,"))

	controls.Save(context.Background())

	path := domain.PostPhotoPath("alice", "p-seed")
	assert.Equal(t, ModeView, item.Mode())
	assert.Equal(t, "https://files.example/"+path, item.Post().PhotoURL)
	assert.Equal(t, item.Post().PhotoURL, item.PhotoURL())
	assert.Nil(t, item.Staged())
	// Отсутствие прежнего объекта не ошибка
	assert.Equal(t, 1, backend.count("DeleteBlob"))
	assert.Equal(t, 1, backend.count("Upload"))
	assert.Equal(t, 2, backend.count("UpdatePost"))
}

func TestPostItem_ReplaceExistingImage(t *testing.T) {
	d, backend, _ := newTestDeps()
	item := NewPostItem(d, seedPost(backend, true))
	controls := item.Controls()

	controls.Edit()
	replacement := append(append([]byte{}, pngData...), 0x42)
	controls.StageImage(&File{Name: "new.png", Data: replacement})
	controls.Save(context.Background())

	assert.Equal(t, ModeView, item.Mode())
	assert.Len(t, backend.blobs, 1)
	assert.Equal(t, replacement, backend.blobs[domain.PostPhotoPath("alice", "p-seed")])
}

func TestPostItem_SaveErrorStaysInEdit(t *testing.T) {
	d, backend, _ := newTestDeps()
	backend.failOn("Upload", errBackend)
	item := NewPostItem(d, seedPost(backend, false))
	controls := item.Controls()

	controls.Edit()
	controls.SetDraft("changed")
	staged := &File{Name: "new.png", Data: pngData}
	controls.StageImage(staged)
	controls.Save(context.Background())

	assert.Equal(t, ModeEdit, item.Mode())
	assert.Same(t, staged, item.Staged())
	// Текст уже обновлен, откат не выполняется
	assert.Equal(t, "changed", backend.posts["p-seed"].Text)
}

func TestPostItem_InvalidDraftMakesNoCalls(t *testing.T) {
	d, backend, _ := newTestDeps()
	item := NewPostItem(d, seedPost(backend, false))
	controls := item.Controls()

	controls.Edit()
	controls.SetDraft("")
	controls.Save(context.Background())

	assert.Zero(t, backend.total())
	assert.Equal(t, ModeEdit, item.Mode())
}

func TestPostItem_StageImageTooLarge(t *testing.T) {
	d, backend, rec := newTestDeps()
	item := NewPostItem(d, seedPost(backend, false))
	controls := item.Controls()

	controls.Edit()
	controls.StageImage(&File{Name: "huge.png", Data: bytes.Repeat([]byte{1}, domain.MaxPhotoBytes+1)})

	assert.Nil(t, item.Staged())
	assert.Equal(t, []string{MsgFileTooLarge}, rec.alerts)
}

func TestPostItem_GuardRecheckedOnAction(t *testing.T) {
	d, backend, rec := newTestDeps()
	item := NewPostItem(d, seedPost(backend, false))
	controls := item.Controls()
	controls.Edit()

	d.Session.Set(&domain.User{ID: "bob"})
	controls.SetDraft("hijacked")
	controls.Save(context.Background())
	controls.Delete(context.Background())

	assert.Zero(t, backend.total())
	assert.Equal(t, "original", backend.posts["p-seed"].Text)
	assert.Len(t, rec.prompts, 1)
}

func TestPostItem_DeleteWithoutPhoto(t *testing.T) {
	d, backend, rec := newTestDeps()
	item := NewPostItem(d, seedPost(backend, false))

	item.Controls().Delete(context.Background())

	assert.Equal(t, []string{MsgConfirmDelete}, rec.prompts)
	assert.Equal(t, 1, backend.count("DeletePost"))
	assert.Equal(t, 0, backend.count("DeleteBlob"))
	assert.Empty(t, backend.posts)
	assert.True(t, item.Deleted())
}

func TestPostItem_DeleteWithPhoto(t *testing.T) {
	d, backend, _ := newTestDeps()
	item := NewPostItem(d, seedPost(backend, true))

	item.Controls().Delete(context.Background())

	assert.Equal(t, 1, backend.count("DeletePost"))
	assert.Equal(t, 1, backend.count("DeleteBlob"))
	assert.Empty(t, backend.blobs)
}

func TestPostItem_DeleteDeclined(t *testing.T) {
	d, backend, rec := newTestDeps()
	rec.answer = false
	item := NewPostItem(d, seedPost(backend, true))

	item.Controls().Delete(context.Background())

	assert.Zero(t, backend.total())
	assert.False(t, item.Deleted())
}

func TestPostItem_DeleteOrphansBlobOnFailure(t *testing.T) {
	d, backend, _ := newTestDeps()
	backend.failOn("DeleteBlob", errBackend)
	item := NewPostItem(d, seedPost(backend, true))

	item.Controls().Delete(context.Background())

	assert.Empty(t, backend.posts)
	assert.Len(t, backend.blobs, 1)
	assert.True(t, item.Deleted())
}
