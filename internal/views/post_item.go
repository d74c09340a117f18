package views

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"

	"github.com/UkralStul/x-clone-service/internal/blob"
	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/storage"
)

// Mode - режим отображения поста.
type Mode int

const (
	ModeView Mode = iota
	ModeEdit
)

// PostItem - один пост в ленте или профиле.
type PostItem struct {
	d Deps

	mu      sync.Mutex
	post    domain.Post
	mode    Mode
	draft   string
	staged  *File
	preview string
	deleted bool
}

func NewPostItem(d Deps, post *domain.Post) *PostItem {
	return &PostItem{d: d, post: *post}
}

// Post возвращает копию отображаемого поста.
func (p *PostItem) Post() domain.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.post
}

func (p *PostItem) Mode() Mode { p.mu.Lock(); defer p.mu.Unlock(); return p.mode }
func (p *PostItem) Draft() string { p.mu.Lock(); defer p.mu.Unlock(); return p.draft }
func (p *PostItem) Staged() *File { p.mu.Lock(); defer p.mu.Unlock(); return p.staged }
func (p *PostItem) Deleted() bool { p.mu.Lock(); defer p.mu.Unlock(); return p.deleted }

// PhotoURL - что показывать в области изображения: превью выбранного
// файла, иначе фото поста. Пусто - области изображения нет.
func (p *PostItem) PhotoURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.preview != "" {
		return p.preview
	}
	return p.post.PhotoURL
}

// update подменяет данные поста новым снимком, сохраняя режим редактирования.
func (p *PostItem) update(post *domain.Post) {
	p.mu.Lock()
	p.post = *post
	p.mu.Unlock()
}

// Controls возвращает кнопки управления. Для всех, кроме автора, nil.
func (p *PostItem) Controls() *Controls {
	if !p.ownedByCurrent() {
		return nil
	}
	return &Controls{item: p}
}

func (p *PostItem) ownedByCurrent() bool {
	user := p.d.Session.Current()
	p.mu.Lock()
	defer p.mu.Unlock()
	return user != nil && user.ID == p.post.AuthorID
}

// Controls - действия автора над постом. Каждое действие повторно
// проверяет, что текущий пользователь - автор.
type Controls struct {
	item *PostItem
}

// Edit переводит пост в режим редактирования. Черновик - текущий текст.
func (c *Controls) Edit() {
	p := c.item
	if !p.ownedByCurrent() {
		return
	}
	p.mu.Lock()
	if p.mode == ModeView {
		p.mode = ModeEdit
		p.draft = p.post.Text
	}
	p.mu.Unlock()
}

func (c *Controls) SetDraft(text string) {
	p := c.item
	p.mu.Lock()
	p.draft = text
	p.mu.Unlock()
}

// StageImage выбирает новое изображение и готовит превью (data: URL).
// Загрузка происходит только в Save.
func (c *Controls) StageImage(f *File) {
	p := c.item
	if f == nil || !p.ownedByCurrent() {
		return
	}
	if f.Size() > domain.MaxPhotoBytes {
		p.d.alert(MsgFileTooLarge)
		return
	}
	preview := "data:" + http.DetectContentType(f.Data) + ";base64," + base64.StdEncoding.EncodeToString(f.Data)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode != ModeEdit {
		return
	}
	p.staged = f
	p.preview = preview
}

// Save сохраняет текст и, если выбрано, новое изображение по каноническому
// пути поста. В режим просмотра переходит только после всех обновлений;
// при ошибке остается в режиме редактирования с выбранным файлом.
func (c *Controls) Save(ctx context.Context) {
	p := c.item
	if !p.ownedByCurrent() {
		return
	}
	p.mu.Lock()
	if p.mode != ModeEdit || !domain.ValidText(p.draft) {
		p.mu.Unlock()
		return
	}
	id, author, text, staged := p.post.ID, p.post.AuthorID, p.draft, p.staged
	p.mu.Unlock()

	updated, err := p.d.Documents.UpdatePost(ctx, id, storage.PostPatch{Text: &text})
	if err != nil {
		p.d.logger().Error("update post text", "post", id, "err", err)
		return
	}
	p.update(updated)

	if staged != nil {
		path := domain.PostPhotoPath(author, id)
		if err := p.d.Blobs.DeleteBlob(ctx, path); err != nil && !errors.Is(err, blob.ErrNotFound) {
			p.d.logger().Error("delete old post photo", "post", id, "err", err)
			return
		}
		ref, err := p.d.Blobs.Upload(ctx, path, staged.Data)
		if err != nil {
			p.d.logger().Error("upload post photo", "post", id, "err", err)
			return
		}
		url, err := p.d.Blobs.DownloadURL(ctx, ref)
		if err != nil {
			p.d.logger().Error("post photo url", "post", id, "err", err)
			return
		}
		updated, err = p.d.Documents.UpdatePost(ctx, id, storage.PostPatch{PhotoURL: &url})
		if err != nil {
			p.d.logger().Error("update post photo", "post", id, "err", err)
			return
		}
		p.update(updated)
	}

	p.mu.Lock()
	p.mode = ModeView
	p.staged = nil
	p.preview = ""
	p.mu.Unlock()
}

// Delete после подтверждения удаляет пост, затем его изображение.
// Удаления независимы: если второе не удалось, объект остается сиротой.
func (c *Controls) Delete(ctx context.Context) {
	p := c.item
	if !p.d.confirm(MsgConfirmDelete) || !p.ownedByCurrent() {
		return
	}
	post := p.Post()

	if err := p.d.Documents.DeletePost(ctx, post.ID); err != nil {
		p.d.logger().Error("delete post", "post", post.ID, "err", err)
		return
	}
	p.mu.Lock()
	p.deleted = true
	p.mu.Unlock()

	if post.HasPhoto() {
		if err := p.d.Blobs.DeleteBlob(ctx, domain.PostPhotoPath(post.AuthorID, post.ID)); err != nil {
			p.d.logger().Error("delete post photo", "post", post.ID, "err", err)
		}
	}
}
