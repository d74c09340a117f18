package views

import (
	"context"
	"sync"

	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/service"
	"github.com/UkralStul/x-clone-service/internal/storage"
)

// Composer - форма нового поста. Запись идет в два шага: сначала пост,
// затем, если выбран файл, загрузка изображения и дозапись photoUrl.
// Шаги не атомарны: при сбое после вставки пост остается без фото.
type Composer struct {
	d Deps

	mu      sync.Mutex
	text    string
	file    *File
	loading bool
}

func NewComposer(d Deps) *Composer {
	return &Composer{d: d}
}

func (c *Composer) SetText(v string) { c.mu.Lock(); c.text = v; c.mu.Unlock() }

// SelectFile выбирает файл; nil снимает выбор.
func (c *Composer) SelectFile(f *File) { c.mu.Lock(); c.file = f; c.mu.Unlock() }

func (c *Composer) Text() string { c.mu.Lock(); defer c.mu.Unlock(); return c.text }
func (c *Composer) File() *File { c.mu.Lock(); defer c.mu.Unlock(); return c.file }
func (c *Composer) Loading() bool { c.mu.Lock(); defer c.mu.Unlock(); return c.loading }

// Submit публикует пост. Без сессии, во время загрузки и с недопустимым
// текстом ничего не делает. Ошибки сети пишутся в лог и не показываются.
func (c *Composer) Submit(ctx context.Context) {
	user := c.d.Session.Current()

	c.mu.Lock()
	if c.loading || user == nil || !domain.ValidText(c.text) {
		c.mu.Unlock()
		return
	}
	c.loading = true
	text, file := c.text, c.file
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	post, err := c.d.Documents.InsertPost(ctx, service.NewPost{
		Text:              text,
		CreatedAt:         domain.Millis(c.d.now()),
		AuthorDisplayName: user.NameOrAnonymous(),
	})
	if err != nil {
		c.d.logger().Error("insert post", "err", err)
		return
	}

	if file != nil {
		if file.Size() > domain.MaxPhotoBytes {
			c.d.alert(MsgFileTooLarge)
			c.SelectFile(nil)
			return
		}
		if err := c.attach(ctx, post, file); err != nil {
			c.d.logger().Error("attach post photo", "post", post.ID, "err", err)
			return
		}
	}

	c.mu.Lock()
	c.text = ""
	c.file = nil
	c.mu.Unlock()
}

func (c *Composer) attach(ctx context.Context, post *domain.Post, file *File) error {
	ref, err := c.d.Blobs.Upload(ctx, domain.PostPhotoPath(post.AuthorID, post.ID), file.Data)
	if err != nil {
		return err
	}
	url, err := c.d.Blobs.DownloadURL(ctx, ref)
	if err != nil {
		return err
	}
	_, err = c.d.Documents.UpdatePost(ctx, post.ID, storage.PostPatch{PhotoURL: &url})
	return err
}
