package views

import (
	"context"
	"strings"
	"sync"

	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/storage"
)

// Profile - страница текущего пользователя: имя, аватар и его посты.
type Profile struct {
	d Deps

	mu       sync.Mutex
	posts    []*PostItem
	editing  bool
	nameEdit string
}

func NewProfile(d Deps) *Profile {
	return &Profile{d: d}
}

// Mount один раз загружает 25 последних постов пользователя.
// Новые посты появятся только после повторного Mount.
func (p *Profile) Mount(ctx context.Context) {
	user := p.d.Session.Current()
	if user == nil {
		return
	}
	posts, err := p.d.Documents.QueryPosts(ctx, storage.PostQuery{AuthorID: user.ID, Limit: domain.FeedLimit})
	if err != nil {
		p.d.logger().Error("query profile posts", "uid", user.ID, "err", err)
		return
	}
	items := make([]*PostItem, len(posts))
	for i, post := range posts {
		items[i] = NewPostItem(p.d, post)
	}
	p.mu.Lock()
	p.posts = items
	p.mu.Unlock()
}

func (p *Profile) Items() []*PostItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*PostItem(nil), p.posts...)
}

// DisplayName - имя пользователя или "익명".
func (p *Profile) DisplayName() string {
	user := p.d.Session.Current()
	if user == nil || user.DisplayName == "" {
		return ProfileAnonymous
	}
	return user.DisplayName
}

// AvatarURL - адрес аватара; пусто, если аватара нет.
func (p *Profile) AvatarURL() string {
	if user := p.d.Session.Current(); user != nil {
		return user.PhotoURL
	}
	return ""
}

func (p *Profile) Editing() bool { p.mu.Lock(); defer p.mu.Unlock(); return p.editing }
func (p *Profile) NameDraft() string { p.mu.Lock(); defer p.mu.Unlock(); return p.nameEdit }

func (p *Profile) StartEdit() {
	p.mu.Lock()
	p.editing = true
	p.mu.Unlock()
}

func (p *Profile) SetName(name string) {
	p.mu.Lock()
	p.nameEdit = name
	p.mu.Unlock()
}

// SaveName переименовывает пользователя. При ошибке режим правки остается.
func (p *Profile) SaveName(ctx context.Context) {
	user := p.d.Session.Current()
	p.mu.Lock()
	name := strings.TrimSpace(p.nameEdit)
	if user == nil || !p.editing || name == "" {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	updated, err := p.d.Identity.UpdateProfile(ctx, &name, nil)
	if err != nil {
		p.d.logger().Error("rename user", "uid", user.ID, "err", err)
		return
	}
	p.d.Session.Set(updated)

	p.mu.Lock()
	p.editing = false
	p.nameEdit = ""
	p.mu.Unlock()
}

// ChangeAvatar загружает аватар в avatars/{uid}, перезаписывая прежний,
// и сохраняет его адрес в профиле.
func (p *Profile) ChangeAvatar(ctx context.Context, f *File) {
	user := p.d.Session.Current()
	if user == nil || f == nil {
		return
	}
	if f.Size() > domain.MaxPhotoBytes {
		p.d.alert(MsgFileTooLarge)
		return
	}

	ref, err := p.d.Blobs.Upload(ctx, domain.AvatarPath(user.ID), f.Data)
	if err != nil {
		p.d.logger().Error("upload avatar", "uid", user.ID, "err", err)
		return
	}
	url, err := p.d.Blobs.DownloadURL(ctx, ref)
	if err != nil {
		p.d.logger().Error("avatar url", "uid", user.ID, "err", err)
		return
	}
	updated, err := p.d.Identity.UpdateProfile(ctx, nil, &url)
	if err != nil {
		p.d.logger().Error("update avatar", "uid", user.ID, "err", err)
		return
	}
	p.d.Session.Set(updated)
}
