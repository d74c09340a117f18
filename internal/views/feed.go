package views

import (
	"context"
	"slices"
	"sync"

	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/storage"
)

// Feed - живая лента последних постов.
type Feed struct {
	d Deps

	mu       sync.Mutex
	mounted  bool
	stream   Stream
	items    []*PostItem
	onChange func()
	wg       sync.WaitGroup
}

func NewFeed(d Deps) *Feed {
	return &Feed{d: d}
}

// OnChange задает обработчик, вызываемый после каждого примененного снимка.
func (f *Feed) OnChange(fn func()) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Mount открывает одну живую подписку на 25 последних постов.
// Повторный Mount без Unmount ничего не делает.
func (f *Feed) Mount(ctx context.Context) error {
	f.mu.Lock()
	if f.mounted {
		f.mu.Unlock()
		return nil
	}
	f.mounted = true
	f.mu.Unlock()

	stream, err := f.d.Subscribe(ctx, storage.PostQuery{Limit: domain.FeedLimit})
	if err != nil {
		f.mu.Lock()
		f.mounted = false
		f.mu.Unlock()
		f.d.logger().Error("subscribe feed", "err", err)
		return err
	}

	f.mu.Lock()
	if !f.mounted {
		// Unmount успел раньше
		f.mu.Unlock()
		stream.Cancel()
		return nil
	}
	f.stream = stream
	f.mu.Unlock()

	f.wg.Add(1)
	go f.consume(stream)
	return nil
}

func (f *Feed) consume(stream Stream) {
	defer f.wg.Done()
	for posts := range stream.C() {
		if !f.apply(posts) {
			return
		}
	}

	// Поток закрылся сам (обрыв соединения): лента снова доступна для Mount
	f.mu.Lock()
	dropped := f.mounted && f.stream == stream
	if dropped {
		f.mounted = false
		f.stream = nil
	}
	f.mu.Unlock()
	if !dropped {
		return
	}
	var err error
	if e, ok := stream.(interface{ Err() error }); ok {
		err = e.Err()
	}
	f.d.logger().Error("feed stream closed", "err", err)
}

// apply заменяет список целиком. После Unmount снимки не применяются.
func (f *Feed) apply(posts []*domain.Post) bool {
	sorted := slices.Clone(posts)
	slices.SortStableFunc(sorted, func(a, b *domain.Post) int {
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		}
		return 0
	})

	f.mu.Lock()
	if !f.mounted {
		f.mu.Unlock()
		return false
	}
	// Состояние редактирования сохраняется за постом по id
	existing := make(map[string]*PostItem, len(f.items))
	for _, item := range f.items {
		existing[item.Post().ID] = item
	}
	items := make([]*PostItem, 0, len(sorted))
	for _, post := range sorted {
		if item, ok := existing[post.ID]; ok {
			item.update(post)
			items = append(items, item)
			continue
		}
		items = append(items, NewPostItem(f.d, post))
	}
	f.items = items
	onChange := f.onChange
	f.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return true
}

// Unmount отменяет подписку. После возврата лента больше не меняется.
func (f *Feed) Unmount() {
	f.mu.Lock()
	if !f.mounted {
		f.mu.Unlock()
		return
	}
	f.mounted = false
	stream := f.stream
	f.stream = nil
	f.mu.Unlock()

	if stream != nil {
		stream.Cancel()
	}
	f.wg.Wait()
}

// Items возвращает посты в порядке отображения.
func (f *Feed) Items() []*PostItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

// Posts возвращает копии отображаемых постов.
func (f *Feed) Posts() []domain.Post {
	items := f.Items()
	posts := make([]domain.Post, len(items))
	for i, item := range items {
		posts[i] = item.Post()
	}
	return posts
}
