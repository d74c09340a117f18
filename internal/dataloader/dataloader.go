package dataloader

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	UsersByID *dataloader.Loader
}

// NewLoaders создает набор лоадеров поверх хранилища.
func NewLoaders(store storage.Storage) *Loaders {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := keys.Keys()

		// Один запрос к хранилищу на весь батч
		users, err := store.GetUsersByIDs(ctx, ids)
		results := make([]*dataloader.Result, len(keys))
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// Результат в том же порядке, что и ключи
		for i, id := range ids {
			results[i] = &dataloader.Result{Data: users[id]}
		}
		return results
	}

	return &Loaders{
		UsersByID: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond*1)),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithLoaders(r.Context(), NewLoaders(store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithLoaders помещает лоадеры в контекст.
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, key, loaders)
}

// For извлекает лоадеры из контекста.
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(key).(*Loaders)
	return loaders
}

// Reset сбрасывает кеш лоадеров. Нужен долгоживущим соединениям,
// чтобы каждый снимок видел актуальные аватары.
func (l *Loaders) Reset() {
	l.UsersByID.ClearAll()
}

// EnrichAuthors заполняет AuthorPhotoURL у постов одним батчем.
// Посты изменяются на месте.
func (l *Loaders) EnrichAuthors(ctx context.Context, posts []*domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		ids = append(ids, p.AuthorID)
	}

	values, errs := l.UsersByID.LoadMany(ctx, dataloader.NewKeysFromStrings(ids))()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	photos := make(map[string]string, len(ids))
	for i, v := range values {
		if user, ok := v.(*domain.User); ok && user != nil {
			photos[ids[i]] = user.PhotoURL
		}
	}
	for _, p := range posts {
		p.AuthorPhotoURL = photos[p.AuthorID]
	}
	return nil
}
