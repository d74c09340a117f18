package blob

import (
	"context"
	"errors"
)

// ErrNotFound - объекта по указанному пути нет.
var ErrNotFound = errors.New("blob not found")

// Ref - ссылка на загруженный объект.
type Ref struct {
	Path string `json:"path"`
}

// Store - хранилище объектов с адресацией по пути. Загрузка по
// существующему пути перезаписывает объект.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (Ref, error)
	DownloadURL(ctx context.Context, ref Ref) (string, error)
	Delete(ctx context.Context, path string) error
}
