package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/UkralStul/x-clone-service/internal/blob"
	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/metrics"
)

// Blobs применяет правила хранилища объектов: писать и удалять можно
// только под своим uid, только изображения не больше 1 MiB.
type Blobs struct {
	store blob.Store
}

func NewBlobs(store blob.Store) *Blobs {
	return &Blobs{store: store}
}

// Upload сохраняет объект и возвращает ссылку вместе с адресом скачивания.
func (s *Blobs) Upload(ctx context.Context, actor *domain.User, path string, data []byte) (blob.Ref, string, error) {
	if err := s.authorize(actor, path); err != nil {
		return blob.Ref{}, "", err
	}
	if len(data) > domain.MaxPhotoBytes {
		return blob.Ref{}, "", ErrTooLarge
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return blob.Ref{}, "", ErrNotImage
	}

	ref, err := s.store.Upload(ctx, path, data, contentType)
	if err != nil {
		return blob.Ref{}, "", err
	}
	metrics.BlobOperation("upload")

	url, err := s.store.DownloadURL(ctx, ref)
	if err != nil {
		return blob.Ref{}, "", err
	}
	return ref, url, nil
}

// URL возвращает публичный адрес объекта.
func (s *Blobs) URL(ctx context.Context, path string) (string, error) {
	if _, err := domain.PathOwner(path); err != nil {
		return "", err
	}
	return s.store.DownloadURL(ctx, blob.Ref{Path: path})
}

// Delete удаляет объект владельца.
func (s *Blobs) Delete(ctx context.Context, actor *domain.User, path string) error {
	if err := s.authorize(actor, path); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, path); err != nil {
		return err
	}
	metrics.BlobOperation("delete")
	return nil
}

func (s *Blobs) authorize(actor *domain.User, path string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	owner, err := domain.PathOwner(path)
	if err != nil {
		return err
	}
	if owner != actor.ID {
		return fmt.Errorf("path %s: %w", path, ErrForbidden)
	}
	return nil
}
