package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/UkralStul/x-clone-service/internal/blob"
)

// Store хранит объекты в каталоге файловой системы и раздает их по
// публичному адресу {publicURL}/files/{path}.
type Store struct {
	root      string
	publicURL string
}

// New создает каталог root при необходимости.
func New(root, publicURL string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &Store{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *Store) Upload(ctx context.Context, path string, data []byte, contentType string) (blob.Ref, error) {
	full, err := s.resolve(path)
	if err != nil {
		return blob.Ref{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return blob.Ref{}, fmt.Errorf("failed to create blob dir: %w", err)
	}

	// Пишем во временный файл и переименовываем, чтобы читатели не видели половину объекта
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return blob.Ref{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return blob.Ref{}, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return blob.Ref{}, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return blob.Ref{}, fmt.Errorf("failed to store blob: %w", err)
	}
	return blob.Ref{Path: path}, nil
}

// DownloadURL добавляет к адресу версию (время изменения), чтобы
// перезаписанный объект не отдавался из кеша браузера.
func (s *Store) DownloadURL(ctx context.Context, ref blob.Ref) (string, error) {
	full, err := s.resolve(ref.Path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", ref.Path, blob.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	v := strconv.FormatInt(info.ModTime().UnixNano(), 36)
	return s.publicURL + "/files/" + escapePath(ref.Path) + "?v=" + v, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, blob.ErrNotFound)
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Handler раздает объекты только для чтения; монтируется на /files/.
func (s *Store) Handler() http.Handler {
	files := http.StripPrefix("/files/", http.FileServer(http.Dir(s.root)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Листинг каталогов не отдаем
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func (s *Store) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if path == "" || clean == "/" || strings.Contains(path, "..") {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
