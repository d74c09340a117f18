package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/UkralStul/x-clone-service/api"
	"github.com/UkralStul/x-clone-service/internal/blob"
)

// Upload кладет байты по пути; существующий объект перезаписывается.
func (c *Client) Upload(ctx context.Context, path string, data []byte) (blob.Ref, error) {
	var resp api.BlobResponse
	if err := c.do(ctx, http.MethodPut, "/blobs/"+escapePath(path), data, &resp); err != nil {
		return blob.Ref{}, err
	}
	return blob.Ref{Path: resp.Path}, nil
}

// DownloadURL возвращает публичный адрес объекта.
func (c *Client) DownloadURL(ctx context.Context, ref blob.Ref) (string, error) {
	var resp api.BlobResponse
	q := url.Values{"path": {ref.Path}}
	if err := c.do(ctx, http.MethodGet, "/blobs/url?"+q.Encode(), nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *Client) DeleteBlob(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, "/blobs/"+escapePath(path), nil, nil)
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
