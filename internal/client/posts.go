package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/UkralStul/x-clone-service/api"
	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/service"
	"github.com/UkralStul/x-clone-service/internal/storage"
)

// InsertPost добавляет пост и возвращает его с присвоенным id.
func (c *Client) InsertPost(ctx context.Context, in service.NewPost) (*domain.Post, error) {
	var post domain.Post
	if err := c.do(ctx, http.MethodPost, "/posts", in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost применяет частичное обновление.
func (c *Client) UpdatePost(ctx context.Context, id string, patch storage.PostPatch) (*domain.Post, error) {
	var post domain.Post
	req := api.PostPatchRequest{Text: patch.Text, PhotoURL: patch.PhotoURL}
	if err := c.do(ctx, http.MethodPatch, "/posts/"+url.PathEscape(id), req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil)
}

// QueryPosts - разовая выборка по убыванию createdAt.
func (c *Client) QueryPosts(ctx context.Context, q storage.PostQuery) ([]*domain.Post, error) {
	var posts []*domain.Post
	path := "/posts"
	if encoded := postQuery(q).Encode(); encoded != "" {
		path += "?" + encoded
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// SubscribePosts открывает живую выборку. Первый снимок приходит сразу.
func (c *Client) SubscribePosts(ctx context.Context, q storage.PostQuery) (*Stream, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.wsURL("/posts/live", postQuery(q)), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return newStream(ctx, conn), nil
}

func postQuery(q storage.PostQuery) url.Values {
	values := url.Values{}
	if q.AuthorID != "" {
		values.Set("authorId", q.AuthorID)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	return values
}
