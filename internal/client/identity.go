package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/UkralStul/x-clone-service/api"
	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/identity"
)

// SignUp создает учетную запись и сразу открывает сессию.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*domain.User, error) {
	return c.session(ctx, "/auth/sign-up", api.SignUpRequest{Email: email, Password: password, DisplayName: displayName})
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	return c.session(ctx, "/auth/sign-in", api.SignInRequest{Email: email, Password: password})
}

// GitHubAuthURL - адрес, с которого начинается вход через GitHub.
func (c *Client) GitHubAuthURL() string {
	return c.baseURL + apiPrefix + "/auth/github"
}

// CompleteGitHub завершает вход через GitHub по параметрам обратного вызова.
func (c *Client) CompleteGitHub(ctx context.Context, state, code string) (*domain.User, error) {
	q := url.Values{"state": {state}, "code": {code}}
	var session identity.Session
	if err := c.do(ctx, http.MethodGet, "/auth/github/callback?"+q.Encode(), nil, &session); err != nil {
		return nil, err
	}
	c.setToken(session.Token)
	return session.User, nil
}

// SignOut отзывает токен на сервере и забывает его локально.
func (c *Client) SignOut(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/auth/sign-out", nil, nil)
	c.setToken("")
	return err
}

// CurrentUser читает пользователя текущей сессии.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile меняет отображаемое имя и/или адрес аватара; nil-поля не меняются.
func (c *Client) UpdateProfile(ctx context.Context, displayName, photoURL *string) (*domain.User, error) {
	var user domain.User
	req := api.ProfileRequest{DisplayName: displayName, PhotoURL: photoURL}
	if err := c.do(ctx, http.MethodPatch, "/auth/me", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) session(ctx context.Context, path string, body interface{}) (*domain.User, error) {
	var session identity.Session
	if err := c.do(ctx, http.MethodPost, path, body, &session); err != nil {
		return nil, err
	}
	c.setToken(session.Token)
	return session.User, nil
}
