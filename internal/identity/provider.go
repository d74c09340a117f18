package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/UkralStul/x-clone-service/internal/cache"
	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	minPasswordLength = 6
	stateTTL          = 5 * time.Minute
	githubAPI         = "https://api.github.com"
)

// Session - результат успешного входа.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// GitHubConfig - параметры OAuth-приложения GitHub. Пустой ClientID отключает вход через GitHub.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Переопределения адресов (GitHub Enterprise, тесты).
	AuthURL  string
	TokenURL string
	APIURL   string
	// HTTPClient для запросов к GitHub; nil - http.DefaultClient.
	HTTPClient *http.Client
}

// Provider - провайдер идентификации: регистрация, вход, выход, профиль.
type Provider struct {
	store  storage.Storage
	tokens *Tokens
	cache  cache.Cache
	logger *slog.Logger
	now    func() time.Time

	oauth      *oauth2.Config
	githubAPI  string
	httpClient *http.Client
}

// NewProvider собирает провайдер. github может быть нулевым.
func NewProvider(store storage.Storage, tokens *Tokens, c cache.Cache, gh GitHubConfig, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{
		store:      store,
		tokens:     tokens,
		cache:      c,
		logger:     logger,
		now:        time.Now,
		githubAPI:  githubAPI,
		httpClient: gh.HTTPClient,
	}
	if p.httpClient == nil {
		p.httpClient = http.DefaultClient
	}
	if gh.ClientID != "" {
		endpoint := github.Endpoint
		if gh.AuthURL != "" {
			endpoint.AuthURL = gh.AuthURL
		}
		if gh.TokenURL != "" {
			endpoint.TokenURL = gh.TokenURL
		}
		endpoint.AuthStyle = oauth2.AuthStyleInParams
		p.oauth = &oauth2.Config{
			ClientID:     gh.ClientID,
			ClientSecret: gh.ClientSecret,
			RedirectURL:  gh.RedirectURL,
			Scopes:       []string{"read:user"},
			Endpoint:     endpoint,
		}
		if gh.APIURL != "" {
			p.githubAPI = strings.TrimRight(gh.APIURL, "/")
		}
	}
	return p
}

// SignUp создает учетную запись с email и паролем и сразу задает отображаемое имя.
func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.NewAuthError(domain.AuthMissingFields)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewAuthError(domain.AuthInvalidEmail)
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewAuthError(domain.AuthWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := p.store.CreateUser(ctx, &domain.User{
		Email:        &email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(displayName),
		CreatedAt:    p.now().UTC(),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, domain.NewAuthError(domain.AuthEmailInUse)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	p.logger.Info("user signed up", "uid", user.ID)
	return p.issue(user)
}

// SignIn проверяет email и пароль.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.NewAuthError(domain.AuthMissingFields)
	}
	user, err := p.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.NewAuthError(domain.AuthInvalidCredential)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.NewAuthError(domain.AuthInvalidCredential)
	}
	return p.issue(user)
}

// GitHubEnabled сообщает, настроен ли вход через GitHub.
func (p *Provider) GitHubEnabled() bool { return p.oauth != nil }

// GitHubAuthURL создает одноразовый state и возвращает адрес авторизации GitHub.
func (p *Provider) GitHubAuthURL(ctx context.Context) (string, error) {
	if p.oauth == nil {
		return "", domain.NewAuthError(domain.AuthOAuthFailed)
	}
	state := uuid.NewString()
	if err := p.cache.Set(stateKey(state), []byte("ok"), stateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return p.oauth.AuthCodeURL(state), nil
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// CompleteGitHub обменивает code на токен GitHub, находит или создает пользователя
// и открывает сессию.
func (p *Provider) CompleteGitHub(ctx context.Context, state, code string) (*Session, error) {
	if p.oauth == nil {
		return nil, domain.NewAuthError(domain.AuthOAuthFailed)
	}
	if state == "" || code == "" {
		return nil, domain.NewAuthError(domain.AuthInvalidState)
	}
	if _, err := p.cache.Get(stateKey(state)); err != nil {
		return nil, domain.NewAuthError(domain.AuthInvalidState)
	}
	// state одноразовый
	if err := p.cache.Delete(stateKey(state)); err != nil {
		p.logger.Warn("delete oauth state", "err", err)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		p.logger.Error("github code exchange", "err", err)
		return nil, domain.NewAuthError(domain.AuthOAuthFailed)
	}
	gh, err := p.fetchGitHubUser(ctx, tok)
	if err != nil {
		p.logger.Error("github user fetch", "err", err)
		return nil, domain.NewAuthError(domain.AuthOAuthFailed)
	}

	user, err := p.store.GetUserByGitHubID(ctx, gh.ID)
	if errors.Is(err, storage.ErrNotFound) {
		name := gh.Name
		if name == "" {
			name = gh.Login
		}
		id := gh.ID
		user, err = p.store.CreateUser(ctx, &domain.User{
			GitHubID:    &id,
			DisplayName: name,
			PhotoURL:    gh.AvatarURL,
			CreatedAt:   p.now().UTC(),
		})
		if err == nil {
			p.logger.Info("user signed up with github", "uid", user.ID, "login", gh.Login)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve github user: %w", err)
	}
	return p.issue(user)
}

func (p *Provider) fetchGitHubUser(ctx context.Context, tok *oauth2.Token) (*githubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.githubAPI+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api returned %s", resp.Status)
	}

	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, err
	}
	if gh.ID == 0 {
		return nil, errors.New("github user without id")
	}
	return &gh, nil
}

// SignOut отзывает токен до истечения его срока.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.tokens.Parse(token, p.now())
	if err != nil {
		return domain.NewAuthError(domain.AuthInvalidToken)
	}
	ttl := claims.ExpiresAt.Time.Sub(p.now())
	if ttl <= 0 {
		return nil
	}
	if err := p.cache.Set(revokedKey(claims.ID), []byte("1"), ttl+time.Second); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Authenticate возвращает пользователя по токену сессии.
func (p *Provider) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := p.tokens.Parse(token, p.now())
	if err != nil {
		return nil, domain.NewAuthError(domain.AuthInvalidToken)
	}
	if _, err := p.cache.Get(revokedKey(claims.ID)); err == nil {
		return nil, domain.NewAuthError(domain.AuthInvalidToken)
	} else if !errors.Is(err, cache.ErrMiss) {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}

	user, err := p.store.GetUserByID(ctx, claims.Subject)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.NewAuthError(domain.AuthInvalidToken)
	}
	return user, err
}

// UpdateProfile меняет отображаемое имя и/или адрес аватара.
func (p *Provider) UpdateProfile(ctx context.Context, uid string, patch storage.UserPatch) (*domain.User, error) {
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		patch.DisplayName = &name
	}
	return p.store.UpdateUser(ctx, uid, patch)
}

func (p *Provider) issue(user *domain.User) (*Session, error) {
	token, _, err := p.tokens.Issue(user.ID, p.now())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func stateKey(state string) string { return "oauth-state:" + state }

func revokedKey(id string) string { return "revoked:" + id }
