package views

import (
	"context"
	"errors"
	"sync"

	"github.com/UkralStul/x-clone-service/internal/domain"
)

// authMessage переводит ошибку провайдера в сообщение для формы.
// Прочие ошибки пишутся в лог и не показываются.
func authMessage(d Deps, op string, err error) string {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return domain.AuthMessage(authErr.Code)
	}
	d.logger().Error(op, "err", err)
	return ""
}

// LoginForm - форма входа по email и паролю (/login).
type LoginForm struct {
	d Deps

	mu       sync.Mutex
	email    string
	password string
	loading  bool
	errMsg   string
}

func NewLoginForm(d Deps) *LoginForm {
	return &LoginForm{d: d}
}

func (f *LoginForm) SetEmail(v string) { f.mu.Lock(); f.email = v; f.mu.Unlock() }
func (f *LoginForm) SetPassword(v string) { f.mu.Lock(); f.password = v; f.mu.Unlock() }

func (f *LoginForm) Email() string { f.mu.Lock(); defer f.mu.Unlock(); return f.email }
func (f *LoginForm) Password() string { f.mu.Lock(); defer f.mu.Unlock(); return f.password }
func (f *LoginForm) Loading() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.loading }
func (f *LoginForm) Error() string { f.mu.Lock(); defer f.mu.Unlock(); return f.errMsg }

// Submit выполняет вход. Возвращает маршрут перехода или пустую строку.
func (f *LoginForm) Submit(ctx context.Context) string {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ""
	}
	f.errMsg = ""
	if f.email == "" || f.password == "" {
		f.errMsg = MsgLoginRequired
		f.mu.Unlock()
		return ""
	}
	f.loading = true
	email, password := f.email, f.password
	f.mu.Unlock()

	user, err := f.d.Identity.SignIn(ctx, email, password)

	f.mu.Lock()
	f.loading = false
	if err != nil {
		f.errMsg = authMessage(f.d, "sign in", err)
		f.mu.Unlock()
		return ""
	}
	f.email, f.password = "", ""
	f.mu.Unlock()

	// Наблюдатели сессии могут читать состояние формы
	f.d.Session.Set(user)
	return RouteHome
}

// SignUpForm - форма регистрации (/create-account).
type SignUpForm struct {
	d Deps

	mu       sync.Mutex
	name     string
	email    string
	password string
	loading  bool
	errMsg   string
}

func NewSignUpForm(d Deps) *SignUpForm {
	return &SignUpForm{d: d}
}

func (f *SignUpForm) SetName(v string) { f.mu.Lock(); f.name = v; f.mu.Unlock() }
func (f *SignUpForm) SetEmail(v string) { f.mu.Lock(); f.email = v; f.mu.Unlock() }
func (f *SignUpForm) SetPassword(v string) { f.mu.Lock(); f.password = v; f.mu.Unlock() }

func (f *SignUpForm) Name() string { f.mu.Lock(); defer f.mu.Unlock(); return f.name }
func (f *SignUpForm) Email() string { f.mu.Lock(); defer f.mu.Unlock(); return f.email }
func (f *SignUpForm) Password() string { f.mu.Lock(); defer f.mu.Unlock(); return f.password }
func (f *SignUpForm) Loading() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.loading }
func (f *SignUpForm) Error() string { f.mu.Lock(); defer f.mu.Unlock(); return f.errMsg }

// Submit создает учетную запись с отображаемым именем и входит в нее.
func (f *SignUpForm) Submit(ctx context.Context) string {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ""
	}
	f.errMsg = ""
	if f.name == "" || f.email == "" || f.password == "" {
		f.errMsg = MsgSignUpRequired
		f.mu.Unlock()
		return ""
	}
	f.loading = true
	name, email, password := f.name, f.email, f.password
	f.mu.Unlock()

	user, err := f.d.Identity.SignUp(ctx, email, password, name)

	f.mu.Lock()
	f.loading = false
	if err != nil {
		f.errMsg = authMessage(f.d, "sign up", err)
		f.mu.Unlock()
		return ""
	}
	f.name, f.email, f.password = "", "", ""
	f.mu.Unlock()

	// Наблюдатели сессии могут читать состояние формы
	f.d.Session.Set(user)
	return RouteHome
}

// GitHubLogin - вход через GitHub: переход на AuthURL, затем Complete
// с параметрами обратного вызова.
type GitHubLogin struct {
	d Deps
}

func NewGitHubLogin(d Deps) *GitHubLogin {
	return &GitHubLogin{d: d}
}

func (g *GitHubLogin) AuthURL() string {
	return g.d.Identity.GitHubAuthURL()
}

// Complete завершает вход. Ошибки пишутся в лог, маршрут не меняется.
func (g *GitHubLogin) Complete(ctx context.Context, state, code string) string {
	user, err := g.d.Identity.CompleteGitHub(ctx, state, code)
	if err != nil {
		g.d.logger().Error("github sign in", "err", err)
		return ""
	}
	g.d.Session.Set(user)
	return RouteHome
}
