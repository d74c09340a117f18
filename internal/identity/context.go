package identity

import (
	"context"

	"github.com/UkralStul/x-clone-service/internal/domain"
)

type contextKey string

const (
	userKey  = contextKey("user")
	tokenKey = contextKey("token")
)

// WithUser кладет пользователя сессии и его токен в контекст запроса.
func WithUser(ctx context.Context, user *domain.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, token)
}

// UserFrom извлекает пользователя сессии; nil, если запрос анонимный.
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

// TokenFrom извлекает токен сессии.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
