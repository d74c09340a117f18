package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cristalhq/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "x-clone-service"

var errExpired = errors.New("token expired")

// Tokens выпускает и проверяет сессионные JWT (HS256).
type Tokens struct {
	signer   *jwt.HSAlg
	verifier *jwt.HSAlg
	ttl      time.Duration
}

// NewTokens создает издателя токенов с общим секретом.
func NewTokens(secret []byte, ttl time.Duration) (*Tokens, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	signer, err := jwt.NewSignerHS(jwt.HS256, secret)
	if err != nil {
		return nil, err
	}
	verifier, err := jwt.NewVerifierHS(jwt.HS256, secret)
	if err != nil {
		return nil, err
	}
	return &Tokens{signer: signer, verifier: verifier, ttl: ttl}, nil
}

// Issue создает токен для uid. Возвращает строку токена и его claims.
func (t *Tokens) Issue(uid string, now time.Time) (string, *jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   uid,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now.UTC()),
		ExpiresAt: jwt.NewNumericDate(now.UTC().Add(t.ttl)),
	}
	token, err := jwt.NewBuilder(t.signer).Build(claims)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build token: %w", err)
	}
	return token.String(), claims, nil
}

// Parse проверяет подпись и срок действия токена.
func (t *Tokens) Parse(raw string, now time.Time) (*jwt.RegisteredClaims, error) {
	token, err := jwt.Parse([]byte(raw), t.verifier)
	if err != nil {
		return nil, err
	}

	var claims jwt.RegisteredClaims
	if err := json.Unmarshal(token.Claims(), &claims); err != nil {
		return nil, err
	}
	if !claims.IsValidAt(now) || claims.ExpiresAt == nil {
		return nil, errExpired
	}
	if !claims.IsIssuer(issuer) || claims.Subject == "" {
		return nil, errors.New("token issuer or subject mismatch")
	}
	return &claims, nil
}
