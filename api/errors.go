package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/UkralStul/x-clone-service/internal/blob"
	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/service"
	"github.com/UkralStul/x-clone-service/internal/storage"
)

// Коды ошибок, не относящиеся к аутентификации.
const (
	CodeInvalidBody = "request/invalid-body"
	CodeInvalidText = "post/invalid-text"
	CodeTooLarge    = "blob/too-large"
	CodeNotImage    = "blob/not-image"
	CodeInvalidPath = "blob/invalid-path"
	CodeBlobMissing = "blob/not-found"
	CodeInternal    = "internal"
)

var errInvalidBody = errors.New("invalid request body")

var errorTable = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrUnauthenticated, http.StatusUnauthorized, domain.AuthRequired},
	{service.ErrInvalidText, http.StatusBadRequest, CodeInvalidText},
	{service.ErrTooLarge, http.StatusRequestEntityTooLarge, CodeTooLarge},
	{service.ErrNotImage, http.StatusUnsupportedMediaType, CodeNotImage},
	{domain.ErrInvalidPath, http.StatusBadRequest, CodeInvalidPath},
	{blob.ErrNotFound, http.StatusNotFound, CodeBlobMissing},
	{errInvalidBody, http.StatusBadRequest, CodeInvalidBody},
}

// classify переводит ошибку в HTTP-статус и код. resource ("post", "user",
// "blob") задает префикс для forbidden и not-found.
func classify(resource string, err error) (int, string, string) {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return authStatus(authErr.Code), authErr.Code, domain.AuthMessage(authErr.Code)
	}
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			msg := e.err.Error()
			if strings.HasPrefix(e.code, "auth/") {
				msg = domain.AuthMessage(e.code)
			}
			return e.status, e.code, msg
		}
	}
	switch {
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, resource + "/forbidden", service.ErrForbidden.Error()
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, resource + "/not-found", storage.ErrNotFound.Error()
	}
	return http.StatusInternalServerError, CodeInternal, "internal server error"
}

func authStatus(code string) int {
	switch code {
	case domain.AuthInvalidToken, domain.AuthInvalidCredential, domain.AuthRequired:
		return http.StatusUnauthorized
	case domain.AuthEmailInUse:
		return http.StatusConflict
	case domain.AuthOAuthFailed:
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

// ErrorFor восстанавливает ошибку по коду из ErrorResponse, чтобы клиент
// мог сравнивать ее через errors.Is и errors.As.
func ErrorFor(code string) error {
	if code == domain.AuthRequired {
		return service.ErrUnauthenticated
	}
	if strings.HasPrefix(code, "auth/") {
		return domain.NewAuthError(code)
	}
	for _, e := range errorTable {
		if e.code == code {
			return e.err
		}
	}
	switch {
	case strings.HasSuffix(code, "/forbidden"):
		return service.ErrForbidden
	case strings.HasSuffix(code, "/not-found"):
		return storage.ErrNotFound
	}
	return errors.New(code)
}
