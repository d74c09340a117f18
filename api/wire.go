package api

import "github.com/UkralStul/x-clone-service/internal/domain"

// ErrorResponse - тело любого ответа с ошибкой.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileRequest - частичное обновление профиля; nil-поля не меняются.
type ProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	PhotoURL    *string `json:"photoUrl,omitempty"`
}

// PostPatchRequest - частичное обновление поста; nil-поля не меняются.
type PostPatchRequest struct {
	Text     *string `json:"text,omitempty"`
	PhotoURL *string `json:"photoUrl,omitempty"`
}

type BlobResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// MessageSnapshot - тип сообщения живой ленты.
const MessageSnapshot = "snapshot"

// Snapshot - сообщение живой ленты: полный текущий результат выборки.
type Snapshot struct {
	Type  string         `json:"type"`
	Posts []*domain.Post `json:"posts"`
}
