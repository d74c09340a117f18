package domain

// Коды ошибок аутентификации.
const (
	AuthEmailInUse        = "auth/email-already-in-use"
	AuthInvalidEmail      = "auth/invalid-email"
	AuthWeakPassword      = "auth/weak-password"
	AuthInvalidCredential = "auth/invalid-credential"
	AuthMissingFields     = "auth/missing-fields"
	AuthInvalidToken      = "auth/invalid-token"
	AuthInvalidState      = "auth/invalid-state"
	AuthOAuthFailed       = "auth/oauth-failed"
	AuthRequired          = "auth/required"
)

// AuthError - ошибка провайдера идентификации с машинным кодом.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string { return e.Code }

// NewAuthError создает ошибку с указанным кодом.
func NewAuthError(code string) *AuthError { return &AuthError{Code: code} }

var authMessages = map[string]string{
	AuthEmailInUse:        "이미 사용중인 이메일입니다.",
	AuthInvalidEmail:      "이메일 형식이 올바르지 않습니다.",
	AuthWeakPassword:      "비밀번호는 6자리 이상이어야 합니다.",
	AuthInvalidCredential: "이메일 또는 비밀번호가 올바르지 않습니다.",
	AuthMissingFields:     "이메일, 비밀번호는 필수입력입니다.",
	AuthInvalidToken:      "로그인이 만료되었습니다. 다시 로그인해주세요.",
	AuthInvalidState:      "로그인 요청이 만료되었습니다. 다시 시도해주세요.",
	AuthOAuthFailed:       "깃허브 로그인에 실패했습니다.",
	AuthRequired:          "로그인이 필요합니다.",
}

// AuthMessage возвращает локализованное сообщение для кода ошибки.
func AuthMessage(code string) string {
	if msg, ok := authMessages[code]; ok {
		return msg
	}
	return "알 수 없는 오류가 발생했습니다."
}
