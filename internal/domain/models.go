package domain

import (
	"time"
	"unicode/utf8"
)

const (
	// MaxTextLength - максимальная длина текста поста в символах.
	MaxTextLength = 180
	// MaxPhotoBytes - максимальный размер прикрепляемого изображения (1 MiB).
	MaxPhotoBytes = 1024 * 1024
	// FeedLimit - сколько последних постов отдает лента.
	FeedLimit = 25
	// AnonymousName подставляется, если у пользователя нет отображаемого имени.
	AnonymousName = "Anonymous"
)

// Post представляет пост (твит) в системе.
type Post struct {
	ID                string `json:"id" gorm:"type:varchar(36);primary_key"`
	Text              string `json:"text" gorm:"type:varchar(720);not null"`
	PhotoURL          string `json:"photoUrl,omitempty" gorm:"type:text"`
	AuthorID          string `json:"authorId" gorm:"type:varchar(36);not null;index"`
	AuthorDisplayName string `json:"authorDisplayName" gorm:"type:varchar(255);not null"`
	// CreatedAt - миллисекунды с начала эпохи, единственный ключ сортировки.
	CreatedAt int64 `json:"createdAt" gorm:"not null;index;autoCreateTime:milli"`

	// AuthorPhotoURL не хранится, заполняется при выдаче (dataloader).
	AuthorPhotoURL string `json:"authorPhotoUrl,omitempty" gorm:"-"`
}

// HasPhoto сообщает, прикреплено ли к посту изображение.
func (p *Post) HasPhoto() bool { return p.PhotoURL != "" }

// User - учетная запись (identity).
type User struct {
	ID           string    `json:"uid" gorm:"type:varchar(36);primary_key"`
	Email        *string   `json:"email,omitempty" gorm:"type:varchar(320);uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:varchar(100)"`
	GitHubID     *int64    `json:"-" gorm:"column:github_id;uniqueIndex"`
	DisplayName  string    `json:"displayName" gorm:"type:varchar(255)"`
	PhotoURL     string    `json:"photoUrl,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"createdAt" gorm:"not null"`
}

// NameOrAnonymous возвращает отображаемое имя или AnonymousName.
func (u *User) NameOrAnonymous() string {
	if u == nil || u.DisplayName == "" {
		return AnonymousName
	}
	return u.DisplayName
}

// ValidText проверяет длину текста поста: от 1 до MaxTextLength символов.
func ValidText(text string) bool {
	n := utf8.RuneCountInString(text)
	return n >= 1 && n <= MaxTextLength
}

// Millis переводит время в миллисекунды с начала эпохи.
func Millis(t time.Time) int64 { return t.UnixMilli() }
