// Package views - модели представлений клиента: сессия, формы входа,
// форма поста, лента, пост и профиль. Сетевые вызовы идут через
// интерфейсы возможностей платформы; их реализует internal/client.
package views

import (
	"context"
	"log/slog"
	"time"

	"github.com/UkralStul/x-clone-service/internal/blob"
	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/service"
	"github.com/UkralStul/x-clone-service/internal/storage"
)

// Маршруты клиента.
const (
	RouteHome          = "/"
	RouteLogin         = "/login"
	RouteCreateAccount = "/create-account"
	RouteProfile       = "/profile"
)

// Сообщения интерфейса.
const (
	MsgSignUpRequired = "이름, 이메일, 비밀번호는 필수입력입니다."
	MsgLoginRequired  = "이메일, 비밀번호는 필수입력입니다."
	MsgFileTooLarge   = "파일 크기는 1MB 이하여야 합니다."
	MsgConfirmDelete  = "트윗을 삭제하시겠습니까?"
	// ProfileAnonymous показывается в профиле вместо пустого имени.
	ProfileAnonymous = "익명"
)

// Identity - провайдер идентификации.
type Identity interface {
	SignUp(ctx context.Context, email, password, displayName string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	GitHubAuthURL() string
	CompleteGitHub(ctx context.Context, state, code string) (*domain.User, error)
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, displayName, photoURL *string) (*domain.User, error)
}

// Documents - коллекция постов.
type Documents interface {
	InsertPost(ctx context.Context, in service.NewPost) (*domain.Post, error)
	UpdatePost(ctx context.Context, id string, patch storage.PostPatch) (*domain.Post, error)
	DeletePost(ctx context.Context, id string) error
	QueryPosts(ctx context.Context, q storage.PostQuery) ([]*domain.Post, error)
}

// Stream - живая выборка: канал полных снимков и синхронная отмена.
type Stream interface {
	C() <-chan []*domain.Post
	Cancel()
}

// SubscribeFunc открывает живую выборку.
type SubscribeFunc func(ctx context.Context, q storage.PostQuery) (Stream, error)

// SubscribeWith приводит функцию подписки с конкретным типом потока
// (например, (*client.Client).SubscribePosts) к SubscribeFunc.
func SubscribeWith[S Stream](subscribe func(ctx context.Context, q storage.PostQuery) (S, error)) SubscribeFunc {
	return func(ctx context.Context, q storage.PostQuery) (Stream, error) {
		s, err := subscribe(ctx, q)
		if err != nil {
			// Не возвращаем типизированный nil внутри интерфейса
			return nil, err
		}
		return s, nil
	}
}

// Blobs - хранилище объектов.
type Blobs interface {
	Upload(ctx context.Context, path string, data []byte) (blob.Ref, error)
	DownloadURL(ctx context.Context, ref blob.Ref) (string, error)
	DeleteBlob(ctx context.Context, path string) error
}

// Alerter показывает пользователю сообщение.
type Alerter interface {
	Alert(msg string)
}

// Confirmer задает пользователю вопрос да/нет.
type Confirmer interface {
	Confirm(msg string) bool
}

type AlertFunc func(msg string)

func (f AlertFunc) Alert(msg string) { f(msg) }

type ConfirmFunc func(msg string) bool

func (f ConfirmFunc) Confirm(msg string) bool { return f(msg) }

// File - выбранный пользователем файл.
type File struct {
	Name string
	Data []byte
}

func (f *File) Size() int { return len(f.Data) }

// Deps - зависимости моделей представлений.
type Deps struct {
	Session   *Session
	Identity  Identity
	Documents Documents
	Blobs     Blobs
	Subscribe SubscribeFunc
	Alerter   Alerter
	Confirmer Confirmer
	Logger    *slog.Logger
	Now       func() time.Time
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d Deps) alert(msg string) {
	if d.Alerter != nil {
		d.Alerter.Alert(msg)
	}
}

func (d Deps) confirm(msg string) bool {
	return d.Confirmer != nil && d.Confirmer.Confirm(msg)
}
