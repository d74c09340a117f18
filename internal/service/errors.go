package service

import "errors"

var (
	// ErrUnauthenticated - операция требует сессии.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden - действующий пользователь не владелец документа или пути.
	ErrForbidden = errors.New("only the author may modify this resource")
	// ErrInvalidText - текст поста пуст или длиннее 180 символов.
	ErrInvalidText = errors.New("post text must be 1-180 characters")
	// ErrTooLarge - объект больше 1 MiB.
	ErrTooLarge = errors.New("file must be 1MB or smaller")
	// ErrNotImage - загружаемый объект не изображение.
	ErrNotImage = errors.New("only images can be uploaded")
)
