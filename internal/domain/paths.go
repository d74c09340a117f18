package domain

import (
	"errors"
	"strings"
)

// Префиксы путей в хранилище объектов.
const (
	PostPhotoPrefix = "tweets"
	AvatarPrefix    = "avatars"
)

// ErrInvalidPath - путь не соответствует ни одной из схем.
var ErrInvalidPath = errors.New("invalid blob path")

// PostPhotoPath - канонический путь изображения поста: tweets/{authorID}/{postID}.
// Используется и при создании, и при редактировании, и при удалении.
func PostPhotoPath(authorID, postID string) string {
	return PostPhotoPrefix + "/" + authorID + "/" + postID
}

// AvatarPath - путь аватара пользователя: avatars/{uid}. Повторная загрузка перезаписывает объект.
func AvatarPath(uid string) string {
	return AvatarPrefix + "/" + uid
}

// PathOwner разбирает путь и возвращает uid владельца.
func PathOwner(path string) (string, error) {
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return "", ErrInvalidPath
		}
	}
	switch {
	case len(parts) == 3 && parts[0] == PostPhotoPrefix:
		return parts[1], nil
	case len(parts) == 2 && parts[0] == AvatarPrefix:
		return parts[1], nil
	}
	return "", ErrInvalidPath
}
