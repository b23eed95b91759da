// Package storage объявляет ошибки хранилища, общие для всех реализаций репозиториев.
// Сервисы сравнивают ошибки с ними через errors.Is и переводят в apperr.
package storage

import "errors"

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушено ограничение уникальности.
	ErrAlreadyExists = errors.New("already exists")
	// ErrReferenced — на запись ссылаются другие записи.
	ErrReferenced = errors.New("referenced by other records")
	// ErrConflict — условное обновление не применилось, состояние записи изменилось.
	ErrConflict = errors.New("state conflict")
)
