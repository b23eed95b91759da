// Package apperr описывает таксономию ошибок бизнес-слоя.
//
// Сервисы возвращают *Error с конкретным Kind, HTTP-слой выбирает статус по Kind,
// а не по тексту ошибки. Ошибки хранилища переводятся в Kind на границе сервиса.
package apperr

import (
	"errors"
	"fmt"
)

// Kind — категория ошибки.
type Kind int

const (
	// KindUnexpected — сбой инфраструктуры, детали только в логах.
	KindUnexpected Kind = iota
	// KindAuthentication — нет валидного субъекта или неверные учётные данные.
	KindAuthentication
	// KindAuthorization — отказ по роли или владению.
	KindAuthorization
	// KindValidation — некорректный ввод.
	KindValidation
	// KindNotFound — именованный ресурс не найден.
	KindNotFound
	// KindConflict — нарушение уникальности или недопустимый переход состояния.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unexpected"
	}
}

// Error — ошибка бизнес-слоя.
type Error struct {
	Kind    Kind
	Op      string
	Message string // безопасно для клиента
	Reason  string // тег причины отказа, например "not-owner"
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New создаёт ошибку заданного вида.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Message: msg}
}

// Authentication создаёт ошибку аутентификации.
func Authentication(op, msg string, err error) *Error {
	return &Error{Kind: KindAuthentication, Op: op, Message: msg, Err: err}
}

// Authorization создаёт отказ в доступе с тегом причины.
func Authorization(op, reason string) *Error {
	return &Error{Kind: KindAuthorization, Op: op, Message: "forbidden", Reason: reason}
}

// Validation создаёт ошибку некорректного ввода.
func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

// NotFound создаёт ошибку отсутствующего ресурса.
func NotFound(op, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg}
}

// Conflict создаёт ошибку конфликта состояния.
func Conflict(op, msg string, err error) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: msg, Err: err}
}

// Unexpected оборачивает внутренний сбой.
func Unexpected(op string, err error) *Error {
	return &Error{Kind: KindUnexpected, Op: op, Message: "internal error", Err: err}
}

// KindOf возвращает Kind ошибки; для ошибок вне таксономии KindUnexpected.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

// Is сообщает, относится ли ошибка к виду kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As возвращает *Error из цепочки.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
