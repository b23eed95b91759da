// Package jwt реализует выпуск и проверку подписанных сессионных токенов.
//
// Maker определяет интерфейс для создания и проверки токенов субъекта.
// MakerImpl — реализация на HS256 с секретным ключом, который задаётся один раз при старте.
// Токены самодостаточны: проверка не обращается к хранилищу, отозвать токен до истечения нельзя.
package jwt

import (
	"errors"
	"time"

	"github.com/magabrotheeeer/saas-core/internal/models"
)

// SessionTTL — фиксированное окно жизни сессионного токена.
const SessionTTL = 7 * 24 * time.Hour

var (
	// ErrMalformed — токен не удаётся разобрать.
	ErrMalformed = errors.New("token malformed")
	// ErrInvalidSignature — подпись не совпадает.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrExpired — срок действия токена истёк.
	ErrExpired = errors.New("token expired")
)

// Maker описывает интерфейс для генерации и парсинга токенов.
type Maker interface {
	// GenerateToken выпускает токен для субъекта.
	GenerateToken(principal models.Principal) (string, error)
	// ParseToken проверяет токен и возвращает claims.
	ParseToken(tokenStr string) (*Claims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа.
type MakerImpl struct {
	secretKey []byte           // Секретный ключ для подписи токенов.
	now       func() time.Time // Источник времени, подменяется в тестах.
}

// Option настраивает MakerImpl.
type Option func(*MakerImpl)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(m *MakerImpl) {
		m.now = now
	}
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа.
func NewJWTMaker(secretKey string, opts ...Option) *MakerImpl {
	m := &MakerImpl{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
