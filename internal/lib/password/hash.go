// Package password реализует хеширование и проверку паролей.
//
// Hasher создаёт bcrypt-хеш с настраиваемой стоимостью.
// Verify сравнивает пароль с хешем за постоянное время и никогда не возвращает ошибку:
// испорченный хеш считается несовпадением.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher хранит стоимость bcrypt. Безопасен для конкурентного использования.
type Hasher struct {
	cost int
}

// NewHasher создаёт Hasher. Стоимость вне допустимого диапазона bcrypt
// заменяется на bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Cost возвращает используемую стоимость.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash принимает пароль пользователя и возвращает его bcrypt‑хэш.
// Для одного и того же пароля каждый вызов даёт новый хеш из-за случайной соли.
func (h *Hasher) Hash(plaintext string) (string, error) {
	const op = "password.Hash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Verify сообщает, соответствует ли пароль хешу.
func (h *Hasher) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
