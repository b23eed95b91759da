// Package session переносит сессионный токен между сервером и клиентом.
//
// Основной канал: HttpOnly cookie auth_token. Для API-клиентов без cookie
// токен принимается также из заголовка Authorization: Bearer.
package session

import (
	"net/http"
	"strings"
	"time"
)

// CookieName — имя cookie с сессионным токеном.
const CookieName = "auth_token"

const bearerPrefix = "Bearer "

// Transport устанавливает, очищает и извлекает сессионный токен.
type Transport struct {
	secure bool
	maxAge time.Duration
}

// NewTransport создаёт Transport. secure включает флаг Secure у cookie (production).
func NewTransport(secure bool, maxAge time.Duration) *Transport {
	return &Transport{secure: secure, maxAge: maxAge}
}

// Set записывает токен в cookie.
func (t *Transport) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(t.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear удаляет cookie на клиенте.
func (t *Transport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // сериализуется как Max-Age=0
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token возвращает токен из cookie, а при его отсутствии из заголовка Authorization.
func (t *Transport) Token(r *http.Request) (string, bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", false
	}
	return token, true
}
