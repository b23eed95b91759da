// Package models содержит доменную модель пользователя системы,
// роли, аутентифицированного субъекта (Principal) и структуру частичного обновления.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Role — закрытое перечисление ролей пользователя.
type Role string

const (
	// RoleUser — обычный пользователь.
	RoleUser Role = "USER"
	// RoleAdmin — администратор.
	RoleAdmin Role = "ADMIN"
)

// ParseRole приводит строку к Role. Для неизвестных значений возвращает ошибку.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid сообщает, является ли роль одним из известных значений.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Image        *string   `json:"image,omitempty"`
	PasswordHash string    `json:"-"` // никогда не отдаётся клиенту
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal возвращает аутентифицированного субъекта для пользователя.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Principal — аутентифицированный субъект, полученный из проверенного токена.
// Отдельно от User не хранится.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin сообщает, обладает ли субъект ролью администратора.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// UserPatch — явный набор изменяемых полей пользователя.
// nil означает "не менять". Role применяется только для администратора.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Image        *string
	Role         *Role
}

// Empty сообщает, что патч ничего не меняет.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil && p.Image == nil && p.Role == nil
}
