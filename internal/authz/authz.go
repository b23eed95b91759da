// Package authz принимает решения о доступе субъекта к ресурсу.
//
// Решение зависит только от аргументов: роли субъекта, владельца ресурса и действия.
// Администратор может всё. Пользователь может только действия над своими ресурсами.
// Неизвестное действие запрещено.
package authz

import (
	"github.com/magabrotheeeer/saas-core/internal/lib/apperr"
	"github.com/magabrotheeeer/saas-core/internal/models"
)

// Action — действие над ресурсом.
type Action string

// Действия, доступные только администратору.
const (
	ActionUsersList        Action = "users:list"
	ActionSubscriptionsAll Action = "subscriptions:list-all"
	ActionUsersCreate      Action = "users:create"
	ActionUsersChangeRole  Action = "users:change-role"
	ActionUsersDelete      Action = "users:delete"
)

// Действия над собственными ресурсами.
const (
	ActionProfileRead        Action = "profile:read"
	ActionProfileUpdate      Action = "profile:update"
	ActionSubscriptionRead   Action = "subscription:read"
	ActionSubscriptionUpdate Action = "subscription:update"
	ActionSubscriptionCancel Action = "subscription:cancel"
	ActionSubscriptionCreate Action = "subscription:create"
	ActionSubscriptionsOwn   Action = "subscriptions:list-own"
)

// Reason — причина отказа.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNotAuthenticated Reason = "not-authenticated"
	ReasonNotOwner         Reason = "not-owner"
	ReasonAdminRequired    Reason = "admin-required"
)

var adminOnly = map[Action]struct{}{
	ActionUsersList:        {},
	ActionSubscriptionsAll: {},
	ActionUsersCreate:      {},
	ActionUsersChangeRole:  {},
	ActionUsersDelete:      {},
}

var ownerScoped = map[Action]struct{}{
	ActionProfileRead:        {},
	ActionProfileUpdate:      {},
	ActionSubscriptionRead:   {},
	ActionSubscriptionUpdate: {},
	ActionSubscriptionCancel: {},
	ActionSubscriptionCreate: {},
	ActionSubscriptionsOwn:   {},
}

// Decision — результат проверки доступа.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(r Reason) Decision { return Decision{Reason: r} }

// Evaluate решает, может ли субъект выполнить действие над ресурсом владельца ownerID.
func Evaluate(p *models.Principal, ownerID string, action Action) Decision {
	if p == nil {
		return deny(ReasonNotAuthenticated)
	}
	if p.IsAdmin() {
		return allow()
	}
	if _, ok := adminOnly[action]; ok {
		return deny(ReasonAdminRequired)
	}
	if _, ok := ownerScoped[action]; !ok {
		return deny(ReasonAdminRequired)
	}
	if p.Role != models.RoleUser || p.ID == "" || ownerID != p.ID {
		return deny(ReasonNotOwner)
	}
	return allow()
}

// Require возвращает ошибку apperr, если доступ запрещён.
// Отсутствие субъекта даёт ошибку аутентификации, остальные отказы дают ошибку авторизации.
func Require(op string, p *models.Principal, ownerID string, action Action) error {
	d := Evaluate(p, ownerID, action)
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonNotAuthenticated {
		e := apperr.Authentication(op, "not authenticated", nil)
		e.Reason = string(d.Reason)
		return e
	}
	return apperr.Authorization(op, string(d.Reason))
}
