// Package models содержит доменные структуры, описывающие подписку и тарифный план.
package models

import (
	"slices"
	"time"
)

// SubscriptionStatus — состояние подписки.
type SubscriptionStatus string

const (
	// StatusActive — подписка действует.
	StatusActive SubscriptionStatus = "ACTIVE"
	// StatusCanceled — подписка отменена, терминальное состояние.
	StatusCanceled SubscriptionStatus = "CANCELED"
)

// BillingPeriod — длительность расчётного периода, без пропорционального пересчёта.
const BillingPeriod = 30 * 24 * time.Hour

// Subscription — запись о подписке пользователя на тарифный план.
// CanceledAt заполнен тогда и только тогда, когда Status == StatusCanceled.
type Subscription struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	PlanID             string             `json:"plan_id"`
	Status             SubscriptionStatus `json:"status"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end"`
	CanceledAt         *time.Time         `json:"canceled_at,omitempty"`
	PaymentMethodID    *string            `json:"payment_method_id,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Active сообщает, действует ли подписка.
func (s *Subscription) Active() bool {
	return s.Status == StatusActive
}

// SubscriptionPatch — явный набор изменений подписки из PATCH-запроса.
type SubscriptionPatch struct {
	PlanID *string
	Status *SubscriptionStatus
}

// Plan — тарифный план. Справочные данные, ядро их не изменяет.
type Plan struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Features   []string `json:"features"`
	PriceCents int64    `json:"price_cents"`
	Currency   string   `json:"currency"`
	Interval   string   `json:"interval"`
}

// HasFeature проверяет, входит ли функция в план.
func (p *Plan) HasFeature(key string) bool {
	return slices.Contains(p.Features, key)
}

// SubscriptionWithPlan — подписка вместе с её планом для ответа API.
type SubscriptionWithPlan struct {
	*Subscription
	Plan *Plan `json:"plan,omitempty"`
}
