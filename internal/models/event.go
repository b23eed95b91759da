package models

import "time"

// EventType — тип события жизненного цикла подписки. Совпадает с routing key.
type EventType string

const (
	EventSubscriptionCreated     EventType = "subscription.created"
	EventSubscriptionPlanChanged EventType = "subscription.plan_changed"
	EventSubscriptionCanceled    EventType = "subscription.canceled"
)

// SubscriptionEvent публикуется после фиксации перехода в хранилище.
type SubscriptionEvent struct {
	Event          EventType `json:"event"`
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id"`
	PlanID         string    `json:"plan_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewSubscriptionEvent собирает событие по состоянию подписки.
func NewSubscriptionEvent(event EventType, sub *Subscription, at time.Time) SubscriptionEvent {
	return SubscriptionEvent{
		Event:          event,
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		PlanID:         sub.PlanID,
		OccurredAt:     at,
	}
}
