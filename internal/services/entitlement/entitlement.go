// Package services отвечает на вопрос, доступна ли пользователю функция по его текущему плану.
package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/models"
	"github.com/magabrotheeeer/saas-core/internal/storage"
)

// SubscriptionRepository возвращает активную подписку пользователя.
type SubscriptionRepository interface {
	GetActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error)
}

// PlanProvider возвращает план по ID.
type PlanProvider interface {
	Get(ctx context.Context, id string) (*models.Plan, error)
}

// Resolver проверяет доступ к функциям. Только чтение, ошибок не возвращает:
// при любой неопределённости доступ запрещается.
type Resolver struct {
	subs  SubscriptionRepository
	plans PlanProvider
	log   *slog.Logger
}

// NewResolver создаёт новый экземпляр Resolver.
func NewResolver(subs SubscriptionRepository, plans PlanProvider, log *slog.Logger) *Resolver {
	return &Resolver{subs: subs, plans: plans, log: log}
}

// HasAccess сообщает, входит ли featureKey в план активной подписки пользователя.
func (r *Resolver) HasAccess(ctx context.Context, userID, featureKey string) bool {
	const op = "services.entitlement.HasAccess"
	log := r.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("feature", featureKey),
	)

	if userID == "" || featureKey == "" {
		return false
	}

	sub, err := r.subs.GetActiveSubscription(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("failed to load active subscription", sl.Err(err))
		}
		return false
	}
	if !sub.Active() {
		return false
	}

	plan, err := r.plans.Get(ctx, sub.PlanID)
	if err != nil {
		log.Warn("failed to load plan", slog.String("plan_id", sub.PlanID), sl.Err(err))
		return false
	}
	return plan.HasFeature(featureKey)
}
