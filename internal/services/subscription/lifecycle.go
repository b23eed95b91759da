// Package services содержит бизнес-логику подписок: машину состояний жизненного цикла
// и проверку прав доступа к подпискам.
//
// Состояния: ACTIVE и CANCELED (терминальное). Отсутствие записи означает неявное начальное
// состояние. Каждый переход выполняется одним условным UPDATE, поэтому сбой не
// оставляет частично изменённых данных.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/saas-core/internal/lib/apperr"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/metrics"
	"github.com/magabrotheeeer/saas-core/internal/models"
	"github.com/magabrotheeeer/saas-core/internal/storage"
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// CreateSubscription вставляет подписку. Вторая активная подписка даёт storage.ErrAlreadyExists.
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	// GetSubscription возвращает подписку по ID.
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	// GetActiveSubscription возвращает активную подписку пользователя.
	GetActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	// ListSubscriptions возвращает страницу подписок; при пустом userID по всем пользователям.
	ListSubscriptions(ctx context.Context, userID string, page models.Page) ([]*models.Subscription, int, error)
	// ChangeSubscriptionPlan меняет план активной подписки, иначе storage.ErrConflict.
	ChangeSubscriptionPlan(ctx context.Context, id, planID string, periodStart, periodEnd time.Time) (*models.Subscription, error)
	// CancelSubscription отменяет активную подписку, иначе storage.ErrConflict.
	CancelSubscription(ctx context.Context, id string, canceledAt time.Time) (*models.Subscription, error)
}

// PlanProvider возвращает план по ID или ошибку apperr.
type PlanProvider interface {
	Get(ctx context.Context, id string) (*models.Plan, error)
}

// EventPublisher публикует события переходов.
type EventPublisher interface {
	Publish(ctx context.Context, event models.SubscriptionEvent) error
}

// Clock — источник текущего времени.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, models.SubscriptionEvent) error { return nil }

// Lifecycle выполняет переходы подписки. Права доступа здесь не проверяются.
type Lifecycle struct {
	repo      SubscriptionRepository
	plans     PlanProvider
	publisher EventPublisher
	metrics   *metrics.Metrics
	clock     Clock
	log       *slog.Logger
}

// Option настраивает Lifecycle.
type Option func(*Lifecycle)

// WithClock подменяет источник времени.
func WithClock(c Clock) Option {
	return func(l *Lifecycle) { l.clock = c }
}

// WithPublisher задаёт публикатор событий.
func WithPublisher(p EventPublisher) Option {
	return func(l *Lifecycle) { l.publisher = p }
}

// WithMetrics задаёт метрики переходов.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Lifecycle) { l.metrics = m }
}

// NewLifecycle создаёт новый экземпляр Lifecycle.
func NewLifecycle(repo SubscriptionRepository, plans PlanProvider, log *slog.Logger, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		repo:      repo,
		plans:     plans,
		publisher: noopPublisher{},
		clock:     systemClock{},
		log:       log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lifecycle) now() time.Time {
	return l.clock.Now().UTC()
}

// requirePlan проверяет существование плана.
func (l *Lifecycle) requirePlan(ctx context.Context, op, planID string) error {
	if planID == "" {
		return apperr.Validation(op, "plan_id is required")
	}
	if _, err := l.plans.Get(ctx, planID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound(op, "plan not found")
		}
		return apperr.Unexpected(op, err)
	}
	return nil
}

// Create оформляет подписку пользователя на план с периодом [now, now+30d).
// Если у пользователя уже есть активная подписка, возвращается конфликт.
func (l *Lifecycle) Create(ctx context.Context, userID, planID string, paymentMethodID *string) (*models.Subscription, error) {
	const op = "services.subscription.Create"
	log := l.log.With(slog.String("op", op), slog.String("user_id", userID), slog.String("plan_id", planID))

	if err := l.requirePlan(ctx, op, planID); err != nil {
		return nil, err
	}

	_, err := l.repo.GetActiveSubscription(ctx, userID)
	switch {
	case err == nil:
		return nil, apperr.Conflict(op, "user already has an active subscription", nil)
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, apperr.Unexpected(op, err)
	}

	now := l.now()
	created, err := l.repo.CreateSubscription(ctx, models.Subscription{
		UserID:             userID,
		PlanID:             planID,
		Status:             models.StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(models.BillingPeriod),
		PaymentMethodID:    paymentMethodID,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			// параллельный запрос успел создать активную подписку
			return nil, apperr.Conflict(op, "user already has an active subscription", err)
		case errors.Is(err, storage.ErrNotFound):
			return nil, apperr.NotFound(op, "user not found")
		default:
			return nil, apperr.Unexpected(op, err)
		}
	}

	log.Info("subscription created", slog.String("subscription_id", created.ID))
	l.emit(ctx, log, "created", models.EventSubscriptionCreated, created, now)
	return created, nil
}

// ChangePlan переводит активную подписку на другой план и начинает новый период
// [now, now+30d) без пересчёта. Отменённую подписку изменить нельзя.
func (l *Lifecycle) ChangePlan(ctx context.Context, sub *models.Subscription, newPlanID string) (*models.Subscription, error) {
	const op = "services.subscription.ChangePlan"
	log := l.log.With(slog.String("op", op), slog.String("subscription_id", sub.ID), slog.String("plan_id", newPlanID))

	if !sub.Active() {
		return nil, apperr.Conflict(op, "subscription is canceled", nil)
	}
	if err := l.requirePlan(ctx, op, newPlanID); err != nil {
		return nil, err
	}

	now := l.now()
	updated, err := l.repo.ChangeSubscriptionPlan(ctx, sub.ID, newPlanID, now, now.Add(models.BillingPeriod))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return nil, apperr.Conflict(op, "subscription is canceled", err)
		case errors.Is(err, storage.ErrNotFound):
			return nil, apperr.NotFound(op, "plan not found")
		default:
			return nil, apperr.Unexpected(op, err)
		}
	}

	log.Info("subscription plan changed", slog.String("previous_plan_id", sub.PlanID))
	l.emit(ctx, log, "plan_changed", models.EventSubscriptionPlanChanged, updated, now)
	return updated, nil
}

// Cancel отменяет подписку. Повторная отмена возвращает сохранённую запись без изменений.
func (l *Lifecycle) Cancel(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	const op = "services.subscription.Cancel"
	log := l.log.With(slog.String("op", op), slog.String("subscription_id", sub.ID))

	if !sub.Active() {
		return sub, nil
	}

	now := l.now()
	canceled, err := l.repo.CancelSubscription(ctx, sub.ID, now)
	if err != nil {
		if !errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Unexpected(op, err)
		}
		// подписку уже отменил параллельный запрос
		stored, getErr := l.repo.GetSubscription(ctx, sub.ID)
		if getErr != nil {
			if errors.Is(getErr, storage.ErrNotFound) {
				return nil, apperr.NotFound(op, "subscription not found")
			}
			return nil, apperr.Unexpected(op, getErr)
		}
		return stored, nil
	}

	log.Info("subscription canceled")
	l.emit(ctx, log, "canceled", models.EventSubscriptionCanceled, canceled, now)
	return canceled, nil
}

// emit учитывает переход в метриках и публикует событие. Ошибка публикации только логируется:
// переход уже зафиксирован в хранилище.
func (l *Lifecycle) emit(ctx context.Context, log *slog.Logger, transition string, event models.EventType, sub *models.Subscription, at time.Time) {
	l.metrics.RecordTransition(transition)
	if err := l.publisher.Publish(ctx, models.NewSubscriptionEvent(event, sub, at)); err != nil {
		log.Warn("failed to publish subscription event", slog.String("event", string(event)), sl.Err(err))
	}
}
