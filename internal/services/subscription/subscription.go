package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/saas-core/internal/authz"
	"github.com/magabrotheeeer/saas-core/internal/lib/apperr"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/models"
	"github.com/magabrotheeeer/saas-core/internal/storage"
)

// CreateInput — параметры оформления подписки.
// UserID учитывается только для администратора, иначе подписка оформляется на вызывающего.
type CreateInput struct {
	PlanID          string
	PaymentMethodID *string
	UserID          string
}

// SubscriptionService проверяет права субъекта и делегирует переходы Lifecycle.
type SubscriptionService struct {
	lifecycle *Lifecycle
	repo      SubscriptionRepository
	plans     PlanProvider
	log       *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(lifecycle *Lifecycle, repo SubscriptionRepository, plans PlanProvider, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		lifecycle: lifecycle,
		repo:      repo,
		plans:     plans,
		log:       log,
	}
}

func requirePrincipal(op string, p *models.Principal) error {
	if p == nil {
		return authz.Require(op, nil, "", authz.ActionProfileRead)
	}
	return nil
}

// load находит подписку и проверяет право action на неё. Поиск выполняется до проверки прав,
// поэтому несуществующая подписка даёт 404, а чужая 403.
func (s *SubscriptionService) load(ctx context.Context, op string, p *models.Principal, id string, action authz.Action) (*models.Subscription, error) {
	if err := requirePrincipal(op, p); err != nil {
		return nil, err
	}
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(op, "subscription not found")
		}
		return nil, apperr.Unexpected(op, err)
	}
	if err := authz.Require(op, p, sub.UserID, action); err != nil {
		return nil, err
	}
	return sub, nil
}

// Create оформляет подписку.
func (s *SubscriptionService) Create(ctx context.Context, p *models.Principal, in CreateInput) (*models.Subscription, error) {
	const op = "services.subscription.Service.Create"
	if err := requirePrincipal(op, p); err != nil {
		return nil, err
	}
	owner := p.ID
	if in.UserID != "" {
		owner = in.UserID
	}
	if err := authz.Require(op, p, owner, authz.ActionSubscriptionCreate); err != nil {
		return nil, err
	}
	return s.lifecycle.Create(ctx, owner, in.PlanID, in.PaymentMethodID)
}

// Get возвращает подписку вместе с планом.
func (s *SubscriptionService) Get(ctx context.Context, p *models.Principal, id string) (*models.SubscriptionWithPlan, error) {
	const op = "services.subscription.Service.Get"
	sub, err := s.load(ctx, op, p, id, authz.ActionSubscriptionRead)
	if err != nil {
		return nil, err
	}

	result := &models.SubscriptionWithPlan{Subscription: sub}
	plan, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		s.log.Warn("failed to load subscription plan",
			slog.String("op", op),
			slog.String("plan_id", sub.PlanID),
			sl.Err(err),
		)
		return result, nil
	}
	result.Plan = plan
	return result, nil
}

// List возвращает страницу подписок: администратору все, пользователю свои.
func (s *SubscriptionService) List(ctx context.Context, p *models.Principal, page models.Page) ([]*models.Subscription, models.Pagination, error) {
	const op = "services.subscription.Service.List"
	if err := requirePrincipal(op, p); err != nil {
		return nil, models.Pagination{}, err
	}

	userID := p.ID
	action := authz.ActionSubscriptionsOwn
	if p.IsAdmin() {
		userID = ""
		action = authz.ActionSubscriptionsAll
	}
	if err := authz.Require(op, p, p.ID, action); err != nil {
		return nil, models.Pagination{}, err
	}

	subs, total, err := s.repo.ListSubscriptions(ctx, userID, page)
	if err != nil {
		return nil, models.Pagination{}, apperr.Unexpected(op, err)
	}
	return subs, models.NewPagination(page, total), nil
}

// Update применяет PATCH: смену плана или отмену. Вернуть отменённую подписку в ACTIVE нельзя.
func (s *SubscriptionService) Update(ctx context.Context, p *models.Principal, id string, patch models.SubscriptionPatch) (*models.Subscription, error) {
	const op = "services.subscription.Service.Update"
	if patch.PlanID == nil && patch.Status == nil {
		return nil, apperr.Validation(op, "nothing to update")
	}
	if patch.Status != nil && *patch.Status != models.StatusActive && *patch.Status != models.StatusCanceled {
		return nil, apperr.Validation(op, "status must be ACTIVE or CANCELED")
	}
	if patch.PlanID != nil && patch.Status != nil && *patch.Status == models.StatusCanceled {
		// каждый переход выполняется отдельным UPDATE, два перехода в одном запросе не атомарны
		return nil, apperr.Validation(op, "plan_id cannot be changed together with cancellation")
	}

	sub, err := s.load(ctx, op, p, id, authz.ActionSubscriptionUpdate)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && *patch.Status == models.StatusActive && !sub.Active() {
		return nil, apperr.Conflict(op, "canceled subscription cannot be reactivated", nil)
	}

	if patch.PlanID != nil {
		sub, err = s.lifecycle.ChangePlan(ctx, sub, *patch.PlanID)
		if err != nil {
			return nil, err
		}
	}
	if patch.Status != nil && *patch.Status == models.StatusCanceled {
		if err := authz.Require(op, p, sub.UserID, authz.ActionSubscriptionCancel); err != nil {
			return nil, err
		}
		sub, err = s.lifecycle.Cancel(ctx, sub)
		if err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// Cancel отменяет подписку. Идемпотентно.
func (s *SubscriptionService) Cancel(ctx context.Context, p *models.Principal, id string) (*models.Subscription, error) {
	const op = "services.subscription.Service.Cancel"
	sub, err := s.load(ctx, op, p, id, authz.ActionSubscriptionCancel)
	if err != nil {
		return nil, err
	}
	return s.lifecycle.Cancel(ctx, sub)
}
