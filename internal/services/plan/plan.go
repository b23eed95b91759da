// Package services содержит логику чтения тарифных планов с кешированием в Redis.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/saas-core/internal/lib/apperr"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/models"
	"github.com/magabrotheeeer/saas-core/internal/storage"
)

const allPlansKey = "plans:all"

// PlanRepository определяет методы чтения планов из хранилища.
type PlanRepository interface {
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)
}

// Cache описывает методы для кеширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// PlanService отдаёт планы, сначала обращаясь к кешу.
// Планы неизменяемы, поэтому инвалидация не нужна, достаточно TTL.
type PlanService struct {
	repo  PlanRepository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewPlanService создаёт новый экземпляр PlanService.
func NewPlanService(repo PlanRepository, cache Cache, ttl time.Duration, log *slog.Logger) *PlanService {
	return &PlanService{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

func planKey(id string) string {
	return "plan:" + id
}

// Get возвращает план по ID. Ошибки кеша не прерывают запрос.
func (s *PlanService) Get(ctx context.Context, id string) (*models.Plan, error) {
	const op = "services.plan.Get"
	log := s.log.With(slog.String("op", op), slog.String("plan_id", id))

	var cached models.Plan
	found, err := s.cache.Get(ctx, planKey(id), &cached)
	if err != nil {
		log.Warn("failed to read plan from cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(op, "plan not found")
		}
		return nil, apperr.Unexpected(op, err)
	}

	if err := s.cache.Set(ctx, planKey(id), plan, s.ttl); err != nil {
		log.Warn("failed to cache plan", sl.Err(err))
	}
	return plan, nil
}

// List возвращает все планы.
func (s *PlanService) List(ctx context.Context) ([]*models.Plan, error) {
	const op = "services.plan.List"
	log := s.log.With(slog.String("op", op))

	var cached []*models.Plan
	found, err := s.cache.Get(ctx, allPlansKey, &cached)
	if err != nil {
		log.Warn("failed to read plans from cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, apperr.Unexpected(op, err)
	}
	if plans == nil {
		plans = []*models.Plan{}
	}

	if err := s.cache.Set(ctx, allPlansKey, plans, s.ttl); err != nil {
		log.Warn("failed to cache plans", sl.Err(err))
	}
	return plans, nil
}
