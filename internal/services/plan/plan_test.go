package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/saas-core/internal/lib/apperr"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/models"
	"github.com/magabrotheeeer/saas-core/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *RepoMock) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

var proPlan = &models.Plan{ID: "pro", Name: "Pro", Features: []string{"export"}, PriceCents: 2900, Currency: "USD", Interval: "month"}

func TestPlanService_Get(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(r *RepoMock, c *CacheMock)
		wantPlan  *models.Plan
		wantKind  apperr.Kind
		wantError bool
	}{
		{
			name: "cache hit",
			setup: func(_ *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "plan:pro", mock.Anything).Run(func(args mock.Arguments) {
					*args.Get(2).(*models.Plan) = *proPlan
				}).Return(true, nil).Once()
			},
			wantPlan: proPlan,
		},
		{
			name: "cache miss loads from repository and caches",
			setup: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "plan:pro", mock.Anything).Return(false, nil).Once()
				r.On("GetPlan", mock.Anything, "pro").Return(proPlan, nil).Once()
				c.On("Set", mock.Anything, "plan:pro", proPlan, time.Hour).Return(nil).Once()
			},
			wantPlan: proPlan,
		},
		{
			name: "cache failures are tolerated",
			setup: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "plan:pro", mock.Anything).Return(false, errors.New("redis down")).Once()
				r.On("GetPlan", mock.Anything, "pro").Return(proPlan, nil).Once()
				c.On("Set", mock.Anything, "plan:pro", proPlan, time.Hour).Return(errors.New("redis down")).Once()
			},
			wantPlan: proPlan,
		},
		{
			name: "plan not found",
			setup: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "plan:pro", mock.Anything).Return(false, nil).Once()
				r.On("GetPlan", mock.Anything, "pro").Return(nil, fmt.Errorf("storage.GetPlan: %w", storage.ErrNotFound)).Once()
			},
			wantError: true,
			wantKind:  apperr.KindNotFound,
		},
		{
			name: "repository error",
			setup: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "plan:pro", mock.Anything).Return(false, nil).Once()
				r.On("GetPlan", mock.Anything, "pro").Return(nil, errors.New("db error")).Once()
			},
			wantError: true,
			wantKind:  apperr.KindUnexpected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setup(repo, cache)
			svc := NewPlanService(repo, cache, time.Hour, sl.Discard())

			got, err := svc.Get(context.Background(), "pro")
			if tt.wantError {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantPlan, got)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestPlanService_List(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	plans := []*models.Plan{proPlan}

	cache.On("Get", mock.Anything, allPlansKey, mock.Anything).Return(false, nil).Once()
	repo.On("ListPlans", mock.Anything).Return(plans, nil).Once()
	cache.On("Set", mock.Anything, allPlansKey, plans, time.Hour).Return(nil).Once()

	svc := NewPlanService(repo, cache, time.Hour, sl.Discard())
	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, plans, got)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}
