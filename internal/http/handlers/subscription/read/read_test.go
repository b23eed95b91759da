package read

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/saas-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-core/internal/lib/apperr"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Get(ctx context.Context, p *models.Principal, id string) (*models.SubscriptionWithPlan, error) {
	args := m.Called(ctx, p, id)
	res, _ := args.Get(0).(*models.SubscriptionWithPlan)
	return res, args.Error(1)
}

func TestReadHandler_ServeHTTP(t *testing.T) {
	const id = "5f1e3d9a-2c4b-4e8f-9a1d-7b6c5e4d3f21"
	bob := &models.Principal{ID: "u2", Role: models.RoleUser}

	tests := []struct {
		name       string
		path       string
		setup      func(m *ServiceMock)
		wantStatus int
		contains   string
	}{
		{
			name: "with plan",
			path: "/subscriptions/" + id,
			setup: func(m *ServiceMock) {
				m.On("Get", mock.Anything, bob, id).Return(&models.SubscriptionWithPlan{
					Subscription: &models.Subscription{ID: id, UserID: "u2", PlanID: "pro", Status: models.StatusActive},
					Plan:         &models.Plan{ID: "pro", Name: "Pro", Features: []string{"export"}},
				}, nil)
			},
			wantStatus: http.StatusOK,
			contains:   `"plan":{"id":"pro","name":"Pro","features":["export"]`,
		},
		{
			name: "forbidden",
			path: "/subscriptions/" + id,
			setup: func(m *ServiceMock) {
				m.On("Get", mock.Anything, bob, id).Return(nil, apperr.Authorization("op", "not-owner"))
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "not found",
			path: "/subscriptions/" + id,
			setup: func(m *ServiceMock) {
				m.On("Get", mock.Anything, bob, id).Return(nil, apperr.NotFound("op", "subscription not found"))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid id",
			path:       "/subscriptions/7",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.setup != nil {
				tt.setup(svc)
			}
			router := chi.NewRouter()
			router.Get("/subscriptions/{id}", New(sl.Discard(), svc).ServeHTTP)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), bob))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.contains != "" {
				assert.Contains(t, rr.Body.String(), tt.contains)
			}
			svc.AssertExpectations(t)
		})
	}
}
