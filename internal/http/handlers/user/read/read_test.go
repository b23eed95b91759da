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

func (m *ServiceMock) Get(ctx context.Context, p *models.Principal, id string) (*models.User, error) {
	args := m.Called(ctx, p, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func TestReadHandler_ServeHTTP(t *testing.T) {
	const id = "a3f0c2de-5b8e-4a2f-8f3e-2b9d7c6e1a10"
	alice := &models.Principal{ID: id, Email: "alice@example.com", Role: models.RoleUser}

	tests := []struct {
		name       string
		path       string
		mockSetup  func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "own profile",
			path: "/users/" + id,
			mockSetup: func(m *ServiceMock) {
				m.On("Get", mock.Anything, alice, id).
					Return(&models.User{ID: id, Name: "Alice", Email: "alice@example.com", PasswordHash: "secret-hash", Role: models.RoleUser}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"email":"alice@example.com"`,
		},
		{
			name: "other user",
			path: "/users/" + id,
			mockSetup: func(m *ServiceMock) {
				m.On("Get", mock.Anything, alice, id).Return(nil, apperr.Authorization("op", "not_owner"))
			},
			wantStatus: http.StatusForbidden,
			wantBody:   `{"status":"Error","error":"forbidden"}`,
		},
		{
			name:       "invalid id",
			path:       "/users/not-a-uuid",
			wantStatus: http.StatusNotFound,
			wantBody:   `{"status":"Error","error":"user not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.mockSetup != nil {
				tt.mockSetup(svc)
			}

			router := chi.NewRouter()
			router.Get("/users/{id}", New(sl.Discard(), svc).ServeHTTP)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), alice))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
			assert.NotContains(t, rr.Body.String(), "secret-hash")
			svc.AssertExpectations(t)
		})
	}
}
