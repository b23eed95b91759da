package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/saas-core/internal/lib/apperr"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/models"
	"github.com/magabrotheeeer/saas-core/internal/storage"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ListUsers(ctx context.Context, page models.Page) ([]*models.User, int, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.User), args.Int(1), args.Error(2)
}

func (m *UserRepoMock) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type stubHasher struct{ err error }

func (h stubHasher) Hash(plaintext string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + plaintext, nil
}

var (
	alice     = &models.Principal{ID: "u1", Email: "alice@example.com", Role: models.RoleUser}
	admin     = &models.Principal{ID: "a1", Email: "admin@example.com", Role: models.RoleAdmin}
	aliceUser = &models.User{ID: "u1", Email: "alice@example.com", Name: "Alice", Role: models.RoleUser}
	bobUser   = &models.User{ID: "u2", Email: "bob@example.com", Name: "Bob", Role: models.RoleUser}
)

func newService(repo *UserRepoMock) *UserService {
	return NewUserService(repo, stubHasher{}, sl.Discard())
}

func ptr[T any](v T) *T { return &v }

func TestUserService_Get(t *testing.T) {
	tests := []struct {
		name      string
		principal *models.Principal
		id        string
		setup     func(r *UserRepoMock)
		wantKind  *apperr.Kind
	}{
		{
			name:      "self",
			principal: alice,
			id:        "u1",
			setup:     func(r *UserRepoMock) { r.On("GetUserByID", mock.Anything, "u1").Return(aliceUser, nil) },
		},
		{
			name:      "admin reads other",
			principal: admin,
			id:        "u2",
			setup:     func(r *UserRepoMock) { r.On("GetUserByID", mock.Anything, "u2").Return(bobUser, nil) },
		},
		{
			name:      "user reads other",
			principal: alice,
			id:        "u2",
			setup:     func(r *UserRepoMock) { r.On("GetUserByID", mock.Anything, "u2").Return(bobUser, nil) },
			wantKind:  ptr(apperr.KindAuthorization),
		},
		{
			name:      "not found before forbidden",
			principal: alice,
			id:        "u404",
			setup: func(r *UserRepoMock) {
				r.On("GetUserByID", mock.Anything, "u404").Return(nil, fmt.Errorf("storage: %w", storage.ErrNotFound))
			},
			wantKind: ptr(apperr.KindNotFound),
		},
		{
			name:     "anonymous",
			id:       "u1",
			setup:    func(*UserRepoMock) {},
			wantKind: ptr(apperr.KindAuthentication),
		},
		{
			name:      "storage failure",
			principal: admin,
			id:        "u1",
			setup: func(r *UserRepoMock) {
				r.On("GetUserByID", mock.Anything, "u1").Return(nil, errors.New("db down"))
			},
			wantKind: ptr(apperr.KindUnexpected),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setup(repo)
			user, err := newService(repo).Get(context.Background(), tt.principal, tt.id)
			if tt.wantKind != nil {
				require.Error(t, err)
				assert.Equal(t, *tt.wantKind, apperr.KindOf(err))
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.id, user.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_List(t *testing.T) {
	page := models.NewPage(2, 1)

	t.Run("admin", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("ListUsers", mock.Anything, page).Return([]*models.User{bobUser}, 2, nil)

		users, pagination, err := newService(repo).List(context.Background(), admin, page)
		require.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, models.Pagination{Total: 2, Page: 2, Limit: 1, Pages: 2}, pagination)
	})

	t.Run("user is forbidden", func(t *testing.T) {
		repo := new(UserRepoMock)
		_, _, err := newService(repo).List(context.Background(), alice, page)
		assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
		repo.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything)
	})
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("admin creates admin", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Email == "new@example.com" && u.Role == models.RoleAdmin && u.PasswordHash == "hashed:secret123"
		})).Return(&models.User{ID: "u3", Email: "new@example.com", Role: models.RoleAdmin}, nil).Once()

		user, err := newService(repo).Create(ctx, admin, CreateInput{
			Name: "New", Email: " New@Example.com ", Password: "secret123", Role: "admin",
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
		repo.AssertExpectations(t)
	})

	t.Run("default role", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Role == models.RoleUser
		})).Return(&models.User{ID: "u3", Role: models.RoleUser}, nil).Once()

		_, err := newService(repo).Create(ctx, admin, CreateInput{Email: "x@example.com", Password: "secret123"})
		require.NoError(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := newService(new(UserRepoMock)).Create(ctx, admin, CreateInput{Email: "x@example.com", Password: "p", Role: "ROOT"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("CreateUser", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("storage: %w", storage.ErrAlreadyExists))
		_, err := newService(repo).Create(ctx, admin, CreateInput{Email: "alice@example.com", Password: "p"})
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("user is forbidden", func(t *testing.T) {
		_, err := newService(new(UserRepoMock)).Create(ctx, alice, CreateInput{Email: "x@example.com", Password: "p"})
		assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
	})

	t.Run("hash failure", func(t *testing.T) {
		svc := NewUserService(new(UserRepoMock), stubHasher{err: errors.New("boom")}, sl.Discard())
		_, err := svc.Create(ctx, admin, CreateInput{Email: "x@example.com", Password: "p"})
		assert.Equal(t, apperr.KindUnexpected, apperr.KindOf(err))
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("user role change is ignored", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, "u1").Return(aliceUser, nil)
		repo.On("UpdateUser", mock.Anything, "u1", models.UserPatch{Name: ptr("Alicia")}).
			Return(&models.User{ID: "u1", Name: "Alicia", Role: models.RoleUser}, nil).Once()

		user, err := newService(repo).Update(ctx, alice, "u1", UpdateInput{Name: ptr("Alicia"), Role: ptr("ADMIN")})
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, user.Role)
		repo.AssertExpectations(t)
	})

	t.Run("only role from user is a no-op", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, "u1").Return(aliceUser, nil)

		user, err := newService(repo).Update(ctx, alice, "u1", UpdateInput{Role: ptr("ADMIN")})
		require.NoError(t, err)
		assert.Equal(t, aliceUser, user)
		repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin changes role", func(t *testing.T) {
		role := models.RoleAdmin
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, "u2").Return(bobUser, nil)
		repo.On("UpdateUser", mock.Anything, "u2", models.UserPatch{Role: &role}).
			Return(&models.User{ID: "u2", Role: models.RoleAdmin}, nil).Once()

		user, err := newService(repo).Update(ctx, admin, "u2", UpdateInput{Role: ptr("ADMIN")})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
	})

	t.Run("password and email are normalized", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, "u1").Return(aliceUser, nil)
		repo.On("UpdateUser", mock.Anything, "u1", models.UserPatch{
			Email:        ptr("alice@new.example.com"),
			PasswordHash: ptr("hashed:newpass123"),
		}).Return(aliceUser, nil).Once()

		_, err := newService(repo).Update(ctx, alice, "u1", UpdateInput{
			Email: ptr("Alice@New.Example.com"), Password: ptr("newpass123"),
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, "u1").Return(aliceUser, nil)
		repo.On("UpdateUser", mock.Anything, "u1", mock.Anything).Return(nil, storage.ErrAlreadyExists)

		_, err := newService(repo).Update(ctx, alice, "u1", UpdateInput{Email: ptr("bob@example.com")})
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("other user", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, "u2").Return(bobUser, nil)

		_, err := newService(repo).Update(ctx, alice, "u2", UpdateInput{Name: ptr("x")})
		assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
	})
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		principal *models.Principal
		setup     func(r *UserRepoMock)
		wantKind  *apperr.Kind
	}{
		{
			name:      "admin deletes",
			principal: admin,
			setup: func(r *UserRepoMock) {
				r.On("GetUserByID", mock.Anything, "u2").Return(bobUser, nil)
				r.On("DeleteUser", mock.Anything, "u2").Return(nil).Once()
			},
		},
		{
			name:      "user with subscriptions",
			principal: admin,
			setup: func(r *UserRepoMock) {
				r.On("GetUserByID", mock.Anything, "u2").Return(bobUser, nil)
				r.On("DeleteUser", mock.Anything, "u2").Return(fmt.Errorf("storage: %w", storage.ErrReferenced))
			},
			wantKind: ptr(apperr.KindConflict),
		},
		{
			name:      "owner cannot delete self",
			principal: &models.Principal{ID: "u2", Role: models.RoleUser},
			setup: func(r *UserRepoMock) {
				r.On("GetUserByID", mock.Anything, "u2").Return(bobUser, nil)
			},
			wantKind: ptr(apperr.KindAuthorization),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setup(repo)
			err := newService(repo).Delete(ctx, tt.principal, "u2")
			if tt.wantKind != nil {
				assert.Equal(t, *tt.wantKind, apperr.KindOf(err))
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
