// Package services содержит логику управления пользователями: просмотр, создание,
// частичное обновление и удаление с проверкой прав субъекта.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/saas-core/internal/authz"
	"github.com/magabrotheeeer/saas-core/internal/lib/apperr"
	"github.com/magabrotheeeer/saas-core/internal/models"
	"github.com/magabrotheeeer/saas-core/internal/storage"
)

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, page models.Page) ([]*models.User, int, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Hasher хеширует пароли.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// CreateInput — данные нового пользователя. Пустая роль означает USER.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UpdateInput — запрошенные изменения. nil означает "не менять".
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	Image    *string
	Role     *string
}

// UserService реализует операции над пользователями.
type UserService struct {
	repo   UserRepository
	hasher Hasher
	log    *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, hasher Hasher, log *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		log:    log,
	}
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) load(ctx context.Context, op string, p *models.Principal, id string, action authz.Action) (*models.User, error) {
	if p == nil {
		return nil, authz.Require(op, nil, id, action)
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(op, "user not found")
		}
		return nil, apperr.Unexpected(op, err)
	}
	if err := authz.Require(op, p, user.ID, action); err != nil {
		return nil, err
	}
	return user, nil
}

// Get возвращает пользователя. Пользователь видит только себя, администратор видит всех.
func (s *UserService) Get(ctx context.Context, p *models.Principal, id string) (*models.User, error) {
	const op = "services.user.Get"
	return s.load(ctx, op, p, id, authz.ActionProfileRead)
}

// List возвращает страницу пользователей. Только для администратора.
func (s *UserService) List(ctx context.Context, p *models.Principal, page models.Page) ([]*models.User, models.Pagination, error) {
	const op = "services.user.List"
	if err := authz.Require(op, p, "", authz.ActionUsersList); err != nil {
		return nil, models.Pagination{}, err
	}
	users, total, err := s.repo.ListUsers(ctx, page)
	if err != nil {
		return nil, models.Pagination{}, apperr.Unexpected(op, err)
	}
	return users, models.NewPagination(page, total), nil
}

// Create создаёт пользователя от имени администратора.
func (s *UserService) Create(ctx context.Context, p *models.Principal, in CreateInput) (*models.User, error) {
	const op = "services.user.Create"
	if err := authz.Require(op, p, "", authz.ActionUsersCreate); err != nil {
		return nil, err
	}

	role := models.RoleUser
	if in.Role != "" {
		parsed, err := models.ParseRole(in.Role)
		if err != nil {
			return nil, apperr.Validation(op, "role must be USER or ADMIN")
		}
		role = parsed
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Unexpected(op, err)
	}

	user, err := s.repo.CreateUser(ctx, models.User{
		Email:        NormalizeEmail(in.Email),
		Name:         in.Name,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, apperr.Conflict(op, "user with this email already exists", err)
		}
		return nil, apperr.Unexpected(op, err)
	}

	s.log.Info("user created",
		slog.String("op", op),
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.String("created_by", p.ID),
	)
	return user, nil
}

// Update частично обновляет пользователя. Роль меняется только администратором,
// от обычного пользователя поле role молча игнорируется.
func (s *UserService) Update(ctx context.Context, p *models.Principal, id string, in UpdateInput) (*models.User, error) {
	const op = "services.user.Update"
	user, err := s.load(ctx, op, p, id, authz.ActionProfileUpdate)
	if err != nil {
		return nil, err
	}

	var patch models.UserPatch
	patch.Name = in.Name
	patch.Image = in.Image
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		patch.Email = &email
	}
	if in.Role != nil && authz.Evaluate(p, user.ID, authz.ActionUsersChangeRole).Allowed {
		role, err := models.ParseRole(*in.Role)
		if err != nil {
			return nil, apperr.Validation(op, "role must be USER or ADMIN")
		}
		patch.Role = &role
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, apperr.Unexpected(op, err)
		}
		patch.PasswordHash = &hash
	}

	if patch.Empty() {
		return user, nil
	}

	updated, err := s.repo.UpdateUser(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			return nil, apperr.Conflict(op, "user with this email already exists", err)
		case errors.Is(err, storage.ErrNotFound):
			return nil, apperr.NotFound(op, "user not found")
		default:
			return nil, apperr.Unexpected(op, err)
		}
	}
	return updated, nil
}

// Delete удаляет пользователя. Только для администратора.
// Пользователя с подписками удалить нельзя.
func (s *UserService) Delete(ctx context.Context, p *models.Principal, id string) error {
	const op = "services.user.Delete"
	if _, err := s.load(ctx, op, p, id, authz.ActionUsersDelete); err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrReferenced):
			return apperr.Conflict(op, "user has subscriptions", err)
		case errors.Is(err, storage.ErrNotFound):
			return apperr.NotFound(op, "user not found")
		default:
			return apperr.Unexpected(op, err)
		}
	}
	s.log.Info("user deleted", slog.String("op", op), slog.String("user_id", id), slog.String("deleted_by", p.ID))
	return nil
}
