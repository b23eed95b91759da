// Package services содержит логику бизнес-уровня для регистрации, входа
// и проверки сессионных токенов.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/magabrotheeeer/saas-core/internal/lib/apperr"
	"github.com/magabrotheeeer/saas-core/internal/lib/jwt"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/metrics"
	"github.com/magabrotheeeer/saas-core/internal/models"
	"github.com/magabrotheeeer/saas-core/internal/storage"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя. Занятый email даёт storage.ErrAlreadyExists.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	// GetUserByEmail возвращает пользователя по email или storage.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID возвращает пользователя по ID или storage.ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Hasher хеширует и проверяет пароли.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// AuthService отвечает за регистрацию, вход и проверку токенов.
type AuthService struct {
	users    UserRepository
	hasher   Hasher
	jwtMaker jwt.Maker
	metrics  *metrics.Metrics
	log      *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// dummyPasswordHash возвращает хеш с той же стоимостью, что и у настоящих паролей.
// Сверка с ним уравнивает время ответа для неизвестного email.
func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("saas-core-dummy-password")
		if err != nil {
			s.log.Warn("failed to prepare dummy password hash", sl.Err(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// NewAuthService создает новый экземпляр AuthService. m может быть nil.
func NewAuthService(users UserRepository, hasher Hasher, jwtMaker jwt.Maker, m *metrics.Metrics, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		jwtMaker: jwtMaker,
		metrics:  m,
		log:      log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создаёт пользователя с ролью USER и сразу выпускает для него токен.
// Хеширование выполняется до обращения к хранилищу.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (*models.User, string, error) {
	const op = "services.auth.Register"
	email = normalizeEmail(email)

	hashed, err := s.hasher.Hash(rawPassword)
	if err != nil {
		s.metrics.RecordAuth("register", "error")
		return nil, "", apperr.Unexpected(op, err)
	}

	_, err = s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		s.metrics.RecordAuth("register", "conflict")
		return nil, "", apperr.Conflict(op, "user with this email already exists", nil)
	case errors.Is(err, storage.ErrNotFound):
	default:
		s.metrics.RecordAuth("register", "error")
		return nil, "", apperr.Unexpected(op, err)
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// параллельная регистрация с тем же email
			s.metrics.RecordAuth("register", "conflict")
			return nil, "", apperr.Conflict(op, "user with this email already exists", err)
		}
		s.metrics.RecordAuth("register", "error")
		return nil, "", apperr.Unexpected(op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.Principal())
	if err != nil {
		s.metrics.RecordAuth("register", "error")
		return nil, "", apperr.Unexpected(op, err)
	}

	s.metrics.RecordAuth("register", "success")
	s.log.Info("user registered", slog.String("op", op), slog.String("user_id", user.ID))
	return user, token, nil
}

// Login проверяет учётные данные и выпускает токен. Неизвестный email и неверный
// пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.hasher.Verify(rawPassword, s.dummyPasswordHash())
			s.metrics.RecordAuth("login", "invalid_credentials")
			return nil, "", apperr.Authentication(op, "invalid credentials", nil)
		}
		s.metrics.RecordAuth("login", "error")
		return nil, "", apperr.Unexpected(op, err)
	}
	if !s.hasher.Verify(rawPassword, user.PasswordHash) {
		s.metrics.RecordAuth("login", "invalid_credentials")
		return nil, "", apperr.Authentication(op, "invalid credentials", nil)
	}

	token, err := s.jwtMaker.GenerateToken(user.Principal())
	if err != nil {
		s.metrics.RecordAuth("login", "error")
		return nil, "", apperr.Unexpected(op, err)
	}

	s.metrics.RecordAuth("login", "success")
	return user, token, nil
}

// Authenticate проверяет токен и возвращает субъекта. Хранилище не используется.
func (s *AuthService) Authenticate(token string) (*models.Principal, error) {
	const op = "services.auth.Authenticate"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, apperr.Authentication(op, "invalid token", err)
	}
	p := claims.Principal()
	return &p, nil
}

// Session возвращает пользователя текущей сессии. Невалидный токен или удалённый
// пользователь дают (nil, nil): отсутствие сессии не является ошибкой.
func (s *AuthService) Session(ctx context.Context, token string) (*models.User, error) {
	const op = "services.auth.Session"
	if token == "" {
		return nil, nil
	}
	p, err := s.Authenticate(token)
	if err != nil {
		s.log.Debug("session token rejected", slog.String("op", op), sl.Err(err))
		return nil, nil
	}
	user, err := s.users.GetUserByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Unexpected(op, err)
	}
	return user, nil
}
