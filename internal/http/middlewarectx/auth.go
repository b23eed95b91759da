// Package middlewarectx содержит HTTP middleware аутентификации и ограничения частоты запросов.
//
// Authenticate извлекает сессионный токен (cookie auth_token или заголовок Authorization),
// проверяет его и кладёт models.Principal в контекст запроса. RequireAuth отклоняет
// запросы без субъекта с HTTP 401.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-core/internal/http/response"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/models"
)

type principalKey struct{}

// Authenticator проверяет токен и возвращает субъекта.
type Authenticator interface {
	Authenticate(token string) (*models.Principal, error)
}

// TokenSource извлекает токен из запроса.
type TokenSource interface {
	Token(r *http.Request) (string, bool)
}

// WithPrincipal возвращает контекст с субъектом.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom возвращает субъекта из контекста или nil.
func PrincipalFrom(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey{}).(*models.Principal)
	return p
}

// Authenticate возвращает middleware, который при валидном токене добавляет субъекта в контекст.
// Запрос без токена или с невалидным токеном передаётся дальше анонимным.
func Authenticate(auth Authenticator, tokens TokenSource, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"

			token, ok := tokens.Token(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			p, err := auth.Authenticate(token)
			if err != nil {
				log.Debug("session token rejected",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAuth отклоняет запросы без аутентифицированного субъекта.
func RequireAuth(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PrincipalFrom(r.Context()) == nil {
				log.Info("unauthenticated request",
					slog.String("op", "middlewarectx.RequireAuth"),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("path", r.URL.Path),
				)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
