// Package session реализует HTTP-обработчик получения текущей сессии.
// Отсутствие или невалидность токена не является ошибкой: возвращается {user: null}.
package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-core/internal/http/response"
	"github.com/magabrotheeeer/saas-core/internal/models"
)

// Service возвращает пользователя по токену или nil.
type Service interface {
	Session(ctx context.Context, token string) (*models.User, error)
}

// TokenSource извлекает токен из запроса.
type TokenSource interface {
	Token(r *http.Request) (string, bool)
}

// Handler обрабатывает GET /auth/session.
type Handler struct {
	log     *slog.Logger
	service Service
	tokens  TokenSource
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, tokens TokenSource) *Handler {
	return &Handler{log: log, service: service, tokens: tokens}
}

// ServeHTTP godoc
// @Summary Текущая сессия
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Пользователь или null"
// @Router /auth/session [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.session"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var user *models.User
	if token, ok := h.tokens.Token(r); ok {
		var err error
		user, err = h.service.Session(r.Context(), token)
		if err != nil {
			response.FromError(w, r, log, err)
			return
		}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user": user,
	}))
}
