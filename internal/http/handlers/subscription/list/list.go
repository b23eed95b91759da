// Package list реализует HTTP-обработчик постраничного списка подписок.
// Администратор видит все подписки, пользователь только свои.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-core/internal/http/request"
	"github.com/magabrotheeeer/saas-core/internal/http/response"
	"github.com/magabrotheeeer/saas-core/internal/models"
)

// Service описывает интерфейс бизнес-логики списка подписок.
type Service interface {
	List(ctx context.Context, p *models.Principal, page models.Page) ([]*models.Subscription, models.Pagination, error)
}

// Handler обрабатывает GET /subscriptions.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список подписок
// @Tags Subscriptions
// @Produce  json
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы (до 100)"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subs, pagination, err := h.service.List(r.Context(), middlewarectx.PrincipalFrom(r.Context()), request.Page(r))
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}
	if subs == nil {
		subs = []*models.Subscription{}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscriptions": subs,
		"pagination":    pagination,
	}))
}
