// Package update реализует HTTP-обработчик PATCH подписки: смена плана и/или отмена.
package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/saas-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-core/internal/http/request"
	"github.com/magabrotheeeer/saas-core/internal/http/response"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/models"
)

// Request — изменения подписки. Хотя бы одно поле обязательно.
type Request struct {
	PlanID *string `json:"plan_id,omitempty" validate:"omitempty,min=1,max=64"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE CANCELED"`
}

// Service описывает интерфейс бизнес-логики изменения подписки.
type Service interface {
	Update(ctx context.Context, p *models.Principal, id string, patch models.SubscriptionPatch) (*models.Subscription, error)
}

// Handler обрабатывает PATCH /subscriptions/{id}.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменение подписки
// @Description Смена плана начинает новый 30-дневный период без перерасчёта. status=CANCELED отменяет подписку. plan_id вместе с status=CANCELED отклоняется.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param id path string true "ID подписки"
// @Param request body Request true "Изменения"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /subscriptions/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := request.UUIDParam(r, "id")
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("subscription not found"))
		return
	}

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		errors.As(err, &verrs)
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	patch := models.SubscriptionPatch{PlanID: req.PlanID}
	if req.Status != nil {
		status := models.SubscriptionStatus(*req.Status)
		patch.Status = &status
	}

	sub, err := h.service.Update(r.Context(), middlewarectx.PrincipalFrom(r.Context()), id, patch)
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("subscription updated", slog.String("subscription_id", sub.ID), slog.String("status", string(sub.Status)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription": sub,
	}))
}
