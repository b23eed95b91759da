// Package create реализует HTTP-обработчик оформления подписки.
//
// Оплата считается уже подтверждённой: payment_method_id сохраняется как есть.
// user_id учитывается только для администратора.
package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/saas-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-core/internal/http/response"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/models"
	services "github.com/magabrotheeeer/saas-core/internal/services/subscription"
)

// Request — параметры новой подписки.
type Request struct {
	PlanID          string  `json:"plan_id" validate:"required,max=64"`
	PaymentMethodID *string `json:"payment_method_id,omitempty" validate:"omitempty,max=255"`
	UserID          string  `json:"user_id,omitempty" validate:"omitempty,uuid"`
}

// Service описывает интерфейс бизнес-логики оформления подписки.
type Service interface {
	Create(ctx context.Context, p *models.Principal, in services.CreateInput) (*models.Subscription, error)
}

// Handler обрабатывает POST /subscriptions.
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
// @Summary Оформление подписки
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body Request true "План и способ оплаты"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос или уже есть активная подписка"
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	sub, err := h.service.Create(r.Context(), middlewarectx.PrincipalFrom(r.Context()), services.CreateInput{
		PlanID:          req.PlanID,
		PaymentMethodID: req.PaymentMethodID,
		UserID:          req.UserID,
	})
	if err != nil {
		response.FromError(w, r, log, err)
		return
	}

	log.Info("subscription created", slog.String("subscription_id", sub.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription": sub,
	}))
}
