// Package check реализует HTTP-обработчик проверки доступа вызывающего к функции продукта.
package check

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-core/internal/http/response"
)

// Resolver определяет, доступна ли функция пользователю.
type Resolver interface {
	HasAccess(ctx context.Context, userID, featureKey string) bool
}

// Result — ответ проверки.
type Result struct {
	Feature   string `json:"feature"`
	HasAccess bool   `json:"has_access"`
}

// Handler обрабатывает GET /entitlements/{feature}.
type Handler struct {
	log      *slog.Logger
	resolver Resolver
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, resolver Resolver) *Handler {
	return &Handler{log: log, resolver: resolver}
}

// ServeHTTP godoc
// @Summary Проверка доступа к функции
// @Tags Entitlements
// @Produce  json
// @Param feature path string true "Ключ функции"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /entitlements/{feature} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.check"

	p := middlewarectx.PrincipalFrom(r.Context())
	if p == nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	feature := chi.URLParam(r, "feature")
	res := Result{
		Feature:   feature,
		HasAccess: h.resolver.HasAccess(r.Context(), p.ID, feature),
	}

	h.log.Debug("entitlement checked",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user_id", p.ID),
		slog.String("feature", feature),
		slog.Bool("has_access", res.HasAccess),
	)
	render.JSON(w, r, response.StatusOKWithData(res))
}
