// Package logout реализует HTTP-обработчик выхода: очищает сессионную cookie.
// Токен не отзывается и остаётся валидным до истечения срока.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-core/internal/http/response"
)

// Sessions очищает сессионную cookie.
type Sessions interface {
	Clear(w http.ResponseWriter)
}

// Handler обрабатывает POST /auth/logout.
type Handler struct {
	log      *slog.Logger
	sessions Sessions
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, sessions Sessions) *Handler {
	return &Handler{log: log, sessions: sessions}
}

// ServeHTTP godoc
// @Summary Выход
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	h.log.Debug("session cleared",
		slog.String("op", "handlers.auth.logout"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, response.OK())
}
