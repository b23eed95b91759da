// Package health реализует HTTP-обработчик проверки состояния сервиса.
//
// Недоступность базы данных даёт 503. Кеш необязателен: при его недоступности
// сервис продолжает работать, читая планы напрямую из базы.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/saas-core/internal/http/response"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
)

const pingTimeout = 2 * time.Second

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status — состояние зависимостей.
type Status struct {
	DB    string `json:"db"`
	Cache string `json:"cache"`
}

// Handler обрабатывает GET /health.
type Handler struct {
	log   *slog.Logger
	db    Pinger
	cache Pinger
}

// New создает новый экземпляр Handler. cache может быть nil.
func New(log *slog.Logger, db, cache Pinger) *Handler {
	return &Handler{log: log, db: db, cache: cache}
}

func (h *Handler) check(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		h.log.Warn("dependency unavailable", slog.String("op", "handlers.health"), slog.String("dependency", name), sl.Err(err))
		return "unavailable"
	}
	return "ok"
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := Status{
		DB:    h.check(r.Context(), "db", h.db),
		Cache: h.check(r.Context(), "cache", h.cache),
	}

	if st.DB != "ok" {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Response{Status: response.StatusError, Error: "database unavailable", Data: st})
		return
	}
	render.JSON(w, r, response.StatusOKWithData(st))
}
