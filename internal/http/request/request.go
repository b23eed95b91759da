// Package request содержит общие функции разбора HTTP-запросов:
// пагинация из query-параметров и идентификаторы из URL.
package request

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/saas-core/internal/models"
)

// Page читает page и limit из query. Некорректные значения заменяются значениями по умолчанию.
func Page(r *http.Request) models.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return models.NewPage(page, limit)
}

// UUIDParam возвращает URL-параметр name, если это корректный UUID.
func UUIDParam(r *http.Request, name string) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
