package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/saas-core/internal/models"
)

func TestPage(t *testing.T) {
	tests := []struct {
		query string
		want  models.Page
	}{
		{query: "", want: models.Page{Page: 1, Limit: models.DefaultPageLimit}},
		{query: "page=3&limit=20", want: models.Page{Page: 3, Limit: 20}},
		{query: "page=-1&limit=abc", want: models.Page{Page: 1, Limit: models.DefaultPageLimit}},
		{query: "limit=1000", want: models.Page{Page: 1, Limit: models.MaxPageLimit}},
		{query: "page=922337203685477580&limit=100", want: models.Page{Page: models.MaxPage, Limit: 100}},
		{query: "page=99999999999999999999", want: models.Page{Page: models.MaxPage, Limit: models.DefaultPageLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			assert.Equal(t, tt.want, Page(r))
		})
	}
}

func TestUUIDParam(t *testing.T) {
	withParam := func(v string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", v)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	id, ok := UUIDParam(withParam("0B7C6A1E-1F1D-4C4E-9D55-6C1B3F0A9E01"), "id")
	assert.True(t, ok)
	assert.Equal(t, "0b7c6a1e-1f1d-4c4e-9d55-6c1b3f0a9e01", id)

	_, ok = UUIDParam(withParam("42"), "id")
	assert.False(t, ok)
}
